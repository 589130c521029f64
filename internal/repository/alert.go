package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"inspection-service/internal/apperr"
	"inspection-service/internal/models"
)

// AlertRepository is the durable, per-user alert log.
type AlertRepository interface {
	// Append stores a new alert, assigning its id and timestamp. The input is
	// not modified.
	Append(ctx context.Context, alert *models.Alert) (*models.Alert, error)
	// List returns the user's alerts, newest first.
	List(ctx context.Context, userID string, filter models.AlertFilter, limit, offset int) ([]*models.Alert, error)
	Get(ctx context.Context, id int64, userID string) (*models.Alert, error)
	UpdateAction(ctx context.Context, id int64, userID string, action models.Action) (*models.Alert, error)
	// ListSince returns every alert of the user with timestamp >= since.
	ListSince(ctx context.Context, userID string, since time.Time) ([]*models.Alert, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*models.Alert, error)
	MarkNotified(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

const alertColumns = `id, user_id, alert_type, source, direction, message_preview, created_at, user_action,
	risk_level, risk_score, categories, sender, recipient, is_spam, spam_probability,
	has_sensitive_data, sensitivity_level, detections, notification_sent, idempotency_key`

type sqlAlertRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewAlertRepository returns an AlertRepository backed by a SQL database.
// Queries are written with '?' placeholders and rebound for the driver.
func NewAlertRepository(db *sqlx.DB, logger *zap.Logger) AlertRepository {
	return &sqlAlertRepository{db: db, logger: logger, now: time.Now}
}

func (r *sqlAlertRepository) Append(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	if err := validateAlert(alert); err != nil {
		return nil, err
	}

	stored := cloneAlert(alert)
	stored.ID = 0
	stored.Timestamp = stamp(r.now())
	normalizeAlert(stored)

	query := r.db.Rebind(`INSERT INTO alerts (user_id, alert_type, source, direction, message_preview, created_at, user_action,
		risk_level, risk_score, categories, sender, recipient, is_spam, spam_probability,
		has_sensitive_data, sensitivity_level, detections, notification_sent, idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		stored.UserID, stored.AlertType, stored.Source, stored.Direction, stored.MessagePreview, stored.Timestamp,
		stored.UserAction, stored.RiskLevel, stored.RiskScore, stored.Categories, stored.Sender, stored.Recipient,
		stored.IsSpam, stored.SpamProbability, stored.HasSensitiveData, stored.SensitivityLevel, stored.Detections,
		stored.NotificationSent, stored.IdempotencyKey,
	).Scan(&stored.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("an alert with this idempotency key already exists")
		}
		r.logger.Error("Failed to append alert", zap.String("user_id", stored.UserID), zap.Error(err))
		return nil, storeError("failed to append alert", err)
	}
	return stored, nil
}

func (r *sqlAlertRepository) List(ctx context.Context, userID string, filter models.AlertFilter, limit, offset int) ([]*models.Alert, error) {
	if err := validatePage(filter, limit, offset); err != nil {
		return nil, err
	}

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = ?`
	args := []any{userID}
	if filter.AlertType != "" {
		query += ` AND alert_type = ?`
		args = append(args, filter.AlertType)
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	alerts := make([]*models.Alert, 0)
	if err := r.db.SelectContext(ctx, &alerts, r.db.Rebind(query), args...); err != nil {
		r.logger.Error("Failed to list alerts", zap.String("user_id", userID), zap.Error(err))
		return nil, storeError("failed to list alerts", err)
	}
	return alerts, nil
}

func (r *sqlAlertRepository) Get(ctx context.Context, id int64, userID string) (*models.Alert, error) {
	var alert models.Alert
	query := r.db.Rebind(`SELECT ` + alertColumns + ` FROM alerts WHERE id = ? AND user_id = ?`)
	if err := r.db.GetContext(ctx, &alert, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("alert")
		}
		return nil, storeError("failed to get alert", err)
	}
	return &alert, nil
}

func (r *sqlAlertRepository) UpdateAction(ctx context.Context, id int64, userID string, action models.Action) (*models.Alert, error) {
	if !action.Valid() {
		return nil, invalidAction(action)
	}

	var alert models.Alert
	query := r.db.Rebind(`UPDATE alerts SET user_action = ? WHERE id = ? AND user_id = ? RETURNING ` + alertColumns)
	if err := r.db.GetContext(ctx, &alert, query, action, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("alert")
		}
		r.logger.Error("Failed to update alert action", zap.Int64("alert_id", id), zap.Error(err))
		return nil, storeError("failed to update alert action", err)
	}
	return &alert, nil
}

func (r *sqlAlertRepository) ListSince(ctx context.Context, userID string, since time.Time) ([]*models.Alert, error) {
	alerts := make([]*models.Alert, 0)
	query := r.db.Rebind(`SELECT ` + alertColumns + ` FROM alerts WHERE user_id = ? AND created_at >= ? ORDER BY id DESC`)
	if err := r.db.SelectContext(ctx, &alerts, query, userID, stamp(since)); err != nil {
		return nil, storeError("failed to list alerts", err)
	}
	return alerts, nil
}

func (r *sqlAlertRepository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*models.Alert, error) {
	var alert models.Alert
	query := r.db.Rebind(`SELECT ` + alertColumns + ` FROM alerts WHERE user_id = ? AND idempotency_key = ?`)
	if err := r.db.GetContext(ctx, &alert, query, userID, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("alert")
		}
		return nil, storeError("failed to find alert", err)
	}
	return &alert, nil
}

func (r *sqlAlertRepository) MarkNotified(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE alerts SET notification_sent = ? WHERE id = ?`), true, id)
	if err != nil {
		return storeError("failed to mark alert notified", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("alert")
	}
	return nil
}

func (r *sqlAlertRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return storeError("ping failed", err)
	}
	return nil
}

// stamp normalizes a time to UTC with the precision every backend keeps.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func validateAlert(alert *models.Alert) error {
	if alert == nil {
		return apperr.InvalidInput("alert", "is required")
	}
	if alert.UserID == "" {
		return apperr.InvalidInput("user_id", "is required")
	}
	if !alert.AlertType.Valid() {
		return apperr.InvalidArgument("alert_type", alert.AlertType, string(models.KindSpam), string(models.KindDLP))
	}
	if !alert.Source.Valid() {
		return invalidSource(alert.Source)
	}
	if alert.UserAction != nil && !alert.UserAction.Valid() {
		return invalidAction(*alert.UserAction)
	}
	return nil
}

func validatePage(filter models.AlertFilter, limit, offset int) error {
	if filter.AlertType != "" && !filter.AlertType.Valid() {
		return apperr.InvalidArgument("alert_type", filter.AlertType, string(models.KindSpam), string(models.KindDLP))
	}
	if filter.Source != "" && !filter.Source.Valid() {
		return invalidSource(filter.Source)
	}
	if limit <= 0 {
		return apperr.InvalidInput("limit", "must be positive")
	}
	if offset < 0 {
		return apperr.InvalidInput("offset", "must not be negative")
	}
	return nil
}

func invalidSource(source models.Source) error {
	allowed := make([]string, 0, len(models.Sources))
	for _, s := range models.Sources {
		allowed = append(allowed, string(s))
	}
	return apperr.InvalidArgument("source", source, allowed...)
}

func invalidAction(action models.Action) error {
	return apperr.InvalidArgument("action", action,
		string(models.ActionAllowed), string(models.ActionBlocked), string(models.ActionReported))
}

// normalizeAlert replaces nil lists with empty ones so stored and reloaded
// alerts compare equal.
func normalizeAlert(a *models.Alert) {
	if a.Categories == nil {
		a.Categories = models.CategoryList{}
	}
	if a.Detections == nil {
		a.Detections = models.DetectionSummary{}
	}
}

// cloneAlert copies an alert deeply enough that the copy shares no mutable
// state with the original.
func cloneAlert(a *models.Alert) *models.Alert {
	c := *a
	if a.UserAction != nil {
		action := *a.UserAction
		c.UserAction = &action
	}
	if a.Sender != nil {
		sender := *a.Sender
		c.Sender = &sender
	}
	if a.Recipient != nil {
		recipient := *a.Recipient
		c.Recipient = &recipient
	}
	if a.IdempotencyKey != nil {
		key := *a.IdempotencyKey
		c.IdempotencyKey = &key
	}
	if a.Categories != nil {
		c.Categories = append(models.CategoryList(nil), a.Categories...)
	}
	if a.Detections != nil {
		c.Detections = append(models.DetectionSummary(nil), a.Detections...)
	}
	return &c
}
