package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"inspection-service/internal/apperr"
	"inspection-service/internal/classifier"
	"inspection-service/internal/detector"
	"inspection-service/internal/models"
	"inspection-service/internal/notifier"
	"inspection-service/internal/repository"
)

const (
	// PreviewRunes is the length of the stored message preview before the
	// ellipsis.
	PreviewRunes = 100

	defaultModelTimeout = 5 * time.Second
	notificationTimeout = 5 * time.Second
	replayMessage       = "Duplicate request: returning the previously recorded result."
)

// SpamModel scores a message with an external model.
type SpamModel interface {
	SpamProbability(ctx context.Context, text string) (float64, error)
}

// InspectRequest is one message submitted for inspection.
type InspectRequest struct {
	UserID            string
	Text              string
	Kind              models.Kind
	Source            models.Source
	Direction         models.Direction // optional; derived from Kind when empty
	SenderOrRecipient string
	IdempotencyKey    string
}

// InspectResponse is the classification plus the id of the recorded alert.
type InspectResponse struct {
	*models.ClassificationResult
	AlertID          int64 `json:"alert_id"`
	NotificationSent bool  `json:"notification_sent"`
	Replayed         bool  `json:"replayed,omitempty"`
}

// InspectorConfig tunes the inspection pipeline.
type InspectorConfig struct {
	ModelTimeout   time.Duration
	NotifyMinLevel models.RiskLevel
}

type Inspector interface {
	Inspect(ctx context.Context, req InspectRequest) (*InspectResponse, error)
}

type inspector struct {
	classifier *classifier.Classifier
	repo       repository.AlertRepository
	model      SpamModel // nil when the model service is disabled
	notifier   notifier.Notifier
	versions   *StatsVersions
	cfg        InspectorConfig
	logger     *zap.Logger
}

func NewInspector(
	c *classifier.Classifier,
	repo repository.AlertRepository,
	model SpamModel,
	n notifier.Notifier,
	versions *StatsVersions,
	cfg InspectorConfig,
	logger *zap.Logger,
) Inspector {
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = defaultModelTimeout
	}
	if !cfg.NotifyMinLevel.Valid() {
		cfg.NotifyMinLevel = models.RiskHigh
	}
	if n == nil {
		n = notifier.Nop{}
	}
	return &inspector{
		classifier: c,
		repo:       repo,
		model:      model,
		notifier:   n,
		versions:   versions,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *inspector) Inspect(ctx context.Context, req InspectRequest) (*InspectResponse, error) {
	if err := validateInspectRequest(&req); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
		switch {
		case err == nil:
			s.logger.Info("Replaying inspection for idempotency key",
				zap.String("user_id", req.UserID), zap.Int64("alert_id", existing.ID))
			return replayResponse(existing), nil
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
	}

	meta := models.Metadata{
		Source:            req.Source,
		Direction:         req.Direction,
		SenderOrRecipient: req.SenderOrRecipient,
	}
	if req.Kind == models.KindSpam && strings.TrimSpace(req.Text) != "" {
		meta.ModelProbability = s.modelProbability(ctx, req.Text)
	}

	result, err := s.classifier.Classify(req.Text, req.Kind, meta)
	if err != nil {
		return nil, err
	}

	preview := Preview(s.classifier.MaskSensitive(req.Text))
	stored, err := s.repo.Append(ctx, buildAlert(req, result, preview))
	if errors.Is(err, apperr.ErrConflict) && req.IdempotencyKey != "" {
		// A concurrent request with the same key won the insert.
		existing, findErr := s.repo.FindByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
		if findErr != nil {
			return nil, findErr
		}
		return replayResponse(existing), nil
	}
	if err != nil {
		return nil, err
	}

	s.versions.Bump(ctx, req.UserID)

	s.logger.Info("Message inspected",
		zap.String("user_id", req.UserID),
		zap.String("kind", string(req.Kind)),
		zap.Int64("alert_id", stored.ID),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.Int("risk_score", result.RiskScore),
		zap.Int("detections", result.TotalMatches))

	resp := &InspectResponse{ClassificationResult: result, AlertID: stored.ID}
	if result.RiskLevel.Rank() >= s.cfg.NotifyMinLevel.Rank() {
		resp.NotificationSent = s.notify(ctx, stored)
	}
	return resp, nil
}

// modelProbability consults the spam model. Any failure falls back to
// indicator-only scoring.
func (s *inspector) modelProbability(ctx context.Context, text string) *float64 {
	if s.model == nil {
		return nil
	}

	modelCtx, cancel := context.WithTimeout(ctx, s.cfg.ModelTimeout)
	defer cancel()

	p, err := s.model.SpamProbability(modelCtx, text)
	if err != nil {
		s.logger.Warn("Spam model unavailable, scoring from indicators only", zap.Error(err))
		return nil
	}
	return &p
}

func (s *inspector) notify(ctx context.Context, alert *models.Alert) bool {
	if _, ok := s.notifier.(notifier.Nop); ok {
		return false
	}

	notifyCtx, cancel := context.WithTimeout(ctx, notificationTimeout)
	defer cancel()

	if err := s.notifier.Notify(notifyCtx, alert); err != nil {
		s.logger.Error("Failed to notify operator", zap.Int64("alert_id", alert.ID), zap.Error(err))
		return false
	}
	if err := s.repo.MarkNotified(ctx, alert.ID); err != nil {
		s.logger.Error("Failed to mark alert notified", zap.Int64("alert_id", alert.ID), zap.Error(err))
		return false
	}
	return true
}

func validateInspectRequest(req *InspectRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return apperr.InvalidInput("user_id", "is required")
	}
	if !req.Kind.Valid() {
		return apperr.InvalidArgument("kind", req.Kind, string(models.KindSpam), string(models.KindDLP))
	}
	if req.Source == "" {
		req.Source = models.SourceManual
	}
	if !req.Source.Valid() {
		allowed := make([]string, 0, len(models.Sources))
		for _, src := range models.Sources {
			allowed = append(allowed, string(src))
		}
		return apperr.InvalidArgument("source", req.Source, allowed...)
	}
	if req.Direction == "" {
		req.Direction = defaultDirection(req.Kind)
	}
	if !req.Direction.Valid() {
		return apperr.InvalidArgument("direction", req.Direction,
			string(models.DirectionIncoming), string(models.DirectionOutgoing))
	}
	return nil
}

func defaultDirection(kind models.Kind) models.Direction {
	if kind == models.KindDLP {
		return models.DirectionOutgoing
	}
	return models.DirectionIncoming
}

// buildAlert records result. preview must already be masked and truncated.
func buildAlert(req InspectRequest, result *models.ClassificationResult, preview string) *models.Alert {
	alert := &models.Alert{
		UserID:           req.UserID,
		AlertType:        req.Kind,
		Source:           req.Source,
		Direction:        req.Direction,
		MessagePreview:   preview,
		RiskLevel:        result.RiskLevel,
		RiskScore:        result.RiskScore,
		Categories:       models.CategoryList(result.Categories),
		IsSpam:           result.IsSpam,
		SpamProbability:  result.SpamProbability,
		HasSensitiveData: result.HasSensitiveData,
		SensitivityLevel: result.SensitivityLevel,
		Detections:       make(models.DetectionSummary, 0, len(result.Detections)),
	}
	for _, d := range result.Detections {
		alert.Detections = append(alert.Detections, models.MaskedDetection{
			Category:    d.Category,
			Sensitivity: d.Sensitivity,
			MaskedValue: d.MaskedValue,
			Span:        d.Span,
		})
	}
	if req.SenderOrRecipient != "" {
		party := req.SenderOrRecipient
		if req.Direction == models.DirectionIncoming {
			alert.Sender = &party
		} else {
			alert.Recipient = &party
		}
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		alert.IdempotencyKey = &key
	}
	return alert
}

// Preview shortens text to PreviewRunes runes, appending "..." when cut.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:PreviewRunes]) + "..."
}

// replayResponse rebuilds the response of an earlier request from its alert.
// Only masked values survive in the alert, so raw values are never replayed.
func replayResponse(alert *models.Alert) *InspectResponse {
	result := &models.ClassificationResult{
		Kind:             alert.AlertType,
		RiskScore:        alert.RiskScore,
		RiskLevel:        alert.RiskLevel,
		Detections:       make([]models.Detection, 0, len(alert.Detections)),
		Categories:       []models.Category(alert.Categories),
		TotalMatches:     len(alert.Detections),
		Message:          replayMessage,
		HasSensitiveData: alert.HasSensitiveData,
		SensitivityLevel: alert.SensitivityLevel,
		IsSpam:           alert.IsSpam,
		SpamProbability:  alert.SpamProbability,
	}
	if result.Categories == nil {
		result.Categories = []models.Category{}
	}

	var top *models.Detection
	for _, d := range alert.Detections {
		result.Detections = append(result.Detections, models.Detection{
			Category:       d.Category,
			Sensitivity:    d.Sensitivity,
			Span:           d.Span,
			MaskedValue:    d.MaskedValue,
			Recommendation: detector.RecommendationFor(d.Category),
		})
		last := &result.Detections[len(result.Detections)-1]
		if top == nil || last.Sensitivity.Rank() > top.Sensitivity.Rank() {
			top = last
		}
	}
	if top != nil {
		result.Recommendation = top.Recommendation
	}

	if alert.AlertType == models.KindSpam {
		result.Label = "ham"
		if alert.IsSpam {
			result.Label = "spam"
		}
		result.Confidence = alert.SpamProbability
		if 1-alert.SpamProbability > result.Confidence {
			result.Confidence = 1 - alert.SpamProbability
		}
	}

	return &InspectResponse{
		ClassificationResult: result,
		AlertID:              alert.ID,
		NotificationSent:     alert.NotificationSent,
		Replayed:             true,
	}
}
