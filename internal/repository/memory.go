package repository

import (
	"context"
	"sync"
	"time"

	"inspection-service/internal/apperr"
	"inspection-service/internal/models"
)

type memoryAlertRepository struct {
	mu     sync.RWMutex
	alerts []*models.Alert // ascending id
	byID   map[int64]*models.Alert
	nextID int64
	now    func() time.Time
}

// NewMemoryAlertRepository returns an AlertRepository that keeps alerts in
// process memory. Contents are lost on restart.
func NewMemoryAlertRepository() AlertRepository {
	return &memoryAlertRepository{
		byID: make(map[int64]*models.Alert),
		now:  time.Now,
	}
}

func (r *memoryAlertRepository) Append(_ context.Context, alert *models.Alert) (*models.Alert, error) {
	if err := validateAlert(alert); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if alert.IdempotencyKey != nil {
		if r.findByKey(alert.UserID, *alert.IdempotencyKey) != nil {
			return nil, apperr.Conflict("an alert with this idempotency key already exists")
		}
	}

	r.nextID++
	stored := cloneAlert(alert)
	stored.ID = r.nextID
	stored.Timestamp = stamp(r.now())
	normalizeAlert(stored)

	r.alerts = append(r.alerts, stored)
	r.byID[stored.ID] = stored
	return cloneAlert(stored), nil
}

func (r *memoryAlertRepository) List(_ context.Context, userID string, filter models.AlertFilter, limit, offset int) ([]*models.Alert, error) {
	if err := validatePage(filter, limit, offset); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Alert, 0)
	skipped := 0
	for i := len(r.alerts) - 1; i >= 0 && len(result) < limit; i-- {
		a := r.alerts[i]
		if a.UserID != userID {
			continue
		}
		if filter.AlertType != "" && a.AlertType != filter.AlertType {
			continue
		}
		if filter.Source != "" && a.Source != filter.Source {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		result = append(result, cloneAlert(a))
	}
	return result, nil
}

func (r *memoryAlertRepository) Get(_ context.Context, id int64, userID string) (*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok || a.UserID != userID {
		return nil, apperr.NotFound("alert")
	}
	return cloneAlert(a), nil
}

func (r *memoryAlertRepository) UpdateAction(_ context.Context, id int64, userID string, action models.Action) (*models.Alert, error) {
	if !action.Valid() {
		return nil, invalidAction(action)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || a.UserID != userID {
		return nil, apperr.NotFound("alert")
	}
	a.UserAction = &action
	return cloneAlert(a), nil
}

func (r *memoryAlertRepository) ListSince(_ context.Context, userID string, since time.Time) ([]*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	since = stamp(since)
	result := make([]*models.Alert, 0)
	for i := len(r.alerts) - 1; i >= 0; i-- {
		a := r.alerts[i]
		if a.UserID == userID && !a.Timestamp.Before(since) {
			result = append(result, cloneAlert(a))
		}
	}
	return result, nil
}

func (r *memoryAlertRepository) FindByIdempotencyKey(_ context.Context, userID, key string) (*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a := r.findByKey(userID, key); a != nil {
		return cloneAlert(a), nil
	}
	return nil, apperr.NotFound("alert")
}

func (r *memoryAlertRepository) MarkNotified(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("alert")
	}
	a.NotificationSent = true
	return nil
}

func (r *memoryAlertRepository) Ping(context.Context) error {
	return nil
}

// findByKey must be called with r.mu held.
func (r *memoryAlertRepository) findByKey(userID, key string) *models.Alert {
	for _, a := range r.alerts {
		if a.UserID == userID && a.IdempotencyKey != nil && *a.IdempotencyKey == key {
			return a
		}
	}
	return nil
}
