package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"inspection-service/internal/apperr"
	"inspection-service/internal/models"
	"inspection-service/internal/repository"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type AlertService interface {
	List(ctx context.Context, userID string, filter models.AlertFilter, limit, offset int) ([]*models.Alert, error)
	Get(ctx context.Context, id int64, userID string) (*models.Alert, error)
	UpdateAction(ctx context.Context, id int64, userID string, action models.Action) (*models.Alert, error)
}

type alertService struct {
	repo     repository.AlertRepository
	versions *StatsVersions
	logger   *zap.Logger
}

func NewAlertService(repo repository.AlertRepository, versions *StatsVersions, logger *zap.Logger) AlertService {
	return &alertService{repo: repo, versions: versions, logger: logger}
}

// List pages through the user's alerts. A zero limit selects
// DefaultListLimit; larger limits are capped at MaxListLimit.
func (s *alertService) List(ctx context.Context, userID string, filter models.AlertFilter, limit, offset int) ([]*models.Alert, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.InvalidInput("user_id", "is required")
	}
	if limit < 0 {
		return nil, apperr.InvalidInput("limit", "must not be negative")
	}
	if offset < 0 {
		return nil, apperr.InvalidInput("offset", "must not be negative")
	}
	return s.repo.List(ctx, userID, filter, ListLimit(limit), offset)
}

// ListLimit is the page size List uses for a requested limit.
func ListLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

func (s *alertService) Get(ctx context.Context, id int64, userID string) (*models.Alert, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.InvalidInput("user_id", "is required")
	}
	return s.repo.Get(ctx, id, userID)
}

func (s *alertService) UpdateAction(ctx context.Context, id int64, userID string, action models.Action) (*models.Alert, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.InvalidInput("user_id", "is required")
	}
	alert, err := s.repo.UpdateAction(ctx, id, userID, action)
	if err != nil {
		return nil, err
	}

	s.versions.Bump(ctx, userID)
	s.logger.Info("Alert action updated",
		zap.Int64("alert_id", id),
		zap.String("user_id", userID),
		zap.String("action", string(action)))
	return alert, nil
}
