package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"inspection-service/internal/apperr"
	"inspection-service/internal/cache"
	"inspection-service/internal/models"
	"inspection-service/internal/repository"
)

const (
	DefaultStatsDays = 30
	MinStatsDays     = 1
	MaxStatsDays     = 365
)

// StatsVersions tracks a per-user counter that changes whenever the user's
// alert log changes. Cached stats are keyed by it, so a bump invalidates
// them without deleting anything.
type StatsVersions struct {
	cache  cache.Cache
	logger *zap.Logger
}

func NewStatsVersions(c cache.Cache, logger *zap.Logger) *StatsVersions {
	return &StatsVersions{cache: c, logger: logger}
}

func versionKey(userID string) string {
	return "stats:version:" + userID
}

// Bump is best effort; a failed bump only delays cache refresh until the TTL.
func (v *StatsVersions) Bump(ctx context.Context, userID string) {
	if _, err := v.cache.Increment(ctx, versionKey(userID)); err != nil {
		v.logger.Warn("Failed to bump stats version", zap.String("user_id", userID), zap.Error(err))
	}
}

func (v *StatsVersions) Current(ctx context.Context, userID string) (int64, error) {
	return v.cache.Counter(ctx, versionKey(userID))
}

type StatsService interface {
	Stats(ctx context.Context, userID string, periodDays int) (*models.StatsWindow, error)
}

type statsService struct {
	repo     repository.AlertRepository
	cache    cache.Cache
	versions *StatsVersions
	ttl      time.Duration
	group    singleflight.Group
	now      func() time.Time
	logger   *zap.Logger
}

func NewStatsService(repo repository.AlertRepository, c cache.Cache, versions *StatsVersions, ttl time.Duration, logger *zap.Logger) StatsService {
	return &statsService{
		repo:     repo,
		cache:    c,
		versions: versions,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *statsService) Stats(ctx context.Context, userID string, periodDays int) (*models.StatsWindow, error) {
	if userID == "" {
		return nil, apperr.InvalidInput("user_id", "is required")
	}
	if periodDays < MinStatsDays || periodDays > MaxStatsDays {
		return nil, apperr.InvalidArgument("days", periodDays, fmt.Sprintf("%d-%d", MinStatsDays, MaxStatsDays))
	}

	version, err := s.versions.Current(ctx, userID)
	if err != nil {
		s.logger.Warn("Stats cache unavailable, computing directly", zap.String("user_id", userID), zap.Error(err))
		return s.compute(ctx, userID, periodDays)
	}

	key := fmt.Sprintf("stats:%s:%d:v%d", userID, periodDays, version)

	var cached models.StatsWindow
	if found, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn("Failed to read cached stats", zap.String("key", key), zap.Error(err))
	} else if found {
		return &cached, nil
	}

	// Callers collapsed onto key share the result, so one caller giving up
	// must not cancel the scan for the rest.
	shared := context.WithoutCancel(ctx)
	out, err, _ := s.group.Do(key, func() (interface{}, error) {
		window, err := s.compute(shared, userID, periodDays)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetJSON(shared, key, window, s.ttl); err != nil {
			s.logger.Warn("Failed to cache stats", zap.String("key", key), zap.Error(err))
		}
		return window, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*models.StatsWindow), nil
}

func (s *statsService) compute(ctx context.Context, userID string, periodDays int) (*models.StatsWindow, error) {
	now := s.now().UTC()
	since := now.Add(-time.Duration(periodDays) * 24 * time.Hour)

	alerts, err := s.repo.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	window := Aggregate(alerts)
	window.PeriodDays = periodDays
	window.GeneratedAt = now
	return window, nil
}

// Aggregate folds alerts into spam and DLP counters. Every source, risk level
// and sensitivity appears in the breakdowns, with zero when unseen.
func Aggregate(alerts []*models.Alert) *models.StatsWindow {
	window := &models.StatsWindow{
		TotalAlerts: len(alerts),
		Spam: models.SpamStats{
			BySource:    zeroCounts(sourceNames()),
			ByRiskLevel: zeroCounts(riskLevelNames()),
		},
		DLP: models.DLPStats{
			BySource:      zeroCounts(sourceNames()),
			BySensitivity: zeroCounts(sensitivityNames()),
		},
	}

	for _, a := range alerts {
		switch a.AlertType {
		case models.KindSpam:
			window.Spam.Total++
			if a.IsSpam {
				window.Spam.Detected++
			}
			window.Spam.BySource[string(a.Source)]++
			window.Spam.ByRiskLevel[string(a.RiskLevel)]++
		case models.KindDLP:
			window.DLP.Total++
			if a.HasSensitiveData {
				window.DLP.WithSensitiveData++
			}
			window.DLP.BySource[string(a.Source)]++
			window.DLP.BySensitivity[string(a.SensitivityLevel)]++
		}
	}

	window.Spam.DetectionRate = DetectionRate(window.Spam.Detected, window.Spam.Total)
	return window
}

// DetectionRate is detected/total as a percentage rounded to 2 decimals, or 0
// when total is 0.
func DetectionRate(detected, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(detected)/float64(total)*100*100) / 100
}

func zeroCounts(keys []string) map[string]int {
	m := make(map[string]int, len(keys))
	for _, k := range keys {
		m[k] = 0
	}
	return m
}

func sourceNames() []string {
	names := make([]string, 0, len(models.Sources))
	for _, s := range models.Sources {
		names = append(names, string(s))
	}
	return names
}

func riskLevelNames() []string {
	names := make([]string, 0, len(models.RiskLevels))
	for _, r := range models.RiskLevels {
		names = append(names, string(r))
	}
	return names
}

func sensitivityNames() []string {
	return []string{
		string(models.SensitivityNone),
		string(models.SensitivityLow),
		string(models.SensitivityMedium),
		string(models.SensitivityHigh),
		string(models.SensitivityCritical),
	}
}
