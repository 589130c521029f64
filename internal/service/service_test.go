package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"inspection-service/internal/cache"
	"inspection-service/internal/classifier"
	"inspection-service/internal/detector"
	"inspection-service/internal/models"
	"inspection-service/internal/repository"
)

type fakeModel struct {
	p     float64
	err   error
	calls atomic.Int32
}

func (m *fakeModel) SpamProbability(ctx context.Context, text string) (float64, error) {
	m.calls.Add(1)
	if m.err != nil {
		return 0, m.err
	}
	return m.p, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	err    error
	alerts []*models.Alert
}

func (n *fakeNotifier) Notify(ctx context.Context, alert *models.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

// countingRepo records calls that the services make on the store.
type countingRepo struct {
	repository.AlertRepository
	listSinceCalls atomic.Int32
	lastLimit      atomic.Int32
	delay          time.Duration
}

func (r *countingRepo) ListSince(ctx context.Context, userID string, since time.Time) ([]*models.Alert, error) {
	r.listSinceCalls.Add(1)
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.AlertRepository.ListSince(ctx, userID, since)
}

func (r *countingRepo) List(ctx context.Context, userID string, filter models.AlertFilter, limit, offset int) ([]*models.Alert, error) {
	r.lastLimit.Store(int32(limit))
	return r.AlertRepository.List(ctx, userID, filter, limit, offset)
}

type fixture struct {
	repo      *countingRepo
	cache     *cache.MemoryCache
	versions  *StatsVersions
	model     *fakeModel
	notifier  *fakeNotifier
	inspector Inspector
	alerts    AlertService
	stats     *statsService
}

var errModelDown = errors.New("model down")

func newFixture(model *fakeModel) *fixture {
	logger := zap.NewNop()
	f := &fixture{
		repo:     &countingRepo{AlertRepository: repository.NewMemoryAlertRepository()},
		cache:    cache.NewMemoryCache(),
		model:    model,
		notifier: &fakeNotifier{},
	}
	f.versions = NewStatsVersions(f.cache, logger)

	var spamModel SpamModel
	if model != nil {
		spamModel = model
	}
	f.inspector = NewInspector(
		classifier.NewClassifier(detector.NewSet(), 0),
		f.repo, spamModel, f.notifier, f.versions,
		InspectorConfig{ModelTimeout: time.Second, NotifyMinLevel: models.RiskHigh},
		logger,
	)
	f.alerts = NewAlertService(f.repo, f.versions, logger)
	f.stats = NewStatsService(f.repo, f.cache, f.versions, time.Minute, logger).(*statsService)
	return f
}
