package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspection-service/internal/apperr"
	"inspection-service/internal/models"
)

func TestAlertService_ListLimits(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		limit     int
		wantLimit int32
	}{
		{name: "default", limit: 0, wantLimit: DefaultListLimit},
		{name: "explicit", limit: 10, wantLimit: 10},
		{name: "capped", limit: 500, wantLimit: MaxListLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.alerts.List(ctx, "user-1", models.AlertFilter{}, tt.limit, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, f.repo.lastLimit.Load())
			assert.Equal(t, int(tt.wantLimit), ListLimit(tt.limit), "reported limit matches the one applied")
		})
	}

	_, err := f.alerts.List(ctx, "user-1", models.AlertFilter{}, -1, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.alerts.List(ctx, "user-1", models.AlertFilter{}, 10, -5)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.alerts.List(ctx, "", models.AlertFilter{}, 10, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestAlertService_UpdateAction(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	resp, err := f.inspector.Inspect(ctx, InspectRequest{UserID: "user-1", Text: "Password: hunter22", Kind: models.KindDLP})
	require.NoError(t, err)

	before, err := f.versions.Current(ctx, "user-1")
	require.NoError(t, err)

	updated, err := f.alerts.UpdateAction(ctx, resp.AlertID, "user-1", models.ActionBlocked)
	require.NoError(t, err)
	require.NotNil(t, updated.UserAction)
	assert.Equal(t, models.ActionBlocked, *updated.UserAction)

	after, err := f.versions.Current(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	_, err = f.alerts.UpdateAction(ctx, resp.AlertID, "user-1", "archived")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.alerts.UpdateAction(ctx, resp.AlertID, "user-2", models.ActionAllowed)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.alerts.Get(ctx, resp.AlertID, "user-2")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
