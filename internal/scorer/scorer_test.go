package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inspection-service/internal/models"
)

func detections(levels ...models.Sensitivity) []models.Detection {
	out := make([]models.Detection, len(levels))
	for i, l := range levels {
		out[i] = models.Detection{Sensitivity: l}
	}
	return out
}

func TestScoreDLP(t *testing.T) {
	tests := []struct {
		name  string
		in    []models.Detection
		score int
		level models.RiskLevel
	}{
		{"none", nil, 0, models.RiskSafe},
		{"one low", detections(models.SensitivityLow), 5, models.RiskLow},
		{"one medium", detections(models.SensitivityMedium), 12, models.RiskLow},
		{"one high", detections(models.SensitivityHigh), 25, models.RiskMedium},
		{"one critical", detections(models.SensitivityCritical), 40, models.RiskMedium},
		{"high and high", detections(models.SensitivityHigh, models.SensitivityHigh), 50, models.RiskHigh},
		{"two critical", detections(models.SensitivityCritical, models.SensitivityCritical), 80, models.RiskCritical},
		{"capped", detections(models.SensitivityCritical, models.SensitivityCritical, models.SensitivityCritical), 100, models.RiskCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Score(tt.in, models.KindDLP, nil)
			assert.Equal(t, tt.score, r.RiskScore)
			assert.Equal(t, tt.level, r.RiskLevel)
		})
	}
}

func TestScoreDLP_MonotoneInCriticalMatches(t *testing.T) {
	prev := -1
	var in []models.Detection
	for i := 0; i < 6; i++ {
		r := Score(in, models.KindDLP, nil)
		assert.GreaterOrEqual(t, r.RiskScore, prev)
		assert.LessOrEqual(t, r.RiskScore, MaxScore)
		prev = r.RiskScore
		in = append(in, models.Detection{Sensitivity: models.SensitivityCritical})
	}
}

func TestDLPLevelBoundaries(t *testing.T) {
	cases := map[int]models.RiskLevel{
		0: models.RiskSafe, 1: models.RiskLow, 24: models.RiskLow,
		25: models.RiskMedium, 49: models.RiskMedium, 50: models.RiskHigh,
		74: models.RiskHigh, 75: models.RiskCritical, 100: models.RiskCritical,
	}
	for score, want := range cases {
		assert.Equal(t, want, DLPLevel(score), "score %d", score)
	}
}

func TestSpamLevelBoundaries(t *testing.T) {
	tests := []struct {
		p    float64
		want models.RiskLevel
	}{
		{0, models.RiskSafe},
		{0.2999, models.RiskSafe},
		{0.30, models.RiskLow},
		{0.4499, models.RiskLow},
		{0.45, models.RiskMedium},
		{0.5999, models.RiskMedium},
		{0.60, models.RiskHigh},
		{1, models.RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SpamLevel(tt.p), "p=%v", tt.p)
	}
}

func TestScoreSpam(t *testing.T) {
	prob := func(v float64) *float64 { return &v }

	t.Run("no signals", func(t *testing.T) {
		r := Score(nil, models.KindSpam, nil)
		assert.Equal(t, 0, r.RiskScore)
		assert.Equal(t, models.RiskSafe, r.RiskLevel)
		assert.False(t, r.IsSpam)
		assert.Equal(t, 1.0, r.Confidence)
	})

	t.Run("indicators only", func(t *testing.T) {
		r := Score(make([]models.Detection, 3), models.KindSpam, nil)
		assert.InDelta(t, 0.45, r.SpamProbability, 1e-9)
		assert.Equal(t, 45, r.RiskScore)
		assert.Equal(t, models.RiskMedium, r.RiskLevel)
		assert.False(t, r.IsSpam)
	})

	t.Run("indicator component saturates", func(t *testing.T) {
		r := Score(make([]models.Detection, 20), models.KindSpam, nil)
		assert.Equal(t, 1.0, r.SpamProbability)
		assert.Equal(t, 100, r.RiskScore)
		assert.Equal(t, models.RiskHigh, r.RiskLevel)
		assert.True(t, r.IsSpam)
	})

	t.Run("model dominates", func(t *testing.T) {
		r := Score(make([]models.Detection, 1), models.KindSpam, prob(0.9))
		// 0.75*0.9 + 0.25*0.15
		assert.InDelta(t, 0.7125, r.SpamProbability, 1e-9)
		assert.Equal(t, models.RiskHigh, r.RiskLevel)
		assert.True(t, r.IsSpam)
	})

	t.Run("out of range model input is clamped", func(t *testing.T) {
		r := Score(nil, models.KindSpam, prob(7))
		assert.InDelta(t, 0.75, r.SpamProbability, 1e-9)
	})

	t.Run("monotone in indicators", func(t *testing.T) {
		prev := -1
		for n := 0; n < 10; n++ {
			r := Score(make([]models.Detection, n), models.KindSpam, prob(0.4))
			assert.GreaterOrEqual(t, r.RiskScore, prev)
			prev = r.RiskScore
		}
	})
}
