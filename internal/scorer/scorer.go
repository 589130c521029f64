// Package scorer turns detections into a 0-100 risk score and a risk level.
package scorer

import (
	"math"

	"inspection-service/internal/models"
)

// DLP points per detection, by sensitivity.
const (
	PointsCritical = 40
	PointsHigh     = 25
	PointsMedium   = 12
	PointsLow      = 5

	MaxScore = 100
)

// Spam probability bands. A probability below SpamLowThreshold is SAFE.
const (
	SpamLowThreshold    = 0.30
	SpamMediumThreshold = 0.45
	SpamHighThreshold   = 0.60

	// SpamVerdictThreshold decides the is_spam flag and the spam/ham label.
	SpamVerdictThreshold = 0.50

	// Each spam indicator adds this much to the indicator component, capped at 1.
	IndicatorWeight = 0.15
	// Share of the model probability when a model result is available.
	ModelWeight = 0.75
)

// Result is the scorer output for one request.
type Result struct {
	RiskScore       int
	RiskLevel       models.RiskLevel
	SpamProbability float64
	Confidence      float64
	IsSpam          bool
}

// Score aggregates detections for the given kind. modelProbability is the
// opaque output of an external spam classifier; nil means none was consulted.
func Score(detections []models.Detection, kind models.Kind, modelProbability *float64) Result {
	if kind == models.KindSpam {
		return scoreSpam(len(detections), modelProbability)
	}
	return scoreDLP(detections)
}

func scoreDLP(detections []models.Detection) Result {
	total := 0
	for _, d := range detections {
		total += Points(d.Sensitivity)
		if total >= MaxScore {
			total = MaxScore
			break
		}
	}
	return Result{RiskScore: total, RiskLevel: DLPLevel(total)}
}

func scoreSpam(indicators int, modelProbability *float64) Result {
	indicator := math.Min(1, float64(indicators)*IndicatorWeight)

	p := indicator
	if modelProbability != nil {
		model := clamp01(*modelProbability)
		p = ModelWeight*model + (1-ModelWeight)*indicator
	}
	p = round4(p)

	score := int(math.Round(p * 100))
	if score > MaxScore {
		score = MaxScore
	}

	return Result{
		RiskScore:       score,
		RiskLevel:       SpamLevel(p),
		SpamProbability: p,
		Confidence:      round4(math.Max(p, 1-p)),
		IsSpam:          p >= SpamVerdictThreshold,
	}
}

// Points returns the DLP contribution of one detection.
func Points(s models.Sensitivity) int {
	switch s {
	case models.SensitivityCritical:
		return PointsCritical
	case models.SensitivityHigh:
		return PointsHigh
	case models.SensitivityMedium:
		return PointsMedium
	case models.SensitivityLow:
		return PointsLow
	default:
		return 0
	}
}

// DLPLevel maps a 0-100 score to its level: 0 SAFE, 1-24 LOW, 25-49 MEDIUM,
// 50-74 HIGH, 75-100 CRITICAL.
func DLPLevel(score int) models.RiskLevel {
	switch {
	case score <= 0:
		return models.RiskSafe
	case score < 25:
		return models.RiskLow
	case score < 50:
		return models.RiskMedium
	case score < 75:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}

// SpamLevel maps a spam probability to its level.
func SpamLevel(p float64) models.RiskLevel {
	switch {
	case p < SpamLowThreshold:
		return models.RiskSafe
	case p < SpamMediumThreshold:
		return models.RiskLow
	case p < SpamHighThreshold:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
