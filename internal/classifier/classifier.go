// Package classifier runs one message through detection, scoring and masking
// and assembles the immutable ClassificationResult.
package classifier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"inspection-service/internal/apperr"
	"inspection-service/internal/detector"
	"inspection-service/internal/masker"
	"inspection-service/internal/models"
	"inspection-service/internal/scorer"
)

// DefaultMaxTextBytes bounds the text accepted by Classify.
const DefaultMaxTextBytes = 10000

const safeRecommendation = "No sensitive data detected. Safe to send."

var dlpMessages = map[models.Sensitivity]string{
	models.SensitivityNone:     "No sensitive data detected.",
	models.SensitivityLow:      "Low sensitivity data detected. Consider if the recipient needs this information.",
	models.SensitivityMedium:   "Medium sensitivity data detected. Verify you trust the recipient before sending.",
	models.SensitivityHigh:     "High sensitivity data detected! Only send if absolutely necessary and to trusted recipients.",
	models.SensitivityCritical: "CRITICAL: highly sensitive data detected (%s)! Strongly recommend NOT sending this information via this channel.",
}

var spamAdvice = map[models.RiskLevel]string{
	models.RiskSafe:   "This message looks legitimate.",
	models.RiskLow:    "Be cautious with this message.",
	models.RiskMedium: "This message is probably spam. Do not reply or share personal details.",
	models.RiskHigh:   "This message is very likely spam or phishing. Delete it and block the sender.",
}

// Classifier is safe for concurrent use; it holds no per-request state.
type Classifier struct {
	detectors    *detector.Set
	maxTextBytes int
}

// NewClassifier builds a classifier over the given detector set. A
// non-positive maxTextBytes selects DefaultMaxTextBytes.
func NewClassifier(detectors *detector.Set, maxTextBytes int) *Classifier {
	if detectors == nil {
		detectors = detector.NewSet()
	}
	if maxTextBytes <= 0 {
		maxTextBytes = DefaultMaxTextBytes
	}
	return &Classifier{detectors: detectors, maxTextBytes: maxTextBytes}
}

// Classify inspects text for the given kind. It fails only with an
// InvalidInput error; finding nothing is the SAFE result, not an error.
func (c *Classifier) Classify(text string, kind models.Kind, meta models.Metadata) (*models.ClassificationResult, error) {
	if !kind.Valid() {
		return nil, apperr.InvalidInput("kind", fmt.Sprintf("must be %q or %q", models.KindSpam, models.KindDLP))
	}
	if !utf8.ValidString(text) {
		return nil, apperr.InvalidInput("text", "must be valid UTF-8")
	}
	if len(text) > c.maxTextBytes {
		return nil, apperr.InvalidInput("text", fmt.Sprintf("exceeds %d bytes", c.maxTextBytes))
	}

	if strings.TrimSpace(text) == "" {
		return safeResult(kind), nil
	}

	detections := c.detectors.Detect(text, kind)
	if detections == nil {
		detections = []models.Detection{}
	}
	for i := range detections {
		d := &detections[i]
		d.MaskedValue = masker.Mask(d.RawValue, d.Category)
		d.Recommendation = detector.RecommendationFor(d.Category)
	}

	score := scorer.Score(detections, kind, meta.ModelProbability)
	categories, top := summarize(detections)

	result := &models.ClassificationResult{
		Kind:             kind,
		RiskScore:        score.RiskScore,
		RiskLevel:        score.RiskLevel,
		Detections:       detections,
		Categories:       categories,
		TotalMatches:     len(detections),
		SensitivityLevel: models.SensitivityNone,
	}
	if top != nil {
		result.SensitivityLevel = top.Sensitivity
		result.Recommendation = top.Recommendation
	}

	switch kind {
	case models.KindDLP:
		result.HasSensitiveData = len(detections) > 0
		result.Confidence = maxConfidence(detections)
		result.Message = dlpMessage(result.SensitivityLevel, categories)
		if top == nil {
			result.Recommendation = safeRecommendation
		}
	case models.KindSpam:
		result.IsSpam = score.IsSpam
		result.SpamProbability = score.SpamProbability
		result.Confidence = score.Confidence
		result.Label = "ham"
		if score.IsSpam {
			result.Label = "spam"
		}
		result.Message = fmt.Sprintf("%s (spam probability %.2f)", spamAdvice[score.RiskLevel], score.SpamProbability)
		if top == nil {
			result.Recommendation = spamAdvice[score.RiskLevel]
		}
	}

	return result, nil
}

// MaskSensitive masks every sensitive-data match in text, whatever kind of
// check the text was submitted for. Spam indicators are left readable.
func (c *Classifier) MaskSensitive(text string) string {
	return masker.MaskText(text, c.detectors.Detect(text, models.KindDLP))
}

func safeResult(kind models.Kind) *models.ClassificationResult {
	r := &models.ClassificationResult{
		Kind:             kind,
		RiskLevel:        models.RiskSafe,
		Detections:       []models.Detection{},
		Categories:       []models.Category{},
		SensitivityLevel: models.SensitivityNone,
	}
	if kind == models.KindSpam {
		r.Label = "ham"
		r.Confidence = 1
		r.Message = spamAdvice[models.RiskSafe]
		r.Recommendation = spamAdvice[models.RiskSafe]
	} else {
		r.Message = dlpMessages[models.SensitivityNone]
		r.Recommendation = safeRecommendation
	}
	return r
}

// summarize returns the distinct categories in order of first appearance and
// the first detection of the highest sensitivity.
func summarize(detections []models.Detection) ([]models.Category, *models.Detection) {
	categories := make([]models.Category, 0, len(detections))
	seen := make(map[models.Category]bool, len(detections))
	var top *models.Detection

	for i := range detections {
		d := &detections[i]
		if !seen[d.Category] {
			seen[d.Category] = true
			categories = append(categories, d.Category)
		}
		if top == nil || d.Sensitivity.Rank() > top.Sensitivity.Rank() {
			top = d
		}
	}
	return categories, top
}

func dlpMessage(level models.Sensitivity, categories []models.Category) string {
	msg := dlpMessages[level]
	if level != models.SensitivityCritical {
		return msg
	}

	names := make([]string, 0, 3)
	for i, c := range categories {
		if i == 3 {
			break
		}
		names = append(names, string(c))
	}
	return fmt.Sprintf(msg, strings.Join(names, ", "))
}

func maxConfidence(detections []models.Detection) float64 {
	best := 0.0
	for _, d := range detections {
		if d.Confidence > best {
			best = d.Confidence
		}
	}
	return best
}
