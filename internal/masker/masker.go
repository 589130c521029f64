// Package masker renders matched values as partially obscured strings.
package masker

import (
	"sort"
	"strings"
	"unicode/utf8"

	"inspection-service/internal/models"
)

const (
	// VisibleEdge is how many runes stay visible at each end by default.
	VisibleEdge = 2
	// MaskRun replaces the interior. Its length never depends on the input.
	MaskRun = "******"
	// FullMask replaces values that are too short to partially reveal.
	FullMask = "****"
	// SecretMask replaces values that must never be partially shown.
	SecretMask = "********"
)

// Mask returns a display-safe rendering of raw for the given category.
func Mask(raw string, category models.Category) string {
	switch category {
	case models.CategoryPassword, models.CategoryPIN, models.CategoryAPIKey, models.CategoryCVV:
		return SecretMask
	case models.CategoryCreditCard:
		return lastDigits(raw, "****-****-****-")
	case models.CategoryPhone:
		return lastDigits(raw, "***-***-")
	case models.CategoryNationalID:
		if strings.Map(dropSeparators, raw) == digitsOf(raw) {
			return lastDigits(raw, "***-**-")
		}
	case models.CategoryEmail:
		if masked, ok := maskEmail(raw); ok {
			return masked
		}
	}
	return Default(raw)
}

// Default keeps the first and last VisibleEdge runes around a fixed-length
// mask. Inputs of 2*VisibleEdge runes or fewer are fully masked.
func Default(raw string) string {
	runes := []rune(raw)
	if len(runes) <= 2*VisibleEdge {
		return FullMask
	}
	return string(runes[:VisibleEdge]) + MaskRun + string(runes[len(runes)-VisibleEdge:])
}

// lastDigits shows the final four digits after prefix, or a full mask when
// the value holds fewer than eight digits.
func lastDigits(raw, prefix string) string {
	digits := digitsOf(raw)
	if len(digits) < 8 {
		return FullMask
	}
	return prefix + digits[len(digits)-4:]
}

func maskEmail(raw string) (string, bool) {
	at := strings.LastIndexByte(raw, '@')
	if at <= 0 || at == len(raw)-1 {
		return "", false
	}
	first, _ := utf8.DecodeRuneInString(raw)
	return string(first) + "***" + raw[at:], true
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func dropSeparators(r rune) rune {
	if r == '-' || r == ' ' {
		return -1
	}
	return r
}

// MaskText replaces every detection span in text with its masked value.
// Spans must lie on the text; invalid or overlapping spans are skipped.
func MaskText(text string, detections []models.Detection) string {
	if len(detections) == 0 {
		return text
	}

	ordered := make([]models.Detection, len(detections))
	copy(ordered, detections)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Span.Start < ordered[j].Span.Start
	})

	var b strings.Builder
	cursor := 0
	for _, d := range ordered {
		if d.Span.Start < cursor || d.Span.End > len(text) || d.Span.Start >= d.Span.End {
			continue
		}
		masked := d.MaskedValue
		if masked == "" {
			masked = Mask(text[d.Span.Start:d.Span.End], d.Category)
		}
		b.WriteString(text[cursor:d.Span.Start])
		b.WriteString(masked)
		cursor = d.Span.End
	}
	b.WriteString(text[cursor:])
	return b.String()
}
