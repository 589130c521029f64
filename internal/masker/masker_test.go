package masker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"inspection-service/internal/models"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		category models.Category
		want     string
	}{
		{"card shows last four", "4532-1234-5678-9010", models.CategoryCreditCard, "****-****-****-9010"},
		{"card without separators", "4532015112830366", models.CategoryCreditCard, "****-****-****-0366"},
		{"phone", "+1-555-123-4567", models.CategoryPhone, "***-***-4567"},
		{"ssn", "123-45-6789", models.CategoryNationalID, "***-**-6789"},
		{"nric falls back to default", "S1234567D", models.CategoryNationalID, "S1******7D"},
		{"email", "john@example.com", models.CategoryEmail, "j***@example.com"},
		{"malformed email uses default", "@example", models.CategoryEmail, "@e******le"},
		{"password fully masked", "secretPass123", models.CategoryPassword, SecretMask},
		{"pin fully masked", "1234", models.CategoryPIN, SecretMask},
		{"api key fully masked", "sk-1234567890abcdefghijklmnop", models.CategoryAPIKey, SecretMask},
		{"cvv fully masked", "123", models.CategoryCVV, SecretMask},
		{"default", "GB82WEST12345698765432", models.CategoryBankAccount, "GB******32"},
		{"short card", "12-34", models.CategoryCreditCard, FullMask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.raw, tt.category))
		})
	}
}

func TestDefault_ShortInputsNeverPanic(t *testing.T) {
	for _, raw := range []string{"", "a", "ab", "abc", "abcd", "é", "日本"} {
		assert.NotPanics(t, func() {
			assert.Equal(t, FullMask, Default(raw))
		}, raw)
	}
}

func TestDefault_FixedLengthMask(t *testing.T) {
	short := Default("abcdef")
	long := Default(strings.Repeat("x", 64))

	assert.Equal(t, len(short), len(long), "mask length must not reveal input length")
	assert.Equal(t, "ab******ef", short)
}

func TestDefault_MultiByteRunes(t *testing.T) {
	assert.Equal(t, "пр******ет", Default("приветствует"))
}

func TestMask_NeverRevealsInterior(t *testing.T) {
	raw := "ABCDEFGHIJKLMNOP"
	masked := Mask(raw, models.CategoryAddress)

	assert.NotContains(t, masked, raw[VisibleEdge:len(raw)-VisibleEdge])
	assert.True(t, strings.HasPrefix(masked, "AB"))
	assert.True(t, strings.HasSuffix(masked, "OP"))
}

func TestMaskText(t *testing.T) {
	text := "Card 4532015112830366 and PIN: 1234"
	detections := []models.Detection{
		{Category: models.CategoryPIN, Span: models.Span{Start: 31, End: 35}, MaskedValue: SecretMask},
		{Category: models.CategoryCreditCard, Span: models.Span{Start: 5, End: 21}},
	}

	got := MaskText(text, detections)

	assert.Equal(t, "Card ****-****-****-0366 and PIN: ********", got)
	assert.NotContains(t, got, "4532015112830366")
}

func TestMaskText_SkipsBadSpans(t *testing.T) {
	text := "hello"
	got := MaskText(text, []models.Detection{
		{Category: models.CategoryEmail, Span: models.Span{Start: 3, End: 99}},
		{Category: models.CategoryEmail, Span: models.Span{Start: 2, End: 2}},
	})
	assert.Equal(t, text, got)
}
