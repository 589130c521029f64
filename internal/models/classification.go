package models

// Kind selects which detector family and scoring model a request runs through.
type Kind string

const (
	KindSpam Kind = "spam"
	KindDLP  Kind = "dlp"
)

// Valid reports whether k is a known classification kind.
func (k Kind) Valid() bool {
	return k == KindSpam || k == KindDLP
}

// Category identifies what a detection matched.
type Category string

const (
	CategoryCreditCard     Category = "CREDIT_CARD"
	CategoryCVV            Category = "CVV"
	CategoryBankAccount    Category = "BANK_ACCOUNT"
	CategoryNationalID     Category = "NATIONAL_ID"
	CategoryPassport       Category = "PASSPORT"
	CategoryDriversLicense Category = "DRIVERS_LICENSE"
	CategoryPassword       Category = "PASSWORD"
	CategoryPIN            Category = "PIN"
	CategoryAPIKey         Category = "API_KEY"
	CategoryPhone          Category = "PHONE"
	CategoryEmail          Category = "EMAIL_ADDRESS"
	CategoryAddress        Category = "ADDRESS"
	CategoryDateOfBirth    Category = "DATE_OF_BIRTH"
	CategoryMedical        Category = "MEDICAL"
	CategoryIPAddress      Category = "IP_ADDRESS"

	CategorySpamKeyword          Category = "SPAM_KEYWORD"
	CategoryUrgencyPhrase        Category = "URGENCY_PHRASE"
	CategorySuspiciousURL        Category = "SUSPICIOUS_URL"
	CategoryMoneyOffer           Category = "MONEY_OFFER"
	CategoryExcessivePunctuation Category = "EXCESSIVE_PUNCTUATION"
)

// Sensitivity is the intrinsic weight of a category.
type Sensitivity string

const (
	SensitivityNone     Sensitivity = "none"
	SensitivityLow      Sensitivity = "low"
	SensitivityMedium   Sensitivity = "medium"
	SensitivityHigh     Sensitivity = "high"
	SensitivityCritical Sensitivity = "critical"
)

// Rank orders sensitivities; none is 0 and critical is 4.
func (s Sensitivity) Rank() int {
	switch s {
	case SensitivityLow:
		return 1
	case SensitivityMedium:
		return 2
	case SensitivityHigh:
		return 3
	case SensitivityCritical:
		return 4
	default:
		return 0
	}
}

// RiskLevel is the single canonical ordinal every client renders from.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "SAFE"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevels lists every level from lowest to highest.
var RiskLevels = []RiskLevel{RiskSafe, RiskLow, RiskMedium, RiskHigh, RiskCritical}

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskSafe, RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Rank orders risk levels; SAFE is 0 and CRITICAL is 4.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 0
	}
}

// Span is a half-open byte range [Start, End) into the inspected text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Detection is one matched instance. RawValue is request scoped and is never
// serialized or stored.
type Detection struct {
	Category       Category    `json:"type"`
	Description    string      `json:"description"`
	Sensitivity    Sensitivity `json:"sensitivity"`
	Span           Span        `json:"position"`
	RawValue       string      `json:"-"`
	MaskedValue    string      `json:"masked_value"`
	Confidence     float64     `json:"confidence"`
	Recommendation string      `json:"recommendation"`
}

// Metadata travels with a classify request but never changes the detections.
type Metadata struct {
	Source            Source
	Direction         Direction
	SenderOrRecipient string
	// ModelProbability is the external spam model's output, if one was consulted.
	ModelProbability *float64
}

// ClassificationResult is the immutable outcome of a single classify call.
type ClassificationResult struct {
	Kind             Kind        `json:"kind"`
	RiskScore        int         `json:"risk_score"`
	RiskLevel        RiskLevel   `json:"risk_level"`
	Detections       []Detection `json:"detections"`
	Categories       []Category  `json:"categories"`
	TotalMatches     int         `json:"total_matches"`
	Message          string      `json:"message"`
	Recommendation   string      `json:"recommendation"`
	HasSensitiveData bool        `json:"has_sensitive_data"`
	SensitivityLevel Sensitivity `json:"sensitivity_level"`
	IsSpam           bool        `json:"is_spam"`
	Label            string      `json:"label,omitempty"`
	SpamProbability  float64     `json:"spam_probability"`
	Confidence       float64     `json:"confidence"`
}
