package detector

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"inspection-service/internal/models"
)

// Context keywords may be followed by "number", "no." or "#" before the value.
const numberSuffix = `(?:\s*(?:number|num|no\.?|#))?`

var (
	reVisa       = regexp.MustCompile(`\b4[0-9]{3}[-\s]?[0-9]{4}[-\s]?[0-9]{4}[-\s]?[0-9]{4}\b`)
	reMasterCard = regexp.MustCompile(`\b5[1-5][0-9]{2}[-\s]?[0-9]{4}[-\s]?[0-9]{4}[-\s]?[0-9]{4}\b`)
	reAmex       = regexp.MustCompile(`\b3[47][0-9]{2}[-\s]?[0-9]{6}[-\s]?[0-9]{5}\b`)
	reDiscover   = regexp.MustCompile(`\b6(?:011|5[0-9]{2})[-\s]?[0-9]{4}[-\s]?[0-9]{4}[-\s]?[0-9]{4}\b`)
	reCardAny    = regexp.MustCompile(`\b[0-9]{4}[-\s]?[0-9]{4}[-\s]?[0-9]{4}[-\s]?[0-9]{4}\b`)

	reCVV = regexp.MustCompile(`(?i)\b(?:cvv2?|cvc2?|security\s*code)[\s:#]*([0-9]{3,4})\b`)

	reSSNContext = regexp.MustCompile(`(?i)\b(?:ssn|social\s*security` + numberSuffix + `)[\s:#]*([0-9]{3}[-\s]?[0-9]{2}[-\s]?[0-9]{4})\b`)
	reSSN        = regexp.MustCompile(`\b[0-9]{3}[-\s][0-9]{2}[-\s][0-9]{4}\b`)
	reNRIC       = regexp.MustCompile(`\b[STFGM][0-9]{7}[A-Z]\b`)
	reMyKad      = regexp.MustCompile(`\b[0-9]{6}[-\s]?[0-9]{2}[-\s]?[0-9]{4}\b`)

	reIBAN    = regexp.MustCompile(`\b[A-Z]{2}[0-9]{2}[A-Z0-9]{4}[0-9]{7}[A-Z0-9]{0,16}\b`)
	reAccount = regexp.MustCompile(`(?i)\b(?:bank\s+account|account|acct|a/c)` + numberSuffix + `[\s:#]*([0-9]{8,17})\b`)
	reRouting = regexp.MustCompile(`(?i)\b(?:routing|rtg|aba)` + numberSuffix + `[\s:#]*([0-9]{9})\b`)
	reSWIFT   = regexp.MustCompile(`(?i)\b(?:swift|bic)(?:\s*code)?[\s:#]+([A-Z]{6}[A-Z0-9]{2}(?:[A-Z0-9]{3})?)\b`)

	rePassport = regexp.MustCompile(`(?i)\bpassport` + numberSuffix + `[\s:#]*([A-Z]{1,2}[0-9]{6,9})\b`)
	reLicense  = regexp.MustCompile(`(?i)\b(?:driver'?s?\s*licen[cs]e|DL)` + numberSuffix + `[\s:#]+([A-Z0-9]{5,15})\b`)

	rePassword     = regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)(?:\s+is\s+|\s*[:=]\s*)(\S+)`)
	rePassShort    = regexp.MustCompile(`(?i)\bpass\s*[:=]\s*(\S{6,})`)
	rePIN          = regexp.MustCompile(`(?i)\bpin(?:\s*(?:code|number|no\.?))?(?:\s+is\s+|\s*[:=]\s*|\s+)([0-9]{4,6})\b`)
	reAPIKey       = regexp.MustCompile(`(?i)\b(?:api|secret)[_\- ]?key(?:\s+is\s+|\s*[:=]\s*)([A-Za-z0-9_\-]{20,})`)
	reAccessToken  = regexp.MustCompile(`(?i)\baccess[_\- ]?token(?:\s+is\s+|\s*[:=]\s*)([A-Za-z0-9_\-.]{20,})`)
	reBearer       = regexp.MustCompile(`(?i)\bbearer\s+([A-Za-z0-9_\-.]{20,})`)
	reAWSKey       = regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)
	reSecretPrefix = regexp.MustCompile(`\b(?:sk|pk|rk)[-_](?:live[-_]|test[-_])?[A-Za-z0-9]{20,}\b`)

	reEmail = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	rePhoneIntl    = regexp.MustCompile(`\+[1-9][0-9]{0,2}[-.\s]?(?:[0-9][-.\s]?){7,13}[0-9]\b`)
	rePhoneUS      = regexp.MustCompile(`(?:\([0-9]{3}\)\s?|\b[0-9]{3}[-.\s]?)[0-9]{3}[-.\s]?[0-9]{4}\b`)
	rePhoneContext = regexp.MustCompile(`(?i)\b(?:phone|mobile|cell|tel)` + numberSuffix + `[\s:#]*([0-9][0-9\-\s]{8,}[0-9])`)

	reIPv4 = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)
	reIPv6 = regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`)

	reDOB = regexp.MustCompile(`(?i)\b(?:dob|date\s*of\s*birth|born(?:\s+on)?|birthday)[\s:]+([0-9]{1,2}[/\-.][0-9]{1,2}[/\-.][0-9]{2,4})\b`)

	reAddressContext = regexp.MustCompile(`(?i)\b(?:home\s+)?address[\s:#]+([0-9]{1,5}(?:\s+[A-Za-z]+){1,5})`)
	reStreet         = regexp.MustCompile(`(?i)\b[0-9]{1,5}(?:\s+[A-Za-z]+){1,3}\s+(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr)\b`)

	reMRN    = regexp.MustCompile(`(?i)\b(?:mrn|medical\s*record` + numberSuffix + `|patient\s*id)[\s:#]*([A-Z0-9]{6,})\b`)
	reHealth = regexp.MustCompile(`(?i)\b(?:diagnosis|diagnosed\s+with|prescription|medication)[\s:]+([A-Za-z]+(?:\s+[A-Za-z]+){0,3})`)
)

func dlpDetectors() []Detector {
	return []Detector{
		&patternDetector{
			name:     "credit_card",
			kind:     models.KindDLP,
			category: models.CategoryCreditCard,
			patterns: []pattern{
				{re: reVisa, description: "Visa card", confidence: 0.95},
				{re: reMasterCard, description: "MasterCard", confidence: 0.95},
				{re: reAmex, description: "American Express", confidence: 0.95},
				{re: reDiscover, description: "Discover card", confidence: 0.95},
				{re: reCardAny, description: "Credit card number", confidence: 0.70},
			},
			adjust: luhnAdjust,
		},
		&patternDetector{
			name:     "cvv",
			kind:     models.KindDLP,
			category: models.CategoryCVV,
			patterns: []pattern{
				{re: reCVV, description: "Card security code", confidence: 0.95},
			},
		},
		&patternDetector{
			name:     "national_id",
			kind:     models.KindDLP,
			category: models.CategoryNationalID,
			patterns: []pattern{
				{re: reSSNContext, description: "Social Security Number", confidence: 0.98},
				{re: reSSN, description: "Social Security Number", confidence: 0.95},
				{re: reNRIC, description: "Singapore NRIC/FIN", confidence: 0.95},
				{re: reMyKad, description: "Malaysia IC", confidence: 0.80},
			},
		},
		&patternDetector{
			name:     "bank_account",
			kind:     models.KindDLP,
			category: models.CategoryBankAccount,
			patterns: []pattern{
				{re: reIBAN, description: "IBAN", confidence: 0.95},
				{re: reAccount, description: "Bank account number", confidence: 0.85},
				{re: reRouting, description: "Bank routing number", confidence: 0.90},
				{re: reSWIFT, description: "SWIFT/BIC code", confidence: 0.80},
			},
		},
		&patternDetector{
			name:     "passport",
			kind:     models.KindDLP,
			category: models.CategoryPassport,
			patterns: []pattern{
				{re: rePassport, description: "Passport number", confidence: 0.85},
			},
		},
		&patternDetector{
			name:     "drivers_license",
			kind:     models.KindDLP,
			category: models.CategoryDriversLicense,
			patterns: []pattern{
				{re: reLicense, description: "Driver's license", confidence: 0.80, validate: hasDigit},
			},
		},
		&patternDetector{
			name:     "password",
			kind:     models.KindDLP,
			category: models.CategoryPassword,
			patterns: []pattern{
				{re: rePassword, description: "Password", confidence: 0.95},
				{re: rePassShort, description: "Password", confidence: 0.80},
			},
		},
		&patternDetector{
			name:     "pin",
			kind:     models.KindDLP,
			category: models.CategoryPIN,
			patterns: []pattern{
				{re: rePIN, description: "PIN code", confidence: 0.95},
			},
		},
		&patternDetector{
			name:     "api_key",
			kind:     models.KindDLP,
			category: models.CategoryAPIKey,
			patterns: []pattern{
				{re: reAPIKey, description: "API key", confidence: 0.95},
				{re: reAccessToken, description: "Access token", confidence: 0.95},
				{re: reBearer, description: "Bearer token", confidence: 0.90},
				{re: reAWSKey, description: "AWS access key", confidence: 0.98},
				{re: reSecretPrefix, description: "Secret key", confidence: 0.85},
			},
		},
		&patternDetector{
			name:     "email",
			kind:     models.KindDLP,
			category: models.CategoryEmail,
			patterns: []pattern{
				{re: reEmail, description: "Email address", confidence: 0.95},
			},
		},
		&patternDetector{
			name:     "phone",
			kind:     models.KindDLP,
			category: models.CategoryPhone,
			patterns: []pattern{
				{re: rePhoneIntl, description: "Phone number (international)", confidence: 0.85},
				{re: rePhoneUS, description: "Phone number (US)", confidence: 0.80},
				{re: rePhoneContext, description: "Phone number", confidence: 0.85},
			},
		},
		&patternDetector{
			name:     "ip_address",
			kind:     models.KindDLP,
			category: models.CategoryIPAddress,
			patterns: []pattern{
				{re: reIPv4, description: "IP address (IPv4)", confidence: 0.90},
				{re: reIPv6, description: "IP address (IPv6)", confidence: 0.90},
			},
		},
		&patternDetector{
			name:     "date_of_birth",
			kind:     models.KindDLP,
			category: models.CategoryDateOfBirth,
			patterns: []pattern{
				{re: reDOB, description: "Date of birth", confidence: 0.90},
			},
		},
		&patternDetector{
			name:     "address",
			kind:     models.KindDLP,
			category: models.CategoryAddress,
			patterns: []pattern{
				{re: reAddressContext, description: "Physical address", confidence: 0.75},
				{re: reStreet, description: "Street address", confidence: 0.70},
			},
		},
		&patternDetector{
			name:     "medical",
			kind:     models.KindDLP,
			category: models.CategoryMedical,
			patterns: []pattern{
				{re: reMRN, description: "Medical record number", confidence: 0.90, validate: hasDigit},
				{re: reHealth, description: "Health information", confidence: 0.70},
			},
		},
	}
}

// luhnAdjust halves the confidence of card numbers that fail the checksum.
// The match is kept: a mistyped or partial card number is still a leak.
func luhnAdjust(d *models.Detection) {
	if !LuhnValid(d.RawValue) {
		d.Confidence = math.Round(d.Confidence*0.5*100) / 100
	}
}

// LuhnValid reports whether the digits of s pass the Luhn checksum.
// Separators are ignored; fewer than 13 digits never validates.
func LuhnValid(s string) bool {
	digits := DigitsOnly(s)
	if len(digits) < 13 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		n := int(digits[i] - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
