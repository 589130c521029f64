package detector

import "inspection-service/internal/models"

var sensitivities = map[models.Category]models.Sensitivity{
	models.CategoryCreditCard:     models.SensitivityCritical,
	models.CategoryCVV:            models.SensitivityCritical,
	models.CategoryNationalID:     models.SensitivityCritical,
	models.CategoryPassword:       models.SensitivityCritical,
	models.CategoryPIN:            models.SensitivityCritical,
	models.CategoryAPIKey:         models.SensitivityCritical,
	models.CategoryBankAccount:    models.SensitivityHigh,
	models.CategoryPassport:       models.SensitivityHigh,
	models.CategoryDriversLicense: models.SensitivityHigh,
	models.CategoryMedical:        models.SensitivityHigh,
	models.CategoryPhone:          models.SensitivityMedium,
	models.CategoryAddress:        models.SensitivityMedium,
	models.CategoryDateOfBirth:    models.SensitivityMedium,
	models.CategoryIPAddress:      models.SensitivityMedium,
	models.CategoryEmail:          models.SensitivityLow,

	models.CategorySuspiciousURL:        models.SensitivityMedium,
	models.CategoryUrgencyPhrase:        models.SensitivityMedium,
	models.CategoryMoneyOffer:           models.SensitivityMedium,
	models.CategorySpamKeyword:          models.SensitivityLow,
	models.CategoryExcessivePunctuation: models.SensitivityLow,
}

var recommendations = map[models.Category]string{
	models.CategoryCreditCard:     "Never share full card numbers over messages. Use a secure payment link instead.",
	models.CategoryCVV:            "Card security codes should never be sent to anyone.",
	models.CategoryNationalID:     "National ID numbers enable identity theft. Share them only through official channels.",
	models.CategoryPassword:       "Do not send passwords in messages. Use a password manager's sharing feature.",
	models.CategoryPIN:            "PIN codes must stay private. No legitimate service asks for them by message.",
	models.CategoryAPIKey:         "Secrets and tokens in messages should be revoked and rotated.",
	models.CategoryBankAccount:    "Confirm the recipient before sharing bank account details.",
	models.CategoryPassport:       "Passport numbers should only go to verified institutions.",
	models.CategoryDriversLicense: "Driver's license numbers should only go to verified institutions.",
	models.CategoryMedical:        "Health information is private. Share it only with your care providers.",
	models.CategoryPhone:          "Make sure the recipient should have this phone number.",
	models.CategoryAddress:        "Physical addresses reveal where you live. Share with trusted contacts only.",
	models.CategoryDateOfBirth:    "Date of birth is often used for identity checks. Share sparingly.",
	models.CategoryIPAddress:      "Network addresses can expose internal systems.",
	models.CategoryEmail:          "Consider whether the recipient needs this email address.",

	models.CategorySuspiciousURL:        "Do not open links from unknown senders.",
	models.CategoryUrgencyPhrase:        "Pressure to act quickly is a common scam tactic.",
	models.CategoryMoneyOffer:           "Unexpected money offers are almost always scams.",
	models.CategorySpamKeyword:          "This message uses wording typical of spam.",
	models.CategoryExcessivePunctuation: "Excessive punctuation is typical of promotional spam.",
}

// SensitivityOf returns the fixed sensitivity of a category.
func SensitivityOf(c models.Category) models.Sensitivity {
	if s, ok := sensitivities[c]; ok {
		return s
	}
	return models.SensitivityNone
}

// RecommendationFor returns the static advisory for a category.
func RecommendationFor(c models.Category) string {
	return recommendations[c]
}
