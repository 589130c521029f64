package detector

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball"

	"inspection-service/internal/models"
)

// SpamIndicators are the words whose stems count as spam keywords.
var SpamIndicators = []string{
	"free", "winner", "cash", "prize", "urgent", "click",
	"subscribe", "congratulations", "selected", "claim",
	"win", "bonus", "offer", "gift", "reward", "verify",
}

var (
	reURLWithIP  = regexp.MustCompile(`(?i)\bhttps?://[0-9]{1,3}(?:\.[0-9]{1,3}){3}[^\s<>"]*`)
	reShortener  = regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|goo\.gl|t\.co|ow\.ly|is\.gd|rb\.gy|cutt\.ly|shorturl\.at)/[^\s<>"]*[^\s<>".,!?;:)\]]`)
	reURL        = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"]*[^\s<>".,!?;:)\]]`)
	reUrgency    = regexp.MustCompile(`(?i)\b(?:act\s+now|urgent(?:ly)?|immediately|right\s+away|limited\s+time|expires?\s+(?:today|tonight|soon)|final\s+(?:notice|warning)|last\s+chance|within\s+[0-9]+\s+hours?|don'?t\s+miss|hurry|account\s+(?:suspended|locked|blocked|on\s+hold)|verify\s+your\s+(?:account|identity))\b`)
	reMoneySign  = regexp.MustCompile(`[$£€]\s?[0-9][0-9,]*(?:\.[0-9]+)?`)
	reMoneyWord  = regexp.MustCompile(`(?i)\b[0-9][0-9,]*(?:\.[0-9]+)?\s?(?:dollars?|usd|pounds?|gbp|euros?|eur)\b`)
	rePunctuated = regexp.MustCompile(`[!?]{2,}`)
	reWord       = regexp.MustCompile(`[A-Za-z]+`)
)

func spamDetectors() []Detector {
	return []Detector{
		&patternDetector{
			name:     "suspicious_url",
			kind:     models.KindSpam,
			category: models.CategorySuspiciousURL,
			patterns: []pattern{
				{re: reURLWithIP, description: "Link to a raw IP address", confidence: 0.95},
				{re: reShortener, description: "Shortened link", confidence: 0.90},
				{re: reURL, description: "Link", confidence: 0.70},
			},
		},
		&patternDetector{
			name:     "urgency_phrase",
			kind:     models.KindSpam,
			category: models.CategoryUrgencyPhrase,
			patterns: []pattern{
				{re: reUrgency, description: "Urgency phrase", confidence: 0.80},
			},
		},
		&patternDetector{
			name:     "money_offer",
			kind:     models.KindSpam,
			category: models.CategoryMoneyOffer,
			patterns: []pattern{
				{re: reMoneySign, description: "Money amount", confidence: 0.75},
				{re: reMoneyWord, description: "Money amount", confidence: 0.75},
			},
		},
		newKeywordDetector(SpamIndicators),
		&patternDetector{
			name:     "excessive_punctuation",
			kind:     models.KindSpam,
			category: models.CategoryExcessivePunctuation,
			patterns: []pattern{
				{re: rePunctuated, description: "Repeated punctuation", confidence: 0.60},
			},
		},
	}
}

// keywordDetector matches words whose Snowball stem is a spam indicator stem,
// so "winners", "claimed" and "clicking" all count.
type keywordDetector struct {
	stems map[string]struct{}
}

func newKeywordDetector(words []string) *keywordDetector {
	stems := make(map[string]struct{}, len(words))
	for _, w := range words {
		stems[stem(w)] = struct{}{}
	}
	return &keywordDetector{stems: stems}
}

func (k *keywordDetector) Name() string              { return "spam_keyword" }
func (k *keywordDetector) Kind() models.Kind         { return models.KindSpam }
func (k *keywordDetector) Category() models.Category { return models.CategorySpamKeyword }

func (k *keywordDetector) Detect(text string) []models.Detection {
	var out []models.Detection
	for _, loc := range reWord.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		if _, ok := k.stems[stem(word)]; !ok {
			continue
		}
		out = append(out, models.Detection{
			Category:    models.CategorySpamKeyword,
			Description: "Spam keyword",
			Sensitivity: SensitivityOf(models.CategorySpamKeyword),
			Span:        models.Span{Start: loc[0], End: loc[1]},
			RawValue:    word,
			Confidence:  0.60,
		})
	}
	return out
}

func stem(word string) string {
	normalized := strings.ToLower(strings.TrimSpace(word))
	stemmed, err := snowball.Stem(normalized, "english", true)
	if err != nil {
		return normalized
	}
	return stemmed
}
