package models

import "time"

// StatsWindow is derived on demand from the alert log and never stored.
type StatsWindow struct {
	PeriodDays  int       `json:"period_days"`
	TotalAlerts int       `json:"total_alerts"`
	Spam        SpamStats `json:"spam"`
	DLP         DLPStats  `json:"dlp"`
	GeneratedAt time.Time `json:"generated_at"`
}

type SpamStats struct {
	Total         int            `json:"total"`
	Detected      int            `json:"detected"`
	DetectionRate float64        `json:"detection_rate"`
	BySource      map[string]int `json:"by_source"`
	ByRiskLevel   map[string]int `json:"by_risk_level"`
}

type DLPStats struct {
	Total             int            `json:"total"`
	WithSensitiveData int            `json:"with_sensitive_data"`
	BySource          map[string]int `json:"by_source"`
	BySensitivity     map[string]int `json:"by_sensitivity"`
}
