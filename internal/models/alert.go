package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Source is the channel a message arrived on or was about to leave through.
type Source string

const (
	SourceSMS      Source = "sms"
	SourceEmail    Source = "email"
	SourceTelegram Source = "telegram"
	SourceManual   Source = "manual"
)

// Sources lists every accepted source in display order.
var Sources = []Source{SourceSMS, SourceEmail, SourceTelegram, SourceManual}

func (s Source) Valid() bool {
	switch s {
	case SourceSMS, SourceEmail, SourceTelegram, SourceManual:
		return true
	}
	return false
}

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

func (d Direction) Valid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

// Action is the user's verdict on an alert.
type Action string

const (
	ActionAllowed  Action = "allowed"
	ActionBlocked  Action = "blocked"
	ActionReported Action = "reported"
)

func (a Action) Valid() bool {
	switch a {
	case ActionAllowed, ActionBlocked, ActionReported:
		return true
	}
	return false
}

// Alert represents a row in the 'alerts' table.
type Alert struct {
	ID               int64            `db:"id" json:"id"`
	UserID           string           `db:"user_id" json:"user_id"`
	AlertType        Kind             `db:"alert_type" json:"alert_type"`
	Source           Source           `db:"source" json:"source"`
	Direction        Direction        `db:"direction" json:"direction"`
	MessagePreview   string           `db:"message_preview" json:"message_preview"`
	Timestamp        time.Time        `db:"created_at" json:"timestamp"`
	UserAction       *Action          `db:"user_action" json:"user_action"`
	RiskLevel        RiskLevel        `db:"risk_level" json:"risk_level"`
	RiskScore        int              `db:"risk_score" json:"risk_score"`
	Categories       CategoryList     `db:"categories" json:"categories"`
	Sender           *string          `db:"sender" json:"sender,omitempty"`
	Recipient        *string          `db:"recipient" json:"recipient,omitempty"`
	IsSpam           bool             `db:"is_spam" json:"is_spam"`
	SpamProbability  float64          `db:"spam_probability" json:"spam_probability"`
	HasSensitiveData bool             `db:"has_sensitive_data" json:"has_sensitive_data"`
	SensitivityLevel Sensitivity      `db:"sensitivity_level" json:"sensitivity_level"`
	Detections       DetectionSummary `db:"detections" json:"detections,omitempty"`
	NotificationSent bool             `db:"notification_sent" json:"notification_sent"`
	IdempotencyKey   *string          `db:"idempotency_key" json:"-"`
}

// AlertFilter narrows a list query. Empty fields do not filter; set fields
// combine with AND.
type AlertFilter struct {
	AlertType Kind
	Source    Source
}

// MaskedDetection is the persisted form of a Detection: no raw value.
type MaskedDetection struct {
	Category    Category    `json:"type"`
	Sensitivity Sensitivity `json:"sensitivity"`
	MaskedValue string      `json:"masked_value"`
	Span        Span        `json:"position"`
}

// CategoryList is stored as a JSON array in a text column.
type CategoryList []Category

func (l CategoryList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Category(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *CategoryList) Scan(src any) error {
	return scanJSON(src, l)
}

// DetectionSummary is stored as a JSON array in a text column.
type DetectionSummary []MaskedDetection

func (d DetectionSummary) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]MaskedDetection(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *DetectionSummary) Scan(src any) error {
	return scanJSON(src, d)
}

func scanJSON(src any, dest any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
