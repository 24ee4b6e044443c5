package entity

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ChannelKind identifies an outbound delivery medium.
type ChannelKind string

const (
	ChannelWebhook  ChannelKind = "webhook"
	ChannelTelegram ChannelKind = "telegram"
	ChannelSocial   ChannelKind = "social"
	ChannelPush     ChannelKind = "push"
	ChannelSMS      ChannelKind = "sms"
)

// ChannelConfig pairs a channel with its per-account target (webhook URL,
// chat ID, phone number).
type ChannelConfig struct {
	Channel ChannelKind `json:"channel"`
	Target  string      `json:"target"`
}

// Frequency selects when alerts for an account are pushed out.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyDaily     Frequency = "daily"
)

// AlertPreferences holds one account's delivery settings. AccountID is
// unique. An account without a row gets DefaultPreferences: alerts are
// stored but nothing is delivered.
type AlertPreferences struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	AccountID          string         `gorm:"uniqueIndex;not null" json:"account_id"`
	AccountName        string         `json:"account_name"`
	Channels           datatypes.JSON `json:"channels"`
	TemplateID         string         `json:"template_id"`
	Frequency          Frequency      `gorm:"default:immediate" json:"frequency"`
	SeverityFilter     datatypes.JSON `json:"severity_filter"`
	QuietHoursStart    string         `json:"quiet_hours_start"`
	QuietHoursEnd      string         `json:"quiet_hours_end"`
	QuietHoursTimezone string         `json:"quiet_hours_timezone"`
	ProfitThreshold    float64        `gorm:"default:50" json:"profit_threshold"`
	LossThreshold      float64        `gorm:"default:-25" json:"loss_threshold"`
	DTEWarning         int            `gorm:"default:7" json:"dte_warning"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AlertPreferences) TableName() string {
	return "alert_preferences"
}

// DefaultPreferences returns the hard-coded fallback for accounts with no
// stored preferences.
func DefaultPreferences(accountID string) *AlertPreferences {
	return &AlertPreferences{
		AccountID:       accountID,
		Frequency:       FrequencyImmediate,
		ProfitThreshold: 50,
		LossThreshold:   -25,
		DTEWarning:      7,
	}
}

// ChannelList deserializes the ordered channel configuration.
func (p *AlertPreferences) ChannelList() []ChannelConfig {
	var channels []ChannelConfig
	if len(p.Channels) > 0 {
		_ = json.Unmarshal(p.Channels, &channels)
	}
	return channels
}

// SetChannels serializes the ordered channel configuration.
func (p *AlertPreferences) SetChannels(channels []ChannelConfig) {
	b, err := json.Marshal(channels)
	if err != nil {
		return
	}
	p.Channels = datatypes.JSON(b)
}

// Severities deserializes the severity filter. An empty filter defaults to
// warning and above.
func (p *AlertPreferences) Severities() []Severity {
	var severities []Severity
	if len(p.SeverityFilter) > 0 {
		_ = json.Unmarshal(p.SeverityFilter, &severities)
	}
	if len(severities) == 0 {
		return []Severity{SeverityWarning, SeverityUrgent, SeverityCritical}
	}
	return severities
}

// SeverityFloor returns the least severe entry of the filter; an alert at
// or above the floor is deliverable.
func (p *AlertPreferences) SeverityFloor() Severity {
	floor := SeverityCritical
	for _, s := range p.Severities() {
		if s.Rank() < floor.Rank() {
			floor = s
		}
	}
	return floor
}
