package entity

import (
	"database/sql"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Severity tags an alert's urgency. Order matters: critical alerts bypass
// quiet hours.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityUrgent   Severity = "urgent"
	SeverityCritical Severity = "critical"
)

var severityRanks = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityUrgent:   2,
	SeverityCritical: 3,
}

// Rank returns the ordering value of a severity; unknown severities rank
// lowest.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// AtLeast reports whether s is at least as severe as floor.
func (s Severity) AtLeast(floor Severity) bool {
	return s.Rank() >= floor.Rank()
}

// WatchlistAlert is a recommendation promoted to a deliverable notification.
// Created by the alert generator; mutated only by an explicit acknowledge
// and by the delivery engine stamping NotifiedAt.
type WatchlistAlert struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	WatchlistItemID  uint           `gorm:"index" json:"watchlist_item_id"`
	AccountID        string         `gorm:"index;not null" json:"account_id"`
	Symbol           string         `gorm:"not null" json:"symbol"`
	Recommendation   Action         `gorm:"not null" json:"recommendation"`
	Severity         Severity       `gorm:"not null" json:"severity"`
	Reason           string         `json:"reason"`
	Details          datatypes.JSON `json:"details"`
	SuggestedActions datatypes.JSON `json:"suggested_actions"`
	Acknowledged     bool           `gorm:"default:false" json:"acknowledged"`
	AcknowledgedAt   sql.NullTime   `json:"acknowledged_at"`
	NotifiedAt       sql.NullTime   `json:"notified_at"`
	CreatedAt        time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (WatchlistAlert) TableName() string {
	return "watchlist_alerts"
}

// DetailsMap deserializes the stored alert details.
func (a *WatchlistAlert) DetailsMap() map[string]float64 {
	m := map[string]float64{}
	if len(a.Details) > 0 {
		_ = json.Unmarshal(a.Details, &m)
	}
	return m
}

// SuggestedActionList deserializes the ordered suggested actions.
func (a *WatchlistAlert) SuggestedActionList() []string {
	var actions []string
	if len(a.SuggestedActions) > 0 {
		_ = json.Unmarshal(a.SuggestedActions, &actions)
	}
	return actions
}
