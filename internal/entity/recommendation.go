package entity

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// StrategyKind identifies the analyzer that produced a recommendation.
type StrategyKind string

const (
	StrategyOptionScanner    StrategyKind = "option_scanner"
	StrategyCoveredCall      StrategyKind = "covered_call"
	StrategyProtectivePut    StrategyKind = "protective_put"
	StrategyStraddleStrangle StrategyKind = "straddle_strangle"
)

// Action is an analyzer's suggested action for one position.
type Action string

const (
	ActionHold  Action = "HOLD"
	ActionBTC   Action = "BTC"
	ActionSTC   Action = "STC"
	ActionRoll  Action = "ROLL"
	ActionWatch Action = "WATCH"
	ActionClose Action = "CLOSE"
)

// Recommendation is one scan result for (account, symbol, strategy).
// Rows are append-only; the next scan supersedes rather than mutates.
type Recommendation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	AccountID string         `gorm:"index;not null" json:"account_id"`
	Strategy  StrategyKind   `gorm:"not null" json:"strategy"`
	Symbol    string         `gorm:"not null" json:"symbol"`
	Action    Action         `gorm:"not null" json:"action"`
	Reason    string         `json:"reason"`
	Metrics   datatypes.JSON `json:"metrics"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}

// MetricsJSON serializes a numeric metrics map for storage.
func MetricsJSON(m map[string]float64) datatypes.JSON {
	b, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}

// MetricsMap deserializes the stored metrics. Missing or malformed metrics
// come back as an empty map.
func (r *Recommendation) MetricsMap() map[string]float64 {
	m := map[string]float64{}
	if len(r.Metrics) > 0 {
		_ = json.Unmarshal(r.Metrics, &m)
	}
	return m
}
