package entity

import (
	"time"
)

// OptionPosition is one tracked options position. Single-leg strategies use
// Strike; straddles and strangles use PutStrike/CallStrike.
type OptionPosition struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	AccountID       string       `gorm:"index;not null" json:"account_id"`
	Symbol          string       `gorm:"not null" json:"symbol"`
	Underlying      string       `gorm:"not null" json:"underlying"`
	Strategy        StrategyKind `gorm:"not null" json:"strategy"`
	OptionType      string       `json:"option_type"`
	Strike          float64      `json:"strike"`
	PutStrike       float64      `json:"put_strike"`
	CallStrike      float64      `json:"call_strike"`
	Expiration      time.Time    `json:"expiration"`
	EntryPremium    float64      `json:"entry_premium"`
	UnderlyingEntry float64      `json:"underlying_entry"`
	Quantity        int          `gorm:"default:1" json:"quantity"`
	IsActive        bool         `gorm:"default:true" json:"is_active"`
	WatchlistItemID *uint        `json:"watchlist_item_id,omitempty"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OptionPosition) TableName() string {
	return "option_positions"
}

// DaysToExpiration returns whole days remaining until the position expires,
// floored at zero.
func (p *OptionPosition) DaysToExpiration(now time.Time) int {
	days := int(p.Expiration.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// WatchlistItem is a tracked symbol for an account.
type WatchlistItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AccountID  string    `gorm:"index;not null" json:"account_id"`
	Symbol     string    `gorm:"not null" json:"symbol"`
	EntryPrice float64   `json:"entry_price"`
	PriceAlert bool      `gorm:"default:true" json:"price_alert"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (WatchlistItem) TableName() string {
	return "watchlist_items"
}

// PushSubscription is a client push endpoint. A gateway responding 410
// deactivates the subscription instead of retrying.
type PushSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID string    `gorm:"index;not null" json:"account_id"`
	Endpoint  string    `gorm:"uniqueIndex;not null" json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
