package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey authorizes an Expert Advisor or import tool to push trades
// into one trading account. Only the SHA-256 hash of the key is
// stored; issuance happens outside this service.
type APIKey struct {
	gorm.Model
	TradingAccountID uint       `json:"trading_account_id" gorm:"index;not null"`
	Name             string     `json:"name"`
	KeyHash          string     `json:"-" gorm:"uniqueIndex;not null"`
	KeyPrefix        string     `json:"key_prefix"` // first characters, for display only
	IsActive         bool       `json:"is_active" gorm:"default:true"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty"`
}
