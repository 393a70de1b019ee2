package models

import "gorm.io/gorm"

// TradingAccount represents a single MetaTrader account whose history
// is imported into the dashboard. All trades are scoped to one account.
type TradingAccount struct {
	gorm.Model
	AccountName     string  `json:"account_name" gorm:"not null"`
	AccountNumber   string  `json:"account_number,omitempty"`
	Broker          string  `json:"broker,omitempty"`
	AccountType     string  `json:"account_type,omitempty"` // "demo" or "live"
	Currency        string  `json:"currency" gorm:"default:USD"`
	StartingBalance float64 `json:"starting_balance"`
	IsActive        bool    `json:"is_active" gorm:"default:true"`
}
