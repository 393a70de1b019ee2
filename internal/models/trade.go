package models

import (
	"time"

	"gorm.io/gorm"
)

// Trade types as reported by the MetaTrader terminal.
const (
	TradeTypeBuy  = "buy"
	TradeTypeSell = "sell"
)

// Trade represents a single MetaTrader deal or position record.
// A trade is considered closed when CloseTime is set; open positions
// are listed but excluded from all aggregate statistics.
type Trade struct {
	gorm.Model
	TradingAccountID uint `json:"trading_account_id" gorm:"uniqueIndex:idx_account_ticket;not null"`

	// Trade identification
	Ticket      int64  `json:"ticket" gorm:"uniqueIndex:idx_account_ticket"`
	Position    int64  `json:"position"`
	MagicNumber int64  `json:"magic_number"`
	Symbol      string `json:"symbol" gorm:"not null"`
	Type        string `json:"type" gorm:"not null"` // "buy" or "sell"

	// Trade metrics
	Volume     float64  `json:"volume" gorm:"not null"`
	OpenPrice  float64  `json:"open_price" gorm:"not null"`
	ClosePrice *float64 `json:"close_price,omitempty"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`

	// Financial results. Profit is the gross trading result; commission
	// and swap are carried separately and only netted where documented.
	Profit     float64 `json:"profit"`
	Commission float64 `json:"commission"`
	Swap       float64 `json:"swap"`

	// Timing
	OpenTime  time.Time  `json:"open_time" gorm:"not null"`
	CloseTime *time.Time `json:"close_time,omitempty"`

	Comment string `json:"comment,omitempty"`
}

// IsClosed reports whether the trade has completed and should count
// toward profit/loss statistics.
func (t *Trade) IsClosed() bool {
	return t.CloseTime != nil
}

// NetProfit returns the trade result after commission and swap.
func (t *Trade) NetProfit() float64 {
	return t.Profit + t.Commission + t.Swap
}
