// Package quantaview defines the wire contract of the dashboard API
// and a REST client for it, used by the sync tool to push MetaTrader
// deal history.
package quantaview

import "time"

// TradeRecord is one deal as exported from a MetaTrader terminal.
// Optional fields are pointers so "absent" survives the round trip
// instead of collapsing to zero.
type TradeRecord struct {
	Ticket      int64      `json:"ticket"`
	Position    int64      `json:"position,omitempty"`
	MagicNumber int64      `json:"magic_number,omitempty"`
	Symbol      string     `json:"symbol"`
	Type        string     `json:"type"` // "buy" or "sell"
	Volume      float64    `json:"volume"`
	OpenPrice   float64    `json:"open_price"`
	ClosePrice  *float64   `json:"close_price,omitempty"`
	StopLoss    *float64   `json:"stop_loss,omitempty"`
	TakeProfit  *float64   `json:"take_profit,omitempty"`
	Profit      float64    `json:"profit"`
	Commission  float64    `json:"commission"`
	Swap        float64    `json:"swap"`
	OpenTime    time.Time  `json:"open_time"`
	CloseTime   *time.Time `json:"close_time,omitempty"`
	Comment     string     `json:"comment,omitempty"`
}

// BatchRequest carries one upload batch. Batches are capped at
// MaxBatchSize records server-side.
type BatchRequest struct {
	TradingAccountID uint          `json:"trading_account_id"`
	Trades           []TradeRecord `json:"trades"`
}

// BatchResponse reports what the server did with a batch. Duplicate
// tickets are skipped, not errors, so re-running an import is safe.
type BatchResponse struct {
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Total     int    `json:"total"`
}

// MaxBatchSize bounds a single batch request.
const MaxBatchSize = 1000
