// Package metrics derives performance statistics from raw trade
// records. Every function here is a pure transform over the trade
// slice it is given: no I/O, no shared state, deterministic output.
// Only closed trades (CloseTime set) contribute to any aggregate.
package metrics

import (
	"math"
	"time"

	"quantaview/internal/models"
)

const (
	// ProfitFactorInfinite is reported when there are winning trades
	// and no losing trades. A capped value keeps the field JSON-safe;
	// math.Inf does not survive encoding/json.
	ProfitFactorInfinite = 999.0

	// DefaultStartingBalance anchors the balance chart when the
	// account has no recorded starting balance. Display convention
	// only, it never changes profit figures.
	DefaultStartingBalance = 10000.0

	avgDaysPerMonth = 30.44
)

// Summary holds every aggregate the dashboard displays for one account.
type Summary struct {
	TotalTrades int `json:"total_trades"`
	OpenTrades  int `json:"open_trades"`
	BuyTrades   int `json:"buy_trades"`
	SellTrades  int `json:"sell_trades"`

	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"` // percent

	TotalProfit     float64 `json:"total_profit"` // gross, profit field only
	TotalCommission float64 `json:"total_commission"`
	TotalSwap       float64 `json:"total_swap"`
	TotalBalance    float64 `json:"total_balance"` // starting balance net of all costs

	GrossProfit   float64 `json:"gross_profit"` // sum over winners
	GrossLoss     float64 `json:"gross_loss"`   // absolute sum over losers
	ProfitFactor  float64 `json:"profit_factor"`
	AverageProfit float64 `json:"average_profit"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`

	AverageRRR float64 `json:"average_rrr"`
	RRRSamples int     `json:"rrr_samples"` // trades that qualified for the RRR average

	TradesPerDay   float64 `json:"trades_per_day"`
	TradesPerWeek  float64 `json:"trades_per_week"`
	TradesPerMonth float64 `json:"trades_per_month"`

	MaxDrawdown            float64 `json:"max_drawdown"`
	MaxDrawdownPercent     float64 `json:"max_drawdown_percent"`
	CurrentDrawdown        float64 `json:"current_drawdown"`
	CurrentDrawdownPercent float64 `json:"current_drawdown_percent"`
	RecoveryFactor         float64 `json:"recovery_factor"`

	StartingBalance float64 `json:"starting_balance"`
}

// ComputeSummary calculates the full statistics set for a trade list.
// The input may be in any order and may contain open positions; the
// function is total over any well-formed slice and never fails.
func ComputeSummary(trades []models.Trade, startingBalance float64) Summary {
	s := Summary{StartingBalance: startingBalance}

	var (
		rrrSum     float64
		firstClose time.Time
		lastClose  time.Time
	)

	for i := range trades {
		t := &trades[i]
		if !t.IsClosed() {
			s.OpenTrades++
			continue
		}

		s.TotalTrades++
		switch t.Type {
		case models.TradeTypeBuy:
			s.BuyTrades++
		case models.TradeTypeSell:
			s.SellTrades++
		}

		s.TotalProfit += t.Profit
		s.TotalCommission += t.Commission
		s.TotalSwap += t.Swap

		switch {
		case t.Profit > 0:
			s.WinningTrades++
			s.GrossProfit += t.Profit
			if t.Profit > s.LargestWin {
				s.LargestWin = t.Profit
			}
		case t.Profit < 0:
			s.LosingTrades++
			s.GrossLoss += -t.Profit
			if t.Profit < s.LargestLoss {
				s.LargestLoss = t.Profit
			}
		}
		// Break-even trades count as neither win nor loss.

		if rrr, ok := riskReward(t); ok {
			rrrSum += rrr
			s.RRRSamples++
		}

		closed := t.CloseTime.UTC()
		if firstClose.IsZero() || closed.Before(firstClose) {
			firstClose = closed
		}
		if lastClose.IsZero() || closed.After(lastClose) {
			lastClose = closed
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
		s.AverageProfit = s.TotalProfit / float64(s.TotalTrades)
	}

	switch {
	case s.GrossLoss > 0:
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	case s.GrossProfit > 0:
		s.ProfitFactor = ProfitFactorInfinite
	}

	if s.RRRSamples > 0 {
		s.AverageRRR = rrrSum / float64(s.RRRSamples)
	}

	if s.TotalTrades > 0 {
		days := spanDays(firstClose, lastClose)
		s.TradesPerDay = float64(s.TotalTrades) / days
		s.TradesPerWeek = float64(s.TotalTrades) / math.Max(days/7, 1)
		s.TradesPerMonth = float64(s.TotalTrades) / math.Max(days/avgDaysPerMonth, 1)
	}

	applyDrawdown(&s, ComputeBalanceProgression(trades, startingBalance))

	s.TotalBalance = startingBalance + s.TotalProfit + s.TotalCommission + s.TotalSwap

	return s
}

// riskReward returns |close-open| / |open-stop| for trades carrying
// both a stop loss and a close price. Trades missing either, or with
// a zero stop distance, do not qualify and are excluded from the
// average rather than counted as zero.
func riskReward(t *models.Trade) (float64, bool) {
	if t.StopLoss == nil || t.ClosePrice == nil {
		return 0, false
	}
	risk := math.Abs(t.OpenPrice - *t.StopLoss)
	if risk == 0 {
		return 0, false
	}
	return math.Abs(*t.ClosePrice-t.OpenPrice) / risk, true
}

// spanDays counts calendar days between two close times, inclusive,
// on UTC day boundaries. Never returns less than 1 so single-day
// histories do not inflate the per-day rate.
func spanDays(first, last time.Time) float64 {
	fd := utcDay(first)
	ld := utcDay(last)
	days := ld.Sub(fd).Hours()/24 + 1
	return math.Max(days, 1)
}

// applyDrawdown walks the balance series tracking the running peak.
// Drawdown at each point is the distance below that peak; the percent
// form is taken against the peak in effect at that point.
func applyDrawdown(s *Summary, progression []BalancePoint) {
	if len(progression) == 0 {
		return
	}

	peak := progression[0].Balance
	for _, p := range progression {
		if p.Balance > peak {
			peak = p.Balance
		}
		dd := peak - p.Balance
		if dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
			if peak != 0 {
				s.MaxDrawdownPercent = dd / peak * 100
			}
		}
		s.CurrentDrawdown = dd
		if peak != 0 {
			s.CurrentDrawdownPercent = dd / peak * 100
		} else {
			s.CurrentDrawdownPercent = 0
		}
	}

	if s.MaxDrawdown > 0 {
		s.RecoveryFactor = s.TotalProfit / s.MaxDrawdown
	}
}

// utcDay truncates a timestamp to its UTC calendar day.
func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
