package metrics

import (
	"math"
	"sort"
	"time"

	"quantaview/internal/models"
)

// Breakdowns slice the same closed-trade population by symbol and by
// time of entry. Unlike the headline summary these work on net profit
// (profit + commission + swap), since a pair or session that only
// looks profitable before costs is not worth surfacing.

// SymbolStats is the per-instrument performance row.
type SymbolStats struct {
	Symbol     string  `json:"symbol"`
	NetProfit  float64 `json:"net_profit"`
	TradeCount int     `json:"trade_count"`
	WinRate    float64 `json:"win_rate"`
	AvgProfit  float64 `json:"avg_profit"`
	RiskScore  float64 `json:"risk_score"` // profit volatility relative to the mean
}

// HourStats aggregates trades opened during one UTC hour of day.
type HourStats struct {
	Hour       int     `json:"hour"`
	NetProfit  float64 `json:"net_profit"`
	TradeCount int     `json:"trade_count"`
	WinRate    float64 `json:"win_rate"`
	AvgProfit  float64 `json:"avg_profit"`
}

// WeekdayStats aggregates trades opened on one weekday, Monday first.
type WeekdayStats struct {
	Day        string  `json:"day"`
	DayIndex   int     `json:"day_index"`
	NetProfit  float64 `json:"net_profit"`
	TradeCount int     `json:"trade_count"`
	WinRate    float64 `json:"win_rate"`
	AvgProfit  float64 `json:"avg_profit"`
}

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// SymbolBreakdown groups closed trades by instrument, sorted by net
// profit descending.
func SymbolBreakdown(trades []models.Trade) []SymbolStats {
	groups := make(map[string][]float64)
	for i := range trades {
		t := &trades[i]
		if !t.IsClosed() {
			continue
		}
		groups[t.Symbol] = append(groups[t.Symbol], t.NetProfit())
	}

	stats := make([]SymbolStats, 0, len(groups))
	for symbol, profits := range groups {
		row := SymbolStats{Symbol: symbol, TradeCount: len(profits)}
		wins := 0
		for _, p := range profits {
			row.NetProfit += p
			if p > 0 {
				wins++
			}
		}
		row.WinRate = float64(wins) / float64(len(profits)) * 100
		row.AvgProfit = row.NetProfit / float64(len(profits))
		if row.AvgProfit != 0 {
			row.RiskScore = stdDev(profits, row.AvgProfit) / math.Abs(row.AvgProfit)
		}
		stats = append(stats, row)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].NetProfit != stats[j].NetProfit {
			return stats[i].NetProfit > stats[j].NetProfit
		}
		return stats[i].Symbol < stats[j].Symbol
	})

	return stats
}

// HourlyBreakdown buckets closed trades by the UTC hour they were
// opened. All 24 rows are always present so the heatmap stays dense.
func HourlyBreakdown(trades []models.Trade) []HourStats {
	var sums [24]float64
	var counts, wins [24]int

	for i := range trades {
		t := &trades[i]
		if !t.IsClosed() {
			continue
		}
		h := t.OpenTime.UTC().Hour()
		net := t.NetProfit()
		sums[h] += net
		counts[h]++
		if net > 0 {
			wins[h]++
		}
	}

	stats := make([]HourStats, 24)
	for h := 0; h < 24; h++ {
		stats[h] = HourStats{Hour: h, NetProfit: sums[h], TradeCount: counts[h]}
		if counts[h] > 0 {
			stats[h].WinRate = float64(wins[h]) / float64(counts[h]) * 100
			stats[h].AvgProfit = sums[h] / float64(counts[h])
		}
	}
	return stats
}

// WeekdayBreakdown buckets closed trades by the UTC weekday they were
// opened, Monday-indexed to match the dashboard calendar.
func WeekdayBreakdown(trades []models.Trade) []WeekdayStats {
	var sums [7]float64
	var counts, wins [7]int

	for i := range trades {
		t := &trades[i]
		if !t.IsClosed() {
			continue
		}
		d := mondayIndex(t.OpenTime.UTC().Weekday())
		net := t.NetProfit()
		sums[d] += net
		counts[d]++
		if net > 0 {
			wins[d]++
		}
	}

	stats := make([]WeekdayStats, 7)
	for d := 0; d < 7; d++ {
		stats[d] = WeekdayStats{Day: weekdayNames[d], DayIndex: d, NetProfit: sums[d], TradeCount: counts[d]}
		if counts[d] > 0 {
			stats[d].WinRate = float64(wins[d]) / float64(counts[d]) * 100
			stats[d].AvgProfit = sums[d] / float64(counts[d])
		}
	}
	return stats
}

// mondayIndex converts time.Weekday (Sunday = 0) to Monday = 0.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// stdDev is the population standard deviation around a known mean.
func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
