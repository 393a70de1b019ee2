package metrics

import (
	"sort"
	"time"

	"quantaview/internal/models"
)

// BalancePoint is one day of the reconstructed balance series. Date
// is a UTC calendar day; Balance is the running balance after that
// day's trades, net of commission and swap. DailyProfit stays gross
// because that is what the chart tooltip shows.
type BalancePoint struct {
	Date             time.Time `json:"date"`
	Balance          float64   `json:"balance"`
	DailyProfit      float64   `json:"daily_profit"`
	DailyTrades      int       `json:"daily_trades"`
	CumulativeTrades int       `json:"cumulative_trades"`
}

type dayBucket struct {
	net    float64
	profit float64
	count  int
}

// ComputeBalanceProgression reconstructs the day-by-day account
// balance from a starting balance plus accumulated trade results.
// Trades are bucketed by the UTC calendar day of their close time;
// open positions never contribute. The series always comes back in
// chronological order regardless of input order, anchored by a
// synthetic point one day before the first trading day. An input
// with no closed trades yields an empty series.
func ComputeBalanceProgression(trades []models.Trade, startingBalance float64) []BalancePoint {
	buckets := make(map[time.Time]*dayBucket)
	for i := range trades {
		t := &trades[i]
		if !t.IsClosed() {
			continue
		}
		day := utcDay(*t.CloseTime)
		b := buckets[day]
		if b == nil {
			b = &dayBucket{}
			buckets[day] = b
		}
		b.net += t.NetProfit()
		b.profit += t.Profit
		b.count++
	}

	if len(buckets) == 0 {
		return []BalancePoint{}
	}

	days := make([]time.Time, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	points := make([]BalancePoint, 0, len(days)+1)
	points = append(points, BalancePoint{
		Date:    days[0].AddDate(0, 0, -1),
		Balance: startingBalance,
	})

	balance := startingBalance
	cumulative := 0
	for _, day := range days {
		b := buckets[day]
		balance += b.net
		cumulative += b.count
		points = append(points, BalancePoint{
			Date:             day,
			Balance:          balance,
			DailyProfit:      b.profit,
			DailyTrades:      b.count,
			CumulativeTrades: cumulative,
		})
	}

	return points
}
