package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"quantaview/internal/models"
)

func TestComputeBalanceProgressionEmpty(t *testing.T) {
	assert.Empty(t, ComputeBalanceProgression(nil, 1000))
	assert.Empty(t, ComputeBalanceProgression([]models.Trade{}, 1000))
}

func TestComputeBalanceProgressionOpenTradesOnly(t *testing.T) {
	open := models.Trade{
		Symbol:    "EURUSD",
		Type:      models.TradeTypeBuy,
		Volume:    0.1,
		OpenPrice: 1.1,
		OpenTime:  day("2024-01-01T10:00:00Z"),
		Profit:    50,
	}

	assert.Empty(t, ComputeBalanceProgression([]models.Trade{open}, 1000))
}

func TestComputeBalanceProgressionBasicScenario(t *testing.T) {
	trades := []models.Trade{
		closed(100, -5, 0, "2024-01-01T10:00:00Z"),
		closed(-40, -5, 0, "2024-01-02T10:00:00Z"),
	}

	points := ComputeBalanceProgression(trades, 1000)

	assert.Len(t, points, 3)

	// Synthetic anchor the day before the first trading day.
	assert.Equal(t, day("2023-12-31T00:00:00Z"), points[0].Date)
	assert.InDelta(t, 1000.0, points[0].Balance, 1e-9)
	assert.Equal(t, 0, points[0].DailyTrades)

	assert.Equal(t, day("2024-01-01T00:00:00Z"), points[1].Date)
	assert.InDelta(t, 1095.0, points[1].Balance, 1e-9) // 1000 + 100 - 5
	assert.InDelta(t, 100.0, points[1].DailyProfit, 1e-9)
	assert.Equal(t, 1, points[1].DailyTrades)
	assert.Equal(t, 1, points[1].CumulativeTrades)

	assert.Equal(t, day("2024-01-02T00:00:00Z"), points[2].Date)
	assert.InDelta(t, 1050.0, points[2].Balance, 1e-9) // 1095 - 40 - 5
	assert.InDelta(t, -40.0, points[2].DailyProfit, 1e-9)
	assert.Equal(t, 2, points[2].CumulativeTrades)
}

func TestComputeBalanceProgressionGroupsByUTCDay(t *testing.T) {
	// Two closes 2 minutes apart that straddle a UTC midnight must land
	// in different buckets, whatever zone the timestamps carry.
	est := time.FixedZone("EST", -5*3600)
	lateTrade := closed(10, 0, 0, "2024-01-01T23:59:00Z")
	earlyTrade := closed(20, 0, 0, "2024-01-02T00:01:00Z")
	ctLocal := lateTrade.CloseTime.In(est)
	lateTrade.CloseTime = &ctLocal

	points := ComputeBalanceProgression([]models.Trade{earlyTrade, lateTrade}, 100)

	assert.Len(t, points, 3)
	assert.Equal(t, day("2024-01-01T00:00:00Z"), points[1].Date)
	assert.Equal(t, day("2024-01-02T00:00:00Z"), points[2].Date)
	assert.InDelta(t, 110.0, points[1].Balance, 1e-9)
	assert.InDelta(t, 130.0, points[2].Balance, 1e-9)
}

func TestComputeBalanceProgressionSortedRegardlessOfInput(t *testing.T) {
	trades := []models.Trade{
		closed(30, 0, 0, "2024-01-05T10:00:00Z"),
		closed(10, 0, 0, "2024-01-01T10:00:00Z"),
		closed(-20, 0, 0, "2024-01-03T10:00:00Z"),
	}

	points := ComputeBalanceProgression(trades, 1000)

	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].Date.After(points[i-1].Date),
			"points must be strictly chronological")
	}
}

func TestComputeBalanceProgressionFinalBalanceReconciles(t *testing.T) {
	trades := []models.Trade{
		closed(100, -5, -1, "2024-01-01T10:00:00Z"),
		closed(-40, -5, 0, "2024-01-02T10:00:00Z"),
		closed(80, -3, -2, "2024-01-02T15:00:00Z"),
		closed(-10, 0, 0, "2024-01-09T10:00:00Z"),
	}

	var net float64
	for i := range trades {
		net += trades[i].NetProfit()
	}

	points := ComputeBalanceProgression(trades, 2500)

	last := points[len(points)-1]
	assert.InDelta(t, 2500+net, last.Balance, 1e-9)
	assert.Equal(t, len(trades), last.CumulativeTrades)
}
