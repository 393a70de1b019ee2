package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"quantaview/internal/apikey"
	"quantaview/internal/metrics"
	"quantaview/internal/models"
	"quantaview/internal/quantaview"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log *zap.Logger
	db  *gorm.DB
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB) *APIHandler {
	return &APIHandler{log: log, db: db}
}

// Routes wires every endpoint onto a fresh mux.
func (h *APIHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", h.StatusHandler)

	mux.HandleFunc("GET /api/accounts", h.ListAccountsHandler)
	mux.HandleFunc("POST /api/accounts", h.CreateAccountHandler)
	mux.HandleFunc("GET /api/accounts/{id}", h.GetAccountHandler)
	mux.HandleFunc("GET /api/accounts/{id}/trades", h.AccountTradesHandler)
	mux.HandleFunc("GET /api/accounts/{id}/metrics", h.MetricsHandler)
	mux.HandleFunc("GET /api/accounts/{id}/balance-progression", h.BalanceProgressionHandler)
	mux.HandleFunc("GET /api/accounts/{id}/analysis/symbols", h.SymbolAnalysisHandler)
	mux.HandleFunc("GET /api/accounts/{id}/analysis/hours", h.HourlyAnalysisHandler)
	mux.HandleFunc("GET /api/accounts/{id}/analysis/weekdays", h.WeekdayAnalysisHandler)

	mux.HandleFunc("POST /api/trades", h.CreateTradeHandler)
	mux.HandleFunc("POST /api/trades/batch", h.TradeBatchHandler)

	return mux
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// loadAccount resolves the {id} path value to a trading account, writing
// the error response itself when it cannot.
func (h *APIHandler) loadAccount(w http.ResponseWriter, r *http.Request) (*models.TradingAccount, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid account id")
		return nil, false
	}

	var account models.TradingAccount
	if err := h.db.First(&account, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.writeError(w, http.StatusNotFound, "account not found")
		} else {
			h.log.Error("Failed to load account", zap.Uint64("id", id), zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "failed to load account")
		}
		return nil, false
	}

	return &account, true
}

// accountTrades loads every trade of one account.
func (h *APIHandler) accountTrades(accountID uint) ([]models.Trade, error) {
	var trades []models.Trade
	err := h.db.Where("trading_account_id = ?", accountID).Find(&trades).Error
	return trades, err
}

// startingBalance picks the balance the chart is anchored at. Accounts
// imported without one fall back to the display convention.
func startingBalance(account *models.TradingAccount) float64 {
	if account.StartingBalance > 0 {
		return account.StartingBalance
	}
	return metrics.DefaultStartingBalance
}

// StatusHandler reports service health.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListAccountsHandler returns all trading accounts.
func (h *APIHandler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	var accounts []models.TradingAccount
	if err := h.db.Order("created_at").Find(&accounts).Error; err != nil {
		h.log.Error("Failed to list accounts", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	h.writeJSON(w, http.StatusOK, accounts)
}

// CreateAccountHandler registers a new trading account.
func (h *APIHandler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var account models.TradingAccount
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if account.AccountName == "" {
		h.writeError(w, http.StatusBadRequest, "account_name is required")
		return
	}

	if err := h.db.Create(&account).Error; err != nil {
		h.log.Error("Failed to create account", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	h.log.Info("Account created", zap.Uint("id", account.ID), zap.String("name", account.AccountName))
	h.writeJSON(w, http.StatusCreated, account)
}

// GetAccountHandler returns a single trading account.
func (h *APIHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// AccountTradesHandler returns an account's trades, most recently
// closed first with open positions on top.
func (h *APIHandler) AccountTradesHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	var trades []models.Trade
	err := h.db.
		Where("trading_account_id = ?", account.ID).
		Order("close_time IS NOT NULL, close_time DESC, open_time DESC").
		Find(&trades).Error
	if err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to get trades")
		return
	}

	h.writeJSON(w, http.StatusOK, trades)
}

// CreateTradeHandler records a single trade.
func (h *APIHandler) CreateTradeHandler(w http.ResponseWriter, r *http.Request) {
	var trade models.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if trade.TradingAccountID == 0 || trade.Symbol == "" {
		h.writeError(w, http.StatusBadRequest, "trading_account_id and symbol are required")
		return
	}
	if trade.Type != models.TradeTypeBuy && trade.Type != models.TradeTypeSell {
		h.writeError(w, http.StatusBadRequest, `type must be "buy" or "sell"`)
		return
	}

	if err := h.db.Create(&trade).Error; err != nil {
		h.log.Error("Failed to create trade", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to create trade")
		return
	}

	h.writeJSON(w, http.StatusCreated, trade)
}

// MetricsHandler returns the full statistics summary for one account.
func (h *APIHandler) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	trades, err := h.accountTrades(account.ID)
	if err != nil {
		h.log.Error("Failed to get trades for metrics", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to compute metrics")
		return
	}

	h.writeJSON(w, http.StatusOK, metrics.ComputeSummary(trades, startingBalance(account)))
}

// BalanceProgressionHandler returns the daily balance series for the
// account's chart.
func (h *APIHandler) BalanceProgressionHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	trades, err := h.accountTrades(account.ID)
	if err != nil {
		h.log.Error("Failed to get trades for balance progression", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to compute balance progression")
		return
	}

	h.writeJSON(w, http.StatusOK, metrics.ComputeBalanceProgression(trades, startingBalance(account)))
}

// SymbolAnalysisHandler returns per-instrument performance.
func (h *APIHandler) SymbolAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	trades, err := h.accountTrades(account.ID)
	if err != nil {
		h.log.Error("Failed to get trades for symbol analysis", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to analyze symbols")
		return
	}

	h.writeJSON(w, http.StatusOK, metrics.SymbolBreakdown(trades))
}

// HourlyAnalysisHandler returns the hour-of-day heatmap rows.
func (h *APIHandler) HourlyAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	trades, err := h.accountTrades(account.ID)
	if err != nil {
		h.log.Error("Failed to get trades for hourly analysis", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to analyze hours")
		return
	}

	h.writeJSON(w, http.StatusOK, metrics.HourlyBreakdown(trades))
}

// WeekdayAnalysisHandler returns the weekday heatmap rows.
func (h *APIHandler) WeekdayAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	trades, err := h.accountTrades(account.ID)
	if err != nil {
		h.log.Error("Failed to get trades for weekday analysis", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to analyze weekdays")
		return
	}

	h.writeJSON(w, http.StatusOK, metrics.WeekdayBreakdown(trades))
}

// TradeBatchHandler ingests a batch of deals pushed by an Expert
// Advisor or the sync tool. Authorization is a per-account API key;
// duplicate tickets are skipped so re-imports stay idempotent.
func (h *APIHandler) TradeBatchHandler(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get(quantaview.APIKeyHeader)
	if !apikey.ValidFormat(key) {
		h.writeError(w, http.StatusUnauthorized, "missing or malformed api key")
		return
	}

	var batch quantaview.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(batch.Trades) == 0 {
		h.writeError(w, http.StatusBadRequest, "at least one trade required")
		return
	}
	if len(batch.Trades) > quantaview.MaxBatchSize {
		h.writeError(w, http.StatusBadRequest, "batch exceeds maximum size")
		return
	}

	if !h.authorizeKey(key, batch.TradingAccountID) {
		h.writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	var account models.TradingAccount
	if err := h.db.First(&account, batch.TradingAccountID).Error; err != nil {
		h.writeError(w, http.StatusNotFound, "account not found")
		return
	}

	processed, skipped := 0, 0
	err := h.db.Transaction(func(tx *gorm.DB) error {
		for _, rec := range batch.Trades {
			if rec.Type != models.TradeTypeBuy && rec.Type != models.TradeTypeSell {
				h.log.Warn("Skipping trade with unknown type",
					zap.Int64("ticket", rec.Ticket), zap.String("type", rec.Type))
				skipped++
				continue
			}

			var count int64
			tx.Model(&models.Trade{}).
				Where("trading_account_id = ? AND ticket = ?", account.ID, rec.Ticket).
				Count(&count)
			if count > 0 {
				skipped++
				continue
			}

			trade := models.Trade{
				TradingAccountID: account.ID,
				Ticket:           rec.Ticket,
				Position:         rec.Position,
				MagicNumber:      rec.MagicNumber,
				Symbol:           rec.Symbol,
				Type:             rec.Type,
				Volume:           rec.Volume,
				OpenPrice:        rec.OpenPrice,
				ClosePrice:       rec.ClosePrice,
				StopLoss:         rec.StopLoss,
				TakeProfit:       rec.TakeProfit,
				Profit:           rec.Profit,
				Commission:       rec.Commission,
				Swap:             rec.Swap,
				OpenTime:         rec.OpenTime,
				CloseTime:        rec.CloseTime,
				Comment:          rec.Comment,
			}
			if err := tx.Create(&trade).Error; err != nil {
				return err
			}
			processed++
		}
		return nil
	})
	if err != nil {
		h.log.Error("Failed to store trade batch", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to process trade batch")
		return
	}

	h.log.Info("Trade batch processed",
		zap.Uint("account_id", account.ID),
		zap.Int("processed", processed),
		zap.Int("skipped", skipped),
	)

	h.writeJSON(w, http.StatusOK, quantaview.BatchResponse{
		Message:   "Trade batch processed successfully",
		Processed: processed,
		Skipped:   skipped,
		Total:     len(batch.Trades),
	})
}

// authorizeKey checks the presented key against the account's active
// keys and stamps the matching one.
func (h *APIHandler) authorizeKey(key string, accountID uint) bool {
	var keys []models.APIKey
	err := h.db.
		Where("trading_account_id = ? AND is_active = ?", accountID, true).
		Find(&keys).Error
	if err != nil {
		h.log.Error("Failed to load api keys", zap.Error(err))
		return false
	}

	for i := range keys {
		if apikey.Verify(key, keys[i].KeyHash) {
			now := time.Now().UTC()
			h.db.Model(&keys[i]).Update("last_used_at", &now)
			return true
		}
	}
	return false
}
