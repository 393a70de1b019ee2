package quantaview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a RestClient configured to use it.
func setupTestServer(handler http.Handler) (*RestClient, *httptest.Server) {
	server := httptest.NewServer(handler)

	rc := &RestClient{
		client:  resty.New().SetBaseURL(server.URL),
		apiKey:  "qv_testkey_testkey_testkey_testkey1",
		logger:  zap.NewNop(), // Use a no-op logger for tests
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
	}

	return rc, server
}

func TestPing(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/status", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		assert.NoError(t, rc.Ping(context.Background()))
	})

	t.Run("ServerDown", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err := rc.Ping(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to reach server")
	})
}

func TestUploadTradeBatch(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ct := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
		batch := BatchRequest{
			TradingAccountID: 7,
			Trades: []TradeRecord{
				{
					Ticket:    1001,
					Symbol:    "EURUSD",
					Type:      "buy",
					Volume:    0.10,
					OpenPrice: 1.1000,
					Profit:    42.5,
					OpenTime:  ct.Add(-time.Hour),
					CloseTime: &ct,
				},
			},
		}

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/trades/batch", r.URL.Path)
			assert.Equal(t, "qv_testkey_testkey_testkey_testkey1", r.Header.Get(APIKeyHeader))

			var got BatchRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, uint(7), got.TradingAccountID)
			assert.Len(t, got.Trades, 1)
			assert.Equal(t, int64(1001), got.Trades[0].Ticket)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message":"ok","processed":1,"skipped":0,"total":1}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		resp, err := rc.UploadTradeBatch(context.Background(), batch)

		assert.NoError(t, err)
		assert.Equal(t, 1, resp.Processed)
		assert.Equal(t, 0, resp.Skipped)
		assert.Equal(t, 1, resp.Total)
	})

	t.Run("RejectsOversizeBatch", func(t *testing.T) {
		rc, server := setupTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Fail(t, "oversize batch must not reach the server")
		}))
		defer server.Close()

		batch := BatchRequest{Trades: make([]TradeRecord, MaxBatchSize+1)}
		_, err := rc.UploadTradeBatch(context.Background(), batch)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds")
	})

	t.Run("DoesNotRetryClientError", func(t *testing.T) {
		calls := 0
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
		})

		rc, server := setupTestServer(handler)
		defer server.Close()

		_, err := rc.UploadTradeBatch(context.Background(), BatchRequest{})

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
