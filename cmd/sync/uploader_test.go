package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"quantaview/internal/quantaview"
)

// fakeClient records uploaded batches and can fail on demand.
type fakeClient struct {
	batches []quantaview.BatchRequest
	failOn  int // 1-based batch index to fail at, 0 = never
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) UploadTradeBatch(ctx context.Context, batch quantaview.BatchRequest) (*quantaview.BatchResponse, error) {
	if f.failOn > 0 && len(f.batches)+1 == f.failOn {
		return nil, errors.New("server exploded")
	}
	f.batches = append(f.batches, batch)
	return &quantaview.BatchResponse{
		Processed: len(batch.Trades) - 1,
		Skipped:   1,
		Total:     len(batch.Trades),
	}, nil
}

func makeRecords(n int) []quantaview.TradeRecord {
	records := make([]quantaview.TradeRecord, n)
	for i := range records {
		records[i] = quantaview.TradeRecord{
			Ticket: int64(i + 1),
			Symbol: "EURUSD",
			Type:   "buy",
			Volume: 0.1,
		}
	}
	return records
}

func TestUploaderSplitsIntoBatches(t *testing.T) {
	client := &fakeClient{}
	uploader := NewUploader(zap.NewNop(), client, 7, 10)

	result, err := uploader.Run(context.Background(), makeRecords(25))

	assert.NoError(t, err)
	assert.Equal(t, 3, result.Batches)
	assert.Len(t, client.batches, 3)
	assert.Len(t, client.batches[0].Trades, 10)
	assert.Len(t, client.batches[2].Trades, 5)
	assert.Equal(t, uint(7), client.batches[0].TradingAccountID)

	// Server reported one skip per batch.
	assert.Equal(t, 22, result.Processed)
	assert.Equal(t, 3, result.Skipped)
}

func TestUploaderStopsOnError(t *testing.T) {
	client := &fakeClient{failOn: 2}
	uploader := NewUploader(zap.NewNop(), client, 7, 10)

	result, err := uploader.Run(context.Background(), makeRecords(25))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch 2 failed")
	assert.Equal(t, 1, result.Batches)
}

func TestUploaderClampsBatchSize(t *testing.T) {
	uploader := NewUploader(zap.NewNop(), &fakeClient{}, 7, 0)
	assert.Equal(t, quantaview.MaxBatchSize, uploader.batchSize)

	uploader = NewUploader(zap.NewNop(), &fakeClient{}, 7, quantaview.MaxBatchSize+500)
	assert.Equal(t, quantaview.MaxBatchSize, uploader.batchSize)
}

func TestUploaderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{}
	uploader := NewUploader(zap.NewNop(), client, 7, 10)

	result, err := uploader.Run(ctx, makeRecords(25))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Batches)
	assert.Empty(t, client.batches)
}

func TestUploaderEmptyInput(t *testing.T) {
	client := &fakeClient{}
	uploader := NewUploader(zap.NewNop(), client, 7, 10)

	result, err := uploader.Run(context.Background(), nil)

	assert.NoError(t, err)
	assert.Equal(t, 0, result.Batches)
}
