package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"quantaview/internal/quantaview"
)

// Uploader splits a deal export into batches and pushes them to the
// dashboard server. Pacing and retries live in the REST client; the
// uploader only decides what goes into each batch.
type Uploader struct {
	log       *zap.Logger
	client    quantaview.RestClientInterface
	accountID uint
	batchSize int
}

// UploadResult totals what the server reported across all batches.
type UploadResult struct {
	Batches   int
	Processed int
	Skipped   int
}

// NewUploader creates an uploader for one account. Batch sizes are
// clamped to the server's limit.
func NewUploader(log *zap.Logger, client quantaview.RestClientInterface, accountID uint, batchSize int) *Uploader {
	if batchSize <= 0 || batchSize > quantaview.MaxBatchSize {
		batchSize = quantaview.MaxBatchSize
	}
	return &Uploader{
		log:       log,
		client:    client,
		accountID: accountID,
		batchSize: batchSize,
	}
}

// Run uploads all records, stopping between batches when the context
// is cancelled. Already-uploaded batches stay uploaded; the server's
// ticket dedupe makes rerunning the remainder safe.
func (u *Uploader) Run(ctx context.Context, trades []quantaview.TradeRecord) (*UploadResult, error) {
	result := &UploadResult{}

	for start := 0; start < len(trades); start += u.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + u.batchSize
		if end > len(trades) {
			end = len(trades)
		}

		batch := quantaview.BatchRequest{
			TradingAccountID: u.accountID,
			Trades:           trades[start:end],
		}

		resp, err := u.client.UploadTradeBatch(ctx, batch)
		if err != nil {
			return result, fmt.Errorf("batch %d failed: %w", result.Batches+1, err)
		}

		result.Batches++
		result.Processed += resp.Processed
		result.Skipped += resp.Skipped

		u.log.Info("Batch uploaded",
			zap.Int("batch", result.Batches),
			zap.Int("size", len(batch.Trades)),
			zap.Int("processed", resp.Processed),
			zap.Int("skipped", resp.Skipped),
		)
	}

	return result, nil
}
