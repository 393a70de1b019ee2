package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"quantaview/internal/config"
	"quantaview/internal/logger"
	"quantaview/internal/quantaview"
)

func main() {
	filePath := flag.String("file", "", "path to a JSON array of exported deal records")
	flag.Parse()

	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *filePath == "" {
		log.Fatal("No input file given, use -file")
	}
	if cfg.Sync.AccountID == 0 {
		log.Fatal("sync.account_id must be configured")
	}

	trades, err := readDeals(*filePath)
	if err != nil {
		log.Fatal("Failed to read deal export", zap.Error(err))
	}
	log.Info("Deal export loaded", zap.String("file", *filePath), zap.Int("trades", len(trades)))

	// Setup context for cancellation between batches
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, stopping upload...")
		cancel()
	}()

	client := quantaview.NewRestClient(&cfg.Sync, log)
	if err := client.Ping(ctx); err != nil {
		log.Fatal("Server is not reachable", zap.Error(err))
	}

	uploader := NewUploader(log, client, cfg.Sync.AccountID, cfg.Sync.BatchSize)
	result, err := uploader.Run(ctx, trades)
	if err != nil {
		log.Fatal("Upload failed", zap.Error(err))
	}

	log.Info("Upload complete",
		zap.Int("batches", result.Batches),
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
	)
}

// readDeals parses the exported deal history. The export is already
// structured JSON; spreadsheet formats are handled upstream.
func readDeals(path string) ([]quantaview.TradeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	var trades []quantaview.TradeRecord
	if err := json.Unmarshal(data, &trades); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return trades, nil
}
