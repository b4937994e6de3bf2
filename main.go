package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phone-tracker/api"
	"phone-tracker/config"
	"phone-tracker/models"
	"phone-tracker/scraper/kijiji"
	"phone-tracker/services"
	"phone-tracker/storage"
	"phone-tracker/utils"
)

const usage = `usage: phone-tracker <command> [flags]

commands:
  gather             fetch today's result pages into the data lake
  process [-days N]  turn stored pages into listings for today and N previous days
  report             print price trends and the best current listings
  serve              run the dashboard API
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger := utils.NewLogger()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "gather":
		err = runGather(ctx, cfg, logger)
	case "process":
		err = runProcess(ctx, cfg, logger, os.Args[2:])
	case "report":
		err = runReport(ctx, cfg, logger)
	case "serve":
		err = runServe(cfg, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("%s failed: %v", os.Args[1], err)
		os.Exit(1)
	}
}

func runGather(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== Gathering %d keywords (fetch mode: %s) ===", len(cfg.Keywords), cfg.FetchMode)

	fetcher, err := kijiji.NewFetcher(cfg)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	scraper := kijiji.New(cfg, logger, fetcher, storage.NewDataLake(cfg.DataLakeDir))
	return scraper.GatherAll(ctx, cfg.Keywords, time.Now())
}

func runProcess(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	days := fs.Int("days", 0, "also process this many previous days")
	noDB := fs.Bool("no-db", false, "write CSV files only")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var writer storage.ListingWriter
	if !*noDB {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), logger)
		if err != nil {
			logger.Warn("PostgreSQL unavailable, writing CSV only: %v", err)
		} else {
			defer pgWriter.Close()
			writer = pgWriter
		}
	}

	assembler := services.NewAssembler(logger, cfg.MaxConcurrency, cfg.UnknownBatteryHealth)
	if cfg.SentimentLexicon != "" {
		analyzer, err := services.LoadAnalyzer(cfg.SentimentLexicon)
		if err != nil {
			return err
		}
		logger.Info("Loaded %d sentiment words from %s", analyzer.Size(), cfg.SentimentLexicon)
		assembler.Analyzer = analyzer
	}
	processor := services.NewProcessor(logger, storage.NewDataLake(cfg.DataLakeDir), assembler,
		cfg.ProcessedDir, writer)

	total, err := processor.ProcessDays(ctx, cfg.Keywords, time.Now(), *days)
	logger.Info("Processed %d listings", total)
	return err
}

func runReport(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	reader, closeFn := openReader(cfg, logger)
	defer closeFn()

	listings, err := reader.FetchAll(ctx)
	if err != nil {
		return err
	}

	insights := services.NewInsightService(logger, cfg.RetailPrices)
	report := insights.Generate(listings, defaultWeights(cfg), time.Now(), cfg.WindowDays)
	insights.Print(report)
	return nil
}

func runServe(cfg *config.Config, logger *utils.Logger) error {
	reader, closeFn := openReader(cfg, logger)
	defer closeFn()

	insights := services.NewInsightService(logger, cfg.RetailPrices)
	server := api.NewServer(reader, insights, logger, defaultWeights(cfg), cfg.WindowDays)
	return server.Run(cfg.ListenAddr)
}

// openReader prefers PostgreSQL and falls back to the processed CSV files.
func openReader(cfg *config.Config, logger *utils.Logger) (storage.ListingReader, func()) {
	pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), logger)
	if err != nil {
		logger.Warn("PostgreSQL unavailable, reading %s instead: %v", cfg.ProcessedDir, err)
		return storage.NewCSVStore(cfg.ProcessedDir), func() {}
	}
	return pgWriter, func() { _ = pgWriter.Close() }
}

func defaultWeights(cfg *config.Config) models.Weights {
	return models.Weights{
		Price:     cfg.PriceWeight,
		Battery:   cfg.BatteryWeight,
		Storage:   cfg.StorageWeight,
		Sentiment: cfg.SentimentWeight,
	}
}
