// Command snapshot executes one ingestion run: fetch sold listings, filter,
// aggregate into a daily snapshot, persist it, and deliver a summary.
// Behavior is controlled entirely through the environment; expected
// conditions (empty dataset, duplicate date, partial upstream data) are
// reported and exit 0.
package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/codyseavey/market-pulse/internal/config"
	"github.com/codyseavey/market-pulse/internal/database"
	"github.com/codyseavey/market-pulse/internal/ebay"
	"github.com/codyseavey/market-pulse/internal/logging"
	"github.com/codyseavey/market-pulse/internal/market"
	"github.com/codyseavey/market-pulse/internal/metrics"
	"github.com/codyseavey/market-pulse/internal/pipeline"
	"github.com/codyseavey/market-pulse/internal/slack"
	"github.com/codyseavey/market-pulse/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	runID := uuid.New().String()
	logging.Setup(cfg.App, runID)

	if cfg.Ebay.AccessToken == "" {
		log.Fatal().Msg("EBAY_ACCESS_TOKEN is required for ingestion runs")
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open snapshot database")
	}

	client := ebay.NewClient(cfg.Ebay.AccessToken, cfg.Ebay.MarketplaceID, cfg.Search.PageInterval)
	source := ebay.NewSource(client, ebay.SearchParams{
		CategoryID: cfg.Search.CategoryID,
		Filter: ebay.BuildSoldFilter(cfg.Search.LocaleCountry, cfg.Search.LookbackDays,
			cfg.Search.MinPrice, cfg.Search.MaxPrice, time.Now()),
		PageSize: cfg.Search.PageSize,
		MaxPages: cfg.Search.MaxPages,
	})

	p := pipeline.New(pipeline.Deps{
		Source: source,
		Filter: market.NewFilter(cfg.Analysis.ExcludedCategories, cfg.Analysis.LocaleHint,
			cfg.Search.MinPrice, cfg.Search.MaxPrice),
		Aggregator: market.NewAggregator(cfg.Analysis.CategoryLabel,
			cfg.Analysis.Watchlist, cfg.Analysis.Stopwords),
		Store:    store.New(db),
		Notifier: slack.NewClient(cfg.Slack.Token),
		Channel:  cfg.Slack.Channel,
	})

	ctx := context.Background()
	start := time.Now()
	date := time.Now().Format("2006-01-02")

	snap, runErr := p.SnapshotRun(ctx, date)

	metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err := metrics.Push(cfg.Metrics.PushgatewayURL, "marketpulse-snapshot"); err != nil {
		log.Warn().Err(err).Msg("metrics push failed")
	}

	if runErr != nil {
		if market.CodeOf(runErr) == "" {
			log.Fatal().Err(runErr).Msg("snapshot run failed")
		}
		log.Warn().Err(runErr).Msg("snapshot run ended without a stored snapshot")
		return
	}
	log.Info().Str("date", snap.Date).Int("total_sales", snap.TotalSales).
		Float64("avg_price", snap.AvgPrice).Msg("snapshot stored")
}
