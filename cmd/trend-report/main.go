// Command trend-report executes one report run over stored snapshot
// history. REPORT_STYLE selects the rendering strategy: "template" compares
// the two most recent snapshots deterministically, "ai" feeds the last
// REPORT_LOOKBACK snapshots to the narrative generator. Missing history is
// reported, not fatal.
package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/codyseavey/market-pulse/internal/config"
	"github.com/codyseavey/market-pulse/internal/database"
	"github.com/codyseavey/market-pulse/internal/logging"
	"github.com/codyseavey/market-pulse/internal/market"
	"github.com/codyseavey/market-pulse/internal/metrics"
	"github.com/codyseavey/market-pulse/internal/openai"
	"github.com/codyseavey/market-pulse/internal/pipeline"
	"github.com/codyseavey/market-pulse/internal/report"
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

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open snapshot database")
	}

	p := pipeline.New(pipeline.Deps{
		Analyzer: market.NewAnalyzer(),
		Store:    store.New(db),
		Notifier: slack.NewClient(cfg.Slack.Token),
		Channel:  cfg.Slack.Channel,
	})

	ctx := context.Background()
	start := time.Now()

	var runErr error
	switch cfg.Report.Style {
	case "ai":
		if cfg.OpenAI.APIKey == "" {
			log.Fatal().Msg("OPENAI_API_KEY is required for AI reports")
		}
		ai := report.NewAIRenderer(openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
		runErr = p.AIReportRun(ctx, ai, cfg.Report.Lookback)
	default:
		_, runErr = p.TrendRun(ctx)
	}

	metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err := metrics.Push(cfg.Metrics.PushgatewayURL, "marketpulse-report"); err != nil {
		log.Warn().Err(err).Msg("metrics push failed")
	}

	if runErr != nil {
		if market.CodeOf(runErr) == "" {
			log.Fatal().Err(runErr).Msg("report run failed")
		}
		log.Warn().Err(runErr).Msg("report run ended without a report")
		return
	}
	log.Info().Str("style", cfg.Report.Style).Msg("report delivered")
}
