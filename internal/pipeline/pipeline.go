// Package pipeline orchestrates one batch run: either an ingestion run that
// produces a snapshot, or a report run that compares stored snapshots. Each
// run is a pure function from (current external data, stored history) to a
// new snapshot or a trend delta; nothing survives the invocation except the
// snapshot history.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/codyseavey/market-pulse/internal/market"
	"github.com/codyseavey/market-pulse/internal/metrics"
	"github.com/codyseavey/market-pulse/internal/models"
	"github.com/codyseavey/market-pulse/internal/report"
)

// ListingSource fetches this run's raw listings. The concrete source
// carries its own query configuration.
type ListingSource interface {
	Fetch(ctx context.Context) ([]models.RawListing, error)
}

// SnapshotStore persists and reads back snapshot history.
type SnapshotStore interface {
	Save(snap *models.Snapshot) error
	LoadRecent(n int) ([]models.Snapshot, error)
	LoadPair() (previous, latest *models.Snapshot, err error)
}

// Notifier delivers a rendered report to a channel.
type Notifier interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// Deps are the collaborators for one run. Source is only needed for
// ingestion runs, Notifier is optional everywhere.
type Deps struct {
	Source     ListingSource
	Filter     *market.Filter
	Aggregator *market.Aggregator
	Analyzer   *market.Analyzer
	Store      SnapshotStore
	Notifier   Notifier
	Channel    string
}

// Pipeline wires one run's collaborators together.
type Pipeline struct {
	deps     Deps
	renderer report.TemplateRenderer
}

// New builds a pipeline from its collaborators.
func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// SnapshotRun executes one ingestion run for the given calendar date:
// fetch, filter, aggregate, persist, report. Expected conditions are
// reported through the notifier and returned to the caller; only errors
// without a condition code are unexpected.
func (p *Pipeline) SnapshotRun(ctx context.Context, date string) (*models.Snapshot, error) {
	p.notify(ctx, fmt.Sprintf("Market research run started (%s)", date))

	raw, err := p.deps.Source.Fetch(ctx)
	if err != nil {
		if !market.IsCondition(err, market.CodeUpstreamUnavailable) {
			return nil, err
		}
		// Soft failure: keep whatever pages made it through.
		log.Warn().Err(err).Int("collected", len(raw)).Msg("continuing with partial listing data")
	}
	metrics.ListingsFetchedTotal.Add(float64(len(raw)))

	filtered := p.deps.Filter.Apply(raw)
	metrics.ListingsKeptTotal.Add(float64(len(filtered)))
	log.Info().Int("fetched", len(raw)).Int("kept", len(filtered)).Msg("filtered listings")

	snap, err := p.deps.Aggregator.Aggregate(filtered, date)
	if err != nil {
		p.notify(ctx, conditionMessage(err))
		return nil, err
	}

	if err := p.deps.Store.Save(snap); err != nil {
		if market.IsCondition(err, market.CodeDuplicateDate) {
			metrics.SnapshotSavesTotal.WithLabelValues("duplicate").Inc()
		} else {
			metrics.SnapshotSavesTotal.WithLabelValues("error").Inc()
		}
		log.Error().Err(err).Str("date", date).Msg("snapshot save failed")
		p.notify(ctx, conditionMessage(err))
		return nil, err
	}
	metrics.SnapshotSavesTotal.WithLabelValues("ok").Inc()
	metrics.SnapshotListings.Set(float64(snap.TotalSales))
	metrics.SnapshotAvgPrice.Set(snap.AvgPrice)

	p.notify(ctx, p.renderer.RenderSnapshot(snap))
	return snap, nil
}

// TrendRun compares the two most recent snapshots and delivers the
// rendered delta.
func (p *Pipeline) TrendRun(ctx context.Context) (*models.TrendDelta, error) {
	previous, latest, err := p.deps.Store.LoadPair()
	if err != nil {
		p.notify(ctx, conditionMessage(err))
		return nil, err
	}

	delta, err := p.deps.Analyzer.Compare(previous, latest)
	if err != nil {
		p.notify(ctx, conditionMessage(err))
		return nil, err
	}

	log.Info().Str("date", delta.Date).
		Float64("sales_change_pct", delta.SalesChangePct).
		Float64("avg_price_change_pct", delta.AvgPriceChangePct).
		Bool("stable", delta.Stable).
		Msg("trend computed")

	p.notify(ctx, p.renderer.RenderTrend(latest, delta))
	return delta, nil
}

// AIReportRun loads up to lookback snapshots and delivers an AI-written
// profit narrative. With lookback 1 the narrative covers the latest
// snapshot only; larger lookbacks need at least two snapshots of history.
func (p *Pipeline) AIReportRun(ctx context.Context, ai *report.AIRenderer, lookback int) error {
	snaps, err := p.deps.Store.LoadRecent(lookback)
	if err != nil {
		p.notify(ctx, conditionMessage(err))
		return err
	}
	if len(snaps) == 0 || (lookback > 1 && len(snaps) < 2) {
		cond := market.NewCondition(market.CodeInsufficientHistory,
			fmt.Sprintf("have %d snapshots, need %d", len(snaps), min(lookback, 2)))
		p.notify(ctx, conditionMessage(cond))
		return cond
	}

	text, err := ai.RenderHistory(ctx, snaps)
	if err != nil {
		log.Error().Err(err).Msg("AI report generation failed")
		p.notify(ctx, "AI profit report could not be generated; check the narrative generator.")
		return err
	}

	p.notify(ctx, text)
	return nil
}

// notify delivers text and downgrades delivery failures to a logged
// condition; a failed notification never fails the run.
func (p *Pipeline) notify(ctx context.Context, text string) {
	if p.deps.Notifier == nil || text == "" {
		return
	}
	if err := p.deps.Notifier.PostMessage(ctx, p.deps.Channel, text); err != nil {
		metrics.ReportsSentTotal.WithLabelValues("failed").Inc()
		log.Warn().Err(err).Str("channel", p.deps.Channel).Msg("report delivery failed")
		return
	}
	metrics.ReportsSentTotal.WithLabelValues("ok").Inc()
}

// conditionMessage picks the operator-facing message for an expected
// condition; anything else gets a generic failure line.
func conditionMessage(err error) string {
	switch market.CodeOf(err) {
	case market.CodeEmptyDataset:
		return "No valid sold listings survived filtering today; no snapshot was stored."
	case market.CodeInsufficientHistory:
		return "Not enough snapshot history for a comparison; need at least two days of data."
	case market.CodeDuplicateDate:
		return "A snapshot for today already exists; keeping the stored one."
	case market.CodePersistenceFailure:
		return "Could not access the snapshot store; the next scheduled run will retry."
	case market.CodeUpstreamUnavailable:
		return "Listing API was unavailable; continuing with partial data."
	default:
		return "Market research run failed unexpectedly; check the logs."
	}
}
