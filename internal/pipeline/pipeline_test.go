package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/market-pulse/internal/market"
	"github.com/codyseavey/market-pulse/internal/models"
	"github.com/codyseavey/market-pulse/internal/report"
)

type fakeSource struct {
	listings []models.RawListing
	err      error
}

func (f *fakeSource) Fetch(context.Context) ([]models.RawListing, error) {
	return f.listings, f.err
}

type fakeStore struct {
	saved   []*models.Snapshot
	saveErr error
	history []models.Snapshot
	loadErr error
}

func (f *fakeStore) Save(snap *models.Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, snap)
	return nil
}

func (f *fakeStore) LoadRecent(n int) ([]models.Snapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if n > len(f.history) {
		n = len(f.history)
	}
	return f.history[:n], nil
}

func (f *fakeStore) LoadPair() (*models.Snapshot, *models.Snapshot, error) {
	if f.loadErr != nil {
		return nil, nil, f.loadErr
	}
	if len(f.history) < 2 {
		return nil, nil, market.NewCondition(market.CodeInsufficientHistory, "short history")
	}
	return &f.history[1], &f.history[0], nil
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) PostMessage(_ context.Context, _, text string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, text)
	return nil
}

func rawListings() []models.RawListing {
	return []models.RawListing{
		{Title: "Charizard holo japan", Seller: "s1", RawPrice: "100"},
		{Title: "Pikachu promo", Seller: "japan_s2", RawPrice: "20"},
		{Title: "Yugioh Blue Eyes japan", Seller: "s3", RawPrice: "50"},
		{Title: "Eevee japan", Seller: "s4", RawPrice: "not-a-price"},
	}
}

func newSnapshotDeps(src ListingSource, st SnapshotStore, n Notifier) Deps {
	return Deps{
		Source:     src,
		Filter:     market.NewFilter([]string{"yugioh"}, "japan", 1, 20000),
		Aggregator: market.NewAggregator("pokemon cards", []string{"charizard"}, []string{"japan"}),
		Analyzer:   market.NewAnalyzer(),
		Store:      st,
		Notifier:   n,
		Channel:    "#profit-finder",
	}
}

func TestSnapshotRun(t *testing.T) {
	st := &fakeStore{}
	notifier := &fakeNotifier{}
	p := New(newSnapshotDeps(&fakeSource{listings: rawListings()}, st, notifier))

	snap, err := p.SnapshotRun(context.Background(), "2026-08-30")
	require.NoError(t, err)

	require.Len(t, st.saved, 1)
	assert.Equal(t, "2026-08-30", snap.Date)
	assert.Equal(t, 2, snap.TotalSales, "excluded and malformed listings are dropped")
	assert.Equal(t, 60.0, snap.AvgPrice)

	require.Len(t, notifier.messages, 2)
	assert.Contains(t, notifier.messages[0], "run started")
	assert.Contains(t, notifier.messages[1], "Market snapshot 2026-08-30")
}

func TestSnapshotRunKeepsPartialFetch(t *testing.T) {
	src := &fakeSource{
		listings: rawListings(),
		err:      market.NewCondition(market.CodeUpstreamUnavailable, "page 3 fetch failed"),
	}
	st := &fakeStore{}
	p := New(newSnapshotDeps(src, st, &fakeNotifier{}))

	snap, err := p.SnapshotRun(context.Background(), "2026-08-30")
	require.NoError(t, err)

	require.Len(t, st.saved, 1)
	assert.Equal(t, 2, snap.TotalSales, "partial fetch still produces a snapshot")
}

func TestSnapshotRunAbortsOnHardFetchFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("context canceled")}
	st := &fakeStore{}
	p := New(newSnapshotDeps(src, st, &fakeNotifier{}))

	_, err := p.SnapshotRun(context.Background(), "2026-08-30")
	require.Error(t, err)
	assert.Empty(t, st.saved)
}

func TestSnapshotRunEmptyDataset(t *testing.T) {
	src := &fakeSource{listings: []models.RawListing{
		{Title: "Yugioh only japan", Seller: "s", RawPrice: "10"},
	}}
	st := &fakeStore{}
	notifier := &fakeNotifier{}
	p := New(newSnapshotDeps(src, st, notifier))

	_, err := p.SnapshotRun(context.Background(), "2026-08-30")
	require.Error(t, err)
	assert.True(t, market.IsCondition(err, market.CodeEmptyDataset))
	assert.Empty(t, st.saved)
	require.Len(t, notifier.messages, 2)
	assert.Contains(t, notifier.messages[1], "No valid sold listings")
}

func TestSnapshotRunDuplicateDate(t *testing.T) {
	st := &fakeStore{saveErr: market.NewCondition(market.CodeDuplicateDate, "already stored")}
	notifier := &fakeNotifier{}
	p := New(newSnapshotDeps(&fakeSource{listings: rawListings()}, st, notifier))

	_, err := p.SnapshotRun(context.Background(), "2026-08-30")
	require.Error(t, err)
	assert.True(t, market.IsCondition(err, market.CodeDuplicateDate))
	require.Len(t, notifier.messages, 2)
	assert.Contains(t, notifier.messages[1], "already exists")
}

func TestSnapshotRunSurvivesDeliveryFailure(t *testing.T) {
	st := &fakeStore{}
	p := New(newSnapshotDeps(&fakeSource{listings: rawListings()}, st, &fakeNotifier{err: errors.New("slack down")}))

	snap, err := p.SnapshotRun(context.Background(), "2026-08-30")
	require.NoError(t, err, "a failed notification never fails the run")
	assert.NotNil(t, snap)
	assert.Len(t, st.saved, 1)
}

func TestSnapshotRunWithoutNotifier(t *testing.T) {
	st := &fakeStore{}
	deps := newSnapshotDeps(&fakeSource{listings: rawListings()}, st, nil)
	p := New(deps)

	_, err := p.SnapshotRun(context.Background(), "2026-08-30")
	require.NoError(t, err)
	assert.Len(t, st.saved, 1)
}

func trendHistory() []models.Snapshot {
	return []models.Snapshot{
		{Date: "2026-08-30", Category: "pokemon cards", TotalSales: 150, AvgPrice: 30},
		{Date: "2026-08-29", Category: "pokemon cards", TotalSales: 100, AvgPrice: 20},
	}
}

func TestTrendRun(t *testing.T) {
	st := &fakeStore{history: trendHistory()}
	notifier := &fakeNotifier{}
	p := New(newSnapshotDeps(nil, st, notifier))

	delta, err := p.TrendRun(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 50.0, delta.SalesChangePct)
	assert.Equal(t, 50.0, delta.AvgPriceChangePct)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Market change report 2026-08-30")
	assert.Contains(t, notifier.messages[0], "+50.00%")
}

func TestTrendRunShortHistory(t *testing.T) {
	st := &fakeStore{history: trendHistory()[:1]}
	notifier := &fakeNotifier{}
	p := New(newSnapshotDeps(nil, st, notifier))

	_, err := p.TrendRun(context.Background())
	require.Error(t, err)
	assert.True(t, market.IsCondition(err, market.CodeInsufficientHistory))
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Not enough snapshot history")
}

type fakeAI struct {
	reply string
	err   error
}

func (f *fakeAI) Complete(context.Context, string) (string, error) {
	return f.reply, f.err
}

func TestAIReportRun(t *testing.T) {
	st := &fakeStore{history: trendHistory()}
	notifier := &fakeNotifier{}
	p := New(newSnapshotDeps(nil, st, notifier))

	ai := report.NewAIRenderer(&fakeAI{reply: "Buy Charizard."})
	err := p.AIReportRun(context.Background(), ai, 4)
	require.NoError(t, err)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "AI profit report")
	assert.Contains(t, notifier.messages[0], "Buy Charizard.")
}

func TestAIReportRunShortHistory(t *testing.T) {
	st := &fakeStore{history: trendHistory()[:1]}
	notifier := &fakeNotifier{}
	p := New(newSnapshotDeps(nil, st, notifier))

	ai := report.NewAIRenderer(&fakeAI{reply: "unused"})
	err := p.AIReportRun(context.Background(), ai, 4)
	require.Error(t, err)
	assert.True(t, market.IsCondition(err, market.CodeInsufficientHistory))
}

func TestAIReportRunLookbackOneNeedsOneSnapshot(t *testing.T) {
	st := &fakeStore{history: trendHistory()[:1]}
	notifier := &fakeNotifier{}
	p := New(newSnapshotDeps(nil, st, notifier))

	ai := report.NewAIRenderer(&fakeAI{reply: "Latest market looks hot."})
	err := p.AIReportRun(context.Background(), ai, 1)
	require.NoError(t, err)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Latest market looks hot.")
}

func TestAIReportRunGeneratorFailure(t *testing.T) {
	st := &fakeStore{history: trendHistory()}
	notifier := &fakeNotifier{}
	p := New(newSnapshotDeps(nil, st, notifier))

	ai := report.NewAIRenderer(&fakeAI{err: errors.New("model overloaded")})
	err := p.AIReportRun(context.Background(), ai, 4)
	require.Error(t, err)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "could not be generated")
}
