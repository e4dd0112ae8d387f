// Package report renders snapshots and trend deltas into human-readable
// text. Renderers are strategies: the deterministic template renderer and
// the AI narrative renderer produce interchangeable messages.
package report

import (
	"fmt"
	"strings"

	"github.com/codyseavey/market-pulse/internal/models"
)

// TemplateRenderer produces deterministic plain-text reports.
type TemplateRenderer struct{}

// RenderSnapshot summarizes a freshly stored snapshot.
func (TemplateRenderer) RenderSnapshot(snap *models.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Market snapshot %s (%s)\n", snap.Date, snap.Category)
	fmt.Fprintf(&b, "Sold listings: %d\n", snap.TotalSales)
	fmt.Fprintf(&b, "Avg $%.2f | Median $%.2f | Min $%.2f | Max $%.2f\n",
		snap.AvgPrice, snap.MedianPrice, snap.MinPrice, snap.MaxPrice)

	if len(snap.TopKeywords) > 0 {
		words := make([]string, len(snap.TopKeywords))
		for i, kc := range snap.TopKeywords {
			words[i] = fmt.Sprintf("%s (%d)", kc.Word, kc.Count)
		}
		fmt.Fprintf(&b, "Top keywords: %s\n", strings.Join(words, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderTrend formats the day-over-day market change report.
func (TemplateRenderer) RenderTrend(latest *models.Snapshot, delta *models.TrendDelta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Market change report %s (%s)\n", delta.Date, latest.Category)
	fmt.Fprintf(&b, "Sold listings: %d (%+.2f%%)\n", latest.TotalSales, delta.SalesChangePct)
	fmt.Fprintf(&b, "Avg price: $%.2f (%+.2f%%)\n", latest.AvgPrice, delta.AvgPriceChangePct)

	if len(delta.RisingKeywords) > 0 {
		fmt.Fprintf(&b, "Trending keywords: %s\n", strings.Join(delta.RisingKeywords, ", "))
	}
	if len(delta.RisingEntities) > 0 {
		fmt.Fprintf(&b, "Rising: %s\n", strings.Join(delta.RisingEntities, ", "))
	}
	if len(delta.FallingEntities) > 0 {
		fmt.Fprintf(&b, "Falling: %s\n", strings.Join(delta.FallingEntities, ", "))
	}
	if delta.Stable {
		b.WriteString("Market is stable, no significant movement.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
