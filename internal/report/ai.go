package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codyseavey/market-pulse/internal/market"
	"github.com/codyseavey/market-pulse/internal/models"
)

// NarrativeGenerator turns a prompt into free text. Implemented by the
// OpenAI client; treated as opaque.
type NarrativeGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AIRenderer builds analysis prompts from snapshot history and delegates
// the prose to a narrative generator.
type AIRenderer struct {
	gen NarrativeGenerator
}

// NewAIRenderer wraps a narrative generator.
func NewAIRenderer(gen NarrativeGenerator) *AIRenderer {
	return &AIRenderer{gen: gen}
}

// RenderHistory produces a profit-opportunity narrative. Snapshots arrive
// most recent first. With one snapshot the prompt asks for picks from the
// current market; with several it asks for picks grounded in the trend
// across runs.
func (r *AIRenderer) RenderHistory(ctx context.Context, snaps []models.Snapshot) (string, error) {
	if len(snaps) == 0 {
		return "", market.NewCondition(market.CodeInsufficientHistory, "no snapshots to analyze")
	}

	var prompt string
	if len(snaps) == 1 {
		prompt = latestPrompt(&snaps[0])
	} else {
		prompt = trendPrompt(snaps)
	}

	text, err := r.gen.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}
	return "AI profit report\n" + strings.TrimSpace(text), nil
}

func latestPrompt(snap *models.Snapshot) string {
	var b strings.Builder
	b.WriteString("You are a marketplace resale profit analyst. ")
	b.WriteString("Read the latest market data below and pick the 3 items most likely to resell at a high margin.\n\n")
	b.WriteString("Market data:\n")
	writeSnapshotSection(&b, snap)
	b.WriteString("\nFor each pick, answer in this format:\n")
	b.WriteString("1. Item name\n")
	b.WriteString("   - Estimated buy price\n")
	b.WriteString("   - Expected sale price\n")
	b.WriteString("   - Expected margin (%)\n")
	b.WriteString("   - Reasoning from the market data (demand, keywords, price spread)\n")
	return b.String()
}

func trendPrompt(snaps []models.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a marketplace resale profit analyst. Below are the last %d market research runs, most recent first.\n", len(snaps))
	b.WriteString("Use the price trend, demand trend (sales counts), keyword trend, and per-entity price movement to pick the 3 items most likely to resell at a high margin.\n\n")
	for i := range snaps {
		fmt.Fprintf(&b, "Run %d:\n", i+1)
		writeSnapshotSection(&b, &snaps[i])
		b.WriteByte('\n')
	}
	b.WriteString("For each pick, answer in this format:\n")
	b.WriteString("1. Item name\n")
	b.WriteString("   - Trend across runs (price and sales)\n")
	b.WriteString("   - Estimated buy price\n")
	b.WriteString("   - Expected sale price\n")
	b.WriteString("   - Expected margin (%)\n")
	b.WriteString("   - Reasoning from the market changes\n")
	return b.String()
}

func writeSnapshotSection(b *strings.Builder, snap *models.Snapshot) {
	fmt.Fprintf(b, "- Date: %s\n", snap.Date)
	fmt.Fprintf(b, "- Sold listings: %d\n", snap.TotalSales)
	fmt.Fprintf(b, "- Avg price: %.2f\n", snap.AvgPrice)
	fmt.Fprintf(b, "- Median price: %.2f\n", snap.MedianPrice)
	fmt.Fprintf(b, "- Min price: %.2f\n", snap.MinPrice)
	fmt.Fprintf(b, "- Max price: %.2f\n", snap.MaxPrice)
	fmt.Fprintf(b, "- Top keywords: %s\n", compactJSON(snap.TopKeywords))
	fmt.Fprintf(b, "- Entity price stats: %s\n", compactJSON(snap.TopCharacters))
}

// compactJSON keeps prompt sections to one line per field.
func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
