package market

import (
	"fmt"
	"math"
	"sort"

	"github.com/codyseavey/market-pulse/internal/models"
)

const (
	// keywordRiseMargin is how far a keyword's count must exceed its
	// previous count to register as rising.
	keywordRiseMargin = 2
	// risingKeywordLimit caps the reported rising keywords.
	risingKeywordLimit = 5
	// entityMovePct is the average-price swing that classifies an entity
	// as rising or falling.
	entityMovePct = 20.0
	// stableChangePct bounds both headline deltas for a stable market.
	stableChangePct = 5.0
)

// Analyzer derives trend signals between two consecutive snapshots. It
// borrows the snapshots and owns nothing persistent.
type Analyzer struct{}

// NewAnalyzer creates a trend analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Compare produces the trend delta from previous to latest. Both snapshots
// are required, with previous strictly older; a missing side reports
// InsufficientHistory.
func (an *Analyzer) Compare(previous, latest *models.Snapshot) (*models.TrendDelta, error) {
	if previous == nil || latest == nil {
		return nil, NewCondition(CodeInsufficientHistory, "need two snapshots to compare")
	}
	if previous.Date >= latest.Date {
		return nil, fmt.Errorf("snapshots out of order: %s is not older than %s", previous.Date, latest.Date)
	}

	delta := &models.TrendDelta{
		Date:              latest.Date,
		SalesChangePct:    changePct(float64(previous.TotalSales), float64(latest.TotalSales)),
		AvgPriceChangePct: changePct(previous.AvgPrice, latest.AvgPrice),
		RisingKeywords:    risingKeywords(previous.TopKeywords, latest.TopKeywords),
	}
	delta.RisingEntities, delta.FallingEntities = entityMoves(previous.TopCharacters, latest.TopCharacters)
	delta.Stable = math.Abs(delta.SalesChangePct) < stableChangePct &&
		math.Abs(delta.AvgPriceChangePct) < stableChangePct &&
		len(delta.RisingEntities) == 0 &&
		len(delta.FallingEntities) == 0

	return delta, nil
}

// changePct is the percentage change from old to new, rounded to two decimal
// places. Defined as 0 when old is 0: a fresh baseline reads as no change
// rather than infinite growth. Known limitation, kept on purpose.
func changePct(old, new float64) float64 {
	if old == 0 {
		return 0
	}
	return math.Round((new-old)/old*100*100) / 100
}

// risingKeywords returns keywords whose latest count exceeds the previous
// count (absent means 0) by more than the margin, in latest rank order,
// capped at five.
func risingKeywords(previous, latest models.KeywordCounts) []string {
	rising := []string{}
	for _, kc := range latest {
		if kc.Count > previous.Count(kc.Word)+keywordRiseMargin {
			rising = append(rising, kc.Word)
			if len(rising) == risingKeywordLimit {
				break
			}
		}
	}
	return rising
}

// entityMoves classifies each tracked entity by its average-price swing.
// Entities with a zero previous average have no defined rate and are
// skipped. Results are sorted so the delta is deterministic.
func entityMoves(previous, latest models.CharacterStats) (rising, falling []string) {
	rising = []string{}
	falling = []string{}
	for name, stat := range latest {
		prev, ok := previous[name]
		if !ok || prev.Avg == 0 {
			continue
		}
		rate := (stat.Avg - prev.Avg) / prev.Avg * 100
		switch {
		case rate > entityMovePct:
			rising = append(rising, name)
		case rate < -entityMovePct:
			falling = append(falling, name)
		}
	}
	sort.Strings(rising)
	sort.Strings(falling)
	return rising, falling
}
