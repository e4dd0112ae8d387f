package market

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/codyseavey/market-pulse/internal/models"
)

const (
	// topKeywordLimit caps how many keywords a snapshot retains.
	topKeywordLimit = 15
	// minKeywordLen drops short tokens ("gx", "ex", stray numbers).
	minKeywordLen = 3
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// Aggregator reduces a filtered listing set to a daily snapshot. Given the
// same listing sequence and date it always produces the same snapshot.
type Aggregator struct {
	category  string
	watchlist []string
	stopwords map[string]struct{}
}

// NewAggregator builds an aggregator for one category. Watchlist names are
// tracked individually; stopwords are excluded from keyword counts.
func NewAggregator(category string, watchlist, stopwords []string) *Aggregator {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	names := make([]string, len(watchlist))
	for i, n := range watchlist {
		names[i] = strings.ToLower(n)
	}
	return &Aggregator{
		category:  category,
		watchlist: names,
		stopwords: stops,
	}
}

// Aggregate computes the statistical snapshot for the given calendar date.
// The date comes from the caller, not the wall clock, so runs are
// reproducible. An empty listing set yields an EmptyDataset condition and no
// snapshot.
func (a *Aggregator) Aggregate(listings []models.FilteredListing, date string) (*models.Snapshot, error) {
	if len(listings) == 0 {
		return nil, NewCondition(CodeEmptyDataset, "no listings survived filtering")
	}

	prices := make([]float64, len(listings))
	for i, l := range listings {
		prices[i] = l.Price
	}

	return &models.Snapshot{
		Date:          date,
		Category:      a.category,
		TotalSales:    len(listings),
		AvgPrice:      mean(prices),
		MedianPrice:   median(prices),
		MinPrice:      slices.Min(prices),
		MaxPrice:      slices.Max(prices),
		TopKeywords:   a.topKeywords(listings),
		TopCharacters: a.characterStats(listings),
	}, nil
}

// topKeywords tokenizes titles (alphanumerics only, lower-cased), counts
// tokens longer than two characters that are not stopwords, and keeps the
// top 15 by descending count. Ties resolve to first-encountered order.
func (a *Aggregator) topKeywords(listings []models.FilteredListing) models.KeywordCounts {
	counts := make(map[string]int)
	var order []string

	for _, l := range listings {
		clean := nonAlnum.ReplaceAllString(strings.ToLower(l.Title), "")
		for _, w := range strings.Fields(clean) {
			if len(w) < minKeywordLen {
				continue
			}
			if _, stop := a.stopwords[w]; stop {
				continue
			}
			if _, seen := counts[w]; !seen {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	ranked := make(models.KeywordCounts, 0, len(order))
	for _, w := range order {
		ranked = append(ranked, models.KeywordCount{Word: w, Count: counts[w]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > topKeywordLimit {
		ranked = ranked[:topKeywordLimit]
	}
	return ranked
}

// characterStats collects, for every watchlist name, the count and mean
// price of listings whose title contains the name. Names with no matches
// keep a zero record.
func (a *Aggregator) characterStats(listings []models.FilteredListing) models.CharacterStats {
	stats := make(models.CharacterStats, len(a.watchlist))
	for _, name := range a.watchlist {
		var sum float64
		var count int
		for _, l := range listings {
			if strings.Contains(strings.ToLower(l.Title), name) {
				sum += l.Price
				count++
			}
		}
		if count == 0 {
			stats[name] = models.CharacterStat{}
			continue
		}
		stats[name] = models.CharacterStat{Count: count, Avg: sum / float64(count)}
	}
	return stats
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func median(v []float64) float64 {
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
