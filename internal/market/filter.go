package market

import (
	"strconv"
	"strings"

	"github.com/codyseavey/market-pulse/internal/models"
)

// Filter removes listings that fail the category, locale, and price rules.
// Rules are fixed at construction; one filter serves one run.
type Filter struct {
	excluded   []string
	localeHint string
	minPrice   float64
	maxPrice   float64
}

// NewFilter builds a filter. Excluded category keywords and the locale hint
// are matched as lower-cased substrings.
func NewFilter(excludedCategories []string, localeHint string, minPrice, maxPrice float64) *Filter {
	excluded := make([]string, len(excludedCategories))
	for i, kw := range excludedCategories {
		excluded[i] = strings.ToLower(kw)
	}
	return &Filter{
		excluded:   excluded,
		localeHint: strings.ToLower(localeHint),
		minPrice:   minPrice,
		maxPrice:   maxPrice,
	}
}

// Apply returns the listings that pass every rule: no excluded keyword in
// the title, the locale hint present in the seller name or title, and a
// parseable price within the inclusive bounds. Listings with malformed
// prices are dropped silently; a bad upstream record must not end the run.
func (f *Filter) Apply(listings []models.RawListing) []models.FilteredListing {
	kept := make([]models.FilteredListing, 0, len(listings))
	for _, l := range listings {
		title := strings.ToLower(l.Title)
		seller := strings.ToLower(l.Seller)

		if f.titleExcluded(title) {
			continue
		}
		if f.localeHint != "" &&
			!strings.Contains(seller, f.localeHint) &&
			!strings.Contains(title, f.localeHint) {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(l.RawPrice), 64)
		if err != nil {
			continue
		}
		if price < f.minPrice || price > f.maxPrice {
			continue
		}
		kept = append(kept, models.FilteredListing{
			Title:  l.Title,
			Seller: l.Seller,
			Price:  price,
		})
	}
	return kept
}

func (f *Filter) titleExcluded(title string) bool {
	for _, kw := range f.excluded {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}
