package market

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/market-pulse/internal/models"
)

func newTestFilter() *Filter {
	return NewFilter([]string{"yugioh", "one piece"}, "japan", 1, 20000)
}

func TestFilterKeepsMatchingListing(t *testing.T) {
	f := newTestFilter()

	kept := f.Apply([]models.RawListing{
		{Title: "Charizard Holo", Seller: "japan_cards_store", RawPrice: "120.50"},
	})

	require.Len(t, kept, 1)
	assert.Equal(t, "Charizard Holo", kept[0].Title)
	assert.Equal(t, 120.50, kept[0].Price)
}

func TestFilterDropsExcludedCategoryKeyword(t *testing.T) {
	f := newTestFilter()

	kept := f.Apply([]models.RawListing{
		{Title: "Yugioh Blue Eyes from Japan", Seller: "seller1", RawPrice: "50"},
		{Title: "ONE PIECE Luffy japan exclusive", Seller: "seller2", RawPrice: "30"},
	})

	assert.Empty(t, kept)
}

func TestFilterLocaleHintMatchesSellerOrTitle(t *testing.T) {
	f := newTestFilter()

	kept := f.Apply([]models.RawListing{
		{Title: "Pikachu promo", Seller: "tokyo_JAPAN_shop", RawPrice: "15"},
		{Title: "Eevee from Japan", Seller: "us_seller", RawPrice: "25"},
		{Title: "Mewtwo promo", Seller: "us_seller", RawPrice: "40"},
	})

	require.Len(t, kept, 2)
	assert.Equal(t, "Pikachu promo", kept[0].Title)
	assert.Equal(t, "Eevee from Japan", kept[1].Title)
}

func TestFilterPriceBoundsAreInclusive(t *testing.T) {
	f := newTestFilter()

	kept := f.Apply([]models.RawListing{
		{Title: "a japan", Seller: "s", RawPrice: "0.99"},
		{Title: "b japan", Seller: "s", RawPrice: "1"},
		{Title: "c japan", Seller: "s", RawPrice: "20000"},
		{Title: "d japan", Seller: "s", RawPrice: "20000.01"},
	})

	require.Len(t, kept, 2)
	assert.Equal(t, 1.0, kept[0].Price)
	assert.Equal(t, 20000.0, kept[1].Price)
}

func TestFilterSkipsMalformedPrice(t *testing.T) {
	f := newTestFilter()

	kept := f.Apply([]models.RawListing{
		{Title: "bad price japan", Seller: "s", RawPrice: "12,50"},
		{Title: "empty price japan", Seller: "s", RawPrice: ""},
		{Title: "padded price japan", Seller: "s", RawPrice: " 42.00 "},
	})

	require.Len(t, kept, 1)
	assert.Equal(t, 42.0, kept[0].Price)
}

func TestFilterEmptyInput(t *testing.T) {
	f := newTestFilter()

	assert.Empty(t, f.Apply(nil))
	assert.Empty(t, f.Apply([]models.RawListing{}))
}

func TestFilterIsIdempotent(t *testing.T) {
	f := newTestFilter()

	raw := []models.RawListing{
		{Title: "Charizard japan", Seller: "s1", RawPrice: "100"},
		{Title: "Yugioh japan", Seller: "s2", RawPrice: "50"},
		{Title: "Snorlax", Seller: "japan_s3", RawPrice: "75.25"},
	}
	once := f.Apply(raw)

	rewrapped := make([]models.RawListing, len(once))
	for i, l := range once {
		rewrapped[i] = models.RawListing{
			Title:    l.Title,
			Seller:   l.Seller,
			RawPrice: strconv.FormatFloat(l.Price, 'f', -1, 64),
		}
	}
	twice := f.Apply(rewrapped)

	assert.Equal(t, once, twice)
}
