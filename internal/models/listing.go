package models

// RawListing is one sold-item record from the marketplace search API.
// Listings are transient: fetched per run, never persisted individually.
type RawListing struct {
	Title    string `json:"title"`
	Seller   string `json:"seller_username"`
	RawPrice string `json:"price"` // decimal string as returned by the API
	Currency string `json:"currency"`
}

// FilteredListing is a RawListing that passed the category, locale, and
// price rules, with its price parsed. Used only within one run.
type FilteredListing struct {
	Title  string
	Seller string
	Price  float64
}
