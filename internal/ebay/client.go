// Package ebay implements the listing source against the eBay Browse API.
package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/codyseavey/market-pulse/internal/market"
	"github.com/codyseavey/market-pulse/internal/metrics"
	"github.com/codyseavey/market-pulse/internal/models"
)

const (
	defaultBaseURL = "https://api.ebay.com/buy/browse/v1"
	searchPath     = "/item_summary/search"
	requestTimeout = 30 * time.Second

	// seenCacheSize bounds the per-run item dedupe cache. The upstream can
	// re-serve an item on a later offset while listings shift under the
	// pagination window.
	seenCacheSize = 4096
)

// SearchParams describe one paginated sold-listing search.
type SearchParams struct {
	CategoryID string
	Filter     string
	PageSize   int
	MaxPages   int
}

// Client calls the eBay Browse API with fixed-interval pacing between
// pages.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	marketplace string
	pacer       *rate.Limiter
	seen        *lru.Cache[string, struct{}]
}

// NewClient creates a Browse API client. pageInterval is the pause between
// successive page requests.
func NewClient(accessToken, marketplaceID string, pageInterval time.Duration) *Client {
	seen, _ := lru.New[string, struct{}](seenCacheSize) // only errors for size <= 0
	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		baseURL:     defaultBaseURL,
		accessToken: accessToken,
		marketplace: marketplaceID,
		pacer:       rate.NewLimiter(rate.Every(pageInterval), 1),
		seen:        seen,
	}
}

// BuildSoldFilter encodes the Browse API filter expression: item location
// country, sold-date window ending at now (UTC), inclusive price range, and
// fixed-price listings only.
func BuildSoldFilter(country string, lookbackDays int, minPrice, maxPrice float64, now time.Time) string {
	end := now.UTC()
	start := end.AddDate(0, 0, -lookbackDays)
	const stamp = "2006-01-02T15:04:05Z"
	return fmt.Sprintf("itemLocationCountry:%s,soldDate:[%s..%s],price:[%s..%s],buyingOptions:FIXED_PRICE",
		country,
		start.Format(stamp), end.Format(stamp),
		strconv.FormatFloat(minPrice, 'f', -1, 64),
		strconv.FormatFloat(maxPrice, 'f', -1, 64),
	)
}

type searchResponse struct {
	ItemSummaries []itemSummary `json:"itemSummaries"`
	Total         int           `json:"total"`
}

type itemSummary struct {
	ItemID string `json:"itemId"`
	Title  string `json:"title"`
	Price  struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"price"`
	Seller struct {
		Username string `json:"username"`
	} `json:"seller"`
}

// FetchAll pulls sold listings page by page, increasing the offset in
// PageSize steps. Pagination stops on an empty page, a short page, or
// MaxPages. A failed page ends the run early and returns everything
// accumulated so far with an UpstreamUnavailable condition: a partial
// harvest beats losing the whole run over one transient page failure.
func (c *Client) FetchAll(ctx context.Context, params SearchParams) ([]models.RawListing, error) {
	var all []models.RawListing
	offset := 0

	for page := 0; page < params.MaxPages; page++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return all, err
		}

		items, err := c.searchPage(ctx, params, offset)
		if err != nil {
			metrics.PageFailuresTotal.Inc()
			log.Warn().Err(err).Int("page", page+1).Int("collected", len(all)).
				Msg("page fetch failed, keeping partial result")
			return all, market.WrapCondition(market.CodeUpstreamUnavailable, err,
				fmt.Sprintf("page %d fetch failed", page+1))
		}
		if len(items) == 0 {
			break
		}

		for _, it := range items {
			if it.ItemID != "" {
				if dup, _ := c.seen.ContainsOrAdd(it.ItemID, struct{}{}); dup {
					continue
				}
			}
			all = append(all, models.RawListing{
				Title:    it.Title,
				Seller:   it.Seller.Username,
				RawPrice: it.Price.Value,
				Currency: it.Price.Currency,
			})
		}

		metrics.PagesFetchedTotal.Inc()
		log.Debug().Int("page", page+1).Int("items", len(items)).Int("offset", offset).
			Msg("fetched listing page")

		if len(items) < params.PageSize {
			break
		}
		offset += params.PageSize
	}

	return all, nil
}

// searchPage fetches one page of item summaries.
func (c *Client) searchPage(ctx context.Context, params SearchParams, offset int) ([]itemSummary, error) {
	q := url.Values{}
	q.Set("category_ids", params.CategoryID)
	q.Set("filter", params.Filter)
	q.Set("limit", strconv.Itoa(params.PageSize))
	q.Set("offset", strconv.Itoa(offset))
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, searchPath, q.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplace)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("browse API returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return searchResp.ItemSummaries, nil
}

// Source binds a Client to one search so the pipeline can fetch without
// knowing query details.
type Source struct {
	client *Client
	params SearchParams
}

// NewSource pairs a client with this run's search parameters.
func NewSource(client *Client, params SearchParams) *Source {
	return &Source{client: client, params: params}
}

// Fetch runs the paginated search for this run.
func (s *Source) Fetch(ctx context.Context) ([]models.RawListing, error) {
	return s.client.FetchAll(ctx, s.params)
}
