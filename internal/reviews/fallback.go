package reviews

import (
	"context"
	"log/slog"
	"strings"

	"github.com/IshaanNene/shopstalk/internal/config"
	"github.com/IshaanNene/shopstalk/internal/dates"
	"github.com/IshaanNene/shopstalk/internal/fetcher"
	"github.com/IshaanNene/shopstalk/internal/jsonscan"
	"github.com/IshaanNene/shopstalk/internal/ratelimit"
	"github.com/IshaanNene/shopstalk/internal/types"
)

// PageHarvester recovers reviews from JSON blobs embedded in product
// detail pages. It only runs when the API path yields nothing, and it
// works from the raw (pre-dedup) catalog records so duplicate listings
// still lead to their own detail pages.
type PageHarvester struct {
	fetch   fetcher.Fetcher
	cfg     *config.HarvestConfig
	norm    *dates.Normalizer
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewPageHarvester creates a PageHarvester.
func NewPageHarvester(fetch fetcher.Fetcher, cfg *config.HarvestConfig, norm *dates.Normalizer, logger *slog.Logger) *PageHarvester {
	return &PageHarvester{
		fetch:   fetch,
		cfg:     cfg,
		norm:    norm,
		limiter: ratelimit.New(cfg.APIDelay),
		logger:  logger.With("component", "reviews_fallback"),
	}
}

// dedupKey identifies a review across blobs and pages.
type dedupKey struct {
	productID string
	date      string
	text      string
}

// Run visits up to MaxFallbackProducts product pages and scans each for
// review-shaped embedded JSON. A page that fails to fetch is skipped,
// not fatal. Only context cancellation is returned as an error.
func (h *PageHarvester) Run(ctx context.Context, products []types.CatalogRecord) ([]types.Review, error) {
	limit := h.cfg.MaxFallbackProducts
	if limit > len(products) {
		limit = len(products)
	}

	seen := make(map[dedupKey]struct{})
	var out []types.Review

	for _, p := range products[:limit] {
		id := strings.TrimSpace(p.ID)
		if id == "" || p.URL == "" {
			continue
		}

		req, err := types.NewRequest(p.URL)
		if err != nil {
			h.logger.Warn("skipping product with bad URL", "product_id", id, "url", p.URL)
			continue
		}
		req.Tag = "detail"

		resp, err := h.fetch.Fetch(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			h.logger.Warn("product page fetch failed, skipping", "product_id", id, "error", err)
			continue
		}
		if !resp.IsSuccess() {
			h.logger.Warn("product page returned non-success status, skipping",
				"product_id", id, "status", resp.StatusCode)
			continue
		}

		found := h.scanPage(resp.Text(), id, seen, &out)
		h.logger.Info("product page scanned", "product_id", id, "reviews", found, "total", len(out))

		if err := h.limiter.Wait(ctx); err != nil {
			return out, err
		}
	}

	return out, nil
}

// scanPage extracts every JSON blob from a page body and harvests the
// review-shaped content. Returns how many new reviews the page yielded.
func (h *PageHarvester) scanPage(body, productID string, seen map[dedupKey]struct{}, out *[]types.Review) int {
	found := 0
	for _, blob := range jsonscan.Extract(body) {
		switch v := blob.(type) {
		case map[string]any:
			// Dictionaries are searched for list-valued review fields.
			for _, key := range blobListFields {
				list, ok := v[key].([]any)
				if !ok {
					continue
				}
				found += h.harvestList(list, productID, seen, out)
			}
		case []any:
			// A bare list is accepted only if its first element looks
			// review-shaped: anything else is chart data, nav state, etc.
			if len(v) == 0 {
				continue
			}
			first, ok := v[0].(map[string]any)
			if !ok {
				continue
			}
			if !hasAnyKey(first, dateFields) || !hasAnyKey(first, textFields) {
				continue
			}
			found += h.harvestList(v, productID, seen, out)
		}
	}
	return found
}

// harvestList normalizes and deduplicates each review object in a list.
func (h *PageHarvester) harvestList(list []any, productID string, seen map[dedupKey]struct{}, out *[]types.Review) int {
	added := 0
	for _, raw := range list {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		review, ok := normalizeItem(item, productID, types.SourceProductPage, h.norm)
		if !ok {
			continue
		}
		key := dedupKey{productID: review.ProductID, date: review.Date, text: review.Text}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		*out = append(*out, review)
		added++
	}
	return added
}
