// Package catalog crawls the paginated HTML listing pages and extracts raw
// catalog records. The listing site exposes no "last page" signal, so each
// category's pagination ends when a page contributes zero new product ids.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/shopstalk/internal/config"
	"github.com/IshaanNene/shopstalk/internal/fetcher"
	"github.com/IshaanNene/shopstalk/internal/ratelimit"
	"github.com/IshaanNene/shopstalk/internal/types"
)

// Tunables for the listing heuristics. The price walk depth and pattern
// are deliberately named so selector drift on the target site is a
// one-line fix.
const (
	// MaxAncestorDepth bounds the upward walk when recovering a price
	// from the markup around a product link.
	MaxAncestorDepth = 6

	// MinNameLength rejects link texts too short to be product names.
	MinNameLength = 2
)

var (
	// productIDRe matches product detail links, absolute or relative,
	// and captures the numeric product id.
	productIDRe = regexp.MustCompile(`(?i)(?:https?://[^/]+)?/product/(\d+)`)

	// priceRe matches a decimal price inside flattened container text.
	priceRe = regexp.MustCompile(`\b(\d{1,5}\.\d{2})\b`)
)

// Harvester crawls catalog listing pages category by category.
type Harvester struct {
	fetch   fetcher.Fetcher
	cfg     *config.HarvestConfig
	base    *url.URL
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// New creates a catalog Harvester.
func New(fetch fetcher.Fetcher, cfg *config.HarvestConfig, logger *slog.Logger) (*Harvester, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	return &Harvester{
		fetch:   fetch,
		cfg:     cfg,
		base:    base,
		limiter: ratelimit.New(cfg.PageDelay),
		logger:  logger.With("component", "catalog"),
	}, nil
}

// Run crawls every configured category and returns raw catalog records in
// first-seen order. Product ids are unique across all categories, so a
// product listed in two categories counts once, under the category that
// saw it first. The only error returned is context cancellation; a broken
// category yields whatever was collected before the break.
func (h *Harvester) Run(ctx context.Context) ([]types.CatalogRecord, error) {
	seen := make(map[string]struct{})
	var records []types.CatalogRecord

	for _, category := range h.cfg.Categories {
		if err := h.crawlCategory(ctx, category, seen, &records); err != nil {
			return records, err
		}
	}

	h.logger.Info("catalog crawl complete", "products", len(records))
	return records, nil
}

// crawlCategory pages through one category until a page yields zero new
// products or the page ceiling is hit. Fetch failures end the category,
// not the harvest.
func (h *Harvester) crawlCategory(ctx context.Context, category string, seen map[string]struct{}, out *[]types.CatalogRecord) error {
	for page := 1; page <= h.cfg.MaxPages; page++ {
		req, err := types.NewRequest(h.base.ResolveReference(&url.URL{Path: "/products"}).String())
		if err != nil {
			return err
		}
		req.Tag = "listing"
		req.SetQuery("category", category)
		req.SetQuery("page", strconv.Itoa(page))

		resp, err := h.fetch.Fetch(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.Warn("listing page fetch failed, ending category",
				"category", category, "page", page, "error", err)
			return nil
		}
		if !resp.IsSuccess() {
			h.logger.Warn("listing page returned non-success status, ending category",
				"category", category, "page", page, "status", resp.StatusCode)
			return nil
		}

		added := h.collect(resp, category, seen, out)
		h.logger.Info("listing page scanned",
			"category", category, "page", page, "new", added, "total", len(*out))

		if added == 0 {
			return nil
		}
		if err := h.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// collect scans every hyperlink on a listing page for product detail
// links and appends a record per unseen product id. Returns how many new
// records the page contributed.
func (h *Harvester) collect(resp *types.Response, category string, seen map[string]struct{}, out *[]types.CatalogRecord) int {
	node, err := resp.HTMLNode()
	if err != nil {
		h.logger.Warn("listing page did not parse as HTML", "error", err)
		return 0
	}

	added := 0
	for _, anchor := range htmlquery.Find(node, "//a[@href]") {
		href := strings.TrimSpace(htmlquery.SelectAttr(anchor, "href"))
		m := productIDRe.FindStringSubmatch(href)
		if m == nil {
			continue
		}

		id := m[1]
		if _, ok := seen[id]; ok {
			continue
		}

		name := flattenText(anchor)
		if utf8.RuneCountInString(name) < MinNameLength {
			continue
		}

		*out = append(*out, types.CatalogRecord{
			ID:       id,
			Name:     name,
			Price:    h.priceNear(anchor),
			URL:      h.resolve(href),
			Category: category,
		})
		seen[id] = struct{}{}
		added++
	}
	return added
}

// priceNear walks up the markup tree from a product link, testing each
// ancestor container's flattened text against the price pattern and
// stopping at the first container that yields a match. Listing cards keep
// name and price in loosely related wrappers, so a bounded upward search
// is the most stable association available.
func (h *Harvester) priceNear(anchor *html.Node) string {
	node := anchor
	for i := 0; i < MaxAncestorDepth; i++ {
		node = node.Parent
		if node == nil {
			break
		}
		if price := extractPrice(flattenText(node)); price != "" {
			return price
		}
	}
	return ""
}

// extractPrice returns the last price-shaped token in text, or "". The
// last match wins: listing cards put struck-through old prices first.
func extractPrice(text string) string {
	matches := priceRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}

// flattenText renders a node's text content with runs of whitespace
// collapsed to single spaces.
func flattenText(node *html.Node) string {
	return strings.Join(strings.Fields(htmlquery.InnerText(node)), " ")
}

// resolve makes a listing href absolute against the base URL.
func (h *Harvester) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return h.base.ResolveReference(ref).String()
}
