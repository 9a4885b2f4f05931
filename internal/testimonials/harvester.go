// Package testimonials crawls the semi-hidden testimonials paging API.
// The endpoint is soft-gated: it wants a referer pointing at the
// human-facing testimonials page, and older deployments additionally
// demanded a secret-token header, so a 401/403 gets one retry with the
// token before the page is given up.
package testimonials

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/shopstalk/internal/config"
	"github.com/IshaanNene/shopstalk/internal/fetcher"
	"github.com/IshaanNene/shopstalk/internal/ratelimit"
	"github.com/IshaanNene/shopstalk/internal/types"
)

// MinCommentLength rejects fragments too short to be testimonials.
const MinCommentLength = 20

// candidateSelectors are the element types that hold testimonial text on
// the rendered page fragments the API returns.
const candidateSelectors = "p, blockquote, li, .testimonial, .testimonial-text"

// Harvester pages through the testimonials API. Unlike the catalog crawl,
// a page with zero new fragments ends the whole harvest: testimonials
// have no category partitioning, so an exhausted page means an exhausted
// source.
type Harvester struct {
	fetch   fetcher.Fetcher
	cfg     *config.HarvestConfig
	auth    *config.AuthConfig
	base    *url.URL
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// New creates a testimonial Harvester.
func New(fetch fetcher.Fetcher, cfg *config.HarvestConfig, auth *config.AuthConfig, logger *slog.Logger) (*Harvester, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	return &Harvester{
		fetch:   fetch,
		cfg:     cfg,
		auth:    auth,
		base:    base,
		limiter: ratelimit.New(cfg.APIDelay),
		logger:  logger.With("component", "testimonials"),
	}, nil
}

// Run paginates until a page contributes nothing new, a page fails, or
// the ceiling is hit. Failures yield the partial list collected so far;
// only context cancellation is returned as an error.
func (h *Harvester) Run(ctx context.Context) ([]types.Testimonial, error) {
	seen := make(map[string]struct{})
	var out []types.Testimonial

	for page := 1; page <= h.cfg.MaxPages; page++ {
		resp, err := h.fetchPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			h.logger.Warn("testimonials page fetch failed, stopping", "page", page, "error", err)
			break
		}
		if !resp.IsSuccess() {
			h.logger.Warn("testimonials page returned non-success status, stopping",
				"page", page, "status", resp.StatusCode)
			break
		}

		added := h.collect(resp, seen, &out)
		h.logger.Info("testimonials page scanned", "page", page, "new", added, "total", len(out))

		if added == 0 {
			break
		}
		if err := h.limiter.Wait(ctx); err != nil {
			return out, err
		}
	}

	return out, nil
}

// fetchPage requests one API page with the referer gate, retrying once
// with the secret token if the server rejects the first attempt.
func (h *Harvester) fetchPage(ctx context.Context, page int) (*types.Response, error) {
	req, err := h.pageRequest(page)
	if err != nil {
		return nil, err
	}

	resp, err := h.fetch.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.IsAuthRejection() {
		return resp, nil
	}

	h.logger.Debug("testimonials page rejected, retrying with secret token",
		"page", page, "status", resp.StatusCode)

	retry := req.Clone()
	retry.SetHeader("X-Secret-Token", h.auth.SecretToken)
	return h.fetch.Fetch(ctx, retry)
}

// pageRequest builds the gated request for one page.
func (h *Harvester) pageRequest(page int) (*types.Request, error) {
	req, err := types.NewRequest(h.base.ResolveReference(&url.URL{Path: "/api/testimonials"}).String())
	if err != nil {
		return nil, err
	}
	req.Tag = "testimonials"
	req.SetQuery("page", strconv.Itoa(page))
	req.SetHeader("Referer", h.base.ResolveReference(&url.URL{Path: "/testimonials"}).String())
	return req, nil
}

// collect extracts testimonial fragments from a page body and appends the
// ones not seen before. Returns how many new testimonials were added.
func (h *Harvester) collect(resp *types.Response, seen map[string]struct{}, out *[]types.Testimonial) int {
	doc, err := resp.Document()
	if err != nil {
		h.logger.Warn("testimonials page did not parse as HTML", "error", err)
		return 0
	}

	root := doc.Find("main")
	if root.Length() == 0 {
		root = doc.Selection
	}

	added := 0
	root.Find(candidateSelectors).Each(func(_ int, sel *goquery.Selection) {
		text := normalize(sel.Text())
		if utf8.RuneCountInString(text) < MinCommentLength {
			return
		}
		if _, ok := seen[text]; ok {
			return
		}
		seen[text] = struct{}{}
		*out = append(*out, types.Testimonial{Comment: text})
		added++
	})
	return added
}

// normalize collapses runs of whitespace to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
