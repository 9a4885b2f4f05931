package reviews

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/IshaanNene/shopstalk/internal/config"
	"github.com/IshaanNene/shopstalk/internal/dates"
	"github.com/IshaanNene/shopstalk/internal/fetcher"
	"github.com/IshaanNene/shopstalk/internal/ratelimit"
	"github.com/IshaanNene/shopstalk/internal/types"
)

// APIHarvester pages through the primary reviews API. The endpoint is
// gated by a pseudo-CSRF header and known to reject whole deployments
// with 4xx statuses, which is why the fallback path exists.
type APIHarvester struct {
	fetch   fetcher.Fetcher
	cfg     *config.HarvestConfig
	auth    *config.AuthConfig
	base    *url.URL
	norm    *dates.Normalizer
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewAPIHarvester creates an APIHarvester.
func NewAPIHarvester(fetch fetcher.Fetcher, cfg *config.HarvestConfig, auth *config.AuthConfig, norm *dates.Normalizer, logger *slog.Logger) (*APIHarvester, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	return &APIHarvester{
		fetch:   fetch,
		cfg:     cfg,
		auth:    auth,
		base:    base,
		norm:    norm,
		limiter: ratelimit.New(cfg.APIDelay),
		logger:  logger.With("component", "reviews_api"),
	}, nil
}

// Run paginates the reviews API. Three terminations are distinguished:
// an empty item list ends pagination normally (source exhausted, reviews
// collected so far are returned with a nil error); a non-success HTTP
// status or a non-JSON body aborts immediately, returning an empty slice
// and the failure — the orchestrator's signal to activate the
// embedded-JSON fallback. The API path does not deduplicate across
// pages; pages are assumed disjoint.
func (h *APIHarvester) Run(ctx context.Context) ([]types.Review, error) {
	var out []types.Review

	for page := 1; page <= h.cfg.MaxPages; page++ {
		req, err := types.NewRequest(h.base.ResolveReference(&url.URL{Path: "/api/reviews"}).String())
		if err != nil {
			return nil, err
		}
		req.Tag = "reviews"
		req.SetQuery("page", strconv.Itoa(page))
		req.SetHeader("x-csrf-token", h.auth.CSRFToken)

		resp, err := h.fetch.Fetch(ctx, req)
		if err != nil {
			h.logger.Warn("reviews API fetch failed", "page", page, "error", err)
			return nil, err
		}
		if !resp.IsSuccess() {
			h.logger.Warn("reviews API returned non-success status",
				"page", page, "status", resp.StatusCode)
			return nil, &types.StatusError{URL: req.URLString(), StatusCode: resp.StatusCode}
		}

		var payload any
		if err := resp.DecodeJSON(&payload); err != nil {
			h.logger.Warn("reviews API body is not JSON", "page", page, "error", err)
			return nil, err
		}

		items := itemList(payload)
		if len(items) == 0 {
			h.logger.Info("reviews API exhausted", "page", page, "total", len(out))
			break
		}

		added := 0
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			review, ok := normalizeItem(item, "", types.SourceAPI, h.norm)
			if !ok {
				continue
			}
			out = append(out, review)
			added++
		}

		h.logger.Info("reviews API page harvested", "page", page, "new", added, "total", len(out))

		if err := h.limiter.Wait(ctx); err != nil {
			return out, err
		}
	}

	return out, nil
}

// itemList resolves the review item list from a decoded payload: the
// first list-valued field among the known wrappers, or the payload
// itself when the API returns a bare array.
func itemList(payload any) []any {
	switch v := payload.(type) {
	case map[string]any:
		for _, key := range pageListFields {
			if list, ok := v[key].([]any); ok {
				return list
			}
		}
	case []any:
		return v
	}
	return nil
}
