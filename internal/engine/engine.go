package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/IshaanNene/shopstalk/internal/catalog"
	"github.com/IshaanNene/shopstalk/internal/config"
	"github.com/IshaanNene/shopstalk/internal/dates"
	"github.com/IshaanNene/shopstalk/internal/fetcher"
	"github.com/IshaanNene/shopstalk/internal/observability"
	"github.com/IshaanNene/shopstalk/internal/reviews"
	"github.com/IshaanNene/shopstalk/internal/storage"
	"github.com/IshaanNene/shopstalk/internal/testimonials"
	"github.com/IshaanNene/shopstalk/internal/types"
)

// Engine orchestrates a full harvest run: catalog pagination,
// testimonials, reviews via the JSON API, and the embedded-JSON
// fallback when the API yields nothing.
type Engine struct {
	cfg     *config.Config
	fetch   fetcher.Fetcher
	store   storage.Storage
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates an Engine from the given configuration and backends.
func New(cfg *config.Config, fetch fetcher.Fetcher, store storage.Storage, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	return &Engine{
		cfg:     cfg,
		fetch:   &countingFetcher{inner: fetch, metrics: metrics},
		store:   store,
		metrics: metrics,
		logger:  logger.With("component", "engine"),
	}
}

// Run executes the harvest and returns the assembled document. The
// document is also written to the configured storage backend. A
// partially collected document is still assembled and stored when
// individual sources fail; only context cancellation aborts the run.
func (e *Engine) Run(ctx context.Context) (*types.HarvestDocument, error) {
	start := time.Now()
	e.logger.Info("harvest starting", "base_url", e.cfg.Harvest.BaseURL, "categories", e.cfg.Harvest.Categories)

	norm := dates.NewNormalizer(e.cfg.Harvest.ReferenceYear)

	raw, err := e.harvestCatalog(ctx)
	if err != nil {
		return nil, err
	}
	products := catalog.Dedupe(raw)
	e.metrics.ProductsRaw.Store(int64(len(raw)))
	e.metrics.Products.Store(int64(len(products)))

	quotes, err := e.harvestTestimonials(ctx)
	if err != nil {
		return nil, err
	}
	e.metrics.Testimonials.Store(int64(len(quotes)))

	revs, err := e.harvestReviews(ctx, norm, raw)
	if err != nil {
		return nil, err
	}
	e.metrics.Reviews.Store(int64(len(revs)))

	doc := &types.HarvestDocument{
		Meta:         types.NewMeta(e.cfg.Harvest.BaseURL),
		Products:     products,
		ProductsRaw:  raw,
		Testimonials: quotes,
		Reviews:      revs,
	}

	if e.store != nil {
		if err := e.store.Write(doc); err != nil {
			return doc, err
		}
	}

	e.logger.Info("harvest complete",
		"products", len(products),
		"products_raw", len(raw),
		"testimonials", len(quotes),
		"reviews", len(revs),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return doc, nil
}

func (e *Engine) harvestCatalog(ctx context.Context) ([]types.CatalogRecord, error) {
	h, err := catalog.New(e.fetch, &e.cfg.Harvest, e.logger)
	if err != nil {
		return nil, err
	}
	return h.Run(ctx)
}

func (e *Engine) harvestTestimonials(ctx context.Context) ([]types.Testimonial, error) {
	h, err := testimonials.New(e.fetch, &e.cfg.Harvest, &e.cfg.Auth, e.logger)
	if err != nil {
		return nil, err
	}
	return h.Run(ctx)
}

// harvestReviews tries the review API first. When the API path
// produces no reviews, whatever the reason, the engine falls back to
// scanning individual product pages for embedded JSON. The fallback
// works from the raw catalog records so that duplicate listings still
// contribute their pages.
func (e *Engine) harvestReviews(ctx context.Context, norm *dates.Normalizer, raw []types.CatalogRecord) ([]types.Review, error) {
	api, err := reviews.NewAPIHarvester(e.fetch, &e.cfg.Harvest, &e.cfg.Auth, norm, e.logger)
	if err != nil {
		return nil, err
	}

	revs, apiErr := api.Run(ctx)
	if apiErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warn("review api failed", "error", apiErr)
	}
	if len(revs) > 0 {
		return revs, nil
	}

	e.logger.Info("review api yielded nothing, falling back to product pages", "products", len(raw))
	fallback := reviews.NewPageHarvester(e.fetch, &e.cfg.Harvest, norm, e.logger)
	return fallback.Run(ctx, raw)
}

// countingFetcher wraps a fetcher and feeds request/response counts
// into the metrics registry.
type countingFetcher struct {
	inner   fetcher.Fetcher
	metrics *observability.Metrics
}

func (c *countingFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	c.metrics.RequestsTotal.Add(1)
	resp, err := c.inner.Fetch(ctx, req)
	if err != nil {
		c.metrics.RequestsFailed.Add(1)
		return nil, err
	}
	c.metrics.ObserveResponse(resp.StatusCode)
	c.metrics.BytesDownloaded.Add(int64(len(resp.Body)))
	return resp, nil
}

func (c *countingFetcher) Close() error { return c.inner.Close() }

func (c *countingFetcher) Type() string { return c.inner.Type() }
