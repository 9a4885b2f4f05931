// Package shopstalk provides a public SDK for embedding ShopStalk as a
// library.
//
// Example usage:
//
//	harvester, err := shopstalk.New(
//	    shopstalk.WithBaseURL("https://web-scraping.dev"),
//	    shopstalk.WithCategories("apparel", "consumables"),
//	    shopstalk.WithOutput("json", "./data.json"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer harvester.Close()
//
//	doc, err := harvester.Harvest(context.Background())
package shopstalk

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/shopstalk/internal/config"
	"github.com/IshaanNene/shopstalk/internal/engine"
	"github.com/IshaanNene/shopstalk/internal/fetcher"
	"github.com/IshaanNene/shopstalk/internal/observability"
	"github.com/IshaanNene/shopstalk/internal/storage"
	"github.com/IshaanNene/shopstalk/internal/types"
)

// Harvester is the high-level API for using ShopStalk as a library.
type Harvester struct {
	cfg     *config.Config
	fetch   fetcher.Fetcher
	store   storage.Storage
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures a Harvester.
type Option func(*settings)

type settings struct {
	cfg    *config.Config
	logger *slog.Logger
}

// WithBaseURL sets the root URL of the target site.
func WithBaseURL(rawURL string) Option {
	return func(s *settings) { s.cfg.Harvest.BaseURL = rawURL }
}

// WithCategories sets the catalog categories to crawl.
func WithCategories(categories ...string) Option {
	return func(s *settings) { s.cfg.Harvest.Categories = categories }
}

// WithDelay sets the politeness delay between listing pages.
func WithDelay(d time.Duration) Option {
	return func(s *settings) { s.cfg.Harvest.PageDelay = d }
}

// WithReferenceYear sets the calendar year review dates are projected onto.
func WithReferenceYear(year int) Option {
	return func(s *settings) { s.cfg.Harvest.ReferenceYear = year }
}

// WithOutput sets the storage backend and output path.
func WithOutput(backend, path string) Option {
	return func(s *settings) {
		s.cfg.Storage.Type = backend
		s.cfg.Storage.OutputPath = path
	}
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(s *settings) { s.cfg.Fetcher.UserAgent = ua }
}

// WithBrowser switches fetching to a headless browser.
func WithBrowser() Option {
	return func(s *settings) { s.cfg.Fetcher.Type = "browser" }
}

// WithLogger replaces the default stderr logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// New creates a Harvester with the given options applied over the
// default configuration.
func New(opts ...Option) (*Harvester, error) {
	s := &settings{
		cfg:    config.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
	for _, opt := range opts {
		opt(s)
	}
	cfg, logger := s.cfg, s.logger

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	fetch, err := fetcher.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(cfg, logger)
	if err != nil {
		fetch.Close()
		return nil, err
	}

	return &Harvester{
		cfg:     cfg,
		fetch:   fetch,
		store:   store,
		metrics: observability.NewMetrics(logger),
		logger:  logger,
	}, nil
}

// Harvest runs a full harvest and returns the assembled document. The
// document is also written to the configured storage backend.
func (h *Harvester) Harvest(ctx context.Context) (*types.HarvestDocument, error) {
	eng := engine.New(h.cfg, h.fetch, h.store, h.metrics, h.logger)
	return eng.Run(ctx)
}

// Stats returns a snapshot of the run's operational counters.
func (h *Harvester) Stats() map[string]int64 {
	return h.metrics.Snapshot()
}

// Close releases the fetcher and flushes storage.
func (h *Harvester) Close() error {
	ferr := h.fetch.Close()
	serr := h.store.Close()
	if ferr != nil {
		return ferr
	}
	return serr
}
