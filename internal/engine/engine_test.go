package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/shopstalk/internal/config"
	"github.com/IshaanNene/shopstalk/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeFetcher serves canned responses keyed by full request URL.
type fakeFetcher struct {
	pages    map[string]string // URL -> body
	statuses map[string]int    // URL -> status override
	errs     map[string]error
	calls    []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	u := req.URLString()
	f.calls = append(f.calls, u)
	if err, ok := f.errs[u]; ok {
		return nil, err
	}
	if status, ok := f.statuses[u]; ok {
		return &types.Response{StatusCode: status, Request: req}, nil
	}
	body, ok := f.pages[u]
	if !ok {
		return &types.Response{StatusCode: http.StatusNotFound, Request: req}, nil
	}
	return &types.Response{StatusCode: http.StatusOK, Body: []byte(body), Request: req}, nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "fake" }

// memStorage captures the written document in memory.
type memStorage struct {
	doc *types.HarvestDocument
}

func (s *memStorage) Write(doc *types.HarvestDocument) error { s.doc = doc; return nil }
func (s *memStorage) Close() error                           { return nil }
func (s *memStorage) Name() string                           { return "memory" }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Harvest.BaseURL = "https://shop.test"
	cfg.Harvest.Categories = []string{"apparel"}
	cfg.Harvest.MaxPages = 10
	cfg.Harvest.PageDelay = 0
	cfg.Harvest.APIDelay = 0
	return cfg
}

func card(id, name, price string) string {
	return fmt.Sprintf(
		`<div class="card"><h3><a href="/product/%s">%s</a></h3><div class="price">$%s</div></div>`,
		id, name, price)
}

func htmlPage(fragments ...string) string {
	return "<html><body><main>" + strings.Join(fragments, "\n") + "</main></body></html>"
}

// sitePages scripts a minimal site: one listing page with a duplicate
// product, one testimonials page, and a terminating second page of each.
func sitePages() map[string]string {
	return map[string]string{
		"https://shop.test/products?category=apparel&page=1": htmlPage(
			card("1", "Red Shirt", "19.99"),
			card("2", "Red Shirt", "19.99"),
			card("3", "Blue Hat", "9.50")),
		"https://shop.test/products?category=apparel&page=2": htmlPage(
			card("1", "Red Shirt", "19.99")),
		"https://shop.test/api/testimonials?page=1": htmlPage(
			"<p>This store exceeded all of my expectations.</p>",
			"<p>Shipping was fast and the quality is excellent.</p>"),
		"https://shop.test/api/testimonials?page=2": htmlPage(
			"<p>This store exceeded all of my expectations.</p>"),
	}
}

func TestRunAssemblesDocumentFromAPI(t *testing.T) {
	pages := sitePages()
	pages["https://shop.test/api/reviews?page=1"] = `{"reviews":[{"text":"Solid product","date":"2022-03-10","rating":5}]}`
	pages["https://shop.test/api/reviews?page=2"] = `{"reviews":[]}`

	f := &fakeFetcher{pages: pages}
	store := &memStorage{}
	eng := New(testConfig(), f, store, nil, testLogger)

	doc, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if doc.Meta.Source != "https://shop.test" {
		t.Errorf("meta source = %q", doc.Meta.Source)
	}
	stamped, err := time.Parse(time.RFC3339, doc.Meta.ScrapedAt)
	if err != nil {
		t.Fatalf("meta scraped_at %q is not RFC3339: %v", doc.Meta.ScrapedAt, err)
	}
	if time.Since(stamped) > time.Minute {
		t.Errorf("meta scraped_at = %q, not recent", doc.Meta.ScrapedAt)
	}

	if len(doc.ProductsRaw) != 3 {
		t.Fatalf("products_raw = %d, want 3", len(doc.ProductsRaw))
	}
	if len(doc.Products) != 2 {
		t.Fatalf("products = %d, want 2", len(doc.Products))
	}
	if got := doc.Products[0].DuplicateIDs; len(got) != 1 || got[0] != "2" {
		t.Errorf("duplicate ids = %v, want [2]", got)
	}

	if len(doc.Testimonials) != 2 {
		t.Errorf("testimonials = %d, want 2", len(doc.Testimonials))
	}

	if len(doc.Reviews) != 1 {
		t.Fatalf("reviews = %d, want 1", len(doc.Reviews))
	}
	rev := doc.Reviews[0]
	if rev.Source != types.SourceAPI {
		t.Errorf("review source = %q", rev.Source)
	}
	if rev.Date != "2023-03-10" {
		t.Errorf("review date = %q", rev.Date)
	}

	if store.doc != doc {
		t.Error("document was not written to storage")
	}

	// No product pages were visited on the API path.
	for _, u := range f.calls {
		if strings.Contains(u, "/product/") {
			t.Errorf("unexpected product page fetch: %s", u)
		}
	}
}

func TestRunFallsBackWhenAPIRejects(t *testing.T) {
	f := &fakeFetcher{
		pages:    sitePages(),
		statuses: map[string]int{"https://shop.test/api/reviews?page=1": http.StatusUnprocessableEntity},
	}
	f.pages["https://shop.test/product/1"] = htmlPage(
		`<script>{"reviews":[{"text":"Great for hiking","date":"2022-05-01"}]}</script>`)
	// Products 2 and 3 have no pages; their 404s are skipped.

	store := &memStorage{}
	eng := New(testConfig(), f, store, nil, testLogger)

	doc, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if len(doc.Reviews) != 1 {
		t.Fatalf("reviews = %d, want 1", len(doc.Reviews))
	}
	rev := doc.Reviews[0]
	if rev.Source != types.SourceProductPage {
		t.Errorf("review source = %q", rev.Source)
	}
	if rev.ProductID != "1" {
		t.Errorf("review product id = %q", rev.ProductID)
	}
	if rev.Date != "2023-05-01" {
		t.Errorf("review date = %q", rev.Date)
	}

	// The fallback walks raw records, duplicates included.
	visited := 0
	for _, u := range f.calls {
		if strings.Contains(u, "/product/") {
			visited++
		}
	}
	if visited != 3 {
		t.Errorf("product pages visited = %d, want 3", visited)
	}
}

func TestRunFallsBackWhenAPIIsEmpty(t *testing.T) {
	pages := sitePages()
	pages["https://shop.test/api/reviews?page=1"] = `{"reviews":[]}`
	pages["https://shop.test/product/3"] = htmlPage(
		`<script>{"reviews":[{"text":"Keeps the sun out of my eyes","date":"2023-07-04"}]}</script>`)

	f := &fakeFetcher{pages: pages}
	eng := New(testConfig(), f, &memStorage{}, nil, testLogger)

	doc, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if len(doc.Reviews) != 1 {
		t.Fatalf("reviews = %d, want 1", len(doc.Reviews))
	}
	if doc.Reviews[0].Source != types.SourceProductPage {
		t.Errorf("review source = %q", doc.Reviews[0].Source)
	}
}

func TestRunRecordsMetrics(t *testing.T) {
	pages := sitePages()
	pages["https://shop.test/api/reviews?page=1"] = `{"reviews":[{"text":"Solid product","date":"2022-03-10"}]}`
	pages["https://shop.test/api/reviews?page=2"] = `{"reviews":[]}`

	f := &fakeFetcher{pages: pages}
	eng := New(testConfig(), f, &memStorage{}, nil, testLogger)

	if _, err := eng.Run(context.Background()); err != nil {
		t.Fatalf("run error: %v", err)
	}

	snap := eng.metrics.Snapshot()
	if snap["requests_total"] != int64(len(f.calls)) {
		t.Errorf("requests_total = %d, want %d", snap["requests_total"], len(f.calls))
	}
	if snap["products"] != 2 {
		t.Errorf("products = %d, want 2", snap["products"])
	}
	if snap["products_raw"] != 3 {
		t.Errorf("products_raw = %d, want 3", snap["products_raw"])
	}
	if snap["testimonials"] != 2 {
		t.Errorf("testimonials = %d, want 2", snap["testimonials"])
	}
	if snap["reviews"] != 1 {
		t.Errorf("reviews = %d, want 1", snap["reviews"])
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{pages: sitePages()}
	eng := New(testConfig(), f, &memStorage{}, nil, testLogger)

	if _, err := eng.Run(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
