package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/shopstalk/internal/config"
	"github.com/IshaanNene/shopstalk/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeFetcher serves canned responses keyed by full request URL.
type fakeFetcher struct {
	pages map[string]string // URL -> HTML body
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	u := req.URLString()
	f.calls = append(f.calls, u)
	if err, ok := f.errs[u]; ok {
		return nil, err
	}
	body, ok := f.pages[u]
	if !ok {
		return &types.Response{StatusCode: http.StatusNotFound, Request: req}, nil
	}
	return &types.Response{StatusCode: http.StatusOK, Body: []byte(body), Request: req}, nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "fake" }

func listingURL(category string, page int) string {
	return fmt.Sprintf("https://shop.test/products?category=%s&page=%d", category, page)
}

func card(id, name, price string) string {
	return fmt.Sprintf(
		`<div class="card"><div class="info"><h3><a href="/product/%s">%s</a></h3></div><div class="price">$%s</div></div>`,
		id, name, price)
}

func page(cards ...string) string {
	return "<html><body><main>" + strings.Join(cards, "\n") + "</main></body></html>"
}

func testConfig(categories ...string) *config.HarvestConfig {
	return &config.HarvestConfig{
		BaseURL:    "https://shop.test",
		Categories: categories,
		MaxPages:   50,
	}
}

func TestTerminatesOnZeroNewItems(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		listingURL("apparel", 1): page(card("1", "Red Shirt", "19.99"), card("2", "Blue Shirt", "21.50"), card("3", "Green Shirt", "18.00")),
		listingURL("apparel", 2): page(card("4", "Black Hat", "9.99"), card("5", "White Hat", "9.99")),
		// Page 3 repeats earlier products: zero new ids ends the category.
		listingURL("apparel", 3): page(card("1", "Red Shirt", "19.99"), card("4", "Black Hat", "9.99")),
		// Page 4 must never be fetched.
		listingURL("apparel", 4): page(card("6", "Ghost Item", "1.00"), card("7", "Ghost Item 2", "2.00"), card("8", "Ghost 3", "3.00"), card("9", "Ghost 4", "4.00"), card("10", "Ghost 5", "5.00")),
	}}

	h, err := New(f, testConfig("apparel"), testLogger)
	if err != nil {
		t.Fatal(err)
	}

	records, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if len(records) != 5 {
		t.Errorf("expected 5 records, got %d", len(records))
	}
	for _, u := range f.calls {
		if u == listingURL("apparel", 4) {
			t.Error("page 4 was fetched after page 3 yielded zero new items")
		}
	}
}

func TestRecordFields(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		listingURL("apparel", 1): page(card("42", "Wool Sweater", "55.00")),
		listingURL("apparel", 2): page(),
	}}

	h, _ := New(f, testConfig("apparel"), testLogger)
	records, err := h.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.ID != "42" {
		t.Errorf("id = %q", r.ID)
	}
	if r.Name != "Wool Sweater" {
		t.Errorf("name = %q", r.Name)
	}
	if r.Price != "55.00" {
		t.Errorf("price = %q", r.Price)
	}
	if r.URL != "https://shop.test/product/42" {
		t.Errorf("url = %q", r.URL)
	}
	if r.Category != "apparel" {
		t.Errorf("category = %q", r.Category)
	}
}

func TestPriceLastMatchWins(t *testing.T) {
	// Struck-through old price precedes the current price in card text.
	body := page(`<div class="card"><h3><a href="/product/7">Discount Jacket</a></h3><span class="price"><s>99.99</s> 79.99</span></div>`)
	f := &fakeFetcher{pages: map[string]string{listingURL("apparel", 1): body}}

	h, _ := New(f, testConfig("apparel"), testLogger)
	records, _ := h.Run(context.Background())
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Price != "79.99" {
		t.Errorf("price = %q, want last match 79.99", records[0].Price)
	}
}

func TestPriceBeyondWalkDepthIsEmpty(t *testing.T) {
	// Price sits more than MaxAncestorDepth containers above the link.
	deep := `<div class="l8">$12.34<div class="l7"><div class="l6"><div class="l5"><div class="l4"><div class="l3"><div class="l2"><div class="l1"><a href="/product/9">Deep Item</a></div></div></div></div></div></div></div></div>`
	f := &fakeFetcher{pages: map[string]string{listingURL("apparel", 1): page(deep)}}

	h, _ := New(f, testConfig("apparel"), testLogger)
	records, _ := h.Run(context.Background())
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Price != "" {
		t.Errorf("price = %q, want empty (out of walk range)", records[0].Price)
	}
}

func TestShortNamesRejected(t *testing.T) {
	body := page(
		`<div class="card"><a href="/product/1">X</a></div>`,
		`<div class="card"><a href="/product/2">OK</a></div>`,
	)
	f := &fakeFetcher{pages: map[string]string{listingURL("apparel", 1): body}}

	h, _ := New(f, testConfig("apparel"), testLogger)
	records, _ := h.Run(context.Background())
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ID != "2" {
		t.Errorf("kept wrong record: %+v", records[0])
	}
}

func TestGlobalIDUniquenessAcrossCategories(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		listingURL("apparel", 1):     page(card("1", "Shared Product", "10.00")),
		listingURL("apparel", 2):     page(),
		listingURL("consumables", 1): page(card("1", "Shared Product", "10.00"), card("2", "Only Here", "5.00")),
		listingURL("consumables", 2): page(),
	}}

	h, _ := New(f, testConfig("apparel", "consumables"), testLogger)
	records, _ := h.Run(context.Background())

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(records), records)
	}
	if records[0].Category != "apparel" {
		t.Errorf("first-seen category = %q, want apparel", records[0].Category)
	}
}

func TestNonProductLinksIgnored(t *testing.T) {
	body := page(
		`<a href="/about">About Us Page</a>`,
		`<a href="/products?page=2">Next</a>`,
		card("3", "Real Product", "7.77"),
	)
	f := &fakeFetcher{pages: map[string]string{listingURL("apparel", 1): body}}

	h, _ := New(f, testConfig("apparel"), testLogger)
	records, _ := h.Run(context.Background())
	if len(records) != 1 || records[0].ID != "3" {
		t.Fatalf("expected only the product link, got %+v", records)
	}
}

func TestAbsoluteProductLinks(t *testing.T) {
	body := page(`<div><a href="https://shop.test/product/11">Absolute Link Product</a> 3.50</div>`)
	f := &fakeFetcher{pages: map[string]string{listingURL("apparel", 1): body}}

	h, _ := New(f, testConfig("apparel"), testLogger)
	records, _ := h.Run(context.Background())
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ID != "11" || records[0].URL != "https://shop.test/product/11" {
		t.Errorf("record = %+v", records[0])
	}
}

func TestFetchFailureEndsCategoryNotHarvest(t *testing.T) {
	f := &fakeFetcher{
		pages: map[string]string{
			listingURL("apparel", 1):     page(card("1", "First", "1.00")),
			listingURL("consumables", 1): page(card("2", "Second", "2.00")),
			listingURL("consumables", 2): page(),
		},
		errs: map[string]error{
			listingURL("apparel", 2): &types.FetchError{URL: listingURL("apparel", 2), Err: fmt.Errorf("connection reset")},
		},
	}

	h, _ := New(f, testConfig("apparel", "consumables"), testLogger)
	records, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected both categories' records, got %+v", records)
	}
}
