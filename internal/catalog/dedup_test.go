package catalog

import (
	"reflect"
	"testing"

	"github.com/IshaanNene/shopstalk/internal/types"
)

func rec(id, name, price, url string) types.CatalogRecord {
	return types.CatalogRecord{ID: id, Name: name, Price: price, URL: url, Category: "apparel"}
}

func TestDedupeFirstSeenWins(t *testing.T) {
	in := []types.CatalogRecord{
		rec("1", "Box of Chocolate Candy", "9.99", "https://shop.test/product/1"),
		rec("2", "box of chocolate candy", "9.99", "https://shop.test/product/2"),
		rec("3", "Dark Red Potion", "4.99", "https://shop.test/product/3"),
		rec("4", "Box of Chocolate Candy", "9.99", "https://shop.test/product/4"),
	}

	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 primaries, got %d: %+v", len(out), out)
	}

	primary := out[0]
	if primary.ID != "1" {
		t.Errorf("primary id = %q, want first-seen 1", primary.ID)
	}
	if !reflect.DeepEqual(primary.DuplicateIDs, []string{"2", "4"}) {
		t.Errorf("duplicate ids = %v, want [2 4] in first-seen order", primary.DuplicateIDs)
	}
	if !reflect.DeepEqual(primary.DuplicateURLs, []string{"https://shop.test/product/2", "https://shop.test/product/4"}) {
		t.Errorf("duplicate urls = %v", primary.DuplicateURLs)
	}

	if out[1].ID != "3" || len(out[1].DuplicateIDs) != 0 {
		t.Errorf("unexpected second primary: %+v", out[1])
	}
}

func TestDedupeKeyIncludesPrice(t *testing.T) {
	in := []types.CatalogRecord{
		rec("1", "Potion", "4.99", "u1"),
		rec("2", "Potion", "5.99", "u2"), // same name, different price: distinct
	}

	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 primaries, got %d", len(out))
	}
}

func TestDedupeTrimsNameAndPrice(t *testing.T) {
	in := []types.CatalogRecord{
		rec("1", "  Potion  ", " 4.99 ", "u1"),
		rec("2", "Potion", "4.99", "u2"),
	}

	out := Dedupe(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 primary, got %d", len(out))
	}
	if out[0].Name != "Potion" || out[0].Price != "4.99" {
		t.Errorf("primary not trimmed: %+v", out[0])
	}
}

func TestDedupeEmptyPricesMerge(t *testing.T) {
	in := []types.CatalogRecord{
		rec("1", "Mystery Item", "", "u1"),
		rec("2", "Mystery Item", "", "u2"),
	}

	out := Dedupe(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 primary, got %d", len(out))
	}
	if !reflect.DeepEqual(out[0].DuplicateIDs, []string{"2"}) {
		t.Errorf("duplicate ids = %v", out[0].DuplicateIDs)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	in := []types.CatalogRecord{
		rec("1", "Shirt", "10.00", "u1"),
		rec("2", "Shirt", "10.00", "u2"),
		rec("3", "Hat", "5.00", "u3"),
	}

	first := Dedupe(in)

	// Feed the primaries back through: no further merging may occur.
	again := make([]types.CatalogRecord, 0, len(first))
	for _, p := range first {
		again = append(again, types.CatalogRecord{ID: p.ID, Name: p.Name, Price: p.Price, URL: p.URL})
	}
	second := Dedupe(again)

	if len(second) != len(first) {
		t.Fatalf("second pass merged records: %d -> %d", len(first), len(second))
	}
	for i, p := range second {
		if len(p.DuplicateIDs) != 0 {
			t.Errorf("second pass invented duplicates at %d: %v", i, p.DuplicateIDs)
		}
		if p.ID != first[i].ID {
			t.Errorf("second pass reordered records at %d", i)
		}
	}
}

func TestDedupeEmptyInput(t *testing.T) {
	if out := Dedupe(nil); len(out) != 0 {
		t.Errorf("expected empty output, got %+v", out)
	}
}

func TestDedupeDeterministic(t *testing.T) {
	in := []types.CatalogRecord{
		rec("1", "A", "1.00", "u1"),
		rec("2", "a", "1.00", "u2"),
		rec("3", "B", "2.00", "u3"),
		rec("4", "b", "2.00", "u4"),
	}

	first := Dedupe(in)
	second := Dedupe(in)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("dedupe not deterministic:\n%+v\n%+v", first, second)
	}
}
