package types

import "time"

// ReviewSource identifies which acquisition path produced a review.
type ReviewSource string

const (
	// SourceAPI marks reviews fetched from the primary reviews API.
	SourceAPI ReviewSource = "api"

	// SourceProductPage marks reviews recovered from JSON blobs embedded
	// in product detail pages.
	SourceProductPage ReviewSource = "product_page"
)

// CatalogRecord is a raw catalog listing entry, one per unique product id
// in first-seen order. Records are never mutated after creation.
type CatalogRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"` // opaque display string, may be empty
	URL      string `json:"url"`
	Category string `json:"category"`
}

// Product is a deduplicated catalog record. The first record observed for a
// (lowercased name, price) key becomes the primary; later records with the
// same key contribute only their id and url to the duplicate lists.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         string   `json:"price"`
	URL           string   `json:"url"`
	DuplicateIDs  []string `json:"duplicate_ids,omitempty"`
	DuplicateURLs []string `json:"duplicate_urls,omitempty"`
}

// Testimonial is a free-text snippet from the testimonials endpoint.
// Comments are whitespace-normalized and at least 20 characters long.
type Testimonial struct {
	Comment string `json:"comment"`
}

// Review is a normalized review record. Date always falls within the
// reference year; DateIsSynthetic marks dates that were derived from the
// review text because the source date was missing or unparseable.
type Review struct {
	ProductID       string       `json:"product_id,omitempty"`
	Date            string       `json:"date"` // ISO calendar date (YYYY-MM-DD)
	DateIsSynthetic bool         `json:"date_is_synthetic"`
	Text            string       `json:"text"`
	Rating          any          `json:"rating,omitempty"` // passed through as-is from the source
	Author          string       `json:"author,omitempty"`
	Source          ReviewSource `json:"source"`
}

// Meta describes the provenance of a harvest run.
type Meta struct {
	Source    string `json:"source"`
	ScrapedAt string `json:"scraped_at"` // RFC3339, UTC
}

// HarvestDocument is the terminal artifact of a harvest run. It is
// assembled once by the orchestrator and immutable after serialization.
// ProductsRaw keeps the pre-dedup records; the fallback review harvester
// walks them, and downstream consumers may use them for coverage checks.
type HarvestDocument struct {
	Meta         Meta            `json:"meta"`
	Products     []Product       `json:"products"`
	ProductsRaw  []CatalogRecord `json:"products_raw"`
	Testimonials []Testimonial   `json:"testimonials"`
	Reviews      []Review        `json:"reviews"`
}

// NewMeta builds a Meta block for the given source stamped with the
// current UTC time.
func NewMeta(source string) Meta {
	return Meta{
		Source:    source,
		ScrapedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
