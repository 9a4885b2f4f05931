// Package reviews harvests user reviews from the primary reviews API,
// falling back to JSON blobs embedded in product detail pages when the
// API refuses to cooperate. Both paths normalize heterogeneous source
// shapes onto one record schema.
package reviews

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/IshaanNene/shopstalk/internal/dates"
	"github.com/IshaanNene/shopstalk/internal/types"
)

// Synonym field tables, in priority order. The API's field names are not
// stable across shapes, so each logical attribute resolves to the first
// populated field among its synonyms. The order is load-bearing: a silent
// change here is a regression, see the priority tests.
var (
	textFields      = []string{"text", "body", "comment", "review"}
	dateFields      = []string{"date", "created_at", "createdAt", "timestamp"}
	ratingFields    = []string{"rating", "stars", "score"}
	authorFields    = []string{"author", "user", "name"}
	productIDFields = []string{"product_id", "productId"}

	// pageListFields resolve the item list inside a paginated API payload.
	pageListFields = []string{"reviews", "items", "results", "data"}

	// blobListFields are the dictionary keys that suggest review lists
	// inside embedded JSON blobs.
	blobListFields = []string{"reviews", "review", "customerReviews"}
)

// normalizeItem maps one raw review object onto the normalized record
// schema. productID overrides any id carried by the item itself (the
// fallback path knows which product page it is on). Returns false when
// the item has no resolvable non-empty text; such records are dropped
// silently, not an error.
func normalizeItem(item map[string]any, productID string, source types.ReviewSource, norm *dates.Normalizer) (types.Review, bool) {
	text := strings.TrimSpace(firstString(item, textFields))
	if text == "" {
		return types.Review{}, false
	}

	date, synthetic := norm.ResolveISO(firstValue(item, dateFields), text)

	pid := productID
	if pid == "" {
		pid = stringify(firstValue(item, productIDFields))
	}

	return types.Review{
		ProductID:       pid,
		Date:            date,
		DateIsSynthetic: synthetic,
		Text:            text,
		Rating:          firstValue(item, ratingFields),
		Author:          strings.TrimSpace(firstString(item, authorFields)),
		Source:          source,
	}, true
}

// firstString returns the first non-empty string value among keys.
func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// firstValue returns the first populated value among keys. Nil, empty
// strings, and zero numbers count as absent.
func firstValue(m map[string]any, keys []string) any {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) == "" {
				continue
			}
		case float64:
			if t == 0 {
				continue
			}
		case json.Number:
			if t.String() == "0" {
				continue
			}
		case bool:
			if !t {
				continue
			}
		}
		return v
	}
	return nil
}

// stringify renders a product id value as a string. Sources disagree on
// whether ids are strings or numbers.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// hasAnyKey reports whether m has at least one of the given keys.
func hasAnyKey(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
