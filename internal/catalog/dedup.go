package catalog

import (
	"strings"

	"github.com/IshaanNene/shopstalk/internal/types"
)

// Dedupe collapses catalog records sharing a (lowercased name, price)
// identity into a primary record plus duplicate id/url lists. The first
// record observed for a key becomes the primary; later records with the
// same key contribute only their id and url, in first-seen order. Pure
// and deterministic: same input order, same output.
func Dedupe(records []types.CatalogRecord) []types.Product {
	out := make([]types.Product, 0, len(records))
	index := make(map[string]int, len(records))

	for _, r := range records {
		name := strings.TrimSpace(r.Name)
		price := strings.TrimSpace(r.Price)
		key := strings.ToLower(name) + "\x00" + price

		if i, ok := index[key]; ok {
			out[i].DuplicateIDs = append(out[i].DuplicateIDs, r.ID)
			out[i].DuplicateURLs = append(out[i].DuplicateURLs, r.URL)
			continue
		}

		out = append(out, types.Product{
			ID:    r.ID,
			Name:  name,
			Price: price,
			URL:   r.URL,
		})
		index[key] = len(out) - 1
	}

	return out
}
