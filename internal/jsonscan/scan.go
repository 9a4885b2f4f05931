// Package jsonscan extracts JSON values embedded in HTML page bodies.
// Review data on product pages lives inside script tags and data islands
// with no documented boundary marker, so the scanner brute-forces it: a
// decode attempt at every candidate opening character, advancing past each
// successful parse's consumed span.
package jsonscan

import (
	"encoding/json"
	"strings"
)

// Extract returns every well-formed JSON object or array found in body,
// in document order. Parse failures at a candidate offset are expected
// and advance the scan by one byte.
func Extract(body string) []any {
	var blobs []any

	i := 0
	for i < len(body) {
		c := body[i]
		if c != '{' && c != '[' {
			i++
			continue
		}

		dec := json.NewDecoder(strings.NewReader(body[i:]))
		var v any
		if err := dec.Decode(&v); err != nil {
			i++
			continue
		}

		blobs = append(blobs, v)
		i += int(dec.InputOffset())
	}

	return blobs
}
