// Package dates normalizes heterogeneous review dates onto a single
// reference-year time axis. Parsed dates keep their month and day but have
// their year rewritten; records with no parseable date get a deterministic
// synthetic date derived from their text.
package dates

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ISOLayout is the calendar-date format used in the harvest document.
const ISOLayout = "2006-01-02"

// msEpochThreshold distinguishes millisecond- from second-resolution
// epoch timestamps by magnitude.
const msEpochThreshold = 10_000_000_000

// Normalizer projects dates onto a fixed reference year.
type Normalizer struct {
	year int
}

// NewNormalizer creates a Normalizer for the given reference year.
func NewNormalizer(year int) *Normalizer {
	return &Normalizer{year: year}
}

// Year returns the reference year.
func (n *Normalizer) Year() int { return n.year }

// Resolve turns a raw date value into a reference-year calendar date.
// The boolean reports whether the date is synthetic: true means raw was
// missing or unparseable and the date was derived from text instead.
func (n *Normalizer) Resolve(raw any, text string) (time.Time, bool) {
	if t, ok := n.Parse(raw); ok {
		return n.Project(t), false
	}
	return n.Synthetic(text), true
}

// ResolveISO is Resolve with the date rendered in ISO form.
func (n *Normalizer) ResolveISO(raw any, text string) (string, bool) {
	t, synthetic := n.Resolve(raw, text)
	return t.Format(ISOLayout), synthetic
}

// Parse interprets a raw value as a point in time. Numeric values are
// epoch timestamps (milliseconds when the magnitude says so, else
// seconds); strings go through a permissive parser with timezone-naive
// results treated as UTC.
func (n *Normalizer) Parse(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case float64:
		return fromEpoch(v), true
	case int:
		return fromEpoch(float64(v)), true
	case int64:
		return fromEpoch(float64(v)), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// Project rewrites the year component to the reference year. Feb 29 of a
// leap source year normalizes to Mar 1 when the reference year is not a
// leap year.
func (n *Normalizer) Project(t time.Time) time.Time {
	return time.Date(n.year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Synthetic derives a stable date within the reference year from the
// record's text: the same text always maps to the same day offset, and
// different texts spread across the year instead of collapsing onto one
// date.
func (n *Normalizer) Synthetic(text string) time.Time {
	h := sha256.Sum256([]byte(text))
	offset := binary.BigEndian.Uint64(h[:8]) % 365
	return time.Date(n.year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(offset))
}

// fromEpoch converts an epoch timestamp to UTC time, treating large
// magnitudes as milliseconds.
func fromEpoch(ts float64) time.Time {
	if ts > msEpochThreshold {
		ts /= 1000.0
	}
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
