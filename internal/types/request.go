package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request represents a single HTTP request to be executed by a fetcher.
type Request struct {
	// URL is the target URL without query parameters.
	URL *url.URL

	// Query holds query parameters appended at fetch time.
	Query url.Values

	// Headers are per-request headers merged over the fetcher's base
	// header set. A request header wins on conflict.
	Headers http.Header

	// Timeout overrides the fetcher's default request timeout when > 0.
	Timeout time.Duration

	// Tag categorizes the request for logging ("listing", "testimonials",
	// "reviews", "detail").
	Tag string

	// CreatedAt is when this request was created.
	CreatedAt time.Time
}

// NewRequest creates a Request for the given URL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidURL, rawURL)
	}

	return &Request{
		URL:       u,
		Query:     make(url.Values),
		Headers:   make(http.Header),
		CreatedAt: time.Now(),
	}, nil
}

// URLString returns the full request URL including encoded query
// parameters merged with any already present on the URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	u := *r.URL
	if len(r.Query) > 0 {
		q := u.Query()
		for k, vals := range r.Query {
			for _, v := range vals {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// SetQuery sets a single query parameter.
func (r *Request) SetQuery(key, value string) {
	if r.Query == nil {
		r.Query = make(url.Values)
	}
	r.Query.Set(key, value)
}

// SetHeader sets a single request header.
func (r *Request) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(http.Header)
	}
	r.Headers.Set(key, value)
}

// Clone creates a deep copy of the request.
func (r *Request) Clone() *Request {
	clone := *r
	if r.URL != nil {
		u := *r.URL
		clone.URL = &u
	}
	clone.Headers = r.Headers.Clone()
	clone.Query = make(url.Values, len(r.Query))
	for k, vals := range r.Query {
		clone.Query[k] = append([]string(nil), vals...)
	}
	return &clone
}
