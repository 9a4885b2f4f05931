package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational metrics for a harvest run.
type Metrics struct {
	// Request metrics
	RequestsTotal  atomic.Int64
	RequestsFailed atomic.Int64

	// Response metrics
	ResponsesTotal atomic.Int64
	Responses2xx   atomic.Int64
	Responses3xx   atomic.Int64
	Responses4xx   atomic.Int64
	Responses5xx   atomic.Int64

	// Record metrics
	ProductsRaw  atomic.Int64
	Products     atomic.Int64
	Testimonials atomic.Int64
	Reviews      atomic.Int64

	BytesDownloaded atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ObserveResponse records a response status code.
func (m *Metrics) ObserveResponse(statusCode int) {
	m.ResponsesTotal.Add(1)
	switch {
	case statusCode >= 200 && statusCode < 300:
		m.Responses2xx.Add(1)
	case statusCode >= 300 && statusCode < 400:
		m.Responses3xx.Add(1)
	case statusCode >= 400 && statusCode < 500:
		m.Responses4xx.Add(1)
	case statusCode >= 500:
		m.Responses5xx.Add(1)
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"shopstalk_requests_total", "Total requests made", m.RequestsTotal.Load()},
		{"shopstalk_requests_failed_total", "Total failed requests", m.RequestsFailed.Load()},
		{"shopstalk_responses_total", "Total responses received", m.ResponsesTotal.Load()},
		{"shopstalk_responses_2xx_total", "Total 2xx responses", m.Responses2xx.Load()},
		{"shopstalk_responses_3xx_total", "Total 3xx responses", m.Responses3xx.Load()},
		{"shopstalk_responses_4xx_total", "Total 4xx responses", m.Responses4xx.Load()},
		{"shopstalk_responses_5xx_total", "Total 5xx responses", m.Responses5xx.Load()},
		{"shopstalk_products_raw_total", "Total raw catalog records collected", m.ProductsRaw.Load()},
		{"shopstalk_products_total", "Total deduplicated products", m.Products.Load()},
		{"shopstalk_testimonials_total", "Total testimonials collected", m.Testimonials.Load()},
		{"shopstalk_reviews_total", "Total reviews collected", m.Reviews.Load()},
		{"shopstalk_bytes_downloaded_total", "Total bytes downloaded", m.BytesDownloaded.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_total":   m.RequestsTotal.Load(),
		"requests_failed":  m.RequestsFailed.Load(),
		"responses_total":  m.ResponsesTotal.Load(),
		"responses_2xx":    m.Responses2xx.Load(),
		"responses_4xx":    m.Responses4xx.Load(),
		"responses_5xx":    m.Responses5xx.Load(),
		"products_raw":     m.ProductsRaw.Load(),
		"products":         m.Products.Load(),
		"testimonials":     m.Testimonials.Load(),
		"reviews":          m.Reviews.Load(),
		"bytes_downloaded": m.BytesDownloaded.Load(),
	}
}
