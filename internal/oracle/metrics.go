package oracle

import (
	"context"
	"fmt"
	"io"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Oracle-internal metric names scraped from {base}/metrics.
const (
	// Nodes currently loaded in the oracle's graph.
	metricGraphNodes = "oracle_graph_nodes"

	// Follow edges currently loaded in the oracle's graph.
	metricGraphEdges = "oracle_graph_edges"

	// Distance queries answered since start.
	metricQueriesTotal = "oracle_queries_total"

	// Queries that failed since start.
	metricQueryErrors = "oracle_query_errors_total"
)

// ServiceMetrics is the subset of the oracle's Prometheus exposition
// that watch mode tracks. Counter fields hold raw totals, not rates;
// the monitor derives rates from deltas between scrapes.
type ServiceMetrics struct {
	GraphNodes   float64
	GraphEdges   float64
	QueriesTotal float64
	QueryErrors  float64
}

// Metrics scrapes the oracle's Prometheus text endpoint and extracts
// graph size and query counters. Unlike the JSON endpoints, /metrics is
// an operational surface: a non-200 answer is a plain error, with no
// 404 translation.
func (c *Client) Metrics(ctx context.Context) (*ServiceMetrics, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/metrics", nil)
	if err != nil {
		return nil, fmt.Errorf("oracle: /metrics: build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle: /metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: "/metrics", Status: resp.StatusCode}
	}

	mfs, err := parseMetrics(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("oracle: /metrics: %w", err)
	}

	return &ServiceMetrics{
		GraphNodes:   sumFamily(mfs[metricGraphNodes]),
		GraphEdges:   sumFamily(mfs[metricGraphEdges]),
		QueriesTotal: sumFamily(mfs[metricQueriesTotal]),
		QueryErrors:  sumFamily(mfs[metricQueryErrors]),
	}, nil
}

// parseMetrics decodes a Prometheus text exposition from r into metric
// families. A partial result with a non-fatal parse warning is still
// returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a
// MetricFamily. Returns 0 if mf is nil (metric absent from the scrape).
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}
