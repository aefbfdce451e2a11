// Package metrics exposes the Prometheus registry of the firstnames service.
// All metrics are defined in their respective packages (client, store, batch,
// errqueue, ratelimit) to maintain modularity and avoid circular
// dependencies.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package registers its metrics with via
// promauto.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// API Metrics (pkg/client):
//   - firstnames_api_requests_total{api, status} (Counter): Requests by API and HTTP status
//   - firstnames_api_request_duration_seconds{api} (Histogram): Request duration by API
//   - firstnames_api_errors_total{class} (Counter): Errors by class (rate_limit, server, transport)
//
// Store Metrics (pkg/store):
//   - firstnames_tracked_names (Gauge): Distinct names tracked this session
//   - firstnames_results_total{field, outcome} (Counter): Settled slots by field and outcome
//
// Batch Metrics (pkg/batch):
//   - firstnames_batch_chunks_total{field} (Counter): Chunks dispatched by field
//   - firstnames_batch_inflight_chunks (Gauge): Chunks whose API call has not settled
//
// Error Queue Metrics (pkg/errqueue):
//   - firstnames_error_messages_active (Gauge): Messages currently queued
//   - firstnames_error_messages_published_total (Counter): Messages published
//
// Quota Metrics (pkg/ratelimit):
//   - firstnames_quota_remaining{api} (Gauge): Names left in the current quota window
//   - firstnames_quota_blocks_total{api} (Counter): Requests not sent because the quota is exhausted
//
// Example Prometheus Queries:
//
//   # Chunk failure rate
//   sum(rate(firstnames_results_total{outcome="error"}[5m])) /
//   sum(rate(firstnames_results_total[5m]))
//
//   # Quota running low
//   firstnames_quota_remaining < 50
//
//   # P95 API latency
//   histogram_quantile(0.95, rate(firstnames_api_request_duration_seconds_bucket[5m]))
