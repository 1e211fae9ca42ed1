package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics for executor
// monitoring, namespaced "langgraph_" so existing dashboards built
// against that namespace keep working:
//
//  1. active_tasks (gauge): one traversal's active_tasks counter, set at
//     the start of each activation by the traversal that started it. It is
//     not summed across traversals: concurrent traversals overwrite it.
//  2. visited_nodes_total (counter): cumulative activations across all
//     traversals, labeled by task_id.
//  3. activation_latency_ms (histogram): per-activation Process duration,
//     labeled by task_id, node_id, status (success/error).
//  4. cancellations_total (counter): activations that observed a
//     cancellation marker during CheckForContinue, labeled by task_id.
//  5. visit_cap_breaches_total (counter): activations refused for
//     exceeding MaxNodes, labeled by task_id.
type PrometheusMetrics struct {
	activeTasks       prometheus.Gauge
	visitedNodes      *prometheus.CounterVec
	activationLatency *prometheus.HistogramVec
	cancellations     *prometheus.CounterVec
	visitCapBreaches  *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers executor metrics with
// registry. A nil registry falls back to prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{enabled: true}

	pm.activeTasks = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "langgraph",
		Name:      "active_tasks",
		Help:      "Active activation count of the traversal that most recently started an activation",
	})

	pm.visitedNodes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "langgraph",
		Name:      "visited_nodes_total",
		Help:      "Cumulative count of node activations across all tasks",
	}, []string{"task_id"})

	pm.activationLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "langgraph",
		Name:      "activation_latency_ms",
		Help:      "Node activation duration in milliseconds, from Process dispatch to channel close",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
	}, []string{"task_id", "node_id", "status"})

	pm.cancellations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "langgraph",
		Name:      "cancellations_total",
		Help:      "Activations that stopped because of an observed cancellation marker",
	}, []string{"task_id"})

	pm.visitCapBreaches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "langgraph",
		Name:      "visit_cap_breaches_total",
		Help:      "Activations refused for exceeding the configured visit cap",
	}, []string{"task_id"})

	return pm
}

// RecordActivationLatency records one node activation's duration.
func (pm *PrometheusMetrics) RecordActivationLatency(taskID, nodeID string, latency time.Duration, status string) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.activationLatency.WithLabelValues(taskID, nodeID, status).Observe(float64(latency.Milliseconds()))
}

// IncrementVisitedNodes increments the activation counter for taskID.
func (pm *PrometheusMetrics) IncrementVisitedNodes(taskID string) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.visitedNodes.WithLabelValues(taskID).Inc()
}

// SetActiveTasks sets the current in-flight activation gauge.
func (pm *PrometheusMetrics) SetActiveTasks(count int64) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.activeTasks.Set(float64(count))
}

// IncrementCancellations records that taskID's traversal observed a
// cancellation marker.
func (pm *PrometheusMetrics) IncrementCancellations(taskID string) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.cancellations.WithLabelValues(taskID).Inc()
}

// IncrementVisitCapBreaches records that taskID's traversal was stopped by
// the visit cap.
func (pm *PrometheusMetrics) IncrementVisitCapBreaches(taskID string) {
	if pm == nil || !pm.enabled {
		return
	}
	pm.visitCapBreaches.WithLabelValues(taskID).Inc()
}

// Disable temporarily stops metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
