package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Work store metrics
	ItemsClaimedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docpipeline_items_claimed_total",
			Help: "Total number of items claimed by phase",
		},
		[]string{"phase"},
	)

	ItemsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docpipeline_items_completed_total",
			Help: "Total number of items completed by phase",
		},
		[]string{"phase"},
	)

	ItemsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docpipeline_items_failed_total",
			Help: "Total number of items failed by phase and reason",
		},
		[]string{"phase", "reason"},
	)

	ClaimContentionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docpipeline_claim_contention_total",
			Help: "Total number of lock claims that lost to a concurrent owner",
		},
		[]string{"phase"},
	)

	PhaseBacklog = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "docpipeline_phase_backlog",
			Help: "Number of items awaiting a given phase",
		},
		[]string{"phase"},
	)

	// Escalation metrics
	EscalationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docpipeline_escalations_total",
			Help: "Total number of tier escalations by source and destination tier",
		},
		[]string{"from_tier", "to_tier"},
	)

	ModelConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docpipeline_model_confidence",
			Help:    "Confidence score returned by a model verdict",
			Buckets: []float64{0.1, 0.3, 0.5, 0.7, 0.8, 0.9, 0.95, 0.99, 1.0},
		},
		[]string{"tier"},
	)

	// External collaborator metrics
	ExternalModelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docpipeline_external_model_calls_total",
			Help: "Total external large-model calls by outcome",
		},
		[]string{"outcome"},
	)

	ExternalModelBudgetRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docpipeline_external_model_budget_remaining",
			Help: "Remaining external large-model call budget for the current day",
		},
	)

	ExternalModelLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docpipeline_external_model_latency_seconds",
			Help:    "Latency of external large-model calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Delivery metrics
	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docpipeline_deliveries_total",
			Help: "Total deliveries by outcome (created, duplicate, failed)",
		},
		[]string{"outcome"},
	)

	DeliveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docpipeline_delivery_duration_seconds",
			Help:    "Time taken to deliver a document in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Resource monitor metrics
	ResourceCPUPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docpipeline_resource_cpu_percent",
			Help: "Sampled CPU utilization percentage",
		},
	)

	ResourceMemoryPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docpipeline_resource_memory_percent",
			Help: "Sampled memory utilization percentage",
		},
	)

	ResourceGPUPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docpipeline_resource_gpu_percent",
			Help: "Sampled GPU utilization percentage (0 when no GPU is present)",
		},
	)

	ResourceDiskPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docpipeline_resource_disk_free_gib",
			Help: "Sampled free disk space in GiB under the work store root",
		},
	)

	ThrottleActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docpipeline_throttle_active",
			Help: "Whether the resource monitor is signaling throttle (1) or not (0)",
		},
	)

	RecommendedInstances = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "docpipeline_recommended_instances",
			Help: "Recommended worker instance count by phase",
		},
		[]string{"phase"},
	)

	// Launcher metrics
	InstancesRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "docpipeline_instances_running",
			Help: "Number of currently running worker instances by phase",
		},
		[]string{"phase"},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docpipeline_reconciliation_cycles_total",
			Help: "Total launcher reconciliation cycles run",
		},
	)

	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docpipeline_reconciliation_duration_seconds",
			Help:    "Time taken by one launcher reconciliation cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Correspondent merge metrics
	CorrespondentsMergedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docpipeline_correspondents_merged_total",
			Help: "Total correspondent records merged into a canonical primary",
		},
	)
)

func init() {
	prometheus.MustRegister(ItemsClaimedTotal)
	prometheus.MustRegister(ItemsCompletedTotal)
	prometheus.MustRegister(ItemsFailedTotal)
	prometheus.MustRegister(ClaimContentionTotal)
	prometheus.MustRegister(PhaseBacklog)

	prometheus.MustRegister(EscalationsTotal)
	prometheus.MustRegister(ModelConfidence)

	prometheus.MustRegister(ExternalModelCallsTotal)
	prometheus.MustRegister(ExternalModelBudgetRemaining)
	prometheus.MustRegister(ExternalModelLatency)

	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(DeliveryDuration)

	prometheus.MustRegister(ResourceCPUPercent)
	prometheus.MustRegister(ResourceMemoryPercent)
	prometheus.MustRegister(ResourceGPUPercent)
	prometheus.MustRegister(ResourceDiskPercent)
	prometheus.MustRegister(ThrottleActive)
	prometheus.MustRegister(RecommendedInstances)

	prometheus.MustRegister(InstancesRunning)
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(CorrespondentsMergedTotal)
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
