package metrics

import "github.com/prometheus/client_golang/prometheus"

// DispatchMetrics exposes counters/histograms for admission, dispatch jobs
// and job-tracking writes.
type DispatchMetrics struct {
	admissionsTotal  *prometheus.CounterVec
	jobsTotal        *prometheus.CounterVec
	sendsTotal       *prometheus.CounterVec
	storeWritesTotal *prometheus.CounterVec
	batchDuration    prometheus.Histogram
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		admissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contact_dispatch",
			Subsystem: "ratelimit",
			Name:      "admissions_total",
			Help:      "Rate limiter decisions",
		}, []string{"decision"}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contact_dispatch",
			Subsystem: "dispatch",
			Name:      "jobs_total",
			Help:      "Dispatch jobs by lifecycle event",
		}, []string{"event"}),
		sendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contact_dispatch",
			Subsystem: "dispatch",
			Name:      "sends_total",
			Help:      "Per-contact send attempts by outcome",
		}, []string{"outcome"}),
		storeWritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contact_dispatch",
			Subsystem: "jobstore",
			Name:      "writes_total",
			Help:      "Job record writes by phase and result",
		}, []string{"phase", "result"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "contact_dispatch",
			Subsystem: "dispatch",
			Name:      "batch_duration_seconds",
			Help:      "Time spent sending one batch, excluding the inter-batch delay",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.admissionsTotal, m.jobsTotal, m.sendsTotal, m.storeWritesTotal, m.batchDuration)
	return m
}

// ObserveAdmission records an admission decision: allowed, denied or
// fail_open.
func (m *DispatchMetrics) ObserveAdmission(decision string) {
	if m == nil {
		return
	}
	m.admissionsTotal.WithLabelValues(decision).Inc()
}

func (m *DispatchMetrics) ObserveJob(event string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(event).Inc()
}

func (m *DispatchMetrics) ObserveSend(outcome string) {
	if m == nil {
		return
	}
	m.sendsTotal.WithLabelValues(outcome).Inc()
}

func (m *DispatchMetrics) ObserveStoreWrite(phase string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeWritesTotal.WithLabelValues(phase, result).Inc()
}

func (m *DispatchMetrics) ObserveBatch(seconds float64) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(seconds)
}
