package metrics

import "github.com/prometheus/client_golang/prometheus"

// Sweep outcomes for a single entity.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// SweepMetrics counts the entities each reconciliation job touched.
type SweepMetrics struct {
	entities *prometheus.CounterVec
}

func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	if reg == nil {
		return &SweepMetrics{}
	}
	entities := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_entities_total",
		Help: "Entities visited by reconciliation jobs, by outcome.",
	}, []string{"job", "outcome"})
	reg.MustRegister(entities)
	return &SweepMetrics{entities: entities}
}

func (s *SweepMetrics) Add(job, outcome string, n int) {
	if s == nil || s.entities == nil || n <= 0 {
		return
	}
	s.entities.WithLabelValues(normalizeLabel(job), outcome).Add(float64(n))
}

func (s *SweepMetrics) Processed(job string) { s.Add(job, OutcomeProcessed, 1) }
func (s *SweepMetrics) Skipped(job string)   { s.Add(job, OutcomeSkipped, 1) }
func (s *SweepMetrics) Failed(job string)    { s.Add(job, OutcomeFailed, 1) }
