// Package telemetry exposes Prometheus metrics for the pipeline.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing, so tests and one-off CLI runs need no
// registry.
type Metrics struct {
	classifications *prometheus.CounterVec
	validations     *prometheus.CounterVec
	merges          *prometheus.CounterVec
	externalCalls   *prometheus.CounterVec
}

// New registers the pipeline collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadpipe_classifications_total",
			Help: "Organizations classified, by resulting type and whether the AI was consulted.",
		}, []string{"org_type", "used_ai"}),
		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadpipe_validations_total",
			Help: "Contact validation decisions, by outcome.",
		}, []string{"outcome"}),
		merges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadpipe_merges_total",
			Help: "Deduplication merges performed, by entity.",
		}, []string{"entity"}),
		externalCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadpipe_external_calls_total",
			Help: "Calls to external collaborators, by collaborator and result.",
		}, []string{"collaborator", "result"}),
	}
}

// RecordClassification counts one classified organization.
func (m *Metrics) RecordClassification(orgType string, usedAI bool) {
	if m == nil {
		return
	}
	used := "false"
	if usedAI {
		used = "true"
	}
	m.classifications.WithLabelValues(orgType, used).Inc()
}

// RecordValidation counts one validation decision.
func (m *Metrics) RecordValidation(outcome string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(outcome).Inc()
}

// RecordMerge counts one deduplication merge.
func (m *Metrics) RecordMerge(entity string) {
	if m == nil {
		return
	}
	m.merges.WithLabelValues(entity).Inc()
}

// RecordExternalCall counts one collaborator call.
func (m *Metrics) RecordExternalCall(collaborator, result string) {
	if m == nil {
		return
	}
	m.externalCalls.WithLabelValues(collaborator, result).Inc()
}
