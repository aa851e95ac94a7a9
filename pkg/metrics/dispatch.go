package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records document generation and email dispatch outcomes.
type DispatchMetrics struct {
	documentDuration *prometheus.HistogramVec
	documentTotal    *prometheus.CounterVec
	emailTotal       *prometheus.CounterVec
	receiptTotal     prometheus.Counter
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	documentDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "document_generation_seconds",
		Help:    "Duration of purchase order document generation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	documentTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_generated_total",
		Help: "Purchase order documents generated, by outcome.",
	}, []string{"outcome"})
	emailTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_emails_total",
		Help: "Purchase order dispatch attempts, by outcome.",
	}, []string{"outcome"})
	receiptTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_receipts_total",
		Help: "Delivery receipts recorded against purchase orders.",
	})
	reg.MustRegister(documentDuration, documentTotal, emailTotal, receiptTotal)
	return &DispatchMetrics{
		documentDuration: documentDuration,
		documentTotal:    documentTotal,
		emailTotal:       emailTotal,
		receiptTotal:     receiptTotal,
	}
}

// ObserveDocument records one document generation attempt.
func (d *DispatchMetrics) ObserveDocument(outcome string, duration time.Duration) {
	if d == nil || d.documentDuration == nil {
		return
	}
	label := normalizeLabel(outcome)
	d.documentDuration.WithLabelValues(label).Observe(duration.Seconds())
	d.documentTotal.WithLabelValues(label).Inc()
}

// IncEmail increments the dispatch counter for the given outcome.
func (d *DispatchMetrics) IncEmail(outcome string) {
	if d == nil || d.emailTotal == nil {
		return
	}
	d.emailTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncReceipt increments the receipts counter.
func (d *DispatchMetrics) IncReceipt() {
	if d == nil || d.receiptTotal == nil {
		return
	}
	d.receiptTotal.Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
