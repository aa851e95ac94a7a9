package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDispatchMetricsExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDispatchMetrics(reg)

	m.ObserveDocument("success", 120*time.Millisecond)
	m.IncEmail("failed")
	m.IncReceipt()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := counterValue(mfs, "documents_generated_total", "outcome", "success"); got != 1 {
		t.Fatalf("expected documents success=1, got %f", got)
	}
	if got := counterValue(mfs, "order_emails_total", "outcome", "failed"); got != 1 {
		t.Fatalf("expected emails failed=1, got %f", got)
	}
	if got := counterValue(mfs, "order_receipts_total", "", ""); got != 1 {
		t.Fatalf("expected receipts=1, got %f", got)
	}
}

func TestNilReceiverIsNoOp(t *testing.T) {
	var m *DispatchMetrics
	m.ObserveDocument("success", time.Second)
	m.IncEmail("success")
	m.IncReceipt()
}

func counterValue(mfs []*dto.MetricFamily, name, label, value string) float64 {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if label == "" {
				return metric.GetCounter().GetValue()
			}
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return -1
}
