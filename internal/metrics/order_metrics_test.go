package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewOrderMetrics(t *testing.T) {
	metrics := newOrderMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newOrderMetricsWithRegisterer should not return nil")
	}

	if metrics.pedidosCreated == nil {
		t.Error("pedidosCreated counter should not be nil")
	}

	if metrics.pedidosDeleted == nil {
		t.Error("pedidosDeleted counter should not be nil")
	}

	if metrics.statusChanges == nil {
		t.Error("statusChanges counter vec should not be nil")
	}

	if metrics.itemMutations == nil {
		t.Error("itemMutations counter vec should not be nil")
	}

	if metrics.requestDuration == nil {
		t.Error("requestDuration histogram vec should not be nil")
	}

	if metrics.timelineEvents == nil {
		t.Error("timelineEvents counter should not be nil")
	}

	if metrics.outboxEvents == nil {
		t.Error("outboxEvents counter should not be nil")
	}
}

func TestNewOrderMetrics_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	// Повторная регистрация должна вернуть существующие коллекторы.
	first := newOrderMetricsWithRegisterer(reg)
	second := newOrderMetricsWithRegisterer(reg)

	first.RecordPedidoCreated()
	second.RecordPedidoCreated()

	metric := &dto.Metric{}
	if err := second.pedidosCreated.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordPedidoCreated(t *testing.T) {
	reg := prometheus.NewRegistry()

	pedidosCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_pedidos_created_total",
		Help: "Test counter",
	})
	reg.MustRegister(pedidosCreated)

	metrics := &OrderMetrics{pedidosCreated: pedidosCreated}
	metrics.RecordPedidoCreated()

	metric := &dto.Metric{}
	if err := pedidosCreated.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected counter value 1.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordStatusChange(t *testing.T) {
	reg := prometheus.NewRegistry()

	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_status_changes_total",
		Help: "Test counter vec",
	}, []string{"status"})
	reg.MustRegister(statusChanges)

	metrics := &OrderMetrics{statusChanges: statusChanges}
	metrics.RecordStatusChange("PRONTO")
	metrics.RecordStatusChange("PRONTO")
	metrics.RecordStatusChange("ENTREGUE")

	metric := &dto.Metric{}
	if err := statusChanges.WithLabelValues("PRONTO").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected PRONTO counter 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordRequestDuration(t *testing.T) {
	reg := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "test_request_duration_seconds",
		Help:    "Test histogram vec",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
	reg.MustRegister(requestDuration)

	metrics := &OrderMetrics{requestDuration: requestDuration}
	metrics.RecordRequestDuration("/pedidos", "POST", "201", 42*time.Millisecond)

	metric := &dto.Metric{}
	hist, err := requestDuration.GetMetricWithLabelValues("/pedidos", "POST", "201")
	if err != nil {
		t.Fatalf("failed to get histogram: %v", err)
	}
	if err := hist.(prometheus.Histogram).Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("expected 1 observation, got %d", metric.Histogram.GetSampleCount())
	}
}
