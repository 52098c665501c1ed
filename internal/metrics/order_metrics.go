package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики обработки педидо.
type OrderMetrics struct {
	// Счётчики операций
	pedidosCreated prometheus.Counter
	pedidosDeleted prometheus.Counter
	statusChanges  *prometheus.CounterVec
	itemMutations  *prometheus.CounterVec

	// Гистограмма времени обработки HTTP-запросов
	requestDuration *prometheus.HistogramVec

	// Счётчики событий timeline и outbox
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter
}

// NewOrderMetrics создаёт новый экземпляр метрик педидо.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		pedidosCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pedix_pedidos_created_total",
			Help: "Total number of pedidos created",
		}),
		pedidosDeleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pedix_pedidos_deleted_total",
			Help: "Total number of pedidos deleted",
		}),
		statusChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pedix_pedido_status_changes_total",
			Help: "Total number of pedido status transitions",
		}, []string{"status"}),
		itemMutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "pedix_pedido_item_mutations_total",
			Help: "Total number of pedido item mutations",
		}, []string{"op"}),
		requestDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "pedix_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"route", "method", "status"}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pedix_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "pedix_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordPedidoCreated увеличивает счётчик созданных педидо.
func (m *OrderMetrics) RecordPedidoCreated() {
	m.pedidosCreated.Inc()
}

// RecordPedidoDeleted увеличивает счётчик удалённых педидо.
func (m *OrderMetrics) RecordPedidoDeleted() {
	m.pedidosDeleted.Inc()
}

// RecordStatusChange увеличивает счётчик переходов в указанный статус.
func (m *OrderMetrics) RecordStatusChange(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

// RecordItemMutation увеличивает счётчик мутаций позиций (add/update/remove).
func (m *OrderMetrics) RecordItemMutation(op string) {
	m.itemMutations.WithLabelValues(op).Inc()
}

// RecordRequestDuration записывает время обработки HTTP-запроса.
func (m *OrderMetrics) RecordRequestDuration(route, method, status string, duration time.Duration) {
	m.requestDuration.WithLabelValues(route, method, status).Observe(duration.Seconds())
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
