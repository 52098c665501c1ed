package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	httpapi "github.com/vladislavdragonenkov/pedix/internal/api/http"
	"github.com/vladislavdragonenkov/pedix/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/pedix/internal/health"
	"github.com/vladislavdragonenkov/pedix/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/pedix/internal/metrics"
	"github.com/vladislavdragonenkov/pedix/internal/service/catalog"
	"github.com/vladislavdragonenkov/pedix/internal/service/idempotency"
	"github.com/vladislavdragonenkov/pedix/internal/service/order"
	"github.com/vladislavdragonenkov/pedix/internal/service/outbox"
	"github.com/vladislavdragonenkov/pedix/internal/version"
)

// Пороги backlog outbox для health-проб. Превышение переводит
// компонент в degraded, не снимая сервис с трафика.
const (
	outboxBacklogMaxPending = 1000
	outboxBacklogMaxAge     = 5 * time.Minute
)

// Run собирает зависимости и запускает API до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	// Kafka опционален: без brokers события остаются в outbox.
	kafkaProducer, kafkaErr := initKafkaProducer(cfg.KafkaBrokers, logger)
	if kafkaErr != nil {
		logger.WithError(kafkaErr).Warn("continuing without kafka")
	}
	defer closeKafka(kafkaProducer, logger)

	lifecycle := domain.DefaultLifecycle()
	if cfg.StrictStatus {
		lifecycle = domain.StrictLifecycle()
		logger.Info("strict status transitions enabled")
	}

	orderMetrics := metrics.NewOrderMetrics()
	orderSvc := order.NewService(
		deps.orders,
		deps.menu,
		deps.timeline,
		deps.outbox,
		lifecycle,
		orderMetrics,
		logger.WithField("layer", "service"),
	)
	catalogSvc := catalog.NewService(deps.menu, logger.WithField("layer", "service"))

	apiServer := httpapi.NewServer(
		orderSvc,
		catalogSvc,
		deps.idempotency,
		orderMetrics,
		logger.WithField("layer", "http"),
	)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return deps.store.Ping(pingCtx)
		}))
	}
	healthHandler.RegisterChecker("outbox", healthcheck.NewOutboxBacklogChecker(
		"outbox",
		deps.outbox.Stats,
		outboxBacklogMaxPending,
		outboxBacklogMaxAge,
	))
	healthHandler.RegisterChecker("cardapio", healthcheck.NewCardapioChecker("cardapio", deps.menu.ListAvailable))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	workersCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, cfg.KafkaTopic)
		dlqPublisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)
		outboxWorker := outbox.NewWorker(
			deps.outbox,
			publisher,
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(dlqPublisher),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		go outboxWorker.Run(workersCtx)
	} else {
		logger.Info("outbox worker is idle: kafka is not configured")
	}

	cleanupWorker := idempotency.NewCleanupWorker(
		deps.idempotency,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup-worker")),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)
	go cleanupWorker.Run(workersCtx)

	apiSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: apiServer.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		stopWorkers()
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		stopWorkers()
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает отдельный HTTP-сервер для /metrics и health-проб.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
