package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
	"github.com/vladislavdragonenkov/pedix/internal/storage/memory"
	"github.com/vladislavdragonenkov/pedix/internal/storage/postgres"
)

// runtimeDependencies — репозитории, выбранные по конфигурации хранилища.
type runtimeDependencies struct {
	orders      domain.OrderRepository
	menu        domain.MenuItemRepository
	timeline    domain.TimelineRepository
	outbox      domain.OutboxRepository
	idempotency domain.IdempotencyRepository

	store *postgres.Store
}

// initRuntimeDependencies собирает репозитории поверх выбранного драйвера.
// Для postgres дополнительно выполняются миграции (если включён auto-migrate)
// и ping.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		logger.Info("using in-memory storage")
		return &runtimeDependencies{
			orders:      memory.NewOrderRepository(),
			menu:        memory.NewMenuRepository(),
			timeline:    memory.NewTimelineRepository(),
			outbox:      memory.NewOutboxRepository(),
			idempotency: memory.NewIdempotencyRepository(),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage driver requires DSN")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("ensure postgres schema: %w", err)
			}
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		logger.Info("using postgres storage")
		return &runtimeDependencies{
			orders:      postgres.NewOrderRepository(store),
			menu:        postgres.NewMenuRepository(store),
			timeline:    postgres.NewTimelineRepository(store),
			outbox:      postgres.NewOutboxRepository(store),
			idempotency: postgres.NewIdempotencyRepository(store),
			store:       store,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// close освобождает ресурсы хранилища.
func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.store == nil {
		return
	}
	if err := d.store.Close(); err != nil {
		logger.WithError(err).Warn("failed to close postgres store")
	}
}
