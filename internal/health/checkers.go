package health

import (
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
)

// OutboxBacklogChecker следит за очередью неотправленных событий педидо.
// Растущий backlog значит, что публикация в брокер отстаёт или стоит.
type OutboxBacklogChecker struct {
	name       string
	stats      func() (domain.OutboxStats, error)
	maxPending int
	maxAge     time.Duration
}

// NewOutboxBacklogChecker создаёт проверку backlog outbox.
// Превышение maxPending или maxAge даёт degraded, недоступность
// хранилища — unhealthy.
func NewOutboxBacklogChecker(name string, stats func() (domain.OutboxStats, error), maxPending int, maxAge time.Duration) *OutboxBacklogChecker {
	return &OutboxBacklogChecker{
		name:       name,
		stats:      stats,
		maxPending: maxPending,
		maxAge:     maxAge,
	}
}

// Check собирает статистику outbox и оценивает backlog.
func (c *OutboxBacklogChecker) Check() Check {
	start := time.Now()
	stats, err := c.stats()
	duration := time.Since(start)

	if err != nil {
		return Check{
			Name:       c.name,
			Status:     StatusUnhealthy,
			Message:    err.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}

	if c.maxPending > 0 && stats.PendingCount > c.maxPending {
		return Check{
			Name:       c.name,
			Status:     StatusDegraded,
			Message:    fmt.Sprintf("%d pending events exceed limit %d", stats.PendingCount, c.maxPending),
			DurationMs: duration.Milliseconds(),
		}
	}

	if c.maxAge > 0 && !stats.OldestPendingAt.IsZero() {
		if age := time.Since(stats.OldestPendingAt); age > c.maxAge {
			return Check{
				Name:       c.name,
				Status:     StatusDegraded,
				Message:    fmt.Sprintf("oldest pending event is %s old, limit %s", age.Round(time.Second), c.maxAge),
				DurationMs: duration.Milliseconds(),
			}
		}
	}

	return Check{
		Name:       c.name,
		Status:     StatusHealthy,
		Message:    fmt.Sprintf("%d pending events", stats.PendingCount),
		DurationMs: duration.Milliseconds(),
	}
}

// CardapioChecker проверяет, что кардапио доступно и в нём есть
// хотя бы одна доступная позиция: без них создать педидо нельзя.
type CardapioChecker struct {
	name string
	list func() ([]domain.MenuItem, error)
}

// NewCardapioChecker создаёт проверку кардапио.
func NewCardapioChecker(name string, list func() ([]domain.MenuItem, error)) *CardapioChecker {
	return &CardapioChecker{name: name, list: list}
}

// Check читает доступные позиции кардапио.
func (c *CardapioChecker) Check() Check {
	start := time.Now()
	items, err := c.list()
	duration := time.Since(start)

	if err != nil {
		return Check{
			Name:       c.name,
			Status:     StatusUnhealthy,
			Message:    err.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}

	if len(items) == 0 {
		return Check{
			Name:       c.name,
			Status:     StatusDegraded,
			Message:    "cardapio has no available items",
			DurationMs: duration.Milliseconds(),
		}
	}

	return Check{
		Name:       c.name,
		Status:     StatusHealthy,
		Message:    fmt.Sprintf("%d available items", len(items)),
		DurationMs: duration.Milliseconds(),
	}
}
