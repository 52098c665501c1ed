// migrate управляет схемой базы педидо: применяет и откатывает
// embedded-миграции и показывает текущую версию схемы.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/pedix/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

type options struct {
	direction string
	steps     int
	dsn       string
	timeout   time.Duration
}

func main() {
	opts, err := readOptions()
	if err != nil {
		fail("%v", err)
	}
	if err := run(opts); err != nil {
		fail("%v", err)
	}
}

func readOptions() (options, error) {
	var opts options

	flag.StringVar(&opts.direction, "direction", "up", "migration direction: up|down|status")
	flag.IntVar(&opts.steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flag.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN (fallback: PEDIX_POSTGRES_DSN)")
	flag.DurationVar(&opts.timeout, "timeout", defaultTimeout, "overall timeout for the migration run")
	flag.Parse()

	if strings.TrimSpace(opts.dsn) == "" {
		opts.dsn = strings.TrimSpace(os.Getenv("PEDIX_POSTGRES_DSN"))
	}
	if opts.dsn == "" {
		return options{}, errors.New("PEDIX_POSTGRES_DSN (or -dsn) is required")
	}
	if opts.timeout <= 0 {
		return options{}, fmt.Errorf("timeout must be positive, got %s", opts.timeout)
	}
	opts.direction = strings.ToLower(strings.TrimSpace(opts.direction))

	return opts, nil
}

func run(opts options) error {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	store, err := postgres.Open(ctx, opts.dsn)
	if err != nil {
		return fmt.Errorf("open postgres store: %w", err)
	}
	defer store.Close()

	switch opts.direction {
	case "up":
		if err := store.MigrateUp(ctx, opts.steps); err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
		return printStatus(ctx, store, "migrate up ok")
	case "down":
		steps := opts.steps
		if steps <= 0 {
			steps = 1
		}
		if err := store.MigrateDown(ctx, steps); err != nil {
			return fmt.Errorf("migrate down failed: %w", err)
		}
		return printStatus(ctx, store, "migrate down ok")
	case "status":
		return printStatus(ctx, store, "migration status")
	default:
		return fmt.Errorf("unsupported direction: %s (use up|down|status)", opts.direction)
	}
}

func printStatus(ctx context.Context, store *postgres.Store, prefix string) error {
	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	fmt.Printf("%s: version=%d applied=%d\n", prefix, version, count)
	return nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
