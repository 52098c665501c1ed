package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO pedido (
			comanda_id, status, observacao, total, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at
	`,
		order.TabID, string(order.Status), order.Note, order.Total,
		order.Version, now, now,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert pedido: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO pedido_item (
				pedido_id, item_cardapio_id, nome, quantidade, preco_unitario, subtotal, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id, created_at
		`,
			order.ID, line.MenuItemID, line.Name, line.Quantity,
			line.UnitPrice, line.Subtotal, now,
		).Scan(&line.ID, &line.CreatedAt)
		if err != nil {
			return domain.Order{}, fmt.Errorf("insert pedido item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit create pedido: %w", err)
	}

	return order, nil
}

func (r *orderRepository) Get(id int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getByID(ctx, id)
}

func (r *orderRepository) GetByLine(lineID int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var orderID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT pedido_id FROM pedido_item WHERE id = $1
	`, lineID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrLineNotFound
		}
		return domain.Order{}, fmt.Errorf("select pedido item owner: %w", err)
	}

	order, err := r.getByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, domain.ErrLineNotFound
		}
		return domain.Order{}, err
	}
	return order, nil
}

func (r *orderRepository) ListByTab(tabID int64, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, comanda_id, status, observacao, total, version, created_at, updated_at
		FROM pedido
		WHERE comanda_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)

	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", tabID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, tabID)
	}
	if err != nil {
		return nil, fmt.Errorf("list pedidos: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(
			&order.ID, &order.TabID, &status, &order.Note,
			&order.Total, &order.Version, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pedido row: %w", err)
		}
		order.Status = domain.OrderStatus(status)

		lines, err := r.loadLines(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Lines = lines
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pedido rows: %w", err)
	}

	return orders, nil
}

// ListLines возвращает позиции всех педидо, отсортированные по ID.
func (r *orderRepository) ListLines() ([]domain.OrderLine, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pedido_id, item_cardapio_id, nome, quantidade, preco_unitario, subtotal, created_at
		FROM pedido_item
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list pedido items: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.MenuItemID, &line.Name,
			&line.Quantity, &line.UnitPrice, &line.Subtotal, &line.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pedido item: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pedido items: %w", err)
	}

	return lines, nil
}

// Save обновляет заголовок педидо с optimistic locking и синхронизирует
// позиции: новые (ID == 0) вставляются, существующие обновляются,
// отсутствующие в агрегате удаляются.
func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE pedido
		SET comanda_id = $1,
		    status = $2,
		    observacao = $3,
		    total = $4,
		    version = version + 1,
		    updated_at = $5
		WHERE id = $6
		  AND version = $7
	`,
		order.TabID,
		string(order.Status),
		order.Note,
		order.Total,
		now,
		order.ID,
		order.Version,
	)
	if err != nil {
		return fmt.Errorf("update pedido: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.orderExistsTx(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}

	if err = r.syncLinesTx(ctx, tx, &order, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save pedido: %w", err)
	}

	return nil
}

func (r *orderRepository) Delete(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// Позиции удаляются каскадом по внешнему ключу.
	res, err := r.db.ExecContext(ctx, `DELETE FROM pedido WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pedido: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) getByID(ctx context.Context, id int64) (domain.Order, error) {
	var order domain.Order
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, comanda_id, status, observacao, total, version, created_at, updated_at
		FROM pedido
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.TabID, &status, &order.Note,
		&order.Total, &order.Version, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select pedido: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Lines = lines

	return order, nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pedido_id, item_cardapio_id, nome, quantidade, preco_unitario, subtotal, created_at
		FROM pedido_item
		WHERE pedido_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load pedido items: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.MenuItemID, &line.Name,
			&line.Quantity, &line.UnitPrice, &line.Subtotal, &line.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pedido item: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pedido items: %w", err)
	}

	return lines, nil
}

func (r *orderRepository) syncLinesTx(ctx context.Context, tx *sql.Tx, order *domain.Order, now time.Time) error {
	kept := make([]int64, 0, len(order.Lines))
	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID

		if line.ID == 0 {
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO pedido_item (
					pedido_id, item_cardapio_id, nome, quantidade, preco_unitario, subtotal, created_at
				) VALUES ($1,$2,$3,$4,$5,$6,$7)
				RETURNING id, created_at
			`,
				order.ID, line.MenuItemID, line.Name, line.Quantity,
				line.UnitPrice, line.Subtotal, now,
			).Scan(&line.ID, &line.CreatedAt); err != nil {
				return fmt.Errorf("insert pedido item: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `
				UPDATE pedido_item
				SET quantidade = $1,
				    preco_unitario = $2,
				    subtotal = $3
				WHERE id = $4
				  AND pedido_id = $5
			`,
				line.Quantity, line.UnitPrice, line.Subtotal, line.ID, order.ID,
			); err != nil {
				return fmt.Errorf("update pedido item: %w", err)
			}
		}
		kept = append(kept, line.ID)
	}

	// Удаляем позиции, которых больше нет в агрегате.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM pedido_item
		WHERE pedido_id = $1
		  AND NOT (id = ANY($2))
	`, order.ID, kept); err != nil {
		return fmt.Errorf("prune pedido items: %w", err)
	}

	return nil
}

func (r *orderRepository) orderExistsTx(ctx context.Context, tx *sql.Tx, orderID int64) (bool, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM pedido WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check pedido exists: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
