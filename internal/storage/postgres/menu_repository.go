package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
)

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository создаёт PostgreSQL-реализацию MenuItemRepository.
func NewMenuRepository(store *Store) domain.MenuItemRepository {
	return &menuRepository{db: store.DB()}
}

func (r *menuRepository) Create(item domain.MenuItem) (domain.MenuItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO item_cardapio (nome, descricao, preco, categoria, disponivel, imagem_url)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`,
		item.Name, item.Description, item.Price, string(item.Category),
		item.Available, item.ImageURL,
	).Scan(&item.ID)
	if err != nil {
		return domain.MenuItem{}, fmt.Errorf("insert item cardapio: %w", err)
	}

	return item, nil
}

func (r *menuRepository) Get(id int64) (domain.MenuItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var item domain.MenuItem
	var category string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, nome, descricao, preco, categoria, disponivel, imagem_url
		FROM item_cardapio
		WHERE id = $1
	`, id).Scan(
		&item.ID, &item.Name, &item.Description, &item.Price,
		&category, &item.Available, &item.ImageURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.MenuItem{}, domain.ErrMenuItemNotFound
		}
		return domain.MenuItem{}, fmt.Errorf("select item cardapio: %w", err)
	}
	item.Category = domain.MenuCategory(category)

	return item, nil
}

func (r *menuRepository) ListAvailable() ([]domain.MenuItem, error) {
	return r.list(`
		SELECT id, nome, descricao, preco, categoria, disponivel, imagem_url
		FROM item_cardapio
		WHERE disponivel
		ORDER BY id
	`)
}

func (r *menuRepository) ListByCategory(category domain.MenuCategory) ([]domain.MenuItem, error) {
	return r.list(`
		SELECT id, nome, descricao, preco, categoria, disponivel, imagem_url
		FROM item_cardapio
		WHERE categoria = $1 AND disponivel
		ORDER BY id
	`, string(category))
}

func (r *menuRepository) Update(item domain.MenuItem) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE item_cardapio
		SET nome = $1,
		    descricao = $2,
		    preco = $3,
		    categoria = $4,
		    disponivel = $5,
		    imagem_url = $6
		WHERE id = $7
	`,
		item.Name, item.Description, item.Price, string(item.Category),
		item.Available, item.ImageURL, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item cardapio: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrMenuItemNotFound
	}
	return nil
}

func (r *menuRepository) Delete(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM item_cardapio WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item cardapio: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrMenuItemNotFound
	}
	return nil
}

func (r *menuRepository) list(query string, args ...any) ([]domain.MenuItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list item cardapio: %w", err)
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0)
	for rows.Next() {
		var item domain.MenuItem
		var category string
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Description, &item.Price,
			&category, &item.Available, &item.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("scan item cardapio: %w", err)
		}
		item.Category = domain.MenuCategory(category)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item cardapio rows: %w", err)
	}

	return items, nil
}

var _ domain.MenuItemRepository = (*menuRepository)(nil)
