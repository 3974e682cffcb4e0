package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, item_code, name, category, price, cost_price, unit,
	current_stock, min_stock_alert, is_active, created_at, updated_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(
		&m.ID, &m.ItemCode, &m.Name, &m.Category, &m.Price, &m.CostPrice, &m.Unit,
		&m.CurrentStock, &m.MinStockAlert, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

type CreateMenuItemParams struct {
	ItemCode      string
	Name          string
	Category      string
	Price         pgtype.Numeric
	CostPrice     pgtype.Numeric
	Unit          pgtype.Text
	CurrentStock  pgtype.Int4
	MinStockAlert pgtype.Int4
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_items (item_code, name, category, price, cost_price, unit, current_stock, min_stock_alert)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+menuItemColumns,
		arg.ItemCode, arg.Name, arg.Category, arg.Price, arg.CostPrice, arg.Unit,
		arg.CurrentStock, arg.MinStockAlert,
	)
	return scanMenuItem(row)
}

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id)
	return scanMenuItem(row)
}

type DeductStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

// DeductStock decrements a tracked item's stock with a floor guard in the
// same statement. Two concurrent sales cannot both pass a stale sufficiency
// check: whichever would drive the stock negative gets pgx.ErrNoRows instead
// of committing. Returns the post-decrement balance.
func (q *Queries) DeductStock(ctx context.Context, arg DeductStockParams) (int32, error) {
	var balance int32
	err := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET current_stock = current_stock - $2, updated_at = now()
		WHERE id = $1 AND current_stock >= $2
		RETURNING current_stock`,
		arg.ID, arg.Quantity,
	).Scan(&balance)
	return balance, err
}

type RestoreStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

// RestoreStock increments a tracked item's stock. Untracked items
// (current_stock IS NULL) are left untouched and report pgx.ErrNoRows.
func (q *Queries) RestoreStock(ctx context.Context, arg RestoreStockParams) (int32, error) {
	var balance int32
	err := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET current_stock = current_stock + $2, updated_at = now()
		WHERE id = $1 AND current_stock IS NOT NULL
		RETURNING current_stock`,
		arg.ID, arg.Quantity,
	).Scan(&balance)
	return balance, err
}
