package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateStockLedgerEntryParams struct {
	ItemID          uuid.UUID
	ItemName        string
	TransactionType string
	Quantity        int32
	Unit            pgtype.Text
	Rate            pgtype.Numeric
	ReferenceType   pgtype.Text
	ReferenceID     pgtype.UUID
	ReferenceNo     pgtype.Text
	BalanceQty      int32
	Remarks         pgtype.Text
	CreatedBy       pgtype.UUID
}

// CreateStockLedgerEntry appends one movement to the audit trail. The ledger
// has no update or delete statements anywhere in this package.
func (q *Queries) CreateStockLedgerEntry(ctx context.Context, arg CreateStockLedgerEntryParams) (StockLedgerEntry, error) {
	var e StockLedgerEntry
	err := q.db.QueryRow(ctx, `
		INSERT INTO stock_ledger (item_id, item_name, transaction_type, quantity, unit, rate,
			reference_type, reference_id, reference_no, balance_qty, remarks, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, item_id, item_name, transaction_type, quantity, unit, rate,
			transaction_date, reference_type, reference_id, reference_no, balance_qty,
			remarks, created_by, created_at`,
		arg.ItemID, arg.ItemName, arg.TransactionType, arg.Quantity, arg.Unit, arg.Rate,
		arg.ReferenceType, arg.ReferenceID, arg.ReferenceNo, arg.BalanceQty, arg.Remarks, arg.CreatedBy,
	).Scan(&e.ID, &e.ItemID, &e.ItemName, &e.TransactionType, &e.Quantity, &e.Unit, &e.Rate,
		&e.TransactionDate, &e.ReferenceType, &e.ReferenceID, &e.ReferenceNo, &e.BalanceQty,
		&e.Remarks, &e.CreatedBy, &e.CreatedAt)
	return e, err
}

func (q *Queries) ListLedgerEntriesByItem(ctx context.Context, itemID uuid.UUID) ([]StockLedgerEntry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, item_id, item_name, transaction_type, quantity, unit, rate,
			transaction_date, reference_type, reference_id, reference_no, balance_qty,
			remarks, created_by, created_at
		FROM stock_ledger WHERE item_id = $1 ORDER BY transaction_date, created_at`,
		itemID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []StockLedgerEntry
	for rows.Next() {
		var e StockLedgerEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.ItemName, &e.TransactionType, &e.Quantity, &e.Unit, &e.Rate,
			&e.TransactionDate, &e.ReferenceType, &e.ReferenceID, &e.ReferenceNo, &e.BalanceQty,
			&e.Remarks, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
