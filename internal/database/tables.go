package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, table_number, table_name, seating_capacity, location, floor, shape,
	status, current_order_id, is_active, description, display_order, created_by, created_at, updated_at`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(
		&t.ID, &t.TableNumber, &t.TableName, &t.SeatingCapacity, &t.Location, &t.Floor, &t.Shape,
		&t.Status, &t.CurrentOrderID, &t.IsActive, &t.Description, &t.DisplayOrder, &t.CreatedBy,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

type CreateTableParams struct {
	TableNumber     string
	TableName       string
	SeatingCapacity int32
	Location        string
	Floor           string
	Shape           string
	Description     pgtype.Text
	DisplayOrder    int32
	CreatedBy       pgtype.UUID
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tables (table_number, table_name, seating_capacity, location, floor, shape, description, display_order, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+tableColumns,
		arg.TableNumber, arg.TableName, arg.SeatingCapacity, arg.Location, arg.Floor, arg.Shape,
		arg.Description, arg.DisplayOrder, arg.CreatedBy,
	)
	return scanTable(row)
}

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	row := q.db.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE id = $1`, id)
	return scanTable(row)
}

// GetTableByNumber looks a table up by its natural key. Used for the explicit
// duplicate check before insert/update; table numbers are stored uppercase.
func (q *Queries) GetTableByNumber(ctx context.Context, tableNumber string) (Table, error) {
	row := q.db.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE table_number = $1`, tableNumber)
	return scanTable(row)
}

type ListTablesParams struct {
	Status   pgtype.Text
	Floor    pgtype.Text
	Location pgtype.Text
	IsActive pgtype.Bool
}

func (q *Queries) ListTables(ctx context.Context, arg ListTablesParams) ([]Table, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+tableColumns+` FROM tables
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR floor = $2)
		  AND ($3::text IS NULL OR location = $3)
		  AND ($4::boolean IS NULL OR is_active = $4)
		ORDER BY display_order, table_number`,
		arg.Status, arg.Floor, arg.Location, arg.IsActive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type UpdateTableParams struct {
	ID              uuid.UUID
	TableNumber     string
	TableName       string
	SeatingCapacity int32
	Location        string
	Floor           string
	Shape           string
	Description     pgtype.Text
	DisplayOrder    int32
	IsActive        bool
}

func (q *Queries) UpdateTable(ctx context.Context, arg UpdateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET table_number = $2, table_name = $3, seating_capacity = $4, location = $5,
		    floor = $6, shape = $7, description = $8, display_order = $9, is_active = $10,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+tableColumns,
		arg.ID, arg.TableNumber, arg.TableName, arg.SeatingCapacity, arg.Location,
		arg.Floor, arg.Shape, arg.Description, arg.DisplayOrder, arg.IsActive,
	)
	return scanTable(row)
}

func (q *Queries) DeleteTable(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM tables WHERE id = $1`, id)
	return err
}

type UpdateTableStatusParams struct {
	ID     uuid.UUID
	Status string
}

// UpdateTableStatus is the admin status update. Setting a table Available
// always clears its current order reference.
func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET status = $2,
		    current_order_id = CASE WHEN $2 = 'Available' THEN NULL ELSE current_order_id END,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+tableColumns,
		arg.ID, arg.Status,
	)
	return scanTable(row)
}

type OccupyTableParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

// OccupyTable atomically claims a table for an order. The status guard makes
// the not-occupied check and the write a single statement, so two concurrent
// orders cannot both seat the same table; the loser gets pgx.ErrNoRows.
func (q *Queries) OccupyTable(ctx context.Context, arg OccupyTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET status = 'Occupied', current_order_id = $2, updated_at = now()
		WHERE id = $1 AND status <> 'Occupied'
		RETURNING `+tableColumns,
		arg.ID, arg.OrderID,
	)
	return scanTable(row)
}

// FreeTable releases a table after billing or cancellation, unconditionally.
func (q *Queries) FreeTable(ctx context.Context, id uuid.UUID) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET status = 'Available', current_order_id = NULL, updated_at = now()
		WHERE id = $1
		RETURNING `+tableColumns,
		id,
	)
	return scanTable(row)
}

type GetTableStatsRow struct {
	TotalTables     int64
	AvailableTables int64
	OccupiedTables  int64
	ReservedTables  int64
}

func (q *Queries) GetTableStats(ctx context.Context) (GetTableStatsRow, error) {
	var s GetTableStatsRow
	err := q.db.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'Available'),
		       count(*) FILTER (WHERE status = 'Occupied'),
		       count(*) FILTER (WHERE status = 'Reserved')
		FROM tables
		WHERE is_active`,
	).Scan(&s.TotalTables, &s.AvailableTables, &s.OccupiedTables, &s.ReservedTables)
	return s, err
}
