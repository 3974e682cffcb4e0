package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_no, order_type, table_id, table_number, table_name,
	user_id, user_name, order_source, is_customer_order, confirmation_token,
	customer_name, customer_mobile, guest_count,
	subtotal, discount_percent, discount_amount, gst_amount, total_amount, round_off, grand_total,
	order_status, order_date, start_time, served_time, completion_time,
	remarks, special_instructions, is_paid, bill_id, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNo, &o.OrderType, &o.TableID, &o.TableNumber, &o.TableName,
		&o.UserID, &o.UserName, &o.OrderSource, &o.IsCustomerOrder, &o.ConfirmationToken,
		&o.CustomerName, &o.CustomerMobile, &o.GuestCount,
		&o.Subtotal, &o.DiscountPercent, &o.DiscountAmount, &o.GstAmount, &o.TotalAmount, &o.RoundOff, &o.GrandTotal,
		&o.OrderStatus, &o.OrderDate, &o.StartTime, &o.ServedTime, &o.CompletionTime,
		&o.Remarks, &o.SpecialInstructions, &o.IsPaid, &o.BillID, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// NextOrderNumber advances the shared order counter in one atomic statement
// and returns the new value. The upsert form self-seeds on first use, so
// concurrent creations can never observe the same number.
func (q *Queries) NextOrderNumber(ctx context.Context) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_counter (name, value) VALUES ('order_no', 1)
		ON CONFLICT (name) DO UPDATE SET value = order_counter.value + 1
		RETURNING value`,
	).Scan(&n)
	return n, err
}

type CreateOrderParams struct {
	OrderNo             string
	OrderType           string
	TableID             pgtype.UUID
	TableNumber         pgtype.Text
	TableName           pgtype.Text
	UserID              pgtype.UUID
	UserName            pgtype.Text
	OrderSource         string
	IsCustomerOrder     bool
	ConfirmationToken   pgtype.Text
	CustomerName        pgtype.Text
	CustomerMobile      pgtype.Text
	GuestCount          int32
	Subtotal            pgtype.Numeric
	DiscountPercent     pgtype.Numeric
	DiscountAmount      pgtype.Numeric
	GstAmount           pgtype.Numeric
	TotalAmount         pgtype.Numeric
	RoundOff            pgtype.Numeric
	GrandTotal          pgtype.Numeric
	Remarks             pgtype.Text
	SpecialInstructions pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (order_no, order_type, table_id, table_number, table_name,
			user_id, user_name, order_source, is_customer_order, confirmation_token,
			customer_name, customer_mobile, guest_count,
			subtotal, discount_percent, discount_amount, gst_amount, total_amount, round_off, grand_total,
			remarks, special_instructions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING `+orderColumns,
		arg.OrderNo, arg.OrderType, arg.TableID, arg.TableNumber, arg.TableName,
		arg.UserID, arg.UserName, arg.OrderSource, arg.IsCustomerOrder, arg.ConfirmationToken,
		arg.CustomerName, arg.CustomerMobile, arg.GuestCount,
		arg.Subtotal, arg.DiscountPercent, arg.DiscountAmount, arg.GstAmount, arg.TotalAmount, arg.RoundOff, arg.GrandTotal,
		arg.Remarks, arg.SpecialInstructions,
	)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	ItemID    uuid.UUID
	ItemName  string
	Quantity  int32
	Unit      pgtype.Text
	Price     pgtype.Numeric
	ItemTotal pgtype.Numeric
	CostPrice pgtype.Numeric
	Notes     pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, item_id, item_name, quantity, unit, price, item_total, cost_price, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, order_id, item_id, item_name, quantity, unit, price, item_total, cost_price, status, notes`,
		arg.OrderID, arg.ItemID, arg.ItemName, arg.Quantity, arg.Unit, arg.Price,
		arg.ItemTotal, arg.CostPrice, arg.Notes,
	).Scan(&it.ID, &it.OrderID, &it.ItemID, &it.ItemName, &it.Quantity, &it.Unit, &it.Price,
		&it.ItemTotal, &it.CostPrice, &it.Status, &it.Notes)
	return it, err
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

type ListOrdersParams struct {
	Status    pgtype.Text
	TableID   pgtype.UUID
	UserID    pgtype.UUID
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1::text IS NULL OR order_status = $1)
		  AND ($2::uuid IS NULL OR table_id = $2)
		  AND ($3::uuid IS NULL OR user_id = $3)
		  AND ($4::timestamptz IS NULL OR order_date >= $4)
		  AND ($5::timestamptz IS NULL OR order_date <= $5)
		ORDER BY order_date DESC
		LIMIT $6 OFFSET $7`,
		arg.Status, arg.TableID, arg.UserID, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, item_id, item_name, quantity, unit, price, item_total, cost_price, status, notes
		FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.ItemName, &it.Quantity, &it.Unit,
			&it.Price, &it.ItemTotal, &it.CostPrice, &it.Status, &it.Notes); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return err
}

type UpdateOrderDetailsParams struct {
	ID                  uuid.UUID
	CustomerName        pgtype.Text
	CustomerMobile      pgtype.Text
	GuestCount          int32
	Subtotal            pgtype.Numeric
	DiscountPercent     pgtype.Numeric
	DiscountAmount      pgtype.Numeric
	GstAmount           pgtype.Numeric
	TotalAmount         pgtype.Numeric
	RoundOff            pgtype.Numeric
	GrandTotal          pgtype.Numeric
	Remarks             pgtype.Text
	SpecialInstructions pgtype.Text
}

// UpdateOrderDetails rewrites the order's scalar fields. The service merges
// incoming values over the current row first, so absent request fields stay
// unchanged.
func (q *Queries) UpdateOrderDetails(ctx context.Context, arg UpdateOrderDetailsParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET customer_name = $2, customer_mobile = $3, guest_count = $4,
		    subtotal = $5, discount_percent = $6, discount_amount = $7, gst_amount = $8,
		    total_amount = $9, round_off = $10, grand_total = $11,
		    remarks = $12, special_instructions = $13, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.CustomerName, arg.CustomerMobile, arg.GuestCount,
		arg.Subtotal, arg.DiscountPercent, arg.DiscountAmount, arg.GstAmount,
		arg.TotalAmount, arg.RoundOff, arg.GrandTotal,
		arg.Remarks, arg.SpecialInstructions,
	)
	return scanOrder(row)
}

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	Expected   string
	ServedTime pgtype.Timestamptz
}

// UpdateOrderStatus writes the new status only if the row still holds the
// status the caller validated against; a raced write gets pgx.ErrNoRows.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET order_status = $2, served_time = COALESCE($4, served_time), updated_at = now()
		WHERE id = $1 AND order_status = $3
		RETURNING `+orderColumns,
		arg.ID, arg.Status, arg.Expected, arg.ServedTime,
	)
	return scanOrder(row)
}

type CompleteOrderParams struct {
	ID     uuid.UUID
	BillID uuid.UUID
}

// CompleteOrder marks an order billed. The status guard keeps conversion
// single-shot even under concurrent requests: a second conversion finds no
// matching row.
func (q *Queries) CompleteOrder(ctx context.Context, arg CompleteOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET order_status = 'Completed', completion_time = now(), is_paid = true,
		    bill_id = $2, updated_at = now()
		WHERE id = $1 AND order_status NOT IN ('Completed', 'Cancelled')
		RETURNING `+orderColumns,
		arg.ID, arg.BillID,
	)
	return scanOrder(row)
}

type CancelOrderParams struct {
	ID      uuid.UUID
	Remarks pgtype.Text
}

func (q *Queries) CancelOrder(ctx context.Context, arg CancelOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET order_status = 'Cancelled', completion_time = now(), remarks = $2, updated_at = now()
		WHERE id = $1 AND order_status NOT IN ('Completed', 'Cancelled')
		RETURNING `+orderColumns,
		arg.ID, arg.Remarks,
	)
	return scanOrder(row)
}

func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return err
}

type GetOrderStatsRow struct {
	TotalOrders    int64
	ActiveOrders   int64
	CompletedToday int64
	TodayRevenue   pgtype.Numeric
}

// GetOrderStats aggregates counts plus same-day revenue over orders
// completed since local midnight.
func (q *Queries) GetOrderStats(ctx context.Context) (GetOrderStatsRow, error) {
	var s GetOrderStatsRow
	err := q.db.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE order_status IN ('Active', 'Ready', 'Served')),
		       count(*) FILTER (WHERE order_status = 'Completed' AND completion_time >= date_trunc('day', now())),
		       COALESCE(sum(grand_total) FILTER (WHERE order_status = 'Completed' AND completion_time >= date_trunc('day', now())), 0)
		FROM orders`,
	).Scan(&s.TotalOrders, &s.ActiveOrders, &s.CompletedToday, &s.TodayRevenue)
	return s, err
}
