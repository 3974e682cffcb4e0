package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const billColumns = `id, order_id, order_no, user_id, user_name, customer_name, customer_mobile,
	items, subtotal, discount_percent, discount_amount, gst_amount, total_amount, round_off, grand_total,
	payment_mode, payment_details, status, remarks, created_at`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	err := row.Scan(
		&b.ID, &b.OrderID, &b.OrderNo, &b.UserID, &b.UserName, &b.CustomerName, &b.CustomerMobile,
		&b.Items, &b.Subtotal, &b.DiscountPercent, &b.DiscountAmount, &b.GstAmount, &b.TotalAmount,
		&b.RoundOff, &b.GrandTotal, &b.PaymentMode, &b.PaymentDetails, &b.Status, &b.Remarks, &b.CreatedAt,
	)
	return b, err
}

type CreateBillParams struct {
	OrderID         uuid.UUID
	OrderNo         string
	UserID          pgtype.UUID
	UserName        pgtype.Text
	CustomerName    pgtype.Text
	CustomerMobile  pgtype.Text
	Items           []byte
	Subtotal        pgtype.Numeric
	DiscountPercent pgtype.Numeric
	DiscountAmount  pgtype.Numeric
	GstAmount       pgtype.Numeric
	TotalAmount     pgtype.Numeric
	RoundOff        pgtype.Numeric
	GrandTotal      pgtype.Numeric
	PaymentMode     string
	PaymentDetails  []byte
	Status          string
	Remarks         pgtype.Text
}

// CreateBill inserts the immutable snapshot. order_id carries a unique
// constraint, so a second bill for the same order is a constraint violation
// no matter how the caller raced.
func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO bills (order_id, order_no, user_id, user_name, customer_name, customer_mobile,
			items, subtotal, discount_percent, discount_amount, gst_amount, total_amount, round_off, grand_total,
			payment_mode, payment_details, status, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+billColumns,
		arg.OrderID, arg.OrderNo, arg.UserID, arg.UserName, arg.CustomerName, arg.CustomerMobile,
		arg.Items, arg.Subtotal, arg.DiscountPercent, arg.DiscountAmount, arg.GstAmount,
		arg.TotalAmount, arg.RoundOff, arg.GrandTotal,
		arg.PaymentMode, arg.PaymentDetails, arg.Status, arg.Remarks,
	)
	return scanBill(row)
}

func (q *Queries) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	row := q.db.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id)
	return scanBill(row)
}
