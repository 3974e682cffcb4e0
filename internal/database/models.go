package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Table is a physical restaurant table.
// Invariant: Status == "Occupied" iff CurrentOrderID is set.
type Table struct {
	ID              uuid.UUID
	TableNumber     string
	TableName       string
	SeatingCapacity int32
	Location        string
	Floor           string
	Shape           string
	Status          string
	CurrentOrderID  pgtype.UUID
	IsActive        bool
	Description     pgtype.Text
	DisplayOrder    int32
	CreatedBy       pgtype.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MenuItem is a sellable catalog item. CurrentStock is NULL for untracked
// items; any stock arithmetic must first check Valid.
type MenuItem struct {
	ID            uuid.UUID
	ItemCode      string
	Name          string
	Category      string
	Price         pgtype.Numeric
	CostPrice     pgtype.Numeric
	Unit          pgtype.Text
	CurrentStock  pgtype.Int4
	MinStockAlert pgtype.Int4
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Order struct {
	ID                  uuid.UUID
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
	OrderStatus         string
	OrderDate           time.Time
	StartTime           time.Time
	ServedTime          pgtype.Timestamptz
	CompletionTime      pgtype.Timestamptz
	Remarks             pgtype.Text
	SpecialInstructions pgtype.Text
	IsPaid              bool
	BillID              pgtype.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ItemID    uuid.UUID
	ItemName  string
	Quantity  int32
	Unit      pgtype.Text
	Price     pgtype.Numeric
	ItemTotal pgtype.Numeric
	CostPrice pgtype.Numeric
	Status    string
	Notes     pgtype.Text
}

// StockLedgerEntry is an append-only audit record of one inventory movement.
// Rows are never updated or deleted.
type StockLedgerEntry struct {
	ID              uuid.UUID
	ItemID          uuid.UUID
	ItemName        string
	TransactionType string
	Quantity        int32
	Unit            pgtype.Text
	Rate            pgtype.Numeric
	TransactionDate time.Time
	ReferenceType   pgtype.Text
	ReferenceID     pgtype.UUID
	ReferenceNo     pgtype.Text
	BalanceQty      int32
	Remarks         pgtype.Text
	CreatedBy       pgtype.UUID
	CreatedAt       time.Time
}

// Bill is an immutable snapshot of an order's commercial data at conversion
// time. Items are frozen as JSON so later order edits cannot leak into the
// financial record. OrderID is unique: one bill per order, ever.
type Bill struct {
	ID              uuid.UUID
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
	CreatedAt       time.Time
}

type User struct {
	ID             uuid.UUID
	Username       string
	Name           string
	HashedPassword string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
}
