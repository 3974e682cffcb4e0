package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/juicy-pos/api/internal/database"
	"github.com/juicy-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Principal is the resolved caller identity, extracted from the JWT by the
// handler layer.
type Principal struct {
	UserID uuid.UUID
	Name   string
	Role   string
}

func (p Principal) isAdmin() bool {
	return p.Role == enum.UserRoleAdmin
}

// canModify is the single admin-or-owner predicate used by every
// order-mutating operation.
func (p Principal) canModify(owner pgtype.UUID) bool {
	if p.isAdmin() {
		return true
	}
	return owner.Valid && uuid.UUID(owner.Bytes) == p.UserID
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order engine needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	NextOrderNumber(ctx context.Context) (int32, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	OccupyTable(ctx context.Context, arg database.OccupyTableParams) (database.Table, error)
	FreeTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	DeductStock(ctx context.Context, arg database.DeductStockParams) (int32, error)
	RestoreStock(ctx context.Context, arg database.RestoreStockParams) (int32, error)
	CreateStockLedgerEntry(ctx context.Context, arg database.CreateStockLedgerEntryParams) (database.StockLedgerEntry, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error
	UpdateOrderDetails(ctx context.Context, arg database.UpdateOrderDetailsParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CompleteOrder(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error)
	CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderItemRequest is a single line in a create or update request. Price is
// the client-supplied unit price; the staff flow trusts it as-is.
type OrderItemRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int32  `json:"quantity"`
	Price    string `json:"price"`
	Notes    string `json:"notes"`
}

// CreateOrderRequest is the validated input for creating an order. The
// financial totals are pre-computed by the client and stored as given.
type CreateOrderRequest struct {
	OrderType           string             `json:"orderType"`
	TableID             string             `json:"tableId"`
	Items               []OrderItemRequest `json:"items"`
	CustomerName        string             `json:"customerName"`
	CustomerMobile      string             `json:"customerMobile"`
	GuestCount          int32              `json:"guestCount"`
	Subtotal            string             `json:"subtotal"`
	DiscountPercent     string             `json:"discountPercent"`
	DiscountAmount      string             `json:"discountAmount"`
	GstAmount           string             `json:"gstAmount"`
	TotalAmount         string             `json:"totalAmount"`
	RoundOff            string             `json:"roundOff"`
	GrandTotal          string             `json:"grandTotal"`
	Remarks             string             `json:"remarks"`
	SpecialInstructions string             `json:"specialInstructions"`
}

// UpdateOrderRequest carries partial updates. Nil pointers mean "leave
// unchanged"; a non-nil Items slice replaces the item list wholesale.
type UpdateOrderRequest struct {
	Items               []OrderItemRequest `json:"items"`
	CustomerName        *string            `json:"customerName"`
	CustomerMobile      *string            `json:"customerMobile"`
	GuestCount          *int32             `json:"guestCount"`
	Subtotal            *string            `json:"subtotal"`
	DiscountPercent     *string            `json:"discountPercent"`
	DiscountAmount      *string            `json:"discountAmount"`
	GstAmount           *string            `json:"gstAmount"`
	TotalAmount         *string            `json:"totalAmount"`
	RoundOff            *string            `json:"roundOff"`
	GrandTotal          *string            `json:"grandTotal"`
	Remarks             *string            `json:"remarks"`
	SpecialInstructions *string            `json:"specialInstructions"`
}

// OrderResult is an order with its item lines.
type OrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// ConvertResult is the outcome of a bill conversion.
type ConvertResult struct {
	Order database.Order
	Bill  database.Bill
}

// OrderService coordinates order, table, stock and ledger mutations. Every
// operation runs inside a single transaction so an order's side effects apply
// atomically or not at all.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// checkedItem is an order line validated against the live catalog.
type checkedItem struct {
	item     database.MenuItem
	quantity int32
	price    decimal.Decimal
	notes    string
}

// CreateOrder validates, persists the order, occupies the table (Dine-In) and
// deducts stock, all in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, principal Principal, req CreateOrderRequest) (*OrderResult, error) {
	if !isValidOrderType(req.OrderType) {
		return nil, ErrInvalidOrderType
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	var tableID uuid.UUID
	if req.OrderType == enum.OrderTypeDineIn {
		if req.TableID == "" {
			return nil, ErrTableRequired
		}
		var err error
		tableID, err = uuid.Parse(req.TableID)
		if err != nil {
			return nil, ErrTableNotFound
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Dine-In: the table must exist and be free ---
	var table database.Table
	if req.OrderType == enum.OrderTypeDineIn {
		table, err = store.GetTable(ctx, tableID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableNotFound
			}
			return nil, fmt.Errorf("get table: %w", err)
		}
		if table.Status == enum.TableStatusOccupied {
			return nil, ErrTableOccupied
		}
	}

	// --- Validate items against the live catalog ---
	checked, err := s.checkItems(ctx, store, req.Items)
	if err != nil {
		return nil, err
	}

	// --- Assign the next order number ---
	seq, err := store.NextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}
	orderNo := fmt.Sprintf("ORD%05d", seq)

	guestCount := req.GuestCount
	if guestCount < 1 {
		guestCount = 1
	}

	params := database.CreateOrderParams{
		OrderNo:             orderNo,
		OrderType:           req.OrderType,
		UserID:              pgtype.UUID{Bytes: principal.UserID, Valid: true},
		UserName:            textOrNull(principal.Name),
		OrderSource:         enum.OrderSourceStaff,
		CustomerName:        textOrNull(req.CustomerName),
		CustomerMobile:      textOrNull(req.CustomerMobile),
		GuestCount:          guestCount,
		Remarks:             textOrNull(req.Remarks),
		SpecialInstructions: textOrNull(req.SpecialInstructions),
	}
	if req.OrderType == enum.OrderTypeDineIn {
		params.TableID = pgtype.UUID{Bytes: table.ID, Valid: true}
		params.TableNumber = textOrNull(table.TableNumber)
		params.TableName = textOrNull(table.TableName)
	}
	if err := applyTotals(&params, req); err != nil {
		return nil, err
	}

	order, err := store.CreateOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items, err := s.insertItems(ctx, store, order.ID, checked)
	if err != nil {
		return nil, err
	}

	// --- Occupy the table; the guard closes the double-booking race ---
	if req.OrderType == enum.OrderTypeDineIn {
		if _, err := store.OccupyTable(ctx, database.OccupyTableParams{ID: table.ID, OrderID: order.ID}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableOccupied
			}
			return nil, fmt.Errorf("occupy table: %w", err)
		}
	}

	// --- Deduct stock and write Sale entries ---
	remark := orderRemark(order)
	if err := s.deductAndRecord(ctx, store, order, checked, principal, remark); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &OrderResult{Order: order, Items: items}, nil
}

// UpdateOrder replaces the item list (when provided) and merges scalar
// fields. Old stock is restored with Return entries before the new lines are
// checked and deducted; any failure rolls the whole update back.
func (s *OrderService) UpdateOrder(ctx context.Context, principal Principal, orderID uuid.UUID, req UpdateOrderRequest) (*OrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if isTerminal(order.OrderStatus) {
		return nil, fmt.Errorf("cannot update a %s order: %w", order.OrderStatus, ErrOrderTerminal)
	}
	if !principal.canModify(order.UserID) {
		return nil, ErrNotAuthorized
	}

	if len(req.Items) > 0 {
		// Restore the old lines first so replacement lines see full stock.
		oldItems, err := store.ListOrderItems(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		if err := s.restoreAndRecord(ctx, store, order, oldItems, principal, "Order Items Updated"); err != nil {
			return nil, err
		}
		if err := store.DeleteOrderItems(ctx, orderID); err != nil {
			return nil, fmt.Errorf("delete order items: %w", err)
		}

		checked, err := s.checkItems(ctx, store, req.Items)
		if err != nil {
			return nil, err
		}
		if _, err := s.insertItems(ctx, store, orderID, checked); err != nil {
			return nil, err
		}
		if err := s.deductAndRecord(ctx, store, order, checked, principal, orderRemark(order)); err != nil {
			return nil, err
		}
	}

	params := mergeOrderDetails(order, req)
	if err := applyUpdateTotals(&params, req); err != nil {
		return nil, err
	}
	updated, err := store.UpdateOrderDetails(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	items, err := store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &OrderResult{Order: updated, Items: items}, nil
}

// allowedTransitions encodes the legal forward moves for the status
// endpoint. Completed is reachable only through bill conversion and
// Cancelled only through cancellation.
var allowedTransitions = map[string][]string{
	enum.OrderStatusActive: {enum.OrderStatusReady, enum.OrderStatusServed},
	enum.OrderStatusReady:  {enum.OrderStatusServed},
}

// UpdateOrderStatus moves an order along Active → Ready → Served. The write
// carries the status the caller validated against, so a concurrent
// transition surfaces as ErrStatusChanged instead of silently overwriting.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (*database.Order, error) {
	switch newStatus {
	case enum.OrderStatusActive, enum.OrderStatusReady, enum.OrderStatusServed:
	default:
		return nil, ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !transitionAllowed(order.OrderStatus, newStatus) {
		return nil, fmt.Errorf("cannot move order from %s to %s: %w", order.OrderStatus, newStatus, ErrIllegalTransition)
	}

	params := database.UpdateOrderStatusParams{
		ID:       orderID,
		Status:   newStatus,
		Expected: order.OrderStatus,
	}
	if newStatus == enum.OrderStatusServed {
		params.ServedTime = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	}
	updated, err := store.UpdateOrderStatus(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

// billItem is one frozen line in a bill's JSON snapshot. Cost prices stay
// out of the financial record.
type billItem struct {
	ItemID    uuid.UUID `json:"itemId"`
	ItemName  string    `json:"itemName"`
	Quantity  int32     `json:"quantity"`
	Unit      string    `json:"unit,omitempty"`
	Price     string    `json:"price"`
	ItemTotal string    `json:"itemTotal"`
}

// ConvertToBill snapshots the order into an immutable bill, completes the
// order and frees its table.
func (s *OrderService) ConvertToBill(ctx context.Context, orderID uuid.UUID, paymentMode string, paymentDetails json.RawMessage) (*ConvertResult, error) {
	if !isValidPaymentMode(paymentMode) {
		return nil, ErrInvalidPayment
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	switch order.OrderStatus {
	case enum.OrderStatusCompleted:
		return nil, ErrOrderCompleted
	case enum.OrderStatusCancelled:
		return nil, ErrConvertCancelled
	}

	lines, err := store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	snapshot := make([]billItem, 0, len(lines))
	for _, l := range lines {
		snapshot = append(snapshot, billItem{
			ItemID:    l.ItemID,
			ItemName:  l.ItemName,
			Quantity:  l.Quantity,
			Unit:      l.Unit.String,
			Price:     numericToDecimal(l.Price).StringFixed(2),
			ItemTotal: numericToDecimal(l.ItemTotal).StringFixed(2),
		})
	}
	itemsJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal bill items: %w", err)
	}

	bill, err := store.CreateBill(ctx, database.CreateBillParams{
		OrderID:         order.ID,
		OrderNo:         order.OrderNo,
		UserID:          order.UserID,
		UserName:        order.UserName,
		CustomerName:    order.CustomerName,
		CustomerMobile:  order.CustomerMobile,
		Items:           itemsJSON,
		Subtotal:        order.Subtotal,
		DiscountPercent: order.DiscountPercent,
		DiscountAmount:  order.DiscountAmount,
		GstAmount:       order.GstAmount,
		TotalAmount:     order.TotalAmount,
		RoundOff:        order.RoundOff,
		GrandTotal:      order.GrandTotal,
		PaymentMode:     paymentMode,
		PaymentDetails:  paymentDetails,
		Status:          enum.BillStatusCompleted,
		Remarks:         order.Remarks,
	})
	if err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}

	completed, err := store.CompleteOrder(ctx, database.CompleteOrderParams{ID: order.ID, BillID: bill.ID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderCompleted
		}
		return nil, fmt.Errorf("complete order: %w", err)
	}

	if order.TableID.Valid {
		if _, err := store.FreeTable(ctx, uuid.UUID(order.TableID.Bytes)); err != nil {
			return nil, fmt.Errorf("free table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &ConvertResult{Order: completed, Bill: bill}, nil
}

// CancelOrder restores tracked stock with Return entries, marks the order
// cancelled and frees its table.
func (s *OrderService) CancelOrder(ctx context.Context, principal Principal, orderID uuid.UUID, reason string) (*database.Order, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	switch order.OrderStatus {
	case enum.OrderStatusCompleted:
		return nil, ErrOrderCompleted
	case enum.OrderStatusCancelled:
		return nil, ErrOrderCancelled
	}
	if !principal.canModify(order.UserID) {
		return nil, ErrNotAuthorized
	}

	lines, err := store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	if err := s.restoreAndRecord(ctx, store, order, lines, principal, "Order Cancelled - "+reason); err != nil {
		return nil, err
	}

	remarks := "Cancelled: " + reason
	if order.Remarks.Valid && order.Remarks.String != "" {
		remarks = order.Remarks.String + "\n" + remarks
	}
	cancelled, err := store.CancelOrder(ctx, database.CancelOrderParams{
		ID:      orderID,
		Remarks: textOrNull(remarks),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if order.TableID.Valid {
		if _, err := store.FreeTable(ctx, uuid.UUID(order.TableID.Bytes)); err != nil {
			return nil, fmt.Errorf("free table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &cancelled, nil
}

// DeleteOrder hard-deletes a cancelled order. Stock and table effects were
// already unwound by the cancellation, so nothing else moves.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order: %w", err)
	}
	if order.OrderStatus != enum.OrderStatusCancelled {
		return ErrOnlyCancelledDel
	}
	if err := store.DeleteOrder(ctx, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return tx.Commit(ctx)
}

// --- Shared steps ---

// checkItems validates every requested line against the live catalog and
// pre-checks tracked stock. The authoritative guard is the conditional
// deduct; this pass exists to produce precise errors before any write.
func (s *OrderService) checkItems(ctx context.Context, store OrderStore, reqs []OrderItemRequest) ([]checkedItem, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyItems
	}
	checked := make([]checkedItem, 0, len(reqs))
	for i, r := range reqs {
		if r.Quantity < 1 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		itemID, err := uuid.Parse(r.ItemID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrItemNotFound)
		}
		item, err := store.GetMenuItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrItemNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get item: %w", i, err)
		}
		if item.CurrentStock.Valid && item.CurrentStock.Int32 < r.Quantity {
			return nil, &InsufficientStockError{
				ItemName:  item.Name,
				Available: item.CurrentStock.Int32,
				Requested: r.Quantity,
			}
		}
		price, err := decimal.NewFromString(r.Price)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidAmount)
		}
		checked = append(checked, checkedItem{item: item, quantity: r.Quantity, price: price, notes: r.Notes})
	}
	return checked, nil
}

func (s *OrderService) insertItems(ctx context.Context, store OrderStore, orderID uuid.UUID, checked []checkedItem) ([]database.OrderItem, error) {
	items := make([]database.OrderItem, 0, len(checked))
	for _, c := range checked {
		line, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   orderID,
			ItemID:    c.item.ID,
			ItemName:  c.item.Name,
			Quantity:  c.quantity,
			Unit:      c.item.Unit,
			Price:     decimalToNumeric(c.price),
			ItemTotal: decimalToNumeric(c.price.Mul(decimal.NewFromInt32(c.quantity))),
			CostPrice: c.item.CostPrice,
			Notes:     textOrNull(c.notes),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, line)
	}
	return items, nil
}

// deductAndRecord decrements tracked stock and appends one Sale entry per
// decrement. The floor guard in DeductStock makes a raced oversell surface
// as InsufficientStockError instead of negative stock.
func (s *OrderService) deductAndRecord(ctx context.Context, store OrderStore, order database.Order, checked []checkedItem, principal Principal, remark string) error {
	for _, c := range checked {
		if !c.item.CurrentStock.Valid {
			continue
		}
		balance, err := store.DeductStock(ctx, database.DeductStockParams{ID: c.item.ID, Quantity: c.quantity})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &InsufficientStockError{
					ItemName:  c.item.Name,
					Available: c.item.CurrentStock.Int32,
					Requested: c.quantity,
				}
			}
			return fmt.Errorf("deduct stock: %w", err)
		}
		if err := s.recordMovement(ctx, store, order, c.item, enum.TransactionTypeSale, c.quantity, c.price, balance, principal, remark); err != nil {
			return err
		}
	}
	return nil
}

// restoreAndRecord puts cancelled or replaced quantities back and appends
// one Return entry per tracked line. Untracked items report pgx.ErrNoRows
// from RestoreStock and are skipped.
func (s *OrderService) restoreAndRecord(ctx context.Context, store OrderStore, order database.Order, lines []database.OrderItem, principal Principal, remark string) error {
	for _, l := range lines {
		balance, err := store.RestoreStock(ctx, database.RestoreStockParams{ID: l.ItemID, Quantity: l.Quantity})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return fmt.Errorf("restore stock: %w", err)
		}
		item := database.MenuItem{ID: l.ItemID, Name: l.ItemName, Unit: l.Unit}
		if err := s.recordMovement(ctx, store, order, item, enum.TransactionTypeReturn, l.Quantity, numericToDecimal(l.Price), balance, principal, remark); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) recordMovement(ctx context.Context, store OrderStore, order database.Order, item database.MenuItem, txnType string, qty int32, rate decimal.Decimal, balance int32, principal Principal, remark string) error {
	createdBy := pgtype.UUID{}
	if principal.UserID != uuid.Nil {
		createdBy = pgtype.UUID{Bytes: principal.UserID, Valid: true}
	}
	_, err := store.CreateStockLedgerEntry(ctx, database.CreateStockLedgerEntryParams{
		ItemID:          item.ID,
		ItemName:        item.Name,
		TransactionType: txnType,
		Quantity:        qty,
		Unit:            item.Unit,
		Rate:            decimalToNumeric(rate),
		ReferenceType:   textOrNull("Order"),
		ReferenceID:     pgtype.UUID{Bytes: order.ID, Valid: true},
		ReferenceNo:     textOrNull(order.OrderNo),
		BalanceQty:      balance,
		Remarks:         textOrNull(remark),
		CreatedBy:       createdBy,
	})
	if err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}
	return nil
}

// --- Helpers ---

func isValidOrderType(s string) bool {
	switch s {
	case enum.OrderTypeDineIn, enum.OrderTypeParcel, enum.OrderTypeTakeaway:
		return true
	}
	return false
}

func isValidPaymentMode(s string) bool {
	switch s {
	case enum.PaymentModeCash, enum.PaymentModeCard, enum.PaymentModeUPI:
		return true
	}
	return false
}

func isTerminal(status string) bool {
	return status == enum.OrderStatusCompleted || status == enum.OrderStatusCancelled
}

func transitionAllowed(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// orderRemark is the human-readable ledger remark: the table number for
// Dine-In, the order type otherwise.
func orderRemark(order database.Order) string {
	if order.TableNumber.Valid {
		return "Order for Table " + order.TableNumber.String
	}
	return order.OrderType + " Order"
}

// applyTotals copies the client-supplied financial fields onto the insert
// params. Empty fields default to zero.
func applyTotals(params *database.CreateOrderParams, req CreateOrderRequest) error {
	fields := []struct {
		in  string
		out *pgtype.Numeric
	}{
		{req.Subtotal, &params.Subtotal},
		{req.DiscountPercent, &params.DiscountPercent},
		{req.DiscountAmount, &params.DiscountAmount},
		{req.GstAmount, &params.GstAmount},
		{req.TotalAmount, &params.TotalAmount},
		{req.RoundOff, &params.RoundOff},
		{req.GrandTotal, &params.GrandTotal},
	}
	for _, f := range fields {
		d := decimal.Zero
		if f.in != "" {
			var err error
			d, err = decimal.NewFromString(f.in)
			if err != nil {
				return ErrInvalidAmount
			}
		}
		*f.out = decimalToNumeric(d)
	}
	return nil
}

// mergeOrderDetails starts from the current row and overlays the request's
// present fields, so absent fields stay unchanged.
func mergeOrderDetails(order database.Order, req UpdateOrderRequest) database.UpdateOrderDetailsParams {
	params := database.UpdateOrderDetailsParams{
		ID:                  order.ID,
		CustomerName:        order.CustomerName,
		CustomerMobile:      order.CustomerMobile,
		GuestCount:          order.GuestCount,
		Subtotal:            order.Subtotal,
		DiscountPercent:     order.DiscountPercent,
		DiscountAmount:      order.DiscountAmount,
		GstAmount:           order.GstAmount,
		TotalAmount:         order.TotalAmount,
		RoundOff:            order.RoundOff,
		GrandTotal:          order.GrandTotal,
		Remarks:             order.Remarks,
		SpecialInstructions: order.SpecialInstructions,
	}
	if req.CustomerName != nil {
		params.CustomerName = textOrNull(*req.CustomerName)
	}
	if req.CustomerMobile != nil {
		params.CustomerMobile = textOrNull(*req.CustomerMobile)
	}
	if req.GuestCount != nil && *req.GuestCount >= 1 {
		params.GuestCount = *req.GuestCount
	}
	if req.Remarks != nil {
		params.Remarks = textOrNull(*req.Remarks)
	}
	if req.SpecialInstructions != nil {
		params.SpecialInstructions = textOrNull(*req.SpecialInstructions)
	}
	return params
}

func applyUpdateTotals(params *database.UpdateOrderDetailsParams, req UpdateOrderRequest) error {
	fields := []struct {
		in  *string
		out *pgtype.Numeric
	}{
		{req.Subtotal, &params.Subtotal},
		{req.DiscountPercent, &params.DiscountPercent},
		{req.DiscountAmount, &params.DiscountAmount},
		{req.GstAmount, &params.GstAmount},
		{req.TotalAmount, &params.TotalAmount},
		{req.RoundOff, &params.RoundOff},
		{req.GrandTotal, &params.GrandTotal},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		d, err := decimal.NewFromString(*f.in)
		if err != nil {
			return ErrInvalidAmount
		}
		*f.out = decimalToNumeric(d)
	}
	return nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
