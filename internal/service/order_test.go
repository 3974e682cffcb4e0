package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/juicy-pos/api/internal/database"
	"github.com/juicy-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	commits     int
	rollbacks   int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	m.commits++
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error {
	m.rollbacks++
	return m.rollbackErr
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx  pgx.Tx
	err error
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	return m.tx, m.err
}

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	nextOrderNumberFn    func(ctx context.Context) (int32, error)
	getTableFn           func(ctx context.Context, id uuid.UUID) (database.Table, error)
	occupyTableFn        func(ctx context.Context, arg database.OccupyTableParams) (database.Table, error)
	freeTableFn          func(ctx context.Context, id uuid.UUID) (database.Table, error)
	getMenuItemFn        func(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	deductStockFn        func(ctx context.Context, arg database.DeductStockParams) (int32, error)
	restoreStockFn       func(ctx context.Context, arg database.RestoreStockParams) (int32, error)
	createLedgerEntryFn  func(ctx context.Context, arg database.CreateStockLedgerEntryParams) (database.StockLedgerEntry, error)
	createOrderFn        func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	createOrderItemFn    func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	getOrderFn           func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOrderItemsFn     func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	deleteOrderItemsFn   func(ctx context.Context, orderID uuid.UUID) error
	updateOrderDetailsFn func(ctx context.Context, arg database.UpdateOrderDetailsParams) (database.Order, error)
	updateOrderStatusFn  func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	completeOrderFn      func(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error)
	cancelOrderFn        func(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)
	deleteOrderFn        func(ctx context.Context, id uuid.UUID) error
	createBillFn         func(ctx context.Context, arg database.CreateBillParams) (database.Bill, error)
}

func (m *mockOrderStore) NextOrderNumber(ctx context.Context) (int32, error) {
	return m.nextOrderNumberFn(ctx)
}
func (m *mockOrderStore) GetTable(ctx context.Context, id uuid.UUID) (database.Table, error) {
	return m.getTableFn(ctx, id)
}
func (m *mockOrderStore) OccupyTable(ctx context.Context, arg database.OccupyTableParams) (database.Table, error) {
	return m.occupyTableFn(ctx, arg)
}
func (m *mockOrderStore) FreeTable(ctx context.Context, id uuid.UUID) (database.Table, error) {
	return m.freeTableFn(ctx, id)
}
func (m *mockOrderStore) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	return m.getMenuItemFn(ctx, id)
}
func (m *mockOrderStore) DeductStock(ctx context.Context, arg database.DeductStockParams) (int32, error) {
	return m.deductStockFn(ctx, arg)
}
func (m *mockOrderStore) RestoreStock(ctx context.Context, arg database.RestoreStockParams) (int32, error) {
	return m.restoreStockFn(ctx, arg)
}
func (m *mockOrderStore) CreateStockLedgerEntry(ctx context.Context, arg database.CreateStockLedgerEntryParams) (database.StockLedgerEntry, error) {
	return m.createLedgerEntryFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	return m.createOrderFn(ctx, arg)
}
func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	return m.createOrderItemFn(ctx, arg)
}
func (m *mockOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.getOrderFn(ctx, id)
}
func (m *mockOrderStore) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return m.listOrderItemsFn(ctx, orderID)
}
func (m *mockOrderStore) DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error {
	return m.deleteOrderItemsFn(ctx, orderID)
}
func (m *mockOrderStore) UpdateOrderDetails(ctx context.Context, arg database.UpdateOrderDetailsParams) (database.Order, error) {
	return m.updateOrderDetailsFn(ctx, arg)
}
func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	return m.updateOrderStatusFn(ctx, arg)
}
func (m *mockOrderStore) CompleteOrder(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error) {
	return m.completeOrderFn(ctx, arg)
}
func (m *mockOrderStore) CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
	return m.cancelOrderFn(ctx, arg)
}
func (m *mockOrderStore) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return m.deleteOrderFn(ctx, id)
}
func (m *mockOrderStore) CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error) {
	return m.createBillFn(ctx, arg)
}

// --- Test helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	d := numericToDecimal(n)
	exp, _ := decimal.NewFromString(expected)
	return d.Equal(exp)
}

func trackedStock(qty int32) pgtype.Int4 {
	return pgtype.Int4{Int32: qty, Valid: true}
}

// defaultStore returns a mockOrderStore wired for a basic Dine-In order:
// table "T1" is Available, the item is "Lemonade" at 50.00 with 5 in stock.
// Individual tests override the functions they care about.
func defaultStore(tableID, itemID uuid.UUID) *mockOrderStore {
	return &mockOrderStore{
		nextOrderNumberFn: func(ctx context.Context) (int32, error) {
			return 1, nil
		},
		getTableFn: func(ctx context.Context, id uuid.UUID) (database.Table, error) {
			if id == tableID {
				return database.Table{
					ID:          tableID,
					TableNumber: "T1",
					TableName:   "Table One",
					Status:      enum.TableStatusAvailable,
					IsActive:    true,
				}, nil
			}
			return database.Table{}, pgx.ErrNoRows
		},
		occupyTableFn: func(ctx context.Context, arg database.OccupyTableParams) (database.Table, error) {
			return database.Table{
				ID:             arg.ID,
				TableNumber:    "T1",
				Status:         enum.TableStatusOccupied,
				CurrentOrderID: pgtype.UUID{Bytes: arg.OrderID, Valid: true},
			}, nil
		},
		freeTableFn: func(ctx context.Context, id uuid.UUID) (database.Table, error) {
			return database.Table{ID: id, Status: enum.TableStatusAvailable}, nil
		},
		getMenuItemFn: func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
			if id == itemID {
				return database.MenuItem{
					ID:           itemID,
					ItemCode:     "LMN",
					Name:         "Lemonade",
					Price:        makeNumeric("50.00"),
					CostPrice:    makeNumeric("20.00"),
					Unit:         pgtype.Text{String: "glass", Valid: true},
					CurrentStock: trackedStock(5),
					IsActive:     true,
				}, nil
			}
			return database.MenuItem{}, pgx.ErrNoRows
		},
		deductStockFn: func(ctx context.Context, arg database.DeductStockParams) (int32, error) {
			return 5 - arg.Quantity, nil
		},
		restoreStockFn: func(ctx context.Context, arg database.RestoreStockParams) (int32, error) {
			return 5, nil
		},
		createLedgerEntryFn: func(ctx context.Context, arg database.CreateStockLedgerEntryParams) (database.StockLedgerEntry, error) {
			return database.StockLedgerEntry{
				ID:              uuid.New(),
				ItemID:          arg.ItemID,
				ItemName:        arg.ItemName,
				TransactionType: arg.TransactionType,
				Quantity:        arg.Quantity,
				BalanceQty:      arg.BalanceQty,
				Remarks:         arg.Remarks,
			}, nil
		},
		createOrderFn: func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
			return database.Order{
				ID:          uuid.New(),
				OrderNo:     arg.OrderNo,
				OrderType:   arg.OrderType,
				TableID:     arg.TableID,
				TableNumber: arg.TableNumber,
				TableName:   arg.TableName,
				UserID:      arg.UserID,
				OrderSource: arg.OrderSource,
				OrderStatus: enum.OrderStatusActive,
				GuestCount:  arg.GuestCount,
				Subtotal:    arg.Subtotal,
				GrandTotal:  arg.GrandTotal,
			}, nil
		},
		createOrderItemFn: func(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
			return database.OrderItem{
				ID:        uuid.New(),
				OrderID:   arg.OrderID,
				ItemID:    arg.ItemID,
				ItemName:  arg.ItemName,
				Quantity:  arg.Quantity,
				Price:     arg.Price,
				ItemTotal: arg.ItemTotal,
				Status:    enum.OrderItemStatusPending,
			}, nil
		},
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			return database.Order{}, pgx.ErrNoRows
		},
		listOrderItemsFn: func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
			return nil, nil
		},
		deleteOrderItemsFn: func(ctx context.Context, orderID uuid.UUID) error {
			return nil
		},
		updateOrderDetailsFn: func(ctx context.Context, arg database.UpdateOrderDetailsParams) (database.Order, error) {
			return database.Order{
				ID:           arg.ID,
				OrderStatus:  enum.OrderStatusActive,
				CustomerName: arg.CustomerName,
				GuestCount:   arg.GuestCount,
				GrandTotal:   arg.GrandTotal,
				Remarks:      arg.Remarks,
			}, nil
		},
		updateOrderStatusFn: func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
			return database.Order{ID: arg.ID, OrderStatus: arg.Status, ServedTime: arg.ServedTime}, nil
		},
		completeOrderFn: func(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error) {
			return database.Order{
				ID:          arg.ID,
				OrderStatus: enum.OrderStatusCompleted,
				IsPaid:      true,
				BillID:      pgtype.UUID{Bytes: arg.BillID, Valid: true},
			}, nil
		},
		cancelOrderFn: func(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
			return database.Order{ID: arg.ID, OrderStatus: enum.OrderStatusCancelled, Remarks: arg.Remarks}, nil
		},
		deleteOrderFn: func(ctx context.Context, id uuid.UUID) error {
			return nil
		},
		createBillFn: func(ctx context.Context, arg database.CreateBillParams) (database.Bill, error) {
			return database.Bill{
				ID:          uuid.New(),
				OrderID:     arg.OrderID,
				OrderNo:     arg.OrderNo,
				Items:       arg.Items,
				GrandTotal:  arg.GrandTotal,
				PaymentMode: arg.PaymentMode,
				Status:      arg.Status,
			}, nil
		},
	}
}

// newTestService creates an OrderService with mocked dependencies.
func newTestService(store *mockOrderStore) (*OrderService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) OrderStore { return store }
	return NewOrderService(pool, newStore), tx
}

func staffPrincipal() Principal {
	return Principal{UserID: uuid.New(), Name: "Ravi", Role: enum.UserRoleStaff}
}

func adminPrincipal() Principal {
	return Principal{UserID: uuid.New(), Name: "Boss", Role: enum.UserRoleAdmin}
}

func dineInReq(tableID, itemID uuid.UUID) CreateOrderRequest {
	return CreateOrderRequest{
		OrderType: enum.OrderTypeDineIn,
		TableID:   tableID.String(),
		Items: []OrderItemRequest{
			{ItemID: itemID.String(), Quantity: 3, Price: "50.00"},
		},
		Subtotal:   "150.00",
		GrandTotal: "150.00",
	}
}

// =====================
// CreateOrder validation
// =====================

func TestCreateOrder_EmptyItems(t *testing.T) {
	store := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), CreateOrderRequest{
		OrderType: enum.OrderTypeTakeaway,
		Items:     nil,
	})
	if !errors.Is(err, ErrEmptyItems) {
		t.Fatalf("expected ErrEmptyItems, got: %v", err)
	}
}

func TestCreateOrder_InvalidOrderType(t *testing.T) {
	store := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), CreateOrderRequest{
		OrderType: "Delivery",
		Items:     []OrderItemRequest{{ItemID: uuid.New().String(), Quantity: 1, Price: "50.00"}},
	})
	if !errors.Is(err, ErrInvalidOrderType) {
		t.Fatalf("expected ErrInvalidOrderType, got: %v", err)
	}
}

func TestCreateOrder_DineInWithoutTable(t *testing.T) {
	store := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), CreateOrderRequest{
		OrderType: enum.OrderTypeDineIn,
		Items:     []OrderItemRequest{{ItemID: uuid.New().String(), Quantity: 1, Price: "50.00"}},
	})
	if !errors.Is(err, ErrTableRequired) {
		t.Fatalf("expected ErrTableRequired, got: %v", err)
	}
}

func TestCreateOrder_TableNotFound(t *testing.T) {
	itemID := uuid.New()
	store := defaultStore(uuid.New(), itemID)
	svc, _ := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), dineInReq(uuid.New(), itemID))
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got: %v", err)
	}
}

func TestCreateOrder_TableOccupied(t *testing.T) {
	tableID := uuid.New()
	itemID := uuid.New()
	store := defaultStore(tableID, itemID)
	store.getTableFn = func(ctx context.Context, id uuid.UUID) (database.Table, error) {
		return database.Table{ID: tableID, TableNumber: "T1", Status: enum.TableStatusOccupied}, nil
	}
	svc, _ := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), dineInReq(tableID, itemID))
	if !errors.Is(err, ErrTableOccupied) {
		t.Fatalf("expected ErrTableOccupied, got: %v", err)
	}
}

func TestCreateOrder_TableOccupiedRace(t *testing.T) {
	tableID := uuid.New()
	itemID := uuid.New()
	store := defaultStore(tableID, itemID)
	// The precheck sees Available but a concurrent order wins the
	// conditional update.
	store.occupyTableFn = func(ctx context.Context, arg database.OccupyTableParams) (database.Table, error) {
		return database.Table{}, pgx.ErrNoRows
	}
	svc, tx := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), dineInReq(tableID, itemID))
	if !errors.Is(err, ErrTableOccupied) {
		t.Fatalf("expected ErrTableOccupied, got: %v", err)
	}
	if tx.commits != 0 {
		t.Errorf("losing transaction must not commit, got %d commits", tx.commits)
	}
}

func TestCreateOrder_ZeroQuantity(t *testing.T) {
	tableID := uuid.New()
	itemID := uuid.New()
	store := defaultStore(tableID, itemID)
	svc, _ := newTestService(store)

	req := dineInReq(tableID, itemID)
	req.Items[0].Quantity = 0
	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), req)
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}
}

func TestCreateOrder_ItemNotFound(t *testing.T) {
	tableID := uuid.New()
	store := defaultStore(tableID, uuid.New()) // store knows a different item
	svc, _ := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), dineInReq(tableID, uuid.New()))
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got: %v", err)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	tableID := uuid.New()
	itemID := uuid.New()
	store := defaultStore(tableID, itemID)
	svc, _ := newTestService(store)

	req := dineInReq(tableID, itemID)
	req.Items[0].Quantity = 6 // only 5 in stock
	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), req)

	var ise *InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if ise.ItemName != "Lemonade" || ise.Available != 5 || ise.Requested != 6 {
		t.Errorf("unexpected error detail: %+v", ise)
	}
}

func TestCreateOrder_InsufficientStockRace(t *testing.T) {
	tableID := uuid.New()
	itemID := uuid.New()
	store := defaultStore(tableID, itemID)
	// Precheck passes; the guarded decrement loses to a concurrent sale.
	store.deductStockFn = func(ctx context.Context, arg database.DeductStockParams) (int32, error) {
		return 0, pgx.ErrNoRows
	}
	svc, tx := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), dineInReq(tableID, itemID))
	var ise *InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if tx.commits != 0 {
		t.Errorf("oversell must roll back, got %d commits", tx.commits)
	}
}

func TestCreateOrder_UntrackedItemNeverInsufficient(t *testing.T) {
	tableID := uuid.New()
	itemID := uuid.New()
	store := defaultStore(tableID, itemID)
	store.getMenuItemFn = func(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
		return database.MenuItem{
			ID: itemID, Name: "Masala Chai", Price: makeNumeric("20.00"), IsActive: true,
		}, nil // current_stock NULL
	}
	deducts := 0
	store.deductStockFn = func(ctx context.Context, arg database.DeductStockParams) (int32, error) {
		deducts++
		return 0, nil
	}
	ledgerEntries := 0
	store.createLedgerEntryFn = func(ctx context.Context, arg database.CreateStockLedgerEntryParams) (database.StockLedgerEntry, error) {
		ledgerEntries++
		return database.StockLedgerEntry{}, nil
	}

	svc, _ := newTestService(store)
	req := dineInReq(tableID, itemID)
	req.Items[0].Quantity = 999
	req.Items[0].Price = "20.00"
	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deducts != 0 {
		t.Errorf("untracked item must not touch stock, got %d deducts", deducts)
	}
	if ledgerEntries != 0 {
		t.Errorf("untracked item must not write ledger, got %d entries", ledgerEntries)
	}
}

// =====================
// CreateOrder side effects
// =====================

func TestCreateOrder_DineInHappyPath(t *testing.T) {
	tableID := uuid.New()
	itemID := uuid.New()
	store := defaultStore(tableID, itemID)

	var capturedOrder database.CreateOrderParams
	inner := store.createOrderFn
	store.createOrderFn = func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
		capturedOrder = arg
		return inner(ctx, arg)
	}
	var occupied *database.OccupyTableParams
	store.occupyTableFn = func(ctx context.Context, arg database.OccupyTableParams) (database.Table, error) {
		occupied = &arg
		return database.Table{ID: arg.ID, Status: enum.TableStatusOccupied}, nil
	}
	var deducted *database.DeductStockParams
	store.deductStockFn = func(ctx context.Context, arg database.DeductStockParams) (int32, error) {
		deducted = &arg
		return 5 - arg.Quantity, nil
	}
	var ledger *database.CreateStockLedgerEntryParams
	store.createLedgerEntryFn = func(ctx context.Context, arg database.CreateStockLedgerEntryParams) (database.StockLedgerEntry, error) {
		ledger = &arg
		return database.StockLedgerEntry{}, nil
	}

	svc, tx := newTestService(store)
	principal := staffPrincipal()
	result, err := svc.CreateOrder(context.Background(), principal, dineInReq(tableID, itemID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if capturedOrder.OrderNo != "ORD00001" {
		t.Errorf("order number: got %v, want ORD00001", capturedOrder.OrderNo)
	}
	if capturedOrder.OrderSource != enum.OrderSourceStaff {
		t.Errorf("order source: got %v, want Staff", capturedOrder.OrderSource)
	}
	if !capturedOrder.TableNumber.Valid || capturedOrder.TableNumber.String != "T1" {
		t.Errorf("table number snapshot: got %+v, want T1", capturedOrder.TableNumber)
	}
	if !capturedOrder.UserID.Valid || uuid.UUID(capturedOrder.UserID.Bytes) != principal.UserID {
		t.Error("order must record the creating user")
	}
	if occupied == nil {
		t.Fatal("table was not occupied")
	}
	if occupied.ID != tableID || occupied.OrderID != result.Order.ID {
		t.Errorf("occupy params: got %+v", occupied)
	}
	if deducted == nil || deducted.ID != itemID || deducted.Quantity != 3 {
		t.Errorf("deduct params: got %+v", deducted)
	}
	if ledger == nil {
		t.Fatal("no ledger entry written")
	}
	if ledger.TransactionType != enum.TransactionTypeSale {
		t.Errorf("ledger type: got %v, want Sale", ledger.TransactionType)
	}
	if ledger.BalanceQty != 2 {
		t.Errorf("ledger balance: got %d, want 2", ledger.BalanceQty)
	}
	if !ledger.Remarks.Valid || ledger.Remarks.String != "Order for Table T1" {
		t.Errorf("ledger remark: got %+v", ledger.Remarks)
	}
	if !ledger.ReferenceNo.Valid || ledger.ReferenceNo.String != "ORD00001" {
		t.Errorf("ledger reference: got %+v", ledger.ReferenceNo)
	}
	if tx.commits != 1 {
		t.Errorf("expected exactly 1 commit, got %d", tx.commits)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	if !numericEquals(result.Items[0].ItemTotal, "150.00") {
		t.Errorf("item total: got %v, want 150.00", numericToDecimal(result.Items[0].ItemTotal))
	}
}

func TestCreateOrder_TakeawaySkipsTable(t *testing.T) {
	itemID := uuid.New()
	store := defaultStore(uuid.New(), itemID)
	store.occupyTableFn = func(ctx context.Context, arg database.OccupyTableParams) (database.Table, error) {
		panic("occupy must not be called for Takeaway")
	}
	var ledger *database.CreateStockLedgerEntryParams
	store.createLedgerEntryFn = func(ctx context.Context, arg database.CreateStockLedgerEntryParams) (database.StockLedgerEntry, error) {
		ledger = &arg
		return database.StockLedgerEntry{}, nil
	}

	svc, _ := newTestService(store)
	_, err := svc.CreateOrder(context.Background(), staffPrincipal(), CreateOrderRequest{
		OrderType: enum.OrderTypeTakeaway,
		Items:     []OrderItemRequest{{ItemID: itemID.String(), Quantity: 1, Price: "50.00"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger == nil {
		t.Fatal("no ledger entry written")
	}
	if !ledger.Remarks.Valid || ledger.Remarks.String != "Takeaway Order" {
		t.Errorf("ledger remark: got %+v, want Takeaway Order", ledger.Remarks)
	}
}

// =====================
// UpdateOrder
// =====================

func activeOrder(orderID uuid.UUID, owner Principal, tableID uuid.UUID) database.Order {
	return database.Order{
		ID:          orderID,
		OrderNo:     "ORD00007",
		OrderType:   enum.OrderTypeDineIn,
		TableID:     pgtype.UUID{Bytes: tableID, Valid: true},
		TableNumber: pgtype.Text{String: "T1", Valid: true},
		UserID:      pgtype.UUID{Bytes: owner.UserID, Valid: true},
		OrderSource: enum.OrderSourceStaff,
		OrderStatus: enum.OrderStatusActive,
		GuestCount:  2,
		Subtotal:    makeNumeric("150.00"),
		GrandTotal:  makeNumeric("150.00"),
	}
}

func TestUpdateOrder_NotFound(t *testing.T) {
	store := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(store)

	_, err := svc.UpdateOrder(context.Background(), staffPrincipal(), uuid.New(), UpdateOrderRequest{})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestUpdateOrder_TerminalOrder(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := activeOrder(orderID, owner, uuid.New())
		o.OrderStatus = enum.OrderStatusCompleted
		return o, nil
	}
	svc, _ := newTestService(store)

	_, err := svc.UpdateOrder(context.Background(), owner, orderID, UpdateOrderRequest{})
	if !errors.Is(err, ErrOrderTerminal) {
		t.Fatalf("expected ErrOrderTerminal, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Completed") {
		t.Errorf("error should name the status, got: %v", err)
	}
}

func TestUpdateOrder_ForbiddenForNonOwner(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return activeOrder(orderID, owner, uuid.New()), nil
	}
	svc, _ := newTestService(store)

	_, err := svc.UpdateOrder(context.Background(), staffPrincipal(), orderID, UpdateOrderRequest{})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got: %v", err)
	}
}

func TestUpdateOrder_AdminMayEditAnyOrder(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return activeOrder(orderID, owner, uuid.New()), nil
	}
	svc, _ := newTestService(store)

	name := "Walk-in"
	_, err := svc.UpdateOrder(context.Background(), adminPrincipal(), orderID, UpdateOrderRequest{
		CustomerName: &name,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateOrder_ReplacesItemsAndRebalancesStock(t *testing.T) {
	orderID := uuid.New()
	tableID := uuid.New()
	oldItemID := uuid.New()
	newItemID := uuid.New()
	owner := staffPrincipal()

	store := defaultStore(tableID, newItemID)
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return activeOrder(orderID, owner, tableID), nil
	}
	listCalls := 0
	store.listOrderItemsFn = func(ctx context.Context, oid uuid.UUID) ([]database.OrderItem, error) {
		listCalls++
		if listCalls == 1 {
			return []database.OrderItem{{
				ID: uuid.New(), OrderID: orderID, ItemID: oldItemID, ItemName: "Old Dish",
				Quantity: 2, Price: makeNumeric("80.00"), ItemTotal: makeNumeric("160.00"),
			}}, nil
		}
		return []database.OrderItem{{
			ID: uuid.New(), OrderID: orderID, ItemID: newItemID, ItemName: "Lemonade",
			Quantity: 4, Price: makeNumeric("50.00"), ItemTotal: makeNumeric("200.00"),
		}}, nil
	}
	var restored *database.RestoreStockParams
	store.restoreStockFn = func(ctx context.Context, arg database.RestoreStockParams) (int32, error) {
		restored = &arg
		return 10, nil
	}
	var deducted *database.DeductStockParams
	store.deductStockFn = func(ctx context.Context, arg database.DeductStockParams) (int32, error) {
		deducted = &arg
		return 5 - arg.Quantity, nil
	}
	var ledgerTypes []string
	store.createLedgerEntryFn = func(ctx context.Context, arg database.CreateStockLedgerEntryParams) (database.StockLedgerEntry, error) {
		ledgerTypes = append(ledgerTypes, arg.TransactionType)
		return database.StockLedgerEntry{}, nil
	}
	deleted := false
	store.deleteOrderItemsFn = func(ctx context.Context, oid uuid.UUID) error {
		deleted = true
		return nil
	}

	svc, _ := newTestService(store)
	_, err := svc.UpdateOrder(context.Background(), owner, orderID, UpdateOrderRequest{
		Items: []OrderItemRequest{{ItemID: newItemID.String(), Quantity: 4, Price: "50.00"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if restored == nil || restored.ID != oldItemID || restored.Quantity != 2 {
		t.Errorf("old line not restored: %+v", restored)
	}
	if !deleted {
		t.Error("old item rows were not deleted")
	}
	if deducted == nil || deducted.ID != newItemID || deducted.Quantity != 4 {
		t.Errorf("new line not deducted: %+v", deducted)
	}
	want := []string{enum.TransactionTypeReturn, enum.TransactionTypeSale}
	if len(ledgerTypes) != 2 || ledgerTypes[0] != want[0] || ledgerTypes[1] != want[1] {
		t.Errorf("ledger sequence: got %v, want %v", ledgerTypes, want)
	}
}

func TestUpdateOrder_AbsentFieldsUnchanged(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	current := activeOrder(orderID, owner, uuid.New())
	current.CustomerName = pgtype.Text{String: "Asha", Valid: true}
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return current, nil
	}
	var captured database.UpdateOrderDetailsParams
	store.updateOrderDetailsFn = func(ctx context.Context, arg database.UpdateOrderDetailsParams) (database.Order, error) {
		captured = arg
		return current, nil
	}

	svc, _ := newTestService(store)
	guests := int32(4)
	_, err := svc.UpdateOrder(context.Background(), owner, orderID, UpdateOrderRequest{
		GuestCount: &guests,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.GuestCount != 4 {
		t.Errorf("guest count: got %d, want 4", captured.GuestCount)
	}
	if !captured.CustomerName.Valid || captured.CustomerName.String != "Asha" {
		t.Errorf("absent customer name must stay: got %+v", captured.CustomerName)
	}
	if !numericEquals(captured.GrandTotal, "150.00") {
		t.Errorf("absent grand total must stay: got %v", numericToDecimal(captured.GrandTotal))
	}
}

// =====================
// UpdateOrderStatus
// =====================

func TestUpdateOrderStatus_InvalidValue(t *testing.T) {
	store := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(store)

	_, err := svc.UpdateOrderStatus(context.Background(), uuid.New(), enum.OrderStatusCompleted)
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("Completed must be unreachable via the status endpoint, got: %v", err)
	}
}

func TestUpdateOrderStatus_IllegalTransition(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := activeOrder(orderID, owner, uuid.New())
		o.OrderStatus = enum.OrderStatusServed
		return o, nil
	}
	svc, _ := newTestService(store)

	_, err := svc.UpdateOrderStatus(context.Background(), orderID, enum.OrderStatusReady)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got: %v", err)
	}
}

func TestUpdateOrderStatus_ServedSetsServedTime(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := activeOrder(orderID, owner, uuid.New())
		o.OrderStatus = enum.OrderStatusReady
		return o, nil
	}
	var captured database.UpdateOrderStatusParams
	store.updateOrderStatusFn = func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
		captured = arg
		return database.Order{ID: arg.ID, OrderStatus: arg.Status, ServedTime: arg.ServedTime}, nil
	}
	svc, _ := newTestService(store)

	updated, err := svc.UpdateOrderStatus(context.Background(), orderID, enum.OrderStatusServed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Expected != enum.OrderStatusReady {
		t.Errorf("expected-status guard: got %v, want Ready", captured.Expected)
	}
	if !updated.ServedTime.Valid {
		t.Error("served_time must be set when moving to Served")
	}
}

func TestUpdateOrderStatus_RacedTransition(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return activeOrder(orderID, owner, uuid.New()), nil
	}
	store.updateOrderStatusFn = func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}
	svc, _ := newTestService(store)

	_, err := svc.UpdateOrderStatus(context.Background(), orderID, enum.OrderStatusReady)
	if !errors.Is(err, ErrStatusChanged) {
		t.Fatalf("expected ErrStatusChanged, got: %v", err)
	}
}

// =====================
// ConvertToBill
// =====================

func TestConvertToBill_InvalidPaymentMode(t *testing.T) {
	store := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(store)

	_, err := svc.ConvertToBill(context.Background(), uuid.New(), "Cheque", nil)
	if !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("expected ErrInvalidPayment, got: %v", err)
	}
}

func TestConvertToBill_AlreadyCompleted(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := activeOrder(orderID, owner, uuid.New())
		o.OrderStatus = enum.OrderStatusCompleted
		return o, nil
	}
	svc, _ := newTestService(store)

	_, err := svc.ConvertToBill(context.Background(), orderID, enum.PaymentModeCash, nil)
	if !errors.Is(err, ErrOrderCompleted) {
		t.Fatalf("expected ErrOrderCompleted, got: %v", err)
	}
}

func TestConvertToBill_CancelledOrder(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := activeOrder(orderID, owner, uuid.New())
		o.OrderStatus = enum.OrderStatusCancelled
		return o, nil
	}
	svc, _ := newTestService(store)

	_, err := svc.ConvertToBill(context.Background(), orderID, enum.PaymentModeCash, nil)
	if !errors.Is(err, ErrConvertCancelled) {
		t.Fatalf("expected ErrConvertCancelled, got: %v", err)
	}
}

func TestConvertToBill_HappyPath(t *testing.T) {
	orderID := uuid.New()
	tableID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(tableID, uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return activeOrder(orderID, owner, tableID), nil
	}
	store.listOrderItemsFn = func(ctx context.Context, oid uuid.UUID) ([]database.OrderItem, error) {
		return []database.OrderItem{{
			ID: uuid.New(), OrderID: orderID, ItemID: uuid.New(), ItemName: "Lemonade",
			Quantity: 3, Price: makeNumeric("50.00"), ItemTotal: makeNumeric("150.00"),
			CostPrice: makeNumeric("20.00"),
		}}, nil
	}
	var capturedBill database.CreateBillParams
	store.createBillFn = func(ctx context.Context, arg database.CreateBillParams) (database.Bill, error) {
		capturedBill = arg
		return database.Bill{ID: uuid.New(), OrderID: arg.OrderID, OrderNo: arg.OrderNo,
			GrandTotal: arg.GrandTotal, PaymentMode: arg.PaymentMode, Status: arg.Status}, nil
	}
	var completed *database.CompleteOrderParams
	store.completeOrderFn = func(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error) {
		completed = &arg
		return database.Order{ID: arg.ID, OrderStatus: enum.OrderStatusCompleted, IsPaid: true,
			BillID: pgtype.UUID{Bytes: arg.BillID, Valid: true}}, nil
	}
	var freedTable *uuid.UUID
	store.freeTableFn = func(ctx context.Context, id uuid.UUID) (database.Table, error) {
		freedTable = &id
		return database.Table{ID: id, Status: enum.TableStatusAvailable}, nil
	}

	svc, tx := newTestService(store)
	result, err := svc.ConvertToBill(context.Background(), orderID, enum.PaymentModeCash, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if capturedBill.PaymentMode != enum.PaymentModeCash {
		t.Errorf("payment mode: got %v, want Cash", capturedBill.PaymentMode)
	}
	if capturedBill.Status != enum.BillStatusCompleted {
		t.Errorf("bill status: got %v, want Completed", capturedBill.Status)
	}
	if !numericEquals(capturedBill.GrandTotal, "150.00") {
		t.Errorf("bill grand total: got %v, want 150.00", numericToDecimal(capturedBill.GrandTotal))
	}
	if !strings.Contains(string(capturedBill.Items), "Lemonade") {
		t.Errorf("bill items snapshot missing line: %s", capturedBill.Items)
	}
	if strings.Contains(string(capturedBill.Items), "20.00") {
		t.Errorf("bill items snapshot must not carry cost prices: %s", capturedBill.Items)
	}
	if completed == nil || completed.ID != orderID {
		t.Errorf("order not completed: %+v", completed)
	}
	if freedTable == nil || *freedTable != tableID {
		t.Errorf("table not freed: %+v", freedTable)
	}
	if !result.Order.IsPaid {
		t.Error("order must be marked paid")
	}
	if tx.commits != 1 {
		t.Errorf("expected exactly 1 commit, got %d", tx.commits)
	}
}

func TestConvertToBill_SecondConversionConflicts(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return activeOrder(orderID, owner, uuid.New()), nil
	}
	// The guarded UPDATE finds no Active row: a concurrent conversion won.
	store.completeOrderFn = func(ctx context.Context, arg database.CompleteOrderParams) (database.Order, error) {
		return database.Order{}, pgx.ErrNoRows
	}
	svc, tx := newTestService(store)

	_, err := svc.ConvertToBill(context.Background(), orderID, enum.PaymentModeCard, nil)
	if !errors.Is(err, ErrOrderCompleted) {
		t.Fatalf("expected ErrOrderCompleted, got: %v", err)
	}
	if tx.commits != 0 {
		t.Errorf("losing conversion must roll back, got %d commits", tx.commits)
	}
}

// =====================
// CancelOrder
// =====================

func TestCancelOrder_ReasonRequired(t *testing.T) {
	store := defaultStore(uuid.New(), uuid.New())
	svc, _ := newTestService(store)

	_, err := svc.CancelOrder(context.Background(), staffPrincipal(), uuid.New(), "")
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got: %v", err)
	}
}

func TestCancelOrder_AlreadyCancelled(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := activeOrder(orderID, owner, uuid.New())
		o.OrderStatus = enum.OrderStatusCancelled
		return o, nil
	}
	svc, _ := newTestService(store)

	_, err := svc.CancelOrder(context.Background(), owner, orderID, "changed mind")
	if !errors.Is(err, ErrOrderCancelled) {
		t.Fatalf("expected ErrOrderCancelled, got: %v", err)
	}
}

func TestCancelOrder_RestoresStockAndFreesTable(t *testing.T) {
	orderID := uuid.New()
	tableID := uuid.New()
	itemID := uuid.New()
	owner := staffPrincipal()

	store := defaultStore(tableID, itemID)
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return activeOrder(orderID, owner, tableID), nil
	}
	store.listOrderItemsFn = func(ctx context.Context, oid uuid.UUID) ([]database.OrderItem, error) {
		return []database.OrderItem{{
			ID: uuid.New(), OrderID: orderID, ItemID: itemID, ItemName: "Lemonade",
			Quantity: 3, Price: makeNumeric("50.00"), ItemTotal: makeNumeric("150.00"),
		}}, nil
	}
	var restored *database.RestoreStockParams
	store.restoreStockFn = func(ctx context.Context, arg database.RestoreStockParams) (int32, error) {
		restored = &arg
		return 5, nil
	}
	var ledger *database.CreateStockLedgerEntryParams
	store.createLedgerEntryFn = func(ctx context.Context, arg database.CreateStockLedgerEntryParams) (database.StockLedgerEntry, error) {
		ledger = &arg
		return database.StockLedgerEntry{}, nil
	}
	var capturedCancel database.CancelOrderParams
	store.cancelOrderFn = func(ctx context.Context, arg database.CancelOrderParams) (database.Order, error) {
		capturedCancel = arg
		return database.Order{ID: arg.ID, OrderStatus: enum.OrderStatusCancelled, Remarks: arg.Remarks}, nil
	}
	var freedTable *uuid.UUID
	store.freeTableFn = func(ctx context.Context, id uuid.UUID) (database.Table, error) {
		freedTable = &id
		return database.Table{ID: id, Status: enum.TableStatusAvailable}, nil
	}

	svc, _ := newTestService(store)
	cancelled, err := svc.CancelOrder(context.Background(), owner, orderID, "customer left")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if restored == nil || restored.ID != itemID || restored.Quantity != 3 {
		t.Errorf("stock not restored: %+v", restored)
	}
	if ledger == nil || ledger.TransactionType != enum.TransactionTypeReturn {
		t.Fatalf("expected a Return ledger entry, got: %+v", ledger)
	}
	if ledger.BalanceQty != 5 {
		t.Errorf("ledger balance: got %d, want 5", ledger.BalanceQty)
	}
	if !ledger.Remarks.Valid || ledger.Remarks.String != "Order Cancelled - customer left" {
		t.Errorf("ledger remark: got %+v", ledger.Remarks)
	}
	if !strings.Contains(capturedCancel.Remarks.String, "Cancelled: customer left") {
		t.Errorf("order remarks: got %+v", capturedCancel.Remarks)
	}
	if freedTable == nil || *freedTable != tableID {
		t.Errorf("table not freed: %+v", freedTable)
	}
	if cancelled.OrderStatus != enum.OrderStatusCancelled {
		t.Errorf("order status: got %v, want Cancelled", cancelled.OrderStatus)
	}
}

func TestCancelOrder_UntrackedItemsSkipLedger(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	order := activeOrder(orderID, owner, uuid.New())
	order.TableID = pgtype.UUID{}
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return order, nil
	}
	store.listOrderItemsFn = func(ctx context.Context, oid uuid.UUID) ([]database.OrderItem, error) {
		return []database.OrderItem{{
			ID: uuid.New(), OrderID: orderID, ItemID: uuid.New(), ItemName: "Masala Chai",
			Quantity: 2, Price: makeNumeric("20.00"),
		}}, nil
	}
	// Untracked items report no rows from the conditional restore.
	store.restoreStockFn = func(ctx context.Context, arg database.RestoreStockParams) (int32, error) {
		return 0, pgx.ErrNoRows
	}
	ledgerEntries := 0
	store.createLedgerEntryFn = func(ctx context.Context, arg database.CreateStockLedgerEntryParams) (database.StockLedgerEntry, error) {
		ledgerEntries++
		return database.StockLedgerEntry{}, nil
	}

	svc, _ := newTestService(store)
	_, err := svc.CancelOrder(context.Background(), owner, orderID, "kitchen closed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledgerEntries != 0 {
		t.Errorf("untracked item must not write ledger, got %d entries", ledgerEntries)
	}
}

// =====================
// DeleteOrder
// =====================

func TestDeleteOrder_OnlyCancelled(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		return activeOrder(orderID, owner, uuid.New()), nil
	}
	svc, _ := newTestService(store)

	err := svc.DeleteOrder(context.Background(), orderID)
	if !errors.Is(err, ErrOnlyCancelledDel) {
		t.Fatalf("expected ErrOnlyCancelledDel, got: %v", err)
	}
}

func TestDeleteOrder_CancelledOrderDeleted(t *testing.T) {
	orderID := uuid.New()
	owner := staffPrincipal()
	store := defaultStore(uuid.New(), uuid.New())
	store.getOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		o := activeOrder(orderID, owner, uuid.New())
		o.OrderStatus = enum.OrderStatusCancelled
		return o, nil
	}
	deleted := false
	store.deleteOrderFn = func(ctx context.Context, id uuid.UUID) error {
		deleted = true
		return nil
	}
	svc, _ := newTestService(store)

	if err := svc.DeleteOrder(context.Background(), orderID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("order was not deleted")
	}
}
