package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
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

// PublicOrderItemRequest is one line of a QR-flow order. Price is what the
// customer's menu showed; it must match the catalog exactly.
type PublicOrderItemRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int32  `json:"quantity"`
	Price    string `json:"price"`
	Notes    string `json:"notes"`
}

// CreatePublicOrderRequest is the unauthenticated order input. Totals are
// never taken from the client on this path; they are recomputed from the
// verified catalog prices.
type CreatePublicOrderRequest struct {
	TableID        string                   `json:"tableId"`
	Items          []PublicOrderItemRequest `json:"items"`
	CustomerName   string                   `json:"customerName"`
	CustomerMobile string                   `json:"customerMobile"`
	GuestCount     int32                    `json:"guestCount"`
}

// PublicOrderResult is the creation response: a customer-safe summary plus
// the confirmation token, the only credential for the follow-up read.
type PublicOrderResult struct {
	Order             database.Order
	Items             []database.OrderItem
	ConfirmationToken string
}

// PublicOrderView is the token-gated confirmation projection. It carries no
// cost prices, user identifiers or other internal data.
type PublicOrderView struct {
	OrderNo      string            `json:"orderNo"`
	OrderType    string            `json:"orderType"`
	TableNumber  string            `json:"tableNumber,omitempty"`
	TableName    string            `json:"tableName,omitempty"`
	CustomerName string            `json:"customerName,omitempty"`
	OrderStatus  string            `json:"orderStatus"`
	Items        []PublicOrderLine `json:"items"`
	Subtotal     string            `json:"subtotal"`
	GrandTotal   string            `json:"grandTotal"`
	OrderDate    time.Time         `json:"orderDate"`
}

// PublicOrderLine is one confirmation line.
type PublicOrderLine struct {
	ItemName  string `json:"itemName"`
	Quantity  int32  `json:"quantity"`
	Price     string `json:"price"`
	ItemTotal string `json:"itemTotal"`
}

// PublicOrderService is the restricted-capability entry into the order
// engine for the QR flow.
type PublicOrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

// NewPublicOrderService creates a PublicOrderService. store is a pool-backed
// OrderStore for reads outside transactions.
func NewPublicOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *PublicOrderService {
	return &PublicOrderService{pool: pool, store: store, newStore: newStore}
}

// CreatePublicOrder places a Dine-In order from the table's QR page. Items
// are re-verified against the live catalog, including an exact price match,
// before any stock moves.
func (s *PublicOrderService) CreatePublicOrder(ctx context.Context, req CreatePublicOrderRequest) (*PublicOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		return nil, ErrTableNotFound
	}

	token, err := newConfirmationToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}
	if !table.IsActive {
		return nil, ErrTableInactive
	}
	if table.Status == enum.TableStatusOccupied {
		return nil, ErrTableOccupied
	}

	checked, subtotal, err := s.checkPublicItems(ctx, store, req.Items)
	if err != nil {
		return nil, err
	}

	seq, err := store.NextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}

	guestCount := req.GuestCount
	if guestCount < 1 {
		guestCount = 1
	}

	params := database.CreateOrderParams{
		OrderNo:           fmt.Sprintf("ORD%05d", seq),
		OrderType:         enum.OrderTypeDineIn,
		TableID:           pgtype.UUID{Bytes: table.ID, Valid: true},
		TableNumber:       textOrNull(table.TableNumber),
		TableName:         textOrNull(table.TableName),
		OrderSource:       enum.OrderSourceCustomerQR,
		IsCustomerOrder:   true,
		ConfirmationToken: textOrNull(token),
		CustomerName:      textOrNull(req.CustomerName),
		CustomerMobile:    textOrNull(req.CustomerMobile),
		GuestCount:        guestCount,
		Subtotal:          decimalToNumeric(subtotal),
		DiscountPercent:   decimalToNumeric(decimal.Zero),
		DiscountAmount:    decimalToNumeric(decimal.Zero),
		GstAmount:         decimalToNumeric(decimal.Zero),
		TotalAmount:       decimalToNumeric(subtotal),
		RoundOff:          decimalToNumeric(decimal.Zero),
		GrandTotal:        decimalToNumeric(subtotal),
	}

	order, err := store.CreateOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(checked))
	for _, c := range checked {
		line, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
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

	if _, err := store.OccupyTable(ctx, database.OccupyTableParams{ID: table.ID, OrderID: order.ID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableOccupied
		}
		return nil, fmt.Errorf("occupy table: %w", err)
	}

	remark := "Order for Table " + table.TableNumber
	for _, c := range checked {
		if !c.item.CurrentStock.Valid {
			continue
		}
		balance, err := store.DeductStock(ctx, database.DeductStockParams{ID: c.item.ID, Quantity: c.quantity})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &InsufficientStockError{
					ItemName:  c.item.Name,
					Available: c.item.CurrentStock.Int32,
					Requested: c.quantity,
				}
			}
			return nil, fmt.Errorf("deduct stock: %w", err)
		}
		_, err = store.CreateStockLedgerEntry(ctx, database.CreateStockLedgerEntryParams{
			ItemID:          c.item.ID,
			ItemName:        c.item.Name,
			TransactionType: enum.TransactionTypeSale,
			Quantity:        c.quantity,
			Unit:            c.item.Unit,
			Rate:            decimalToNumeric(c.price),
			ReferenceType:   textOrNull("Order"),
			ReferenceID:     pgtype.UUID{Bytes: order.ID, Valid: true},
			ReferenceNo:     textOrNull(order.OrderNo),
			BalanceQty:      balance,
			Remarks:         textOrNull(remark),
		})
		if err != nil {
			return nil, fmt.Errorf("create ledger entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &PublicOrderResult{Order: order, Items: items, ConfirmationToken: token}, nil
}

// GetOrderConfirmation returns the customer projection of an order. The
// confirmation token is the sole credential; comparison is constant-time.
func (s *PublicOrderService) GetOrderConfirmation(ctx context.Context, orderID uuid.UUID, token string) (*PublicOrderView, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !order.IsCustomerOrder || !order.ConfirmationToken.Valid {
		return nil, ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(order.ConfirmationToken.String), []byte(token)) != 1 {
		return nil, ErrInvalidToken
	}

	lines, err := s.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	view := &PublicOrderView{
		OrderNo:      order.OrderNo,
		OrderType:    order.OrderType,
		TableNumber:  order.TableNumber.String,
		TableName:    order.TableName.String,
		CustomerName: order.CustomerName.String,
		OrderStatus:  order.OrderStatus,
		Subtotal:     numericToDecimal(order.Subtotal).StringFixed(2),
		GrandTotal:   numericToDecimal(order.GrandTotal).StringFixed(2),
		OrderDate:    order.OrderDate,
	}
	for _, l := range lines {
		view.Items = append(view.Items, PublicOrderLine{
			ItemName:  l.ItemName,
			Quantity:  l.Quantity,
			Price:     numericToDecimal(l.Price).StringFixed(2),
			ItemTotal: numericToDecimal(l.ItemTotal).StringFixed(2),
		})
	}
	return view, nil
}

// checkPublicItems re-validates every line against the live catalog. Unlike
// the staff path, items must be active and the submitted price must equal
// the catalog price exactly.
func (s *PublicOrderService) checkPublicItems(ctx context.Context, store OrderStore, reqs []PublicOrderItemRequest) ([]checkedItem, decimal.Decimal, error) {
	checked := make([]checkedItem, 0, len(reqs))
	subtotal := decimal.Zero
	for i, r := range reqs {
		if r.Quantity < 1 {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		itemID, err := uuid.Parse(r.ItemID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrItemNotFound)
		}
		item, err := store.GetMenuItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrItemNotFound)
			}
			return nil, decimal.Zero, fmt.Errorf("item[%d]: get item: %w", i, err)
		}
		if !item.IsActive {
			return nil, decimal.Zero, fmt.Errorf("%s: %w", item.Name, ErrItemUnavailable)
		}
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrInvalidAmount)
		}
		if !price.Equal(numericToDecimal(item.Price)) {
			return nil, decimal.Zero, fmt.Errorf("%s: %w", item.Name, ErrPriceMismatch)
		}
		if item.CurrentStock.Valid && item.CurrentStock.Int32 < r.Quantity {
			return nil, decimal.Zero, &InsufficientStockError{
				ItemName:  item.Name,
				Available: item.CurrentStock.Int32,
				Requested: r.Quantity,
			}
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt32(r.Quantity)))
		checked = append(checked, checkedItem{item: item, quantity: r.Quantity, price: price, notes: r.Notes})
	}
	return checked, subtotal, nil
}

// newConfirmationToken returns 256 bits from crypto/rand, hex encoded.
func newConfirmationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
