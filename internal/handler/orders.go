package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/juicy-pos/api/internal/auth"
	"github.com/juicy-pos/api/internal/database"
	"github.com/juicy-pos/api/internal/middleware"
	"github.com/juicy-pos/api/internal/service"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, principal service.Principal, req service.CreateOrderRequest) (*service.OrderResult, error)
	UpdateOrder(ctx context.Context, principal service.Principal, orderID uuid.UUID, req service.UpdateOrderRequest) (*service.OrderResult, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (*database.Order, error)
	ConvertToBill(ctx context.Context, orderID uuid.UUID, paymentMode string, paymentDetails json.RawMessage) (*service.ConvertResult, error)
	CancelOrder(ctx context.Context, principal service.Principal, orderID uuid.UUID, reason string) (*database.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetBill(ctx context.Context, id uuid.UUID) (database.Bill, error)
	GetOrderStats(ctx context.Context) (database.GetOrderStatsRow, error)
}

// OrderNotifier pushes order lifecycle events to connected clients.
// Implemented by the websocket hub; a nil notifier disables the feed.
type OrderNotifier interface {
	NotifyOrderEvent(event string, payload interface{})
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc      OrderServicer
	store    OrderStore
	notifier OrderNotifier
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, notifier OrderNotifier) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, notifier: notifier}
}

// RegisterRoutes registers staff order endpoints. Deletion is additionally
// gated to admins in the router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats/summary", h.Stats)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Put("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/convert-to-bill", h.ConvertToBill)
	r.Put("/{id}/cancel", h.Cancel)
}

// --- Response types ---

type orderResponse struct {
	ID                  uuid.UUID           `json:"id"`
	OrderNo             string              `json:"orderNo"`
	OrderType           string              `json:"orderType"`
	TableID             *string             `json:"tableId"`
	TableNumber         *string             `json:"tableNumber"`
	TableName           *string             `json:"tableName"`
	UserID              *string             `json:"userId"`
	UserName            *string             `json:"userName"`
	OrderSource         string              `json:"orderSource"`
	IsCustomerOrder     bool                `json:"isCustomerOrder"`
	CustomerName        *string             `json:"customerName"`
	CustomerMobile      *string             `json:"customerMobile"`
	GuestCount          int32               `json:"guestCount"`
	Subtotal            string              `json:"subtotal"`
	DiscountPercent     string              `json:"discountPercent"`
	DiscountAmount      string              `json:"discountAmount"`
	GstAmount           string              `json:"gstAmount"`
	TotalAmount         string              `json:"totalAmount"`
	RoundOff            string              `json:"roundOff"`
	GrandTotal          string              `json:"grandTotal"`
	OrderStatus         string              `json:"orderStatus"`
	OrderDate           time.Time           `json:"orderDate"`
	StartTime           time.Time           `json:"startTime"`
	ServedTime          *time.Time          `json:"servedTime"`
	CompletionTime      *time.Time          `json:"completionTime"`
	Remarks             *string             `json:"remarks"`
	SpecialInstructions *string             `json:"specialInstructions"`
	IsPaid              bool                `json:"isPaid"`
	BillID              *string             `json:"billId"`
	Items               []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"itemId"`
	ItemName  string    `json:"itemName"`
	Quantity  int32     `json:"quantity"`
	Unit      *string   `json:"unit"`
	Price     string    `json:"price"`
	ItemTotal string    `json:"itemTotal"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes"`
}

type billResponse struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"orderId"`
	OrderNo        string          `json:"orderNo"`
	CustomerName   *string         `json:"customerName"`
	CustomerMobile *string         `json:"customerMobile"`
	Items          json.RawMessage `json:"items"`
	Subtotal       string          `json:"subtotal"`
	DiscountAmount string          `json:"discountAmount"`
	GstAmount      string          `json:"gstAmount"`
	RoundOff       string          `json:"roundOff"`
	GrandTotal     string          `json:"grandTotal"`
	PaymentMode    string          `json:"paymentMode"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type convertToBillRequest struct {
	PaymentMode    string          `json:"paymentMode"`
	PaymentDetails json.RawMessage `json:"paymentDetails"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// --- Handlers ---

// List handles GET /orders. Staff see their own orders; admins see all.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 200 {
		limit = 200
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}
	if !claims.IsAdmin() {
		params.UserID = pgtype.UUID{Bytes: claims.UserID, Valid: true}
	}
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("table"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid table id")
			return
		}
		params.TableID = pgtype.UUID{Bytes: id, Valid: true}
	}
	if s := r.URL.Query().Get("startDate"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid startDate format, use YYYY-MM-DD")
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("endDate"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid endDate format, use YYYY-MM-DD")
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: t.Add(24*time.Hour - time.Nanosecond), Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"orders": resp,
		"limit":  limit,
		"offset": offset,
	})
}

// Get handles GET /orders/{id}. Only the owning user or an admin may read a
// staff order.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if isNoRows(err) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Printf("ERROR: get order: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !claims.IsAdmin() && order.UserID.Valid && uuid.UUID(order.UserID.Bytes) != claims.UserID {
		respondError(w, http.StatusForbidden, "not authorized for this order")
		return
	}

	items, err := h.store.ListOrderItems(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	payload := map[string]interface{}{
		"order": toOrderResponse(order, items),
	}
	if order.BillID.Valid {
		bill, err := h.store.GetBill(r.Context(), uuid.UUID(order.BillID.Bytes))
		if err != nil {
			log.Printf("ERROR: get bill: %v", err)
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		payload["bill"] = toBillResponse(bill)
	}
	respondSuccess(w, http.StatusOK, payload)
}

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req service.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), principalFromClaims(claims), req)
	if err != nil {
		respondServiceError(w, "create order", err)
		return
	}

	resp := toOrderResponse(result.Order, result.Items)
	h.notify("order.created", resp)
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"order": resp})
}

// Update handles PUT /orders/{id}.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req service.UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.UpdateOrder(r.Context(), principalFromClaims(claims), orderID, req)
	if err != nil {
		respondServiceError(w, "update order", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"order": toOrderResponse(result.Order, result.Items),
	})
}

// UpdateStatus handles PUT /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.UpdateOrderStatus(r.Context(), orderID, req.Status)
	if err != nil {
		respondServiceError(w, "update order status", err)
		return
	}

	resp := toOrderResponse(*order, nil)
	h.notify("order.status_changed", resp)
	respondSuccess(w, http.StatusOK, map[string]interface{}{"order": resp})
}

// ConvertToBill handles POST /orders/{id}/convert-to-bill.
func (h *OrderHandler) ConvertToBill(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req convertToBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.ConvertToBill(r.Context(), orderID, req.PaymentMode, req.PaymentDetails)
	if err != nil {
		respondServiceError(w, "convert to bill", err)
		return
	}

	orderResp := toOrderResponse(result.Order, nil)
	h.notify("order.completed", orderResp)
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"order": orderResp,
		"bill":  toBillResponse(result.Bill),
	})
}

// Cancel handles PUT /orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), principalFromClaims(claims), orderID, req.Reason)
	if err != nil {
		respondServiceError(w, "cancel order", err)
		return
	}

	resp := toOrderResponse(*order, nil)
	h.notify("order.cancelled", resp)
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "order cancelled",
		"order":   resp,
	})
}

// Delete handles DELETE /orders/{id}. Admin-only; routed behind RequireRole.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), orderID); err != nil {
		respondServiceError(w, "delete order", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"message": "order deleted"})
}

// Stats handles GET /orders/stats/summary.
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetOrderStats(r.Context())
	if err != nil {
		log.Printf("ERROR: order stats: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"stats": map[string]interface{}{
			"totalOrders":    stats.TotalOrders,
			"activeOrders":   stats.ActiveOrders,
			"completedToday": stats.CompletedToday,
			"todayRevenue":   numericToString(stats.TodayRevenue),
		},
	})
}

func (h *OrderHandler) notify(event string, payload interface{}) {
	if h.notifier != nil {
		h.notifier.NotifyOrderEvent(event, payload)
	}
}

// --- Helpers ---

func principalFromClaims(claims *auth.Claims) service.Principal {
	return service.Principal{UserID: claims.UserID, Name: claims.Name, Role: claims.Role}
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		OrderType:       o.OrderType,
		OrderSource:     o.OrderSource,
		IsCustomerOrder: o.IsCustomerOrder,
		GuestCount:      o.GuestCount,
		Subtotal:        numericToString(o.Subtotal),
		DiscountPercent: numericToString(o.DiscountPercent),
		DiscountAmount:  numericToString(o.DiscountAmount),
		GstAmount:       numericToString(o.GstAmount),
		TotalAmount:     numericToString(o.TotalAmount),
		RoundOff:        numericToString(o.RoundOff),
		GrandTotal:      numericToString(o.GrandTotal),
		OrderStatus:     o.OrderStatus,
		OrderDate:       o.OrderDate,
		StartTime:       o.StartTime,
		IsPaid:          o.IsPaid,
	}
	resp.TableID = uuidPtr(o.TableID)
	resp.TableNumber = textPtr(o.TableNumber)
	resp.TableName = textPtr(o.TableName)
	resp.UserID = uuidPtr(o.UserID)
	resp.UserName = textPtr(o.UserName)
	resp.CustomerName = textPtr(o.CustomerName)
	resp.CustomerMobile = textPtr(o.CustomerMobile)
	resp.ServedTime = timePtr(o.ServedTime)
	resp.CompletionTime = timePtr(o.CompletionTime)
	resp.Remarks = textPtr(o.Remarks)
	resp.SpecialInstructions = textPtr(o.SpecialInstructions)
	resp.BillID = uuidPtr(o.BillID)

	for _, it := range items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:        it.ID,
			ItemID:    it.ItemID,
			ItemName:  it.ItemName,
			Quantity:  it.Quantity,
			Unit:      textPtr(it.Unit),
			Price:     numericToString(it.Price),
			ItemTotal: numericToString(it.ItemTotal),
			Status:    it.Status,
			Notes:     textPtr(it.Notes),
		})
	}
	return resp
}

func toBillResponse(b database.Bill) billResponse {
	return billResponse{
		ID:             b.ID,
		OrderID:        b.OrderID,
		OrderNo:        b.OrderNo,
		CustomerName:   textPtr(b.CustomerName),
		CustomerMobile: textPtr(b.CustomerMobile),
		Items:          json.RawMessage(b.Items),
		Subtotal:       numericToString(b.Subtotal),
		DiscountAmount: numericToString(b.DiscountAmount),
		GstAmount:      numericToString(b.GstAmount),
		RoundOff:       numericToString(b.RoundOff),
		GrandTotal:     numericToString(b.GrandTotal),
		PaymentMode:    b.PaymentMode,
		Status:         b.Status,
		CreatedAt:      b.CreatedAt,
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func uuidPtr(u pgtype.UUID) *string {
	if !u.Valid {
		return nil
	}
	s := uuid.UUID(u.Bytes).String()
	return &s
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
