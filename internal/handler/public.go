package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/juicy-pos/api/internal/database"
	"github.com/juicy-pos/api/internal/enum"
	"github.com/juicy-pos/api/internal/service"
)

// PublicOrderServicer defines the service methods needed by the public
// order handlers. Satisfied by *service.PublicOrderService.
type PublicOrderServicer interface {
	CreatePublicOrder(ctx context.Context, req service.CreatePublicOrderRequest) (*service.PublicOrderResult, error)
	GetOrderConfirmation(ctx context.Context, orderID uuid.UUID, token string) (*service.PublicOrderView, error)
}

// PublicTableStore defines the reads needed by the QR table check.
type PublicTableStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
}

// PublicHandler handles the unauthenticated QR ordering endpoints. Every
// response goes through respondPublicError so internal details never reach
// anonymous callers.
type PublicHandler struct {
	svc      PublicOrderServicer
	store    PublicTableStore
	notifier OrderNotifier
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(svc PublicOrderServicer, store PublicTableStore, notifier OrderNotifier) *PublicHandler {
	return &PublicHandler{svc: svc, store: store, notifier: notifier}
}

// RegisterRoutes registers the public endpoints.
func (h *PublicHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders/{id}/confirmation", h.GetConfirmation)
	r.Get("/tables/{id}", h.GetTable)
}

type publicTableResponse struct {
	ID              uuid.UUID `json:"id"`
	TableNumber     string    `json:"tableNumber"`
	TableName       string    `json:"tableName"`
	SeatingCapacity int32     `json:"seatingCapacity"`
	Status          string    `json:"status"`
	CanOrder        bool      `json:"canOrder"`
}

// CreateOrder handles POST /public/orders.
func (h *PublicHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePublicOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.CreatePublicOrder(r.Context(), req)
	if err != nil {
		respondPublicError(w, "create public order", err)
		return
	}

	resp := toOrderResponse(result.Order, result.Items)
	h.notify("order.created", resp)
	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"orderId":           result.Order.ID,
		"orderNo":           result.Order.OrderNo,
		"confirmationToken": result.ConfirmationToken,
		"grandTotal":        numericToString(result.Order.GrandTotal),
	})
}

// GetConfirmation handles GET /public/orders/{id}/confirmation?token=...
func (h *PublicHandler) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	view, err := h.svc.GetOrderConfirmation(r.Context(), orderID, r.URL.Query().Get("token"))
	if err != nil {
		respondPublicError(w, "order confirmation", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"order": view})
}

// GetTable handles GET /public/tables/{id}, the QR landing check a customer
// hits before the menu loads.
func (h *PublicHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid table id")
		return
	}

	table, err := h.store.GetTable(r.Context(), tableID)
	if err != nil {
		if isNoRows(err) {
			respondError(w, http.StatusNotFound, "table not found")
			return
		}
		log.Printf("ERROR: public get table: %v", err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}
	if !table.IsActive {
		respondError(w, http.StatusNotFound, "table not found")
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"table": publicTableResponse{
			ID:              table.ID,
			TableNumber:     table.TableNumber,
			TableName:       table.TableName,
			SeatingCapacity: table.SeatingCapacity,
			Status:          table.Status,
			CanOrder:        table.Status != enum.TableStatusOccupied,
		},
	})
}

func (h *PublicHandler) notify(event string, payload interface{}) {
	if h.notifier != nil {
		h.notifier.NotifyOrderEvent(event, payload)
	}
}
