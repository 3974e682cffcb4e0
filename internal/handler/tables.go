package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/juicy-pos/api/internal/database"
	"github.com/juicy-pos/api/internal/enum"
	"github.com/juicy-pos/api/internal/middleware"
)

// TableStore defines the database methods needed by table handlers.
// Satisfied by *database.Queries.
type TableStore interface {
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	GetTableByNumber(ctx context.Context, tableNumber string) (database.Table, error)
	ListTables(ctx context.Context, arg database.ListTablesParams) ([]database.Table, error)
	UpdateTable(ctx context.Context, arg database.UpdateTableParams) (database.Table, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error)
	DeleteTable(ctx context.Context, id uuid.UUID) error
	GetTableStats(ctx context.Context) (database.GetTableStatsRow, error)
}

// TableHandler handles table endpoints.
type TableHandler struct {
	store TableStore
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(store TableStore) *TableHandler {
	return &TableHandler{store: store}
}

// RegisterRoutes registers table endpoints. Create, update, delete and
// status are gated to admins in the router.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/stats/summary", h.Stats)
	r.Get("/{id}", h.Get)
}

type tableRequest struct {
	TableNumber     string  `json:"tableNumber"`
	TableName       string  `json:"tableName"`
	SeatingCapacity int32   `json:"seatingCapacity"`
	Location        string  `json:"location"`
	Floor           string  `json:"floor"`
	Shape           string  `json:"shape"`
	Description     *string `json:"description"`
	DisplayOrder    int32   `json:"displayOrder"`
	IsActive        *bool   `json:"isActive"`
}

type tableStatusRequest struct {
	Status string `json:"status"`
}

type tableResponse struct {
	ID              uuid.UUID `json:"id"`
	TableNumber     string    `json:"tableNumber"`
	TableName       string    `json:"tableName"`
	SeatingCapacity int32     `json:"seatingCapacity"`
	Location        string    `json:"location"`
	Floor           string    `json:"floor"`
	Shape           string    `json:"shape"`
	Status          string    `json:"status"`
	CurrentOrderID  *string   `json:"currentOrderId"`
	IsActive        bool      `json:"isActive"`
	Description     *string   `json:"description"`
	DisplayOrder    int32     `json:"displayOrder"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// List handles GET /tables with optional status, floor, location and
// isActive filters.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	var params database.ListTablesParams
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("floor"); s != "" {
		params.Floor = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("location"); s != "" {
		params.Location = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("isActive"); s != "" {
		params.IsActive = pgtype.Bool{Bool: s == "true", Valid: true}
	}

	tables, err := h.store.ListTables(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"tables": resp})
}

// Get handles GET /tables/{id}.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("ERROR: get table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"table": toTableResponse(table)})
}

// Create handles POST /tables. Table numbers are normalized to uppercase and
// checked for duplicates before insert.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateTableRequest(req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	tableNumber := strings.ToUpper(strings.TrimSpace(req.TableNumber))
	if _, err := h.store.GetTableByNumber(r.Context(), tableNumber); err == nil {
		respondError(w, http.StatusBadRequest, "table number already exists")
		return
	} else if !isNoRows(err) {
		log.Printf("ERROR: check table number: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	table, err := h.store.CreateTable(r.Context(), database.CreateTableParams{
		TableNumber:     tableNumber,
		TableName:       strings.TrimSpace(req.TableName),
		SeatingCapacity: req.SeatingCapacity,
		Location:        req.Location,
		Floor:           req.Floor,
		Shape:           req.Shape,
		Description:     textFromPtr(req.Description),
		DisplayOrder:    req.DisplayOrder,
		CreatedBy:       pgtype.UUID{Bytes: claims.UserID, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: create table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"table": toTableResponse(table)})
}

// Update handles PUT /tables/{id}.
func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid table id")
		return
	}

	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateTableRequest(req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.store.GetTable(r.Context(), tableID)
	if err != nil {
		if isNoRows(err) {
			respondError(w, http.StatusNotFound, "table not found")
			return
		}
		log.Printf("ERROR: get table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	if !isActive && existing.Status == enum.TableStatusOccupied {
		respondError(w, http.StatusBadRequest, "cannot deactivate an occupied table")
		return
	}

	tableNumber := strings.ToUpper(strings.TrimSpace(req.TableNumber))
	if tableNumber != existing.TableNumber {
		if _, err := h.store.GetTableByNumber(r.Context(), tableNumber); err == nil {
			respondError(w, http.StatusBadRequest, "table number already exists")
			return
		} else if !isNoRows(err) {
			log.Printf("ERROR: check table number: %v", err)
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	table, err := h.store.UpdateTable(r.Context(), database.UpdateTableParams{
		ID:              tableID,
		TableNumber:     tableNumber,
		TableName:       strings.TrimSpace(req.TableName),
		SeatingCapacity: req.SeatingCapacity,
		Location:        req.Location,
		Floor:           req.Floor,
		Shape:           req.Shape,
		Description:     textFromPtr(req.Description),
		DisplayOrder:    req.DisplayOrder,
		IsActive:        isActive,
	})
	if err != nil {
		log.Printf("ERROR: update table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"table": toTableResponse(table)})
}

// UpdateStatus handles PUT /tables/{id}/status. Occupied is owned by the
// order lifecycle and cannot be set here.
func (h *TableHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid table id")
		return
	}

	var req tableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Status {
	case enum.TableStatusAvailable, enum.TableStatusReserved, enum.TableStatusMaintenance:
	default:
		respondError(w, http.StatusBadRequest, "status must be Available, Reserved or Maintenance")
		return
	}

	existing, err := h.store.GetTable(r.Context(), tableID)
	if err != nil {
		if isNoRows(err) {
			respondError(w, http.StatusNotFound, "table not found")
			return
		}
		log.Printf("ERROR: get table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing.Status == enum.TableStatusOccupied {
		respondError(w, http.StatusBadRequest, "table has an active order, complete or cancel it first")
		return
	}

	table, err := h.store.UpdateTableStatus(r.Context(), database.UpdateTableStatusParams{
		ID:     tableID,
		Status: req.Status,
	})
	if err != nil {
		log.Printf("ERROR: update table status: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"table": toTableResponse(table)})
}

// Delete handles DELETE /tables/{id}. Occupied tables cannot be deleted.
func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid table id")
		return
	}

	existing, err := h.store.GetTable(r.Context(), tableID)
	if err != nil {
		if isNoRows(err) {
			respondError(w, http.StatusNotFound, "table not found")
			return
		}
		log.Printf("ERROR: get table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if existing.Status == enum.TableStatusOccupied {
		respondError(w, http.StatusBadRequest, "cannot delete an occupied table")
		return
	}

	if err := h.store.DeleteTable(r.Context(), tableID); err != nil {
		log.Printf("ERROR: delete table: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"message": "table deleted"})
}

// Stats handles GET /tables/stats/summary.
func (h *TableHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetTableStats(r.Context())
	if err != nil {
		log.Printf("ERROR: table stats: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"stats": map[string]interface{}{
			"totalTables":     stats.TotalTables,
			"availableTables": stats.AvailableTables,
			"occupiedTables":  stats.OccupiedTables,
			"reservedTables":  stats.ReservedTables,
		},
	})
}

func validateTableRequest(req tableRequest) string {
	if strings.TrimSpace(req.TableNumber) == "" {
		return "table number is required"
	}
	if strings.TrimSpace(req.TableName) == "" {
		return "table name is required"
	}
	if req.SeatingCapacity < 1 {
		return "seating capacity must be at least 1"
	}
	return ""
}

func toTableResponse(t database.Table) tableResponse {
	return tableResponse{
		ID:              t.ID,
		TableNumber:     t.TableNumber,
		TableName:       t.TableName,
		SeatingCapacity: t.SeatingCapacity,
		Location:        t.Location,
		Floor:           t.Floor,
		Shape:           t.Shape,
		Status:          t.Status,
		CurrentOrderID:  uuidPtr(t.CurrentOrderID),
		IsActive:        t.IsActive,
		Description:     textPtr(t.Description),
		DisplayOrder:    t.DisplayOrder,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func textFromPtr(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
