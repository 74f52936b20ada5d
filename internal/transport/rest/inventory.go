package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
	"github.com/rentstack/assettrack-backend/internal/service/inventory"
)

// inventoryService defines the minimal interface needed by InventoryHandler.
type inventoryService interface {
	CreateItem(ctx context.Context, input inventory.CreateItemInput) (*domain.InventoryItem, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*domain.InventoryItem, error)
	ListItems(ctx context.Context, filter domain.ItemFilter) ([]*domain.InventoryItem, int, error)
	UpdateItem(ctx context.Context, input inventory.UpdateItemInput) (*domain.InventoryItem, error)
	CheckIn(ctx context.Context, input inventory.CheckInput) (*domain.InventoryItem, error)
	CheckOut(ctx context.Context, input inventory.CheckInput) (*domain.InventoryItem, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ListMovements(ctx context.Context, input inventory.ListMovementsInput) ([]domain.Movement, int, error)
}

// InventoryHandler serves inventory REST endpoints.
type InventoryHandler struct {
	svc inventoryService
	log *slog.Logger
}

// NewInventoryHandler creates an InventoryHandler.
func NewInventoryHandler(svc inventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{svc: svc, log: logger.With("handler", "inventory")}
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type createItemRequest struct {
	SerialNumber  *string    `json:"serialNumber"`
	AssetTag      *string    `json:"assetTag"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	Location      string     `json:"location"`
	ContainerID   *uuid.UUID `json:"containerId"`
	ProductID     *uuid.UUID `json:"productId"`
	PurchaseDate  *time.Time `json:"purchaseDate"`
	PurchasePrice *float64   `json:"purchasePrice"`
	WarrantyUntil *time.Time `json:"warrantyUntil"`
	Notes         *string    `json:"notes"`
}

// updateItemRequest is the PUT body. containerId and productId are
// authoritative: omitting them clears the reference.
type updateItemRequest struct {
	SerialNumber  *string    `json:"serialNumber"`
	AssetTag      *string    `json:"assetTag"`
	Status        *string    `json:"status"`
	Location      *string    `json:"location"`
	Reason        *string    `json:"reason"`
	ContainerID   *uuid.UUID `json:"containerId"`
	ProductID     *uuid.UUID `json:"productId"`
	PurchaseDate  *time.Time `json:"purchaseDate"`
	PurchasePrice *float64   `json:"purchasePrice"`
	WarrantyUntil *time.Time `json:"warrantyUntil"`
	Notes         *string    `json:"notes"`
}

type checkRequest struct {
	Location  string  `json:"location"`
	Reason    string  `json:"reason"`
	Reference *string `json:"reference"`
}

type itemResponse struct {
	ID            uuid.UUID          `json:"id"`
	SerialNumber  *string            `json:"serialNumber,omitempty"`
	AssetTag      *string            `json:"assetTag,omitempty"`
	Kind          string             `json:"kind"`
	Status        string             `json:"status"`
	Location      string             `json:"location"`
	ContainerID   *uuid.UUID         `json:"containerId,omitempty"`
	ProductID     *uuid.UUID         `json:"productId,omitempty"`
	Product       *productResponse   `json:"product,omitempty"`
	PurchaseDate  *time.Time         `json:"purchaseDate,omitempty"`
	PurchasePrice *float64           `json:"purchasePrice,omitempty"`
	WarrantyUntil *time.Time         `json:"warrantyUntil,omitempty"`
	Notes         *string            `json:"notes,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	Contents      []itemResponse     `json:"contents,omitempty"`
	Movements     []movementResponse `json:"movements,omitempty"`
	Tag           *tagResponse       `json:"tag,omitempty"`
}

type movementResponse struct {
	ID           uuid.UUID `json:"id"`
	ItemID       uuid.UUID `json:"itemId"`
	Type         string    `json:"type"`
	FromStatus   *string   `json:"fromStatus,omitempty"`
	ToStatus     string    `json:"toStatus"`
	FromLocation *string   `json:"fromLocation,omitempty"`
	ToLocation   *string   `json:"toLocation,omitempty"`
	Reason       string    `json:"reason"`
	Reference    *string   `json:"reference,omitempty"`
	PerformedBy  uuid.UUID `json:"performedBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

type itemListResponse struct {
	Items      []itemResponse `json:"items"`
	TotalCount int            `json:"totalCount"`
}

type movementListResponse struct {
	Movements  []movementResponse `json:"movements"`
	TotalCount int                `json:"totalCount"`
}

func toItemResponse(it *domain.InventoryItem) itemResponse {
	resp := itemResponse{
		ID:            it.ID,
		SerialNumber:  it.SerialNumber,
		AssetTag:      it.AssetTag,
		Kind:          it.Kind.String(),
		Status:        it.Status.String(),
		Location:      it.Location,
		ContainerID:   it.ContainerID,
		ProductID:     it.ProductID,
		PurchaseDate:  it.PurchaseDate,
		PurchasePrice: it.PurchasePrice,
		WarrantyUntil: it.WarrantyUntil,
		Notes:         it.Notes,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}
	if it.Product != nil {
		p := toProductResponse(*it.Product)
		resp.Product = &p
	}
	for i := range it.Contents {
		resp.Contents = append(resp.Contents, toItemResponse(&it.Contents[i]))
	}
	for _, m := range it.Movements {
		resp.Movements = append(resp.Movements, toMovementResponse(m))
	}
	if it.Tag != nil {
		t := toTagResponse(it.Tag)
		resp.Tag = &t
	}
	return resp
}

func toMovementResponse(m domain.Movement) movementResponse {
	resp := movementResponse{
		ID:           m.ID,
		ItemID:       m.ItemID,
		Type:         m.Type.String(),
		ToStatus:     m.ToStatus.String(),
		FromLocation: m.FromLocation,
		ToLocation:   m.ToLocation,
		Reason:       m.Reason,
		Reference:    m.Reference,
		PerformedBy:  m.PerformedBy,
		CreatedAt:    m.CreatedAt,
	}
	if m.FromStatus != nil {
		s := m.FromStatus.String()
		resp.FromStatus = &s
	}
	return resp
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// List handles GET /api/v1/inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseItemFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.svc.ListItems(r.Context(), filter)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := itemListResponse{Items: make([]itemResponse, 0, len(items)), TotalCount: total}
	for _, it := range items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/inventory/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// Create handles POST /api/v1/inventory.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.svc.CreateItem(r.Context(), inventory.CreateItemInput{
		SerialNumber:  req.SerialNumber,
		AssetTag:      req.AssetTag,
		Kind:          domain.ItemKind(req.Kind),
		Status:        domain.ItemStatus(req.Status),
		Location:      req.Location,
		ContainerID:   req.ContainerID,
		ProductID:     req.ProductID,
		PurchaseDate:  req.PurchaseDate,
		PurchasePrice: req.PurchasePrice,
		WarrantyUntil: req.WarrantyUntil,
		Notes:         req.Notes,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

// Update handles PUT /api/v1/inventory/{id}.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := inventory.UpdateItemInput{
		ItemID:        id,
		SerialNumber:  req.SerialNumber,
		AssetTag:      req.AssetTag,
		Location:      req.Location,
		Reason:        req.Reason,
		SetContainer:  true,
		ContainerID:   req.ContainerID,
		SetProduct:    true,
		ProductID:     req.ProductID,
		PurchaseDate:  req.PurchaseDate,
		PurchasePrice: req.PurchasePrice,
		WarrantyUntil: req.WarrantyUntil,
		Notes:         req.Notes,
	}
	if req.Status != nil {
		status := domain.ItemStatus(*req.Status)
		input.Status = &status
	}

	item, err := h.svc.UpdateItem(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// Delete handles DELETE /api/v1/inventory/{id}.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.svc.DeleteItem(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckIn handles POST /api/v1/inventory/{id}/check-in.
func (h *InventoryHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.check(w, r, h.svc.CheckIn)
}

// CheckOut handles POST /api/v1/inventory/{id}/check-out.
func (h *InventoryHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.check(w, r, h.svc.CheckOut)
}

func (h *InventoryHandler) check(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, input inventory.CheckInput) (*domain.InventoryItem, error),
) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	// empty body is the shorthand form: flip status, keep the location
	var req checkRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := op(r.Context(), inventory.CheckInput{
		ItemID:    id,
		Location:  req.Location,
		Reason:    req.Reason,
		Reference: req.Reference,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// ListMovements handles GET /api/v1/inventory/{id}/movements.
func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	movements, total, err := h.svc.ListMovements(r.Context(), inventory.ListMovementsInput{
		ItemID: id,
		Limit:  limit,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := movementListResponse{Movements: make([]movementResponse, 0, len(movements)), TotalCount: total}
	for _, m := range movements {
		resp.Movements = append(resp.Movements, toMovementResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseItemFilter builds an ItemFilter from query parameters:
// search, status, type, productId, containerId, limit, offset.
func parseItemFilter(r *http.Request) (domain.ItemFilter, error) {
	q := r.URL.Query()
	var filter domain.ItemFilter

	if s := q.Get("search"); s != "" {
		filter.Search = &s
	}
	if s := q.Get("status"); s != "" {
		status := domain.ItemStatus(s)
		filter.Status = &status
	}
	if s := q.Get("type"); s != "" {
		kind := domain.ItemKind(s)
		filter.Kind = &kind
	}
	if s := q.Get("productId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return filter, errInvalidParam("productId")
		}
		filter.ProductID = &id
	}
	if s := q.Get("containerId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return filter, errInvalidParam("containerId")
		}
		filter.ContainerID = &id
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return filter, errInvalidParam("limit")
		}
		filter.Limit = limit
	}
	if s := q.Get("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil {
			return filter, errInvalidParam("offset")
		}
		filter.Offset = offset
	}

	return filter, nil
}
