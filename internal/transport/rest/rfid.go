package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rentstack/assettrack-backend/internal/domain"
	"github.com/rentstack/assettrack-backend/internal/service/rfid"
)

// rfidService defines the minimal interface needed by RFIDHandler.
type rfidService interface {
	RecordDetection(ctx context.Context, input rfid.RecordDetectionInput) (*domain.RFIDTag, error)
	RegisterTag(ctx context.Context, input rfid.RegisterTagInput) (*domain.RFIDTag, error)
	Enroll(ctx context.Context, input rfid.EnrollInput) (*domain.RFIDTag, error)
	Unenroll(ctx context.Context, tagID uuid.UUID) (*domain.RFIDTag, error)
	DeleteTag(ctx context.Context, tagID uuid.UUID) error
	GetTag(ctx context.Context, tagID uuid.UUID) (*domain.RFIDTag, []domain.RFIDDetection, error)
	ListTags(ctx context.Context, filter domain.TagFilter) ([]*domain.RFIDTag, int, error)
	ListUnknownTags(ctx context.Context) ([]*domain.RFIDTag, error)
}

// RFIDHandler serves RFID REST endpoints.
type RFIDHandler struct {
	svc rfidService
	log *slog.Logger
}

// NewRFIDHandler creates an RFIDHandler.
func NewRFIDHandler(svc rfidService, logger *slog.Logger) *RFIDHandler {
	return &RFIDHandler{svc: svc, log: logger.With("handler", "rfid")}
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type detectionRequest struct {
	EPC        string     `json:"epc"`
	ReaderID   string     `json:"readerId"`
	ReaderName *string    `json:"readerName"`
	RSSI       *int       `json:"rssi"`
	Direction  *string    `json:"direction"`
	Timestamp  *time.Time `json:"timestamp"`
}

type registerTagRequest struct {
	EPC    string     `json:"epc"`
	TID    *string    `json:"tid"`
	ItemID *uuid.UUID `json:"itemId"`
}

type enrollRequest struct {
	ItemID uuid.UUID `json:"itemId"`
}

type tagResponse struct {
	ID              uuid.UUID  `json:"id"`
	EPC             string     `json:"epc"`
	TID             *string    `json:"tid,omitempty"`
	Status          string     `json:"status"`
	InventoryItemID *uuid.UUID `json:"inventoryItemId,omitempty"`
	FirstSeenAt     *time.Time `json:"firstSeenAt,omitempty"`
	LastSeenAt      *time.Time `json:"lastSeenAt,omitempty"`
	DetectionCount  int        `json:"detectionCount"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type detectionResponse struct {
	ID         uuid.UUID `json:"id"`
	TagID      uuid.UUID `json:"tagId"`
	ReaderID   string    `json:"readerId"`
	ReaderName *string   `json:"readerName,omitempty"`
	RSSI       *int      `json:"rssi,omitempty"`
	Direction  *string   `json:"direction,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type tagListResponse struct {
	Tags       []tagResponse `json:"tags"`
	TotalCount int           `json:"totalCount"`
}

type tagDetailResponse struct {
	Tag        tagResponse         `json:"tag"`
	Detections []detectionResponse `json:"detections"`
}

func toTagResponse(t *domain.RFIDTag) tagResponse {
	return tagResponse{
		ID:              t.ID,
		EPC:             t.EPC,
		TID:             t.TID,
		Status:          t.Status.String(),
		InventoryItemID: t.InventoryItemID,
		FirstSeenAt:     t.FirstSeenAt,
		LastSeenAt:      t.LastSeenAt,
		DetectionCount:  t.DetectionCount,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func toDetectionResponse(d domain.RFIDDetection) detectionResponse {
	resp := detectionResponse{
		ID:         d.ID,
		TagID:      d.TagID,
		ReaderID:   d.ReaderID,
		ReaderName: d.ReaderName,
		RSSI:       d.RSSI,
		Timestamp:  d.Timestamp,
	}
	if d.Direction != nil {
		s := d.Direction.String()
		resp.Direction = &s
	}
	return resp
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// RecordDetection handles POST /api/v1/rfid/detections (reader-facing).
func (h *RFIDHandler) RecordDetection(w http.ResponseWriter, r *http.Request) {
	var req detectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := rfid.RecordDetectionInput{
		EPC:        req.EPC,
		ReaderID:   req.ReaderID,
		ReaderName: req.ReaderName,
		RSSI:       req.RSSI,
	}
	if req.Direction != nil {
		dir := domain.Direction(*req.Direction)
		input.Direction = &dir
	}
	if req.Timestamp != nil {
		input.Timestamp = *req.Timestamp
	}

	tag, err := h.svc.RecordDetection(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, toTagResponse(tag))
}

// ListTags handles GET /api/v1/rfid/tags.
func (h *RFIDHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTagFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tags, total, err := h.svc.ListTags(r.Context(), filter)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := tagListResponse{Tags: make([]tagResponse, 0, len(tags)), TotalCount: total}
	for _, t := range tags {
		resp.Tags = append(resp.Tags, toTagResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListUnknown handles GET /api/v1/rfid/tags/unknown.
func (h *RFIDHandler) ListUnknown(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListUnknownTags(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := tagListResponse{Tags: make([]tagResponse, 0, len(tags)), TotalCount: len(tags)}
	for _, t := range tags {
		resp.Tags = append(resp.Tags, toTagResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTag handles GET /api/v1/rfid/tags/{id}.
func (h *RFIDHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tag id")
		return
	}

	tag, detections, err := h.svc.GetTag(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := tagDetailResponse{
		Tag:        toTagResponse(tag),
		Detections: make([]detectionResponse, 0, len(detections)),
	}
	for _, d := range detections {
		resp.Detections = append(resp.Detections, toDetectionResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateTag handles POST /api/v1/rfid/tags.
func (h *RFIDHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req registerTagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tag, err := h.svc.RegisterTag(r.Context(), rfid.RegisterTagInput{
		EPC:    req.EPC,
		TID:    req.TID,
		ItemID: req.ItemID,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTagResponse(tag))
}

// Enroll handles POST /api/v1/rfid/tags/{id}/enroll.
func (h *RFIDHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tag id")
		return
	}

	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tag, err := h.svc.Enroll(r.Context(), rfid.EnrollInput{TagID: id, ItemID: req.ItemID})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTagResponse(tag))
}

// Unenroll handles DELETE /api/v1/rfid/tags/{id}/enroll.
func (h *RFIDHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tag id")
		return
	}

	tag, err := h.svc.Unenroll(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTagResponse(tag))
}

// DeleteTag handles DELETE /api/v1/rfid/tags/{id}.
func (h *RFIDHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tag id")
		return
	}

	if err := h.svc.DeleteTag(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseTagFilter builds a TagFilter from query parameters:
// search, status, limit, offset.
func parseTagFilter(r *http.Request) (domain.TagFilter, error) {
	q := r.URL.Query()
	var filter domain.TagFilter

	if s := q.Get("search"); s != "" {
		filter.Search = &s
	}
	if s := q.Get("status"); s != "" {
		status := domain.TagStatus(s)
		filter.Status = &status
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
