package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fichaje-app/apiserver/internal/services"
	"github.com/fichaje-app/apiserver/internal/store"
	"github.com/fichaje-app/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// ClockHandler provides the kiosk-facing clock endpoints.
type ClockHandler struct {
	clockService *services.ClockService
}

// NewClockHandler constructs a handler over the clock service.
func NewClockHandler(clockService *services.ClockService) *ClockHandler {
	return &ClockHandler{clockService: clockService}
}

// ClockRouter registers clock routes on the given router.
func ClockRouter(r chi.Router, clockService *services.ClockService) {
	handler := NewClockHandler(clockService)

	r.Post("/", handler.ClockIn)
	r.Get("/status", handler.Status)
}

type ClockInRequest struct {
	PIN        string `json:"pin"`
	FacilityID string `json:"facilityId"`
	Kind       string `json:"kind"`
}

type ClockInResponse struct {
	Message   string          `json:"message"`
	ShiftOpen bool            `json:"shiftOpen"`
	BreakOpen bool            `json:"breakOpen"`
	Kind      types.EventKind `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
}

// ClockIn records an entry/exit/break event for the worker identified
// by PIN and facility.
func (h *ClockHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req ClockInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.PIN = strings.TrimSpace(req.PIN)
	req.FacilityID = strings.TrimSpace(req.FacilityID)
	if req.PIN == "" || req.FacilityID == "" || req.Kind == "" {
		writeError(w, http.StatusBadRequest, "missing pin, kind, or facility")
		return
	}

	kind, err := types.ParseEventKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.clockService.ClockIn(r.Context(), req.PIN, req.FacilityID, kind, time.Now())
	if err != nil {
		var rejection *services.RejectionError
		switch {
		case errors.As(err, &rejection):
			writeJSON(w, http.StatusBadRequest, rejection)
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "unknown pin for this facility")
		default:
			writeError(w, http.StatusInternalServerError, "failed to record event")
		}
		return
	}

	writeJSON(w, http.StatusOK, ClockInResponse{
		Message:   "event recorded",
		ShiftOpen: snapshot.ShiftOpen,
		BreakOpen: snapshot.BreakOpen,
		Kind:      snapshot.Kind,
		Timestamp: snapshot.RecordedAt,
	})
}

// Status returns the worker's current day state. The kiosk re-fetches
// it before rendering action buttons; the server is the single source
// of truth.
func (h *ClockHandler) Status(w http.ResponseWriter, r *http.Request) {
	pin := strings.TrimSpace(r.URL.Query().Get("pin"))
	facilityID := strings.TrimSpace(r.URL.Query().Get("facilityId"))
	if pin == "" || facilityID == "" {
		writeError(w, http.StatusBadRequest, "missing pin or facility")
		return
	}

	status, err := h.clockService.Status(r.Context(), pin, facilityID, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown pin for this facility")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resolve status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}
