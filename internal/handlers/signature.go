package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fichaje-app/apiserver/internal/services"
	"github.com/fichaje-app/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
)

// SignatureHandler receives the confirmation signatures drawn on the kiosk.
type SignatureHandler struct {
	userService      *services.UserService
	signatureService *services.SignatureService
}

// NewSignatureHandler constructs a handler over its services.
func NewSignatureHandler(userService *services.UserService, signatureService *services.SignatureService) *SignatureHandler {
	return &SignatureHandler{
		userService:      userService,
		signatureService: signatureService,
	}
}

// SignatureRouter registers signature routes on the given router.
func SignatureRouter(r chi.Router, userService *services.UserService, signatureService *services.SignatureService) {
	handler := NewSignatureHandler(userService, signatureService)

	r.Post("/", handler.SaveSignature)
}

type SignatureRequest struct {
	PIN        string `json:"pin"`
	FacilityID string `json:"facilityId"`
	Kind       string `json:"kind"`
	Signature  string `json:"signature"`
}

type SignatureResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}

func (h *SignatureHandler) SaveSignature(w http.ResponseWriter, r *http.Request) {
	var req SignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.PIN = strings.TrimSpace(req.PIN)
	req.FacilityID = strings.TrimSpace(req.FacilityID)
	req.Kind = strings.TrimSpace(req.Kind)
	if req.PIN == "" || req.FacilityID == "" || req.Kind == "" || req.Signature == "" {
		writeError(w, http.StatusBadRequest, "missing pin, kind, facility, or signature")
		return
	}

	user, err := h.userService.GetByPIN(r.Context(), req.PIN, req.FacilityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown pin for this facility")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	key, err := h.signatureService.Save(r.Context(), user, req.Kind, req.Signature, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			writeError(w, http.StatusBadRequest, "invalid signature payload")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to store signature")
		return
	}

	writeJSON(w, http.StatusOK, SignatureResponse{Message: "signature stored", Key: key})
}
