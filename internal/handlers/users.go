package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fichaje-app/apiserver/internal/services"
	"github.com/fichaje-app/apiserver/internal/store"
	"github.com/fichaje-app/apiserver/types"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler provides the admin-facing user management endpoints.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler constructs a handler over the user service.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers user management routes. Every route requires an
// authenticated admin.
func UserRouter(r chi.Router, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(userService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Get("/by-pin/{pin}", handler.GetByPIN)
	r.Delete("/{userID}", handler.DeleteUser)
}

type CreateUserRequest struct {
	Name       string `json:"name"`
	PIN        string `json:"pin"`
	Role       string `json:"role"`
	FacilityID string `json:"facilityId"`
	Password   string `json:"password"`
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	facilityID := strings.TrimSpace(r.URL.Query().Get("facilityId"))
	if facilityID == "" {
		writeError(w, http.StatusBadRequest, "missing facilityId")
		return
	}

	users, err := h.userService.ListByFacility(r.Context(), facilityID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.PIN = strings.TrimSpace(req.PIN)
	req.FacilityID = strings.TrimSpace(req.FacilityID)
	if req.Name == "" || req.PIN == "" || req.FacilityID == "" {
		writeError(w, http.StatusBadRequest, "missing name, pin, or facility")
		return
	}

	user := types.User{
		Name:       req.Name,
		PIN:        req.PIN,
		Role:       req.Role,
		FacilityID: req.FacilityID,
	}
	if req.Role == types.RoleAdmin {
		if req.Password == "" {
			writeError(w, http.StatusBadRequest, "admin accounts require a password")
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create user")
			return
		}
		user.PasswordHash = string(hashed)
	}

	created, err := h.userService.Create(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPIN):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrDuplicatePIN):
			writeError(w, http.StatusConflict, "pin already exists in this facility")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) GetByPIN(w http.ResponseWriter, r *http.Request) {
	pin := chi.URLParam(r, "pin")
	facilityID := strings.TrimSpace(r.URL.Query().Get("facilityId"))
	if facilityID == "" {
		writeError(w, http.StatusBadRequest, "missing facilityId")
		return
	}

	user, err := h.userService.GetByPIN(r.Context(), pin, facilityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
