package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/imago3d/apiserver/internal/services"
	"github.com/imago3d/apiserver/internal/store"
	"github.com/imago3d/apiserver/types"
)

// UserHandler serves the admin user table.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers user routes; all of them require authentication.
func UserRouter(r chi.Router, userService *services.UserService, requireAuth func(http.Handler) http.Handler) {
	handler := NewUserHandler(userService)

	r.With(requireAuth).Get("/users", handler.List)
	r.With(requireAuth).Delete("/users/{id}", handler.Delete)
	r.With(requireAuth).Get("/check-admin", handler.CheckAdmin)
}

// List returns every account. Admins only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if !caller.IsAdmin {
		writeError(w, http.StatusForbidden, "admin access required")
		return
	}

	users, err := h.userService.List(r.Context())
	if err != nil {
		log.Printf("list users: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Delete removes an account. Admins only; an admin cannot delete
// their own account, so the table always keeps at least one admin
// able to undo a mistake.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if !caller.IsAdmin {
		writeError(w, http.StatusForbidden, "admin access required")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if id == caller.ID {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("delete user %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckAdmin reports whether the caller is an admin. The browser admin
// page polls this before rendering its table.
func (h *UserHandler) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_admin": caller.IsAdmin})
}

// caller resolves the request's claims to a fresh user row. The admin
// flag is deliberately read from the store, not the token, so demoting
// an admin takes effect on their next request.
func (h *UserHandler) caller(w http.ResponseWriter, r *http.Request) (types.User, bool) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.User{}, false
	}

	user, err := h.userService.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return types.User{}, false
		}
		log.Printf("resolve caller: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return types.User{}, false
	}
	return user, true
}
