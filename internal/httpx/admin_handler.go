package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/admin"
	"github.com/ariefcatur/go-digital-market.git/internal/catalog"
	"github.com/ariefcatur/go-digital-market.git/internal/users"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type StatsReader interface {
	Stats(ctx context.Context) (admin.Stats, error)
}

// AdminHandler serves operator endpoints; every route requires an ADMIN caller.
type AdminHandler struct {
	Auth    Authenticator
	Catalog CatalogService
	Users   UserService
	Stats   StatsReader
	Log     *zap.Logger
}

type StatusReq struct {
	Status string `json:"status"`
}

type RoleReq struct {
	Role string `json:"role"`
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireRole(h.Auth, h.Log, users.RoleAdmin))
		r.Put("/assets/{id}/status", h.setAssetStatus)
		r.Delete("/assets/{id}", h.deleteAsset)
		r.Put("/users/{id}/role", h.setRole)
		r.Get("/stats", h.stats)
	})
}

func (h *AdminHandler) setAssetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	st, err := catalog.ParseStatus(req.Status)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	a, err := h.Catalog.SetStatus(ctx, chi.URLParam(r, "id"), st)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AdminHandler) deleteAsset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Catalog.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) setRole(w http.ResponseWriter, r *http.Request) {
	var req RoleReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.SetRole(ctx, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s, err := h.Stats.Stats(ctx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
