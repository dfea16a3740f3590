package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/ledger"
	"github.com/ariefcatur/go-digital-market.git/internal/users"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserService interface {
	Sync(ctx context.Context, bearer string) (users.User, error)
	Get(ctx context.Context, userID string) (users.User, error)
	SetRole(ctx context.Context, userID, role string) (users.User, error)
}

type EarningsReader interface {
	Earnings(ctx context.Context, sellerID string) (ledger.Earnings, error)
}

type UsersHandler struct {
	Users  UserService
	Ledger EarningsReader // optional
	Log    *zap.Logger
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Post("/auth/sync", h.sync)
	r.Get("/users/{id}", h.get)
	if h.Ledger != nil {
		r.Get("/sellers/{id}/earnings", h.earnings)
	}
}

func (h *UsersHandler) sync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Sync(ctx, r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Users.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) earnings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	e, err := h.Ledger.Earnings(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
