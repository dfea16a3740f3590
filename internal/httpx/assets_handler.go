package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/catalog"
	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/fulfillment"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogService interface {
	Create(ctx context.Context, n catalog.NewAsset) (catalog.Asset, error)
	Get(ctx context.Context, id string) (catalog.Asset, error)
	Update(ctx context.Context, id string, p catalog.AssetPatch) (catalog.Asset, error)
	SetStatus(ctx context.Context, id string, st catalog.Status) (catalog.Asset, error)
	Delete(ctx context.Context, id string) error
	AddPreview(ctx context.Context, assetID, rawURL string, kind catalog.PreviewKind) (catalog.Preview, error)
}

type DownloadService interface {
	Entitled(ctx context.Context, buyerID, assetID string) (bool, error)
	DownloadURL(ctx context.Context, assetID, buyerID string) (fulfillment.Link, error)
}

type AssetsHandler struct {
	Catalog   CatalogService
	Downloads DownloadService
	Limiter   *BuyerRateLimiter // optional
	Log       *zap.Logger
}

type DownloadReq struct {
	BuyerID string `json:"buyer_id"`
}

type PreviewReq struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

func (h *AssetsHandler) Register(r chi.Router) {
	r.Post("/assets", h.create)
	r.Get("/assets/{id}", h.get)
	r.Put("/assets/{id}", h.update)
	r.Post("/assets/{id}/previews", h.addPreview)
	r.Post("/assets/{id}/download", h.download)
	r.Get("/assets/{id}/entitlement", h.entitlement)
}

func (h *AssetsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewAsset
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	a, err := h.Catalog.Create(ctx, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AssetsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	a, err := h.Catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AssetsHandler) update(w http.ResponseWriter, r *http.Request) {
	var p catalog.AssetPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	a, err := h.Catalog.Update(ctx, chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AssetsHandler) addPreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	kind, err := catalog.ParsePreviewKind(req.Kind)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Catalog.AddPreview(ctx, chi.URLParam(r, "id"), req.URL, kind)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *AssetsHandler) download(w http.ResponseWriter, r *http.Request) {
	var req DownloadReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	buyerID := strings.TrimSpace(req.BuyerID)
	if buyerID == "" {
		writeError(w, h.Log, fmt.Errorf("%w: buyer_id is required", errs.ErrInvalid))
		return
	}
	if h.Limiter != nil && !h.Limiter.Allow(buyerID) {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many download requests"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	link, err := h.Downloads.DownloadURL(ctx, chi.URLParam(r, "id"), buyerID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, link)
}

func (h *AssetsHandler) entitlement(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "id")
	buyerID := r.URL.Query().Get("buyer_id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ok, err := h.Downloads.Entitled(ctx, buyerID, assetID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"asset_id": assetID, "buyer_id": buyerID, "entitled": ok})
}
