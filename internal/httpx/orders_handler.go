package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type OrderService interface {
	Create(ctx context.Context, n orders.NewOrder, traceID string) (orders.Order, bool, error)
	Get(ctx context.Context, orderID string) (orders.Order, error)
	Status(ctx context.Context, orderID string) (orders.Status, error)
}

type OrdersHandler struct {
	Orders OrderService
	Log    *zap.Logger
}

type CreateOrderReq struct {
	BuyerID  string   `json:"buyer_id"`
	AssetIDs []string `json:"asset_ids"`
}

type CreateOrderResp struct {
	orders.Order
	Idempotent bool `json:"idempotent"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getStatus)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, existed, err := h.Orders.Create(ctx, orders.NewOrder{
		BuyerID:        req.BuyerID,
		AssetIDs:       req.AssetIDs,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}, middleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	code := http.StatusCreated
	if existed {
		code = http.StatusOK
	}
	writeJSON(w, code, CreateOrderResp{Order: o, Idempotent: existed})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	st, err := h.Orders.Status(ctx, orderID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "status": string(st)})
}
