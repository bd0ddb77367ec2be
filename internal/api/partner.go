package api

import (
	"net/http"

	"goods-be/internal/order"
	"goods-be/internal/shop"
)

type partnerUpdateRequest struct {
	URL string `json:"url"`
}

func (h *Handler) partnerUpdate(w http.ResponseWriter, r *http.Request) {
	ownerID, err := shop.RequireOwner(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req partnerUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.URL == "" {
		writeError(w, r, ErrMissingArgs.With("url"))
		return
	}

	feed, err := h.feeds.Fetch(r.Context(), req.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.catalog.ImportShop(r.Context(), ownerID, *feed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{
		"shop_id":              res.ShopID,
		"actual_categories_id": res.CategoryIDs,
		"actual_products_id":   res.ProductIDs,
	})
}

func (h *Handler) partnerState(w http.ResponseWriter, r *http.Request) {
	s, err := h.shops.GetOwn(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"shop": s})
}

type partnerStateRequest struct {
	State *bool `json:"state"`
}

func (h *Handler) setPartnerState(w http.ResponseWriter, r *http.Request) {
	var req partnerStateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.State == nil {
		writeError(w, r, ErrMissingArgs.With("state"))
		return
	}

	s, err := h.shops.SetState(r.Context(), *req.State)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"shop": s})
}

func (h *Handler) partnerOrders(w http.ResponseWriter, r *http.Request) {
	ownerID, err := shop.RequireOwner(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := h.orders.ListShopOrders(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"orders": nonNil(orders)})
}

type partnerOrderStateRequest struct {
	OrderID int64  `json:"order_id"`
	State   string `json:"state"`
}

func (h *Handler) setPartnerOrderState(w http.ResponseWriter, r *http.Request) {
	ownerID, err := shop.RequireOwner(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req partnerOrderStateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.OrderID <= 0 || req.State == "" {
		writeError(w, r, ErrMissingArgs.With("order_id and state"))
		return
	}
	state, err := order.ParseState(req.State)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.orders.UpdateShopOrderState(r.Context(), ownerID, req.OrderID, state); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, nil)
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
