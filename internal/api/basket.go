package api

import (
	"encoding/json"
	"net/http"

	"goods-be/internal/order"
	"goods-be/internal/utils"
)

type itemsRequest struct {
	Items json.RawMessage `json:"items"`
}

func requireUser(r *http.Request) (int64, error) {
	id, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return 0, ErrLoginRequired
	}
	return id, nil
}

func (h *Handler) getBasket(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	basket, err := h.orders.GetBasket(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"basket": nonNil(basket)})
}

func (h *Handler) addToBasket(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req itemsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var items []order.AddItem
	if err := decodeItems(req.Items, &items); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.orders.AddToBasket(r.Context(), userID, items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"created": n})
}

func (h *Handler) updateBasket(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req itemsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var items []order.UpdateItem
	if err := decodeItems(req.Items, &items); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.orders.UpdateBasket(r.Context(), userID, items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"updated": n})
}

func (h *Handler) removeFromBasket(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req itemsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ids, err := idList(req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.orders.RemoveFromBasket(r.Context(), userID, ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"deleted": n})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"orders": nonNil(orders)})
}

type checkoutRequest struct {
	BasketID  int64 `json:"basket_id"`
	ContactID int64 `json:"contact_id"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.BasketID <= 0 || req.ContactID <= 0 {
		writeError(w, r, ErrMissingArgs.With("basket_id and contact_id"))
		return
	}

	ids, err := h.orders.Checkout(r.Context(), userID, req.BasketID, req.ContactID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"orders": ids})
}
