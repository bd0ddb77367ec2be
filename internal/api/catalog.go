package api

import (
	"net/http"
	"strconv"

	"goods-be/internal/catalog"
	"goods-be/internal/shop"
	"goods-be/internal/utils"
)

func optionalID(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, ok := utils.ParseID(raw)
	if !ok {
		return nil, ErrBadQuery.With(key)
	}
	return &id, nil
}

func optionalInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrBadQuery.With(key)
	}
	return n, nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var (
		filter catalog.ProductFilter
		err    error
	)
	if filter.ShopID, err = optionalID(r, "shop_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.CategoryID, err = optionalID(r, "category_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Limit, err = optionalInt(r, "limit"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Offset, err = optionalInt(r, "offset"); err != nil {
		writeError(w, r, err)
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"products": nonNil(products)})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"categories": nonNil(cats)})
}

type shopView struct {
	shop.Shop
	Owner string `json:"user"`
}

func (h *Handler) listShops(w http.ResponseWriter, r *http.Request) {
	shopID, err := optionalID(r, "shop_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	shops, err := h.shops.ListShops(r.Context(), shop.Filter{ShopID: shopID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]shopView, len(shops))
	for i, s := range shops {
		out[i] = shopView{Shop: s, Owner: s.OwnerEmail}
	}
	writeOK(w, envelope{"shops": out})
}
