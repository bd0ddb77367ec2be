package api

import (
	"context"
	"net/http"

	"goods-be/internal/catalog"
	"goods-be/internal/contact"
	"goods-be/internal/metrics"
	"goods-be/internal/order"
	"goods-be/internal/shop"
	"goods-be/internal/user"
)

const Prefix = "/api/v1"

type FeedFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*catalog.Feed, error)
}

type Handler struct {
	users    user.Service
	contacts contact.Service
	shops    shop.Service
	catalog  catalog.Service
	orders   order.Service
	feeds    FeedFetcher
	// secure marks the auth cookie Secure outside development.
	secure bool
}

type Deps struct {
	Users    user.Service
	Contacts contact.Service
	Shops    shop.Service
	Catalog  catalog.Service
	Orders   order.Service
	Feeds    FeedFetcher
	Secure   bool
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		users:    d.Users,
		contacts: d.Contacts,
		shops:    d.Shops,
		catalog:  d.Catalog,
		orders:   d.Orders,
		feeds:    d.Feeds,
		secure:   d.Secure,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+Prefix+"/partner/update", h.partnerUpdate)
	mux.HandleFunc("GET "+Prefix+"/partner/state", h.partnerState)
	mux.HandleFunc("POST "+Prefix+"/partner/state", h.setPartnerState)
	mux.HandleFunc("GET "+Prefix+"/partner/orders", h.partnerOrders)
	mux.HandleFunc("POST "+Prefix+"/partner/orders", h.setPartnerOrderState)

	mux.HandleFunc("POST "+Prefix+"/user/register", h.register)
	mux.HandleFunc("POST "+Prefix+"/user/login", h.login)
	mux.HandleFunc("POST "+Prefix+"/user/logout", h.logout)
	mux.HandleFunc("GET "+Prefix+"/user/contact", h.listContacts)
	mux.HandleFunc("POST "+Prefix+"/user/contact", h.createContact)
	mux.HandleFunc("PUT "+Prefix+"/user/contact", h.updateContact)
	mux.HandleFunc("DELETE "+Prefix+"/user/contact", h.deleteContacts)

	mux.HandleFunc("GET "+Prefix+"/basket", h.getBasket)
	mux.HandleFunc("POST "+Prefix+"/basket", h.addToBasket)
	mux.HandleFunc("PUT "+Prefix+"/basket", h.updateBasket)
	mux.HandleFunc("DELETE "+Prefix+"/basket", h.removeFromBasket)

	mux.HandleFunc("GET "+Prefix+"/orders", h.listOrders)
	mux.HandleFunc("POST "+Prefix+"/orders", h.checkout)

	mux.HandleFunc("GET "+Prefix+"/products", h.listProducts)
	mux.HandleFunc("GET "+Prefix+"/categories", h.listCategories)
	mux.HandleFunc("GET "+Prefix+"/shops", h.listShops)

	mux.HandleFunc("GET /health", health)
	mux.Handle("GET /metrics", metrics.Handler())
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, nil)
}
