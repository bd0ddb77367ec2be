package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type ProductParameter struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
}

// ProductInfo is one shop's offer of a product.
type ProductInfo struct {
	ID         int64              `json:"id"`
	ExternalID int64              `json:"external_id"`
	Model      string             `json:"model"`
	Product    Product            `json:"product"`
	ShopID     int64              `json:"shop"`
	ShopName   string             `json:"shop_name"`
	Quantity   int                `json:"quantity"`
	Price      decimal.Decimal    `json:"price"`
	PriceRRC   decimal.Decimal    `json:"price_rrc"`
	ArchivedAt *time.Time         `json:"-"`
	Parameters []ProductParameter `json:"product_parameters"`
}

type ProductFilter struct {
	ShopID     *int64
	CategoryID *int64
	Limit      int
	Offset     int
}

// NewOffer is the row written for each imported good.
type NewOffer struct {
	ProductID  int64
	ShopID     int64
	ExternalID int64
	Model      string
	Price      decimal.Decimal
	PriceRRC   decimal.Decimal
	Quantity   int
}

// Feed is a validated-on-import shop catalog.
type Feed struct {
	Shop       string         `json:"shop" validate:"required,max=50"`
	Categories []FeedCategory `json:"categories" validate:"required,dive"`
	Goods      []FeedGood     `json:"goods" validate:"required,dive"`

	// Source is where the feed was fetched from. When set it is stored as
	// the shop URL.
	Source string `json:"-"`
}

type FeedCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required,max=40"`
}

type FeedGood struct {
	ID         int64           `json:"id"`
	Category   int64           `json:"category"`
	Name       string          `json:"name" validate:"required,max=80"`
	Model      string          `json:"model" validate:"max=80"`
	Price      decimal.Decimal `json:"price"`
	PriceRRC   decimal.Decimal `json:"price_rrc"`
	Quantity   int             `json:"quantity" validate:"gte=0"`
	Parameters map[string]any  `json:"parameters"`
}

type ImportResult struct {
	ShopID int64
	Shop   string
	// feed category id -> store category id
	CategoryIDs map[int64]int64
	// feed good id -> store product id
	ProductIDs map[int64]int64
}
