package order

import (
	"time"

	"goods-be/internal/catalog"
	"goods-be/internal/contact"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID          int64               `json:"id"`
	OrderID     int64               `json:"-"`
	ProductInfo catalog.ProductInfo `json:"product_info"`
	Quantity    int                 `json:"quantity"`
}

type Order struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"-"`
	State     State            `json:"state"`
	CreatedAt time.Time        `json:"dt"`
	ContactID *int64           `json:"-"`
	Contact   *contact.Contact `json:"contact"`
	Items     []Item           `json:"ordered_items"`
	TotalSum  decimal.Decimal  `json:"total_sum"`
}

type AddItem struct {
	ProductInfoID int64 `json:"product_info"`
	Quantity      int   `json:"quantity"`
}

type UpdateItem struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// Query selects orders for listing. Exactly one of UserID and ShopOwnerID
// is set.
type Query struct {
	UserID      *int64
	ShopOwnerID *int64
	Basket      bool
}

// ItemShop pairs a basket item with the shop that sells it.
type ItemShop struct {
	ItemID int64
	ShopID int64
}

// TotalSum prices items at their offers' current price.
func TotalSum(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.ProductInfo.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
