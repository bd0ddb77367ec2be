//go:build integration

package catalog

import (
	"context"
	"database/sql"
	"testing"

	"goods-be/internal/db"
	"goods-be/internal/shop"
	"goods-be/internal/testdb"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreService(t *testing.T) (Service, *sql.DB) {
	database := testdb.New(t)
	return NewService(db.NewTxRunner(database), NewRepository(database), shop.NewRepository(database)), database
}

func TestIntegration_ImportScenario(t *testing.T) {
	svc, database := newStoreService(t)
	count := func(query string, args ...any) int { return testdb.Count(t, database, query, args...) }
	owner := testdb.CreateUser(t, database, "partner@example.com", "shop")
	ctx := context.Background()

	res, err := svc.ImportShop(ctx, owner, sampleFeed())
	require.NoError(t, err)

	assert.Equal(t, 1, count(`SELECT COUNT(*) FROM shops`))
	assert.Equal(t, 1, count(`SELECT COUNT(*) FROM categories`))
	assert.Equal(t, 1, count(`SELECT COUNT(*) FROM category_shops WHERE shop_id = $1`, res.ShopID))
	assert.Equal(t, 1, count(`SELECT COUNT(*) FROM products`))
	assert.Equal(t, 1, count(`SELECT COUNT(*) FROM product_infos`))
	assert.Equal(t, 3, count(`SELECT COUNT(*) FROM parameters`))

	products, err := svc.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, int64(4216292), p.ExternalID)
	assert.Equal(t, "Связной", p.ShopName)
	assert.Equal(t, "Смартфоны", p.Product.Category)
	assert.True(t, decimal.RequireFromString("110000").Equal(p.Price))
	assert.Contains(t, p.Parameters, ProductParameter{Parameter: "Диагональ (дюйм)", Value: "6.5"})
	assert.Contains(t, p.Parameters, ProductParameter{Parameter: "Встроенная память (Гб)", Value: "512"})
}

func TestIntegration_ImportIsIdempotent(t *testing.T) {
	svc, database := newStoreService(t)
	count := func(query string, args ...any) int { return testdb.Count(t, database, query, args...) }
	owner := testdb.CreateUser(t, database, "partner@example.com", "shop")
	ctx := context.Background()

	first, err := svc.ImportShop(ctx, owner, sampleFeed())
	require.NoError(t, err)
	before, err := svc.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)

	second, err := svc.ImportShop(ctx, owner, sampleFeed())
	require.NoError(t, err)
	after, err := svc.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)

	assert.Equal(t, first.ShopID, second.ShopID)
	assert.Equal(t, first.CategoryIDs, second.CategoryIDs)
	assert.Equal(t, first.ProductIDs, second.ProductIDs)
	assert.Equal(t, 1, count(`SELECT COUNT(*) FROM categories`))
	assert.Equal(t, 1, count(`SELECT COUNT(*) FROM products`))
	assert.Equal(t, 3, count(`SELECT COUNT(*) FROM parameters`))

	require.Len(t, before, 1)
	require.Len(t, after, 1)
	assert.NotEqual(t, before[0].ID, after[0].ID, "offers are replaced on every import")
	assert.Equal(t, 1, count(`SELECT COUNT(*) FROM product_infos`))
}

func TestIntegration_ImportFullyReplacesOffers(t *testing.T) {
	svc, database := newStoreService(t)
	owner := testdb.CreateUser(t, database, "partner@example.com", "shop")
	ctx := context.Background()

	a := sampleFeed()
	extra := a.Goods[0]
	extra.ID, extra.Name = 1, "Смартфон Apple iPhone XR 64GB (черный)"
	a.Goods = append(a.Goods, extra)
	_, err := svc.ImportShop(ctx, owner, a)
	require.NoError(t, err)

	b := sampleFeed()
	b.Goods[0].ID, b.Goods[0].Name = 2, "Смартфон Xiaomi Mi 9 64GB (синий)"
	_, err = svc.ImportShop(ctx, owner, b)
	require.NoError(t, err)

	products, err := svc.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(2), products[0].ExternalID)
}

func TestIntegration_ImportRollsBackOnConflict(t *testing.T) {
	svc, database := newStoreService(t)
	count := func(query string, args ...any) int { return testdb.Count(t, database, query, args...) }
	owner := testdb.CreateUser(t, database, "partner@example.com", "shop")
	ctx := context.Background()

	_, err := svc.ImportShop(ctx, owner, sampleFeed())
	require.NoError(t, err)

	other := sampleFeed()
	other.Shop = "Евросеть"
	other.Categories[0].Name = "Планшеты"
	_, err = svc.ImportShop(ctx, owner, other)
	require.ErrorIs(t, err, shop.ErrOwnerHasShop)

	assert.Equal(t, 0, count(`SELECT COUNT(*) FROM categories WHERE name = 'Планшеты'`))
	assert.Equal(t, 1, count(`SELECT COUNT(*) FROM product_infos WHERE archived_at IS NULL`))
}

func TestIntegration_ClosedShopHidesProducts(t *testing.T) {
	svc, database := newStoreService(t)
	owner := testdb.CreateUser(t, database, "partner@example.com", "shop")
	ctx := context.Background()

	res, err := svc.ImportShop(ctx, owner, sampleFeed())
	require.NoError(t, err)
	require.NoError(t, shop.NewRepository(database).SetState(ctx, owner, false))

	products, err := svc.ListProducts(ctx, ProductFilter{ShopID: &res.ShopID})
	require.NoError(t, err)
	assert.Empty(t, products)
}
