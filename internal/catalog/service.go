package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"goods-be/internal/apperr"
	"goods-be/internal/db"
	"goods-be/internal/logger"
	"goods-be/internal/metrics"
	"goods-be/internal/shop"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	// ImportShop replaces the offers of the owner's shop with the feed, in
	// one transaction.
	ImportShop(ctx context.Context, ownerID int64, feed Feed) (*ImportResult, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]ProductInfo, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

type service struct {
	tx       db.TxRunner
	repo     Repository
	shops    shop.Repository
	validate *validator.Validate
}

func NewService(tx db.TxRunner, repo Repository, shops shop.Repository) Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &service{tx: tx, repo: repo, shops: shops, validate: v}
}

type param struct {
	name  string
	value string
}

type preparedGood struct {
	FeedGood
	params []param
}

// maxPrice is the exclusive bound of a NUMERIC(12,2) column.
var maxPrice = decimal.New(1, 10)

// prepare checks the whole feed before anything is written.
func (s *service) prepare(feed Feed) ([]preparedGood, error) {
	if err := s.validate.Struct(feed); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return nil, ErrInvalidFeed.With(fmt.Sprintf("%s failed on '%s'", fieldPath(fe.Namespace()), fe.Tag()))
		}
		return nil, ErrInvalidFeed.With(err.Error())
	}

	known := make(map[int64]struct{}, len(feed.Categories))
	for _, c := range feed.Categories {
		known[c.ID] = struct{}{}
	}

	goods := make([]preparedGood, 0, len(feed.Goods))
	for _, g := range feed.Goods {
		if _, ok := known[g.Category]; !ok {
			return nil, ErrCategoryNotFound.With(fmt.Sprintf("good %d references category %d", g.ID, g.Category))
		}
		if g.Price.IsNegative() || g.PriceRRC.IsNegative() {
			return nil, ErrNegativePrice.With(fmt.Sprintf("good %d", g.ID))
		}
		for _, p := range []decimal.Decimal{g.Price, g.PriceRRC} {
			if !p.Equal(p.Round(2)) || p.Abs().GreaterThanOrEqual(maxPrice) {
				return nil, ErrInvalidFeed.With(fmt.Sprintf("good %d: price %s does not fit NUMERIC(12,2)", g.ID, p))
			}
		}

		names := make([]string, 0, len(g.Parameters))
		for name := range g.Parameters {
			names = append(names, name)
		}
		sort.Strings(names)

		pg := preparedGood{FeedGood: g, params: make([]param, 0, len(names))}
		for _, name := range names {
			if name == "" || len([]rune(name)) > 40 {
				return nil, ErrInvalidParameter.With(fmt.Sprintf("good %d: bad parameter name %q", g.ID, name))
			}
			value, err := ParameterValue(g.Parameters[name])
			if err != nil {
				return nil, fmt.Errorf("good %d, parameter %q: %w", g.ID, name, err)
			}
			pg.params = append(pg.params, param{name: name, value: value})
		}
		goods = append(goods, pg)
	}
	return goods, nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func (s *service) ImportShop(ctx context.Context, ownerID int64, feed Feed) (*ImportResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ImportShop"),
		zap.Int64("owner_id", ownerID),
		zap.String("shop", feed.Shop),
	)
	timer := metrics.StartTimer()

	goods, err := s.prepare(feed)
	if err != nil {
		metrics.CatalogImports.WithLabelValues("rejected").Inc()
		log.Warn("feed rejected", zap.Error(err))
		return nil, err
	}

	result := &ImportResult{
		Shop:        feed.Shop,
		CategoryIDs: make(map[int64]int64, len(feed.Categories)),
		ProductIDs:  make(map[int64]int64, len(goods)),
	}

	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		shops := s.shops.WithTx(tx)

		shopID, err := shops.Upsert(ctx, feed.Shop, ownerID)
		if err != nil {
			return err
		}
		result.ShopID = shopID
		if feed.Source != "" {
			if err := shops.SetURL(ctx, shopID, feed.Source); err != nil {
				return err
			}
		}

		if err := repo.ClearShopCategories(ctx, shopID); err != nil {
			return err
		}
		for _, c := range feed.Categories {
			categoryID, err := repo.UpsertCategory(ctx, c.Name)
			if err != nil {
				return err
			}
			if err := repo.LinkCategory(ctx, categoryID, shopID); err != nil {
				return err
			}
			result.CategoryIDs[c.ID] = categoryID
		}

		if err := repo.RetireOffers(ctx, shopID); err != nil {
			return err
		}

		paramIDs := make(map[string]int64)
		for _, g := range goods {
			productID, err := repo.UpsertProduct(ctx, g.Name, result.CategoryIDs[g.Category])
			if err != nil {
				return err
			}
			result.ProductIDs[g.ID] = productID

			infoID, err := repo.InsertOffer(ctx, NewOffer{
				ProductID:  productID,
				ShopID:     shopID,
				ExternalID: g.ID,
				Model:      g.Model,
				Price:      g.Price,
				PriceRRC:   g.PriceRRC,
				Quantity:   g.Quantity,
			})
			if err != nil {
				return err
			}

			for _, p := range g.params {
				paramID, ok := paramIDs[p.name]
				if !ok {
					if paramID, err = repo.UpsertParameter(ctx, p.name); err != nil {
						return err
					}
					paramIDs[p.name] = paramID
				}
				if err := repo.InsertProductParameter(ctx, infoID, paramID, p.value); err != nil {
					return err
				}
			}
		}
		return nil
	})

	timer.ObserveDuration(metrics.CatalogImportDuration)
	if err != nil {
		metrics.CatalogImports.WithLabelValues("failed").Inc()
		log.Error("import failed", zap.Error(err))
		return nil, apperr.FromPQ(err)
	}

	metrics.CatalogImports.WithLabelValues("success").Inc()
	metrics.CatalogImportedGoods.Add(float64(len(goods)))
	log.Info("import completed",
		zap.Int64("shop_id", result.ShopID),
		zap.Int("categories", len(result.CategoryIDs)),
		zap.Int("goods", len(goods)),
	)
	return result, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) ([]ProductInfo, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, ErrInvalidFilter
	}
	return s.repo.ListProducts(ctx, filter)
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}
