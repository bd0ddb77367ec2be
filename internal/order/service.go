package order

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"goods-be/internal/apperr"
	"goods-be/internal/catalog"
	"goods-be/internal/contact"
	"goods-be/internal/db"
	"goods-be/internal/logger"
	"goods-be/internal/metrics"
	"goods-be/internal/notify"
	"goods-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	GetBasket(ctx context.Context, userID int64) ([]Order, error)
	AddToBasket(ctx context.Context, userID int64, items []AddItem) (int, error)
	// RemoveFromBasket takes comma-separated item ids; non-numeric ids are
	// skipped.
	RemoveFromBasket(ctx context.Context, userID int64, ids string) (int, error)
	UpdateBasket(ctx context.Context, userID int64, items []UpdateItem) (int, error)
	// Checkout places the basket, splitting it into one order per shop.
	Checkout(ctx context.Context, userID, basketID, contactID int64) ([]int64, error)

	ListOrders(ctx context.Context, userID int64) ([]Order, error)
	ListShopOrders(ctx context.Context, ownerID int64) ([]Order, error)
	UpdateShopOrderState(ctx context.Context, ownerID, orderID int64, state State) error
}

type service struct {
	tx       db.TxRunner
	repo     Repository
	catalog  catalog.Repository
	contacts contact.Repository
	events   notify.Outbox
}

func NewService(
	tx db.TxRunner,
	repo Repository,
	catalogRepo catalog.Repository,
	contacts contact.Repository,
	events notify.Outbox,
) Service {
	return &service{
		tx:       tx,
		repo:     repo,
		catalog:  catalogRepo,
		contacts: contacts,
		events:   events,
	}
}

func (s *service) GetBasket(ctx context.Context, userID int64) ([]Order, error) {
	return s.list(ctx, Query{UserID: &userID, Basket: true}, nil)
}

func (s *service) ListOrders(ctx context.Context, userID int64) ([]Order, error) {
	return s.list(ctx, Query{UserID: &userID}, nil)
}

func (s *service) ListShopOrders(ctx context.Context, ownerID int64) ([]Order, error) {
	return s.list(ctx, Query{ShopOwnerID: &ownerID}, &ownerID)
}

// list loads orders with items, parameters and contacts, and prices them.
func (s *service) list(ctx context.Context, q Query, itemOwner *int64) ([]Order, error) {
	orders, err := s.repo.List(ctx, q)
	if err != nil || len(orders) == 0 {
		return orders, err
	}

	orderIDs := make([]int64, len(orders))
	var contactIDs []int64
	for i, o := range orders {
		orderIDs[i] = o.ID
		if o.ContactID != nil {
			contactIDs = append(contactIDs, *o.ContactID)
		}
	}

	items, err := s.repo.ListItems(ctx, orderIDs, itemOwner)
	if err != nil {
		return nil, err
	}

	infoIDs := make([]int64, 0, len(items))
	for _, it := range items {
		infoIDs = append(infoIDs, it.ProductInfo.ID)
	}
	params, err := s.catalog.FetchParameters(ctx, utils.Unique(infoIDs))
	if err != nil {
		return nil, err
	}

	byOrder := make(map[int64][]Item, len(orders))
	for _, it := range items {
		it.ProductInfo.Parameters = params[it.ProductInfo.ID]
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	contacts := map[int64]contact.Contact{}
	if len(contactIDs) > 0 {
		if contacts, err = s.contacts.GetByIDs(ctx, utils.Unique(contactIDs)); err != nil {
			return nil, err
		}
	}

	for i := range orders {
		o := &orders[i]
		o.Items = byOrder[o.ID]
		o.TotalSum = TotalSum(o.Items)
		if o.ContactID != nil {
			if c, ok := contacts[*o.ContactID]; ok {
				o.Contact = &c
			}
		}
	}
	return orders, nil
}

func (s *service) AddToBasket(ctx context.Context, userID int64, items []AddItem) (int, error) {
	if len(items) == 0 {
		return 0, ErrNoItems
	}
	for _, it := range items {
		if it.ProductInfoID <= 0 {
			return 0, ErrInvalidItem.With(fmt.Sprintf("product info %d", it.ProductInfoID))
		}
		if it.Quantity < 1 || it.Quantity > math.MaxInt32 {
			return 0, ErrInvalidQuantity
		}
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddToBasket"),
		zap.Int64("user_id", userID),
	)

	var basketID int64
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)

		var err error
		if basketID, err = repo.GetOrCreateBasket(ctx, userID); err != nil {
			return err
		}
		for _, it := range items {
			if _, err := repo.AddItem(ctx, basketID, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Warn("failed to add items to basket", zap.Error(err))
		return 0, apperr.FromPQ(err)
	}

	log.Info("items added to basket", zap.Int64("order_id", basketID), zap.Int("count", len(items)))
	return len(items), nil
}

func (s *service) RemoveFromBasket(ctx context.Context, userID int64, ids string) (int, error) {
	if ids == "" {
		return 0, ErrNoItems
	}
	itemIDs := utils.ParseIDList(ids)
	if len(itemIDs) == 0 {
		return 0, nil
	}

	basketID, err := s.repo.FindBasket(ctx, userID)
	if err != nil || basketID == 0 {
		return 0, err
	}

	n, err := s.repo.RemoveItems(ctx, basketID, itemIDs)
	if err != nil {
		return 0, err
	}
	logger.FromCtx(ctx).Info("items removed from basket",
		zap.String("layer", "service"),
		zap.Int64("order_id", basketID),
		zap.Int64("count", n),
	)
	return int(n), nil
}

func (s *service) UpdateBasket(ctx context.Context, userID int64, items []UpdateItem) (int, error) {
	if len(items) == 0 {
		return 0, ErrNoItems
	}
	for _, it := range items {
		if it.ID <= 0 {
			return 0, ErrInvalidItem.With(fmt.Sprintf("item %d", it.ID))
		}
		if it.Quantity < 1 || it.Quantity > math.MaxInt32 {
			return 0, ErrInvalidQuantity
		}
	}

	basketID, err := s.repo.FindBasket(ctx, userID)
	if err != nil || basketID == 0 {
		return 0, err
	}

	n, err := s.repo.UpdateItems(ctx, basketID, items)
	if err != nil {
		return 0, apperr.FromPQ(err)
	}
	return int(n), nil
}

func (s *service) Checkout(ctx context.Context, userID, basketID, contactID int64) ([]int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Int64("user_id", userID),
		zap.Int64("basket_id", basketID),
	)

	if basketID <= 0 || contactID <= 0 {
		return nil, ErrInvalidItem.With("basket_id and contact_id are required")
	}

	var orderIDs []int64
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		events := s.events.WithTx(tx)

		owner, state, err := repo.LockOrder(ctx, basketID)
		if err != nil {
			return err
		}
		if owner != userID {
			return ErrOrderNotFound
		}
		if state != StateBasket {
			return ErrAlreadyPlaced.With(fmt.Sprintf("order %d is %s", basketID, state))
		}

		if _, err := s.contacts.WithTx(tx).GetForUser(ctx, userID, contactID); err != nil {
			return err
		}

		items, err := repo.ItemShops(ctx, basketID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyBasket
		}

		// items arrive ordered by shop; the basket keeps the first shop
		var shops []int64
		byShop := map[int64][]int64{}
		for _, it := range items {
			if _, seen := byShop[it.ShopID]; !seen {
				shops = append(shops, it.ShopID)
			}
			byShop[it.ShopID] = append(byShop[it.ShopID], it.ItemID)
		}

		if err := repo.Place(ctx, basketID, contactID); err != nil {
			return err
		}
		orderIDs = append(orderIDs, basketID)

		for _, shopID := range shops[1:] {
			id, err := repo.CreateOrder(ctx, userID, StateNew, contactID)
			if err != nil {
				return err
			}
			if err := repo.MoveItems(ctx, id, byShop[shopID]); err != nil {
				return err
			}
			orderIDs = append(orderIDs, id)
		}

		for _, id := range orderIDs {
			if err := events.Enqueue(ctx, notify.NewOrderEvent(notify.TypeOrderCreated, userID, id, string(StateNew))); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Warn("checkout failed", zap.Error(err))
		return nil, apperr.FromPQ(err)
	}

	for range orderIDs {
		metrics.OrderTransitions.WithLabelValues(string(StateBasket), string(StateNew)).Inc()
	}
	log.Info("basket checked out", zap.Int64s("order_ids", orderIDs))
	return orderIDs, nil
}

func (s *service) UpdateShopOrderState(ctx context.Context, ownerID, orderID int64, to State) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateShopOrderState"),
		zap.Int64("owner_id", ownerID),
		zap.Int64("order_id", orderID),
		zap.String("state", string(to)),
	)

	var from State
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)

		userID, state, err := repo.LockShopOrder(ctx, orderID, ownerID)
		if err != nil {
			return err
		}
		from = state
		if err := CanShopTransition(from, to); err != nil {
			return err
		}
		if err := repo.SetState(ctx, orderID, to); err != nil {
			return err
		}
		return s.events.WithTx(tx).Enqueue(ctx, notify.NewOrderEvent(notify.TypeOrderUpdated, userID, orderID, string(to)))
	})
	if err != nil {
		log.Warn("state change rejected", zap.Error(err))
		return apperr.FromPQ(err)
	}

	metrics.OrderTransitions.WithLabelValues(string(from), string(to)).Inc()
	log.Info("order state changed", zap.String("from", string(from)))
	return nil
}
