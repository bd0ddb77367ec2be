package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"goods-be/internal/apperr"
	"goods-be/internal/catalog"
	"goods-be/internal/contact"
	"goods-be/internal/order"
	"goods-be/internal/shop"
	"goods-be/internal/user"
	"goods-be/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) GetBasket(ctx context.Context, userID int64) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrders) AddToBasket(ctx context.Context, userID int64, items []order.AddItem) (int, error) {
	args := m.Called(ctx, userID, items)
	return args.Int(0), args.Error(1)
}

func (m *MockOrders) RemoveFromBasket(ctx context.Context, userID int64, ids string) (int, error) {
	args := m.Called(ctx, userID, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockOrders) UpdateBasket(ctx context.Context, userID int64, items []order.UpdateItem) (int, error) {
	args := m.Called(ctx, userID, items)
	return args.Int(0), args.Error(1)
}

func (m *MockOrders) Checkout(ctx context.Context, userID, basketID, contactID int64) ([]int64, error) {
	args := m.Called(ctx, userID, basketID, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockOrders) ListOrders(ctx context.Context, userID int64) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrders) ListShopOrders(ctx context.Context, ownerID int64) ([]order.Order, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrders) UpdateShopOrderState(ctx context.Context, ownerID, orderID int64, state order.State) error {
	return m.Called(ctx, ownerID, orderID, state).Error(0)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ImportShop(ctx context.Context, ownerID int64, feed catalog.Feed) (*catalog.ImportResult, error) {
	args := m.Called(ctx, ownerID, feed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ImportResult), args.Error(1)
}

func (m *MockCatalog) ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]catalog.ProductInfo, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.ProductInfo), args.Error(1)
}

func (m *MockCatalog) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

type MockShops struct {
	mock.Mock
}

func (m *MockShops) ListShops(ctx context.Context, filter shop.Filter) ([]shop.Shop, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shop.Shop), args.Error(1)
}

func (m *MockShops) GetOwn(ctx context.Context) (*shop.Shop, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Shop), args.Error(1)
}

func (m *MockShops) SetState(ctx context.Context, accepting bool) (*shop.Shop, error) {
	args := m.Called(ctx, accepting)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Shop), args.Error(1)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Register(ctx context.Context, in user.RegisterInput) (user.User, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUsers) Login(ctx context.Context, email, password string) (string, user.User, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Get(1).(user.User), args.Error(2)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (user.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(user.User), args.Error(1)
}

type stubContacts struct {
	contact.Service
	deleted string
}

func (s *stubContacts) Delete(ctx context.Context, ids string) (int64, error) {
	s.deleted = ids
	return 2, nil
}

type fakeFeeds struct {
	feed *catalog.Feed
	err  error
}

func (f fakeFeeds) Fetch(ctx context.Context, rawURL string) (*catalog.Feed, error) {
	return f.feed, f.err
}

type fixture struct {
	orders  *MockOrders
	catalog *MockCatalog
	shops   *MockShops
	users   *MockUsers
	mux     *http.ServeMux
}

func newFixture(t *testing.T, feeds FeedFetcher) *fixture {
	t.Helper()
	f := &fixture{
		orders:  new(MockOrders),
		catalog: new(MockCatalog),
		shops:   new(MockShops),
		users:   new(MockUsers),
		mux:     http.NewServeMux(),
	}
	NewHandler(Deps{
		Users:    f.users,
		Contacts: &stubContacts{},
		Shops:    f.shops,
		Catalog:  f.catalog,
		Orders:   f.orders,
		Feeds:    feeds,
	}).Register(f.mux)
	return f
}

type principal struct {
	id  int64
	typ string
}

func (f *fixture) do(method, path, body string, who *principal) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if who != nil {
		req = req.WithContext(utils.SetUserContext(req.Context(), who.id, "u@example.com", who.typ))
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

var (
	buyer = &principal{id: 7, typ: "buyer"}
	owner = &principal{id: 3, typ: "shop"}
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindUnauthorized, http.StatusUnauthorized},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindConflict, http.StatusConflict},
		{apperr.KindIntegrity, http.StatusUnprocessableEntity},
		{apperr.KindUpstream, http.StatusBadGateway},
		{apperr.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.kind))
		})
	}
}

func TestDecodeItems(t *testing.T) {
	var items []order.AddItem
	require.NoError(t, decodeItems(json.RawMessage(`[{"product_info":4,"quantity":2}]`), &items))
	assert.Equal(t, []order.AddItem{{ProductInfoID: 4, Quantity: 2}}, items)

	items = nil
	require.NoError(t, decodeItems(json.RawMessage(`"[{\"product_info\":5,\"quantity\":1}]"`), &items))
	assert.Equal(t, []order.AddItem{{ProductInfoID: 5, Quantity: 1}}, items)

	assert.ErrorIs(t, decodeItems(nil, &items), ErrMissingArgs)
	assert.ErrorIs(t, decodeItems(json.RawMessage(`"not json"`), &items), ErrBadRequest)
}

func TestIDList(t *testing.T) {
	s, err := idList(json.RawMessage(`"1,2,x"`))
	require.NoError(t, err)
	assert.Equal(t, "1,2,x", s)

	s, err = idList(json.RawMessage(`[3, 4]`))
	require.NoError(t, err)
	assert.Equal(t, "3,4", s)

	_, err = idList(json.RawMessage(`null`))
	assert.ErrorIs(t, err, ErrMissingArgs)
}

func TestBasket_RequiresLogin(t *testing.T) {
	f := newFixture(t, nil)

	rec, body := f.do(http.MethodGet, Prefix+"/basket", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["Status"])
	assert.Equal(t, "log in required", body["Error"])
	f.orders.AssertNotCalled(t, "GetBasket", mock.Anything, mock.Anything)
}

func TestBasket_GetEmpty(t *testing.T) {
	f := newFixture(t, nil)
	f.orders.On("GetBasket", mock.Anything, int64(7)).Return(nil, nil)

	rec, body := f.do(http.MethodGet, Prefix+"/basket", "", buyer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["Status"])
	assert.Equal(t, []any{}, body["basket"])
}

func TestBasket_Add(t *testing.T) {
	f := newFixture(t, nil)
	want := []order.AddItem{{ProductInfoID: 11, Quantity: 2}}
	f.orders.On("AddToBasket", mock.Anything, int64(7), want).Return(1, nil)

	rec, body := f.do(http.MethodPost, Prefix+"/basket",
		`{"items": "[{\"product_info\": 11, \"quantity\": 2}]"}`, buyer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["created"])
	f.orders.AssertExpectations(t)
}

func TestBasket_AddUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	f.orders.On("AddToBasket", mock.Anything, int64(7), mock.Anything).
		Return(0, order.ErrOfferUnavailable.With("product info 9 is not available"))

	rec, body := f.do(http.MethodPost, Prefix+"/basket",
		`{"items": [{"product_info": 9, "quantity": 1}]}`, buyer)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["Error"], "product info 9")
}

func TestBasket_UpdateAndDelete(t *testing.T) {
	f := newFixture(t, nil)
	f.orders.On("UpdateBasket", mock.Anything, int64(7), []order.UpdateItem{{ID: 4, Quantity: 5}}).Return(1, nil)
	f.orders.On("RemoveFromBasket", mock.Anything, int64(7), "4,5").Return(2, nil)

	rec, body := f.do(http.MethodPut, Prefix+"/basket", `{"items": [{"id": 4, "quantity": 5}]}`, buyer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["updated"])

	rec, body = f.do(http.MethodDelete, Prefix+"/basket", `{"items": "4,5"}`, buyer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["deleted"])
}

func TestBasket_MalformedBody(t *testing.T) {
	f := newFixture(t, nil)

	rec, _ := f.do(http.MethodPost, Prefix+"/basket", `{"items":`, buyer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(http.MethodPost, Prefix+"/basket", ``, buyer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrders_Checkout(t *testing.T) {
	f := newFixture(t, nil)
	f.orders.On("Checkout", mock.Anything, int64(7), int64(1), int64(5)).Return([]int64{1, 2}, nil)

	rec, body := f.do(http.MethodPost, Prefix+"/orders", `{"basket_id": 1, "contact_id": 5}`, buyer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{float64(1), float64(2)}, body["orders"])

	rec, body = f.do(http.MethodPost, Prefix+"/orders", `{"basket_id": 1}`, buyer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["Status"])
}

func TestOrders_CheckoutConflict(t *testing.T) {
	f := newFixture(t, nil)
	f.orders.On("Checkout", mock.Anything, int64(7), int64(1), int64(5)).Return(nil, order.ErrAlreadyPlaced)

	rec, _ := f.do(http.MethodPost, Prefix+"/orders", `{"basket_id": 1, "contact_id": 5}`, buyer)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrders_ListTotals(t *testing.T) {
	f := newFixture(t, nil)
	f.orders.On("ListOrders", mock.Anything, int64(7)).Return([]order.Order{
		{ID: 2, State: order.StateNew, TotalSum: decimal.RequireFromString("250.5")},
	}, nil)

	rec, body := f.do(http.MethodGet, Prefix+"/orders", "", buyer)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	got := orders[0].(map[string]any)
	assert.Equal(t, "new", got["state"])
	assert.Equal(t, "250.5", got["total_sum"])
}

func TestPartner_Update(t *testing.T) {
	feed := &catalog.Feed{Shop: "Связной"}
	f := newFixture(t, fakeFeeds{feed: feed})
	f.catalog.On("ImportShop", mock.Anything, int64(3), *feed).Return(&catalog.ImportResult{
		ShopID:      1,
		CategoryIDs: map[int64]int64{224: 1},
		ProductIDs:  map[int64]int64{4216292: 1},
	}, nil)

	rec, body := f.do(http.MethodPost, Prefix+"/partner/update", `{"url": "http://feeds.local/shop1.yaml"}`, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["shop_id"])
	assert.Equal(t, map[string]any{"224": float64(1)}, body["actual_categories_id"])
	assert.Equal(t, map[string]any{"4216292": float64(1)}, body["actual_products_id"])
}

func TestPartner_UpdateForbiddenForBuyer(t *testing.T) {
	f := newFixture(t, fakeFeeds{})

	rec, _ := f.do(http.MethodPost, Prefix+"/partner/update", `{"url": "http://x"}`, buyer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.catalog.AssertNotCalled(t, "ImportShop", mock.Anything, mock.Anything, mock.Anything)
}

func TestPartner_UpdateFetchFailure(t *testing.T) {
	f := newFixture(t, fakeFeeds{err: apperr.New(apperr.KindUpstream, "feed download failed")})

	rec, body := f.do(http.MethodPost, Prefix+"/partner/update", `{"url": "http://x"}`, owner)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "feed download failed", body["Error"])
}

func TestPartner_OrderState(t *testing.T) {
	f := newFixture(t, nil)
	f.orders.On("UpdateShopOrderState", mock.Anything, int64(3), int64(12), order.StateSent).Return(nil)

	rec, _ := f.do(http.MethodPost, Prefix+"/partner/orders", `{"order_id": 12, "state": "sent"}`, owner)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(http.MethodPost, Prefix+"/partner/orders", `{"order_id": 12, "state": "lost"}`, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.orders.AssertNumberOfCalls(t, "UpdateShopOrderState", 1)
}

func TestPartner_SetStateRequiresValue(t *testing.T) {
	f := newFixture(t, nil)

	rec, _ := f.do(http.MethodPost, Prefix+"/partner/state", `{}`, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.shops.On("SetState", mock.Anything, false).Return(&shop.Shop{ID: 1, Name: "S"}, nil)
	rec, body := f.do(http.MethodPost, Prefix+"/partner/state", `{"state": false}`, owner)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["shop"].(map[string]any)["state"])
}

func TestProducts_Query(t *testing.T) {
	f := newFixture(t, nil)
	shopID := int64(2)
	f.catalog.On("ListProducts", mock.Anything, catalog.ProductFilter{ShopID: &shopID, Limit: 10}).
		Return([]catalog.ProductInfo{{ID: 1, Model: "m"}}, nil)

	rec, body := f.do(http.MethodGet, Prefix+"/products?shop_id=2&limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["products"], 1)

	rec, _ = f.do(http.MethodGet, Prefix+"/products?category_id=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(http.MethodGet, Prefix+"/products?offset=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShops_List(t *testing.T) {
	f := newFixture(t, nil)
	f.shops.On("ListShops", mock.Anything, shop.Filter{}).
		Return([]shop.Shop{{ID: 1, Name: "S", State: true, OwnerEmail: "o@example.com"}}, nil)

	rec, body := f.do(http.MethodGet, Prefix+"/shops", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := body["shops"].([]any)[0].(map[string]any)
	assert.Equal(t, "S", got["name"])
	assert.Equal(t, "o@example.com", got["user"])
}

func TestUser_Login(t *testing.T) {
	f := newFixture(t, nil)
	f.users.On("Login", mock.Anything, "a@example.com", "secret12").Return("tok", user.User{ID: 1}, nil)
	f.users.On("Login", mock.Anything, "a@example.com", "wrong").Return("", user.User{}, user.ErrInvalidCredentials)

	rec, body := f.do(http.MethodPost, Prefix+"/user/login", `{"email":"a@example.com","password":"secret12"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", body["token"])
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, tokenCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec, _ = f.do(http.MethodPost, Prefix+"/user/login", `{"email":"a@example.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUser_LogoutRequiresLogin(t *testing.T) {
	f := newFixture(t, nil)

	rec, _ := f.do(http.MethodPost, Prefix+"/user/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = f.do(http.MethodPost, Prefix+"/user/logout", "", buyer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestContacts_Delete(t *testing.T) {
	contacts := &stubContacts{}
	mux := http.NewServeMux()
	NewHandler(Deps{Contacts: contacts}).Register(mux)

	req := httptest.NewRequest(http.MethodDelete, Prefix+"/user/contact", strings.NewReader(`{"items":"5,6"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5,6", contacts.deleted)
}

func TestWriteError_HidesInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(rec, req, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"Status":false,"Error":"internal server error"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rec, body := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["Status"])
}
