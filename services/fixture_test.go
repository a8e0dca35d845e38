package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-pizzeria-management/helpers"
	"go-pizzeria-management/models"
	"go-pizzeria-management/permissions"
	"go-pizzeria-management/repository"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recordingBroadcaster) Publish(_ context.Context, event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingBroadcaster) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingBroadcaster) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type fixture struct {
	store    *repository.MemoryStore
	events   *recordingBroadcaster
	orders   *OrderService
	products *ProductService
	accounts *AccountService
	reports  *ReportService
	clock    time.Time

	margherita *models.Product
	calabresa  *models.Product
}

var (
	counter = models.Actor{ID: primitive.NewObjectID().Hex(), Email: "counter@pizzeria.test", Role: models.RoleCounterStaff}
	cook    = models.Actor{ID: primitive.NewObjectID().Hex(), Email: "cook@pizzeria.test", Role: models.RoleCook}
	driver  = models.Actor{ID: primitive.NewObjectID().Hex(), Email: "driver@pizzeria.test", Role: models.RoleDriver}
	manager = models.Actor{ID: primitive.NewObjectID().Hex(), Email: "manager@pizzeria.test", Role: models.RoleManager}
)

func option(name, price string, available bool) models.PriceOption {
	return models.PriceOption{Name: name, Price: models.MoneyFromString(price), Available: available}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	store := repository.NewMemoryStore()
	f := &fixture{
		store:  store,
		events: &recordingBroadcaster{},
		clock:  time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }

	f.orders = NewOrderService(store.Orders(), NewPricer(store.Products()), f.events, permissions.Default, time.UTC, 30, log)
	f.orders.now = now
	f.products = NewProductService(store.Products(), log)
	f.products.now = now
	f.accounts = NewAccountService(store.Users(), helpers.NewTokenManager("test-secret", time.Hour), helpers.NewPasswordHasher(4), permissions.Default, log)
	f.accounts.now = now
	f.reports = NewReportService(store.Orders(), store.Reports(), time.UTC)

	ctx := context.Background()
	var err error
	f.margherita, err = f.products.Create(ctx, ProductRequest{
		Name:     "Margherita",
		Category: models.CategoryPizza,
		Sizes: []models.PriceOption{
			option("pequena", "25.90", true),
			option("media", "35.90", true),
			option("grande", "45.90", true),
			option("gigante", "55.90", false),
		},
		Crusts: []models.PriceOption{option("catupiry", "8.00", true), option("cheddar", "9.00", false)},
		Addons: []models.PriceOption{option("bacon", "5.00", true), option("extra cheese", "4.50", true), option("olives", "3.00", false)},
	})
	require.NoError(t, err)

	prep := 40
	f.calabresa, err = f.products.Create(ctx, ProductRequest{
		Name:        "Calabresa",
		Category:    models.CategoryPizza,
		Sizes:       []models.PriceOption{option("grande", "38.90", true)},
		PrepMinutes: &prep,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) newOrder(t *testing.T, items ...LineItemRequest) *models.Order {
	t.Helper()
	order, err := f.orders.Create(context.Background(), counter, CreateOrderRequest{
		Customer: models.Customer{Name: "Ana", Phone: "11 99999-0000"},
		Channel:  models.ChannelPhone,
		Items:    items,
		Payment:  PaymentRequest{Method: models.PaymentPix},
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) grande(product *models.Product, qty int) LineItemRequest {
	return LineItemRequest{ProductID: product.ID.Hex(), Quantity: qty, Size: "grande"}
}

// walk moves an order through statuses one minute apart.
func (f *fixture) walk(t *testing.T, id string, statuses ...models.OrderStatus) {
	t.Helper()
	for _, status := range statuses {
		f.advance(time.Minute)
		actor := cook
		if status == models.StatusDispatched || status == models.StatusDelivered {
			actor = driver
		}
		_, err := f.orders.UpdateStatus(context.Background(), actor, id, status)
		require.NoError(t, err)
	}
}
