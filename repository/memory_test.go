package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/models"
)

func boolPtr(b bool) *bool { return &b }

func newPizza(name string, order int, available bool) *models.Product {
	return &models.Product{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Category:     models.CategoryPizza,
		Sizes:        []models.PriceOption{{Name: "grande", Price: models.MoneyFromString("45.90"), Available: true}},
		PrepMinutes:  25,
		Available:    available,
		DisplayOrder: order,
	}
}

func deliveredOrder(number string, channel models.Channel, total string, at time.Time, items ...models.LineItem) *models.Order {
	return &models.Order{
		ID:         primitive.NewObjectID(),
		Number:     number,
		Customer:   models.Customer{Name: "Ana"},
		Type:       models.FulfillmentDelivery,
		Channel:    channel,
		Items:      items,
		Status:     models.StatusDelivered,
		Payment:    models.Payment{Method: models.PaymentPix, Total: models.MoneyFromString(total)},
		Times:      models.LifecycleTimes{Created: at},
		Active:     true,
		Created_at: at,
		Updated_at: at,
	}
}

func TestMemoryProducts_SoftDeleteKeepsDocument(t *testing.T) {
	ctx := context.Background()
	products := NewMemoryStore().Products()

	calabresa := newPizza("Calabresa", 2, true)
	margherita := newPizza("Margherita", 1, true)
	require.NoError(t, products.Create(ctx, calabresa))
	require.NoError(t, products.Create(ctx, margherita))

	margherita.Available = false
	require.NoError(t, products.Update(ctx, margherita))

	available, err := products.List(ctx, ProductFilter{Available: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "Calabresa", available[0].Name)

	all, err := products.List(ctx, ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Margherita", all[0].Name, "display order first")

	stored, err := products.FindByID(ctx, margherita.ID.Hex())
	require.NoError(t, err)
	assert.False(t, stored.Available)
}

func TestMemoryProducts_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	products := NewMemoryStore().Products()
	p := newPizza("Portuguesa", 1, true)
	require.NoError(t, products.Create(ctx, p))

	got, err := products.FindByID(ctx, p.ID.Hex())
	require.NoError(t, err)
	got.Sizes[0].Price = models.MoneyFromString("1")

	again, err := products.FindByID(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "45.90", again.Sizes[0].Price.Display())
}

func TestMemoryProducts_SearchAndCategories(t *testing.T) {
	ctx := context.Background()
	products := NewMemoryStore().Products()
	require.NoError(t, products.Create(ctx, newPizza("Quatro Queijos", 1, true)))
	soda := &models.Product{ID: primitive.NewObjectID(), Name: "Guarana", Category: models.CategoryDrink, Available: true}
	require.NoError(t, products.Create(ctx, soda))
	require.NoError(t, products.Create(ctx, &models.Product{ID: primitive.NewObjectID(), Name: "Brownie", Category: models.CategoryDessert}))

	found, err := products.List(ctx, ProductFilter{Search: "queijo"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Quatro Queijos", found[0].Name)

	categories, err := products.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{models.CategoryDrink, models.CategoryPizza}, categories)

	exists, err := products.ExistsByNameAndCategory(ctx, "Guarana", models.CategoryDrink)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = products.ExistsByNameAndCategory(ctx, "Guarana", models.CategoryPizza)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryProducts_BadIDIsNotFound(t *testing.T) {
	_, err := NewMemoryStore().Products().FindByID(context.Background(), "not-an-id")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestMemoryOrders_NumbersAndFilters(t *testing.T) {
	ctx := context.Background()
	orders := NewMemoryStore().Orders()

	var last int64
	for i := 0; i < 5; i++ {
		n, err := orders.NextNumber(ctx)
		require.NoError(t, err)
		assert.Greater(t, n, last)
		last = n
	}

	base := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)
	first := deliveredOrder("001", models.ChannelCounter, "10", base)
	second := deliveredOrder("002", models.ChannelWeb, "20", base.Add(time.Hour))
	cancelled := deliveredOrder("003", models.ChannelWeb, "30", base.Add(2*time.Hour))
	cancelled.Status = models.StatusCancelled
	cancelled.Active = false
	for _, o := range []*models.Order{first, second, cancelled} {
		require.NoError(t, orders.Create(ctx, o))
	}

	err := orders.Create(ctx, deliveredOrder("002", models.ChannelWeb, "1", base))
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	active, err := orders.List(ctx, OrderFilter{Active: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "002", active[0].Number, "newest first")

	oldest, err := orders.List(ctx, OrderFilter{OldestFirst: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, oldest, 1)
	assert.Equal(t, "001", oldest[0].Number)

	from := base.Add(30 * time.Minute)
	ranged, err := orders.List(ctx, OrderFilter{From: &from, Statuses: []models.OrderStatus{models.StatusCancelled}})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "003", ranged[0].Number)

	stored, err := orders.FindByID(ctx, cancelled.ID.Hex())
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestMemoryUsers_EmailUnique(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	ana := &models.User{ID: primitive.NewObjectID(), Name: "Ana", Email: "ana@pizzeria.test", Role: models.RoleAdmin, Active: true}
	require.NoError(t, users.Create(ctx, ana))

	dup := &models.User{ID: primitive.NewObjectID(), Name: "Other", Email: "ana@pizzeria.test", Role: models.RoleCook}
	assert.True(t, apperrors.Is(users.Create(ctx, dup), apperrors.KindConflict))

	found, err := users.FindByEmail(ctx, " ANA@pizzeria.test ")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, found.ID)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = users.FindByID(ctx, primitive.NewObjectID().Hex())
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestMemoryOrders_UpdateGuardsPriorStatus(t *testing.T) {
	ctx := context.Background()
	orders := NewMemoryStore().Orders()
	base := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)
	order := deliveredOrder("001", models.ChannelCounter, "10", base)
	order.Status = models.StatusAwaitingPreparation
	require.NoError(t, orders.Create(ctx, order))
	id := order.ID.Hex()

	preparing := models.StatusInPreparation
	first := base.Add(time.Minute)
	updated, err := orders.Update(ctx, id, OrderChange{From: models.StatusAwaitingPreparation, Status: &preparing, Stamp: &first, UpdatedAt: first})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInPreparation, updated.Status)
	assert.True(t, updated.Times.PreparationStarted.Equal(first))

	cancelled := models.StatusCancelled
	_, err = orders.Update(ctx, id, OrderChange{From: models.StatusAwaitingPreparation, Status: &cancelled, Active: boolPtr(false), UpdatedAt: first})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOrderState))

	ready := models.StatusReady
	_, err = orders.Update(ctx, id, OrderChange{From: preparing, Status: &ready, UpdatedAt: first})
	require.NoError(t, err)
	later := base.Add(time.Hour)
	again, err := orders.Update(ctx, id, OrderChange{From: ready, Status: &preparing, Stamp: &later, UpdatedAt: later})
	require.NoError(t, err)
	assert.True(t, again.Times.PreparationStarted.Equal(first), "stamp kept")
	assert.True(t, again.Updated_at.Equal(later))

	_, err = orders.Update(ctx, primitive.NewObjectID().Hex(), OrderChange{From: preparing, UpdatedAt: later})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestMemoryUsers_UpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()
	ana := &models.User{ID: primitive.NewObjectID(), Name: "Ana", Email: "ana@pizzeria.test", Password: "hash-1", Role: models.RoleCook, Active: true, Settings: models.DefaultPreferences()}
	bia := &models.User{ID: primitive.NewObjectID(), Name: "Bia", Email: "bia@pizzeria.test", Password: "hash-2", Role: models.RoleCook, Active: true}
	require.NoError(t, users.Create(ctx, ana))
	require.NoError(t, users.Create(ctx, bia))
	now := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)

	view := models.ViewDelivery
	updated, err := users.Update(ctx, ana.ID.Hex(), UserChange{PreferredView: &view, LastLogin: &now, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, models.ViewDelivery, updated.Settings.PreferredView)
	assert.Equal(t, ana.Settings.SoundNotifications, updated.Settings.SoundNotifications)
	assert.Equal(t, "hash-1", updated.Password)
	require.NotNil(t, updated.Last_login)

	taken := " BIA@pizzeria.test"
	_, err = users.Update(ctx, ana.ID.Hex(), UserChange{Email: &taken, UpdatedAt: now})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	next := "hash-3"
	_, err = users.Update(ctx, ana.ID.Hex(), UserChange{Password: &next, IfPassword: "hash-0", UpdatedAt: now})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	changed, err := users.Update(ctx, ana.ID.Hex(), UserChange{Password: &next, IfPassword: "hash-1", UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "hash-3", changed.Password)

	_, err = users.Update(ctx, primitive.NewObjectID().Hex(), UserChange{UpdatedAt: now})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestMemoryUsers_ClaimFirstAccountOnce(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	first, err := users.ClaimFirstAccount(ctx)
	require.NoError(t, err)
	assert.True(t, first)
	again, err := users.ClaimFirstAccount(ctx)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestMemoryReports_Aggregates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	products := store.Products()
	orders := store.Orders()
	reports := store.Reports()

	pizza := newPizza("Margherita", 1, true)
	require.NoError(t, products.Create(ctx, pizza))
	line := func(qty int, price string) models.LineItem {
		return models.LineItem{Product_id: pizza.ID, Product_name: pizza.Name, Quantity: qty, Size: "grande", Price: models.MoneyFromString(price)}
	}

	day := time.Date(2025, 3, 10, 20, 15, 0, 0, time.UTC)
	require.NoError(t, orders.Create(ctx, deliveredOrder("001", models.ChannelCounter, "45.90", day, line(1, "45.90"))))
	require.NoError(t, orders.Create(ctx, deliveredOrder("002", models.ChannelWeb, "77.80", day.Add(10*time.Minute), line(2, "77.80"))))
	pending := deliveredOrder("003", models.ChannelWeb, "99.00", day, line(3, "99.00"))
	pending.Status = models.StatusReady
	require.NoError(t, orders.Create(ctx, pending))

	buckets, err := reports.SalesByPeriod(ctx, DateRange{}, GroupByDay, time.UTC)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, "2025-03-10", buckets[0].Label)
	assert.Equal(t, "123.70", buckets[0].Revenue.Display())
	assert.Equal(t, 2, buckets[0].Orders)
	assert.Equal(t, "61.85", buckets[0].AverageTicket.Display())

	hourly, err := reports.SalesByPeriod(ctx, DateRange{}, GroupByHour, time.FixedZone("BRT", -3*60*60))
	require.NoError(t, err)
	require.Len(t, hourly, 1)
	assert.Equal(t, "2025-03-10 17:00", hourly[0].Label)

	top, err := reports.TopProducts(ctx, DateRange{}, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 3, top[0].Quantity)
	assert.Equal(t, models.CategoryPizza, top[0].Category)
	assert.Equal(t, "61.85", top[0].AveragePrice.Display())

	channels, err := reports.SalesByChannel(ctx, DateRange{})
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, models.ChannelWeb, channels[0].Channel)

	after := day.Add(time.Hour)
	empty, err := reports.SalesByPeriod(ctx, DateRange{From: &after}, GroupByDay, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
