package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/models"
	"go-pizzeria-management/repository"
)

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	order := f.newOrder(t, f.grande(f.margherita, 1))

	assert.Equal(t, "001", order.Number)
	assert.Equal(t, "45.90", order.Payment.Total.Display())
	assert.Equal(t, models.StatusAwaitingPreparation, order.Status)
	assert.Equal(t, models.FulfillmentDelivery, order.Type)
	assert.True(t, order.Active)
	assert.Equal(t, counter.ID, order.Created_by)
	assert.True(t, order.Times.Created.Equal(f.clock))

	stored, err := f.orders.Get(context.Background(), order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "45.90", stored.Payment.Total.Display())

	assert.Equal(t, []models.EventType{models.EventNewOrder, models.EventNewOrderAlert}, f.events.types())
	assert.Equal(t, models.GroupPreparation, f.events.events[1].Group)
	assert.Empty(t, f.events.events[0].Group)
}

func TestOrderNumbersIncrease(t *testing.T) {
	f := newFixture(t)
	var numbers []string
	for i := 0; i < 12; i++ {
		numbers = append(numbers, f.newOrder(t, f.grande(f.margherita, 1)).Number)
	}
	assert.Equal(t, "001", numbers[0])
	assert.Equal(t, "012", numbers[11])
	for i := 1; i < len(numbers); i++ {
		assert.Greater(t, numbers[i], numbers[i-1])
	}
}

func TestCreateOrderFailureLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.Create(ctx, counter, CreateOrderRequest{
		Customer: models.Customer{Name: "Ana"},
		Items: []LineItemRequest{
			f.grande(f.margherita, 1),
			{ProductID: f.margherita.ID.Hex(), Quantity: 1, Size: "gigante"},
		},
		Payment: PaymentRequest{Method: models.PaymentCash},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindSizeUnavailable))

	orders, err := f.store.Orders().List(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.events.types())

	// the failed attempt did not burn a number
	assert.Equal(t, "001", f.newOrder(t, f.grande(f.margherita, 1)).Number)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	valid := func() CreateOrderRequest {
		return CreateOrderRequest{
			Customer: models.Customer{Name: "Ana"},
			Items:    []LineItemRequest{f.grande(f.margherita, 1)},
			Payment:  PaymentRequest{Method: models.PaymentPix},
		}
	}

	req := valid()
	req.Customer.Name = ""
	_, err := f.orders.Create(ctx, counter, req)
	require.Error(t, err)
	assert.Equal(t, "customer.name is required", apperrors.PublicMessage(err))

	req = valid()
	req.Items = nil
	_, err = f.orders.Create(ctx, counter, req)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	req = valid()
	req.Payment.Method = "voucher"
	_, err = f.orders.Create(ctx, counter, req)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	req = valid()
	req.Channel = "fax"
	_, err = f.orders.Create(ctx, counter, req)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.orders.Create(ctx, cook, valid())
	assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))
}

func TestCreateOrderChangeDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tendered := models.MoneyFromString("50")

	order, err := f.orders.Create(ctx, counter, CreateOrderRequest{
		Customer: models.Customer{Name: "Ana"},
		Items:    []LineItemRequest{f.grande(f.margherita, 1)},
		Payment:  PaymentRequest{Method: models.PaymentCash, CashTendered: &tendered},
	})
	require.NoError(t, err)
	require.NotNil(t, order.Payment.ChangeDue)
	assert.Equal(t, "4.10", order.Payment.ChangeDue.Display())

	short := models.MoneyFromString("40")
	_, err = f.orders.Create(ctx, counter, CreateOrderRequest{
		Customer: models.Customer{Name: "Ana"},
		Items:    []LineItemRequest{f.grande(f.margherita, 1)},
		Payment:  PaymentRequest{Method: models.PaymentCash, CashTendered: &short},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	card, err := f.orders.Create(ctx, counter, CreateOrderRequest{
		Customer: models.Customer{Name: "Ana"},
		Items:    []LineItemRequest{f.grande(f.margherita, 1)},
		Payment:  PaymentRequest{Method: models.PaymentCreditCard, CashTendered: &tendered},
	})
	require.NoError(t, err)
	assert.Nil(t, card.Payment.ChangeDue)
}

func TestUpdateStatusGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.newOrder(t, f.grande(f.margherita, 1))
	id := order.ID.Hex()

	_, err := f.orders.UpdateStatus(ctx, cook, id, models.StatusDispatched)
	assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))

	_, err = f.orders.UpdateStatus(ctx, driver, id, models.StatusInPreparation)
	assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))

	_, err = f.orders.UpdateStatus(ctx, cook, id, models.StatusCancelled)
	assert.True(t, apperrors.Is(err, apperrors.KindAuthorization))

	_, err = f.orders.UpdateStatus(ctx, manager, id, "baking")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	updated, err := f.orders.UpdateStatus(ctx, cook, id, models.StatusInPreparation)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInPreparation, updated.Status)
}

func TestStatusStampsAreWrittenOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.newOrder(t, f.grande(f.margherita, 1))
	id := order.ID.Hex()

	f.walk(t, id, models.StatusInPreparation)
	first, err := f.orders.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, first.Times.PreparationStarted)
	started := *first.Times.PreparationStarted

	f.walk(t, id, models.StatusReady, models.StatusInPreparation, models.StatusReady)
	again, err := f.orders.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, again.Times.PreparationStarted.Equal(started))
	assert.True(t, again.Times.PreparationFinished.Equal(f.clock.Add(-2*time.Minute)))
	assert.Nil(t, again.Times.Dispatched)
	assert.Equal(t, models.StatusReady, again.Status)
}

func TestStatusEventsTargetGroups(t *testing.T) {
	f := newFixture(t)
	order := f.newOrder(t, f.grande(f.margherita, 1))
	f.events.reset()

	f.walk(t, order.ID.Hex(), models.StatusReady, models.StatusDelivered)

	require.Len(t, f.events.events, 3)
	assert.Equal(t, "", f.events.events[0].Group)
	assert.Equal(t, models.GroupExpedition, f.events.events[1].Group)
	assert.Equal(t, models.StatusDelivered, f.events.events[2].Status)
	assert.Equal(t, "", f.events.events[2].Group)
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.newOrder(t, f.grande(f.margherita, 1))
	id := order.ID.Hex()
	f.events.reset()

	cancelled, err := f.orders.UpdateStatus(ctx, manager, id, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.False(t, cancelled.Active)
	assert.Equal(t, []models.EventType{models.EventOrderCancelled}, f.events.types())

	stored, err := f.orders.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	listed, err := f.orders.List(ctx, ListOrdersQuery{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	inactive := false
	listed, err = f.orders.List(ctx, ListOrdersQuery{Active: &inactive})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = f.orders.UpdateStatus(ctx, cook, id, models.StatusInPreparation)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOrderState))
	_, err = f.orders.Cancel(ctx, manager, id)
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOrderState))
}

func TestDeliveredOrderCannotBeCancelled(t *testing.T) {
	f := newFixture(t)
	order := f.newOrder(t, f.grande(f.margherita, 1))
	f.walk(t, order.ID.Hex(), models.StatusDelivered)

	_, err := f.orders.Cancel(context.Background(), manager, order.ID.Hex())
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOrderState))
}

func TestEditOnlyWhileAwaiting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.newOrder(t, f.grande(f.margherita, 1))
	id := order.ID.Hex()

	notes := "ring the bell twice"
	edited, err := f.orders.Edit(ctx, counter, id, EditOrderRequest{
		Customer: &models.Customer{Name: "Ana Souza", Address: &models.Address{Street: "Rua A", Number: "10"}},
		Notes:    &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", edited.Customer.Name)
	assert.Equal(t, notes, edited.Notes)

	_, err = f.orders.Edit(ctx, counter, id, EditOrderRequest{Customer: &models.Customer{}})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	f.walk(t, id, models.StatusInPreparation)
	_, err = f.orders.Edit(ctx, counter, id, EditOrderRequest{Notes: &notes})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidOrderState))
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.newOrder(t, f.grande(f.margherita, 1))
		f.advance(time.Minute)
	}
	first, err := f.orders.List(ctx, ListOrdersQuery{})
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "003", first[0].Number)

	limited, err := f.orders.List(ctx, ListOrdersQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	dated, err := f.orders.List(ctx, ListOrdersQuery{From: "2025-03-11"})
	require.NoError(t, err)
	assert.Empty(t, dated)

	dated, err = f.orders.List(ctx, ListOrdersQuery{From: "2025-03-10", To: "2025-03-10"})
	require.NoError(t, err)
	assert.Len(t, dated, 3)

	_, err = f.orders.List(ctx, ListOrdersQuery{Status: "lost"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	_, err = f.orders.List(ctx, ListOrdersQuery{From: "10/03/2025"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestKitchenQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	waiting := f.newOrder(t, f.grande(f.margherita, 1))
	f.advance(5 * time.Minute)
	ready := f.newOrder(t, f.grande(f.calabresa, 1))
	f.walk(t, ready.ID.Hex(), models.StatusReady)
	f.advance(4 * time.Minute)

	prep, err := f.orders.KitchenQueue(ctx, models.GroupPreparation)
	require.NoError(t, err)
	require.Len(t, prep, 1)
	assert.Equal(t, waiting.Number, prep[0].Number)
	assert.Equal(t, 10, prep[0].ElapsedMinutes)

	expedition, err := f.orders.KitchenQueue(ctx, models.GroupExpedition)
	require.NoError(t, err)
	require.Len(t, expedition, 1)
	assert.Equal(t, 4, expedition[0].ElapsedMinutes)

	all, err := f.orders.KitchenQueue(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, waiting.Number, all[0].Number, "oldest first")

	_, err = f.orders.KitchenQueue(ctx, "bar")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestDelayedOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quick := f.newOrder(t, f.grande(f.margherita, 1))
	f.advance(time.Second)
	slow := f.newOrder(t, f.grande(f.calabresa, 1))
	done := f.newOrder(t, f.grande(f.margherita, 1))
	f.walk(t, done.ID.Hex(), models.StatusReady)

	delayed, err := f.orders.Delayed(ctx, f.clock.Add(35*time.Minute))
	require.NoError(t, err)
	require.Len(t, delayed, 1)
	assert.Equal(t, quick.Number, delayed[0].Order.Number)
	assert.Equal(t, 30, delayed[0].ExpectedMinutes)

	delayed, err = f.orders.Delayed(ctx, f.clock.Add(45*time.Minute))
	require.NoError(t, err)
	require.Len(t, delayed, 2)
	assert.Equal(t, slow.Number, delayed[1].Order.Number)
	assert.Equal(t, 40, delayed[1].ExpectedMinutes)
}
