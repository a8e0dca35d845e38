package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/metrics"
	"go-pizzeria-management/models"
	"go-pizzeria-management/notify"
	"go-pizzeria-management/permissions"
	"go-pizzeria-management/repository"
)

const (
	defaultOrderLimit = 50
	maxOrderLimit     = 200
)

type PaymentRequest struct {
	Method       models.PaymentMethod `json:"method" validate:"required,oneof=cash debit_card credit_card pix"`
	CashTendered *models.Money        `json:"cash_tendered"`
	Paid         bool                 `json:"paid"`
}

type CreateOrderRequest struct {
	Customer models.Customer        `json:"customer"`
	Type     models.FulfillmentType `json:"type" validate:"omitempty,oneof=delivery pickup dine_in"`
	Channel  models.Channel         `json:"channel" validate:"omitempty,oneof=counter phone marketplace web messaging"`
	Items    []LineItemRequest      `json:"items" validate:"required,min=1,dive"`
	Payment  PaymentRequest         `json:"payment"`
	Notes    string                 `json:"notes" validate:"max=1000"`
}

type EditOrderRequest struct {
	Customer *models.Customer `json:"customer"`
	Notes    *string          `json:"notes" validate:"omitempty,max=1000"`
}

type ListOrdersQuery struct {
	Status string
	Type   string
	From   string
	To     string
	Active *bool
	Limit  int
}

// QueueEntry is an order on a kitchen display with the whole minutes it has
// spent in its current status.
type QueueEntry struct {
	models.Order
	ElapsedMinutes int `json:"elapsed_minutes"`
}

type DelayedOrder struct {
	Order           models.Order `json:"order"`
	AgeMinutes      int          `json:"age_minutes"`
	ExpectedMinutes int          `json:"expected_minutes"`
}

type OrderService struct {
	orders      repository.OrderRepository
	pricer      *Pricer
	notifier    notify.Broadcaster
	permissions permissions.Lookup
	loc         *time.Location
	delayFloor  int
	log         *logrus.Logger
	now         func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	pricer *Pricer,
	notifier notify.Broadcaster,
	lookup permissions.Lookup,
	loc *time.Location,
	delayFloorMinutes int,
	log *logrus.Logger,
) *OrderService {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderService{
		orders:      orders,
		pricer:      pricer,
		notifier:    notifier,
		permissions: lookup,
		loc:         loc,
		delayFloor:  delayFloorMinutes,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *OrderService) authorize(actor models.Actor, capability permissions.Capability) error {
	if !s.permissions(actor.Role).Has(capability) {
		return apperrors.Authorization("your role cannot %s", capabilityAction(capability))
	}
	return nil
}

func capabilityAction(c permissions.Capability) string {
	switch c {
	case permissions.CreateOrder:
		return "create orders"
	case permissions.EditOrder:
		return "edit orders"
	case permissions.CancelOrder:
		return "cancel orders"
	case permissions.UpdatePreparationStatus:
		return "update preparation status"
	case permissions.UpdateDeliveryStatus:
		return "update delivery status"
	}
	return string(c)
}

func (s *OrderService) Create(ctx context.Context, actor models.Actor, req CreateOrderRequest) (*models.Order, error) {
	if err := s.authorize(actor, permissions.CreateOrder); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = models.FulfillmentDelivery
	}
	if req.Channel == "" {
		req.Channel = models.ChannelCounter
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	items, total, err := s.pricer.Price(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	payment := models.Payment{Method: req.Payment.Method, Total: total, Paid: req.Payment.Paid}
	if req.Payment.Method == models.PaymentCash && req.Payment.CashTendered != nil {
		tendered := *req.Payment.CashTendered
		if tendered.LessThan(total.Decimal) {
			return nil, apperrors.Validation("cash tendered %s is less than the order total %s", tendered.Display(), total.Display())
		}
		change := tendered.Sub(total)
		payment.ChangeDue = &change
	}

	seq, err := s.orders.NextNumber(ctx)
	if err != nil {
		return nil, apperrors.Internal(err, "could not allocate an order number")
	}

	now := s.now()
	order := &models.Order{
		ID:         primitive.NewObjectID(),
		Number:     fmt.Sprintf("%03d", seq),
		Customer:   req.Customer,
		Type:       req.Type,
		Channel:    req.Channel,
		Items:      items,
		Status:     models.StatusAwaitingPreparation,
		Payment:    payment,
		Times:      models.LifecycleTimes{Created: now},
		Notes:      req.Notes,
		Active:     true,
		Created_by: actor.ID,
		Created_at: now,
		Updated_at: now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	metrics.OrderCreated(string(order.Channel))
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID.Hex(),
		"number":   order.Number,
		"channel":  order.Channel,
		"total":    order.Payment.Total.Display(),
		"user_id":  actor.ID,
	}).Info("order created")

	s.notifier.Publish(ctx, notify.NewEvent(models.EventNewOrder, "", order, order))
	s.notifier.Publish(ctx, notify.NewEvent(models.EventNewOrderAlert, models.GroupPreparation, order, order))
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *OrderService) List(ctx context.Context, q ListOrdersQuery) ([]models.Order, error) {
	filter := repository.OrderFilter{Limit: q.Limit}
	if q.Status != "" {
		status := models.OrderStatus(q.Status)
		if !status.Valid() {
			return nil, apperrors.Validation("invalid status %q", q.Status)
		}
		filter.Statuses = []models.OrderStatus{status}
	}
	if q.Type != "" {
		t := models.FulfillmentType(q.Type)
		if !t.Valid() {
			return nil, apperrors.Validation("invalid order type %q", q.Type)
		}
		filter.Type = t
	}
	dates, err := ParseDateRange(q.From, q.To, s.loc)
	if err != nil {
		return nil, err
	}
	filter.From, filter.To = dates.From, dates.To

	active := true
	if q.Active != nil {
		active = *q.Active
	}
	filter.Active = &active

	if filter.Limit <= 0 {
		filter.Limit = defaultOrderLimit
	}
	if filter.Limit > maxOrderLimit {
		filter.Limit = maxOrderLimit
	}
	return s.orders.List(ctx, filter)
}

// Edit changes customer details or notes. Only orders still awaiting
// preparation can be edited.
func (s *OrderService) Edit(ctx context.Context, actor models.Actor, id string, req EditOrderRequest) (*models.Order, error) {
	if err := s.authorize(actor, permissions.EditOrder); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusAwaitingPreparation {
		return nil, apperrors.InvalidOrderState("order %s can no longer be edited, it is %s", order.Number, order.Status)
	}

	if req.Customer != nil && req.Customer.Name == "" {
		return nil, apperrors.Validation("customer.name is required")
	}
	return s.orders.Update(ctx, id, repository.OrderChange{
		From:      models.StatusAwaitingPreparation,
		Customer:  req.Customer,
		Notes:     req.Notes,
		UpdatedAt: s.now(),
	})
}

// UpdateStatus moves an order to status. Moves between the open statuses are
// not ordered; cancelled is final.
func (s *OrderService) UpdateStatus(ctx context.Context, actor models.Actor, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("invalid status %q", status)
	}
	capability, _ := permissions.ForStatus(status)
	if err := s.authorize(actor, capability); err != nil {
		return nil, err
	}
	if status == models.StatusCancelled {
		return s.Cancel(ctx, actor, id)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.StatusCancelled {
		return nil, apperrors.InvalidOrderState("order %s is cancelled", order.Number)
	}

	now := s.now()
	previous := order.Status
	order, err = s.orders.Update(ctx, id, repository.OrderChange{
		From:      previous,
		Status:    &status,
		Stamp:     &now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	metrics.StatusChanged(string(status))
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID.Hex(),
		"number":   order.Number,
		"from":     previous,
		"to":       status,
		"user_id":  actor.ID,
	}).Info("order status updated")

	s.notifier.Publish(ctx, notify.NewEvent(models.EventStatusUpdated, "", order, order))
	if group := models.GroupForStatus(status); group != "" {
		s.notifier.Publish(ctx, notify.NewEvent(models.EventStatusUpdated, group, order, order))
	}
	return order, nil
}

// Cancel soft-cancels an order. The document stays in storage.
func (s *OrderService) Cancel(ctx context.Context, actor models.Actor, id string) (*models.Order, error) {
	if err := s.authorize(actor, permissions.CancelOrder); err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case models.StatusCancelled:
		return nil, apperrors.InvalidOrderState("order %s is already cancelled", order.Number)
	case models.StatusDelivered:
		return nil, apperrors.InvalidOrderState("order %s was delivered and cannot be cancelled", order.Number)
	}

	cancelled, inactive := models.StatusCancelled, false
	order, err = s.orders.Update(ctx, id, repository.OrderChange{
		From:      order.Status,
		Status:    &cancelled,
		Active:    &inactive,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}

	metrics.StatusChanged(string(models.StatusCancelled))
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID.Hex(),
		"number":   order.Number,
		"user_id":  actor.ID,
	}).Info("order cancelled")

	s.notifier.Publish(ctx, notify.NewEvent(models.EventOrderCancelled, "", order, order))
	return order, nil
}

func sectorStatuses(sector string) ([]models.OrderStatus, error) {
	switch sector {
	case "", "all":
		return models.OpenStatuses, nil
	case models.GroupPreparation:
		return []models.OrderStatus{models.StatusAwaitingPreparation, models.StatusInPreparation}, nil
	case models.GroupExpedition:
		return []models.OrderStatus{models.StatusReady, models.StatusDispatched}, nil
	case models.GroupDelivery:
		return []models.OrderStatus{models.StatusDispatched}, nil
	}
	return nil, apperrors.Validation("unknown sector %q", sector)
}

// KitchenQueue lists the open orders a sector works on, oldest first.
func (s *OrderService) KitchenQueue(ctx context.Context, sector string) ([]QueueEntry, error) {
	statuses, err := sectorStatuses(sector)
	if err != nil {
		return nil, err
	}
	active := true
	orders, err := s.orders.List(ctx, repository.OrderFilter{
		Statuses:    statuses,
		Active:      &active,
		OldestFirst: true,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	queue := make([]QueueEntry, 0, len(orders))
	for _, o := range orders {
		queue = append(queue, QueueEntry{Order: o, ElapsedMinutes: models.MinutesBetween(o.EnteredStatus(), now)})
	}
	return queue, nil
}

func (s *OrderService) expectedMinutes(o *models.Order) int {
	expected := s.delayFloor
	for _, item := range o.Items {
		if item.Prep_minutes > expected {
			expected = item.Prep_minutes
		}
	}
	return expected
}

// Delayed lists orders still awaiting or in preparation that have been open
// longer than their slowest item takes to prepare.
func (s *OrderService) Delayed(ctx context.Context, now time.Time) ([]DelayedOrder, error) {
	active := true
	orders, err := s.orders.List(ctx, repository.OrderFilter{
		Statuses:    []models.OrderStatus{models.StatusAwaitingPreparation, models.StatusInPreparation},
		Active:      &active,
		OldestFirst: true,
	})
	if err != nil {
		return nil, err
	}

	delayed := make([]DelayedOrder, 0)
	for _, o := range orders {
		age := models.MinutesBetween(o.Times.Created, now)
		expected := s.expectedMinutes(&o)
		if age > expected {
			delayed = append(delayed, DelayedOrder{Order: o, AgeMinutes: age, ExpectedMinutes: expected})
		}
	}
	return delayed, nil
}
