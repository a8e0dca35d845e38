package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusAwaitingPreparation OrderStatus = "awaiting_preparation"
	StatusInPreparation       OrderStatus = "in_preparation"
	StatusReady               OrderStatus = "ready"
	StatusDispatched          OrderStatus = "dispatched"
	StatusDelivered           OrderStatus = "delivered"
	StatusCancelled           OrderStatus = "cancelled"
)

// OrderStatuses lists the statuses in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusAwaitingPreparation,
	StatusInPreparation,
	StatusReady,
	StatusDispatched,
	StatusDelivered,
	StatusCancelled,
}

// OpenStatuses are the statuses of orders still being worked on.
var OpenStatuses = []OrderStatus{
	StatusAwaitingPreparation,
	StatusInPreparation,
	StatusReady,
	StatusDispatched,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type FulfillmentType string

const (
	FulfillmentDelivery FulfillmentType = "delivery"
	FulfillmentPickup   FulfillmentType = "pickup"
	FulfillmentDineIn   FulfillmentType = "dine_in"
)

func (f FulfillmentType) Valid() bool {
	return f == FulfillmentDelivery || f == FulfillmentPickup || f == FulfillmentDineIn
}

type Channel string

const (
	ChannelCounter     Channel = "counter"
	ChannelPhone       Channel = "phone"
	ChannelMarketplace Channel = "marketplace"
	ChannelWeb         Channel = "web"
	ChannelMessaging   Channel = "messaging"
)

var Channels = []Channel{ChannelCounter, ChannelPhone, ChannelMarketplace, ChannelWeb, ChannelMessaging}

func (c Channel) Valid() bool {
	for _, known := range Channels {
		if c == known {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentPix        PaymentMethod = "pix"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentDebitCard, PaymentCreditCard, PaymentPix:
		return true
	}
	return false
}

type Address struct {
	Street     string `bson:"street,omitempty" json:"street,omitempty"`
	Number     string `bson:"number,omitempty" json:"number,omitempty"`
	District   string `bson:"district,omitempty" json:"district,omitempty"`
	City       string `bson:"city,omitempty" json:"city,omitempty"`
	Zip        string `bson:"zip,omitempty" json:"zip,omitempty"`
	Complement string `bson:"complement,omitempty" json:"complement,omitempty"`
}

type Customer struct {
	Name    string   `bson:"name" json:"name" validate:"required"`
	Phone   string   `bson:"phone,omitempty" json:"phone,omitempty"`
	Address *Address `bson:"address,omitempty" json:"address,omitempty"`
}

type SelectedOption struct {
	Name  string `bson:"name" json:"name"`
	Price Money  `bson:"price" json:"price"`
}

type LineItem struct {
	Product_id   primitive.ObjectID `bson:"product_id" json:"product_id"`
	Product_name string             `bson:"product_name" json:"product_name"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	Size         string             `bson:"size" json:"size"`
	Flavors      []string           `bson:"flavors,omitempty" json:"flavors,omitempty"`
	Crust        *SelectedOption    `bson:"crust,omitempty" json:"crust,omitempty"`
	Addons       []SelectedOption   `bson:"addons,omitempty" json:"addons,omitempty"`
	Note         string             `bson:"note,omitempty" json:"note,omitempty"`
	Prep_minutes int                `bson:"prep_minutes" json:"prep_minutes"`
	Price        Money              `bson:"price" json:"price"`
}

type Payment struct {
	Method    PaymentMethod `bson:"method" json:"method"`
	Total     Money         `bson:"total" json:"total"`
	ChangeDue *Money        `bson:"change_due,omitempty" json:"change_due,omitempty"`
	Paid      bool          `bson:"paid" json:"paid"`
}

// LifecycleTimes records when the order entered each phase. A stamp, once
// set, is never overwritten.
type LifecycleTimes struct {
	Created             time.Time  `bson:"created" json:"created"`
	PreparationStarted  *time.Time `bson:"preparation_started,omitempty" json:"preparation_started,omitempty"`
	PreparationFinished *time.Time `bson:"preparation_finished,omitempty" json:"preparation_finished,omitempty"`
	Dispatched          *time.Time `bson:"dispatched,omitempty" json:"dispatched,omitempty"`
	Delivered           *time.Time `bson:"delivered,omitempty" json:"delivered,omitempty"`
}

type Order struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Number     string             `bson:"number" json:"number"`
	Customer   Customer           `bson:"customer" json:"customer"`
	Type       FulfillmentType    `bson:"type" json:"type"`
	Channel    Channel            `bson:"channel" json:"channel"`
	Items      []LineItem         `bson:"items" json:"items"`
	Status     OrderStatus        `bson:"status" json:"status"`
	Payment    Payment            `bson:"payment" json:"payment"`
	Times      LifecycleTimes     `bson:"times" json:"times"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Active     bool               `bson:"active" json:"active"`
	Created_by string             `bson:"created_by,omitempty" json:"created_by,omitempty"`
	Created_at time.Time          `bson:"created_at" json:"created_at"`
	Updated_at time.Time          `bson:"updated_at" json:"updated_at"`
}

// StampStatus records the lifecycle timestamp belonging to status, keeping any
// value that was already recorded. It reports whether a stamp was written.
func (t *LifecycleTimes) StampStatus(status OrderStatus, at time.Time) bool {
	var slot **time.Time
	switch status {
	case StatusInPreparation:
		slot = &t.PreparationStarted
	case StatusReady:
		slot = &t.PreparationFinished
	case StatusDispatched:
		slot = &t.Dispatched
	case StatusDelivered:
		slot = &t.Delivered
	default:
		return false
	}
	if *slot != nil {
		return false
	}
	stamp := at
	*slot = &stamp
	return true
}

// StampField is the bson key under times holding the stamp for status, or
// "" when status has none.
func StampField(status OrderStatus) string {
	switch status {
	case StatusInPreparation:
		return "preparation_started"
	case StatusReady:
		return "preparation_finished"
	case StatusDispatched:
		return "dispatched"
	case StatusDelivered:
		return "delivered"
	}
	return ""
}

// EnteredStatus is the instant the order entered its current status, when known.
func (o *Order) EnteredStatus() time.Time {
	var at *time.Time
	switch o.Status {
	case StatusInPreparation:
		at = o.Times.PreparationStarted
	case StatusReady:
		at = o.Times.PreparationFinished
	case StatusDispatched:
		at = o.Times.Dispatched
	case StatusDelivered:
		at = o.Times.Delivered
	}
	if at != nil {
		return *at
	}
	return o.Times.Created
}

// MinutesBetween is the whole number of minutes from start to end, rounded to
// the nearest minute.
func MinutesBetween(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}
