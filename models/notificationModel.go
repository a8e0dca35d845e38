package models

import "time"

type EventType string

const (
	EventNewOrder       EventType = "new_order"
	EventNewOrderAlert  EventType = "new_order_alert"
	EventStatusUpdated  EventType = "status_updated"
	EventOrderCancelled EventType = "order_cancelled"
	EventOrderDelayed   EventType = "order_delayed"
)

// Notification groups that listeners may join.
const (
	GroupPreparation = "preparation"
	GroupExpedition  = "expedition"
	GroupDelivery    = "delivery"
)

// Event is a real-time notification about an order. An empty Group means
// every connected listener receives it.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"event"`
	Group       string      `json:"group,omitempty"`
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number,omitempty"`
	Status      OrderStatus `json:"status,omitempty"`
	Payload     interface{} `json:"payload,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// GroupForStatus is the listener group interested in orders entering status.
func GroupForStatus(status OrderStatus) string {
	switch status {
	case StatusAwaitingPreparation, StatusInPreparation:
		return GroupPreparation
	case StatusReady:
		return GroupExpedition
	case StatusDispatched:
		return GroupDelivery
	}
	return ""
}
