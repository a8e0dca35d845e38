// Package permissions maps account roles to the capabilities they hold.
package permissions

import "go-pizzeria-management/models"

type Capability string

const (
	CreateOrder             Capability = "create_order"
	EditOrder               Capability = "edit_order"
	CancelOrder             Capability = "cancel_order"
	ViewOrders              Capability = "view_orders"
	UpdatePreparationStatus Capability = "update_preparation_status"
	UpdateDeliveryStatus    Capability = "update_delivery_status"
	ViewReports             Capability = "view_reports"
	ManageProducts          Capability = "manage_products"
	ManageUsers             Capability = "manage_users"

	// Any grants every capability.
	Any Capability = "*"
)

// Set is an immutable collection of capabilities.
type Set map[Capability]struct{}

func NewSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

func (s Set) Has(c Capability) bool {
	if _, ok := s[Any]; ok {
		return true
	}
	_, ok := s[c]
	return ok
}

// Lookup resolves a role to its capabilities. Unknown roles get an empty set.
type Lookup func(role models.Role) Set

var defaultTable = map[models.Role]Set{
	models.RoleAdmin:        NewSet(Any),
	models.RoleManager:      NewSet(CreateOrder, EditOrder, CancelOrder, ViewOrders, ViewReports, ManageProducts, ManageUsers),
	models.RoleCounterStaff: NewSet(CreateOrder, EditOrder, ViewOrders),
	models.RoleCook:         NewSet(ViewOrders, UpdatePreparationStatus),
	models.RoleDriver:       NewSet(ViewOrders, UpdateDeliveryStatus),
}

// Default is the built-in role table.
func Default(role models.Role) Set {
	if s, ok := defaultTable[role]; ok {
		return s
	}
	return Set{}
}

// FromTable builds a Lookup over a custom table.
func FromTable(table map[models.Role][]Capability) Lookup {
	resolved := make(map[models.Role]Set, len(table))
	for role, caps := range table {
		resolved[role] = NewSet(caps...)
	}
	return func(role models.Role) Set {
		if s, ok := resolved[role]; ok {
			return s
		}
		return Set{}
	}
}

// ForStatus is the capability needed to move an order into status.
func ForStatus(status models.OrderStatus) (Capability, bool) {
	switch status {
	case models.StatusInPreparation, models.StatusReady:
		return UpdatePreparationStatus, true
	case models.StatusDispatched, models.StatusDelivered:
		return UpdateDeliveryStatus, true
	case models.StatusAwaitingPreparation:
		return EditOrder, true
	case models.StatusCancelled:
		return CancelOrder, true
	}
	return "", false
}
