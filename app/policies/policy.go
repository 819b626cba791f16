// Package policies decides which role may perform which action.
//
// Checks run before any business data is read. Ownership (an item's seller,
// a delivery's assignee) is enforced separately by the store filters.
package policies

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID primitive.ObjectID
	Role   models.Role
}

type Action int

const (
	ActionManageItems Action = iota
	ActionPlaceOrder
	ActionListOwnOrders
	ActionListVendorOrders
	ActionListSellerOrders
	ActionListAllOrders
	ActionSetOrderStatus
	ActionAssignDeliveryPerson
	ActionListDeliveries
	ActionClaimDelivery
	ActionUpdateDeliveryStatus
)

var actionNames = map[Action]string{
	ActionManageItems:          "manage_items",
	ActionPlaceOrder:           "place_order",
	ActionListOwnOrders:        "list_own_orders",
	ActionListVendorOrders:     "list_vendor_orders",
	ActionListSellerOrders:     "list_seller_orders",
	ActionListAllOrders:        "list_all_orders",
	ActionSetOrderStatus:       "set_order_status",
	ActionAssignDeliveryPerson: "assign_delivery_person",
	ActionListDeliveries:       "list_deliveries",
	ActionClaimDelivery:        "claim_delivery",
	ActionUpdateDeliveryStatus: "update_delivery_status",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Allows reports whether role may perform action. Unknown roles are denied.
func Allows(role models.Role, action Action) bool {
	if action == ActionListOwnOrders {
		return role.Valid()
	}

	switch role {
	case models.RoleVendor:
		switch action {
		case ActionPlaceOrder, ActionListVendorOrders:
			return true
		}
	case models.RoleSeller:
		switch action {
		case ActionManageItems, ActionListSellerOrders:
			return true
		}
	case models.RoleDeliveryPerson:
		switch action {
		case ActionListDeliveries, ActionClaimDelivery, ActionUpdateDeliveryStatus:
			return true
		}
	case models.RoleAdmin:
		switch action {
		case ActionListAllOrders, ActionSetOrderStatus, ActionAssignDeliveryPerson:
			return true
		}
	}
	return false
}

// Can reports whether p may perform action.
func (p Principal) Can(action Action) bool {
	return !p.UserID.IsZero() && Allows(p.Role, action)
}

// RolesFor lists the roles allowed to perform action, for route gating.
func RolesFor(action Action) []models.Role {
	var out []models.Role
	for _, r := range models.Roles {
		if Allows(r, action) {
			out = append(out, r)
		}
	}
	return out
}
