package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeliveryStatus string

const (
	DeliveryUnassigned DeliveryStatus = "unassigned"
	DeliveryAccepted   DeliveryStatus = "accepted"
	DeliveryAssigned   DeliveryStatus = "assigned"
	DeliveryPickedUp   DeliveryStatus = "picked up"
	DeliveryInTransit  DeliveryStatus = "in transit"
	DeliveryDelivered  DeliveryStatus = "delivered"
	DeliveryCancelled  DeliveryStatus = "cancelled"
)

// DeliveryStatuses lists every delivery status in workflow order.
var DeliveryStatuses = []DeliveryStatus{
	DeliveryUnassigned,
	DeliveryAccepted,
	DeliveryAssigned,
	DeliveryPickedUp,
	DeliveryInTransit,
	DeliveryDelivered,
	DeliveryCancelled,
}

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryUnassigned, DeliveryAccepted, DeliveryAssigned, DeliveryPickedUp,
		DeliveryInTransit, DeliveryDelivered, DeliveryCancelled:
		return true
	}
	return false
}

func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	st := DeliveryStatus(s)
	return st, st.Valid()
}

// OrderStatusFor returns the order status implied by a delivery status.
// The second result is false when the order status must be left unchanged.
func OrderStatusFor(s DeliveryStatus) (OrderStatus, bool) {
	switch s {
	case DeliveryDelivered:
		return OrderCompleted, true
	case DeliveryCancelled:
		return OrderCancelled, true
	case DeliveryPickedUp:
		return OrderInProgress, true
	case DeliveryUnassigned:
		return OrderPending, true
	}
	return "", false
}

// Delivery is the fulfilment task paired with exactly one order.
// DeliveryPersonID is stored as an explicit null until the delivery is claimed.
type Delivery struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID          primitive.ObjectID  `bson:"orderId" json:"orderId"`
	DeliveryPersonID *primitive.ObjectID `bson:"deliveryPersonId" json:"deliveryPersonId"`
	Status           DeliveryStatus      `bson:"status" json:"status"`
	PickupTime       *time.Time          `bson:"pickupTime,omitempty" json:"pickupTime,omitempty"`
	DeliveryTime     *time.Time          `bson:"deliveryTime,omitempty" json:"deliveryTime,omitempty"`
	Charges          float64             `bson:"charges" json:"charges"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}
