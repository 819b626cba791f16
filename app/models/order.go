package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	return st, st.Valid()
}

// DeliveryDetails is the address snapshot embedded in an order at placement.
type DeliveryDetails struct {
	FromAddress string `bson:"fromAddress" json:"fromAddress"`
	ToAddress   string `bson:"toAddress" json:"toAddress"`
	Contact     string `bson:"contact" json:"contact"`
}

type Order struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	BuyerID          primitive.ObjectID  `bson:"buyerId" json:"buyerId"`
	SellerID         primitive.ObjectID  `bson:"sellerId" json:"sellerId"`
	ItemID           primitive.ObjectID  `bson:"itemId" json:"itemId"`
	DeliveryPersonID *primitive.ObjectID `bson:"deliveryPersonId" json:"deliveryPersonId"`
	Status           OrderStatus         `bson:"status" json:"status"`
	DeliveryDetails  DeliveryDetails     `bson:"deliveryDetails" json:"deliveryDetails"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}
