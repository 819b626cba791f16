package services

import "github.com/shashiranjanraj/kabadi/app/models"

// Domain events fired on the bus after a workflow commits.
const (
	EventOrderPlaced           = "order.placed"
	EventOrderStatusChanged    = "order.status_changed"
	EventDeliveryClaimed       = "delivery.claimed"
	EventDeliveryStatusChanged = "delivery.status_changed"
)

// Status change sources.
const (
	SourceAdmin    = "admin"
	SourceDelivery = "delivery"
)

type OrderPlaced struct {
	Order    models.Order
	Delivery models.Delivery
}

type OrderStatusChanged struct {
	Order  models.Order
	Source string
}

type DeliveryClaimed struct {
	Delivery models.Delivery
}

type DeliveryStatusChanged struct {
	Delivery models.Delivery
}
