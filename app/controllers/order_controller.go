package controllers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/policies"
	"github.com/shashiranjanraj/kabadi/app/services"
	"github.com/shashiranjanraj/kabadi/app/views"
	"github.com/shashiranjanraj/kabadi/pkg/ctx"
)

type OrderController struct {
	service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{service: service}
}

// placeOrderRequest takes the contact under deliveryDetails, or flat.
type placeOrderRequest struct {
	ItemID          string `json:"itemId" validate:"required,mongodb"`
	Contact         string `json:"contact" validate:"max=40"`
	DeliveryDetails struct {
		Contact string `json:"contact" validate:"max=40"`
	} `json:"deliveryDetails"`
}

func (r placeOrderRequest) contact() string {
	if r.DeliveryDetails.Contact != "" {
		return r.DeliveryDetails.Contact
	}
	return r.Contact
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type assignRequest struct {
	DeliveryPersonID string `json:"deliveryPersonId" validate:"required,mongodb"`
}

func (c *OrderController) Store(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	var req placeOrderRequest
	if !cx.BindJSON(&req) {
		return
	}
	itemID, _ := primitive.ObjectIDFromHex(req.ItemID)

	placed, err := c.service.PlaceOrder(cx.Context(), p, services.PlaceOrderInput{
		ItemID:  itemID,
		Contact: req.contact(),
	})
	if err != nil {
		fail(cx, err)
		return
	}
	cx.Created("Order placed successfully", placed)
}

func (c *OrderController) UpdateStatus(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	id, ok := objectID(cx, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !cx.BindJSON(&req) {
		return
	}

	o, err := c.service.UpdateStatus(cx.Context(), p, id, req.Status)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.SuccessMessage("Order status updated", o)
}

func (c *OrderController) AssignDeliveryPerson(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	id, ok := objectID(cx, "id")
	if !ok {
		return
	}
	var req assignRequest
	if !cx.BindJSON(&req) {
		return
	}
	personID, _ := primitive.ObjectIDFromHex(req.DeliveryPersonID)

	o, err := c.service.AssignDeliveryPerson(cx.Context(), p, id, personID)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.SuccessMessage("Delivery person assigned", o)
}

func (c *OrderController) Own(cx *ctx.Context)    { c.list(cx, c.service.ListOwn) }
func (c *OrderController) Vendor(cx *ctx.Context) { c.list(cx, c.service.ListVendor) }
func (c *OrderController) Seller(cx *ctx.Context) { c.list(cx, c.service.ListSeller) }
func (c *OrderController) All(cx *ctx.Context)    { c.list(cx, c.service.ListAll) }

type orderLister func(context.Context, policies.Principal) ([]views.Order, error)

func (c *OrderController) list(cx *ctx.Context, fn orderLister) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	orders, err := fn(cx.Context(), p)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.Success(orders)
}
