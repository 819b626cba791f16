package controllers

import (
	"github.com/shashiranjanraj/kabadi/app/services"
	"github.com/shashiranjanraj/kabadi/pkg/ctx"
)

type DeliveryController struct {
	service *services.DeliveryService
}

func NewDeliveryController(service *services.DeliveryService) *DeliveryController {
	return &DeliveryController{service: service}
}

func (c *DeliveryController) Unassigned(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	ds, err := c.service.ListUnassigned(cx.Context(), p)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.Success(ds)
}

func (c *DeliveryController) Mine(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	ds, err := c.service.ListMine(cx.Context(), p)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.Success(ds)
}

// Claim answers 404 for both an unknown delivery and one already taken.
func (c *DeliveryController) Claim(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	id, ok := objectID(cx, "id")
	if !ok {
		return
	}

	d, err := c.service.Claim(cx.Context(), p, id)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.SuccessMessage("Delivery accepted", d)
}

func (c *DeliveryController) UpdateStatus(cx *ctx.Context) {
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

	change, err := c.service.UpdateStatus(cx.Context(), p, id, req.Status)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.SuccessMessage("Delivery status updated", change)
}
