package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/app/views"
	"github.com/shashiranjanraj/kabadi/pkg/collection"
)

// userShape projects a joined user. A nil shape leaves the field unset.
type userShape func(models.User) *views.UserRef

// orderShape selects which parties a view joins and how each is projected.
type orderShape struct {
	buyer          userShape
	seller         userShape
	deliveryPerson userShape
}

func joinOrders(ctx context.Context, store repositories.Store, orders []models.Order, shape orderShape) ([]views.Order, error) {
	var userIDs, itemIDs []primitive.ObjectID
	for _, o := range orders {
		itemIDs = append(itemIDs, o.ItemID)
		if shape.buyer != nil {
			userIDs = append(userIDs, o.BuyerID)
		}
		if shape.seller != nil {
			userIDs = append(userIDs, o.SellerID)
		}
		if shape.deliveryPerson != nil && o.DeliveryPersonID != nil {
			userIDs = append(userIDs, *o.DeliveryPersonID)
		}
	}

	users, err := store.Users().FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, upstream(err, "join users")
	}
	items, err := store.Items().FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, upstream(err, "join items")
	}

	out := make([]views.Order, 0, len(orders))
	for _, o := range orders {
		v := views.OrderOf(o)
		v.Buyer = project(users, o.BuyerID, shape.buyer)
		v.Seller = project(users, o.SellerID, shape.seller)
		if o.DeliveryPersonID != nil {
			v.DeliveryPerson = project(users, *o.DeliveryPersonID, shape.deliveryPerson)
		}
		if it, ok := items[o.ItemID]; ok {
			v.Item = views.ItemSummary(it)
		}
		out = append(out, v)
	}
	return out, nil
}

func project(users map[primitive.ObjectID]models.User, id primitive.ObjectID, shape userShape) *views.UserRef {
	if shape == nil {
		return nil
	}
	u, ok := users[id]
	if !ok {
		return nil
	}
	return shape(u)
}

// joinDeliveries attaches each delivery's order, with the order's item.
func joinDeliveries(ctx context.Context, store repositories.Store, ds []models.Delivery) ([]views.Delivery, error) {
	orderIDs := collection.Pluck(ds, func(d models.Delivery) primitive.ObjectID { return d.OrderID })
	byID, err := store.Orders().FindByIDs(ctx, orderIDs)
	if err != nil {
		return nil, upstream(err, "join orders")
	}
	joined, err := joinOrders(ctx, store, collection.Values(byID), orderShape{})
	if err != nil {
		return nil, err
	}
	orderViews := collection.KeyBy(joined, func(o views.Order) primitive.ObjectID { return o.ID })

	return collection.Map(ds, func(d models.Delivery) views.Delivery {
		v := views.DeliveryOf(d)
		if o, ok := orderViews[d.OrderID]; ok {
			v.Order = &o
		}
		return v
	}), nil
}

// joinSellers attaches each item's seller.
func joinSellers(ctx context.Context, store repositories.Store, items []models.Item, shape userShape) ([]views.Item, error) {
	ids := collection.Pluck(items, func(it models.Item) primitive.ObjectID { return it.SellerID })
	users, err := store.Users().FindByIDs(ctx, ids)
	if err != nil {
		return nil, upstream(err, "join sellers")
	}

	return collection.Map(items, func(it models.Item) views.Item {
		return views.Item{Item: it, Seller: project(users, it.SellerID, shape)}
	}), nil
}
