package services

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/policies"
	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/app/views"
	"github.com/shashiranjanraj/kabadi/pkg/event"
	"github.com/shashiranjanraj/kabadi/pkg/logger"
)

type PlaceOrderInput struct {
	ItemID  primitive.ObjectID
	Contact string
}

// Placement is the order and delivery created together by PlaceOrder.
type Placement struct {
	Order    models.Order    `json:"order"`
	Delivery models.Delivery `json:"delivery"`
}

type OrderService struct {
	store repositories.Store
	bus   *event.Bus
}

func NewOrderService(store repositories.Store, bus *event.Bus) *OrderService {
	return &OrderService{store: store, bus: bus}
}

// PlaceOrder buys an available item for the calling vendor. The order, the
// item's sold flag and the delivery are written in one store transaction;
// without transaction support a failure part way returns a PartialWriteError.
func (s *OrderService) PlaceOrder(ctx context.Context, p policies.Principal, in PlaceOrderInput) (*Placement, error) {
	if !p.Can(policies.ActionPlaceOrder) {
		return nil, ErrForbidden
	}

	item, err := s.store.Items().FindByID(ctx, in.ItemID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrItemUnavailable.Withf("item %s not found", in.ItemID.Hex())
	}
	if err != nil {
		return nil, upstream(err, "find item")
	}
	if item.Status != models.ItemAvailable {
		return nil, ErrItemUnavailable.Withf("item %s is %s", item.ID.Hex(), item.Status)
	}

	seller, err := s.party(ctx, item.SellerID, "seller")
	if err != nil {
		return nil, err
	}
	buyer, err := s.party(ctx, p.UserID, "buyer")
	if err != nil {
		return nil, err
	}

	var (
		placed Placement
		done   writes
	)
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		done.reset()

		placed.Order = models.Order{
			BuyerID:  buyer.ID,
			SellerID: seller.ID,
			ItemID:   item.ID,
			Status:   models.OrderPending,
			DeliveryDetails: models.DeliveryDetails{
				FromAddress: seller.Address(),
				ToAddress:   buyer.Address(),
				Contact:     in.Contact,
			},
		}
		if err := s.store.Orders().Create(ctx, &placed.Order); err != nil {
			return upstream(err, "create order")
		}
		done.add("order")

		if _, err := s.store.Items().MarkSold(ctx, item.ID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrItemUnavailable.Withf("item %s was sold concurrently", item.ID.Hex())
			}
			return upstream(err, "mark item sold")
		}
		done.add("item")

		placed.Delivery = models.Delivery{
			OrderID: placed.Order.ID,
			Status:  models.DeliveryUnassigned,
		}
		if err := s.store.Deliveries().Create(ctx, &placed.Delivery); err != nil {
			return upstream(err, "create delivery")
		}
		done.add("delivery")
		return nil
	})
	if err != nil {
		return nil, settle(s.store, "place_order", done, err)
	}

	logger.WithCtx(ctx).Info("order placed",
		"order_id", placed.Order.ID.Hex(),
		"delivery_id", placed.Delivery.ID.Hex(),
		"item_id", item.ID.Hex(),
	)
	s.bus.Fire(ctx, EventOrderPlaced, OrderPlaced{Order: placed.Order, Delivery: placed.Delivery})
	return &placed, nil
}

// party loads an order party and requires an address on their profile. A
// party that no longer exists has no address either.
func (s *OrderService) party(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	u, err := s.store.Users().FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAddressMissing.Withf("%s %s not found", role, id.Hex())
	}
	if err != nil {
		return nil, upstream(err, "find "+role)
	}
	if u.Address() == "" {
		return nil, ErrAddressMissing.Withf("%s %s has no address", role, id.Hex())
	}
	return u, nil
}

// UpdateStatus sets an order's status directly, whatever its delivery says.
func (s *OrderService) UpdateStatus(ctx context.Context, p policies.Principal, id primitive.ObjectID, status string) (*models.Order, error) {
	if !p.Can(policies.ActionSetOrderStatus) {
		return nil, ErrForbidden
	}
	st, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, ErrInvalidStatus.Withf("unknown order status %q", status)
	}

	o, err := s.store.Orders().UpdateStatus(ctx, id, st)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, upstream(err, "update order status")
	}

	s.bus.Fire(ctx, EventOrderStatusChanged, OrderStatusChanged{Order: *o, Source: SourceAdmin})
	return o, nil
}

// AssignDeliveryPerson records a delivery person on the order. The delivery
// record's own assignee is not changed.
func (s *OrderService) AssignDeliveryPerson(ctx context.Context, p policies.Principal, orderID, personID primitive.ObjectID) (*models.Order, error) {
	if !p.Can(policies.ActionAssignDeliveryPerson) {
		return nil, ErrForbidden
	}

	person, err := s.store.Users().FindByID(ctx, personID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidDeliveryPerson.Withf("user %s not found", personID.Hex())
	}
	if err != nil {
		return nil, upstream(err, "find delivery person")
	}
	if person.Role != models.RoleDeliveryPerson {
		return nil, ErrInvalidDeliveryPerson.Withf("user %s has role %s", personID.Hex(), person.Role)
	}

	o, err := s.store.Orders().SetDeliveryPerson(ctx, orderID, personID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, upstream(err, "assign delivery person")
	}
	return o, nil
}

// ListOwn returns orders where the caller is buyer or seller.
func (s *OrderService) ListOwn(ctx context.Context, p policies.Principal) ([]views.Order, error) {
	return s.list(ctx, p, policies.ActionListOwnOrders,
		repositories.OrderFilter{Party: &p.UserID},
		orderShape{buyer: views.Party, seller: views.Party})
}

// ListVendor returns the calling vendor's purchases.
func (s *OrderService) ListVendor(ctx context.Context, p policies.Principal) ([]views.Order, error) {
	return s.list(ctx, p, policies.ActionListVendorOrders,
		repositories.OrderFilter{BuyerID: &p.UserID},
		orderShape{seller: views.Party, deliveryPerson: views.Contact})
}

// ListSeller returns orders for the calling seller's items.
func (s *OrderService) ListSeller(ctx context.Context, p policies.Principal) ([]views.Order, error) {
	return s.list(ctx, p, policies.ActionListSellerOrders,
		repositories.OrderFilter{SellerID: &p.UserID},
		orderShape{buyer: views.Party, deliveryPerson: views.Contact})
}

// ListAll returns every order with all parties joined.
func (s *OrderService) ListAll(ctx context.Context, p policies.Principal) ([]views.Order, error) {
	return s.list(ctx, p, policies.ActionListAllOrders,
		repositories.OrderFilter{},
		orderShape{buyer: views.Profile, seller: views.Profile, deliveryPerson: views.Profile})
}

func (s *OrderService) list(ctx context.Context, p policies.Principal, action policies.Action, f repositories.OrderFilter, shape orderShape) ([]views.Order, error) {
	if !p.Can(action) {
		return nil, ErrForbidden
	}
	orders, err := s.store.Orders().Find(ctx, f)
	if err != nil {
		return nil, upstream(err, "list orders")
	}
	return joinOrders(ctx, s.store, orders, shape)
}
