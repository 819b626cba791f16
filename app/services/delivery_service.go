package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/policies"
	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/app/views"
	"github.com/shashiranjanraj/kabadi/pkg/event"
	"github.com/shashiranjanraj/kabadi/pkg/logger"
	"github.com/shashiranjanraj/kabadi/pkg/metrics"
)

// StatusChange is a delivery status update and the order it reached.
type StatusChange struct {
	Delivery models.Delivery `json:"delivery"`
	Order    models.Order    `json:"order"`
}

type DeliveryService struct {
	store repositories.Store
	bus   *event.Bus
	now   func() time.Time

	// ownership restricts status updates to the assigned delivery person.
	ownership bool
}

func NewDeliveryService(store repositories.Store, bus *event.Bus, ownershipCheck bool) *DeliveryService {
	return &DeliveryService{
		store:     store,
		bus:       bus,
		now:       func() time.Time { return time.Now().UTC() },
		ownership: ownershipCheck,
	}
}

// ListUnassigned returns deliveries nobody has claimed yet.
func (s *DeliveryService) ListUnassigned(ctx context.Context, p policies.Principal) ([]views.Delivery, error) {
	return s.list(ctx, p, repositories.DeliveryFilter{Unassigned: true})
}

// ListMine returns the deliveries the caller has claimed.
func (s *DeliveryService) ListMine(ctx context.Context, p policies.Principal) ([]views.Delivery, error) {
	return s.list(ctx, p, repositories.DeliveryFilter{DeliveryPersonID: &p.UserID})
}

func (s *DeliveryService) list(ctx context.Context, p policies.Principal, f repositories.DeliveryFilter) ([]views.Delivery, error) {
	if !p.Can(policies.ActionListDeliveries) {
		return nil, ErrForbidden
	}
	ds, err := s.store.Deliveries().Find(ctx, f)
	if err != nil {
		return nil, upstream(err, "list deliveries")
	}
	return joinDeliveries(ctx, s.store, ds)
}

// Claim assigns an unassigned delivery to the caller and returns it with its
// order and the order's item joined. Of any number of concurrent claims on
// one delivery exactly one wins; the others get ErrDeliveryNotAvailable, as
// does an unknown id.
func (s *DeliveryService) Claim(ctx context.Context, p policies.Principal, id primitive.ObjectID) (*views.Delivery, error) {
	if !p.Can(policies.ActionClaimDelivery) {
		return nil, ErrForbidden
	}

	d, err := s.store.Deliveries().Claim(ctx, id, p.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		metrics.DeliveryClaims.WithLabelValues("lost").Inc()
		return nil, ErrDeliveryNotAvailable
	}
	if err != nil {
		return nil, upstream(err, "claim delivery")
	}

	logger.WithCtx(ctx).Info("delivery claimed", "delivery_id", d.ID.Hex())
	s.bus.Fire(ctx, EventDeliveryClaimed, DeliveryClaimed{Delivery: *d})

	joined, err := joinDeliveries(ctx, s.store, []models.Delivery{*d})
	if err != nil {
		// the claim is committed; answer with the bare delivery
		logger.WithCtx(ctx).Warn("delivery claimed without its order", "delivery_id", d.ID.Hex(), "error", err)
		v := views.DeliveryOf(*d)
		return &v, nil
	}
	return &joined[0], nil
}

// UpdateStatus moves a delivery to status and carries the change to its order
// where models.OrderStatusFor maps one. Picked up and delivered stamp their
// times.
func (s *DeliveryService) UpdateStatus(ctx context.Context, p policies.Principal, id primitive.ObjectID, status string) (*StatusChange, error) {
	if !p.Can(policies.ActionUpdateDeliveryStatus) {
		return nil, ErrForbidden
	}
	st, ok := models.ParseDeliveryStatus(status)
	if !ok {
		return nil, ErrInvalidStatus.Withf("unknown delivery status %q", status)
	}
	if s.ownership {
		if err := s.checkAssignee(ctx, p, id); err != nil {
			return nil, err
		}
	}

	upd := repositories.DeliveryStatusUpdate{Status: st}
	now := s.now()
	switch st {
	case models.DeliveryPickedUp:
		upd.PickupTime = &now
	case models.DeliveryDelivered:
		upd.DeliveryTime = &now
	}
	orderStatus, changesOrder := models.OrderStatusFor(st)

	var (
		change StatusChange
		done   writes
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		done.reset()

		d, err := s.store.Deliveries().UpdateStatus(ctx, id, upd)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrDeliveryNotFound
		}
		if err != nil {
			return upstream(err, "update delivery status")
		}
		done.add("delivery")
		change.Delivery = *d

		var o *models.Order
		if changesOrder {
			o, err = s.store.Orders().UpdateStatus(ctx, d.OrderID, orderStatus)
		} else {
			o, err = s.store.Orders().FindByID(ctx, d.OrderID)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound.Withf("order %s of delivery %s", d.OrderID.Hex(), d.ID.Hex())
		}
		if err != nil {
			return upstream(err, "update order status")
		}
		if changesOrder {
			done.add("order")
		}
		change.Order = *o
		return nil
	})
	if err != nil {
		return nil, settle(s.store, "update_delivery_status", done, err)
	}

	logger.WithCtx(ctx).Info("delivery status updated",
		"delivery_id", change.Delivery.ID.Hex(),
		"status", st,
		"order_status", change.Order.Status,
	)
	s.bus.Fire(ctx, EventDeliveryStatusChanged, DeliveryStatusChanged{Delivery: change.Delivery})
	if changesOrder {
		s.bus.Fire(ctx, EventOrderStatusChanged, OrderStatusChanged{Order: change.Order, Source: SourceDelivery})
	}
	return &change, nil
}

func (s *DeliveryService) checkAssignee(ctx context.Context, p policies.Principal, id primitive.ObjectID) error {
	d, err := s.store.Deliveries().FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrDeliveryNotFound
	}
	if err != nil {
		return upstream(err, "find delivery")
	}
	if d.DeliveryPersonID == nil || *d.DeliveryPersonID != p.UserID {
		return ErrForbidden.Withf("delivery %s is not assigned to the caller", id.Hex())
	}
	return nil
}
