// Package listeners reacts to domain events after a workflow commits.
package listeners

import (
	"context"

	"github.com/shashiranjanraj/kabadi/app/services"
	"github.com/shashiranjanraj/kabadi/app/views"
	"github.com/shashiranjanraj/kabadi/pkg/event"
	"github.com/shashiranjanraj/kabadi/pkg/metrics"
)

// Feed event types pushed to connected delivery people.
const (
	FeedDeliveryCreated = "delivery.created"
	FeedDeliveryClaimed = "delivery.claimed"
)

// Publisher pushes an event to live clients.
type Publisher interface {
	Publish(eventType string, data interface{})
}

// Invalidator drops cached listings.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Register subscribes the metrics, cache and feed listeners on bus. feed and
// items may be nil. Cache invalidation runs before the request returns so the
// next listing never shows a sold item; the rest runs async.
func Register(bus *event.Bus, feed Publisher, items Invalidator) {
	if items != nil {
		bus.Listen(services.EventOrderPlaced, func(ctx context.Context, _ interface{}) {
			items.Invalidate(ctx)
		})
	}

	bus.ListenAsync(services.EventOrderPlaced, func(ctx context.Context, payload interface{}) {
		e, ok := payload.(services.OrderPlaced)
		if !ok {
			return
		}
		metrics.OrdersPlaced.Inc()
		if feed != nil {
			v := views.DeliveryOf(e.Delivery)
			o := views.OrderOf(e.Order)
			v.Order = &o
			feed.Publish(FeedDeliveryCreated, v)
		}
	})

	bus.ListenAsync(services.EventDeliveryClaimed, func(ctx context.Context, payload interface{}) {
		e, ok := payload.(services.DeliveryClaimed)
		if !ok {
			return
		}
		metrics.DeliveryClaims.WithLabelValues("won").Inc()
		if feed != nil {
			// lets other clients drop the delivery from their claimable list
			feed.Publish(FeedDeliveryClaimed, map[string]string{"id": e.Delivery.ID.Hex()})
		}
	})

	bus.ListenAsync(services.EventDeliveryStatusChanged, func(ctx context.Context, payload interface{}) {
		if e, ok := payload.(services.DeliveryStatusChanged); ok {
			metrics.DeliveryStatusUpdates.WithLabelValues(string(e.Delivery.Status)).Inc()
		}
	})

	bus.ListenAsync(services.EventOrderStatusChanged, func(ctx context.Context, payload interface{}) {
		if e, ok := payload.(services.OrderStatusChanged); ok {
			metrics.OrderStatusChanges.WithLabelValues(string(e.Order.Status), e.Source).Inc()
		}
	})
}
