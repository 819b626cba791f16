package listeners

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/services"
	"github.com/shashiranjanraj/kabadi/app/views"
	"github.com/shashiranjanraj/kabadi/pkg/event"
)

type recordingFeed struct {
	mu     sync.Mutex
	events []string
	data   []interface{}
}

func (f *recordingFeed) Publish(eventType string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	f.data = append(f.data, data)
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) { c.n++ }

func TestRegister_OrderPlacedFeedsAndInvalidates(t *testing.T) {
	bus := event.NewBus()
	feed := &recordingFeed{}
	items := &countingInvalidator{}
	Register(bus, feed, items)

	order := models.Order{ID: primitive.NewObjectID(), Status: models.OrderPending}
	delivery := models.Delivery{ID: primitive.NewObjectID(), OrderID: order.ID, Status: models.DeliveryUnassigned}
	bus.Fire(context.Background(), services.EventOrderPlaced, services.OrderPlaced{Order: order, Delivery: delivery})
	assert.Equal(t, 1, items.n, "invalidated before Fire returns")

	bus.Wait()
	require.Equal(t, []string{FeedDeliveryCreated}, feed.events)
	v, ok := feed.data[0].(views.Delivery)
	require.True(t, ok)
	assert.Equal(t, delivery.ID, v.ID)
	require.NotNil(t, v.Order)
	assert.Equal(t, order.ID, v.Order.ID)
}

func TestRegister_ClaimAnnounced(t *testing.T) {
	bus := event.NewBus()
	feed := &recordingFeed{}
	Register(bus, feed, nil)

	id := primitive.NewObjectID()
	bus.Fire(context.Background(), services.EventDeliveryClaimed, services.DeliveryClaimed{Delivery: models.Delivery{ID: id}})
	bus.Wait()

	require.Equal(t, []string{FeedDeliveryClaimed}, feed.events)
	assert.Equal(t, map[string]string{"id": id.Hex()}, feed.data[0])
}

func TestRegister_NilCollaborators(t *testing.T) {
	bus := event.NewBus()
	Register(bus, nil, nil)

	assert.NotPanics(t, func() {
		bus.Fire(context.Background(), services.EventOrderPlaced, services.OrderPlaced{})
		bus.Fire(context.Background(), services.EventOrderStatusChanged,
			services.OrderStatusChanged{Order: models.Order{Status: models.OrderCompleted}, Source: services.SourceAdmin})
		bus.Wait()
	})
}
