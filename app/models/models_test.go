package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusFor(t *testing.T) {
	cases := []struct {
		in      DeliveryStatus
		want    OrderStatus
		changes bool
	}{
		{DeliveryDelivered, OrderCompleted, true},
		{DeliveryCancelled, OrderCancelled, true},
		{DeliveryPickedUp, OrderInProgress, true},
		{DeliveryUnassigned, OrderPending, true},
		{DeliveryAccepted, "", false},
		{DeliveryAssigned, "", false},
		{DeliveryInTransit, "", false},
	}

	for _, tc := range cases {
		t.Run(string(tc.in), func(t *testing.T) {
			got, ok := OrderStatusFor(tc.in)
			assert.Equal(t, tc.changes, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOrderStatusFor_CoversEveryDeliveryStatus(t *testing.T) {
	mapped := 0
	for _, s := range DeliveryStatuses {
		if got, ok := OrderStatusFor(s); ok {
			mapped++
			assert.True(t, got.Valid(), "mapped status %q must be a valid order status", got)
		}
	}
	assert.Equal(t, 4, mapped)
}

func TestParseDeliveryStatus(t *testing.T) {
	s, ok := ParseDeliveryStatus("picked up")
	assert.True(t, ok)
	assert.Equal(t, DeliveryPickedUp, s)

	_, ok = ParseDeliveryStatus("picked_up")
	assert.False(t, ok)
	_, ok = ParseDeliveryStatus("")
	assert.False(t, ok)
}

func TestParseOrderStatus(t *testing.T) {
	_, ok := ParseOrderStatus("in progress")
	assert.True(t, ok)
	_, ok = ParseOrderStatus("shipped")
	assert.False(t, ok)
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		got, ok := ParseRole(string(r))
		assert.True(t, ok)
		assert.Equal(t, r, got)
	}
	_, ok := ParseRole("user")
	assert.False(t, ok)
}

func TestCategoryAndItemStatus(t *testing.T) {
	assert.True(t, CategoryGlass.Valid())
	assert.False(t, Category("wood").Valid())
	assert.True(t, ItemSold.Valid())
	assert.False(t, ItemStatus("reserved").Valid())
}
