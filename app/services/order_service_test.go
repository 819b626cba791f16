package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/policies"
)

func TestPlaceOrder_Scenario(t *testing.T) {
	f := newFixture(t)
	it := f.item("Copper wire", 10)
	other := f.item("Glass jars", 4)

	var fired []string
	f.bus.Listen(EventOrderPlaced, func(_ context.Context, payload interface{}) {
		fired = append(fired, payload.(OrderPlaced).Order.ID.Hex())
	})

	placed := f.place(it)

	assert.Equal(t, models.OrderPending, placed.Order.Status)
	assert.Equal(t, models.DeliveryUnassigned, placed.Delivery.Status)
	assert.Nil(t, placed.Delivery.DeliveryPersonID)
	assert.Equal(t, placed.Order.ID, placed.Delivery.OrderID)
	assert.Equal(t, models.DeliveryDetails{FromAddress: "A1", ToAddress: "A2", Contact: "555-0100"}, placed.Order.DeliveryDetails)
	assert.Equal(t, f.vendor.UserID, placed.Order.BuyerID)
	assert.Equal(t, f.seller.UserID, placed.Order.SellerID)

	sold, err := f.store.Items().FindByID(f.ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemSold, sold.Status)

	untouched, err := f.store.Items().FindByID(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemAvailable, untouched.Status)

	orders, deliveries := f.counts()
	assert.Equal(t, 1, orders)
	assert.Equal(t, 1, deliveries)
	assert.Equal(t, []string{placed.Order.ID.Hex()}, fired)
}

func TestPlaceOrder_OnlyVendors(t *testing.T) {
	f := newFixture(t)
	it := f.item("Copper wire", 10)

	for _, p := range []policies.Principal{f.seller, f.driver1, f.admin, {}} {
		_, err := f.orders.PlaceOrder(f.ctx, p, PlaceOrderInput{ItemID: it.ID, Contact: "x"})
		assert.ErrorIs(t, err, ErrForbidden, "role %q", p.Role)
	}

	orders, deliveries := f.counts()
	assert.Zero(t, orders)
	assert.Zero(t, deliveries)
	still, err := f.store.Items().FindByID(f.ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemAvailable, still.Status)
}

func TestPlaceOrder_ItemUnavailable(t *testing.T) {
	f := newFixture(t)
	it := f.item("Copper wire", 10)
	f.place(it)

	_, err := f.orders.PlaceOrder(f.ctx, f.vendor, PlaceOrderInput{ItemID: it.ID})
	assert.ErrorIs(t, err, ErrItemUnavailable)

	_, err = f.orders.PlaceOrder(f.ctx, f.vendor, PlaceOrderInput{ItemID: primitive.NewObjectID()})
	assert.ErrorIs(t, err, ErrItemUnavailable)

	orders, deliveries := f.counts()
	assert.Equal(t, 1, orders)
	assert.Equal(t, 1, deliveries)
}

func TestPlaceOrder_AddressMissing(t *testing.T) {
	f := newFixture(t)
	it := f.item("Copper wire", 10)
	homeless := f.user("No Address", "na@example.com", models.RoleVendor, "")

	_, err := f.orders.PlaceOrder(f.ctx, homeless, PlaceOrderInput{ItemID: it.ID})
	assert.ErrorIs(t, err, ErrAddressMissing)
	assert.Equal(t, KindValidation, KindOf(err))

	orders, _ := f.counts()
	assert.Zero(t, orders)
}

func TestPlaceOrder_MissingPartyIsAddressMissing(t *testing.T) {
	f := newFixture(t)
	it := f.item("Copper wire", 10)
	ghost := policies.Principal{UserID: primitive.NewObjectID(), Role: models.RoleVendor}

	_, err := f.orders.PlaceOrder(f.ctx, ghost, PlaceOrderInput{ItemID: it.ID})
	assert.ErrorIs(t, err, ErrAddressMissing)
	assert.Equal(t, KindValidation, KindOf(err))

	orphan := models.Item{
		Name:     "Orphaned tin",
		Category: models.CategoryMetal,
		Status:   models.ItemAvailable,
		SellerID: primitive.NewObjectID(),
	}
	require.NoError(t, f.store.Items().Create(f.ctx, &orphan))
	_, err = f.orders.PlaceOrder(f.ctx, f.vendor, PlaceOrderInput{ItemID: orphan.ID})
	assert.ErrorIs(t, err, ErrAddressMissing)

	orders, deliveries := f.counts()
	assert.Zero(t, orders)
	assert.Zero(t, deliveries)
}

func TestPlaceOrder_PartialWriteWhenDeliveryCreateFails(t *testing.T) {
	f := newFixture(t)
	it := f.item("Copper wire", 10)
	f.store.failDeliveryCreate = true

	_, err := f.orders.PlaceOrder(f.ctx, f.vendor, PlaceOrderInput{ItemID: it.ID, Contact: "x"})
	require.Error(t, err)

	var partial *PartialWriteError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, "place_order", partial.Operation)
	assert.Equal(t, []string{"order", "item"}, partial.Committed)
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, errInjected)

	orders, deliveries := f.counts()
	assert.Equal(t, 1, orders)
	assert.Zero(t, deliveries)
	sold, err := f.store.Items().FindByID(f.ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemSold, sold.Status)
}

func TestPlaceOrder_PartialWriteWhenMarkSoldFails(t *testing.T) {
	f := newFixture(t)
	it := f.item("Copper wire", 10)
	f.store.failMarkSold = true

	_, err := f.orders.PlaceOrder(f.ctx, f.vendor, PlaceOrderInput{ItemID: it.ID})

	var partial *PartialWriteError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, []string{"order"}, partial.Committed)

	orders, deliveries := f.counts()
	assert.Equal(t, 1, orders)
	assert.Zero(t, deliveries)
}

func TestPlaceOrder_TransactionalStoreReportsPlainError(t *testing.T) {
	f := newFixture(t)
	it := f.item("Copper wire", 10)
	f.store.failDeliveryCreate = true
	f.store.transactional = true

	_, err := f.orders.PlaceOrder(f.ctx, f.vendor, PlaceOrderInput{ItemID: it.ID})

	var partial *PartialWriteError
	assert.False(t, errors.As(err, &partial))
	assert.ErrorIs(t, err, ErrInternal)
}

func TestUpdateOrderStatus_AdminBypass(t *testing.T) {
	f := newFixture(t)
	placed := f.place(f.item("Copper wire", 10))

	o, err := f.orders.UpdateStatus(f.ctx, f.admin, placed.Order.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, o.Status)

	d, err := f.store.Deliveries().FindByID(f.ctx, placed.Delivery.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryUnassigned, d.Status)
}

func TestUpdateOrderStatus_Rejections(t *testing.T) {
	f := newFixture(t)
	placed := f.place(f.item("Copper wire", 10))

	_, err := f.orders.UpdateStatus(f.ctx, f.admin, placed.Order.ID, "shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.orders.UpdateStatus(f.ctx, f.vendor, placed.Order.ID, "completed")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orders.UpdateStatus(f.ctx, f.admin, primitive.NewObjectID(), "completed")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	o, err := f.store.Orders().FindByID(f.ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, o.Status)
}

func TestAssignDeliveryPerson(t *testing.T) {
	f := newFixture(t)
	placed := f.place(f.item("Copper wire", 10))

	_, err := f.orders.AssignDeliveryPerson(f.ctx, f.admin, placed.Order.ID, f.vendor.UserID)
	assert.ErrorIs(t, err, ErrInvalidDeliveryPerson)

	_, err = f.orders.AssignDeliveryPerson(f.ctx, f.admin, placed.Order.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrInvalidDeliveryPerson)

	_, err = f.orders.AssignDeliveryPerson(f.ctx, f.seller, placed.Order.ID, f.driver1.UserID)
	assert.ErrorIs(t, err, ErrForbidden)

	o, err := f.orders.AssignDeliveryPerson(f.ctx, f.admin, placed.Order.ID, f.driver1.UserID)
	require.NoError(t, err)
	require.NotNil(t, o.DeliveryPersonID)
	assert.Equal(t, f.driver1.UserID, *o.DeliveryPersonID)

	// the delivery keeps its own, separate assignee
	d, err := f.store.Deliveries().FindByID(f.ctx, placed.Delivery.ID)
	require.NoError(t, err)
	assert.Nil(t, d.DeliveryPersonID)
	assert.Equal(t, models.DeliveryUnassigned, d.Status)
}

func TestOrderViews(t *testing.T) {
	f := newFixture(t)
	placed := f.place(f.item("Copper wire", 10))
	_, err := f.orders.AssignDeliveryPerson(f.ctx, f.admin, placed.Order.ID, f.driver1.UserID)
	require.NoError(t, err)

	own, err := f.orders.ListOwn(f.ctx, f.seller)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Vera Vendor", own[0].Buyer.Name)
	assert.Equal(t, "A2", own[0].Buyer.Address)
	assert.Equal(t, "A1", own[0].Seller.Address)
	assert.Equal(t, "Copper wire", own[0].Item.Name)
	assert.Equal(t, 10.0, own[0].Item.Price)
	assert.Nil(t, own[0].DeliveryPerson)

	bought, err := f.orders.ListVendor(f.ctx, f.vendor)
	require.NoError(t, err)
	require.Len(t, bought, 1)
	assert.Nil(t, bought[0].Buyer)
	assert.Equal(t, "Sam Seller", bought[0].Seller.Name)
	assert.Equal(t, "Dev One", bought[0].DeliveryPerson.Name)

	sold, err := f.orders.ListSeller(f.ctx, f.seller)
	require.NoError(t, err)
	require.Len(t, sold, 1)
	assert.Equal(t, "vera@example.com", sold[0].Buyer.Email)
	assert.Equal(t, "d1@example.com", sold[0].DeliveryPerson.Email)
	assert.Empty(t, sold[0].DeliveryPerson.Address)

	all, err := f.orders.ListAll(f.ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.RoleVendor, all[0].Buyer.Role)
	assert.Equal(t, models.RoleDeliveryPerson, all[0].DeliveryPerson.Role)

	none, err := f.orders.ListOwn(f.ctx, f.driver2)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.orders.ListAll(f.ctx, f.vendor)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.orders.ListSeller(f.ctx, f.vendor)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.orders.ListVendor(f.ctx, f.seller)
	assert.ErrorIs(t, err, ErrForbidden)
}
