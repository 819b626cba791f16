package repositories

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/kabadi/app/models"
)

func TestMemoryUsers_EmailUnique(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	require.NoError(t, users.Create(ctx, &models.User{Name: "A", Email: "a@example.com", Role: models.RoleSeller}))
	err := users.Create(ctx, &models.User{Name: "B", Email: "A@example.com", Role: models.RoleVendor})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	u, err := users.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "A", u.Name)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestMemoryUsers_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	a := &models.User{Name: "A", Email: "a@example.com"}
	b := &models.User{Name: "B", Email: "b@example.com"}
	require.NoError(t, users.Create(ctx, a))
	require.NoError(t, users.Create(ctx, b))

	addr := "12 Lane"
	u, err := users.UpdateProfile(ctx, a.ID, ProfileUpdate{Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "12 Lane", u.Address())
	assert.Equal(t, "A", u.Name)

	taken := "b@example.com"
	_, err = users.UpdateProfile(ctx, a.ID, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, err = users.UpdateProfile(ctx, primitive.NewObjectID(), ProfileUpdate{Address: &addr})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUsers_FindByIDsSkipsMissing(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	a := &models.User{Email: "a@example.com"}
	require.NoError(t, users.Create(ctx, a))

	got, err := users.FindByIDs(ctx, []primitive.ObjectID{a.ID, a.ID, primitive.NewObjectID(), primitive.NilObjectID})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, a.ID)
}

func TestMemoryItems_OwnerScopedWrites(t *testing.T) {
	ctx := context.Background()
	items := NewMemoryStore().Items()

	owner, other := primitive.NewObjectID(), primitive.NewObjectID()
	it := &models.Item{Name: "bottles", Category: models.CategoryPlastic, SellerID: owner}
	require.NoError(t, items.Create(ctx, it))
	assert.Equal(t, models.ItemAvailable, it.Status)

	name := "cans"
	_, err := items.UpdateOwned(ctx, it.ID, other, models.ItemUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = items.DeleteOwned(ctx, it.ID, other)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := items.UpdateOwned(ctx, it.ID, owner, models.ItemUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "cans", updated.Name)
	assert.Equal(t, models.CategoryPlastic, updated.Category)

	deleted, err := items.DeleteOwned(ctx, it.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, it.ID, deleted.ID)

	_, err = items.FindByID(ctx, it.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryItems_MarkSoldOnce(t *testing.T) {
	ctx := context.Background()
	items := NewMemoryStore().Items()

	it := &models.Item{Name: "jars", SellerID: primitive.NewObjectID()}
	require.NoError(t, items.Create(ctx, it))

	sold, err := items.MarkSold(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemSold, sold.Status)

	_, err = items.MarkSold(ctx, it.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryItems_FindFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seller := primitive.NewObjectID()

	a := &models.Item{Name: "a", SellerID: seller}
	b := &models.Item{Name: "b", SellerID: seller}
	c := &models.Item{Name: "c", SellerID: primitive.NewObjectID()}
	for _, it := range []*models.Item{a, b, c} {
		require.NoError(t, s.Items().Create(ctx, it))
	}
	_, err := s.Items().MarkSold(ctx, b.ID)
	require.NoError(t, err)

	available, err := s.Items().Find(ctx, ItemFilter{Status: models.ItemAvailable})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, itemNames(available))

	own, err := s.Items().Find(ctx, ItemFilter{SellerID: &seller})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, itemNames(own))
}

func itemNames(items []models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestMemoryOrders_FindByParty(t *testing.T) {
	ctx := context.Background()
	orders := NewMemoryStore().Orders()

	u1, u2, u3 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	require.NoError(t, orders.Create(ctx, &models.Order{BuyerID: u1, SellerID: u2}))
	require.NoError(t, orders.Create(ctx, &models.Order{BuyerID: u2, SellerID: u3}))
	require.NoError(t, orders.Create(ctx, &models.Order{BuyerID: u3, SellerID: u1}))

	got, err := orders.Find(ctx, OrderFilter{Party: &u1})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = orders.Find(ctx, OrderFilter{BuyerID: &u2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.OrderPending, got[0].Status)

	all, err := orders.Find(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryDeliveries_OnePerOrder(t *testing.T) {
	ctx := context.Background()
	deliveries := NewMemoryStore().Deliveries()

	orderID := primitive.NewObjectID()
	require.NoError(t, deliveries.Create(ctx, &models.Delivery{OrderID: orderID}))
	err := deliveries.Create(ctx, &models.Delivery{OrderID: orderID})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMemoryDeliveries_ClaimIsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	deliveries := NewMemoryStore().Deliveries()

	d := &models.Delivery{OrderID: primitive.NewObjectID()}
	require.NoError(t, deliveries.Create(ctx, d))
	assert.Nil(t, d.DeliveryPersonID)
	assert.Equal(t, models.DeliveryUnassigned, d.Status)

	const claimants = 32
	var won, lost atomic.Int32
	var g errgroup.Group
	for i := 0; i < claimants; i++ {
		g.Go(func() error {
			_, err := deliveries.Claim(ctx, d.ID, primitive.NewObjectID())
			switch {
			case err == nil:
				won.Add(1)
			case errors.Is(err, ErrNotFound):
				lost.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), won.Load())
	assert.Equal(t, int32(claimants-1), lost.Load())

	got, err := deliveries.FindByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryAccepted, got.Status)
	assert.NotNil(t, got.DeliveryPersonID)
}

func TestMemoryDeliveries_FindFilters(t *testing.T) {
	ctx := context.Background()
	deliveries := NewMemoryStore().Deliveries()

	driver := primitive.NewObjectID()
	open := &models.Delivery{OrderID: primitive.NewObjectID()}
	claimed := &models.Delivery{OrderID: primitive.NewObjectID()}
	require.NoError(t, deliveries.Create(ctx, open))
	require.NoError(t, deliveries.Create(ctx, claimed))
	_, err := deliveries.Claim(ctx, claimed.ID, driver)
	require.NoError(t, err)

	unassigned, err := deliveries.Find(ctx, DeliveryFilter{Unassigned: true})
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.Equal(t, open.ID, unassigned[0].ID)

	mine, err := deliveries.Find(ctx, DeliveryFilter{DeliveryPersonID: &driver})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, claimed.ID, mine[0].ID)
}

func TestMemoryDeliveries_UpdateStatusKeepsAssignee(t *testing.T) {
	ctx := context.Background()
	deliveries := NewMemoryStore().Deliveries()

	driver := primitive.NewObjectID()
	d := &models.Delivery{OrderID: primitive.NewObjectID()}
	require.NoError(t, deliveries.Create(ctx, d))
	_, err := deliveries.Claim(ctx, d.ID, driver)
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err := deliveries.UpdateStatus(ctx, d.ID, DeliveryStatusUpdate{Status: models.DeliveryPickedUp, PickupTime: &at})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryPickedUp, got.Status)
	require.NotNil(t, got.PickupTime)
	assert.True(t, at.Equal(*got.PickupTime))
	assert.Nil(t, got.DeliveryTime)
	require.NotNil(t, got.DeliveryPersonID)
	assert.Equal(t, driver, *got.DeliveryPersonID)

	_, err = deliveries.UpdateStatus(ctx, primitive.NewObjectID(), DeliveryStatusUpdate{Status: models.DeliveryDelivered})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_WithTransactionRunsInline(t *testing.T) {
	s := NewMemoryStore()
	assert.False(t, s.Transactional())

	called := false
	err := s.WithTransaction(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
