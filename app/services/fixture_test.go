package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/policies"
	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/pkg/event"
	"github.com/shashiranjanraj/kabadi/pkg/storage"
)

var errInjected = errors.New("injected store failure")

// faultyStore wraps the memory store and fails selected writes.
type faultyStore struct {
	*repositories.MemoryStore

	failDeliveryCreate bool
	failMarkSold       bool
	failOrderUpdate    error
	transactional      bool
}

func (s *faultyStore) Items() repositories.ItemRepository {
	return faultyItems{ItemRepository: s.MemoryStore.Items(), s: s}
}

func (s *faultyStore) Orders() repositories.OrderRepository {
	return faultyOrders{OrderRepository: s.MemoryStore.Orders(), s: s}
}

func (s *faultyStore) Deliveries() repositories.DeliveryRepository {
	return faultyDeliveries{DeliveryRepository: s.MemoryStore.Deliveries(), s: s}
}

func (s *faultyStore) Transactional() bool { return s.transactional }

type faultyItems struct {
	repositories.ItemRepository
	s *faultyStore
}

func (r faultyItems) MarkSold(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	if r.s.failMarkSold {
		return nil, errInjected
	}
	return r.ItemRepository.MarkSold(ctx, id)
}

type faultyOrders struct {
	repositories.OrderRepository
	s *faultyStore
}

func (r faultyOrders) UpdateStatus(ctx context.Context, id primitive.ObjectID, st models.OrderStatus) (*models.Order, error) {
	if r.s.failOrderUpdate != nil {
		return nil, r.s.failOrderUpdate
	}
	return r.OrderRepository.UpdateStatus(ctx, id, st)
}

type faultyDeliveries struct {
	repositories.DeliveryRepository
	s *faultyStore
}

func (r faultyDeliveries) Create(ctx context.Context, d *models.Delivery) error {
	if r.s.failDeliveryCreate {
		return errInjected
	}
	return r.DeliveryRepository.Create(ctx, d)
}

// mapCache is an in-process cache.Cache.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	return ok && json.Unmarshal(raw, dest) == nil
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// brokenDisk fails every write.
type brokenDisk struct{ storage.Disk }

func (brokenDisk) Put(context.Context, string, io.Reader, string) error {
	return errors.New("bucket unreachable")
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *faultyStore
	bus   *event.Bus
	cache *mapCache
	disk  *storage.LocalDisk

	items      *ItemService
	orders     *OrderService
	deliveries *DeliveryService

	seller, vendor, driver1, driver2, admin policies.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: &faultyStore{MemoryStore: repositories.NewMemoryStore()},
		bus:   event.NewBus(),
		cache: newMapCache(),
		disk:  storage.NewLocalDisk(t.TempDir(), "http://localhost/storage"),
	}
	f.items = NewItemService(f.store, f.disk, f.cache, time.Minute)
	f.orders = NewOrderService(f.store, f.bus)
	f.deliveries = NewDeliveryService(f.store, f.bus, false)

	f.seller = f.user("Sam Seller", "sam@example.com", models.RoleSeller, "A1")
	f.vendor = f.user("Vera Vendor", "vera@example.com", models.RoleVendor, "A2")
	f.driver1 = f.user("Dev One", "d1@example.com", models.RoleDeliveryPerson, "D1 depot")
	f.driver2 = f.user("Dev Two", "d2@example.com", models.RoleDeliveryPerson, "D2 depot")
	f.admin = f.user("Ada Admin", "ada@example.com", models.RoleAdmin, "")
	return f
}

func (f *fixture) user(name, email string, role models.Role, address string) policies.Principal {
	f.t.Helper()
	u := models.User{
		Name:           name,
		Email:          email,
		Role:           role,
		ProfileDetails: models.ProfileDetails{Address: address},
	}
	require.NoError(f.t, f.store.Users().Create(f.ctx, &u))
	return policies.Principal{UserID: u.ID, Role: role}
}

func (f *fixture) item(name string, price float64) models.Item {
	f.t.Helper()
	it, err := f.items.Create(f.ctx, f.seller, ItemInput{
		Name:     name,
		Category: models.CategoryMetal,
		Weight:   2.5,
		Price:    price,
	}, nil)
	require.NoError(f.t, err)
	return *it
}

func (f *fixture) place(it models.Item) *Placement {
	f.t.Helper()
	placed, err := f.orders.PlaceOrder(f.ctx, f.vendor, PlaceOrderInput{ItemID: it.ID, Contact: "555-0100"})
	require.NoError(f.t, err)
	return placed
}

func (f *fixture) counts() (orders, deliveries int) {
	f.t.Helper()
	os, err := f.store.Orders().Find(f.ctx, repositories.OrderFilter{})
	require.NoError(f.t, err)
	ds, err := f.store.Deliveries().Find(f.ctx, repositories.DeliveryFilter{})
	require.NoError(f.t, err)
	return len(os), len(ds)
}
