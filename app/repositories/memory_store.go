package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
)

// MemoryStore keeps every collection in process memory behind one mutex.
// Each method is a single critical section, so conditional updates are atomic.
// WithTransaction is not atomic across calls.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	users      table[models.User]
	items      table[models.Item]
	orders     table[models.Order]
	deliveries table[models.Delivery]
}

// table stores records by id and remembers insertion order for listings.
type table[T any] struct {
	rows  map[primitive.ObjectID]T
	order []primitive.ObjectID
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[primitive.ObjectID]T)}
}

func (t *table[T]) insert(id primitive.ObjectID, v T) {
	t.rows[id] = v
	t.order = append(t.order, id)
}

func (t *table[T]) remove(id primitive.ObjectID) {
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

func (t *table[T]) each(fn func(T)) {
	for _, id := range t.order {
		fn(t.rows[id])
	}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:        func() time.Time { return time.Now().UTC() },
		users:      newTable[models.User](),
		items:      newTable[models.Item](),
		orders:     newTable[models.Order](),
		deliveries: newTable[models.Delivery](),
	}
}

func (s *MemoryStore) Users() UserRepository          { return memUsers{s} }
func (s *MemoryStore) Items() ItemRepository          { return memItems{s} }
func (s *MemoryStore) Orders() OrderRepository        { return memOrders{s} }
func (s *MemoryStore) Deliveries() DeliveryRepository { return memDeliveries{s} }

func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *MemoryStore) Transactional() bool { return false }

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) stamp(created, updated *time.Time) {
	now := s.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	*updated = now
}

// ── users ────────────────────────────────────────────────────────────────────

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(u.Email, primitive.NilObjectID) {
		return ErrDuplicateKey
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.s.stamp(&u.CreatedAt, &u.UpdatedAt)
	r.s.users.insert(u.ID, *u)
	return nil
}

func (r memUsers) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range r.s.users.rows {
		if id != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r memUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users.rows {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[primitive.ObjectID]models.User, len(ids))
	for _, id := range uniqueIDs(ids) {
		if u, ok := r.s.users.rows[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r memUsers) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Email != nil && r.emailTaken(*upd.Email, id) {
		return nil, ErrDuplicateKey
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Address != nil {
		u.ProfileDetails.Address = *upd.Address
	}
	r.s.stamp(nil, &u.UpdatedAt)
	r.s.users.rows[id] = u
	return &u, nil
}

// ── items ────────────────────────────────────────────────────────────────────

type memItems struct{ s *MemoryStore }

func (r memItems) Create(ctx context.Context, it *models.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if it.ID.IsZero() {
		it.ID = primitive.NewObjectID()
	}
	if it.Status == "" {
		it.Status = models.ItemAvailable
	}
	r.s.stamp(&it.CreatedAt, &it.UpdatedAt)
	r.s.items.insert(it.ID, *it)
	return nil
}

func (r memItems) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	it, ok := r.s.items.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &it, nil
}

func (r memItems) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[primitive.ObjectID]models.Item, len(ids))
	for _, id := range uniqueIDs(ids) {
		if it, ok := r.s.items.rows[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (r memItems) Find(ctx context.Context, f ItemFilter) ([]models.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Item{}
	r.s.items.each(func(it models.Item) {
		if f.SellerID != nil && it.SellerID != *f.SellerID {
			return
		}
		if f.Status != "" && it.Status != f.Status {
			return
		}
		out = append(out, it)
	})
	return out, nil
}

func (r memItems) UpdateOwned(ctx context.Context, id, sellerID primitive.ObjectID, upd models.ItemUpdate) (*models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it, ok := r.s.items.rows[id]
	if !ok || it.SellerID != sellerID {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		it.Name = *upd.Name
	}
	if upd.Category != nil {
		it.Category = *upd.Category
	}
	if upd.Weight != nil {
		it.Weight = *upd.Weight
	}
	if upd.Price != nil {
		it.Price = *upd.Price
	}
	if upd.Description != nil {
		it.Description = *upd.Description
	}
	if upd.Image != nil {
		it.Image = *upd.Image
	}
	r.s.stamp(nil, &it.UpdatedAt)
	r.s.items.rows[id] = it
	return &it, nil
}

func (r memItems) DeleteOwned(ctx context.Context, id, sellerID primitive.ObjectID) (*models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it, ok := r.s.items.rows[id]
	if !ok || it.SellerID != sellerID {
		return nil, ErrNotFound
	}
	r.s.items.remove(id)
	return &it, nil
}

func (r memItems) MarkSold(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it, ok := r.s.items.rows[id]
	if !ok || it.Status != models.ItemAvailable {
		return nil, ErrNotFound
	}
	it.Status = models.ItemSold
	r.s.stamp(nil, &it.UpdatedAt)
	r.s.items.rows[id] = it
	return &it, nil
}

// ── orders ───────────────────────────────────────────────────────────────────

type memOrders struct{ s *MemoryStore }

func (r memOrders) Create(ctx context.Context, o *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	r.s.stamp(&o.CreatedAt, &o.UpdatedAt)
	r.s.orders.insert(o.ID, *o)
	return nil
}

func (r memOrders) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (r memOrders) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[primitive.ObjectID]models.Order, len(ids))
	for _, id := range uniqueIDs(ids) {
		if o, ok := r.s.orders.rows[id]; ok {
			out[id] = o
		}
	}
	return out, nil
}

func (r memOrders) Find(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Order{}
	r.s.orders.each(func(o models.Order) {
		if f.BuyerID != nil && o.BuyerID != *f.BuyerID {
			return
		}
		if f.SellerID != nil && o.SellerID != *f.SellerID {
			return
		}
		if f.Party != nil && o.BuyerID != *f.Party && o.SellerID != *f.Party {
			return
		}
		out = append(out, o)
	})
	return out, nil
}

func (r memOrders) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	r.s.stamp(nil, &o.UpdatedAt)
	r.s.orders.rows[id] = o
	return &o, nil
}

func (r memOrders) SetDeliveryPerson(ctx context.Context, id, personID primitive.ObjectID) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	pid := personID
	o.DeliveryPersonID = &pid
	r.s.stamp(nil, &o.UpdatedAt)
	r.s.orders.rows[id] = o
	return &o, nil
}

// ── deliveries ───────────────────────────────────────────────────────────────

type memDeliveries struct{ s *MemoryStore }

func (r memDeliveries) Create(ctx context.Context, d *models.Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.deliveries.rows {
		if existing.OrderID == d.OrderID {
			return ErrDuplicateKey
		}
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.Status == "" {
		d.Status = models.DeliveryUnassigned
	}
	r.s.stamp(&d.CreatedAt, &d.UpdatedAt)
	r.s.deliveries.insert(d.ID, *d)
	return nil
}

func (r memDeliveries) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.deliveries.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r memDeliveries) Find(ctx context.Context, f DeliveryFilter) ([]models.Delivery, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Delivery{}
	r.s.deliveries.each(func(d models.Delivery) {
		if f.Unassigned && (d.DeliveryPersonID != nil || d.Status != models.DeliveryUnassigned) {
			return
		}
		if f.DeliveryPersonID != nil && (d.DeliveryPersonID == nil || *d.DeliveryPersonID != *f.DeliveryPersonID) {
			return
		}
		out = append(out, d)
	})
	return out, nil
}

func (r memDeliveries) Claim(ctx context.Context, id, personID primitive.ObjectID) (*models.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.deliveries.rows[id]
	if !ok || d.DeliveryPersonID != nil || d.Status != models.DeliveryUnassigned {
		return nil, ErrNotFound
	}
	pid := personID
	d.DeliveryPersonID = &pid
	d.Status = models.DeliveryAccepted
	r.s.stamp(nil, &d.UpdatedAt)
	r.s.deliveries.rows[id] = d
	return &d, nil
}

func (r memDeliveries) UpdateStatus(ctx context.Context, id primitive.ObjectID, upd DeliveryStatusUpdate) (*models.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.deliveries.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Status = upd.Status
	if upd.PickupTime != nil {
		t := *upd.PickupTime
		d.PickupTime = &t
	}
	if upd.DeliveryTime != nil {
		t := *upd.DeliveryTime
		d.DeliveryTime = &t
	}
	r.s.stamp(nil, &d.UpdatedAt)
	r.s.deliveries.rows[id] = d
	return &d, nil
}
