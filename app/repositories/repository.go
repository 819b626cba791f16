// Package repositories persists users, items, orders and deliveries.
//
// Two backends implement Store: MongoStore for production and MemoryStore
// for DB_DRIVER=memory and tests. Both make the delivery claim and the item
// sold-flip single conditional updates.
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/pkg/collection"
)

var (
	// ErrNotFound is returned when no record matches, including when a
	// conditional update's filter did not match.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a unique index rejects a write.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ProfileUpdate holds the user fields a profile update may change.
type ProfileUpdate struct {
	Name    *string
	Email   *string
	Address *string
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error)
}

// ItemFilter narrows Find. Zero fields match everything.
type ItemFilter struct {
	SellerID *primitive.ObjectID
	Status   models.ItemStatus
}

type ItemRepository interface {
	Create(ctx context.Context, it *models.Item) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Item, error)
	Find(ctx context.Context, f ItemFilter) ([]models.Item, error)
	// UpdateOwned applies upd only when the item belongs to sellerID.
	UpdateOwned(ctx context.Context, id, sellerID primitive.ObjectID, upd models.ItemUpdate) (*models.Item, error)
	// DeleteOwned removes the item only when it belongs to sellerID and
	// returns the removed record.
	DeleteOwned(ctx context.Context, id, sellerID primitive.ObjectID) (*models.Item, error)
	// MarkSold flips an available item to sold. ErrNotFound when the item is
	// missing or no longer available.
	MarkSold(ctx context.Context, id primitive.ObjectID) (*models.Item, error)
}

// OrderFilter narrows Find. Party matches orders where the user is either
// buyer or seller.
type OrderFilter struct {
	BuyerID  *primitive.ObjectID
	SellerID *primitive.ObjectID
	Party    *primitive.ObjectID
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Order, error)
	Find(ctx context.Context, f OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	SetDeliveryPerson(ctx context.Context, id, personID primitive.ObjectID) (*models.Order, error)
}

// DeliveryFilter narrows Find. Unassigned selects claimable deliveries.
type DeliveryFilter struct {
	Unassigned       bool
	DeliveryPersonID *primitive.ObjectID
}

// DeliveryStatusUpdate is written as one update. Nil times are left untouched.
type DeliveryStatusUpdate struct {
	Status       models.DeliveryStatus
	PickupTime   *time.Time
	DeliveryTime *time.Time
}

type DeliveryRepository interface {
	Create(ctx context.Context, d *models.Delivery) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error)
	Find(ctx context.Context, f DeliveryFilter) ([]models.Delivery, error)
	// Claim assigns personID to an unassigned delivery in one conditional
	// update. ErrNotFound when the delivery is missing or already claimed.
	Claim(ctx context.Context, id, personID primitive.ObjectID) (*models.Delivery, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, upd DeliveryStatusUpdate) (*models.Delivery, error)
}

// Store groups the repositories behind one handle.
type Store interface {
	Users() UserRepository
	Items() ItemRepository
	Orders() OrderRepository
	Deliveries() DeliveryRepository

	// WithTransaction runs fn with a context bound to a transaction when the
	// store supports one. Otherwise fn runs directly and each write commits
	// on its own. fn may be invoked more than once on transient errors.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Transactional reports whether WithTransaction is atomic.
	Transactional() bool

	Ping(ctx context.Context) error
}

// uniqueIDs drops zero and repeated ids.
func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	return collection.Unique(collection.Filter(ids, func(id primitive.ObjectID) bool { return !id.IsZero() }))
}
