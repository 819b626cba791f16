package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/kabadi/app/models"
)

// Collection names.
const (
	UsersCollection      = "users"
	ItemsCollection      = "items"
	OrdersCollection     = "orders"
	DeliveriesCollection = "deliveries"
)

// MongoStore implements Store on a MongoDB database.
type MongoStore struct {
	db           *mongo.Database
	transactions bool
	now          func() time.Time
}

// NewMongoStore wraps db. When transactions is true, WithTransaction runs in a
// session transaction, which needs a replica set or sharded cluster.
func NewMongoStore(db *mongo.Database, transactions bool) *MongoStore {
	return &MongoStore{
		db:           db,
		transactions: transactions,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *MongoStore) Users() UserRepository {
	return mongoUsers{col: s.db.Collection(UsersCollection), now: s.now}
}

func (s *MongoStore) Items() ItemRepository {
	return mongoItems{col: s.db.Collection(ItemsCollection), now: s.now}
}

func (s *MongoStore) Orders() OrderRepository {
	return mongoOrders{col: s.db.Collection(OrdersCollection), now: s.now}
}

func (s *MongoStore) Deliveries() DeliveryRepository {
	return mongoDeliveries{col: s.db.Collection(DeliveriesCollection), now: s.now}
}

func (s *MongoStore) Transactional() bool { return s.transactions }

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}

	sess, err := s.db.Client().StartSession()
	if err != nil {
		return errors.Wrap(err, "start session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// wrap maps driver errors onto the package sentinels.
func wrap(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrap(ErrDuplicateKey, msg)
	default:
		return errors.Wrap(err, msg)
	}
}

var (
	byInsertion = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)
)

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor, msg string) ([]T, error) {
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, msg)
	}
	return out, nil
}

// ── users ────────────────────────────────────────────────────────────────────

type mongoUsers struct {
	col *mongo.Collection
	now func() time.Time
}

func (r mongoUsers) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := r.now()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.col.InsertOne(ctx, u)
	return wrap(err, "users: insert")
}

func (r mongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, wrap(err, "users: find by id")
	}
	return &u, nil
}

func (r mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, wrap(err, "users: find by email")
	}
	return &u, nil
}

func (r mongoUsers) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	ids = uniqueIDs(ids)
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrap(err, "users: find by ids")
	}
	users, err := decodeAll[models.User](ctx, cur, "users: decode")
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r mongoUsers) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": r.now()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Address != nil {
		set["profileDetails.address"] = *upd.Address
	}

	var u models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter).Decode(&u)
	if err != nil {
		return nil, wrap(err, "users: update profile")
	}
	return &u, nil
}

// ── items ────────────────────────────────────────────────────────────────────

type mongoItems struct {
	col *mongo.Collection
	now func() time.Time
}

func (r mongoItems) Create(ctx context.Context, it *models.Item) error {
	if it.ID.IsZero() {
		it.ID = primitive.NewObjectID()
	}
	if it.Status == "" {
		it.Status = models.ItemAvailable
	}
	now := r.now()
	it.CreatedAt, it.UpdatedAt = now, now

	_, err := r.col.InsertOne(ctx, it)
	return wrap(err, "items: insert")
}

func (r mongoItems) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	var it models.Item
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&it); err != nil {
		return nil, wrap(err, "items: find by id")
	}
	return &it, nil
}

func (r mongoItems) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Item, error) {
	ids = uniqueIDs(ids)
	out := make(map[primitive.ObjectID]models.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrap(err, "items: find by ids")
	}
	items, err := decodeAll[models.Item](ctx, cur, "items: decode")
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r mongoItems) Find(ctx context.Context, f ItemFilter) ([]models.Item, error) {
	filter := bson.M{}
	if f.SellerID != nil {
		filter["sellerId"] = *f.SellerID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	cur, err := r.col.Find(ctx, filter, byInsertion)
	if err != nil {
		return nil, wrap(err, "items: find")
	}
	return decodeAll[models.Item](ctx, cur, "items: decode")
}

func (r mongoItems) UpdateOwned(ctx context.Context, id, sellerID primitive.ObjectID, upd models.ItemUpdate) (*models.Item, error) {
	set := bson.M{"updatedAt": r.now()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Weight != nil {
		set["weight"] = *upd.Weight
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}

	var it models.Item
	filter := bson.M{"_id": id, "sellerId": sellerID}
	if err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, returnAfter).Decode(&it); err != nil {
		return nil, wrap(err, "items: update")
	}
	return &it, nil
}

func (r mongoItems) DeleteOwned(ctx context.Context, id, sellerID primitive.ObjectID) (*models.Item, error) {
	var it models.Item
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id, "sellerId": sellerID}).Decode(&it); err != nil {
		return nil, wrap(err, "items: delete")
	}
	return &it, nil
}

func (r mongoItems) MarkSold(ctx context.Context, id primitive.ObjectID) (*models.Item, error) {
	filter := bson.M{"_id": id, "status": models.ItemAvailable}
	update := bson.M{"$set": bson.M{"status": models.ItemSold, "updatedAt": r.now()}}

	var it models.Item
	if err := r.col.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&it); err != nil {
		return nil, wrap(err, "items: mark sold")
	}
	return &it, nil
}

// ── orders ───────────────────────────────────────────────────────────────────

type mongoOrders struct {
	col *mongo.Collection
	now func() time.Time
}

func (r mongoOrders) Create(ctx context.Context, o *models.Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	now := r.now()
	o.CreatedAt, o.UpdatedAt = now, now

	_, err := r.col.InsertOne(ctx, o)
	return wrap(err, "orders: insert")
}

func (r mongoOrders) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, wrap(err, "orders: find by id")
	}
	return &o, nil
}

func (r mongoOrders) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Order, error) {
	ids = uniqueIDs(ids)
	out := make(map[primitive.ObjectID]models.Order, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrap(err, "orders: find by ids")
	}
	orders, err := decodeAll[models.Order](ctx, cur, "orders: decode")
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		out[o.ID] = o
	}
	return out, nil
}

func (r mongoOrders) Find(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	filter := bson.M{}
	if f.BuyerID != nil {
		filter["buyerId"] = *f.BuyerID
	}
	if f.SellerID != nil {
		filter["sellerId"] = *f.SellerID
	}
	if f.Party != nil {
		filter["$or"] = bson.A{
			bson.M{"buyerId": *f.Party},
			bson.M{"sellerId": *f.Party},
		}
	}

	cur, err := r.col.Find(ctx, filter, byInsertion)
	if err != nil {
		return nil, wrap(err, "orders: find")
	}
	return decodeAll[models.Order](ctx, cur, "orders: decode")
}

func (r mongoOrders) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": r.now()}}

	var o models.Order
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter).Decode(&o); err != nil {
		return nil, wrap(err, "orders: update status")
	}
	return &o, nil
}

func (r mongoOrders) SetDeliveryPerson(ctx context.Context, id, personID primitive.ObjectID) (*models.Order, error) {
	update := bson.M{"$set": bson.M{"deliveryPersonId": personID, "updatedAt": r.now()}}

	var o models.Order
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter).Decode(&o); err != nil {
		return nil, wrap(err, "orders: set delivery person")
	}
	return &o, nil
}

// ── deliveries ───────────────────────────────────────────────────────────────

type mongoDeliveries struct {
	col *mongo.Collection
	now func() time.Time
}

func (r mongoDeliveries) Create(ctx context.Context, d *models.Delivery) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if d.Status == "" {
		d.Status = models.DeliveryUnassigned
	}
	now := r.now()
	d.CreatedAt, d.UpdatedAt = now, now

	_, err := r.col.InsertOne(ctx, d)
	return wrap(err, "deliveries: insert")
}

func (r mongoDeliveries) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error) {
	var d models.Delivery
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, wrap(err, "deliveries: find by id")
	}
	return &d, nil
}

func (r mongoDeliveries) Find(ctx context.Context, f DeliveryFilter) ([]models.Delivery, error) {
	filter := bson.M{}
	if f.Unassigned {
		filter["deliveryPersonId"] = nil
		filter["status"] = models.DeliveryUnassigned
	}
	if f.DeliveryPersonID != nil {
		filter["deliveryPersonId"] = *f.DeliveryPersonID
	}

	cur, err := r.col.Find(ctx, filter, byInsertion)
	if err != nil {
		return nil, wrap(err, "deliveries: find")
	}
	return decodeAll[models.Delivery](ctx, cur, "deliveries: decode")
}

// Claim is a single findOneAndUpdate; the filter is the precondition.
func (r mongoDeliveries) Claim(ctx context.Context, id, personID primitive.ObjectID) (*models.Delivery, error) {
	filter := bson.M{
		"_id":              id,
		"deliveryPersonId": nil,
		"status":           models.DeliveryUnassigned,
	}
	update := bson.M{"$set": bson.M{
		"deliveryPersonId": personID,
		"status":           models.DeliveryAccepted,
		"updatedAt":        r.now(),
	}}

	var d models.Delivery
	if err := r.col.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&d); err != nil {
		return nil, wrap(err, "deliveries: claim")
	}
	return &d, nil
}

func (r mongoDeliveries) UpdateStatus(ctx context.Context, id primitive.ObjectID, upd DeliveryStatusUpdate) (*models.Delivery, error) {
	set := bson.M{"status": upd.Status, "updatedAt": r.now()}
	if upd.PickupTime != nil {
		set["pickupTime"] = *upd.PickupTime
	}
	if upd.DeliveryTime != nil {
		set["deliveryTime"] = *upd.DeliveryTime
	}

	var d models.Delivery
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter).Decode(&d); err != nil {
		return nil, wrap(err, "deliveries: update status")
	}
	return &d, nil
}
