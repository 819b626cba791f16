package migrations

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/pkg/migration"
)

func init() {
	migration.Register("20260101000000_users_email_unique", index{
		collection: repositories.UsersCollection,
		name:       "email_unique",
		keys:       bson.D{{Key: "email", Value: 1}},
		unique:     true,
	})
	migration.Register("20260101000001_items_seller_status", index{
		collection: repositories.ItemsCollection,
		name:       "seller_status",
		keys:       bson.D{{Key: "sellerId", Value: 1}, {Key: "status", Value: 1}},
	})
	migration.Register("20260101000002_orders_buyer", index{
		collection: repositories.OrdersCollection,
		name:       "buyer",
		keys:       bson.D{{Key: "buyerId", Value: 1}},
	})
	migration.Register("20260101000003_orders_seller", index{
		collection: repositories.OrdersCollection,
		name:       "seller",
		keys:       bson.D{{Key: "sellerId", Value: 1}},
	})
	migration.Register("20260101000004_deliveries_order_unique", index{
		collection: repositories.DeliveriesCollection,
		name:       "order_unique",
		keys:       bson.D{{Key: "orderId", Value: 1}},
		unique:     true,
	})
	migration.Register("20260101000005_deliveries_status_person", index{
		collection: repositories.DeliveriesCollection,
		name:       "status_person",
		keys:       bson.D{{Key: "status", Value: 1}, {Key: "deliveryPersonId", Value: 1}},
	})
}
