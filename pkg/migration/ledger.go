package migration

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// LedgerCollection holds one document per applied migration.
const LedgerCollection = "schema_migrations"

type MongoLedger struct {
	col *mongo.Collection
}

func NewMongoLedger(db *mongo.Database) *MongoLedger {
	return &MongoLedger{col: db.Collection(LedgerCollection)}
}

func (l *MongoLedger) Applied(ctx context.Context) ([]Record, error) {
	cur, err := l.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *MongoLedger) Add(ctx context.Context, rec Record) error {
	_, err := l.col.InsertOne(ctx, rec)
	return err
}

func (l *MongoLedger) Remove(ctx context.Context, name string) error {
	_, err := l.col.DeleteOne(ctx, bson.M{"_id": name})
	return err
}
