// Package migrations holds the MongoDB index migrations. Each file registers
// itself from init(); cmd/kabadi imports the package for that side effect.
package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// index creates one named index on a collection and drops it on rollback.
type index struct {
	collection string
	name       string
	keys       bson.D
	unique     bool
}

func (ix index) Up(ctx context.Context, db *mongo.Database) error {
	opts := options.Index().SetName(ix.name)
	if ix.unique {
		opts.SetUnique(true)
	}
	_, err := db.Collection(ix.collection).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: ix.keys, Options: opts})
	return err
}

func (ix index) Down(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ix.collection).Indexes().DropOne(ctx, ix.name)
	return err
}
