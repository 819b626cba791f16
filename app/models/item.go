package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category string

const (
	CategoryPlastic Category = "plastic"
	CategoryMetal   Category = "metal"
	CategoryGlass   Category = "glass"
	CategoryPaper   Category = "paper"
	CategoryOther   Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPlastic, CategoryMetal, CategoryGlass, CategoryPaper, CategoryOther:
		return true
	}
	return false
}

// ItemStatus moves from available to sold once, when an order is placed.
type ItemStatus string

const (
	ItemAvailable ItemStatus = "available"
	ItemSold      ItemStatus = "sold"
)

func (s ItemStatus) Valid() bool {
	return s == ItemAvailable || s == ItemSold
}

// Item is a listing owned by a seller. Address is copied from the seller's
// profile when the item is created.
type Item struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Category    Category           `bson:"category" json:"category"`
	Weight      float64            `bson:"weight" json:"weight"`
	Price       float64            `bson:"price" json:"price"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Status      ItemStatus         `bson:"status" json:"status"`
	SellerID    primitive.ObjectID `bson:"sellerId" json:"sellerId"`
	Address     string             `bson:"address" json:"address"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ItemUpdate carries the fields an owner may change. Nil fields are left as is.
type ItemUpdate struct {
	Name        *string
	Category    *Category
	Weight      *float64
	Price       *float64
	Description *string
	Image       *string
}
