// Package views shapes joined records for API responses.
package views

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
)

// UserRef is a user joined into another record. Only the projected fields
// are set.
type UserRef struct {
	ID      primitive.ObjectID `json:"id"`
	Name    string             `json:"name,omitempty"`
	Email   string             `json:"email,omitempty"`
	Role    models.Role        `json:"role,omitempty"`
	Address string             `json:"address,omitempty"`
}

// Contact projects name and email.
func Contact(u models.User) *UserRef {
	return &UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Party projects name, email and address.
func Party(u models.User) *UserRef {
	return &UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Address: u.Address()}
}

// Profile is the full public shape of a user.
func Profile(u models.User) *UserRef {
	return &UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Address: u.Address()}
}

// ItemRef is an item joined into an order.
type ItemRef struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Price float64            `json:"price"`
}

func ItemSummary(it models.Item) *ItemRef {
	return &ItemRef{ID: it.ID, Name: it.Name, Price: it.Price}
}

// Item is a listing with its seller joined.
type Item struct {
	models.Item
	Seller *UserRef `json:"seller,omitempty"`
}

// ItemStatus is the seller's status overview projection.
type ItemStatus struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Image  string             `json:"image,omitempty"`
	Status models.ItemStatus  `json:"status"`
}

func ItemStatusOf(it models.Item) ItemStatus {
	return ItemStatus{ID: it.ID, Name: it.Name, Image: it.Image, Status: it.Status}
}

// Order is an order with its parties and item joined.
type Order struct {
	ID               primitive.ObjectID     `json:"id"`
	BuyerID          primitive.ObjectID     `json:"buyerId"`
	SellerID         primitive.ObjectID     `json:"sellerId"`
	ItemID           primitive.ObjectID     `json:"itemId"`
	DeliveryPersonID *primitive.ObjectID    `json:"deliveryPersonId"`
	Status           models.OrderStatus     `json:"status"`
	DeliveryDetails  models.DeliveryDetails `json:"deliveryDetails"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`

	Buyer          *UserRef `json:"buyer,omitempty"`
	Seller         *UserRef `json:"seller,omitempty"`
	Item           *ItemRef `json:"item,omitempty"`
	DeliveryPerson *UserRef `json:"deliveryPerson,omitempty"`
}

func OrderOf(o models.Order) Order {
	return Order{
		ID:               o.ID,
		BuyerID:          o.BuyerID,
		SellerID:         o.SellerID,
		ItemID:           o.ItemID,
		DeliveryPersonID: o.DeliveryPersonID,
		Status:           o.Status,
		DeliveryDetails:  o.DeliveryDetails,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// Delivery is a delivery with its order (and the order's item) joined.
type Delivery struct {
	ID               primitive.ObjectID    `json:"id"`
	OrderID          primitive.ObjectID    `json:"orderId"`
	DeliveryPersonID *primitive.ObjectID   `json:"deliveryPersonId"`
	Status           models.DeliveryStatus `json:"status"`
	PickupTime       *time.Time            `json:"pickupTime,omitempty"`
	DeliveryTime     *time.Time            `json:"deliveryTime,omitempty"`
	Charges          float64               `json:"charges"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`

	Order *Order `json:"order,omitempty"`
}

func DeliveryOf(d models.Delivery) Delivery {
	return Delivery{
		ID:               d.ID,
		OrderID:          d.OrderID,
		DeliveryPersonID: d.DeliveryPersonID,
		Status:           d.Status,
		PickupTime:       d.PickupTime,
		DeliveryTime:     d.DeliveryTime,
		Charges:          d.Charges,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
