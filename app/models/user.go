package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of account roles. It is fixed at registration.
type Role string

const (
	RoleVendor         Role = "vendor"
	RoleSeller         Role = "seller"
	RoleDeliveryPerson Role = "delivery_person"
	RoleAdmin          Role = "admin"
)

// Roles lists every role in a stable order.
var Roles = []Role{RoleVendor, RoleSeller, RoleDeliveryPerson, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleVendor, RoleSeller, RoleDeliveryPerson, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a raw string to a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// ProfileDetails holds the editable profile fields.
type ProfileDetails struct {
	Address string `bson:"address" json:"address"`
}

// User is a registered account.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password" json:"-"` // bcrypt hash
	Role           Role               `bson:"role" json:"role"`
	ProfileDetails ProfileDetails     `bson:"profileDetails" json:"profileDetails"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Address is the profile address, empty when the user never set one.
func (u User) Address() string { return u.ProfileDetails.Address }
