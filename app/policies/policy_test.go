package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
)

func TestAllows_Matrix(t *testing.T) {
	want := map[Action][]models.Role{
		ActionManageItems:          {models.RoleSeller},
		ActionPlaceOrder:           {models.RoleVendor},
		ActionListOwnOrders:        {models.RoleVendor, models.RoleSeller, models.RoleDeliveryPerson, models.RoleAdmin},
		ActionListVendorOrders:     {models.RoleVendor},
		ActionListSellerOrders:     {models.RoleSeller},
		ActionListAllOrders:        {models.RoleAdmin},
		ActionSetOrderStatus:       {models.RoleAdmin},
		ActionAssignDeliveryPerson: {models.RoleAdmin},
		ActionListDeliveries:       {models.RoleDeliveryPerson},
		ActionClaimDelivery:        {models.RoleDeliveryPerson},
		ActionUpdateDeliveryStatus: {models.RoleDeliveryPerson},
	}

	for action, roles := range want {
		t.Run(action.String(), func(t *testing.T) {
			assert.Equal(t, roles, RolesFor(action))
		})
	}
}

func TestAllows_UnknownRoleDenied(t *testing.T) {
	for action := range actionNames {
		assert.False(t, Allows(models.Role("user"), action), action.String())
		assert.False(t, Allows("", action), action.String())
	}
}

func TestPrincipal_CanRequiresIdentity(t *testing.T) {
	anon := Principal{Role: models.RoleVendor}
	assert.False(t, anon.Can(ActionPlaceOrder))

	vendor := Principal{UserID: primitive.NewObjectID(), Role: models.RoleVendor}
	assert.True(t, vendor.Can(ActionPlaceOrder))
	assert.False(t, vendor.Can(ActionClaimDelivery))
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "claim_delivery", ActionClaimDelivery.String())
	assert.Equal(t, "unknown", Action(99).String())
}
