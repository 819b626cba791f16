package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/policies"
	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/pkg/auth"
)

func newAuth(allowAdmin bool) (*AuthService, *auth.Issuer) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return NewAuthService(repositories.NewMemoryStore(), issuer, allowAdmin), issuer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, issuer := newAuth(false)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Name:     "Sam Seller",
		Email:    "  Sam@Example.com ",
		Password: "hunter22",
		Role:     "seller",
		Address:  "A1",
	})
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", u.Email)
	assert.Equal(t, models.RoleSeller, u.Role)
	assert.Equal(t, "A1", u.Address)
	assert.False(t, u.ID.IsZero())

	res, err := svc.Login(ctx, "SAM@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "seller", res.Role)
	assert.Equal(t, u.ID.Hex(), res.UserID)
	assert.Equal(t, "A1", res.Address)

	claims, err := issuer.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.Equal(t, "seller", claims.Role)
}

func TestRegister_Rejections(t *testing.T) {
	svc, _ := newAuth(false)
	ctx := context.Background()
	base := RegisterInput{Name: "A", Email: "a@example.com", Password: "secret12", Role: "vendor"}

	_, err := svc.Register(ctx, base)
	require.NoError(t, err)

	_, err = svc.Register(ctx, base)
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Equal(t, KindConflict, KindOf(err))

	admin := base
	admin.Email, admin.Role = "root@example.com", "admin"
	_, err = svc.Register(ctx, admin)
	assert.ErrorIs(t, err, ErrRoleNotAllowed)

	bogus := base
	bogus.Email, bogus.Role = "b@example.com", "driver"
	_, err = svc.Register(ctx, bogus)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegister_AdminWhenAllowed(t *testing.T) {
	svc, _ := newAuth(true)
	u, err := svc.Register(context.Background(), RegisterInput{Name: "Root", Email: "root@example.com", Password: "secret12", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestLogin_SameErrorForUnknownUserAndBadPassword(t *testing.T) {
	svc, _ := newAuth(false)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret12", Role: "vendor"})
	require.NoError(t, err)

	_, errBad := svc.Login(ctx, "a@example.com", "wrong")
	_, errUnknown := svc.Login(ctx, "nobody@example.com", "secret12")

	assert.ErrorIs(t, errBad, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errBad.Error(), errUnknown.Error())
}

func TestProfileUpdate(t *testing.T) {
	svc, _ := newAuth(false)
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret12", Role: "vendor"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Name: "B", Email: "b@example.com", Password: "secret12", Role: "vendor"})
	require.NoError(t, err)

	p := policies.Principal{UserID: u.ID, Role: models.RoleVendor}
	addr := "New street 1"
	got, err := svc.UpdateProfile(ctx, p, ProfileInput{Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "New street 1", got.Address)
	assert.Equal(t, "A", got.Name)

	taken := "B@example.com"
	_, err = svc.UpdateProfile(ctx, p, ProfileInput{Email: &taken})
	assert.ErrorIs(t, err, ErrUserExists)

	me, err := svc.Profile(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", me.Email)

	_, err = svc.Profile(ctx, policies.Principal{UserID: primitive.NewObjectID(), Role: models.RoleVendor})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
