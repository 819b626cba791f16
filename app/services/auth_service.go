package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/policies"
	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/app/views"
	"github.com/shashiranjanraj/kabadi/pkg/auth"
	"github.com/shashiranjanraj/kabadi/pkg/logger"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Address  string
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	UserID  string `json:"userId"`
	Address string `json:"address"`
}

type AuthService struct {
	store      repositories.Store
	issuer     *auth.Issuer
	allowAdmin bool
}

// NewAuthService builds the account service. allowAdmin permits
// self-registration with the admin role.
func NewAuthService(store repositories.Store, issuer *auth.Issuer, allowAdmin bool) *AuthService {
	return &AuthService{store: store, issuer: issuer, allowAdmin: allowAdmin}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns its public profile.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*views.UserRef, error) {
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return nil, ErrInvalidInput.Withf("unknown role %q", in.Role)
	}
	if role == models.RoleAdmin && !s.allowAdmin {
		return nil, ErrRoleNotAllowed
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, ErrInternal.With(errors.Wrap(err, "hash password"))
	}

	u := models.User{
		Name:           strings.TrimSpace(in.Name),
		Email:          normalizeEmail(in.Email),
		Password:       hash,
		Role:           role,
		ProfileDetails: models.ProfileDetails{Address: strings.TrimSpace(in.Address)},
	}
	if err := s.store.Users().Create(ctx, &u); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUserExists.Withf("email %s is already registered", u.Email)
		}
		return nil, upstream(err, "create user")
	}

	logger.WithCtx(ctx).Info("user registered", "user_id", u.ID.Hex(), "role", u.Role)
	return views.Profile(u), nil
}

// Login checks the credentials and issues a bearer token. An unknown email and
// a wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.store.Users().FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, upstream(err, "find user")
	}
	if !auth.CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.GenerateToken(u.ID.Hex(), string(u.Role))
	if err != nil {
		return nil, ErrInternal.With(errors.Wrap(err, "sign token"))
	}
	return &LoginResult{
		Token:   token,
		Role:    string(u.Role),
		UserID:  u.ID.Hex(),
		Address: u.Address(),
	}, nil
}

// Profile returns the caller's own profile.
func (s *AuthService) Profile(ctx context.Context, p policies.Principal) (*views.UserRef, error) {
	u, err := s.store.Users().FindByID(ctx, p.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, upstream(err, "find user")
	}
	return views.Profile(*u), nil
}

// ProfileInput holds the fields a user may change on their profile. Nil fields
// are left as they are.
type ProfileInput struct {
	Name    *string
	Email   *string
	Address *string
}

// UpdateProfile changes the caller's name, email or address. Addresses already
// copied into items and orders keep their old value.
func (s *AuthService) UpdateProfile(ctx context.Context, p policies.Principal, in ProfileInput) (*views.UserRef, error) {
	upd := repositories.ProfileUpdate{Name: in.Name, Address: in.Address}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		upd.Email = &email
	}

	u, err := s.store.Users().UpdateProfile(ctx, p.UserID, upd)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, repositories.ErrDuplicateKey):
		return nil, ErrUserExists.With(err)
	case err != nil:
		return nil, upstream(err, "update profile")
	}
	return views.Profile(*u), nil
}
