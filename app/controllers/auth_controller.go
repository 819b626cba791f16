package controllers

import (
	"github.com/shashiranjanraj/kabadi/app/services"
	"github.com/shashiranjanraj/kabadi/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

type addressDetails struct {
	Address string `json:"address" validate:"max=500"`
}

// registerRequest takes the address at the top level or under
// profileDetails; the top-level field wins when both are set.
type registerRequest struct {
	Name           string         `json:"name" validate:"required,max=100"`
	Email          string         `json:"email" validate:"required,email"`
	Password       string         `json:"password" validate:"required,min=6,max=72"`
	Role           string         `json:"role" validate:"required,oneof=vendor seller delivery_person admin"`
	Address        string         `json:"address" validate:"max=500"`
	ProfileDetails addressDetails `json:"profileDetails"`
}

func (r registerRequest) address() string {
	if r.Address != "" {
		return r.Address
	}
	return r.ProfileDetails.Address
}

func (c *AuthController) Register(cx *ctx.Context) {
	var req registerRequest
	if !cx.BindJSON(&req) {
		return
	}

	u, err := c.service.Register(cx.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Address:  req.address(),
	})
	if err != nil {
		fail(cx, err)
		return
	}
	cx.Created("User registered successfully", u)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *AuthController) Login(cx *ctx.Context) {
	var req loginRequest
	if !cx.BindJSON(&req) {
		return
	}

	res, err := c.service.Login(cx.Context(), req.Email, req.Password)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.SuccessMessage("Login successful", res)
}

func (c *AuthController) Profile(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}

	u, err := c.service.Profile(cx.Context(), p)
	if err != nil {
		fail(cx, err)
		return
	}
	cx.Success(u)
}

type profileRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Address        *string `json:"address" validate:"omitempty,max=500"`
	ProfileDetails *struct {
		Address *string `json:"address" validate:"omitempty,max=500"`
	} `json:"profileDetails"`
}

func (r profileRequest) address() *string {
	if r.Address == nil && r.ProfileDetails != nil {
		return r.ProfileDetails.Address
	}
	return r.Address
}

func (c *AuthController) UpdateProfile(cx *ctx.Context) {
	p, ok := principal(cx)
	if !ok {
		return
	}
	var req profileRequest
	if !cx.BindJSON(&req) {
		return
	}

	u, err := c.service.UpdateProfile(cx.Context(), p, services.ProfileInput{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.address(),
	})
	if err != nil {
		fail(cx, err)
		return
	}
	cx.SuccessMessage("Profile updated successfully", u)
}
