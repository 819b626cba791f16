// Package ctx provides a request context for handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context with helpers for params, binding and responses:
//
//	func (c *OrderController) Show(cx *ctx.Context) {
//	    id := cx.Param("id")
//	    cx.Success(order)
//	}
//
//	router.Get("/orders/{id}", "orders.show", ctx.Wrap(c.Show))
package ctx

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/kabadi/pkg/auth"
	"github.com/shashiranjanraj/kabadi/pkg/bind"
	"github.com/shashiranjanraj/kabadi/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Claims returns the verified token claims, when the route is authenticated.
func (c *Context) Claims() (*auth.Claims, bool) {
	return auth.ClaimsFromCtx(c.R.Context())
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes and validates the JSON body into dest. On failure it has
// already written a 400 or 422 and returns false.
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.W, c.R, dest)
	if err != nil {
		c.ErrorWithCause(http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	if len(errs) > 0 {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ─── Responses ────────────────────────────────────────────────────────────────

// Respond writes a prepared envelope with the given status code.
func (c *Context) Respond(code int, body response.Envelope) {
	c.status = response.Write(c.W, code, body)
}

// Success sends a 200 envelope with data.
func (c *Context) Success(data any) {
	c.Respond(http.StatusOK, response.Envelope{Data: data})
}

// SuccessMessage sends a 200 envelope with a message and data.
func (c *Context) SuccessMessage(message string, data any) {
	c.Respond(http.StatusOK, response.Envelope{Message: message, Data: data})
}

// Created sends a 201 envelope.
func (c *Context) Created(message string, data any) {
	c.Respond(http.StatusCreated, response.Envelope{Message: message, Data: data})
}

// Error sends an error envelope.
func (c *Context) Error(code int, message string) {
	c.Respond(code, response.Envelope{Message: message})
}

// ErrorWithCause sends an error envelope with the underlying cause.
func (c *Context) ErrorWithCause(code int, message, cause string) {
	c.Respond(code, response.Envelope{Message: message, Error: cause})
}

// ValidationError sends a 422 with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	c.Respond(http.StatusUnprocessableEntity, response.Envelope{
		Message: "Validation failed",
		Errors:  errs,
	})
}

// WrittenStatus returns the status code written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
