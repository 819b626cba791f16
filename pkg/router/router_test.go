package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(name string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestGroup_MiddlewareOrderAndParams(t *testing.T) {
	r := New()
	api := r.Group("/api", tag("api"))
	orders := api.Group("orders", tag("orders"))
	orders.Put("/{id}/status", "orders.status", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(chi.URLParam(req, "id")))
	}, tag("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/orders/abc/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Body.String())
	assert.Equal(t, []string{"api", "orders", "route"}, rec.Header().Values("X-Chain"))
}

func TestRouter_RoutesListing(t *testing.T) {
	r := New()
	noop := func(http.ResponseWriter, *http.Request) {}
	items := r.Group("/api/items")
	items.Get("/", "items.index", noop)
	items.Post("/", "items.store", noop)
	items.Delete("/{id}", "items.destroy", noop)
	r.Get("/health", "", noop)

	routes := r.Routes()
	require.Len(t, routes, 4)
	assert.Equal(t, Route{Method: "GET", Path: "/api/items", Name: "items.index"}, routes[0])
	assert.Equal(t, Route{Method: "POST", Path: "/api/items", Name: "items.store"}, routes[1])
	assert.Equal(t, "/api/items/{id}", routes[2].Path)
	assert.Equal(t, "/health", routes[3].Path)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/", joinPath())
	assert.Equal(t, "/", joinPath("", "/"))
	assert.Equal(t, "/a/b", joinPath("/a/", "/b/"))
}
