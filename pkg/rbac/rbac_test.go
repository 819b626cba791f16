package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/kabadi/pkg/auth"
)

func TestHasRole(t *testing.T) {
	h := HasRole("seller", "admin")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(claims *auth.Claims) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if claims != nil {
			req = req.WithContext(auth.WithClaims(req.Context(), claims))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&auth.Claims{UserID: "u", Role: "vendor"}))
	assert.Equal(t, http.StatusOK, serve(&auth.Claims{UserID: "u", Role: "seller"}))
	assert.Equal(t, http.StatusOK, serve(&auth.Claims{UserID: "u", Role: "admin"}))
}
