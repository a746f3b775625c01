package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIdentityMiddlewareRejectsMissingHeaders(t *testing.T) {
	handler := IdentityMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stock", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityMiddlewareRequiresTenantKey(t *testing.T) {
	handler := IdentityMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stock", nil)
	req.Header.Set(HeaderActorID, "user-1")
	req.Header.Set(HeaderActorRole, "manager")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityMiddlewareAttachesIdentity(t *testing.T) {
	var got shared.Identity
	handler := IdentityMiddleware(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := shared.IdentityFromContext(r.Context())
		require.True(t, ok)
		got = id
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stock", nil)
	req.Header.Set(HeaderActorID, "user-1")
	req.Header.Set(HeaderActorRole, "manager")
	req.Header.Set(HeaderTenantKey, "resto-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, shared.Identity{ActorID: "user-1", Role: "manager", TenantKey: "resto-1"}, got)
}
