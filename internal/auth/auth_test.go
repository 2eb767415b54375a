package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tenant-chat/internal/auth"
	"tenant-chat/internal/model"
)

type fakeTenants struct {
	tenants map[uuid.UUID]model.Tenant
}

func (f *fakeTenants) GetTenant(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func TestTokenRoundTrip(t *testing.T) {
	auth.SetSecret("test-secret")

	tenantID := uuid.New().String()
	token, err := auth.GenerateToken(tenantID)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, tenantID, claims.TenantID)
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	auth.SetSecret("test-secret")

	token, err := auth.GenerateToken(uuid.New().String())
	require.NoError(t, err)

	auth.SetSecret("different-secret")
	_, err = auth.ValidateToken(token)
	require.Error(t, err)
}

func newProtected(t *testing.T, tenants *fakeTenants) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.GetTenantID(r)
		require.True(t, ok)
		w.Write([]byte(id.String()))
	})
	return auth.RequireTenant(tenants)(next)
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	auth.SetSecret("test-secret")
	handler := newProtected(t, &fakeTenants{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/channels", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsUnknownTenant(t *testing.T) {
	auth.SetSecret("test-secret")
	handler := newProtected(t, &fakeTenants{tenants: map[uuid.UUID]model.Tenant{}})

	token, err := auth.GenerateToken(uuid.New().String())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareChecksOrigin(t *testing.T) {
	auth.SetSecret("test-secret")

	tenant := model.Tenant{
		ID:        uuid.New(),
		Name:      "acme",
		Domain:    "acme.example",
		CreatedAt: time.Now(),
	}
	handler := newProtected(t, &fakeTenants{tenants: map[uuid.UUID]model.Tenant{tenant.ID: tenant}})

	token, err := auth.GenerateToken(tenant.ID.String())
	require.NoError(t, err)

	// Matching origin passes.
	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Origin", "https://app.acme.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, tenant.ID.String(), rec.Body.String())

	// Foreign origin is rejected.
	req = httptest.NewRequest(http.MethodGet, "/channels", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
