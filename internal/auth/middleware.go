// internal/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"tenant-chat/internal/model"
)

type contextKey string

const TenantIDKey contextKey = "tenant_id"

// TenantSource looks up a tenant for origin validation; nil when unknown.
type TenantSource interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
}

// RequireTenant validates the bearer token, checks that the tenant still
// exists, and when an Origin header is present requires its host to match
// the tenant's registered domain.
func RequireTenant(tenants TenantSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(header, "Bearer ")
			claims, err := ValidateToken(tokenStr)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			tenantID, err := uuid.Parse(claims.TenantID)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			tenant, err := tenants.GetTenant(r.Context(), tenantID)
			if err != nil || tenant == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if origin := r.Header.Get("Origin"); origin != "" {
				if !originAllowed(origin, tenant.Domain) {
					http.Error(w, "origin not allowed for tenant", http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), TenantIDKey, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTenantID extracts the authenticated tenant from the request context.
func GetTenantID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(TenantIDKey).(uuid.UUID)
	return id, ok
}

func originAllowed(origin, domain string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == domain || strings.HasSuffix(host, "."+domain)
}
