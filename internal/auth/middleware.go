package auth

import (
	"net/http"
	"strings"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
)

// Middleware guards routes behind bearer-token authentication.
type Middleware struct {
	service *Service
}

// NewMiddleware constructs Middleware.
func NewMiddleware(service *Service) Middleware {
	return Middleware{service: service}
}

// RequireUser resolves the Authorization header to an identity and stores
// it in the request context. The request is rejected otherwise.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		identity, err := m.service.Resolve(r.Context(), raw)
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
