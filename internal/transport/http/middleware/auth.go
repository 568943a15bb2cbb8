package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/service"
	"github.com/moodsync/server/pkg/httputil"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// Authenticator is implemented by *service.AuthService.
type Authenticator interface {
	Authenticate(token string) (*service.Identity, error)
}

// Authenticate requires a valid bearer access token and stores the identity in the context.
func Authenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				httputil.Error(r.Context(), w, http.StatusUnauthorized, "missing or invalid Authorization header", nil)
				return
			}
			id, err := a.Authenticate(token)
			if err != nil {
				httputil.Error(r.Context(), w, http.StatusUnauthorized, "invalid or expired token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole answers 403 unless the authenticated identity has one of roles.
// Must run after Authenticate.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromCtx(r.Context())
			if !ok {
				httputil.Error(r.Context(), w, http.StatusUnauthorized, "authentication required", nil)
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httputil.Error(r.Context(), w, http.StatusForbidden, "insufficient role", map[string]any{"role": id.Role})
		})
	}
}

func IdentityFromCtx(ctx context.Context) (*service.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(*service.Identity)
	return id, ok && id != nil
}

func bearer(h string) (string, bool) {
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}
