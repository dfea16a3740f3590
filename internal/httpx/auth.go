package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/users"
	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (users.User, error)
}

type ctxKey int

const userKey ctxKey = iota

// CurrentUser returns the caller resolved by RequireRole, if any.
func CurrentUser(ctx context.Context) (users.User, bool) {
	u, ok := ctx.Value(userKey).(users.User)
	return u, ok
}

// RequireRole resolves the bearer token to a synced user and lets the request
// through only when that user holds one of roles.
func RequireRole(auth Authenticator, log *zap.Logger, roles ...users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			u, err := auth.Authenticate(ctx, r.Header.Get("Authorization"))
			cancel()
			switch {
			case errors.Is(err, users.ErrBadToken), errors.Is(err, users.ErrUserNotFound):
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
				return
			case err != nil:
				writeError(w, log, err)
				return
			}
			if !hasRole(u.Role, roles) {
				writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
		})
	}
}

func hasRole(have users.Role, want []users.Role) bool {
	for _, r := range want {
		if have == r {
			return true
		}
	}
	return false
}
