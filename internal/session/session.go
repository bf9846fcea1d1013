package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKey struct{}

const maxAge = 60 * 60 * 24 * 30

// Middleware gives every visitor a session cookie and exposes its value as
// the cart owner of the request.
func Middleware(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := ""
			if c, err := r.Cookie(cookieName); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					owner = id.String()
				}
			}

			if owner == "" {
				owner = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    owner,
					Path:     "/",
					MaxAge:   maxAge,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ctxKey{}, owner)
}

// Owner returns the cart owner stored in ctx, or "" for the shared cart.
func Owner(ctx context.Context) string {
	owner, _ := ctx.Value(ctxKey{}).(string)
	return owner
}
