package middleware

import (
	"context"
	"net/http"

	"github.com/ayush/mining-tracker/internal/auth"
	"github.com/ayush/mining-tracker/internal/web"
)

type ctxKey int

const identityKey ctxKey = iota

// IdentityFrom returns the authenticated identity injected by
// RequireAuth/RequirePage, or nil outside those middlewares.
func IdentityFrom(ctx context.Context) *auth.Identity {
	ident, _ := ctx.Value(identityKey).(*auth.Identity)
	return ident
}

// RequireAuth validates the session cookie and injects the identity
// into the request context. Unauthenticated API calls get a 401 JSON
// error, never a redirect.
func RequireAuth(sessions auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := resolve(sessions, r)
			if ident == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"error":"not authenticated"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), identityKey, ident)))
		})
	}
}

// RequirePage is the page variant of RequireAuth: an anonymous visitor
// is flashed and redirected to the login page instead of getting a 401.
func RequirePage(sessions auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := resolve(sessions, r)
			if ident == nil {
				web.SetFlash(w, "error", "Please log in")
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), identityKey, ident)))
		})
	}
}

func resolve(sessions auth.Sessions, r *http.Request) *auth.Identity {
	cookie, err := r.Cookie(auth.SessionCookie)
	if err != nil {
		return nil
	}
	ident, err := sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return ident
}
