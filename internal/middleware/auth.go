package middleware

import (
	"net/http"

	"github.com/vennapp/venner/internal/handlers"
	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/services"
)

const sessionCookieName = "session_token"

// AuthMiddleware resolves the session cookie to a user. Authentication and
// authorization are split: Authenticate runs on every request and only
// attaches the user, RequireAuth guards the endpoints that need one.
type AuthMiddleware struct {
	authService services.AuthServiceInterface
}

func NewAuthMiddleware(authService services.AuthServiceInterface) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate puts the session's user on the request context when the
// cookie resolves. Requests without a valid session pass through untouched.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.resolveUser(r); user != nil {
			r = r.WithContext(handlers.SetUserInContext(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) resolveUser(r *http.Request) *models.User {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	user, err := m.authService.ValidateSession(r.Context(), cookie.Value)
	if err != nil {
		// Stale or forged token; the request proceeds anonymous.
		return nil
	}
	return user
}

// RequireAuth rejects requests that Authenticate left anonymous.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.GetUserFromContext(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
