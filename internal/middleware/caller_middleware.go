package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/poofware/listings-service/internal/constants"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/repositories"
	"github.com/poofware/listings-service/internal/utils"
)

type contextKey string

const (
	ContextKeyUserID  contextKey = "userID"
	ContextKeySession contextKey = "session"
)

// CallerMiddleware trusts the X-User-ID header set by the session gateway.
// Requests without it pass through anonymously; a malformed or unknown id is
// rejected with 401. Resolved users are cached in store.
func CallerMiddleware(store SessionStore, users repositories.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(constants.UserIDHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil {
				utils.HandleServiceError(w, &utils.AuthorizationError{Reason: "Malformed caller id"})
				return
			}

			sess, ok := store.Get(userID)
			if !ok {
				u, err := repositories.WithReadRetry(r.Context(), "resolve caller", func(ctx context.Context) (*models.User, error) {
					return users.GetByID(ctx, userID)
				})
				if err != nil {
					utils.HandleServiceError(w, err)
					return
				}
				if u == nil {
					utils.HandleServiceError(w, &utils.AuthorizationError{Reason: "Unknown caller"})
					return
				}
				sess = &Session{UserID: u.ID, Name: u.Name, Role: u.Role}
				store.Put(sess)
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, sess.UserID)
			ctx = context.WithValue(ctx, ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles lets the request through only when the caller resolved by
// CallerMiddleware holds one of roles.
func RequireRoles(roles ...models.RoleName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				utils.HandleServiceError(w, &utils.AuthorizationError{Reason: "Authentication required"})
				return
			}
			for _, role := range roles {
				if sess.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.HandleServiceError(w, &utils.AuthorizationError{Forbidden: true, Reason: "Insufficient permissions"})
		})
	}
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ContextKeySession).(*Session)
	return sess, ok && sess != nil
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return id, ok
}
