package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/docupilot/docupilot/internal/apperr"
	"github.com/docupilot/docupilot/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

// requireAuth wraps a handler with Bearer token verification. The claims
// are resolved to a live user row so deactivated or deleted accounts are
// rejected even with a valid token.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			w.Header().Set("WWW-Authenticate", "Bearer")
			s.writeError(w, r, apperr.ErrUnauthorized)
			return
		}

		claims, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			s.writeError(w, r, err)
			return
		}

		user, err := s.db.Users().GetByID(r.Context(), claims.Subject)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			s.writeError(w, r, apperr.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated user placed by requireAuth.
func currentUser(r *http.Request) *store.User {
	user, _ := r.Context().Value(userContextKey).(*store.User)
	return user
}

// canModify reports whether user may modify a document: its creator or
// an admin.
func canModify(user *store.User, doc *store.Document) bool {
	return doc.CreatedBy == user.ID || user.Role == store.RoleAdmin
}
