package api

import (
	"errors"
	"net/http"

	"github.com/docupilot/docupilot/internal/apperr"
	"github.com/docupilot/docupilot/internal/auth"
	"github.com/docupilot/docupilot/internal/store"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	email, err := auth.ValidateEmail(req.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	role := req.Role
	if role == "" {
		role = store.RoleViewer
	}
	if !store.ValidRole(role) {
		s.writeError(w, r, apperr.Validationf("unknown role %q", role))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.db.Users().Create(r.Context(), &store.User{
		Name:           req.Name,
		Email:          email,
		Role:           role,
		HashedPassword: hash,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	email, err := auth.ValidateEmail(req.Email)
	if err != nil {
		s.writeError(w, r, apperr.ErrUnauthorized)
		return
	}

	user, err := s.db.Users().GetByEmail(r.Context(), email)
	if err != nil {
		// Same response for unknown email and wrong password.
		if errors.Is(err, apperr.ErrNotFound) {
			s.writeError(w, r, apperr.ErrUnauthorized)
			return
		}
		s.writeError(w, r, err)
		return
	}

	if !auth.VerifyPassword(req.Password, user.HashedPassword) {
		s.writeError(w, r, apperr.ErrUnauthorized)
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, currentUser(r))
}

// handleLogout exists for client symmetry. Tokens are stateless, so the
// client discards its copy; nothing is invalidated server side.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}
