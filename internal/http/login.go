package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/myflix-api/internal/auth"
	"github.com/Clark-Hu/myflix-api/internal/repository"
)

type loginRequest struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
}

type loginResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

// handleLogin exchanges credentials for a bearer token. Credentials come from
// a JSON body or, when the body is empty, from the Username and Password
// query parameters.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if r.ContentLength != 0 {
		if err := decodeJSONBody(w, r, &req); err != nil {
			s.respondDecodeError(w, err)
			return
		}
	} else {
		req.Username = r.URL.Query().Get("Username")
		req.Password = r.URL.Query().Get("Password")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Username and Password are required")
		return
	}

	user, err := s.repo.Users.GetByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.respondInternal(w, "Failed to log in", err)
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Info("login rejected", zap.String("username", req.Username))
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Incorrect username or password.")
		return
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.respondInternal(w, "Failed to log in", err)
		return
	}
	s.respondJSON(w, http.StatusOK, loginResponse{User: toUserResponse(user), Token: token})
}
