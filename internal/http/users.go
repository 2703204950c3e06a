package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/myflix-api/internal/auth"
	"github.com/Clark-Hu/myflix-api/internal/domain"
	"github.com/Clark-Hu/myflix-api/internal/repository"
)

// userRequest is the body of both registration and account update.
type userRequest struct {
	Username string `json:"Username" validate:"required,min=5,alphanum"`
	Password string `json:"Password" validate:"required"`
	Email    string `json:"Email" validate:"required,email"`
	Birthday string `json:"Birthday" validate:"omitempty,date"`
}

type userResponse struct {
	ID             string   `json:"_id"`
	Username       string   `json:"Username"`
	Email          string   `json:"Email"`
	Birthday       *string  `json:"Birthday,omitempty"`
	FavoriteMovies []string `json:"FavoriteMovies"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.Users.List(r.Context())
	if err != nil {
		s.respondInternal(w, "Failed to list users", err)
		return
	}
	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, toUserResponse(user))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	username, err := pathParam(r, "Username")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	user, err := s.repo.Users.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", username+" was not found")
			return
		}
		s.respondInternal(w, "Failed to fetch user", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	req, birthday, ok := s.decodeUserRequest(w, r)
	if !ok {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondInternal(w, "Failed to register user", err)
		return
	}

	user, err := s.repo.Users.Create(r.Context(), repository.UserCreateParams{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		Birthday:     birthday,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.respondError(w, http.StatusBadRequest, "ALREADY_EXISTS", req.Username+" already exists")
			return
		}
		s.respondInternal(w, "Failed to register user", err)
		return
	}

	s.logger.Info("user registered", zap.String("username", user.Username))
	w.Header().Set("Location", "/users/"+user.Username)
	s.respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	username, err := pathParam(r, "Username")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	req, birthday, ok := s.decodeUserRequest(w, r)
	if !ok {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondInternal(w, "Failed to update user", err)
		return
	}

	user, err := s.repo.Users.Update(r.Context(), username, repository.UserUpdateParams{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		Birthday:     birthday,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", username+" was not found")
		case errors.Is(err, repository.ErrConflict):
			s.respondError(w, http.StatusBadRequest, "ALREADY_EXISTS", req.Username+" already exists")
		default:
			s.respondInternal(w, "Failed to update user", err)
		}
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	s.mutateFavorites(w, r, s.repo.Users.AddFavorite, "Failed to add favorite")
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	s.mutateFavorites(w, r, s.repo.Users.RemoveFavorite, "Failed to remove favorite")
}

type favoriteMutation func(ctx context.Context, username, movieID string) (domain.User, error)

func (s *Server) mutateFavorites(w http.ResponseWriter, r *http.Request, mutate favoriteMutation, failure string) {
	username, err := pathParam(r, "Username")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	movieID, err := pathParam(r, "MovieID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	user, err := mutate(r.Context(), username, movieID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", username+" was not found")
		case errors.Is(err, repository.ErrInvalidID):
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", fmt.Sprintf("%q is not a valid movie id", movieID))
		default:
			s.respondInternal(w, failure, err)
		}
		return
	}
	s.respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	username, err := pathParam(r, "Username")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	if err := s.repo.Users.Delete(r.Context(), username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", username+" was not found")
			return
		}
		s.respondInternal(w, "Failed to delete user", err)
		return
	}
	s.logger.Info("user deleted", zap.String("username", username))
	s.respondText(w, http.StatusOK, username+" was deleted.")
}

// requireAccountOwner lets a token act only on its own account.
func (s *Server) requireAccountOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := auth.Subject(r.Context())
		if !ok {
			s.respondUnauthorized(w, r)
			return
		}
		username, err := pathParam(r, "Username")
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
		if subject != username {
			s.respondError(w, http.StatusForbidden, "FORBIDDEN", "Permission denied.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeUserRequest parses and validates a userRequest, writing the error
// response itself when ok is false.
func (s *Server) decodeUserRequest(w http.ResponseWriter, r *http.Request) (userRequest, *time.Time, bool) {
	var req userRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return userRequest{}, nil, false
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	problems, err := s.validator.Struct(req)
	if err != nil {
		s.respondInternal(w, "Failed to validate request", err)
		return userRequest{}, nil, false
	}
	if len(problems) > 0 {
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Request validation failed",
			Details: problems,
		})
		return userRequest{}, nil, false
	}

	var birthday *time.Time
	if req.Birthday != "" {
		parsed, err := parseDate(req.Birthday)
		if err != nil {
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fieldMessages["Birthday.date"])
			return userRequest{}, nil, false
		}
		birthday = &parsed
	}
	return req, birthday, true
}

func toUserResponse(user domain.User) userResponse {
	favorites := user.FavoriteMovies
	if favorites == nil {
		favorites = []string{}
	}
	return userResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Birthday:       formatDate(user.Birthday),
		FavoriteMovies: favorites,
	}
}
