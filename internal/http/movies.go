package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/myflix-api/internal/domain"
	"github.com/Clark-Hu/myflix-api/internal/repository"
)

type genreResponse struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
}

type directorResponse struct {
	Name  string  `json:"Name"`
	Bio   string  `json:"Bio"`
	Birth *string `json:"Birth,omitempty"`
	Death *string `json:"Death,omitempty"`
}

type movieResponse struct {
	ID          string           `json:"_id"`
	Title       string           `json:"Title"`
	Description string           `json:"Description"`
	Genre       genreResponse    `json:"Genre"`
	Director    directorResponse `json:"Director"`
	Actors      []string         `json:"Actors"`
	ImagePath   string           `json:"ImagePath"`
	Featured    bool             `json:"Featured"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.repo.Movies.List(r.Context())
	if err != nil {
		s.respondInternal(w, "Failed to list movies", err)
		return
	}

	items := make([]movieResponse, 0, len(movies))
	for _, movie := range movies {
		items = append(items, toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	title, err := pathParam(r, "Title")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movie, err := s.repo.Movies.GetByTitle(r.Context(), title)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Movie %q was not found", title))
			return
		}
		s.respondInternal(w, "Failed to fetch movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleGetGenre(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "genreName")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	genre, err := s.repo.Movies.GetGenre(r.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Genre %q was not found", name))
			return
		}
		s.respondInternal(w, "Failed to fetch genre", err)
		return
	}
	s.respondJSON(w, http.StatusOK, genreResponse(genre))
}

func (s *Server) handleGetDirector(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "directorName")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	director, err := s.repo.Movies.GetDirector(r.Context(), name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Director %q was not found", name))
			return
		}
		s.respondInternal(w, "Failed to fetch director", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toDirectorResponse(director))
}

func toMovieResponse(movie domain.Movie) movieResponse {
	actors := movie.Actors
	if actors == nil {
		actors = []string{}
	}
	return movieResponse{
		ID:          movie.ID,
		Title:       movie.Title,
		Description: movie.Description,
		Genre:       genreResponse(movie.Genre),
		Director:    toDirectorResponse(movie.Director),
		Actors:      actors,
		ImagePath:   movie.ImagePath,
		Featured:    movie.Featured,
	}
}

func toDirectorResponse(director domain.Director) directorResponse {
	return directorResponse{
		Name:  director.Name,
		Bio:   director.Bio,
		Birth: formatDate(director.Birth),
		Death: formatDate(director.Death),
	}
}

// pathParam returns a chi URL parameter in decoded form. chi matches against
// RawPath when the request carried one (for example an escaped "/"), so only
// then is the value still escaped.
func pathParam(r *http.Request, name string) (string, error) {
	value := chi.URLParam(r, name)
	if value == "" {
		return "", fmt.Errorf("missing %s parameter", name)
	}
	if r.URL.RawPath == "" {
		return value, nil
	}
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return "", fmt.Errorf("invalid %s parameter", name)
	}
	return decoded, nil
}
