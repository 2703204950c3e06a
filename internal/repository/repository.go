package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/myflix-api/internal/domain"
	"github.com/Clark-Hu/myflix-api/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a write would violate username uniqueness.
	ErrConflict = errors.New("repository: conflict")
	// ErrInvalidID indicates a movie identifier that the backend cannot store.
	ErrInvalidID = errors.New("repository: invalid id")
)

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
	Title       string
	Description string
	Genre       domain.Genre
	Director    domain.Director
	Actors      []string
	ImagePath   string
	Featured    bool
}

// UserCreateParams carries a validated registration. PasswordHash is
// already hashed.
type UserCreateParams struct {
	Username     string
	PasswordHash string
	Email        string
	Birthday     *time.Time
}

// UserUpdateParams replaces the mutable account fields wholesale.
type UserUpdateParams struct {
	Username     string
	PasswordHash string
	Email        string
	Birthday     *time.Time
}

// MovieRepository reads the catalog.
type MovieRepository interface {
	List(ctx context.Context) ([]domain.Movie, error)
	GetByTitle(ctx context.Context, title string) (domain.Movie, error)
	GetGenre(ctx context.Context, name string) (domain.Genre, error)
	GetDirector(ctx context.Context, name string) (domain.Director, error)
	Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error)
}

// UserRepository manages accounts and their favorites lists. Mutations
// return the document as it is after the write.
type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	Create(ctx context.Context, params UserCreateParams) (domain.User, error)
	Update(ctx context.Context, username string, params UserUpdateParams) (domain.User, error)
	AddFavorite(ctx context.Context, username, movieID string) (domain.User, error)
	RemoveFavorite(ctx context.Context, username, movieID string) (domain.User, error)
	Delete(ctx context.Context, username string) error
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies MovieRepository
	Users  UserRepository
}

// New constructs a Repository backed by the provided Postgres store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Movies: &MoviesRepository{pool: pool},
		Users:  &UsersRepository{pool: pool},
	}
}
