package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/myflix-api/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

var _ MovieRepository = (*MoviesRepository)(nil)

const movieColumns = `
    id,
    title,
    description,
    genre_name,
    genre_description,
    director_name,
    director_bio,
    director_birth,
    director_death,
    actors,
    image_path,
    featured,
    created_at,
    updated_at
`

// Create inserts a new movie row and returns the stored entity.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	actors := params.Actors
	if actors == nil {
		actors = []string{}
	}

	query := fmt.Sprintf(`
        INSERT INTO movies (id, title, description, genre_name, genre_description,
                            director_name, director_bio, director_birth, director_death,
                            actors, image_path, featured)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING %s
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(),
		params.Title,
		params.Description,
		params.Genre.Name,
		params.Genre.Description,
		params.Director.Name,
		params.Director.Bio,
		params.Director.Birth,
		params.Director.Death,
		actors,
		params.ImagePath,
		params.Featured,
	)
	movie, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, fmt.Errorf("insert movie: %w", err)
	}
	return movie, nil
}

// List returns the whole catalog ordered by title.
func (r *MoviesRepository) List(ctx context.Context) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies ORDER BY title, id`, movieColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByTitle fetches the first movie with an exactly matching title.
func (r *MoviesRepository) GetByTitle(ctx context.Context, title string) (domain.Movie, error) {
	return r.findOne(ctx, "title", title)
}

// GetGenre returns the genre embedded in the first movie carrying that genre name.
func (r *MoviesRepository) GetGenre(ctx context.Context, name string) (domain.Genre, error) {
	movie, err := r.findOne(ctx, "genre_name", name)
	if err != nil {
		return domain.Genre{}, err
	}
	return movie.Genre, nil
}

// GetDirector returns the director embedded in the first movie by that director.
func (r *MoviesRepository) GetDirector(ctx context.Context, name string) (domain.Director, error) {
	movie, err := r.findOne(ctx, "director_name", name)
	if err != nil {
		return domain.Director{}, err
	}
	return movie.Director, nil
}

// findOne mirrors a document-store findOne: first match by insertion order.
// column is always a package constant, never caller input.
func (r *MoviesRepository) findOne(ctx context.Context, column, value string) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE %s = $1 ORDER BY created_at, id LIMIT 1`, movieColumns, column)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, fmt.Errorf("find movie by %s: %w", column, err)
	}
	return movie, nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var (
		movie         domain.Movie
		directorBirth *time.Time
		directorDeath *time.Time
	)

	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.Genre.Name,
		&movie.Genre.Description,
		&movie.Director.Name,
		&movie.Director.Bio,
		&directorBirth,
		&directorDeath,
		&movie.Actors,
		&movie.ImagePath,
		&movie.Featured,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}

	movie.Director.Birth = directorBirth
	movie.Director.Death = directorDeath
	return movie, nil
}
