package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/myflix-api/internal/domain"
)

const pgUniqueViolation = "23505"

// UsersRepository provides persistence helpers for user accounts.
type UsersRepository struct {
	pool *pgxpool.Pool
}

var _ UserRepository = (*UsersRepository)(nil)

const userColumns = `
    id,
    username,
    password_hash,
    email,
    birthday,
    favorite_movies,
    created_at,
    updated_at
`

// Create inserts a new account. ErrConflict is returned when the username is taken.
func (r *UsersRepository) Create(ctx context.Context, params UserCreateParams) (domain.User, error) {
	query := fmt.Sprintf(`
        INSERT INTO users (id, username, password_hash, email, birthday)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING %s
    `, userColumns)

	row := r.pool.QueryRow(ctx, query, uuid.NewString(), params.Username, params.PasswordHash, params.Email, params.Birthday)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, ErrConflict
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// List returns every account ordered by username.
func (r *UsersRepository) List(ctx context.Context) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY username`, userColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByUsername fetches a single account.
func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	return r.one(ctx, "get user", query, username)
}

// Update overwrites username, password, email and birthday in one statement.
func (r *UsersRepository) Update(ctx context.Context, username string, params UserUpdateParams) (domain.User, error) {
	query := fmt.Sprintf(`
        UPDATE users
        SET username = $2,
            password_hash = $3,
            email = $4,
            birthday = $5,
            updated_at = now()
        WHERE username = $1
        RETURNING %s
    `, userColumns)
	return r.one(ctx, "update user", query, username, params.Username, params.PasswordHash, params.Email, params.Birthday)
}

// AddFavorite appends movieID to the favorites list unless it is already present.
// Movie ids are UUIDs; anything else is rejected with ErrInvalidID.
func (r *UsersRepository) AddFavorite(ctx context.Context, username, movieID string) (domain.User, error) {
	id, err := canonicalMovieID(movieID)
	if err != nil {
		return domain.User{}, err
	}
	query := fmt.Sprintf(`
        UPDATE users
        SET favorite_movies = CASE
                WHEN $2::text = ANY(favorite_movies) THEN favorite_movies
                ELSE array_append(favorite_movies, $2::text)
            END,
            updated_at = now()
        WHERE username = $1
        RETURNING %s
    `, userColumns)
	return r.one(ctx, "add favorite", query, username, id)
}

// RemoveFavorite drops every occurrence of movieID from the favorites list.
func (r *UsersRepository) RemoveFavorite(ctx context.Context, username, movieID string) (domain.User, error) {
	id, err := canonicalMovieID(movieID)
	if err != nil {
		return domain.User{}, err
	}
	query := fmt.Sprintf(`
        UPDATE users
        SET favorite_movies = array_remove(favorite_movies, $2::text),
            updated_at = now()
        WHERE username = $1
        RETURNING %s
    `, userColumns)
	return r.one(ctx, "remove favorite", query, username, id)
}

// Delete removes an account. ErrNotFound is returned when nothing was deleted.
func (r *UsersRepository) Delete(ctx context.Context, username string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UsersRepository) one(ctx context.Context, op, query string, args ...interface{}) (domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, ErrNotFound
		case isUniqueViolation(err):
			return domain.User{}, ErrConflict
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// canonicalMovieID accepts any spelling uuid.Parse does and returns the
// lower-case hyphenated form stored in favorite_movies.
func canonicalMovieID(movieID string) (string, error) {
	id, err := uuid.Parse(movieID)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, movieID)
	}
	return id.String(), nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.Birthday,
		&user.FavoriteMovies,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
