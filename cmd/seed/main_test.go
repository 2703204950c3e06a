package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Clark-Hu/myflix-api/internal/backend"
	"github.com/Clark-Hu/myflix-api/internal/config"
	"github.com/Clark-Hu/myflix-api/internal/domain"
	"github.com/Clark-Hu/myflix-api/internal/repository"
)

type fakeMovies struct {
	byTitle   map[string]domain.Movie
	createErr error
}

func (f *fakeMovies) List(context.Context) ([]domain.Movie, error) { return nil, nil }

func (f *fakeMovies) GetByTitle(_ context.Context, title string) (domain.Movie, error) {
	m, ok := f.byTitle[title]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	return m, nil
}

func (f *fakeMovies) GetGenre(context.Context, string) (domain.Genre, error) {
	return domain.Genre{}, repository.ErrNotFound
}

func (f *fakeMovies) GetDirector(context.Context, string) (domain.Director, error) {
	return domain.Director{}, repository.ErrNotFound
}

func (f *fakeMovies) Create(_ context.Context, p repository.MovieCreateParams) (domain.Movie, error) {
	if f.createErr != nil {
		return domain.Movie{}, f.createErr
	}
	m := domain.Movie{ID: p.Title, Title: p.Title}
	f.byTitle[p.Title] = m
	return m, nil
}

func TestLoadBundledSeedData(t *testing.T) {
	_, currentFile, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(currentFile), "..", "..", "db", "seed", "movies.json")

	params, err := loadMovies(path)
	require.NoError(t, err)
	require.NotEmpty(t, params)
	for _, p := range params {
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Genre.Name, p.Title)
		assert.NotEmpty(t, p.Director.Name, p.Title)
	}
}

func TestLoadMoviesRejectsBadDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"Title":"X","Director":{"Name":"Y","Birth":"1950/01/01"}}]`), 0o644))

	_, err := loadMovies(path)
	assert.ErrorContains(t, err, "Director.Birth")
}

func TestLoadMoviesRequiresTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"Description":"untitled"}]`), 0o644))

	_, err := loadMovies(path)
	assert.ErrorContains(t, err, "Title is required")
}

func TestSeedSkipsExistingTitles(t *testing.T) {
	movies := &fakeMovies{byTitle: map[string]domain.Movie{"Heat": {ID: "1", Title: "Heat"}}}
	params := []repository.MovieCreateParams{{Title: "Heat"}, {Title: "Ran"}, {Title: "Alien"}}

	inserted, err := seed(context.Background(), movies, params)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	inserted, err = seed(context.Background(), movies, params)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func writeSeedFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"Title":"Heat"},{"Title":"Ran"}]`), 0o644))
	return path
}

func openWith(movies repository.MovieRepository) openFunc {
	return func(context.Context, config.Config, *zap.Logger) (*backend.Backend, error) {
		return &backend.Backend{Repo: &repository.Repository{Movies: movies}}, nil
	}
}

func TestRunInsertsThroughBackend(t *testing.T) {
	movies := &fakeMovies{byTitle: map[string]domain.Movie{}}

	err := run(context.Background(), config.Config{}, zap.NewNop(), writeSeedFile(t), false, openWith(movies))
	require.NoError(t, err)
	assert.Len(t, movies.byTitle, 2)
}

func TestRunDryRunSkipsBackend(t *testing.T) {
	open := func(context.Context, config.Config, *zap.Logger) (*backend.Backend, error) {
		t.Fatalf("dry run must not open the backend")
		return nil, nil
	}
	require.NoError(t, run(context.Background(), config.Config{}, zap.NewNop(), writeSeedFile(t), true, open))
}

func TestRunReportsOpenFailure(t *testing.T) {
	open := func(context.Context, config.Config, *zap.Logger) (*backend.Backend, error) {
		return nil, errors.New("connection refused")
	}
	err := run(context.Background(), config.Config{DBDriver: config.DriverPostgres}, zap.NewNop(), writeSeedFile(t), false, open)
	assert.ErrorContains(t, err, "open postgres backend")
}

func TestRunReportsInsertFailure(t *testing.T) {
	boom := errors.New("insert failed")
	movies := &fakeMovies{byTitle: map[string]domain.Movie{}, createErr: boom}

	err := run(context.Background(), config.Config{}, zap.NewNop(), writeSeedFile(t), false, openWith(movies))
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "stopped after 0 inserts")
}

func TestRunReportsMissingDataFile(t *testing.T) {
	err := run(context.Background(), config.Config{}, zap.NewNop(), filepath.Join(t.TempDir(), "missing.json"), false, openWith(&fakeMovies{}))
	assert.ErrorContains(t, err, "read seed data")
}
