//go:build integration

package mongorepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Clark-Hu/myflix-api/internal/domain"
	"github.com/Clark-Hu/myflix-api/internal/repository"
	"github.com/Clark-Hu/myflix-api/internal/store"
)

// setupMongo starts a throwaway mongod and returns repositories bound to a
// migrated database.
func setupMongo(t *testing.T) *repository.Repository {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start mongo container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate mongo container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	st, err := store.NewMongo(ctx, "mongodb://"+host+":"+port.Port(), "myflix_test", store.Options{
		ConnTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(st.Close)

	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.HealthCheck(ctx))
	return New(st.Database())
}

func TestMoviesRepository(t *testing.T) {
	repo := setupMongo(t)
	ctx := context.Background()

	birth := time.Date(1930, time.May, 31, 0, 0, 0, 0, time.UTC)
	created, err := repo.Movies.Create(ctx, repository.MovieCreateParams{
		Title:       "Unforgiven",
		Description: "A retired gunslinger takes one last job.",
		Genre:       domain.Genre{Name: "Western", Description: "Frontier stories"},
		Director:    domain.Director{Name: "Clint Eastwood", Bio: "Actor and director", Birth: &birth},
		Actors:      []string{"Clint Eastwood", "Gene Hackman"},
		Featured:    true,
	})
	require.NoError(t, err)
	_, err = repo.Movies.Create(ctx, repository.MovieCreateParams{
		Title:    "Alien",
		Genre:    domain.Genre{Name: "Horror"},
		Director: domain.Director{Name: "Ridley Scott"},
	})
	require.NoError(t, err)

	all, err := repo.Movies.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alien", all[0].Title)

	got, err := repo.Movies.GetByTitle(ctx, "Unforgiven")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, got.Featured)
	require.NotNil(t, got.Director.Birth)
	assert.True(t, got.Director.Birth.Equal(birth))

	genre, err := repo.Movies.GetGenre(ctx, "Western")
	require.NoError(t, err)
	assert.Equal(t, "Frontier stories", genre.Description)

	director, err := repo.Movies.GetDirector(ctx, "Clint Eastwood")
	require.NoError(t, err)
	assert.Equal(t, "Actor and director", director.Bio)

	_, err = repo.Movies.GetByTitle(ctx, "Missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.Movies.GetGenre(ctx, "Musical")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsersRepository(t *testing.T) {
	repo := setupMongo(t)
	ctx := context.Background()

	user, err := repo.Users.Create(ctx, repository.UserCreateParams{
		Username:     "alice01",
		PasswordHash: "hash",
		Email:        "alice@example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, user.FavoriteMovies)

	_, err = repo.Users.Create(ctx, repository.UserCreateParams{
		Username:     "alice01",
		PasswordHash: "hash",
		Email:        "other@example.com",
	})
	assert.ErrorIs(t, err, repository.ErrConflict)

	movieID := bson.NewObjectID().Hex()
	user, err = repo.Users.AddFavorite(ctx, "alice01", movieID)
	require.NoError(t, err)
	user, err = repo.Users.AddFavorite(ctx, "alice01", movieID)
	require.NoError(t, err)
	assert.Equal(t, []string{movieID}, user.FavoriteMovies)

	_, err = repo.Users.AddFavorite(ctx, "alice01", "not-an-object-id")
	assert.ErrorIs(t, err, repository.ErrInvalidID)

	user, err = repo.Users.RemoveFavorite(ctx, "alice01", movieID)
	require.NoError(t, err)
	assert.Empty(t, user.FavoriteMovies)

	birthday := time.Date(1991, time.March, 2, 0, 0, 0, 0, time.UTC)
	user, err = repo.Users.Update(ctx, "alice01", repository.UserUpdateParams{
		Username:     "alice02",
		PasswordHash: "hash2",
		Email:        "alice@example.org",
		Birthday:     &birthday,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice02", user.Username)
	require.NotNil(t, user.Birthday)
	assert.True(t, user.Birthday.Equal(birthday))

	_, err = repo.Users.GetByUsername(ctx, "alice01")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Users.AddFavorite(ctx, "ghost", movieID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	users, err := repo.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, repo.Users.Delete(ctx, "alice02"))
	assert.ErrorIs(t, repo.Users.Delete(ctx, "alice02"), repository.ErrNotFound)
}
