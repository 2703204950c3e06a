package mongorepo

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Clark-Hu/myflix-api/internal/repository"
	"github.com/Clark-Hu/myflix-api/internal/store"
)

// New constructs a repository.Repository backed by db.
func New(db *mongo.Database) *repository.Repository {
	return &repository.Repository{
		Movies: &MoviesRepository{col: db.Collection(store.MoviesCollection)},
		Users:  &UsersRepository{col: db.Collection(store.UsersCollection)},
	}
}

func now() time.Time {
	return time.Now().UTC()
}

func parseObjectID(hex string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("%w: %q", repository.ErrInvalidID, hex)
	}
	return id, nil
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
