// Package mongorepo implements the catalog and account repositories on a
// MongoDB database. Documents use PascalCase field names, embed Genre and
// Director, and keep FavoriteMovies as an array of movie ObjectIDs.
package mongorepo

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Clark-Hu/myflix-api/internal/domain"
)

type genreDocument struct {
	Name        string `bson:"Name"`
	Description string `bson:"Description"`
}

type directorDocument struct {
	Name  string     `bson:"Name"`
	Bio   string     `bson:"Bio"`
	Birth *time.Time `bson:"Birth,omitempty"`
	Death *time.Time `bson:"Death,omitempty"`
}

type movieDocument struct {
	ID          bson.ObjectID    `bson:"_id"`
	Title       string           `bson:"Title"`
	Description string           `bson:"Description"`
	Genre       genreDocument    `bson:"Genre"`
	Director    directorDocument `bson:"Director"`
	Actors      []string         `bson:"Actors"`
	ImagePath   string           `bson:"ImagePath"`
	Featured    bool             `bson:"Featured"`
	CreatedAt   time.Time        `bson:"CreatedAt"`
	UpdatedAt   time.Time        `bson:"UpdatedAt"`
}

type userDocument struct {
	ID             bson.ObjectID   `bson:"_id"`
	Username       string          `bson:"Username"`
	Password       string          `bson:"Password"`
	Email          string          `bson:"Email"`
	Birthday       *time.Time      `bson:"Birthday,omitempty"`
	FavoriteMovies []bson.ObjectID `bson:"FavoriteMovies"`
	CreatedAt      time.Time       `bson:"CreatedAt"`
	UpdatedAt      time.Time       `bson:"UpdatedAt"`
}

func (d movieDocument) toDomain() domain.Movie {
	actors := d.Actors
	if actors == nil {
		actors = []string{}
	}
	return domain.Movie{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Genre:       domain.Genre(d.Genre),
		Director: domain.Director{
			Name:  d.Director.Name,
			Bio:   d.Director.Bio,
			Birth: utcPtr(d.Director.Birth),
			Death: utcPtr(d.Director.Death),
		},
		Actors:    actors,
		ImagePath: d.ImagePath,
		Featured:  d.Featured,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (d userDocument) toDomain() domain.User {
	favorites := make([]string, 0, len(d.FavoriteMovies))
	for _, id := range d.FavoriteMovies {
		favorites = append(favorites, id.Hex())
	}
	return domain.User{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		PasswordHash:   d.Password,
		Email:          d.Email,
		Birthday:       utcPtr(d.Birthday),
		FavoriteMovies: favorites,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
