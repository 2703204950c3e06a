package mongorepo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Clark-Hu/myflix-api/internal/domain"
	"github.com/Clark-Hu/myflix-api/internal/repository"
)

// MoviesRepository reads and seeds the movies collection.
type MoviesRepository struct {
	col *mongo.Collection
}

var _ repository.MovieRepository = (*MoviesRepository)(nil)

// Create inserts a movie document with a fresh ObjectID.
func (r *MoviesRepository) Create(ctx context.Context, params repository.MovieCreateParams) (domain.Movie, error) {
	t := now()
	doc := movieDocument{
		ID:          bson.NewObjectID(),
		Title:       params.Title,
		Description: params.Description,
		Genre:       genreDocument(params.Genre),
		Director: directorDocument{
			Name:  params.Director.Name,
			Bio:   params.Director.Bio,
			Birth: params.Director.Birth,
			Death: params.Director.Death,
		},
		Actors:    params.Actors,
		ImagePath: params.ImagePath,
		Featured:  params.Featured,
		CreatedAt: t,
		UpdatedAt: t,
	}
	if doc.Actors == nil {
		doc.Actors = []string{}
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return domain.Movie{}, translate("insert movie", err)
	}
	return doc.toDomain(), nil
}

// List returns the whole catalog ordered by title.
func (r *MoviesRepository) List(ctx context.Context) ([]domain.Movie, error) {
	opts := options.Find().SetSort(bson.D{{Key: "Title", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, translate("list movies", err)
	}
	defer cursor.Close(ctx)

	items := make([]domain.Movie, 0)
	for cursor.Next(ctx) {
		var doc movieDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, translate("decode movie", err)
		}
		items = append(items, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, translate("list movies", err)
	}
	return items, nil
}

// GetByTitle fetches the first movie with an exactly matching title.
func (r *MoviesRepository) GetByTitle(ctx context.Context, title string) (domain.Movie, error) {
	doc, err := r.findOne(ctx, bson.M{"Title": title})
	if err != nil {
		return domain.Movie{}, err
	}
	return doc.toDomain(), nil
}

// GetGenre returns the genre embedded in the first movie carrying that genre name.
func (r *MoviesRepository) GetGenre(ctx context.Context, name string) (domain.Genre, error) {
	doc, err := r.findOne(ctx, bson.M{"Genre.Name": name})
	if err != nil {
		return domain.Genre{}, err
	}
	return doc.toDomain().Genre, nil
}

// GetDirector returns the director embedded in the first movie by that director.
func (r *MoviesRepository) GetDirector(ctx context.Context, name string) (domain.Director, error) {
	doc, err := r.findOne(ctx, bson.M{"Director.Name": name})
	if err != nil {
		return domain.Director{}, err
	}
	return doc.toDomain().Director, nil
}

func (r *MoviesRepository) findOne(ctx context.Context, filter bson.M) (movieDocument, error) {
	var doc movieDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := r.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return movieDocument{}, translate("find movie", err)
	}
	return doc, nil
}
