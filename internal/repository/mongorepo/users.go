package mongorepo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Clark-Hu/myflix-api/internal/domain"
	"github.com/Clark-Hu/myflix-api/internal/repository"
)

// UsersRepository manages the users collection. Every mutation is a single
// FindOneAndUpdate returning the post-image.
type UsersRepository struct {
	col *mongo.Collection
}

var _ repository.UserRepository = (*UsersRepository)(nil)

// Create inserts an account; the unique Username index turns duplicates into
// ErrConflict.
func (r *UsersRepository) Create(ctx context.Context, params repository.UserCreateParams) (domain.User, error) {
	t := now()
	doc := userDocument{
		ID:             bson.NewObjectID(),
		Username:       params.Username,
		Password:       params.PasswordHash,
		Email:          params.Email,
		Birthday:       params.Birthday,
		FavoriteMovies: []bson.ObjectID{},
		CreatedAt:      t,
		UpdatedAt:      t,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return domain.User{}, translate("insert user", err)
	}
	return doc.toDomain(), nil
}

// List returns every account ordered by username.
func (r *UsersRepository) List(ctx context.Context) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "Username", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, translate("list users", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate("list users", err)
	}
	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toDomain())
	}
	return users, nil
}

// GetByUsername fetches a single account.
func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"Username": username}).Decode(&doc); err != nil {
		return domain.User{}, translate("get user", err)
	}
	return doc.toDomain(), nil
}

// Update $sets username, password, email and birthday.
func (r *UsersRepository) Update(ctx context.Context, username string, params repository.UserUpdateParams) (domain.User, error) {
	set := bson.M{
		"Username":  params.Username,
		"Password":  params.PasswordHash,
		"Email":     params.Email,
		"UpdatedAt": now(),
	}
	update := bson.M{"$set": set}
	if params.Birthday != nil {
		set["Birthday"] = *params.Birthday
	} else {
		update["$unset"] = bson.M{"Birthday": ""}
	}
	return r.findOneAndUpdate(ctx, "update user", username, update)
}

// AddFavorite adds movieID with $addToSet so repeats are ignored.
func (r *UsersRepository) AddFavorite(ctx context.Context, username, movieID string) (domain.User, error) {
	id, err := parseObjectID(movieID)
	if err != nil {
		return domain.User{}, err
	}
	update := bson.M{
		"$addToSet": bson.M{"FavoriteMovies": id},
		"$set":      bson.M{"UpdatedAt": now()},
	}
	return r.findOneAndUpdate(ctx, "add favorite", username, update)
}

// RemoveFavorite $pulls movieID from the favorites list.
func (r *UsersRepository) RemoveFavorite(ctx context.Context, username, movieID string) (domain.User, error) {
	id, err := parseObjectID(movieID)
	if err != nil {
		return domain.User{}, err
	}
	update := bson.M{
		"$pull": bson.M{"FavoriteMovies": id},
		"$set":  bson.M{"UpdatedAt": now()},
	}
	return r.findOneAndUpdate(ctx, "remove favorite", username, update)
}

// Delete removes an account. ErrNotFound is returned when nothing was deleted.
func (r *UsersRepository) Delete(ctx context.Context, username string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"Username": username})
	if err != nil {
		return translate("delete user", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UsersRepository) findOneAndUpdate(ctx context.Context, op, username string, update bson.M) (domain.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"Username": username}, update, opts).Decode(&doc); err != nil {
		return domain.User{}, translate(op, err)
	}
	return doc.toDomain(), nil
}
