package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

// Collection names used by the document store.
const (
	MoviesCollection = "movies"
	UsersCollection  = "users"
)

// MongoStore owns a MongoDB client bound to a single database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	opts   Options
}

// NewMongo connects to uri and verifies connectivity with a primary ping.
// MaxConns, MinConns, MaxConnIdleTime and ConnTimeout map onto the driver's
// pool settings; the statement cache options do not apply.
func NewMongo(ctx context.Context, uri, database string, opts Options) (*MongoStore, error) {
	logger := opts.logger()
	logger.Info("store: connecting to mongodb",
		zap.String("database", database),
		zap.Int32("max", opts.MaxConns),
		zap.Int32("min", opts.MinConns),
	)

	clientOpts := options.Client().ApplyURI(uri)
	if opts.MaxConns > 0 {
		clientOpts.SetMaxPoolSize(uint64(opts.MaxConns))
	}
	if opts.MinConns > 0 {
		clientOpts.SetMinPoolSize(uint64(opts.MinConns))
	}
	if opts.MaxConnIdleTime > 0 {
		clientOpts.SetMaxConnIdleTime(opts.MaxConnIdleTime)
	}
	if opts.ConnTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnTimeout)
		clientOpts.SetServerSelectionTimeout(opts.ConnTimeout)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := opts.withConnTimeout(ctx)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info("store: mongodb connection established")

	return &MongoStore{
		client: client,
		db:     client.Database(database),
		logger: logger,
		opts:   opts,
	}, nil
}

// Database exposes the bound database for repositories.
func (s *MongoStore) Database() *mongo.Database {
	return s.db
}

// HealthCheck verifies the primary is reachable.
func (s *MongoStore) HealthCheck(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store not initialized")
	}
	checkCtx, cancel := s.opts.withConnTimeout(ctx)
	defer cancel()
	return s.client.Ping(checkCtx, readpref.Primary())
}

// Migrate creates the indexes the repositories rely on.
func (s *MongoStore) Migrate(ctx context.Context) error {
	for col, models := range mongoIndexes() {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Close disconnects the client, waiting at most five seconds for in-flight
// operations.
func (s *MongoStore) Close() {
	if s == nil || s.client == nil {
		return
	}
	s.logger.Info("store: disconnecting from mongodb")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		s.logger.Warn("store: mongodb disconnect failed", zap.Error(err))
	}
}

func mongoIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{
				Keys:    bson.D{{Key: "Username", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		MoviesCollection: {
			{Keys: bson.D{{Key: "Title", Value: 1}}},
			{Keys: bson.D{{Key: "Genre.Name", Value: 1}}},
			{Keys: bson.D{{Key: "Director.Name", Value: 1}}},
		},
	}
}
