package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "github.com/matzehuels/commitcanvas/pkg/errors"
	"github.com/matzehuels/commitcanvas/pkg/graph"
)

const (
	defaultDatabase   = "commitcanvas"
	defaultCollection = "graphs"
)

// MongoStore persists records in a MongoDB collection, one document per
// (repo, ref) pair.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig configures the MongoDB connection.
type MongoConfig struct {
	// URI is the connection string, e.g. mongodb://localhost:27017.
	URI string

	// Database defaults to "commitcanvas" when empty.
	Database string

	// Collection defaults to "graphs" when empty.
	Collection string
}

// NewMongoStore connects to MongoDB, verifies the connection, and ensures
// the unique (repo, ref) index exists.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, err, "ping mongodb")
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "repo", Value: 1}, {Key: "ref", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, err, "create index")
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// Save upserts the graph for (repo, ref).
func (s *MongoStore) Save(ctx context.Context, repo, ref string, g *graph.Graph) (*Record, error) {
	now := time.Now().UTC()
	filter := bson.M{"repo": repo, "ref": ref}
	update := bson.M{
		"$set": bson.M{
			"graph":      g,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":        newID(),
			"repo":       repo,
			"ref":        ref,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var rec Record
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, err, "save graph")
	}
	return &rec, nil
}

// Get returns the record for (repo, ref).
func (s *MongoStore) Get(ctx context.Context, repo, ref string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"repo": repo, "ref": ref}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(repo, ref)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, err, "load graph")
	}
	return &rec, nil
}

// List returns all records for a repo, newest first.
func (s *MongoStore) List(ctx context.Context, repo string) ([]*Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{"repo": repo}, opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, err, "list graphs")
	}
	defer cur.Close(ctx)

	var out []*Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, err, "decode graphs")
	}
	return out, nil
}

// Delete removes the record for (repo, ref).
func (s *MongoStore) Delete(ctx context.Context, repo, ref string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"repo": repo, "ref": ref}); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStorage, err, "delete graph")
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
