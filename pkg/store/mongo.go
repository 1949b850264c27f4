// Package store persists survey documents.
//
// MongoStore is the production backend; surveys are stored one document
// per survey, keyed by survey id. The HTTP layer depends only on the
// Store interface so tests run against the in-memory implementation.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/joey603/surveypro/pkg/survey"
)

// ErrNotFound is returned when a survey does not exist.
var ErrNotFound = errors.New("survey not found")

// Store is the persistence interface for surveys.
type Store interface {
	// Save inserts or replaces a survey.
	Save(ctx context.Context, s *survey.Survey) error

	// Load retrieves a survey by id. Returns ErrNotFound if absent.
	Load(ctx context.Context, id string) (*survey.Survey, error)

	// List returns all surveys, most recently updated first.
	List(ctx context.Context) ([]*survey.Survey, error)

	// Delete removes a survey. Deleting a missing survey is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// =============================================================================
// MongoStore
// =============================================================================

// Config holds MongoDB connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore persists surveys in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg Config) (*MongoStore, error) {
	if cfg.Collection == "" {
		cfg.Collection = "surveys"
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (m *MongoStore) Save(ctx context.Context, s *survey.Survey) error {
	filter := bson.M{"_id": s.ID}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.coll.ReplaceOne(ctx, filter, s, opts); err != nil {
		return fmt.Errorf("save survey %s: %w", s.ID, err)
	}
	return nil
}

func (m *MongoStore) Load(ctx context.Context, id string) (*survey.Survey, error) {
	var s survey.Survey
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load survey %s: %w", id, err)
	}
	return &s, nil
}

func (m *MongoStore) List(ctx context.Context) ([]*survey.Survey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := m.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer cur.Close(ctx)

	var out []*survey.Survey
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode surveys: %w", err)
	}
	return out, nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete survey %s: %w", id, err)
	}
	return nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
