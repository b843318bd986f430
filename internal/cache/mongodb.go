// internal/cache/mongodb.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore backs the cache with a MongoDB collection. A TTL index on
// expires_at lets the server reclaim stale entries on its own.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoEntry struct {
	Key       string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
	Hits      int64     `bson:"hits"`
}

// NewMongoStore connects to the MongoDB URI and prepares the collection.
func NewMongoStore(ctx context.Context, cfg Config) (*MongoStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mongodb cache requires a connection URI")
	}
	database := cfg.Database
	if database == "" {
		database = "linkmeta"
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "metadata_cache"
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb cache: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb cache: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	// expireAfterSeconds=0 expires each document at its own expires_at.
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := coll.Indexes().CreateOne(connectCtx, index); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create ttl index: %w", err)
	}

	return &MongoStore{client: client, collection: coll}, nil
}

// Get reads a fresh entry and counts the hit atomically.
func (s *MongoStore) Get(ctx context.Context, key string) (*Entry, error) {
	filter := bson.M{"_id": key, "expires_at": bson.M{"$gt": time.Now()}}
	update := bson.M{"$inc": bson.M{"hits": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoEntry
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb cache read failed: %w", err)
	}

	return &Entry{
		Key:       doc.Key,
		Payload:   doc.Payload,
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
		Hits:      doc.Hits,
	}, nil
}

// Set upserts the entry, resetting the hit counter.
func (s *MongoStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	now := time.Now()

	doc := mongoEntry{
		Key:       key,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("mongodb cache write failed: %w", err)
	}
	return nil
}

// Delete removes a key.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongodb cache delete failed: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
