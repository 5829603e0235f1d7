// Package mongostore implements storage.Storage on a MongoDB collection.
// Each namespace is one document keyed by _id.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/contestkit/pkg/storage"
)

type document struct {
	Namespace string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Storage keeps namespaces as documents in a single collection.
type Storage struct {
	coll *mongo.Collection
}

// New wraps a collection.
func New(coll *mongo.Collection) *Storage {
	return &Storage{coll: coll}
}

// NewFromConfig resolves database and collection names from cfg.
func NewFromConfig(client *mongo.Client, cfg Config) *Storage {
	return New(client.Database(cfg.Database).Collection(cfg.Collection))
}

func (s *Storage) Read(ctx context.Context, namespace string) (string, bool, error) {
	if namespace == "" {
		return "", false, storage.ErrEmptyNamespace
	}

	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": namespace}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Join(storage.ErrUnavailable, err)
	}
	return doc.Value, true, nil
}

func (s *Storage) Write(ctx context.Context, namespace, value string) error {
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}

	update := bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": namespace}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return errors.Join(storage.ErrUnavailable, err)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, namespace string) error {
	if namespace == "" {
		return storage.ErrEmptyNamespace
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": namespace}); err != nil {
		return errors.Join(storage.ErrUnavailable, err)
	}
	return nil
}
