package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a document does not exist. Services translate
// it into their own error taxonomy.
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned when an insert violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// NewMongoClient connects and pings the deployment. The URI must point at a
// replica set (or mongos) for multi-document transactions to work.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}
