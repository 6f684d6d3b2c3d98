package database

import (
	"context"
	"fmt"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/config"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Connect retries ConnectMongo with exponential backoff to ride out startup
// races with the database container. Edition transactions need a replica set.
func Connect(ctx context.Context, cfg config.MongoDBConfig, attempts int) (*mongo.Client, *mongo.Database, error) {
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := ConnectMongo(ctx, cfg.URI, cfg.Timeout)
		if err == nil {
			return client, client.Database(cfg.Database), nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, attempts, err)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", attempts, lastErr)
}

const indexTimeout = 10 * time.Second

// EnsureIndexes creates models on col. Repositories call it at construction
// and log a failure rather than refusing to start.
func EnsureIndexes(ctx context.Context, col *mongo.Collection, models ...mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes on %s: %w", col.Name(), err)
	}
	return nil
}
