// Package database selects and opens the storage backend named by the configuration.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/isdelr/finance-tracker-be/internal/storage"
	"github.com/isdelr/finance-tracker-be/internal/storage/mongo"
	"github.com/isdelr/finance-tracker-be/internal/storage/sqlite"
)

// Backend names a storage implementation.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendMongo  Backend = "mongo"
)

// BackendFor reports which backend url refers to.
func BackendFor(url string) Backend {
	if strings.HasPrefix(url, "mongodb://") || strings.HasPrefix(url, "mongodb+srv://") {
		return BackendMongo
	}
	return BackendSQLite
}

// Open creates the store for url. mongoDatabase is only used for MongoDB URLs.
func Open(ctx context.Context, url, mongoDatabase string) (storage.Store, error) {
	switch BackendFor(url) {
	case BackendMongo:
		store, err := mongo.New(ctx, url, mongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("database.Open: %w", err)
		}
		return store, nil
	default:
		store, err := sqlite.New(strings.TrimPrefix(url, "sqlite://"))
		if err != nil {
			return nil, fmt.Errorf("database.Open: %w", err)
		}
		return store, nil
	}
}
