package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendFor(t *testing.T) {
	assert.Equal(t, BackendMongo, BackendFor("mongodb://localhost:27017"))
	assert.Equal(t, BackendMongo, BackendFor("mongodb+srv://cluster.example.net"))
	assert.Equal(t, BackendSQLite, BackendFor("./finance.db"))
	assert.Equal(t, BackendSQLite, BackendFor(":memory:"))
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finance.db")

	store, err := Open(context.Background(), "sqlite://"+path, "")
	require.NoError(t, err)
	defer store.Close(context.Background())

	_, err = store.ListTransactions(context.Background(), "nobody", 0)
	assert.NoError(t, err)
}
