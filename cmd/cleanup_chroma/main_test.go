package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carbaz/ai-technical-challenge/internal/models"
	"github.com/Carbaz/ai-technical-challenge/pkg/store"
)

func TestRunEmptiesStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "vectors.db")
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("store:\n  backend: sqlite\n  path: "+dbPath+"\n"), 0o644))

	vs, err := store.OpenSQLite(ctx, store.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	require.NoError(t, vs.Upsert(ctx, []models.Record{
		{ID: "1", Content: "a", Vector: []float32{1}},
		{ID: "2", Content: "b", Vector: []float32{2}},
	}))
	require.NoError(t, vs.Close())

	require.NoError(t, run(ctx, configPath))
	// a second run on the empty store is a no-op
	require.NoError(t, run(ctx, configPath))

	vs, err = store.OpenSQLite(ctx, store.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	defer vs.Close()
	ids, err := vs.ListIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
