package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetOptionMissing(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetOption(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetOptionOverwrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetOption(ctx, "k", "1"))
	require.NoError(t, db.SetOption(ctx, "k", "2"))

	v, err := db.GetOption(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestDeleteOption(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetOption(ctx, "k", "1"))
	require.NoError(t, db.DeleteOption(ctx, "k"))
	require.NoError(t, db.DeleteOption(ctx, "k"))

	_, err := db.GetOption(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetOptionsAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetOptions(ctx, map[string]string{"b": "2", "a": "1"}))

	opts, err := db.ListOptions(ctx)
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "a", opts[0].Key)
	assert.Equal(t, "1", opts[0].Value)
	assert.Equal(t, "b", opts[1].Key)
	assert.False(t, opts[1].UpdatedAt.IsZero())
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.sqlite")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SetOption(ctx, "k", "v"))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	v, err := db.GetOption(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
