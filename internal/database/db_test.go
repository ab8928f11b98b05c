// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database_test

import (
	"testing"

	"github.com/bmv-platform/identity/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_InMemory(t *testing.T) {
	db, err := database.Open(":memory:")

	require.NoError(t, err)
	require.NotNil(t, db)

	err = db.Close()
	require.NoError(t, err)
}

func TestOpen_MigrationsApplied(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var count int64
	err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='accounts'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestOpen_UniqueIndexes(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var names []string
	err = db.Select(&names, "SELECT name FROM sqlite_master WHERE type='index' AND tbl_name='accounts'")
	require.NoError(t, err)
	assert.Contains(t, names, "idx_accounts_email")
	assert.Contains(t, names, "idx_accounts_identification")
}

func TestMigrateDown_RollsBackSchema(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	err = database.MigrateDown(db.DB)
	require.NoError(t, err)

	var count int64
	err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='accounts'")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Re-applying restores the schema.
	err = database.RunMigrations(db.DB)
	require.NoError(t, err)

	err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='accounts'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestOpen_FileDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := tmpDir + "/subdir/test.db"

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var count int64
	err = db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='accounts'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestOpen_WithExistingParams(t *testing.T) {
	db, err := database.Open(":memory:?cache=shared")

	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		_ = db.Close()
	}()
}
