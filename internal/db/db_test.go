package db

import (
	"testing"
	"yatube/internal/config"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	gdb, err := Open(config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))

	for _, table := range []string{"users", "groups", "posts", "comments", "follows"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestSeedGroupsIsIdempotent(t *testing.T) {
	gdb, err := Open(config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))

	groups := []models.Group{
		{Title: "Cats", Slug: "cats", Description: "All about cats"},
		{Title: "Dogs", Slug: "dogs"},
	}
	require.NoError(t, SeedGroups(gdb, groups))
	require.NoError(t, SeedGroups(gdb, groups))

	var count int64
	gdb.Model(&models.Group{}).Count(&count)
	assert.EqualValues(t, 2, count)
}
