package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestManageCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", filepath.Join(t.TempDir(), "manage.db"))
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	out, err = run(t, "group", "create", "cats", "Cats", "-d", "All about cats")
	require.NoError(t, err)
	assert.Contains(t, out, "created group 1 cats")

	_, err = run(t, "group", "create", "cats", "Cats again")
	assert.ErrorContains(t, err, "already exists")

	out, err = run(t, "group", "list")
	require.NoError(t, err)
	assert.Equal(t, "1\tcats\tCats\n", out)

	out, err = run(t, "user", "create", "leo", "--email", "leo@example.com", "--password", "longenough")
	require.NoError(t, err)
	assert.Contains(t, out, "created user 1 leo")

	_, err = run(t, "user", "create", "follow", "--email", "f@example.com", "--password", "longenough")
	assert.Error(t, err, "reserved usernames are rejected")

	out, err = run(t, "group", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted group 1")

	out, err = run(t, "group", "list")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGroupImport(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", filepath.Join(t.TempDir(), "manage.db"))
	t.Setenv("LOG_LEVEL", "error")

	_, err := run(t, "migrate")
	require.NoError(t, err)
	_, err = run(t, "group", "create", "cats", "Cats")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "groups.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`groups:
  - slug: cats
    title: Other cats
  - slug: dogs
    title: Dogs
    description: All about dogs
`), 0o644))

	_, err = run(t, "group", "import", file)
	require.NoError(t, err)
	_, err = run(t, "group", "import", file)
	require.NoError(t, err, "importing twice skips existing slugs")

	out, err := run(t, "group", "list")
	require.NoError(t, err)
	assert.Equal(t, "1\tcats\tCats\n2\tdogs\tDogs\n", out)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("groups:\n  - title: No slug\n"), 0o644))
	_, err = run(t, "group", "import", bad)
	assert.ErrorContains(t, err, "slug")
}

func TestMediaVerify(t *testing.T) {
	t.Chdir(t.TempDir())
	dbURL := filepath.Join(t.TempDir(), "manage.db")
	media := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", dbURL)
	t.Setenv("STORAGE_MEDIA_ROOT", media)
	t.Setenv("LOG_LEVEL", "error")

	_, err := run(t, "migrate")
	require.NoError(t, err)
	_, err = run(t, "user", "create", "leo", "--email", "leo@example.com", "--password", "longenough")
	require.NoError(t, err)

	out, err := run(t, "media", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "0 images checked, 0 missing")

	gdb, err := db.Open(config.DatabaseConfig{Driver: "sqlite", URL: dbURL})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(media, "posts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(media, "posts", "present.gif"), []byte("GIF89a"), 0o644))
	require.NoError(t, gdb.Create(&[]models.Post{
		{Text: "with image", AuthorID: 1, Image: "posts/present.gif"},
		{Text: "lost image", AuthorID: 1, Image: "posts/gone.gif"},
		{Text: "no image", AuthorID: 1},
	}).Error)
	sqlDB, _ := gdb.DB()
	sqlDB.Close()

	out, err = run(t, "media", "verify")
	assert.ErrorContains(t, err, "1 images missing")
	assert.Contains(t, out, "posts/gone.gif")
	assert.NotContains(t, out, "posts/present.gif")
	assert.Contains(t, out, "2 images checked, 1 missing")
}
