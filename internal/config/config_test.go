package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("BLOG_DSN", "postgres://localhost/blog")
	path := write(t, t.TempDir(), "tablegen.yaml", `
schemas: db/schemas
output: internal/models
package: blog
naming: inflect
database:
  driver: pgx
  dsn: ${BLOG_DSN}
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db/schemas", c.Schemas)
	assert.Equal(t, "internal/models", c.Output)
	assert.Equal(t, "blog", c.Package)
	assert.Equal(t, "inflect", c.Naming)
	assert.Empty(t, c.Header)
	assert.Equal(t, "pgx", c.Database.Driver)
	assert.Equal(t, "postgres://localhost/blog", c.DSN())
}

func TestLoadDefaults(t *testing.T) {
	path := write(t, t.TempDir(), "tablegen.yaml", "package: blog\n")
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "blog", c.Package)
	assert.Equal(t, "schemas", c.Schemas)
	assert.Equal(t, "models", c.Output)
	assert.Equal(t, "postgres", c.Database.Driver)
}

func TestLoadMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	_, err = Load("missing.yaml")
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(write(t, dir, "bad.yaml", "schemas: [\n"))
	assert.ErrorContains(t, err, "parse")

	_, err = Load(write(t, dir, "naming.yaml", "naming: plural\ndatabase:\n  driver: oracle\n"))
	assert.ErrorContains(t, err, `unknown naming strategy "plural"`)
	assert.ErrorContains(t, err, `unknown database driver "oracle"`)
}

func TestDSNFallback(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "sqlite://file.db")
	assert.Equal(t, "sqlite://file.db", Default().DSN())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "test.env", "TABLEGEN_TEST_VAR=from-file\n")
	t.Setenv("TABLEGEN_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("TABLEGEN_TEST_VAR"))

	require.NoError(t, LoadEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("TABLEGEN_TEST_VAR"))
}
