package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/localnerve/amo-catalog/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func sqliteEnv(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_DATABASE", filepath.Join(t.TempDir(), "catalog.db"))
	t.Setenv("DB_CONNECTION_LIMIT", "1")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("ES_URL", "")
	t.Setenv("NATS_URL", "")
}

func TestVersionInt(t *testing.T) {
	out, err := run(t, "version-int", "3.0", "4.0.*")
	require.NoError(t, err)
	assert.Equal(t, "3.0\t3000000200100\n4.0.*\t4009900200100\n", out)

	_, err = run(t, "version-int")
	assert.Error(t, err)
}

func TestReindexIDs(t *testing.T) {
	ids, err := reindexIDs(false, []string{"3", "14"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 14}, ids)

	ids, err = reindexIDs(true, nil)
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = reindexIDs(false, nil)
	assert.EqualError(t, err, "pass add-on ids or --all")

	_, err = reindexIDs(true, []string{"3"})
	assert.Error(t, err)

	_, err = reindexIDs(false, []string{"abc"})
	assert.EqualError(t, err, `invalid add-on id "abc"`)
}

func TestMigrateSeedAndReindex(t *testing.T) {
	sqliteEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "migrated\n", out)

	out, err = run(t, "seed")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "created "), out)
	assert.NotContains(t, out, "created 0 app versions")

	// Seeding again creates nothing.
	out, err = run(t, "seed")
	require.NoError(t, err)
	assert.Equal(t, "created 0 app versions, 0 categories\n", out)

	out, err = run(t, "reindex", "--all")
	require.NoError(t, err)
	assert.Equal(t, "queued 0 tasks\n", out)
}

func TestWorkerNeedsQueue(t *testing.T) {
	sqliteEnv(t)

	_, err := run(t, "worker")
	assert.ErrorIs(t, err, errNoQueue)
}

func TestSetupMappingNeedsSearch(t *testing.T) {
	sqliteEnv(t)

	_, err := run(t, "setup-mapping")
	assert.EqualError(t, err, "ES_URL is not set")
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	out, err := run(t, "token", "--user", "7", "--role", "admin")
	require.NoError(t, err)

	claims, err := services.ParseToken("cli-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, services.RoleAdmin, claims.Role)
}
