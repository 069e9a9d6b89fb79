package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_CreatesTables(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn))
	// Idempotent.
	require.NoError(t, Migrate(ctx, conn))

	for _, table := range []string{"users", "profiles", "experience", "education", "posts", "post_likes", "comments"} {
		var name string
		err := conn.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpen_EnforcesForeignKeys(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, Migrate(context.Background(), conn))

	_, err = conn.Exec(`INSERT INTO posts(id,user_id,text,created_at) VALUES('p1','missing','x',0)`)
	assert.Error(t, err)
}
