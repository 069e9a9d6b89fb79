// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MKale112/devConnector/internal/db"
)

// NewDB opens a migrated SQLite database in a per-test temp dir.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return conn
}

// Clock returns strictly increasing times one second apart.
type Clock struct {
	mu  sync.Mutex
	cur time.Time
}

func NewClock() *Clock {
	return &Clock{cur: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}
