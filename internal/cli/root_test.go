package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKale112/devConnector/internal/config"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate"}, names)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dev.db")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_PATH", dbPath)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "ok\n", out.String())
	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestRootCommand_BadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate"})
	assert.Error(t, cmd.Execute())
}

func TestBuild_ServesHealth(t *testing.T) {
	cfg := config.Default()
	cfg.JWTSecret = "s"
	cfg.DBPath = filepath.Join(t.TempDir(), "dev.db")
	ctx := context.Background()

	app, err := Build(ctx, cfg)
	require.NoError(t, err)
	defer app.Close(ctx)

	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
