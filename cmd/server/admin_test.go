package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyes/pastpaper/internal/app"
	"github.com/shinyes/pastpaper/internal/config"
	"github.com/shinyes/pastpaper/internal/logging"
	"github.com/shinyes/pastpaper/internal/models"
)

func newTestCLI(t *testing.T) (*adminCLI, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		DBPath:        filepath.Join(dir, "cli.db"),
		ExportStorage: config.StorageBackendLocal,
		ExportDir:     filepath.Join(dir, "exports"),
	}
	container, cleanup, err := app.Build(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	out := &bytes.Buffer{}
	return &adminCLI{container: container, out: out}, out
}

func TestAdminCLI_ExportImportClear(t *testing.T) {
	cli, out := newTestCLI(t)
	ctx := context.Background()
	_, _, err := cli.container.Store.ReplaceQuestions(ctx, []models.Question{
		models.NormalizeQuestion(models.Question{ID: "Q1", Examination: "HKDSE", Year: models.NumericYear(2012)}),
	})
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, cli.execute(ctx, []string{"export", target}))
	assert.Contains(t, out.String(), "exported 1 questions")
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"questionCount": 1`)

	require.NoError(t, cli.execute(ctx, []string{"clear"}))
	n, err := cli.container.Store.CountQuestions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, cli.execute(ctx, []string{"import", target}))
	assert.Contains(t, out.String(), "imported=1 skipped=0")

	require.NoError(t, cli.execute(ctx, []string{"snapshot", "save"}))
	out.Reset()
	require.NoError(t, cli.execute(ctx, []string{"snapshot", "list"}))
	assert.Contains(t, out.String(), "snapshots count=1")
}

func TestAdminCLI_UsersAndTokens(t *testing.T) {
	cli, out := newTestCLI(t)
	ctx := context.Background()

	require.NoError(t, cli.execute(ctx, []string{"user", "create", "owner01", "owner-pass"}))
	assert.Contains(t, out.String(), "role=ADMIN")

	require.NoError(t, cli.execute(ctx, []string{"token", "create", "owner01", "laptop", "--ttl", "7d"}))
	assert.Contains(t, out.String(), "accessToken=")
	assert.Contains(t, out.String(), "expiresAt=")

	out.Reset()
	require.NoError(t, cli.execute(ctx, []string{"token", "list", "owner01"}))
	assert.Contains(t, out.String(), "count=1")
	assert.Contains(t, out.String(), "laptop")

	err := cli.execute(ctx, []string{"token", "create", "owner01", "--ttl", "1d", "--expires-at", "2030-01-01T00:00:00Z"})
	assert.Error(t, err)

	require.NoError(t, cli.execute(ctx, []string{"token", "revoke", "1"}))
	out.Reset()
	require.NoError(t, cli.execute(ctx, []string{"token", "revoke", "1"}))
	assert.Contains(t, out.String(), "already revoked")

	require.NoError(t, cli.execute(ctx, []string{"user", "password", "owner01", "next-pass"}))
	assert.Error(t, cli.execute(ctx, []string{"user", "password", "ghost01", "next-pass"}))
}

func TestAdminCLI_SyncRequiresSpreadsheet(t *testing.T) {
	cli, _ := newTestCLI(t)

	err := cli.execute(context.Background(), []string{"sync"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "SHEETS_URL"))
	assert.Error(t, cli.execute(context.Background(), []string{"bogus"}))
}
