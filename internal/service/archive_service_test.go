package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyes/pastpaper/internal/facet"
	"github.com/shinyes/pastpaper/internal/models"
	"github.com/shinyes/pastpaper/internal/storage"
)

func TestArchive_ExportImportRoundTrip(t *testing.T) {
	services := setupTestServices(t)
	ctx := context.Background()
	seedQuestions(t, services.store,
		question("A1", func(q *models.Question) { q.Concepts = []string{"Demand"} }),
		question("A2", func(q *models.Question) { q.Year = models.ParseYear("Practice Paper") }),
	)

	snap, err := services.archiveService.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, 2, snap.QuestionCount)

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	require.NoError(t, services.store.ClearQuestions(ctx))
	result, err := services.archiveService.Import(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 2}, result)

	got, err := services.store.GetQuestion(ctx, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Practice Paper", got.Year.String())
}

func TestArchive_ImportRequiresQuestionsArray(t *testing.T) {
	services := setupTestServices(t)
	ctx := context.Background()

	for _, raw := range []string{`{}`, `{"questions": {}}`, `not json`, `{"questions": null}`} {
		_, err := services.archiveService.Import(ctx, []byte(raw))
		assert.ErrorIs(t, err, ErrInvalidSnapshot, raw)
	}
}

func TestArchive_ImportLegacyKeysAndSkips(t *testing.T) {
	services := setupTestServices(t)
	ctx := context.Background()
	seedQuestions(t, services.store, question("OLD", nil))

	raw := `{"version":"1.0","questions":[
		{"id":"L1","examination":"HKCEE","year":2005,"AristochapterClassification":["Ch03"],"patternTags":["Graph"]},
		{"id":"","examination":"HKCEE"},
		{"id":"L1","examination":"HKCEE"}
	]}`
	result, err := services.archiveService.Import(ctx, []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 1, Skipped: 2}, result)

	got, err := services.store.GetQuestion(ctx, "L1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ch03"}, got.ChapterClassification)
	assert.Equal(t, []string{"Graph"}, got.Patterns)
	assert.Equal(t, models.NoneValue, got.GraphType)

	n, err := services.store.CountQuestions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestArchive_ImportResetsSearchScopes(t *testing.T) {
	services := setupTestServices(t)
	ctx := context.Background()
	seedQuestions(t, services.store, question("A1", nil))
	require.NoError(t, services.store.SetAvailableFields(ctx, []string{"id", "examination"}))

	browse, err := services.questionService.Browse(ctx, BrowseRequest{})
	require.NoError(t, err)
	assert.NotContains(t, browse.SearchScopes, facet.ScopeMarkersReport)

	snap, err := services.archiveService.Export(ctx)
	require.NoError(t, err)
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	_, err = services.archiveService.Import(ctx, data)
	require.NoError(t, err)

	fields, err := services.store.AvailableFields(ctx)
	require.NoError(t, err)
	assert.Empty(t, fields)
	browse, err = services.questionService.Browse(ctx, BrowseRequest{})
	require.NoError(t, err)
	assert.Equal(t, facet.Scopes, browse.SearchScopes)
}

func TestArchive_Snapshots(t *testing.T) {
	services := setupTestServices(t)
	ctx := context.Background()
	seedQuestions(t, services.store, question("A1", nil))

	obj, err := services.archiveService.SaveSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "exports/econ-questions-"))
	assert.Positive(t, obj.Size)

	list, err := services.archiveService.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, obj.Key, list[0].Key)

	require.NoError(t, services.store.ClearQuestions(ctx))
	result, err := services.archiveService.RestoreSnapshot(ctx, strings.TrimPrefix(obj.Key, "exports/"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	_, err = services.archiveService.OpenSnapshot(ctx, "../secrets.json")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = services.archiveService.OpenSnapshot(ctx, "missing.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, services.archiveService.DeleteSnapshot(ctx, obj.Key))
	list, err = services.archiveService.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.ErrorIs(t, services.archiveService.DeleteSnapshot(ctx, "../x.json"), ErrInvalidKey)
}
