package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyes/pastpaper/internal/models"
)

func TestMetadataService(t *testing.T) {
	services := setupTestServices(t)
	ctx := context.Background()
	ms := services.metadataService

	_, err := ms.Put(ctx, "chapters", "Ch01", "x")
	assert.ErrorIs(t, err, ErrInvalidMetadataKind)
	_, err = ms.Put(ctx, models.MetadataPatterns, " ", "x")
	assert.ErrorIs(t, err, ErrInvalidMetadataName)

	item, err := ms.Put(ctx, models.MetadataPatterns, " Graph ", " shifting curves ")
	require.NoError(t, err)
	assert.Equal(t, models.Metadata{Kind: models.MetadataPatterns, Name: "Graph", Comment: "shifting curves"}, item)

	_, err = ms.Put(ctx, models.MetadataPatterns, "Graph", "updated")
	require.NoError(t, err)
	items, err := ms.List(ctx, models.MetadataPatterns)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "updated", items[0].Comment)

	require.NoError(t, ms.Delete(ctx, models.MetadataPatterns, "Graph"))
	_, err = ms.Get(ctx, models.MetadataPatterns, "Graph")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
