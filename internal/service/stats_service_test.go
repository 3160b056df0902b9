package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyes/pastpaper/internal/models"
)

func entryNames(entries []StatsEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestStatsSummary(t *testing.T) {
	services := setupTestServices(t)
	ctx := context.Background()
	seedQuestions(t, services.store,
		question("A1", func(q *models.Question) {
			q.Publisher = "Aristo"
			q.CurriculumClassification = []string{"C 市場與價格"}
			q.ChapterClassification = []string{"Ch10"}
			q.Concepts = []string{"Demand"}
		}),
		question("A2", func(q *models.Question) {
			q.Publisher = "Aristo"
			q.QuestionType = QuestionTypeWritten
			q.CurriculumClassification = []string{"A", "未分類"}
			q.ChapterClassification = []string{"Ch2"}
			q.Concepts = []string{"Demand", "Supply"}
			q.Patterns = []string{"Graph"}
		}),
		question("A3", func(q *models.Question) {
			q.ChapterClassification = []string{"Ch2"}
			q.CurriculumClassification = []string{"Z other"}
		}),
	)
	_, err := services.metadataService.Put(ctx, models.MetadataConcepts, "Demand", "core topic")
	require.NoError(t, err)

	summary, err := services.statsService.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalQuestions)

	require.Len(t, summary.Publishers, 2)
	assert.Equal(t, StatsEntry{Name: "Aristo", Total: 2, MC: 1, Written: 1}, summary.Publishers[0])
	assert.Equal(t, "Unknown", summary.Publishers[1].Name)

	assert.Equal(t, []string{"A", "C 市場與價格", "未分類", "Z other"}, entryNames(summary.Curriculum))
	assert.Equal(t, []string{"Ch2", "Ch10"}, entryNames(summary.Chapters))
	assert.Equal(t, 2, summary.Chapters[0].Total)

	require.Len(t, summary.Concepts, 2)
	assert.Equal(t, StatsEntry{Name: "Demand", Total: 2, MC: 1, Written: 1, Comment: "core topic"}, summary.Concepts[0])
	assert.Equal(t, []string{"Graph"}, entryNames(summary.Patterns))
}

func TestStatsSummary_Empty(t *testing.T) {
	services := setupTestServices(t)

	summary, err := services.statsService.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalQuestions)
	assert.Empty(t, summary.Publishers)
	assert.Empty(t, summary.Chapters)
}
