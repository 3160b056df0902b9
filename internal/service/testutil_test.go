package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyes/pastpaper/internal/db"
	"github.com/shinyes/pastpaper/internal/facet"
	"github.com/shinyes/pastpaper/internal/markdown"
	"github.com/shinyes/pastpaper/internal/models"
	"github.com/shinyes/pastpaper/internal/storage"
	"github.com/shinyes/pastpaper/internal/store"
)

type testServices struct {
	store           *store.SQLStore
	questionService *QuestionService
	statsService    *StatsService
	archiveService  *ArchiveService
	metadataService *MetadataService
}

func setupTestServices(t *testing.T) testServices {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	sqliteDB, err := db.OpenSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqliteDB.Close()
	})
	require.NoError(t, db.Migrate(sqliteDB))
	blobs, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "exports"))
	require.NoError(t, err)
	sqlStore := store.New(sqliteDB)
	return testServices{
		store:           sqlStore,
		questionService: NewQuestionService(sqlStore, facet.DefaultTable(), markdown.NewService()),
		statsService:    NewStatsService(sqlStore),
		archiveService:  NewArchiveService(sqlStore, blobs),
		metadataService: NewMetadataService(sqlStore),
	}
}

func mustCreateUser(t *testing.T, s *store.SQLStore, username string) models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), username, username, models.RoleUser)
	require.NoError(t, err)
	return user
}

func question(id string, mutate func(*models.Question)) models.Question {
	q := models.Question{ID: id, Examination: "HKDSE", Year: models.NumericYear(2020), QuestionType: QuestionTypeMC}
	if mutate != nil {
		mutate(&q)
	}
	return models.NormalizeQuestion(q)
}

func seedQuestions(t *testing.T, s *store.SQLStore, questions ...models.Question) {
	t.Helper()
	_, _, err := s.ReplaceQuestions(context.Background(), questions)
	require.NoError(t, err)
}
