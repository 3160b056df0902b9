package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shinyes/pastpaper/internal/db"
	"github.com/shinyes/pastpaper/internal/models"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(sqlDB); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return New(sqlDB)
}

func sampleQuestion(id string) models.Question {
	marks := 4.0
	return models.NormalizeQuestion(models.Question{
		ID:                    id,
		Examination:           "HKDSE",
		Year:                  models.NumericYear(2019),
		Section:               "A",
		QuestionNumber:        "3a",
		Marks:                 &marks,
		Concepts:              []string{"供應", "需求"},
		ChapterClassification: []string{"Ch02"},
		GraphType:             "供求圖",
	})
}

func TestQuestionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateQuestion(ctx, sampleQuestion("Q1"))
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}
	if created.Marks == nil || *created.Marks != 4 {
		t.Fatalf("expected marks=4, got %v", created.Marks)
	}
	if created.CorrectPercentage != nil {
		t.Fatalf("expected absent percentage, got %v", *created.CorrectPercentage)
	}
	if created.Year != models.NumericYear(2019) {
		t.Fatalf("unexpected year %+v", created.Year)
	}
	if len(created.Concepts) != 2 || created.TableType != models.NoneValue {
		t.Fatalf("unexpected question %+v", created)
	}
	if created.DateAdded.IsZero() {
		t.Fatalf("expected date_added to be stamped")
	}

	if _, err := s.CreateQuestion(ctx, sampleQuestion("Q1")); !errors.Is(err, ErrQuestionExists) {
		t.Fatalf("expected ErrQuestionExists, got %v", err)
	}

	update := created
	update.Year = models.Year{Sentinel: "PP"}
	update.Concepts = []string{}
	updated, err := s.UpsertQuestion(ctx, update)
	if err != nil {
		t.Fatalf("UpsertQuestion() error = %v", err)
	}
	if updated.Year.Sentinel != "PP" || len(updated.Concepts) != 0 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if !updated.DateAdded.Equal(created.DateAdded) {
		t.Fatalf("date_added changed: %s -> %s", created.DateAdded, updated.DateAdded)
	}

	if err := s.DeleteQuestion(ctx, "Q1"); err != nil {
		t.Fatalf("DeleteQuestion() error = %v", err)
	}
	if err := s.DeleteQuestion(ctx, "Q1"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestReplaceQuestionsSkipsInvalidRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.CreateQuestion(ctx, sampleQuestion("OLD")); err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}

	incoming := []models.Question{
		sampleQuestion("B"),
		sampleQuestion("A"),
		sampleQuestion("B"),
		models.NormalizeQuestion(models.Question{ID: "-", Examination: "HKDSE"}),
		models.NormalizeQuestion(models.Question{ID: "C"}),
	}
	imported, skipped, err := s.ReplaceQuestions(ctx, incoming)
	if err != nil {
		t.Fatalf("ReplaceQuestions() error = %v", err)
	}
	if imported != 2 || skipped != 3 {
		t.Fatalf("expected 2 imported / 3 skipped, got %d / %d", imported, skipped)
	}

	all, err := s.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("ListQuestions() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != "B" || all[1].ID != "A" {
		t.Fatalf("expected [B A] in insertion order, got %+v", all)
	}
}

func TestFindDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.CreateQuestion(ctx, sampleQuestion("Q1")); err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}

	id, ok, err := s.FindDuplicate(ctx, sampleQuestion("Q2"))
	if err != nil || !ok || id != "Q1" {
		t.Fatalf("expected duplicate Q1, got %q %v %v", id, ok, err)
	}
	if _, ok, _ := s.FindDuplicate(ctx, sampleQuestion("Q1")); ok {
		t.Fatalf("a question must not duplicate itself")
	}
}

func TestMetadataAndSettings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.PutMetadata(ctx, models.Metadata{Kind: models.MetadataConcepts, Name: "供應", Comment: "v1"}); err != nil {
		t.Fatalf("PutMetadata() error = %v", err)
	}
	item, err := s.PutMetadata(ctx, models.Metadata{Kind: models.MetadataConcepts, Name: "供應", Comment: "v2"})
	if err != nil || item.Comment != "v2" {
		t.Fatalf("expected overwrite, got %+v %v", item, err)
	}
	list, err := s.ListMetadata(ctx, models.MetadataConcepts)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one concept, got %+v %v", list, err)
	}
	if _, err := s.GetMetadata(ctx, models.MetadataPatterns, "供應"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("kinds must be isolated, got %v", err)
	}

	last, err := s.LastSyncTime(ctx)
	if err != nil || last != nil {
		t.Fatalf("expected no sync time, got %v %v", last, err)
	}
	if err := s.SetAvailableFields(ctx, []string{"id", "concepts"}); err != nil {
		t.Fatalf("SetAvailableFields() error = %v", err)
	}
	fields, err := s.AvailableFields(ctx)
	if err != nil || !fields["concepts"] || fields["answer"] {
		t.Fatalf("unexpected fields %v %v", fields, err)
	}
}
