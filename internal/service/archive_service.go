package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shinyes/pastpaper/internal/models"
	"github.com/shinyes/pastpaper/internal/storage"
	"github.com/shinyes/pastpaper/internal/store"
)

const (
	SnapshotVersion = "1.0"
	snapshotPrefix  = "exports/"
)

var (
	ErrInvalidSnapshot = errors.New("invalid snapshot: missing questions array")
	ErrInvalidKey      = errors.New("invalid snapshot key")
)

type Snapshot struct {
	Version       string            `json:"version"`
	ExportDate    time.Time         `json:"exportDate"`
	QuestionCount int               `json:"questionCount"`
	Questions     []models.Question `json:"questions"`
}

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type ArchiveService struct {
	store *store.SQLStore
	blobs storage.Store
	now   func() time.Time
}

func NewArchiveService(s *store.SQLStore, blobs storage.Store) *ArchiveService {
	return &ArchiveService{
		store: s,
		blobs: blobs,
		now:   time.Now,
	}
}

func (s *ArchiveService) Export(ctx context.Context) (Snapshot, error) {
	questions, err := s.store.ListQuestions(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Version:       SnapshotVersion,
		ExportDate:    s.now().UTC(),
		QuestionCount: len(questions),
		Questions:     questions,
	}, nil
}

// Filename is the download name for a snapshot taken at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("econ-questions-%s.json", t.UTC().Format(time.DateOnly))
}

// SaveSnapshot exports the collection into the snapshot store.
func (s *ArchiveService) SaveSnapshot(ctx context.Context) (storage.Object, error) {
	snap, err := s.Export(ctx)
	if err != nil {
		return storage.Object{}, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return storage.Object{}, fmt.Errorf("encode snapshot: %w", err)
	}
	name := strings.TrimSuffix(Filename(snap.ExportDate), ".json")
	key := fmt.Sprintf("%s%s-%s.json", snapshotPrefix, name, uuid.NewString())
	size, err := s.blobs.Put(ctx, key, "application/json", data)
	if err != nil {
		return storage.Object{}, err
	}
	return storage.Object{Key: key, Size: size}, nil
}

func (s *ArchiveService) ListSnapshots(ctx context.Context) ([]storage.Object, error) {
	return s.blobs.List(ctx, snapshotPrefix)
}

func (s *ArchiveService) OpenSnapshot(ctx context.Context, key string) ([]byte, error) {
	key, err := snapshotKey(key)
	if err != nil {
		return nil, err
	}
	rc, err := s.blobs.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *ArchiveService) DeleteSnapshot(ctx context.Context, key string) error {
	key, err := snapshotKey(key)
	if err != nil {
		return err
	}
	return s.blobs.Delete(ctx, key)
}

// RestoreSnapshot imports a stored snapshot.
func (s *ArchiveService) RestoreSnapshot(ctx context.Context, key string) (ImportResult, error) {
	data, err := s.OpenSnapshot(ctx, key)
	if err != nil {
		return ImportResult{}, err
	}
	return s.Import(ctx, data)
}

// Import replaces the whole collection with the questions of an exported
// snapshot. The column set recorded by the last sync is dropped with it.
func (s *ArchiveService) Import(ctx context.Context, data []byte) (ImportResult, error) {
	var raw struct {
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	trimmed := bytes.TrimSpace(raw.Questions)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ImportResult{}, ErrInvalidSnapshot
	}
	var items []snapshotQuestion
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	questions := make([]models.Question, 0, len(items))
	for _, item := range items {
		questions = append(questions, item.question())
	}
	imported, skipped, err := s.store.ReplaceQuestions(ctx, questions)
	if err != nil {
		return ImportResult{}, err
	}
	// Snapshots do not record which source columns exist.
	if err := s.store.ClearAvailableFields(ctx); err != nil {
		return ImportResult{}, err
	}
	return ImportResult{Imported: imported, Skipped: skipped}, nil
}

// snapshotQuestion accepts the legacy key names of older exports.
type snapshotQuestion struct {
	models.Question
	LegacyChapters []string `json:"AristochapterClassification"`
	LegacyPatterns []string `json:"patternTags"`
}

func (s snapshotQuestion) question() models.Question {
	q := s.Question
	if len(q.ChapterClassification) == 0 {
		q.ChapterClassification = s.LegacyChapters
	}
	if len(q.Patterns) == 0 {
		q.Patterns = s.LegacyPatterns
	}
	return models.NormalizeQuestion(q)
}

func snapshotKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, snapshotPrefix) {
		key = snapshotPrefix + key
	}
	clean := path.Clean(key)
	if !strings.HasPrefix(clean, snapshotPrefix) || !strings.HasSuffix(clean, ".json") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
