package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shinyes/pastpaper/internal/models"
)

var ErrQuestionExists = errors.New("question already exists")

const questionColumns = `id, publisher, examination, year, paper, question_type, section, question_number,
	marks, correct_percentage, question_text_chi, question_text_eng, answer, markers_report,
	multiple_selection_type, graph_type, table_type, calculation_type, option_design, remarks,
	ai_explanation, curriculum_json, chapter_json, concepts_json, patterns_json, date_added, date_modified`

const questionPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ListQuestions returns every stored question in insertion order.
func (s *SQLStore) ListQuestions(ctx context.Context) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (models.Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	return scanQuestion(row)
}

func (s *SQLStore) CountQuestions(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM questions`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CreateQuestion inserts q and fails with ErrQuestionExists when the id is taken.
func (s *SQLStore) CreateQuestion(ctx context.Context, q models.Question) (models.Question, error) {
	if _, err := s.GetQuestion(ctx, q.ID); err == nil {
		return models.Question{}, ErrQuestionExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return models.Question{}, err
	}
	if err := insertQuestion(ctx, s.db, stamp(q, time.Now().UTC())); err != nil {
		return models.Question{}, err
	}
	return s.GetQuestion(ctx, q.ID)
}

// UpsertQuestion writes q keyed by id, keeping the original date_added of an
// existing row.
func (s *SQLStore) UpsertQuestion(ctx context.Context, q models.Question) (models.Question, error) {
	q = stamp(q, time.Now().UTC())
	args, err := questionArgs(q)
	if err != nil {
		return models.Question{}, err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO questions (`+questionColumns+`) VALUES (`+questionPlaceholders+`)
		ON CONFLICT(id) DO UPDATE SET
			publisher = excluded.publisher,
			examination = excluded.examination,
			year = excluded.year,
			paper = excluded.paper,
			question_type = excluded.question_type,
			section = excluded.section,
			question_number = excluded.question_number,
			marks = excluded.marks,
			correct_percentage = excluded.correct_percentage,
			question_text_chi = excluded.question_text_chi,
			question_text_eng = excluded.question_text_eng,
			answer = excluded.answer,
			markers_report = excluded.markers_report,
			multiple_selection_type = excluded.multiple_selection_type,
			graph_type = excluded.graph_type,
			table_type = excluded.table_type,
			calculation_type = excluded.calculation_type,
			option_design = excluded.option_design,
			remarks = excluded.remarks,
			ai_explanation = excluded.ai_explanation,
			curriculum_json = excluded.curriculum_json,
			chapter_json = excluded.chapter_json,
			concepts_json = excluded.concepts_json,
			patterns_json = excluded.patterns_json,
			date_modified = excluded.date_modified`,
		args...,
	)
	if err != nil {
		return models.Question{}, err
	}
	return s.GetQuestion(ctx, q.ID)
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (s *SQLStore) ClearQuestions(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM questions`)
	return err
}

// ReplaceQuestions swaps the whole collection inside one transaction. Rows
// that cannot be stored (missing identity, duplicate id) are skipped.
func (s *SQLStore) ReplaceQuestions(ctx context.Context, questions []models.Question) (imported int, skipped int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions`); err != nil {
		return 0, 0, err
	}
	now := time.Now().UTC()
	for _, q := range questions {
		if !q.IsImportable() {
			skipped++
			continue
		}
		if err := insertQuestion(ctx, tx, stamp(q, now)); err != nil {
			if ctx.Err() != nil {
				return 0, 0, ctx.Err()
			}
			skipped++
			continue
		}
		imported++
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return imported, skipped, nil
}

// FindDuplicate returns the id of another question sharing examination, year,
// section and question number with q.
func (s *SQLStore) FindDuplicate(ctx context.Context, q models.Question) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id FROM questions
		WHERE examination = ? AND year = ? AND section = ? AND question_number = ? AND id <> ?
		ORDER BY rowid ASC LIMIT 1`,
		q.Examination,
		q.Year.String(),
		q.Section,
		q.QuestionNumber,
		q.ID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func stamp(q models.Question, now time.Time) models.Question {
	if q.DateAdded.IsZero() {
		q.DateAdded = now
	}
	q.DateModified = now
	return q
}

func insertQuestion(ctx context.Context, db execer, q models.Question) error {
	args, err := questionArgs(q)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO questions (`+questionColumns+`) VALUES (`+questionPlaceholders+`)`, args...)
	return err
}

func questionArgs(q models.Question) ([]any, error) {
	lists := make([]string, 0, 4)
	for _, values := range [][]string{q.CurriculumClassification, q.ChapterClassification, q.Concepts, q.Patterns} {
		raw, err := json.Marshal(models.CleanList(values))
		if err != nil {
			return nil, fmt.Errorf("encode list: %w", err)
		}
		lists = append(lists, string(raw))
	}
	return []any{
		q.ID,
		q.Publisher,
		q.Examination,
		q.Year.String(),
		q.Paper,
		q.QuestionType,
		q.Section,
		q.QuestionNumber,
		nullableFloat(q.Marks),
		nullableFloat(q.CorrectPercentage),
		q.QuestionTextChi,
		q.QuestionTextEng,
		q.Answer,
		q.MarkersReport,
		q.MultipleSelectionType,
		q.GraphType,
		q.TableType,
		q.CalculationType,
		q.OptionDesign,
		q.Remarks,
		q.AIExplanation,
		lists[0],
		lists[1],
		lists[2],
		lists[3],
		q.DateAdded.UTC().Format(time.RFC3339Nano),
		q.DateModified.UTC().Format(time.RFC3339Nano),
	}, nil
}

func scanQuestion(scanner rowScanner) (models.Question, error) {
	var q models.Question
	var year string
	var marks sql.NullFloat64
	var pct sql.NullFloat64
	var curriculumJSON, chapterJSON, conceptsJSON, patternsJSON string
	var dateAdded, dateModified string
	if err := scanner.Scan(
		&q.ID,
		&q.Publisher,
		&q.Examination,
		&year,
		&q.Paper,
		&q.QuestionType,
		&q.Section,
		&q.QuestionNumber,
		&marks,
		&pct,
		&q.QuestionTextChi,
		&q.QuestionTextEng,
		&q.Answer,
		&q.MarkersReport,
		&q.MultipleSelectionType,
		&q.GraphType,
		&q.TableType,
		&q.CalculationType,
		&q.OptionDesign,
		&q.Remarks,
		&q.AIExplanation,
		&curriculumJSON,
		&chapterJSON,
		&conceptsJSON,
		&patternsJSON,
		&dateAdded,
		&dateModified,
	); err != nil {
		return models.Question{}, err
	}
	q.Year = models.ParseYear(year)
	if marks.Valid {
		q.Marks = &marks.Float64
	}
	if pct.Valid {
		q.CorrectPercentage = &pct.Float64
	}

	var err error
	if q.CurriculumClassification, err = decodeList(curriculumJSON); err != nil {
		return models.Question{}, err
	}
	if q.ChapterClassification, err = decodeList(chapterJSON); err != nil {
		return models.Question{}, err
	}
	if q.Concepts, err = decodeList(conceptsJSON); err != nil {
		return models.Question{}, err
	}
	if q.Patterns, err = decodeList(patternsJSON); err != nil {
		return models.Question{}, err
	}
	if q.DateAdded, err = parseTime(dateAdded); err != nil {
		return models.Question{}, err
	}
	if q.DateModified, err = parseTime(dateModified); err != nil {
		return models.Question{}, err
	}
	return q, nil
}

func decodeList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return models.CleanList(values), nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
