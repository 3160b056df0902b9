package sheets

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shinyes/pastpaper/internal/models"
)

const (
	fieldSeparator = "\x1e"
	rowSeparator   = "\x1f"
)

var ErrEmptyData = errors.New("spreadsheet data is empty")

// ParseResult holds the importable rows of one download.
type ParseResult struct {
	Questions []models.Question
	Skipped   int
	// Fields is the canonical header set, used to hide search scopes whose
	// columns the sheet does not provide.
	Fields []string
}

type setter func(q *models.Question, v string)

func text(dst func(q *models.Question) *string) setter {
	return func(q *models.Question, v string) { *dst(q) = strings.TrimSpace(v) }
}

func list(dst func(q *models.Question) *[]string) setter {
	return func(q *models.Question, v string) { *dst(q) = models.SplitList(v) }
}

func number(dst func(q *models.Question) **float64) setter {
	return func(q *models.Question, v string) {
		if f, ok := parseNumber(v); ok {
			*dst(q) = &f
		}
	}
}

var setters = map[string]setter{
	"id":                       text(func(q *models.Question) *string { return &q.ID }),
	"publisher":                text(func(q *models.Question) *string { return &q.Publisher }),
	"examination":              text(func(q *models.Question) *string { return &q.Examination }),
	"year":                     func(q *models.Question, v string) { q.Year = models.ParseYear(v) },
	"paper":                    text(func(q *models.Question) *string { return &q.Paper }),
	"questionType":             text(func(q *models.Question) *string { return &q.QuestionType }),
	"section":                  text(func(q *models.Question) *string { return &q.Section }),
	"questionNumber":           text(func(q *models.Question) *string { return &q.QuestionNumber }),
	"marks":                    number(func(q *models.Question) **float64 { return &q.Marks }),
	"correctPercentage":        number(func(q *models.Question) **float64 { return &q.CorrectPercentage }),
	"questionTextChi":          text(func(q *models.Question) *string { return &q.QuestionTextChi }),
	"questionTextEng":          text(func(q *models.Question) *string { return &q.QuestionTextEng }),
	"answer":                   text(func(q *models.Question) *string { return &q.Answer }),
	"markersReport":            text(func(q *models.Question) *string { return &q.MarkersReport }),
	"multipleSelectionType":    text(func(q *models.Question) *string { return &q.MultipleSelectionType }),
	"graphType":                text(func(q *models.Question) *string { return &q.GraphType }),
	"tableType":                text(func(q *models.Question) *string { return &q.TableType }),
	"calculationType":          text(func(q *models.Question) *string { return &q.CalculationType }),
	"optionDesign":             text(func(q *models.Question) *string { return &q.OptionDesign }),
	"remarks":                  text(func(q *models.Question) *string { return &q.Remarks }),
	"AIExplanation":            text(func(q *models.Question) *string { return &q.AIExplanation }),
	"curriculumClassification": list(func(q *models.Question) *[]string { return &q.CurriculumClassification }),
	"chapterClassification":    list(func(q *models.Question) *[]string { return &q.ChapterClassification }),
	"concepts":                 list(func(q *models.Question) *[]string { return &q.Concepts }),
	"patterns":                 list(func(q *models.Question) *[]string { return &q.Patterns }),
}

// Older sheets used these header names.
var headerAliases = map[string]string{
	"AristochapterClassification": "chapterClassification",
	"patternTags":                 "patterns",
}

func canonicalHeader(h string) string {
	h = strings.TrimSpace(h)
	if alias, ok := headerAliases[h]; ok {
		return alias
	}
	return h
}

// Parse decodes the row/field separated table. The first row holds the
// field names; rows without a usable id or examination are skipped.
func Parse(data string) (ParseResult, error) {
	lines := make([]string, 0)
	for _, line := range strings.Split(data, rowSeparator) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ParseResult{}, ErrEmptyData
	}

	headers := strings.Split(lines[0], fieldSeparator)
	fields := make([]string, 0, len(headers))
	for i, h := range headers {
		headers[i] = canonicalHeader(h)
		if headers[i] != "" {
			fields = append(fields, headers[i])
		}
	}

	result := ParseResult{Questions: make([]models.Question, 0, len(lines)-1), Fields: fields}
	for _, line := range lines[1:] {
		values := strings.Split(line, fieldSeparator)
		var q models.Question
		for i, name := range headers {
			if i >= len(values) || values[i] == "" {
				continue
			}
			set, ok := setters[name]
			if !ok {
				continue
			}
			set(&q, strings.ReplaceAll(values[i], `\n`, "\n"))
		}
		q = models.NormalizeQuestion(q)
		if !q.IsImportable() {
			result.Skipped++
			continue
		}
		result.Questions = append(result.Questions, q)
	}
	return result, nil
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	// Leading numeric prefix, so "4 marks" reads as 4.
	end := 0
	for end < len(raw) && strings.ContainsRune("+-.0123456789eE", rune(raw[end])) {
		end++
	}
	for end > 0 {
		if f, err := strconv.ParseFloat(raw[:end], 64); err == nil {
			return f, true
		}
		end--
	}
	return 0, false
}
