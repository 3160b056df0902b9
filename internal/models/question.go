package models

import (
	"strings"
	"time"
)

// NoneValue marks a categorical feature field that was left blank.
const NoneValue = "-"

type Question struct {
	ID                       string    `json:"id"`
	Publisher                string    `json:"publisher,omitempty"`
	Examination              string    `json:"examination"`
	Year                     Year      `json:"year"`
	Paper                    string    `json:"paper,omitempty"`
	QuestionType             string    `json:"questionType,omitempty"`
	Section                  string    `json:"section,omitempty"`
	QuestionNumber           string    `json:"questionNumber,omitempty"`
	Marks                    *float64  `json:"marks,omitempty"`
	CorrectPercentage        *float64  `json:"correctPercentage,omitempty"`
	QuestionTextChi          string    `json:"questionTextChi,omitempty"`
	QuestionTextEng          string    `json:"questionTextEng,omitempty"`
	Answer                   string    `json:"answer,omitempty"`
	MarkersReport            string    `json:"markersReport,omitempty"`
	MultipleSelectionType    string    `json:"multipleSelectionType,omitempty"`
	GraphType                string    `json:"graphType,omitempty"`
	TableType                string    `json:"tableType,omitempty"`
	CalculationType          string    `json:"calculationType,omitempty"`
	OptionDesign             string    `json:"optionDesign,omitempty"`
	Remarks                  string    `json:"remarks,omitempty"`
	AIExplanation            string    `json:"AIExplanation,omitempty"`
	CurriculumClassification []string  `json:"curriculumClassification"`
	ChapterClassification    []string  `json:"chapterClassification"`
	Concepts                 []string  `json:"concepts"`
	Patterns                 []string  `json:"patterns"`
	DateAdded                time.Time `json:"dateAdded"`
	DateModified             time.Time `json:"dateModified"`
}

// HasAIExplanation reports whether the explanation link is non-blank.
func (q Question) HasAIExplanation() bool {
	return strings.TrimSpace(q.AIExplanation) != ""
}

// NormalizeQuestion trims every text field, fills blank feature fields with
// NoneValue and guarantees non-nil classification slices.
func NormalizeQuestion(q Question) Question {
	q.ID = strings.TrimSpace(q.ID)
	q.Publisher = strings.TrimSpace(q.Publisher)
	q.Examination = strings.TrimSpace(q.Examination)
	q.Paper = strings.TrimSpace(q.Paper)
	q.QuestionType = strings.TrimSpace(q.QuestionType)
	q.Section = strings.TrimSpace(q.Section)
	q.QuestionNumber = strings.TrimSpace(q.QuestionNumber)
	q.QuestionTextChi = strings.TrimSpace(q.QuestionTextChi)
	q.QuestionTextEng = strings.TrimSpace(q.QuestionTextEng)
	q.Answer = strings.TrimSpace(q.Answer)
	q.MarkersReport = strings.TrimSpace(q.MarkersReport)
	q.OptionDesign = strings.TrimSpace(q.OptionDesign)
	q.Remarks = strings.TrimSpace(q.Remarks)
	q.AIExplanation = strings.TrimSpace(q.AIExplanation)
	q.MultipleSelectionType = orNone(q.MultipleSelectionType)
	q.GraphType = orNone(q.GraphType)
	q.TableType = orNone(q.TableType)
	q.CalculationType = orNone(q.CalculationType)
	q.CurriculumClassification = CleanList(q.CurriculumClassification)
	q.ChapterClassification = CleanList(q.ChapterClassification)
	q.Concepts = CleanList(q.Concepts)
	q.Patterns = CleanList(q.Patterns)
	return q
}

// IsImportable reports whether the record carries the minimum identity
// fields required for storage.
func (q Question) IsImportable() bool {
	return isPresent(q.ID) && isPresent(q.Examination)
}

// SplitList parses a comma separated cell into a cleaned list.
func SplitList(raw string) []string {
	return CleanList(strings.Split(raw, ","))
}

func CleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func orNone(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return NoneValue
	}
	return v
}

func isPresent(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NoneValue
}
