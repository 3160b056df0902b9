package facet

import "github.com/shinyes/pastpaper/internal/models"

type scalarGetter func(q *models.Question) string
type listGetter func(q *models.Question) []string
type numberGetter func(q *models.Question) *float64

var scalarFields = map[string]scalarGetter{
	"id":                    func(q *models.Question) string { return q.ID },
	"publisher":             func(q *models.Question) string { return q.Publisher },
	"examination":           func(q *models.Question) string { return q.Examination },
	"year":                  func(q *models.Question) string { return q.Year.String() },
	"paper":                 func(q *models.Question) string { return q.Paper },
	"questionType":          func(q *models.Question) string { return q.QuestionType },
	"section":               func(q *models.Question) string { return q.Section },
	"questionNumber":        func(q *models.Question) string { return q.QuestionNumber },
	"questionTextChi":       func(q *models.Question) string { return q.QuestionTextChi },
	"questionTextEng":       func(q *models.Question) string { return q.QuestionTextEng },
	"answer":                func(q *models.Question) string { return q.Answer },
	"markersReport":         func(q *models.Question) string { return q.MarkersReport },
	"multipleSelectionType": func(q *models.Question) string { return q.MultipleSelectionType },
	"graphType":             func(q *models.Question) string { return q.GraphType },
	"tableType":             func(q *models.Question) string { return q.TableType },
	"calculationType":       func(q *models.Question) string { return q.CalculationType },
	"AIExplanation":         func(q *models.Question) string { return q.AIExplanation },
}

var listFields = map[string]listGetter{
	"curriculumClassification": func(q *models.Question) []string { return q.CurriculumClassification },
	"chapterClassification":    func(q *models.Question) []string { return q.ChapterClassification },
	"concepts":                 func(q *models.Question) []string { return q.Concepts },
	"patterns":                 func(q *models.Question) []string { return q.Patterns },
}

var numberFields = map[string]numberGetter{
	"marks":             func(q *models.Question) *float64 { return q.Marks },
	"correctPercentage": func(q *models.Question) *float64 { return q.CorrectPercentage },
}

func isScalarField(name string) bool {
	_, ok := scalarFields[name]
	return ok
}

func isListField(name string) bool {
	_, ok := listFields[name]
	return ok
}

func isNumberField(name string) bool {
	_, ok := numberFields[name]
	return ok
}
