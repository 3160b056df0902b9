package facet

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/shinyes/pastpaper/internal/models"
)

type SortKey string

const (
	SortDefault        SortKey = "default"
	SortYearDesc       SortKey = "year-desc"
	SortYearAsc        SortKey = "year-asc"
	SortQuestionAsc    SortKey = "question-asc"
	SortQuestionDesc   SortKey = "question-desc"
	SortMarksAsc       SortKey = "marks-asc"
	SortMarksDesc      SortKey = "marks-desc"
	SortPercentageAsc  SortKey = "percentage-asc"
	SortPercentageDesc SortKey = "percentage-desc"
)

var questionNumberPattern = regexp.MustCompile(`^(\d+)([A-Za-z]*)$`)

type questionNumber struct {
	num    int
	letter string
}

func parseQuestionNumber(raw string) questionNumber {
	raw = strings.TrimSpace(raw)
	m := questionNumberPattern.FindStringSubmatch(raw)
	if m == nil {
		return questionNumber{letter: strings.ToLower(raw)}
	}
	n, _ := strconv.Atoi(m[1])
	return questionNumber{num: n, letter: strings.ToLower(m[2])}
}

// Sort returns a stably sorted copy of records. Unknown keys sort as
// SortDefault.
func Sort(records []models.Question, key SortKey) []models.Question {
	out := slices.Clone(records)
	slices.SortStableFunc(out, comparator(key))
	return out
}

func comparator(key SortKey) func(a, b models.Question) int {
	switch key {
	case SortYearAsc:
		return func(a, b models.Question) int {
			return then(compareYear(a.Year, b.Year, false), func() int { return compareLayout(a, b) })
		}
	case SortQuestionAsc:
		return func(a, b models.Question) int {
			return then(compareQuestionNumber(a.QuestionNumber, b.QuestionNumber), func() int { return compareYear(a.Year, b.Year, true) })
		}
	case SortQuestionDesc:
		return func(a, b models.Question) int {
			return then(compareQuestionNumber(b.QuestionNumber, a.QuestionNumber), func() int { return compareYear(a.Year, b.Year, true) })
		}
	case SortMarksAsc:
		return func(a, b models.Question) int {
			return then(compareOptional(a.Marks, b.Marks, false), func() int { return compareYear(a.Year, b.Year, true) })
		}
	case SortMarksDesc:
		return func(a, b models.Question) int {
			return then(compareOptional(a.Marks, b.Marks, true), func() int { return compareYear(a.Year, b.Year, true) })
		}
	case SortPercentageAsc:
		return func(a, b models.Question) int {
			return then(compareOptional(a.CorrectPercentage, b.CorrectPercentage, false), func() int { return compareYear(a.Year, b.Year, true) })
		}
	case SortPercentageDesc:
		return func(a, b models.Question) int {
			return then(compareOptional(a.CorrectPercentage, b.CorrectPercentage, true), func() int { return compareYear(a.Year, b.Year, true) })
		}
	default:
		return func(a, b models.Question) int {
			return then(compareYear(a.Year, b.Year, true), func() int { return compareLayout(a, b) })
		}
	}
}

func then(first int, next func() int) int {
	if first != 0 {
		return first
	}
	return next()
}

// compareLayout orders by paper, section and question number, all ascending.
func compareLayout(a, b models.Question) int {
	if c := CompareText(a.Paper, b.Paper); c != 0 {
		return c
	}
	if c := CompareText(sectionKey(a.Section), sectionKey(b.Section)); c != 0 {
		return c
	}
	return compareQuestionNumber(a.QuestionNumber, b.QuestionNumber)
}

func sectionKey(s string) string {
	s = strings.TrimSpace(s)
	if s == models.NoneValue {
		return ""
	}
	return s
}

func compareQuestionNumber(a, b string) int {
	qa, qb := parseQuestionNumber(a), parseQuestionNumber(b)
	if c := cmp.Compare(qa.num, qb.num); c != 0 {
		return c
	}
	return strings.Compare(qa.letter, qb.letter)
}

// compareYear puts numeric years first in the requested direction, then
// sentinel labels, then absent years.
func compareYear(a, b models.Year, desc bool) int {
	ra, rb := yearRank(a), yearRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case 0:
		if desc {
			return cmp.Compare(b.Number, a.Number)
		}
		return cmp.Compare(a.Number, b.Number)
	case 1:
		if desc {
			return CompareText(b.Sentinel, a.Sentinel)
		}
		return CompareText(a.Sentinel, b.Sentinel)
	}
	return 0
}

func yearRank(y models.Year) int {
	switch {
	case y.IsNumeric():
		return 0
	case y.Sentinel != "":
		return 1
	default:
		return 2
	}
}

// compareOptional sorts missing values last regardless of direction.
func compareOptional(a, b *float64, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if desc {
		return cmp.Compare(*b, *a)
	}
	return cmp.Compare(*a, *b)
}
