package facet

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"

	"github.com/shinyes/pastpaper/internal/models"
)

// Expr is a compiled CEL boolean expression over a question.
type Expr struct {
	program cel.Program
}

var (
	exprEnvOnce sync.Once
	exprEnv     *cel.Env
	exprEnvErr  error
)

func questionEnv() (*cel.Env, error) {
	exprEnvOnce.Do(func() {
		exprEnv, exprEnvErr = cel.NewEnv(
			cel.Variable("id", cel.StringType),
			cel.Variable("publisher", cel.StringType),
			cel.Variable("examination", cel.StringType),
			cel.Variable("year", cel.StringType),
			cel.Variable("year_number", cel.IntType),
			cel.Variable("paper", cel.StringType),
			cel.Variable("question_type", cel.StringType),
			cel.Variable("section", cel.StringType),
			cel.Variable("question_number", cel.StringType),
			cel.Variable("marks", cel.DoubleType),
			cel.Variable("has_marks", cel.BoolType),
			cel.Variable("correct_percentage", cel.DoubleType),
			cel.Variable("has_percentage", cel.BoolType),
			cel.Variable("curriculum", cel.ListType(cel.StringType)),
			cel.Variable("chapters", cel.ListType(cel.StringType)),
			cel.Variable("concepts", cel.ListType(cel.StringType)),
			cel.Variable("patterns", cel.ListType(cel.StringType)),
			cel.Variable("has_ai_explanation", cel.BoolType),
		)
	})
	return exprEnv, exprEnvErr
}

func CompileExpr(raw string) (*Expr, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return nil, fmt.Errorf("empty expression")
	}
	env, err := questionEnv()
	if err != nil {
		return nil, fmt.Errorf("build CEL env: %w", err)
	}
	ast, issues := env.Compile(normalized)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid CEL filter: %w", issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build CEL program: %w", err)
	}
	return &Expr{program: program}, nil
}

func (e *Expr) Matches(q *models.Question) (bool, error) {
	if e == nil {
		return true, nil
	}
	out, _, err := e.program.Eval(activation(q))
	if err != nil {
		return false, fmt.Errorf("evaluate CEL filter: %w", err)
	}
	return asBool(out)
}

// Predicate adapts the expression; evaluation errors reject the record.
func (e *Expr) Predicate() Predicate {
	return func(q *models.Question) bool {
		ok, err := e.Matches(q)
		return err == nil && ok
	}
}

func activation(q *models.Question) map[string]any {
	marks, hasMarks := 0.0, q.Marks != nil
	if hasMarks {
		marks = *q.Marks
	}
	pct, hasPct := 0.0, q.CorrectPercentage != nil
	if hasPct {
		pct = *q.CorrectPercentage
	}
	yearNumber := int64(0)
	if q.Year.IsNumeric() {
		yearNumber = int64(q.Year.Number)
	}
	return map[string]any{
		"id":                 q.ID,
		"publisher":          q.Publisher,
		"examination":        q.Examination,
		"year":               q.Year.String(),
		"year_number":        yearNumber,
		"paper":              q.Paper,
		"question_type":      q.QuestionType,
		"section":            q.Section,
		"question_number":    q.QuestionNumber,
		"marks":              marks,
		"has_marks":          hasMarks,
		"correct_percentage": pct,
		"has_percentage":     hasPct,
		"curriculum":         nonNil(q.CurriculumClassification),
		"chapters":           nonNil(q.ChapterClassification),
		"concepts":           nonNil(q.Concepts),
		"patterns":           nonNil(q.Patterns),
		"has_ai_explanation": q.HasAIExplanation(),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func asBool(v ref.Val) (bool, error) {
	switch val := v.Value().(type) {
	case bool:
		return val, nil
	default:
		return false, fmt.Errorf("filter expression must return bool, got %T", val)
	}
}
