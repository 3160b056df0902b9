package facet

import (
	"strings"

	"github.com/shinyes/pastpaper/internal/models"
)

// Scopes lists the selectable search scopes in display order.
var Scopes = []SearchScope{
	ScopeAll,
	ScopeID,
	ScopeContent,
	ScopePublisher,
	ScopeExam,
	ScopeSection,
	ScopeAnswer,
	ScopeConcepts,
	ScopePatterns,
	ScopeMarkersReport,
}

// ScopeFields maps a scope to the source columns it reads, used to hide
// scopes whose columns the data source does not provide.
var ScopeFields = map[SearchScope][]string{
	ScopeID:            {"id"},
	ScopeContent:       {"questionTextChi", "questionTextEng"},
	ScopePublisher:     {"publisher"},
	ScopeExam:          {"examination", "section", "questionNumber"},
	ScopeSection:       {"section"},
	ScopeAnswer:        {"answer"},
	ScopeConcepts:      {"concepts"},
	ScopePatterns:      {"patterns"},
	ScopeMarkersReport: {"markersReport"},
}

// AvailableScopes filters Scopes down to those backed by at least one of the
// given fields. An empty field set means every scope is available.
func AvailableScopes(fields map[string]bool) []SearchScope {
	if len(fields) == 0 {
		return append([]SearchScope(nil), Scopes...)
	}
	out := []SearchScope{ScopeAll}
	for _, scope := range Scopes[1:] {
		for _, f := range ScopeFields[scope] {
			if fields[f] {
				out = append(out, scope)
				break
			}
		}
	}
	return out
}

func searchPredicate(term string, scope SearchScope) Predicate {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}
	has := func(v string) bool {
		return v != "" && strings.Contains(strings.ToLower(v), needle)
	}
	anyOf := func(values []string) bool {
		for _, v := range values {
			if has(v) {
				return true
			}
		}
		return false
	}
	content := func(q *models.Question) bool {
		return has(q.QuestionTextChi) || has(q.QuestionTextEng)
	}
	exam := func(q *models.Question) bool {
		return has(q.Examination) || has(q.Section) || has(q.QuestionNumber)
	}

	switch scope {
	case ScopeID:
		return func(q *models.Question) bool { return has(q.ID) }
	case ScopeContent:
		return content
	case ScopePublisher:
		return func(q *models.Question) bool { return has(q.Publisher) }
	case ScopeExam:
		return exam
	case ScopeSection:
		return func(q *models.Question) bool { return has(q.Section) }
	case ScopeAnswer:
		return func(q *models.Question) bool { return has(q.Answer) }
	case ScopeConcepts:
		return func(q *models.Question) bool { return anyOf(q.Concepts) }
	case ScopePatterns:
		return func(q *models.Question) bool { return anyOf(q.Patterns) }
	case ScopeMarkersReport:
		return func(q *models.Question) bool { return has(q.MarkersReport) }
	default:
		return func(q *models.Question) bool {
			return has(q.ID) || exam(q) || content(q) || has(q.Publisher)
		}
	}
}
