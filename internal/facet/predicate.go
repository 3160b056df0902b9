package facet

import (
	"strings"

	"github.com/shinyes/pastpaper/internal/models"
)

// Predicate reports whether a question survives one facet's selection.
type Predicate func(q *models.Question) bool

func scalarPredicate(get scalarGetter, checked, excluded map[string]struct{}) Predicate {
	if len(checked) == 0 && len(excluded) == 0 {
		return nil
	}
	return func(q *models.Question) bool {
		v := strings.TrimSpace(get(q))
		if len(checked) > 0 {
			if _, ok := checked[v]; !ok {
				return false
			}
		}
		if len(excluded) > 0 {
			if _, ok := excluded[v]; ok {
				return false
			}
		}
		return true
	}
}

// arrayPredicate applies checked values with the given logic; excluded values
// always use "none of".
func arrayPredicate(get listGetter, logic Logic, checked, excluded map[string]struct{}) Predicate {
	if len(checked) == 0 && len(excluded) == 0 {
		return nil
	}
	return func(q *models.Question) bool {
		values := get(q)
		if len(checked) > 0 {
			if logic == LogicAnd {
				if !containsAll(values, checked) {
					return false
				}
			} else if !containsAny(values, checked) {
				return false
			}
		}
		if len(excluded) > 0 && containsAny(values, excluded) {
			return false
		}
		return true
	}
}

func presencePredicate(get scalarGetter, wantPresent, wantAbsent bool) Predicate {
	if !wantPresent && !wantAbsent {
		return nil
	}
	return func(q *models.Question) bool {
		present := strings.TrimSpace(get(q)) != ""
		if wantPresent && !present {
			return false
		}
		if wantAbsent && present {
			return false
		}
		return true
	}
}

// featurePredicate requires every checked feature present and every excluded
// feature absent.
func featurePredicate(features []Feature, checked, excluded map[string]struct{}) Predicate {
	var preds []Predicate
	for _, f := range features {
		get, ok := scalarFields[f.Field]
		if !ok {
			continue
		}
		none := noneSet(f.None)
		_, isChecked := checked[f.Value]
		_, isExcluded := excluded[f.Value]
		switch {
		case isChecked:
			preds = append(preds, func(q *models.Question) bool { return featurePresent(get(q), none) })
		case isExcluded:
			preds = append(preds, func(q *models.Question) bool { return !featurePresent(get(q), none) })
		}
	}
	return all(preds)
}

func rangePredicate(get numberGetter, lo, hi float64) Predicate {
	return func(q *models.Question) bool {
		v := get(q)
		if v == nil {
			return false
		}
		return *v >= lo && *v <= hi
	}
}

func featurePresent(v string, none map[string]struct{}) bool {
	v = strings.TrimSpace(v)
	if v == "" || v == models.NoneValue {
		return false
	}
	_, isNone := none[v]
	return !isNone
}

func noneSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func containsAny(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := set[strings.TrimSpace(v)]; ok {
			return true
		}
	}
	return false
}

func containsAll(values []string, set map[string]struct{}) bool {
	found := make(map[string]struct{}, len(set))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, ok := set[v]; ok {
			found[v] = struct{}{}
		}
	}
	return len(found) == len(set)
}

func all(preds []Predicate) Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	}
	return func(q *models.Question) bool {
		for _, p := range preds {
			if !p(q) {
				return false
			}
		}
		return true
	}
}
