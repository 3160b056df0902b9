package facet

import (
	"math"
	"strings"

	"github.com/shinyes/pastpaper/internal/models"
)

// Plan is a compiled filter spec. It holds no reference into the Spec it was
// compiled from.
type Plan struct {
	table   Table
	search  Predicate
	ranges  []Predicate
	facets  map[string]Predicate
	expr    Predicate
	exprErr error
	states  map[string]map[string]State
}

// Compile builds the predicate set for spec. Unknown facets, unknown ranges
// and malformed bounds are ignored.
func Compile(spec Spec, table Table) *Plan {
	p := &Plan{
		table:  table,
		search: searchPredicate(spec.Search, spec.Scope),
		facets: map[string]Predicate{},
		states: spec.Clone().Facets,
	}

	for _, def := range table.Ranges {
		if pred := compileRange(def, spec.Ranges[def.Name]); pred != nil {
			p.ranges = append(p.ranges, pred)
		}
	}

	for _, def := range table.Facets {
		checked, excluded := spec.split(def.Name)
		var pred Predicate
		switch def.Kind {
		case KindScalar:
			if get, ok := scalarFields[def.Field]; ok {
				pred = scalarPredicate(get, checked, excluded)
			}
		case KindArray:
			if get, ok := listFields[def.Field]; ok {
				pred = arrayPredicate(get, spec.LogicOf(def.Name, def.Logic), checked, excluded)
			}
		case KindPresence:
			if get, ok := scalarFields[def.Field]; ok {
				_, wantPresent := checked[def.Value]
				_, wantAbsent := excluded[def.Value]
				pred = presencePredicate(get, wantPresent, wantAbsent)
			}
		case KindFeature:
			pred = featurePredicate(def.Features, checked, excluded)
		}
		if pred != nil {
			p.facets[def.Name] = pred
		}
	}

	if strings.TrimSpace(spec.Expr) != "" {
		expr, err := CompileExpr(spec.Expr)
		if err != nil {
			p.exprErr = err
		} else {
			p.expr = expr.Predicate()
		}
	}
	return p
}

// ExprError is the compile error of the advanced expression, if any. A
// failed expression is not applied.
func (p *Plan) ExprError() error {
	return p.exprErr
}

// Active reports whether the facet contributes a predicate.
func (p *Plan) Active(facet string) bool {
	_, ok := p.facets[facet]
	return ok
}

// Filter returns the records passing every predicate except those of the
// excluded facets. Input order is preserved and records is not modified.
func (p *Plan) Filter(records []models.Question, exclude ...string) []models.Question {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}
	return p.filter(records, skip)
}

func (p *Plan) filter(records []models.Question, skip map[string]bool) []models.Question {
	preds := make([]Predicate, 0, len(p.facets)+len(p.ranges)+2)
	if p.search != nil {
		preds = append(preds, p.search)
	}
	preds = append(preds, p.ranges...)
	for _, def := range p.table.Facets {
		if skip[def.Name] {
			continue
		}
		if pred, ok := p.facets[def.Name]; ok {
			preds = append(preds, pred)
		}
	}
	if p.expr != nil {
		preds = append(preds, p.expr)
	}

	out := make([]models.Question, 0, len(records))
	for i := range records {
		q := &records[i]
		keep := true
		for _, pred := range preds {
			if !pred(q) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, *q)
		}
	}
	return out
}

// Evaluate filters records by spec, skipping the predicates of the named
// facets.
func Evaluate(records []models.Question, spec Spec, table Table, exclude ...string) []models.Question {
	return Compile(spec, table).Filter(records, exclude...)
}

// RangeActive reports whether r narrows def's domain.
func RangeActive(def RangeDefinition, r Range) bool {
	lo, hi, ok := rangeBounds(def, r)
	if !ok {
		return false
	}
	return lo > def.Min || hi < def.Max
}

func compileRange(def RangeDefinition, r Range) Predicate {
	get, ok := numberFields[def.Field]
	if !ok || !RangeActive(def, r) {
		return nil
	}
	lo, hi, _ := rangeBounds(def, r)
	return rangePredicate(get, lo, hi)
}

func rangeBounds(def RangeDefinition, r Range) (float64, float64, bool) {
	lo, hi := def.Min, def.Max
	if r.Min != nil {
		lo = *r.Min
	}
	if r.Max != nil {
		hi = *r.Max
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}
