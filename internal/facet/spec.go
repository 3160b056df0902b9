package facet

import (
	"bytes"
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// State is the tri-state selection of a single facet value. A value that is
// absent from a facet's selection map is neutral.
type State string

const (
	StateNeutral  State = ""
	StateChecked  State = "checked"
	StateExcluded State = "excluded"
)

func (s State) IsValid() bool {
	return s == StateChecked || s == StateExcluded
}

// Logic controls how several checked values of an array facet combine.
type Logic string

const (
	LogicOr  Logic = "OR"
	LogicAnd Logic = "AND"
)

func normalizeLogic(l Logic) Logic {
	if Logic(strings.ToUpper(string(l))) == LogicAnd {
		return LogicAnd
	}
	return LogicOr
}

type SearchScope string

const (
	ScopeAll           SearchScope = "all"
	ScopeID            SearchScope = "id"
	ScopeContent       SearchScope = "content"
	ScopePublisher     SearchScope = "publisher"
	ScopeExam          SearchScope = "exam"
	ScopeSection       SearchScope = "section"
	ScopeAnswer        SearchScope = "answer"
	ScopeConcepts      SearchScope = "concepts"
	ScopePatterns      SearchScope = "patterns"
	ScopeMarkersReport SearchScope = "markersReport"
)

// Range bounds a numeric facet. Nil bounds fall back to the facet domain.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// UnmarshalJSON accepts numbers and numeric strings. A range with a bound
// that is not a number decodes as the zero Range, which is inactive.
func (r *Range) UnmarshalJSON(data []byte) error {
	*r = Range{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	lo, okLo := looseNumber(raw["min"])
	hi, okHi := looseNumber(raw["max"])
	if okLo && okHi {
		r.Min, r.Max = lo, hi
	}
	return nil
}

// looseNumber returns nil, true for a missing or null bound and false for a
// bound that is present but not a finite number.
func looseNumber(raw json.RawMessage) (*float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, false
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(text), 64); err != nil {
			return nil, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &f, true
}

func looseString(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return ""
	}
	return text
}

func looseObject(raw json.RawMessage) map[string]json.RawMessage {
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// Spec is the caller-owned filter state. Evaluation treats it as read-only.
type Spec struct {
	Search string                      `json:"search,omitempty"`
	Scope  SearchScope                 `json:"scope,omitempty"`
	Ranges map[string]Range            `json:"ranges,omitempty"`
	Facets map[string]map[string]State `json:"facets,omitempty"`
	Logic  map[string]Logic            `json:"logic,omitempty"`
	Expr   string                      `json:"expr,omitempty"`
}

// UnmarshalJSON decodes filter state from clients. Entries of the wrong
// shape are dropped instead of failing the request, so a malformed part of
// the filter is simply inactive.
func (s *Spec) UnmarshalJSON(data []byte) error {
	*s = Spec{}
	raw := looseObject(data)
	if raw == nil {
		return nil
	}
	s.Search = looseString(raw["search"])
	s.Scope = SearchScope(looseString(raw["scope"]))
	s.Expr = looseString(raw["expr"])

	for name, entry := range looseObject(raw["ranges"]) {
		var r Range
		_ = json.Unmarshal(entry, &r)
		if r.Min == nil && r.Max == nil {
			continue
		}
		if s.Ranges == nil {
			s.Ranges = map[string]Range{}
		}
		s.Ranges[name] = r
	}
	for name, entry := range looseObject(raw["facets"]) {
		for value, state := range looseObject(entry) {
			s.Set(name, value, State(looseString(state)))
		}
	}
	for name, entry := range looseObject(raw["logic"]) {
		if l := Logic(looseString(entry)); l != "" {
			if s.Logic == nil {
				s.Logic = map[string]Logic{}
			}
			s.Logic[name] = l
		}
	}
	return nil
}

// Selection is one non-neutral facet value.
type Selection struct {
	Facet string `json:"facet"`
	Value string `json:"value"`
	State State  `json:"state"`
}

func (s Spec) Clone() Spec {
	out := Spec{
		Search: s.Search,
		Scope:  s.Scope,
		Expr:   s.Expr,
		Ranges: maps.Clone(s.Ranges),
		Logic:  maps.Clone(s.Logic),
	}
	if s.Facets != nil {
		out.Facets = make(map[string]map[string]State, len(s.Facets))
		for name, values := range s.Facets {
			out.Facets[name] = maps.Clone(values)
		}
	}
	return out
}

// StateOf returns the state of value within facet.
func (s Spec) StateOf(facet string, value string) State {
	st := s.Facets[facet][value]
	if !st.IsValid() {
		return StateNeutral
	}
	return st
}

// Set assigns a state; StateNeutral removes the value.
func (s *Spec) Set(facet string, value string, state State) {
	if !state.IsValid() {
		s.Remove(facet, value)
		return
	}
	if s.Facets == nil {
		s.Facets = map[string]map[string]State{}
	}
	if s.Facets[facet] == nil {
		s.Facets[facet] = map[string]State{}
	}
	s.Facets[facet][value] = state
}

// Toggle cycles a value neutral -> checked -> excluded -> neutral and returns
// the new state.
func (s *Spec) Toggle(facet string, value string) State {
	next := StateChecked
	switch s.StateOf(facet, value) {
	case StateChecked:
		next = StateExcluded
	case StateExcluded:
		next = StateNeutral
	}
	s.Set(facet, value, next)
	return next
}

func (s *Spec) Remove(facet string, value string) {
	values := s.Facets[facet]
	if values == nil {
		return
	}
	delete(values, value)
	if len(values) == 0 {
		delete(s.Facets, facet)
	}
}

func (s *Spec) ClearFacet(facet string) {
	delete(s.Facets, facet)
}

// LogicOf returns the combine logic for an array facet, falling back to def.
func (s Spec) LogicOf(facet string, def Logic) Logic {
	if l, ok := s.Logic[facet]; ok && l != "" {
		return normalizeLogic(l)
	}
	return normalizeLogic(def)
}

// Selections lists every non-neutral value, ordered by facet then value.
func (s Spec) Selections() []Selection {
	out := make([]Selection, 0)
	for _, facet := range slices.Sorted(maps.Keys(s.Facets)) {
		values := s.Facets[facet]
		for _, value := range slices.Sorted(maps.Keys(values)) {
			if st := values[value]; st.IsValid() {
				out = append(out, Selection{Facet: facet, Value: value, State: st})
			}
		}
	}
	return out
}

func (s Spec) split(facet string) (checked map[string]struct{}, excluded map[string]struct{}) {
	checked = map[string]struct{}{}
	excluded = map[string]struct{}{}
	for value, st := range s.Facets[facet] {
		switch st {
		case StateChecked:
			checked[value] = struct{}{}
		case StateExcluded:
			excluded[value] = struct{}{}
		}
	}
	return checked, excluded
}
