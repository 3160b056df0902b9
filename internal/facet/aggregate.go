package facet

import (
	"maps"
	"slices"
	"strings"

	"github.com/shinyes/pastpaper/internal/models"
)

type Option struct {
	Value string `json:"value"`
	Count int    `json:"count"`
	State State  `json:"state"`
}

// Options is the option list of one facet computed over its context subset.
type Options struct {
	Facet   string   `json:"facet"`
	Label   string   `json:"label"`
	Kind    Kind     `json:"kind"`
	Options []Option `json:"options"`
}

func (o Options) Has(value string) bool {
	for _, opt := range o.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Aggregate computes def's options over the records left after applying
// every other facet outside def's group.
func (p *Plan) Aggregate(records []models.Question, def Definition) Options {
	subset := p.filter(records, p.table.contextExclusions(def))
	counts := countValues(subset, def)

	opts := make([]Option, 0, len(counts))
	for value, n := range counts {
		opts = append(opts, Option{Value: value, Count: n, State: p.stateOf(def.Name, value)})
	}
	sortOptions(opts, priorityOf(def))
	return Options{Facet: def.Name, Label: def.Label, Kind: def.Kind, Options: opts}
}

// AggregateAll computes every facet of the table and reports the selections
// that no longer reference a reachable value.
func (p *Plan) AggregateAll(records []models.Question) ([]Options, []Selection) {
	out := make([]Options, 0, len(p.table.Facets))
	stale := make([]Selection, 0)
	for _, def := range p.table.Facets {
		opts := p.Aggregate(records, def)
		out = append(out, opts)
		for _, value := range slices.Sorted(maps.Keys(p.states[def.Name])) {
			st := p.states[def.Name][value]
			if !st.IsValid() || opts.Has(value) {
				continue
			}
			stale = append(stale, Selection{Facet: def.Name, Value: value, State: st})
		}
	}
	return out, stale
}

// Prune returns a copy of spec without the given selections.
func Prune(spec Spec, stale []Selection) Spec {
	out := spec.Clone()
	for _, sel := range stale {
		out.Remove(sel.Facet, sel.Value)
	}
	return out
}

// KeepOrder refreshes counts and states of an option list the user is
// interacting with without moving values: values from previous keep their
// position, vanished values drop out, new values follow in fresh order.
func KeepOrder(previous []string, fresh Options) Options {
	if len(previous) == 0 {
		return fresh
	}
	byValue := make(map[string]Option, len(fresh.Options))
	for _, opt := range fresh.Options {
		byValue[opt.Value] = opt
	}
	ordered := make([]Option, 0, len(fresh.Options))
	placed := make(map[string]bool, len(previous))
	for _, value := range previous {
		opt, ok := byValue[value]
		if !ok || placed[value] {
			continue
		}
		ordered = append(ordered, opt)
		placed[value] = true
	}
	for _, opt := range fresh.Options {
		if !placed[opt.Value] {
			ordered = append(ordered, opt)
		}
	}
	fresh.Options = ordered
	return fresh
}

func (p *Plan) stateOf(facet string, value string) State {
	st := p.states[facet][value]
	if !st.IsValid() {
		return StateNeutral
	}
	return st
}

func countValues(records []models.Question, def Definition) map[string]int {
	counts := map[string]int{}
	switch def.Kind {
	case KindScalar:
		get, ok := scalarFields[def.Field]
		if !ok {
			return counts
		}
		for i := range records {
			if v := strings.TrimSpace(get(&records[i])); v != "" && v != models.NoneValue {
				counts[v]++
			}
		}
	case KindArray:
		get, ok := listFields[def.Field]
		if !ok {
			return counts
		}
		for i := range records {
			seen := map[string]bool{}
			for _, v := range get(&records[i]) {
				v = strings.TrimSpace(v)
				if v == "" || v == models.NoneValue || seen[v] {
					continue
				}
				seen[v] = true
				counts[v]++
			}
		}
	case KindPresence:
		get, ok := scalarFields[def.Field]
		if !ok {
			return counts
		}
		for i := range records {
			if strings.TrimSpace(get(&records[i])) != "" {
				counts[def.Value]++
			}
		}
	case KindFeature:
		for _, f := range def.Features {
			get, ok := scalarFields[f.Field]
			if !ok {
				continue
			}
			none := noneSet(f.None)
			for i := range records {
				if featurePresent(get(&records[i]), none) {
					counts[f.Value]++
				}
			}
		}
	}
	return counts
}

func priorityOf(def Definition) []string {
	if def.Kind != KindFeature {
		return def.Priority
	}
	out := append([]string(nil), def.Priority...)
	for _, f := range def.Features {
		out = append(out, f.Value)
	}
	return out
}

// sortOptions orders checked values, then excluded values, then configured
// priority values, then everything else by collation.
func sortOptions(opts []Option, priority []string) {
	rank := make(map[string]int, len(priority))
	for i, v := range priority {
		if _, ok := rank[v]; !ok {
			rank[v] = i
		}
	}
	group := func(o Option) int {
		switch o.State {
		case StateChecked:
			return 0
		case StateExcluded:
			return 1
		}
		if _, ok := rank[o.Value]; ok {
			return 2
		}
		return 3
	}
	slices.SortStableFunc(opts, func(a, b Option) int {
		ga, gb := group(a), group(b)
		if ga != gb {
			return ga - gb
		}
		ra, aok := rank[a.Value]
		rb, bok := rank[b.Value]
		switch {
		case aok && bok && ra != rb:
			return ra - rb
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		}
		return CompareText(a.Value, b.Value)
	})
}
