package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/shinyes/pastpaper/internal/facet"
	"github.com/shinyes/pastpaper/internal/models"
	"github.com/shinyes/pastpaper/internal/store"
)

const (
	QuestionTypeMC      = "MC"
	QuestionTypeWritten = "文字題 (SQ/LQ)"

	unknownPublisher = "Unknown"
)

type StatsEntry struct {
	Name    string `json:"name"`
	Total   int    `json:"total"`
	MC      int    `json:"mc"`
	Written int    `json:"written"`
	Comment string `json:"comment,omitempty"`
}

type StatsSummary struct {
	TotalQuestions int          `json:"totalQuestions"`
	Publishers     []StatsEntry `json:"publishers"`
	Curriculum     []StatsEntry `json:"curriculum"`
	Chapters       []StatsEntry `json:"chapters"`
	Concepts       []StatsEntry `json:"concepts"`
	Patterns       []StatsEntry `json:"patterns"`
}

type StatsService struct {
	store *store.SQLStore
}

func NewStatsService(s *store.SQLStore) *StatsService {
	return &StatsService{store: s}
}

func (s *StatsService) Summary(ctx context.Context) (StatsSummary, error) {
	questions, err := s.store.ListQuestions(ctx)
	if err != nil {
		return StatsSummary{}, err
	}

	publishers := newTally()
	curriculum := newTally()
	chapters := newTally()
	concepts := newTally()
	patterns := newTally()
	for _, q := range questions {
		publisher := strings.TrimSpace(q.Publisher)
		if publisher == "" {
			publisher = unknownPublisher
		}
		publishers.add(publisher, q.QuestionType)
		for _, v := range q.CurriculumClassification {
			curriculum.add(v, q.QuestionType)
		}
		for _, v := range q.ChapterClassification {
			chapters.add(v, q.QuestionType)
		}
		for _, v := range q.Concepts {
			concepts.add(v, q.QuestionType)
		}
		for _, v := range q.Patterns {
			patterns.add(v, q.QuestionType)
		}
	}

	summary := StatsSummary{
		TotalQuestions: len(questions),
		Publishers:     publishers.byTotal(),
		Curriculum:     curriculum.byOrder(facet.CurriculumOrder),
		Chapters:       chapters.byName(),
		Concepts:       concepts.byTotal(),
		Patterns:       patterns.byTotal(),
	}
	for kind, entries := range map[models.MetadataKind][]StatsEntry{
		models.MetadataPublishers: summary.Publishers,
		models.MetadataTopics:     summary.Curriculum,
		models.MetadataConcepts:   summary.Concepts,
		models.MetadataPatterns:   summary.Patterns,
	} {
		if err := s.attachComments(ctx, kind, entries); err != nil {
			return StatsSummary{}, err
		}
	}
	return summary, nil
}

func (s *StatsService) attachComments(ctx context.Context, kind models.MetadataKind, entries []StatsEntry) error {
	items, err := s.store.ListMetadata(ctx, kind)
	if err != nil {
		return err
	}
	comments := make(map[string]string, len(items))
	for _, item := range items {
		comments[item.Name] = item.Comment
	}
	for i := range entries {
		entries[i].Comment = comments[entries[i].Name]
	}
	return nil
}

type tally map[string]*StatsEntry

func newTally() tally {
	return tally{}
}

func (t tally) add(name string, questionType string) {
	name = strings.TrimSpace(name)
	if name == "" || name == models.NoneValue {
		return
	}
	e, ok := t[name]
	if !ok {
		e = &StatsEntry{Name: name}
		t[name] = e
	}
	e.Total++
	switch strings.TrimSpace(questionType) {
	case QuestionTypeMC:
		e.MC++
	case QuestionTypeWritten:
		e.Written++
	}
}

func (t tally) entries() []StatsEntry {
	out := make([]StatsEntry, 0, len(t))
	for _, e := range t {
		out = append(out, *e)
	}
	return out
}

func (t tally) byTotal() []StatsEntry {
	out := t.entries()
	slices.SortFunc(out, func(a, b StatsEntry) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return facet.CompareText(a.Name, b.Name)
	})
	return out
}

func (t tally) byName() []StatsEntry {
	out := t.entries()
	slices.SortFunc(out, func(a, b StatsEntry) int {
		return facet.CompareText(a.Name, b.Name)
	})
	return out
}

// byOrder sorts names found in order first, in that order, then the rest by
// name. Names match either in full or by their leading strand code.
func (t tally) byOrder(order []string) []StatsEntry {
	rank := make(map[string]int, len(order)*2)
	for i, name := range order {
		rank[name] = i
		if code, _, ok := strings.Cut(name, " "); ok {
			if _, taken := rank[code]; !taken {
				rank[code] = i
			}
		}
	}
	rankOf := func(name string) (int, bool) {
		if r, ok := rank[name]; ok {
			return r, true
		}
		if code, _, ok := strings.Cut(name, " "); ok {
			r, ok := rank[code]
			return r, ok
		}
		return 0, false
	}
	out := t.entries()
	slices.SortFunc(out, func(a, b StatsEntry) int {
		ra, aok := rankOf(a.Name)
		rb, bok := rankOf(b.Name)
		switch {
		case aok && bok && ra != rb:
			return cmp.Compare(ra, rb)
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		}
		return facet.CompareText(a.Name, b.Name)
	})
	return out
}
