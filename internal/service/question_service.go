package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shinyes/pastpaper/internal/facet"
	"github.com/shinyes/pastpaper/internal/markdown"
	"github.com/shinyes/pastpaper/internal/models"
	"github.com/shinyes/pastpaper/internal/store"
)

var (
	ErrInvalidQuestion = errors.New("question requires id and examination")
	ErrIDMismatch      = errors.New("question id does not match path")
)

const (
	DefaultPageSize = 20
	// PageSizeAll disables pagination.
	PageSizeAll = -1
)

type QuestionService struct {
	store    *store.SQLStore
	table    facet.Table
	markdown *markdown.Service
}

func NewQuestionService(s *store.SQLStore, table facet.Table, markdownSvc *markdown.Service) *QuestionService {
	return &QuestionService{
		store:    s,
		table:    table,
		markdown: markdownSvc,
	}
}

func (s *QuestionService) Table() facet.Table {
	return s.table
}

type BrowseRequest struct {
	Filter   facet.Spec    `json:"filter"`
	Sort     facet.SortKey `json:"sort"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	// OpenFacet is the facet the user is interacting with; its options keep
	// PreviousOrder instead of being re-sorted.
	OpenFacet     string   `json:"openFacet,omitempty"`
	PreviousOrder []string `json:"previousOrder,omitempty"`
}

type ActiveFilter struct {
	Kind  string      `json:"kind"`
	Facet string      `json:"facet,omitempty"`
	Label string      `json:"label"`
	Value string      `json:"value"`
	State facet.State `json:"state,omitempty"`
}

type RangeDomain struct {
	Name   string      `json:"name"`
	Label  string      `json:"label"`
	Min    float64     `json:"min"`
	Max    float64     `json:"max"`
	Value  facet.Range `json:"value"`
	Active bool        `json:"active"`
}

type BrowseResult struct {
	Questions       []models.Question   `json:"questions"`
	TotalSize       int                 `json:"totalSize"`
	Page            int                 `json:"page"`
	PageSize        int                 `json:"pageSize"`
	TotalPages      int                 `json:"totalPages"`
	Facets          []facet.Options     `json:"facets"`
	Ranges          []RangeDomain       `json:"ranges"`
	EffectiveFilter facet.Spec          `json:"effectiveFilter"`
	Pruned          []facet.Selection   `json:"pruned"`
	ActiveFilters   []ActiveFilter      `json:"activeFilters"`
	SearchScopes    []facet.SearchScope `json:"searchScopes"`
	ExprError       string              `json:"exprError,omitempty"`
}

// Browse runs one full pipeline pass: option aggregation with removal of
// selections that no longer reach any record, filtering, sorting and paging.
func (s *QuestionService) Browse(ctx context.Context, req BrowseRequest) (BrowseResult, error) {
	records, err := s.store.ListQuestions(ctx)
	if err != nil {
		return BrowseResult{}, err
	}
	fields, err := s.store.AvailableFields(ctx)
	if err != nil {
		return BrowseResult{}, err
	}

	spec := req.Filter.Clone()
	plan := facet.Compile(spec, s.table)
	options, stale := plan.AggregateAll(records)
	pruned := make([]facet.Selection, 0)
	// Pruning only removes selections, so this settles within one pass per
	// selection.
	for len(stale) > 0 {
		pruned = append(pruned, stale...)
		spec = facet.Prune(spec, stale)
		plan = facet.Compile(spec, s.table)
		options, stale = plan.AggregateAll(records)
	}

	if req.OpenFacet != "" {
		for i := range options {
			if options[i].Facet == req.OpenFacet {
				options[i] = facet.KeepOrder(req.PreviousOrder, options[i])
			}
		}
	}

	visible := facet.Sort(plan.Filter(records), req.Sort)
	page, pageSize, totalPages := paginate(len(visible), req.Page, req.PageSize)
	pageRecords := visible
	if pageSize != PageSizeAll {
		start := (page - 1) * pageSize
		end := min(start+pageSize, len(visible))
		pageRecords = visible[start:end]
	}

	result := BrowseResult{
		Questions:       pageRecords,
		TotalSize:       len(visible),
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		Facets:          options,
		Ranges:          s.rangeDomains(spec),
		EffectiveFilter: spec,
		Pruned:          pruned,
		ActiveFilters:   s.activeFilters(spec),
		SearchScopes:    facet.AvailableScopes(fields),
	}
	if err := plan.ExprError(); err != nil {
		result.ExprError = err.Error()
	}
	return result, nil
}

// paginate clamps page into [1, totalPages]. A non-positive size other than
// PageSizeAll falls back to DefaultPageSize.
func paginate(total int, page int, pageSize int) (int, int, int) {
	if pageSize == PageSizeAll {
		return 1, PageSizeAll, 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := max(1, (total+pageSize-1)/pageSize)
	page = min(max(page, 1), totalPages)
	return page, pageSize, totalPages
}

func (s *QuestionService) rangeDomains(spec facet.Spec) []RangeDomain {
	out := make([]RangeDomain, 0, len(s.table.Ranges))
	for _, def := range s.table.Ranges {
		value := spec.Ranges[def.Name]
		out = append(out, RangeDomain{
			Name:   def.Name,
			Label:  def.Label,
			Min:    def.Min,
			Max:    def.Max,
			Value:  value,
			Active: facet.RangeActive(def, value),
		})
	}
	return out
}

func (s *QuestionService) activeFilters(spec facet.Spec) []ActiveFilter {
	out := make([]ActiveFilter, 0)
	if term := strings.TrimSpace(spec.Search); term != "" {
		out = append(out, ActiveFilter{Kind: "search", Label: string(orAll(spec.Scope)), Value: term})
	}
	selections := spec.Selections()
	for _, def := range s.table.Facets {
		for _, sel := range selections {
			if sel.Facet != def.Name {
				continue
			}
			out = append(out, ActiveFilter{Kind: "facet", Facet: def.Name, Label: def.Label, Value: sel.Value, State: sel.State})
		}
	}
	for _, def := range s.table.Ranges {
		r := spec.Ranges[def.Name]
		if !facet.RangeActive(def, r) {
			continue
		}
		lo, hi := def.Min, def.Max
		if r.Min != nil {
			lo = *r.Min
		}
		if r.Max != nil {
			hi = *r.Max
		}
		out = append(out, ActiveFilter{Kind: "range", Facet: def.Name, Label: def.Label, Value: fmt.Sprintf("%g-%g", lo, hi)})
	}
	if expr := strings.TrimSpace(spec.Expr); expr != "" {
		out = append(out, ActiveFilter{Kind: "expr", Label: "expr", Value: expr})
	}
	return out
}

func orAll(scope facet.SearchScope) facet.SearchScope {
	if scope == "" {
		return facet.ScopeAll
	}
	return scope
}

type QuestionDetail struct {
	Question models.Question   `json:"question"`
	HTML     map[string]string `json:"html"`
}

// GetQuestion returns a question with its long-form fields rendered.
func (s *QuestionService) GetQuestion(ctx context.Context, id string) (QuestionDetail, error) {
	q, err := s.store.GetQuestion(ctx, strings.TrimSpace(id))
	if err != nil {
		return QuestionDetail{}, err
	}
	html := map[string]string{}
	for name, raw := range map[string]string{
		"questionTextChi": q.QuestionTextChi,
		"questionTextEng": q.QuestionTextEng,
		"answer":          q.Answer,
		"markersReport":   q.MarkersReport,
		"remarks":         q.Remarks,
		"AIExplanation":   q.AIExplanation,
	} {
		rendered, err := s.markdown.Render(raw)
		if err != nil {
			return QuestionDetail{}, fmt.Errorf("render %s: %w", name, err)
		}
		if rendered != "" {
			html[name] = rendered
		}
	}
	return QuestionDetail{Question: q, HTML: html}, nil
}

type SaveResult struct {
	Question    models.Question `json:"question"`
	DuplicateOf string          `json:"duplicateOf,omitempty"`
}

// CreateQuestion stores a new question. A different question with the same
// examination, year, section and number is reported, not rejected.
func (s *QuestionService) CreateQuestion(ctx context.Context, input models.Question) (SaveResult, error) {
	q := models.NormalizeQuestion(input)
	if !q.IsImportable() {
		return SaveResult{}, ErrInvalidQuestion
	}
	created, err := s.store.CreateQuestion(ctx, q)
	if err != nil {
		return SaveResult{}, err
	}
	return s.withDuplicate(ctx, created)
}

// UpdateQuestion replaces an existing question; sql.ErrNoRows when missing.
func (s *QuestionService) UpdateQuestion(ctx context.Context, id string, input models.Question) (SaveResult, error) {
	id = strings.TrimSpace(id)
	if input.ID == "" {
		input.ID = id
	}
	q := models.NormalizeQuestion(input)
	if q.ID != id {
		return SaveResult{}, ErrIDMismatch
	}
	if !q.IsImportable() {
		return SaveResult{}, ErrInvalidQuestion
	}
	current, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return SaveResult{}, err
	}
	q.DateAdded = current.DateAdded
	updated, err := s.store.UpsertQuestion(ctx, q)
	if err != nil {
		return SaveResult{}, err
	}
	return s.withDuplicate(ctx, updated)
}

func (s *QuestionService) CountQuestions(ctx context.Context) (int64, error) {
	return s.store.CountQuestions(ctx)
}

func (s *QuestionService) DeleteQuestion(ctx context.Context, id string) error {
	return s.store.DeleteQuestion(ctx, strings.TrimSpace(id))
}

func (s *QuestionService) ClearQuestions(ctx context.Context) error {
	return s.store.ClearQuestions(ctx)
}

func (s *QuestionService) withDuplicate(ctx context.Context, q models.Question) (SaveResult, error) {
	dup, ok, err := s.store.FindDuplicate(ctx, q)
	if err != nil {
		return SaveResult{}, err
	}
	result := SaveResult{Question: q}
	if ok {
		result.DuplicateOf = dup
	}
	return result, nil
}

// LastSyncTime is nil until the first successful spreadsheet sync.
func (s *QuestionService) LastSyncTime(ctx context.Context) (*time.Time, error) {
	return s.store.LastSyncTime(ctx)
}
