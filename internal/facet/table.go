package facet

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind selects the predicate family used for a facet.
type Kind string

const (
	// KindScalar matches a single string field against the selection.
	KindScalar Kind = "scalar"
	// KindArray matches the overlap of a list field with the selection.
	KindArray Kind = "array"
	// KindPresence has one value that tests whether a field is non-blank.
	KindPresence Kind = "presence"
	// KindFeature has one value per field, each testing the field is not a
	// "none" sentinel.
	KindFeature Kind = "feature"
)

type Feature struct {
	Value string   `yaml:"value" json:"value"`
	Field string   `yaml:"field" json:"field"`
	None  []string `yaml:"none" json:"none"`
}

type Definition struct {
	Name     string    `yaml:"name" json:"name"`
	Label    string    `yaml:"label" json:"label"`
	Field    string    `yaml:"field" json:"field"`
	Kind     Kind      `yaml:"kind" json:"kind"`
	Logic    Logic     `yaml:"logic" json:"logic,omitempty"`
	Priority []string  `yaml:"priority" json:"priority,omitempty"`
	Group    string    `yaml:"group" json:"group,omitempty"`
	Value    string    `yaml:"value" json:"value,omitempty"`
	Features []Feature `yaml:"features" json:"features,omitempty"`
}

type RangeDefinition struct {
	Name  string  `yaml:"name" json:"name"`
	Label string  `yaml:"label" json:"label"`
	Field string  `yaml:"field" json:"field"`
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
}

// Table is the per-installation facet configuration.
type Table struct {
	Facets []Definition      `yaml:"facets" json:"facets"`
	Ranges []RangeDefinition `yaml:"ranges" json:"ranges"`
}

func (t Table) Facet(name string) (Definition, bool) {
	for _, def := range t.Facets {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

func (t Table) Range(name string) (RangeDefinition, bool) {
	for _, def := range t.Ranges {
		if def.Name == name {
			return def, true
		}
	}
	return RangeDefinition{}, false
}

// contextExclusions is the facet set left out when computing options for def:
// the facet itself plus every facet sharing its group.
func (t Table) contextExclusions(def Definition) map[string]bool {
	out := map[string]bool{def.Name: true}
	if def.Group == "" {
		return out
	}
	for _, other := range t.Facets {
		if other.Group == def.Group {
			out[other.Name] = true
		}
	}
	return out
}

func (t Table) Validate() error {
	seen := map[string]bool{}
	for _, def := range t.Facets {
		if strings.TrimSpace(def.Name) == "" {
			return fmt.Errorf("facet with empty name")
		}
		if seen[def.Name] {
			return fmt.Errorf("duplicate facet %q", def.Name)
		}
		seen[def.Name] = true
		switch def.Kind {
		case KindScalar:
			if !isScalarField(def.Field) {
				return fmt.Errorf("facet %q: unknown scalar field %q", def.Name, def.Field)
			}
		case KindArray:
			if !isListField(def.Field) {
				return fmt.Errorf("facet %q: unknown list field %q", def.Name, def.Field)
			}
		case KindPresence:
			if !isScalarField(def.Field) {
				return fmt.Errorf("facet %q: unknown scalar field %q", def.Name, def.Field)
			}
			if def.Value == "" {
				return fmt.Errorf("facet %q: presence facet requires value", def.Name)
			}
		case KindFeature:
			if len(def.Features) == 0 {
				return fmt.Errorf("facet %q: feature facet requires features", def.Name)
			}
			for _, f := range def.Features {
				if !isScalarField(f.Field) {
					return fmt.Errorf("facet %q: unknown feature field %q", def.Name, f.Field)
				}
			}
		default:
			return fmt.Errorf("facet %q: unknown kind %q", def.Name, def.Kind)
		}
	}
	for _, r := range t.Ranges {
		if !isNumberField(r.Field) {
			return fmt.Errorf("range %q: unknown numeric field %q", r.Name, r.Field)
		}
		if r.Min > r.Max {
			return fmt.Errorf("range %q: min greater than max", r.Name)
		}
	}
	return nil
}

// LoadTable reads a YAML facet table. An empty path yields DefaultTable.
func LoadTable(path string) (Table, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read facet table: %w", err)
	}
	return ParseTable(data)
}

func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse facet table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

const dynamicGroup = "dynamic"

// CurriculumOrder is the curated display order of curriculum strands.
var CurriculumOrder = []string{
	"A 基本經濟概念",
	"B 廠商與生產",
	"C 市場與價格",
	"D 競爭與市場結構",
	"E 效率、公平和政府的角色",
	"F 經濟表現的量度",
	"G 國民收入決定及價格水平",
	"H 貨幣與銀行",
	"I 宏觀經濟問題和政府",
	"J 國際貿易和金融",
	"E1 選修單元一",
	"E2 選修單元二",
	"未分類",
}

func DefaultTable() Table {
	return Table{
		Facets: []Definition{
			{Name: "exam", Label: "考試", Field: "examination", Kind: KindScalar, Priority: []string{"HKDSE", "HKCEE", "HKALE"}},
			{Name: "qtype", Label: "題型", Field: "questionType", Kind: KindScalar},
			{Name: "year", Label: "年份", Field: "year", Kind: KindScalar},
			{Name: "curriculum", Label: "課程", Field: "curriculumClassification", Kind: KindArray, Logic: LogicOr, Priority: CurriculumOrder},
			{Name: "chapter", Label: "Chapter", Field: "chapterClassification", Kind: KindArray, Logic: LogicOr},
			{Name: "feature", Label: "特徵", Kind: KindFeature, Features: []Feature{
				{Value: "含圖表", Field: "graphType", None: []string{"沒有圖"}},
				{Value: "含表格", Field: "tableType", None: []string{"沒有表格"}},
				{Value: "含計算", Field: "calculationType", None: []string{"沒有計算"}},
				{Value: "複選", Field: "multipleSelectionType", None: []string{"並非複選型", "不適用"}},
			}},
			{Name: "multipleSelection", Label: "複選", Field: "multipleSelectionType", Kind: KindScalar, Group: dynamicGroup, Priority: []string{"並非複選型", "不適用"}},
			{Name: "graph", Label: "圖表", Field: "graphType", Kind: KindScalar, Group: dynamicGroup, Priority: []string{"沒有圖", "未命名圖表"}},
			{Name: "table", Label: "表格", Field: "tableType", Kind: KindScalar, Group: dynamicGroup, Priority: []string{"沒有表格", "未命名表格"}},
			{Name: "calculation", Label: "計算", Field: "calculationType", Kind: KindScalar, Group: dynamicGroup, Priority: []string{"沒有計算", "未命名計算題"}},
			{Name: "concepts", Label: "概念", Field: "concepts", Kind: KindArray, Group: dynamicGroup},
			{Name: "patterns", Label: "題型標籤", Field: "patterns", Kind: KindArray, Group: dynamicGroup, Priority: []string{"未分類"}},
			{Name: "ai", Label: "AI", Field: "AIExplanation", Kind: KindPresence, Group: dynamicGroup, Value: "AI 詳解"},
		},
		Ranges: []RangeDefinition{
			{Name: "marks", Label: "分數", Field: "marks", Min: 0, Max: 30},
			{Name: "percentage", Label: "答對率", Field: "correctPercentage", Min: 0, Max: 100},
		},
	}
}
