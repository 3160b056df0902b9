package models

import (
	"encoding/json"
	"testing"
)

func TestYearJSON(t *testing.T) {
	tests := []struct {
		raw      string
		want     Year
		numeric  bool
		encoding string
	}{
		{raw: `2020`, want: Year{Number: 2020}, numeric: true, encoding: `2020`},
		{raw: `"2019"`, want: Year{Number: 2019}, numeric: true, encoding: `2019`},
		{raw: `"PP"`, want: Year{Sentinel: "PP"}, encoding: `"PP"`},
		{raw: `"Sample Paper"`, want: Year{Sentinel: "Sample Paper"}, encoding: `"Sample Paper"`},
		{raw: `null`, want: Year{}, encoding: `null`},
	}
	for _, tc := range tests {
		var got Year
		if err := json.Unmarshal([]byte(tc.raw), &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("Unmarshal(%s) got %+v want %+v", tc.raw, got, tc.want)
		}
		if got.IsNumeric() != tc.numeric {
			t.Fatalf("IsNumeric(%s) got %v", tc.raw, got.IsNumeric())
		}
		out, err := json.Marshal(got)
		if err != nil {
			t.Fatalf("Marshal(%+v) error = %v", got, err)
		}
		if string(out) != tc.encoding {
			t.Fatalf("Marshal(%+v) got %s want %s", got, out, tc.encoding)
		}
	}
}

func TestNormalizeQuestion(t *testing.T) {
	q := NormalizeQuestion(Question{
		ID:          " Q1 ",
		Examination: "HKDSE",
		GraphType:   "  ",
		Concepts:    []string{" 供應 ", "", "需求"},
	})
	if q.ID != "Q1" {
		t.Fatalf("expected trimmed id, got %q", q.ID)
	}
	if q.GraphType != NoneValue || q.TableType != NoneValue {
		t.Fatalf("expected blank feature fields to become %q, got %q/%q", NoneValue, q.GraphType, q.TableType)
	}
	if q.Patterns == nil || q.ChapterClassification == nil {
		t.Fatalf("expected non-nil classification slices")
	}
	if len(q.Concepts) != 2 || q.Concepts[0] != "供應" {
		t.Fatalf("unexpected concepts: %v", q.Concepts)
	}
	if !q.IsImportable() {
		t.Fatalf("expected question to be importable")
	}
	if (Question{ID: "x", Examination: "-"}).IsImportable() {
		t.Fatalf("expected '-' examination to be rejected")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" Ch01, ,Ch02 ,")
	if len(got) != 2 || got[0] != "Ch01" || got[1] != "Ch02" {
		t.Fatalf("SplitList got %v", got)
	}
	if got := SplitList(""); got == nil || len(got) != 0 {
		t.Fatalf("SplitList(\"\") got %v", got)
	}
}
