package sheets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyes/pastpaper/internal/models"
)

func table(rows ...[]string) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, strings.Join(r, fieldSeparator))
	}
	return strings.Join(lines, rowSeparator)
}

func TestParse(t *testing.T) {
	data := table(
		[]string{"id", "examination", "year", "marks", "correctPercentage", "concepts", "AristochapterClassification", "graphType", "answer", "unknownColumn"},
		[]string{"Q1", "HKDSE", "2019", "4", "55.5", "供應, 需求,", "Ch01", "", `line1\nline2`, "x"},
		[]string{"Q2", "HKCEE", "Sample Paper", "n/a", "", "", "", "供求圖", "", ""},
		[]string{"Q3", "-", "2020"},
		[]string{"", "HKDSE"},
	) + rowSeparator + "  " + rowSeparator

	res, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, res.Questions, 2)
	assert.Equal(t, 2, res.Skipped)
	assert.Contains(t, res.Fields, "chapterClassification")
	assert.NotContains(t, res.Fields, "AristochapterClassification")

	q1 := res.Questions[0]
	assert.Equal(t, models.NumericYear(2019), q1.Year)
	require.NotNil(t, q1.Marks)
	assert.Equal(t, 4.0, *q1.Marks)
	require.NotNil(t, q1.CorrectPercentage)
	assert.Equal(t, 55.5, *q1.CorrectPercentage)
	assert.Equal(t, []string{"供應", "需求"}, q1.Concepts)
	assert.Equal(t, []string{"Ch01"}, q1.ChapterClassification)
	assert.Equal(t, models.NoneValue, q1.GraphType)
	assert.Equal(t, "line1\nline2", q1.Answer)

	q2 := res.Questions[1]
	assert.Equal(t, "Sample Paper", q2.Year.Sentinel)
	assert.Nil(t, q2.Marks)
	assert.NotNil(t, q2.Concepts)
	assert.Empty(t, q2.Concepts)
	assert.Equal(t, "供求圖", q2.GraphType)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(" \x1f ")
	assert.ErrorIs(t, err, ErrEmptyData)

	res, err := Parse("id\x1eexamination")
	require.NoError(t, err)
	assert.Empty(t, res.Questions)
}

func TestParseNumber(t *testing.T) {
	for raw, want := range map[string]float64{"4": 4, " 2.5 ": 2.5, "8 marks": 8, "-1": -1} {
		got, ok := parseNumber(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"", "abc", "."} {
		_, ok := parseNumber(raw)
		assert.False(t, ok, raw)
	}
}
