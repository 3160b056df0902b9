package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Year is either a calendar year or a sentinel label such as "PP" or
// "Sample Paper". The zero value means the year is absent.
type Year struct {
	Number   int
	Sentinel string
}

func NumericYear(n int) Year {
	return Year{Number: n}
}

func ParseYear(raw string) Year {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Year{}
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return Year{Number: n}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == math.Trunc(f) {
		return Year{Number: int(f)}
	}
	return Year{Sentinel: raw}
}

func (y Year) IsZero() bool {
	return y.Number == 0 && y.Sentinel == ""
}

func (y Year) IsNumeric() bool {
	return y.Sentinel == "" && y.Number != 0
}

func (y Year) String() string {
	if y.Sentinel != "" {
		return y.Sentinel
	}
	if y.Number == 0 {
		return ""
	}
	return strconv.Itoa(y.Number)
}

func (y Year) MarshalJSON() ([]byte, error) {
	switch {
	case y.Sentinel != "":
		return json.Marshal(y.Sentinel)
	case y.Number != 0:
		return []byte(strconv.Itoa(y.Number)), nil
	default:
		return []byte("null"), nil
	}
}

func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*y = Year{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = ParseYear(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) {
		*y = Year{Sentinel: strconv.FormatFloat(f, 'f', -1, 64)}
		return nil
	}
	*y = Year{Number: int(f)}
	return nil
}
