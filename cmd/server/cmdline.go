package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseTTL accepts Go durations plus a day suffix (7d, 2day, 3days).
func parseTTL(raw string) (time.Duration, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return 0, fmt.Errorf("empty ttl")
	}

	if d, err := time.ParseDuration(normalized); err == nil {
		return d, nil
	}

	for _, suffix := range []string{"days", "day", "d"} {
		if !strings.HasSuffix(normalized, suffix) {
			continue
		}
		dayPart := strings.TrimSpace(strings.TrimSuffix(normalized, suffix))
		days, err := strconv.ParseFloat(dayPart, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid day ttl")
		}
		if days <= 0 {
			return 0, fmt.Errorf("day ttl must be greater than 0")
		}
		return time.Duration(days * float64(24*time.Hour)), nil
	}

	return 0, fmt.Errorf("unsupported ttl format")
}

// parseCommandLine splits a console line into arguments. Quotes only group
// when they open a token, so an apostrophe inside a word stays literal.
func parseCommandLine(input string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune

	for _, r := range input {
		switch {
		case (r == '\'' || r == '"') && quote == 0 && current.Len() == 0:
			quote = r
		case quote != 0 && r == quote:
			quote = 0
		case (r == ' ' || r == '\t') && quote == 0:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args, nil
}

// splitFlags separates "--name value" and "--name=value" pairs from
// positional words so flags may follow free text.
func splitFlags(args []string) ([]string, []string) {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}
		flags = append(flags, arg)
		if !strings.Contains(arg, "=") && i+1 < len(args) {
			flags = append(flags, args[i+1])
			i++
		}
	}
	return flags, positional
}
