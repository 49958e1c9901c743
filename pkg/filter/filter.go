// Package filter matches clipboard format names and history labels against
// user supplied patterns.
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"clipkeeper/pkg/clipboard"
)

type FilterMode int

const (
	FilterModeNone FilterMode = iota
	FilterModeExact
	FilterModeContains
	FilterModeRegex
	FilterModeFuzzy
)

var modeNames = map[string]FilterMode{
	"":         FilterModeContains,
	"exact":    FilterModeExact,
	"contains": FilterModeContains,
	"regex":    FilterModeRegex,
	"fuzzy":    FilterModeFuzzy,
}

// ModeNames lists the values accepted by ParseMode.
var ModeNames = []string{"exact", "contains", "regex", "fuzzy"}

// ParseMode maps a --match-mode value to a FilterMode. The empty string
// means contains.
func ParseMode(s string) (FilterMode, error) {
	mode, ok := modeNames[strings.ToLower(s)]
	if !ok {
		return FilterModeNone, fmt.Errorf("unknown match mode '%s' (valid: %s)", s, strings.Join(ModeNames, ", "))
	}
	return mode, nil
}

func (m FilterMode) String() string {
	switch m {
	case FilterModeExact:
		return "exact"
	case FilterModeContains:
		return "contains"
	case FilterModeRegex:
		return "regex"
	case FilterModeFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

type StringFilter struct {
	Pattern string
	Mode    FilterMode
	regex   *regexp.Regexp
}

// NewStringFilter builds a filter; an empty pattern matches everything.
func NewStringFilter(pattern string, mode FilterMode) (*StringFilter, error) {
	if pattern == "" {
		mode = FilterModeNone
	}
	f := &StringFilter{
		Pattern: pattern,
		Mode:    mode,
	}

	if mode == FilterModeRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern '%s': %w", pattern, err)
		}
		f.regex = re
	}

	return f, nil
}

func (f *StringFilter) Match(s string) bool {
	if f == nil || f.Mode == FilterModeNone {
		return true
	}

	switch f.Mode {
	case FilterModeExact:
		return strings.EqualFold(s, f.Pattern)
	case FilterModeContains:
		return strings.Contains(strings.ToLower(s), strings.ToLower(f.Pattern))
	case FilterModeRegex:
		return f.regex != nil && f.regex.MatchString(s)
	case FilterModeFuzzy:
		return FuzzyMatch(f.Pattern, s)
	default:
		return true
	}
}

func FuzzyMatch(pattern, text string) bool {
	if pattern == "" {
		return true
	}
	if text == "" {
		return false
	}

	pattern = strings.ToLower(pattern)
	text = strings.ToLower(text)

	return fuzzyMatchRecursive(pattern, text, 0, 0, 0)
}

func fuzzyMatchRecursive(pattern, text string, pIdx, tIdx, consecutiveMatches int) bool {
	if pIdx >= len(pattern) {
		return true
	}
	if tIdx >= len(text) {
		return false
	}

	pChar := rune(pattern[pIdx])
	tChar := rune(text[tIdx])

	if pChar == tChar {
		remainingChars := len(text) - tIdx - 1
		remainingPattern := len(pattern) - pIdx - 1

		if remainingPattern == 0 {
			return true
		}

		if remainingChars >= remainingPattern {
			return fuzzyMatchRecursive(pattern, text, pIdx+1, tIdx+1, consecutiveMatches+1)
		}
	}

	return fuzzyMatchRecursive(pattern, text, pIdx, tIdx+1, 0)
}

func FuzzyMatchRanked(pattern, text string, threshold float64) bool {
	if pattern == "" {
		return true
	}
	if text == "" {
		return false
	}

	distance := LevenshteinDistance(pattern, text)
	maxLen := max(len(pattern), len(text))

	if maxLen == 0 {
		return true
	}

	similarity := 1.0 - float64(distance)/float64(maxLen)
	return similarity >= threshold
}

func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	previousRow := make([]int, len(s2)+1)
	currentRow := make([]int, len(s2)+1)

	for i := 0; i <= len(s2); i++ {
		previousRow[i] = i
	}

	for i := 0; i < len(s1); i++ {
		currentRow[0] = i + 1

		for j := 0; j < len(s2); j++ {
			cost := 1
			if unicode.ToLower(rune(s1[i])) == unicode.ToLower(rune(s2[j])) {
				cost = 0
			}

			deletion := currentRow[j] + 1
			insertion := previousRow[j+1] + 1
			substitution := previousRow[j] + cost

			currentRow[j+1] = min(min(deletion, insertion), substitution)
		}

		previousRow, currentRow = currentRow, previousRow
	}

	return previousRow[len(s2)]
}

// FormatFilter selects clipboard formats for display.
type FormatFilter struct {
	Name       string
	NameMode   FilterMode
	CustomOnly bool
	MinSize    int
}

// IsZero reports whether the filter lets every format through.
func (f *FormatFilter) IsZero() bool {
	return f.Name == "" && !f.CustomOnly && f.MinSize <= 0
}

func (f *FormatFilter) MatchesFormat(format clipboard.Format) (bool, error) {
	if f.CustomOnly && !format.IsCustom() {
		return false, nil
	}

	if f.MinSize > 0 && format.Size() < f.MinSize {
		return false, nil
	}

	if f.Name != "" {
		sf, err := NewStringFilter(f.Name, f.NameMode)
		if err != nil {
			return false, err
		}
		if !sf.Match(format.DisplayName()) {
			return false, nil
		}
	}

	return true, nil
}

// Apply returns the formats of s that match, in clipboard order.
func (f *FormatFilter) Apply(s clipboard.Snapshot) ([]clipboard.Format, error) {
	formats := s.Formats()
	if f == nil || f.IsZero() {
		return formats, nil
	}

	out := make([]clipboard.Format, 0, len(formats))
	for _, format := range formats {
		ok, err := f.MatchesFormat(format)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, format)
		}
	}
	return out, nil
}

// EntryFilter selects history entries by label and age.
type EntryFilter struct {
	Label     string
	LabelMode FilterMode
	Since     time.Time
	Limit     int
}

func (f *EntryFilter) MatchesEntry(label string, createdAt time.Time) (bool, error) {
	if !f.Since.IsZero() && createdAt.Before(f.Since) {
		return false, nil
	}

	if f.Label != "" {
		sf, err := NewStringFilter(f.Label, f.LabelMode)
		if err != nil {
			return false, err
		}
		if !sf.Match(label) {
			return false, nil
		}
	}

	return true, nil
}
