// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pattern compiles and caches regex patterns (including named
// presets), reporting matches, locations, and a 0-1 quality score.
package pattern

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kraklabs/recall/pkg/corerr"
)

const presetPrefix = "@preset:"

// Matcher compiles and caches patterns keyed by their original input string.
type Matcher struct {
	mu    sync.RWMutex
	cache map[string]*regexp.Regexp
}

// New creates an empty Matcher.
func New() *Matcher {
	return &Matcher{cache: make(map[string]*regexp.Regexp)}
}

// Match reports whether pattern matches anywhere in text.
func (m *Matcher) Match(pattern, text string) (bool, error) {
	re, err := m.compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}

// MatchRecord is one located match.
type MatchRecord struct {
	Text        string
	StartOffset int
	EndOffset   int
}

// FindMatches returns every non-overlapping match of pattern in text.
func (m *Matcher) FindMatches(pattern, text string) ([]MatchRecord, error) {
	re, err := m.compile(pattern)
	if err != nil {
		return nil, err
	}
	idx := re.FindAllStringIndex(text, -1)
	out := make([]MatchRecord, 0, len(idx))
	for _, pair := range idx {
		out = append(out, MatchRecord{
			Text:        text[pair[0]:pair[1]],
			StartOffset: pair[0],
			EndOffset:   pair[1],
		})
	}
	return out, nil
}

// MatchLocation is a located match with 1-origin line/column.
type MatchLocation struct {
	Line        int
	Column      int
	Text        string
	StartOffset int
	EndOffset   int
}

// GetMatchLocations returns every match with 1-origin line numbers
// computed from newline offsets.
func (m *Matcher) GetMatchLocations(pattern, text string) ([]MatchLocation, error) {
	matches, err := m.FindMatches(pattern, text)
	if err != nil {
		return nil, err
	}
	lineStarts := newlineOffsets(text)
	out := make([]MatchLocation, 0, len(matches))
	for _, mr := range matches {
		line, col := lineColumnFor(mr.StartOffset, lineStarts)
		out = append(out, MatchLocation{
			Line:        line,
			Column:      col,
			Text:        mr.Text,
			StartOffset: mr.StartOffset,
			EndOffset:   mr.EndOffset,
		})
	}
	return out, nil
}

// GetMatchCount returns the number of matches of pattern in text.
func (m *Matcher) GetMatchCount(pattern, text string) (int, error) {
	re, err := m.compile(pattern)
	if err != nil {
		return 0, err
	}
	return len(re.FindAllStringIndex(text, -1)), nil
}

// CalculatePatternScore implements the scoring formula from spec.md §4.1 exactly.
func (m *Matcher) CalculatePatternScore(content, pattern, unitType string) (float64, error) {
	_ = unitType // reserved for future per-unit-type weighting; not used by the formula.
	locations, err := m.GetMatchLocations(pattern, content)
	if err != nil {
		return 0, err
	}
	if len(locations) == 0 {
		return 0.0, nil
	}

	lineCount := strings.Count(content, "\n") + 1
	matchCount := len(locations)

	score := 0.5
	score += min(0.2, float64(matchCount)*0.05)

	earlyMatch := false
	for _, loc := range locations {
		if loc.Line <= 2 {
			earlyMatch = true
			break
		}
	}
	if earlyMatch {
		score += 0.2
	}

	score += min(0.1, (float64(matchCount)/float64(lineCount))*10)

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

// GetAvailablePresets returns the sorted names of every built-in preset.
func (m *Matcher) GetAvailablePresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearCache drops every compiled pattern.
func (m *Matcher) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*regexp.Regexp)
}

func (m *Matcher) compile(pattern string) (*regexp.Regexp, error) {
	m.mu.RLock()
	if re, ok := m.cache[pattern]; ok {
		m.mu.RUnlock()
		return re, nil
	}
	m.mu.RUnlock()

	source := pattern
	if strings.HasPrefix(pattern, presetPrefix) {
		name := strings.TrimPrefix(pattern, presetPrefix)
		expanded, ok := presets[name]
		if !ok {
			return nil, corerr.NewValidationError("Unknown pattern preset: " + name)
		}
		source = expanded
	}

	re, err := regexp.Compile("(?ms)" + source)
	if err != nil {
		return nil, corerr.NewValidationError("Invalid regex pattern: " + err.Error())
	}

	m.mu.Lock()
	m.cache[pattern] = re
	m.mu.Unlock()
	return re, nil
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func newlineOffsets(text string) []int {
	offsets := []int{0}
	for i, r := range text {
		if r == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineColumnFor returns 1-origin (line, column) for a byte offset given
// the start offset of each line (lineStarts[0] == 0).
func lineColumnFor(offset int, lineStarts []int) (int, int) {
	line := sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	col := offset - lineStarts[line] + 1
	return line + 1, col
}
