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

package tagging

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

type tagFamily struct {
	name     string
	patterns map[string]*regexp.Regexp
	confFn   func(matches int) float64
}

func capConfidence(cap float64, base, perMatch float64, matches int) float64 {
	return math.Min(cap, base+float64(matches)*perMatch)
}

var wordBoundary = func(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}

var families = []tagFamily{
	{
		name: "language",
		patterns: map[string]*regexp.Regexp{
			"python": wordBoundary("python"), "javascript": wordBoundary("javascript"),
			"typescript": wordBoundary("typescript"), "java": wordBoundary("java"),
			"go": wordBoundary("golang"), "rust": wordBoundary("rust"),
		},
		confFn: func(m int) float64 { return capConfidence(0.9, 0.5, 0.1, m) },
	},
	{
		name: "framework",
		patterns: map[string]*regexp.Regexp{
			"react": wordBoundary("react"), "fastapi": wordBoundary("fastapi"),
			"django": wordBoundary("django"), "express": wordBoundary("express"),
			"flask": wordBoundary("flask"), "nextjs": regexp.MustCompile(`(?i)\b(?:next\.js|nextjs)\b`),
		},
		confFn: func(m int) float64 { return capConfidence(0.95, 0.6, 0.15, m) },
	},
	{
		name: "pattern",
		patterns: map[string]*regexp.Regexp{
			"async": wordBoundary("async"), "singleton": wordBoundary("singleton"),
			"factory": wordBoundary("factory"), "observer": wordBoundary("observer"),
		},
		confFn: func(m int) float64 { return capConfidence(0.85, 0.5, 0.15, m) },
	},
	{
		name: "domain",
		patterns: map[string]*regexp.Regexp{
			"database": wordBoundary("database"), "api": wordBoundary("api"),
			"auth": wordBoundary("auth"), "testing": regexp.MustCompile(`(?i)\b(?:testing|test)\b`),
		},
		confFn: func(m int) float64 { return capConfidence(0.8, 0.5, 0.1, m) },
	},
}

var stopwords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "which": {},
	"their": {}, "about": {}, "would": {}, "there": {}, "these": {}, "other": {},
	"into": {}, "more": {}, "some": {}, "such": {}, "only": {}, "also": {},
	"when": {}, "what": {}, "where": {}, "been": {}, "were": {}, "does": {},
}

var wordPattern = regexp.MustCompile(`[a-zA-Z]{4,}`)

// AutoTag produces an ordered list of (tag_name, confidence) candidates
// from content, keeping only entries at or above minConfidence, capped
// at maxTags, most confident first.
func AutoTag(content string, minConfidence float64, maxTags int) []TagCandidate {
	var candidates []TagCandidate

	for _, fam := range families {
		for name, pattern := range fam.patterns {
			matches := pattern.FindAllStringIndex(content, -1)
			if len(matches) == 0 {
				continue
			}
			confidence := fam.confFn(len(matches))
			candidates = append(candidates, TagCandidate{TagName: fam.name + "/" + name, Confidence: confidence})
		}
	}

	candidates = append(candidates, keywordCandidates(content)...)
	candidates = append(candidates, hierarchicalInference(candidates)...)
	candidates = dedupeCandidates(candidates)

	filtered := candidates[:0]
	for _, c := range candidates {
		if c.Confidence >= minConfidence {
			filtered = append(filtered, c)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Confidence > filtered[j].Confidence })

	if len(filtered) > maxTags {
		filtered = filtered[:maxTags]
	}
	return filtered
}

func keywordCandidates(content string) []TagCandidate {
	words := wordPattern.FindAllString(strings.ToLower(content), -1)
	counts := make(map[string]int)
	total := 0
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		counts[w]++
		total++
	}
	if total == 0 {
		return nil
	}

	type wc struct {
		word  string
		count int
	}
	ordered := make([]wc, 0, len(counts))
	for w, c := range counts {
		ordered = append(ordered, wc{w, c})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].word < ordered[j].word
	})
	if len(ordered) > 5 {
		ordered = ordered[:5]
	}

	out := make([]TagCandidate, 0, len(ordered))
	for _, wc := range ordered {
		confidence := math.Min(0.7, 0.4+(float64(wc.count)/float64(total))*2)
		out = append(out, TagCandidate{TagName: wc.word, Confidence: confidence})
	}
	return out
}

// hierarchicalInference expands flat language/framework/pattern
// candidates into language/<x>, language/<x>/async, framework/<x>,
// pattern/<x>, domain/<x> form where applicable. The family
// candidates already carry the "family/name" shape, so this adds the
// compound language/<x>/async form when both a language and the async
// pattern were detected.
func hierarchicalInference(candidates []TagCandidate) []TagCandidate {
	hasAsync := false
	var languages []string
	for _, c := range candidates {
		if c.TagName == "pattern/async" {
			hasAsync = true
		}
		if strings.HasPrefix(c.TagName, "language/") {
			languages = append(languages, strings.TrimPrefix(c.TagName, "language/"))
		}
	}
	if !hasAsync {
		return nil
	}
	var out []TagCandidate
	for _, lang := range languages {
		out = append(out, TagCandidate{TagName: "language/" + lang + "/async", Confidence: 0.7})
	}
	return out
}

func dedupeCandidates(candidates []TagCandidate) []TagCandidate {
	seen := make(map[string]float64)
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if existing, ok := seen[c.TagName]; !ok || c.Confidence > existing {
			if !ok {
				order = append(order, c.TagName)
			}
			seen[c.TagName] = c.Confidence
		}
	}
	out := make([]TagCandidate, 0, len(order))
	for _, name := range order {
		out = append(out, TagCandidate{TagName: name, Confidence: seen[name]})
	}
	return out
}
