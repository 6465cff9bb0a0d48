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

// Package bm25 tokenizes a document corpus and scores queries against
// it using the Okapi BM25 ranking function.
package bm25

import (
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Index holds the term-frequency statistics of a fitted corpus.
type Index struct {
	K1 float64
	B  float64

	docs       [][]string
	docFreq    map[string]int   // term -> number of documents containing it
	termCounts []map[string]int // per-document term -> count
	docLens    []int
	avgDocLen  float64
}

// New creates an Index with the standard BM25 defaults (k1=1.5, b=0.75).
func New() *Index {
	return &Index{K1: 1.5, B: 0.75}
}

// Fit rebuilds the index from scratch over documents. Idempotent.
func (idx *Index) Fit(documents []string) {
	idx.docs = make([][]string, len(documents))
	idx.termCounts = make([]map[string]int, len(documents))
	idx.docLens = make([]int, len(documents))
	idx.docFreq = make(map[string]int)

	totalLen := 0
	for i, doc := range documents {
		tokens := tokenize(doc)
		idx.docs[i] = tokens
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)

		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		idx.termCounts[i] = counts

		for tok := range counts {
			idx.docFreq[tok]++
		}
	}

	if len(documents) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(documents))
	} else {
		idx.avgDocLen = 0
	}
}

// GetScores returns a BM25 score per document, in the same order as
// the corpus passed to Fit. A document containing no query token
// scores 0.
func (idx *Index) GetScores(query string) []float64 {
	n := len(idx.docs)
	scores := make([]float64, n)
	if n == 0 {
		return scores
	}

	queryTerms := tokenize(query)
	numDocs := float64(n)
	avgDocLen := idx.avgDocLen
	if avgDocLen == 0 {
		avgDocLen = 1
	}

	for _, term := range queryTerms {
		df := idx.docFreq[term]
		if df == 0 {
			continue
		}
		idf := math.Log(1 + (numDocs-float64(df)+0.5)/(float64(df)+0.5))

		for i := 0; i < n; i++ {
			tf := float64(idx.termCounts[i][term])
			if tf == 0 {
				continue
			}
			denom := tf + idx.K1*(1-idx.B+idx.B*float64(idx.docLens[i])/avgDocLen)
			scores[i] += idf * (tf * (idx.K1 + 1) / denom)
		}
	}

	return scores
}
