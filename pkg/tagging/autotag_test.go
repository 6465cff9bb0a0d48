package tagging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tagNames(candidates []TagCandidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.TagName
	}
	return out
}

func TestAutoTagDetectsLanguageFamily(t *testing.T) {
	content := "This module is written in Python and uses python extensively."
	candidates := AutoTag(content, 0.5, 10)
	assert.Contains(t, tagNames(candidates), "language/python")
}

func TestAutoTagDetectsFrameworkFamily(t *testing.T) {
	content := "A FastAPI service built with fastapi routes."
	candidates := AutoTag(content, 0.5, 10)
	assert.Contains(t, tagNames(candidates), "framework/fastapi")
}

func TestAutoTagConfidenceCappedAndMonotonic(t *testing.T) {
	one := AutoTag("python", 0, 10)
	many := AutoTag("python python python python python", 0, 10)

	var oneConf, manyConf float64
	for _, c := range one {
		if c.TagName == "language/python" {
			oneConf = c.Confidence
		}
	}
	for _, c := range many {
		if c.TagName == "language/python" {
			manyConf = c.Confidence
		}
	}
	assert.Greater(t, manyConf, oneConf)
	assert.LessOrEqual(t, manyConf, 0.9)
}

func TestAutoTagRespectsMinConfidenceAndMaxTags(t *testing.T) {
	content := "python javascript typescript java golang rust react fastapi django express flask"
	candidates := AutoTag(content, 0.6, 2)
	assert.LessOrEqual(t, len(candidates), 2)
	for _, c := range candidates {
		assert.GreaterOrEqual(t, c.Confidence, 0.6)
	}
}

func TestAutoTagOrderedByConfidenceDescending(t *testing.T) {
	content := "react react react fastapi"
	candidates := AutoTag(content, 0, 10)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Confidence, candidates[i].Confidence)
	}
}

func TestAutoTagHierarchicalAsyncExpansion(t *testing.T) {
	content := "An async python service using asyncio, python python python."
	candidates := AutoTag(content, 0, 20)
	assert.Contains(t, tagNames(candidates), "language/python/async")
}

func TestAutoTagKeywordExtractionSkipsStopwords(t *testing.T) {
	content := "this that with from have which their about would there configuration database"
	candidates := AutoTag(content, 0, 20)
	names := tagNames(candidates)
	assert.NotContains(t, names, "this")
	assert.NotContains(t, names, "that")
}

func TestAutoTagEmptyContentYieldsNoCandidates(t *testing.T) {
	candidates := AutoTag("", 0, 10)
	assert.Empty(t, candidates)
}

func TestAutoTagNoDuplicateTagNames(t *testing.T) {
	candidates := AutoTag("python python async async auth auth", 0, 50)
	seen := make(map[string]bool)
	for _, c := range candidates {
		assert.False(t, seen[c.TagName], "duplicate tag %s", c.TagName)
		seen[c.TagName] = true
	}
}
