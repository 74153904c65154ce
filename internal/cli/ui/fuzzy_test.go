package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1       string
		s2       string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"Post", "Pst", 1},
		{"café", "cafe", 1},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevenshteinDistance(tt.s1, tt.s2))
		})
	}
}

func TestFindSimilar(t *testing.T) {
	models := []string{"Post", "Author", "Comment", "Tag"}

	tests := []struct {
		name     string
		target   string
		opts     *FuzzyMatchOptions
		expected []string
	}{
		{"closest first", "Pst", nil, []string{"Post", "Tag"}},
		{"case insensitive", "author", nil, []string{"Author"}},
		{"case sensitive", "AUTHOR", &FuzzyMatchOptions{MaxDistance: 1, CaseSensitive: true}, []string{}},
		{"limited suggestions", "Pst", &FuzzyMatchOptions{MaxSuggestions: 1}, []string{"Post"}},
		{"nothing close", "Zzzzzzzzz", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindSimilar(tt.target, models, tt.opts))
		})
	}
}
