package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinOrNone(t *testing.T) {
	tests := []struct {
		name  string
		hosts []string
		want  string
	}{
		{name: "no hosts", hosts: nil, want: "(none)"},
		{name: "empty host list", hosts: []string{}, want: "(none)"},
		{name: "one host", hosts: []string{"admin1"}, want: "admin1"},
		{name: "cluster", hosts: []string{"admin1", "admin2"}, want: "admin1, admin2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinOrNone(tt.hosts))
		})
	}
}

func TestJoinOrDefault(t *testing.T) {
	assert.Equal(t, "(local)", JoinOrDefault(nil, "(local)"))
	assert.Equal(t, "lb1, lb2", JoinOrDefault([]string{"lb1", "lb2"}, "(local)"))
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{count: 0, want: "hosts"},
		{count: 1, want: "host"},
		{count: 2, want: "hosts"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Pluralize(tt.count, "host", "hosts"))
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "deploy", 6},
		{"stable", "stable", 0},
		{"mastr", "master", 1},
		{"stagign", "staging", 2},
		{"load_db", "reload_db", 2},
		{"Deploy", "deploy", 1},
		{"admin1", "admin2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"->"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestSuggestSimilar(t *testing.T) {
	candidates := []string{
		"create_db", "deploy", "destroy_db", "dump_db", "load_db", "master",
		"production", "reload_db", "stable", "staging",
	}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "swapped letters in a command", input: "deplyo", want: []string{"deploy"}},
		{name: "one letter off", input: "dumb_db", want: []string{"dump_db"}},
		{name: "truncated target", input: "stagin", want: []string{"staging"}},
		{name: "target in capitals", input: "PRODUCTION", want: []string{"production"}},
		{name: "exact match first", input: "reload_db", want: []string{"reload_db", "load_db"}},
		{name: "nothing close", input: "rollback", want: nil},
		{name: "empty word", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestSimilar(tt.input, candidates, 3))
		})
	}
}

func TestSuggestSimilar_Limit(t *testing.T) {
	hosts := []string{"admin1", "admin2", "admin3"}

	assert.Equal(t, []string{"admin1", "admin2"}, SuggestSimilar("admin", hosts, 2))
}

func TestSuggestSimilar_NoCandidates(t *testing.T) {
	assert.Nil(t, SuggestSimilar("deploy", nil, 3))
	assert.Nil(t, SuggestSimilar("deploy", []string{}, 3))
}
