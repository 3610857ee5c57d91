package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/shorty/internal/alias"
	"github.com/NeverVane/shorty/internal/config"
)

func testAliases(t *testing.T) []*alias.Alias {
	t.Helper()
	specs := []struct {
		name, command, note string
		tags                []string
	}{
		{"gs", "git status", "quick status", []string{"git", "category:vcs"}},
		{"gp", "git push", "", []string{"git", "remote", "category:vcs"}},
		{"ll", "ls -la", "long listing", []string{"files"}},
		{"dcu", "docker compose up -d", "start the stack", []string{"docker", "category:containers"}},
		{"grep-logs", "grep -r ERROR /var/log", "", nil},
	}

	var out []*alias.Alias
	for _, s := range specs {
		a, err := alias.New(s.name, s.command, s.note, s.tags)
		require.NoError(t, err)
		out = append(out, a)
	}
	return out
}

func newTestEngine() *Engine {
	cfg := config.DefaultConfig()
	return NewEngine(&cfg.Search)
}

func names(results []*Result) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Alias.Name)
	}
	return out
}

func TestSubstringSearch(t *testing.T) {
	e := newTestEngine()
	aliases := testAliases(t)

	results, err := e.Search(aliases, Options{Query: "git"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gs", "gp"}, names(results))

	results, err = e.Search(aliases, Options{Query: "ll"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ll"}, names(results))

	// Case-insensitive by default
	results, err = e.Search(aliases, Options{Query: "GIT"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCaseSensitiveSearch(t *testing.T) {
	e := newTestEngine()
	aliases := testAliases(t)

	results, err := e.Search(aliases, Options{Query: "ERROR", CaseSensitive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"grep-logs"}, names(results))

	results, err = e.Search(aliases, Options{Query: "error", CaseSensitive: true})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFieldScopes(t *testing.T) {
	e := newTestEngine()
	aliases := testAliases(t)

	tests := []struct {
		field Field
		query string
		want  []string
	}{
		{FieldName, "gs", []string{"gs"}},
		{FieldCommand, "docker", []string{"dcu"}},
		{FieldNote, "listing", []string{"ll"}},
		{FieldTag, "remote", []string{"gp"}},
		{FieldTag, "category:vcs", []string{"gs", "gp"}},
		{FieldAny, "stack", []string{"dcu"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.field)+"/"+tt.query, func(t *testing.T) {
			results, err := e.Search(aliases, Options{Query: tt.query, Field: tt.field})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(results))
		})
	}
}

func TestAnyScopeRespectsConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Search.SearchInNotes = false
	cfg.Search.SearchInTags = false
	e := NewEngine(&cfg.Search)
	aliases := testAliases(t)

	// "listing" only appears in a note
	results, err := e.Search(aliases, Options{Query: "listing"})
	require.NoError(t, err)
	assert.Empty(t, results)

	// "remote" only appears in a tag
	results, err = e.Search(aliases, Options{Query: "remote"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRegexSearch(t *testing.T) {
	e := newTestEngine()
	aliases := testAliases(t)

	results, err := e.Search(aliases, Options{Query: `^git (status|push)$`, Field: FieldCommand, Regex: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"gs", "gp"}, names(results))

	_, err = e.Search(aliases, Options{Query: `unclosed[`, Regex: true})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestFuzzySearch(t *testing.T) {
	e := newTestEngine()
	aliases := testAliases(t)

	results, err := e.Search(aliases, Options{Query: "dkrcmp", Field: FieldCommand, Fuzzy: true})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "dcu", results[0].Alias.Name)
}

func TestFilters(t *testing.T) {
	e := newTestEngine()
	aliases := testAliases(t)

	// Filter-only search
	results, err := e.Search(aliases, Options{Tag: "git"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gs", "gp"}, names(results))

	results, err = e.Search(aliases, Options{Category: "containers"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dcu"}, names(results))

	// Keyword AND tag
	results, err = e.Search(aliases, Options{Query: "push", Tag: "git"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gp"}, names(results))

	// Keyword AND tag AND category, no survivors
	results, err = e.Search(aliases, Options{Query: "push", Tag: "git", Category: "containers"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEmptyResultIsNotAnError(t *testing.T) {
	e := newTestEngine()

	results, err := e.Search(testAliases(t), Options{Query: "no-such-thing"})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = e.Search(nil, Options{Query: "anything"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestParseField(t *testing.T) {
	f, err := ParseField("Command")
	require.NoError(t, err)
	assert.Equal(t, FieldCommand, f)

	f, err = ParseField("")
	require.NoError(t, err)
	assert.Equal(t, FieldAny, f)

	_, err = ParseField("bogus")
	assert.Error(t, err)
}
