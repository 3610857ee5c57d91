package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/shorty/internal/alias"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "aliases"))
}

func mustAlias(t *testing.T, name, command string) *alias.Alias {
	t.Helper()
	a, err := alias.New(name, command, "", nil)
	require.NoError(t, err)
	return a
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)

	col, warnings, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 0, col.Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	col := NewCollection()
	require.NoError(t, col.Add(mustAlias(t, "gs", "git status"), Reject, false))
	ll, err := alias.New("ll", "ls -la", "long listing", []string{"files"})
	require.NoError(t, err)
	require.NoError(t, col.Add(ll, Reject, false))
	require.NoError(t, s.Save(col))

	loaded, warnings, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Equal(t, 2, loaded.Len())

	got, ok := loaded.Get("ll")
	require.True(t, ok)
	assert.Equal(t, "ls -la", got.Command)
	assert.Equal(t, "long listing", got.Note)
	assert.Equal(t, []string{"files"}, got.Tags)

	// File order preserved
	names := []string{loaded.List()[0].Name, loaded.List()[1].Name}
	assert.Equal(t, []string{"gs", "ll"}, names)
}

func TestLoadCollectsWarnings(t *testing.T) {
	s := newTestStore(t)
	content := strings.Join([]string{
		"# a comment",
		"alias gs='git status'",
		"alias broken=",
		"export NOT_AN_ALIAS=1",
		"alias gs='git stash'",
		"alias ok='echo fine'",
	}, "\n")
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0644))

	col, warnings, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, col.Len())
	require.Len(t, warnings, 3)

	// Duplicate name keeps the first definition
	gs, ok := col.Get("gs")
	require.True(t, ok)
	assert.Equal(t, "git status", gs.Command)
	assert.Contains(t, warnings[2].Reason, "duplicate alias name")
}

func TestSaveIsAtomic(t *testing.T) {
	s := newTestStore(t)

	col := NewCollection()
	require.NoError(t, col.Add(mustAlias(t, "gs", "git status"), Reject, false))
	require.NoError(t, s.Save(col))

	require.NoError(t, col.Add(mustAlias(t, "gp", "git push"), Reject, false))
	require.NoError(t, s.Save(col))

	// No temp files left behind, file is sourceable text
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "aliases", entries[0].Name())

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "alias gs='git status'")
	assert.Contains(t, string(data), "alias gp='git push'")
}

func TestSaveFailureKeepsOldFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not bind root")
	}
	s := newTestStore(t)

	col := NewCollection()
	require.NoError(t, col.Add(mustAlias(t, "gs", "git status"), Reject, false))
	require.NoError(t, s.Save(col))
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	// A read-only directory makes the temp file creation fail, which
	// must leave the existing file untouched.
	dir := filepath.Dir(s.Path())
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	require.NoError(t, col.Add(mustAlias(t, "gp", "git push"), Reject, false))
	require.Error(t, s.Save(col))

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.NoError(t, os.Chmod(dir, 0755))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1) // no stray temp files
}

func TestAddPolicies(t *testing.T) {
	col := NewCollection()
	require.NoError(t, col.Add(mustAlias(t, "gs", "git status"), Reject, false))

	err := col.Add(mustAlias(t, "gs", "git stash"), Reject, false)
	assert.ErrorIs(t, err, ErrConflict)
	got, _ := col.Get("gs")
	assert.Equal(t, "git status", got.Command)

	require.NoError(t, col.Add(mustAlias(t, "gs", "git stash"), Replace, false))
	got, _ = col.Get("gs")
	assert.Equal(t, "git stash", got.Command)
	assert.Equal(t, 1, col.Len())
}

func TestAddSorted(t *testing.T) {
	col := NewCollection()
	for _, name := range []string{"m", "a", "z", "k"} {
		require.NoError(t, col.Add(mustAlias(t, name, "cmd-"+name), Reject, true))
	}

	var names []string
	for _, a := range col.List() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"a", "k", "m", "z"}, names)

	// Replace keeps position even in sorted mode
	require.NoError(t, col.Add(mustAlias(t, "k", "new"), Replace, true))
	got, _ := col.Get("k")
	assert.Equal(t, "new", got.Command)
	assert.Equal(t, 4, col.Len())
}

func TestRemove(t *testing.T) {
	col := NewCollection()
	require.NoError(t, col.Add(mustAlias(t, "gs", "git status"), Reject, false))
	require.NoError(t, col.Add(mustAlias(t, "gp", "git push"), Reject, false))

	require.NoError(t, col.Remove("gs"))
	assert.Equal(t, 1, col.Len())
	_, ok := col.Get("gs")
	assert.False(t, ok)

	// Index stays consistent after removal
	gp, ok := col.Get("gp")
	require.True(t, ok)
	assert.Equal(t, "git push", gp.Command)

	assert.ErrorIs(t, col.Remove("gs"), ErrNotFound)
}

func TestEdit(t *testing.T) {
	col := NewCollection()
	a, err := alias.New("gs", "git status", "old note", []string{"git"})
	require.NoError(t, err)
	require.NoError(t, col.Add(a, Reject, false))

	// Omitted fields keep their values
	newCmd := "git status -sb"
	_, err = col.Edit("gs", Update{Command: &newCmd})
	require.NoError(t, err)
	got, _ := col.Get("gs")
	assert.Equal(t, "git status -sb", got.Command)
	assert.Equal(t, "old note", got.Note)
	assert.Equal(t, []string{"git"}, got.Tags)

	// Incoming notes are trimmed so the file round-trips
	padded := "  short status \t"
	_, err = col.Edit("gs", Update{Note: &padded})
	require.NoError(t, err)
	got, _ = col.Get("gs")
	assert.Equal(t, "short status", got.Note)

	// Explicit empty clears
	empty := ""
	noTags := []string{}
	_, err = col.Edit("gs", Update{Note: &empty, Tags: &noTags})
	require.NoError(t, err)
	got, _ = col.Get("gs")
	assert.Empty(t, got.Note)
	assert.Empty(t, got.Tags)

	// Invalid update is rejected and the alias is untouched
	bad := " "
	_, err = col.Edit("gs", Update{Command: &bad})
	assert.Error(t, err)
	got, _ = col.Get("gs")
	assert.Equal(t, "git status -sb", got.Command)

	_, err = col.Edit("nope", Update{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRename(t *testing.T) {
	col := NewCollection()
	require.NoError(t, col.Add(mustAlias(t, "gs", "git status"), Reject, false))
	require.NoError(t, col.Add(mustAlias(t, "gp", "git push"), Reject, false))

	require.NoError(t, col.Rename("gs", "gst"))
	_, ok := col.Get("gs")
	assert.False(t, ok)
	got, ok := col.Get("gst")
	require.True(t, ok)
	assert.Equal(t, "git status", got.Command)

	assert.ErrorIs(t, col.Rename("gst", "gp"), ErrConflict)
	assert.ErrorIs(t, col.Rename("missing", "x"), ErrNotFound)
	assert.Error(t, col.Rename("gst", "9bad"))
}

func TestFilters(t *testing.T) {
	col := NewCollection()
	a1, _ := alias.New("gs", "git status", "", []string{"git", "category:vcs"})
	a2, _ := alias.New("gp", "git push", "", []string{"git", "remote", "category:vcs"})
	a3, _ := alias.New("ll", "ls -la", "", nil)
	for _, a := range []*alias.Alias{a1, a2, a3} {
		require.NoError(t, col.Add(a, Reject, false))
	}

	assert.Len(t, col.FilterTag("git"), 2)
	assert.Len(t, col.FilterTag("remote"), 1)
	assert.Empty(t, col.FilterTag("docker"))

	assert.Len(t, col.FilterCategory("vcs"), 2)
	assert.Len(t, col.FilterCategory("VCS"), 2)
	uncategorized := col.FilterCategory("")
	require.Len(t, uncategorized, 1)
	assert.Equal(t, "ll", uncategorized[0].Name)
}

func TestDuplicates(t *testing.T) {
	col := NewCollection()
	require.NoError(t, col.Add(mustAlias(t, "gs", "git status"), Reject, false))
	require.NoError(t, col.Add(mustAlias(t, "stat", "git   status"), Reject, false))
	require.NoError(t, col.Add(mustAlias(t, "ll", "ls -la"), Reject, false))
	require.NoError(t, col.Add(mustAlias(t, "st", "git status"), Reject, false))

	groups := col.Duplicates()
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 3)
	assert.Equal(t, "gs", groups[0][0].Name)
}

func TestDedupeKeepsFirst(t *testing.T) {
	col := NewCollection()
	require.NoError(t, col.Add(mustAlias(t, "gs", "git status"), Reject, false))
	require.NoError(t, col.Add(mustAlias(t, "stat", "git   status"), Reject, false))
	require.NoError(t, col.Add(mustAlias(t, "ll", "ls -la"), Reject, false))
	require.NoError(t, col.Add(mustAlias(t, "st", "git status"), Reject, false))

	removed := col.Dedupe()
	require.Len(t, removed, 2)
	assert.Equal(t, "stat", removed[0].Name)
	assert.Equal(t, "st", removed[1].Name)

	assert.Equal(t, 2, col.Len())
	_, ok := col.Get("gs")
	assert.True(t, ok)
	_, ok = col.Get("ll")
	assert.True(t, ok)

	// Idempotent
	assert.Empty(t, col.Dedupe())
}

func TestTagAndCategoryCounts(t *testing.T) {
	col := NewCollection()
	a1, _ := alias.New("gs", "git status", "", []string{"git", "category:vcs"})
	a2, _ := alias.New("gp", "git push", "", []string{"git", "remote", "category:vcs"})
	require.NoError(t, col.Add(a1, Reject, false))
	require.NoError(t, col.Add(a2, Reject, false))

	assert.Equal(t, map[string]int{"git": 2, "remote": 1}, col.Tags())
	assert.Equal(t, map[string]int{"vcs": 2}, col.Categories())
}
