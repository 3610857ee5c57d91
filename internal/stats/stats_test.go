package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/shorty/internal/alias"
)

func buildAliases(t *testing.T) []*alias.Alias {
	t.Helper()
	specs := []struct {
		name, command, note string
		tags                []string
	}{
		{"gs", "git status", "quick status", []string{"git", "category:vcs"}},
		{"gp", "git push", "", []string{"git", "category:vcs"}},
		{"st", "git  status", "", nil},
		{"ll", "ls -la", "long listing", []string{"files"}},
		{"up", "sudo apt update", "", nil},
	}
	var out []*alias.Alias
	for _, sp := range specs {
		a, err := alias.New(sp.name, sp.command, sp.note, sp.tags)
		require.NoError(t, err)
		out = append(out, a)
	}
	return out
}

func TestComputeTotals(t *testing.T) {
	s := Compute(buildAliases(t), "")

	assert.Equal(t, 5, s.TotalAliases)
	assert.Equal(t, 2, s.WithNotes)
	assert.Equal(t, 3, s.WithTags)
	assert.Equal(t, 2, s.Categorized)
	assert.Equal(t, map[string]int{"vcs": 2}, s.CategoryCounts)
	assert.Equal(t, map[string]int{"git": 2, "files": 1}, s.TagFrequency)
	assert.InDelta(t, 0.4, s.NoteCoverage(), 0.001)
	assert.InDelta(t, 0.6, s.TagCoverage(), 0.001)
}

func TestCommandKindsSkipSudoAndEnv(t *testing.T) {
	aliases := buildAliases(t)
	extra, err := alias.New("dev", "NODE_ENV=dev node server.js", "", nil)
	require.NoError(t, err)
	s := Compute(append(aliases, extra), "")

	assert.Equal(t, 3, s.CommandKinds["git"])
	assert.Equal(t, 1, s.CommandKinds["apt"])
	assert.Equal(t, 1, s.CommandKinds["node"])
	assert.Zero(t, s.CommandKinds["sudo"])
}

func TestLengthExtremes(t *testing.T) {
	s := Compute(buildAliases(t), "")

	assert.Equal(t, "up", s.Longest.Name)
	assert.Equal(t, "ll", s.Shortest.Name)
	assert.Positive(t, s.AvgCommandLength)
}

func TestDuplicateGroupsUseNormalizedCommands(t *testing.T) {
	s := Compute(buildAliases(t), "")
	// "git status" and "git  status" collapse into one group
	assert.Equal(t, 1, s.DuplicateGroups)
}

func TestTopTags(t *testing.T) {
	s := Compute(buildAliases(t), "")

	top := s.TopTags(1)
	require.Len(t, top, 1)
	assert.Equal(t, TagCount{Tag: "git", Count: 2}, top[0])

	all := s.TopTags(0)
	assert.Len(t, all, 2)
}

func TestFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases")
	require.NoError(t, os.WriteFile(path, []byte("alias gs='git status'\n"), 0644))

	s := Compute(buildAliases(t), path)
	assert.Equal(t, int64(22), s.FileSizeBytes)

	s = Compute(buildAliases(t), filepath.Join(t.TempDir(), "missing"))
	assert.Zero(t, s.FileSizeBytes)
}

func TestRecommendations(t *testing.T) {
	s := Compute(nil, "")
	require.Len(t, s.Recommendations, 1)
	assert.Contains(t, s.Recommendations[0], "No aliases yet")

	s = Compute(buildAliases(t), "")
	var hasDuplicateRec bool
	for _, r := range s.Recommendations {
		if strings.Contains(r, "duplicates") {
			hasDuplicateRec = true
		}
	}
	assert.True(t, hasDuplicateRec)
}
