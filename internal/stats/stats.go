// Package stats derives usage statistics from the alias collection.
package stats

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/NeverVane/shorty/internal/alias"
)

// TagCount pairs a tag with its usage count.
type TagCount struct {
	Tag   string
	Count int
}

// Summary holds everything the stats command reports.
type Summary struct {
	TotalAliases int
	WithNotes    int
	WithTags     int
	Categorized  int

	TagFrequency   map[string]int
	CategoryCounts map[string]int
	CommandKinds   map[string]int

	AvgCommandLength float64
	Longest          *alias.Alias
	Shortest         *alias.Alias
	DuplicateGroups  int

	FileSizeBytes int64

	Recommendations []string
}

// NoteCoverage returns the fraction of aliases carrying a note.
func (s *Summary) NoteCoverage() float64 {
	if s.TotalAliases == 0 {
		return 0
	}
	return float64(s.WithNotes) / float64(s.TotalAliases)
}

// TagCoverage returns the fraction of aliases carrying at least one tag.
func (s *Summary) TagCoverage() float64 {
	if s.TotalAliases == 0 {
		return 0
	}
	return float64(s.WithTags) / float64(s.TotalAliases)
}

// TopTags returns the n most used tags, most frequent first, ties by
// name for stable output.
func (s *Summary) TopTags(n int) []TagCount {
	out := make([]TagCount, 0, len(s.TagFrequency))
	for tag, count := range s.TagFrequency {
		out = append(out, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopCommandKinds returns the n most common leading executables.
func (s *Summary) TopCommandKinds(n int) []TagCount {
	out := make([]TagCount, 0, len(s.CommandKinds))
	for kind, count := range s.CommandKinds {
		out = append(out, TagCount{Tag: kind, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Compute builds a summary over the aliases. filePath, if non-empty,
// contributes the on-disk file size.
func Compute(aliases []*alias.Alias, filePath string) *Summary {
	s := &Summary{
		TagFrequency:   make(map[string]int),
		CategoryCounts: make(map[string]int),
		CommandKinds:   make(map[string]int),
	}

	var totalLen int
	seenCommands := make(map[string]int)
	for _, a := range aliases {
		s.TotalAliases++
		if a.Note != "" {
			s.WithNotes++
		}
		if len(a.Tags) > 0 {
			s.WithTags++
		}
		if a.Category != "" {
			s.Categorized++
			s.CategoryCounts[a.Category]++
		}
		for _, t := range a.Tags {
			s.TagFrequency[t]++
		}

		if kind := commandKind(a.Command); kind != "" {
			s.CommandKinds[kind]++
		}

		totalLen += len(a.Command)
		if s.Longest == nil || len(a.Command) > len(s.Longest.Command) {
			s.Longest = a
		}
		if s.Shortest == nil || len(a.Command) < len(s.Shortest.Command) {
			s.Shortest = a
		}

		seenCommands[alias.NormalizeCommand(a.Command)]++
	}

	if s.TotalAliases > 0 {
		s.AvgCommandLength = float64(totalLen) / float64(s.TotalAliases)
	}
	for _, n := range seenCommands {
		if n > 1 {
			s.DuplicateGroups++
		}
	}

	if filePath != "" {
		if info, err := os.Stat(filePath); err == nil {
			s.FileSizeBytes = info.Size()
		}
	}

	s.Recommendations = recommendations(s)
	return s
}

// commandKind buckets a command by its leading executable, skipping
// environment assignments and a sudo prefix.
func commandKind(command string) string {
	for _, f := range strings.Fields(command) {
		if strings.Contains(f, "=") || f == "sudo" {
			continue
		}
		return f
	}
	return ""
}

func recommendations(s *Summary) []string {
	if s.TotalAliases == 0 {
		return []string{"No aliases yet. Add one with `shorty add NAME COMMAND`."}
	}

	var recs []string
	if s.NoteCoverage() < 0.5 {
		recs = append(recs, fmt.Sprintf("Only %d of %d aliases have notes. Notes make search far more useful.", s.WithNotes, s.TotalAliases))
	}
	if s.TagCoverage() < 0.3 {
		recs = append(recs, "Few aliases are tagged. Tags enable `shorty list --tag` filtering.")
	}
	if s.DuplicateGroups > 0 {
		recs = append(recs, fmt.Sprintf("%d commands have multiple aliases. Run `shorty duplicates` to review them.", s.DuplicateGroups))
	}
	if s.Categorized == 0 && s.TotalAliases >= 10 {
		recs = append(recs, "No aliases are categorized. Assign categories to group related aliases.")
	}
	return recs
}
