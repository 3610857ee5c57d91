// Package search implements the alias search and filter engine. It is
// a linear scan over the in-memory collection; the alias file is small
// enough that indexing would be overhead, not optimization.
package search

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/NeverVane/shorty/internal/alias"
	"github.com/NeverVane/shorty/internal/config"
	"github.com/NeverVane/shorty/internal/logger"
)

// ErrInvalidPattern is returned when a regex query does not compile.
var ErrInvalidPattern = errors.New("invalid search pattern")

// Field scopes a query to one part of the alias record.
type Field string

const (
	FieldName    Field = "name"
	FieldCommand Field = "command"
	FieldNote    Field = "note"
	FieldTag     Field = "tag"
	FieldAny     Field = "any"
)

// ParseField validates a field name from the CLI.
func ParseField(s string) (Field, error) {
	switch Field(strings.ToLower(s)) {
	case FieldName, FieldCommand, FieldNote, FieldTag, FieldAny:
		return Field(strings.ToLower(s)), nil
	case "":
		return FieldAny, nil
	}
	return "", fmt.Errorf("unknown search field %q (use name, command, note, tag or any)", s)
}

// Options describes one search. Tag and Category are filters composed
// with the keyword by AND; either may be used without a keyword.
type Options struct {
	Query         string
	Field         Field
	Regex         bool
	Fuzzy         bool
	CaseSensitive bool
	Tag           string
	Category      string
}

// Result pairs a matching alias with its fuzzy score (0 for the exact
// match modes).
type Result struct {
	Alias *alias.Alias
	Score int
}

// Engine evaluates searches against a slice of aliases.
type Engine struct {
	cfg    *config.SearchConfig
	logger *logger.Logger
}

// NewEngine returns an engine using the given search configuration.
func NewEngine(cfg *config.SearchConfig) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.GetLogger().Search(),
	}
}

// Search returns the aliases matching opts, in file order for the
// exact modes and by descending score for fuzzy. An empty result is
// not an error.
func (e *Engine) Search(aliases []*alias.Alias, opts Options) ([]*Result, error) {
	if opts.Field == "" {
		opts.Field = FieldAny
	}

	match, err := e.buildMatcher(opts)
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, a := range aliases {
		if opts.Tag != "" && !a.HasTag(opts.Tag) {
			continue
		}
		if opts.Category != "" && !strings.EqualFold(a.Category, opts.Category) {
			continue
		}
		score, ok := match(a)
		if !ok {
			continue
		}
		results = append(results, &Result{Alias: a, Score: score})
	}

	if opts.Fuzzy && opts.Query != "" {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}

	e.logger.Debug().
		Str("query", opts.Query).
		Str("field", string(opts.Field)).
		Int("results", len(results)).
		Msg("search executed")
	return results, nil
}

type matcher func(*alias.Alias) (int, bool)

func (e *Engine) buildMatcher(opts Options) (matcher, error) {
	if opts.Query == "" {
		// Filter-only search: every alias that survived the tag and
		// category filters matches.
		return func(*alias.Alias) (int, bool) { return 0, true }, nil
	}

	caseSensitive := opts.CaseSensitive || e.cfg.CaseSensitive

	if opts.Regex {
		pattern := opts.Query
		if !caseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		return func(a *alias.Alias) (int, bool) {
			for _, v := range e.fieldValues(a, opts.Field) {
				if re.MatchString(v) {
					return 0, true
				}
			}
			return 0, false
		}, nil
	}

	if opts.Fuzzy || e.cfg.FuzzyMatching {
		return func(a *alias.Alias) (int, bool) {
			best := 0
			found := false
			for _, v := range e.fieldValues(a, opts.Field) {
				matches := fuzzy.Find(opts.Query, []string{v})
				if len(matches) == 0 {
					continue
				}
				if !found || matches[0].Score > best {
					best = matches[0].Score
					found = true
				}
			}
			return best, found
		}, nil
	}

	query := opts.Query
	if !caseSensitive {
		query = strings.ToLower(query)
	}
	return func(a *alias.Alias) (int, bool) {
		for _, v := range e.fieldValues(a, opts.Field) {
			if !caseSensitive {
				v = strings.ToLower(v)
			}
			if strings.Contains(v, query) {
				return 0, true
			}
		}
		return 0, false
	}, nil
}

// fieldValues returns the searchable strings of an alias for a scope.
// The any scope honors the search_in_notes and search_in_tags settings.
func (e *Engine) fieldValues(a *alias.Alias, field Field) []string {
	switch field {
	case FieldName:
		return []string{a.Name}
	case FieldCommand:
		return []string{a.Command}
	case FieldNote:
		return []string{a.Note}
	case FieldTag:
		return a.AllTags()
	default:
		values := []string{a.Name, a.Command}
		if e.cfg.SearchInNotes && a.Note != "" {
			values = append(values, a.Note)
		}
		if e.cfg.SearchInTags {
			values = append(values, a.AllTags()...)
		}
		return values
	}
}
