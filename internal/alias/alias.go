// Package alias defines the alias record model and its line grammar.
//
// Aliases persist as lines in a shell-sourceable file:
//
//	alias NAME='COMMAND' # NOTE #tags:tag1,tag2
//
// The command is single-quoted with embedded quotes escaped the POSIX
// way (quote, backslash-quote, quote), so the file can be sourced by
// bash and zsh directly. Note
// and tags live in the trailing comment and are invisible to the
// shell. A category is carried as a "category:NAME" pseudo-tag.
package alias

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// CategoryTagPrefix marks the pseudo-tag that carries the category.
const CategoryTagPrefix = "category:"

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// Alias is a single named shell shortcut.
type Alias struct {
	Name     string
	Command  string
	Note     string
	Tags     []string
	Category string

	// Provenance metadata, not persisted in the alias file.
	// Populated by importers and carried through export.
	ShellSource string
	CreatedAt   time.Time
}

// ParseError describes a malformed line in the alias file.
type ParseError struct {
	LineNo int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.LineNo, e.Reason, e.Text)
}

// New builds a validated alias. Tags are normalized, the note is
// trimmed, and the category tag (if present among the tags) is lifted
// into the Category field.
func New(name, command, note string, tags []string) (*Alias, error) {
	a := &Alias{Name: name, Command: command, Note: strings.TrimSpace(note)}
	for _, t := range tags {
		nt := NormalizeTag(t)
		if nt == "" {
			continue
		}
		if strings.HasPrefix(nt, CategoryTagPrefix) {
			a.Category = strings.TrimPrefix(nt, CategoryTagPrefix)
			continue
		}
		a.Tags = append(a.Tags, nt)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the structural invariants of an alias.
func (a *Alias) Validate() error {
	if !ValidName(a.Name) {
		return fmt.Errorf("invalid alias name %q: must start with a letter or underscore and contain only letters, digits, underscores and hyphens", a.Name)
	}
	if strings.TrimSpace(a.Command) == "" {
		return fmt.Errorf("alias %q has an empty command", a.Name)
	}
	if strings.ContainsAny(a.Command, "\n\r") {
		return fmt.Errorf("alias %q: command must not contain newlines", a.Name)
	}
	if strings.ContainsAny(a.Note, "\n\r") {
		return fmt.Errorf("alias %q: note must not contain newlines", a.Name)
	}
	// Parsing trims around the note, so an untrimmed note would not
	// survive a serialize/parse round trip.
	if a.Note != strings.TrimSpace(a.Note) {
		return fmt.Errorf("alias %q: note must not have leading or trailing whitespace", a.Name)
	}
	return nil
}

// ValidName reports whether s is usable as an alias name.
func ValidName(s string) bool {
	return nameRe.MatchString(s)
}

// NormalizeTag lowercases a tag, folds inner whitespace to hyphens and
// strips commas (the tag list separator).
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(strings.ToLower(tag))
	tag = strings.ReplaceAll(tag, ",", "")
	return strings.Join(strings.Fields(tag), "-")
}

// Line renders the alias as one line of the alias file.
func (a *Alias) Line() string {
	var b strings.Builder
	b.WriteString("alias ")
	b.WriteString(a.Name)
	b.WriteString("='")
	b.WriteString(strings.ReplaceAll(a.Command, "'", `'\''`))
	b.WriteString("'")
	if a.Note != "" {
		b.WriteString(" # ")
		b.WriteString(strings.ReplaceAll(a.Note, "#", `\#`))
	}
	tags := a.Tags
	if a.Category != "" {
		tags = append(append([]string{}, a.Tags...), CategoryTagPrefix+a.Category)
	}
	if len(tags) > 0 {
		b.WriteString(" #tags:")
		b.WriteString(strings.Join(tags, ","))
	}
	return b.String()
}

// ParseLine parses one line of the alias file. Blank lines and plain
// comments yield (nil, nil); anything else must be a well-formed alias
// definition or a *ParseError is returned.
func ParseLine(lineNo int, line string) (*Alias, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}

	if !strings.HasPrefix(trimmed, "alias ") {
		return nil, &ParseError{LineNo: lineNo, Text: line, Reason: "not an alias definition"}
	}
	rest := trimmed[len("alias "):]

	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return nil, &ParseError{LineNo: lineNo, Text: line, Reason: "missing '=' after alias name"}
	}
	name := strings.TrimSpace(rest[:eq])
	if !ValidName(name) {
		return nil, &ParseError{LineNo: lineNo, Text: line, Reason: fmt.Sprintf("invalid alias name %q", name)}
	}

	rest = rest[eq+1:]
	if !strings.HasPrefix(rest, "'") {
		return nil, &ParseError{LineNo: lineNo, Text: line, Reason: "command must be single-quoted"}
	}

	command, tail, err := scanQuoted(rest)
	if err != nil {
		return nil, &ParseError{LineNo: lineNo, Text: line, Reason: err.Error()}
	}
	if strings.TrimSpace(command) == "" {
		return nil, &ParseError{LineNo: lineNo, Text: line, Reason: "empty command"}
	}

	a := &Alias{Name: name, Command: command}
	if err := parseTrailer(a, tail); err != nil {
		return nil, &ParseError{LineNo: lineNo, Text: line, Reason: err.Error()}
	}
	return a, nil
}

// scanQuoted consumes a single-quoted shell string, honoring the POSIX
// quote escape, from the start of s and returns the unescaped content
// plus the tail.
func scanQuoted(s string) (string, string, error) {
	var b strings.Builder
	i := 1 // past the opening quote
	for i < len(s) {
		if s[i] != '\'' {
			b.WriteByte(s[i])
			i++
			continue
		}
		// A quote either escapes another quote ('\'') or closes the string.
		if strings.HasPrefix(s[i:], `'\''`) {
			b.WriteByte('\'')
			i += 4
			continue
		}
		return b.String(), s[i+1:], nil
	}
	return "", "", fmt.Errorf("unterminated quoted command")
}

// parseTrailer parses the optional "# NOTE #tags:a,b" comment after the
// closing quote.
func parseTrailer(a *Alias, tail string) error {
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return nil
	}
	if !strings.HasPrefix(tail, "#") {
		return fmt.Errorf("unexpected trailing text %q", tail)
	}

	var tagsPart string
	if strings.HasPrefix(tail, "#tags:") {
		tagsPart = tail[len("#tags:"):]
	} else {
		note := strings.TrimPrefix(tail, "#")
		// The note ends at the first unescaped "#tags:" marker.
		if idx := indexUnescaped(note, "#tags:"); idx >= 0 {
			tagsPart = note[idx+len("#tags:"):]
			note = note[:idx]
		}
		a.Note = strings.TrimSpace(strings.ReplaceAll(note, `\#`, "#"))
	}

	for _, raw := range strings.Split(tagsPart, ",") {
		tag := NormalizeTag(raw)
		if tag == "" {
			continue
		}
		if strings.HasPrefix(tag, CategoryTagPrefix) {
			a.Category = strings.TrimPrefix(tag, CategoryTagPrefix)
			continue
		}
		a.Tags = append(a.Tags, tag)
	}
	return nil
}

func indexUnescaped(s, marker string) int {
	from := 0
	for {
		idx := strings.Index(s[from:], marker)
		if idx < 0 {
			return -1
		}
		abs := from + idx
		if abs == 0 || s[abs-1] != '\\' {
			return abs
		}
		from = abs + 1
	}
}

// HasTag reports whether the alias carries the given (normalized) tag.
func (a *Alias) HasTag(tag string) bool {
	tag = NormalizeTag(tag)
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AllTags returns the tags plus the category pseudo-tag, as persisted.
func (a *Alias) AllTags() []string {
	if a.Category == "" {
		return append([]string{}, a.Tags...)
	}
	return append(append([]string{}, a.Tags...), CategoryTagPrefix+a.Category)
}

// Clone returns a deep copy.
func (a *Alias) Clone() *Alias {
	c := *a
	c.Tags = append([]string{}, a.Tags...)
	return &c
}

// NormalizeCommand folds runs of whitespace to single spaces and trims.
// Duplicate detection compares commands in this form.
func NormalizeCommand(cmd string) string {
	return strings.Join(strings.Fields(cmd), " ")
}
