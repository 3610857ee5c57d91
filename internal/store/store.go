// Package store persists the alias collection to the shell-sourceable
// alias file. The file is the single source of truth: every operation
// loads it, mutates in memory and writes it back atomically.
package store

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/NeverVane/shorty/internal/alias"
	"github.com/NeverVane/shorty/internal/logger"
)

var (
	// ErrNotFound is returned when no alias with the given name exists.
	ErrNotFound = errors.New("alias not found")

	// ErrConflict is returned when adding a name that already exists.
	ErrConflict = errors.New("alias already exists")
)

const fileHeader = "# Shell aliases managed by shorty. Edit with `shorty`, or by hand at your own risk."

// ReplacePolicy controls what Add does when the name is taken.
type ReplacePolicy int

const (
	// Reject refuses to overwrite an existing alias.
	Reject ReplacePolicy = iota
	// Replace overwrites an existing alias in place, keeping its position.
	Replace
)

// Store reads and writes the alias file.
type Store struct {
	path   string
	logger *logger.Logger
}

// New returns a store bound to the given alias file path.
func New(path string) *Store {
	return &Store{
		path:   path,
		logger: logger.GetLogger().Store(),
	}
}

// Path returns the alias file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the alias file. A missing file yields an empty collection.
// Malformed lines do not abort the load; they are returned as warnings
// so callers can surface them without losing the healthy entries.
func (s *Store) Load() (*Collection, []*alias.ParseError, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug().Str("path", s.path).Msg("alias file missing, starting empty")
			return NewCollection(), nil, nil
		}
		return nil, nil, fmt.Errorf("failed to open alias file %s: %w", s.path, err)
	}
	defer file.Close()

	col := NewCollection()
	var warnings []*alias.ParseError

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		a, err := alias.ParseLine(lineNo, scanner.Text())
		if err != nil {
			var perr *alias.ParseError
			if errors.As(err, &perr) {
				warnings = append(warnings, perr)
				continue
			}
			return nil, nil, err
		}
		if a == nil {
			continue
		}
		if _, exists := col.Get(a.Name); exists {
			warnings = append(warnings, &alias.ParseError{
				LineNo: lineNo,
				Text:   scanner.Text(),
				Reason: fmt.Sprintf("duplicate alias name %q, keeping the first definition", a.Name),
			})
			continue
		}
		col.append(a)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read alias file %s: %w", s.path, err)
	}

	s.logger.Debug().Int("aliases", col.Len()).Int("warnings", len(warnings)).Msg("alias file loaded")
	return col, warnings, nil
}

// Save writes the collection back atomically: the new content goes to a
// temporary file in the same directory, is flushed to disk, then renamed
// over the alias file. A crash mid-save leaves the old file intact.
func (s *Store) Save(col *Collection) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create alias directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".aliases-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary alias file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	w := bufio.NewWriter(tmp)
	fmt.Fprintln(w, fileHeader)
	for _, a := range col.entries {
		fmt.Fprintln(w, a.Line())
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write aliases: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush aliases to disk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary alias file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set alias file permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace alias file: %w", err)
	}

	s.logger.Debug().Int("aliases", col.Len()).Str("path", s.path).Msg("alias file saved")
	return nil
}

// Collection is the in-memory, insertion-ordered set of aliases.
type Collection struct {
	entries []*alias.Alias
	index   map[string]int
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{index: make(map[string]int)}
}

func (c *Collection) append(a *alias.Alias) {
	c.index[a.Name] = len(c.entries)
	c.entries = append(c.entries, a)
}

func (c *Collection) reindex() {
	c.index = make(map[string]int, len(c.entries))
	for i, a := range c.entries {
		c.index[a.Name] = i
	}
}

// Len returns the number of aliases.
func (c *Collection) Len() int {
	return len(c.entries)
}

// Get returns the alias with the given name.
func (c *Collection) Get(name string) (*alias.Alias, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.entries[i], true
}

// List returns the aliases in file order. The returned slice is a copy;
// the aliases themselves are shared.
func (c *Collection) List() []*alias.Alias {
	return append([]*alias.Alias{}, c.entries...)
}

// Add inserts a new alias. With Reject the call fails on a name clash
// (ErrConflict); with Replace the existing entry is overwritten in
// place so the file order is preserved. When sorted is true a new entry
// is inserted at its alphabetical position instead of appended.
func (c *Collection) Add(a *alias.Alias, policy ReplacePolicy, sorted bool) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if i, exists := c.index[a.Name]; exists {
		if policy == Reject {
			return fmt.Errorf("%w: %s", ErrConflict, a.Name)
		}
		c.entries[i] = a
		return nil
	}

	if !sorted {
		c.append(a)
		return nil
	}
	pos := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].Name > a.Name
	})
	c.entries = append(c.entries, nil)
	copy(c.entries[pos+1:], c.entries[pos:])
	c.entries[pos] = a
	c.reindex()
	return nil
}

// Remove deletes the alias with the given name.
func (c *Collection) Remove(name string) error {
	i, ok := c.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	c.reindex()
	return nil
}

// Update describes a partial edit. Nil fields keep the current value;
// a pointer to the zero value clears it.
type Update struct {
	Command  *string
	Note     *string
	Tags     *[]string
	Category *string
}

// Edit applies a partial update to an existing alias.
func (c *Collection) Edit(name string, upd Update) (*alias.Alias, error) {
	i, ok := c.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	a := c.entries[i].Clone()
	if upd.Command != nil {
		a.Command = *upd.Command
	}
	if upd.Note != nil {
		a.Note = strings.TrimSpace(*upd.Note)
	}
	if upd.Tags != nil {
		a.Tags = nil
		for _, t := range *upd.Tags {
			if nt := alias.NormalizeTag(t); nt != "" {
				a.Tags = append(a.Tags, nt)
			}
		}
	}
	if upd.Category != nil {
		a.Category = *upd.Category
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	c.entries[i] = a
	return a, nil
}

// Rename changes an alias name, keeping its position.
func (c *Collection) Rename(oldName, newName string) error {
	i, ok := c.index[oldName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, oldName)
	}
	if _, taken := c.index[newName]; taken && newName != oldName {
		return fmt.Errorf("%w: %s", ErrConflict, newName)
	}
	if !alias.ValidName(newName) {
		return fmt.Errorf("invalid alias name %q", newName)
	}
	a := c.entries[i].Clone()
	a.Name = newName
	c.entries[i] = a
	c.reindex()
	return nil
}

// FilterTag returns the aliases carrying the given tag, in file order.
func (c *Collection) FilterTag(tag string) []*alias.Alias {
	var out []*alias.Alias
	for _, a := range c.entries {
		if a.HasTag(tag) {
			out = append(out, a)
		}
	}
	return out
}

// FilterCategory returns the aliases in the given category, in file
// order. An empty category selects uncategorized aliases.
func (c *Collection) FilterCategory(category string) []*alias.Alias {
	var out []*alias.Alias
	for _, a := range c.entries {
		if strings.EqualFold(a.Category, category) {
			out = append(out, a)
		}
	}
	return out
}

// Duplicates groups aliases whose whitespace-normalized commands are
// identical. Only groups with more than one member are returned, in
// order of first appearance.
func (c *Collection) Duplicates() [][]*alias.Alias {
	byCmd := make(map[string][]*alias.Alias)
	var order []string
	for _, a := range c.entries {
		key := alias.NormalizeCommand(a.Command)
		if len(byCmd[key]) == 0 {
			order = append(order, key)
		}
		byCmd[key] = append(byCmd[key], a)
	}

	var groups [][]*alias.Alias
	for _, key := range order {
		if len(byCmd[key]) > 1 {
			groups = append(groups, byCmd[key])
		}
	}
	return groups
}

// Dedupe removes duplicate-command aliases, keeping the first
// occurrence of each command in file order. The removed aliases are
// returned.
func (c *Collection) Dedupe() []*alias.Alias {
	seen := make(map[string]bool)
	var kept, removed []*alias.Alias
	for _, a := range c.entries {
		key := alias.NormalizeCommand(a.Command)
		if seen[key] {
			removed = append(removed, a)
			continue
		}
		seen[key] = true
		kept = append(kept, a)
	}
	if len(removed) > 0 {
		c.entries = kept
		c.reindex()
	}
	return removed
}

// Tags returns every distinct tag in use with its usage count.
func (c *Collection) Tags() map[string]int {
	counts := make(map[string]int)
	for _, a := range c.entries {
		for _, t := range a.Tags {
			counts[t]++
		}
	}
	return counts
}

// Categories returns every category in use with its member count.
func (c *Collection) Categories() map[string]int {
	counts := make(map[string]int)
	for _, a := range c.entries {
		if a.Category != "" {
			counts[a.Category]++
		}
	}
	return counts
}
