// Package category manages the hierarchical category forest persisted
// in categories.toml. Aliases reference categories by name through the
// category pseudo-tag; this package only owns the forest itself.
package category

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/NeverVane/shorty/internal/logger"
)

var (
	// ErrNotFound is returned when a category does not exist.
	ErrNotFound = errors.New("category not found")

	// ErrExists is returned when creating a category whose name is taken.
	ErrExists = errors.New("category already exists")
)

// Category is one node of the forest.
type Category struct {
	Description string `toml:"description,omitempty"`
	Color       string `toml:"color,omitempty"`
	Icon        string `toml:"icon,omitempty"`
	Parent      string `toml:"parent,omitempty"`
}

type categoriesFile struct {
	Categories map[string]*Category `toml:"categories"`
}

// Set is the in-memory forest.
type Set struct {
	categories map[string]*Category
}

// Manager loads and saves the forest.
type Manager struct {
	path   string
	logger *logger.Logger
}

// NewManager returns a manager bound to the given categories.toml path.
func NewManager(path string) *Manager {
	return &Manager{
		path:   path,
		logger: logger.GetLogger().WithComponent("category"),
	}
}

// Load reads the forest. A missing file yields the default seed set,
// which is not persisted until the first Save.
func (m *Manager) Load() (*Set, error) {
	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		m.logger.Debug().Str("path", m.path).Msg("categories file missing, seeding defaults")
		return DefaultSet(), nil
	}

	var f categoriesFile
	if _, err := toml.DecodeFile(m.path, &f); err != nil {
		return nil, fmt.Errorf("failed to parse categories file %s: %w", m.path, err)
	}
	if f.Categories == nil {
		f.Categories = make(map[string]*Category)
	}
	return &Set{categories: f.Categories}, nil
}

// Save writes the forest back as TOML.
func (m *Manager) Save(s *Set) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	file, err := os.Create(m.path)
	if err != nil {
		return fmt.Errorf("failed to create categories file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(categoriesFile{Categories: s.categories}); err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	return nil
}

// DefaultSet returns the seed categories created on first use.
func DefaultSet() *Set {
	return &Set{categories: map[string]*Category{
		"git":     {Description: "Version control", Color: "#F34F29", Icon: "git"},
		"docker":  {Description: "Containers and images", Color: "#2496ED", Icon: "docker"},
		"nodejs":  {Description: "Node.js development", Color: "#339933", Icon: "node"},
		"network": {Description: "Networking and remote access", Color: "#0088FF", Icon: "net"},
		"system":  {Description: "System administration", Color: "#888888", Icon: "gear"},
	}}
}

// NewSet returns an empty forest.
func NewSet() *Set {
	return &Set{categories: make(map[string]*Category)}
}

// NormalizeName canonicalizes a category name.
func NormalizeName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return strings.Join(strings.Fields(name), "-")
}

// Get returns a category by name.
func (s *Set) Get(name string) (*Category, bool) {
	c, ok := s.categories[NormalizeName(name)]
	return c, ok
}

// Names returns all category names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.categories))
	for name := range s.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of categories.
func (s *Set) Len() int {
	return len(s.categories)
}

// Add creates a category. The parent, if given, must exist.
func (s *Set) Add(name string, c Category) error {
	name = NormalizeName(name)
	if name == "" {
		return fmt.Errorf("category name must not be empty")
	}
	if _, exists := s.categories[name]; exists {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	if c.Parent != "" {
		c.Parent = NormalizeName(c.Parent)
		if _, ok := s.categories[c.Parent]; !ok {
			return fmt.Errorf("parent %w: %s", ErrNotFound, c.Parent)
		}
	}
	s.categories[name] = &c
	return nil
}

// Update modifies the description, color or icon of a category. Empty
// arguments keep the current value.
func (s *Set) Update(name, description, color, icon string) error {
	c, ok := s.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if description != "" {
		c.Description = description
	}
	if color != "" {
		c.Color = color
	}
	if icon != "" {
		c.Icon = icon
	}
	return nil
}

// Move re-parents a category. Moving a node under itself or one of its
// descendants is rejected, keeping the forest acyclic. An empty parent
// makes the category a root.
func (s *Set) Move(name, newParent string) error {
	name = NormalizeName(name)
	c, ok := s.categories[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if newParent == "" {
		c.Parent = ""
		return nil
	}
	newParent = NormalizeName(newParent)
	if _, ok := s.categories[newParent]; !ok {
		return fmt.Errorf("parent %w: %s", ErrNotFound, newParent)
	}
	if newParent == name {
		return fmt.Errorf("category %q cannot be its own parent", name)
	}
	for _, ancestor := range s.Ancestors(newParent) {
		if ancestor == name {
			return fmt.Errorf("moving %q under %q would create a cycle", name, newParent)
		}
	}
	c.Parent = newParent
	return nil
}

// Ancestors returns the parent chain of a category, nearest first.
// Walks are capped at the forest size so a corrupt file cannot loop.
func (s *Set) Ancestors(name string) []string {
	var chain []string
	current := NormalizeName(name)
	for i := 0; i <= len(s.categories); i++ {
		c, ok := s.categories[current]
		if !ok || c.Parent == "" {
			return chain
		}
		chain = append(chain, c.Parent)
		current = c.Parent
	}
	return chain
}

// Children returns the direct children of a category, sorted. An empty
// name returns the roots.
func (s *Set) Children(name string) []string {
	name = NormalizeName(name)
	var out []string
	for n, c := range s.categories {
		if c.Parent == name {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Delete removes a category. Without force the delete fails while
// children exist. With force the children are re-parented to the
// deleted node's parent, so a subtree moves up one level instead of
// being orphaned; re-tagging the member aliases is the caller's job.
func (s *Set) Delete(name string, force bool) error {
	name = NormalizeName(name)
	c, ok := s.categories[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	children := s.Children(name)
	if len(children) > 0 && !force {
		return fmt.Errorf("category %q has subcategories (%s); use force to delete and re-parent them", name, strings.Join(children, ", "))
	}
	for _, child := range children {
		s.categories[child].Parent = c.Parent
	}
	delete(s.categories, name)
	return nil
}

// TreeNode is one rendered node of the forest.
type TreeNode struct {
	Name     string
	Category *Category
	Depth    int
}

// Tree flattens the forest depth-first for display, roots sorted.
func (s *Set) Tree() []TreeNode {
	var out []TreeNode
	var walk func(name string, depth int)
	walk = func(name string, depth int) {
		out = append(out, TreeNode{Name: name, Category: s.categories[name], Depth: depth})
		for _, child := range s.Children(name) {
			walk(child, depth+1)
		}
	}
	for _, root := range s.Children("") {
		walk(root, 0)
	}
	return out
}
