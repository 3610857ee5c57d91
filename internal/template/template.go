// Package template manages reusable command patterns persisted in
// templates.toml. A template is a command with {placeholder} slots that
// instantiates into a concrete alias.
package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/NeverVane/shorty/internal/logger"
)

var (
	// ErrNotFound is returned when a template does not exist.
	ErrNotFound = errors.New("template not found")

	// ErrExists is returned when creating a template whose name is taken.
	ErrExists = errors.New("template already exists")
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Parameter refines one placeholder of a template.
type Parameter struct {
	Description string `toml:"description,omitempty"`
	Default     string `toml:"default,omitempty"`
	Required    bool   `toml:"required"`
	Pattern     string `toml:"pattern,omitempty"`
}

// Template is one reusable command pattern.
type Template struct {
	Description string                `toml:"description,omitempty"`
	Command     string                `toml:"command"`
	Category    string                `toml:"category,omitempty"`
	Tags        []string              `toml:"tags,omitempty"`
	Parameters  map[string]*Parameter `toml:"parameters,omitempty"`
	UsageCount  int                   `toml:"usage_count,omitempty"`
}

// Placeholders returns the placeholder names in order of first
// appearance, deduplicated.
func (t *Template) Placeholders() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range placeholderRe.FindAllStringSubmatch(t.Command, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Render substitutes values into the command. Every placeholder must
// resolve through the given values or a parameter default; required
// parameters reject their default-less absence, and parameters with a
// pattern validate their value against it.
func (t *Template) Render(values map[string]string) (string, error) {
	result := t.Command
	for _, name := range t.Placeholders() {
		param := t.Parameters[name]

		value, given := values[name]
		if param != nil && param.Required && (!given || value == "") {
			return "", fmt.Errorf("parameter %s is required", name)
		}
		if !given || value == "" {
			if param == nil || param.Default == "" {
				return "", fmt.Errorf("placeholder {%s} has no value and no default", name)
			}
			value = param.Default
		}

		if param != nil && param.Pattern != "" {
			re, err := regexp.Compile(param.Pattern)
			if err != nil {
				return "", fmt.Errorf("parameter %s has an invalid pattern: %w", name, err)
			}
			if !re.MatchString(value) {
				return "", fmt.Errorf("value %q for parameter %s does not match pattern %s", value, name, param.Pattern)
			}
		}

		result = strings.ReplaceAll(result, "{"+name+"}", value)
	}

	if m := placeholderRe.FindString(result); m != "" {
		return "", fmt.Errorf("unresolved placeholder %s", m)
	}
	return result, nil
}

// Validate checks that every declared parameter has a placeholder and
// that parameter patterns compile.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Command) == "" {
		return fmt.Errorf("template command must not be empty")
	}
	known := make(map[string]bool)
	for _, p := range t.Placeholders() {
		known[p] = true
	}
	for name, param := range t.Parameters {
		if !known[name] {
			return fmt.Errorf("parameter %s has no {%s} placeholder in the command", name, name)
		}
		if param.Pattern != "" {
			if _, err := regexp.Compile(param.Pattern); err != nil {
				return fmt.Errorf("parameter %s has an invalid pattern: %w", name, err)
			}
		}
	}
	return nil
}

type templatesFile struct {
	Templates map[string]*Template `toml:"templates"`
}

// Set is the in-memory template collection.
type Set struct {
	templates map[string]*Template
}

// Manager loads and saves the template file.
type Manager struct {
	path   string
	logger *logger.Logger
}

// NewManager returns a manager bound to the given templates.toml path.
func NewManager(path string) *Manager {
	return &Manager{
		path:   path,
		logger: logger.GetLogger().WithComponent("template"),
	}
}

// Load reads the templates. A missing file yields the default seed set,
// which is not persisted until the first Save.
func (m *Manager) Load() (*Set, error) {
	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		m.logger.Debug().Str("path", m.path).Msg("templates file missing, seeding defaults")
		return DefaultSet(), nil
	}

	var f templatesFile
	if _, err := toml.DecodeFile(m.path, &f); err != nil {
		return nil, fmt.Errorf("failed to parse templates file %s: %w", m.path, err)
	}
	if f.Templates == nil {
		f.Templates = make(map[string]*Template)
	}
	return &Set{templates: f.Templates}, nil
}

// Save writes the templates back as TOML.
func (m *Manager) Save(s *Set) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	file, err := os.Create(m.path)
	if err != nil {
		return fmt.Errorf("failed to create templates file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(templatesFile{Templates: s.templates}); err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}
	return nil
}

// DefaultSet returns the seed templates created on first use.
func DefaultSet() *Set {
	return &Set{templates: map[string]*Template{
		"git_clone": {
			Description: "Clone a repository into a directory",
			Command:     "git clone {url} {dir}",
			Category:    "git",
			Tags:        []string{"git"},
			Parameters: map[string]*Parameter{
				"url": {Description: "Repository URL", Required: true},
				"dir": {Description: "Target directory", Default: "."},
			},
		},
		"docker_run": {
			Description: "Run a container with a published port",
			Command:     "docker run -d -p {port}:{port} {image}",
			Category:    "docker",
			Tags:        []string{"docker"},
			Parameters: map[string]*Parameter{
				"port":  {Description: "Port to publish", Required: true, Pattern: `^\d+$`},
				"image": {Description: "Image name", Required: true},
			},
		},
		"npm_script": {
			Description: "Run an npm script",
			Command:     "npm run {script}",
			Category:    "nodejs",
			Tags:        []string{"nodejs"},
			Parameters: map[string]*Parameter{
				"script": {Description: "Script name", Default: "dev"},
			},
		},
		"ssh_tunnel": {
			Description: "Forward a local port over SSH",
			Command:     "ssh -N -L {local_port}:localhost:{remote_port} {host}",
			Category:    "network",
			Tags:        []string{"ssh", "network"},
			Parameters: map[string]*Parameter{
				"local_port":  {Description: "Local port", Required: true, Pattern: `^\d+$`},
				"remote_port": {Description: "Remote port", Required: true, Pattern: `^\d+$`},
				"host":        {Description: "SSH host", Required: true},
			},
		},
	}}
}

// NewSet returns an empty template collection.
func NewSet() *Set {
	return &Set{templates: make(map[string]*Template)}
}

// Get returns a template by name.
func (s *Set) Get(name string) (*Template, bool) {
	t, ok := s.templates[name]
	return t, ok
}

// Names returns all template names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of templates.
func (s *Set) Len() int {
	return len(s.templates)
}

// Add creates a template.
func (s *Set) Add(name string, t *Template) error {
	if name == "" {
		return fmt.Errorf("template name must not be empty")
	}
	if _, exists := s.templates[name]; exists {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid template %s: %w", name, err)
	}
	s.templates[name] = t
	return nil
}

// Update replaces a template.
func (s *Set) Update(name string, t *Template) error {
	if _, exists := s.templates[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid template %s: %w", name, err)
	}
	s.templates[name] = t
	return nil
}

// Remove deletes a template.
func (s *Set) Remove(name string) error {
	if _, exists := s.templates[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.templates, name)
	return nil
}

// RecordUse bumps the usage counter of a template.
func (s *Set) RecordUse(name string) {
	if t, ok := s.templates[name]; ok {
		t.UsageCount++
	}
}
