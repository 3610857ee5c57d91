package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete configuration for the shorty CLI
type Config struct {
	// Backup behavior
	Backup BackupConfig `toml:"backup"`

	// Display/listing settings
	Display DisplayConfig `toml:"display"`

	// Search behavior
	Search SearchConfig `toml:"search"`

	// Alias store settings
	Aliases AliasConfig `toml:"aliases"`

	// Git sync settings
	Sync SyncConfig `toml:"sync"`

	// Update checking
	Update UpdateConfig `toml:"update"`

	// CLI output formatting
	Output OutputConfig `toml:"output"`

	// TUI settings
	TUI TUIConfig `toml:"tui"`

	// Directory paths (computed, not stored in TOML)
	DataDir   string `toml:"-"`
	ConfigDir string `toml:"-"`
}

// BackupConfig contains snapshot settings for the alias file
type BackupConfig struct {
	// Create a backup automatically before destructive operations
	AutoBackup bool `toml:"auto_backup"`

	// Backup directory (empty means <data_dir>/backups)
	Dir string `toml:"dir"`

	// Maximum number of snapshots kept by `backup clean`
	MaxBackups int `toml:"max_backups"`

	// Days a snapshot is retained before `backup clean` removes it
	RetentionDays int `toml:"retention_days"`
}

// DisplayConfig contains listing/rendering settings
type DisplayConfig struct {
	// Show line numbers in listings
	ShowLineNumbers bool `toml:"show_line_numbers"`

	// Truncate long commands in listings
	TruncateCommands bool `toml:"truncate_commands"`

	// Maximum command length before truncation
	MaxCommandLength int `toml:"max_command_length"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	// Case sensitive keyword matching
	CaseSensitive bool `toml:"case_sensitive"`

	// Enable fuzzy ranking for plain keyword searches
	FuzzyMatching bool `toml:"fuzzy_matching"`

	// Include notes in unscoped searches
	SearchInNotes bool `toml:"search_in_notes"`

	// Include tags in unscoped searches
	SearchInTags bool `toml:"search_in_tags"`
}

// AliasConfig contains alias store settings
type AliasConfig struct {
	// Path to the sourceable alias file
	FilePath string `toml:"file_path"`

	// Keep the file alphabetically sorted by name on insert
	SortOnAdd bool `toml:"sort_on_add"`

	// Run the validator against a new alias before persisting it
	ValidateOnAdd bool `toml:"validate_on_add"`
}

// SyncConfig contains git sync settings
type SyncConfig struct {
	// Sync working directory (empty means <data_dir>/sync)
	Dir string `toml:"dir"`

	// Default branch name for new sync repositories
	Branch string `toml:"branch"`

	// Default remote name
	Remote string `toml:"remote"`
}

// UpdateConfig contains update check settings
type UpdateConfig struct {
	// Enable update checks
	Enabled bool `toml:"enabled"`

	// Hours between checks
	CheckIntervalHours int `toml:"check_interval_hours"`
}

// OutputConfig contains CLI output formatting settings
type OutputConfig struct {
	// Enable colored output
	ColorsEnabled bool `toml:"colors_enabled"`

	// Color scheme: "modern", "conservative", "custom"
	ColorScheme string `toml:"color_scheme"`

	// Automatically disable colors when not in a TTY
	AutoDetectTTY bool `toml:"auto_detect_tty"`

	// Verbosity level: "minimal", "normal", "verbose"
	Verbosity string `toml:"verbosity"`

	// Custom color definitions (used when color_scheme = "custom")
	Colors ColorConfig `toml:"colors"`
}

// ColorConfig contains color definitions for different output types
type ColorConfig struct {
	Success string `toml:"success"`
	Error   string `toml:"error"`
	Warning string `toml:"warning"`
	Info    string `toml:"info"`
	Tip     string `toml:"tip"`
	Setup   string `toml:"setup"`
	Sync    string `toml:"sync"`
	Stats   string `toml:"stats"`
	Done    string `toml:"done"`
}

// TUIConfig contains interactive mode settings
type TUIConfig struct {
	// Results shown per page in the browser
	ResultsPerPage int `toml:"results_per_page"`

	// Enable fuzzy filtering in the browser
	FuzzyFilter bool `toml:"fuzzy_filter"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".shorty")

	return &Config{
		Backup: BackupConfig{
			AutoBackup:    true,
			Dir:           filepath.Join(dataDir, "backups"),
			MaxBackups:    10,
			RetentionDays: 30,
		},
		Display: DisplayConfig{
			ShowLineNumbers:  false,
			TruncateCommands: true,
			MaxCommandLength: 50,
		},
		Search: SearchConfig{
			CaseSensitive: false,
			FuzzyMatching: false,
			SearchInNotes: true,
			SearchInTags:  true,
		},
		Aliases: AliasConfig{
			FilePath:      filepath.Join(dataDir, "aliases"),
			SortOnAdd:     false,
			ValidateOnAdd: true,
		},
		Sync: SyncConfig{
			Dir:    filepath.Join(dataDir, "sync"),
			Branch: "main",
			Remote: "origin",
		},
		Update: UpdateConfig{
			Enabled:            true,
			CheckIntervalHours: 24,
		},
		Output: OutputConfig{
			ColorsEnabled: true,
			ColorScheme:   "modern",
			AutoDetectTTY: true,
			Verbosity:     "minimal",
			Colors: ColorConfig{
				Success: "#00FF00",
				Error:   "#FF0000",
				Warning: "#FF8800",
				Info:    "#0088FF",
				Tip:     "#00FFFF",
				Setup:   "#FF00FF",
				Sync:    "#0088FF",
				Stats:   "#00FFFF",
				Done:    "#00FF00",
			},
		},
		TUI: TUIConfig{
			ResultsPerPage: 20,
			FuzzyFilter:    true,
		},
		DataDir:   dataDir,
		ConfigDir: dataDir,
	}
}

// Load loads configuration from the specified file path
func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	// If no config path specified, try default location
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return config, nil // Return defaults if can't determine home dir
		}
		configPath = filepath.Join(homeDir, ".shorty", "config.toml")
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, return defaults
		config.ApplyDefaults()
		return config, nil
	}

	// Load and parse the TOML file
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	// Apply defaults to fill in any missing values
	config.ApplyDefaults()

	// Validate the configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves the configuration to the specified file path
func (c *Config) Save(configPath string) error {
	// Ensure the config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config as TOML: %w", err)
	}

	return nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Backup.MaxBackups <= 0 {
		return fmt.Errorf("backup.max_backups must be positive")
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup.retention_days must be non-negative")
	}
	if c.Display.MaxCommandLength <= 0 {
		return fmt.Errorf("display.max_command_length must be positive")
	}
	if c.Aliases.FilePath == "" {
		return fmt.Errorf("aliases.file_path must not be empty")
	}
	if c.Update.CheckIntervalHours <= 0 {
		return fmt.Errorf("update.check_interval_hours must be positive")
	}

	validVerbosity := map[string]bool{"minimal": true, "normal": true, "verbose": true}
	if !validVerbosity[c.Output.Verbosity] {
		return fmt.Errorf("output.verbosity must be one of: minimal, normal, verbose")
	}

	validSchemes := map[string]bool{"modern": true, "conservative": true, "custom": true}
	if !validSchemes[c.Output.ColorScheme] {
		return fmt.Errorf("output.color_scheme must be one of: modern, conservative, custom")
	}

	if c.TUI.ResultsPerPage <= 0 {
		return fmt.Errorf("tui.results_per_page must be positive")
	}

	return nil
}

// EnsureDirectories creates necessary directories for the configuration
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		filepath.Dir(c.Aliases.FilePath),
		c.BackupDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ApplyDefaults applies default values for all configuration sections
// This ensures that TOML decoding doesn't override defaults with zero values
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		homeDir, _ := os.UserHomeDir()
		c.DataDir = filepath.Join(homeDir, ".shorty")
	}
	if c.ConfigDir == "" {
		c.ConfigDir = c.DataDir
	}
	if c.Backup.MaxBackups <= 0 {
		c.Backup.MaxBackups = 10
	}
	if c.Backup.RetentionDays <= 0 {
		c.Backup.RetentionDays = 30
	}
	if c.Display.MaxCommandLength <= 0 {
		c.Display.MaxCommandLength = 50
	}
	if c.Aliases.FilePath == "" {
		c.Aliases.FilePath = filepath.Join(c.DataDir, "aliases")
	}
	if c.Sync.Branch == "" {
		c.Sync.Branch = "main"
	}
	if c.Sync.Remote == "" {
		c.Sync.Remote = "origin"
	}
	if c.Update.CheckIntervalHours <= 0 {
		c.Update.CheckIntervalHours = 24
	}
	if c.Output.ColorScheme == "" {
		c.Output.ColorScheme = "modern"
	}
	if c.Output.Verbosity == "" {
		c.Output.Verbosity = "minimal"
	}
	if c.TUI.ResultsPerPage <= 0 {
		c.TUI.ResultsPerPage = 20
	}
}

// OverrideDataDir redirects every configured path under the given
// directory. Used for the SHORTY_DATA_DIR override and in tests.
func (c *Config) OverrideDataDir(dataDir string) {
	c.DataDir = dataDir
	c.ConfigDir = dataDir
	c.Aliases.FilePath = filepath.Join(dataDir, "aliases")
	c.Backup.Dir = filepath.Join(dataDir, "backups")
	c.Sync.Dir = filepath.Join(dataDir, "sync")
}

// BackupDir returns the effective backup directory
func (c *Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return filepath.Join(c.DataDir, "backups")
}

// SyncDir returns the effective sync working directory
func (c *Config) SyncDir() string {
	if c.Sync.Dir != "" {
		return c.Sync.Dir
	}
	return filepath.Join(c.DataDir, "sync")
}

// CategoriesPath returns the path of the categories TOML file
func (c *Config) CategoriesPath() string {
	return filepath.Join(c.DataDir, "categories.toml")
}

// TemplatesPath returns the path of the templates TOML file
func (c *Config) TemplatesPath() string {
	return filepath.Join(c.DataDir, "templates.toml")
}

// BackupRetention returns the snapshot retention threshold as a time.Duration
func (c *Config) BackupRetention() time.Duration {
	return time.Duration(c.Backup.RetentionDays) * 24 * time.Hour
}

// UpdateCheckInterval returns the update check interval as a time.Duration
func (c *Config) UpdateCheckInterval() time.Duration {
	return time.Duration(c.Update.CheckIntervalHours) * time.Hour
}

// Keyed access used by the `config get/set/list` commands.

// GetValue returns the string form of a dotted configuration key
func (c *Config) GetValue(key string) (string, bool) {
	switch key {
	case "backup.auto_backup":
		return strconv.FormatBool(c.Backup.AutoBackup), true
	case "backup.max_backups":
		return strconv.Itoa(c.Backup.MaxBackups), true
	case "backup.retention_days":
		return strconv.Itoa(c.Backup.RetentionDays), true
	case "display.show_line_numbers":
		return strconv.FormatBool(c.Display.ShowLineNumbers), true
	case "display.truncate_commands":
		return strconv.FormatBool(c.Display.TruncateCommands), true
	case "display.max_command_length":
		return strconv.Itoa(c.Display.MaxCommandLength), true
	case "search.case_sensitive":
		return strconv.FormatBool(c.Search.CaseSensitive), true
	case "search.fuzzy_matching":
		return strconv.FormatBool(c.Search.FuzzyMatching), true
	case "search.search_in_notes":
		return strconv.FormatBool(c.Search.SearchInNotes), true
	case "search.search_in_tags":
		return strconv.FormatBool(c.Search.SearchInTags), true
	case "aliases.file_path":
		return c.Aliases.FilePath, true
	case "aliases.sort_on_add":
		return strconv.FormatBool(c.Aliases.SortOnAdd), true
	case "aliases.validate_on_add":
		return strconv.FormatBool(c.Aliases.ValidateOnAdd), true
	case "sync.branch":
		return c.Sync.Branch, true
	case "sync.remote":
		return c.Sync.Remote, true
	case "update.enabled":
		return strconv.FormatBool(c.Update.Enabled), true
	case "update.check_interval_hours":
		return strconv.Itoa(c.Update.CheckIntervalHours), true
	case "output.colors_enabled":
		return strconv.FormatBool(c.Output.ColorsEnabled), true
	case "output.color_scheme":
		return c.Output.ColorScheme, true
	case "output.verbosity":
		return c.Output.Verbosity, true
	case "tui.results_per_page":
		return strconv.Itoa(c.TUI.ResultsPerPage), true
	case "tui.fuzzy_filter":
		return strconv.FormatBool(c.TUI.FuzzyFilter), true
	}
	return "", false
}

// SetValue sets a dotted configuration key from its string form
func (c *Config) SetValue(key, value string) error {
	var err error
	switch key {
	case "backup.auto_backup":
		c.Backup.AutoBackup, err = parseBool(value)
	case "backup.max_backups":
		c.Backup.MaxBackups, err = strconv.Atoi(value)
	case "backup.retention_days":
		c.Backup.RetentionDays, err = strconv.Atoi(value)
	case "display.show_line_numbers":
		c.Display.ShowLineNumbers, err = parseBool(value)
	case "display.truncate_commands":
		c.Display.TruncateCommands, err = parseBool(value)
	case "display.max_command_length":
		c.Display.MaxCommandLength, err = strconv.Atoi(value)
	case "search.case_sensitive":
		c.Search.CaseSensitive, err = parseBool(value)
	case "search.fuzzy_matching":
		c.Search.FuzzyMatching, err = parseBool(value)
	case "search.search_in_notes":
		c.Search.SearchInNotes, err = parseBool(value)
	case "search.search_in_tags":
		c.Search.SearchInTags, err = parseBool(value)
	case "aliases.file_path":
		c.Aliases.FilePath = value
	case "aliases.sort_on_add":
		c.Aliases.SortOnAdd, err = parseBool(value)
	case "aliases.validate_on_add":
		c.Aliases.ValidateOnAdd, err = parseBool(value)
	case "sync.branch":
		c.Sync.Branch = value
	case "sync.remote":
		c.Sync.Remote = value
	case "update.enabled":
		c.Update.Enabled, err = parseBool(value)
	case "update.check_interval_hours":
		c.Update.CheckIntervalHours, err = strconv.Atoi(value)
	case "output.colors_enabled":
		c.Output.ColorsEnabled, err = parseBool(value)
	case "output.color_scheme":
		c.Output.ColorScheme = value
	case "output.verbosity":
		c.Output.Verbosity = value
	case "tui.results_per_page":
		c.TUI.ResultsPerPage, err = strconv.Atoi(value)
	case "tui.fuzzy_filter":
		c.TUI.FuzzyFilter, err = parseBool(value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	return c.Validate()
}

// Keys returns every settable key with a short description, sorted
func (c *Config) Keys() [][2]string {
	keys := [][2]string{
		{"backup.auto_backup", "Automatically create backups before destructive operations"},
		{"backup.max_backups", "Maximum number of backup files kept by clean"},
		{"backup.retention_days", "Days a backup is retained before clean removes it"},
		{"display.show_line_numbers", "Show line numbers in alias listings"},
		{"display.truncate_commands", "Truncate long commands in listings"},
		{"display.max_command_length", "Maximum command length before truncation"},
		{"search.case_sensitive", "Make keyword searches case sensitive"},
		{"search.fuzzy_matching", "Enable fuzzy ranking for keyword searches"},
		{"search.search_in_notes", "Include notes in unscoped searches"},
		{"search.search_in_tags", "Include tags in unscoped searches"},
		{"aliases.file_path", "Path to the aliases file"},
		{"aliases.sort_on_add", "Keep the file sorted by alias name on insert"},
		{"aliases.validate_on_add", "Validate aliases when adding new ones"},
		{"sync.branch", "Default branch for the sync repository"},
		{"sync.remote", "Default remote name for sync"},
		{"update.enabled", "Enable automatic update checking"},
		{"update.check_interval_hours", "Hours between update checks"},
		{"output.colors_enabled", "Enable colored output in terminal"},
		{"output.color_scheme", "Color scheme (modern, conservative, custom)"},
		{"output.verbosity", "Output verbosity (minimal, normal, verbose)"},
		{"tui.results_per_page", "Results per page in interactive mode"},
		{"tui.fuzzy_filter", "Fuzzy filtering in interactive mode"},
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i][0] < keys[j][0] })
	return keys
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on", "enable", "enabled":
		return true, nil
	case "false", "0", "no", "off", "disable", "disabled":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value: %q (use true/false, yes/no, on/off, or 1/0)", value)
}
