package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/NeverVane/shorty/internal/alias"
	"github.com/NeverVane/shorty/internal/backup"
	"github.com/NeverVane/shorty/internal/category"
	"github.com/NeverVane/shorty/internal/config"
	"github.com/NeverVane/shorty/internal/logger"
	"github.com/NeverVane/shorty/internal/output"
	"github.com/NeverVane/shorty/internal/search"
	"github.com/NeverVane/shorty/internal/shell"
	"github.com/NeverVane/shorty/internal/stats"
	"github.com/NeverVane/shorty/internal/store"
	syncpkg "github.com/NeverVane/shorty/internal/sync"
	"github.com/NeverVane/shorty/internal/template"
	"github.com/NeverVane/shorty/internal/tui"
	"github.com/NeverVane/shorty/internal/updater"
	"github.com/NeverVane/shorty/internal/validate"
	"github.com/NeverVane/shorty/pkg/transfer"
)

var (
	version = "0.2.0"
	commit  = "release"
	date    = "2026-08-28"
	website = "https://github.com/NeverVane/shorty"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "shorty encountered a fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	// --config has to be honored before cobra parses anything, because
	// every command constructor captures the loaded config.
	configPath := configPathFromArgs(os.Args[1:])

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Override data directory if SHORTY_DATA_DIR is set. Used by
	// containers, CI pipelines and tests that need isolated state.
	if dataDir := os.Getenv("SHORTY_DATA_DIR"); dataDir != "" {
		if !filepath.IsAbs(dataDir) {
			fmt.Fprintf(os.Stderr, "SHORTY_DATA_DIR must be an absolute path, got: %s\n", dataDir)
			os.Exit(1)
		}
		if filepath.Clean(dataDir) != dataDir {
			fmt.Fprintf(os.Stderr, "SHORTY_DATA_DIR contains invalid path components: %s\n", dataDir)
			os.Exit(1)
		}
		cfg.OverrideDataDir(dataDir)
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create data directory %s: %v\n", dataDir, err)
			os.Exit(1)
		}
	}

	loggerConfig := &logger.Config{
		Level:     "error",
		Output:    "stderr",
		Color:     true,
		Timestamp: true,
		Caller:    false,
	}
	if err := logger.Init(loggerConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "shorty",
		Short: "shorty - Shell alias manager",
		Long: `shorty keeps your shell aliases in one plain, sourceable file and
gives you the tooling around it: tagging, categories, search,
validation, templates, backups and git sync.

The alias file stays a normal shell script. Everything shorty adds
(notes, tags, categories) lives in comments, so the file keeps working
with nothing but 'source' even if you stop using shorty tomorrow.

Get started:
  shorty add gs 'git status'      Add your first alias
  shorty install                  Source the alias file from your shell rc
  shorty list                     See what you have
  shorty tui                      Browse interactively

Homepage: ` + website,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				loggerConfig.Level = "debug"
				return logger.Init(loggerConfig)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.shorty/config.toml)")

	rootCmd.AddCommand(addCmd(cfg))
	rootCmd.AddCommand(listCmd(cfg))
	rootCmd.AddCommand(editCmd(cfg))
	rootCmd.AddCommand(removeCmd(cfg))
	rootCmd.AddCommand(searchCmd(cfg))
	rootCmd.AddCommand(duplicatesCmd(cfg))
	rootCmd.AddCommand(validateCmd(cfg))
	rootCmd.AddCommand(statsCmd(cfg))
	rootCmd.AddCommand(backupCmd(cfg))
	rootCmd.AddCommand(exportCmd(cfg))
	rootCmd.AddCommand(importCmd(cfg))
	rootCmd.AddCommand(templateCmd(cfg))
	rootCmd.AddCommand(categoryCmd(cfg))
	rootCmd.AddCommand(configCmd(cfg, configPath))
	rootCmd.AddCommand(installCmd(cfg))
	rootCmd.AddCommand(uninstallCmd(cfg))
	rootCmd.AddCommand(syncCmd(cfg))
	rootCmd.AddCommand(shareCmd(cfg))
	rootCmd.AddCommand(tuiCmd(cfg))
	rootCmd.AddCommand(updateCmd(cfg))
	rootCmd.AddCommand(versionCmd())

	checkAutoUpdate(cfg)

	if err := rootCmd.Execute(); err != nil {
		// Commands handle their own error display via formatter
		os.Exit(1)
	}
}

// configPathFromArgs extracts --config from raw arguments so the value
// is available before cobra runs.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

// newFormatter builds an output formatter honoring the global flags.
func newFormatter(cmd *cobra.Command, cfg *config.Config) *output.Formatter {
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")
	formatter := output.NewFormatter(cfg)
	formatter.SetFlags(verbose, false, noColor)
	return formatter
}

// openCollection loads the alias file. Parse warnings are reported but
// never fatal; the broken lines are simply skipped.
func openCollection(cfg *config.Config, formatter *output.Formatter) (*store.Store, *store.Collection, []*alias.ParseError, error) {
	st := store.New(cfg.Aliases.FilePath)
	col, warnings, err := st.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load aliases: %w", err)
	}
	for _, w := range warnings {
		formatter.Warning("%s", w.Error())
	}
	return st, col, warnings, nil
}

// autoBackup snapshots the alias file before a destructive change. A
// failed backup aborts the operation.
func autoBackup(cfg *config.Config) error {
	if !cfg.Backup.AutoBackup {
		return nil
	}
	mgr := backup.NewManager(cfg.Aliases.FilePath, cfg.BackupDir())
	if _, err := mgr.Auto(); err != nil {
		return fmt.Errorf("automatic backup failed, aborting: %w", err)
	}
	return nil
}

// renderAlias formats one alias for listings.
func renderAlias(cfg *config.Config, idx int, a *alias.Alias) string {
	command := a.Command
	if cfg.Display.TruncateCommands {
		runes := []rune(command)
		if len(runes) > cfg.Display.MaxCommandLength {
			command = string(runes[:cfg.Display.MaxCommandLength-1]) + "…"
		}
	}
	line := fmt.Sprintf("%-20s %s", a.Name, command)
	if a.Note != "" {
		line += "  # " + a.Note
	}
	if len(a.Tags) > 0 {
		line += "  [" + strings.Join(a.Tags, ",") + "]"
	}
	if a.Category != "" {
		line += "  (" + a.Category + ")"
	}
	if cfg.Display.ShowLineNumbers {
		line = fmt.Sprintf("%4d  %s", idx+1, line)
	}
	return line
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	var response string
	fmt.Scanln(&response)
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// checkAutoUpdate performs a non-blocking update check when one is due.
func checkAutoUpdate(cfg *config.Config) {
	u := updater.New(cfg, version, updater.Options{})
	if !u.CheckDue() {
		return
	}
	u.RecordCheck()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		info, err := u.CheckForUpdate(ctx)
		if err != nil || info == nil {
			return
		}
		fmt.Fprintf(os.Stderr, "A new shorty version is available: %s (run 'shorty update --install')\n", info.Version)
	}()
}

func addCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name> <command>",
		Short: "Add a new alias",
		Long: `Add an alias to the alias file. The command is stored single-quoted,
so it survives sourcing untouched. Notes, tags and a category can be
attached and stay in the file as comments.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			name, command := args[0], args[1]

			note, _ := cmd.Flags().GetString("note")
			tags, _ := cmd.Flags().GetStringSlice("tag")
			categoryName, _ := cmd.Flags().GetString("category")
			force, _ := cmd.Flags().GetBool("force")
			noValidate, _ := cmd.Flags().GetBool("no-validate")

			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}

			a, err := alias.New(name, command, note, tags)
			if err != nil {
				formatter.Error("Invalid alias: %v", err)
				return err
			}
			if categoryName != "" {
				a.Category = category.NormalizeName(categoryName)
			}

			st, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}

			policy := store.Reject
			if force {
				if err := autoBackup(cfg); err != nil {
					return err
				}
				policy = store.Replace
			}
			if err := col.Add(a, policy, cfg.Aliases.SortOnAdd); err != nil {
				formatter.Error("%v", err)
				formatter.Tip("Use --force to replace the existing alias.")
				return err
			}

			if cfg.Aliases.ValidateOnAdd && !noValidate {
				v := validate.New(nil)
				for _, finding := range v.Check(col, nil) {
					if finding.Alias != a.Name {
						continue
					}
					switch finding.Severity {
					case validate.SeverityError:
						formatter.Error("%s", finding.Message)
						return fmt.Errorf("alias failed validation: %s", finding.Message)
					case validate.SeverityWarning:
						formatter.Warning("%s", finding.Message)
					}
				}
			}

			if err := st.Save(col); err != nil {
				return fmt.Errorf("failed to save aliases: %w", err)
			}
			formatter.Success("Added alias '%s'", a.Name)
			formatter.Tip("Run 'source %s' or open a new shell to use it.", cfg.Aliases.FilePath)
			return nil
		},
	}

	cmd.Flags().String("note", "", "Attach a note to the alias")
	cmd.Flags().StringSlice("tag", nil, "Tag the alias (repeatable)")
	cmd.Flags().String("category", "", "Assign the alias to a category")
	cmd.Flags().Bool("force", false, "Replace an existing alias with the same name")
	cmd.Flags().Bool("no-validate", false, "Skip validation of the new alias")
	return cmd
}

func listCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List aliases",
		Long: `List aliases in file order. Filters by tag or category narrow the
listing; --sort orders by name instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			tag, _ := cmd.Flags().GetString("tag")
			categoryFilter, _ := cmd.Flags().GetString("category")
			sortByName, _ := cmd.Flags().GetBool("sort")

			_, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}

			var aliases []*alias.Alias
			switch {
			case tag != "":
				aliases = col.FilterTag(tag)
			case cmd.Flags().Changed("category"):
				aliases = col.FilterCategory(categoryFilter)
			default:
				aliases = col.List()
			}

			if sortByName {
				sort.Slice(aliases, func(i, j int) bool { return aliases[i].Name < aliases[j].Name })
			}

			if len(aliases) == 0 {
				formatter.Println("No aliases found.")
				formatter.Tip("Add one with: shorty add <name> '<command>'")
				return nil
			}
			for i, a := range aliases {
				formatter.Println("%s", renderAlias(cfg, i, a))
			}
			formatter.Verbose("%d aliases", len(aliases))
			return nil
		},
	}

	cmd.Flags().String("tag", "", "Only aliases carrying this tag")
	cmd.Flags().String("category", "", "Only aliases in this category (empty value selects uncategorized)")
	cmd.Flags().Bool("sort", false, "Sort by alias name instead of file order")
	return cmd
}

func editCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Edit an existing alias",
		Long: `Change parts of an alias in place. Only the fields given as flags are
touched; everything else keeps its current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			name := args[0]

			st, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}

			if err := autoBackup(cfg); err != nil {
				return err
			}

			if newName, _ := cmd.Flags().GetString("rename"); newName != "" {
				if err := col.Rename(name, newName); err != nil {
					formatter.Error("%v", err)
					return err
				}
				name = newName
			}

			var upd store.Update
			if cmd.Flags().Changed("command") {
				v, _ := cmd.Flags().GetString("command")
				upd.Command = &v
			}
			if cmd.Flags().Changed("note") {
				v, _ := cmd.Flags().GetString("note")
				upd.Note = &v
			} else if clear, _ := cmd.Flags().GetBool("clear-note"); clear {
				empty := ""
				upd.Note = &empty
			}
			if cmd.Flags().Changed("tag") {
				v, _ := cmd.Flags().GetStringSlice("tag")
				upd.Tags = &v
			} else if clear, _ := cmd.Flags().GetBool("clear-tags"); clear {
				none := []string{}
				upd.Tags = &none
			}
			if cmd.Flags().Changed("category") {
				v, _ := cmd.Flags().GetString("category")
				v = category.NormalizeName(v)
				upd.Category = &v
			} else if clear, _ := cmd.Flags().GetBool("clear-category"); clear {
				empty := ""
				upd.Category = &empty
			}

			a, err := col.Edit(name, upd)
			if err != nil {
				formatter.Error("%v", err)
				return err
			}

			if err := st.Save(col); err != nil {
				return fmt.Errorf("failed to save aliases: %w", err)
			}
			formatter.Success("Updated alias '%s'", a.Name)
			return nil
		},
	}

	cmd.Flags().String("command", "", "New command")
	cmd.Flags().String("note", "", "New note")
	cmd.Flags().StringSlice("tag", nil, "New tag set (repeatable, replaces existing tags)")
	cmd.Flags().String("category", "", "New category")
	cmd.Flags().String("rename", "", "Rename the alias")
	cmd.Flags().Bool("clear-note", false, "Remove the note")
	cmd.Flags().Bool("clear-tags", false, "Remove all tags")
	cmd.Flags().Bool("clear-category", false, "Remove the category")
	return cmd
}

func removeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <name>...",
		Aliases: []string{"rm"},
		Short:   "Remove aliases",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			yes, _ := cmd.Flags().GetBool("yes")

			st, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}

			if !yes && !confirm(fmt.Sprintf("Remove %d alias(es)?", len(args))) {
				formatter.Println("Cancelled.")
				return nil
			}

			if err := autoBackup(cfg); err != nil {
				return err
			}

			removed := 0
			for _, name := range args {
				if err := col.Remove(name); err != nil {
					formatter.Warning("%v", err)
					continue
				}
				removed++
			}
			if removed == 0 {
				return fmt.Errorf("no aliases removed")
			}

			if err := st.Save(col); err != nil {
				return fmt.Errorf("failed to save aliases: %w", err)
			}
			formatter.Success("Removed %d alias(es)", removed)
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	return cmd
}

func searchCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search aliases",
		Long: `Search aliases by keyword, regular expression or fuzzy match. An
empty query combined with --tag or --category acts as a pure filter.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			fieldName, _ := cmd.Flags().GetString("field")
			regex, _ := cmd.Flags().GetBool("regex")
			fuzzyMatch, _ := cmd.Flags().GetBool("fuzzy")
			caseSensitive, _ := cmd.Flags().GetBool("case-sensitive")
			tag, _ := cmd.Flags().GetString("tag")
			categoryFilter, _ := cmd.Flags().GetString("category")

			field, err := search.ParseField(fieldName)
			if err != nil {
				formatter.Error("%v", err)
				return err
			}

			_, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}

			engine := search.NewEngine(&cfg.Search)
			results, err := engine.Search(col.List(), search.Options{
				Query:         query,
				Field:         field,
				Regex:         regex,
				Fuzzy:         fuzzyMatch,
				CaseSensitive: caseSensitive,
				Tag:           tag,
				Category:      categoryFilter,
			})
			if err != nil {
				formatter.Error("%v", err)
				return err
			}

			if len(results) == 0 {
				formatter.Println("No matches.")
				return nil
			}
			for i, r := range results {
				formatter.Println("%s", renderAlias(cfg, i, r.Alias))
			}
			formatter.Verbose("%d matches", len(results))
			return nil
		},
	}

	cmd.Flags().String("field", "", "Restrict the search to one field: name, command, note or tag")
	cmd.Flags().Bool("regex", false, "Treat the query as a regular expression")
	cmd.Flags().Bool("fuzzy", false, "Rank results by fuzzy match quality")
	cmd.Flags().Bool("case-sensitive", false, "Case sensitive matching")
	cmd.Flags().String("tag", "", "Only search aliases carrying this tag")
	cmd.Flags().String("category", "", "Only search aliases in this category")
	return cmd
}

func duplicatesCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Show aliases that run the same command",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			fix, _ := cmd.Flags().GetBool("fix")

			st, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}

			groups := col.Duplicates()
			if len(groups) == 0 {
				formatter.Success("No duplicate commands found.")
				return nil
			}

			for _, group := range groups {
				formatter.Println("%s", group[0].Command)
				for _, a := range group {
					formatter.Println("    %s", a.Name)
				}
			}
			formatter.Warning("%d duplicate command group(s)", len(groups))

			if !fix {
				formatter.Tip("Run 'shorty duplicates --fix' to keep the first of each group.")
				return nil
			}

			if err := autoBackup(cfg); err != nil {
				return err
			}
			removed := col.Dedupe()
			if err := st.Save(col); err != nil {
				return fmt.Errorf("failed to save aliases: %w", err)
			}
			for _, a := range removed {
				formatter.Println("removed %s", a.Name)
			}
			formatter.Success("Removed %d duplicate alias(es)", len(removed))
			return nil
		},
	}

	cmd.Flags().Bool("fix", false, "Remove duplicates, keeping the first definition of each command")
	return cmd
}

func validateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check aliases for broken, dangerous or conflicting entries",
		Long: `Validate the alias collection: commands that resolve to nothing on
PATH, names shadowing shell builtins, dangerous command patterns,
duplicate commands and lines the parser had to skip.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			fix, _ := cmd.Flags().GetBool("fix")

			st, col, warnings, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}

			v := validate.New(nil)
			findings := v.Check(col, warnings)

			if len(findings) == 0 {
				formatter.Success("All %d aliases look good.", col.Len())
				return nil
			}

			for _, finding := range findings {
				switch finding.Severity {
				case validate.SeverityError:
					formatter.Error("%s", finding.Message)
				case validate.SeverityWarning:
					formatter.Warning("%s", finding.Message)
				default:
					formatter.Println("%s", finding.Message)
				}
			}
			formatter.Println("")
			formatter.Stats("%d finding(s) across %d aliases", len(findings), col.Len())

			if fix {
				if err := autoBackup(cfg); err != nil {
					return err
				}
				removed := v.Fix(col)
				if len(removed) > 0 {
					if err := st.Save(col); err != nil {
						return fmt.Errorf("failed to save aliases: %w", err)
					}
					formatter.Success("Removed %d duplicate alias(es)", len(removed))
				} else {
					formatter.Println("Nothing to fix automatically.")
				}
			}

			if validate.HasErrors(findings) {
				return fmt.Errorf("validation found errors")
			}
			return nil
		},
	}

	cmd.Flags().Bool("fix", false, "Apply automatic fixes (removes duplicate commands)")
	return cmd
}

func statsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show alias collection statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			_, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}

			s := stats.Compute(col.List(), cfg.Aliases.FilePath)

			formatter.Header("Alias Statistics")
			formatter.Println("Aliases:          %d", s.TotalAliases)
			formatter.Println("With notes:       %d (%.0f%%)", s.WithNotes, s.NoteCoverage()*100)
			formatter.Println("With tags:        %d (%.0f%%)", s.WithTags, s.TagCoverage()*100)
			formatter.Println("Categorized:      %d", s.Categorized)
			formatter.Println("Duplicate groups: %d", s.DuplicateGroups)
			formatter.Println("Avg cmd length:   %.1f chars", s.AvgCommandLength)
			if s.FileSizeBytes > 0 {
				formatter.Println("File size:        %s", humanize.Bytes(uint64(s.FileSizeBytes)))
			}

			if s.Longest != nil && s.Shortest != nil {
				formatter.Separator()
				formatter.Println("Longest command:  %s (%d chars)", s.Longest.Name, len(s.Longest.Command))
				formatter.Println("Shortest command: %s (%d chars)", s.Shortest.Name, len(s.Shortest.Command))
			}

			if top := s.TopTags(5); len(top) > 0 {
				formatter.Separator()
				formatter.Stats("Top tags")
				for _, tc := range top {
					formatter.Println("  %-16s %d", tc.Tag, tc.Count)
				}
			}
			if top := s.TopCommandKinds(5); len(top) > 0 {
				formatter.Separator()
				formatter.Stats("Most aliased commands")
				for _, tc := range top {
					formatter.Println("  %-16s %d", tc.Tag, tc.Count)
				}
			}

			if len(s.Recommendations) > 0 {
				formatter.Separator()
				for _, rec := range s.Recommendations {
					formatter.Tip("%s", rec)
				}
			}
			return nil
		},
	}
}

func backupCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage alias file backups",
	}

	mgr := func() *backup.Manager {
		return backup.NewManager(cfg.Aliases.FilePath, cfg.BackupDir())
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the alias file",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			label, _ := cmd.Flags().GetString("label")

			snap, err := mgr().Create(label)
			if err != nil {
				formatter.Error("%v", err)
				return err
			}
			formatter.Success("Created backup %s (%s)", snap.Name, humanize.Bytes(uint64(snap.Size)))
			return nil
		},
	}
	createCmd.Flags().String("label", "", "Label embedded in the backup file name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			snaps, err := mgr().List()
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				formatter.Println("No backups yet.")
				formatter.Tip("Create one with: shorty backup create")
				return nil
			}
			for _, snap := range snaps {
				line := fmt.Sprintf("%-44s %-14s %8s", snap.Name, humanize.Time(snap.CreatedAt), humanize.Bytes(uint64(snap.Size)))
				if snap.Label != "" {
					line += "  [" + snap.Label + "]"
				}
				formatter.Println("%s", line)
			}
			return nil
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <backup>",
		Short: "Restore the alias file from a backup",
		Long: `Restore the alias file from a snapshot, referenced by file name or ID.
The current alias file is snapshotted first, so a restore can always
be undone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			yes, _ := cmd.Flags().GetBool("yes")

			if !yes && !confirm(fmt.Sprintf("Replace %s with backup '%s'?", cfg.Aliases.FilePath, args[0])) {
				formatter.Println("Cancelled.")
				return nil
			}

			snap, err := mgr().Restore(args[0])
			if err != nil {
				formatter.Error("%v", err)
				return err
			}
			formatter.Success("Restored from %s (created %s)", snap.Name, humanize.Time(snap.CreatedAt))
			return nil
		},
	}
	restoreCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Expire old backups",
		Long: `Remove backups older than the retention period and prune the set down
to the configured maximum. The newest backup always survives.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			days, _ := cmd.Flags().GetInt("days")
			maxKeep, _ := cmd.Flags().GetInt("max")
			retention := cfg.BackupRetention()
			if cmd.Flags().Changed("days") {
				retention = time.Duration(days) * 24 * time.Hour
			}
			if !cmd.Flags().Changed("max") {
				maxKeep = cfg.Backup.MaxBackups
			}

			m := mgr()
			expired, err := m.Clean(retention)
			if err != nil {
				return err
			}
			pruned, err := m.Prune(maxKeep)
			if err != nil {
				return err
			}

			total := len(expired) + len(pruned)
			if total == 0 {
				formatter.Println("Nothing to clean.")
				return nil
			}
			for _, snap := range append(expired, pruned...) {
				formatter.Verbose("removed %s", snap.Name)
			}
			formatter.Success("Removed %d backup(s)", total)
			return nil
		},
	}
	cleanCmd.Flags().Int("days", 0, "Override the retention period in days")
	cleanCmd.Flags().Int("max", 0, "Override the maximum number of backups to keep")

	cmd.AddCommand(createCmd, listCmd, restoreCmd, cleanCmd)
	return cmd
}

func exportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export aliases to JSON, CSV or a shell script",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			formatName, _ := cmd.Flags().GetString("format")
			outputPath, _ := cmd.Flags().GetString("output")
			outputDir, _ := cmd.Flags().GetString("dir")
			tag, _ := cmd.Flags().GetString("tag")
			categoryFilter, _ := cmd.Flags().GetString("category")

			format, err := transfer.ValidateExportFormat(formatName)
			if err != nil {
				formatter.Error("%v", err)
				return err
			}

			_, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}

			aliases := col.List()
			if tag != "" {
				aliases = col.FilterTag(tag)
			} else if cmd.Flags().Changed("category") {
				aliases = col.FilterCategory(categoryFilter)
			}

			if outputPath == "" && outputDir != "" {
				outputPath = transfer.GenerateDefaultOutputPath(format, outputDir)
			}

			result, err := transfer.Export(aliases, format, outputPath)
			if err != nil {
				formatter.Error("Export failed: %v", err)
				return err
			}
			if result.OutputFile != "stdout" {
				formatter.Success("Exported %d alias(es) to %s (%s)",
					result.ExportedRecords, result.OutputFile, humanize.Bytes(uint64(result.BytesWritten)))
			}
			return nil
		},
	}

	cmd.Flags().String("format", "json", "Export format: json, csv or shell")
	cmd.Flags().String("output", "", "Output file (default: stdout)")
	cmd.Flags().String("dir", "", "Write to a generated file name inside this directory")
	cmd.Flags().String("tag", "", "Only export aliases carrying this tag")
	cmd.Flags().String("category", "", "Only export aliases in this category")
	return cmd
}

func importCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import aliases from a file",
		Long: `Import aliases from a shorty JSON/CSV export, a shell rc file
(.bashrc, .zshrc, plain alias scripts) or a fish config with alias and
abbr definitions. The format is detected from the file name unless
--format is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			path := args[0]

			formatName, _ := cmd.Flags().GetString("format")
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			format := transfer.DetectFormat(path)
			if formatName != "" {
				switch transfer.ImportFormat(formatName) {
				case transfer.ImportJSON, transfer.ImportCSV, transfer.ImportShell, transfer.ImportFish:
					format = transfer.ImportFormat(formatName)
				default:
					return fmt.Errorf("unsupported import format: %s (use json, csv, shell or fish)", formatName)
				}
			}

			incoming, parseWarnings, err := transfer.ImportFile(path, format)
			if err != nil {
				formatter.Error("Import failed: %v", err)
				return err
			}
			for _, w := range parseWarnings {
				formatter.Warning("%v", w)
			}

			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}

			st, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}

			if !dryRun && overwrite {
				if err := autoBackup(cfg); err != nil {
					return err
				}
			}

			result := transfer.Merge(col, incoming, transfer.ImportOptions{
				Overwrite: overwrite,
				DryRun:    dryRun,
			})

			if !dryRun && result.ImportedRecords > 0 {
				if err := st.Save(col); err != nil {
					return fmt.Errorf("failed to save aliases: %w", err)
				}
			}

			if dryRun {
				formatter.Println("Dry run: would import %d of %d alias(es), skipping %d",
					result.ImportedRecords, result.TotalRecords, result.SkippedRecords)
			} else {
				formatter.Success("Imported %d of %d alias(es)", result.ImportedRecords, result.TotalRecords)
			}
			if len(result.Conflicts) > 0 && !overwrite {
				formatter.Warning("Skipped %d existing alias(es): %s",
					len(result.Conflicts), strings.Join(result.Conflicts, ", "))
				formatter.Tip("Use --overwrite to replace them.")
			}
			return nil
		},
	}

	cmd.Flags().String("format", "", "Force the import format: json, csv, shell or fish")
	cmd.Flags().Bool("overwrite", false, "Replace existing aliases on name clashes")
	cmd.Flags().Bool("dry-run", false, "Show what would be imported without changing anything")
	return cmd
}

func templateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage command templates",
		Long: `Templates are reusable command patterns with {placeholder} slots.
'template use' renders one into a concrete alias.`,
	}

	mgr := func() *template.Manager {
		return template.NewManager(cfg.TemplatesPath())
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			set, err := mgr().Load()
			if err != nil {
				return err
			}
			if set.Len() == 0 {
				formatter.Println("No templates.")
				return nil
			}
			for _, name := range set.Names() {
				t, _ := set.Get(name)
				line := fmt.Sprintf("%-16s %s", name, t.Command)
				if t.Description != "" {
					line += "  # " + t.Description
				}
				formatter.Println("%s", line)
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show one template in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			set, err := mgr().Load()
			if err != nil {
				return err
			}
			t, ok := set.Get(args[0])
			if !ok {
				return fmt.Errorf("template not found: %s", args[0])
			}

			formatter.Header(args[0])
			formatter.Println("Command:  %s", t.Command)
			if t.Description != "" {
				formatter.Println("About:    %s", t.Description)
			}
			if t.Category != "" {
				formatter.Println("Category: %s", t.Category)
			}
			if len(t.Tags) > 0 {
				formatter.Println("Tags:     %s", strings.Join(t.Tags, ", "))
			}
			if t.UsageCount > 0 {
				formatter.Println("Used:     %d time(s)", t.UsageCount)
			}
			if ph := t.Placeholders(); len(ph) > 0 {
				formatter.Separator()
				formatter.Println("Parameters:")
				for _, name := range ph {
					p := t.Parameters[name]
					desc := ""
					if p != nil {
						if p.Required {
							desc += " (required)"
						}
						if p.Default != "" {
							desc += fmt.Sprintf(" (default: %s)", p.Default)
						}
						if p.Description != "" {
							desc += "  " + p.Description
						}
					}
					formatter.Println("  {%s}%s", name, desc)
				}
			}
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <name> <command>",
		Short: "Add a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			description, _ := cmd.Flags().GetString("description")
			categoryName, _ := cmd.Flags().GetString("category")
			tags, _ := cmd.Flags().GetStringSlice("tag")

			m := mgr()
			set, err := m.Load()
			if err != nil {
				return err
			}

			t := &template.Template{
				Description: description,
				Command:     args[1],
				Category:    category.NormalizeName(categoryName),
				Tags:        tags,
			}
			if err := set.Add(args[0], t); err != nil {
				formatter.Error("%v", err)
				return err
			}
			if err := m.Save(set); err != nil {
				return err
			}
			formatter.Success("Added template '%s'", args[0])
			if ph := t.Placeholders(); len(ph) > 0 {
				formatter.Verbose("parameters: %s", strings.Join(ph, ", "))
			}
			return nil
		},
	}
	addCmd.Flags().String("description", "", "What the template is for")
	addCmd.Flags().String("category", "", "Category applied to aliases created from this template")
	addCmd.Flags().StringSlice("tag", nil, "Tags applied to aliases created from this template")

	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			m := mgr()
			set, err := m.Load()
			if err != nil {
				return err
			}
			if err := set.Remove(args[0]); err != nil {
				formatter.Error("%v", err)
				return err
			}
			if err := m.Save(set); err != nil {
				return err
			}
			formatter.Success("Removed template '%s'", args[0])
			return nil
		},
	}

	useCmd := &cobra.Command{
		Use:   "use <template> [alias-name]",
		Short: "Render a template into an alias",
		Long: `Fill a template's placeholders with --set key=value pairs and create
an alias from the result. With --print the rendered command is printed
instead of creating an alias.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			pairs, _ := cmd.Flags().GetStringSlice("set")
			printOnly, _ := cmd.Flags().GetBool("print")

			values := make(map[string]string, len(pairs))
			for _, pair := range pairs {
				key, value, found := strings.Cut(pair, "=")
				if !found || key == "" {
					return fmt.Errorf("invalid --set value %q (expected key=value)", pair)
				}
				values[key] = value
			}

			m := mgr()
			set, err := m.Load()
			if err != nil {
				return err
			}
			t, ok := set.Get(args[0])
			if !ok {
				return fmt.Errorf("template not found: %s", args[0])
			}

			command, err := t.Render(values)
			if err != nil {
				formatter.Error("%v", err)
				if ph := t.Placeholders(); len(ph) > 0 {
					formatter.Tip("Template parameters: %s", strings.Join(ph, ", "))
				}
				return err
			}

			if printOnly {
				formatter.Print("%s\n", command)
				return nil
			}

			if len(args) < 2 {
				return fmt.Errorf("alias name required (or use --print)")
			}

			a, err := alias.New(args[1], command, t.Description, t.Tags)
			if err != nil {
				formatter.Error("Invalid alias: %v", err)
				return err
			}
			a.Category = t.Category

			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			st, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}
			if err := col.Add(a, store.Reject, cfg.Aliases.SortOnAdd); err != nil {
				formatter.Error("%v", err)
				return err
			}
			if err := st.Save(col); err != nil {
				return fmt.Errorf("failed to save aliases: %w", err)
			}

			set.RecordUse(args[0])
			if err := m.Save(set); err != nil {
				formatter.Warning("Failed to record template usage: %v", err)
			}

			formatter.Success("Added alias '%s' from template '%s'", a.Name, args[0])
			return nil
		},
	}
	useCmd.Flags().StringSlice("set", nil, "Parameter value as key=value (repeatable)")
	useCmd.Flags().Bool("print", false, "Print the rendered command instead of creating an alias")

	cmd.AddCommand(listCmd, showCmd, addCmd, removeCmd, useCmd)
	return cmd
}

func categoryCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage alias categories",
		Long: `Categories form a small hierarchy for grouping aliases. An alias
carries its category as a pseudo-tag in the alias file, so the file
stays plain shell.`,
	}

	mgr := func() *category.Manager {
		return category.NewManager(cfg.CategoriesPath())
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List categories with alias counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			set, err := mgr().Load()
			if err != nil {
				return err
			}
			_, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}
			counts := col.Categories()

			for _, name := range set.Names() {
				c, _ := set.Get(name)
				line := fmt.Sprintf("%-16s %3d alias(es)", name, counts[name])
				if c.Description != "" {
					line += "  " + c.Description
				}
				formatter.Println("%s", line)
			}

			// Categories referenced by aliases but never defined
			for name, count := range counts {
				if name == "" {
					continue
				}
				if _, ok := set.Get(name); !ok {
					formatter.Warning("%-16s %3d alias(es)  (undefined category)", name, count)
				}
			}
			if uncategorized := counts[""]; uncategorized > 0 {
				formatter.Println("%-16s %3d alias(es)", "(none)", uncategorized)
			}
			return nil
		},
	}

	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the category hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			set, err := mgr().Load()
			if err != nil {
				return err
			}
			nodes := set.Tree()
			if len(nodes) == 0 {
				formatter.Println("No categories.")
				return nil
			}
			for _, node := range nodes {
				indent := strings.Repeat("  ", node.Depth)
				line := indent + node.Name
				if node.Category.Icon != "" {
					line = indent + node.Category.Icon + " " + node.Name
				}
				if node.Category.Description != "" {
					line += "  " + node.Category.Description
				}
				formatter.Println("%s", line)
			}
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			description, _ := cmd.Flags().GetString("description")
			color, _ := cmd.Flags().GetString("color")
			icon, _ := cmd.Flags().GetString("icon")
			parent, _ := cmd.Flags().GetString("parent")

			m := mgr()
			set, err := m.Load()
			if err != nil {
				return err
			}
			if err := set.Add(args[0], category.Category{
				Description: description,
				Color:       color,
				Icon:        icon,
				Parent:      parent,
			}); err != nil {
				formatter.Error("%v", err)
				return err
			}
			if err := m.Save(set); err != nil {
				return err
			}
			formatter.Success("Added category '%s'", category.NormalizeName(args[0]))
			return nil
		},
	}
	addCmd.Flags().String("description", "", "Category description")
	addCmd.Flags().String("color", "", "Display color as #RRGGBB")
	addCmd.Flags().String("icon", "", "Display icon")
	addCmd.Flags().String("parent", "", "Parent category")

	updateCmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update a category's description, color or icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			description, _ := cmd.Flags().GetString("description")
			color, _ := cmd.Flags().GetString("color")
			icon, _ := cmd.Flags().GetString("icon")

			m := mgr()
			set, err := m.Load()
			if err != nil {
				return err
			}
			if err := set.Update(args[0], description, color, icon); err != nil {
				formatter.Error("%v", err)
				return err
			}
			if err := m.Save(set); err != nil {
				return err
			}
			formatter.Success("Updated category '%s'", category.NormalizeName(args[0]))
			return nil
		},
	}
	updateCmd.Flags().String("description", "", "New description")
	updateCmd.Flags().String("color", "", "New color as #RRGGBB")
	updateCmd.Flags().String("icon", "", "New icon")

	moveCmd := &cobra.Command{
		Use:   "move <name> <new-parent>",
		Short: "Move a category under a new parent ('' for the root)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			m := mgr()
			set, err := m.Load()
			if err != nil {
				return err
			}
			if err := set.Move(args[0], args[1]); err != nil {
				formatter.Error("%v", err)
				return err
			}
			if err := m.Save(set); err != nil {
				return err
			}
			formatter.Success("Moved category '%s'", category.NormalizeName(args[0]))
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category",
		Long: `Delete a category. Without --force the category must have no
children and no member aliases; with --force its children are
re-parented to the deleted node's parent and its aliases become
uncategorized in the category listing (they keep their category tag
until reassigned).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			force, _ := cmd.Flags().GetBool("force")

			name := category.NormalizeName(args[0])
			_, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}
			members := col.Categories()[name]
			if members > 0 && !force {
				formatter.Error("Category '%s' contains %d alias(es).", name, members)
				formatter.Tip("Use --force to delete it anyway.")
				return fmt.Errorf("category %q contains %d alias(es), use --force", name, members)
			}

			m := mgr()
			set, err := m.Load()
			if err != nil {
				return err
			}
			if err := set.Delete(args[0], force); err != nil {
				formatter.Error("%v", err)
				formatter.Tip("Use --force to re-parent its children and delete anyway.")
				return err
			}
			if err := m.Save(set); err != nil {
				return err
			}
			formatter.Success("Deleted category '%s'", name)
			if members > 0 {
				formatter.Warning("%d alias(es) are now uncategorized.", members)
			}
			return nil
		},
	}
	deleteCmd.Flags().Bool("force", false, "Delete even with children or member aliases")

	assignCmd := &cobra.Command{
		Use:   "assign <alias> <category>",
		Short: "Put an alias into a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			set, err := mgr().Load()
			if err != nil {
				return err
			}
			name := category.NormalizeName(args[1])
			if _, ok := set.Get(name); !ok {
				formatter.Error("Unknown category: %s", name)
				formatter.Tip("Create it first with: shorty category add %s", name)
				return fmt.Errorf("unknown category: %s", name)
			}

			st, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}
			if err := autoBackup(cfg); err != nil {
				return err
			}
			if _, err := col.Edit(args[0], store.Update{Category: &name}); err != nil {
				formatter.Error("%v", err)
				return err
			}
			if err := st.Save(col); err != nil {
				return fmt.Errorf("failed to save aliases: %w", err)
			}
			formatter.Success("Alias '%s' is now in category '%s'", args[0], name)
			return nil
		},
	}

	cmd.AddCommand(listCmd, treeCmd, addCmd, updateCmd, moveCmd, deleteCmd, assignCmd)
	return cmd
}

func configCmd(cfg *config.Config, configPath string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change configuration",
	}

	savePath := configPath
	if savePath == "" {
		savePath = filepath.Join(cfg.ConfigDir, "config.toml")
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok := cfg.GetValue(args[0])
			if !ok {
				return fmt.Errorf("unknown configuration key: %s", args[0])
			}
			fmt.Println(value)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			if err := cfg.SetValue(args[0], args[1]); err != nil {
				formatter.Error("%v", err)
				return err
			}
			if err := cfg.Save(savePath); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			formatter.Success("Set %s = %s", args[0], args[1])
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration keys and their current values",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			for _, entry := range cfg.Keys() {
				key, description := entry[0], entry[1]
				value, _ := cfg.GetValue(key)
				formatter.Println("%-32s %-12s %s", key, value, description)
			}
			return nil
		},
	}

	cmd.AddCommand(getCmd, setCmd, listCmd)
	return cmd
}

func installCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Source the alias file from your shell startup file",
		Long: `Append a marked block to your shell rc file that sources the alias
file. The rc file is backed up first, and installing twice is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			shellName, _ := cmd.Flags().GetString("shell")
			rcOverride, _ := cmd.Flags().GetString("rc")

			sh, err := shell.Parse(shellName)
			if err != nil {
				formatter.Error("%v", err)
				return err
			}
			rcPath := rcOverride
			if rcPath == "" {
				if rcPath, err = shell.RcPath(sh); err != nil {
					return err
				}
			}

			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			// An empty alias file keeps a fresh install sourceable
			st := store.New(cfg.Aliases.FilePath)
			if _, statErr := os.Stat(cfg.Aliases.FilePath); os.IsNotExist(statErr) {
				if err := st.Save(store.NewCollection()); err != nil {
					return fmt.Errorf("failed to create alias file: %w", err)
				}
			}

			if err := shell.Install(sh, rcPath, cfg.Aliases.FilePath); err != nil {
				formatter.Error("%v", err)
				return err
			}
			formatter.Success("Installed %s integration in %s", sh, rcPath)
			formatter.Tip("Open a new shell or run: source %s", rcPath)
			return nil
		},
	}

	cmd.Flags().String("shell", "", "Shell to install for: bash, zsh or fish (default: $SHELL)")
	cmd.Flags().String("rc", "", "Override the rc file path")
	return cmd
}

func uninstallCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the alias block from your shell startup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			shellName, _ := cmd.Flags().GetString("shell")
			rcOverride, _ := cmd.Flags().GetString("rc")

			sh, err := shell.Parse(shellName)
			if err != nil {
				formatter.Error("%v", err)
				return err
			}
			rcPath := rcOverride
			if rcPath == "" {
				if rcPath, err = shell.RcPath(sh); err != nil {
					return err
				}
			}

			if err := shell.Uninstall(rcPath); err != nil {
				formatter.Error("%v", err)
				return err
			}
			formatter.Success("Removed shell integration from %s", rcPath)
			return nil
		},
	}

	cmd.Flags().String("shell", "", "Shell to uninstall for: bash, zsh or fish (default: $SHELL)")
	cmd.Flags().String("rc", "", "Override the rc file path")
	return cmd
}

func syncCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync aliases through a git repository",
		Long: `Keep aliases, categories and templates in a git repository so they
follow you across machines. Requires git on PATH.`,
	}

	mgr := func() *syncpkg.Manager {
		return syncpkg.NewManager(cfg)
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the local sync repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			if err := mgr().Init(cmd.Context()); err != nil {
				formatter.Error("%v", err)
				return err
			}
			formatter.Success("Sync repository created in %s", cfg.SyncDir())
			formatter.Tip("Connect a remote with: shorty sync remote <url>")
			return nil
		},
	}

	remoteCmd := &cobra.Command{
		Use:   "remote <url>",
		Short: "Set the git remote to push to and pull from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			if err := mgr().SetRemote(cmd.Context(), args[0]); err != nil {
				formatter.Error("%v", err)
				return err
			}
			formatter.Success("Remote set to %s", args[0])
			return nil
		},
	}

	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Commit local changes and push them to the remote",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			if err := mgr().Push(cmd.Context()); err != nil {
				formatter.Error("%v", err)
				return err
			}
			formatter.Sync("Pushed aliases to %s/%s", cfg.Sync.Remote, cfg.Sync.Branch)
			return nil
		},
	}

	pullCmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull remote changes and apply them locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			if err := autoBackup(cfg); err != nil {
				return err
			}
			if err := mgr().Pull(cmd.Context()); err != nil {
				formatter.Error("%v", err)
				return err
			}
			formatter.Sync("Aliases updated from %s/%s", cfg.Sync.Remote, cfg.Sync.Branch)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sync repository state",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)

			st, err := mgr().Status(cmd.Context())
			if err != nil {
				return err
			}
			if !st.Initialized {
				formatter.Println("Sync is not set up.")
				formatter.Tip("Run 'shorty sync init' to get started.")
				return nil
			}

			formatter.Header("Sync Status")
			remote := st.Remote
			if remote == "" {
				remote = "(no remote)"
			}
			formatter.Println("Remote:    %s", remote)
			formatter.Println("Branch:    %s", st.Branch)
			if st.Dirty {
				formatter.Println("Changes:   local changes not yet pushed")
			} else {
				formatter.Println("Changes:   clean")
			}
			if st.Metadata != nil && !st.Metadata.LastSync.IsZero() {
				formatter.Println("Last sync: %s from %s", humanize.Time(st.Metadata.LastSync), st.Metadata.Device)
			}
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the local sync repository",
		Long: `Delete the local sync repository and its metadata. The alias file
itself is untouched; only the git working copy goes away.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			yes, _ := cmd.Flags().GetBool("yes")

			if !yes && !confirm(fmt.Sprintf("Delete the sync repository at %s?", cfg.SyncDir())) {
				formatter.Println("Cancelled.")
				return nil
			}
			if err := mgr().Reset(); err != nil {
				return err
			}
			formatter.Success("Sync repository removed.")
			return nil
		},
	}
	resetCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	cmd.AddCommand(initCmd, remoteCmd, pushCmd, pullCmd, statusCmd, resetCmd)
	return cmd
}

func shareCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share <name>",
		Short: "Copy an alias definition for sharing",
		Long: `Put a single alias definition line on the clipboard, ready to paste
into a chat or another machine's shell. With --file the line is
written to a small sourceable snippet instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			filePath, _ := cmd.Flags().GetString("file")

			_, col, _, err := openCollection(cfg, formatter)
			if err != nil {
				return err
			}
			a, ok := col.Get(args[0])
			if !ok {
				return fmt.Errorf("alias not found: %s", args[0])
			}

			if filePath != "" {
				if err := syncpkg.ShareToFile(a, filePath); err != nil {
					formatter.Error("%v", err)
					return err
				}
				formatter.Success("Wrote '%s' to %s", a.Name, filePath)
				return nil
			}

			if err := syncpkg.ShareToClipboard(a); err != nil {
				formatter.Error("%v", err)
				formatter.Tip("No clipboard available? Use --file to write a snippet instead.")
				return err
			}
			formatter.Success("Copied '%s' to the clipboard", a.Name)
			return nil
		},
	}

	cmd.Flags().String("file", "", "Write the alias to this file instead of the clipboard")
	return cmd
}

func tuiCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse aliases interactively",
		Long: `Open the interactive alias browser: filter as you type, copy an
alias to the clipboard, or delete entries without leaving the list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cfg)
		},
	}
}

func updateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for a newer shorty release",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, cfg)
			install, _ := cmd.Flags().GetBool("install")

			u := updater.New(cfg, version, updater.Options{})
			u.RecordCheck()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			info, err := u.CheckForUpdate(ctx)
			if err != nil {
				formatter.Error("Update check failed: %v", err)
				return err
			}
			if info == nil {
				formatter.Success("shorty %s is up to date.", version)
				return nil
			}

			formatter.Println("New version available: %s (released %s, %s)",
				info.Version, humanize.Time(info.ReleaseDate), humanize.Bytes(uint64(info.AssetSize)))
			if info.Changelog != "" {
				formatter.Separator()
				formatter.Println("%s", strings.TrimSpace(info.Changelog))
			}

			if !install {
				formatter.Separator()
				formatter.Tip("Run 'shorty update --install' to install it.")
				return nil
			}

			if err := u.Update(ctx, info); err != nil {
				formatter.Error("Update failed: %v", err)
				return err
			}
			formatter.Done("Updated to shorty %s", info.Version)
			return nil
		},
	}

	cmd.Flags().Bool("install", false, "Download and install the new version")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shorty %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
			fmt.Printf("  home:   %s\n", website)
		},
	}
}
