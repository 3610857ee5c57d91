package transfer

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NeverVane/shorty/internal/alias"
	"github.com/NeverVane/shorty/internal/store"
)

// ImportFormat represents the import source format
type ImportFormat string

const (
	ImportJSON  ImportFormat = "json"
	ImportCSV   ImportFormat = "csv"
	ImportShell ImportFormat = "shell"
	ImportFish  ImportFormat = "fish"
)

// ImportOptions contains options for import operations
type ImportOptions struct {
	// Overwrite replaces existing aliases on a name clash instead of
	// skipping the incoming one.
	Overwrite bool

	// DryRun computes the result without touching the collection.
	DryRun bool
}

// ImportResult contains the result of an import operation
type ImportResult struct {
	TotalRecords    int
	ImportedRecords int
	SkippedRecords  int
	Conflicts       []string
	Errors          []error
}

// DetectFormat guesses the import format from the file path.
func DetectFormat(path string) ImportFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ImportJSON
	case ".csv":
		return ImportCSV
	case ".fish":
		return ImportFish
	}
	if strings.Contains(filepath.Base(path), "fish") {
		return ImportFish
	}
	return ImportShell
}

// ImportFile parses a file into aliases using the given format
// ("" means auto-detect).
func ImportFile(path string, format ImportFormat) ([]*alias.Alias, []error, error) {
	if format == "" {
		format = DetectFormat(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer file.Close()

	source := filepath.Base(path)
	switch format {
	case ImportJSON:
		return ParseJSON(file)
	case ImportCSV:
		return ParseCSV(file)
	case ImportFish:
		return ParseFish(file, source)
	case ImportShell:
		return ParseShell(file, source)
	}
	return nil, nil, fmt.Errorf("unsupported import format: %s", format)
}

// ParseJSON reads a shorty JSON export. Both the wrapped document and a
// bare record array are accepted.
func ParseJSON(r io.Reader) ([]*alias.Alias, []error, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read JSON input: %w", err)
	}

	var records []Record
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Aliases != nil {
		records = doc.Aliases
	} else if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, fmt.Errorf("failed to parse JSON input: %w", err)
	}

	var aliases []*alias.Alias
	var warnings []error
	for _, rec := range records {
		a, err := recordToAlias(rec)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		aliases = append(aliases, a)
	}
	return aliases, warnings, nil
}

// ParseCSV reads a shorty CSV export (header-driven column order).
func ParseCSV(r io.Reader) ([]*alias.Alias, []error, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV input: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	col := make(map[string]int)
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["name"]; !ok {
		return nil, nil, fmt.Errorf("CSV input has no name column")
	}
	if _, ok := col["command"]; !ok {
		return nil, nil, fmt.Errorf("CSV input has no command column")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var aliases []*alias.Alias
	var warnings []error
	for _, row := range rows[1:] {
		rec := Record{
			Name:        field(row, "name"),
			Command:     field(row, "command"),
			Note:        field(row, "note"),
			Category:    field(row, "category"),
			CreatedAt:   field(row, "created_at"),
			ShellSource: field(row, "shell_source"),
		}
		if tags := field(row, "tags"); tags != "" {
			rec.Tags = strings.Split(tags, ",")
		}
		a, err := recordToAlias(rec)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		aliases = append(aliases, a)
	}
	return aliases, warnings, nil
}

// ParseShell extracts alias definitions from a shell file: a shorty
// alias file, a .bashrc/.zshrc or any script containing alias lines.
// Non-alias lines are ignored, malformed alias lines are reported.
func ParseShell(r io.Reader, source string) ([]*alias.Alias, []error, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var aliases []*alias.Alias
	var warnings []error
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "alias ") {
			continue
		}

		// The shorty grammar first, then loose rc-file quoting.
		a, err := alias.ParseLine(lineNo, line)
		if err != nil {
			a, err = parseLooseAlias(lineNo, line)
		}
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		if a != nil {
			a.ShellSource = source
			a.CreatedAt = time.Now()
			aliases = append(aliases, a)
		}
	}
	if err := scanner.Err(); err != nil {
		return aliases, warnings, fmt.Errorf("failed to read shell input: %w", err)
	}
	return aliases, warnings, nil
}

// parseLooseAlias accepts the quoting styles found in real rc files:
// double quotes, no quotes, trailing comments.
func parseLooseAlias(lineNo int, line string) (*alias.Alias, error) {
	rest := strings.TrimPrefix(strings.TrimSpace(line), "alias ")
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return nil, &alias.ParseError{LineNo: lineNo, Text: line, Reason: "missing '=' after alias name"}
	}
	name := strings.TrimSpace(rest[:eq])
	value := strings.TrimSpace(rest[eq+1:])

	switch {
	case strings.HasPrefix(value, `"`):
		end := strings.LastIndex(value, `"`)
		if end <= 0 {
			return nil, &alias.ParseError{LineNo: lineNo, Text: line, Reason: "unterminated quoted command"}
		}
		value = strings.ReplaceAll(value[1:end], `\"`, `"`)
	case strings.HasPrefix(value, "'"):
		end := strings.LastIndex(value, "'")
		if end <= 0 {
			return nil, &alias.ParseError{LineNo: lineNo, Text: line, Reason: "unterminated quoted command"}
		}
		value = strings.ReplaceAll(value[1:end], `'\''`, "'")
	default:
		// Unquoted: the command ends at a comment, if any
		if idx := strings.Index(value, " #"); idx >= 0 {
			value = value[:idx]
		}
		value = strings.TrimSpace(value)
	}

	a, err := alias.New(name, value, "", nil)
	if err != nil {
		return nil, &alias.ParseError{LineNo: lineNo, Text: line, Reason: err.Error()}
	}
	return a, nil
}

// ParseFish extracts fish abbreviations (abbr -a / abbr --add) and
// alias lines from a fish config file.
func ParseFish(r io.Reader, source string) ([]*alias.Alias, []error, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var aliases []*alias.Alias
	var warnings []error
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "alias ") {
			// fish also supports `alias name 'command'`
			if a, err := parseFishAlias(lineNo, line); err != nil {
				warnings = append(warnings, err)
			} else if a != nil {
				a.ShellSource = source
				a.CreatedAt = time.Now()
				aliases = append(aliases, a)
			}
			continue
		}

		if !strings.HasPrefix(line, "abbr ") {
			continue
		}
		fields := strings.Fields(line)[1:]
		var name string
		var cmdParts []string
		for i := 0; i < len(fields); i++ {
			f := fields[i]
			if name == "" && (f == "-a" || f == "--add" || f == "-g" || f == "--global" || f == "-U" || f == "--universal") {
				continue
			}
			if name == "" {
				name = f
				continue
			}
			cmdParts = append(cmdParts, f)
		}
		if name == "" || len(cmdParts) == 0 {
			warnings = append(warnings, &alias.ParseError{LineNo: lineNo, Text: line, Reason: "malformed abbreviation"})
			continue
		}
		command := strings.Trim(strings.Join(cmdParts, " "), `'"`)

		a, err := alias.New(name, command, "", nil)
		if err != nil {
			warnings = append(warnings, &alias.ParseError{LineNo: lineNo, Text: line, Reason: err.Error()})
			continue
		}
		a.ShellSource = source
		a.CreatedAt = time.Now()
		aliases = append(aliases, a)
	}
	if err := scanner.Err(); err != nil {
		return aliases, warnings, fmt.Errorf("failed to read fish input: %w", err)
	}
	return aliases, warnings, nil
}

// parseFishAlias parses `alias name 'command'` (fish spells alias
// without the equals sign).
func parseFishAlias(lineNo int, line string) (*alias.Alias, error) {
	if strings.Contains(strings.SplitN(line, " ", 3)[1], "=") {
		// Equals form, same as POSIX shells
		return parseLooseAlias(lineNo, line)
	}
	parts := strings.SplitN(strings.TrimPrefix(line, "alias "), " ", 2)
	if len(parts) != 2 {
		return nil, &alias.ParseError{LineNo: lineNo, Text: line, Reason: "malformed fish alias"}
	}
	command := strings.Trim(strings.TrimSpace(parts[1]), `'"`)
	a, err := alias.New(strings.TrimSpace(parts[0]), command, "", nil)
	if err != nil {
		return nil, &alias.ParseError{LineNo: lineNo, Text: line, Reason: err.Error()}
	}
	return a, nil
}

// Merge folds incoming aliases into the collection. Name clashes are
// skipped (and reported) unless Overwrite is set. With DryRun the
// collection is left untouched and the result shows what would happen.
func Merge(col *store.Collection, incoming []*alias.Alias, opts ImportOptions) *ImportResult {
	result := &ImportResult{TotalRecords: len(incoming)}

	for _, a := range incoming {
		_, exists := col.Get(a.Name)
		if exists && !opts.Overwrite {
			result.SkippedRecords++
			result.Conflicts = append(result.Conflicts, a.Name)
			continue
		}

		if !opts.DryRun {
			policy := store.Reject
			if opts.Overwrite {
				policy = store.Replace
			}
			if err := col.Add(a, policy, false); err != nil {
				result.SkippedRecords++
				result.Errors = append(result.Errors, err)
				continue
			}
		}
		result.ImportedRecords++
	}
	return result
}

func recordToAlias(rec Record) (*alias.Alias, error) {
	a, err := alias.New(rec.Name, rec.Command, rec.Note, rec.Tags)
	if err != nil {
		return nil, err
	}
	if rec.Category != "" {
		a.Category = rec.Category
	}
	a.ShellSource = rec.ShellSource
	if rec.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, rec.CreatedAt); err == nil {
			a.CreatedAt = ts
		}
	}
	return a, nil
}
