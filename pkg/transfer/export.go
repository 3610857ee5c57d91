// Package transfer moves aliases in and out of shorty: export to JSON,
// CSV and shell script, import from exports and from live shell rc
// files.
package transfer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NeverVane/shorty/internal/alias"
)

// ExportFormat represents the export format type
type ExportFormat string

const (
	FormatJSON  ExportFormat = "json"
	FormatCSV   ExportFormat = "csv"
	FormatShell ExportFormat = "shell"
)

// ExportResult contains the result of an export operation
type ExportResult struct {
	ExportedRecords int
	OutputFile      string
	Format          ExportFormat
	BytesWritten    int64
	ExportedAt      time.Time
}

// Record is the portable form of an alias used by JSON import/export.
type Record struct {
	Name        string   `json:"name"`
	Command     string   `json:"command"`
	Note        string   `json:"note,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Category    string   `json:"category,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	ShellSource string   `json:"shell_source,omitempty"`
}

// jsonDocument wraps exported records with provenance metadata.
type jsonDocument struct {
	Metadata jsonMetadata `json:"metadata"`
	Aliases  []Record     `json:"aliases"`
}

type jsonMetadata struct {
	Tool       string `json:"tool"`
	ExportedAt string `json:"exported_at"`
	Count      int    `json:"count"`
}

// Export writes aliases in the given format to outputPath ("" or "-"
// means stdout).
func Export(aliases []*alias.Alias, format ExportFormat, outputPath string) (*ExportResult, error) {
	var writer io.Writer
	var file *os.File
	var err error

	if outputPath == "" || outputPath == "-" {
		writer = os.Stdout
		outputPath = "stdout"
	} else {
		if dir := filepath.Dir(outputPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		file, err = os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	exportedAt := time.Now()
	var bytesWritten int64

	switch format {
	case FormatJSON:
		bytesWritten, err = exportToJSON(writer, aliases, exportedAt)
	case FormatCSV:
		bytesWritten, err = exportToCSV(writer, aliases)
	case FormatShell:
		bytesWritten, err = exportToShell(writer, aliases, exportedAt)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to export to %s format: %w", format, err)
	}

	return &ExportResult{
		ExportedRecords: len(aliases),
		OutputFile:      outputPath,
		Format:          format,
		BytesWritten:    bytesWritten,
		ExportedAt:      exportedAt,
	}, nil
}

func toRecord(a *alias.Alias) Record {
	r := Record{
		Name:        a.Name,
		Command:     a.Command,
		Note:        a.Note,
		Tags:        a.Tags,
		Category:    a.Category,
		ShellSource: a.ShellSource,
	}
	if !a.CreatedAt.IsZero() {
		r.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	return r
}

// exportToJSON writes the wrapped JSON document.
func exportToJSON(writer io.Writer, aliases []*alias.Alias, exportedAt time.Time) (int64, error) {
	doc := jsonDocument{
		Metadata: jsonMetadata{
			Tool:       "shorty",
			ExportedAt: exportedAt.Format(time.RFC3339),
			Count:      len(aliases),
		},
		Aliases: make([]Record, 0, len(aliases)),
	}
	for _, a := range aliases {
		doc.Aliases = append(doc.Aliases, toRecord(a))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	n, err := writer.Write(data)
	return int64(n), err
}

// exportToCSV writes one row per alias with a header line.
func exportToCSV(writer io.Writer, aliases []*alias.Alias) (int64, error) {
	bufWriter := bufio.NewWriter(writer)
	defer bufWriter.Flush()

	var bytesWritten int64

	header := "name,command,note,tags,category,created_at,shell_source\n"
	n, err := bufWriter.WriteString(header)
	if err != nil {
		return bytesWritten, err
	}
	bytesWritten += int64(n)

	for _, a := range aliases {
		createdAt := ""
		if !a.CreatedAt.IsZero() {
			createdAt = a.CreatedAt.Format(time.RFC3339)
		}
		line := fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s\n",
			escapeCSVField(a.Name),
			escapeCSVField(a.Command),
			escapeCSVField(a.Note),
			escapeCSVField(strings.Join(a.Tags, ",")),
			escapeCSVField(a.Category),
			createdAt,
			escapeCSVField(a.ShellSource),
		)
		n, err := bufWriter.WriteString(line)
		if err != nil {
			return bytesWritten, err
		}
		bytesWritten += int64(n)
	}

	return bytesWritten, nil
}

// exportToShell writes a sourceable script in the alias file grammar.
func exportToShell(writer io.Writer, aliases []*alias.Alias, exportedAt time.Time) (int64, error) {
	bufWriter := bufio.NewWriter(writer)
	defer bufWriter.Flush()

	var bytesWritten int64

	header := fmt.Sprintf("#!/bin/sh\n# Aliases exported by shorty on %s\n", exportedAt.Format("2006-01-02 15:04:05"))
	n, err := bufWriter.WriteString(header)
	if err != nil {
		return bytesWritten, err
	}
	bytesWritten += int64(n)

	for _, a := range aliases {
		n, err := bufWriter.WriteString(a.Line() + "\n")
		if err != nil {
			return bytesWritten, err
		}
		bytesWritten += int64(n)
	}

	return bytesWritten, nil
}

// escapeCSVField escapes a field for CSV format
func escapeCSVField(field string) string {
	if strings.ContainsAny(field, ",\n\r\"") {
		field = strings.ReplaceAll(field, "\"", "\"\"")
		return "\"" + field + "\""
	}
	return field
}

// GetSupportedFormats returns a list of supported export formats
func GetSupportedFormats() []ExportFormat {
	return []ExportFormat{FormatJSON, FormatCSV, FormatShell}
}

// ValidateExportFormat checks if the given format is supported
func ValidateExportFormat(format string) (ExportFormat, error) {
	f := ExportFormat(strings.ToLower(format))
	for _, supported := range GetSupportedFormats() {
		if f == supported {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format: %s. Supported formats: %v", format, GetSupportedFormats())
}

// GenerateDefaultOutputPath generates a default output file path based
// on format and timestamp.
func GenerateDefaultOutputPath(format ExportFormat, outputDir string) string {
	timestamp := time.Now().Format("20060102_150405")
	ext := string(format)
	if format == FormatShell {
		ext = "sh"
	}
	filename := fmt.Sprintf("shorty_export_%s.%s", timestamp, ext)
	if outputDir == "" {
		outputDir = "."
	}
	return filepath.Join(outputDir, filename)
}
