package output

import (
	"fmt"
	"os"

	"github.com/NeverVane/shorty/internal/config"
)

// Formatter provides a high-level interface for CLI output formatting
type Formatter struct {
	colorFormatter *ColorFormatter
	verboseMode    bool
	quietMode      bool
}

// NewFormatter creates a new formatter instance from config
func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{
		colorFormatter: NewColorFormatter(&cfg.Output),
		verboseMode:    false,
		quietMode:      false,
	}
}

// SetFlags configures the formatter based on command line flags
func (f *Formatter) SetFlags(verbose, quiet, noColor bool) {
	f.verboseMode = verbose
	f.quietMode = quiet
	f.colorFormatter.SetNoColor(noColor)
}

// Print functions that respect verbosity levels

// Success prints a success message (always shown unless quiet)
func (f *Formatter) Success(format string, args ...interface{}) {
	if !f.quietMode {
		message := fmt.Sprintf(format, args...)
		fmt.Println(f.colorFormatter.Success(message))
	}
}

// Error prints an error message (always shown)
func (f *Formatter) Error(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, f.colorFormatter.Error(message))
}

// Warning prints a warning message (always shown unless quiet)
func (f *Formatter) Warning(format string, args ...interface{}) {
	if !f.quietMode {
		message := fmt.Sprintf(format, args...)
		fmt.Println(f.colorFormatter.Warning(message))
	}
}

// Verbose prints a verbose message (only shown in verbose mode)
func (f *Formatter) Verbose(format string, args ...interface{}) {
	if f.verboseMode || f.colorFormatter.GetVerbosity() == "verbose" {
		message := fmt.Sprintf(format, args...)
		fmt.Println(f.colorFormatter.Info(message))
	}
}

// Tip prints a tip message (shown unless quiet)
func (f *Formatter) Tip(format string, args ...interface{}) {
	if !f.quietMode {
		message := fmt.Sprintf(format, args...)
		fmt.Println(f.colorFormatter.Tip(message))
	}
}

// Status-specific print functions

// Sync prints a sync-related message
func (f *Formatter) Sync(format string, args ...interface{}) {
	if !f.quietMode {
		message := fmt.Sprintf(format, args...)
		fmt.Println(f.colorFormatter.Sync(message))
	}
}

// Stats prints a statistics message
func (f *Formatter) Stats(format string, args ...interface{}) {
	if !f.quietMode {
		message := fmt.Sprintf(format, args...)
		fmt.Println(f.colorFormatter.Stats(message))
	}
}

// Done prints a completion message
func (f *Formatter) Done(format string, args ...interface{}) {
	if !f.quietMode {
		message := fmt.Sprintf(format, args...)
		fmt.Println(f.colorFormatter.Done(message))
	}
}

// Utility functions

// Print prints a plain message without status indicators
func (f *Formatter) Print(format string, args ...interface{}) {
	if !f.quietMode {
		fmt.Printf(format, args...)
	}
}

// Println prints a plain message with newline
func (f *Formatter) Println(format string, args ...interface{}) {
	if !f.quietMode {
		fmt.Printf(format+"\n", args...)
	}
}

// Header prints a formatted section header
func (f *Formatter) Header(title string) {
	if !f.quietMode {
		fmt.Println(f.colorFormatter.Section(title))
		fmt.Println()
	}
}

// Separator prints a visual separator
func (f *Formatter) Separator() {
	if !f.quietMode {
		fmt.Println()
	}
}
