// Package validate checks the alias collection for broken, dangerous
// and conflicting entries.
package validate

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/NeverVane/shorty/internal/alias"
	"github.com/NeverVane/shorty/internal/logger"
	"github.com/NeverVane/shorty/internal/store"
)

// Severity ranks a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// Kind names the class of problem a finding reports.
type Kind string

const (
	KindCommandNotFound    Kind = "command_not_found"
	KindDuplicateCommand   Kind = "duplicate_command"
	KindDangerousPattern   Kind = "dangerous_pattern"
	KindSystemNameConflict Kind = "system_name_conflict"
	KindEmptyCommand       Kind = "empty_command"
	KindInvalidSyntax      Kind = "invalid_syntax"
)

// Finding is one problem discovered in the collection.
type Finding struct {
	Kind     Kind
	Severity Severity
	Alias    string
	Message  string
}

// shellBuiltins are names the shell resolves before PATH. An alias
// shadowing one of these changes shell behavior in surprising ways.
var shellBuiltins = map[string]bool{
	"cd": true, "echo": true, "pwd": true, "exit": true,
	"source": true, ".": true, "alias": true, "unalias": true,
	"export": true, "set": true, "unset": true, "history": true,
	"jobs": true, "bg": true, "fg": true, "kill": true,
}

// dangerousPatterns flag commands that can destroy data or the system
// when fired by a two-letter slip.
var dangerousPatterns = []string{
	"rm -rf /",
	"sudo rm -rf",
	":(){ :|:& };:",
	"mkfs",
	"dd if=",
	"> /dev/",
	"shutdown",
	"reboot",
}

// Resolver answers whether a command name is executable. Injected so
// tests and callers do not depend on the host PATH.
type Resolver interface {
	Resolve(name string) bool
}

// PathResolver resolves against PATH and the shell builtin table.
type PathResolver struct{}

func (PathResolver) Resolve(name string) bool {
	if shellBuiltins[name] {
		return true
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// Validator runs the checks.
type Validator struct {
	resolver Resolver
	logger   *logger.Logger
}

// New returns a validator. A nil resolver selects the PATH resolver.
func New(resolver Resolver) *Validator {
	if resolver == nil {
		resolver = PathResolver{}
	}
	return &Validator{
		resolver: resolver,
		logger:   logger.GetLogger().Validate(),
	}
}

// Check runs every check over the collection and returns the findings
// in collection order, syntax warnings from the load first.
func (v *Validator) Check(col *store.Collection, loadWarnings []*alias.ParseError) []Finding {
	var findings []Finding

	for _, w := range loadWarnings {
		findings = append(findings, Finding{
			Kind:     KindInvalidSyntax,
			Severity: SeverityError,
			Message:  w.Error(),
		})
	}

	for _, a := range col.List() {
		findings = append(findings, v.checkAlias(col, a)...)
	}

	for _, group := range col.Duplicates() {
		names := make([]string, len(group))
		for i, a := range group {
			names[i] = a.Name
		}
		findings = append(findings, Finding{
			Kind:     KindDuplicateCommand,
			Severity: SeverityInfo,
			Alias:    group[0].Name,
			Message:  fmt.Sprintf("aliases %s run the same command %q", strings.Join(names, ", "), alias.NormalizeCommand(group[0].Command)),
		})
	}

	v.logger.Debug().Int("findings", len(findings)).Msg("validation complete")
	return findings
}

func (v *Validator) checkAlias(col *store.Collection, a *alias.Alias) []Finding {
	var findings []Finding

	if strings.TrimSpace(a.Command) == "" {
		findings = append(findings, Finding{
			Kind:     KindEmptyCommand,
			Severity: SeverityError,
			Alias:    a.Name,
			Message:  fmt.Sprintf("alias %q has an empty command", a.Name),
		})
		return findings
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(a.Command, pattern) {
			findings = append(findings, Finding{
				Kind:     KindDangerousPattern,
				Severity: SeverityError,
				Alias:    a.Name,
				Message:  fmt.Sprintf("alias %q contains dangerous pattern %q", a.Name, pattern),
			})
			break
		}
	}

	if shellBuiltins[a.Name] {
		findings = append(findings, Finding{
			Kind:     KindSystemNameConflict,
			Severity: SeverityWarning,
			Alias:    a.Name,
			Message:  fmt.Sprintf("alias %q shadows the shell builtin of the same name", a.Name),
		})
	}

	if head := commandHead(a.Command); head != "" {
		if _, isAlias := col.Get(head); !isAlias && !v.resolver.Resolve(head) {
			findings = append(findings, Finding{
				Kind:     KindCommandNotFound,
				Severity: SeverityWarning,
				Alias:    a.Name,
				Message:  fmt.Sprintf("alias %q runs %q, which is not on PATH", a.Name, head),
			})
		}
	}

	return findings
}

// commandHead extracts the executable name being invoked: the first
// word after any leading VAR=value assignments and a sudo prefix.
func commandHead(command string) string {
	fields := strings.Fields(command)
	for i, f := range fields {
		if strings.Contains(f, "=") {
			continue
		}
		if f == "sudo" && i+1 < len(fields) {
			continue
		}
		return f
	}
	return ""
}

// Fix removes duplicate-command aliases, keeping the first occurrence
// of each command. Callers persist the collection (behind an automatic
// backup) after a successful fix.
func (v *Validator) Fix(col *store.Collection) []*alias.Alias {
	removed := col.Dedupe()
	if len(removed) > 0 {
		v.logger.Info().Int("removed", len(removed)).Msg("duplicate aliases removed")
	}
	return removed
}

// HasErrors reports whether any finding is at error severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}
