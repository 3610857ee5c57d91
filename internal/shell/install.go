// Package shell wires the alias file into the user's shell startup
// files. Installation appends a marked source block to the rc file;
// uninstallation removes exactly that block.
package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NeverVane/shorty/internal/logger"
)

// Shell identifies a supported shell.
type Shell string

const (
	Bash Shell = "bash"
	Zsh  Shell = "zsh"
	Fish Shell = "fish"
)

const (
	markerBegin = "# >>> shorty aliases >>>"
	markerEnd   = "# <<< shorty aliases <<<"
)

// Detect guesses the user's shell from $SHELL.
func Detect() Shell {
	shellPath := os.Getenv("SHELL")
	switch {
	case strings.Contains(shellPath, "zsh"):
		return Zsh
	case strings.Contains(shellPath, "fish"):
		return Fish
	default:
		return Bash
	}
}

// Parse validates a shell name from the CLI ("" means auto-detect).
func Parse(name string) (Shell, error) {
	switch Shell(strings.ToLower(name)) {
	case Bash, Zsh, Fish:
		return Shell(strings.ToLower(name)), nil
	case "":
		return Detect(), nil
	}
	return "", fmt.Errorf("unsupported shell %q (use bash, zsh or fish)", name)
}

// RcPath returns the startup file for a shell.
func RcPath(shell Shell) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	switch shell {
	case Bash:
		return filepath.Join(home, ".bashrc"), nil
	case Zsh:
		return filepath.Join(home, ".zshrc"), nil
	case Fish:
		return filepath.Join(home, ".config", "fish", "config.fish"), nil
	}
	return "", fmt.Errorf("unsupported shell %q", shell)
}

// sourceBlock renders the marked block appended to the rc file.
func sourceBlock(shell Shell, aliasPath string) string {
	var line string
	if shell == Fish {
		line = fmt.Sprintf("test -f %q; and source %q", aliasPath, aliasPath)
	} else {
		line = fmt.Sprintf("[ -f %q ] && . %q", aliasPath, aliasPath)
	}
	return markerBegin + "\n" + line + "\n" + markerEnd + "\n"
}

// IsInstalled reports whether the rc file already sources the aliases.
func IsInstalled(rcPath string) (bool, error) {
	data, err := os.ReadFile(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", rcPath, err)
	}
	return strings.Contains(string(data), markerBegin), nil
}

// Install appends the source block to the rc file. The rc file is
// copied aside first so a bad write never costs the user their shell
// configuration. Installing twice is a no-op.
func Install(shell Shell, rcPath, aliasPath string) error {
	log := logger.GetLogger().Shell()

	installed, err := IsInstalled(rcPath)
	if err != nil {
		return err
	}
	if installed {
		log.Debug().Str("rc", rcPath).Msg("already installed")
		return nil
	}

	existing, err := os.ReadFile(rcPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", rcPath, err)
	}
	if len(existing) > 0 {
		if err := backupRcFile(rcPath, existing); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(rcPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rcPath, err)
	}

	content := string(existing)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "\n" + sourceBlock(shell, aliasPath)

	if err := os.WriteFile(rcPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to update %s: %w", rcPath, err)
	}
	log.Info().Str("rc", rcPath).Str("shell", string(shell)).Msg("shell integration installed")
	return nil
}

// Uninstall removes the source block from the rc file. Everything else
// in the file is preserved byte for byte.
func Uninstall(rcPath string) error {
	data, err := os.ReadFile(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", rcPath, err)
	}

	content := string(data)
	begin := strings.Index(content, markerBegin)
	if begin < 0 {
		return nil
	}
	end := strings.Index(content, markerEnd)
	if end < 0 {
		return fmt.Errorf("%s: found begin marker without end marker, refusing to edit", rcPath)
	}
	end += len(markerEnd)
	if end < len(content) && content[end] == '\n' {
		end++
	}
	// Drop the blank line Install put before the block
	if begin > 0 && content[begin-1] == '\n' {
		if begin > 1 && content[begin-2] == '\n' {
			begin--
		}
	}

	if err := backupRcFile(rcPath, data); err != nil {
		return err
	}
	if err := os.WriteFile(rcPath, []byte(content[:begin]+content[end:]), 0644); err != nil {
		return fmt.Errorf("failed to update %s: %w", rcPath, err)
	}
	logger.GetLogger().Shell().Info().Str("rc", rcPath).Msg("shell integration removed")
	return nil
}

func backupRcFile(rcPath string, data []byte) error {
	backupPath := fmt.Sprintf("%s.shorty-%s.bak", rcPath, time.Now().Format("20060102150405"))
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return fmt.Errorf("failed to back up %s: %w", rcPath, err)
	}
	return nil
}
