package sync

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"

	"github.com/NeverVane/shorty/internal/alias"
)

// ShareToClipboard puts the alias definition line on the system
// clipboard, ready to paste into a chat or another machine's shell.
func ShareToClipboard(a *alias.Alias) error {
	if err := clipboard.WriteAll(a.Line()); err != nil {
		return fmt.Errorf("failed to copy alias to clipboard: %w", err)
	}
	return nil
}

// ShareToFile writes the alias as a small sourceable snippet.
func ShareToFile(a *alias.Alias, path string) error {
	content := fmt.Sprintf("# Shared from shorty\n%s\n", a.Line())
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write share file: %w", err)
	}
	return nil
}
