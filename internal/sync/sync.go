// Package sync replicates the shorty data files through a git
// repository. The sync directory is a plain git working tree; every
// operation shells out to the git binary, so whatever auth the user
// has configured for git (ssh keys, credential helpers) just works.
package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/NeverVane/shorty/internal/config"
	"github.com/NeverVane/shorty/internal/logger"
)

// Runner executes git commands. Injected so tests can stub the binary.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Metadata records the state of the last successful sync.
type Metadata struct {
	LastSync time.Time `toml:"last_sync"`
	Checksum string    `toml:"checksum"`
	Device   string    `toml:"device"`
}

// Status describes the sync repository.
type Status struct {
	Initialized bool
	Remote      string
	Branch      string
	Dirty       bool
	Metadata    *Metadata
}

// Manager drives the sync repository.
type Manager struct {
	cfg    *config.Config
	dir    string
	runner Runner
	logger *logger.Logger
}

// NewManager returns a sync manager for the configured sync directory.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:    cfg,
		dir:    cfg.SyncDir(),
		runner: execRunner{},
		logger: logger.GetLogger().Sync(),
	}
}

// WithRunner replaces the git runner. Used by tests.
func (m *Manager) WithRunner(r Runner) *Manager {
	m.runner = r
	return m
}

// syncedFiles are the data files replicated through the repository,
// relative to the data dir.
func (m *Manager) syncedFiles() map[string]string {
	return map[string]string{
		"aliases":         m.cfg.Aliases.FilePath,
		"categories.toml": m.cfg.CategoriesPath(),
		"templates.toml":  m.cfg.TemplatesPath(),
	}
}

// Init creates the sync repository and makes the first commit.
func (m *Manager) Init(ctx context.Context) error {
	if m.initialized() {
		return fmt.Errorf("sync repository already initialized at %s", m.dir)
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create sync directory: %w", err)
	}
	if _, err := m.runner.Run(ctx, m.dir, "init", "-b", m.cfg.Sync.Branch); err != nil {
		return err
	}
	if err := m.stageFiles(); err != nil {
		return err
	}
	if _, err := m.runner.Run(ctx, m.dir, "add", "-A"); err != nil {
		return err
	}
	if _, err := m.runner.Run(ctx, m.dir, "commit", "-m", "Initial shorty sync"); err != nil {
		return err
	}
	m.logger.Info().Str("dir", m.dir).Msg("sync repository initialized")
	return m.writeMetadata()
}

// SetRemote adds or updates the configured remote.
func (m *Manager) SetRemote(ctx context.Context, url string) error {
	if !m.initialized() {
		return fmt.Errorf("sync repository not initialized; run `shorty sync init` first")
	}
	remote := m.cfg.Sync.Remote
	if _, err := m.runner.Run(ctx, m.dir, "remote", "get-url", remote); err == nil {
		_, err = m.runner.Run(ctx, m.dir, "remote", "set-url", remote, url)
		return err
	}
	_, err := m.runner.Run(ctx, m.dir, "remote", "add", remote, url)
	return err
}

// Push copies the data files into the working tree, commits any change
// and pushes to the remote.
func (m *Manager) Push(ctx context.Context) error {
	if !m.initialized() {
		return fmt.Errorf("sync repository not initialized; run `shorty sync init` first")
	}
	if err := m.stageFiles(); err != nil {
		return err
	}
	if _, err := m.runner.Run(ctx, m.dir, "add", "-A"); err != nil {
		return err
	}

	out, err := m.runner.Run(ctx, m.dir, "status", "--porcelain")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != "" {
		msg := fmt.Sprintf("Sync aliases from %s at %s", deviceName(), time.Now().Format("2006-01-02 15:04"))
		if _, err := m.runner.Run(ctx, m.dir, "commit", "-m", msg); err != nil {
			return err
		}
	}

	if _, err := m.runner.Run(ctx, m.dir, "push", "-u", m.cfg.Sync.Remote, m.cfg.Sync.Branch); err != nil {
		return err
	}
	m.logger.Info().Msg("sync push complete")
	return m.writeMetadata()
}

// Pull fetches the remote state and copies the synced files back over
// the live data files. Callers snapshot the alias file first.
func (m *Manager) Pull(ctx context.Context) error {
	if !m.initialized() {
		return fmt.Errorf("sync repository not initialized; run `shorty sync init` first")
	}
	if _, err := m.runner.Run(ctx, m.dir, "pull", m.cfg.Sync.Remote, m.cfg.Sync.Branch); err != nil {
		return err
	}

	for name, target := range m.syncedFiles() {
		src := filepath.Join(m.dir, name)
		data, err := os.ReadFile(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to read synced file %s: %w", name, err)
		}
		if err := writeFileAtomic(target, data); err != nil {
			return err
		}
	}
	m.logger.Info().Msg("sync pull complete")
	return m.writeMetadata()
}

// Status reports the repository state.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	st := &Status{Branch: m.cfg.Sync.Branch}
	if !m.initialized() {
		return st, nil
	}
	st.Initialized = true

	if out, err := m.runner.Run(ctx, m.dir, "remote", "get-url", m.cfg.Sync.Remote); err == nil {
		st.Remote = strings.TrimSpace(out)
	}

	if err := m.stageFiles(); err != nil {
		return nil, err
	}
	out, err := m.runner.Run(ctx, m.dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	st.Dirty = strings.TrimSpace(out) != ""

	if meta, err := m.readMetadata(); err == nil {
		st.Metadata = meta
	}
	return st, nil
}

// Reset throws the sync repository away. The live data files are not
// touched.
func (m *Manager) Reset() error {
	if !m.initialized() {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to remove sync directory: %w", err)
	}
	m.logger.Info().Str("dir", m.dir).Msg("sync repository removed")
	return nil
}

func (m *Manager) initialized() bool {
	_, err := os.Stat(filepath.Join(m.dir, ".git"))
	return err == nil
}

// stageFiles copies the live data files into the working tree.
func (m *Manager) stageFiles() error {
	for name, source := range m.syncedFiles() {
		data, err := os.ReadFile(source)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to read %s: %w", source, err)
		}
		if err := os.WriteFile(filepath.Join(m.dir, name), data, 0644); err != nil {
			return fmt.Errorf("failed to stage %s: %w", name, err)
		}
	}
	return nil
}

func (m *Manager) metadataPath() string {
	return filepath.Join(m.dir, "metadata.toml")
}

func (m *Manager) writeMetadata() error {
	meta := Metadata{
		LastSync: time.Now(),
		Checksum: m.AliasChecksum(),
		Device:   deviceName(),
	}
	file, err := os.Create(m.metadataPath())
	if err != nil {
		return fmt.Errorf("failed to write sync metadata: %w", err)
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(meta)
}

func (m *Manager) readMetadata() (*Metadata, error) {
	var meta Metadata
	if _, err := toml.DecodeFile(m.metadataPath(), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// AliasChecksum returns the sha256 of the alias file, empty when the
// file does not exist.
func (m *Manager) AliasChecksum() string {
	data, err := os.ReadFile(m.cfg.Aliases.FilePath)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func deviceName() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".sync-*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
