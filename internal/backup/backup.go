// Package backup manages timestamped snapshots of the alias file.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NeverVane/shorty/internal/logger"
)

const (
	snapshotPrefix = "aliases_"
	snapshotSuffix = ".bak"
	timeLayout     = "20060102-150405"
)

// Snapshot describes one backup of the alias file.
type Snapshot struct {
	// ID is the unique suffix embedded in the file name. It keeps two
	// snapshots taken within the same second apart.
	ID        string
	Name      string
	Path      string
	Label     string
	CreatedAt time.Time
	Size      int64
}

// Manager creates, lists, restores and expires snapshots.
type Manager struct {
	sourcePath string
	dir        string
	clock      func() time.Time
	logger     *logger.Logger
}

// NewManager returns a manager snapshotting sourcePath into dir.
func NewManager(sourcePath, dir string) *Manager {
	return &Manager{
		sourcePath: sourcePath,
		dir:        dir,
		clock:      time.Now,
		logger:     logger.GetLogger().Backup(),
	}
}

// WithClock replaces the time source. Used by tests and callers that
// need deterministic snapshot names.
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	m.clock = clock
	return m
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

var labelSanitizer = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// Create takes a snapshot of the alias file. The optional label becomes
// part of the file name. The copy is verbatim.
func (m *Manager) Create(label string) (*Snapshot, error) {
	data, err := os.ReadFile(m.sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file for backup: %w", err)
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	now := m.clock()
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	name := snapshotPrefix + now.Format(timeLayout)
	if label != "" {
		label = strings.Trim(labelSanitizer.ReplaceAllString(label, "-"), "-")
		if label != "" {
			name += "_" + label
		}
	}
	name += "_" + id + snapshotSuffix

	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write backup %s: %w", name, err)
	}

	snap := &Snapshot{
		ID:        id,
		Name:      name,
		Path:      path,
		Label:     label,
		CreatedAt: now,
		Size:      int64(len(data)),
	}
	m.logger.Info().Str("backup", name).Int64("bytes", snap.Size).Msg("backup created")
	return snap, nil
}

// Auto takes a pre-destruction snapshot. A missing alias file is not an
// error (there is nothing to protect yet); any other failure is, and
// callers must abort their destructive operation on it.
func (m *Manager) Auto() (*Snapshot, error) {
	if _, err := os.Stat(m.sourcePath); os.IsNotExist(err) {
		return nil, nil
	}
	return m.Create("auto")
}

// List returns all snapshots, newest first.
func (m *Manager) List() ([]*Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var snaps []*Snapshot
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		snap, ok := parseSnapshotName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		snap.Path = filepath.Join(m.dir, e.Name())
		snap.Size = info.Size()
		snaps = append(snaps, snap)
	}

	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
		}
		return snaps[i].Name > snaps[j].Name
	})
	return snaps, nil
}

// Find resolves a snapshot by file name or ID.
func (m *Manager) Find(ref string) (*Snapshot, error) {
	snaps, err := m.List()
	if err != nil {
		return nil, err
	}
	for _, s := range snaps {
		if s.Name == ref || s.ID == ref {
			return s, nil
		}
	}
	return nil, fmt.Errorf("backup %q not found", ref)
}

// Restore replaces the alias file with the given snapshot. The current
// file is snapshotted first (label "pre-restore") so a restore is
// itself reversible. The replacement is atomic.
func (m *Manager) Restore(ref string) (*Snapshot, error) {
	snap, err := m.Find(ref)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(m.sourcePath); err == nil {
		if _, err := m.Create("pre-restore"); err != nil {
			return nil, fmt.Errorf("refusing to restore, safety backup failed: %w", err)
		}
	}

	data, err := os.ReadFile(snap.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup %s: %w", snap.Name, err)
	}

	dir := filepath.Dir(m.sourcePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create alias directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".restore-*")
	if err != nil {
		return nil, fmt.Errorf("failed to stage restore: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to stage restore: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to flush restore: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to stage restore: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return nil, fmt.Errorf("failed to set alias file permissions: %w", err)
	}
	if err := os.Rename(tmpName, m.sourcePath); err != nil {
		return nil, fmt.Errorf("failed to replace alias file: %w", err)
	}

	m.logger.Info().Str("backup", snap.Name).Msg("alias file restored")
	return snap, nil
}

// Clean removes snapshots older than the given age. The single newest
// snapshot is always kept, whatever its age, so one recovery point
// survives every clean.
func (m *Manager) Clean(olderThan time.Duration) ([]*Snapshot, error) {
	snaps, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(snaps) <= 1 {
		return nil, nil
	}

	cutoff := m.clock().Add(-olderThan)
	var removed []*Snapshot
	for _, s := range snaps[1:] { // snaps[0] is the newest
		if s.CreatedAt.Before(cutoff) {
			if err := os.Remove(s.Path); err != nil {
				return removed, fmt.Errorf("failed to remove backup %s: %w", s.Name, err)
			}
			removed = append(removed, s)
		}
	}
	if len(removed) > 0 {
		m.logger.Info().Int("removed", len(removed)).Msg("old backups cleaned")
	}
	return removed, nil
}

// Prune keeps only the newest max snapshots.
func (m *Manager) Prune(max int) ([]*Snapshot, error) {
	if max < 1 {
		max = 1
	}
	snaps, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(snaps) <= max {
		return nil, nil
	}

	var removed []*Snapshot
	for _, s := range snaps[max:] {
		if err := os.Remove(s.Path); err != nil {
			return removed, fmt.Errorf("failed to remove backup %s: %w", s.Name, err)
		}
		removed = append(removed, s)
	}
	return removed, nil
}

// parseSnapshotName decodes aliases_<ts>[_<label>]_<id>.bak.
func parseSnapshotName(name string) (*Snapshot, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
		return nil, false
	}
	core := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
	parts := strings.Split(core, "_")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, false
	}
	created, err := time.ParseInLocation(timeLayout, parts[0], time.Local)
	if err != nil {
		return nil, false
	}
	snap := &Snapshot{
		Name:      name,
		CreatedAt: created,
		ID:        parts[len(parts)-1],
	}
	if len(parts) == 3 {
		snap.Label = parts[1]
	}
	return snap, true
}
