package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/shorty/internal/alias"
	"github.com/NeverVane/shorty/internal/category"
	"github.com/NeverVane/shorty/internal/config"
	"github.com/NeverVane/shorty/internal/logger"
	"github.com/NeverVane/shorty/internal/store"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.DefaultConfig()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OverrideDataDir(t.TempDir())
	require.NoError(t, cfg.EnsureDirectories())
	return cfg
}

func seedAliases(t *testing.T, cfg *config.Config, aliases ...*alias.Alias) {
	t.Helper()
	col := store.NewCollection()
	for _, a := range aliases {
		require.NoError(t, col.Add(a, store.Reject, false))
	}
	require.NoError(t, store.New(cfg.Aliases.FilePath).Save(col))
}

func mustAlias(t *testing.T, name, command string, tags ...string) *alias.Alias {
	t.Helper()
	a, err := alias.New(name, command, "", tags)
	require.NoError(t, err)
	return a
}

func backupCount(t *testing.T, cfg *config.Config) int {
	t.Helper()
	entries, err := os.ReadDir(cfg.BackupDir())
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

func loadCollection(t *testing.T, cfg *config.Config) *store.Collection {
	t.Helper()
	col, warnings, err := store.New(cfg.Aliases.FilePath).Load()
	require.NoError(t, err)
	require.Empty(t, warnings)
	return col
}

func TestEditSnapshotsBeforeChanging(t *testing.T) {
	cfg := testConfig(t)
	seedAliases(t, cfg, mustAlias(t, "gs", "git status"))
	require.Equal(t, 0, backupCount(t, cfg))

	cmd := editCmd(cfg)
	cmd.SetArgs([]string{"gs", "--command", "git status -sb"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, 1, backupCount(t, cfg))
	a, ok := loadCollection(t, cfg).Get("gs")
	require.True(t, ok)
	assert.Equal(t, "git status -sb", a.Command)
}

func TestEditRenameSnapshotsBeforeChanging(t *testing.T) {
	cfg := testConfig(t)
	seedAliases(t, cfg, mustAlias(t, "gs", "git status"))

	cmd := editCmd(cfg)
	cmd.SetArgs([]string{"gs", "--rename", "gst"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, 1, backupCount(t, cfg))
	_, ok := loadCollection(t, cfg).Get("gst")
	assert.True(t, ok)
}

func TestEditSkipsBackupWhenDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backup.AutoBackup = false
	seedAliases(t, cfg, mustAlias(t, "gs", "git status"))

	cmd := editCmd(cfg)
	cmd.SetArgs([]string{"gs", "--note", "short status"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, 0, backupCount(t, cfg))
}

func TestCategoryAssignSnapshotsBeforeChanging(t *testing.T) {
	cfg := testConfig(t)
	seedAliases(t, cfg, mustAlias(t, "gs", "git status"))

	set := category.NewSet()
	require.NoError(t, set.Add("git", category.Category{}))
	require.NoError(t, category.NewManager(cfg.CategoriesPath()).Save(set))

	cmd := categoryCmd(cfg)
	cmd.SetArgs([]string{"assign", "gs", "git"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, 1, backupCount(t, cfg))
	a, ok := loadCollection(t, cfg).Get("gs")
	require.True(t, ok)
	assert.Equal(t, "git", a.Category)
}

func TestCategoryDeleteRefusesWithMemberAliases(t *testing.T) {
	cfg := testConfig(t)
	seedAliases(t, cfg,
		mustAlias(t, "gs", "git status", "category:git"),
		mustAlias(t, "gp", "git push", "category:git"),
	)

	m := category.NewManager(cfg.CategoriesPath())
	set := category.NewSet()
	require.NoError(t, set.Add("git", category.Category{}))
	require.NoError(t, m.Save(set))

	cmd := categoryCmd(cfg)
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{"delete", "git"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains 2 alias(es)")

	set, err = m.Load()
	require.NoError(t, err)
	_, ok := set.Get("git")
	assert.True(t, ok, "refused delete must leave the category defined")
}

func TestCategoryDeleteForcedWithMemberAliases(t *testing.T) {
	cfg := testConfig(t)
	seedAliases(t, cfg, mustAlias(t, "gs", "git status", "category:git"))

	m := category.NewManager(cfg.CategoriesPath())
	set := category.NewSet()
	require.NoError(t, set.Add("git", category.Category{}))
	require.NoError(t, m.Save(set))

	cmd := categoryCmd(cfg)
	cmd.SetArgs([]string{"delete", "git", "--force"})
	require.NoError(t, cmd.Execute())

	set, err := m.Load()
	require.NoError(t, err)
	_, ok := set.Get("git")
	assert.False(t, ok)
}

func TestCategoryDeleteEmptyWithoutForce(t *testing.T) {
	cfg := testConfig(t)
	seedAliases(t, cfg, mustAlias(t, "gs", "git status"))

	m := category.NewManager(cfg.CategoriesPath())
	set := category.NewSet()
	require.NoError(t, set.Add("scratch", category.Category{}))
	require.NoError(t, m.Save(set))

	cmd := categoryCmd(cfg)
	cmd.SetArgs([]string{"delete", "scratch"})
	require.NoError(t, cmd.Execute())

	set, err := m.Load()
	require.NoError(t, err)
	_, ok := set.Get("scratch")
	assert.False(t, ok)
}
