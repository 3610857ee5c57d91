package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/shorty/internal/alias"
	"github.com/NeverVane/shorty/internal/config"
)

// fakeRunner records git invocations and plays back canned output.
type fakeRunner struct {
	calls   []string
	outputs map[string]string
	errors  map[string]error
	dir     string
}

func (f *fakeRunner) Run(_ context.Context, dir string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	f.dir = dir

	// `git init` must leave a .git dir behind for initialized()
	if args[0] == "init" {
		if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
			return "", err
		}
	}
	if err, ok := f.errors[key]; ok {
		return "", err
	}
	return f.outputs[key], nil
}

func newTestManager(t *testing.T) (*Manager, *fakeRunner, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OverrideDataDir(t.TempDir())
	require.NoError(t, os.WriteFile(cfg.Aliases.FilePath, []byte("alias gs='git status'\n"), 0644))

	runner := &fakeRunner{outputs: make(map[string]string), errors: make(map[string]error)}
	m := NewManager(cfg).WithRunner(runner)
	return m, runner, cfg
}

func TestInit(t *testing.T) {
	m, runner, cfg := newTestManager(t)

	require.NoError(t, m.Init(context.Background()))

	assert.Equal(t, []string{
		"init -b main",
		"add -A",
		"commit -m Initial shorty sync",
	}, runner.calls)

	// Alias file staged into the working tree
	data, err := os.ReadFile(filepath.Join(cfg.SyncDir(), "aliases"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "alias gs=")

	// Metadata written with a checksum
	meta, err := m.readMetadata()
	require.NoError(t, err)
	assert.NotEmpty(t, meta.Checksum)
	assert.Equal(t, m.AliasChecksum(), meta.Checksum)

	// Double init refused
	assert.Error(t, m.Init(context.Background()))
}

func TestOpsRequireInit(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	assert.Error(t, m.Push(ctx))
	assert.Error(t, m.Pull(ctx))
	assert.Error(t, m.SetRemote(ctx, "git@host:me/aliases.git"))

	st, err := m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.Initialized)
}

func TestPushCommitsOnlyWhenDirty(t *testing.T) {
	m, runner, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Init(ctx))
	runner.calls = nil

	// Clean tree: no commit, still pushes
	require.NoError(t, m.Push(ctx))
	joined := strings.Join(runner.calls, "\n")
	assert.NotContains(t, joined, "commit")
	assert.Contains(t, joined, "push -u origin main")

	// Dirty tree: commit happens
	runner.calls = nil
	runner.outputs["status --porcelain"] = " M aliases\n"
	require.NoError(t, m.Push(ctx))
	joined = strings.Join(runner.calls, "\n")
	assert.Contains(t, joined, "commit -m Sync aliases from")
}

func TestPullCopiesFilesBack(t *testing.T) {
	m, _, cfg := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Init(ctx))

	// Simulate a pulled change in the working tree
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SyncDir(), "aliases"), []byte("alias gp='git push'\n"), 0644))

	require.NoError(t, m.Pull(ctx))

	data, err := os.ReadFile(cfg.Aliases.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "alias gp='git push'\n", string(data))
}

func TestPullFailurePropagates(t *testing.T) {
	m, runner, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Init(ctx))
	runner.errors["pull origin main"] = fmt.Errorf("remote unreachable")

	assert.Error(t, m.Pull(ctx))
}

func TestSetRemote(t *testing.T) {
	m, runner, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Init(ctx))

	// No remote yet: get-url fails, add runs
	runner.errors["remote get-url origin"] = fmt.Errorf("no such remote")
	require.NoError(t, m.SetRemote(ctx, "git@host:me/aliases.git"))
	assert.Contains(t, runner.calls, "remote add origin git@host:me/aliases.git")

	// Existing remote: set-url runs
	delete(runner.errors, "remote get-url origin")
	require.NoError(t, m.SetRemote(ctx, "git@host:me/other.git"))
	assert.Contains(t, runner.calls, "remote set-url origin git@host:me/other.git")
}

func TestStatus(t *testing.T) {
	m, runner, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Init(ctx))

	runner.outputs["remote get-url origin"] = "git@host:me/aliases.git\n"
	runner.outputs["status --porcelain"] = " M aliases\n"

	st, err := m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Initialized)
	assert.True(t, st.Dirty)
	assert.Equal(t, "git@host:me/aliases.git", st.Remote)
	assert.Equal(t, "main", st.Branch)
	require.NotNil(t, st.Metadata)
	assert.NotEmpty(t, st.Metadata.Checksum)
}

func TestReset(t *testing.T) {
	m, _, cfg := newTestManager(t)
	require.NoError(t, m.Init(context.Background()))

	require.NoError(t, m.Reset())
	_, err := os.Stat(cfg.SyncDir())
	assert.True(t, os.IsNotExist(err))

	// Reset of an uninitialized repo is a no-op
	assert.NoError(t, m.Reset())
}

func TestAliasChecksum(t *testing.T) {
	m, _, cfg := newTestManager(t)

	sum := m.AliasChecksum()
	assert.Len(t, sum, 64)

	require.NoError(t, os.WriteFile(cfg.Aliases.FilePath, []byte("changed\n"), 0644))
	assert.NotEqual(t, sum, m.AliasChecksum())

	require.NoError(t, os.Remove(cfg.Aliases.FilePath))
	assert.Empty(t, m.AliasChecksum())
}

func TestShareToFile(t *testing.T) {
	a, err := alias.New("gs", "git status", "quick status", []string{"git"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "share.sh")
	require.NoError(t, ShareToFile(a, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "alias gs='git status' # quick status #tags:git")
}
