package category

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileSeedsDefaults(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "categories.toml"))

	set, err := m.Load()
	require.NoError(t, err)
	assert.Contains(t, set.Names(), "git")
	assert.Contains(t, set.Names(), "docker")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "categories.toml"))

	set := NewSet()
	require.NoError(t, set.Add("infra", Category{Description: "Infrastructure", Color: "#FFAA00"}))
	require.NoError(t, set.Add("kubernetes", Category{Parent: "infra", Icon: "k8s"}))
	require.NoError(t, m.Save(set))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())

	k8s, ok := loaded.Get("kubernetes")
	require.True(t, ok)
	assert.Equal(t, "infra", k8s.Parent)
	assert.Equal(t, "k8s", k8s.Icon)
}

func TestAdd(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add("Version Control", Category{}))
	_, ok := set.Get("version-control")
	assert.True(t, ok)

	assert.ErrorIs(t, set.Add("version-control", Category{}), ErrExists)
	assert.Error(t, set.Add("", Category{}))
	assert.ErrorIs(t, set.Add("child", Category{Parent: "missing"}), ErrNotFound)
}

func TestUpdate(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add("git", Category{Description: "old", Color: "#111111"}))

	require.NoError(t, set.Update("git", "new description", "", "icon"))
	c, _ := set.Get("git")
	assert.Equal(t, "new description", c.Description)
	assert.Equal(t, "#111111", c.Color) // empty keeps
	assert.Equal(t, "icon", c.Icon)

	assert.ErrorIs(t, set.Update("missing", "x", "", ""), ErrNotFound)
}

func TestMoveAndCycleRejection(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add("a", Category{}))
	require.NoError(t, set.Add("b", Category{Parent: "a"}))
	require.NoError(t, set.Add("c", Category{Parent: "b"}))

	// a -> b would close the loop a > b > a
	err := set.Move("a", "b")
	assert.Error(t, err)
	// likewise through a grandchild
	err = set.Move("a", "c")
	assert.Error(t, err)
	// self-parenting
	assert.Error(t, set.Move("a", "a"))

	// legal: flatten c to root
	require.NoError(t, set.Move("c", ""))
	c, _ := set.Get("c")
	assert.Empty(t, c.Parent)

	// legal: move c under a
	require.NoError(t, set.Move("c", "a"))
	assert.Equal(t, []string{"a"}, set.Ancestors("c"))
}

func TestAncestors(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add("root", Category{}))
	require.NoError(t, set.Add("mid", Category{Parent: "root"}))
	require.NoError(t, set.Add("leaf", Category{Parent: "mid"}))

	assert.Equal(t, []string{"mid", "root"}, set.Ancestors("leaf"))
	assert.Empty(t, set.Ancestors("root"))
	assert.Empty(t, set.Ancestors("missing"))
}

func TestDeleteWithoutForce(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add("parent", Category{}))
	require.NoError(t, set.Add("child", Category{Parent: "parent"}))

	assert.Error(t, set.Delete("parent", false))
	_, ok := set.Get("parent")
	assert.True(t, ok)

	require.NoError(t, set.Delete("child", false))
	require.NoError(t, set.Delete("parent", false))
	assert.Equal(t, 0, set.Len())

	assert.ErrorIs(t, set.Delete("gone", false), ErrNotFound)
}

func TestForceDeleteReparentsChildren(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add("root", Category{}))
	require.NoError(t, set.Add("mid", Category{Parent: "root"}))
	require.NoError(t, set.Add("leaf1", Category{Parent: "mid"}))
	require.NoError(t, set.Add("leaf2", Category{Parent: "mid"}))

	require.NoError(t, set.Delete("mid", true))

	// Children climb to the deleted node's parent, not to the root set
	for _, name := range []string{"leaf1", "leaf2"} {
		c, ok := set.Get(name)
		require.True(t, ok)
		assert.Equal(t, "root", c.Parent)
	}
}

func TestForceDeleteRootReparentsToTopLevel(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add("root", Category{}))
	require.NoError(t, set.Add("child", Category{Parent: "root"}))

	require.NoError(t, set.Delete("root", true))
	c, ok := set.Get("child")
	require.True(t, ok)
	assert.Empty(t, c.Parent)
}

func TestTree(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add("b-root", Category{}))
	require.NoError(t, set.Add("a-root", Category{}))
	require.NoError(t, set.Add("child", Category{Parent: "b-root"}))

	tree := set.Tree()
	require.Len(t, tree, 3)
	assert.Equal(t, "a-root", tree[0].Name)
	assert.Equal(t, 0, tree[0].Depth)
	assert.Equal(t, "b-root", tree[1].Name)
	assert.Equal(t, "child", tree[2].Name)
	assert.Equal(t, 1, tree[2].Depth)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "version-control", NormalizeName("  Version   Control "))
	assert.Equal(t, "git", NormalizeName("GIT"))
}
