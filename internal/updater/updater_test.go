package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/shorty/internal/config"
	"github.com/NeverVane/shorty/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init(logger.DefaultConfig())
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OverrideDataDir(t.TempDir())
	return cfg
}

// releaseServer serves a fake latest release with assets covering the
// platforms the tests can run on, plus a checksum file.
func releaseServer(t *testing.T, tag string) *httptest.Server {
	t.Helper()
	binary := []byte("fake binary content for testing")
	hash := sha256.Sum256(binary)
	checksum := hex.EncodeToString(hash[:])

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/repos/NeverVane/shorty/releases/latest":
			assetName := fmt.Sprintf("shorty-%s-%s", runtime.GOOS, runtime.GOARCH)
			release := githubRelease{
				TagName:     tag,
				Name:        "shorty " + tag,
				Body:        "Bug fixes and improvements",
				PublishedAt: time.Now().Add(-24 * time.Hour),
				Assets: []githubAsset{
					{
						Name:               assetName,
						BrowserDownloadURL: server.URL + "/download/" + assetName,
						Size:               int64(len(binary)),
						ContentType:        "application/octet-stream",
					},
					{
						Name:               "checksums.txt",
						BrowserDownloadURL: server.URL + "/download/checksums.txt",
						Size:               512,
						ContentType:        "text/plain",
					},
				},
			}
			json.NewEncoder(w).Encode(release)

		case r.URL.Path == "/download/checksums.txt":
			fmt.Fprintf(w, "%s  shorty-%s-%s\n", checksum, runtime.GOOS, runtime.GOARCH)

		case len(r.URL.Path) > len("/download/") && r.URL.Path[:len("/download/")] == "/download/":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(binary)

		default:
			http.NotFound(w, r)
		}
	}))
	return server
}

func TestCheckForUpdate(t *testing.T) {
	server := releaseServer(t, "v1.1.0")
	defer server.Close()

	t.Run("update available", func(t *testing.T) {
		u := New(testConfig(t), "1.0.0", Options{APIBaseURL: server.URL})
		info, err := u.CheckForUpdate(context.Background())
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, "1.1.0", info.Version)
		assert.False(t, info.PreRelease)
		assert.Contains(t, info.Changelog, "Bug fixes")
		assert.NotEmpty(t, info.Checksum)
	})

	t.Run("already current", func(t *testing.T) {
		u := New(testConfig(t), "1.1.0", Options{APIBaseURL: server.URL})
		info, err := u.CheckForUpdate(context.Background())
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("newer than release", func(t *testing.T) {
		u := New(testConfig(t), "2.0.0", Options{APIBaseURL: server.URL})
		info, err := u.CheckForUpdate(context.Background())
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("v prefix tolerated", func(t *testing.T) {
		u := New(testConfig(t), "v1.0.0", Options{APIBaseURL: server.URL})
		info, err := u.CheckForUpdate(context.Background())
		require.NoError(t, err)
		require.NotNil(t, info)
	})

	t.Run("invalid current version", func(t *testing.T) {
		u := New(testConfig(t), "not-a-version", Options{APIBaseURL: server.URL})
		_, err := u.CheckForUpdate(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid current version")
	})
}

func TestCheckForUpdateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer server.Close()

	u := New(testConfig(t), "1.0.0", Options{APIBaseURL: server.URL})
	_, err := u.CheckForUpdate(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestCheckDueAndRecord(t *testing.T) {
	cfg := testConfig(t)
	u := New(cfg, "1.0.0", Options{})

	// No stamp yet
	assert.True(t, u.CheckDue())

	u.RecordCheck()
	assert.False(t, u.CheckDue())

	// Old stamp
	old := time.Now().Add(-48 * time.Hour).Format(time.RFC3339)
	require.NoError(t, os.WriteFile(u.stampPath(), []byte(old), 0644))
	assert.True(t, u.CheckDue())

	// Garbage stamp counts as due
	require.NoError(t, os.WriteFile(u.stampPath(), []byte("not a time"), 0644))
	assert.True(t, u.CheckDue())

	// Checks disabled entirely
	cfg.Update.Enabled = false
	assert.False(t, u.CheckDue())
}

func TestMatchesPlatform(t *testing.T) {
	tests := []struct {
		name      string
		assetName string
		platform  string
		arch      string
		expected  bool
	}{
		{"linux amd64", "shorty-linux-amd64", "linux", "amd64", true},
		{"darwin arm64", "shorty-darwin-arm64", "darwin", "arm64", true},
		{"macos alias", "shorty-macos-amd64", "darwin", "amd64", true},
		{"platform mismatch", "shorty-linux-amd64", "darwin", "amd64", false},
		{"arch mismatch", "shorty-linux-arm64", "linux", "amd64", false},
		{"unrelated file", "README.md", "linux", "amd64", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matchesPlatform(tt.assetName, tt.platform, tt.arch))
		})
	}
}

func TestFindAssetForPlatform(t *testing.T) {
	release := &githubRelease{
		Assets: []githubAsset{
			{Name: fmt.Sprintf("shorty-%s-%s", runtime.GOOS, runtime.GOARCH)},
			{Name: "checksums.txt"},
		},
	}

	asset, err := findAssetForPlatform(release)
	require.NoError(t, err)
	assert.Contains(t, asset.Name, runtime.GOOS)

	_, err = findAssetForPlatform(&githubRelease{
		Assets: []githubAsset{{Name: "shorty-plan9-mips"}},
	})
	assert.Error(t, err)
}

func TestVerifyChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binary")
	content := []byte("checksum me")
	require.NoError(t, os.WriteFile(path, content, 0644))

	hash := sha256.Sum256(content)
	good := hex.EncodeToString(hash[:])

	assert.NoError(t, verifyChecksum(path, good))

	err := verifyChecksum(path, "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")

	assert.Error(t, verifyChecksum(filepath.Join(dir, "missing"), good))
}

func TestDownloadBinary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake binary"))
	}))
	defer server.Close()

	u := New(testConfig(t), "1.0.0", Options{})
	destPath := filepath.Join(t.TempDir(), "shorty")

	require.NoError(t, u.downloadBinary(context.Background(), server.URL, destPath))

	content, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake binary"), content)

	info, err := os.Stat(destPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111)
}

func TestCopyFilePreservesPermissions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0755))

	require.NoError(t, copyFile(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), content)

	srcInfo, _ := os.Stat(src)
	dstInfo, _ := os.Stat(dst)
	assert.Equal(t, srcInfo.Mode(), dstInfo.Mode())

	assert.Error(t, copyFile(filepath.Join(dir, "missing"), dst))
}

func TestAtomicReplaceFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "new")
	dst := filepath.Join(dir, "current")
	require.NoError(t, os.WriteFile(src, []byte("new version"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("old version"), 0755))

	require.NoError(t, atomicReplaceFile(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("new version"), content)

	// Destination permissions are kept
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
