// Package updater checks GitHub releases for newer shorty builds and
// can swap the running binary in place. Unix only.
package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/NeverVane/shorty/internal/config"
	"github.com/NeverVane/shorty/internal/logger"
)

const (
	defaultRepoOwner = "NeverVane"
	defaultRepoName  = "shorty"
	stampFileName    = "last_update_check"
)

// UpdateInfo describes an available release.
type UpdateInfo struct {
	Version     string    `json:"version"`
	DownloadURL string    `json:"download_url"`
	Checksum    string    `json:"checksum"`
	ReleaseDate time.Time `json:"release_date"`
	Changelog   string    `json:"changelog"`
	AssetName   string    `json:"asset_name"`
	AssetSize   int64     `json:"asset_size"`
	PreRelease  bool      `json:"pre_release"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
}

type githubRelease struct {
	TagName     string        `json:"tag_name"`
	Name        string        `json:"name"`
	Body        string        `json:"body"`
	Draft       bool          `json:"draft"`
	Prerelease  bool          `json:"prerelease"`
	PublishedAt time.Time     `json:"published_at"`
	Assets      []githubAsset `json:"assets"`
}

// Updater checks for and applies new releases.
type Updater struct {
	cfg            *config.Config
	logger         *logger.Logger
	currentVersion string
	httpClient     *http.Client
	repoOwner      string
	repoName       string
	apiBaseURL     string
}

// Options tune the updater; zero values pick sensible defaults.
type Options struct {
	RepoOwner  string
	RepoName   string
	Timeout    time.Duration
	APIBaseURL string
}

// New creates an updater for the given installed version.
func New(cfg *config.Config, currentVersion string, opts Options) *Updater {
	if opts.RepoOwner == "" {
		opts.RepoOwner = defaultRepoOwner
	}
	if opts.RepoName == "" {
		opts.RepoName = defaultRepoName
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = "https://api.github.com"
	}

	return &Updater{
		cfg:            cfg,
		logger:         logger.GetLogger().WithComponent("updater"),
		currentVersion: currentVersion,
		httpClient:     &http.Client{Timeout: opts.Timeout},
		repoOwner:      opts.RepoOwner,
		repoName:       opts.RepoName,
		apiBaseURL:     opts.APIBaseURL,
	}
}

// CheckDue reports whether enough time has passed since the last check.
// A missing or unreadable stamp means a check is due.
func (u *Updater) CheckDue() bool {
	if !u.cfg.Update.Enabled {
		return false
	}
	data, err := os.ReadFile(u.stampPath())
	if err != nil {
		return true
	}
	last, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return true
	}
	return time.Since(last) >= u.cfg.UpdateCheckInterval()
}

// RecordCheck stamps the time of the last update check.
func (u *Updater) RecordCheck() {
	if err := os.WriteFile(u.stampPath(), []byte(time.Now().Format(time.RFC3339)), 0644); err != nil {
		u.logger.Warn().Err(err).Msg("Failed to record update check time")
	}
}

func (u *Updater) stampPath() string {
	return filepath.Join(u.cfg.DataDir, stampFileName)
}

// CheckForUpdate returns the latest release if it is newer than the
// running version, or nil when up to date.
func (u *Updater) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	u.logger.Debug().Str("current", u.currentVersion).Msg("Checking for updates")

	release, err := u.getLatestRelease(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release: %w", err)
	}

	currentVer, err := semver.NewVersion(strings.TrimPrefix(u.currentVersion, "v"))
	if err != nil {
		return nil, fmt.Errorf("invalid current version %q: %w", u.currentVersion, err)
	}
	latestVer, err := semver.NewVersion(strings.TrimPrefix(release.TagName, "v"))
	if err != nil {
		return nil, fmt.Errorf("invalid release tag %q: %w", release.TagName, err)
	}

	if !latestVer.GreaterThan(currentVer) {
		u.logger.Debug().
			Str("current", currentVer.String()).
			Str("latest", latestVer.String()).
			Msg("No update available")
		return nil, nil
	}

	asset, err := findAssetForPlatform(release)
	if err != nil {
		return nil, err
	}

	info := &UpdateInfo{
		Version:     latestVer.String(),
		DownloadURL: asset.BrowserDownloadURL,
		ReleaseDate: release.PublishedAt,
		Changelog:   release.Body,
		AssetName:   asset.Name,
		AssetSize:   asset.Size,
		PreRelease:  release.Prerelease,
	}

	if checksum, err := u.getAssetChecksum(ctx, release, asset.Name); err != nil {
		u.logger.Warn().Err(err).Msg("Could not retrieve checksum")
	} else {
		info.Checksum = checksum
	}

	u.logger.Info().
		Str("current", currentVer.String()).
		Str("latest", latestVer.String()).
		Msg("Update available")
	return info, nil
}

// Update downloads the release asset and replaces the running binary.
func (u *Updater) Update(ctx context.Context, info *UpdateInfo) error {
	u.logger.Info().
		Str("version", info.Version).
		Str("asset", info.AssetName).
		Msg("Starting update")

	tempDir, err := os.MkdirTemp("", "shorty-update-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	downloadPath := filepath.Join(tempDir, info.AssetName)
	if err := u.downloadBinary(ctx, info.DownloadURL, downloadPath); err != nil {
		return fmt.Errorf("failed to download binary: %w", err)
	}

	if info.Checksum != "" {
		if err := verifyChecksum(downloadPath, info.Checksum); err != nil {
			return fmt.Errorf("checksum verification failed: %w", err)
		}
	}

	if err := u.replaceExecutable(downloadPath); err != nil {
		return fmt.Errorf("failed to replace executable: %w", err)
	}

	u.logger.Info().Str("version", info.Version).Msg("Update completed")
	return nil
}

// CurrentVersion returns the installed version string.
func (u *Updater) CurrentVersion() string {
	return u.currentVersion
}

func (u *Updater) getLatestRelease(ctx context.Context) (*githubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", u.apiBaseURL, u.repoOwner, u.repoName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &release, nil
}

func findAssetForPlatform(release *githubRelease) (*githubAsset, error) {
	platform := runtime.GOOS
	arch := runtime.GOARCH
	for i := range release.Assets {
		if matchesPlatform(release.Assets[i].Name, platform, arch) {
			return &release.Assets[i], nil
		}
	}
	return nil, fmt.Errorf("no release asset found for %s/%s", platform, arch)
}

func matchesPlatform(assetName, platform, arch string) bool {
	name := strings.ToLower(assetName)
	if !strings.Contains(name, arch) {
		return false
	}
	if strings.Contains(name, platform) {
		return true
	}
	if platform == "darwin" && (strings.Contains(name, "macos") || strings.Contains(name, "osx")) {
		return true
	}
	return false
}

func (u *Updater) getAssetChecksum(ctx context.Context, release *githubRelease, assetName string) (string, error) {
	checksumFiles := []string{
		"checksums.txt", "checksums.sha256", "SHA256SUMS",
		assetName + ".sha256", assetName + ".checksum",
	}

	for _, checksumFile := range checksumFiles {
		for _, asset := range release.Assets {
			if strings.EqualFold(asset.Name, checksumFile) {
				return u.downloadChecksum(ctx, asset.BrowserDownloadURL, assetName)
			}
		}
	}
	return "", fmt.Errorf("no checksum file found")
}

func (u *Updater) downloadChecksum(ctx context.Context, url, assetName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(string(body), "\n") {
		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) < 2 {
			continue
		}
		hash := parts[0]
		filename := strings.TrimPrefix(strings.TrimPrefix(parts[1], "./"), "*")
		if strings.Contains(filename, assetName) || strings.Contains(assetName, filename) {
			return hash, nil
		}
	}
	return "", fmt.Errorf("checksum not found for asset %s", assetName)
}

func (u *Updater) downloadBinary(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return os.Chmod(destPath, 0755)
}

func verifyChecksum(filePath, expected string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return err
	}
	actual := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}

// replaceExecutable swaps the running binary via copy-aside backup and
// an atomic rename, avoiding "text file busy".
func (u *Updater) replaceExecutable(newBinaryPath string) error {
	currentExe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get current executable path: %w", err)
	}

	backupPath := currentExe + ".backup"
	if err := copyFile(currentExe, backupPath); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	defer func() {
		if err := os.Remove(backupPath); err != nil {
			u.logger.Warn().Err(err).Msg("Failed to remove backup file")
		}
	}()

	if err := atomicReplaceFile(newBinaryPath, currentExe); err != nil {
		if restoreErr := copyFile(backupPath, currentExe); restoreErr != nil {
			u.logger.Error().Err(restoreErr).Msg("Failed to restore backup after update failure")
		}
		return err
	}
	return nil
}

func atomicReplaceFile(src, dst string) error {
	dstInfo, err := os.Stat(dst)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat destination file: %w", err)
	}

	// Same directory as the destination so rename stays on one filesystem
	tempFile, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		tempFile.Close()
		os.Remove(tempPath)
	}()

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	if _, err := io.Copy(tempFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	perm := os.FileMode(0755)
	if dstInfo != nil {
		perm = dstInfo.Mode()
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, dst); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode())
}
