// Package distro fetches, verifies, unpacks, and atomically installs
// tool distribution archives into the image tree, and extracts the
// npm version bundled with a Node release.
package distro

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/terassyi/jsvm/internal/checksum"
	jsvmerrors "github.com/terassyi/jsvm/internal/errors"
	"github.com/terassyi/jsvm/internal/extract"
	"github.com/terassyi/jsvm/internal/hooks"
	"github.com/terassyi/jsvm/internal/layout"
	"github.com/terassyi/jsvm/internal/ui"
)

// Installer fetches, verifies, and unpacks a single (tool, version)
// distribution archive into the image tree.
type Installer struct {
	Layout   *layout.Layout
	Hooks    *hooks.Config
	Client   *http.Client
	Progress *ui.ProgressManager
}

// NewInstaller builds an Installer with a default HTTP client.
func NewInstaller(l *layout.Layout, h *hooks.Config) *Installer {
	return &Installer{Layout: l, Hooks: h, Client: &http.Client{}}
}

// Install ensures tool@version is present in the image tree, fetching,
// verifying, and unpacking it if not already committed. Returns the
// image directory and, for node, the bundled npm version (empty for
// every other tool).
func (in *Installer) Install(ctx context.Context, tool, version string) (imageDir string, bundledNpm string, err error) {
	imageDir = in.Layout.ImageToolVersionDir(tool, version)
	// ImageToolVersionDir creates the directory, so only a non-empty
	// image directory counts as committed.
	if entries, _ := os.ReadDir(imageDir); len(entries) > 0 {
		if tool == "node" {
			bundledNpm, _ = in.readBundledNpm(imageDir)
		}
		return imageDir, bundledNpm, nil
	}

	lock, err := AcquireLock(in.Layout, tool)
	if err != nil {
		return "", "", jsvmerrors.Wrap(jsvmerrors.CodeLockAcquire, "failed to acquire install lock", err)
	}
	defer lock.Release()

	// Re-check after acquiring the lock: another process may have won
	// the race and already committed the image.
	if entries, _ := os.ReadDir(imageDir); len(entries) > 0 {
		if tool == "node" {
			bundledNpm, _ = in.readBundledNpm(imageDir)
		}
		return imageDir, bundledNpm, nil
	}

	archivePath, err := in.ensureArchive(ctx, tool, version)
	if err != nil {
		return "", "", err
	}

	unpackedRoot, err := in.unpack(tool, version, archivePath)
	if err != nil {
		return "", "", err
	}
	defer os.RemoveAll(filepath.Dir(unpackedRoot))

	if err := os.MkdirAll(filepath.Dir(imageDir), 0o755); err != nil {
		return "", "", jsvmerrors.Wrap(jsvmerrors.CodeCreateDir, "failed to create image parent directory", err)
	}
	if err := os.Rename(unpackedRoot, imageDir); err != nil {
		if !os.IsExist(err) {
			return "", "", jsvmerrors.Wrap(jsvmerrors.CodeSetupToolImage, "failed to commit unpacked image", err)
		}
	}

	if err := ensureExecutableBits(imageDir); err != nil {
		return "", "", jsvmerrors.Wrap(jsvmerrors.CodeExecutablePermission, "failed to set executable bits", err)
	}

	if tool == "node" {
		bundledNpm, err = in.recordBundledNpm(imageDir)
		if err != nil {
			return "", "", err
		}
	}

	return imageDir, bundledNpm, nil
}

// ensureArchive returns a verified local archive path for tool@version,
// reusing the inventory cache when its shasum sidecar matches, and
// otherwise downloading (with a single retry on shasum mismatch).
func (in *Installer) ensureArchive(ctx context.Context, tool, version string) (string, error) {
	url, err := in.fetchURL(tool, version)
	if err != nil {
		return "", err
	}
	ext := extensionForURL(url)
	archivePath := in.Layout.InventoryArchivePath(tool, version, ext)

	if ok, _ := checksum.VerifyShasum(archivePath); ok {
		return archivePath, nil
	}

	if err := in.download(ctx, url, archivePath, tool+"@"+version); err != nil {
		return "", err
	}
	if ok, _ := checksum.VerifyShasum(archivePath); ok {
		return archivePath, nil
	}

	// Discard and retry once via network.
	os.Remove(archivePath)
	os.Remove(checksum.ShasumSidecarPath(archivePath))
	if err := in.download(ctx, url, archivePath, tool+"@"+version); err != nil {
		return "", err
	}
	ok, err := checksum.VerifyShasum(archivePath)
	if err != nil {
		return "", jsvmerrors.Wrap(jsvmerrors.CodeDownloadToolNetwork, "failed to verify downloaded archive", err)
	}
	if !ok {
		return "", jsvmerrors.New(jsvmerrors.CodeDownloadToolNetwork, fmt.Sprintf("shasum mismatch for %s@%s after retry", tool, version))
	}
	return archivePath, nil
}

func (in *Installer) fetchURL(tool, version string) (string, error) {
	osName, arch := runtime.GOOS, runtime.GOARCH
	if in.Hooks != nil {
		if url, ok, err := in.Hooks.DistroURL(tool, version, osName, arch); err != nil {
			return "", jsvmerrors.Wrap(jsvmerrors.CodeInvalidHookCommand, "invalid distro hook template", err)
		} else if ok {
			return url, nil
		}
	}
	return defaultURLFunc(tool, version, osName, arch), nil
}

// defaultURLFunc is a variable indirection over defaultURL so tests can
// substitute a local server without touching real distribution hosts.
var defaultURLFunc = defaultURL

func (in *Installer) download(ctx context.Context, url, dest, label string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return jsvmerrors.Wrap(jsvmerrors.CodeCreateDir, "failed to create inventory directory", err)
	}
	if err := os.MkdirAll(in.Layout.TmpDir(), 0o755); err != nil {
		return jsvmerrors.Wrap(jsvmerrors.CodeCreateTempDir, "failed to create tmp directory", err)
	}

	client := in.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return jsvmerrors.Wrap(jsvmerrors.CodeDownloadToolNetwork, "failed to build download request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return jsvmerrors.Wrap(jsvmerrors.CodeDownloadToolNetwork, "failed to download "+url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return jsvmerrors.New(jsvmerrors.CodeDownloadToolNetwork, fmt.Sprintf("download %s returned status %d", url, resp.StatusCode))
	}

	tmp := filepath.Join(in.Layout.TmpDir(), ".jsvm-dl-"+uuid.NewString())
	out, err := os.Create(tmp)
	if err != nil {
		return jsvmerrors.Wrap(jsvmerrors.CodeCreateTempFile, "failed to create download temp file", err)
	}

	if in.Progress != nil {
		in.Progress.StartDownload(label, label)
	}

	var written int64
	reader := io.TeeReader(resp.Body, countingWriter{total: &written})
	_, copyErr := io.Copy(out, reader)
	out.Close()

	if in.Progress != nil {
		if copyErr != nil {
			in.Progress.Fail(label, copyErr)
		} else {
			in.Progress.SetProgress(label, written, resp.ContentLength)
			in.Progress.Complete(label)
		}
	}

	if copyErr != nil {
		os.Remove(tmp)
		return jsvmerrors.Wrap(jsvmerrors.CodeDownloadToolNetwork, "failed to write downloaded archive", copyErr)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return jsvmerrors.Wrap(jsvmerrors.CodeSetupToolImage, "failed to commit downloaded archive", err)
	}

	if _, err := checksum.WriteShasum(dest); err != nil {
		return jsvmerrors.Wrap(jsvmerrors.CodeWritePackageShasum, "failed to write archive shasum", err)
	}
	return nil
}

// countingWriter discards bytes but counts them, used to thread
// download progress through io.TeeReader.
type countingWriter struct{ total *int64 }

func (c countingWriter) Write(p []byte) (int, error) {
	*c.total += int64(len(p))
	return len(p), nil
}

func (in *Installer) unpack(tool, version, archivePath string) (string, error) {
	tmpRoot, err := os.MkdirTemp(in.Layout.TmpDir(), "jsvm-unpack-"+tool+"-"+version+"-")
	if err != nil {
		return "", jsvmerrors.Wrap(jsvmerrors.CodeCreateTempDir, "failed to create unpack scratch dir", err)
	}

	format := extract.DetectFormat(archivePath)
	extractor, err := extract.New(format)
	if err != nil {
		return "", jsvmerrors.Wrap(jsvmerrors.CodePackageUnpack, "unsupported archive format", err)
	}
	if err := extractor.Extract(archivePath, tmpRoot); err != nil {
		return "", jsvmerrors.Wrap(jsvmerrors.CodePackageUnpack, "failed to unpack archive", err)
	}

	if format == extract.FormatRaw {
		return tmpRoot, nil
	}

	soleDir, err := extract.SoleTopLevelDir(tmpRoot)
	if err != nil {
		return "", jsvmerrors.Wrap(jsvmerrors.CodePackageUnpack, "unpacked archive has unexpected layout", err)
	}
	return filepath.Join(tmpRoot, soleDir), nil
}

// nodePackageJSON is the subset of node's bundled npm/package.json
// consulted to discover the bundled npm version.
type nodePackageJSON struct {
	Version string `json:"version"`
}

func (in *Installer) recordBundledNpm(imageDir string) (string, error) {
	pkgPath := filepath.Join(imageDir, "lib", "node_modules", "npm", "package.json")
	data, err := os.ReadFile(pkgPath)
	if err != nil {
		// Some distributions nest under a bin-relative layout; absence of
		// a bundled npm is tolerated, not fatal.
		return "", nil
	}
	var pkg nodePackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", jsvmerrors.Wrap(jsvmerrors.CodeParseNpmManifest, "failed to parse bundled npm package.json", err)
	}
	if pkg.Version == "" {
		return "", nil
	}

	sidecar := in.Layout.BundledNpmVersionFile(filepath.Base(imageDir))
	if err := os.MkdirAll(filepath.Dir(sidecar), 0o755); err != nil {
		return "", jsvmerrors.Wrap(jsvmerrors.CodeCreateDir, "failed to create bundled-npm sidecar directory", err)
	}
	if err := os.WriteFile(sidecar, []byte(pkg.Version), 0o644); err != nil {
		return "", jsvmerrors.Wrap(jsvmerrors.CodeReadDefaultNpm, "failed to write bundled-npm sidecar", err)
	}
	return pkg.Version, nil
}

func (in *Installer) readBundledNpm(imageDir string) (string, error) {
	sidecar := in.Layout.BundledNpmVersionFile(filepath.Base(imageDir))
	data, err := os.ReadFile(sidecar)
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(data)), nil
}

// ensureExecutableBits walks imageDir/bin (if present) and ORs in
// owner/group/other execute bits on every regular file, per the unix
// "executable-permissions" invariant.
func ensureExecutableBits(imageDir string) error {
	binDir := filepath.Join(imageDir, "bin")
	entries, err := os.ReadDir(binDir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(binDir, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}
		if err := os.Chmod(path, info.Mode()|0o111); err != nil {
			return err
		}
	}
	return nil
}

func extensionForURL(url string) string {
	switch {
	case strings.HasSuffix(url, ".tar.gz") || strings.HasSuffix(url, ".tgz"):
		return ".tar.gz"
	case strings.HasSuffix(url, ".tar.xz"):
		return ".tar.xz"
	case strings.HasSuffix(url, ".zip"):
		return ".zip"
	default:
		return ".bin"
	}
}

// defaultURL composes the built-in distribution URL for a tool, used
// when no "distro" hook overrides it.
func defaultURL(tool, version, osName, arch string) string {
	switch tool {
	case "node":
		ext := "tar.gz"
		if osName == "windows" {
			ext = "zip"
		}
		return fmt.Sprintf("https://nodejs.org/dist/v%s/node-v%s-%s-%s.%s", version, version, nodeOS(osName), nodeArch(arch), ext)
	case "yarn":
		return fmt.Sprintf("https://github.com/yarnpkg/yarn/releases/download/v%s/yarn-v%s.tar.gz", version, version)
	case "pnpm":
		return fmt.Sprintf("https://github.com/pnpm/pnpm/releases/download/v%s/pnpm-%s-%s.tar.gz", version, osName, arch)
	default:
		return fmt.Sprintf("https://registry.npmjs.org/%s/-/%s-%s.tgz", tool, tool, version)
	}
}

func nodeOS(goos string) string {
	if goos == "darwin" {
		return "darwin"
	}
	return goos
}

func nodeArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "arm64":
		return "arm64"
	default:
		return goarch
	}
}
