// Package extract unpacks distribution archives (tar.gz, tar.xz, zip)
// into a destination directory, guarding against path traversal and
// skipping macOS resource-fork metadata.
package extract

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Format identifies an archive's compression/container scheme.
type Format string

const (
	FormatTarGz Format = "tar.gz"
	FormatTarXz Format = "tar.xz"
	FormatZip   Format = "zip"
	FormatRaw   Format = "raw"
)

// DetectFormat infers a Format from an archive's file name.
func DetectFormat(name string) Format {
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(name, ".tar.xz"):
		return FormatTarXz
	case strings.HasSuffix(name, ".zip"):
		return FormatZip
	default:
		return FormatRaw
	}
}

// Extractor unpacks a single archive format into a destination directory.
type Extractor interface {
	Extract(archivePath, destDir string) error
}

// New returns the Extractor for the given format.
func New(f Format) (Extractor, error) {
	switch f {
	case FormatTarGz:
		return tarGzExtractor{}, nil
	case FormatTarXz:
		return tarXzExtractor{}, nil
	case FormatZip:
		return zipExtractor{}, nil
	case FormatRaw:
		return rawExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", f)
	}
}

type tarGzExtractor struct{}

func (tarGzExtractor) Extract(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read gzip stream: %w", err)
	}
	defer gz.Close()

	return extractTar(tar.NewReader(gz), destDir)
}

type tarXzExtractor struct{}

func (tarXzExtractor) Extract(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read xz stream: %w", err)
	}

	return extractTar(tar.NewReader(xzr), destDir)
}

func extractTar(tr *tar.Reader, destDir string) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		if skipEntry(hdr.Name) {
			continue
		}

		target := filepath.Join(destDir, hdr.Name)
		if !isInsideDir(destDir, target) {
			return fmt.Errorf("archive entry %q escapes destination directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := writeFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

type zipExtractor struct{}

func (zipExtractor) Extract(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip archive %s: %w", archivePath, err)
	}
	defer r.Close()

	for _, zf := range r.File {
		if skipEntry(zf.Name) {
			continue
		}

		target := filepath.Join(destDir, zf.Name)
		if !isInsideDir(destDir, target) {
			return fmt.Errorf("archive entry %q escapes destination directory", zf.Name)
		}

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		rc, err := zf.Open()
		if err != nil {
			return fmt.Errorf("failed to open zip entry %s: %w", zf.Name, err)
		}
		err = writeFile(target, rc, zf.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// rawExtractor copies a single, uncompressed file directly into destDir
// under its own base name, used for tools distributed as bare binaries.
type rawExtractor struct{}

func (rawExtractor) Extract(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	target := filepath.Join(destDir, filepath.Base(archivePath))
	src, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer src.Close()
	return writeFile(target, src, 0o755)
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}

// skipEntry reports whether an archive entry is macOS resource-fork
// metadata that should never be unpacked.
func skipEntry(name string) bool {
	return strings.HasPrefix(name, "__MACOSX/") || strings.Contains(name, "/.DS_Store") || name == ".DS_Store"
}

// isInsideDir reports whether target is contained within dir, guarding
// against ".." path-traversal entries in untrusted archives.
func isInsideDir(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// SoleTopLevelDir inspects the immediate children of dir and returns the
// single top-level directory name if exactly one exists; otherwise it
// returns an error describing the structural mismatch (spec.md's
// "exactly one top-level directory" unpack invariant).
func SoleTopLevelDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read unpacked directory %s: %w", dir, err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}

	if len(dirs) != 1 || len(entries) != 1 {
		return "", fmt.Errorf("expected exactly one top-level directory in unpacked archive, found %d entries", len(entries))
	}

	return dirs[0], nil
}
