package install

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractArchive extracts the archive read from r into dest. The
// archive format is chosen from the name (usually the download URL
// path): tar.gz streams are extracted directly, zip archives are
// spooled to a temporary file first because the format needs random
// access. JVM archives usually wrap everything in a single top-level
// directory; extraction flattens that wrapper so dest is the JAVA_HOME.
func extractArchive(r io.Reader, name, dest string) error {
	var err error
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		err = extractTarGz(r, dest)
	case strings.HasSuffix(name, ".zip"):
		err = extractZip(r, dest)
	default:
		return fmt.Errorf("unsupported archive format: %s", name)
	}
	if err != nil {
		return err
	}
	return flattenSingleRoot(dest)
}

func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar header: %w", err)
		}

		target, err := safeTarget(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
		case tar.TypeReg:
			// #nosec G115 - tar header mode conversion is safe within this context
			if err := writeFile(tr, target, os.FileMode(uint32(header.Mode))); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := safeLinkname(dest, target, header.Linkname); err != nil {
				return err
			}
			_ = os.MkdirAll(filepath.Dir(target), 0750)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("creating symlink: %w", err)
			}
		}
	}
	return nil
}

// extractZip spools the stream to a temporary file and extracts it.
func extractZip(r io.Reader, dest string) error {
	tmp, err := os.CreateTemp("", "javelin-download-*.zip")
	if err != nil {
		return fmt.Errorf("creating spool file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return fmt.Errorf("spooling archive: %w", err)
	}

	zr, err := zip.NewReader(tmp, size)
	if err != nil {
		return fmt.Errorf("opening zip: %w", err)
	}

	for _, f := range zr.File {
		target, err := safeTarget(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("creating directory: %w", err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("opening file in archive: %w", err)
		}
		if err := writeFile(rc, target, f.Mode()); err != nil {
			_ = rc.Close()
			return err
		}
		_ = rc.Close()
	}
	return nil
}

// safeLinkname rejects symlink targets that escape dest, either by
// being absolute or by resolving outside it relative to the link.
func safeLinkname(dest, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("invalid symlink target in archive: %s", linkname)
	}
	resolved := filepath.Join(filepath.Dir(target), linkname)
	if !strings.HasPrefix(resolved, filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("invalid symlink target in archive: %s", linkname)
	}
	return nil
}

// safeTarget joins name under dest and rejects path traversal.
func safeTarget(dest, name string) (string, error) {
	target := filepath.Join(dest, name) // #nosec G305 - traversal is checked below
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid path in archive: %s", name)
	}
	return target, nil
}

func writeFile(src io.Reader, dest string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()) // #nosec G304 - dest is validated by safeTarget
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() { _ = file.Close() }()

	_, err = io.Copy(file, src) // #nosec G110 - archive size is bounded by the download
	return err
}

// flattenSingleRoot lifts the contents of a lone top-level directory
// into dest, so "<dest>/jdk-11.0.2/bin" becomes "<dest>/bin".
func flattenSingleRoot(dest string) error {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return fmt.Errorf("reading extracted directory: %w", err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	root := filepath.Join(dest, entries[0].Name())
	children, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading archive root: %w", err)
	}
	for _, child := range children {
		from := filepath.Join(root, child.Name())
		to := filepath.Join(dest, child.Name())
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("flattening archive root: %w", err)
		}
	}
	return os.Remove(root)
}
