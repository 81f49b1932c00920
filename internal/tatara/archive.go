package tatara

import (
	"archive/tar"
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
	"golang.org/x/sys/unix"
)

// shouldStripTar reports whether the archive keeps everything under a
// single top-level directory that should be stripped on extraction.
func shouldStripTar(archive string) (bool, error) {
	debugf("Running strip check for tar extraction\n")

	// Only list the first entries - much faster for large archives
	cmd := exec.Command("sh", "-c", fmt.Sprintf("tar tf %s | head -n 51", archive))

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("tar tf failed: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return false, nil
	}

	firstEntry := lines[0]
	slashIdx := strings.IndexByte(firstEntry, '/')
	if slashIdx == -1 {
		// A file at the root, so don't strip
		return false, nil
	}
	topDir := firstEntry[:slashIdx+1]

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, topDir) {
			return false, nil
		}
	}
	return true, nil
}

// extractTar extracts a tar archive (with possible compression) to dest,
// stripping the top-level directory while handling PAX headers and
// preserving timestamps. System tar is tried first; the native reader is
// the fallback.
func extractTar(realPath, dest string) error {
	f, err := os.Open(realPath)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", realPath, err)
	}

	strip, err := shouldStripTar(realPath)
	if err != nil {
		debugf("shouldStripTar(%s) failed: %v\n", realPath, err)
	}

	args := []string{"xf", realPath, "-C", dest}
	if strip {
		args = append(args, "--strip-components=1")
	}
	if err := exec.Command("tar", args...).Run(); err == nil {
		_ = f.Close()
		debugf("Used system tar\n")
		return nil
	}
	defer f.Close()

	// Determine the compression type based on file extension
	var r io.Reader = f
	switch {
	case strings.HasSuffix(realPath, ".tar.gz") || strings.HasSuffix(realPath, ".tgz"):
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader for %s: %w", realPath, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(realPath, ".tar.bz2"):
		r = bzip2.NewReader(f)
	case strings.HasSuffix(realPath, ".tar.xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create xz reader for %s: %w", realPath, err)
		}
		r = xzr
	case strings.HasSuffix(realPath, ".tar.zst"):
		zst, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create zstd reader for %s: %w", realPath, err)
		}
		defer zst.Close()
		r = zst
	case strings.HasSuffix(realPath, ".tar"):
		// No compression
	default:
		return fmt.Errorf("unsupported archive format: %s", realPath)
	}

	tr := tar.NewReader(r)

	// Track the prefix for stripping (e.g., "tatara-toolchain-.../")
	var prefix string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading tar header in %s: %w", realPath, err)
		}

		// Skip PAX headers (global or per-file)
		if hdr.Typeflag == tar.TypeXHeader || hdr.Typeflag == tar.TypeXGlobalHeader {
			if _, err := io.Copy(io.Discard, tr); err != nil {
				return fmt.Errorf("error skipping extended header data in %s: %w", realPath, err)
			}
			continue
		}

		if prefix == "" && (hdr.Typeflag == tar.TypeDir || hdr.Typeflag == tar.TypeReg) {
			slashIdx := strings.Index(hdr.Name, "/")
			if slashIdx != -1 {
				prefix = hdr.Name[:slashIdx+1]
				debugf("Detected tar prefix for stripping: %s\n", prefix)
			}
		}

		targetName := hdr.Name
		if prefix != "" && strings.HasPrefix(targetName, prefix) {
			targetName = strings.TrimPrefix(targetName, prefix)
		}
		if targetName == "" {
			continue
		}

		targetPath := filepath.Join(dest, targetName)
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return fmt.Errorf("failed to create parent dir for %s: %w", targetPath, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, os.FileMode(hdr.Mode)); err != nil {
				return fmt.Errorf("failed to create dir %s: %w", targetPath, err)
			}
			if err := os.Chtimes(targetPath, hdr.AccessTime, hdr.ModTime); err != nil {
				return fmt.Errorf("failed to set times for dir %s: %w", targetPath, err)
			}
		case tar.TypeReg:
			outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return fmt.Errorf("failed to create file %s: %w", targetPath, err)
			}
			if _, err := io.Copy(outFile, tr); err != nil {
				outFile.Close()
				return fmt.Errorf("failed to write file %s: %w", targetPath, err)
			}
			outFile.Close()
			if err := os.Chtimes(targetPath, hdr.AccessTime, hdr.ModTime); err != nil {
				return fmt.Errorf("failed to set times for file %s: %w", targetPath, err)
			}
		case tar.TypeSymlink:
			if err := os.Symlink(hdr.Linkname, targetPath); err != nil && !os.IsExist(err) {
				return fmt.Errorf("failed to create symlink %s -> %s: %w", targetPath, hdr.Linkname, err)
			}
			atime := unix.Timeval{
				Sec:  hdr.AccessTime.Unix(),
				Usec: int64(hdr.AccessTime.Nanosecond() / 1000),
			}
			mtime := unix.Timeval{
				Sec:  hdr.ModTime.Unix(),
				Usec: int64(hdr.ModTime.Nanosecond() / 1000),
			}
			if err := unix.Lutimes(targetPath, []unix.Timeval{atime, mtime}); err != nil {
				debugf("Warning: failed to set times for symlink %s: %v (continuing)\n", targetPath, err)
			}
		default:
			debugf("Skipping unsupported tar entry type %c: %s\n", hdr.Typeflag, hdr.Name)
		}
	}

	if prefix == "" {
		debugf("No top-level directory prefix found in %s; extracted without stripping\n", realPath)
	}

	return nil
}

func unzipGo(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	dest, err = filepath.Abs(dest)
	if err != nil {
		return err
	}

	for _, f := range r.File {
		fpath := filepath.Join(dest, f.Name)

		// Security check: prevent zip-slip path traversal.
		if !strings.HasPrefix(fpath, dest+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path in archive: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, os.ModePerm); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return err
		}

		outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			outFile.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)

		// Close files inside the loop to avoid holding too many descriptors.
		outFile.Close()
		rc.Close()

		if err != nil {
			return err
		}
		_ = os.Chtimes(fpath, f.Modified, f.Modified)
	}
	return nil
}

// extractBundleZip unpacks the macOS toolchain zip and normalizes the
// application-bundle layout into the canonical toolchain shape the rest
// of the pipeline expects (bin/, platform/ at the top).
func extractBundleZip(src, dest string) error {
	if err := unzipGo(src, dest); err != nil {
		return err
	}
	return flattenSingleDir(dest)
}

// flattenSingleDir hoists nested wrapper directories until dest itself
// holds the toolchain's bin directory or stops being a single-entry tree.
func flattenSingleDir(dest string) error {
	for {
		if _, err := os.Stat(filepath.Join(dest, "bin")); err == nil {
			return nil
		}

		entries, err := os.ReadDir(dest)
		if err != nil {
			return err
		}
		if len(entries) != 1 || !entries[0].IsDir() {
			return nil
		}

		wrapper := filepath.Join(dest, entries[0].Name())
		tmp := dest + ".unwrap"
		if err := os.Rename(wrapper, tmp); err != nil {
			return fmt.Errorf("failed to unwrap %s: %w", wrapper, err)
		}

		inner, err := os.ReadDir(tmp)
		if err != nil {
			return err
		}
		for _, e := range inner {
			if err := os.Rename(filepath.Join(tmp, e.Name()), filepath.Join(dest, e.Name())); err != nil {
				return fmt.Errorf("failed to move %s out of bundle wrapper: %w", e.Name(), err)
			}
		}
		if err := os.Remove(tmp); err != nil {
			return err
		}
	}
}
