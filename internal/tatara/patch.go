package tatara

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// patchSubtree is the firmware-tree directory whose contents overlay the
// toolchain tree.
const patchSubtree = "patches"

// ApplyPatches overlays the firmware tree's patch subtree onto the
// toolchain tree, overwriting existing files. Each copied file keeps the
// patch file's modification time rather than the time of the copy, so a
// reapplied patch does not look newer than its already-built object and
// trigger a spurious recompilation. A missing patch subtree is not an
// error; the operation is idempotent.
func ApplyPatches(toolchainRoot, firmwareRoot string) error {
	patchRoot := filepath.Join(firmwareRoot, patchSubtree)
	if _, err := os.Stat(patchRoot); os.IsNotExist(err) {
		debugf("No patch subtree at %s\n", patchRoot)
		return nil
	}

	return filepath.WalkDir(patchRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(patchRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		target := filepath.Join(toolchainRoot, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if err := overlayFile(path, target, info); err != nil {
			return fmt.Errorf("failed to apply patch %s: %w", rel, err)
		}
		debugf("Patched %s\n", rel)
		return nil
	})
}

func overlayFile(src, dst string, info fs.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// Carry the patch file's own mtime onto the overlaid copy.
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
