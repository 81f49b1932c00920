package tatara

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SourceKind partitions compilable files into the two language families.
type SourceKind int

const (
	CSource SourceKind = iota
	CppSource
)

func (k SourceKind) String() string {
	if k == CSource {
		return "c"
	}
	return "c++"
}

const (
	cSuffix   = ".c"
	cppSuffix = ".cpp"
)

// SourceFile is one located compilable file. Rel is the path relative to
// the enumeration root's parent (e.g. "firmware/wirish/boot.c") and is
// what the artifact key is derived from, so two files with the same base
// name in different directories never collide in the flat build dir.
type SourceFile struct {
	Path string // absolute
	Rel  string
	Kind SourceKind
}

// artifactKey is the deterministic flat-namespace key: base name plus a
// short content-independent hash of the relative path.
func (s SourceFile) artifactKey() string {
	return filepath.Base(s.Path) + "." + hashString(filepath.ToSlash(s.Rel))[:8]
}

// ObjectPath is the object artifact location for this file.
func (s SourceFile) ObjectPath(buildDir string) string {
	return filepath.Join(buildDir, s.artifactKey()+".o")
}

// DepPath is the dependency record location for this file.
func (s SourceFile) DepPath(buildDir string) string {
	return filepath.Join(buildDir, s.artifactKey()+".d")
}

// EnumerateSources discovers every compilable file. C sources are taken
// from the firmware tree and the toolchain's platform-core tree; C++
// sources from the firmware tree and the full toolchain platform tree
// (C++ language support files live deeper than the cores). The firmware
// patch subtree is excluded: its files are compiled from their overlaid
// toolchain locations instead. The returned set is stable for an
// unchanged tree; order is whatever the walk produces.
func EnumerateSources(firmwareRoot, toolchainRoot string) ([]SourceFile, error) {
	var files []SourceFile

	platformRoot := filepath.Join(toolchainRoot, "platform")
	coresRoot := filepath.Join(platformRoot, "cores")

	walks := []struct {
		root   string
		label  string
		suffix string
		kind   SourceKind
		skip   map[string]bool // top-level dirs to skip, relative to root
	}{
		{firmwareRoot, filepath.Base(firmwareRoot), cSuffix, CSource, map[string]bool{patchSubtree: true}},
		{coresRoot, filepath.Base(toolchainRoot), cSuffix, CSource, nil},
		{firmwareRoot, filepath.Base(firmwareRoot), cppSuffix, CppSource, map[string]bool{patchSubtree: true}},
		{platformRoot, filepath.Base(toolchainRoot), cppSuffix, CppSource, nil},
	}

	for _, w := range walks {
		if _, err := os.Stat(w.root); os.IsNotExist(err) {
			debugf("Source root %s does not exist, skipping\n", w.root)
			continue
		}

		// Rel is anchored at the provisioned tree, not the walk root, so
		// keys stay unique across the overlapping platform/cores walks.
		relBase := w.root
		if w.label == filepath.Base(toolchainRoot) {
			relBase = toolchainRoot
		}

		err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, rerr := filepath.Rel(w.root, path)
			if rerr != nil {
				return rerr
			}
			if d.IsDir() {
				if d.Name() == ".git" || (w.skip != nil && w.skip[rel]) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(d.Name(), w.suffix) {
				return nil
			}

			abs, aerr := filepath.Abs(path)
			if aerr != nil {
				return aerr
			}
			keyRel, kerr := filepath.Rel(relBase, path)
			if kerr != nil {
				return kerr
			}
			files = append(files, SourceFile{
				Path: abs,
				Rel:  filepath.Join(w.label, keyRel),
				Kind: w.kind,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}
