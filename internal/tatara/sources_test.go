package tatara

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates empty files at the given relative paths under root.
func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("// "+p+"\n"), 0o644))
	}
}

func fixtureRoots(t *testing.T) (firmware, toolchain string) {
	t.Helper()
	project := t.TempDir()
	firmware = filepath.Join(project, "firmware")
	toolchain = filepath.Join(project, "toolchain")
	writeTree(t, firmware,
		"main.cpp",
		"drivers/adc.c",
		"drivers/usb.cpp",
		"patches/cores/fixed.c", // overlaid, must not be enumerated here
		"include/board.h",       // headers are never compile units
	)
	writeTree(t, toolchain,
		"platform/cores/start.c",
		"platform/cores/adc.c", // same base name as a firmware file
		"platform/wirish.cpp",
		"platform/lib/flash.ld",
	)
	return firmware, toolchain
}

func TestEnumerateSources(t *testing.T) {
	firmware, toolchain := fixtureRoots(t)

	files, err := EnumerateSources(firmware, toolchain)
	require.NoError(t, err)

	var cFiles, cppFiles []string
	for _, f := range files {
		switch f.Kind {
		case CSource:
			cFiles = append(cFiles, f.Rel)
		case CppSource:
			cppFiles = append(cppFiles, f.Rel)
		}
	}
	sort.Strings(cFiles)
	sort.Strings(cppFiles)

	assert.Equal(t, []string{
		filepath.Join("firmware", "drivers", "adc.c"),
		filepath.Join("toolchain", "platform", "cores", "adc.c"),
		filepath.Join("toolchain", "platform", "cores", "start.c"),
	}, cFiles)
	assert.Equal(t, []string{
		filepath.Join("firmware", "drivers", "usb.cpp"),
		filepath.Join("firmware", "main.cpp"),
		filepath.Join("toolchain", "platform", "wirish.cpp"),
	}, cppFiles)
}

func TestEnumerateSourcesStableAcrossRuns(t *testing.T) {
	firmware, toolchain := fixtureRoots(t)

	first, err := EnumerateSources(firmware, toolchain)
	require.NoError(t, err)
	second, err := EnumerateSources(firmware, toolchain)
	require.NoError(t, err)

	set := func(files []SourceFile) map[string]SourceKind {
		m := make(map[string]SourceKind)
		for _, f := range files {
			m[f.Rel] = f.Kind
		}
		return m
	}
	assert.Equal(t, set(first), set(second))
}

func TestArtifactKeysUniquePerPath(t *testing.T) {
	firmware, toolchain := fixtureRoots(t)
	buildDir := filepath.Join(t.TempDir(), "build")

	files, err := EnumerateSources(firmware, toolchain)
	require.NoError(t, err)

	objects := make(map[string]string)
	for _, f := range files {
		obj := f.ObjectPath(buildDir)
		if prev, dup := objects[obj]; dup {
			t.Fatalf("object path collision: %s and %s both map to %s", prev, f.Rel, obj)
		}
		objects[obj] = f.Rel

		// Flat namespace: nothing nests below the build dir.
		assert.Equal(t, buildDir, filepath.Dir(obj))
		// Dep record sits next to the object under the same key.
		assert.Equal(t, obj[:len(obj)-2]+".d", f.DepPath(buildDir))
	}
}

func TestArtifactKeyDeterministic(t *testing.T) {
	a := SourceFile{Path: "/x/firmware/drivers/adc.c", Rel: "firmware/drivers/adc.c", Kind: CSource}
	b := SourceFile{Path: "/y/firmware/drivers/adc.c", Rel: "firmware/drivers/adc.c", Kind: CSource}
	assert.Equal(t, a.artifactKey(), b.artifactKey(), "key depends on the relative path only")
}
