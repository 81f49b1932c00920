package tatara

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeCompiler stands in for arm-none-eabi-gcc/g++. It understands just
// enough of the argv to create the object and dependency record, logs
// each compiled source to $FAKE_CC_LOG, and fails on sources named
// fails.c to exercise the fatal-failure path. Invoked without -c (the
// link step) it only creates the -o output.
const fakeCompiler = `#!/bin/sh
dep=""; obj=""; src=""
while [ $# -gt 0 ]; do
  case "$1" in
    -MF) dep="$2"; shift 2 ;;
    -o)  obj="$2"; shift 2 ;;
    -c)  src="$2"; shift 2 ;;
    *)   shift ;;
  esac
done
case "$src" in
  *fails.c) echo "fails.c: synthetic error" >&2; exit 1 ;;
esac
if [ -n "$src" ] && [ -n "$FAKE_CC_LOG" ]; then
  echo "$src" >> "$FAKE_CC_LOG"
fi
if [ -n "$dep" ]; then
  printf '%s: %s\n' "$obj" "$src" > "$dep"
fi
: > "$obj"
exit 0
`

const fakeObjcopy = `#!/bin/sh
# argv: -O binary <image> <out>
cp "$3" "$4"
`

// newTestConfig builds a Config rooted in a temp dir with a fake
// toolchain already "provisioned": stub cross tools in bin/, a linker
// script and system archive under platform/lib/.
func newTestConfig(t *testing.T) *Config {
	t.Helper()
	root := t.TempDir()
	cfg := &Config{
		ProjectRoot:  root,
		ToolchainDir: filepath.Join(root, "toolchain"),
		FirmwareDir:  filepath.Join(root, "firmware"),
		BuildDir:     filepath.Join(root, "build"),
		ReleaseDir:   filepath.Join(root, "release"),
		CacheDir:     filepath.Join(root, "cache"),
		Product:      "kestrel",
		Board:        "kestrel",
		Jobs:         1,
	}

	binDir := filepath.Join(cfg.ToolchainDir, "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	for _, tool := range []string{"gcc", "g++"} {
		require.NoError(t, os.WriteFile(filepath.Join(binDir, "arm-none-eabi-"+tool), []byte(fakeCompiler), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "arm-none-eabi-objcopy"), []byte(fakeObjcopy), 0o755))

	libDir := filepath.Join(cfg.ToolchainDir, "platform", "lib")
	require.NoError(t, os.MkdirAll(libDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "flash.ld"), []byte("/* flash layout */\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "libplatform.a"), []byte("!<arch>\n"), 0o644))

	require.NoError(t, os.MkdirAll(cfg.FirmwareDir, 0o755))
	return cfg
}

// compileLog wires up $FAKE_CC_LOG and returns a reader for it.
func compileLog(t *testing.T) (path string, lines func() []string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "compile.log")
	t.Setenv("FAKE_CC_LOG", path)
	lines = func() []string {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil
		}
		require.NoError(t, err)
		var out []string
		for _, l := range splitLines(string(data)) {
			if l != "" {
				out = append(out, l)
			}
		}
		return out
	}
	return path, lines
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
