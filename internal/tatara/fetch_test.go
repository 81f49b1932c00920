package tatara

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fake transfer tools that write part of the output before dying, the
// way a dropped connection does.
const fakeCurl = `#!/bin/sh
# argv: -L --fail -# -o <dest> <url>
printf 'partial' > "$5"
exit 22
`

const fakeWget = `#!/bin/sh
# argv: -nv -O <dest> <url>
printf 'partial' > "$3"
exit 4
`

// A failed transfer must not leave a partial file in the cache: the
// cache hit check is presence-based, so leftover bytes would be taken
// for a complete archive on the next run.
func TestDownloadFileLeavesNoPartialFile(t *testing.T) {
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "curl"), []byte(fakeCurl), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "wget"), []byte(fakeWget), 0o755))
	t.Setenv("PATH", binDir)

	dest := filepath.Join(t.TempDir(), "cache", "toolchain.tar.xz")
	err := downloadFile("http://127.0.0.1:1/toolchain.tar.xz", dest)
	require.Error(t, err)
	assert.NoFileExists(t, dest)
}
