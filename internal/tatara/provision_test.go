package tatara

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureToolchainIdempotent(t *testing.T) {
	cfg := newTestConfig(t) // fake toolchain already in place
	// An unreachable base URL proves no fetch is attempted.
	cfg.BaseURL = "http://127.0.0.1:1/"

	root, err := EnsureToolchain(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.ToolchainDir, root)
}

func TestEnsureToolchainRefusesCorruptedCache(t *testing.T) {
	cfg := newTestConfig(t)
	require.NoError(t, os.RemoveAll(cfg.ToolchainDir))

	host, err := DetectHost()
	if err != nil {
		t.Skip("unsupported host")
	}
	desc := Descriptor(host, cfg.BaseURL)

	require.NoError(t, os.MkdirAll(cfg.CacheDir, 0o755))
	archive := cfg.CacheDir + "/" + desc.Archive
	require.NoError(t, os.WriteFile(archive, []byte("cached bytes"), 0o644))
	require.NoError(t, os.WriteFile(archive+".b3", []byte("deadbeef\n"), 0o644))

	_, err = EnsureToolchain(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupted")
}

// A cached archive that passes verification but does not extract (the
// sidecar was written over an already-truncated transfer) must be
// evicted, so the next run re-fetches instead of failing on the same
// entry forever.
func TestEnsureToolchainEvictsUnextractableArchive(t *testing.T) {
	cfg := newTestConfig(t)
	require.NoError(t, os.RemoveAll(cfg.ToolchainDir))
	cfg.BaseURL = "http://127.0.0.1:1/"

	host, err := DetectHost()
	if err != nil {
		t.Skip("unsupported host")
	}
	desc := Descriptor(host, cfg.BaseURL)

	require.NoError(t, os.MkdirAll(cfg.CacheDir, 0o755))
	archive := cfg.CacheDir + "/" + desc.Archive
	require.NoError(t, os.WriteFile(archive, []byte("truncated transfer"), 0o644))
	require.NoError(t, writeChecksumSidecar(archive))

	_, err = EnsureToolchain(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction")
	assert.NoFileExists(t, archive)
	assert.NoFileExists(t, archive+".b3")

	// With the entry gone the next run goes back to the network.
	_, err = EnsureToolchain(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch")
}

func TestEnsureFirmwareSourceIdempotent(t *testing.T) {
	cfg := newTestConfig(t)

	chooser := func() (Variant, error) {
		t.Fatal("chooser must not run when the firmware tree exists")
		return "", nil
	}
	root, err := EnsureFirmwareSource(cfg, NewExecutor(context.Background()), chooser)
	require.NoError(t, err)
	assert.Equal(t, cfg.FirmwareDir, root)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("stellar")
	require.NoError(t, err)
	assert.Equal(t, VariantStellar, v)

	v, err = ParseVariant("nimbus")
	require.NoError(t, err)
	assert.Equal(t, VariantNimbus, v)

	_, err = ParseVariant("unknown")
	assert.Error(t, err)
}

func TestVariantRepoURL(t *testing.T) {
	assert.Equal(t, "https://github.com/tatara-dev/firmware-stellar.git", VariantStellar.RepoURL())
	assert.Equal(t, "https://github.com/tatara-dev/firmware-nimbus.git", VariantNimbus.RepoURL())
}

func TestSelectVariantStdinRepromptsOnInvalid(t *testing.T) {
	in := strings.NewReader("bogus\n\nnimbus\n")
	var out strings.Builder

	v, err := selectVariantStdin(in, &out)
	require.NoError(t, err)
	assert.Equal(t, VariantNimbus, v)
	// One prompt per attempt.
	assert.Equal(t, 3, strings.Count(out.String(), "Firmware variant"))
}

func TestSelectVariantStdinEOF(t *testing.T) {
	_, err := selectVariantStdin(strings.NewReader(""), &strings.Builder{})
	assert.Error(t, err)
}
