package tatara

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Variant is the closed set of firmware flavors that can be provisioned.
type Variant string

const (
	VariantStellar Variant = "stellar"
	VariantNimbus  Variant = "nimbus"

	// Both variants track the same release branch upstream.
	firmwareBranch = "release"
)

// Variants lists the selectable variants in prompt order.
var Variants = []Variant{VariantStellar, VariantNimbus}

// RepoURL returns the upstream source location for the variant.
func (v Variant) RepoURL() string {
	return fmt.Sprintf("https://github.com/tatara-dev/firmware-%s.git", v)
}

// ParseVariant validates operator input against the variant enumeration.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if s == string(v) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown firmware variant %q", s)
}

// EnsureToolchain makes the cross toolchain available under
// cfg.ToolchainDir and returns that path. An existing directory is
// returned unchanged; nothing is re-fetched once present. A fresh
// provision downloads (or reuses the cached archive), verifies the cache
// entry, and extracts into a staging directory that is renamed into place
// only on success, so a failed extraction never looks like a toolchain.
func EnsureToolchain(cfg *Config) (string, error) {
	if _, err := os.Stat(cfg.ToolchainDir); err == nil {
		debugf("Toolchain already present at %s\n", cfg.ToolchainDir)
		return cfg.ToolchainDir, nil
	}

	host, err := DetectHost()
	if err != nil {
		return "", err
	}
	desc := Descriptor(host, cfg.BaseURL)

	archive := filepath.Join(cfg.CacheDir, desc.Archive)
	if _, err := os.Stat(archive); err == nil {
		colArrow.Print("-> ")
		colSuccess.Printf("Using cached toolchain archive %s\n", desc.Archive)
		if err := verifyChecksumSidecar(archive); err != nil {
			return "", err
		}
	} else {
		colArrow.Print("-> ")
		colSuccess.Printf("Fetching toolchain %s (%s)\n", desc.Version, host)
		if err := downloadFile(desc.URL, archive); err != nil {
			return "", fmt.Errorf("toolchain fetch failed: %w", err)
		}
		if err := writeChecksumSidecar(archive); err != nil {
			return "", err
		}
	}

	staging := cfg.ToolchainDir + ".partial"
	_ = os.RemoveAll(staging)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", fmt.Errorf("failed to create toolchain directory: %w", err)
	}
	if err := desc.Extract(archive, staging); err != nil {
		_ = os.RemoveAll(staging)
		// An archive that does not extract is no better than a missing
		// one; evict it so the next run re-fetches instead of failing
		// on the same cache entry forever.
		_ = os.Remove(archive)
		_ = os.Remove(archive + ".b3")
		return "", fmt.Errorf("toolchain extraction failed: %w", err)
	}
	if err := os.Rename(staging, cfg.ToolchainDir); err != nil {
		_ = os.RemoveAll(staging)
		return "", err
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Toolchain ready at %s\n", cfg.ToolchainDir)
	return cfg.ToolchainDir, nil
}

// EnsureFirmwareSource makes the firmware source tree available under
// cfg.FirmwareDir and returns that path. An existing tree is returned
// unchanged. Otherwise the chooser picks a variant and its upstream
// repository is cloned at the release branch; an unreachable upstream is
// fatal.
func EnsureFirmwareSource(cfg *Config, execCtx *Executor, chooser func() (Variant, error)) (string, error) {
	if _, err := os.Stat(cfg.FirmwareDir); err == nil {
		debugf("Firmware source already present at %s\n", cfg.FirmwareDir)
		return cfg.FirmwareDir, nil
	}

	variant, err := chooser()
	if err != nil {
		return "", err
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Cloning %s firmware (%s branch %s)\n", variant, variant.RepoURL(), firmwareBranch)

	cmd := exec.Command("git", "clone", "-b", firmwareBranch, variant.RepoURL(), cfg.FirmwareDir)
	if err := execCtx.Run(cmd); err != nil {
		// No half-cloned tree: presence of the directory means provisioned.
		_ = os.RemoveAll(cfg.FirmwareDir)
		return "", fmt.Errorf("git clone of %s failed: %w", variant.RepoURL(), err)
	}
	return cfg.FirmwareDir, nil
}
