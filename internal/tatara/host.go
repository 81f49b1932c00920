package tatara

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	toolchainVersion        = "arm-2014.05-28"
	toolchainABI            = 9 // EABI v5 identifier baked into the archives
	defaultToolchainBaseURL = "https://dl.tatara.dev/toolchain/" + toolchainVersion + "/"
)

// HostPlatform is the closed set of hosts the toolchain ships archives
// for. Selected once at startup; everything downstream goes through the
// descriptor instead of branching on the OS again.
type HostPlatform int

const (
	Linux32 HostPlatform = iota
	Linux64
	MacOS
)

func (p HostPlatform) String() string {
	switch p {
	case Linux32:
		return "linux32"
	case Linux64:
		return "linux64"
	case MacOS:
		return "osx"
	}
	return "unknown"
}

// ToolchainDescriptor identifies the cross toolchain build for one host:
// which archive to fetch, where from, and how to unpack it. Immutable
// after Descriptor returns it.
type ToolchainDescriptor struct {
	Version string
	ABI     int
	Archive string
	URL     string

	extract func(archive, dest string) error
}

// Extract unpacks the downloaded archive into dest using the
// host-specific routine.
func (d ToolchainDescriptor) Extract(archive, dest string) error {
	return d.extract(archive, dest)
}

// DetectHost probes the running host. Word size matters only on Linux,
// where 32-bit and 64-bit archives differ; it comes from uname rather
// than GOARCH so a 32-bit binary on a 64-bit kernel still picks the
// archive the kernel can actually run.
func DetectHost() (HostPlatform, error) {
	switch runtime.GOOS {
	case "darwin":
		return MacOS, nil
	case "linux":
		var uts unix.Utsname
		if err := unix.Uname(&uts); err != nil {
			return Linux64, fmt.Errorf("uname failed: %w", err)
		}
		machine := unix.ByteSliceToString(uts.Machine[:])
		if strings.Contains(machine, "64") {
			return Linux64, nil
		}
		return Linux32, nil
	default:
		return Linux64, fmt.Errorf("no toolchain archive for host OS %q", runtime.GOOS)
	}
}

// Descriptor returns the toolchain descriptor for the given host. The
// macOS archive is a zip of an application bundle and needs its layout
// normalized after extraction; both Linux archives unpack directly into
// the canonical shape.
func Descriptor(p HostPlatform, baseURL string) ToolchainDescriptor {
	if baseURL == "" {
		baseURL = defaultToolchainBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	d := ToolchainDescriptor{
		Version: toolchainVersion,
		ABI:     toolchainABI,
	}
	switch p {
	case Linux32:
		d.Archive = "tatara-toolchain-" + toolchainVersion + "-linux32.tar.xz"
		d.extract = extractTar
	case Linux64:
		d.Archive = "tatara-toolchain-" + toolchainVersion + "-linux64.tar.xz"
		d.extract = extractTar
	case MacOS:
		d.Archive = "tatara-toolchain-" + toolchainVersion + "-osx.zip"
		d.extract = extractBundleZip
	}
	d.URL = baseURL + d.Archive
	return d
}
