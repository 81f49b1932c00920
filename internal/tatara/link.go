package tatara

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// systemArchive is the toolchain's precompiled runtime support library.
func systemArchive(cfg *Config) string {
	return filepath.Join(cfg.ToolchainDir, "platform", "lib", "libplatform.a")
}

func linkerScript(cfg *Config) string {
	return filepath.Join(cfg.ToolchainDir, "platform", "lib", "flash.ld")
}

// linkArgs assembles the link driver invocation. Every object artifact
// and the system archive sit inside one --start-group/--end-group so
// circular symbol references resolve regardless of object order.
func linkArgs(cfg *Config, opt *OptionSet, objects []string, elf string) []string {
	args := make([]string, 0, len(opt.Link)+len(objects)+16)
	args = append(args, opt.Link...)
	args = append(args,
		"-T"+linkerScript(cfg),
		"-Wl,-Map="+filepath.Join(cfg.BuildDir, cfg.Product+".map"),
		"-L"+cfg.BuildDir,
		"-Wl,--check-sections",
		"-Wl,--unresolved-symbols=report-all",
		"-Wl,--gc-sections",
		"-Wl,--entry=Reset_Handler",
		"-o", elf,
		"-Wl,--start-group",
	)
	args = append(args, objects...)
	args = append(args, systemArchive(cfg), "-Wl,--end-group", "-lm", "-lgcc")
	return args
}

// LinkImage links all current object artifacts into the executable image
// under the release directory and returns its path. The release dir is
// created if absent; prior contents are left alone until the new image
// replaces them.
func LinkImage(cfg *Config, execCtx *Executor, opt *OptionSet, objects []string) (string, error) {
	if err := os.MkdirAll(cfg.ReleaseDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create release directory: %w", err)
	}

	elf := filepath.Join(cfg.ReleaseDir, cfg.Product+".elf")

	colArrow.Print("-> ")
	colSuccess.Printf("Linking %s\n", filepath.Base(elf))

	cmd := exec.Command(cfg.Tool("g++"), linkArgs(cfg, opt, objects, elf)...)
	if err := execCtx.Run(cmd); err != nil {
		return "", fmt.Errorf("link failed: %w", err)
	}
	return elf, nil
}

// PackageBinary converts the linked image into the raw flashable binary
// via straight binary extraction. objcopy writes to a temp path that is
// renamed over any prior release binary, so a conversion failure never
// leaves a truncated binary in place.
func PackageBinary(cfg *Config, execCtx *Executor, elf string) (string, error) {
	bin := filepath.Join(cfg.ReleaseDir, cfg.Product+".bin")
	tmp := bin + ".tmp"

	colArrow.Print("-> ")
	colSuccess.Printf("Packaging %s\n", filepath.Base(bin))

	cmd := exec.Command(cfg.Tool("objcopy"), "-O", "binary", elf, tmp)
	if err := execCtx.Run(cmd); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("binary conversion failed: %w", err)
	}
	if err := os.Rename(tmp, bin); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return bin, nil
}
