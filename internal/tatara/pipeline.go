package tatara

import (
	"context"
	"path/filepath"
)

// Run executes the full pipeline: provision toolchain and firmware
// source, overlay patches, enumerate sources, bring every compile unit to
// the current state, then link and package. Each stage is fatal on
// failure; the link stage is a barrier that only runs once every unit is
// current.
func Run(ctx context.Context, cfg *Config) error {
	execCtx := NewExecutor(ctx)

	toolchainRoot, err := EnsureToolchain(cfg)
	if err != nil {
		return err
	}
	firmwareRoot, err := EnsureFirmwareSource(cfg, execCtx, SelectVariant)
	if err != nil {
		return err
	}

	if err := ApplyPatches(toolchainRoot, firmwareRoot); err != nil {
		return err
	}

	files, err := EnumerateSources(firmwareRoot, toolchainRoot)
	if err != nil {
		return err
	}
	debugf("Enumerated %d source files\n", len(files))

	opt := DefaultOptions(cfg)
	objects, err := CompileAll(ctx, cfg, opt, files)
	if err != nil {
		return err
	}

	elf, err := LinkImage(cfg, execCtx, opt, objects)
	if err != nil {
		return err
	}
	bin, err := PackageBinary(cfg, execCtx, elf)
	if err != nil {
		return err
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Build complete: %s\n", filepath.Base(bin))
	return nil
}
