package tatara

import (
	"fmt"
	"os"
)

// Clean removes the build and release output directories entirely. Both
// are fully reproducible from sources; the toolchain, firmware tree, and
// archive cache are left alone.
func Clean(cfg *Config) error {
	for _, dir := range []string{cfg.BuildDir, cfg.ReleaseDir} {
		colArrow.Print("-> ")
		colSuccess.Printf("Removing %s\n", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}
	return nil
}
