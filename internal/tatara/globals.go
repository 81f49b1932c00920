package tatara

import (
	"fmt"
	"runtime"

	"github.com/gookit/color"
)

// Global toggles. Everything else is carried in Config and passed
// explicitly; these two only gate output.
var (
	Debug   bool
	Verbose bool
)

var (
	version   = "dev"     // overridden at build time
	arch      = runtime.GOARCH
	buildDate = "unknown" // overridden at build time
)

// VersionString reports the build identity for the version directive.
func VersionString() string {
	return fmt.Sprintf("tatara %s (%s) built %s", version, arch, buildDate)
}

// color helpers
var (
	colWarn    = color.Warn
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
