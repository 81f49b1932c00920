package tatara

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// DefaultConfigFile is looked up relative to the project root.
const DefaultConfigFile = "tatara.conf"

// Config carries every path and knob the pipeline needs. It is built once
// in main and passed by reference; core logic never reads the process
// environment or the working directory on its own.
type Config struct {
	ProjectRoot  string
	ToolchainDir string
	FirmwareDir  string
	BuildDir     string
	ReleaseDir   string
	CacheDir     string // downloaded toolchain archives

	Product string // release artifact basename
	Board   string // expands to -DBOARD_<board>
	BaseURL string // toolchain download location
	Jobs    int    // compile fan-out width
}

// loadValues reads a key=value conf file the same way the rest of the
// tooling expects it: blank lines and #-comments skipped, quotes trimmed.
func loadValues(path string) (map[string]string, error) {
	values := make(map[string]string)

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return values, err
		}
	}

	return values, nil
}

// mergeEnvOverrides lets TATARA_* environment variables win over the file.
func mergeEnvOverrides(values map[string]string) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "TATARA_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				values[parts[0]] = parts[1]
			}
		}
	}
}

// LoadConfig assembles the Config from the conf file (if present), the
// environment, and defaults. This is the only place the environment is
// consulted.
func LoadConfig(path string) (*Config, error) {
	values, err := loadValues(path)
	if err != nil {
		return nil, err
	}
	mergeEnvOverrides(values)
	return newConfig(values)
}

func newConfig(values map[string]string) (*Config, error) {
	cfg := &Config{}

	cfg.ProjectRoot = values["TATARA_ROOT"]
	if cfg.ProjectRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg.ProjectRoot = cwd
	}

	cfg.Product = values["TATARA_PRODUCT"]
	if cfg.Product == "" {
		cfg.Product = "kestrel"
	}
	cfg.Board = values["TATARA_BOARD"]
	if cfg.Board == "" {
		cfg.Board = "kestrel"
	}

	cfg.BaseURL = values["TATARA_TOOLCHAIN_BASEURL"]
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultToolchainBaseURL
	}

	cfg.Jobs = runtime.GOMAXPROCS(0)
	if j := values["TATARA_JOBS"]; j != "" {
		n, err := strconv.Atoi(j)
		if err == nil && n > 0 {
			cfg.Jobs = n
		}
	}

	Debug = values["TATARA_DEBUG"] == "1"

	cfg.ToolchainDir = filepath.Join(cfg.ProjectRoot, "toolchain")
	cfg.FirmwareDir = filepath.Join(cfg.ProjectRoot, "firmware")
	cfg.BuildDir = filepath.Join(cfg.ProjectRoot, "build")
	cfg.ReleaseDir = filepath.Join(cfg.ProjectRoot, "release")
	cfg.CacheDir = filepath.Join(cfg.ProjectRoot, "cache")

	return cfg, nil
}
