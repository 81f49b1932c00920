package tatara

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
)

// OptionSet is the ordered flag configuration for the build. Slices are
// appended in configured order on every invocation; the link group in
// particular resolves symbols left to right, so order is preserved
// exactly as set here.
type OptionSet struct {
	Platform []string // target CPU / board defines, shared by both kinds
	Feature  []string // USB and other feature defines
	CFlags   []string // C-only compile flags
	CxxFlags []string // C++-only compile flags
	Includes []string // include directories, identical for both kinds
	Link     []string // flags for the link driver
}

// DefaultOptions is the option set for the supported target.
func DefaultOptions(cfg *Config) *OptionSet {
	return &OptionSet{
		Platform: []string{
			"-Os", "-g", "-nostdlib",
			"-mcpu=cortex-m3", "-march=armv7-m", "-mthumb",
			"-DBOARD_" + cfg.Board, "-DVECT_TAB_FLASH",
		},
		Feature: []string{
			"-DUSB_VID=0x1eaf", "-DUSB_PID=0x0004", "-DSERIAL_USB",
		},
		CFlags: nil,
		// No RTTI or unwind tables on the target; -x c++ pins the language
		// regardless of extension ambiguity.
		CxxFlags: []string{"-fno-rtti", "-fno-exceptions", "-x", "c++"},
		Includes: []string{
			cfg.FirmwareDir,
			filepath.Join(cfg.FirmwareDir, "include"),
			filepath.Join(cfg.ToolchainDir, "platform"),
			filepath.Join(cfg.ToolchainDir, "platform", "cores"),
		},
		Link: []string{"-Os", "-mcpu=cortex-m3", "-mthumb"},
	}
}

// Tool returns the path of a cross tool inside the provisioned toolchain.
func (c *Config) Tool(name string) string {
	return filepath.Join(c.ToolchainDir, "bin", "arm-none-eabi-"+name)
}

// IsStale reports whether the object artifact for src needs regenerating:
// the object is absent, older than the source, or older than any
// prerequisite recorded in the dependency record. A missing or unreadable
// record degrades to the plain source-vs-object comparison.
func IsStale(src SourceFile, buildDir string) (bool, error) {
	objInfo, err := os.Stat(src.ObjectPath(buildDir))
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	srcInfo, err := os.Stat(src.Path)
	if err != nil {
		return false, fmt.Errorf("cannot stat source %s: %w", src.Path, err)
	}
	if objInfo.ModTime().Before(srcInfo.ModTime()) {
		return true, nil
	}

	deps, err := parseDepFile(src.DepPath(buildDir))
	if err != nil {
		return false, nil
	}
	for _, dep := range deps {
		info, err := os.Stat(dep)
		if os.IsNotExist(err) {
			// A recorded header vanished; recompiling surfaces the real error.
			return true, nil
		}
		if err != nil {
			continue
		}
		if objInfo.ModTime().Before(info.ModTime()) {
			return true, nil
		}
	}
	return false, nil
}

// compileArgs assembles the per-kind compiler invocation for src.
func compileArgs(cfg *Config, opt *OptionSet, src SourceFile) (string, []string) {
	var tool string
	var kind []string
	switch src.Kind {
	case CSource:
		tool = cfg.Tool("gcc")
		kind = opt.CFlags
	case CppSource:
		tool = cfg.Tool("g++")
		kind = opt.CxxFlags
	}

	args := make([]string, 0, len(opt.Platform)+len(opt.Feature)+len(kind)+len(opt.Includes)+8)
	args = append(args, opt.Platform...)
	args = append(args, opt.Feature...)
	args = append(args, kind...)
	for _, inc := range opt.Includes {
		args = append(args, "-I"+inc)
	}
	args = append(args,
		"-MMD", "-MP", "-MF", src.DepPath(cfg.BuildDir),
		"-o", src.ObjectPath(cfg.BuildDir),
		"-c", src.Path,
	)
	return tool, args
}

// CompileResult reports the outcome of one compile unit.
type CompileResult struct {
	Object  string
	Skipped bool // unit was already current, nothing was invoked
}

// CompileFile brings one source file's object artifact up to date. A
// current unit is skipped with no output and no side effect; a stale one
// is announced and compiled. A nonzero compiler exit is returned as the
// error, diagnostics having gone to stderr verbatim.
func CompileFile(cfg *Config, execCtx *Executor, opt *OptionSet, src SourceFile) (CompileResult, error) {
	stale, err := IsStale(src, cfg.BuildDir)
	if err != nil {
		return CompileResult{}, err
	}
	obj := src.ObjectPath(cfg.BuildDir)
	if !stale {
		debugf("Current: %s\n", src.Rel)
		return CompileResult{Object: obj, Skipped: true}, nil
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Compiling %s\n", src.Rel)

	tool, args := compileArgs(cfg, opt, src)
	if err := execCtx.Run(exec.Command(tool, args...)); err != nil {
		return CompileResult{}, fmt.Errorf("compilation of %s failed: %w", src.Rel, err)
	}
	return CompileResult{Object: obj}, nil
}

// CompileAll brings every enumerated unit to the current state, fanning
// compilations out across cfg.Jobs workers. Files have no ordering
// dependency between them; the first failure cancels outstanding and
// in-flight work and is returned. On success it returns the full object
// list (built and skipped alike), sorted for a deterministic link line.
func CompileAll(ctx context.Context, cfg *Config, opt *OptionSet, files []SourceFile) ([]string, error) {
	if err := os.MkdirAll(cfg.BuildDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create build directory: %w", err)
	}

	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	poolExec := NewExecutor(poolCtx)

	work := make(chan SourceFile)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range work {
				if poolCtx.Err() != nil {
					continue // drain remaining work after cancellation
				}
				if _, err := CompileFile(cfg, poolExec, opt, src); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
						cancel()
					}
					mu.Unlock()
				}
			}
		}()
	}

	for _, f := range files {
		work <- f
	}
	close(work)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objects := make([]string, 0, len(files))
	for _, f := range files {
		objects = append(objects, f.ObjectPath(cfg.BuildDir))
	}
	sort.Strings(objects)
	return objects, nil
}
