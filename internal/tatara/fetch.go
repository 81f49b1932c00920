package tatara

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"
)

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Some toolchain mirrors are slow to complete the handshake.
	transport.TLSHandshakeTimeout = 30 * time.Second

	return &http.Client{
		Transport: transport,
		Timeout:   300 * time.Second, // archives run to hundreds of MB
	}
}

// downloadFile fetches url into destFile. It prefers curl, falls back to
// wget, and finally to the native HTTP client with a progress bar. The
// destination is protected by a file lock so a retried or concurrent
// invocation never clobbers an in-flight download.
func downloadFile(url, destFile string) error {
	if err := os.MkdirAll(filepath.Dir(destFile), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory for %s: %w", destFile, err)
	}
	lockPath := destFile + ".lock"

	lFile, err := os.Create(lockPath)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer lFile.Close()

	if err := unix.Flock(int(lFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock for download: %w", err)
	}
	defer unix.Flock(int(lFile.Fd()), unix.LOCK_UN)

	// Now that we hold the lock, check again: another process may have
	// finished the download while we were waiting.
	if _, err := os.Stat(destFile); err == nil {
		debugf("File %s appeared after acquiring lock, skipping download.\n", destFile)
		_ = os.Remove(lockPath)
		return nil
	}

	defer func() {
		if _, err := os.Stat(destFile); err == nil {
			_ = os.Remove(lockPath)
		}
	}()

	debugf("Downloading %s -> %s\n", url, destFile)

	// --- Primary choice: curl ---
	if _, err := exec.LookPath("curl"); err == nil {
		cmd := exec.Command("curl", "-L", "--fail", "-#", "-o", destFile, url)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			debugf("Download successful with curl.\n")
			return nil
		}
		// A dropped transfer must not leave a partial file: the cache
		// check is presence-based.
		_ = os.Remove(destFile)
		debugf("curl failed, falling back to wget\n")
	} else {
		debugf("curl not found, trying wget\n")
	}

	// --- Fallback 1: wget ---
	if _, err := exec.LookPath("wget"); err == nil {
		cmd := exec.Command("wget", "-nv", "-O", destFile, url)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			debugf("Download successful with wget.\n")
			return nil
		}
		_ = os.Remove(destFile)
		debugf("wget failed, falling back to native Go HTTP client\n")
	} else {
		debugf("wget not found, using native Go HTTP client\n")
	}

	// --- Fallback 2: native HTTP client ---
	resp, err := newHTTPClient().Get(url)
	if err != nil {
		return fmt.Errorf("native http get failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	out, err := os.Create(destFile)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", destFile, err)
	}
	defer out.Close()

	bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(destFile))
	if _, err := io.Copy(io.MultiWriter(out, bar), resp.Body); err != nil {
		out.Close()
		_ = os.Remove(destFile)
		return fmt.Errorf("failed to write to destination file: %w", err)
	}
	return nil
}
