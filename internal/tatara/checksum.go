package tatara

import (
	"fmt"
	"io"
	"os"
	"strings"

	"lukechampine.com/blake3"
)

// hashString returns the BLAKE3 hex digest of s (32-byte output, no key).
func hashString(s string) string {
	h := blake3.New(32, nil)
	h.Write([]byte(s))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// hashFile returns the BLAKE3 hex digest of a file's content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// writeChecksumSidecar records the archive digest next to the cached
// archive so later runs can detect a corrupted cache entry.
func writeChecksumSidecar(archive string) error {
	sum, err := hashFile(archive)
	if err != nil {
		return err
	}
	return os.WriteFile(archive+".b3", []byte(sum+"\n"), 0o644)
}

// verifyChecksumSidecar re-hashes a cached archive against its sidecar.
// A missing sidecar is accepted and created; a mismatch is an error.
func verifyChecksumSidecar(archive string) error {
	data, err := os.ReadFile(archive + ".b3")
	if os.IsNotExist(err) {
		return writeChecksumSidecar(archive)
	}
	if err != nil {
		return err
	}
	want := strings.TrimSpace(string(data))

	got, err := hashFile(archive)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("cached archive %s is corrupted (checksum mismatch)", archive)
	}
	return nil
}
