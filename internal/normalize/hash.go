package normalize

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileHash computes the hex-encoded SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// RowKey computes a stable identifier for a discrepancy row so a logged fix
// can be matched against later snapshots. Values are trimmed and joined
// with null separators before hashing.
func RowKey(kind string, values ...string) string {
	h := sha256.New()
	for _, v := range values {
		h.Write([]byte(strings.TrimSpace(v)))
		h.Write([]byte{0})
	}
	h.Write([]byte(kind))
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
