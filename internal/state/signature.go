package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
)

// Signature computes a deterministic content hash over a set of files. The
// hash covers each file's path and content, sorted by path, so two builds with
// identical signatures can safely reuse artifacts. readFile defaults to
// os.ReadFile when nil.
func Signature(files []string, readFile func(string) ([]byte, error)) (string, error) {
	if readFile == nil {
		readFile = os.ReadFile
	}

	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	h := sha256.New()
	for _, f := range sorted {
		data, err := readFile(f)
		if err != nil {
			return "", fmt.Errorf("hash %s: %w", f, err)
		}
		h.Write([]byte(f))
		h.Write([]byte{0})
		h.Write(data)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
