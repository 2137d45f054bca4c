// Package pathutil normalizes and joins slash-separated source/target path
// fragments into absolute paths.
package pathutil

import (
	"os"
	"path"
	"strings"
)

// Absolute joins base and fragment with exactly one separator, lexically
// normalizes the result (duplicate separators, "." and ".." segments), and
// roots it at the process working directory when the joined path is relative.
// A trailing separator on fragment is preserved; it marks directory semantics
// for targets. Normalization keeps the result canonical so the same file
// always resolves to the same string regardless of how it was reached.
func Absolute(base, fragment string) string {
	joined := fragment
	if base != "" {
		joined = base + "/" + fragment
	}
	isDir := strings.HasSuffix(joined, "/")
	joined = path.Clean(joined)
	if !strings.HasPrefix(joined, "/") {
		if wd, err := os.Getwd(); err == nil {
			joined = path.Clean(wd + "/" + joined)
		}
	}
	if isDir && joined != "/" {
		joined += "/"
	}
	return joined
}

// WithTrailingSlash ensures p ends with exactly one separator.
func WithTrailingSlash(p string) string {
	return strings.TrimRight(p, "/") + "/"
}

// IsDirPath reports whether p carries the trailing-separator directory marker.
func IsDirPath(p string) bool {
	return strings.HasSuffix(p, "/")
}
