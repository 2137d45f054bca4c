package refmap

import (
	"os"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "assetforge/internal/errors"
	"assetforge/internal/pathutil"
)

// Glob is the degenerate discovery step for static-file groups: it resolves a
// glob-style pattern directly to matching filesystem entries with no recursive
// reference-following. Patterns without meta characters resolve to themselves
// when the entry exists. A trailing-separator directory marker is stripped
// before matching and re-applied to directory results.
func Glob(pattern string) ([]string, error) {
	trimmed := pattern
	if pathutil.IsDirPath(trimmed) {
		trimmed = trimmed[:len(trimmed)-1]
	}
	matches, err := doublestar.FilepathGlob(trimmed)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.CategoryDiscovery, "bad file group pattern").WithContext("pattern", pattern)
	}
	if len(matches) == 0 {
		return nil, ferrors.Discovery("file group matched nothing").WithContext("pattern", pattern)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if info, statErr := os.Stat(m); statErr == nil && info.IsDir() {
			m = pathutil.WithTrailingSlash(m)
		}
		out = append(out, m)
	}
	return out, nil
}
