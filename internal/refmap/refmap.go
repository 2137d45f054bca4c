// Package refmap implements lightweight, pattern-based transitive reference
// discovery. Given a root file and a textual reference-declaration pattern it
// produces the full, deduplicated, cycle-safe set of files that compose the
// logical unit rooted at that file. Discovery is intentionally shallow: no
// parsing beyond regular-expression matching.
package refmap

import (
	"errors"
	"os"
	"path"
	"regexp"

	ferrors "assetforge/internal/errors"
	"assetforge/internal/pathutil"
	"assetforge/internal/util/sets"
)

// Mapper discovers transitive references. The zero value is not usable;
// construct with New.
type Mapper struct {
	// ReadFile is injectable for tests; defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

// New returns a Mapper backed by the real filesystem.
func New() *Mapper {
	return &Mapper{ReadFile: os.ReadFile}
}

// Discover returns the ordered set of absolute file paths reachable from root
// via pattern matches, root first. pattern must carry one capture group
// extracting the referenced path. Members of external are treated as already
// satisfied and are not visited, which also prunes their entire subtree.
//
// A reference that cannot be read is surfaced as a per-branch discovery error;
// sibling branches continue. The accumulated branch errors are returned
// (joined) alongside the still-valid result, and the caller decides whether
// they are fatal.
func (m *Mapper) Discover(root string, pattern *regexp.Regexp, external sets.Set[string]) ([]string, error) {
	visited := sets.New(root)
	out := []string{root}
	var branchErrs []error
	m.walk(root, pattern, external, visited, &out, &branchErrs)
	return out, errors.Join(branchErrs...)
}

func (m *Mapper) walk(file string, pattern *regexp.Regexp, external sets.Set[string], visited sets.Set[string], out *[]string, branchErrs *[]error) {
	data, err := m.ReadFile(file)
	if err != nil {
		*branchErrs = append(*branchErrs,
			ferrors.Wrap(err, ferrors.CategoryDiscovery, "read referenced file").WithContext("file", file))
		return
	}

	ext := path.Ext(file)
	dir := path.Dir(file)
	for _, match := range pattern.FindAllSubmatch(data, -1) {
		if len(match) < 2 {
			continue
		}
		ref := string(match[1])
		if ref == "" {
			continue
		}
		// Shallow discovery: extension-less references inherit the
		// referencing file's extension.
		if path.Ext(ref) == "" {
			ref += ext
		}
		abs := pathutil.Absolute(dir, ref)
		if external.Has(abs) || visited.Has(abs) {
			continue
		}
		visited.Add(abs)
		*out = append(*out, abs)
		m.walk(abs, pattern, external, visited, out, branchErrs)
	}
}
