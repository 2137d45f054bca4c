package refmap

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetforge/internal/util/sets"
)

var requirePattern = regexp.MustCompile(`(?m)^//=\s*require\s+(\S+)\s*$`)

// fixtureMapper builds a Mapper over an in-memory file table keyed by absolute path.
func fixtureMapper(files map[string]string) *Mapper {
	return &Mapper{ReadFile: func(p string) ([]byte, error) {
		content, ok := files[p]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(content), nil
	}}
}

func TestDiscoverAcyclicGraph(t *testing.T) {
	m := fixtureMapper(map[string]string{
		"/src/main.js":  "//= require util.js\n//= require lib/a.js\nmain()\n",
		"/src/util.js":  "util()\n",
		"/src/lib/a.js": "//= require b.js\na()\n",
		"/src/lib/b.js": "b()\n",
	})

	got, err := m.Discover("/src/main.js", requirePattern, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/main.js", "/src/util.js", "/src/lib/a.js", "/src/lib/b.js"}, got)
}

func TestDiscoverDeduplicatesSharedReference(t *testing.T) {
	m := fixtureMapper(map[string]string{
		"/src/main.js":   "//= require a.js\n//= require b.js\n",
		"/src/a.js":      "//= require shared.js\n",
		"/src/b.js":      "//= require shared.js\n",
		"/src/shared.js": "shared()\n",
	})

	got, err := m.Discover("/src/main.js", requirePattern, nil)
	require.NoError(t, err)
	// shared.js appears once, at its first-discovered position.
	assert.Equal(t, []string{"/src/main.js", "/src/a.js", "/src/shared.js", "/src/b.js"}, got)
}

func TestDiscoverParentReferenceDeduplicates(t *testing.T) {
	m := fixtureMapper(map[string]string{
		"/src/main.js":   "//= require shared.js\n//= require lib/a.js\n",
		"/src/shared.js": "shared()\n",
		"/src/lib/a.js":  "//= require ../shared.js\n",
	})

	got, err := m.Discover("/src/main.js", requirePattern, nil)
	require.NoError(t, err)
	// The same file reached directly and via ".." resolves to one canonical
	// path and appears exactly once.
	assert.Equal(t, []string{"/src/main.js", "/src/shared.js", "/src/lib/a.js"}, got)
}

func TestDiscoverTerminatesOnCycle(t *testing.T) {
	m := fixtureMapper(map[string]string{
		"/src/a.js": "//= require b.js\n",
		"/src/b.js": "//= require a.js\n",
	})

	got, err := m.Discover("/src/a.js", requirePattern, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/a.js", "/src/b.js"}, got)
}

func TestDiscoverExternalPrunesSubtree(t *testing.T) {
	m := fixtureMapper(map[string]string{
		"/src/main.js":   "//= require vendor.js\n//= require own.js\n",
		"/src/vendor.js": "//= require deep.js\n",
		"/src/own.js":    "own()\n",
		"/src/deep.js":   "deep()\n",
	})

	got, err := m.Discover("/src/main.js", requirePattern, sets.New("/src/vendor.js"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/main.js", "/src/own.js"}, got)
	assert.NotContains(t, got, "/src/deep.js")
}

func TestDiscoverMissingReferenceDoesNotAbortSiblings(t *testing.T) {
	m := fixtureMapper(map[string]string{
		"/src/main.js": "//= require gone.js\n//= require here.js\n",
		"/src/here.js": "here()\n",
	})

	got, err := m.Discover("/src/main.js", requirePattern, nil)
	require.Error(t, err)
	// The missing branch is still a member of the set; the sibling survived.
	assert.Equal(t, []string{"/src/main.js", "/src/gone.js", "/src/here.js"}, got)
}

func TestDiscoverDefaultsExtension(t *testing.T) {
	m := fixtureMapper(map[string]string{
		"/src/main.js": "//= require util\n",
		"/src/util.js": "util()\n",
	})

	got, err := m.Discover("/src/main.js", requirePattern, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/main.js", "/src/util.js"}, got)
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))

	got, err := Glob(filepath.Join(dir, "*.txt"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, got)

	dirs, err := Glob(filepath.Join(dir, "images") + "/")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "images") + "/"}, dirs)

	_, err = Glob(filepath.Join(dir, "missing-*.css"))
	assert.Error(t, err)
}
