package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "assetforge/internal/errors"
)

func TestParseEntryShapes(t *testing.T) {
	m, err := Parse([]byte(`
source: app/src
target: public
entries:
  app.js:
    source: [main.js, admin.js]
    external: [vendor/jquery.js]
    format: iife
  style.css: css/site.css
  assets/: [images/, fonts/]
`))
	require.NoError(t, err)

	assert.Equal(t, "app/src", m.Source)
	assert.Equal(t, "public", m.Target)

	app := m.Entries["app.js"]
	assert.Equal(t, []string{"main.js", "admin.js"}, app.Sources)
	assert.Equal(t, []string{"vendor/jquery.js"}, app.External)
	assert.Equal(t, "iife", app.Format)

	assert.Equal(t, []string{"css/site.css"}, m.Entries["style.css"].Sources)
	assert.Equal(t, []string{"images/", "fonts/"}, m.Entries["assets/"].Sources)
}

func TestParseRejectsMissingEntries(t *testing.T) {
	_, err := Parse([]byte("source: app\ntarget: public\n"))
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryConfig, ferrors.CategoryOf(err))
}

func TestParseRejectsMalformedEntry(t *testing.T) {
	cases := map[string]string{
		"object without source": "entries:\n  app.js:\n    format: iife\n",
		"numeric mapping value": "entries:\n  app.js:\n    source: {a: 1}\n",
		"empty source path":     "entries:\n  app.js: \"\"\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("ASSET_SOURCE_ROOT", "env/src")
	m, err := Parse([]byte("source: ${ASSET_SOURCE_ROOT}\nentries:\n  app.js: main.js\n"))
	require.NoError(t, err)
	assert.Equal(t, "env/src", m.Source)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "assetmap.yaml")
	require.NoError(t, os.WriteFile(mapPath, []byte("entries:\n  app.js: main.js\n"), 0o644))

	m, err := Load(mapPath)
	require.NoError(t, err)
	assert.Len(t, m.Entries, 1)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryConfig, ferrors.CategoryOf(err))
}

func TestLoadReadsEnvNextToMap(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("ASSETFORGE_TEST_TARGET=public\n"), 0o644))

	mapPath := filepath.Join(dir, "assetmap.yaml")
	require.NoError(t, os.WriteFile(mapPath,
		[]byte("target: ${ASSETFORGE_TEST_TARGET}\nentries:\n  app.js: main.js\n"), 0o644))

	// The .env sits next to the map, not in the process working directory.
	m, err := Load(mapPath)
	require.NoError(t, err)
	assert.Equal(t, "public", m.Target)
}
