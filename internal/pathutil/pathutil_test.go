package pathutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbsolute(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		base     string
		fragment string
		want     string
	}{
		{"absolute base", "/srv/app", "main.js", "/srv/app/main.js"},
		{"duplicate separators collapsed", "/srv/app/", "/main.js", "/srv/app/main.js"},
		{"relative base rooted at cwd", "src", "main.js", wd + "/src/main.js"},
		{"empty base", "", "main.js", wd + "/main.js"},
		{"empty base absolute fragment", "", "/srv/main.js", "/srv/main.js"},
		{"trailing separator preserved", "/srv/out", "assets/", "/srv/out/assets/"},
		{"empty fragment keeps dir marker", "/srv/out/", "", "/srv/out/"},
		{"parent segments resolved", "/srv/app/lib", "../shared.js", "/srv/app/shared.js"},
		{"current-dir segments folded", "./src", "./main.js", wd + "/src/main.js"},
		{"dir marker survives normalization", "/srv/out", "assets/../static/", "/srv/out/static/"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Absolute(c.base, c.fragment))
		})
	}
}

func TestDirMarkers(t *testing.T) {
	assert.True(t, IsDirPath("/out/assets/"))
	assert.False(t, IsDirPath("/out/app.js"))
	assert.Equal(t, "/out/assets/", WithTrailingSlash("/out/assets"))
	assert.Equal(t, "/out/assets/", WithTrailingSlash("/out/assets/"))
}
