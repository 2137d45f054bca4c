package handlers

import (
	"regexp"

	"assetforge/internal/filetype"
	"assetforge/internal/refmap"
)

// DefaultRegistry returns the built-in descriptor table: scripts, stylesheets,
// markup, and the pass-through static-file group (which also serves as the
// fallback for unmatched output names).
func DefaultRegistry() filetype.Registry {
	m := refmap.New()
	return filetype.NewRegistry(
		filetype.Descriptor{ID: "script", Match: regexp.MustCompile(`\.js$`), Handler: &Script{Mapper: m}},
		filetype.Descriptor{ID: "stylesheet", Match: regexp.MustCompile(`\.css$`), Handler: &Stylesheet{Mapper: m}},
		filetype.Descriptor{ID: "markup", Match: regexp.MustCompile(`\.html?$`), Handler: NewMarkup(m)},
		filetype.Descriptor{ID: "files", Match: regexp.MustCompile(`/$`), PassThrough: true, Handler: Files{}},
	)
}
