package handlers

import (
	"bytes"
	"context"
	"path"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	ferrors "assetforge/internal/errors"
	"assetforge/internal/filetype"
	"assetforge/internal/pathutil"
	"assetforge/internal/refmap"
	"assetforge/internal/util/sets"
)

// markupRefPattern matches include directives embedded in HTML comments:
//
//	<!--#include "header.html" -->
var markupRefPattern = regexp.MustCompile(`<!--#include[ \t]+"([^"]+)"[ \t]*-->`)

// Markup expands include directives and renders markdown sources to HTML.
type Markup struct {
	Mapper *refmap.Mapper
	md     goldmark.Markdown
}

// NewMarkup constructs a markup handler with GFM extensions enabled.
func NewMarkup(mapper *refmap.Mapper) *Markup {
	return &Markup{
		Mapper: mapper,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (h *Markup) DiscoverReferences(_ context.Context, root string, external []string) ([]string, error) {
	return h.mapper().Discover(root, markupRefPattern, sets.New(external...))
}

func (h *Markup) Compile(_ context.Context, req filetype.Request) (*filetype.Artifact, error) {
	var buf bytes.Buffer
	external := sets.New(req.External...)
	for _, src := range req.Sources {
		expanded, err := h.expand(src, external, sets.New(src))
		if err != nil {
			return nil, err
		}
		if isMarkdown(src) {
			var html bytes.Buffer
			if err := h.markdown().Convert(expanded, &html); err != nil {
				return nil, ferrors.Wrap(err, ferrors.CategoryCompile, "render markdown").WithContext("source", src)
			}
			expanded = html.Bytes()
		}
		buf.Write(expanded)
	}
	return &filetype.Artifact{Content: buf.Bytes()}, nil
}

// expand replaces include directives with the referenced file's content,
// recursively. visited guards against include cycles; a file already on the
// current expansion path expands to nothing.
func (h *Markup) expand(file string, external, visited sets.Set[string]) ([]byte, error) {
	data, err := h.mapper().ReadFile(file)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.CategoryCompile, "read markup source").WithContext("file", file)
	}

	dir := path.Dir(file)
	var expandErr error
	out := markupRefPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		sub := markupRefPattern.FindSubmatch(match)
		if len(sub) < 2 {
			return nil
		}
		ref := pathutil.Absolute(dir, string(sub[1]))
		if external.Has(ref) || visited.Has(ref) {
			return nil
		}
		visited.Add(ref)
		inner, err := h.expand(ref, external, visited)
		visited.Delete(ref)
		if err != nil && expandErr == nil {
			expandErr = err
		}
		return inner
	})
	if expandErr != nil {
		return nil, expandErr
	}
	return out, nil
}

func (h *Markup) mapper() *refmap.Mapper {
	if h.Mapper != nil {
		return h.Mapper
	}
	return refmap.New()
}

func (h *Markup) markdown() goldmark.Markdown {
	if h.md == nil {
		h.md = goldmark.New(goldmark.WithExtensions(extension.GFM))
	}
	return h.md
}

func isMarkdown(p string) bool {
	switch path.Ext(p) {
	case ".md", ".markdown":
		return true
	}
	return false
}
