// Package handlers provides the built-in compilation backends wired into the
// default file-type registry: script and stylesheet concatenation, markup
// rendering, and the pass-through static-file group.
package handlers

import (
	"bytes"
	"context"
	"regexp"

	ferrors "assetforge/internal/errors"
	"assetforge/internal/filetype"
	"assetforge/internal/refmap"
	"assetforge/internal/util/sets"
)

// scriptRefPattern matches require directives of the form:
//
//	//= require util.js
//	//= require "lib/http"
var scriptRefPattern = regexp.MustCompile(`(?m)^[ \t]*//=[ \t]*require[ \t]+"?([^"\s]+)"?[ \t]*$`)

// Script concatenates a root script with its transitively required files.
type Script struct {
	Mapper *refmap.Mapper
}

// FormatIIFE wraps the concatenated artifact in an immediately invoked
// function expression when set as an entry's format.
const FormatIIFE = "iife"

func (s *Script) DiscoverReferences(_ context.Context, root string, external []string) ([]string, error) {
	return s.mapper().Discover(root, scriptRefPattern, sets.New(external...))
}

func (s *Script) Compile(_ context.Context, req filetype.Request) (*filetype.Artifact, error) {
	content, err := concatUnits(s.mapper(), scriptRefPattern, req, stripDirective(scriptRefPattern))
	if err != nil {
		return nil, err
	}
	if req.Format == FormatIIFE {
		var buf bytes.Buffer
		buf.WriteString("(function() {\n")
		buf.Write(content)
		buf.WriteString("})();\n")
		content = buf.Bytes()
	}
	return &filetype.Artifact{Content: content}, nil
}

func (s *Script) mapper() *refmap.Mapper {
	if s.Mapper != nil {
		return s.Mapper
	}
	return refmap.New()
}

// concatUnits discovers each source's reference set and concatenates the
// member files in discovery order, deduplicated across sources, with reference
// directives removed. A member that cannot be read fails the whole compile;
// discovery has already succeeded by then only for readable branches, so any
// accumulated discovery error is fatal here.
func concatUnits(m *refmap.Mapper, pattern *regexp.Regexp, req filetype.Request, strip func([]byte) []byte) ([]byte, error) {
	var buf bytes.Buffer
	seen := sets.New[string]()
	external := sets.New(req.External...)

	for _, src := range req.Sources {
		files, err := m.Discover(src, pattern, external)
		if err != nil {
			return nil, ferrors.Wrap(err, ferrors.CategoryCompile, "resolve references").WithContext("source", src)
		}
		for _, f := range files {
			if seen.Has(f) {
				continue
			}
			seen.Add(f)
			data, err := m.ReadFile(f)
			if err != nil {
				return nil, ferrors.Wrap(err, ferrors.CategoryCompile, "read source").WithContext("file", f)
			}
			buf.Write(strip(data))
			if buf.Len() > 0 && buf.Bytes()[buf.Len()-1] != '\n' {
				buf.WriteByte('\n')
			}
		}
	}
	return buf.Bytes(), nil
}

// stripDirective removes whole lines matching the reference pattern.
func stripDirective(pattern *regexp.Regexp) func([]byte) []byte {
	return func(data []byte) []byte {
		out := pattern.ReplaceAll(data, nil)
		return bytes.TrimLeft(out, "\n")
	}
}
