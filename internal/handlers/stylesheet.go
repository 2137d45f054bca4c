package handlers

import (
	"context"
	"regexp"

	"assetforge/internal/filetype"
	"assetforge/internal/refmap"
	"assetforge/internal/util/sets"
)

// stylesheetRefPattern matches plain CSS import statements:
//
//	@import "base.css";
//	@import url("theme/dark.css");
var stylesheetRefPattern = regexp.MustCompile(`(?m)^[ \t]*@import[ \t]+(?:url\()?["']([^"')]+)["']\)?[ \t]*;?[ \t]*$`)

// Stylesheet inlines a root stylesheet's transitive imports into one artifact.
type Stylesheet struct {
	Mapper *refmap.Mapper
}

func (s *Stylesheet) DiscoverReferences(_ context.Context, root string, external []string) ([]string, error) {
	return s.mapper().Discover(root, stylesheetRefPattern, sets.New(external...))
}

func (s *Stylesheet) Compile(_ context.Context, req filetype.Request) (*filetype.Artifact, error) {
	content, err := concatUnits(s.mapper(), stylesheetRefPattern, req, stripDirective(stylesheetRefPattern))
	if err != nil {
		return nil, err
	}
	return &filetype.Artifact{Content: content}, nil
}

func (s *Stylesheet) mapper() *refmap.Mapper {
	if s.Mapper != nil {
		return s.Mapper
	}
	return refmap.New()
}
