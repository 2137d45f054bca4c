package handlers

import (
	"context"

	ferrors "assetforge/internal/errors"
	"assetforge/internal/filetype"
	"assetforge/internal/refmap"
)

// Files is the pass-through handler for static-file groups. It has no compile
// step; the orchestrator applies copy/remove semantics to its discovery output.
type Files struct{}

func (Files) Compile(context.Context, filetype.Request) (*filetype.Artifact, error) {
	return nil, ferrors.Internal("static file groups have no compile step")
}

// DiscoverReferences is the degenerate discovery case: glob expansion only,
// no recursive reference-following.
func (Files) DiscoverReferences(_ context.Context, root string, _ []string) ([]string, error) {
	return refmap.Glob(root)
}
