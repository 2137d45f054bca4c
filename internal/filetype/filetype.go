// Package filetype defines the file-type descriptor registry that maps output
// names to compilation backends. The registry is an explicit, immutable table
// passed into the orchestrator at construction; there is no hidden module
// state, so tests can substitute doubles freely.
package filetype

import (
	"context"
	"regexp"
)

// Artifact is the result of compiling one output's sources.
type Artifact struct {
	Content []byte
}

// Request carries everything a backend needs to compile one output.
type Request struct {
	// Sources are the absolute root source paths, in declared order.
	Sources []string
	// External paths are excluded from reference discovery (treated as
	// already satisfied, e.g. shared libraries).
	External []string
	// Format is an optional backend-specific output format hint.
	Format string
}

// Handler is the capability contract supplied per file type.
type Handler interface {
	// Compile transforms the request's sources into a single artifact.
	Compile(ctx context.Context, req Request) (*Artifact, error)
	// DiscoverReferences returns the ordered reference set rooted at root,
	// root first, with external subtrees pruned.
	DiscoverReferences(ctx context.Context, root string, external []string) ([]string, error)
}

// Descriptor binds an output-name pattern to a handler.
type Descriptor struct {
	ID    string
	Match *regexp.Regexp
	// PassThrough marks static-file groups with no compile step; the
	// orchestrator applies copy/remove semantics directly.
	PassThrough bool
	Handler     Handler
}

// Registry is a fixed, ordered descriptor table. The first descriptor whose
// pattern matches an output name wins; output names matched by none fall back
// to the first pass-through descriptor.
type Registry struct {
	descriptors []Descriptor
	fallback    Descriptor
}

// NewRegistry builds a registry from descriptors in priority order. At least
// one pass-through descriptor must be present; it doubles as the fallback.
func NewRegistry(descriptors ...Descriptor) Registry {
	r := Registry{descriptors: descriptors}
	for _, d := range descriptors {
		if d.PassThrough {
			r.fallback = d
			break
		}
	}
	return r
}

// Select returns the descriptor owning the given output name.
func (r Registry) Select(outputName string) Descriptor {
	for _, d := range r.descriptors {
		if d.Match != nil && d.Match.MatchString(outputName) {
			return d
		}
	}
	return r.fallback
}

// Descriptors returns the table in priority order.
func (r Registry) Descriptors() []Descriptor {
	return r.descriptors
}
