package build

import (
	"assetforge/internal/config"
	"assetforge/internal/pathutil"
)

// ResolvedEntry is the canonical form of one output's declaration: every path
// expanded to absolute, the target computed with its trailing-separator
// directory marker preserved.
type ResolvedEntry struct {
	Output   string
	Sources  []string
	External []string
	Format   string
	Target   string
}

// ResolveEntry normalizes an entry declaration against the map's source and
// target roots. Resolution is total for well-formed entries; malformed shapes
// were already rejected at map-load time.
func ResolveEntry(m *config.AppMap, name string, spec config.EntrySpec) ResolvedEntry {
	entry := ResolvedEntry{
		Output: name,
		Format: spec.Format,
		Target: pathutil.Absolute(m.Target, name),
	}
	for _, s := range spec.Sources {
		entry.Sources = append(entry.Sources, pathutil.Absolute(m.Source, s))
	}
	for _, x := range spec.External {
		entry.External = append(entry.External, pathutil.Absolute(m.Source, x))
	}
	return entry
}
