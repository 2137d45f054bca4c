package build

import (
	"errors"
	"strings"

	"assetforge/internal/fsops"
	"assetforge/internal/pathutil"
)

// ReconcileStale decides whether a changed (or vanished) path has left an
// orphaned artifact at the target, and removes it. It applies only to
// pass-through entries and always evaluates against the entry's current
// source list.
//
// The changed path still corresponds to a live source when it matches a
// source entry exactly and that file exists, or when it sits under a source
// directory that still exists and the path itself still exists. When neither
// holds but the path did belong to a source entry, the previously-copied
// artifact is stale and is deleted. Paths matching no source entry at all are
// left alone: the artifact is kept.
func ReconcileStale(entry ResolvedEntry, changed string) (bool, error) {
	artifact := ""
	for _, src := range entry.Sources {
		exact := strings.TrimSuffix(src, "/") == strings.TrimSuffix(changed, "/")
		switch {
		case exact:
			if fsops.Exists(src) {
				return false, nil
			}
			artifact = fsops.TargetPath(entry.Target, src)
		case fsops.IsDir(src) && strings.HasPrefix(changed, pathutil.WithTrailingSlash(strings.TrimSuffix(src, "/"))):
			if !fsops.Exists(src) {
				// The whole source directory vanished; its copied tree is stale.
				artifact = fsops.TargetPath(entry.Target, src)
				break
			}
			if fsops.Exists(changed) {
				return false, nil
			}
			rel := strings.TrimPrefix(changed, pathutil.WithTrailingSlash(strings.TrimSuffix(src, "/")))
			artifact = pathutil.WithTrailingSlash(fsops.TargetPath(entry.Target, src)) + rel
		}
		if artifact != "" {
			break
		}
	}

	// No source entry claims this path: treat conservatively, keep the target.
	if artifact == "" {
		return false, nil
	}
	if !fsops.Exists(artifact) {
		return false, nil
	}
	if err := fsops.RemoveTree(artifact); err != nil {
		return false, err
	}
	return true, nil
}

func joinErrs(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
