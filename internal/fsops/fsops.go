// Package fsops provides the filesystem side effects used by the build
// orchestrator: target directory creation, full-overwrite writes, single-file
// and tree copies, and recursive removal for stale artifacts.
package fsops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"assetforge/internal/pathutil"
)

// TargetPath computes the destination for src given a target path. A target
// ending in a separator means "place under this directory with the source's
// original name"; otherwise the target is the exact destination name.
func TargetPath(target, src string) string {
	if pathutil.IsDirPath(target) {
		base := filepath.Base(strings.TrimSuffix(src, "/"))
		return target + base
	}
	return target
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// WriteFile writes content to path with full-overwrite semantics, creating
// missing intermediate directories first.
func WriteFile(path string, content []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write target file: %w", err)
	}
	return nil
}

// CopyFile copies a single regular file, creating the destination's parent
// directories as needed and overwriting any existing file.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// pendingDir is one unit of tree-copy work.
type pendingDir struct {
	src string
	dst string
}

// CopyTree reproduces the full relative subtree of src under dst. Recursion is
// over an explicit queue of pending directories rather than call-stack
// recursion, so arbitrarily deep trees cannot exhaust the stack.
func CopyTree(src, dst string) error {
	src = strings.TrimSuffix(src, "/")
	dst = strings.TrimSuffix(dst, "/")

	queue := []pendingDir{{src: src, dst: dst}}
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]

		if err := EnsureDir(d.dst); err != nil {
			return fmt.Errorf("create directory %s: %w", d.dst, err)
		}
		entries, err := os.ReadDir(d.src)
		if err != nil {
			return fmt.Errorf("read directory %s: %w", d.src, err)
		}
		for _, entry := range entries {
			srcPath := filepath.Join(d.src, entry.Name())
			dstPath := filepath.Join(d.dst, entry.Name())
			if entry.IsDir() {
				queue = append(queue, pendingDir{src: srcPath, dst: dstPath})
				continue
			}
			if err := CopyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveTree removes path and, for directories, everything beneath it.
func RemoveTree(path string) error {
	return os.RemoveAll(strings.TrimSuffix(path, "/"))
}

// Exists reports whether path names an existing filesystem entry.
func Exists(path string) bool {
	_, err := os.Stat(strings.TrimSuffix(path, "/"))
	return err == nil
}

// IsDir reports whether path names an existing directory, honoring the
// trailing-separator marker for paths that no longer exist.
func IsDir(path string) bool {
	info, err := os.Stat(strings.TrimSuffix(path, "/"))
	if err != nil {
		return pathutil.IsDirPath(path)
	}
	return info.IsDir()
}
