// # internal/scanner/scanner.go

// Package scanner discovers the source files eligible for tracking
// analysis under the configured scan roots.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"trackscan/internal/analyzer"
)

// Scanner walks scan roots and returns the files the analyzer registry can
// handle, minus anything matched by the exclude globs.
type Scanner struct {
	registry  *analyzer.Registry
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
}

func New(registry *analyzer.Registry, excludeDirs, excludeFiles []string) (*Scanner, error) {
	dirGlobs, err := compileGlobs(excludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(excludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}
	return &Scanner{registry: registry, dirGlobs: dirGlobs, fileGlobs: fileGlobs}, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// UniqueRoots normalizes scan paths to absolute form, drops duplicates, and
// returns them sorted.
func UniqueRoots(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized := filepath.Clean(p)
		if abs, err := filepath.Abs(normalized); err == nil {
			normalized = filepath.Clean(abs)
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		roots = append(roots, normalized)
	}
	sort.Strings(roots)
	return roots
}

// Scan walks every root and returns the supported files in walk order.
func (s *Scanner) Scan(roots []string) ([]string, error) {
	var files []string
	for _, root := range UniqueRoots(roots) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			base := filepath.Base(path)
			if d.IsDir() {
				for _, g := range s.dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}
			if !s.registry.Supports(path) {
				return nil
			}
			for _, g := range s.fileGlobs {
				if g.Match(base) {
					return nil
				}
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// Excluded reports whether a path matches the exclude globs, checking the
// file name and every ancestor directory name. Change events from the
// watcher arrive outside a walk, so the directory skip has to be replayed
// against the full path.
func (s *Scanner) Excluded(path string) bool {
	base := filepath.Base(path)
	for _, g := range s.fileGlobs {
		if g.Match(base) {
			return true
		}
	}
	dir := filepath.Dir(path)
	for {
		name := filepath.Base(dir)
		for _, g := range s.dirGlobs {
			if g.Match(name) {
				return true
			}
		}
		next := filepath.Dir(dir)
		if next == dir {
			break
		}
		dir = next
	}
	return false
}
