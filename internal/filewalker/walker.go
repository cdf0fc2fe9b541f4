package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
)

// Walker finds files whose base name matches one of the include patterns and
// that are not excluded. Exclude patterns match a file or directory base name
// or its slash-separated path relative to the walk root; an excluded
// directory is not descended into.
type Walker struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewWalker compiles the include and exclude glob patterns.
func NewWalker(include, exclude []string) (*Walker, error) {
	w := &Walker{}
	for _, p := range include {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile include pattern %q: %w", p, err)
		}
		w.include = append(w.include, g)
	}
	for _, p := range exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", p, err)
		}
		w.exclude = append(w.exclude, g)
	}
	return w, nil
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	// Path is the absolute path of the file.
	Path string
	// Rel is the slash-separated path relative to the walk root.
	Rel string
}

// Walk discovers all matching files under root in lexical order.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && w.excluded(d.Name(), rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.included(d.Name()) || w.excluded(d.Name(), rel) {
			return nil
		}

		entries = append(entries, FileEntry{Path: path, Rel: rel})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Debug().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}

func (w *Walker) included(name string) bool {
	for _, g := range w.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (w *Walker) excluded(name, rel string) bool {
	for _, g := range w.exclude {
		if g.Match(name) || g.Match(rel) {
			return true
		}
	}
	return false
}

// SkipDir reports whether the directory at path, below root, matches an
// exclude pattern.
func (w *Walker) SkipDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return w.excluded(filepath.Base(path), filepath.ToSlash(rel))
}
