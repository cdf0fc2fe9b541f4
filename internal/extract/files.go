package extract

import (
	"context"
	"errors"
	"fmt"
	"os"

	"i18nextract/internal/cache"
	"i18nextract/internal/domain"
	"i18nextract/internal/filewalker"
	"i18nextract/internal/lexer"
	"i18nextract/internal/message"
	"i18nextract/internal/worker"

	"github.com/rs/zerolog/log"
)

// selfNames are never scanned: they contain marker calls of their own.
var selfNames = []string{"extract.py", "pygettext.py"}

// Options configures a source tree scan.
type Options struct {
	Marker  string
	Keyword string
	// Exclude holds glob patterns for files or directories to skip.
	Exclude []string
	// Predicate decides whether a file belongs to the domain. Nil keeps all files.
	Predicate domain.Predicate
	// Workers is the number of files scanned concurrently. Values below 1 mean 1.
	Workers int
	// Cache, when set, returns earlier results for files whose content did
	// not change.
	Cache *cache.Cache[FileResult]
}

// FileResult is the outcome of scanning one file.
type FileResult struct {
	Path      string
	Set       message.Set
	Conflicts []Conflict
	// Err is the tokenization error that cut the scan short, if any. The
	// entries collected before it are still in Set.
	Err error
}

// ScanSource feeds src through a scanner. A tokenization or literal error
// stops the scan; the scanner keeps everything collected before it.
func ScanSource(file string, src []byte, marker, keyword string) (*Scanner, error) {
	s := NewScanner(file, marker, keyword)
	lx := lexer.New(src)
	for {
		tok, err := lx.Next()
		if err != nil {
			return s, err
		}
		if err := s.Feed(tok); err != nil {
			return s, &lexer.Error{Msg: err.Error(), Line: tok.Line, Col: tok.Col}
		}
		if tok.Kind == lexer.EOF {
			return s, nil
		}
	}
}

// ScanFile scans one file. Only an unreadable file is an error; a
// tokenization failure is logged and reported in FileResult.Err.
func ScanFile(path, marker, keyword string) (FileResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	return scanBytes(path, src, marker, keyword), nil
}

func scanBytes(path string, src []byte, marker, keyword string) FileResult {
	s, scanErr := ScanSource(path, src, marker, keyword)
	if scanErr != nil {
		ev := log.Error().Str("file", path)
		var lerr *lexer.Error
		if errors.As(scanErr, &lerr) {
			ev = ev.Int("line", lerr.Line).Int("column", lerr.Col).Str("reason", lerr.Msg)
		} else {
			ev = ev.Err(scanErr)
		}
		ev.Msg("Tokenization failed, keeping strings found so far")
	}
	for _, c := range s.Conflicts() {
		log.Warn().
			Str("file", c.At.File).
			Int("line", c.At.Line).
			Str("msgid", c.Kept.Text).
			Str("kept", c.Kept.Default).
			Str("ignored", c.Rejected.Default).
			Msg("Conflicting default text")
	}
	return FileResult{Path: path, Set: s.Result(), Conflicts: s.Conflicts(), Err: scanErr}
}

func scanCached(path string, opts Options) (FileResult, error) {
	if opts.Cache == nil {
		return ScanFile(path, opts.Marker, opts.Keyword)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	if r, ok := opts.Cache.Get(path, src); ok {
		return r, nil
	}
	r := scanBytes(path, src, opts.Marker, opts.Keyword)
	opts.Cache.Set(path, src, r)
	return r, nil
}

// PyStrings scans every *.py file under root that passes the domain
// predicate. Results follow the walker's lexical file order regardless of
// the number of workers.
func PyStrings(ctx context.Context, root string, opts Options) ([]FileResult, error) {
	exclude := append(append([]string{}, selfNames...), opts.Exclude...)
	w, err := filewalker.NewWalker([]string{"*.py"}, exclude)
	if err != nil {
		return nil, err
	}
	files, err := w.Walk(root)
	if err != nil {
		return nil, err
	}

	pred := opts.Predicate
	if pred == nil {
		pred = domain.Any
	}
	var paths []string
	for _, f := range files {
		if pred(f.Path) == domain.Mismatch {
			continue
		}
		paths = append(paths, f.Path)
	}

	pool := worker.NewPool(opts.Workers, func(_ context.Context, path string) (FileResult, error) {
		return scanCached(path, opts)
	})
	tasks := pool.Execute(ctx, paths)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Cache != nil {
		opts.Cache.Retain(paths)
	}

	results := make([]FileResult, 0, len(tasks))
	for _, t := range tasks {
		if t.Err != nil {
			log.Warn().Err(t.Err).Msg("Skipping unreadable file")
			continue
		}
		results = append(results, t.Result)
	}
	log.Debug().Int("files", len(results)).Str("root", root).Msg("Scanned Python sources")
	return results, nil
}
