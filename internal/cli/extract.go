package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"i18nextract/internal/cache"
	"i18nextract/internal/catalog"
	"i18nextract/internal/config"
	"i18nextract/internal/declcfg"
	"i18nextract/internal/domain"
	"i18nextract/internal/extract"
	"i18nextract/internal/filewalker"
	"i18nextract/internal/graph"
	"i18nextract/internal/markup"
	"i18nextract/internal/po"
	"i18nextract/internal/store"
	"i18nextract/internal/watcher"

	"github.com/rs/zerolog/log"
)

func runExtract(ctx context.Context, cfg *config.Config) error {
	log.Info().
		Str("path", cfg.Path).
		Str("base_dir", cfg.BaseDir()).
		Str("site_zcml", cfg.SiteZCML).
		Str("domain", cfg.Domain).
		Bool("include_default_domain", cfg.IncludeDefaultDomain).
		Bool("python_only", cfg.PythonOnly).
		Strs("exclude", cfg.Exclude).
		Int("workers", cfg.Workers).
		Msg("Extracting messages")

	codec, err := po.NewCodec(cfg.Charset, cfg.PassNonASCII)
	if err != nil {
		return err
	}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(filepath.Join(cfg.Path, cfg.OutputDir), 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	scans := cache.New[extract.FileResult]()
	cat, err := extractOnce(ctx, cfg, codec, scans)
	if err != nil {
		return err
	}
	if err := publish(ctx, cfg, cat); err != nil {
		return err
	}
	if !cfg.Watch {
		return nil
	}
	return watch(ctx, cfg, codec, scans)
}

// extractOnce collects all strings and writes the template. Python scans
// are reused from scans for unchanged files.
func extractOnce(ctx context.Context, cfg *config.Config, codec *po.Codec, scans *cache.Cache[extract.FileResult]) (*catalog.Catalog, error) {
	opts := []catalog.Option{catalog.WithCodec(codec), catalog.WithStrictDefaults(cfg.StrictDefaults)}
	if cfg.HeaderTemplate != "" {
		opts = append(opts, catalog.WithHeaderTemplate(cfg.HeaderTemplate))
	}
	cat, err := catalog.New(cfg.OutputFile(), cfg.Path, opts...)
	if err != nil {
		return nil, err
	}
	baseDir := cfg.BaseDir()

	pyOpts := extract.Options{
		Marker:  cfg.Marker,
		Keyword: cfg.Keyword,
		Exclude: cfg.Exclude,
		Workers: cfg.Workers,
		Cache:   scans,
	}
	if cfg.VerifyDomain {
		pyOpts.Predicate = domain.FactoryInspector{Domain: cfg.Domain, Marker: cfg.Marker}.Predicate()
	}
	results, err := extract.PyStrings(ctx, cfg.Path, pyOpts)
	if err != nil {
		return nil, fmt.Errorf("scan Python sources: %w", err)
	}
	for _, r := range results {
		if cfg.StrictDefaults && len(r.Conflicts) > 0 {
			c := r.Conflicts[0]
			return nil, &catalog.ConflictError{Text: c.Kept.Text, Kept: c.Kept, Rejected: c.Rejected, At: c.At}
		}
		if err := cat.Add(r.Set, baseDir); err != nil {
			return nil, err
		}
	}
	log.Info().Int("files", len(results)).Int("messages", cat.Len()).Msg("Python strings extracted")

	if !cfg.PythonOnly {
		if err := mergeDeclarations(cfg, cat, baseDir); err != nil {
			return nil, err
		}
	}

	if err := cat.Write(); err != nil {
		return nil, err
	}
	log.Info().Str("output", cat.Output()).Int("messages", cat.Len()).Msg("Wrote message template")
	return cat, nil
}

func mergeDeclarations(cfg *config.Config, cat *catalog.Catalog, baseDir string) error {
	if cfg.SiteZCML != "" {
		set, err := declcfg.ZCMLStrings(cfg.SiteZCML, cfg.Path, cfg.Domain)
		if err != nil {
			log.Error().Err(err).Str("file", cfg.SiteZCML).Msg("Could not read ZCML configuration, skipping")
		} else if err := cat.Add(set, ""); err != nil {
			return err
		}
	}

	set, err := declcfg.YAMLStrings(cfg.Path, cfg.Domain, cfg.YAMLPattern, cfg.Exclude)
	if err != nil {
		return fmt.Errorf("scan YAML declarations: %w", err)
	}
	if err := cat.Add(set, baseDir); err != nil {
		return err
	}

	set, err = markup.Strings(cfg.Path, markup.Options{
		Domain:         cfg.Domain,
		IncludeDefault: cfg.IncludeDefaultDomain,
		Pattern:        cfg.TemplatePattern,
		Exclude:        cfg.Exclude,
	})
	if err != nil {
		return fmt.Errorf("scan page templates: %w", err)
	}
	if err := cat.Add(set, baseDir); err != nil {
		return err
	}
	log.Info().Int("messages", cat.Len()).Msg("Template and configuration strings merged")
	return nil
}

// publish sends the written catalog to the enabled stores.
func publish(ctx context.Context, cfg *config.Config, cat *catalog.Catalog) error {
	if cfg.Record {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		s := store.New(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			return err
		}
		res, err := s.Record(ctx, store.Run{
			Domain:  cfg.Domain,
			Output:  cat.Output(),
			Version: cat.ProductVersion(),
		}, cat.Snapshot())
		if err != nil {
			return err
		}
		log.Info().
			Int64("run", res.RunID).
			Int("new_messages", res.NewMessages).
			Int("occurrences", res.Occurrences).
			Msg("Recorded extraction run")
	}

	if cfg.Graph {
		driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return err
		}
		defer driver.Close(ctx)

		exp := graph.NewExporter(driver)
		if err := exp.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := exp.Export(ctx, cfg.Domain, cat.Snapshot()); err != nil {
			return err
		}
		log.Info().Str("domain", cfg.Domain).Msg("Exported message graph")
	}
	return nil
}

func watch(ctx context.Context, cfg *config.Config, codec *po.Codec, scans *cache.Cache[extract.FileResult]) error {
	skip, err := filewalker.NewWalker(nil, cfg.Exclude)
	if err != nil {
		return err
	}
	filter, err := watcher.ExtensionFilter("*.py", "*.zcml", cfg.TemplatePattern, cfg.YAMLPattern)
	if err != nil {
		return err
	}
	w, err := watcher.New(cfg.Path, watcher.DefaultDelay, filter,
		func(dir string) bool { return skip.SkipDir(cfg.Path, dir) },
	)
	if err != nil {
		return fmt.Errorf("watch %s: %w", cfg.Path, err)
	}
	log.Info().Str("path", cfg.Path).Msg("Watching for changes, press Ctrl+C to stop")

	return w.Run(ctx, func(ctx context.Context, paths []string) error {
		log.Debug().Strs("paths", paths).Msg("Changed files")
		cat, err := extractOnce(ctx, cfg, codec, scans)
		if err != nil {
			return err
		}
		return publish(ctx, cfg, cat)
	})
}
