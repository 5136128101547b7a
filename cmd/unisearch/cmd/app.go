package cmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/openarchive/unisearch/internal/analytics"
	"github.com/openarchive/unisearch/internal/config"
	"github.com/openarchive/unisearch/internal/index"
	"github.com/openarchive/unisearch/internal/search"
	"github.com/openarchive/unisearch/internal/service"
	"github.com/openarchive/unisearch/internal/store"
)

// app wires the full search stack: archive, index, excerpt index,
// analytics and the service facade. One-shot commands and the server
// share this assembly.
type app struct {
	cfg      *config.Config
	archive  *store.Archive
	excerpts *store.ExcerptIndex
	ix       *index.Index
	tracker  *analytics.Tracker
	svc      *service.Service
}

// newApp opens the archive, rebuilds the index and assembles the
// service. Callers must Close the returned app.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	archive, err := store.OpenArchive(archivePath(cfg))
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, archive: archive}
	if err := a.assemble(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) assemble(ctx context.Context) error {
	if err := analytics.InitAnalyticsSchema(a.archive.DB()); err != nil {
		return err
	}
	analyticsStore, err := analytics.NewSQLiteStore(a.archive.DB())
	if err != nil {
		return err
	}

	flushInterval, err := a.cfg.FlushInterval()
	if err != nil {
		return err
	}
	a.tracker, err = analytics.NewTracker(analyticsStore, analytics.Config{
		RecentCapacity:  a.cfg.Analytics.RecentCapacity,
		PopularCapacity: a.cfg.Analytics.PopularCapacity,
		FlushInterval:   flushInterval,
	})
	if err != nil {
		return err
	}

	a.ix = index.New(a.archive.Providers()...)
	if err := a.ix.Rebuild(ctx); err != nil {
		return err
	}

	engineOpts := []search.EngineOption{}
	if a.cfg.Index.ExcerptIndexPath != "" {
		a.excerpts, err = store.NewExcerptIndex(excerptIndexPath(a.cfg))
		if err != nil {
			return err
		}
		if err := a.reindexExcerpts(ctx); err != nil {
			return err
		}
		engineOpts = append(engineOpts, search.WithCandidateSource(a.excerpts))
	}

	engine, err := search.NewEngine(a.ix, search.EngineConfig{
		FuzzyThreshold: a.cfg.Search.FuzzyThreshold,
		MinSimilarity:  a.cfg.Search.MinSimilarity,
		DefaultLimit:   a.cfg.Search.DefaultLimit,
		MaxLimit:       a.cfg.Search.MaxLimit,
	}, engineOpts...)
	if err != nil {
		return err
	}

	suggester, err := search.NewSuggester(a.ix, a.tracker, engine.Scorer(), a.cfg.Suggest.CacheSize,
		search.WithSuggestLimit(a.cfg.Suggest.MaxLimit))
	if err != nil {
		return err
	}

	a.svc = service.New(engine, suggester, a.tracker, a.ix, service.Config{
		FuzzyEnabled: a.cfg.Search.FuzzyEnabled,
	})
	return nil
}

// reindexExcerpts pushes the current document records into the excerpt
// index.
func (a *app) reindexExcerpts(ctx context.Context) error {
	records, err := a.ix.RecordsFor([]index.SourceType{index.SourceDocument}, index.Filters{})
	if err != nil {
		return err
	}
	return a.excerpts.Reindex(ctx, records)
}

// Close releases the app's resources. Safe on a partially built app.
func (a *app) Close() {
	if a.tracker != nil {
		if err := a.tracker.Close(); err != nil {
			slog.Warn("analytics close failed", slog.String("error", err.Error()))
		}
	}
	if a.excerpts != nil {
		if err := a.excerpts.Close(); err != nil {
			slog.Warn("excerpt index close failed", slog.String("error", err.Error()))
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			slog.Warn("archive close failed", slog.String("error", err.Error()))
		}
	}
}

// archivePath resolves the archive database path against the root
// directory when relative.
func archivePath(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Index.ArchivePath) {
		return cfg.Index.ArchivePath
	}
	return filepath.Join(rootDir, cfg.Index.ArchivePath)
}

// excerptIndexPath resolves the excerpt index path the same way.
func excerptIndexPath(cfg *config.Config) string {
	if cfg.Index.ExcerptIndexPath == "" || filepath.IsAbs(cfg.Index.ExcerptIndexPath) {
		return cfg.Index.ExcerptIndexPath
	}
	return filepath.Join(rootDir, cfg.Index.ExcerptIndexPath)
}

func dataDir() string {
	return filepath.Join(rootDir, config.DataDirName)
}
