package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dusk-indust/modelexplorer/internal/config"
	"github.com/dusk-indust/modelexplorer/internal/graph"
)

// populate loads the configured models and source trees into store. A
// persisted graph that already has resources is used as-is.
func populate(ctx context.Context, store graph.Store, parser graph.Parser, cfg *config.ProjectConfig, logger *slog.Logger) error {
	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	if stats.ResourceCount > 0 {
		logger.Info("using existing graph", "resources", stats.ResourceCount, "elements", stats.ElementCount)
		return nil
	}

	for _, path := range cfg.Models {
		stats, err := graph.LoadModelFile(ctx, store, path)
		if err != nil {
			return fmt.Errorf("load model: %w", err)
		}
		logger.Debug("loaded model", "path", path, "resources", stats.ResourceCount, "elements", stats.ElementCount)
	}

	langs := make([]graph.Language, 0, len(cfg.Languages))
	for _, l := range cfg.Languages {
		langs = append(langs, graph.Language(strings.ToLower(l)))
	}
	for _, root := range cfg.SourceRoots {
		stats, err := graph.IndexRepository(ctx, store, parser, graph.IndexOptions{
			RepoPath:    root,
			Languages:   langs,
			ExcludeDirs: cfg.ExcludeDirs,
		})
		if err != nil {
			return fmt.Errorf("index %s: %w", root, err)
		}
		logger.Debug("indexed sources", "root", root, "resources", stats.ResourceCount, "elements", stats.ElementCount)
	}
	return nil
}
