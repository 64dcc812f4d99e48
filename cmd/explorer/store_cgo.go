//go:build cgo

package main

import (
	"fmt"

	"github.com/dusk-indust/modelexplorer/internal/config"
	"github.com/dusk-indust/modelexplorer/internal/graph"
)

func openStore(cfg *config.ProjectConfig) (graph.Store, error) {
	switch cfg.StoreBackend() {
	case config.StoreKuzu:
		if cfg.KuzuPath == "" {
			return graph.NewKuzuStore()
		}
		return graph.NewKuzuFileStore(cfg.KuzuPath)
	case config.StoreMemory:
		return graph.NewMemStore(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
