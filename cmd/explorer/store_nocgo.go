//go:build !cgo

package main

import (
	"fmt"

	"github.com/dusk-indust/modelexplorer/internal/config"
	"github.com/dusk-indust/modelexplorer/internal/graph"
)

func openStore(cfg *config.ProjectConfig) (graph.Store, error) {
	if cfg.StoreBackend() != config.StoreMemory {
		return nil, fmt.Errorf("store %q requires a cgo build", cfg.Store)
	}
	return graph.NewMemStore(), nil
}
