// Package app assembles the application's dependency graph.
package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/infrastructure/clipboard"
	"github.com/doeshing/zai-go/internal/infrastructure/config"
	"github.com/doeshing/zai-go/internal/infrastructure/engine"
	"github.com/doeshing/zai-go/internal/infrastructure/history"
	"github.com/doeshing/zai-go/internal/infrastructure/lifecycle"
	"github.com/doeshing/zai-go/internal/pkg/filesystem"
	"github.com/doeshing/zai-go/internal/pkg/logger"
	"github.com/doeshing/zai-go/internal/ports"
	"github.com/doeshing/zai-go/internal/services"
)

// Container holds the wired application components.
type Container struct {
	Config       domain.Config
	ConfigLoader *config.FileLoader
	Logger       ports.Logger

	Records   *lifecycle.RecordKeeper
	Inspector ports.ProcessInspector
	Manager   *lifecycle.Manager
	Launcher  ports.ServerLauncher

	EngineFactory ports.EngineFactory
	Orchestrator  *services.Orchestrator
	Clipboard     ports.ClipboardReader
	History       ports.HistorySource
	Cleaner       *history.Cleaner
}

// BuildContainer loads configuration and wires every component the CLI needs.
// Debug logging turns on through the verbose flag or ZAI_DEBUG.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	if raw := os.Getenv("ZAI_DEBUG"); raw == "1" || raw == "true" {
		verbose = true
	}
	log := logger.NewStd(verbose)

	loader := config.NewFileLoader("")
	cfg, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	inspector := lifecycle.NewSystemInspector()
	records := lifecycle.NewRecordKeeper("")
	manager := lifecycle.NewManager(records, inspector, log, cfg.Server.Host, cfg.Server.Port)
	launcher := lifecycle.NewSelfLauncher(log)
	factory := engine.NewFactory(log)

	return &Container{
		Config:        cfg,
		ConfigLoader:  loader,
		Logger:        log,
		Records:       records,
		Inspector:     inspector,
		Manager:       manager,
		Launcher:      launcher,
		EngineFactory: factory,
		Orchestrator: &services.Orchestrator{
			Config:        cfg,
			Launcher:      launcher,
			EngineFactory: factory,
			Logger:        log,
		},
		Clipboard: clipboard.NewReader(),
		History:   history.NewFileSource(cfg.History.File),
		Cleaner:   history.NewCleaner(),
	}, nil
}

// OpenStore opens the suggestion log database. Callers close it when done.
func (c *Container) OpenStore() (*history.SQLiteStore, error) {
	return history.NewSQLiteStore(filepath.Join(filesystem.DataDir(), "data", "suggestions.db"))
}
