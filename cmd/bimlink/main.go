// Command bimlink converts native building models into an interchange graph.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/bimlink/internal/adapters/driven/config/file"
	"github.com/custodia-labs/bimlink/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bimlink/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/bimlink/internal/adapters/driving/cli"
	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
	"github.com/custodia-labs/bimlink/internal/core/ports/driving"
	"github.com/custodia-labs/bimlink/internal/core/services"
	"github.com/custodia-labs/bimlink/internal/logger"
	"github.com/custodia-labs/bimlink/internal/mappers"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings:    openSettings,
		OpenStore:   openStore,
		NewPipeline: newPipeline,
	})

	err := cli.Execute(ctx)
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func openSettings(configDir string) (driving.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return services.NewSettingsService(store), nil
}

func openStore(dbDir string) (cli.HostStore, func() error, error) {
	if dbDir == "" {
		return memory.NewNativeStore(), func() error { return nil }, nil
	}
	store, err := sqlite.NewStore(dbDir)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Using SQLite store at %s", store.Path())
	return store, store.Close, nil
}

func newPipeline(store driven.NativeStore, settings domain.EngineSettings, metrics driven.Metrics) cli.Pipeline {
	return cli.Pipeline{
		Converter: services.NewConverter(store, mappers.NewDefaultRegistry(), settings, metrics),
		Receiver:  services.NewNetworkReceiver(store, settings, metrics),
	}
}
