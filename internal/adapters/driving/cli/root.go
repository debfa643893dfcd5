// Package cli provides the bimlink command line driver.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bimlink/internal/adapters/driven/fixture"
	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
	"github.com/custodia-labs/bimlink/internal/core/ports/driving"
	"github.com/custodia-labs/bimlink/internal/logger"
)

// HostStore is a native store that can be seeded from a fixture.
type HostStore interface {
	driven.NativeStore
	fixture.Seeder
}

// StoreFactory opens a host store. An empty dbDir selects the in-memory
// store. The returned close function is never nil.
type StoreFactory func(dbDir string) (HostStore, func() error, error)

// Pipeline holds the engine services for one run over a store.
type Pipeline struct {
	Converter driving.Converter
	Receiver  driving.NetworkReceiver
}

// PipelineFactory builds the engine services over a store.
type PipelineFactory func(store driven.NativeStore, settings domain.EngineSettings, metrics driven.Metrics) Pipeline

// SettingsFactory opens the settings service for a config directory.
// An empty dir selects the default location.
type SettingsFactory func(configDir string) (driving.SettingsService, error)

// Services is everything main wires into the CLI.
type Services struct {
	Settings    SettingsFactory
	OpenStore   StoreFactory
	NewPipeline PipelineFactory
}

var (
	version = "dev"

	verbose   bool
	configDir string

	openSettings    SettingsFactory
	openStore       StoreFactory
	newPipeline     PipelineFactory
	settingsService driving.SettingsService
)

var rootCmd = &cobra.Command{
	Use:   "bimlink",
	Short: "Convert native building models into an interchange graph",
	Long: `bimlink converts native model records into layered interchange objects,
rebuilds connector networks (pipes, ducts, cable trays and their fittings)
and places received networks back into a host store.`,
	SilenceUsage:      true,
	PersistentPreRunE: configure,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Config directory (default ~/.bimlink)")
}

// SetServices wires the adapters built by main.
func SetServices(s Services) {
	openSettings = s.Settings
	openStore = s.OpenStore
	newPipeline = s.NewPipeline
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// configure opens settings for the selected config directory and applies
// the verbose flag before any command runs.
func configure(_ *cobra.Command, _ []string) error {
	if openSettings != nil {
		svc, err := openSettings(configDir)
		if err != nil {
			return fmt.Errorf("failed to open settings: %w", err)
		}
		settingsService = svc
	}

	v := verbose
	if !v && settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			v = s.Verbose
		}
	}
	logger.SetVerbose(v)
	return nil
}

// engineSettings returns the configured settings, or the defaults when no
// settings service is wired.
func engineSettings() (domain.EngineSettings, error) {
	if settingsService == nil {
		return domain.DefaultEngineSettings(), nil
	}
	s, err := settingsService.Get()
	if err != nil {
		return domain.EngineSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return *s, nil
}

// openFixture loads a fixture and seeds it into a store opened at dbDir.
func openFixture(ctx context.Context, path, dbDir string) (*fixture.Fixture, HostStore, func() error, error) {
	if openStore == nil || newPipeline == nil {
		return nil, nil, nil, errors.New("conversion service not configured")
	}

	fx, err := fixture.Load(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load fixture: %w", err)
	}

	store, closeStore, err := openStore(dbDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := fx.Seed(ctx, store); err != nil {
		_ = closeStore()
		return nil, nil, nil, fmt.Errorf("failed to seed store: %w", err)
	}
	logger.Debug("Seeded %d records from %s", len(fx.Records), path)
	return fx, store, closeStore, nil
}
