package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/bimlink/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
	"github.com/custodia-labs/bimlink/internal/core/services"
	"github.com/custodia-labs/bimlink/internal/mappers"
)

// memoryStores opens a fresh in-memory store for every call and remembers
// the directories it was asked for.
type memoryStores struct {
	opened []string
	stores []*memory.NativeStore
}

func (m *memoryStores) open(dbDir string) (HostStore, func() error, error) {
	store := memory.NewNativeStore()
	m.opened = append(m.opened, dbDir)
	m.stores = append(m.stores, store)
	return store, func() error { return nil }, nil
}

func realPipeline(store driven.NativeStore, settings domain.EngineSettings, metrics driven.Metrics) Pipeline {
	return Pipeline{
		Converter: services.NewConverter(store, mappers.NewDefaultRegistry(), settings, metrics),
		Receiver:  services.NewNetworkReceiver(store, settings, metrics),
	}
}

// setupCLITest wires in-memory services and restores everything on cleanup.
func setupCLITest(t *testing.T) *memoryStores {
	t.Helper()

	oldSettings, oldOpenSettings := settingsService, openSettings
	oldOpenStore, oldPipeline := openStore, newPipeline
	oldTerminal := isTerminal

	stores := &memoryStores{}
	settingsService = services.NewSettingsService(memory.NewConfigStore())
	openSettings = nil
	openStore = stores.open
	newPipeline = realPipeline
	isTerminal = func(io.Writer) bool { return false }

	t.Cleanup(func() {
		settingsService, openSettings = oldSettings, oldOpenSettings
		openStore, newPipeline = oldOpenStore, oldPipeline
		isTerminal = oldTerminal
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return stores
}

// resetFlags restores every flag of cmd and its children to its default so
// one test's flags do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
