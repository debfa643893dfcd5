package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/bimlink/internal/adapters/driven/diagnostics"
	"github.com/custodia-labs/bimlink/internal/adapters/driven/metrics"
	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/logger"
)

var (
	convertLayer   string
	convertJSON    bool
	convertWatch   bool
	convertDB      string
	convertMetrics bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <fixture>",
	Short: "Convert a batch of native records",
	Long: `Loads a fixture (YAML or TOML) into a host store and converts its batch.

Layered records (surfaces) produce one object per requested layer, sharing
the same application ID. Curve and fitting records are also rebuilt into
connector networks. Skipped records are counted but not listed; failures
and degraded fittings are.

Use --watch to convert again whenever the fixture changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertLayer, "layer", "l", "", "Layer to convert: design, analysis or both (default from settings)")
	convertCmd.Flags().BoolVar(&convertJSON, "json", false, "Print the report as JSON")
	convertCmd.Flags().BoolVarP(&convertWatch, "watch", "w", false, "Convert again when the fixture changes")
	convertCmd.Flags().StringVar(&convertDB, "db", "", "Use a SQLite store in this directory instead of memory")
	convertCmd.Flags().BoolVar(&convertMetrics, "metrics", false, "Print engine counters after the report")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	settings, err := engineSettings()
	if err != nil {
		return err
	}

	layer := settings.DefaultLayer
	if cmd.Flags().Changed("layer") {
		if layer, err = domain.ParseLayer(convertLayer); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := args[0]
	once := func() error {
		return convertFixture(ctx, cmd.OutOrStdout(), path, layer, settings)
	}
	if !convertWatch {
		return once()
	}
	if err := once(); err != nil {
		cmd.PrintErrf("Error: %v\n", err)
	}
	return watchFixture(ctx, cmd, path, once)
}

// convertFixture runs one conversion of the fixture's batch and writes the
// report to w.
func convertFixture(ctx context.Context, w io.Writer, path string, layer domain.Layer, settings domain.EngineSettings) error {
	fx, store, closeStore, err := openFixture(ctx, path, convertDB)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	sink := diagnostics.NewCollector()
	counters := metrics.NewCollector("bimlink")
	pipeline := newPipeline(store, settings, counters)

	logger.Section("Converting " + filepath.Base(path))
	report, err := pipeline.Converter.ConvertBatch(ctx, fx.BatchRefs(), layer, sink)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if convertJSON {
		if err := writeJSON(w, convertOutput{Report: report, Diagnostics: sink.Diagnostics()}); err != nil {
			return err
		}
	} else {
		renderBatchReport(w, report, sink.Diagnostics(), isTerminal(w))
	}

	if convertMetrics {
		return printMetrics(w, counters)
	}
	return nil
}

// convertOutput is the --json document.
type convertOutput struct {
	Report      *domain.BatchReport `json:"report"`
	Diagnostics []domain.Diagnostic `json:"diagnostics"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func printMetrics(w io.Writer, counters *metrics.Collector) error {
	snapshot, err := counters.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read metrics: %w", err)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Metrics")
	for _, name := range sortedKeys(snapshot) {
		fmt.Fprintf(w, "  %s %g\n", name, snapshot[name])
	}
	return nil
}

// watchDebounce is how long the watcher waits for writes to settle.
var watchDebounce = 300 * time.Millisecond

// watchFixture calls run whenever the fixture is written, until ctx is done.
// The fixture's directory is watched so editors that replace the file by
// rename are still seen.
func watchFixture(ctx context.Context, cmd *cobra.Command, path string, run func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", path)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("Fixture changed: %s", event.Op)
			debounce = time.After(watchDebounce)
		case <-debounce:
			debounce = nil
			if err := run(); err != nil {
				cmd.PrintErrf("Error: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error: %v", err)
		}
	}
}
