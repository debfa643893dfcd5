package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bimlink/internal/adapters/driven/diagnostics"
	"github.com/custodia-labs/bimlink/internal/adapters/driven/metrics"
	"github.com/custodia-labs/bimlink/internal/core/domain"
)

var (
	placeDB      string
	placeJSON    bool
	placeMetrics bool
)

var placeCmd = &cobra.Command{
	Use:   "place <fixture>",
	Short: "Rebuild a fixture's networks in a fresh store",
	Long: `Converts the fixture's batch, then places every reconstructed network
into a fresh host store: curves first, pass by pass, then fittings.

Fittings whose neighbours do not exist yet are retried up to the configured
retry budget and then created unconnected. Those degraded fittings are
listed in the report.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlace,
}

func init() {
	placeCmd.Flags().StringVar(&placeDB, "db", "", "Place into a SQLite store in this directory instead of memory")
	placeCmd.Flags().BoolVar(&placeJSON, "json", false, "Print the reports as JSON")
	placeCmd.Flags().BoolVar(&placeMetrics, "metrics", false, "Print engine counters after the reports")
	rootCmd.AddCommand(placeCmd)
}

// placeOutput is the --json document.
type placeOutput struct {
	Networks    map[string]*domain.ReceiveReport `json:"networks"`
	Diagnostics []domain.Diagnostic              `json:"diagnostics"`
}

func runPlace(cmd *cobra.Command, args []string) error {
	settings, err := engineSettings()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fx, source, closeSource, err := openFixture(ctx, args[0], "")
	if err != nil {
		return err
	}
	defer func() { _ = closeSource() }()

	sink := diagnostics.NewCollector()
	counters := metrics.NewCollector("bimlink")

	exported, err := newPipeline(source, settings, counters).Converter.ConvertBatch(ctx, fx.BatchRefs(), domain.LayerBoth, sink)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	if len(exported.Networks) == 0 {
		cmd.Println("No networks to place.")
		return nil
	}

	target, closeTarget, err := openStore(placeDB)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = closeTarget() }()
	if err := fx.SeedCatalog(ctx, target); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	receiver := newPipeline(target, settings, counters).Receiver
	out := placeOutput{Networks: make(map[string]*domain.ReceiveReport, len(exported.Networks))}
	for _, network := range exported.Networks {
		report, err := receiver.Receive(ctx, network, sink)
		if err != nil {
			return fmt.Errorf("failed to place %s: %w", network.ApplicationID, err)
		}
		out.Networks[network.ApplicationID] = report
	}
	out.Diagnostics = sink.Diagnostics()

	w := cmd.OutOrStdout()
	if placeJSON {
		if err := writeJSON(w, out); err != nil {
			return err
		}
	} else {
		styled := isTerminal(w)
		for i, id := range sortedKeys(out.Networks) {
			if i > 0 {
				fmt.Fprintln(w)
			}
			renderReceiveReport(w, id, out.Networks[id], styled)
		}
		renderDiagnostics(w, newReportStyles(styled), out.Diagnostics)
	}

	if placeMetrics {
		return printMetrics(w, counters)
	}
	return nil
}
