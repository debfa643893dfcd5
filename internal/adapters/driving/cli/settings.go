package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/bimlink/internal/core/domain"
)

var (
	settingsTolerance   float64
	settingsRetryBudget int
	settingsLayer       string
	settingsPassSize    int
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update engine settings",
	Long: `Shows the engine settings. Pass flags to update them.

  --tolerance     distance within which connector origins coincide
  --retry-budget  retries per deferred fitting before it is placed unconnected
  --layer         layer converted when none is requested (design, analysis, both)
  --pass-size     network elements created per pass (0 = one pass)`,
	Args: cobra.NoArgs,
	RunE: runSettings,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default settings",
	RunE:  runSettingsReset,
}

func init() {
	settingsCmd.Flags().Float64Var(&settingsTolerance, "tolerance", 0, "Connector tolerance")
	settingsCmd.Flags().IntVar(&settingsRetryBudget, "retry-budget", 0, "Deferred fitting retry budget")
	settingsCmd.Flags().StringVar(&settingsLayer, "layer", "", "Default layer")
	settingsCmd.Flags().IntVar(&settingsPassSize, "pass-size", 0, "Elements per creation pass")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	flags := cmd.Flags()
	updated := false
	if flags.Changed("tolerance") {
		if err := settingsService.SetConnectorTolerance(settingsTolerance); err != nil {
			return fmt.Errorf("failed to set tolerance: %w", err)
		}
		updated = true
	}
	if flags.Changed("retry-budget") {
		if err := settingsService.SetRetryBudget(settingsRetryBudget); err != nil {
			return fmt.Errorf("failed to set retry budget: %w", err)
		}
		updated = true
	}
	if flags.Changed("layer") {
		layer, err := domain.ParseLayer(settingsLayer)
		if err != nil {
			return err
		}
		if err := settingsService.SetDefaultLayer(layer); err != nil {
			return fmt.Errorf("failed to set layer: %w", err)
		}
		updated = true
	}
	if flags.Changed("pass-size") {
		if err := settingsService.SetPassSize(settingsPassSize); err != nil {
			return fmt.Errorf("failed to set pass size: %w", err)
		}
		updated = true
	}

	if updated {
		cmd.Println("Settings updated.")
		cmd.Println()
	}
	return runSettingsShow(cmd, args)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Engine]")
	cmd.Printf("  Connector tolerance: %g\n", settings.ConnectorTolerance)
	cmd.Printf("  Retry budget: %d\n", settings.RetryBudget)
	cmd.Printf("  Default layer: %s\n", settings.DefaultLayer)
	if settings.PassSize == 0 {
		cmd.Printf("  Pass size: all (single pass)\n")
	} else {
		cmd.Printf("  Pass size: %d\n", settings.PassSize)
	}
	cmd.Println()

	cmd.Println("[Log]")
	if settings.Verbose {
		cmd.Printf("  Verbose: yes\n")
	} else {
		cmd.Printf("  Verbose: no\n")
	}
	cmd.Println()

	if err := settingsService.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'bimlink settings reset' to restore defaults.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	defaults := settingsService.GetDefaults()
	if err := settingsService.Save(&defaults); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Settings reset to defaults.")
	return nil
}
