package driving

import "github.com/custodia-labs/bimlink/internal/core/domain"

// SettingsService manages engine settings.
type SettingsService interface {
	// Get retrieves current engine settings, with defaults for unset keys.
	Get() (*domain.EngineSettings, error)

	// Save validates and persists engine settings.
	Save(settings *domain.EngineSettings) error

	// SetConnectorTolerance updates the connector matching tolerance.
	SetConnectorTolerance(tolerance float64) error

	// SetRetryBudget updates the deferred fitting retry budget.
	SetRetryBudget(budget int) error

	// SetDefaultLayer updates the layer used when none is requested.
	SetDefaultLayer(layer domain.Layer) error

	// SetPassSize updates the number of elements created per pass.
	SetPassSize(size int) error

	// Validate checks settings against their constraints.
	Validate(settings *domain.EngineSettings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.EngineSettings
}
