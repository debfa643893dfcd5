package domain

// Engine defaults.
const (
	// DefaultConnectorTolerance is the distance within which two connector
	// origins are considered coincident, in model units.
	DefaultConnectorTolerance = 0.001

	// DefaultRetryBudget is how many times a deferred fitting is retried
	// before it is created as a standalone, unconnected instance.
	DefaultRetryBudget = 2

	// DefaultPassSize is the number of network elements created per pass.
	// Zero creates every curve in a single pass.
	DefaultPassSize = 0
)

// EngineSettings holds tunable conversion behaviour.
type EngineSettings struct {
	// ConnectorTolerance is the coincidence distance used by connector matching.
	ConnectorTolerance float64 `validate:"gt=0,lte=1"`

	// RetryBudget is the number of retries per deferred fitting.
	RetryBudget int `validate:"gte=0,lte=10"`

	// DefaultLayer is the layer requested when the caller does not pick one.
	DefaultLayer Layer `validate:"gte=0,lte=2"`

	// PassSize is the number of network elements created per pass.
	PassSize int `validate:"gte=0"`

	// Verbose enables debug logging.
	Verbose bool
}

// DefaultEngineSettings returns the engine defaults.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		ConnectorTolerance: DefaultConnectorTolerance,
		RetryBudget:        DefaultRetryBudget,
		DefaultLayer:       LayerBoth,
		PassSize:           DefaultPassSize,
	}
}
