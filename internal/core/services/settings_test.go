package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bimlink/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bimlink/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, domain.DefaultEngineSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("engine.connector_tolerance", 0.01)
	_ = store.Set("engine.retry_budget", 4)
	_ = store.Set("engine.default_layer", "analysis")
	_ = store.Set("engine.pass_size", 25)
	_ = store.Set("log.verbose", true)

	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.InDelta(t, 0.01, settings.ConnectorTolerance, 1e-12)
	assert.Equal(t, 4, settings.RetryBudget)
	assert.Equal(t, domain.LayerAnalysis, settings.DefaultLayer)
	assert.Equal(t, 25, settings.PassSize)
	assert.True(t, settings.Verbose)
}

func TestSettingsService_Get_ZeroRetryBudgetIsKept(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("engine.retry_budget", 0)

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, 0, settings.RetryBudget)
}

func TestSettingsService_Get_InvalidLayerReturnsDefault(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("engine.default_layer", "sideways")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, domain.LayerBoth, settings.DefaultLayer)
}

func TestSettingsService_Save(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := &domain.EngineSettings{
		ConnectorTolerance: 0.005,
		RetryBudget:        3,
		DefaultLayer:       domain.LayerDesign,
		PassSize:           10,
	}

	err := service.Save(settings)

	require.NoError(t, err)
	assert.Equal(t, "design", store.GetString("engine.default_layer"))
	assert.Equal(t, 3, store.GetInt("engine.retry_budget"))

	loaded, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, *settings, *loaded)
}

func TestSettingsService_Save_RejectsInvalid(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := domain.DefaultEngineSettings()
	settings.ConnectorTolerance = 0

	err := service.Save(&settings)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "engine.connector_tolerance")
	_, exists := store.Get("engine.connector_tolerance")
	assert.False(t, exists)
}

func TestSettingsService_Setters(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NoError(t, service.SetConnectorTolerance(0.002))
	require.NoError(t, service.SetRetryBudget(5))
	require.NoError(t, service.SetDefaultLayer(domain.LayerAnalysis))
	require.NoError(t, service.SetPassSize(50))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.InDelta(t, 0.002, settings.ConnectorTolerance, 1e-12)
	assert.Equal(t, 5, settings.RetryBudget)
	assert.Equal(t, domain.LayerAnalysis, settings.DefaultLayer)
	assert.Equal(t, 50, settings.PassSize)
}

func TestSettingsService_Validate(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	tests := []struct {
		name    string
		mutate  func(*domain.EngineSettings)
		wantErr string
	}{
		{"defaults", func(*domain.EngineSettings) {}, ""},
		{"negative tolerance", func(s *domain.EngineSettings) { s.ConnectorTolerance = -1 }, "engine.connector_tolerance must be greater than 0"},
		{"huge tolerance", func(s *domain.EngineSettings) { s.ConnectorTolerance = 2 }, "engine.connector_tolerance must be at most 1"},
		{"negative budget", func(s *domain.EngineSettings) { s.RetryBudget = -1 }, "engine.retry_budget must be at least 0"},
		{"budget too large", func(s *domain.EngineSettings) { s.RetryBudget = 11 }, "engine.retry_budget must be at most 10"},
		{"unknown layer", func(s *domain.EngineSettings) { s.DefaultLayer = 7 }, "engine.default_layer must be at most 2"},
		{"negative pass size", func(s *domain.EngineSettings) { s.PassSize = -5 }, "engine.pass_size must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultEngineSettings()
			tt.mutate(&settings)

			err := service.Validate(&settings)

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.ErrorIs(t, service.Validate(nil), domain.ErrInvalidInput)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	defaults := service.GetDefaults()

	assert.Equal(t, domain.DefaultConnectorTolerance, defaults.ConnectorTolerance)
	assert.Equal(t, domain.DefaultRetryBudget, defaults.RetryBudget)
	assert.Equal(t, domain.LayerBoth, defaults.DefaultLayer)
}
