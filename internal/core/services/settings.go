package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
	"github.com/custodia-labs/bimlink/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyConnectorTolerance = "engine.connector_tolerance"
	keyRetryBudget        = "engine.retry_budget"
	keyDefaultLayer       = "engine.default_layer"
	keyPassSize           = "engine.pass_size"
	keyVerbose            = "log.verbose"
)

var validate = validator.New()

// SettingsService manages engine settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current engine settings.
func (s *SettingsService) Get() (*domain.EngineSettings, error) {
	defaults := domain.DefaultEngineSettings()

	settings := &domain.EngineSettings{
		ConnectorTolerance: s.getFloat(keyConnectorTolerance, defaults.ConnectorTolerance),
		RetryBudget:        s.getInt(keyRetryBudget, defaults.RetryBudget),
		DefaultLayer:       s.getLayer(defaults.DefaultLayer),
		PassSize:           s.getInt(keyPassSize, defaults.PassSize),
		Verbose:            s.getBool(keyVerbose, defaults.Verbose),
	}

	return settings, nil
}

// Save validates and persists engine settings.
func (s *SettingsService) Save(settings *domain.EngineSettings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}
	if err := s.configStore.Set(keyConnectorTolerance, settings.ConnectorTolerance); err != nil {
		return fmt.Errorf("save connector tolerance: %w", err)
	}
	if err := s.configStore.Set(keyRetryBudget, settings.RetryBudget); err != nil {
		return fmt.Errorf("save retry budget: %w", err)
	}
	if err := s.configStore.Set(keyDefaultLayer, settings.DefaultLayer.String()); err != nil {
		return fmt.Errorf("save default layer: %w", err)
	}
	if err := s.configStore.Set(keyPassSize, settings.PassSize); err != nil {
		return fmt.Errorf("save pass size: %w", err)
	}
	if err := s.configStore.Set(keyVerbose, settings.Verbose); err != nil {
		return fmt.Errorf("save verbose: %w", err)
	}
	return nil
}

// SetConnectorTolerance updates the connector matching tolerance.
func (s *SettingsService) SetConnectorTolerance(tolerance float64) error {
	return s.update(func(settings *domain.EngineSettings) { settings.ConnectorTolerance = tolerance })
}

// SetRetryBudget updates the deferred fitting retry budget.
func (s *SettingsService) SetRetryBudget(budget int) error {
	return s.update(func(settings *domain.EngineSettings) { settings.RetryBudget = budget })
}

// SetDefaultLayer updates the default layer.
func (s *SettingsService) SetDefaultLayer(layer domain.Layer) error {
	return s.update(func(settings *domain.EngineSettings) { settings.DefaultLayer = layer })
}

// SetPassSize updates the number of elements created per pass.
func (s *SettingsService) SetPassSize(size int) error {
	return s.update(func(settings *domain.EngineSettings) { settings.PassSize = size })
}

// Validate checks settings against their struct constraints.
func (s *SettingsService) Validate(settings *domain.EngineSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: no settings", domain.ErrInvalidInput)
	}
	err := validate.Struct(settings)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.EngineSettings {
	return domain.DefaultEngineSettings()
}

func (s *SettingsService) update(apply func(*domain.EngineSettings)) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	apply(settings)
	return s.Save(settings)
}

func formatFieldError(fe validator.FieldError) string {
	field := settingKey(fe.Field())
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func settingKey(field string) string {
	switch field {
	case "ConnectorTolerance":
		return keyConnectorTolerance
	case "RetryBudget":
		return keyRetryBudget
	case "DefaultLayer":
		return keyDefaultLayer
	case "PassSize":
		return keyPassSize
	default:
		return strings.ToLower(field)
	}
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getLayer(defaultVal domain.Layer) domain.Layer {
	val := s.configStore.GetString(keyDefaultLayer)
	if val == "" {
		return defaultVal
	}
	layer, err := domain.ParseLayer(val)
	if err != nil {
		return defaultVal
	}
	return layer
}
