package driven

import (
	"context"

	"github.com/custodia-labs/bimlink/internal/core/domain"
)

// NativeStore is the host application's object model.
// Records are read-only; elements and fittings are created through it
// when a network is placed back into the host.
type NativeStore interface {
	// GetRecord reads one record.
	// Returns domain.ErrNotFound if no record exists at ref.
	GetRecord(ctx context.Context, ref domain.NativeRef) (*domain.NativeRecord, error)

	// ListConnectors returns the connectors of an element, in host order.
	// Returns domain.ErrNotFound if the element does not exist.
	ListConnectors(ctx context.Context, elementID string) ([]domain.Connector, error)

	// CreateElement creates a standalone element and returns its native ID.
	CreateElement(ctx context.Context, kind domain.NativeType, geometry domain.Geometry, params map[string]any) (string, error)

	// CreateFitting creates a fitting joining the referenced connectors and
	// returns its native ID. Returns domain.ErrInvalidGeometry when the host
	// cannot build the fitting in the given connector order.
	CreateFitting(ctx context.Context, part domain.PartType, refs []domain.ConnectorRef) (string, error)

	// ChangeType swaps the catalog type of a created element.
	ChangeType(ctx context.Context, nativeID, typeID string) error

	// FindFittingType looks up the catalog type for a part type and family.
	// Returns false if there is no exact match.
	FindFittingType(ctx context.Context, part domain.PartType, family string) (string, bool, error)
}
