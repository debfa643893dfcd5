package driven

import (
	"context"

	"github.com/custodia-labs/bimlink/internal/core/domain"
)

// LayerTarget tells a mapper which layer it is producing and which of the
// record's reference sets feeds that layer's topology.
type LayerTarget struct {
	Layer domain.Layer

	// Topology holds RefsA for Design and RefsB for Analysis.
	// Empty for mappers that are not layered.
	Topology []domain.NativeRef

	// ApplicationID is the record's forward ID, allocated once per record
	// and shared by every layer variant. Empty means ask the scope.
	ApplicationID string
}

// MapScope is what a mapper may call back into while converting a record.
type MapScope interface {
	// ApplicationID returns the forward ID for a reference without
	// converting it.
	ApplicationID(ref domain.NativeRef) string

	// Materialize converts a referenced record through the cache.
	Materialize(ctx context.Context, ref domain.NativeRef, layer domain.Layer) domain.Result

	// Connectors lists the connectors of a native element.
	Connectors(ctx context.Context, elementID string) ([]domain.Connector, error)

	// Report records a diagnostic for the current batch.
	Report(d domain.Diagnostic)
}

// Mapper converts one kind of native record into converted objects.
type Mapper interface {
	// Types returns the native types this mapper handles.
	Types() []domain.NativeType

	// Layered returns true if the mapper produces layer-specific objects
	// from RefsA and RefsB. Non-layered records are converted once and
	// shared by both layers.
	Layered() bool

	// Map converts the record for one target layer.
	Map(ctx context.Context, scope MapScope, rec *domain.NativeRecord, target LayerTarget) domain.Result
}

// MapperRegistry dispatches native types to mappers.
type MapperRegistry interface {
	// Register adds a mapper for each of its types, replacing earlier ones.
	Register(m Mapper)

	// Lookup returns the mapper for a native type.
	Lookup(t domain.NativeType) (Mapper, bool)

	// Types returns the registered native types, sorted.
	Types() []domain.NativeType
}
