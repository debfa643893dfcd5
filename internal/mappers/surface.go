package mappers

import (
	"context"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// SurfaceMapper converts layered surfaces. The Design object's topology is
// built from member references and the Analysis object's from element
// references; both share one application ID.
type SurfaceMapper struct {
	typ domain.NativeType
}

// NewSurfaceMapper creates a mapper for Surface or GridSurface records.
func NewSurfaceMapper(t domain.NativeType) *SurfaceMapper {
	return &SurfaceMapper{typ: t}
}

// Types returns the handled native types.
func (m *SurfaceMapper) Types() []domain.NativeType { return []domain.NativeType{m.typ} }

// Layered returns true.
func (m *SurfaceMapper) Layered() bool { return true }

// Map converts the record for one layer. Topology members are referenced by
// forward ID and are not converted here.
func (m *SurfaceMapper) Map(_ context.Context, scope driven.MapScope, rec *domain.NativeRecord, target driven.LayerTarget) domain.Result {
	obj := newObject(scope, rec, string(m.typ), target)

	topology := make([]string, 0, len(target.Topology))
	for _, ref := range target.Topology {
		topology = append(topology, scope.ApplicationID(ref))
	}
	obj.Set("topology", topology)

	switch target.Layer {
	case domain.LayerDesign:
		obj.Set("topologyKind", "members")
	case domain.LayerAnalysis:
		obj.Set("topologyKind", "elements")
	}
	forwardRef(scope, rec, obj, "storey", "storey")
	return domain.Success(obj)
}
