package mappers

import (
	"context"
	"fmt"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// CurveMapper converts pipes, ducts and cable trays. Endpoints come from the
// element's first and last connectors.
type CurveMapper struct{}

// NewCurveMapper creates a curve mapper.
func NewCurveMapper() *CurveMapper { return &CurveMapper{} }

// Types returns the handled native types.
func (m *CurveMapper) Types() []domain.NativeType {
	return []domain.NativeType{domain.TypePipe, domain.TypeDuct, domain.TypeCableTray}
}

// Layered returns false.
func (m *CurveMapper) Layered() bool { return false }

// Map converts a curve. A curve without two distinct endpoints is skipped.
func (m *CurveMapper) Map(ctx context.Context, scope driven.MapScope, rec *domain.NativeRecord, target driven.LayerTarget) domain.Result {
	conns, err := scope.Connectors(ctx, rec.ID())
	if err != nil {
		return domain.Failure(fmt.Errorf("connectors of %s: %w", rec.ID(), err))
	}
	if len(conns) < 2 {
		return domain.Skip(rec.ID() + " has no curve geometry")
	}
	start, end := conns[0].Origin, conns[len(conns)-1].Origin
	length := start.DistanceTo(end)
	if length == 0 {
		return domain.Skip(rec.ID() + " has zero length")
	}

	obj := newObject(scope, rec, string(rec.Type), target)
	obj.Set("start", start)
	obj.Set("end", end)
	obj.Set("length", length)
	obj.Set("domain", string(conns[0].Domain))
	obj.Set("shape", string(conns[0].Shape))
	if _, ok := rec.Float("size"); !ok {
		obj.Set("size", conns[0].Size)
	}
	forwardRef(scope, rec, obj, "system", "system")
	return domain.Success(obj)
}

// FittingMapper converts junction elements.
type FittingMapper struct{}

// NewFittingMapper creates a fitting mapper.
func NewFittingMapper() *FittingMapper { return &FittingMapper{} }

// Types returns the handled native types.
func (m *FittingMapper) Types() []domain.NativeType { return []domain.NativeType{domain.TypeFitting} }

// Layered returns false.
func (m *FittingMapper) Layered() bool { return false }

// Map converts a fitting. An unknown part type is a validation failure.
func (m *FittingMapper) Map(ctx context.Context, scope driven.MapScope, rec *domain.NativeRecord, target driven.LayerTarget) domain.Result {
	part, err := domain.ParsePartType(rec.Text("partType"))
	if err != nil {
		return domain.Failure(fmt.Errorf("%w: %s: %w", domain.ErrValidation, rec.ID(), err))
	}
	conns, err := scope.Connectors(ctx, rec.ID())
	if err != nil {
		return domain.Failure(fmt.Errorf("connectors of %s: %w", rec.ID(), err))
	}
	if part != domain.PartUndefined && len(conns) > 0 && len(conns) != part.Arity() {
		scope.Report(domain.Warnf(rec.ID(), "%s has %d connectors, expected %d", part, len(conns), part.Arity()))
	}

	points := make([]domain.Point, 0, len(conns))
	for _, c := range conns {
		points = append(points, c.Origin)
	}

	obj := newObject(scope, rec, "Fitting", target)
	if part != domain.PartUndefined {
		obj.Set("partType", part.String())
	}
	obj.Set("family", rec.Text("family"))
	obj.Set("origin", domain.Centroid(points))
	return domain.Success(obj)
}
