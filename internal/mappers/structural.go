package mappers

import (
	"context"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// NodeMapper converts analysis nodes.
type NodeMapper struct{}

// NewNodeMapper creates a node mapper.
func NewNodeMapper() *NodeMapper { return &NodeMapper{} }

// Types returns the handled native types.
func (m *NodeMapper) Types() []domain.NativeType { return []domain.NativeType{domain.TypeNode} }

// Layered returns false; nodes are shared by both layers.
func (m *NodeMapper) Layered() bool { return false }

// Map converts a node. All three coordinates are required.
func (m *NodeMapper) Map(_ context.Context, scope driven.MapScope, rec *domain.NativeRecord, target driven.LayerTarget) domain.Result {
	var p domain.Point
	for _, axis := range []struct {
		key string
		dst *float64
	}{{"x", &p.X}, {"y", &p.Y}, {"z", &p.Z}} {
		v, ok := rec.Float(axis.key)
		if !ok {
			return domain.Failuref(domain.ErrValidation, "%s has no %s coordinate", rec.ID(), axis.key)
		}
		*axis.dst = v
	}
	obj := newObject(scope, rec, "Node", target)
	obj.Set("position", p)
	return domain.Success(obj)
}

// AxisMapper converts axis and cross-section types.
type AxisMapper struct{}

// NewAxisMapper creates an axis mapper.
func NewAxisMapper() *AxisMapper { return &AxisMapper{} }

// Types returns the handled native types.
func (m *AxisMapper) Types() []domain.NativeType { return []domain.NativeType{domain.TypeAxis} }

// Layered returns false.
func (m *AxisMapper) Layered() bool { return false }

// Map copies the axis fields.
func (m *AxisMapper) Map(_ context.Context, scope driven.MapScope, rec *domain.NativeRecord, target driven.LayerTarget) domain.Result {
	return domain.Success(newObject(scope, rec, "Axis", target))
}

// StoreyMapper converts building levels.
type StoreyMapper struct{}

// NewStoreyMapper creates a storey mapper.
func NewStoreyMapper() *StoreyMapper { return &StoreyMapper{} }

// Types returns the handled native types.
func (m *StoreyMapper) Types() []domain.NativeType { return []domain.NativeType{domain.TypeStorey} }

// Layered returns false.
func (m *StoreyMapper) Layered() bool { return false }

// Map converts a storey, defaulting its elevation to zero.
func (m *StoreyMapper) Map(_ context.Context, scope driven.MapScope, rec *domain.NativeRecord, target driven.LayerTarget) domain.Result {
	obj := newObject(scope, rec, "Storey", target)
	elevation, _ := rec.Float("elevation")
	obj.Set("elevation", elevation)
	return domain.Success(obj)
}

// MemberMapper converts line elements. End nodes are converted through the
// cache; the axis and storey are referenced by forward ID only.
type MemberMapper struct{}

// NewMemberMapper creates a member mapper.
func NewMemberMapper() *MemberMapper { return &MemberMapper{} }

// Types returns the handled native types.
func (m *MemberMapper) Types() []domain.NativeType { return []domain.NativeType{domain.TypeMember} }

// Layered returns false.
func (m *MemberMapper) Layered() bool { return false }

// Map converts a member with at least two nodes.
func (m *MemberMapper) Map(ctx context.Context, scope driven.MapScope, rec *domain.NativeRecord, target driven.LayerTarget) domain.Result {
	nodes, res := materializeNodes(ctx, scope, rec, 2)
	if !res.OK() {
		return res
	}
	obj := newObject(scope, rec, "Element1D", target)
	obj.Set("nodes", ids(nodes))
	forwardRef(scope, rec, obj, "axis", "axis")
	forwardRef(scope, rec, obj, "storey", "storey")

	start, okA := position(nodes[0])
	end, okB := position(nodes[len(nodes)-1])
	if okA && okB {
		obj.Set("length", start.DistanceTo(end))
	}
	return domain.Success(obj)
}

// Element2DMapper converts mesh faces.
type Element2DMapper struct{}

// NewElement2DMapper creates a mesh face mapper.
func NewElement2DMapper() *Element2DMapper { return &Element2DMapper{} }

// Types returns the handled native types.
func (m *Element2DMapper) Types() []domain.NativeType { return []domain.NativeType{domain.TypeElement2D} }

// Layered returns false.
func (m *Element2DMapper) Layered() bool { return false }

// Map converts a face with at least three nodes.
func (m *Element2DMapper) Map(ctx context.Context, scope driven.MapScope, rec *domain.NativeRecord, target driven.LayerTarget) domain.Result {
	nodes, res := materializeNodes(ctx, scope, rec, 3)
	if !res.OK() {
		return res
	}
	obj := newObject(scope, rec, "Element2D", target)
	obj.Set("nodes", ids(nodes))
	forwardRef(scope, rec, obj, "property", "property")
	return domain.Success(obj)
}
