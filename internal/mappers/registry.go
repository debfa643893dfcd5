package mappers

import (
	"sort"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.MapperRegistry = (*Registry)(nil)

// Registry maps native types to their mappers.
type Registry struct {
	mappers map[domain.NativeType]driven.Mapper
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{mappers: make(map[domain.NativeType]driven.Mapper)}
}

// NewDefaultRegistry creates a registry with a mapper for every native type.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewNodeMapper())
	r.Register(NewAxisMapper())
	r.Register(NewStoreyMapper())
	r.Register(NewMemberMapper())
	r.Register(NewElement2DMapper())
	r.Register(NewSurfaceMapper(domain.TypeSurface))
	r.Register(NewSurfaceMapper(domain.TypeGridSurface))
	r.Register(NewCurveMapper())
	r.Register(NewFittingMapper())
	return r
}

// Register adds m under each of its types.
func (r *Registry) Register(m driven.Mapper) {
	for _, t := range m.Types() {
		r.mappers[t] = m
	}
}

// Lookup returns the mapper for t.
func (r *Registry) Lookup(t domain.NativeType) (driven.Mapper, bool) {
	m, ok := r.mappers[t]
	return m, ok
}

// Types returns all registered native types, sorted.
func (r *Registry) Types() []domain.NativeType {
	types := make([]domain.NativeType, 0, len(r.mappers))
	for t := range r.mappers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
