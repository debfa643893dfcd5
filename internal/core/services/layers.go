package services

import (
	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// LayerPolicy decides which layer-specific objects a layered record yields.
//
//	RefsA  RefsB  requested   targets
//	yes    no     Design      Design
//	yes    no     Analysis    skip
//	yes    no     Both        Design
//	no     yes    Analysis    Analysis
//	no     yes    Design      skip
//	no     yes    Both        Analysis
//	yes    yes    Both        Design, Analysis
//	yes    yes    Design      Design
//	yes    yes    Analysis    Analysis
//	no     no     any         failure
type LayerPolicy struct{}

// Plan returns the layer targets to materialize. When no target applies
// the returned result is a Skip or a Failure; otherwise it is a Success
// with no objects.
func (LayerPolicy) Plan(rec *domain.NativeRecord, requested domain.Layer) ([]driven.LayerTarget, domain.Result) {
	hasA, hasB := len(rec.RefsA) > 0, len(rec.RefsB) > 0

	if !hasA && !hasB {
		return nil, domain.Failuref(domain.ErrNoTopology, "%s has neither member nor element references", rec.ID())
	}

	var targets []driven.LayerTarget
	if hasA && requested.Includes(domain.LayerDesign) {
		targets = append(targets, driven.LayerTarget{Layer: domain.LayerDesign, Topology: rec.RefsA})
	}
	if hasB && requested.Includes(domain.LayerAnalysis) {
		targets = append(targets, driven.LayerTarget{Layer: domain.LayerAnalysis, Topology: rec.RefsB})
	}

	if len(targets) == 0 {
		other := domain.LayerAnalysis
		if hasA {
			other = domain.LayerDesign
		}
		return nil, domain.Skip(rec.ID() + " only has " + other.String() + " topology")
	}
	return targets, domain.Success()
}
