package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// ElementLookup resolves application IDs to created native IDs.
type ElementLookup interface {
	NativeIDOf(applicationID string) (string, bool)
}

// FittingResolver classifies junctions and creates fittings in the host.
type FittingResolver struct {
	store   driven.NativeStore
	created ElementLookup
	sink    driven.DiagnosticsSink
}

// NewFittingResolver creates a resolver over the elements created so far.
func NewFittingResolver(store driven.NativeStore, created ElementLookup, sink driven.DiagnosticsSink) *FittingResolver {
	return &FittingResolver{store: store, created: created, sink: sinkOrNop(sink)}
}

// Classify returns the part type for a request. A declared part type must
// match its arity; an undeclared one is inferred from the connector count,
// with two unequal connectors making a Transition.
func Classify(req domain.FittingRequest) (domain.PartType, error) {
	n := len(req.Connectors)
	if req.Part != domain.PartUndefined {
		if n != req.Part.Arity() {
			return req.Part, fmt.Errorf("%w: %s requires %d connectors, got %d",
				domain.ErrValidation, req.Part, req.Part.Arity(), n)
		}
		return req.Part, nil
	}
	switch n {
	case 2:
		a, b := req.Connectors[0], req.Connectors[1]
		if a.Shape != b.Shape || a.Size != b.Size {
			return domain.PartTransition, nil
		}
		return domain.PartElbow, nil
	case 3:
		return domain.PartTee, nil
	case 4:
		return domain.PartCross, nil
	default:
		return domain.PartUndefined, fmt.Errorf("%w: no fitting joins %d connectors", domain.ErrValidation, n)
	}
}

// Create builds the fitting for req. It returns Created with the native ID,
// NotReady naming the first joined curve not yet created, or Failure. An
// arity mismatch fails before any host call. Junctions to fittings not yet
// created are left out; a fitting with nothing to join is NotReady.
func (r *FittingResolver) Create(ctx context.Context, req domain.FittingRequest) domain.Result {
	part, err := Classify(req)
	if err != nil {
		return domain.Failure(err)
	}

	refs := make([]domain.ConnectorRef, 0, len(req.Connectors))
	pendingJunction := ""
	for i, c := range req.Connectors {
		if c.OwnerApplicationID == "" {
			return domain.Failuref(domain.ErrValidation, "%s connector %d joins no element", req.ApplicationID, i)
		}
		nativeID, ok := r.created.NativeIDOf(c.OwnerApplicationID)
		if !ok {
			if c.Junction {
				if pendingJunction == "" {
					pendingJunction = c.OwnerApplicationID
				}
				continue
			}
			return domain.NotReady(c.OwnerApplicationID)
		}
		refs = append(refs, domain.ConnectorRef{ElementID: nativeID, Origin: c.Origin})
	}
	if len(refs) == 0 {
		return domain.NotReady(pendingJunction)
	}

	id, err := r.store.CreateFitting(ctx, part, refs)
	if errors.Is(err, domain.ErrInvalidGeometry) && part == domain.PartTransition {
		id, err = r.store.CreateFitting(ctx, part, lo.Reverse(append([]domain.ConnectorRef(nil), refs...)))
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidGeometry) {
			return domain.Failure(fmt.Errorf("%w: %s: %w", domain.ErrValidation, req.ApplicationID, err))
		}
		return domain.Failure(fmt.Errorf("create %s %s: %w", part, req.ApplicationID, err))
	}

	r.applyCatalogType(ctx, req, part, id)
	return domain.Created(id)
}

// CreateUnconnected places the fitting as a standalone instance at the
// centroid of its connectors, with no topology.
func (r *FittingResolver) CreateUnconnected(ctx context.Context, req domain.FittingRequest) (string, error) {
	part := req.Part
	if p, err := Classify(req); err == nil {
		part = p
	}
	params := map[string]any{
		"partType": part.String(),
		"family":   req.Family,
		"degraded": true,
	}
	for k, v := range req.Params {
		if _, taken := params[k]; !taken {
			params[k] = v
		}
	}
	id, err := r.store.CreateElement(ctx, domain.TypeFitting, domain.PointGeometry(req.Origin()), params)
	if err != nil {
		return "", fmt.Errorf("create standalone %s: %w", req.ApplicationID, err)
	}
	return id, nil
}

func (r *FittingResolver) applyCatalogType(ctx context.Context, req domain.FittingRequest, part domain.PartType, id string) {
	typeID, ok, err := r.store.FindFittingType(ctx, part, req.Family)
	if err != nil {
		r.sink.Report(domain.Warnf(req.ApplicationID, "catalog lookup for %s: %v", part, err))
		return
	}
	if !ok {
		r.sink.Report(domain.Infof(req.ApplicationID, "no catalog type for %s %q, kept default type", part, req.Family))
		return
	}
	if err := r.store.ChangeType(ctx, id, typeID); err != nil {
		r.sink.Report(domain.Warnf(req.ApplicationID, "change type to %s: %v", typeID, err))
	}
}
