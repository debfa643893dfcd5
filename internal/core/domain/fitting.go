package domain

import (
	"fmt"
	"strings"
)

// PartType is the declared kind of a fitting.
type PartType string

// Fitting part types.
const (
	PartUndefined  PartType = ""
	PartElbow      PartType = "Elbow"
	PartTransition PartType = "Transition"
	PartUnion      PartType = "Union"
	PartTee        PartType = "Tee"
	PartCross      PartType = "Cross"
)

// ParsePartType parses a part type name, case-insensitively.
func ParsePartType(s string) (PartType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PartUndefined, nil
	case "elbow":
		return PartElbow, nil
	case "transition":
		return PartTransition, nil
	case "union":
		return PartUnion, nil
	case "tee":
		return PartTee, nil
	case "cross":
		return PartCross, nil
	default:
		return PartUndefined, fmt.Errorf("%w: part type %q", ErrUnsupportedType, s)
	}
}

// Arity returns the number of connectors the part type joins, or 0 if undefined.
func (p PartType) Arity() int {
	switch p {
	case PartElbow, PartTransition, PartUnion:
		return 2
	case PartTee:
		return 3
	case PartCross:
		return 4
	default:
		return 0
	}
}

// String returns the part type name.
func (p PartType) String() string {
	if p == PartUndefined {
		return "Undefined"
	}
	return string(p)
}

// FittingConnector is one end of a fitting request, pointing at the curve
// element it joins.
type FittingConnector struct {
	// OwnerApplicationID is the joined curve's application ID; empty when
	// the far side is unknown.
	OwnerApplicationID string
	Origin             Point
	Domain             ConnectorDomain
	Shape              ConnectorShape
	Size               float64

	// Junction marks a connector owned by another fitting. A fitting
	// joined to a fitting that does not exist yet is created without that
	// connection; the other fitting joins it once created.
	Junction bool
}

// FittingRequest asks the host to create a fitting joining curves.
type FittingRequest struct {
	ApplicationID string
	Part          PartType
	Family        string
	Connectors    []FittingConnector
	Params        map[string]any
}

// Origin returns the centroid of the request's connectors.
func (r FittingRequest) Origin() Point {
	points := make([]Point, 0, len(r.Connectors))
	for _, c := range r.Connectors {
		points = append(points, c.Origin)
	}
	return Centroid(points)
}

// ConnectorRef addresses a connector on a created host element.
type ConnectorRef struct {
	ElementID string
	Origin    Point
}

// DeferredFault is a pending retry for a fitting blocked on an element that
// has not been created yet.
type DeferredFault struct {
	RequestID           string
	MissingDependencyID string
	AttemptCount        int
	Payload             any
}
