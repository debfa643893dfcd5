package domain

import (
	"fmt"
	"math"
)

// Point is a location in model space.
type Point struct {
	X float64 `json:"x" yaml:"x" toml:"x"`
	Y float64 `json:"y" yaml:"y" toml:"y"`
	Z float64 `json:"z" yaml:"z" toml:"z"`
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Coincides returns true when the points are within tolerance.
func (p Point) Coincides(q Point, tolerance float64) bool {
	return p.DistanceTo(q) <= tolerance
}

// String returns "(x, y, z)".
func (p Point) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// Centroid returns the mean of the points, or the origin for none.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range points {
		c.X += p.X
		c.Y += p.Y
		c.Z += p.Z
	}
	n := float64(len(points))
	return Point{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

// ConnectorDomain is the system discipline a connector belongs to.
type ConnectorDomain string

// Connector domains.
const (
	DomainPiping     ConnectorDomain = "piping"
	DomainHVAC       ConnectorDomain = "hvac"
	DomainElectrical ConnectorDomain = "electrical"
	DomainCableTray  ConnectorDomain = "cabletray"
)

// ConnectorShape is the profile of a connector.
type ConnectorShape string

// Connector shapes.
const (
	ShapeRound       ConnectorShape = "round"
	ShapeRectangular ConnectorShape = "rectangular"
	ShapeOval        ConnectorShape = "oval"
)

// Connector is a typed, located attachment point on an element.
type Connector struct {
	// OwnerElementID is the native ID of the element carrying the connector.
	OwnerElementID string `json:"owner"`

	// Origin is the connector location.
	Origin Point `json:"origin"`

	// Domain is the system discipline.
	Domain ConnectorDomain `json:"domain"`

	// Shape is the connector profile.
	Shape ConnectorShape `json:"shape"`

	// Size is the nominal diameter or width.
	Size float64 `json:"size,omitempty"`

	// IsConnected is true when the host reports the connector joined.
	IsConnected bool `json:"connected"`

	// Refs lists native IDs of elements the host reports joined here.
	Refs []string `json:"refs,omitempty"`
}

// Matches returns true when two connectors can join: same domain and
// shape, origins within tolerance.
func (c Connector) Matches(other Connector, tolerance float64) bool {
	return c.Domain == other.Domain &&
		c.Shape == other.Shape &&
		c.Origin.Coincides(other.Origin, tolerance)
}

// ElementKind classifies network elements.
type ElementKind string

// Element kinds.
const (
	ElementCurve   ElementKind = "curve"
	ElementFitting ElementKind = "fitting"
	ElementOther   ElementKind = "other"
)

// KindOf returns the network element kind for a native type.
func KindOf(t NativeType) ElementKind {
	switch {
	case t.IsCurve():
		return ElementCurve
	case t == TypeFitting:
		return ElementFitting
	default:
		return ElementOther
	}
}

// NetworkElement is a graph node: one converted curve-like or junction-like
// object plus its connectors.
type NetworkElement struct {
	ApplicationID string           `json:"applicationId"`
	NativeID      string           `json:"nativeId"`
	Type          NativeType       `json:"type"`
	Kind          ElementKind      `json:"kind"`
	Object        *ConvertedObject `json:"object,omitempty"`
	Connectors    []Connector      `json:"connectors"`
}

// Link is a reconstructed edge between elements, stored by index into the
// owning network's element list.
type Link struct {
	// Elements holds one or two element indices.
	Elements []int `json:"elements"`

	// Origin is where the join happens.
	Origin Point `json:"origin"`

	// IsConnected is true for a join between two elements.
	IsConnected bool `json:"isConnected"`

	// NeedsPlaceholder is true when the far side is outside the batch.
	NeedsPlaceholder bool `json:"needsPlaceholder"`

	// RemoteID is the out-of-batch native ID for dangling links, if known.
	RemoteID string `json:"remoteId,omitempty"`
}

// Network is a reconstructed connected subgraph.
type Network struct {
	ApplicationID string           `json:"applicationId"`
	Elements      []NetworkElement `json:"elements"`
	Links         []Link           `json:"links"`
}

// LinksOf returns the indices of links touching element i.
func (n *Network) LinksOf(i int) []int {
	var out []int
	for li, l := range n.Links {
		for _, e := range l.Elements {
			if e == i {
				out = append(out, li)
				break
			}
		}
	}
	return out
}

// Dangling returns the number of links that need a placeholder.
func (n *Network) Dangling() int {
	count := 0
	for _, l := range n.Links {
		if l.NeedsPlaceholder {
			count++
		}
	}
	return count
}

// BatchContext is the set of native IDs in scope for one conversion run.
type BatchContext struct {
	ids map[string]struct{}
}

// NewBatchContext creates a context from native IDs.
func NewBatchContext(ids ...string) BatchContext {
	c := BatchContext{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		c.ids[id] = struct{}{}
	}
	return c
}

// Contains returns true if the native ID is in scope.
func (c BatchContext) Contains(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// Len returns the number of IDs in scope.
func (c BatchContext) Len() int {
	return len(c.ids)
}

// Geometry is an opaque host geometry description.
type Geometry struct {
	Kind   string  `json:"kind"`
	Points []Point `json:"points"`
}

// PointGeometry returns a single-point geometry.
func PointGeometry(p Point) Geometry {
	return Geometry{Kind: "point", Points: []Point{p}}
}

// LineGeometry returns a two-point line geometry.
func LineGeometry(start, end Point) Geometry {
	return Geometry{Kind: "line", Points: []Point{start, end}}
}
