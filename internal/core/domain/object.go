package domain

import "fmt"

// Layer partitions the output graph into parallel topologies.
type Layer int

const (
	// LayerDesign is the aggregate/member topology.
	LayerDesign Layer = iota

	// LayerAnalysis is the discretized/element topology.
	LayerAnalysis

	// LayerBoth requests both topologies, or tags objects shared by both.
	LayerBoth
)

// String returns the lowercase layer name.
func (l Layer) String() string {
	switch l {
	case LayerDesign:
		return "design"
	case LayerAnalysis:
		return "analysis"
	case LayerBoth:
		return "both"
	default:
		return fmt.Sprintf("Layer(%d)", int(l))
	}
}

// Includes reports whether a request for l covers the concrete layer other.
func (l Layer) Includes(other Layer) bool {
	return l == LayerBoth || l == other
}

// ParseLayer parses a layer name.
func ParseLayer(s string) (Layer, error) {
	switch s {
	case "design":
		return LayerDesign, nil
	case "analysis":
		return LayerAnalysis, nil
	case "both", "":
		return LayerBoth, nil
	default:
		return LayerBoth, fmt.Errorf("%w: layer %q", ErrInvalidInput, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Layer) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Layer) UnmarshalText(text []byte) error {
	parsed, err := ParseLayer(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ConvertedObject is the output-graph representation of a native record.
// Identity is fixed once cached; Set may append attributes.
type ConvertedObject struct {
	// ApplicationID is the stable cross-reference key shared by every
	// layer variant of the same native record.
	ApplicationID string `json:"applicationId"`

	// Layer is the topology the object belongs to.
	Layer Layer `json:"layer"`

	// Kind is the interchange object kind (e.g. "Element1D").
	Kind string `json:"kind"`

	// Attributes is the flat attribute bag.
	Attributes map[string]any `json:"attributes"`
}

// NewConvertedObject creates an object with an empty attribute bag.
func NewConvertedObject(applicationID, kind string, layer Layer) *ConvertedObject {
	return &ConvertedObject{
		ApplicationID: applicationID,
		Layer:         layer,
		Kind:          kind,
		Attributes:    make(map[string]any),
	}
}

// Set adds or replaces an attribute.
func (o *ConvertedObject) Set(key string, value any) {
	if o.Attributes == nil {
		o.Attributes = make(map[string]any)
	}
	o.Attributes[key] = value
}

// Get returns an attribute value.
func (o *ConvertedObject) Get(key string) (any, bool) {
	v, ok := o.Attributes[key]
	return v, ok
}

// CacheKey addresses one entry in the conversion cache.
type CacheKey struct {
	Type  NativeType
	Index Index
	Layer Layer
}

// KeyOf builds the cache key for a reference on a layer.
func KeyOf(ref NativeRef, layer Layer) CacheKey {
	return CacheKey{Type: ref.Type, Index: ref.Index, Layer: layer}
}

// String returns "Type:Index@layer".
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%d@%s", k.Type, k.Index, k.Layer)
}
