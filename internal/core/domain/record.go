package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// NativeType identifies a kind of record in the host application's object model.
type NativeType string

// Native record kinds understood by the engine.
const (
	// TypeNode is a structural analysis point.
	TypeNode NativeType = "Node"

	// TypeAxis is an axis or cross-section type shared by members.
	TypeAxis NativeType = "AxisType"

	// TypeStorey is a building level.
	TypeStorey NativeType = "Storey"

	// TypeMember is a line (1D) structural element.
	TypeMember NativeType = "Member"

	// TypeElement2D is a discretized mesh face.
	TypeElement2D NativeType = "Element2D"

	// TypeSurface is an analytical surface with member and element topologies.
	TypeSurface NativeType = "Surface"

	// TypeGridSurface is a load-distribution grid surface.
	TypeGridSurface NativeType = "GridSurface"

	// TypePipe is a piping curve element.
	TypePipe NativeType = "Pipe"

	// TypeDuct is a duct curve element.
	TypeDuct NativeType = "Duct"

	// TypeCableTray is a cable tray curve element.
	TypeCableTray NativeType = "CableTray"

	// TypeFitting is a junction between curve elements.
	TypeFitting NativeType = "Fitting"
)

// AllNativeTypes returns every supported native type.
func AllNativeTypes() []NativeType {
	return []NativeType{
		TypeNode, TypeAxis, TypeStorey, TypeMember, TypeElement2D,
		TypeSurface, TypeGridSurface, TypePipe, TypeDuct, TypeCableTray, TypeFitting,
	}
}

// IsValid returns true if the type is recognised.
func (t NativeType) IsValid() bool {
	for _, known := range AllNativeTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// IsCurve returns true for network curve kinds (pipes, ducts, cable trays).
func (t NativeType) IsCurve() bool {
	return t == TypePipe || t == TypeDuct || t == TypeCableTray
}

// IsNetwork returns true for kinds that take part in connector networks.
func (t NativeType) IsNetwork() bool {
	return t.IsCurve() || t == TypeFitting
}

// String returns the string representation.
func (t NativeType) String() string {
	return string(t)
}

// Index is the per-type key of a native record. Zero means the record
// has not been persisted yet.
type Index int

// NoIndex marks a newly authored record.
const NoIndex Index = 0

// IsSet returns true for a persisted (positive) index.
func (i Index) IsSet() bool {
	return i > 0
}

// NativeRef addresses a native record by type and index.
// Its text form "Type:Index" is also the native element ID used by
// connectors and the batch context.
type NativeRef struct {
	Type  NativeType
	Index Index
}

// Ref is shorthand for building a NativeRef.
func Ref(t NativeType, index int) NativeRef {
	return NativeRef{Type: t, Index: Index(index)}
}

// String returns "Type:Index".
func (r NativeRef) String() string {
	return fmt.Sprintf("%s:%d", r.Type, r.Index)
}

// ParseNativeRef parses the "Type:Index" form.
func ParseNativeRef(s string) (NativeRef, error) {
	typ, idx, ok := strings.Cut(s, ":")
	if !ok || typ == "" {
		return NativeRef{}, fmt.Errorf("%w: native reference %q", ErrInvalidInput, s)
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return NativeRef{}, fmt.Errorf("%w: native reference %q", ErrInvalidInput, s)
	}
	return NativeRef{Type: NativeType(typ), Index: Index(n)}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (r NativeRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *NativeRef) UnmarshalText(text []byte) error {
	parsed, err := ParseNativeRef(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// NativeRecord is one read-only entry from the host object model.
type NativeRecord struct {
	// Type is the record kind.
	Type NativeType `json:"type"`

	// Index is the per-type key; NoIndex for unsaved records.
	Index Index `json:"index"`

	// Name is the host display name.
	Name string `json:"name,omitempty"`

	// Fields is the flat parameter bag copied onto converted objects.
	Fields map[string]any `json:"fields,omitempty"`

	// References holds named cross-references (e.g. "nodes", "axis").
	References map[string][]NativeRef `json:"references,omitempty"`

	// RefsA feeds the aggregate/member (Design) topology.
	RefsA []NativeRef `json:"refsA,omitempty"`

	// RefsB feeds the discretized/element (Analysis) topology.
	RefsB []NativeRef `json:"refsB,omitempty"`
}

// Ref returns the record's address.
func (r *NativeRecord) Ref() NativeRef {
	return NativeRef{Type: r.Type, Index: r.Index}
}

// ID returns the native element ID ("Type:Index").
func (r *NativeRecord) ID() string {
	return r.Ref().String()
}

// Float returns a numeric field and whether it was present.
// Integer values are widened.
func (r *NativeRecord) Float(key string) (float64, bool) {
	switch v := r.Fields[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Text returns a string field or "".
func (r *NativeRecord) Text(key string) string {
	s, _ := r.Fields[key].(string)
	return s
}
