package domain

import "fmt"

// HostElement is an element created in the host store by a receive.
type HostElement struct {
	NativeID    string         `json:"nativeId"`
	Type        NativeType     `json:"type"`
	Geometry    Geometry       `json:"geometry"`
	Params      map[string]any `json:"params,omitempty"`
	Part        PartType       `json:"part,omitempty"`
	Connections []ConnectorRef `json:"connections,omitempty"`
	TypeID      string         `json:"typeId,omitempty"`
}

// Size returns the element's nominal size parameter, or 0.
func (e *HostElement) Size() float64 {
	switch v := e.Params["size"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Connectors returns free connectors at the geometry's points.
func (e *HostElement) Connectors() []Connector {
	conns := make([]Connector, 0, len(e.Geometry.Points))
	discipline, _ := e.Params["domain"].(string)
	for _, p := range e.Geometry.Points {
		conns = append(conns, Connector{
			OwnerElementID: e.NativeID,
			Origin:         p,
			Domain:         ConnectorDomain(discipline),
			Size:           e.Size(),
		})
	}
	return conns
}

// CheckFittingGeometry applies the host's placement rule: a transition
// runs from its larger connector to its smaller one.
func CheckFittingGeometry(part PartType, joined []*HostElement) error {
	if part != PartTransition || len(joined) != 2 {
		return nil
	}
	if joined[0].Size() < joined[1].Size() {
		return fmt.Errorf("%w: transition from %g to %g", ErrInvalidGeometry, joined[0].Size(), joined[1].Size())
	}
	return nil
}
