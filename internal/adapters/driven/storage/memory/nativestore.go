package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// Ensure NativeStore implements the interface.
var _ driven.NativeStore = (*NativeStore)(nil)

// NativeStore is an in-memory host object model.
type NativeStore struct {
	mu         sync.RWMutex
	records    map[domain.NativeRef]*domain.NativeRecord
	connectors map[string][]domain.Connector
	elements   map[string]*domain.HostElement
	order      []string
	catalog    map[string]string
}

// NewNativeStore creates an empty store.
func NewNativeStore() *NativeStore {
	return &NativeStore{
		records:    make(map[domain.NativeRef]*domain.NativeRecord),
		connectors: make(map[string][]domain.Connector),
		elements:   make(map[string]*domain.HostElement),
		catalog:    make(map[string]string),
	}
}

// AddRecord stores a record, replacing any record at the same reference.
func (s *NativeStore) AddRecord(_ context.Context, rec *domain.NativeRecord) error {
	if !rec.Index.IsSet() {
		return fmt.Errorf("%w: record %s has no index", domain.ErrInvalidInput, rec.Type)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Ref()] = rec
	return nil
}

// AddConnectors sets the connectors of an element.
func (s *NativeStore) AddConnectors(_ context.Context, elementID string, conns []domain.Connector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range conns {
		conns[i].OwnerElementID = elementID
	}
	s.connectors[elementID] = conns
	return nil
}

// AddCatalogType registers the catalog type for a part type and family.
func (s *NativeStore) AddCatalogType(_ context.Context, part domain.PartType, family, typeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[catalogKey(part, family)] = typeID
	return nil
}

// GetRecord reads one record.
func (s *NativeStore) GetRecord(_ context.Context, ref domain.NativeRef) (*domain.NativeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// ListConnectors returns the connectors of a record or a created element.
func (s *NativeStore) ListConnectors(_ context.Context, elementID string) ([]domain.Connector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if conns, ok := s.connectors[elementID]; ok {
		return append([]domain.Connector(nil), conns...), nil
	}
	if el, ok := s.elements[elementID]; ok {
		return el.Connectors(), nil
	}
	if ref, err := domain.ParseNativeRef(elementID); err == nil {
		if _, ok := s.records[ref]; ok {
			return nil, nil
		}
	}
	return nil, domain.ErrNotFound
}

// CreateElement creates a standalone element.
func (s *NativeStore) CreateElement(_ context.Context, kind domain.NativeType, geometry domain.Geometry, params map[string]any) (string, error) {
	el := &domain.HostElement{
		NativeID: uuid.NewString(),
		Type:     kind,
		Geometry: geometry,
		Params:   params,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(el)
	return el.NativeID, nil
}

// CreateFitting creates a fitting joining existing elements.
func (s *NativeStore) CreateFitting(_ context.Context, part domain.PartType, refs []domain.ConnectorRef) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	joined := make([]*domain.HostElement, 0, len(refs))
	points := make([]domain.Point, 0, len(refs))
	for _, ref := range refs {
		el, ok := s.elements[ref.ElementID]
		if !ok {
			return "", fmt.Errorf("join %s: %w", ref.ElementID, domain.ErrNotFound)
		}
		joined = append(joined, el)
		points = append(points, ref.Origin)
	}
	if err := domain.CheckFittingGeometry(part, joined); err != nil {
		return "", err
	}

	el := &domain.HostElement{
		NativeID:    uuid.NewString(),
		Type:        domain.TypeFitting,
		Geometry:    domain.PointGeometry(domain.Centroid(points)),
		Part:        part,
		Connections: append([]domain.ConnectorRef(nil), refs...),
	}
	s.put(el)
	return el.NativeID, nil
}

// ChangeType swaps the catalog type of a created element.
func (s *NativeStore) ChangeType(_ context.Context, nativeID, typeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[nativeID]
	if !ok {
		return domain.ErrNotFound
	}
	el.TypeID = typeID
	return nil
}

// FindFittingType looks up a catalog type.
func (s *NativeStore) FindFittingType(_ context.Context, part domain.PartType, family string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	typeID, ok := s.catalog[catalogKey(part, family)]
	return typeID, ok, nil
}

// Element returns a created element.
func (s *NativeStore) Element(nativeID string) (*domain.HostElement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.elements[nativeID]
	return el, ok
}

// Elements returns created elements in creation order.
func (s *NativeStore) Elements() []*domain.HostElement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.HostElement, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.elements[id])
	}
	return out
}

// put must be called with the lock held.
func (s *NativeStore) put(el *domain.HostElement) {
	s.elements[el.NativeID] = el
	s.order = append(s.order, el.NativeID)
}

func catalogKey(part domain.PartType, family string) string {
	return string(part) + "|" + family
}
