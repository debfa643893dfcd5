package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/bimlink/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// recordingSink collects diagnostics.
type recordingSink struct {
	mu          sync.Mutex
	diagnostics []domain.Diagnostic
}

func (s *recordingSink) Report(d domain.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnostics = append(s.diagnostics, d)
}

func (s *recordingSink) count(sev domain.Severity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// countingMetrics counts metric events.
type countingMetrics struct {
	hits, misses, retries, fallbacks int
	outcomes                         map[domain.Outcome]int
}

func (m *countingMetrics) CacheHit()  { m.hits++ }
func (m *countingMetrics) CacheMiss() { m.misses++ }
func (m *countingMetrics) Retry()     { m.retries++ }
func (m *countingMetrics) Fallback()  { m.fallbacks++ }
func (m *countingMetrics) Outcome(_ domain.NativeType, o domain.Outcome) {
	if m.outcomes == nil {
		m.outcomes = make(map[domain.Outcome]int)
	}
	m.outcomes[o]++
}

// spyStore wraps the in-memory store and records host calls.
type spyStore struct {
	*memory.NativeStore
	getRecord      map[domain.NativeRef]int
	listConnectors map[string]int
	fittingCalls   [][]domain.ConnectorRef
	changeType     []string
	createElement  int
}

var _ driven.NativeStore = (*spyStore)(nil)

func newSpyStore() *spyStore {
	return &spyStore{
		NativeStore:    memory.NewNativeStore(),
		getRecord:      make(map[domain.NativeRef]int),
		listConnectors: make(map[string]int),
	}
}

func (s *spyStore) GetRecord(ctx context.Context, ref domain.NativeRef) (*domain.NativeRecord, error) {
	s.getRecord[ref]++
	return s.NativeStore.GetRecord(ctx, ref)
}

func (s *spyStore) ListConnectors(ctx context.Context, id string) ([]domain.Connector, error) {
	s.listConnectors[id]++
	return s.NativeStore.ListConnectors(ctx, id)
}

func (s *spyStore) CreateElement(ctx context.Context, kind domain.NativeType, g domain.Geometry, params map[string]any) (string, error) {
	s.createElement++
	return s.NativeStore.CreateElement(ctx, kind, g, params)
}

func (s *spyStore) CreateFitting(ctx context.Context, part domain.PartType, refs []domain.ConnectorRef) (string, error) {
	s.fittingCalls = append(s.fittingCalls, append([]domain.ConnectorRef(nil), refs...))
	return s.NativeStore.CreateFitting(ctx, part, refs)
}

func (s *spyStore) ChangeType(ctx context.Context, nativeID, typeID string) error {
	s.changeType = append(s.changeType, typeID)
	return s.NativeStore.ChangeType(ctx, nativeID, typeID)
}

// addRecord stores a record and its connectors.
func (s *spyStore) addRecord(rec *domain.NativeRecord, conns ...domain.Connector) {
	ctx := context.Background()
	if err := s.AddRecord(ctx, rec); err != nil {
		panic(err)
	}
	if len(conns) > 0 {
		if err := s.AddConnectors(ctx, rec.ID(), conns); err != nil {
			panic(err)
		}
	}
}

func pipeEnd(x float64, refs ...string) domain.Connector {
	return domain.Connector{
		Origin:      domain.Point{X: x},
		Domain:      domain.DomainPiping,
		Shape:       domain.ShapeRound,
		Size:        0.1,
		IsConnected: len(refs) > 0,
		Refs:        refs,
	}
}
