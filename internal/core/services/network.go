package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
	"github.com/custodia-labs/bimlink/internal/logger"
)

// ElementResolver converts a network element given its native ID.
type ElementResolver func(ctx context.Context, nativeID string) domain.Result

// NetworkBuilder rebuilds a connected network from connector adjacency.
type NetworkBuilder struct {
	store     driven.NativeStore
	ids       *IDAllocator
	tolerance float64
}

// NewNetworkBuilder creates a builder. A non-positive tolerance falls back
// to domain.DefaultConnectorTolerance.
func NewNetworkBuilder(store driven.NativeStore, ids *IDAllocator, tolerance float64) *NetworkBuilder {
	if tolerance <= 0 {
		tolerance = domain.DefaultConnectorTolerance
	}
	if ids == nil {
		ids = NewIDAllocator()
	}
	return &NetworkBuilder{store: store, ids: ids, tolerance: tolerance}
}

// traversal holds the state of one Build call.
type traversal struct {
	b          *NetworkBuilder
	batch      domain.BatchContext
	resolve    ElementResolver
	sink       driven.DiagnosticsSink
	network    *domain.Network
	index      map[string]int
	queue      []string
	connectors map[string][]domain.Connector
	linked     map[string]struct{}
}

// Build traverses breadth-first from seed. Elements are recorded in
// discovery order and each is visited once. Connected connectors whose
// partner lies outside the batch produce dangling links; such partners are
// never fetched. Links are deduplicated by unordered element pair.
//
// resolve may be nil, in which case elements carry no converted object.
func (b *NetworkBuilder) Build(
	ctx context.Context,
	seedID string,
	batch domain.BatchContext,
	resolve ElementResolver,
	sink driven.DiagnosticsSink,
) (*domain.Network, error) {
	t := &traversal{
		b:          b,
		batch:      batch,
		resolve:    resolve,
		sink:       sinkOrNop(sink),
		network:    &domain.Network{ApplicationID: "Network:" + seedID},
		index:      make(map[string]int),
		connectors: make(map[string][]domain.Connector),
		linked:     make(map[string]struct{}),
	}

	if _, err := t.connectorsOf(ctx, seedID); err != nil {
		return nil, fmt.Errorf("seed %s: %w", seedID, err)
	}
	t.discover(ctx, seedID)

	for len(t.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return t.network, err
		}
		id := t.queue[0]
		t.queue = t.queue[1:]
		t.visit(ctx, id)
	}

	logger.Debug("network %s: %d elements, %d links (%d dangling)",
		t.network.ApplicationID, len(t.network.Elements), len(t.network.Links), t.network.Dangling())
	return t.network, nil
}

// discover appends an element and queues it.
func (t *traversal) discover(ctx context.Context, id string) int {
	el := domain.NetworkElement{NativeID: id, ApplicationID: id, Kind: domain.ElementOther}
	if ref, err := domain.ParseNativeRef(id); err == nil {
		el.Type = ref.Type
		el.Kind = domain.KindOf(ref.Type)
		el.ApplicationID = t.b.ids.ForRef(ref)
	}
	if t.resolve != nil {
		res := t.resolve(ctx, id)
		switch {
		case res.OK():
			if obj := res.First(); obj != nil {
				el.Object = obj
				el.ApplicationID = obj.ApplicationID
			}
		case res.Outcome == domain.OutcomeSkip:
			t.sink.Report(domain.Infof(id, "network element not converted: %s", res.Reason))
		case res.Err != nil:
			t.sink.Report(domain.Warnf(id, "network element not converted: %v", res.Err))
		}
	}
	el.Connectors = t.connectors[id]

	i := len(t.network.Elements)
	t.network.Elements = append(t.network.Elements, el)
	t.index[id] = i
	t.queue = append(t.queue, id)
	return i
}

func (t *traversal) visit(ctx context.Context, id string) {
	self := t.index[id]
	conns, err := t.connectorsOf(ctx, id)
	if err != nil {
		t.sink.Report(domain.Warnf(id, "list connectors: %v", err))
		return
	}
	t.network.Elements[self].Connectors = conns

	for ci, c := range conns {
		if !c.IsConnected {
			continue
		}
		if len(c.Refs) == 0 {
			t.dangling(self, fmt.Sprintf("%s#%d", id, ci), c.Origin, "")
			continue
		}
		for _, ref := range c.Refs {
			if ref == id {
				continue
			}
			if !t.batch.Contains(ref) {
				t.dangling(self, id+"|"+ref, c.Origin, ref)
				continue
			}
			t.join(ctx, id, self, c, ref)
		}
	}
}

func (t *traversal) join(ctx context.Context, id string, self int, c domain.Connector, ref string) {
	theirs, err := t.connectorsOf(ctx, ref)
	if err != nil {
		t.sink.Report(domain.Warnf(id, "list connectors of %s: %v", ref, err))
		return
	}
	matched := false
	for _, other := range theirs {
		if c.Matches(other, t.b.tolerance) {
			matched = true
			break
		}
	}
	if !matched {
		t.sink.Report(domain.Warnf(id, "no %s/%s connector on %s at %s", c.Domain, c.Shape, ref, c.Origin))
		return
	}

	other, seen := t.index[ref]
	if !seen {
		other = t.discover(ctx, ref)
	}

	key := pairKey(id, ref)
	if _, done := t.linked[key]; done {
		return
	}
	t.linked[key] = struct{}{}
	t.network.Links = append(t.network.Links, domain.Link{
		Elements:    []int{self, other},
		Origin:      c.Origin,
		IsConnected: true,
	})
}

func (t *traversal) dangling(self int, key string, origin domain.Point, remote string) {
	key = "dangling:" + key
	if _, done := t.linked[key]; done {
		return
	}
	t.linked[key] = struct{}{}
	t.network.Links = append(t.network.Links, domain.Link{
		Elements:         []int{self},
		Origin:           origin,
		NeedsPlaceholder: true,
		RemoteID:         remote,
	})
}

func (t *traversal) connectorsOf(ctx context.Context, id string) ([]domain.Connector, error) {
	if conns, ok := t.connectors[id]; ok {
		return conns, nil
	}
	conns, err := t.b.store.ListConnectors(ctx, id)
	if err != nil {
		return nil, err
	}
	t.connectors[id] = conns
	return conns, nil
}

// pairKey is the same for (a, b) and (b, a).
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
