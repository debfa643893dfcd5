package services

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
	"github.com/custodia-labs/bimlink/internal/logger"
	"github.com/custodia-labs/bimlink/internal/mappers"
)

func newTestConverter(store driven.NativeStore) *Converter {
	return NewConverter(store, mappers.NewDefaultRegistry(), domain.DefaultEngineSettings(), nil)
}

func addNode(store *spyStore, index int, x, y float64) {
	store.addRecord(&domain.NativeRecord{
		Type:   domain.TypeNode,
		Index:  domain.Index(index),
		Fields: map[string]any{"x": x, "y": y, "z": 0.0},
	})
}

func TestConverter_SurfaceFansOutToBothLayers(t *testing.T) {
	store := newSpyStore()
	store.addRecord(&domain.NativeRecord{
		Type:  domain.TypeSurface,
		Index: 1,
		RefsA: []domain.NativeRef{domain.Ref(domain.TypeMember, 1)},
		RefsB: []domain.NativeRef{domain.Ref(domain.TypeElement2D, 1)},
	})

	report, err := newTestConverter(store).ConvertBatch(context.Background(),
		[]domain.NativeRef{domain.Ref(domain.TypeSurface, 1)}, domain.LayerBoth, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Converted)
	require.Len(t, report.Objects, 2)
	assert.Equal(t, report.Objects[0].ApplicationID, report.Objects[1].ApplicationID)
	assert.Equal(t, domain.LayerDesign, report.Objects[0].Layer)
	assert.Equal(t, domain.LayerAnalysis, report.Objects[1].Layer)
	assert.Zero(t, store.getRecord[domain.Ref(domain.TypeMember, 1)], "topology is referenced, not converted")
}

func TestConverter_SingleLayerRequest(t *testing.T) {
	store := newSpyStore()
	store.addRecord(&domain.NativeRecord{
		Type:  domain.TypeSurface,
		Index: 1,
		RefsA: []domain.NativeRef{domain.Ref(domain.TypeMember, 1)},
		RefsB: []domain.NativeRef{domain.Ref(domain.TypeElement2D, 1)},
	})

	report, err := newTestConverter(store).ConvertBatch(context.Background(),
		[]domain.NativeRef{domain.Ref(domain.TypeSurface, 1)}, domain.LayerAnalysis, nil)

	require.NoError(t, err)
	require.Len(t, report.Objects, 1)
	assert.Equal(t, domain.LayerAnalysis, report.Objects[0].Layer)
}

func TestConverter_GridSurfaceWithoutRequestedTopologyIsSkipped(t *testing.T) {
	store := newSpyStore()
	store.addRecord(&domain.NativeRecord{
		Type:  domain.TypeGridSurface,
		Index: 2,
		RefsB: []domain.NativeRef{domain.Ref(domain.TypeElement2D, 4)},
	})
	sink := &recordingSink{}

	report, err := newTestConverter(store).ConvertBatch(context.Background(),
		[]domain.NativeRef{domain.Ref(domain.TypeGridSurface, 2)}, domain.LayerDesign, sink)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, report.Failures)
	assert.Empty(t, report.Objects)
	assert.False(t, report.HasErrors())
	assert.Zero(t, sink.count(domain.SeverityError))
	assert.Equal(t, 1, sink.count(domain.SeverityInfo))
}

func TestConverter_SurfaceWithoutTopologyFails(t *testing.T) {
	store := newSpyStore()
	store.addRecord(&domain.NativeRecord{Type: domain.TypeSurface, Index: 3})

	report, err := newTestConverter(store).ConvertBatch(context.Background(),
		[]domain.NativeRef{domain.Ref(domain.TypeSurface, 3)}, domain.LayerBoth, nil)

	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "Surface:3", report.Failures[0].RecordID)
	assert.Contains(t, report.Failures[0].Reason, domain.ErrNoTopology.Error())
}

func TestConverter_MemberConvertsNodesOnce(t *testing.T) {
	store := newSpyStore()
	addNode(store, 1, 0, 0)
	addNode(store, 2, 3, 4)
	for _, index := range []int{1, 2} {
		store.addRecord(&domain.NativeRecord{
			Type:  domain.TypeMember,
			Index: domain.Index(index),
			References: map[string][]domain.NativeRef{
				"nodes": {domain.Ref(domain.TypeNode, 1), domain.Ref(domain.TypeNode, 2)},
				"axis":  {domain.Ref(domain.TypeAxis, 5)},
			},
		})
	}
	batch := []domain.NativeRef{
		domain.Ref(domain.TypeMember, 1),
		domain.Ref(domain.TypeMember, 2),
		domain.Ref(domain.TypeNode, 1),
	}

	report, err := newTestConverter(store).ConvertBatch(context.Background(), batch, domain.LayerBoth, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Converted)
	assert.Len(t, report.Objects, 3)
	assert.Equal(t, 1, store.getRecord[domain.Ref(domain.TypeNode, 1)])
	assert.Equal(t, 1, store.getRecord[domain.Ref(domain.TypeNode, 2)])
	assert.Zero(t, store.getRecord[domain.Ref(domain.TypeAxis, 5)])
	assert.Equal(t, "AxisType:5", report.Objects[0].Attributes["axis"])
}

func TestConverter_DuplicateRefsConvertOnce(t *testing.T) {
	store := newSpyStore()
	addNode(store, 1, 0, 0)
	ref := domain.Ref(domain.TypeNode, 1)

	report, err := newTestConverter(store).ConvertBatch(context.Background(), []domain.NativeRef{ref, ref}, domain.LayerBoth, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Converted)
	assert.Len(t, report.Objects, 1)
}

func TestConverter_UnsupportedAndMissingRecords(t *testing.T) {
	store := newSpyStore()
	sink := &recordingSink{}
	batch := []domain.NativeRef{{Type: "Wall", Index: 1}, domain.Ref(domain.TypeNode, 42)}

	report, err := newTestConverter(store).ConvertBatch(context.Background(), batch, domain.LayerBoth, sink)

	require.NoError(t, err)
	require.Len(t, report.Failures, 2)
	assert.Contains(t, report.Failures[0].Reason, domain.ErrUnsupportedType.Error())
	assert.Contains(t, report.Failures[1].Reason, domain.ErrValidation.Error())
	assert.Equal(t, 2, sink.count(domain.SeverityError))
}

func TestConverter_BuildsNetworks(t *testing.T) {
	store := newSpyStore()
	store.addRecord(pipe(1), conn(0, 0), conn(1, 0, "Pipe:2"))
	store.addRecord(pipe(2), conn(1, 0, "Pipe:1"), conn(2, 0, "Pipe:3"))
	store.addRecord(pipe(3), conn(2, 0, "Pipe:2"), conn(3, 0))
	store.addRecord(pipe(7), conn(10, 0), conn(11, 0))
	batch := []domain.NativeRef{
		domain.Ref(domain.TypePipe, 1),
		domain.Ref(domain.TypePipe, 2),
		domain.Ref(domain.TypePipe, 3),
		domain.Ref(domain.TypePipe, 7),
	}

	report, err := newTestConverter(store).ConvertBatch(context.Background(), batch, domain.LayerBoth, nil)

	require.NoError(t, err)
	assert.Equal(t, 4, report.Converted)
	require.Len(t, report.Networks, 2)
	assert.Len(t, report.Networks[0].Elements, 3)
	assert.Len(t, report.Networks[0].Links, 2)
	assert.Len(t, report.Networks[1].Elements, 1)
	for _, el := range report.Networks[0].Elements {
		require.NotNil(t, el.Object)
		assert.Equal(t, "Pipe", el.Object.Kind)
	}
	assert.Equal(t, 1, store.getRecord[domain.Ref(domain.TypePipe, 2)], "network elements come from the cache")
}

// flakyMapper returns NotReady until released.
type flakyMapper struct {
	calls    int
	releases int
}

func (m *flakyMapper) Types() []domain.NativeType { return []domain.NativeType{domain.TypeStorey} }
func (m *flakyMapper) Layered() bool              { return false }
func (m *flakyMapper) Map(_ context.Context, scope driven.MapScope, rec *domain.NativeRecord, target driven.LayerTarget) domain.Result {
	m.calls++
	if m.calls <= m.releases {
		return domain.NotReady("Storey:0")
	}
	return domain.Success(domain.NewConvertedObject(scope.ApplicationID(rec.Ref()), "Storey", target.Layer))
}

func TestConverter_NotReadyGetsOneMoreAttempt(t *testing.T) {
	ref := domain.Ref(domain.TypeStorey, 1)

	t.Run("resolves", func(t *testing.T) {
		store := newSpyStore()
		store.addRecord(&domain.NativeRecord{Type: domain.TypeStorey, Index: 1})
		registry := mappers.NewRegistry()
		registry.Register(&flakyMapper{releases: 1})

		report, err := NewConverter(store, registry, domain.DefaultEngineSettings(), nil).
			ConvertBatch(context.Background(), []domain.NativeRef{ref}, domain.LayerBoth, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Converted)
		assert.Empty(t, report.Failures)
	})

	t.Run("still waiting", func(t *testing.T) {
		store := newSpyStore()
		store.addRecord(&domain.NativeRecord{Type: domain.TypeStorey, Index: 1})
		registry := mappers.NewRegistry()
		registry.Register(&flakyMapper{releases: 10})

		report, err := NewConverter(store, registry, domain.DefaultEngineSettings(), nil).
			ConvertBatch(context.Background(), []domain.NativeRef{ref}, domain.LayerBoth, nil)

		require.NoError(t, err)
		require.Len(t, report.Failures, 1)
		assert.Contains(t, report.Failures[0].Reason, domain.ErrValidation.Error())
	})
}

func TestConverter_RecordsOutcomeMetrics(t *testing.T) {
	store := newSpyStore()
	addNode(store, 1, 0, 0)
	metrics := &countingMetrics{}

	_, err := NewConverter(store, mappers.NewDefaultRegistry(), domain.DefaultEngineSettings(), metrics).
		ConvertBatch(context.Background(), []domain.NativeRef{domain.Ref(domain.TypeNode, 1), domain.Ref(domain.TypeNode, 2)}, domain.LayerBoth, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, metrics.outcomes[domain.OutcomeSuccess])
	assert.Equal(t, 1, metrics.outcomes[domain.OutcomeFailure])
}

func TestConverter_CancelledContext(t *testing.T) {
	store := newSpyStore()
	addNode(store, 1, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestConverter(store).ConvertBatch(ctx, []domain.NativeRef{domain.Ref(domain.TypeNode, 1)}, domain.LayerBoth, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

// unindexedStore serves a surface whose index was never persisted.
type unindexedStore struct {
	*spyStore
	rec *domain.NativeRecord
}

func (s *unindexedStore) GetRecord(ctx context.Context, ref domain.NativeRef) (*domain.NativeRecord, error) {
	if ref == s.rec.Ref() {
		return s.rec, nil
	}
	return s.spyStore.GetRecord(ctx, ref)
}

func TestConverter_UnindexedSurfaceSharesOneIDAcrossLayers(t *testing.T) {
	rec := &domain.NativeRecord{
		Type:  domain.TypeSurface,
		Index: domain.NoIndex,
		RefsA: []domain.NativeRef{domain.Ref(domain.TypeMember, 1)},
		RefsB: []domain.NativeRef{domain.Ref(domain.TypeElement2D, 1)},
	}
	store := &unindexedStore{spyStore: newSpyStore(), rec: rec}

	report, err := newTestConverter(store).ConvertBatch(context.Background(),
		[]domain.NativeRef{rec.Ref()}, domain.LayerBoth, nil)

	require.NoError(t, err)
	require.Len(t, report.Objects, 2)
	design, analysis := report.Objects[0], report.Objects[1]
	assert.NotEmpty(t, design.ApplicationID)
	assert.Equal(t, design.ApplicationID, analysis.ApplicationID)
	assert.NotEqual(t, rec.Ref().String(), design.ApplicationID)
}

func TestConverter_LogsCacheSizeWhenVerbose(t *testing.T) {
	defer func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	}()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)

	store := newSpyStore()
	addNode(store, 1, 0, 0)
	addNode(store, 2, 1, 0)

	_, err := newTestConverter(store).ConvertBatch(context.Background(),
		[]domain.NativeRef{domain.Ref(domain.TypeNode, 1), domain.Ref(domain.TypeNode, 2)}, domain.LayerBoth, nil)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Conversion cache holds 2 entries")
}
