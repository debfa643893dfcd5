package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bimlink/internal/core/domain"
)

func TestNativeStore_Records(t *testing.T) {
	store := NewNativeStore()
	ctx := context.Background()

	rec := &domain.NativeRecord{Type: domain.TypeNode, Index: 1, Fields: map[string]any{"x": 1.0}}
	require.NoError(t, store.AddRecord(ctx, rec))

	got, err := store.GetRecord(ctx, domain.Ref(domain.TypeNode, 1))
	require.NoError(t, err)
	assert.Same(t, rec, got)

	_, err = store.GetRecord(ctx, domain.Ref(domain.TypeNode, 2))
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = store.AddRecord(ctx, &domain.NativeRecord{Type: domain.TypeNode})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNativeStore_ListConnectors(t *testing.T) {
	store := NewNativeStore()
	ctx := context.Background()
	require.NoError(t, store.AddRecord(ctx, &domain.NativeRecord{Type: domain.TypePipe, Index: 1}))
	require.NoError(t, store.AddRecord(ctx, &domain.NativeRecord{Type: domain.TypePipe, Index: 2}))
	require.NoError(t, store.AddConnectors(ctx, "Pipe:1", []domain.Connector{
		{Origin: domain.Point{X: 1}, Domain: domain.DomainPiping, Shape: domain.ShapeRound, IsConnected: true, Refs: []string{"Pipe:2"}},
	}))

	conns, err := store.ListConnectors(ctx, "Pipe:1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "Pipe:1", conns[0].OwnerElementID)

	conns, err = store.ListConnectors(ctx, "Pipe:2")
	require.NoError(t, err)
	assert.Empty(t, conns)

	_, err = store.ListConnectors(ctx, "Pipe:3")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNativeStore_CreateAndFit(t *testing.T) {
	store := NewNativeStore()
	ctx := context.Background()

	a, err := store.CreateElement(ctx, domain.TypePipe,
		domain.LineGeometry(domain.Point{}, domain.Point{X: 1}), map[string]any{"size": 0.1, "domain": "piping"})
	require.NoError(t, err)
	b, err := store.CreateElement(ctx, domain.TypePipe,
		domain.LineGeometry(domain.Point{X: 1}, domain.Point{X: 1, Y: 1}), map[string]any{"size": 0.1})
	require.NoError(t, err)

	conns, err := store.ListConnectors(ctx, a)
	require.NoError(t, err)
	require.Len(t, conns, 2)
	assert.Equal(t, domain.DomainPiping, conns[0].Domain)
	assert.False(t, conns[0].IsConnected)

	id, err := store.CreateFitting(ctx, domain.PartElbow, []domain.ConnectorRef{
		{ElementID: a, Origin: domain.Point{X: 1}},
		{ElementID: b, Origin: domain.Point{X: 1}},
	})
	require.NoError(t, err)

	el, ok := store.Element(id)
	require.True(t, ok)
	assert.Equal(t, domain.PartElbow, el.Part)
	assert.Len(t, el.Connections, 2)
	assert.Len(t, store.Elements(), 3)

	_, err = store.CreateFitting(ctx, domain.PartElbow, []domain.ConnectorRef{{ElementID: "nope"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNativeStore_TransitionOrientation(t *testing.T) {
	store := NewNativeStore()
	ctx := context.Background()

	small, _ := store.CreateElement(ctx, domain.TypeDuct, domain.Geometry{}, map[string]any{"size": 0.2})
	large, _ := store.CreateElement(ctx, domain.TypeDuct, domain.Geometry{}, map[string]any{"size": 0.4})

	_, err := store.CreateFitting(ctx, domain.PartTransition, []domain.ConnectorRef{{ElementID: small}, {ElementID: large}})
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)

	_, err = store.CreateFitting(ctx, domain.PartTransition, []domain.ConnectorRef{{ElementID: large}, {ElementID: small}})
	assert.NoError(t, err)
}

func TestNativeStore_Catalog(t *testing.T) {
	store := NewNativeStore()
	ctx := context.Background()
	require.NoError(t, store.AddCatalogType(ctx, domain.PartTee, "Generic", "tee-generic"))

	typeID, ok, err := store.FindFittingType(ctx, domain.PartTee, "Generic")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tee-generic", typeID)

	_, ok, _ = store.FindFittingType(ctx, domain.PartCross, "Generic")
	assert.False(t, ok)

	id, _ := store.CreateElement(ctx, domain.TypeFitting, domain.Geometry{}, nil)
	require.NoError(t, store.ChangeType(ctx, id, typeID))
	el, _ := store.Element(id)
	assert.Equal(t, "tee-generic", el.TypeID)
	assert.ErrorIs(t, store.ChangeType(ctx, "nope", typeID), domain.ErrNotFound)
}
