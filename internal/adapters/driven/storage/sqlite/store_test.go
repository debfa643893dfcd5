package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bimlink/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

// ==================== Store Creation ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "native.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.AddRecord(context.Background(), &domain.NativeRecord{Type: domain.TypeNode, Index: 1}))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var versions int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)

	_, err = second.GetRecord(context.Background(), domain.Ref(domain.TypeNode, 1))
	assert.NoError(t, err)
}

// ==================== Records ====================

func TestStore_RecordRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	rec := &domain.NativeRecord{
		Type:   domain.TypeMember,
		Index:  3,
		Name:   "B3",
		Fields: map[string]any{"material": "S355", "weight": 12.5},
		References: map[string][]domain.NativeRef{
			"nodes": {domain.Ref(domain.TypeNode, 1), domain.Ref(domain.TypeNode, 2)},
		},
	}

	require.NoError(t, store.AddRecord(ctx, rec))
	got, err := store.GetRecord(ctx, rec.Ref())

	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestStore_AddRecordReplaces(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddRecord(ctx, &domain.NativeRecord{Type: domain.TypeStorey, Index: 1, Name: "L1"}))
	require.NoError(t, store.AddRecord(ctx, &domain.NativeRecord{Type: domain.TypeStorey, Index: 1, Name: "Level 1"}))

	got, err := store.GetRecord(ctx, domain.Ref(domain.TypeStorey, 1))
	require.NoError(t, err)
	assert.Equal(t, "Level 1", got.Name)
}

func TestStore_AddRecordRejectsUnsetIndex(t *testing.T) {
	store := setupTestStore(t)

	err := store.AddRecord(context.Background(), &domain.NativeRecord{Type: domain.TypeNode})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_GetRecordNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRecord(context.Background(), domain.Ref(domain.TypeNode, 404))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Connectors ====================

func TestStore_ListConnectors(t *testing.T) {
	store := setupTestStore(t)
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
	assert.Equal(t, []string{"Pipe:2"}, conns[0].Refs)

	conns, err = store.ListConnectors(ctx, "Pipe:2")
	require.NoError(t, err)
	assert.Empty(t, conns)

	_, err = store.ListConnectors(ctx, "Pipe:3")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListConnectorsOfCreatedElement(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.CreateElement(ctx, domain.TypeDuct,
		domain.LineGeometry(domain.Point{}, domain.Point{Y: 2}), map[string]any{"size": 0.3, "domain": "hvac"})
	require.NoError(t, err)

	conns, err := store.ListConnectors(ctx, id)
	require.NoError(t, err)
	require.Len(t, conns, 2)
	assert.Equal(t, domain.DomainHVAC, conns[1].Domain)
	assert.Equal(t, 0.3, conns[1].Size)
}

// ==================== Elements and Fittings ====================

func TestStore_CreateFitting(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	a, err := store.CreateElement(ctx, domain.TypePipe, domain.LineGeometry(domain.Point{}, domain.Point{X: 1}), map[string]any{"size": 0.1})
	require.NoError(t, err)
	b, err := store.CreateElement(ctx, domain.TypePipe, domain.LineGeometry(domain.Point{X: 1}, domain.Point{X: 2}), map[string]any{"size": 0.1})
	require.NoError(t, err)

	id, err := store.CreateFitting(ctx, domain.PartElbow, []domain.ConnectorRef{
		{ElementID: a, Origin: domain.Point{X: 1}},
		{ElementID: b, Origin: domain.Point{X: 1}},
	})
	require.NoError(t, err)

	el, err := store.Element(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TypeFitting, el.Type)
	assert.Equal(t, domain.PartElbow, el.Part)
	assert.Equal(t, domain.PointGeometry(domain.Point{X: 1}), el.Geometry)
	assert.Len(t, el.Connections, 2)

	all, err := store.Elements(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, a, all[0].NativeID)
	assert.Equal(t, id, all[2].NativeID)
}

func TestStore_CreateFittingMissingElement(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.CreateFitting(context.Background(), domain.PartElbow, []domain.ConnectorRef{{ElementID: "nope"}})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CreateFittingChecksTransitionDirection(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	small, err := store.CreateElement(ctx, domain.TypePipe, domain.Geometry{}, map[string]any{"size": 0.05})
	require.NoError(t, err)
	large, err := store.CreateElement(ctx, domain.TypePipe, domain.Geometry{}, map[string]any{"size": 0.1})
	require.NoError(t, err)

	_, err = store.CreateFitting(ctx, domain.PartTransition, []domain.ConnectorRef{{ElementID: small}, {ElementID: large}})
	assert.ErrorIs(t, err, domain.ErrInvalidGeometry)

	_, err = store.CreateFitting(ctx, domain.PartTransition, []domain.ConnectorRef{{ElementID: large}, {ElementID: small}})
	assert.NoError(t, err)

	all, err := store.Elements(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3, "rejected fitting must not be stored")
}

// ==================== Catalog ====================

func TestStore_CatalogAndChangeType(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, found, err := store.FindFittingType(ctx, domain.PartTee, "Welded")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.AddCatalogType(ctx, domain.PartTee, "Welded", "TEE-W"))
	typeID, found, err := store.FindFittingType(ctx, domain.PartTee, "Welded")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "TEE-W", typeID)

	id, err := store.CreateElement(ctx, domain.TypeFitting, domain.PointGeometry(domain.Point{}), nil)
	require.NoError(t, err)
	require.NoError(t, store.ChangeType(ctx, id, typeID))

	el, err := store.Element(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "TEE-W", el.TypeID)

	assert.ErrorIs(t, store.ChangeType(ctx, "missing", typeID), domain.ErrNotFound)
}
