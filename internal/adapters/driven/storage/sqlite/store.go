package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/bimlink/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.NativeStore = (*Store)(nil)

// Store is a SQLite-backed host object model.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.bimlink/data/native.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".bimlink", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "native.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_native_store.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Seeding ====================

// AddRecord stores a record, replacing any record at the same reference.
func (s *Store) AddRecord(ctx context.Context, rec *domain.NativeRecord) error {
	if !rec.Index.IsSet() {
		return fmt.Errorf("%w: record %s has no index", domain.ErrInvalidInput, rec.Type)
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling record %s: %w", rec.ID(), err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (type, idx, body) VALUES (?, ?, ?)
		ON CONFLICT(type, idx) DO UPDATE SET body = excluded.body
	`, string(rec.Type), int(rec.Index), string(body))
	if err != nil {
		return fmt.Errorf("saving record %s: %w", rec.ID(), err)
	}
	return nil
}

// AddConnectors sets the connectors of an element.
func (s *Store) AddConnectors(ctx context.Context, elementID string, conns []domain.Connector) error {
	for i := range conns {
		conns[i].OwnerElementID = elementID
	}
	body, err := json.Marshal(conns)
	if err != nil {
		return fmt.Errorf("marshalling connectors of %s: %w", elementID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO connectors (element_id, body) VALUES (?, ?)
		ON CONFLICT(element_id) DO UPDATE SET body = excluded.body
	`, elementID, string(body))
	if err != nil {
		return fmt.Errorf("saving connectors of %s: %w", elementID, err)
	}
	return nil
}

// AddCatalogType registers the catalog type for a part type and family.
func (s *Store) AddCatalogType(ctx context.Context, part domain.PartType, family, typeID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog (part, family, type_id) VALUES (?, ?, ?)
		ON CONFLICT(part, family) DO UPDATE SET type_id = excluded.type_id
	`, string(part), family, typeID)
	if err != nil {
		return fmt.Errorf("saving catalog type %s: %w", typeID, err)
	}
	return nil
}

// ==================== Reads ====================

// GetRecord reads one record.
func (s *Store) GetRecord(ctx context.Context, ref domain.NativeRef) (*domain.NativeRecord, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM records WHERE type = ? AND idx = ?",
		string(ref.Type), int(ref.Index)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading record %s: %w", ref, err)
	}
	var rec domain.NativeRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("unmarshalling record %s: %w", ref, err)
	}
	return &rec, nil
}

// ListConnectors returns the connectors of a record or a created element.
func (s *Store) ListConnectors(ctx context.Context, elementID string) ([]domain.Connector, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM connectors WHERE element_id = ?", elementID).Scan(&body)
	switch {
	case err == nil:
		var conns []domain.Connector
		if err := json.Unmarshal([]byte(body), &conns); err != nil {
			return nil, fmt.Errorf("unmarshalling connectors of %s: %w", elementID, err)
		}
		return conns, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("reading connectors of %s: %w", elementID, err)
	}

	el, err := s.element(ctx, s.db, elementID)
	if err == nil {
		return el.Connectors(), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if ref, perr := domain.ParseNativeRef(elementID); perr == nil {
		if _, err := s.GetRecord(ctx, ref); err == nil {
			return nil, nil
		}
	}
	return nil, domain.ErrNotFound
}

// FindFittingType looks up a catalog type.
func (s *Store) FindFittingType(ctx context.Context, part domain.PartType, family string) (string, bool, error) {
	var typeID string
	err := s.db.QueryRowContext(ctx, "SELECT type_id FROM catalog WHERE part = ? AND family = ?",
		string(part), family).Scan(&typeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading catalog: %w", err)
	}
	return typeID, true, nil
}

// Element returns a created element.
func (s *Store) Element(ctx context.Context, nativeID string) (*domain.HostElement, error) {
	return s.element(ctx, s.db, nativeID)
}

// Elements returns created elements in creation order.
func (s *Store) Elements(ctx context.Context) ([]*domain.HostElement, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT body, type_id FROM elements ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("listing elements: %w", err)
	}
	defer rows.Close()

	var out []*domain.HostElement
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, rows.Err()
}

// ==================== Writes ====================

// CreateElement creates a standalone element.
func (s *Store) CreateElement(ctx context.Context, kind domain.NativeType, geometry domain.Geometry, params map[string]any) (string, error) {
	el := &domain.HostElement{
		NativeID: uuid.NewString(),
		Type:     kind,
		Geometry: geometry,
		Params:   params,
	}
	if err := insertElement(ctx, s.db, el); err != nil {
		return "", err
	}
	return el.NativeID, nil
}

// CreateFitting creates a fitting joining existing elements.
func (s *Store) CreateFitting(ctx context.Context, part domain.PartType, refs []domain.ConnectorRef) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	joined := make([]*domain.HostElement, 0, len(refs))
	points := make([]domain.Point, 0, len(refs))
	for _, ref := range refs {
		el, err := s.element(ctx, tx, ref.ElementID)
		if err != nil {
			return "", fmt.Errorf("join %s: %w", ref.ElementID, err)
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
	if err := insertElement(ctx, tx, el); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing fitting: %w", err)
	}
	return el.NativeID, nil
}

// ChangeType swaps the catalog type of a created element.
func (s *Store) ChangeType(ctx context.Context, nativeID, typeID string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE elements SET type_id = ? WHERE native_id = ?", typeID, nativeID)
	if err != nil {
		return fmt.Errorf("changing type of %s: %w", nativeID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("changing type of %s: %w", nativeID, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Helpers ====================

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) element(ctx context.Context, q querier, nativeID string) (*domain.HostElement, error) {
	row := q.QueryRowContext(ctx, "SELECT body, type_id FROM elements WHERE native_id = ?", nativeID)
	el, err := scanElement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return el, err
}

func insertElement(ctx context.Context, q querier, el *domain.HostElement) error {
	body, err := json.Marshal(el)
	if err != nil {
		return fmt.Errorf("marshalling element: %w", err)
	}
	_, err = q.ExecContext(ctx, "INSERT INTO elements (native_id, type, type_id, body) VALUES (?, ?, ?, ?)",
		el.NativeID, string(el.Type), nullString(el.TypeID), string(body))
	if err != nil {
		return fmt.Errorf("saving element %s: %w", el.NativeID, err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanElement scans an element; the type_id column wins over the body.
func scanElement(row scanner) (*domain.HostElement, error) {
	var body string
	var typeID sql.NullString
	if err := row.Scan(&body, &typeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning element: %w", err)
	}
	var el domain.HostElement
	if err := json.Unmarshal([]byte(body), &el); err != nil {
		return nil, fmt.Errorf("unmarshalling element: %w", err)
	}
	if typeID.Valid {
		el.TypeID = typeID.String
	}
	return &el, nil
}

// nullString converts an empty string to NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
