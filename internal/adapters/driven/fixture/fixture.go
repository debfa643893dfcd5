package fixture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/bimlink/internal/core/domain"
)

// Seeder accepts fixture contents.
type Seeder interface {
	AddRecord(ctx context.Context, rec *domain.NativeRecord) error
	AddConnectors(ctx context.Context, elementID string, conns []domain.Connector) error
	AddCatalogType(ctx context.Context, part domain.PartType, family, typeID string) error
}

// Fixture is the decoded file.
type Fixture struct {
	Batch   []string      `yaml:"batch" toml:"batch"`
	Records []Record      `yaml:"records" toml:"records"`
	Catalog []CatalogType `yaml:"catalog" toml:"catalog"`
}

// Record is one native record.
type Record struct {
	Type       string              `yaml:"type" toml:"type"`
	Index      int                 `yaml:"index" toml:"index"`
	Name       string              `yaml:"name" toml:"name"`
	Fields     map[string]any      `yaml:"fields" toml:"fields"`
	References map[string][]string `yaml:"references" toml:"references"`
	RefsA      []string            `yaml:"refsA" toml:"refsA"`
	RefsB      []string            `yaml:"refsB" toml:"refsB"`
	Connectors []Connector         `yaml:"connectors" toml:"connectors"`
}

// Connector is one connector of a record.
type Connector struct {
	Origin    domain.Point `yaml:"origin" toml:"origin"`
	Domain    string       `yaml:"domain" toml:"domain"`
	Shape     string       `yaml:"shape" toml:"shape"`
	Size      float64      `yaml:"size" toml:"size"`
	Connected bool         `yaml:"connected" toml:"connected"`
	Refs      []string     `yaml:"refs" toml:"refs"`
}

// CatalogType is one fitting catalog entry.
type CatalogType struct {
	Part   string `yaml:"part" toml:"part"`
	Family string `yaml:"family" toml:"family"`
	TypeID string `yaml:"typeId" toml:"typeId"`
}

// decoder unmarshals one file format.
type decoder func(data []byte, v any) error

var decoders = map[string]decoder{
	".yaml": yaml.Unmarshal,
	".yml":  yaml.Unmarshal,
	".toml": toml.Unmarshal,
}

// Load reads a fixture file. The format is chosen by extension.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes fixture data in the format named by ext (".yaml", ".yml" or ".toml").
func Parse(data []byte, ext string) (*Fixture, error) {
	decode, ok := decoders[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: fixture format %q", domain.ErrUnsupportedType, ext)
	}
	var f Fixture
	if err := decode(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Formats returns the supported file extensions.
func Formats() []string {
	return []string{".yaml", ".yml", ".toml"}
}

func (f *Fixture) validate() error {
	seen := make(map[string]struct{}, len(f.Records))
	for i, r := range f.Records {
		t := domain.NativeType(r.Type)
		if !t.IsValid() {
			return fmt.Errorf("%w: record %d: type %q", domain.ErrUnsupportedType, i, r.Type)
		}
		if !domain.Index(r.Index).IsSet() {
			return fmt.Errorf("%w: record %d (%s) has no index", domain.ErrInvalidInput, i, r.Type)
		}
		id := domain.Ref(t, r.Index).String()
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate record %s", domain.ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}
	for _, id := range f.Batch {
		if _, err := domain.ParseNativeRef(id); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
	}
	for _, c := range f.Catalog {
		if _, err := domain.ParsePartType(c.Part); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}
	return nil
}

// BatchRefs returns the batch, or every record in file order when no batch
// is given.
func (f *Fixture) BatchRefs() []domain.NativeRef {
	if len(f.Batch) == 0 {
		refs := make([]domain.NativeRef, 0, len(f.Records))
		for _, r := range f.Records {
			refs = append(refs, domain.Ref(domain.NativeType(r.Type), r.Index))
		}
		return refs
	}
	refs := make([]domain.NativeRef, 0, len(f.Batch))
	for _, id := range f.Batch {
		ref, _ := domain.ParseNativeRef(id)
		refs = append(refs, ref)
	}
	return refs
}

// Seed writes the fixture into s.
func (f *Fixture) Seed(ctx context.Context, s Seeder) error {
	for _, r := range f.Records {
		rec, err := r.native()
		if err != nil {
			return err
		}
		if err := s.AddRecord(ctx, rec); err != nil {
			return fmt.Errorf("seeding %s: %w", rec.ID(), err)
		}
		if len(r.Connectors) > 0 {
			if err := s.AddConnectors(ctx, rec.ID(), r.connectors()); err != nil {
				return fmt.Errorf("seeding connectors of %s: %w", rec.ID(), err)
			}
		}
	}
	return f.SeedCatalog(ctx, s)
}

// SeedCatalog writes only the fitting catalog into s.
func (f *Fixture) SeedCatalog(ctx context.Context, s Seeder) error {
	for _, c := range f.Catalog {
		part, _ := domain.ParsePartType(c.Part)
		if err := s.AddCatalogType(ctx, part, c.Family, c.TypeID); err != nil {
			return fmt.Errorf("seeding catalog %s: %w", c.TypeID, err)
		}
	}
	return nil
}

func (r Record) native() (*domain.NativeRecord, error) {
	rec := &domain.NativeRecord{
		Type:   domain.NativeType(r.Type),
		Index:  domain.Index(r.Index),
		Name:   r.Name,
		Fields: r.Fields,
	}
	var err error
	if len(r.References) > 0 {
		rec.References = make(map[string][]domain.NativeRef, len(r.References))
		for name, ids := range r.References {
			if rec.References[name], err = parseRefs(ids); err != nil {
				return nil, fmt.Errorf("%s %s: %w", rec.ID(), name, err)
			}
		}
	}
	if rec.RefsA, err = parseRefs(r.RefsA); err != nil {
		return nil, fmt.Errorf("%s refsA: %w", rec.ID(), err)
	}
	if rec.RefsB, err = parseRefs(r.RefsB); err != nil {
		return nil, fmt.Errorf("%s refsB: %w", rec.ID(), err)
	}
	return rec, nil
}

func (r Record) connectors() []domain.Connector {
	conns := make([]domain.Connector, 0, len(r.Connectors))
	for _, c := range r.Connectors {
		conns = append(conns, domain.Connector{
			Origin:      c.Origin,
			Domain:      domain.ConnectorDomain(c.Domain),
			Shape:       domain.ConnectorShape(c.Shape),
			Size:        c.Size,
			IsConnected: c.Connected || len(c.Refs) > 0,
			Refs:        c.Refs,
		})
	}
	return conns
}

func parseRefs(ids []string) ([]domain.NativeRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	refs := make([]domain.NativeRef, 0, len(ids))
	for _, id := range ids {
		ref, err := domain.ParseNativeRef(id)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
