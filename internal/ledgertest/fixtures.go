package ledgertest

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Fixture is a declarative seed for the fake ledger. Materials and
// partners reference categories and types by name so fixture files stay
// readable.
type Fixture struct {
	Categories []string `yaml:"categories"`
	Materials  []struct {
		Name     string  `yaml:"name"`
		Category string  `yaml:"category"`
		Unit     string  `yaml:"unit"`
		Stock    float64 `yaml:"stock"`
	} `yaml:"materials"`
	PartnerTypes []string `yaml:"partner_types"`
	Partners     []struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	} `yaml:"partners"`
	Associations []struct {
		Name  string `yaml:"name"`
		TaxID string `yaml:"tax_id"`
	} `yaml:"associations"`
	Buyers []struct {
		Name  string `yaml:"name"`
		TaxID string `yaml:"tax_id"`
	} `yaml:"buyers"`
}

// ParseFixture decodes a YAML fixture document.
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	return f, nil
}

// Seed loads a fixture into the store. Call once per fresh database.
func (s *Store) Seed(f Fixture) error {
	categoryIDs := map[string]int64{}
	for _, name := range f.Categories {
		res, err := s.db.Exec("INSERT INTO categories (name) VALUES (?)", name)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
		categoryIDs[name], _ = res.LastInsertId()
	}

	for _, m := range f.Materials {
		unit := m.Unit
		if unit == "" {
			unit = "kg"
		}
		var catID any
		if id, ok := categoryIDs[m.Category]; ok {
			catID = id
		}
		if _, err := s.db.Exec(
			"INSERT INTO materials (name, category_id, unit, active, stock) VALUES (?, ?, ?, 1, ?)",
			m.Name, catID, unit, m.Stock); err != nil {
			return fmt.Errorf("seed material %q: %w", m.Name, err)
		}
	}

	typeIDs := map[string]int64{}
	for _, name := range f.PartnerTypes {
		res, err := s.db.Exec("INSERT INTO partner_types (name) VALUES (?)", name)
		if err != nil {
			return fmt.Errorf("seed partner type %q: %w", name, err)
		}
		typeIDs[name], _ = res.LastInsertId()
	}

	for _, p := range f.Partners {
		var typeID any
		if id, ok := typeIDs[p.Type]; ok {
			typeID = id
		}
		if _, err := s.db.Exec(
			"INSERT INTO partners (name, type_id, active) VALUES (?, ?, 1)",
			p.Name, typeID); err != nil {
			return fmt.Errorf("seed partner %q: %w", p.Name, err)
		}
	}

	for _, a := range f.Associations {
		if _, err := s.db.Exec(
			"INSERT INTO associations (name, tax_id, active) VALUES (?, ?, 1)",
			a.Name, a.TaxID); err != nil {
			return fmt.Errorf("seed association %q: %w", a.Name, err)
		}
	}

	for _, b := range f.Buyers {
		if _, err := s.db.Exec(
			"INSERT INTO buyers (name, tax_id, active) VALUES (?, ?, 1)",
			b.Name, b.TaxID); err != nil {
			return fmt.Errorf("seed buyer %q: %w", b.Name, err)
		}
	}
	return nil
}

// SeedDefault loads the embedded seed.yaml fixture.
func (s *Store) SeedDefault() error {
	f, err := ParseFixture(defaultSeed)
	if err != nil {
		return err
	}
	return s.Seed(f)
}
