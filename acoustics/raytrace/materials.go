package raytrace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrInvalidMaterial is returned for out-of-range material coefficients.
var ErrInvalidMaterial = errors.New("raytrace: invalid material")

// DefaultMaterialName names the material used for untagged and unknown faces.
const DefaultMaterialName = "default"

// Material holds per-band surface coefficients in [0, 1]. When a list is
// shorter than the band count, its last value repeats.
type Material struct {
	Name         string    `json:"name"`
	Absorption   []float64 `json:"absorption"`
	Scattering   []float64 `json:"scattering,omitempty"`
	Transmission []float64 `json:"transmission,omitempty"`
	Aliases      []string  `json:"aliases,omitempty"`
}

// AbsorptionAt returns the absorption coefficient of band b.
func (m *Material) AbsorptionAt(b int) float64 { return bandValue(m.Absorption, b, 0) }

// TransmissionAt returns the transmission coefficient of band b.
func (m *Material) TransmissionAt(b int) float64 { return bandValue(m.Transmission, b, 0) }

func bandValue(vals []float64, b int, def float64) float64 {
	if len(vals) == 0 {
		return def
	}
	if b >= len(vals) {
		b = len(vals) - 1
	}
	return vals[b]
}

func (m *Material) validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidMaterial)
	}
	for _, list := range [][]float64{m.Absorption, m.Scattering, m.Transmission} {
		for _, v := range list {
			if v < 0 || v > 1 {
				return fmt.Errorf("%w: %s has coefficient %v outside [0, 1]", ErrInvalidMaterial, m.Name, v)
			}
		}
	}
	return nil
}

// DefaultMaterial is a moderately reflective, opaque surface.
func DefaultMaterial() *Material {
	return &Material{Name: DefaultMaterialName, Absorption: []float64{0.1}}
}

// Database maps material names and aliases to materials.
type Database struct {
	byName   map[string]*Material
	fallback *Material
}

// NewDatabase returns a database holding only the default material.
func NewDatabase() *Database {
	return &Database{byName: map[string]*Material{}, fallback: DefaultMaterial()}
}

// LoadDatabase reads a materials JSON file.
func LoadDatabase(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raytrace: open materials %s: %w", path, err)
	}
	defer f.Close()

	db, err := ParseDatabase(f)
	if err != nil {
		return nil, fmt.Errorf("raytrace: materials %s: %w", path, err)
	}
	return db, nil
}

// ParseDatabase decodes
//
//	{"materials": [{"name": "carpet", "absorption": [0.1, 0.3], "aliases": ["rug"]}]}
//
// A material named "default" replaces the built-in fallback.
func ParseDatabase(r io.Reader) (*Database, error) {
	var doc struct {
		Materials []*Material `json:"materials"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	db := NewDatabase()
	for _, m := range doc.Materials {
		if m == nil {
			continue
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		if strings.EqualFold(m.Name, DefaultMaterialName) {
			db.fallback = m
			continue
		}
		db.byName[strings.ToLower(m.Name)] = m
		for _, a := range m.Aliases {
			db.byName[strings.ToLower(a)] = m
		}
	}
	return db, nil
}

// Lookup resolves name case-insensitively, falling back to the default
// material.
func (d *Database) Lookup(name string) *Material {
	if m, ok := d.byName[strings.ToLower(name)]; ok {
		return m
	}
	return d.fallback
}

// Len returns the number of distinct lookup keys, aliases included.
func (d *Database) Len() int { return len(d.byName) }
