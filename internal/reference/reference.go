// Package reference loads the static airport and correction point list.
package reference

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/cold-temp-correction/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed airports.yaml
var defaultAirports []byte

type file struct {
	Airports []airport `yaml:"airports"`
}

type airport struct {
	Identifier       string            `yaml:"identifier"`
	Name             string            `yaml:"name"`
	ElevationFt      int               `yaml:"elevation_ft"`
	Notes            string            `yaml:"notes"`
	CorrectionPoints []correctionPoint `yaml:"correction_points"`
}

type correctionPoint struct {
	Name                string `yaml:"name"`
	PublishedAltitudeFt int    `yaml:"published_altitude_ft"`
	ObstacleClearanceFt int    `yaml:"obstacle_clearance_ft"`
}

// Default returns the built-in airport list.
func Default() ([]domain.AirportRef, error) {
	return Parse(defaultAirports)
}

// Load reads the airport list from path, or the built-in list when path is empty.
func Load(path string) ([]domain.AirportRef, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference file: %w", err)
	}
	airports, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return airports, nil
}

// Parse decodes and validates a YAML airport list. Unknown keys and duplicate
// identifiers are rejected.
func Parse(data []byte) ([]domain.AirportRef, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}
	if len(f.Airports) == 0 {
		return nil, errors.New("reference data lists no airports")
	}

	seen := make(map[string]bool, len(f.Airports))
	out := make([]domain.AirportRef, 0, len(f.Airports))
	for _, a := range f.Airports {
		ref := a.toDomain()
		if err := ref.Validate(); err != nil {
			return nil, err
		}
		if seen[ref.Identifier] {
			return nil, fmt.Errorf("duplicate airport %s", ref.Identifier)
		}
		seen[ref.Identifier] = true
		out = append(out, ref)
	}
	return out, nil
}

func (a airport) toDomain() domain.AirportRef {
	points := make([]domain.CorrectionPoint, len(a.CorrectionPoints))
	for i, p := range a.CorrectionPoints {
		points[i] = domain.CorrectionPoint{
			Name:                p.Name,
			PublishedAltitudeFt: p.PublishedAltitudeFt,
			ObstacleClearanceFt: p.ObstacleClearanceFt,
		}
	}
	return domain.AirportRef{
		Identifier:       a.Identifier,
		Name:             a.Name,
		ElevationFt:      a.ElevationFt,
		Notes:            a.Notes,
		CorrectionPoints: points,
	}
}
