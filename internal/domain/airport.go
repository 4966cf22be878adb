package domain

import (
	"fmt"
	"regexp"
)

// CorrectionPoint is a published minimum altitude subject to cold temperature
// correction, e.g. an IAF altitude or a sector minimum altitude.
type CorrectionPoint struct {
	Name                string `json:"name"`
	PublishedAltitudeFt int    `json:"published_altitude_ft"`
	ObstacleClearanceFt int    `json:"obstacle_clearance_ft,omitempty"` // 0 means DefaultObstacleClearanceFt
}

// Clearance returns the obstacle clearance used for banding.
func (p CorrectionPoint) Clearance() int {
	if p.ObstacleClearanceFt == 0 {
		return DefaultObstacleClearanceFt
	}
	return p.ObstacleClearanceFt
}

// AirportRef is one entry of the static airport reference list.
type AirportRef struct {
	Identifier       string            `json:"identifier"`
	Name             string            `json:"name"`
	ElevationFt      int               `json:"elevation_ft"`
	Notes            string            `json:"notes,omitempty"`
	CorrectionPoints []CorrectionPoint `json:"correction_points"`
}

var identifierRe = regexp.MustCompile(`^[A-Z]{4}$`)

// Validate checks the reference entry before any table is built from it.
func (a AirportRef) Validate() error {
	if !identifierRe.MatchString(a.Identifier) {
		return fmt.Errorf("airport identifier %q must be 4 uppercase letters: %w", a.Identifier, ErrInvalidInput)
	}
	if a.ElevationFt < 0 {
		return fmt.Errorf("%s: elevation %d ft must not be negative: %w", a.Identifier, a.ElevationFt, ErrInvalidInput)
	}
	if len(a.CorrectionPoints) == 0 {
		return fmt.Errorf("%s: no correction points: %w", a.Identifier, ErrInvalidInput)
	}
	for _, p := range a.CorrectionPoints {
		if p.PublishedAltitudeFt <= 0 {
			return fmt.Errorf("%s %s: published altitude %d ft must be positive: %w", a.Identifier, p.Name, p.PublishedAltitudeFt, ErrInvalidInput)
		}
		if p.ObstacleClearanceFt < 0 {
			return fmt.Errorf("%s %s: obstacle clearance %d ft must not be negative: %w", a.Identifier, p.Name, p.ObstacleClearanceFt, ErrInvalidInput)
		}
	}
	return nil
}

// Identifiers returns the station identifiers of airports in order.
func Identifiers(airports []AirportRef) []string {
	ids := make([]string, len(airports))
	for i, a := range airports {
		ids[i] = a.Identifier
	}
	return ids
}
