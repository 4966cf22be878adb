package domain

import (
	"errors"
	"fmt"
	"math"
)

// LapseRate is the ICAO standard temperature lapse rate L0 in °C per foot.
const LapseRate = 0.00198

// MaxAltitudeFt bounds published altitudes and elevations. Anything higher is
// not an instrument procedure altitude and would overflow the metre
// conversion.
const MaxAltitudeFt = 100_000

var (
	// ErrInvalidInput is returned for inputs outside the domain of the
	// correction formula or the band table builder.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNonFinite is returned when the formula produces NaN or ±Inf.
	ErrNonFinite = errors.New("non-finite result")
)

// CorrectedAltitude applies the ICAO cold temperature correction to a
// published altitude flown on QNH, given the aerodrome elevation and the
// aerodrome temperature.
//
// Points at or below the aerodrome elevation are returned unchanged. The result
// is never lower than publishedFt: warm temperatures do not reduce a minimum.
func CorrectedAltitude(publishedFt, elevationFt, tempC float64) (float64, error) {
	if err := validateAltitudes(publishedFt, elevationFt); err != nil {
		return 0, err
	}
	if math.IsNaN(tempC) || math.IsInf(tempC, 0) {
		return 0, fmt.Errorf("temperature %v: %w", tempC, ErrInvalidInput)
	}

	h := publishedFt - elevationFt
	if h <= 0 {
		return publishedFt, nil
	}

	t0 := tempC + LapseRate*elevationFt
	correction := h * (15 - t0) / (273 + t0 - 0.5*LapseRate*h)
	corrected := elevationFt + h + correction

	if math.IsNaN(corrected) || math.IsInf(corrected, 0) {
		return 0, fmt.Errorf("correct %v ft at %v °C: %w", publishedFt, tempC, ErrNonFinite)
	}
	return math.Max(corrected, publishedFt), nil
}

func validateAltitudes(publishedFt, elevationFt float64) error {
	if math.IsNaN(publishedFt) || math.IsInf(publishedFt, 0) || publishedFt <= 0 {
		return fmt.Errorf("published altitude %v ft must be positive: %w", publishedFt, ErrInvalidInput)
	}
	if math.IsNaN(elevationFt) || math.IsInf(elevationFt, 0) || elevationFt < 0 {
		return fmt.Errorf("elevation %v ft must not be negative: %w", elevationFt, ErrInvalidInput)
	}
	if publishedFt > MaxAltitudeFt || elevationFt > MaxAltitudeFt {
		return fmt.Errorf("altitudes above %d ft are not supported: %w", MaxAltitudeFt, ErrInvalidInput)
	}
	return nil
}
