package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Sweep parameters and thresholds of the band table builder.
const (
	SweepStartC = 0.0
	SweepFloorC = -50.0
	SweepStepC  = 0.1

	// DefaultObstacleClearanceFt is the minimum obstacle clearance assumed
	// when a correction point does not specify one.
	DefaultObstacleClearanceFt = 1001

	// MinCorrectionFraction is the share of the obstacle clearance a rounded
	// correction must reach before it is applied.
	MinCorrectionFraction = 0.2

	sweepSamples = 501
)

// Band is one row of a cold temperature correction table. Temperatures within
// [HighBoundC, LowBoundC] use CorrectedAltitudeFt. LowBoundC is the warm end.
type Band struct {
	LowBoundC           float64 `json:"low_bound_c"`
	HighBoundC          float64 `json:"high_bound_c"`
	CorrectedAltitudeFt int     `json:"corrected_altitude_ft"`
	CorrectedAltitudeM  int     `json:"corrected_altitude_m"`
}

// BandTable is ordered from the warmest band (index 0, the uncorrected
// published altitude) to the coldest, ending at SweepFloorC.
type BandTable []Band

// run is a maximal sequence of sweep samples sharing the same rounded altitude.
type run struct {
	tenths     int // first sample, in tenths of a degree below 0 °C
	altitudeFt int
}

// BuildBandTable sweeps the aerodrome temperature from 0 °C down to -50 °C in
// 0.1 °C steps and collapses the rounded corrected altitudes into bands.
//
// A sample only takes part in banding when its correction, rounded up to the
// next 100 ft, is at least 20% of obstacleClearanceFt; warmer samples belong to
// the leading uncorrected band. Band bounds are quoted in whole degrees the way
// published ICAO tables do: a run that starts at sample s is entered at
// ceil(s+1), never warmer than 0 °C. Runs that contain no whole degree are
// absorbed into their colder neighbour.
func BuildBandTable(publishedFt, elevationFt, obstacleClearanceFt int) (BandTable, error) {
	if err := validateAltitudes(float64(publishedFt), float64(elevationFt)); err != nil {
		return nil, err
	}
	if obstacleClearanceFt <= 0 {
		return nil, fmt.Errorf("obstacle clearance %d ft must be positive: %w", obstacleClearanceFt, ErrInvalidInput)
	}

	runs, err := sweep(publishedFt, elevationFt, obstacleClearanceFt)
	if err != nil {
		return nil, err
	}

	baseline := Band{
		LowBoundC:           SweepStartC,
		HighBoundC:          SweepFloorC,
		CorrectedAltitudeFt: publishedFt,
		CorrectedAltitudeM:  Metres(publishedFt),
	}
	if len(runs) == 0 {
		return BandTable{baseline}, nil
	}

	edges := make([]int, len(runs))
	for i, r := range runs {
		edges[i] = wholeDegreeEdge(r.tenths)
	}

	baseline.HighBoundC = float64(edges[0])
	table := make(BandTable, 0, len(runs)+1)
	table = append(table, baseline)

	last := len(runs) - 1
	for i, r := range runs {
		high := int(SweepFloorC)
		if i < last {
			high = edges[i+1]
			if high == edges[i] {
				continue
			}
		}
		table = append(table, Band{
			LowBoundC:           float64(edges[i]*10-1) / 10,
			HighBoundC:          float64(high),
			CorrectedAltitudeFt: r.altitudeFt,
			CorrectedAltitudeM:  Metres(r.altitudeFt),
		})
	}
	return table, nil
}

func sweep(publishedFt, elevationFt, obstacleClearanceFt int) ([]run, error) {
	minCorrection := MinCorrectionFraction * float64(obstacleClearanceFt)

	var runs []run
	for i := range sweepSamples {
		tempC := float64(-i) / 10
		corrected, err := CorrectedAltitude(float64(publishedFt), float64(elevationFt), tempC)
		if err != nil {
			return nil, err
		}

		rounded := roundUpFeet(corrected)
		if float64(rounded-publishedFt) < minCorrection {
			continue
		}
		if len(runs) == 0 || runs[len(runs)-1].altitudeFt != rounded {
			runs = append(runs, run{tenths: i, altitudeFt: rounded})
		}
	}
	return runs, nil
}

// wholeDegreeEdge returns ceil(s+1) for the sample s = -tenths/10, capped at 0.
func wholeDegreeEdge(tenths int) int {
	edge := int(math.Ceil(float64(10-tenths) / 10))
	return min(edge, 0)
}

func roundUpFeet(ft float64) int {
	return int(math.Ceil(ft/100)) * 100
}

// Metres converts a positive altitude in feet to metres, rounded up to the
// next 10 m.
func Metres(ft int) int {
	// 1 ft = 3048/10000 m; integers keep exact multiples from rounding up.
	return (ft*3048 + 99_999) / 100_000 * 10
}

// Ranges renders the temperature range of every band the way correction
// tables print them: "… -9" for the leading band, "-9.1 … -19" for the rest.
func (t BandTable) Ranges() []string {
	out := make([]string, len(t))
	for i, b := range t {
		high := strconv.Itoa(int(b.HighBoundC))
		if i == 0 {
			out[i] = "… " + high
			continue
		}
		out[i] = strconv.FormatFloat(b.LowBoundC, 'f', 1, 64) + " … " + high
	}
	return out
}
