// Package domain computes ICAO cold temperature corrections for published
// minimum altitudes and matches live aerodrome temperatures to them.
//
// # Correction Formula
//
// Altimeters calibrated to the ISA over-read in air colder than standard, so a
// published altitude flown on QNH leaves less terrain clearance than charted.
// The ICAO approximation (Doc 8168) corrects a height H above the aerodrome:
//
//	t0         = T + L0 * elevation
//	correction = H * (15 - t0) / (273 + t0 - 0.5 * L0 * H)
//
// with L0 = 0.00198 °C/ft. See [CorrectedAltitude]. Corrections only ever raise
// a minimum altitude.
//
// # Correction Tables
//
// Controllers work from tables rather than the formula. [BuildBandTable] sweeps
// 0 °C down to -50 °C in 0.1 °C steps, rounds every corrected altitude up to the
// next 100 ft and groups equal results into bands. A correction is only applied
// once it reaches 20% of the minimum obstacle clearance (MOC, 1001 ft unless
// stated), so the first band always carries the published altitude:
//
//	Aerodrome °C    ft/QNH   m/QNH
//	… -9            2300     710
//	-9.1 … -19      2600     800
//	-19.1 … -29     2700     830
//
// Printed bounds are whole degrees: a band whose first 0.1 °C sample is s is
// entered at ceil(s+1). This matches the published tables and is kept as is.
//
// # Report Feed
//
// Temperatures come from METAR text, one report per line, each starting with
// the ICAO station identifier. The temperature is the first half of the TT/DD
// group, with "M" marking negative values:
//
//	EFHK 251050Z 03008KT 9999 FEW020 M09/M11 Q1013   →  -9 °C
//	EFHK 251120Z 21012KT CAVOK 03/02 Q1015           →   3 °C
//
// Reports without the group give an unknown temperature. See
// [ParseReportTemperatures].
//
// # Highlighting
//
// [MatchBand] picks the band for a temperature. An unknown temperature picks the
// uncorrected first band.
package domain
