package domain

// NoBand is returned by MatchBand when no band applies.
const NoBand = -1

// MatchBand returns the index of the band that applies at temp.
//
// An unknown temperature selects the leading uncorrected band. This is a
// policy choice: it reads as "no correction needed" although the table can
// only say "no correction verified". A known temperature selects the first
// band, warmest first, with HighBoundC <= temp <= LowBoundC; temperatures
// outside the table select NoBand.
func MatchBand(table BandTable, temp Temperature) int {
	if len(table) == 0 {
		return NoBand
	}
	if !temp.Known {
		return 0
	}

	t := float64(temp.Celsius)
	for i, b := range table {
		if t <= b.LowBoundC && t >= b.HighBoundC {
			return i
		}
	}
	return NoBand
}
