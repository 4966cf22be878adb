package domain

import "time"

// AirportTables pairs an airport with the band table of each of its
// correction points, in the same order as Airport.CorrectionPoints.
type AirportTables struct {
	Airport AirportRef
	Tables  []BandTable
}

// BandView is a band as presented, with its printed range and highlight.
type BandView struct {
	Band
	Range  string `json:"range"`
	Active bool   `json:"active"`
}

// PointView is the presented table of one correction point.
type PointView struct {
	Name                string     `json:"name"`
	PublishedAltitudeFt int        `json:"published_altitude_ft"`
	ObstacleClearanceFt int        `json:"obstacle_clearance_ft"`
	ActiveBand          *int       `json:"active_band"`
	Bands               []BandView `json:"bands"`
}

// AirportView is an airport's tables combined with its current temperature.
type AirportView struct {
	Identifier    string      `json:"identifier"`
	Name          string      `json:"name"`
	ElevationFt   int         `json:"elevation_ft"`
	Notes         string      `json:"notes,omitempty"`
	Temperature   Temperature `json:"temperature_c"`
	FeedAvailable bool        `json:"feed_available"`
	ObservedAt    time.Time   `json:"observed_at,omitzero"`
	Points        []PointView `json:"points"`
}

// ComposeView matches temp against every table of the airport. It is called
// fresh for each read; nothing about the highlight is stored.
func ComposeView(at AirportTables, temp Temperature) AirportView {
	view := AirportView{
		Identifier:  at.Airport.Identifier,
		Name:        at.Airport.Name,
		ElevationFt: at.Airport.ElevationFt,
		Notes:       at.Airport.Notes,
		Temperature: temp,
		Points:      make([]PointView, 0, len(at.Tables)),
	}

	for i, table := range at.Tables {
		point := at.Airport.CorrectionPoints[i]
		active := MatchBand(table, temp)
		ranges := table.Ranges()

		pv := PointView{
			Name:                point.Name,
			PublishedAltitudeFt: point.PublishedAltitudeFt,
			ObstacleClearanceFt: point.Clearance(),
			Bands:               make([]BandView, len(table)),
		}
		if active != NoBand {
			pv.ActiveBand = &active
		}
		for j, b := range table {
			pv.Bands[j] = BandView{Band: b, Range: ranges[j], Active: j == active}
		}
		view.Points = append(view.Points, pv)
	}
	return view
}
