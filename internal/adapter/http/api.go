package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/cold-temp-correction/internal/domain"
)

type airportsResponse struct {
	Airports []domain.AirportView `json:"airports"`
}

type tableResponse struct {
	PublishedAltitudeFt int               `json:"published_altitude_ft"`
	ElevationFt         int               `json:"elevation_ft"`
	ObstacleClearanceFt int               `json:"obstacle_clearance_ft"`
	Temperature         *int              `json:"temperature_c,omitempty"`
	ActiveBand          *int              `json:"active_band,omitempty"`
	Bands               []domain.BandView `json:"bands"`
}

func (s *Server) handleAirports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, airportsResponse{Airports: s.views.Views()})
}

func (s *Server) handleAirport(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(r.PathValue("icao"))
	view, ok := s.views.View(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown airport %q", id))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleTable serves an ad-hoc table. published and elevation are required;
// moc defaults to the standard clearance and temp, when given, selects the
// highlighted band.
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	published, err := intParam(q.Get("published"), "published", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	elevation, err := intParam(q.Get("elevation"), "elevation", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	moc, err := intParam(q.Get("moc"), "moc", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if moc == 0 {
		moc = domain.DefaultObstacleClearanceFt
	}

	table, err := s.tables.Table(published, elevation, moc)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("build table failed", "error", err,
			"published_ft", published, "elevation_ft", elevation, "moc_ft", moc)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := tableResponse{
		PublishedAltitudeFt: published,
		ElevationFt:         elevation,
		ObstacleClearanceFt: moc,
		Bands:               make([]domain.BandView, len(table)),
	}
	active := domain.NoBand
	if raw := q.Get("temp"); raw != "" {
		c, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid temp")
			return
		}
		resp.Temperature = &c
		if active = domain.MatchBand(table, domain.KnownTemperature(c)); active != domain.NoBand {
			resp.ActiveBand = &active
		}
	}
	ranges := table.Ranges()
	for i, b := range table {
		resp.Bands[i] = domain.BandView{Band: b, Range: ranges[i], Active: i == active}
	}
	writeJSON(w, http.StatusOK, resp)
}

func intParam(raw, name string, required bool) (int, error) {
	if raw == "" {
		if required {
			return 0, fmt.Errorf("missing %s", name)
		}
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
