// Command ctctable prints cold temperature correction tables, either for the
// reference airports or for ad-hoc inputs, and marks the band in effect for a
// temperature given directly or read from a METAR file.
//
// Usage:
//
//	go run ./cmd/ctctable -airport EFHK -metar metar.txt
//	go run ./cmd/ctctable -published 2300 -elevation 180 -temp -23
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/cold-temp-correction/internal/domain"
	"github.com/couchcryptid/cold-temp-correction/internal/reference"
)

type options struct {
	published int
	elevation int
	moc       int
	airport   string
	refFile   string
	metarFile string
	temp      string
}

func main() {
	var opts options
	flag.IntVar(&opts.published, "published", 0, "published altitude in ft for an ad-hoc table")
	flag.IntVar(&opts.elevation, "elevation", 0, "aerodrome elevation in ft for an ad-hoc table")
	flag.IntVar(&opts.moc, "moc", domain.DefaultObstacleClearanceFt, "minimum obstacle clearance in ft")
	flag.StringVar(&opts.airport, "airport", "", "print only this reference airport")
	flag.StringVar(&opts.refFile, "reference", "", "reference data YAML file (default: built-in list)")
	flag.StringVar(&opts.metarFile, "metar", "", "METAR feed file to read temperatures from, - for stdin")
	flag.StringVar(&opts.temp, "temp", "", "temperature in °C to highlight, overrides -metar")
	flag.Parse()

	if err := run(os.Stdout, os.Stdin, opts); err != nil {
		log.Fatal(err)
	}
}

func run(w io.Writer, stdin io.Reader, opts options) error {
	override, err := parseTemp(opts.temp)
	if err != nil {
		return err
	}

	if opts.published > 0 {
		table, err := domain.BuildBandTable(opts.published, opts.elevation, opts.moc)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "published %d ft, elevation %d ft, temp %s\n", opts.published, opts.elevation, override)
		printTable(w, table, override, override.Known)
		return nil
	}

	airports, err := reference.Load(opts.refFile)
	if err != nil {
		return err
	}
	if opts.airport != "" {
		airports, err = selectAirport(airports, strings.ToUpper(opts.airport))
		if err != nil {
			return err
		}
	}

	highlight := override.Known || opts.metarFile != ""
	temps := map[string]domain.Temperature{}
	if opts.metarFile != "" && !override.Known {
		payload, err := readFeed(opts.metarFile, stdin)
		if err != nil {
			return err
		}
		temps = domain.ParseReportTemperatures(payload)
	}

	for i, a := range airports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		temp := override
		if !temp.Known {
			temp = temps[a.Identifier]
		}
		if err := printAirport(w, a, temp, highlight); err != nil {
			return err
		}
	}
	return nil
}

func parseTemp(s string) (domain.Temperature, error) {
	if s == "" {
		return domain.UnknownTemperature, nil
	}
	c, err := strconv.Atoi(s)
	if err != nil {
		return domain.UnknownTemperature, fmt.Errorf("invalid -temp %q: want whole degrees", s)
	}
	return domain.KnownTemperature(c), nil
}

func selectAirport(airports []domain.AirportRef, id string) ([]domain.AirportRef, error) {
	for _, a := range airports {
		if a.Identifier == id {
			return []domain.AirportRef{a}, nil
		}
	}
	return nil, fmt.Errorf("unknown airport %s", id)
}

func readFeed(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read METAR file: %w", err)
	}
	return string(data), nil
}

func printAirport(w io.Writer, a domain.AirportRef, temp domain.Temperature, highlight bool) error {
	fmt.Fprintf(w, "%s %s  elev %d ft  temp %s\n", a.Identifier, a.Name, a.ElevationFt, temp)
	if a.Notes != "" {
		fmt.Fprintf(w, "  %s\n", a.Notes)
	}
	for _, p := range a.CorrectionPoints {
		table, err := domain.BuildBandTable(p.PublishedAltitudeFt, a.ElevationFt, p.Clearance())
		if err != nil {
			return fmt.Errorf("%s %s: %w", a.Identifier, p.Name, err)
		}
		fmt.Fprintf(w, "  %s  %d ft  MOC %d ft\n", p.Name, p.PublishedAltitudeFt, p.Clearance())
		printTable(w, table, temp, highlight)
	}
	return nil
}

// printTable writes one row per band. With highlight set the band in effect
// is marked with '>'; an unknown temperature marks the uncorrected band.
func printTable(w io.Writer, table domain.BandTable, temp domain.Temperature, highlight bool) {
	active := domain.NoBand
	if highlight {
		active = domain.MatchBand(table, temp)
	}
	fmt.Fprintf(w, "    %-16s %6s %6s\n", "°C", "FT", "M")
	for i, r := range table.Ranges() {
		mark := " "
		if i == active {
			mark = ">"
		}
		fmt.Fprintf(w, "  %s %-16s %6d %6d\n", mark, r, table[i].CorrectedAltitudeFt, table[i].CorrectedAltitudeM)
	}
}
