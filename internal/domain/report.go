package domain

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// Temperature is an aerodrome temperature in whole degrees Celsius, or
// unknown when the latest report carries no temperature group.
type Temperature struct {
	Celsius int
	Known   bool
}

// UnknownTemperature is the zero Temperature.
var UnknownTemperature = Temperature{}

// KnownTemperature returns a known temperature of c degrees Celsius.
func KnownTemperature(c int) Temperature {
	return Temperature{Celsius: c, Known: true}
}

func (t Temperature) String() string {
	if !t.Known {
		return "unknown"
	}
	return strconv.Itoa(t.Celsius) + "°C"
}

// MarshalJSON encodes an unknown temperature as null.
func (t Temperature) MarshalJSON() ([]byte, error) {
	if !t.Known {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(t.Celsius), 10), nil
}

// UnmarshalJSON accepts an integer or null.
func (t *Temperature) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*t = UnknownTemperature
		return nil
	}
	c, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return err
	}
	*t = KnownTemperature(c)
	return nil
}

const stationIDLen = 4

// tempGroupRe matches the temperature half of a TT/DD group, e.g. "M09/" in
// "M09/M11" or "03/" in "03/02". The group must start a token so runway
// visual range groups such as "R22/0400" are not mistaken for it.
var tempGroupRe = regexp.MustCompile(`(?:^|\s)(M?)(\d{2})/`)

// ParseReportTemperatures extracts one temperature per station from a
// line-oriented report feed. Each line starts with a 4-character station
// identifier; when a station appears more than once the last line wins.
func ParseReportTemperatures(payload string) map[string]Temperature {
	latest := make(map[string]string)

	sc := bufio.NewScanner(strings.NewReader(payload))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if len(line) < stationIDLen {
			continue
		}
		latest[line[:stationIDLen]] = line
	}

	temps := make(map[string]Temperature, len(latest))
	for station, line := range latest {
		temps[station] = ReportTemperature(line)
	}
	return temps
}

// ReportTemperature returns the temperature of a single report line.
func ReportTemperature(report string) Temperature {
	m := tempGroupRe.FindStringSubmatch(report)
	if m == nil {
		return UnknownTemperature
	}
	c, err := strconv.Atoi(m[2])
	if err != nil {
		return UnknownTemperature
	}
	if m[1] == "M" {
		c = -c
	}
	return KnownTemperature(c)
}
