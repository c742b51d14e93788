package ingest

import (
	"encoding/csv"
	"os"
	"sort"
	"strings"

	"github.com/smoska/flightgraph/internal/domain"
	"github.com/smoska/flightgraph/internal/platform/logger"
)

// AirportMetadata maps ICAO and IATA codes to descriptive attributes from
// the airport-mapping file. Enrichment only: edge creation never needs it.
type AirportMetadata struct {
	byCode  map[string]domain.AirportInfo
	missing map[string]struct{}
}

// LoadAirportMetadata reads the mapping CSV (columns: icao, name, city,
// country, iata). A missing file is not an error; enrichment is simply
// skipped.
func LoadAirportMetadata(path string, log *logger.Logger) *AirportMetadata {
	meta := &AirportMetadata{
		byCode:  map[string]domain.AirportInfo{},
		missing: map[string]struct{}{},
	}

	f, err := os.Open(path)
	if err != nil {
		if log != nil {
			log.Warn("airport mapping file unavailable, skipping enrichment", "path", path, "error", err)
		}
		return meta
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		if log != nil {
			log.Warn("airport mapping file unreadable, skipping enrichment", "path", path, "error", err)
		}
		return meta
	}

	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		icao := strings.ToUpper(strings.TrimSpace(row[0]))
		name := strings.TrimSpace(row[1])
		city := strings.TrimSpace(row[2])
		country := strings.TrimSpace(row[3])
		iata := strings.ToUpper(strings.TrimSpace(row[4]))
		if city == "" || country == "" {
			continue
		}
		info := domain.AirportInfo{Name: name, City: city, Country: country}
		for _, code := range []string{icao, iata} {
			if code == "" {
				continue
			}
			if _, exists := meta.byCode[code]; !exists {
				info.Code = code
				meta.byCode[code] = info
			}
		}
	}

	if log != nil {
		log.Info("loaded airport mapping", "codes", len(meta.byCode), "path", path)
	}
	return meta
}

// Resolve looks up a code; unmatched codes are remembered for the run-end
// report.
func (m *AirportMetadata) Resolve(code string) (domain.AirportInfo, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return domain.AirportInfo{}, false
	}
	if info, ok := m.byCode[normalized]; ok {
		return info, true
	}
	m.missing[normalized] = struct{}{}
	return domain.AirportInfo{}, false
}

// Missing returns the codes no mapping row covered, sorted.
func (m *AirportMetadata) Missing() []string {
	out := make([]string, 0, len(m.missing))
	for code := range m.missing {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Len reports how many codes the mapping covers.
func (m *AirportMetadata) Len() int { return len(m.byCode) }
