package ingest

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smoska/flightgraph/internal/domain"
)

// Column aliases, normalized (lowercased, non-alphanumerics stripped).
// Manifest dumps vary in header naming; the EUROCONTROL-style headers of the
// source dataset are listed alongside the plain ones.
var (
	originAliases       = []string{"origin", "adep", "from", "originicao"}
	destinationAliases  = []string{"destination", "ades", "to", "destinationicao"}
	distanceAliases     = []string{"distance", "distancenm", "actualdistanceflownnm"}
	durationAliases     = []string{"duration", "durationmin"}
	flightIDAliases     = []string{"flightid", "ectrlid"}
	carrierAliases      = []string{"carrier", "operator", "acoperator", "airline"}
	flightNumberAliases = []string{"flightnumber", "number"}
	offBlockAliases     = []string{"offblock", "actualoffblocktime"}
	arrivalAliases      = []string{"arrival", "actualarrivaltime"}
	originLatAliases    = []string{"originlat", "adeplatitude"}
	originLonAliases    = []string{"originlon", "adeplongitude"}
	destLatAliases      = []string{"destinationlat", "adeslatitude"}
	destLonAliases      = []string{"destinationlon", "adeslongitude"}
)

var timeLayouts = []string{
	"02-01-2006 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// RecordStream reads the manifest one row at a time, validating each into a
// typed FlightRecord. Restartable by reopening, not resumable mid-stream.
type RecordStream struct {
	path    string
	file    *os.File
	gz      *gzip.Reader
	reader  *csv.Reader
	columns columnMap
	line    int
}

type columnMap struct {
	origin       int
	destination  int
	distance     int
	duration     int
	flightID     int
	carrier      int
	flightNumber int
	offBlock     int
	arrival      int
	originLat    int
	originLon    int
	destLat      int
	destLon      int
	// header index -> original name, for passthrough columns
	extras map[int]string
}

// OpenStream opens the manifest at path. Files ending in .gz are
// transparently decompressed. Fails when a required column (origin,
// destination, distance, duration) is missing from the header.
func OpenStream(path string) (*RecordStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}

	var src io.Reader = f
	var gz *gzip.Reader
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err = gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open manifest: %w", err)
		}
		src = gz
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read manifest header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &RecordStream{
		path:    path,
		file:    f,
		gz:      gz,
		reader:  r,
		columns: cols,
		line:    1,
	}, nil
}

// Next returns the following record. A *domain.MalformedRowError is
// recoverable: the caller skips the row and keeps reading. io.EOF ends the
// stream. Anything else is a stream-level failure (I/O error, truncated
// gzip) that aborts the read; retrying the same reader cannot make progress.
func (s *RecordStream) Next() (*domain.FlightRecord, error) {
	vals, err := s.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			s.line++
			return nil, &domain.MalformedRowError{Line: s.line, Reason: parseErr.Error()}
		}
		return nil, fmt.Errorf("read manifest %s: %w", s.path, err)
	}
	s.line++
	return parseRecord(s.columns, vals, s.line)
}

func (s *RecordStream) Close() error {
	if s.gz != nil {
		_ = s.gz.Close()
	}
	return s.file.Close()
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{
		origin: -1, destination: -1, distance: -1, duration: -1,
		flightID: -1, carrier: -1, flightNumber: -1, offBlock: -1, arrival: -1,
		originLat: -1, originLon: -1, destLat: -1, destLon: -1,
		extras: map[int]string{},
	}

	lookup := map[string]*int{}
	register := func(target *int, aliases []string) {
		for _, a := range aliases {
			lookup[a] = target
		}
	}
	register(&cols.origin, originAliases)
	register(&cols.destination, destinationAliases)
	register(&cols.distance, distanceAliases)
	register(&cols.duration, durationAliases)
	register(&cols.flightID, flightIDAliases)
	register(&cols.carrier, carrierAliases)
	register(&cols.flightNumber, flightNumberAliases)
	register(&cols.offBlock, offBlockAliases)
	register(&cols.arrival, arrivalAliases)
	register(&cols.originLat, originLatAliases)
	register(&cols.originLon, originLonAliases)
	register(&cols.destLat, destLatAliases)
	register(&cols.destLon, destLonAliases)

	for i, name := range header {
		key := normalizeHeader(name)
		if target, ok := lookup[key]; ok && *target < 0 {
			*target = i
			continue
		}
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cols.extras[i] = trimmed
		}
	}

	var missing []string
	for name, idx := range map[string]int{
		"origin": cols.origin, "destination": cols.destination,
		"distance": cols.distance, "duration": cols.duration,
	} {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("manifest header missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func normalizeHeader(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseRecord(cols columnMap, vals []string, line int) (*domain.FlightRecord, error) {
	at := func(idx int) string {
		if idx < 0 || idx >= len(vals) {
			return ""
		}
		return strings.TrimSpace(vals[idx])
	}

	origin := strings.ToUpper(at(cols.origin))
	if origin == "" {
		return nil, &domain.MalformedRowError{Line: line, Reason: "empty origin code"}
	}
	destination := strings.ToUpper(at(cols.destination))
	if destination == "" {
		return nil, &domain.MalformedRowError{Line: line, Reason: "empty destination code"}
	}

	distance, err := strconv.ParseFloat(at(cols.distance), 64)
	if err != nil {
		return nil, &domain.MalformedRowError{Line: line, Reason: fmt.Sprintf("bad distance %q", at(cols.distance))}
	}
	if distance < 0 {
		return nil, &domain.MalformedRowError{Line: line, Reason: "negative distance"}
	}
	duration, err := strconv.ParseFloat(at(cols.duration), 64)
	if err != nil {
		return nil, &domain.MalformedRowError{Line: line, Reason: fmt.Sprintf("bad duration %q", at(cols.duration))}
	}
	if duration < 0 {
		return nil, &domain.MalformedRowError{Line: line, Reason: "negative duration"}
	}

	rec := &domain.FlightRecord{
		Origin:       origin,
		Destination:  destination,
		DistanceNm:   distance,
		DurationMin:  duration,
		FlightID:     at(cols.flightID),
		Carrier:      at(cols.carrier),
		FlightNumber: at(cols.flightNumber),
		OffBlock:     at(cols.offBlock),
		Arrival:      at(cols.arrival),
		Line:         line,
	}

	rec.OriginLat = parseCoord(at(cols.originLat))
	rec.OriginLon = parseCoord(at(cols.originLon))
	rec.DestLat = parseCoord(at(cols.destLat))
	rec.DestLon = parseCoord(at(cols.destLon))

	if t, ok := parseTimestamp(rec.OffBlock); ok {
		rec.OffBlock = t.Format(time.RFC3339)
		rec.Day = t.Format("2006-01-02")
	}
	if t, ok := parseTimestamp(rec.Arrival); ok {
		rec.Arrival = t.Format(time.RFC3339)
	}

	for idx, name := range cols.extras {
		if v := at(idx); v != "" {
			if rec.Extra == nil {
				rec.Extra = map[string]string{}
			}
			rec.Extra[name] = v
		}
	}
	return rec, nil
}

// parseCoord reads an optional coordinate column. Coordinates only enrich
// airport nodes, so an absent or unparseable value yields nil, not a
// malformed row.
func parseCoord(raw string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
