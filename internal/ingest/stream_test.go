package ingest

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/smoska/flightgraph/internal/domain"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestStreamParsesValidRows(t *testing.T) {
	path := writeManifest(t,
		"origin,destination,distance_nm,duration_min,carrier,note\n"+
			"epwa,LPPT,1500.5,205,LOT,red-eye\n"+
			"LPPT,EPWA,1500.5,199,LOT,\n")

	stream, err := OpenStream(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer stream.Close()

	rec, err := stream.Next()
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if rec.Origin != "EPWA" || rec.Destination != "LPPT" {
		t.Fatalf("codes not normalized: %q -> %q", rec.Origin, rec.Destination)
	}
	if rec.DistanceNm != 1500.5 || rec.DurationMin != 205 {
		t.Fatalf("bad numerics: %v / %v", rec.DistanceNm, rec.DurationMin)
	}
	if rec.Carrier != "LOT" {
		t.Fatalf("carrier = %q", rec.Carrier)
	}
	if rec.Extra["note"] != "red-eye" {
		t.Fatalf("extra column lost: %v", rec.Extra)
	}

	if _, err := stream.Next(); err != nil {
		t.Fatalf("second record: %v", err)
	}
	if _, err := stream.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestStreamEurocontrolHeaders(t *testing.T) {
	path := writeManifest(t,
		"ECTRL ID,ADEP,ADEP Latitude,ADEP Longitude,ADES,ADES Latitude,ADES Longitude,AC Operator,Actual Distance Flown (nm),duration_min,ACTUAL OFF BLOCK TIME\n"+
			"187442091,EPWA,52.1657,20.9671,EGLL,51.4706,-0.4619,LOT,780,160,01-03-2017 06:15:00\n")

	stream, err := OpenStream(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer stream.Close()

	rec, err := stream.Next()
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.FlightID != "187442091" {
		t.Fatalf("flight id = %q", rec.FlightID)
	}
	if rec.Origin != "EPWA" || rec.Destination != "EGLL" {
		t.Fatalf("codes = %q -> %q", rec.Origin, rec.Destination)
	}
	if rec.Day != "2017-03-01" {
		t.Fatalf("day = %q", rec.Day)
	}
	if rec.OffBlock != "2017-03-01T06:15:00Z" {
		t.Fatalf("off block not normalized: %q", rec.OffBlock)
	}
	if rec.OriginLat == nil || *rec.OriginLat != 52.1657 || rec.OriginLon == nil || *rec.OriginLon != 20.9671 {
		t.Fatalf("origin coordinates lost: %v %v", rec.OriginLat, rec.OriginLon)
	}
	if rec.DestLat == nil || *rec.DestLat != 51.4706 || rec.DestLon == nil || *rec.DestLon != -0.4619 {
		t.Fatalf("destination coordinates lost: %v %v", rec.DestLat, rec.DestLon)
	}
	if _, ok := rec.Extra["ADEP Latitude"]; ok {
		t.Fatal("coordinate columns must not leak into extras")
	}
}

func TestStreamMalformedRowsAreRecoverable(t *testing.T) {
	path := writeManifest(t,
		"origin,destination,distance,duration\n"+
			"EPWA,,100,20\n"+
			"EPWA,EGLL,abc,20\n"+
			"EPWA,EGLL,100,-5\n"+
			"EPWA,EGLL,100,20\n")

	stream, err := OpenStream(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer stream.Close()

	var malformed, valid int
	for {
		_, err := stream.Next()
		if err == io.EOF {
			break
		}
		var rowErr *domain.MalformedRowError
		if errors.As(err, &rowErr) {
			malformed++
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		valid++
	}

	if malformed != 3 {
		t.Fatalf("expected 3 malformed rows, got %d", malformed)
	}
	if valid != 1 {
		t.Fatalf("expected 1 valid row, got %d", valid)
	}
}

func TestStreamTruncatedGzipAbortsInsteadOfSkipping(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("origin,destination,distance,duration\n"))
	for i := 0; i < 2000; i++ {
		gz.Write([]byte("EPWA,EGLL,100,20\n"))
	}
	gz.Close()
	raw := buf.Bytes()

	path := filepath.Join(t.TempDir(), "manifest.csv.gz")
	if err := os.WriteFile(path, raw[:len(raw)-12], 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	stream, err := OpenStream(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer stream.Close()

	for i := 0; i < 5000; i++ {
		_, err := stream.Next()
		if err == nil {
			continue
		}
		if err == io.EOF {
			t.Fatal("truncated stream must not end cleanly")
		}
		var rowErr *domain.MalformedRowError
		if errors.As(err, &rowErr) {
			t.Fatalf("stream failure misreported as a skippable row: %v", err)
		}
		return // stream-level error surfaced, as it must
	}
	t.Fatal("expected a read error from the truncated stream")
}

func TestStreamMissingRequiredColumn(t *testing.T) {
	path := writeManifest(t, "origin,distance,duration\nEPWA,100,20\n")

	if _, err := OpenStream(path); err == nil {
		t.Fatal("expected error for missing destination column")
	}
}

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Actual Distance Flown (nm)": "actualdistanceflownnm",
		"ECTRL ID":                   "ectrlid",
		"duration_min":               "durationmin",
		"ADEP":                       "adep",
	}
	for in, want := range cases {
		if got := normalizeHeader(in); got != want {
			t.Fatalf("normalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}
