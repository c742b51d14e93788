package domain

import "testing"

func TestDedupKeyPrefersManifestID(t *testing.T) {
	rec := &FlightRecord{FlightID: "187442091", Origin: "EPWA", Destination: "EGLL"}
	if rec.DedupKey() != "187442091" {
		t.Fatalf("dedup key = %q", rec.DedupKey())
	}
}

func TestDedupKeyIsDeterministic(t *testing.T) {
	a := &FlightRecord{Origin: "EPWA", Destination: "EGLL", Carrier: "LOT", FlightNumber: "279", OffBlock: "2017-03-01T06:15:00Z"}
	b := &FlightRecord{Origin: "EPWA", Destination: "EGLL", Carrier: "LOT", FlightNumber: "279", OffBlock: "2017-03-01T06:15:00Z"}
	if a.DedupKey() != b.DedupKey() {
		t.Fatal("identical records must share a dedup key")
	}

	c := &FlightRecord{Origin: "EPWA", Destination: "EGLL", Carrier: "LOT", FlightNumber: "280", OffBlock: "2017-03-01T06:15:00Z"}
	if a.DedupKey() == c.DedupKey() {
		t.Fatal("different flights must not collide")
	}
}

func TestDedupKeyFieldBoundaries(t *testing.T) {
	// Field separators must prevent "AB"+"C" colliding with "A"+"BC".
	a := &FlightRecord{Origin: "AB", Destination: "C"}
	b := &FlightRecord{Origin: "A", Destination: "BC"}
	if a.DedupKey() == b.DedupKey() {
		t.Fatal("field boundary collision")
	}
}
