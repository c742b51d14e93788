package report

import (
	"bytes"
	"testing"
)

func TestCSVRowsOrdersCellsByHeader(t *testing.T) {
	header := []string{"origin_country", "destination_country", "flights"}
	rows := csvRows(header, []map[string]any{
		{"flights": int64(42), "origin_country": "Poland", "destination_country": "Portugal"},
		{"flights": int64(7), "origin_country": "Poland"},
	})

	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][0] != "Poland" || rows[0][1] != "Portugal" || rows[0][2] != "42" {
		t.Fatalf("row 0 = %v", rows[0])
	}
	if rows[1][1] != "" {
		t.Fatalf("missing value should be empty cell, got %q", rows[1][1])
	}
}

func TestCellString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"Poland", "Poland"},
		{int64(42), "42"},
		{3.5, "3.5"},
		{true, "true"},
	}
	for _, tc := range cases {
		if got := cellString(tc.in); got != tc.want {
			t.Fatalf("cellString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	header := []string{"month", "flights"}
	rows := [][]string{{"03", "120"}, {"04", "98"}}

	if err := writeCSV(&buf, header, rows); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := "month,flights\n03,120\n04,98\n"
	if buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}
}
