package ingest

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/smoska/flightgraph/internal/domain"
	"github.com/smoska/flightgraph/internal/platform/logger"
)

// sliceSource feeds prepared records (or errors) to the batcher.
type sliceSource struct {
	items []any // *domain.FlightRecord or error
	pos   int
}

func (s *sliceSource) Next() (*domain.FlightRecord, error) {
	if s.pos >= len(s.items) {
		return nil, io.EOF
	}
	item := s.items[s.pos]
	s.pos++
	if err, ok := item.(error); ok {
		return nil, err
	}
	return item.(*domain.FlightRecord), nil
}

func record(n int) *domain.FlightRecord {
	return &domain.FlightRecord{
		Origin:      "AAAA",
		Destination: "BBBB",
		DistanceNm:  float64(n),
		DurationMin: 10,
		Line:        n,
	}
}

func TestBatcherChunksInOrder(t *testing.T) {
	src := &sliceSource{}
	for i := 1; i <= 7; i++ {
		src.items = append(src.items, record(i))
	}

	b := NewBatcher(src, 3, logger.NewNop())

	sizes := []int{}
	var lines []int
	for {
		batch, err := b.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("batch: %v", err)
		}
		sizes = append(sizes, len(batch))
		for _, rec := range batch {
			lines = append(lines, rec.Line)
		}
	}

	if fmt.Sprint(sizes) != "[3 3 1]" {
		t.Fatalf("batch sizes = %v", sizes)
	}
	for i, line := range lines {
		if line != i+1 {
			t.Fatalf("order broken at %d: %v", i, lines)
		}
	}
	if b.Rows() != 7 {
		t.Fatalf("rows = %d", b.Rows())
	}
}

func TestBatcherSkipsMalformedWithoutAborting(t *testing.T) {
	src := &sliceSource{items: []any{
		record(1),
		&domain.MalformedRowError{Line: 2, Reason: "empty destination code"},
		record(3),
	}}

	b := NewBatcher(src, 3, logger.NewNop())

	batch, err := b.Next()
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected the 2 valid rows, got %d", len(batch))
	}
	if b.Skipped() != 1 {
		t.Fatalf("skipped = %d", b.Skipped())
	}
	if _, err := b.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestBatcherEmptySource(t *testing.T) {
	b := NewBatcher(&sliceSource{}, 4, logger.NewNop())
	if _, err := b.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

// brokenSource fails the same way on every read, like a truncated file.
type brokenSource struct{ err error }

func (s *brokenSource) Next() (*domain.FlightRecord, error) { return nil, s.err }

func TestBatcherAbortsOnPersistentReadError(t *testing.T) {
	readErr := errors.New("unexpected EOF")
	b := NewBatcher(&brokenSource{err: readErr}, 3, logger.NewNop())

	_, err := b.Next()
	if !errors.Is(err, readErr) {
		t.Fatalf("expected the read error to surface, got %v", err)
	}
	if b.Skipped() != 0 {
		t.Fatalf("read error must not count as skipped rows, skipped = %d", b.Skipped())
	}
}
