package ingest

import (
	"errors"
	"io"

	"github.com/smoska/flightgraph/internal/domain"
	"github.com/smoska/flightgraph/internal/platform/logger"
)

// recordSource is what the batcher consumes; RecordStream satisfies it.
type recordSource interface {
	Next() (*domain.FlightRecord, error)
}

// Batcher groups a record source into ordered chunks of at most size
// records. Malformed rows are skipped and counted here rather than aborting
// the chunk: ingestion is best-effort, not all-or-nothing.
type Batcher struct {
	src     recordSource
	size    int
	log     *logger.Logger
	skipped int
	rows    int
}

func NewBatcher(src recordSource, size int, log *logger.Logger) *Batcher {
	if size < 1 {
		size = 1
	}
	return &Batcher{src: src, size: size, log: log}
}

// Next returns the following chunk. The final chunk may be shorter; io.EOF
// means the source is exhausted.
func (b *Batcher) Next() ([]*domain.FlightRecord, error) {
	batch := make([]*domain.FlightRecord, 0, b.size)
	for len(batch) < b.size {
		rec, err := b.src.Next()
		if err != nil {
			var malformed *domain.MalformedRowError
			if errors.As(err, &malformed) {
				b.skipped++
				if b.log != nil {
					b.log.Warn("skipping malformed row", "line", malformed.Line, "reason", malformed.Reason)
				}
				continue
			}
			if err == io.EOF {
				if len(batch) == 0 {
					return nil, io.EOF
				}
				b.rows += len(batch)
				return batch, nil
			}
			return nil, err
		}
		batch = append(batch, rec)
	}
	b.rows += len(batch)
	return batch, nil
}

// Skipped reports how many malformed rows were dropped so far.
func (b *Batcher) Skipped() int { return b.skipped }

// Rows reports how many valid rows were handed out so far.
func (b *Batcher) Rows() int { return b.rows }
