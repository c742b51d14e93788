package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/smoska/flightgraph/internal/config"
	"github.com/smoska/flightgraph/internal/domain"
	"github.com/smoska/flightgraph/internal/platform/logger"
)

// BatchWriter commits one batch of prepared rows as a single atomic write
// unit. Either every row in the batch lands in the store or none do.
type BatchWriter interface {
	WriteBatch(ctx context.Context, rows []map[string]any) error
}

// Importer drives the ingestion pipeline: stream, batch, upsert. Batch
// writes are serialized deliberately; there are no concurrent writers to
// reason about.
type Importer struct {
	writer      BatchWriter
	meta        *AirportMetadata
	log         *logger.Logger
	batchSize   int
	maxAttempts int
	retryDelay  time.Duration
}

func NewImporter(writer BatchWriter, meta *AirportMetadata, cfg config.IngestConfig, log *logger.Logger) *Importer {
	return &Importer{
		writer:      writer,
		meta:        meta,
		log:         log.With("component", "importer"),
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
	}
}

// Run consumes the source to exhaustion, committing one batch at a time.
// Batches numbered 1..resume are read but not written, which is how an
// operator resumes after an IngestionError (the caller supplies the offset;
// nothing is resumed automatically).
func (imp *Importer) Run(ctx context.Context, src recordSource, resume int) (*domain.ImportSummary, error) {
	runID := uuid.NewString()
	log := imp.log.With("run_id", runID)
	start := time.Now()

	batcher := NewBatcher(src, imp.batchSize, log)
	batchIndex := 0
	// Skipped batches count as committed: a failure on the first written
	// batch must point the operator at the resume offset, not at zero.
	committed := resume
	if resume > 0 {
		log.Info("resuming import", "skip_batches", resume)
	}

	for {
		batch, err := batcher.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		batchIndex++

		if batchIndex <= resume {
			continue
		}

		rows := imp.buildRows(batch)
		if err := imp.writeWithRetry(ctx, rows, batchIndex, committed, start); err != nil {
			return nil, err
		}
		committed = batchIndex
		log.Info("committed batch", "batch", batchIndex, "rows", len(rows))
	}

	if missing := imp.meta.Missing(); len(missing) > 0 {
		log.Warn("no airport mapping found for some codes", "count", len(missing), "codes", missing)
	}

	summary := &domain.ImportSummary{
		RunID:            runID,
		Rows:             batcher.Rows(),
		SkippedRows:      batcher.Skipped(),
		Batches:          batchIndex,
		CommittedBatches: committed,
		ResumedFrom:      resume,
		Elapsed:          time.Since(start).Round(time.Millisecond).String(),
	}
	log.Info("import finished",
		"rows", summary.Rows, "skipped", summary.SkippedRows,
		"batches", summary.Batches, "committed", summary.CommittedBatches,
		"elapsed", summary.Elapsed)
	return summary, nil
}

func (imp *Importer) writeWithRetry(ctx context.Context, rows []map[string]any, batchIndex, lastCommitted int, started time.Time) error {
	var lastErr error
	for attempt := 1; attempt <= imp.maxAttempts; attempt++ {
		lastErr = imp.writer.WriteBatch(ctx, rows)
		if lastErr == nil {
			return nil
		}
		imp.log.Warn("batch write failed",
			"batch", batchIndex, "attempt", attempt, "max_attempts", imp.maxAttempts, "error", lastErr)
		if attempt < imp.maxAttempts {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = imp.maxAttempts
			case <-time.After(imp.retryDelay * time.Duration(attempt)):
			}
		}
	}
	return &domain.IngestionError{
		BatchIndex:    batchIndex,
		LastCommitted: lastCommitted,
		Attempts:      imp.maxAttempts,
		Elapsed:       time.Since(started),
		Err:           lastErr,
	}
}

// buildRows flattens records into the parameter shape the upsert cypher
// unwinds, joining in airport-mapping attributes for both endpoints.
func (imp *Importer) buildRows(batch []*domain.FlightRecord) []map[string]any {
	rows := make([]map[string]any, 0, len(batch))
	for _, rec := range batch {
		row := map[string]any{
			"flightId":     rec.DedupKey(),
			"origin":       rec.Origin,
			"destination":  rec.Destination,
			"distanceNm":   rec.DistanceNm,
			"durationMin":  rec.DurationMin,
			"carrier":      rec.Carrier,
			"flightNumber": rec.FlightNumber,
			"offBlock":     rec.OffBlock,
			"arrival":      rec.Arrival,
			"day":          rec.Day,
		}

		if info, ok := imp.meta.Resolve(rec.Origin); ok {
			row["originName"] = info.Name
			row["originCity"] = info.City
			row["originCountry"] = info.Country
		}
		if info, ok := imp.meta.Resolve(rec.Destination); ok {
			row["destName"] = info.Name
			row["destCity"] = info.City
			row["destCountry"] = info.Country
		}

		if rec.OriginLat != nil {
			row["originLat"] = *rec.OriginLat
		}
		if rec.OriginLon != nil {
			row["originLon"] = *rec.OriginLon
		}
		if rec.DestLat != nil {
			row["destLat"] = *rec.DestLat
		}
		if rec.DestLon != nil {
			row["destLon"] = *rec.DestLon
		}

		extra := map[string]any{}
		for k, v := range rec.Extra {
			extra[k] = v
		}
		row["extra"] = extra
		rows = append(rows, row)
	}
	return rows
}
