package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrStoreUnavailable means the graph store never became reachable
	// within the readiness bound. Fatal to an ingestion run.
	ErrStoreUnavailable = errors.New("graph store unavailable")
	// ErrUnknownAirport means a query referenced a code absent from the graph.
	ErrUnknownAirport = errors.New("unknown airport")
	// ErrQueryTimeout means a query exceeded the caller's bound; no partial
	// result is returned.
	ErrQueryTimeout = errors.New("query timeout")
	// ErrInvalidCode means an airport code was empty or unusable before any
	// store round-trip happened.
	ErrInvalidCode = errors.New("invalid airport code")
)

// MalformedRowError marks a manifest row that failed validation. Recovered
// locally: the row is skipped and counted, the stream continues.
type MalformedRowError struct {
	Line   int
	Reason string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row at line %d: %s", e.Line, e.Reason)
}

// IngestionError means a batch write exhausted its retries. LastCommitted is
// the index of the last batch known to be in the store, so an operator can
// re-run with a resume offset.
type IngestionError struct {
	BatchIndex    int
	LastCommitted int
	Attempts      int
	Elapsed       time.Duration
	Err           error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed at batch %d after %d attempts (last committed %d, elapsed %s): %v",
		e.BatchIndex, e.Attempts, e.LastCommitted, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// UnknownAirportError wraps ErrUnknownAirport with the offending code.
type UnknownAirportError struct {
	Code string
}

func (e *UnknownAirportError) Error() string {
	return fmt.Sprintf("unknown airport %q", e.Code)
}

func (e *UnknownAirportError) Unwrap() error { return ErrUnknownAirport }
