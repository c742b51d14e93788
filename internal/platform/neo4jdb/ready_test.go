package neo4jdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smoska/flightgraph/internal/domain"
	"github.com/smoska/flightgraph/internal/platform/logger"
)

func TestWaitUntilReadySucceedsAfterRetries(t *testing.T) {
	calls := 0
	probe := func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	err := waitUntilReady(context.Background(), probe, logger.NewNop(), 5, time.Millisecond)
	if err != nil {
		t.Fatalf("expected ready, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 probes, got %d", calls)
	}
}

func TestWaitUntilReadyExhaustsAttempts(t *testing.T) {
	calls := 0
	probe := func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	}

	err := waitUntilReady(context.Background(), probe, logger.NewNop(), 4, time.Millisecond)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 probes, got %d", calls)
	}
}

func TestWaitUntilReadyStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	probe := func(ctx context.Context) error {
		cancel()
		return errors.New("connection refused")
	}

	err := waitUntilReady(ctx, probe, logger.NewNop(), 100, 50*time.Millisecond)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestWaitUntilReadyImmediateSuccess(t *testing.T) {
	probe := func(ctx context.Context) error { return nil }
	if err := waitUntilReady(context.Background(), probe, nil, 1, time.Millisecond); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
