package neo4jdb

import (
	"context"
	"fmt"
	"time"

	"github.com/smoska/flightgraph/internal/domain"
	"github.com/smoska/flightgraph/internal/platform/logger"
)

// readyState tracks the readiness loop explicitly: the store is started
// concurrently by the deployment and may not be accepting connections yet.
type readyState int

const (
	stateWaiting readyState = iota
	stateReady
	stateTimedOut
)

// probeFunc is a single connectivity check. Split out so the wait loop can
// be exercised without a live store.
type probeFunc func(ctx context.Context) error

// WaitUntilReady blocks until a connectivity probe succeeds, retrying up to
// maxAttempts with delay between attempts. On exhaustion it returns
// ErrStoreUnavailable with the attempt count and elapsed time.
func (c *Client) WaitUntilReady(ctx context.Context, maxAttempts int, delay time.Duration) error {
	return waitUntilReady(ctx, c.Verify, c.log, maxAttempts, delay)
}

func waitUntilReady(ctx context.Context, probe probeFunc, log *logger.Logger, maxAttempts int, delay time.Duration) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	start := time.Now()
	state := stateWaiting
	attempt := 0
	var lastErr error

	for state == stateWaiting {
		attempt++
		if err := probe(ctx); err == nil {
			state = stateReady
			break
		} else {
			lastErr = err
		}

		if attempt >= maxAttempts {
			state = stateTimedOut
			break
		}

		if log != nil {
			log.Info("graph store not ready yet, waiting",
				"attempt", attempt, "max_attempts", maxAttempts, "error", lastErr)
		}
		select {
		case <-ctx.Done():
			state = stateTimedOut
			lastErr = ctx.Err()
		case <-time.After(delay):
		}
	}

	if state != stateReady {
		return fmt.Errorf("%w after %d attempts (%s): %v",
			domain.ErrStoreUnavailable, attempt, time.Since(start).Round(time.Millisecond), lastErr)
	}
	if log != nil {
		log.Info("graph store ready", "attempts", attempt, "elapsed", time.Since(start).Round(time.Millisecond).String())
	}
	return nil
}
