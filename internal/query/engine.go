package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/smoska/flightgraph/internal/config"
	"github.com/smoska/flightgraph/internal/domain"
	"github.com/smoska/flightgraph/internal/platform/logger"
	"github.com/smoska/flightgraph/internal/platform/neo4jdb"
)

// Mode selects the edge-weight semantics of a shortest-route search.
type Mode string

const (
	ModeDistance Mode = "DISTANCE"
	ModeDuration Mode = "DURATION"
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "DISTANCE":
		return ModeDistance, nil
	case "DURATION", "TIME":
		return ModeDuration, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want DISTANCE or DURATION)", s)
	}
}

// weightProperty is the FLIGHT edge property the search minimizes.
func (m Mode) weightProperty() string {
	if m == ModeDuration {
		return "durationMin"
	}
	return "distanceNm"
}

// projectionName is the in-memory graph the mode projects into. One
// projection per weight property, reused across queries.
func (m Mode) projectionName() string {
	if m == ModeDuration {
		return "airportFastest"
	}
	return "airportShortest"
}

// sessionRunner runs one cypher statement and hands back its records as
// plain maps. The seam the route queries go through, so their control flow
// is exercisable without a live store.
type sessionRunner interface {
	RunCypher(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	Close(ctx context.Context) error
}

// neoSession is the driver-backed sessionRunner.
type neoSession struct {
	session neo4j.SessionWithContext
}

func (s *neoSession) RunCypher(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	res, err := s.session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.AsMap())
	}
	return rows, nil
}

func (s *neoSession) Close(ctx context.Context) error { return s.session.Close(ctx) }

// Engine issues read-only traversal and aggregation queries against the
// graph populated by the ingestion pipeline.
type Engine struct {
	client      *neo4jdb.Client
	log         *logger.Logger
	opsWeight   float64
	routeWeight float64
	timeout     time.Duration
	hubCache    *HubCache
	openWrite   func(ctx context.Context) sessionRunner
}

func NewEngine(client *neo4jdb.Client, cfg config.QueryConfig, cache *HubCache, log *logger.Logger) *Engine {
	return &Engine{
		client:      client,
		log:         log.With("component", "query_engine"),
		opsWeight:   cfg.HubOpsWeight,
		routeWeight: cfg.HubRoutesWeight,
		timeout:     cfg.Timeout,
		hubCache:    cache,
		openWrite: func(ctx context.Context) sessionRunner {
			return &neoSession{session: client.WriteSession(ctx)}
		},
	}
}

// boundCtx applies the configured query timeout, when there is one. Callers
// may also pass an already-bounded context; the tighter deadline wins.
func (e *Engine) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return ctx, func() {}
}

// mapErr turns deadline expiry into the QueryTimeout taxonomy entry. No
// partial results accompany it.
func mapErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrQueryTimeout, err)
	}
	return err
}

func normalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", domain.ErrInvalidCode
	}
	return c, nil
}
