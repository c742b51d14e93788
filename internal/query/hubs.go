package query

import (
	"context"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/smoska/flightgraph/internal/domain"
)

// HubOptions narrows a hub-ranking query. Zero values mean no limit and no
// minimum-operations filter.
type HubOptions struct {
	Limit  int
	MinOps int64
}

// operationCount counts every incident FLIGHT edge; distinctDirections
// counts distinct destination airports one outgoing hop away, collapsing
// parallel edges between the same pair.
const hubStatsCypher = `
MATCH (a:Airport)
WITH a, count { (a)-[:FLIGHT]-() } AS ops
WHERE ops >= $minOps
OPTIONAL MATCH (a)-[:FLIGHT]->(dest:Airport)
WITH a, ops, count(DISTINCT dest) AS directions
RETURN a.code AS code, a.name AS name, a.country AS country,
       ops AS operationCount, directions AS distinctDirections
`

type hubStat struct {
	Code       string
	Name       string
	Country    string
	Ops        int64
	Directions int64
}

// Hubs ranks every airport by hub score. An empty graph yields an empty
// slice.
func (e *Engine) Hubs(ctx context.Context, opts HubOptions) ([]domain.HubAirport, error) {
	ctx, cancel := e.boundCtx(ctx)
	defer cancel()

	if cached, ok := e.hubCache.Get(ctx, opts, e.opsWeight, e.routeWeight); ok {
		return cached, nil
	}

	session := e.client.ReadSession(ctx)
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, hubStatsCypher, map[string]any{"minOps": opts.MinOps})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, mapErr(ctx, err)
	}

	recs, _ := records.([]*neo4j.Record)
	stats := make([]hubStat, 0, len(recs))
	for _, rec := range recs {
		stat := hubStat{}
		if v, _ := rec.Get("code"); v != nil {
			stat.Code, _ = v.(string)
		}
		if v, _ := rec.Get("name"); v != nil {
			stat.Name, _ = v.(string)
		}
		if v, _ := rec.Get("country"); v != nil {
			stat.Country, _ = v.(string)
		}
		if v, _ := rec.Get("operationCount"); v != nil {
			stat.Ops, _ = v.(int64)
		}
		if v, _ := rec.Get("distinctDirections"); v != nil {
			stat.Directions, _ = v.(int64)
		}
		stats = append(stats, stat)
	}

	ranked := rankHubs(stats, e.opsWeight, e.routeWeight, opts.Limit)
	e.hubCache.Set(ctx, opts, e.opsWeight, e.routeWeight, ranked)
	return ranked, nil
}

// rankHubs scores and orders hub stats: hubScore descending, code ascending
// on ties so the ranking is deterministic. The score is the configured
// linear combination of operation count and distinct directions.
func rankHubs(stats []hubStat, opsWeight, routeWeight float64, limit int) []domain.HubAirport {
	out := make([]domain.HubAirport, 0, len(stats))
	for _, s := range stats {
		out = append(out, domain.HubAirport{
			Code:               s.Code,
			Name:               s.Name,
			Country:            s.Country,
			OperationCount:     s.Ops,
			DistinctDirections: s.Directions,
			HubScore:           opsWeight*float64(s.Ops) + routeWeight*float64(s.Directions),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HubScore != out[j].HubScore {
			return out[i].HubScore > out[j].HubScore
		}
		return out[i].Code < out[j].Code
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
