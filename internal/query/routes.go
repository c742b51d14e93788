package query

import (
	"context"
	"fmt"

	"github.com/smoska/flightgraph/internal/domain"
)

const graphExistsCypher = `CALL gds.graph.exists($graph_name) YIELD exists RETURN exists`

const dropGraphCypher = `CALL gds.graph.drop($graph_name, false)`

// The projection keeps the flight graph directed and collapses parallel
// edges between an airport pair to their cheapest weight, which is all a
// shortest-path search can ever use.
const projectGraphCypher = `
CALL gds.graph.project.cypher(
  $graph_name,
  'MATCH (a:Airport) RETURN id(a) AS id',
  'MATCH (a:Airport)-[f:FLIGHT]->(b:Airport) WHERE f.%[1]s IS NOT NULL AND f.%[1]s >= 0 RETURN id(a) AS source, id(b) AS target, min(f.%[1]s) AS weight'
)
`

const shortestPathCypher = `
CALL gds.shortestPath.dijkstra.stream(
  $graph_name,
  {
    sourceNode: $sourceId,
    targetNode: $targetId,
    relationshipWeightProperty: 'weight'
  }
)
YIELD nodeIds, totalCost
RETURN [nid IN nodeIds | {code: gds.util.asNode(nid).code, name: gds.util.asNode(nid).name, lat: gds.util.asNode(nid).lat, lon: gds.util.asNode(nid).lon}] AS route,
       totalCost
`

const nodeIDsCypher = `
MATCH (source:Airport {code: $source}), (target:Airport {code: $target})
RETURN id(source) AS sourceId, id(target) AS targetId
`

const existingCodesCypher = `
MATCH (a:Airport) WHERE a.code IN $codes RETURN collect(a.code) AS found
`

const airportStopCypher = `
MATCH (a:Airport {code: $code})
RETURN a.code AS code, a.name AS name, a.lat AS lat, a.lon AS lon
`

// ShortestRoute finds the minimal-weight path from origin to destination
// under the given mode. Both codes must exist in the graph. A missing path
// is a Found=false result, not an error. Ties between equal-cost paths are
// broken by the store's own path selection and are not deterministic.
func (e *Engine) ShortestRoute(ctx context.Context, origin, destination string, mode Mode) (*domain.RouteResult, error) {
	src, err := normalizeCode(origin)
	if err != nil {
		return nil, err
	}
	dst, err := normalizeCode(destination)
	if err != nil {
		return nil, err
	}

	ctx, cancel := e.boundCtx(ctx)
	defer cancel()

	session := e.openWrite(ctx) // GDS procedures need a write-capable session
	defer session.Close(ctx)

	if err := checkCodes(ctx, session, src, dst); err != nil {
		return nil, mapErr(ctx, err)
	}

	if src == dst {
		result, err := singleStopRoute(ctx, session, src, mode)
		return result, mapErr(ctx, err)
	}

	if err := ensureProjection(ctx, session, mode); err != nil {
		return nil, mapErr(ctx, fmt.Errorf("project graph: %w", err))
	}

	ids, err := session.RunCypher(ctx, nodeIDsCypher, map[string]any{"source": src, "target": dst})
	if err != nil {
		return nil, mapErr(ctx, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("resolve node ids for %s -> %s: no row", src, dst)
	}

	rows, err := session.RunCypher(ctx, shortestPathCypher, map[string]any{
		"graph_name": mode.projectionName(),
		"sourceId":   ids[0]["sourceId"],
		"targetId":   ids[0]["targetId"],
	})
	if err != nil {
		return nil, mapErr(ctx, err)
	}
	if len(rows) == 0 {
		return &domain.RouteResult{Mode: string(mode), Found: false}, nil
	}

	stops, ok := rows[0]["route"].([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected route shape %T", rows[0]["route"])
	}
	cost, _ := rows[0]["totalCost"].(float64)

	return shapeRoute(stops, cost, mode), nil
}

// DropProjections discards the per-mode in-memory graphs so the next route
// query projects the current store contents. Run after an import; a stale
// projection would otherwise serve the pre-import graph indefinitely.
func (e *Engine) DropProjections(ctx context.Context) error {
	ctx, cancel := e.boundCtx(ctx)
	defer cancel()

	session := e.openWrite(ctx)
	defer session.Close(ctx)

	for _, mode := range []Mode{ModeDistance, ModeDuration} {
		if _, err := session.RunCypher(ctx, dropGraphCypher, map[string]any{"graph_name": mode.projectionName()}); err != nil {
			return mapErr(ctx, fmt.Errorf("drop projection %s: %w", mode.projectionName(), err))
		}
	}
	return nil
}

// checkCodes resolves both endpoints, reporting which one is unknown.
func checkCodes(ctx context.Context, session sessionRunner, codes ...string) error {
	rows, err := session.RunCypher(ctx, existingCodesCypher, map[string]any{"codes": codes})
	if err != nil {
		return err
	}
	found := map[string]bool{}
	if len(rows) > 0 {
		if list, ok := rows[0]["found"].([]any); ok {
			for _, v := range list {
				if s, ok := v.(string); ok {
					found[s] = true
				}
			}
		}
	}
	for _, code := range codes {
		if !found[code] {
			return &domain.UnknownAirportError{Code: code}
		}
	}
	return nil
}

// singleStopRoute handles origin == destination: zero hops, zero weight.
func singleStopRoute(ctx context.Context, session sessionRunner, code string, mode Mode) (*domain.RouteResult, error) {
	rows, err := session.RunCypher(ctx, airportStopCypher, map[string]any{"code": code})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.UnknownAirportError{Code: code}
	}

	stop := domain.RouteStop{Code: code}
	if v, ok := rows[0]["name"].(string); ok {
		stop.Name = v
	}
	if v, ok := rows[0]["lat"].(float64); ok {
		stop.Lat = &v
	}
	if v, ok := rows[0]["lon"].(float64); ok {
		stop.Lon = &v
	}
	return &domain.RouteResult{
		Stops:       []domain.RouteStop{stop},
		TotalWeight: 0,
		Mode:        string(mode),
		Found:       true,
	}, nil
}

// ensureProjection builds the in-memory graph for the mode once and reuses
// it until the next DropProjections.
func ensureProjection(ctx context.Context, session sessionRunner, mode Mode) error {
	name := mode.projectionName()

	rows, err := session.RunCypher(ctx, graphExistsCypher, map[string]any{"graph_name": name})
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		if exists, _ := rows[0]["exists"].(bool); exists {
			return nil
		}
	}

	_, err = session.RunCypher(ctx,
		fmt.Sprintf(projectGraphCypher, mode.weightProperty()),
		map[string]any{"graph_name": name})
	return err
}

// shapeRoute turns the raw stream row into a RouteResult.
func shapeRoute(rawStops []any, totalCost float64, mode Mode) *domain.RouteResult {
	stops := make([]domain.RouteStop, 0, len(rawStops))
	for _, raw := range rawStops {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		stop := domain.RouteStop{}
		if v, ok := m["code"].(string); ok {
			stop.Code = v
		}
		if v, ok := m["name"].(string); ok {
			stop.Name = v
		}
		if v, ok := m["lat"].(float64); ok {
			stop.Lat = &v
		}
		if v, ok := m["lon"].(float64); ok {
			stop.Lon = &v
		}
		stops = append(stops, stop)
	}
	return &domain.RouteResult{
		Stops:       stops,
		TotalWeight: totalCost,
		Mode:        string(mode),
		Found:       true,
	}
}
