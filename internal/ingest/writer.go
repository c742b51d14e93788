package ingest

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/smoska/flightgraph/internal/platform/logger"
	"github.com/smoska/flightgraph/internal/platform/neo4jdb"
)

// Airport nodes are matched-or-created on their code; FLIGHT edges are
// merged on flightId so a re-run of the same manifest changes nothing.
// Airport attributes only fill gaps (coalesce), they never overwrite.
const upsertBatchCypher = `
UNWIND $rows AS row
MERGE (dep:Airport {code: row.origin})
SET dep.name    = coalesce(dep.name, row.originName),
    dep.city    = coalesce(dep.city, row.originCity),
    dep.country = coalesce(dep.country, row.originCountry),
    dep.lat     = coalesce(dep.lat, row.originLat),
    dep.lon     = coalesce(dep.lon, row.originLon)
MERGE (arr:Airport {code: row.destination})
SET arr.name    = coalesce(arr.name, row.destName),
    arr.city    = coalesce(arr.city, row.destCity),
    arr.country = coalesce(arr.country, row.destCountry),
    arr.lat     = coalesce(arr.lat, row.destLat),
    arr.lon     = coalesce(arr.lon, row.destLon)
MERGE (dep)-[f:FLIGHT {flightId: row.flightId}]->(arr)
SET f.distanceNm   = row.distanceNm,
    f.durationMin  = row.durationMin,
    f.carrier      = row.carrier,
    f.flightNumber = row.flightNumber,
    f.offBlockTime = row.offBlock,
    f.arrivalTime  = row.arrival,
    f.day          = row.day
SET f += row.extra
`

var schemaCypher = []string{
	`CREATE CONSTRAINT airport_code IF NOT EXISTS FOR (a:Airport) REQUIRE a.code IS UNIQUE`,
	`CREATE INDEX flight_id_idx IF NOT EXISTS FOR ()-[f:FLIGHT]-() ON (f.flightId)`,
}

// GraphWriter is the Neo4j-backed BatchWriter.
type GraphWriter struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewGraphWriter(client *neo4jdb.Client, log *logger.Logger) *GraphWriter {
	return &GraphWriter{client: client, log: log.With("component", "graph_writer")}
}

// InitSchema creates the uniqueness constraint and edge-key index.
// Best-effort: restricted users may not be allowed to, and imports still
// work without them.
func (w *GraphWriter) InitSchema(ctx context.Context) {
	session := w.client.WriteSession(ctx)
	defer session.Close(ctx)

	for _, stmt := range schemaCypher {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			w.log.Warn("schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

// WriteBatch commits one batch inside a single managed transaction.
func (w *GraphWriter) WriteBatch(ctx context.Context, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	session := w.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, upsertBatchCypher, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}
