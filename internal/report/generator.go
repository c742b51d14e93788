package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/smoska/flightgraph/internal/config"
	"github.com/smoska/flightgraph/internal/platform/logger"
	"github.com/smoska/flightgraph/internal/platform/neo4jdb"
)

// Generator produces precomputed CSV reports from graph aggregation
// queries. The presentation layer only browses the files it writes.
type Generator struct {
	client *neo4jdb.Client
	log    *logger.Logger
	dir    string
}

func NewGenerator(client *neo4jdb.Client, cfg config.ReportsConfig, log *logger.Logger) *Generator {
	return &Generator{
		client: client,
		log:    log.With("component", "report_generator"),
		dir:    cfg.Dir,
	}
}

const countryConnectionsCypher = `
MATCH (dep:Airport)-[f:FLIGHT]->(arr:Airport)
WHERE dep.country IS NOT NULL AND arr.country IS NOT NULL
  AND f.day STARTS WITH $year
RETURN dep.country AS origin_country,
       arr.country AS destination_country,
       count(f) AS flights
ORDER BY origin_country, flights DESC
`

// Day properties use the YYYY-MM-DD layout, so characters 5..6 are the month.
const monthlyFlightsCypher = `
MATCH (dep:Airport)-[f:FLIGHT]->(arr:Airport)
WHERE dep.country IS NOT NULL AND arr.country IS NOT NULL
  AND f.day STARTS WITH $year
RETURN substring(f.day, 5, 2) AS month,
       dep.country AS origin_country,
       arr.country AS destination_country,
       count(f) AS flights
ORDER BY month, origin_country, flights DESC
`

// CountryConnections aggregates flight counts between country pairs for the
// year and writes them to reports/report_country_connections_<year>.csv.
// Returns the written path.
func (g *Generator) CountryConnections(ctx context.Context, year string) (string, error) {
	rows, err := g.collect(ctx, countryConnectionsCypher, year)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("no flight data for year %s", year)
	}

	path := filepath.Join(g.dir, fmt.Sprintf("report_country_connections_%s.csv", year))
	header := []string{"origin_country", "destination_country", "flights"}
	if err := g.write(path, header, rows); err != nil {
		return "", err
	}
	g.log.Info("report written", "path", path, "rows", len(rows))
	return path, nil
}

// MonthlyFlights writes the per-month country-pair counts for the year to
// reports/monthly_flight_report_<year>.csv.
func (g *Generator) MonthlyFlights(ctx context.Context, year string) (string, error) {
	rows, err := g.collect(ctx, monthlyFlightsCypher, year)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("no flight data for year %s", year)
	}

	path := filepath.Join(g.dir, fmt.Sprintf("monthly_flight_report_%s.csv", year))
	header := []string{"month", "origin_country", "destination_country", "flights"}
	if err := g.write(path, header, rows); err != nil {
		return "", err
	}
	g.log.Info("report written", "path", path, "rows", len(rows))
	return path, nil
}

func (g *Generator) collect(ctx context.Context, cypher, year string) ([]map[string]any, error) {
	session := g.client.ReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"year": year})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	recs, _ := result.([]*neo4j.Record)
	rows := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, rec.AsMap())
	}
	return rows, nil
}

func (g *Generator) write(path string, header []string, rows []map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeCSV(f, header, csvRows(header, rows)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
