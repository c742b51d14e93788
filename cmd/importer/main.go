package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/smoska/flightgraph/internal/app"
	"github.com/smoska/flightgraph/internal/domain"
	"github.com/smoska/flightgraph/internal/ingest"
	"github.com/smoska/flightgraph/internal/query"
)

func main() {
	var (
		csvPath = flag.String("csv", "", "manifest CSV to import (overrides CSV_PATH / DATA_DIR discovery)")
		resume  = flag.Int("resume", 0, "skip this many already-committed batches before writing")
		dryRun  = flag.Bool("dry-run", false, "stream and validate without writing to the store")
		limit   = flag.Int("limit", 0, "import at most this many source files")
	)
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	cfg := application.Cfg
	log := application.Log.With("cmd", "importer")
	if *csvPath != "" {
		cfg.Ingest.CSVPath = *csvPath
	}

	ctx := context.Background()

	if err := application.Graph.WaitUntilReady(ctx, cfg.Neo4j.ConnectRetries, cfg.Neo4j.ConnectDelay); err != nil {
		log.Error("graph store never became ready", "error", err)
		os.Exit(1)
	}

	sources, err := ingest.FindSources(cfg.Ingest)
	if err != nil {
		log.Error("no manifest sources", "error", err)
		os.Exit(1)
	}
	if *limit > 0 && len(sources) > *limit {
		sources = sources[:*limit]
	}

	meta := ingest.LoadAirportMetadata(cfg.Ingest.MetadataPath, log)

	var writer ingest.BatchWriter
	if *dryRun {
		writer = discardWriter{}
	} else {
		graphWriter := ingest.NewGraphWriter(application.Graph, log)
		graphWriter.InitSchema(ctx)
		writer = graphWriter
	}

	importer := ingest.NewImporter(writer, meta, cfg.Ingest, log)

	for i, source := range sources {
		log.Info("importing manifest", "path", source, "file", i+1, "files", len(sources))

		stream, err := ingest.OpenStream(source)
		if err != nil {
			log.Error("cannot open manifest", "path", source, "error", err)
			os.Exit(1)
		}

		// The resume offset applies to the first file only; later files
		// start from scratch.
		offset := 0
		if i == 0 {
			offset = *resume
		}

		summary, err := importer.Run(ctx, stream, offset)
		_ = stream.Close()
		if err != nil {
			var ingErr *domain.IngestionError
			if errors.As(err, &ingErr) {
				log.Error("import failed, re-run with -resume to continue",
					"path", source,
					"failed_batch", ingErr.BatchIndex,
					"last_committed", ingErr.LastCommitted,
					"resume_flag", fmt.Sprintf("-resume %d", ingErr.LastCommitted))
			} else {
				log.Error("import failed", "path", source, "error", err)
			}
			os.Exit(1)
		}

		log.Info("manifest imported",
			"path", source,
			"rows", summary.Rows,
			"skipped", summary.SkippedRows,
			"batches", summary.Batches,
			"elapsed", summary.Elapsed)
	}

	if !*dryRun {
		// Route queries reuse server-side projections; drop them so the
		// next query sees the freshly imported graph.
		engine := query.NewEngine(application.Graph, cfg.Query, nil, application.Log)
		if err := engine.DropProjections(ctx); err != nil {
			log.Warn("could not drop route projections, route queries may serve a stale graph", "error", err)
		}
	}

	log.Info("import complete", "files", len(sources))
}

// discardWriter backs -dry-run: everything is parsed and batched, nothing
// is written.
type discardWriter struct{}

func (discardWriter) WriteBatch(ctx context.Context, rows []map[string]any) error { return nil }
