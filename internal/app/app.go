package app

import (
	"context"
	"fmt"
	"time"

	"github.com/smoska/flightgraph/internal/config"
	"github.com/smoska/flightgraph/internal/platform/logger"
	"github.com/smoska/flightgraph/internal/platform/neo4jdb"
	"github.com/smoska/flightgraph/internal/query"
)

// App is the composition root. The graph connection is constructed exactly
// once here and injected into whichever component needs it; Close releases
// everything on every exit path, including failed ingestion runs.
type App struct {
	Cfg      *config.Config
	Log      *logger.Logger
	Graph    *neo4jdb.Client
	HubCache *query.HubCache
}

func New() (*App, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	graph, err := neo4jdb.New(cfg.Neo4j, log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	hubCache, err := query.NewHubCache(cfg.Redis, log)
	if err != nil {
		// The cache is an optimization; a dead redis never blocks queries.
		log.Warn("hub cache unavailable, queries go straight to the store", "error", err)
		hubCache = nil
	}

	return &App{
		Cfg:      cfg,
		Log:      log,
		Graph:    graph,
		HubCache: hubCache,
	}, nil
}

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.HubCache.Close(); err != nil {
		a.Log.Warn("closing hub cache", "error", err)
	}
	if err := a.Graph.Close(ctx); err != nil {
		a.Log.Warn("closing graph driver", "error", err)
	}
	a.Log.Sync()
}
