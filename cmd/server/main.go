package main

import (
	"fmt"
	"os"

	"github.com/smoska/flightgraph/internal/app"
	"github.com/smoska/flightgraph/internal/httpapi"
	"github.com/smoska/flightgraph/internal/query"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	log := application.Log.With("cmd", "server")

	engine := query.NewEngine(application.Graph, application.Cfg.Query, application.HubCache, application.Log)
	server := httpapi.NewServer(engine, application.Graph, application.Log)

	addr := application.Cfg.HTTP.Addr
	log.Info("query API listening", "addr", addr)
	if err := server.Router().Run(addr); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
