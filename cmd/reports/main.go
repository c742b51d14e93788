package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/smoska/flightgraph/internal/app"
	"github.com/smoska/flightgraph/internal/report"
)

func main() {
	var (
		year = flag.String("year", "2017", "year to aggregate (matches the day property prefix)")
		kind = flag.String("kind", "country", "report kind: country | monthly | all")
	)
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	log := application.Log.With("cmd", "reports")
	generator := report.NewGenerator(application.Graph, application.Cfg.Reports, application.Log)
	ctx := context.Background()

	run := func(name string, fn func(context.Context, string) (string, error)) {
		path, err := fn(ctx, *year)
		if err != nil {
			log.Error("report failed", "kind", name, "year", *year, "error", err)
			os.Exit(1)
		}
		log.Info("report generated", "kind", name, "path", path)
	}

	switch *kind {
	case "country":
		run("country", generator.CountryConnections)
	case "monthly":
		run("monthly", generator.MonthlyFlights)
	case "all":
		run("country", generator.CountryConnections)
		run("monthly", generator.MonthlyFlights)
	default:
		fmt.Printf("unknown report kind %q\n", *kind)
		os.Exit(2)
	}
}
