package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/smoska/flightgraph/internal/config"
)

// FindSources resolves which manifest files a run should read: CSV_PATH when
// set, otherwise every *.csv / *.csv.gz under the data directory, sorted.
func FindSources(cfg config.IngestConfig) ([]string, error) {
	if cfg.CSVPath != "" {
		path := cfg.CSVPath
		if !filepath.IsAbs(path) {
			wd, err := os.Getwd()
			if err == nil {
				path = filepath.Join(wd, path)
			}
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
		return []string{path}, nil
	}

	if _, err := os.Stat(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("data directory %s: %w", cfg.DataDir, err)
	}

	var files []string
	for _, pattern := range []string{"*.csv", "*.csv.gz"} {
		matches, err := filepath.Glob(filepath.Join(cfg.DataDir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CSV manifests in %s", cfg.DataDir)
	}
	sort.Strings(files)
	return files, nil
}
