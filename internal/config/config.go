package config

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/smoska/flightgraph/internal/platform/envutil"
)

type Config struct {
	LogMode string
	Neo4j   Neo4jConfig
	Ingest  IngestConfig
	Query   QueryConfig
	Redis   RedisConfig
	HTTP    HTTPConfig
	Reports ReportsConfig
}

type Neo4jConfig struct {
	URI            string
	User           string
	Password       string
	Database       string
	ConnectRetries int
	ConnectDelay   time.Duration
	SocketTimeout  time.Duration
	MaxPoolSize    int
}

type IngestConfig struct {
	CSVPath      string
	DataDir      string
	MetadataPath string
	BatchSize    int
	MaxAttempts  int
	RetryDelay   time.Duration
}

type QueryConfig struct {
	Timeout         time.Duration
	HubOpsWeight    float64
	HubRoutesWeight float64
}

type RedisConfig struct {
	Addr    string
	HubsTTL time.Duration
}

type HTTPConfig struct {
	Addr string
}

type ReportsConfig struct {
	Dir string
}

// Load builds the configuration from the environment. A .env file is applied
// first when one exists; real environment variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		LogMode: envutil.Str("LOG_MODE", "development"),
		Neo4j: Neo4jConfig{
			URI:            envutil.Str("NEO4J_URI", "bolt://localhost:7687"),
			User:           envutil.Str("NEO4J_USER", "neo4j"),
			Password:       envutil.Str("NEO4J_PASSWORD", "password"),
			Database:       envutil.Str("NEO4J_DATABASE", ""),
			ConnectRetries: max(1, envutil.Int("NEO4J_CONNECT_RETRIES", 15)),
			ConnectDelay:   envutil.Seconds("NEO4J_CONNECT_DELAY", 2*time.Second),
			SocketTimeout:  envutil.Seconds("NEO4J_TIMEOUT_SECONDS", 10*time.Second),
			MaxPoolSize:    max(1, envutil.Int("NEO4J_MAX_POOL_SIZE", 50)),
		},
		Ingest: IngestConfig{
			CSVPath:      envutil.Str("CSV_PATH", ""),
			DataDir:      envutil.Str("DATA_DIR", "data"),
			MetadataPath: envutil.Str("AIRPORTS_METADATA", "airports_mapping.csv"),
			BatchSize:    max(1, envutil.Int("BATCH_SIZE", 4000)),
			MaxAttempts:  max(1, envutil.Int("INGEST_MAX_ATTEMPTS", 3)),
			RetryDelay:   envutil.Seconds("INGEST_RETRY_DELAY", time.Second),
		},
		Query: QueryConfig{
			Timeout:         envutil.Seconds("QUERY_TIMEOUT", 0),
			HubOpsWeight:    envutil.Float("HUB_SCORE_OPS_WEIGHT", 1),
			HubRoutesWeight: envutil.Float("HUB_SCORE_ROUTES_WEIGHT", 1),
		},
		Redis: RedisConfig{
			Addr:    envutil.Str("REDIS_ADDR", ""),
			HubsTTL: envutil.Seconds("REDIS_HUBS_TTL", 60*time.Second),
		},
		HTTP: HTTPConfig{
			Addr: envutil.Str("HTTP_ADDR", ":8080"),
		},
		Reports: ReportsConfig{
			Dir: envutil.Str("REPORTS_DIR", "reports"),
		},
	}
}
