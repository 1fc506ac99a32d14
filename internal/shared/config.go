package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv      string `yaml:"app_env"`
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	StoreBackend string `yaml:"store_backend"` // file|mongo|mysql
	HistoryFile  string `yaml:"history_file"`
	MongoURI     string `yaml:"mongo_uri"`
	MongoDB      string `yaml:"mongo_db"`
	MySQLDSN     string `yaml:"mysql_dsn"`

	RedisAddr string        `yaml:"redis_addr"` // empty disables the cache
	RedisPass string        `yaml:"redis_password"`
	RedisDB   int           `yaml:"redis_db"`
	CacheTTL  time.Duration `yaml:"-"`

	UpstreamURL     string        `yaml:"upstream_url"`
	UpstreamTimeout time.Duration `yaml:"-"`
	UpstreamLimit   int           `yaml:"upstream_limit"`
	UpstreamRPS     int           `yaml:"upstream_rps"`

	BatchWorkers int `yaml:"batch_workers"`
}

// fileConfig mirrors Config for the optional YAML file; durations are seconds.
type fileConfig struct {
	Config                 `yaml:",inline"`
	CacheTTLSeconds        int `yaml:"cache_ttl_seconds"`
	UpstreamTimeoutSeconds int `yaml:"upstream_timeout_seconds"`
}

func defaults() fileConfig {
	return fileConfig{
		Config: Config{
			AppEnv:        "prod",
			HTTPAddr:      ":8080",
			MetricsAddr:   "",
			StoreBackend:  "file",
			HistoryFile:   "data/analysis_history.json",
			MongoURI:      "mongodb://localhost:27017",
			MongoDB:       "reviewlens",
			MySQLDSN:      "root:root@tcp(localhost:3306)/reviewlens?parseTime=true&charset=utf8mb4&loc=UTC",
			UpstreamURL:   "http://localhost:8000/analyze",
			UpstreamLimit: 50,
			UpstreamRPS:   2,
			BatchWorkers:  4,
		},
		CacheTTLSeconds:        300,
		UpstreamTimeoutSeconds: 180,
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then the process
// environment; later sources win.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg(".env loaded")
	}

	fc := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("config file unreadable, using defaults")
		} else if err := yaml.Unmarshal(b, &fc); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("config file invalid, using defaults")
			fc = defaults()
		}
	}

	c := fc.Config
	c.AppEnv = env("APP_ENV", c.AppEnv)
	c.HTTPAddr = env("HTTP_ADDR", c.HTTPAddr)
	c.MetricsAddr = env("METRICS_ADDR", c.MetricsAddr)
	c.StoreBackend = strings.ToLower(env("STORE_BACKEND", c.StoreBackend))
	c.HistoryFile = env("HISTORY_FILE", c.HistoryFile)
	c.MongoURI = env("MONGO_URI", c.MongoURI)
	c.MongoDB = env("MONGO_DB", c.MongoDB)
	c.MySQLDSN = env("MYSQL_DSN", c.MySQLDSN)
	c.RedisAddr = env("REDIS_ADDR", c.RedisAddr)
	c.RedisPass = env("REDIS_PASSWORD", c.RedisPass)
	c.RedisDB = atoi("REDIS_DB", c.RedisDB)
	c.CacheTTL = time.Duration(atoi("CACHE_TTL_SECONDS", fc.CacheTTLSeconds)) * time.Second
	c.UpstreamURL = env("UPSTREAM_URL", c.UpstreamURL)
	c.UpstreamTimeout = time.Duration(atoi("UPSTREAM_TIMEOUT_SECONDS", fc.UpstreamTimeoutSeconds)) * time.Second
	c.UpstreamLimit = atoi("UPSTREAM_LIMIT", c.UpstreamLimit)
	c.UpstreamRPS = atoi("UPSTREAM_RPS", c.UpstreamRPS)
	c.BatchWorkers = atoi("BATCH_WORKERS", c.BatchWorkers)

	switch c.StoreBackend {
	case "file", "mongo", "mysql":
	default:
		log.Warn().Str("backend", c.StoreBackend).Msg("unknown STORE_BACKEND, using file")
		c.StoreBackend = "file"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}
