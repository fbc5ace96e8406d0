package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	Locale      string
	HTTPAddr    string
	MetricsAddr string
	Storage     string // mysql | memory
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
	CatalogTTL  time.Duration
	PerPage     int
	MaxPerPage  int
	WriteRPS    int
	SeedWorkers int
}

// Load reads the environment, after merging a .env file when one exists.
// Variables already set in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		Locale:      env("LOCALE", "es"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		Storage:     env("STORAGE", "mysql"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hoteles?parseTime=true&charset=utf8mb4&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", ""),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		CatalogTTL:  time.Duration(atoi("CATALOG_TTL_SECONDS", 300)) * time.Second,
		PerPage:     atoi("DEFAULT_PER_PAGE", 15),
		MaxPerPage:  atoi("MAX_PER_PAGE", 100),
		WriteRPS:    atoi("WRITE_RPS", 20),
		SeedWorkers: atoi("SEED_WORKERS", 4),
	}
	if c.Storage != "mysql" && c.Storage != "memory" {
		log.Warn().Str("storage", c.Storage).Msg("unknown STORAGE, using mysql")
		c.Storage = "mysql"
	}
	if c.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR is empty, caching disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
