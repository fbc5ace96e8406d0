package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	server "hotel_inventory/internal/adapters/http_server"
	"hotel_inventory/internal/adapters/observability"
	redisad "hotel_inventory/internal/adapters/redis"
	"hotel_inventory/internal/app"
	"hotel_inventory/internal/domain"
	"hotel_inventory/internal/i18n"
	"hotel_inventory/internal/seed"
	"hotel_inventory/internal/shared"
	"hotel_inventory/internal/storage/memory"
	mysqlrepo "hotel_inventory/internal/storage/mysql"
)

// store is what the services need from a storage backend.
type store interface {
	domain.UnitOfWorkFactory
	domain.HotelReader
	domain.CatalogRepository
}

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx := context.Background()
	var repo store
	switch cfg.Storage {
	case "memory":
		repo = memory.New(seed.Catalog())
		log.Warn().Msg("using in-memory storage, data is lost on exit")
	default:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)
	}

	// deps
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, continuing without cache")
		} else {
			cache = rc
		}
	}
	catalog := app.NewCatalogService(repo, cache, cfg.CatalogTTL)
	cmds := app.NewCommandService(repo, catalog, cache)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)

	if cfg.Storage == "memory" {
		n, err := seed.Hotels(ctx, cmds, seed.DemoHotels(), cfg.SeedWorkers)
		if err != nil {
			log.Fatal().Err(err).Msg("demo seed failed")
		}
		log.Info().Int("hotels", n).Msg("demo hotels loaded")
	}

	messages := map[string]*i18n.Messages{}
	for _, loc := range []string{"es", "en"} {
		messages[loc] = i18n.MustLoad(loc)
	}

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:             q,
		C:             cmds,
		Catalog:       catalog,
		Messages:      messages,
		DefaultLocale: cfg.Locale,
		PerPage:       cfg.PerPage,
		MaxPerPage:    cfg.MaxPerPage,
	}, rate.NewLimiter(rate.Limit(cfg.WriteRPS), cfg.WriteRPS))

	log.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.Storage).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
