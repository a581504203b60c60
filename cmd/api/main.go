package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "hotel_connect/internal/adapters/http_server"
	"hotel_connect/internal/adapters/observability"
	redisad "hotel_connect/internal/adapters/redis"
	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/app"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/shared"
	mysqlrepo "hotel_connect/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, observability.MetricsHandler(reg))

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// cache is optional: without redis every read goes to mysql
	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; config cache disabled")
		_ = rc.Close()
	} else {
		cache = rc
		defer rc.Close()
	}

	// deps
	repo := mysqlrepo.New(db)
	configs := app.NewConfigService(repo, cache, cfg.CacheTTL)
	outbound := []transport.Option{transport.WithRateLimit(cfg.OutboundRPS)}
	factories := app.NewFactories(configs, outbound...)
	manager := app.NewManager(app.ManagerOptions{Env: cfg.Integrations, Transport: outbound})
	if err := manager.InitializeAll(ctx); err != nil {
		log.Warn().Err(err).Msg("some integrations failed to initialize")
	}

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Configs: configs, Factories: factories, Manager: manager})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
