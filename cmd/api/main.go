package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"callops/internal/agents"
	"callops/internal/calllog"
	"callops/internal/config"
	"callops/internal/httpapi"
	"callops/internal/relay"
	"callops/internal/store"
	"callops/internal/sysconfig"
	"callops/internal/telephony"
	"callops/pkg/logger"
	"callops/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional .env for local development; real deployments set env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	rootCtx = logger.With(rootCtx, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := store.Migrate(rootCtx, db); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Services over postgres repositories; sysconfig values cache in redis.
	agentSvc := agents.NewService(agents.NewPostgresRepo(db))
	cfgSvc := sysconfig.NewService(sysconfig.NewPostgresRepo(db), sysconfig.NewRedisCache(rdb))
	callSvc := calllog.NewService(calllog.NewPostgresRepo(db), cfgSvc, telephony.NewTwilioDialer)

	gateway := relay.NewGateway(
		relay.NewCredentials(cfgSvc),
		relay.NewCallRecords(callSvc),
		relay.NewAgentPrompts(agentSvc),
		relay.NewUpstreamDialer(),
		relay.SessionConfig{
			URL:              cfg.Realtime.URL,
			Voice:            cfg.Realtime.Voice,
			StartTimeout:     cfg.Relay.StartTimeout,
			ConfigureTimeout: cfg.Relay.ConfigureTimeout,
			GraceDelay:       cfg.Relay.GraceDelay,
		},
		rdb,
		cfg.Relay.MaxSessions,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, agentSvc, callSvc, cfgSvc, gateway, httpapi.HealthHandlers{DB: db, RDB: rdb})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No Read/WriteTimeout: media-stream websockets stay open for the
		// whole call.
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
