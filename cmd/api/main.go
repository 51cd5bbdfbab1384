package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchlane/launchlane/internal/app/migrate"
	"github.com/launchlane/launchlane/internal/config"
	"github.com/launchlane/launchlane/internal/crypto"
	httpx "github.com/launchlane/launchlane/internal/http"
	"github.com/launchlane/launchlane/internal/logger"
	"github.com/launchlane/launchlane/internal/repository/postgres"
	"github.com/launchlane/launchlane/internal/service/auth"
	"github.com/launchlane/launchlane/internal/service/code"
	"github.com/launchlane/launchlane/internal/service/credential"
	"github.com/launchlane/launchlane/internal/service/feature"
	"github.com/launchlane/launchlane/internal/service/logs"
	"github.com/launchlane/launchlane/internal/service/member"
	"github.com/launchlane/launchlane/internal/service/setting"
	"github.com/launchlane/launchlane/internal/service/user"
	"github.com/launchlane/launchlane/internal/service/workspace"
	"github.com/launchlane/launchlane/internal/token"
	"github.com/launchlane/launchlane/internal/ws"
)

func main() {
	cfg := config.Load()
	log := logger.New("api", logger.Level(cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if cfg.MigrateOnBoot {
		if err := runner.Ensure(ctx); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	repo := postgres.New(pool)
	logHub := ws.NewHub(cfg.LogBuffer)
	hasher := crypto.NewHasher()
	tokens := token.NewManager(cfg.EncryptionKey)

	logSvc := logs.New(repo, logHub, log)
	userSvc := user.New(repo, logSvc, log)
	credSvc := credential.New(repo, hasher, log)
	workspaceSvc := workspace.New(repo, logSvc, log)
	memberSvc := member.New(repo, logSvc, log)
	settingSvc := setting.New(repo, logSvc, log)
	featureSvc := feature.New(repo, logSvc, log)
	codeSvc := code.New(repo, logSvc, log)
	authSvc := auth.New(userSvc, credSvc, repo, codeSvc, hasher, tokens, cfg.TokenTTL, log)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, authSvc, userSvc, credSvc, workspaceSvc, memberSvc, settingSvc, featureSvc, codeSvc, logSvc, tokens, limiter, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
