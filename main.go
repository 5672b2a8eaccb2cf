package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/auth"
	"github.com/querygate-inc/querygate-engine/pkg/backend"
	"github.com/querygate-inc/querygate-engine/pkg/backend/hostedproxy"
	"github.com/querygate-inc/querygate-engine/pkg/backend/internalengine"
	"github.com/querygate-inc/querygate-engine/pkg/cache"
	"github.com/querygate-inc/querygate-engine/pkg/config"
	"github.com/querygate-inc/querygate-engine/pkg/gateway"
	"github.com/querygate-inc/querygate-engine/pkg/handlers"
	"github.com/querygate-inc/querygate-engine/pkg/logging"
	"github.com/querygate-inc/querygate-engine/pkg/middleware"
	"github.com/querygate-inc/querygate-engine/pkg/rest"
	"github.com/querygate-inc/querygate-engine/pkg/security"

	// Adapter registrations.
	_ "github.com/querygate-inc/querygate-engine/pkg/backend/d1"
	_ "github.com/querygate-inc/querygate-engine/pkg/backend/mssql"
	_ "github.com/querygate-inc/querygate-engine/pkg/backend/mysql"
	_ "github.com/querygate-inc/querygate-engine/pkg/backend/postgres"
	_ "github.com/querygate-inc/querygate-engine/pkg/backend/sqlite"
	_ "github.com/querygate-inc/querygate-engine/pkg/backend/starbasedb"
	_ "github.com/querygate-inc/querygate-engine/pkg/backend/turso"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("source", cfg.Source.Type),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.Bool("allowlist", cfg.Features.Allowlist),
		zap.Bool("rls", cfg.Features.RLS),
		zap.Bool("rest", cfg.Features.REST))

	// Datasource: either the co-located engine over RPC or one external
	// connection. Misconfiguration is fatal here, before the listener opens.
	var rpc backend.RPCExecutor
	if cfg.Source.Type == config.SourceInternal {
		rpc = internalengine.NewClient(cfg.Source.InternalURL, cfg.Source.InternalToken)
	}
	ds, err := backend.NewDataSource(cfg, rpc)
	if err != nil {
		logger.Fatal("Failed to build datasource", zap.Error(err))
	}

	// Result cache: Redis when configured, in-process otherwise.
	var store cache.Store
	if cfg.Cache.RedisHost != "" {
		addr := fmt.Sprintf("%s:%d", cfg.Cache.RedisHost, cfg.Cache.RedisPort)
		redisStore, err := cache.NewRedisStore(context.Background(), addr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		store = redisStore
		logger.Info("Using Redis result cache", zap.String("addr", addr))
	} else {
		store = cache.NewMemoryStore()
	}
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	cacheManager := cache.NewManager(store, ttl, logger)
	sweeper := cache.NewSweeper(store, time.Duration(cfg.Cache.SweepIntervalSeconds)*time.Second, logger)
	sweeper.Start()

	// Hosted proxy path is active only for external sources with a credential.
	var proxy backend.HostedProxy
	if cfg.HostedAPIKey != "" && ds.Source == backend.SourceExternal {
		proxy = hostedproxy.NewClient(cfg.HostedProxyURL, cfg.HostedAPIKey, logger)
		logger.Info("Hosted proxy execution path enabled", zap.String("endpoint", cfg.HostedProxyURL))
	}

	enforcer := security.New(cfg, logger)
	dispatcher := backend.NewDispatcher(ds, proxy, logger)
	gw := gateway.New(ds, enforcer, cacheManager, dispatcher, logger)
	translator := rest.New(gw, cfg, logger)

	tokenValidator, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	authMiddleware := auth.NewMiddleware(tokenValidator, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(gw, logger).RegisterRoutes(mux)
	handlers.NewRESTHandler(translator, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(authMiddleware.Attach(mux.ServeHTTP))

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		logger.Info("Starting querygate-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	sweeper.Stop()
	if err := store.Close(); err != nil {
		logger.Error("Cache store close failed", zap.Error(err))
	}
}
