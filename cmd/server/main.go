package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shoppos/internal/auth"
	"shoppos/internal/config"
	"shoppos/internal/db"
	httpapi "shoppos/internal/http"
	"shoppos/internal/logger"
	"shoppos/internal/ocr"
	"shoppos/internal/repository"
	"shoppos/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zlog, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg.Store, zlog)
	if err != nil {
		zlog.Fatal("store init failed", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	deps := service.Deps{
		Store:   store,
		Issuer:  auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL),
		Revoker: auth.NewMemoryRevoker(),
		Limiter: auth.NoLimit{},
		Shop:    cfg.Shop,
		Auth:    cfg.Auth,
		Log:     zlog,
	}
	if cfg.Redis.Addr != "" {
		client, err := auth.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zlog.Warn("redis unavailable, sessions and rate limits stay in process", zap.Error(err))
		} else {
			defer client.Close()
			deps.Revoker = auth.NewRedisRevoker(client)
			deps.Limiter = auth.NewRedisLimiter(client, cfg.Auth.LoginRateLimit, time.Minute)
			zlog.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	recognizer, err := ocr.New(ocr.Options{Languages: cfg.OCR.Languages, Binary: cfg.OCR.Binary})
	if err != nil {
		zlog.Warn("ocr disabled", zap.Error(err))
	} else {
		defer recognizer.Close()
		deps.Recognizer = recognizer
	}

	svc := service.New(deps)
	if err := svc.EnsureDefaultUser(ctx); err != nil {
		zlog.Fatal("default user init failed", zap.Error(err))
	}
	handler := httpapi.NewHandler(svc, zlog.Named("http"))
	router := httpapi.NewRouter(handler, httpapi.RouterOptions{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Log:            zlog.Named("http"),
	})

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", server.Addr), zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			zlog.Error("force close failed", zap.Error(closeErr))
		}
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig, zlog *zap.Logger) (repository.Store, func(), error) {
	switch cfg.Driver {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, poolOptions(cfg), zlog)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(ctx, pool, zlog); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewPostgres(pool), pool.Close, nil
	case config.StoreMemory:
		zlog.Warn("using the in-memory store, nothing will be persisted")
		return repository.NewMemory(), func() {}, nil
	default:
		client, err := repository.NewFirestoreClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentials)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewFirestore(client), func() { _ = client.Close() }, nil
	}
}

func poolOptions(cfg config.StoreConfig) db.PoolOptions {
	return db.PoolOptions{
		MaxConns: int32(cfg.MaxConns),
		MinConns: int32(cfg.MinConns),
		LogLevel: cfg.QueryLogLevel,
	}
}
