package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/PeakMade/Credit-Boost-Portal/internal/config"
	httpapi "github.com/PeakMade/Credit-Boost-Portal/internal/http"
	"github.com/PeakMade/Credit-Boost-Portal/internal/logger"
	"github.com/PeakMade/Credit-Boost-Portal/internal/pipeline"
	"github.com/PeakMade/Credit-Boost-Portal/internal/repository"
	"github.com/PeakMade/Credit-Boost-Portal/internal/service"
	"github.com/PeakMade/Credit-Boost-Portal/internal/source"
	"github.com/PeakMade/Credit-Boost-Portal/internal/ssn"
	"github.com/PeakMade/Credit-Boost-Portal/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "creditboost")
	if err != nil {
		log = zap.NewExample()
	}
	defer log.Sync()

	protector, err := ssn.New(cfg.EncryptionKey)
	if err != nil {
		log.Fatal("invalid ENCRYPTION_KEY", zap.Error(err))
	}
	if !protector.Configured() {
		log.Warn("ENCRYPTION_KEY not set, SSNs will be redacted")
	}

	ctx := context.Background()

	var kv store.KV = store.NewMemoryKV()
	var closeRedis func() error
	if cfg.Redis.Enabled {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		client, err := store.NewRedisClient(pingCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, using in-process cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			kv = store.NewRedisKV(client)
			closeRedis = client.Close
		}
	}

	opts := []pipeline.Option{pipeline.WithLogger(log)}
	if cfg.Data.PaymentSeed != 0 {
		opts = append(opts, pipeline.WithSeed(cfg.Data.PaymentSeed))
	}
	normalizer := pipeline.New(protector, opts...)

	repo := repository.NewMemoryResidentsRepo()
	loader := service.NewResidentLoader(repo, normalizer, log,
		source.NewExcelSource(cfg.Data.ExcelPath, log),
		source.NewJSONSource(cfg.Data.JSONPath, log),
	)
	sharepoint := source.NewGraphListSource(cfg.SharePoint, kv, log)

	restored := false
	if cfg.Data.SnapshotPath != "" {
		n, err := repo.LoadSnapshot(ctx, cfg.Data.SnapshotPath)
		switch {
		case err == nil:
			log.Info("restored residents from snapshot", zap.String("path", cfg.Data.SnapshotPath), zap.Int("count", n))
			restored = true
		case errors.Is(err, os.ErrNotExist):
		default:
			log.Warn("snapshot unreadable, reloading from sources", zap.Error(err))
		}
	}
	if !restored {
		if _, err := loader.Load(ctx); err != nil {
			log.Fatal("failed to load residents", zap.Error(err))
		}
	}

	auth, err := service.NewAuthService(cfg.Admin, repo, kv, log)
	if err != nil {
		log.Fatal("failed to init auth", zap.Error(err))
	}
	residents := service.NewResidentService(repo, log)
	reporting := service.NewReportingService(repo, log)

	router := httpapi.NewRouter(log)
	authn := httpapi.NewAuthenticator(auth, log)
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(auth, log))
	router.RegisterResidentRoutes(authn, httpapi.NewResidentHandler(residents, log))
	router.RegisterAdminRoutes(authn, httpapi.NewAdminHandler(
		residents,
		service.NewDashboardService(repo),
		reporting,
		loader,
		sharepoint,
		log,
	))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)

	if cfg.Data.SnapshotPath != "" {
		if err := repo.SaveSnapshot(shutdownCtx, cfg.Data.SnapshotPath); err != nil {
			log.Error("failed to save snapshot", zap.Error(err))
		}
	}
	if closeRedis != nil {
		_ = closeRedis()
	}
}
