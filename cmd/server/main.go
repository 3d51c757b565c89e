package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bananalabs-oss/clans/internal/clans"
	"github.com/bananalabs-oss/clans/internal/config"
	"github.com/bananalabs-oss/clans/internal/database"
	"github.com/bananalabs-oss/clans/internal/directory"
	"github.com/bananalabs-oss/clans/internal/events"
	"github.com/bananalabs-oss/clans/internal/logger"
	"github.com/bananalabs-oss/clans/internal/metrics"
	"github.com/bananalabs-oss/clans/internal/router"
	"github.com/bananalabs-oss/clans/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()

	zlog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("starting clans",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.DatabaseURL),
		zap.String("settings", cfg.SettingsPath),
	)

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		zlog.Fatal("failed to load settings", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, zlog); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	var publisher events.Publisher = events.Nop()
	if cfg.NATSURL != "" {
		nats, err := events.Connect(cfg.NATSURL)
		if err != nil {
			zlog.Fatal("failed to connect to nats", zap.Error(err))
		}
		defer func() { _ = nats.Close() }()
		publisher = nats
		zlog.Info("publishing events", zap.String("nats", cfg.NATSURL))
	}

	metrics.InitMetrics()
	metricsSrv := metrics.ServeMetrics(cfg.MetricsAddr, zlog)

	dir := directory.New(store.NewBun(db),
		directory.WithLogger(zlog),
		directory.WithPublisher(publisher),
		directory.WithSettings(settings),
	)
	if err := dir.WarmUp(ctx); err != nil {
		zlog.Fatal("failed to warm up caches", zap.Error(err))
	}
	if n, err := dir.RepairOwners(ctx); err != nil {
		zlog.Fatal("failed to repair clan owners", zap.Error(err))
	} else if n > 0 {
		zlog.Warn("repaired clan ownership", zap.Int("clans", n))
	}
	sweepsDone := dir.StartSweeps(ctx, settings.Invites.SweepInterval, settings.Ad.SweepInterval)

	gin.SetMode(gin.ReleaseMode)
	h := clans.NewHandler(dir, settings, zlog)
	r := router.Setup(h, cfg.JWTSecret, cfg.ServiceToken)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		zlog.Info("clans listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down clans")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	_ = metricsSrv.Shutdown(shutdownCtx)

	stop()
	<-sweepsDone

	zlog.Info("clans stopped")
}
