package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"github.com/Divyaanshvats/intern-management-system/internal/core/auth"
	"github.com/Divyaanshvats/intern-management-system/internal/core/cache"
	"github.com/Divyaanshvats/intern-management-system/internal/core/config"
	"github.com/Divyaanshvats/intern-management-system/internal/core/database"
	"github.com/Divyaanshvats/intern-management-system/internal/core/events"
	"github.com/Divyaanshvats/intern-management-system/internal/core/logger"
	"github.com/Divyaanshvats/intern-management-system/internal/core/server"
	"github.com/Divyaanshvats/intern-management-system/internal/core/telemetry"
	"github.com/Divyaanshvats/intern-management-system/internal/report"
	"github.com/Divyaanshvats/intern-management-system/internal/repo"
	"github.com/Divyaanshvats/intern-management-system/internal/service"
	"github.com/Divyaanshvats/intern-management-system/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	l, cleanup := logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
		Filename:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer cleanup()
	defer logger.RedirectStdLog(l, zapcore.InfoLevel)()
	gin.DefaultWriter = logger.ToWriter(l, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(l, zapcore.ErrorLevel)
	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Options{
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Env,
		Exporter:    cfg.Tracing.Exporter,
	})
	if err != nil {
		l.Fatal("tracing init", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// fatal on failure
	db := mustOpenDB(cfg, l)
	defer func() { _ = database.Close(db) }()
	if cfg.DB.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			l.Fatal("automigrate failed", zap.Error(err))
		}
		l.Info("automigrate done")
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}
	gate := auth.NewGate(jwter)

	gen := report.New(report.Options{
		Provider: cfg.Report.Provider,
		APIKey:   cfg.Report.APIKey,
		Model:    cfg.Report.Model,
		BaseURL:  cfg.Report.BaseURL,
		Timeout:  time.Duration(cfg.Report.TimeoutSec) * time.Second,
	})
	reports := mustOpenCache(ctx, cfg, l)
	pub := openPublisher(cfg, l)
	if c, ok := pub.(interface{ Close() error }); ok {
		defer func() { _ = c.Close() }()
	}

	users := service.NewUserService(repo.NewUserRepo(db), gate, cfg.Auth.InviteCode, l)
	evals := service.NewEvaluationService(repo.NewEvaluationRepo(db), gen, reports, pub, l, service.EvaluationOptions{
		EnforceOwnership: cfg.Auth.EnforceOwnership,
		ReportCacheTTL:   time.Duration(cfg.Cache.ReportTTLMin) * time.Minute,
	})

	r := router.NewAPIEngine(l, router.Deps{
		Gate:        gate,
		Users:       users,
		Evaluations: evals,
		Limits:      cfg.Limits,
		ServiceName: cfg.App.Name,
	})
	srv := server.FromConfig(cfg.App.HTTP, r)

	baseURL := server.BaseURL(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	l.Info("api starting",
		zap.String("addr", srv.Addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
		zap.String("report_provider", cfg.Report.Provider),
	)
	if err := server.Run(ctx, srv, l, 10*time.Second); err != nil {
		l.Error("api stopped with error", zap.Error(err))
		return
	}
	l.Info("api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.OptsFromConfig(cfg.DB, l))
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}

// mustOpenCache prefers Redis when an address is configured and falls
// back to the in-process cache.
func mustOpenCache(ctx context.Context, cfg *config.Config, l *zap.Logger) *cache.Cache {
	if cfg.Redis.Addr != "" {
		rb := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rb.Ping(pctx); err != nil {
			l.Fatal("redis ping", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		l.Info("report cache: redis", zap.String("addr", cfg.Redis.Addr))
		return cache.New(rb)
	}
	lb, err := cache.NewLocal(cfg.Cache.LocalMaxEntries)
	if err != nil {
		l.Fatal("local cache", zap.Error(err))
	}
	l.Info("report cache: in-process")
	return cache.New(lb)
}

// openPublisher never fails startup; events are best-effort.
func openPublisher(cfg *config.Config, l *zap.Logger) events.Publisher {
	if cfg.Events.AMQPURL == "" {
		return events.Nop{}
	}
	p, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange,
		time.Duration(cfg.Events.PublishTimeoutSec)*time.Second)
	if err != nil {
		l.Warn("events disabled", zap.Error(err))
		return events.Nop{}
	}
	return p
}
