package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/cache"
	"github.com/graphreq/permission-workflow/internal/catalog"
	"github.com/graphreq/permission-workflow/internal/config"
	httpserver "github.com/graphreq/permission-workflow/internal/interfaces/http"
	"github.com/graphreq/permission-workflow/internal/notify"
	"github.com/graphreq/permission-workflow/internal/repository"
	"github.com/graphreq/permission-workflow/internal/store"
	"github.com/graphreq/permission-workflow/internal/workflow"
	"github.com/graphreq/permission-workflow/migrations"
	"github.com/graphreq/permission-workflow/pkg/database"
	"github.com/graphreq/permission-workflow/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Graph permission request workflow",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(migrations.FS); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	persistence := repository.NewPersistence(db, logger)

	statusCache := buildCache(cfg.Cache, logger)

	cat := catalog.New()
	engine := workflow.NewEngine(cat, logger)

	st := store.New(engine, statusCache, persistence, logger)
	requests, err := persistence.LoadAll()
	if err != nil {
		logger.Fatal("Failed to load persisted requests", zap.Error(err))
	}
	st.Seed(requests)

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Lark.Enabled {
		notifier = notify.NewLarkNotifier(notify.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
			ChatID:    cfg.Lark.ChatID,
		}, logger)
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, st, engine, notifier, persistence, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// buildCache selects Redis when an address is configured, otherwise the
// in-process cache.
func buildCache(cfg config.CacheConfig, logger *zap.Logger) cache.ApprovalStatusCache {
	if cfg.RedisAddr == "" {
		logger.Info("Using in-memory approval status cache",
			zap.Duration("ttl", cfg.TTL))
		return cache.NewMemoryCache(cfg.TTL)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	logger.Info("Using Redis approval status cache",
		zap.String("addr", cfg.RedisAddr),
		zap.Duration("ttl", cfg.TTL))
	return cache.NewRedisCache(rdb, cfg.TTL, logger)
}
