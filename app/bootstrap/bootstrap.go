package bootstrap

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/inkhub/content-go/internal/config"
	"github.com/inkhub/content-go/internal/database"
	"github.com/inkhub/content-go/internal/di"
	"github.com/inkhub/content-go/internal/kafka"
	"github.com/inkhub/content-go/internal/logger"
)

// App 持有需要在退出时清理的生命周期资源。
type App struct {
	cleanupTasks []func() error
}

// Global app instance
var globalApp *App

// GetApp returns the global app instance
func GetApp() *App {
	return globalApp
}

// SetGlobalApp sets the global app instance
func SetGlobalApp(app *App) {
	globalApp = app
}

// Init bootstraps configuration, logger, database connections and other shared
// infrastructure components required by the pipeline worker.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load dynamic configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}

	app := &App{}

	// Initialize PostgreSQL (pgvector extension + schema migration).
	if _, err := database.InitDB(); err != nil {
		return nil, err
	}
	app.cleanupTasks = append(app.cleanupTasks, database.CloseDB)

	// Collect connection pool metrics.
	if sqlDB, err := database.DB.DB(); err == nil {
		collector := database.NewMetricsCollector(sqlDB)
		collector.Start()
		app.cleanupTasks = append(app.cleanupTasks, func() error {
			collector.Stop()
			return nil
		})
	}

	// Initialize Redis (optional: cache invalidation degrades to no-op without it).
	if _, err := database.InitRedis(); err != nil {
		logger.Warn("⚠️ Redis初始化失败，缓存失效降级为跳过", zap.Error(err))
	} else {
		app.cleanupTasks = append(app.cleanupTasks, database.CloseRedis)
	}

	// Initialize Kafka producer/consumer when enabled.
	if config.AppConfig.Kafka.Enabled {
		if err := kafka.InitProducer(config.AppConfig.Kafka.Brokers, config.AppConfig.Kafka.Topic); err != nil {
			logger.Warn("⚠️ Kafka生产者初始化失败，管道触发降级为跳过", zap.Error(err))
		} else {
			app.cleanupTasks = append(app.cleanupTasks, func() error {
				return kafka.GetProducer().Close()
			})
		}

		if err := kafka.InitConsumer(
			config.AppConfig.Kafka.Brokers,
			config.AppConfig.Kafka.GroupID,
			[]string{config.AppConfig.Kafka.Topic},
		); err != nil {
			logger.Warn("⚠️ Kafka消费者初始化失败", zap.Error(err))
		} else {
			app.cleanupTasks = append(app.cleanupTasks, func() error {
				return kafka.GetConsumer().Close()
			})
		}
	}

	// Watch config file for hot reload of tunables.
	config.WatchConfig(func(cfg *config.Config) {
		logger.Info("配置热更新完成",
			zap.Int("top_k", cfg.Recommend.TopK),
			zap.Int("embed_retries", cfg.Embedding.MaxRetries))
	})

	// Build the dependency injection container.
	container := di.InitContainer()
	if err := di.RegisterProviders(container); err != nil {
		return nil, err
	}

	SetGlobalApp(app)
	return app, nil
}

// Shutdown 逆序执行清理任务。
func (a *App) Shutdown() {
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			logger.Error("清理任务执行失败", zap.Error(err))
		}
	}
	logger.Sync()
}
