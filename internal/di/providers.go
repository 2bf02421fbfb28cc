package di

import (
	"fmt"
	"time"

	"go.uber.org/dig"
	"gorm.io/gorm"

	"github.com/inkhub/content-go/internal/cache"
	"github.com/inkhub/content-go/internal/config"
	"github.com/inkhub/content-go/internal/content"
	"github.com/inkhub/content-go/internal/database"
	"github.com/inkhub/content-go/internal/embedding"
	"github.com/inkhub/content-go/internal/kafka"
	"github.com/inkhub/content-go/internal/pipeline"
	"github.com/inkhub/content-go/internal/search"
)

// RegisterProviders 注册所有依赖提供者
func RegisterProviders(container *dig.Container) error {
	// 注册配置
	if err := container.Provide(func() (*config.Config, error) {
		if config.AppConfig == nil {
			return nil, fmt.Errorf("config not loaded")
		}
		return config.AppConfig, nil
	}); err != nil {
		return err
	}

	// 注册数据库
	if err := container.Provide(func(cfg *config.Config) (*gorm.DB, error) {
		if database.DB == nil {
			return nil, fmt.Errorf("database not initialized")
		}
		return database.DB, nil
	}); err != nil {
		return err
	}

	// 注册向量化客户端
	if err := container.Provide(func(cfg *config.Config) embedding.Embedder {
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKey, cfg.Embedding.Model)
	}); err != nil {
		return err
	}

	// 注册相似度检索实现（按配置选择provider）
	if err := container.Provide(func(cfg *config.Config, db *gorm.DB) (search.Searcher, error) {
		switch cfg.Recommend.Provider {
		case "scan":
			return search.NewScanSearcher(db, cfg.Recommend.CandidateLimit), nil
		case "milvus":
			return search.NewMilvusSearcher(search.MilvusOptions{
				Address:    cfg.Recommend.Milvus.Address,
				Username:   cfg.Recommend.Milvus.Username,
				Password:   cfg.Recommend.Milvus.Password,
				Collection: cfg.Recommend.Milvus.Collection,
				Database:   cfg.Recommend.Milvus.Database,
				VectorSize: cfg.Recommend.Milvus.VectorSize,
				UseTLS:     cfg.Recommend.Milvus.TLS,
				Timeout:    10 * time.Second,
			})
		default:
			return search.NewPgVectorSearcher(db), nil
		}
	}); err != nil {
		return err
	}

	// 注册可选的外部索引同步（仅milvus实现了Indexer）
	if err := container.Provide(func(searcher search.Searcher) search.Indexer {
		if idx, ok := searcher.(search.Indexer); ok {
			return idx
		}
		return nil
	}); err != nil {
		return err
	}

	// 注册缓存失效协调器
	if err := container.Provide(func(cfg *config.Config) *cache.Coordinator {
		var store cache.TagStore
		if database.RedisClient != nil {
			store = cache.NewRedisTagStore(database.RedisClient)
		}
		profiles := cache.Profiles{
			Edit:    cache.Profile{Name: "edit", Window: time.Duration(cfg.Cache.EditWindowSec) * time.Second},
			Removal: cache.Profile{Name: "removal", Window: time.Duration(cfg.Cache.RemovalWindowSec) * time.Second},
		}
		return cache.NewCoordinator(store, profiles, cfg.Cache.Enabled)
	}); err != nil {
		return err
	}

	// 注册过期标记器
	if err := container.Provide(pipeline.NewMarker); err != nil {
		return err
	}

	// 注册管道入队函数
	if err := container.Provide(func() pipeline.EnqueueFunc {
		return kafka.EnqueuePipeline
	}); err != nil {
		return err
	}

	// 注册向量生成器
	if err := container.Provide(func(cfg *config.Config, db *gorm.DB, embedder embedding.Embedder, indexer search.Indexer) *pipeline.Generator {
		timeout := time.Duration(cfg.Embedding.TimeoutSec) * time.Second
		return pipeline.NewGenerator(db, embedder, indexer, timeout)
	}); err != nil {
		return err
	}

	// 注册推荐预计算器
	if err := container.Provide(func(cfg *config.Config, db *gorm.DB, searcher search.Searcher) *pipeline.Precomputer {
		return pipeline.NewPrecomputer(db, searcher, cfg.Recommend.TopK)
	}); err != nil {
		return err
	}

	// 注册工作流
	if err := container.Provide(func(cfg *config.Config, db *gorm.DB, generator *pipeline.Generator, precomputer *pipeline.Precomputer) *pipeline.Workflow {
		return pipeline.NewWorkflow(db, generator, precomputer, cfg.Embedding.MaxRetries, cfg.Recommend.MaxRetries)
	}); err != nil {
		return err
	}

	// 注册消费端Runner
	if err := container.Provide(func(cfg *config.Config, workflow *pipeline.Workflow) *pipeline.Runner {
		return pipeline.NewRunner(workflow, cfg.Kafka.Topic)
	}); err != nil {
		return err
	}

	// 注册补偿清扫器
	if err := container.Provide(func(db *gorm.DB, enqueue pipeline.EnqueueFunc) *pipeline.Janitor {
		return pipeline.NewJanitor(db, enqueue, 5*time.Minute)
	}); err != nil {
		return err
	}

	// 注册内容服务
	if err := container.Provide(func(db *gorm.DB, marker *pipeline.Marker, coordinator *cache.Coordinator, enqueue pipeline.EnqueueFunc, indexer search.Indexer) *content.Service {
		return content.NewService(db, marker, coordinator, enqueue, indexer)
	}); err != nil {
		return err
	}

	return nil
}
