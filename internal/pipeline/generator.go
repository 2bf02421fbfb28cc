package pipeline

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/inkhub/content-go/internal/errors"
	"github.com/inkhub/content-go/internal/embedding"
	"github.com/inkhub/content-go/internal/lexical"
	"github.com/inkhub/content-go/internal/logger"
	"github.com/inkhub/content-go/internal/metrics"
	"github.com/inkhub/content-go/internal/models"
	"github.com/inkhub/content-go/internal/search"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Outcome 步骤结果类别
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeSkipped Outcome = "skipped"
)

// 跳过原因。这些是"不适用"，不是错误，永远不重试。
const (
	SkipNotFound     = "not_found"
	SkipNotPublished = "not_published"
	SkipNoBody       = "no_body"
	SkipNoText       = "no_text"
	SkipHashCurrent  = "hash_current"
	SkipNoVector     = "no_vector"
)

// StepResult 管道步骤的结构化结果
type StepResult struct {
	Outcome    Outcome
	SkipReason string
}

func skipped(reason string) StepResult {
	metrics.EmbeddingsSkipped.WithLabelValues(reason).Inc()
	return StepResult{Outcome: OutcomeSkipped, SkipReason: reason}
}

// Generator 向量生成器。对比当前文本哈希与存量哈希，
// 一致则短路跳过——重复触发一个没变的文档是空操作，不是浪费的外部调用。
type Generator struct {
	db       *gorm.DB
	embedder embedding.Embedder
	// indexer 可选，milvus这类外部索引需要在向量落库后同步
	indexer search.Indexer
	timeout time.Duration
}

func NewGenerator(db *gorm.DB, embedder embedding.Embedder, indexer search.Indexer, timeout time.Duration) *Generator {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		db:       db,
		embedder: embedder,
		indexer:  indexer,
		timeout:  timeout,
	}
}

// Generate 为指定内容生成向量。不适用的情况返回skip结果而非错误；
// 外部调用失败原样上抛，由编排层按预算重试。
func (g *Generator) Generate(ctx context.Context, kind string, contentID uint) (StepResult, error) {
	var item models.ContentItem
	err := g.db.WithContext(ctx).
		Where("content_id = ? AND kind = ?", contentID, kind).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return skipped(SkipNotFound), nil
		}
		return StepResult{}, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load content item")
	}

	if !item.IsPublished() {
		return skipped(SkipNotPublished), nil
	}
	if item.Body == "" {
		return skipped(SkipNoBody), nil
	}

	text := lexical.ExtractFromJSON(item.Body)
	if text == "" {
		return skipped(SkipNoText), nil
	}

	hash := lexical.HashText(text)
	if item.TextHash != nil && *item.TextHash == hash {
		return skipped(SkipHashCurrent), nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	result, err := g.embedder.Embed(embedCtx, text)
	metrics.StepDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EmbeddingFailures.Inc()
		return StepResult{}, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "embedding service call failed")
	}

	vector := pgvector.NewVector(result.Vector)
	now := time.Now()

	// 系统写入：带管道来源标记，只更新向量相关列，
	// 不经过生命周期钩子，不会再次触发本管道。
	writeCtx := WithOrigin(ctx, OriginPipeline)
	err = g.db.WithContext(writeCtx).
		Model(&models.ContentItem{}).
		Where("content_id = ?", item.ContentID).
		Updates(map[string]interface{}{
			"embedding":              vector,
			"embedding_model":        result.Model,
			"embedding_dims":         result.Dimensions,
			"embedding_generated_at": now,
			"text_hash":              hash,
		}).Error
	if err != nil {
		return StepResult{}, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to persist embedding")
	}

	if g.indexer != nil {
		item.Embedding = &vector
		item.TextHash = &hash
		if err := g.indexer.Sync(writeCtx, &item); err != nil {
			// 外部索引同步失败不影响已落库的向量
			logger.Warn("failed to sync embedding to external index",
				zap.Uint("content_id", item.ContentID),
				zap.Error(err))
		}
	}

	metrics.EmbeddingsGenerated.Inc()
	logger.Info("embedding generated",
		zap.String("kind", kind),
		zap.Uint("content_id", contentID),
		zap.String("model", result.Model),
		zap.Int("dimensions", result.Dimensions))

	return StepResult{Outcome: OutcomeDone}, nil
}
