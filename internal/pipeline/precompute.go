package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/inkhub/content-go/internal/errors"
	"github.com/inkhub/content-go/internal/logger"
	"github.com/inkhub/content-go/internal/metrics"
	"github.com/inkhub/content-go/internal/models"
	"github.com/inkhub/content-go/internal/search"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Precomputer 推荐预计算器。向量刚刚(重)生成后运行一次近邻检索，
// 把邻居ID快照写回条目，读路径永远不做实时相似度计算。
type Precomputer struct {
	db       *gorm.DB
	searcher search.Searcher
	topK     int
}

func NewPrecomputer(db *gorm.DB, searcher search.Searcher, topK int) *Precomputer {
	if topK <= 0 {
		topK = 3
	}
	return &Precomputer{
		db:       db,
		searcher: searcher,
		topK:     topK,
	}
}

// Compute 为指定内容计算并持久化推荐列表。
// 没有可用向量时跳过；推荐是派生数据，失败不得影响已写入的向量。
func (p *Precomputer) Compute(ctx context.Context, kind string, contentID uint) (StepResult, error) {
	var item models.ContentItem
	err := p.db.WithContext(ctx).
		Where("content_id = ? AND kind = ?", contentID, kind).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return skipped(SkipNotFound), nil
		}
		return StepResult{}, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load content item")
	}

	if !item.HasEmbedding() {
		return skipped(SkipNoVector), nil
	}

	start := time.Now()
	matches, err := p.searcher.Nearest(ctx, search.NearestRequest{
		Vector:    item.Embedding.Slice(),
		ExcludeID: item.ContentID,
		Kind:      item.Kind,
		Limit:     p.topK,
	})
	metrics.StepDuration.WithLabelValues("recommend").Observe(time.Since(start).Seconds())
	if err != nil {
		return StepResult{}, apperrors.Wrap(err, apperrors.ErrCodeSearchFailed, "similarity search failed")
	}

	ids := make([]uint, 0, len(matches))
	for _, m := range matches {
		// 自身永远不进推荐列表
		if m.ContentID == item.ContentID {
			continue
		}
		ids = append(ids, m.ContentID)
	}

	recommendedJSON, err := json.Marshal(ids)
	if err != nil {
		return StepResult{}, apperrors.Wrap(err, apperrors.ErrCodeInternalServer, "failed to encode recommendations")
	}

	// 系统写入：只碰recommended_ids列，不会重新触发预计算
	writeCtx := WithOrigin(ctx, OriginPipeline)
	err = p.db.WithContext(writeCtx).
		Model(&models.ContentItem{}).
		Where("content_id = ?", item.ContentID).
		Update("recommended_ids", string(recommendedJSON)).Error
	if err != nil {
		return StepResult{}, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to persist recommendations")
	}

	metrics.RecommendationsComputed.Inc()
	logger.Info("recommendations computed",
		zap.String("kind", kind),
		zap.Uint("content_id", contentID),
		zap.Int("count", len(ids)))

	return StepResult{Outcome: OutcomeDone}, nil
}
