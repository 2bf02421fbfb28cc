package search

import (
	"context"
	"fmt"

	"github.com/inkhub/content-go/internal/metrics"
	"github.com/inkhub/content-go/internal/models"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PgVectorSearcher 把距离排序下推到PostgreSQL的pgvector实现。
// `<=>` 是余弦距离算子，升序即最相似在前。
type PgVectorSearcher struct {
	db *gorm.DB
}

func NewPgVectorSearcher(db *gorm.DB) Searcher {
	return &PgVectorSearcher{db: db}
}

func (s *PgVectorSearcher) Nearest(ctx context.Context, req NearestRequest) ([]Match, error) {
	if len(req.Vector) == 0 {
		return nil, nil
	}
	if req.Limit <= 0 {
		req.Limit = 3
	}

	metrics.SimilaritySearches.WithLabelValues("pgvector").Inc()

	query := s.db.WithContext(ctx).
		Model(&models.ContentItem{}).
		Select("content_id, 1 - (embedding <=> ?) AS score", pgvector.NewVector(req.Vector)).
		Where("status = ?", models.ContentStatusPublished).
		Where("visibility = ?", models.VisibilityPublic).
		Where("text_hash IS NOT NULL").
		Where("embedding IS NOT NULL").
		Where("embedding_dims = ?", len(req.Vector)).
		Where("content_id <> ?", req.ExcludeID)

	if req.Kind != "" {
		query = query.Where("kind = ?", req.Kind)
	}

	var matches []Match
	err := query.
		// 距离相同时按ID保证确定性
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "embedding <=> ?, content_id ASC",
			Vars: []interface{}{pgvector.NewVector(req.Vector)},
		}}).
		Limit(req.Limit).
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("pgvector search failed: %w", err)
	}

	return matches, nil
}

func (s *PgVectorSearcher) Ready() bool {
	return s.db != nil
}
