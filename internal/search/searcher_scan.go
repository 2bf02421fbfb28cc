package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/inkhub/content-go/internal/metrics"
	"github.com/inkhub/content-go/internal/models"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ScanSearcher 退化实现：取候选集后在进程内算余弦相似度。
// 不依赖pgvector的距离算子，适合小数据量和没有向量索引的库。
type ScanSearcher struct {
	db             *gorm.DB
	candidateLimit int
}

func NewScanSearcher(db *gorm.DB, candidateLimit int) Searcher {
	if candidateLimit <= 0 {
		candidateLimit = 200
	}
	return &ScanSearcher{db: db, candidateLimit: candidateLimit}
}

type candidateRow struct {
	ContentID uint
	Embedding *pgvector.Vector
}

func (s *ScanSearcher) Nearest(ctx context.Context, req NearestRequest) ([]Match, error) {
	if len(req.Vector) == 0 {
		return nil, nil
	}
	if req.Limit <= 0 {
		req.Limit = 3
	}

	metrics.SimilaritySearches.WithLabelValues("scan").Inc()

	query := s.db.WithContext(ctx).
		Model(&models.ContentItem{}).
		Select("content_id, embedding").
		Where("status = ?", models.ContentStatusPublished).
		Where("visibility = ?", models.VisibilityPublic).
		Where("text_hash IS NOT NULL").
		Where("embedding IS NOT NULL").
		Where("embedding_dims = ?", len(req.Vector)).
		Where("content_id <> ?", req.ExcludeID)

	if req.Kind != "" {
		query = query.Where("kind = ?", req.Kind)
	}

	var rows []candidateRow
	if err := query.Limit(s.candidateLimit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("candidate scan failed: %w", err)
	}

	queryNorm := vectorNorm(req.Vector)
	if queryNorm == 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		if row.Embedding == nil {
			continue
		}
		candidate := row.Embedding.Slice()
		// 维度不符按无可用向量处理
		if len(candidate) != len(req.Vector) {
			continue
		}
		score := cosineSimilarity(req.Vector, candidate, queryNorm)
		matches = append(matches, Match{ContentID: row.ContentID, Score: score})
	}

	// 相似度降序，平分时按ID保证确定性
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ContentID < matches[j].ContentID
	})

	if len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}
	return matches, nil
}

func (s *ScanSearcher) Ready() bool {
	return s.db != nil
}

func vectorNorm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v * v)
	}
	return math.Sqrt(sum)
}

func cosineSimilarity(a, b []float32, normA float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot float64
	var normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (normA * math.Sqrt(normB))
}
