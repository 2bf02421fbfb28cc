// Package search 提供已发布内容的向量近邻检索。
package search

import (
	"context"

	"github.com/inkhub/content-go/internal/models"
)

// Match 检索结果，Score为余弦相似度（越大越相似）
type Match struct {
	ContentID uint
	Score     float64
}

// NearestRequest 近邻检索请求
type NearestRequest struct {
	Vector []float32
	// ExcludeID 排除的内容ID（查询源自身）
	ExcludeID uint
	// Kind 非空时限定同类型内容
	Kind  string
	Limit int
}

// Searcher 相似度检索抽象。
// 实现必须排除ExcludeID、未发布与私有内容，以及向量缺失或维度不符的条目；
// 查询向量为空时返回空结果而非错误。
type Searcher interface {
	Nearest(ctx context.Context, req NearestRequest) ([]Match, error)
	Ready() bool
}

// Indexer 可选的外部索引同步接口。
// 向量存在内容表里的实现（pgvector/scan）不需要；
// 独立ANN服务（milvus）需要在向量写入和内容下线时同步。
type Indexer interface {
	Sync(ctx context.Context, item *models.ContentItem) error
	Remove(ctx context.Context, contentID uint) error
}
