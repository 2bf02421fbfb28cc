package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/inkhub/content-go/internal/logger"
	"github.com/inkhub/content-go/internal/metrics"
	"github.com/inkhub/content-go/internal/models"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

// MilvusOptions Milvus客户端配置
type MilvusOptions struct {
	Address    string
	Username   string
	Password   string
	Collection string
	Database   string
	VectorSize int
	UseTLS     bool
	Timeout    time.Duration
}

// milvusSearcher 独立ANN服务实现。向量与过滤用的标量字段
// 一起同步进Milvus，检索时用表达式做状态/可见性过滤。
type milvusSearcher struct {
	milvusClient client.Client
	collection   string
	vectorSize   int

	mu     sync.Mutex
	loaded bool
}

// NewMilvusSearcher 创建Milvus检索器
func NewMilvusSearcher(opts MilvusOptions) (Searcher, error) {
	if opts.Address == "" {
		opts.Address = "localhost:19530"
	}
	if opts.Collection == "" {
		opts.Collection = "content_vectors"
	}
	if opts.VectorSize == 0 {
		opts.VectorSize = 1536
	}
	if opts.Database == "" {
		opts.Database = "default"
	}

	milvusClient, err := client.NewClient(
		context.Background(),
		client.Config{
			Address:       opts.Address,
			DBName:        opts.Database,
			Username:      opts.Username,
			Password:      opts.Password,
			EnableTLSAuth: opts.UseTLS,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	return &milvusSearcher{
		milvusClient: milvusClient,
		collection:   opts.Collection,
		vectorSize:   opts.VectorSize,
	}, nil
}

func (s *milvusSearcher) ensureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	hasCollection, err := s.milvusClient.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if hasCollection {
		if err := s.milvusClient.LoadCollection(ctx, s.collection, false); err != nil {
			return fmt.Errorf("failed to load collection: %w", err)
		}
		s.loaded = true
		return nil
	}

	schema := &entity.Schema{
		CollectionName: s.collection,
		Description:    "Published content embeddings",
		Fields: []*entity.Field{
			{
				Name:       "content_id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     false,
			},
			{
				Name:     "kind",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
			{
				Name:     "status",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
			{
				Name:     "visibility",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", s.vectorSize),
				},
			},
		},
	}

	if err := s.milvusClient.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	var index entity.Index
	var indexErr error
	index, indexErr = entity.NewIndexHNSW(entity.COSINE, 8, 64)
	if indexErr != nil {
		index, indexErr = entity.NewIndexIvfFlat(entity.COSINE, 128)
		if indexErr != nil {
			return fmt.Errorf("failed to create index: %w", indexErr)
		}
	}

	if err := s.milvusClient.CreateIndex(ctx, s.collection, "vector", index, false); err != nil {
		// 索引创建失败不影响使用，只记录警告
		logger.Warn("failed to create milvus index",
			zap.String("collection", s.collection),
			zap.Error(err))
	}

	if err := s.milvusClient.LoadCollection(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	s.loaded = true
	return nil
}

// Sync 把条目的向量与过滤字段写入Milvus（实现Indexer）
func (s *milvusSearcher) Sync(ctx context.Context, item *models.ContentItem) error {
	if item.Embedding == nil {
		return fmt.Errorf("embedding is empty")
	}
	vector := item.Embedding.Slice()
	if len(vector) != s.vectorSize {
		return fmt.Errorf("vector size mismatch: got %d, want %d", len(vector), s.vectorSize)
	}

	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	// 先删旧记录再插入，等价于upsert
	expr := fmt.Sprintf("content_id == %d", item.ContentID)
	if err := s.milvusClient.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("milvus delete before upsert failed: %w", err)
	}

	idColumn := entity.NewColumnInt64("content_id", []int64{int64(item.ContentID)})
	kindColumn := entity.NewColumnVarChar("kind", []string{item.Kind})
	statusColumn := entity.NewColumnVarChar("status", []string{item.Status})
	visibilityColumn := entity.NewColumnVarChar("visibility", []string{item.Visibility})
	vectorColumn := entity.NewColumnFloatVector("vector", s.vectorSize, [][]float32{vector})

	if _, err := s.milvusClient.Insert(ctx, s.collection, "", idColumn, kindColumn, statusColumn, visibilityColumn, vectorColumn); err != nil {
		return fmt.Errorf("milvus insert failed: %w", err)
	}

	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		logger.Warn("failed to flush milvus collection",
			zap.String("collection", s.collection),
			zap.Error(err))
	}

	return nil
}

// Remove 把下线内容从Milvus移除（实现Indexer）
func (s *milvusSearcher) Remove(ctx context.Context, contentID uint) error {
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	expr := fmt.Sprintf("content_id == %d", contentID)
	if err := s.milvusClient.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("milvus delete failed: %w", err)
	}

	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		logger.Warn("failed to flush milvus collection after delete",
			zap.String("collection", s.collection),
			zap.Error(err))
	}

	return nil
}

// searchExpr 生成近邻检索的标量过滤表达式：
// 排除自身，只允许公开的已发布内容进入候选集
func searchExpr(req NearestRequest) string {
	conditions := []string{
		fmt.Sprintf("content_id != %d", req.ExcludeID),
		fmt.Sprintf("status == %q", models.ContentStatusPublished),
		fmt.Sprintf("visibility == %q", models.VisibilityPublic),
	}
	if req.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind == %q", req.Kind))
	}
	return strings.Join(conditions, " && ")
}

func (s *milvusSearcher) Nearest(ctx context.Context, req NearestRequest) ([]Match, error) {
	if len(req.Vector) == 0 {
		return nil, nil
	}
	if len(req.Vector) != s.vectorSize {
		// 维度不符短路为空结果
		return nil, nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = 3
	}

	metrics.SimilaritySearches.WithLabelValues("milvus").Inc()

	expr := searchExpr(req)

	sp, _ := entity.NewIndexHNSWSearchParam(64)
	queryVector := entity.FloatVector(req.Vector)
	searchResults, err := s.milvusClient.Search(
		ctx,
		s.collection,
		[]string{},
		expr,
		[]string{"content_id"},
		[]entity.Vector{queryVector},
		"vector",
		entity.COSINE,
		req.Limit,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	if len(searchResults) == 0 {
		return []Match{}, nil
	}
	result := searchResults[0]
	if result.Err != nil {
		return nil, fmt.Errorf("milvus search error: %w", result.Err)
	}
	if result.ResultCount == 0 {
		return []Match{}, nil
	}

	var ids []int64
	if idCol, ok := result.IDs.(*entity.ColumnInt64); ok && idCol != nil {
		ids = idCol.Data()
	}

	matches := make([]Match, 0, result.ResultCount)
	for i := 0; i < result.ResultCount && i < len(ids); i++ {
		score := float64(0)
		if i < len(result.Scores) {
			score = float64(result.Scores[i])
		}
		matches = append(matches, Match{
			ContentID: uint(ids[i]),
			Score:     score,
		})
	}

	return matches, nil
}

func (s *milvusSearcher) Ready() bool {
	if s.milvusClient == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.milvusClient.ListCollections(ctx)
	return err == nil
}
