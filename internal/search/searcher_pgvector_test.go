package search

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkhub/content-go/internal/models"
)

// TestPgVectorSearcher_Nearest 下推实现：距离排序、可见性过滤与自身排除全部在SQL层
func TestPgVectorSearcher_Nearest(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"content_id", "score"}).
		AddRow(3, 0.92).
		AddRow(4, 0.57)
	mock.ExpectQuery(`SELECT content_id, 1 - \(embedding <=> \$1\) AS score FROM "content_items" WHERE status = \$2 AND visibility = \$3 AND text_hash IS NOT NULL AND embedding IS NOT NULL AND embedding_dims = \$4 AND content_id <> \$5 AND kind = \$6 ORDER BY embedding <=> \$7, content_id ASC`).
		WithArgs("[1,0,0]", models.ContentStatusPublished, models.VisibilityPublic, 3, 1, "post", "[1,0,0]", 2).
		WillReturnRows(rows)

	s := NewPgVectorSearcher(db)
	matches, err := s.Nearest(context.Background(), NearestRequest{
		Vector:    []float32{1, 0, 0},
		ExcludeID: 1,
		Kind:      "post",
		Limit:     2,
	})
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, uint(3), matches[0].ContentID)
	assert.InDelta(t, 0.92, matches[0].Score, 1e-9)
	assert.Equal(t, uint(4), matches[1].ContentID)
}

// TestPgVectorSearcher_EmptyVector 空查询向量返回空结果而非错误
func TestPgVectorSearcher_EmptyVector(t *testing.T) {
	db, _ := newMockDB(t)

	s := NewPgVectorSearcher(db)
	matches, err := s.Nearest(context.Background(), NearestRequest{Vector: nil, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, matches)
}
