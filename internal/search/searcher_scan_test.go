package search

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inkhub/content-go/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return gdb, mock
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}

	// 同向为1，正交为0，反向为-1
	assert.InDelta(t, 1.0, cosineSimilarity(a, []float32{2, 0, 0}, vectorNorm(a)), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity(a, []float32{0, 1, 0}, vectorNorm(a)), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity(a, []float32{-1, 0, 0}, vectorNorm(a)), 1e-9)

	// 维度不符与零向量归约为0
	assert.Zero(t, cosineSimilarity(a, []float32{1, 0}, vectorNorm(a)))
	assert.Zero(t, cosineSimilarity(a, []float32{0, 0, 0}, vectorNorm(a)))
}

// TestScanSearcher_Nearest 进程内扫描：排序、截断、维度过滤
func TestScanSearcher_Nearest(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"content_id", "embedding"}).
		AddRow(2, "[0,1,0]").    // 正交，得分0
		AddRow(3, "[1,0,0]").    // 同向，得分1
		AddRow(4, "[1,1,0]").    // 斜向
		AddRow(5, "[0.5,0.5]").  // 维度不符，被跳过
		AddRow(6, nil)           // 向量缺失，被跳过
	// 候选集必须在SQL层排除草稿、私有与无向量的条目
	mock.ExpectQuery(`SELECT content_id, embedding FROM "content_items" WHERE status = \$1 AND visibility = \$2 AND text_hash IS NOT NULL AND embedding IS NOT NULL AND embedding_dims = \$3 AND content_id <> \$4 AND kind = \$5`).
		WithArgs(models.ContentStatusPublished, models.VisibilityPublic, 3, 1, "post", 100).
		WillReturnRows(rows)

	s := NewScanSearcher(db, 100)
	matches, err := s.Nearest(context.Background(), NearestRequest{
		Vector:    []float32{1, 0, 0},
		ExcludeID: 1,
		Kind:      "post",
		Limit:     2,
	})
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, uint(3), matches[0].ContentID)
	assert.Equal(t, uint(4), matches[1].ContentID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

// TestScanSearcher_EmptyVector 空查询向量返回空结果而非错误
func TestScanSearcher_EmptyVector(t *testing.T) {
	db, _ := newMockDB(t)

	s := NewScanSearcher(db, 100)
	matches, err := s.Nearest(context.Background(), NearestRequest{Vector: nil, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

// TestScanSearcher_TieBreak 相同得分按ID升序保证确定性
func TestScanSearcher_TieBreak(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"content_id", "embedding"}).
		AddRow(9, "[1,0,0]").
		AddRow(4, "[1,0,0]").
		AddRow(7, "[1,0,0]")
	mock.ExpectQuery(`SELECT content_id, embedding FROM "content_items"`).WillReturnRows(rows)

	s := NewScanSearcher(db, 100)
	matches, err := s.Nearest(context.Background(), NearestRequest{
		Vector: []float32{1, 0, 0},
		Limit:  3,
	})
	require.NoError(t, err)

	require.Len(t, matches, 3)
	assert.Equal(t, uint(4), matches[0].ContentID)
	assert.Equal(t, uint(7), matches[1].ContentID)
	assert.Equal(t, uint(9), matches[2].ContentID)
}
