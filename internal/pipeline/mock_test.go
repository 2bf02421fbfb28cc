package pipeline

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inkhub/content-go/internal/embedding"
	"github.com/inkhub/content-go/internal/search"
)

// newMockDB 创建基于sqlmock的gorm连接。
// 关闭默认事务，SQL期望用正则匹配。
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

// fakeEmbedder 可编程的向量化桩
type fakeEmbedder struct {
	calls  int
	result embedding.Result
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) (embedding.Result, error) {
	f.calls++
	if f.err != nil {
		return embedding.Result{}, f.err
	}
	return f.result, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.result.Dimensions }

func (f *fakeEmbedder) Ready() bool { return true }

// fakeSearcher 可编程的检索桩
type fakeSearcher struct {
	calls   int
	lastReq search.NearestRequest
	matches []search.Match
	err     error
}

func (f *fakeSearcher) Nearest(ctx context.Context, req search.NearestRequest) ([]search.Match, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func (f *fakeSearcher) Ready() bool { return true }
