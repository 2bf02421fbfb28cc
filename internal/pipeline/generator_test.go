package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkhub/content-go/internal/embedding"
	apperrors "github.com/inkhub/content-go/internal/errors"
	"github.com/inkhub/content-go/internal/lexical"
	"github.com/inkhub/content-go/internal/models"
)

const testBody = `{"root":{"children":[{"children":[{"text":"hello"},{"text":"world"}]}]}}`

func contentColumns() []string {
	return []string{"content_id", "kind", "title", "body", "status", "visibility", "text_hash", "embedding_dims"}
}

func expectItemQuery(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT \* FROM "content_items"`).WillReturnRows(rows)
}

// TestGenerator_Generate 正常路径：提取、向量化、落库
func TestGenerator_Generate(t *testing.T) {
	db, mock := newMockDB(t)

	staleHash := "0000000000000000000000000000000000000000000000000000000000000000"
	rows := sqlmock.NewRows(contentColumns()).
		AddRow(1, models.ContentKindPost, "标题", testBody, models.ContentStatusPublished, models.VisibilityPublic, staleHash, 0)
	expectItemQuery(mock, rows)
	mock.ExpectExec(`UPDATE "content_items" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	embedder := &fakeEmbedder{result: fakeResult()}
	gen := NewGenerator(db, embedder, nil, 0)

	result, err := gen.Generate(context.Background(), models.ContentKindPost, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDone, result.Outcome)
	assert.Equal(t, 1, embedder.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestGenerator_HashCurrent 文本没变时短路跳过，不调外部服务
func TestGenerator_HashCurrent(t *testing.T) {
	db, mock := newMockDB(t)

	currentHash := lexical.HashText(lexical.ExtractFromJSON(testBody))
	rows := sqlmock.NewRows(contentColumns()).
		AddRow(1, models.ContentKindPost, "标题", testBody, models.ContentStatusPublished, models.VisibilityPublic, currentHash, 1536)
	expectItemQuery(mock, rows)

	embedder := &fakeEmbedder{result: fakeResult()}
	gen := NewGenerator(db, embedder, nil, 0)

	result, err := gen.Generate(context.Background(), models.ContentKindPost, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, result.Outcome)
	assert.Equal(t, SkipHashCurrent, result.SkipReason)
	assert.Zero(t, embedder.calls, "哈希一致时不应产生外部调用")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestGenerator_SkipGates 各种不适用情况返回跳过而非错误
func TestGenerator_SkipGates(t *testing.T) {
	cases := []struct {
		name   string
		rows   func() *sqlmock.Rows
		reason string
	}{
		{
			name:   "not_found",
			rows:   func() *sqlmock.Rows { return sqlmock.NewRows(contentColumns()) },
			reason: SkipNotFound,
		},
		{
			name: "not_published",
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows(contentColumns()).
					AddRow(1, models.ContentKindPost, "t", testBody, models.ContentStatusDraft, models.VisibilityPublic, nil, 0)
			},
			reason: SkipNotPublished,
		},
		{
			name: "no_body",
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows(contentColumns()).
					AddRow(1, models.ContentKindPost, "t", "", models.ContentStatusPublished, models.VisibilityPublic, nil, 0)
			},
			reason: SkipNoBody,
		},
		{
			name: "no_text",
			rows: func() *sqlmock.Rows {
				return sqlmock.NewRows(contentColumns()).
					AddRow(1, models.ContentKindPost, "t", `{"root":{"children":[]}}`, models.ContentStatusPublished, models.VisibilityPublic, nil, 0)
			},
			reason: SkipNoText,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			expectItemQuery(mock, tc.rows())

			embedder := &fakeEmbedder{result: fakeResult()}
			gen := NewGenerator(db, embedder, nil, 0)

			result, err := gen.Generate(context.Background(), models.ContentKindPost, 1)
			require.NoError(t, err)
			assert.Equal(t, OutcomeSkipped, result.Outcome)
			assert.Equal(t, tc.reason, result.SkipReason)
			assert.Zero(t, embedder.calls)
		})
	}
}

// TestGenerator_EmbedFailure 外部调用失败按可重试错误上抛
func TestGenerator_EmbedFailure(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows(contentColumns()).
		AddRow(1, models.ContentKindPost, "t", testBody, models.ContentStatusPublished, models.VisibilityPublic, nil, 0)
	expectItemQuery(mock, rows)

	embedder := &fakeEmbedder{err: errors.New("rate limited")}
	gen := NewGenerator(db, embedder, nil, 0)

	_, err := gen.Generate(context.Background(), models.ContentKindPost, 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
}

func fakeResult() embedding.Result {
	return embedding.Result{
		Vector:     []float32{0.1, 0.2, 0.3},
		Model:      "text-embedding-3-small",
		Dimensions: 3,
	}
}
