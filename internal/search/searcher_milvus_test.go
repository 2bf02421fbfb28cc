package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 编译期合同：milvus实现同时承担近邻检索与外部索引同步
var (
	_ Searcher = (*milvusSearcher)(nil)
	_ Indexer  = (*milvusSearcher)(nil)
)

func TestSearchExpr(t *testing.T) {
	expr := searchExpr(NearestRequest{ExcludeID: 7, Kind: "post"})
	assert.Equal(t,
		`content_id != 7 && status == "published" && visibility == "public" && kind == "post"`,
		expr)
}

func TestSearchExpr_NoKind(t *testing.T) {
	expr := searchExpr(NearestRequest{ExcludeID: 7})
	assert.NotContains(t, expr, "kind")
	assert.Contains(t, expr, `status == "published"`)
	assert.Contains(t, expr, `visibility == "public"`)
}
