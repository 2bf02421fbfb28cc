// Package pipeline 实现内容的向量化与推荐预计算管道。
package pipeline

import "context"

// WriteOrigin 标识一次内容写入的来源。
// 管道自身的写入（向量、推荐列表）必须携带OriginPipeline，
// 响应式钩子检查到该标记时直接跳过，否则写入向量会被当成
// "内容变更"再次触发向量化，形成死循环。
type WriteOrigin string

const (
	// OriginUser 终端用户/编辑发起的写入
	OriginUser WriteOrigin = "user"
	// OriginPipeline 管道内部发起的写入
	OriginPipeline WriteOrigin = "pipeline"
)

type originKey struct{}

// WithOrigin 在context上标记写入来源
func WithOrigin(ctx context.Context, origin WriteOrigin) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFrom 读取写入来源，未标记时视为用户写入
func OriginFrom(ctx context.Context) WriteOrigin {
	if origin, ok := ctx.Value(originKey{}).(WriteOrigin); ok {
		return origin
	}
	return OriginUser
}

// IsPipelineWrite 判断当前写入是否由管道发起
func IsPipelineWrite(ctx context.Context) bool {
	return OriginFrom(ctx) == OriginPipeline
}
