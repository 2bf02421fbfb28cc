package pipeline

import (
	"context"

	"github.com/inkhub/content-go/internal/logger"
	"github.com/inkhub/content-go/internal/models"
	"go.uber.org/zap"
)

// Op 内容变更操作类型
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change 一次内容变更的提交前视图。
// Fields是即将落库的变更集（列名 -> 新值），Prev是变更前的持久化文档。
type Change struct {
	Op       Op
	Kind     string
	Autosave bool
	Fields   map[string]interface{}
	Prev     *models.ContentItem
}

// trackedFields 各内容类型的语义相关字段白名单。
// 只有这些字段的变更会使向量过期；管理备注之类的内部字段不在其列。
var trackedFields = map[string][]string{
	models.ContentKindPost:    {"title", "description", "body", "tags"},
	models.ContentKindPage:    {"title", "description", "body"},
	models.ContentKindProject: {"title", "description", "body", "tags"},
}

// visibilityKinds 需要检查可见性的内容类型
var visibilityKinds = map[string]bool{
	models.ContentKindProject: true,
}

// Marker 过期标记器。在内容提交前决定是否把text_hash置空，
// 让下游知道向量需要重算。这里只做标记，不算哈希——
// 连续编辑只在管道真正跑起来时付一次向量化成本。
type Marker struct{}

func NewMarker() *Marker {
	return &Marker{}
}

// Apply 按规则决定是否在变更集上清空text_hash，返回是否标记了过期。
func (m *Marker) Apply(ctx context.Context, ch *Change) bool {
	if ch == nil || ch.Fields == nil {
		return false
	}

	// 管道写入、自动保存、非增改操作一律跳过
	if IsPipelineWrite(ctx) {
		return false
	}
	if ch.Autosave {
		return false
	}
	if ch.Op != OpCreate && ch.Op != OpUpdate {
		return false
	}

	// 生效状态/可见性：变更集没碰的字段回退到原文档
	status := effectiveString(ch, "status")
	if status != models.ContentStatusPublished {
		return false
	}
	if visibilityKinds[ch.Kind] {
		if effectiveString(ch, "visibility") != models.VisibilityPublic {
			return false
		}
	}

	if !m.shouldMark(ch) {
		return false
	}

	ch.Fields["text_hash"] = nil
	logger.Debug("marked embedding stale",
		zap.String("kind", ch.Kind),
		zap.String("op", string(ch.Op)))
	return true
}

// shouldMark 创建、首次发布、或白名单字段被修改时需要标记
func (m *Marker) shouldMark(ch *Change) bool {
	if ch.Op == OpCreate {
		return true
	}

	// 首次成为已发布
	wasPublished := ch.Prev != nil && ch.Prev.Status == models.ContentStatusPublished
	if !wasPublished {
		return true
	}

	for _, field := range trackedFields[ch.Kind] {
		if _, touched := ch.Fields[field]; touched {
			return true
		}
	}
	return false
}

func effectiveString(ch *Change, field string) string {
	if v, ok := ch.Fields[field]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	if ch.Prev == nil {
		return ""
	}
	switch field {
	case "status":
		return ch.Prev.Status
	case "visibility":
		return ch.Prev.Visibility
	}
	return ""
}

// TrackedFields 返回某内容类型的白名单（测试与文档用途）
func TrackedFields(kind string) []string {
	return trackedFields[kind]
}
