package models

import (
	"encoding/json"
	"time"

	"github.com/pgvector/pgvector-go"
)

// 内容生命周期状态
const (
	ContentStatusDraft     = "draft"
	ContentStatusPublished = "published"
)

// 内容可见性
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// 内容类型
const (
	ContentKindPost    = "post"
	ContentKindPage    = "page"
	ContentKindProject = "project"
)

// ContentItem 内容条目，嵌入向量与推荐列表直接挂在条目上
type ContentItem struct {
	ContentID   uint   `gorm:"primaryKey;column:content_id" json:"content_id"`
	Kind        string `gorm:"size:20;not null;index" json:"kind"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"size:500" json:"description"`
	Slug        string `gorm:"size:200;not null;uniqueIndex:idx_kind_slug" json:"slug"`
	// Body 富文本树（lexical JSON）
	Body       string `gorm:"type:text" json:"body"`
	Tags       string `gorm:"type:json" json:"tags"` // JSON数组
	AdminNote  string `gorm:"type:text;column:admin_note" json:"admin_note"`
	Status     string `gorm:"size:20;not null;default:draft;index" json:"status"`
	Visibility string `gorm:"size:20;not null;default:public" json:"visibility"`

	// 嵌入向量记录。TextHash为NULL时视为向量缺失/过期，不参与相似度检索。
	Embedding            *pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	EmbeddingModel       string           `gorm:"column:embedding_model;size:100" json:"embedding_model"`
	EmbeddingDims        int              `gorm:"column:embedding_dims;default:0" json:"embedding_dims"`
	EmbeddingGeneratedAt *time.Time       `gorm:"column:embedding_generated_at" json:"embedding_generated_at"`
	TextHash             *string          `gorm:"column:text_hash;size:64" json:"text_hash"`
	// RecommendedIDs 按相似度降序的内容ID快照，JSON数组
	RecommendedIDs string `gorm:"column:recommended_ids;type:json" json:"recommended_ids"`

	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at"`
	CreateTime  time.Time  `gorm:"column:create_time" json:"create_time"`
	UpdateTime  time.Time  `gorm:"column:update_time" json:"update_time"`
}

func (ContentItem) TableName() string {
	return "content_items"
}

// IsPublished 判断条目是否已发布
func (c *ContentItem) IsPublished() bool {
	return c.Status == ContentStatusPublished
}

// HasEmbedding 判断条目是否持有可用向量
func (c *ContentItem) HasEmbedding() bool {
	return c.TextHash != nil && c.Embedding != nil
}

// Recommended 解析推荐ID列表
func (c *ContentItem) Recommended() []uint {
	if c.RecommendedIDs == "" {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(c.RecommendedIDs), &ids); err != nil {
		return nil
	}
	return ids
}

// 管道任务状态
const (
	JobStatusPending      = "pending"
	JobStatusEmbedding    = "embedding"
	JobStatusRecommending = "recommending"
	JobStatusDone         = "done"
	JobStatusSkipped      = "skipped"
	JobStatusFailed       = "failed"
)

// 管道触发原因
const (
	TriggerPublish = "publish"
	TriggerEdit    = "edit"
	TriggerRepair  = "repair"
)

// PipelineJob 管道任务，按内容ID入队，记录每步的重试情况
type PipelineJob struct {
	JobID             uint       `gorm:"primaryKey;column:job_id" json:"job_id"`
	ContentKind       string     `gorm:"column:content_kind;size:20;not null" json:"content_kind"`
	ContentID         uint       `gorm:"column:content_id;not null;index" json:"content_id"`
	Trigger           string     `gorm:"size:20;not null" json:"trigger"`
	Status            string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	EmbedAttempts     int        `gorm:"column:embed_attempts;default:0" json:"embed_attempts"`
	RecommendAttempts int        `gorm:"column:recommend_attempts;default:0" json:"recommend_attempts"`
	SkipReason        string     `gorm:"column:skip_reason;size:50" json:"skip_reason"`
	LastError         string     `gorm:"column:last_error;type:text" json:"last_error"`
	StartedAt         *time.Time `gorm:"column:started_at" json:"started_at"`
	FinishedAt        *time.Time `gorm:"column:finished_at" json:"finished_at"`
	CreateTime        time.Time  `gorm:"column:create_time" json:"create_time"`
	UpdateTime        time.Time  `gorm:"column:update_time" json:"update_time"`
}

func (PipelineJob) TableName() string {
	return "pipeline_jobs"
}
