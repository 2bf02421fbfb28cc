// Package content 实现内容生命周期操作及其外围钩子：
// 提交前的过期标记、提交后的管道入队与缓存失效。
package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/inkhub/content-go/internal/cache"
	apperrors "github.com/inkhub/content-go/internal/errors"
	"github.com/inkhub/content-go/internal/logger"
	"github.com/inkhub/content-go/internal/models"
	"github.com/inkhub/content-go/internal/pipeline"
	"github.com/inkhub/content-go/internal/search"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service 内容服务
type Service struct {
	db          *gorm.DB
	marker      *pipeline.Marker
	coordinator *cache.Coordinator
	enqueue     pipeline.EnqueueFunc
	// indexer 可选，外部ANN索引在内容下线时需要同步移除
	indexer search.Indexer
}

func NewService(db *gorm.DB, marker *pipeline.Marker, coordinator *cache.Coordinator, enqueue pipeline.EnqueueFunc, indexer search.Indexer) *Service {
	return &Service{
		db:          db,
		marker:      marker,
		coordinator: coordinator,
		enqueue:     enqueue,
		indexer:     indexer,
	}
}

// CreateRequest 创建内容请求
type CreateRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=post page project"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=500"`
	Slug        string `json:"slug" validate:"required,max=200"`
	Body        string `json:"body"`
	Tags        string `json:"tags"`
	Status      string `json:"status" validate:"omitempty,oneof=draft published"`
	Visibility  string `json:"visibility" validate:"omitempty,oneof=public private"`
}

var validate = validator.New()

// Create 创建内容条目
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.ContentItem, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid create request")
	}
	if req.Status == "" {
		req.Status = models.ContentStatusDraft
	}
	if req.Visibility == "" {
		req.Visibility = models.VisibilityPublic
	}

	fields := map[string]interface{}{
		"title":       req.Title,
		"description": req.Description,
		"body":        req.Body,
		"tags":        req.Tags,
		"status":      req.Status,
		"visibility":  req.Visibility,
	}

	change := &pipeline.Change{
		Op:     pipeline.OpCreate,
		Kind:   req.Kind,
		Fields: fields,
	}
	marked := s.marker.Apply(ctx, change)

	now := time.Now()
	item := &models.ContentItem{
		Kind:        req.Kind,
		Title:       req.Title,
		Description: req.Description,
		Slug:        req.Slug,
		Body:        req.Body,
		Tags:        req.Tags,
		Status:      req.Status,
		Visibility:  req.Visibility,
		CreateTime:  now,
		UpdateTime:  now,
	}
	if item.IsPublished() {
		item.PublishedAt = &now
	}

	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create content item")
	}

	s.afterWrite(ctx, nil, item, marked)
	return item, nil
}

// Update 更新内容条目。fields是列名到新值的变更集。
// 管道来源的写入跳过全部钩子，这是防递归的关键合同。
func (s *Service) Update(ctx context.Context, kind string, contentID uint, fields map[string]interface{}, autosave bool) (*models.ContentItem, error) {
	var prev models.ContentItem
	err := s.db.WithContext(ctx).
		Where("content_id = ? AND kind = ?", contentID, kind).
		First(&prev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeContentNotFound,
				fmt.Sprintf("content %s/%d not found", kind, contentID), apperrors.ErrorTypeBusiness)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load content item")
	}

	// 复制变更集，派生列不回写调用方的map
	updates := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}

	var marked bool
	if !pipeline.IsPipelineWrite(ctx) {
		change := &pipeline.Change{
			Op:       pipeline.OpUpdate,
			Kind:     kind,
			Autosave: autosave,
			Fields:   updates,
			Prev:     &prev,
		}
		marked = s.marker.Apply(ctx, change)
	}

	updates["update_time"] = time.Now()
	if status, ok := updates["status"].(string); ok {
		if status == models.ContentStatusPublished && prev.Status != models.ContentStatusPublished {
			updates["published_at"] = time.Now()
		}
	}

	err = s.db.WithContext(ctx).
		Model(&models.ContentItem{}).
		Where("content_id = ?", contentID).
		Updates(updates).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to update content item")
	}

	var updated models.ContentItem
	if err := s.db.WithContext(ctx).First(&updated, contentID).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to reload content item")
	}

	if !pipeline.IsPipelineWrite(ctx) && !autosave {
		s.afterWrite(ctx, &prev, &updated, marked)
	}
	return &updated, nil
}

// Publish 发布内容
func (s *Service) Publish(ctx context.Context, kind string, contentID uint) (*models.ContentItem, error) {
	return s.Update(ctx, kind, contentID, map[string]interface{}{
		"status": models.ContentStatusPublished,
	}, false)
}

// Unpublish 取消发布
func (s *Service) Unpublish(ctx context.Context, kind string, contentID uint) (*models.ContentItem, error) {
	return s.Update(ctx, kind, contentID, map[string]interface{}{
		"status": models.ContentStatusDraft,
	}, false)
}

// Delete 删除内容。失效目标（slug）必须在行消失前捕获。
func (s *Service) Delete(ctx context.Context, kind string, contentID uint) error {
	var prev models.ContentItem
	err := s.db.WithContext(ctx).
		Where("content_id = ? AND kind = ?", contentID, kind).
		First(&prev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.ErrCodeContentNotFound,
				fmt.Sprintf("content %s/%d not found", kind, contentID), apperrors.ErrorTypeBusiness)
		}
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load content item")
	}

	if err := s.db.WithContext(ctx).Delete(&models.ContentItem{}, contentID).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to delete content item")
	}

	if prev.IsPublished() {
		s.coordinator.OnTransition(ctx, cache.Event{
			Kind:       prev.Kind,
			Slug:       prev.Slug,
			Transition: cache.TransitionDelete,
		})
		s.removeFromIndex(ctx, prev.ContentID)
	}
	return nil
}

// Recommended 读取一条内容的推荐列表。只消费预计算快照，
// 再按当前状态过滤掉已下线的条目，请求路径上没有相似度计算。
func (s *Service) Recommended(ctx context.Context, kind string, contentID uint) ([]models.ContentItem, error) {
	var item models.ContentItem
	err := s.db.WithContext(ctx).
		Where("content_id = ? AND kind = ?", contentID, kind).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeContentNotFound,
				fmt.Sprintf("content %s/%d not found", kind, contentID), apperrors.ErrorTypeBusiness)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load content item")
	}

	ids := item.Recommended()
	if len(ids) == 0 {
		return nil, nil
	}

	var items []models.ContentItem
	err = s.db.WithContext(ctx).
		Where("content_id IN ?", ids).
		Where("status = ?", models.ContentStatusPublished).
		Where("visibility = ?", models.VisibilityPublic).
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load recommendations")
	}

	// 保持快照顺序
	byID := make(map[uint]models.ContentItem, len(items))
	for _, it := range items {
		byID[it.ContentID] = it
	}
	ordered := make([]models.ContentItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			ordered = append(ordered, it)
		}
	}
	return ordered, nil
}

// afterWrite 提交后钩子：缓存协调与管道入队
func (s *Service) afterWrite(ctx context.Context, prev *models.ContentItem, current *models.ContentItem, marked bool) {
	transition, ok := detectTransition(prev, current.Status)
	if ok {
		s.coordinator.OnTransition(ctx, cache.Event{
			Kind:       current.Kind,
			Slug:       current.Slug,
			Transition: transition,
		})

		if transition == cache.TransitionUnpublish {
			s.removeFromIndex(ctx, current.ContentID)
		}
	}

	// 只有被标记过期的已发布内容才入队；
	// 未触及白名单字段的编辑不产生任何管道工作
	if marked && current.IsPublished() {
		trigger := models.TriggerEdit
		if transition == cache.TransitionPublish {
			trigger = models.TriggerPublish
		}
		if err := s.enqueue(current.Kind, current.ContentID, trigger); err != nil {
			logger.Error("failed to enqueue pipeline trigger",
				zap.String("kind", current.Kind),
				zap.Uint("content_id", current.ContentID),
				zap.Error(err))
		}
	}
}

func (s *Service) removeFromIndex(ctx context.Context, contentID uint) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Remove(ctx, contentID); err != nil {
		logger.Warn("failed to remove content from external index",
			zap.Uint("content_id", contentID),
			zap.Error(err))
	}
}
