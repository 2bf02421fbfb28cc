package pipeline

import (
	"context"
	"time"

	"github.com/inkhub/content-go/internal/logger"
	"github.com/inkhub/content-go/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnqueueFunc 管道触发入队函数
type EnqueueFunc func(kind string, contentID uint, trigger string) error

// Janitor 定期兜底：已发布但text_hash为空的条目说明
// 标记和入队之间出过岔子（进程崩溃、Kafka不可用），重新补一次触发。
type Janitor struct {
	db       *gorm.DB
	enqueue  EnqueueFunc
	interval time.Duration
	// minAge 只处理标记后超过该时长仍未处理的条目，避免和在途工作流抢活
	minAge time.Duration
	stop   chan struct{}
}

func NewJanitor(db *gorm.DB, enqueue EnqueueFunc, interval time.Duration) *Janitor {
	if interval == 0 {
		interval = 10 * time.Minute
	}
	return &Janitor{
		db:       db,
		enqueue:  enqueue,
		interval: interval,
		minAge:   5 * time.Minute,
		stop:     make(chan struct{}),
	}
}

// Start 启动定期扫描
func (j *Janitor) Start() {
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-j.stop:
				return
			case <-ticker.C:
				if err := j.sweep(context.Background()); err != nil {
					logger.Warn("janitor sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop 停止扫描
func (j *Janitor) Stop() {
	close(j.stop)
}

func (j *Janitor) sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-j.minAge)

	var items []models.ContentItem
	err := j.db.WithContext(ctx).
		Select("content_id, kind").
		Where("status = ?", models.ContentStatusPublished).
		Where("text_hash IS NULL").
		Where("update_time < ?", cutoff).
		Limit(100).
		Find(&items).Error
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := j.enqueue(item.Kind, item.ContentID, models.TriggerRepair); err != nil {
			logger.Warn("failed to enqueue repair trigger",
				zap.Uint("content_id", item.ContentID),
				zap.Error(err))
		}
	}

	if len(items) > 0 {
		logger.Info("janitor re-enqueued stale items", zap.Int("count", len(items)))
	}
	return nil
}
