package pipeline

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/inkhub/content-go/internal/errors"
	"github.com/inkhub/content-go/internal/logger"
	"github.com/inkhub/content-go/internal/metrics"
	"github.com/inkhub/content-go/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Workflow 管道工作流：EmbeddingStep -> (Skipped | RecommendationStep) -> Done。
// 按内容ID入队，重复入队是安全的——生成步骤的哈希对比
// 会把重叠触发吸收成跳过。每步有独立的重试预算。
type Workflow struct {
	db               *gorm.DB
	generator        *Generator
	precomputer      *Precomputer
	embedRetries     int
	recommendRetries int
}

func NewWorkflow(db *gorm.DB, generator *Generator, precomputer *Precomputer, embedRetries, recommendRetries int) *Workflow {
	if embedRetries < 0 {
		embedRetries = 2
	}
	if recommendRetries < 0 {
		recommendRetries = 2
	}
	return &Workflow{
		db:               db,
		generator:        generator,
		precomputer:      precomputer,
		embedRetries:     embedRetries,
		recommendRetries: recommendRetries,
	}
}

// Run 执行一次完整的工作流。任务状态持久化在pipeline_jobs表，
// worker重启后失败任务可追溯。
func (w *Workflow) Run(ctx context.Context, kind string, contentID uint, trigger string) error {
	now := time.Now()
	job := &models.PipelineJob{
		ContentKind: kind,
		ContentID:   contentID,
		Trigger:     trigger,
		Status:      models.JobStatusPending,
		StartedAt:   &now,
		CreateTime:  now,
		UpdateTime:  now,
	}
	if err := w.db.WithContext(ctx).Create(job).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create pipeline job")
	}

	// 向量生成步骤
	w.setStatus(ctx, job, models.JobStatusEmbedding)

	result, attempts, err := w.runStep(ctx, w.embedRetries, func(ctx context.Context) (StepResult, error) {
		return w.generator.Generate(ctx, kind, contentID)
	})
	job.EmbedAttempts = attempts
	if err != nil {
		w.fail(ctx, job, "embed", err)
		return err
	}

	if result.Outcome == OutcomeSkipped {
		// 短路终止是成功路径，不是失败
		job.SkipReason = result.SkipReason
		w.finish(ctx, job, models.JobStatusSkipped)
		logger.Debug("workflow short-circuited",
			zap.String("kind", kind),
			zap.Uint("content_id", contentID),
			zap.String("reason", result.SkipReason))
		return nil
	}

	// 推荐预计算步骤。失败不回滚已写入的向量。
	w.setStatus(ctx, job, models.JobStatusRecommending)

	_, attempts, err = w.runStep(ctx, w.recommendRetries, func(ctx context.Context) (StepResult, error) {
		return w.precomputer.Compute(ctx, kind, contentID)
	})
	job.RecommendAttempts = attempts
	if err != nil {
		w.fail(ctx, job, "recommend", err)
		return err
	}

	w.finish(ctx, job, models.JobStatusDone)
	return nil
}

// runStep 带重试预算执行一个步骤。只有瞬时故障消耗重试，
// 业务上的"不适用"直接返回跳过结果。
func (w *Workflow) runStep(ctx context.Context, retries int, step func(context.Context) (StepResult, error)) (StepResult, int, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= retries; attempt++ {
		attempts++
		result, err := step(ctx)
		if err == nil {
			return result, attempts, nil
		}
		lastErr = err

		if !apperrors.IsRetryable(err) {
			break
		}
		if attempt < retries {
			select {
			case <-ctx.Done():
				return StepResult{}, attempts, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}

	return StepResult{}, attempts, lastErr
}

func (w *Workflow) setStatus(ctx context.Context, job *models.PipelineJob, status string) {
	job.Status = status
	job.UpdateTime = time.Now()
	if err := w.db.WithContext(ctx).Save(job).Error; err != nil {
		logger.Warn("failed to update pipeline job status", zap.Uint("job_id", job.JobID), zap.Error(err))
	}
}

func (w *Workflow) finish(ctx context.Context, job *models.PipelineJob, status string) {
	now := time.Now()
	job.Status = status
	job.FinishedAt = &now
	job.UpdateTime = now
	if err := w.db.WithContext(ctx).Save(job).Error; err != nil {
		logger.Warn("failed to finish pipeline job", zap.Uint("job_id", job.JobID), zap.Error(err))
	}
}

func (w *Workflow) fail(ctx context.Context, job *models.PipelineJob, step string, cause error) {
	metrics.WorkflowsFailed.WithLabelValues(step).Inc()
	job.LastError = fmt.Sprintf("%s: %v", step, cause)
	w.finish(ctx, job, models.JobStatusFailed)
	logger.Error("pipeline workflow failed",
		zap.String("step", step),
		zap.String("kind", job.ContentKind),
		zap.Uint("content_id", job.ContentID),
		zap.Error(cause))
}
