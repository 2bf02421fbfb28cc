package pipeline

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/inkhub/content-go/internal/kafka"
	"github.com/inkhub/content-go/internal/logger"
	"go.uber.org/zap"
)

// Runner 消费管道触发消息并驱动工作流。
// 不同内容的工作流相互独立并行；同一内容的重叠触发
// 由生成步骤的哈希对比自然吸收。
type Runner struct {
	workflow *Workflow
	topic    string
}

func NewRunner(workflow *Workflow, topic string) *Runner {
	return &Runner{
		workflow: workflow,
		topic:    topic,
	}
}

// Register 把工作流挂到消费者上
func (r *Runner) Register(consumer *kafka.Consumer) {
	consumer.RegisterHandler(r.topic, r.handle)
}

func (r *Runner) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	msg, err := kafka.ParseTriggerMessage(message.Value)
	if err != nil {
		// 消息格式损坏，丢弃而不是无限重试
		logger.Error("丢弃无法解析的管道触发消息", zap.Error(err))
		return nil
	}

	logger.Info("pipeline trigger received",
		zap.String("kind", msg.ContentKind),
		zap.Uint("content_id", msg.ContentID),
		zap.String("trigger", msg.Trigger))

	// 工作流内部处理重试与失败记录，这里不再向上抛
	if err := r.workflow.Run(ctx, msg.ContentKind, msg.ContentID, msg.Trigger); err != nil {
		logger.Debug("workflow finished with error", zap.Error(err))
	}
	return nil
}
