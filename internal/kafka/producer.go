package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/inkhub/content-go/internal/logger"
	"go.uber.org/zap"
)

// Producer Kafka生产者
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// TriggerMessage 管道触发消息
type TriggerMessage struct {
	ContentKind string    `json:"content_kind"`
	ContentID   uint      `json:"content_id"`
	Trigger     string    `json:"trigger"`
	Timestamp   time.Time `json:"timestamp"`
}

var globalProducer *Producer

// InitProducer 初始化Kafka生产者
func InitProducer(brokers []string, topic string) error {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return fmt.Errorf("创建Kafka生产者失败: %w", err)
	}

	globalProducer = &Producer{
		producer: producer,
		topic:    topic,
	}

	logger.Info("Kafka生产者初始化成功", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return nil
}

// GetProducer 获取全局生产者实例
func GetProducer() *Producer {
	return globalProducer
}

// SendTrigger 发送管道触发消息。消息按 kind:id 作为key，
// 同一条内容的触发落在同一分区，消费端天然串行。
func (p *Producer) SendTrigger(msg *TriggerMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("Kafka生产者未初始化")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%s:%d", msg.ContentKind, msg.ContentID)),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(kafkaMsg)
	if err != nil {
		logger.Error("发送Kafka消息失败", zap.Error(err))
		return fmt.Errorf("发送消息失败: %w", err)
	}

	logger.Debug("pipeline trigger enqueued",
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
		zap.String("kind", msg.ContentKind),
		zap.Uint("content_id", msg.ContentID),
		zap.String("trigger", msg.Trigger))

	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	if p != nil && p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// EnqueuePipeline 发送管道触发（便捷方法）。
// Kafka未配置时静默跳过，不影响内容写入主流程。
func EnqueuePipeline(kind string, contentID uint, trigger string) error {
	producer := GetProducer()
	if producer == nil {
		logger.Warn("Kafka生产者未初始化，跳过管道触发",
			zap.String("kind", kind),
			zap.Uint("content_id", contentID))
		return nil
	}

	return producer.SendTrigger(&TriggerMessage{
		ContentKind: kind,
		ContentID:   contentID,
		Trigger:     trigger,
		Timestamp:   time.Now(),
	})
}
