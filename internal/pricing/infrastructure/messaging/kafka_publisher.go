package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
)

// messageSender 由 pkg/mq.KafkaProducer 实现
type messageSender interface {
	SendMessage(ctx context.Context, topic string, key string, value any) error
}

// EventEnvelope 事件信封
type EventEnvelope struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Payload    any       `json:"payload"`
	OccurredOn time.Time `json:"occurred_on"`
}

// KafkaEventPublisher 把领域事件写入 Kafka，消息 key 为 product/kind
type KafkaEventPublisher struct {
	sender messageSender
	topic  string
}

// NewKafkaEventPublisher 创建新的 KafkaEventPublisher 实例
func NewKafkaEventPublisher(sender messageSender, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{sender: sender, topic: topic}
}

// PublishProductPriced 发布定价完成事件
func (p *KafkaEventPublisher) PublishProductPriced(ctx context.Context, event domain.ProductPricedEvent) error {
	return p.publish(ctx, domain.ProductPricedEventType, messageKey(event.Product, event.Kind), event, event.OccurredOn)
}

// PublishPricingFailed 发布定价失败事件
func (p *KafkaEventPublisher) PublishPricingFailed(ctx context.Context, event domain.PricingFailedEvent) error {
	return p.publish(ctx, domain.PricingFailedEventType, messageKey(event.Product, event.Kind), event, event.OccurredOn)
}

func (p *KafkaEventPublisher) publish(ctx context.Context, eventType, key string, payload any, at time.Time) error {
	envelope := EventEnvelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		Payload:    payload,
		OccurredOn: at,
	}
	return p.sender.SendMessage(ctx, p.topic, key, envelope)
}

func messageKey(product domain.ProductFamily, kind string) string {
	if kind == "" {
		return string(product)
	}
	return string(product) + "/" + kind
}
