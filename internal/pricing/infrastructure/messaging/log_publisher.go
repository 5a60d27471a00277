package messaging

import (
	"context"

	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
	"github.com/wyfcoding/derivpricing/pkg/logger"
)

// LogEventPublisher 未启用 Kafka 时使用，事件只写 debug 日志
type LogEventPublisher struct{}

func (LogEventPublisher) PublishProductPriced(ctx context.Context, event domain.ProductPricedEvent) error {
	logger.Debug(ctx, "event", "type", domain.ProductPricedEventType, "product", event.Product, "kind", event.Kind, "price", event.Price)
	return nil
}

func (LogEventPublisher) PublishPricingFailed(ctx context.Context, event domain.PricingFailedEvent) error {
	logger.Debug(ctx, "event", "type", domain.PricingFailedEventType, "product", event.Product, "kind", event.Kind, "code", event.ErrorCode)
	return nil
}
