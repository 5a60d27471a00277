package domain

import "context"

// EventPublisher 事件发布者接口
type EventPublisher interface {
	// PublishProductPriced 发布定价完成事件
	PublishProductPriced(ctx context.Context, event ProductPricedEvent) error

	// PublishPricingFailed 发布定价失败事件
	PublishPricingFailed(ctx context.Context, event PricingFailedEvent) error
}
