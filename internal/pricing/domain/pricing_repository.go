package domain

import (
	"context"
	"time"
)

// ResultCache 定价结果缓存，key 由请求内容决定
// Get 未命中时返回 (nil, nil)
type ResultCache interface {
	Get(ctx context.Context, key string) (*PricingResult, error)
	Set(ctx context.Context, key string, result *PricingResult, ttl time.Duration) error
}
