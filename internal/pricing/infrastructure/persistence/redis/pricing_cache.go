package redis

import (
	"context"
	"time"

	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
)

const (
	resultPrefix = "pricing_result:"
	defaultTTL   = 15 * time.Minute
)

// jsonStore 以 JSON 存取的 KV 存储，由 pkg/cache.RedisCache 实现
type jsonStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error
}

// PricingResultCache 定价结果缓存
type PricingResultCache struct {
	store  jsonStore
	prefix string
}

// NewPricingResultCache 构造函数
func NewPricingResultCache(store jsonStore) *PricingResultCache {
	return &PricingResultCache{store: store, prefix: resultPrefix}
}

// Get 未命中返回 (nil, nil)
func (c *PricingResultCache) Get(ctx context.Context, key string) (*domain.PricingResult, error) {
	if key == "" {
		return nil, nil
	}
	var result domain.PricingResult
	found, err := c.store.GetJSON(ctx, c.prefix+key, &result)
	if err != nil || !found {
		return nil, err
	}
	return &result, nil
}

// Set 写入结果，ttl <= 0 时使用默认有效期
func (c *PricingResultCache) Set(ctx context.Context, key string, result *domain.PricingResult, ttl time.Duration) error {
	if key == "" || result == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return c.store.SetJSON(ctx, c.prefix+key, result, ttl)
}
