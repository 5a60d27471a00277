package application

import (
	"context"
	"sync"
	"time"

	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
)

type memCache struct {
	mu    sync.Mutex
	items map[string]*domain.PricingResult
	gets  int
	hits  int
}

func newMemCache() *memCache {
	return &memCache{items: map[string]*domain.PricingResult{}}
}

func (c *memCache) Get(_ context.Context, key string) (*domain.PricingResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	r, ok := c.items[key]
	if !ok {
		return nil, nil
	}
	c.hits++
	return r, nil
}

func (c *memCache) Set(_ context.Context, key string, r *domain.PricingResult, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = r
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	priced []domain.ProductPricedEvent
	failed []domain.PricingFailedEvent
}

func (p *recordingPublisher) PublishProductPriced(_ context.Context, ev domain.ProductPricedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.priced = append(p.priced, ev)
	return nil
}

func (p *recordingPublisher) PublishPricingFailed(_ context.Context, ev domain.PricingFailedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, ev)
	return nil
}

func f64(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

func flatMarket(spot, maturity, rate, vol float64) MarketInput {
	return MarketInput{
		MaturityInput: MaturityInput{Maturity: f64(maturity)},
		RateInput:     RateInput{Rate: f64(rate)},
		SpotPrice:     spot,
		Volatility:    f64(vol),
	}
}

func near(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
