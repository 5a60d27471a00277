package domain

import "time"

const (
	ProductPricedEventType = "ProductPriced"
	PricingFailedEventType = "PricingFailed"
)

// ProductPricedEvent 定价完成事件
type ProductPricedEvent struct {
	RequestID    string        `json:"request_id"`
	Product      ProductFamily `json:"product"`
	Kind         string        `json:"kind"`
	Price        float64       `json:"price"`
	Greeks       *Greeks       `json:"greeks,omitempty"`
	PricingModel string        `json:"pricing_model"`
	DurationMs   int64         `json:"duration_ms"`
	CacheHit     bool          `json:"cache_hit"`
	OccurredOn   time.Time     `json:"occurred_on"`
}

// PricingFailedEvent 定价失败事件
type PricingFailedEvent struct {
	RequestID  string        `json:"request_id"`
	Product    ProductFamily `json:"product"`
	Kind       string        `json:"kind"`
	ErrorCode  string        `json:"error_code"`
	Field      string        `json:"field,omitempty"`
	Error      string        `json:"error"`
	OccurredOn time.Time     `json:"occurred_on"`
}
