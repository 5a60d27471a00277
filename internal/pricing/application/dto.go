package application

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
)

// PricingResultDTO 对外返回的定价结果，债券不含希腊字母
type PricingResultDTO struct {
	Product      string   `json:"product"`
	Kind         string   `json:"kind"`
	Price        float64  `json:"price"`
	Delta        *float64 `json:"delta,omitempty"`
	Gamma        *float64 `json:"gamma,omitempty"`
	Theta        *float64 `json:"theta,omitempty"`
	Vega         *float64 `json:"vega,omitempty"`
	Rho          *float64 `json:"rho,omitempty"`
	YTM          *float64 `json:"ytm,omitempty"`
	YTMConverged *bool    `json:"ytm_converged,omitempty"`
	PricingModel string   `json:"pricing_model"`
	CalculatedAt int64    `json:"calculated_at"`
}

// ErrorDTO 定价错误
type ErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Product string `json:"product,omitempty"`
	Field   string `json:"field,omitempty"`
}

// BatchPriceItem 批量定价中的单个请求
type BatchPriceItem struct {
	Product string         `json:"product"`
	Kind    string         `json:"kind"`
	Params  map[string]any `json:"params"`
}

// BatchPriceCommand 批量定价命令
type BatchPriceCommand struct {
	BatchID string           `json:"batch_id"`
	Items   []BatchPriceItem `json:"items"`
}

// BatchItemResult 单个请求的结果，Result 与 Error 二者其一
type BatchItemResult struct {
	Index  int               `json:"index"`
	Result *PricingResultDTO `json:"result,omitempty"`
	Error  *ErrorDTO         `json:"error,omitempty"`
}

// BatchPricingResult 批量定价结果
type BatchPricingResult struct {
	BatchID      string            `json:"batch_id"`
	Results      []BatchItemResult `json:"results"`
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
	AverageTime  float64           `json:"average_time_ms"`
}

// toDTO 按精度舍入，precision < 0 时保留原值
// decimal 不能表示非有限值，这类值原样返回
func toDTO(r *domain.PricingResult, precision int32) *PricingResultDTO {
	round := func(v float64) float64 {
		if precision < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return v
		}
		return decimal.NewFromFloat(v).Round(precision).InexactFloat64()
	}
	ptr := func(v float64) *float64 {
		x := round(v)
		return &x
	}

	dto := &PricingResultDTO{
		Product:      string(r.Product),
		Kind:         r.Kind,
		Price:        round(r.Price),
		PricingModel: r.PricingModel,
		CalculatedAt: r.CalculatedAt.UnixMilli(),
	}
	if g := r.Greeks; g != nil {
		dto.Delta = ptr(g.Delta)
		dto.Gamma = ptr(g.Gamma)
		dto.Theta = ptr(g.Theta)
		dto.Vega = ptr(g.Vega)
		dto.Rho = ptr(g.Rho)
	}
	if r.Yield != nil {
		dto.YTM = ptr(*r.Yield)
	}
	if r.YieldOK != nil {
		ok := *r.YieldOK
		dto.YTMConverged = &ok
	}
	return dto
}

// NewErrorDTO 由错误构造，非引擎错误的 code 为 TIMEOUT / CANCELED / INTERNAL
func NewErrorDTO(err error) *ErrorDTO {
	xe := ToXError(err)
	return &ErrorDTO{
		Code:    ErrorCode(xe),
		Message: xe.Message,
		Product: contextString(xe, ContextProduct),
		Field:   contextString(xe, ContextField),
	}
}
