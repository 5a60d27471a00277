package domain

import (
	"math"
	"time"
)

// PricingResult 定价结果实体
// 债券只有价格；付息债券附带到期收益率
type PricingResult struct {
	Product      ProductFamily `json:"product"`
	Kind         string        `json:"kind"`
	Price        float64       `json:"price"`
	Greeks       *Greeks       `json:"greeks,omitempty"`
	Yield        *float64      `json:"ytm,omitempty"`
	YieldOK      *bool         `json:"ytm_converged,omitempty"`
	PricingModel string        `json:"pricing_model"`
	CalculatedAt time.Time     `json:"calculated_at"`
}

// NewPricingResult 由价格与希腊字母构造结果
func NewPricingResult(product ProductFamily, kind, model string, price float64, greeks *Greeks) *PricingResult {
	return &PricingResult{
		Product:      product,
		Kind:         kind,
		Price:        price,
		Greeks:       greeks,
		PricingModel: model,
		CalculatedAt: time.Now(),
	}
}

// WithYield 附加到期收益率，非有限值只保留未收敛标记
func (r *PricingResult) WithYield(y YieldResult) *PricingResult {
	ok := y.Converged && isFinite(y.Yield)
	r.YieldOK = &ok
	if isFinite(y.Yield) {
		yield := y.Yield
		r.Yield = &yield
	}
	return r
}

// CheckFinite 价格与希腊字母必须是有限值
// 曲线外推等情形可能得到 ±Inf 或 NaN，视为数值求解失败
func (r *PricingResult) CheckFinite() error {
	if !isFinite(r.Price) {
		return numericFailure(nil, "price is not finite (%v)", r.Price).withField("price")
	}
	if g := r.Greeks; g != nil {
		values := []struct {
			name string
			v    float64
		}{
			{"delta", g.Delta}, {"gamma", g.Gamma}, {"theta", g.Theta}, {"vega", g.Vega}, {"rho", g.Rho},
		}
		for _, x := range values {
			if !isFinite(x.v) {
				return numericFailure(nil, "%s is not finite (%v)", x.name, x.v).withField(x.name)
			}
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
