package domain

import (
	"context"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "call" // 看涨期权
	OptionTypePut  OptionType = "put"  // 看跌期权
)

// ParseOptionType 解析期权类型，大小写不敏感
func ParseOptionType(s string) (OptionType, error) {
	switch OptionType(strings.ToLower(strings.TrimSpace(s))) {
	case OptionTypeCall:
		return OptionTypeCall, nil
	case OptionTypePut:
		return OptionTypePut, nil
	default:
		return "", unsupportedVariant("option_type", s)
	}
}

// Greeks 希腊字母
// Vega 与 Rho 按每 1 个百分点计，Theta 为年化值
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Add 逐项相加
func (g Greeks) Add(o Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + o.Delta,
		Gamma: g.Gamma + o.Gamma,
		Theta: g.Theta + o.Theta,
		Vega:  g.Vega + o.Vega,
		Rho:   g.Rho + o.Rho,
	}
}

// Scale 逐项乘以 w
func (g Greeks) Scale(w float64) Greeks {
	return Greeks{
		Delta: g.Delta * w,
		Gamma: g.Gamma * w,
		Theta: g.Theta * w,
		Vega:  g.Vega * w,
		Rho:   g.Rho * w,
	}
}

// Instrument 可定价产品
type Instrument interface {
	Price(ctx context.Context) (float64, error)
	Greeks(ctx context.Context) (Greeks, error)
}

// Market 单一标的的市场环境
// ForeignRate 非空时替代 Dividend 作为持有成本
type Market struct {
	Spot        float64
	Maturity    Maturity
	Rate        Rate
	Volatility  Volatility
	Dividend    float64
	ForeignRate *Rate
}

// Validate 校验市场参数
func (m Market) Validate() error {
	if !(m.Spot > 0) {
		return invalidInput("spot_price", "spot must be positive, got %g", m.Spot)
	}
	if !(m.Maturity.Years() > 0) {
		return invalidInput("maturity", "maturity must be positive")
	}
	if m.Dividend < 0 {
		return invalidInput("dividend", "dividend must not be negative, got %g", m.Dividend)
	}
	return nil
}

// Carry 红利率或外币利率
func (m Market) Carry() (float64, error) {
	if m.ForeignRate != nil {
		mat := m.Maturity
		return m.ForeignRate.Value(&mat)
	}
	return m.Dividend, nil
}

// DomesticRate 本币利率
func (m Market) DomesticRate() (float64, error) {
	mat := m.Maturity
	return m.Rate.Value(&mat)
}

// VolatilityAt 按行权价查询波动率，moneyness = strike/spot
func (m Market) VolatilityAt(strike float64) (float64, error) {
	k := strike / m.Spot
	t := m.Maturity.Years()
	v, err := m.Volatility.Value(&k, &t)
	if err != nil {
		return 0, err
	}
	if !(v > 0) {
		return 0, invalidInput("volatility", "volatility at moneyness %g is not positive (%g)", k, v)
	}
	return v, nil
}

// WithSpot 返回替换现价的副本
func (m Market) WithSpot(spot float64) Market {
	m.Spot = spot
	return m
}

// WithVolatilityShift 返回波动率平移后的副本
func (m Market) WithVolatilityShift(h float64) Market {
	m.Volatility = m.Volatility.Shift(h)
	return m
}

// WithRateShift 返回本币利率平移后的副本
func (m Market) WithRateShift(h float64) Market {
	m.Rate = m.Rate.Shift(h)
	return m
}

// WithMaturity 返回替换期限的副本
func (m Market) WithMaturity(mat Maturity) Market {
	m.Maturity = mat
	return m
}

// OptionSpec 期权公共参数
type OptionSpec struct {
	Market
	Strike float64
	Type   OptionType
}

// Validate 校验期权参数
func (o OptionSpec) Validate() error {
	if err := o.Market.Validate(); err != nil {
		return err
	}
	if !(o.Strike > 0) {
		return invalidInput("strike_price", "strike must be positive, got %g", o.Strike)
	}
	if o.Type != OptionTypeCall && o.Type != OptionTypePut {
		return unsupportedVariant("option_type", string(o.Type))
	}
	return nil
}

// bsInputs 解析后的 Black-Scholes 标量输入
type bsInputs struct {
	s, k, tau, r, q, sigma float64
}

func (o OptionSpec) resolve() (bsInputs, error) {
	if err := o.Validate(); err != nil {
		return bsInputs{}, err
	}
	r, err := o.DomesticRate()
	if err != nil {
		return bsInputs{}, err
	}
	q, err := o.Carry()
	if err != nil {
		return bsInputs{}, err
	}
	sigma, err := o.VolatilityAt(o.Strike)
	if err != nil {
		return bsInputs{}, err
	}
	return bsInputs{s: o.Spot, k: o.Strike, tau: o.Maturity.Years(), r: r, q: q, sigma: sigma}, nil
}

// D1D2 Black-Scholes 的 d1 与 d2
func (o OptionSpec) D1D2() (float64, float64, error) {
	in, err := o.resolve()
	if err != nil {
		return 0, 0, err
	}
	d1, d2 := in.d1d2()
	return d1, d2, nil
}

func (in bsInputs) d1d2() (float64, float64) {
	sqrtT := math.Sqrt(in.tau)
	d1 := (math.Log(in.s/in.k) + (in.r-in.q+0.5*in.sigma*in.sigma)*in.tau) / (in.sigma * sqrtT)
	return d1, d1 - in.sigma*sqrtT
}

// normCdf 标准正态分布累积分布函数
func normCdf(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// normPdf 标准正态分布概率密度函数
func normPdf(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
