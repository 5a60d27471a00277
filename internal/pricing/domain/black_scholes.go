package domain

import (
	"context"
	"math"
)

// VanillaOption 欧式期权，广义 Black-Scholes 解析解
// 持有成本 q 取红利率，给定外币利率时按 Garman-Kohlhagen 取外币利率
type VanillaOption struct {
	spec OptionSpec
	in   bsInputs
}

// NewVanillaOption 构造欧式期权，构造时完成曲线与曲面查询
func NewVanillaOption(spec OptionSpec) (*VanillaOption, error) {
	in, err := spec.resolve()
	if err != nil {
		return nil, err
	}
	return &VanillaOption{spec: spec, in: in}, nil
}

// Spec 合约参数
func (o *VanillaOption) Spec() OptionSpec { return o.spec }

// Price 期权价格
func (o *VanillaOption) Price(context.Context) (float64, error) {
	return blackScholesPrice(o.spec.Type, o.in), nil
}

// Greeks 解析希腊字母
func (o *VanillaOption) Greeks(context.Context) (Greeks, error) {
	return blackScholesGreeks(o.spec.Type, o.in), nil
}

func blackScholesPrice(t OptionType, in bsInputs) float64 {
	d1, d2 := in.d1d2()
	dq := math.Exp(-in.q * in.tau)
	dr := math.Exp(-in.r * in.tau)
	if t == OptionTypeCall {
		return in.s*dq*normCdf(d1) - in.k*dr*normCdf(d2)
	}
	return in.k*dr*normCdf(-d2) - in.s*dq*normCdf(-d1)
}

func blackScholesGreeks(t OptionType, in bsInputs) Greeks {
	d1, d2 := in.d1d2()
	sqrtT := math.Sqrt(in.tau)
	dq := math.Exp(-in.q * in.tau)
	dr := math.Exp(-in.r * in.tau)
	pdf := normPdf(d1)

	g := Greeks{
		Gamma: dq * pdf / (in.s * in.sigma * sqrtT),
		Vega:  in.s * dq * sqrtT * pdf / 100,
	}
	decay := -in.s * dq * pdf * in.sigma / (2 * sqrtT)
	if t == OptionTypeCall {
		g.Delta = dq * normCdf(d1)
		g.Theta = decay - in.r*in.k*dr*normCdf(d2) + in.q*in.s*dq*normCdf(d1)
		g.Rho = in.k * in.tau * dr * normCdf(d2) / 100
	} else {
		g.Delta = dq * (normCdf(d1) - 1)
		g.Theta = decay + in.r*in.k*dr*normCdf(-d2) - in.q*in.s*dq*normCdf(-d1)
		g.Rho = -in.k * in.tau * dr * normCdf(-d2) / 100
	}
	return g
}
