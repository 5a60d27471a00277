package domain

import (
	"context"
	"math"
)

// BinaryOption 现金或无价值二元期权，到期支付 1 单位现金
type BinaryOption struct {
	spec OptionSpec
	in   bsInputs
}

// NewBinaryOption 构造二元期权
func NewBinaryOption(spec OptionSpec) (*BinaryOption, error) {
	in, err := spec.resolve()
	if err != nil {
		return nil, err
	}
	return &BinaryOption{spec: spec, in: in}, nil
}

// Spec 合约参数
func (o *BinaryOption) Spec() OptionSpec { return o.spec }

// Price call = e^(-rτ)Φ(d2)，put = e^(-rτ)Φ(-d2)
func (o *BinaryOption) Price(context.Context) (float64, error) {
	_, d2 := o.in.d1d2()
	dr := math.Exp(-o.in.r * o.in.tau)
	if o.spec.Type == OptionTypeCall {
		return dr * normCdf(d2), nil
	}
	return dr * normCdf(-d2), nil
}

// Greeks 对价格公式逐项求导，put 与 call 符号相反（theta、rho 含贴现项）
func (o *BinaryOption) Greeks(context.Context) (Greeks, error) {
	in := o.in
	d1, d2 := in.d1d2()
	sqrtT := math.Sqrt(in.tau)
	dr := math.Exp(-in.r * in.tau)
	pdf := normPdf(d2)
	b := in.r - in.q
	// ∂d2/∂τ 的相反数
	dd2 := d1/(2*in.tau) - b/(in.sigma*sqrtT)

	sign := 1.0
	cdf := normCdf(d2)
	if o.spec.Type == OptionTypePut {
		sign = -1
		cdf = normCdf(-d2)
	}

	return Greeks{
		Delta: sign * dr * pdf / (in.s * in.sigma * sqrtT),
		Gamma: -sign * dr * pdf * d1 / (in.s * in.s * in.sigma * in.sigma * in.tau),
		Vega:  -sign * dr * pdf * d1 / in.sigma / 100,
		Theta: in.r*dr*cdf + sign*dr*pdf*dd2,
		Rho:   (-in.tau*dr*cdf + sign*dr*pdf*sqrtT/in.sigma) / 100,
	}, nil
}
