package domain

import (
	"math"
	"strings"
)

// Compounding 复利方式
type Compounding int

const (
	CompoundingContinuous Compounding = iota // exp(-r·t)
	CompoundingAnnual                        // (1+r)^(-t)
)

// ParseCompounding 解析复利方式，空串取连续复利
func ParseCompounding(s string) (Compounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continuous":
		return CompoundingContinuous, nil
	case "compounded":
		return CompoundingAnnual, nil
	default:
		return CompoundingContinuous, unsupportedVariant("rate_type", s)
	}
}

func (c Compounding) String() string {
	if c == CompoundingAnnual {
		return "compounded"
	}
	return "continuous"
}

// CurvePoint 利率曲线节点
type CurvePoint struct {
	Maturity Maturity
	Rate     float64
}

// Rate 利率：常数或期限曲线二选一
type Rate struct {
	flat        float64
	curve       *interpolator
	compounding Compounding
	shift       float64
}

// FlatRate 常数利率
func FlatRate(r float64, compounding Compounding) Rate {
	return Rate{flat: r, compounding: compounding}
}

// NewCurveRate 由曲线节点构造利率，节点期限不可重复，顺序任意
func NewCurveRate(points []CurvePoint, interpolation Interpolation, compounding Compounding) (Rate, error) {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Maturity.Years()
		ys[i] = p.Rate
	}
	ip, err := newInterpolator(xs, ys, interpolation, "rate_curve")
	if err != nil {
		return Rate{}, err
	}
	return Rate{curve: ip, compounding: compounding}, nil
}

// IsCurve 是否为曲线利率
func (r Rate) IsCurve() bool { return r.curve != nil }

// Compounding 复利方式
func (r Rate) Compounding() Compounding { return r.compounding }

// Value 查询利率；曲线利率必须提供期限
func (r Rate) Value(m *Maturity) (float64, error) {
	if r.curve == nil {
		return r.flat + r.shift, nil
	}
	if m == nil {
		return 0, missingArgument("maturity", "rate curve lookup requires a maturity")
	}
	return r.curve.At(m.Years()) + r.shift, nil
}

// DiscountFactor 按存储的利率计算贴现因子
func (r Rate) DiscountFactor(m Maturity) (float64, error) {
	v, err := r.Value(&m)
	if err != nil {
		return 0, err
	}
	return r.DiscountFactorAt(v, m), nil
}

// DiscountFactorAt 以指定利率计算贴现因子，不查询曲线
func (r Rate) DiscountFactorAt(rate float64, m Maturity) float64 {
	if r.compounding == CompoundingAnnual {
		return math.Pow(1+rate, -m.Years())
	}
	return math.Exp(-rate * m.Years())
}

// Shift 整体平移 h，曲线各节点同步平移
func (r Rate) Shift(h float64) Rate {
	r.shift += h
	return r
}
