package domain

import (
	"context"
	"errors"
	"math"
	"strings"
)

// FiniteDifferenceEpsilon 有限差分扰动步长
// 现价按相对比例扰动，波动率与利率按绝对值扰动
const FiniteDifferenceEpsilon = 1e-2

// oneDay theta 的时间步长（年）
const oneDay = 1.0 / 365

// BarrierKind 敲出 / 敲入
type BarrierKind string

const (
	BarrierKnockOut BarrierKind = "ko"
	BarrierKnockIn  BarrierKind = "ki"
)

// ParseBarrierKind 解析障碍类型，大小写不敏感
func ParseBarrierKind(s string) (BarrierKind, error) {
	switch BarrierKind(strings.ToLower(strings.TrimSpace(s))) {
	case BarrierKnockOut:
		return BarrierKnockOut, nil
	case BarrierKnockIn:
		return BarrierKnockIn, nil
	default:
		return "", unsupportedVariant("barrier_type", s)
	}
}

// BarrierDirection 障碍方向
type BarrierDirection string

const (
	BarrierUp   BarrierDirection = "up"
	BarrierDown BarrierDirection = "down"
)

// ParseBarrierDirection 解析障碍方向
func ParseBarrierDirection(s string) (BarrierDirection, error) {
	switch BarrierDirection(strings.ToLower(strings.TrimSpace(s))) {
	case BarrierUp:
		return BarrierUp, nil
	case BarrierDown:
		return BarrierDown, nil
	default:
		return "", unsupportedVariant("barrier_direction", s)
	}
}

// Barrier 障碍条款
type Barrier struct {
	Level     float64
	Kind      BarrierKind
	Direction BarrierDirection
}

// BarrierOption 离散监控障碍期权，蒙特卡洛定价
type BarrierOption struct {
	spec    OptionSpec
	barrier Barrier
	mc      MonteCarloConfig
}

// NewBarrierOption 构造障碍期权
func NewBarrierOption(spec OptionSpec, barrier Barrier, mc MonteCarloConfig) (*BarrierOption, error) {
	if _, err := spec.resolve(); err != nil {
		return nil, err
	}
	if !(barrier.Level > 0) {
		return nil, invalidInput("barrier_level", "barrier level must be positive, got %g", barrier.Level)
	}
	if barrier.Kind != BarrierKnockOut && barrier.Kind != BarrierKnockIn {
		return nil, unsupportedVariant("barrier_type", string(barrier.Kind))
	}
	if barrier.Direction != BarrierUp && barrier.Direction != BarrierDown {
		return nil, unsupportedVariant("barrier_direction", string(barrier.Direction))
	}
	if err := mc.Validate(); err != nil {
		return nil, err
	}
	return &BarrierOption{spec: spec, barrier: barrier, mc: mc}, nil
}

// Spec 合约参数
func (o *BarrierOption) Spec() OptionSpec { return o.spec }

// Barrier 障碍条款
func (o *BarrierOption) Barrier() Barrier { return o.barrier }

// Price 蒙特卡洛价格，按本币利率贴现
func (o *BarrierOption) Price(ctx context.Context) (float64, error) {
	return o.priceIn(ctx, o.spec.Market)
}

// Greeks 有限差分希腊字母，各场景复用相同随机数
func (o *BarrierOption) Greeks(ctx context.Context) (Greeks, error) {
	base := o.spec.Market
	h := FiniteDifferenceEpsilon

	p0, err := o.priceIn(ctx, base)
	if err != nil {
		return Greeks{}, err
	}

	ds := base.Spot * h
	pUp, err := o.priceIn(ctx, base.WithSpot(base.Spot+ds))
	if err != nil {
		return Greeks{}, err
	}
	pDown, err := o.priceIn(ctx, base.WithSpot(base.Spot-ds))
	if err != nil {
		return Greeks{}, err
	}

	vega, err := o.centralDifference(ctx, base.WithVolatilityShift(h), base.WithVolatilityShift(-h), p0)
	if err != nil {
		return Greeks{}, err
	}
	rho, err := o.centralDifference(ctx, base.WithRateShift(h), base.WithRateShift(-h), p0)
	if err != nil {
		return Greeks{}, err
	}
	theta, err := o.theta(ctx, base, p0)
	if err != nil {
		return Greeks{}, err
	}

	return Greeks{
		Delta: (pUp - pDown) / (2 * ds),
		Gamma: (pUp - 2*p0 + pDown) / (ds * ds),
		Theta: theta,
		Vega:  vega / 100,
		Rho:   rho / 100,
	}, nil
}

// centralDifference 中心差分；向下扰动不可用（如波动率非正）时退化为前向差分
func (o *BarrierOption) centralDifference(ctx context.Context, up, down Market, p0 float64) (float64, error) {
	h := FiniteDifferenceEpsilon
	pu, err := o.priceIn(ctx, up)
	if err != nil {
		return 0, err
	}
	pd, err := o.priceIn(ctx, down)
	if err == nil {
		return (pu - pd) / (2 * h), nil
	}
	if errors.Is(err, ErrInvalidInput) {
		return (pu - p0) / h, nil
	}
	return 0, err
}

// theta 为 -∂P/∂τ，剩余期限不足一天时取前向差分
func (o *BarrierOption) theta(ctx context.Context, base Market, p0 float64) (float64, error) {
	if base.Maturity.Years() > oneDay {
		shorter, err := base.Maturity.Shift(-oneDay)
		if err != nil {
			return 0, err
		}
		p, err := o.priceIn(ctx, base.WithMaturity(shorter))
		if err != nil {
			return 0, err
		}
		return (p - p0) / oneDay, nil
	}
	longer, err := base.Maturity.Shift(oneDay)
	if err != nil {
		return 0, err
	}
	p, err := o.priceIn(ctx, base.WithMaturity(longer))
	if err != nil {
		return 0, err
	}
	return (p0 - p) / oneDay, nil
}

func (o *BarrierOption) priceIn(ctx context.Context, m Market) (float64, error) {
	spec := o.spec
	spec.Market = m
	in, err := spec.resolve()
	if err != nil {
		return 0, err
	}
	model := gbmModel{spot: in.s, carry: in.r - in.q, sigma: in.sigma, tau: in.tau}
	mean, err := o.mc.simulateMean(ctx, model, o.payoff)
	if err != nil {
		return 0, err
	}
	// 按无风险利率 e^(-rτ) 贴现，而非 e^(-(r-q)τ)；q=0 时二者一致
	// 这样敲出与敲入之和等于同参数的香草期权
	return math.Exp(-in.r*in.tau) * mean, nil
}

func (o *BarrierOption) payoff(p pathSummary) float64 {
	var crossed bool
	if o.barrier.Direction == BarrierUp {
		crossed = p.high >= o.barrier.Level
	} else {
		crossed = p.low <= o.barrier.Level
	}

	var intrinsic float64
	if o.spec.Type == OptionTypeCall {
		intrinsic = math.Max(p.last-o.spec.Strike, 0)
	} else {
		intrinsic = math.Max(o.spec.Strike-p.last, 0)
	}

	if crossed == (o.barrier.Kind == BarrierKnockIn) {
		return intrinsic
	}
	return 0
}
