package domain

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/optimize"
)

// BondKind 债券类型
type BondKind string

const (
	BondZeroCoupon BondKind = "zero-coupon"
	BondVanilla    BondKind = "vanilla"
)

// ParseBondKind 解析债券类型
func ParseBondKind(s string) (BondKind, error) {
	switch BondKind(strings.ToLower(strings.TrimSpace(s))) {
	case BondZeroCoupon:
		return BondZeroCoupon, nil
	case BondVanilla:
		return BondVanilla, nil
	default:
		return "", unsupportedVariant("bond", s)
	}
}

// DefaultYieldGuess 到期收益率求解初值
const DefaultYieldGuess = 0.01

// scheduleTolerance 小于此值的剩余期限不再生成付息
const scheduleTolerance = 1e-10

// ZeroCouponBond 零息债券：到期一次性支付面值
type ZeroCouponBond struct {
	rate     Rate
	maturity Maturity
	nominal  float64
}

// NewZeroCouponBond 构造零息债券
func NewZeroCouponBond(rate Rate, maturity Maturity, nominal float64) (*ZeroCouponBond, error) {
	if !(maturity.Years() > 0) {
		return nil, invalidInput("maturity", "maturity must be positive")
	}
	if !(nominal > 0) {
		return nil, invalidInput("nominal", "nominal must be positive, got %g", nominal)
	}
	return &ZeroCouponBond{rate: rate, maturity: maturity, nominal: nominal}, nil
}

// Maturity 到期期限
func (b *ZeroCouponBond) Maturity() Maturity { return b.maturity }

// Nominal 面值
func (b *ZeroCouponBond) Nominal() float64 { return b.nominal }

// Price 面值 × 贴现因子
func (b *ZeroCouponBond) Price() (float64, error) {
	df, err := b.rate.DiscountFactor(b.maturity)
	if err != nil {
		return 0, err
	}
	return b.nominal * df, nil
}

// PriceAtRate 以指定的单一利率定价，不查询曲线
func (b *ZeroCouponBond) PriceAtRate(r float64) float64 {
	return b.nominal * b.rate.DiscountFactorAt(r, b.maturity)
}

// CashFlow 现金流
type CashFlow struct {
	Maturity Maturity
	Amount   float64
}

// Bond 固定息票债券，拆分为一组零息债券
// 付息期从到期日按 1/n 年向前倒推，最长一期另付面值
type Bond struct {
	rate       Rate
	maturity   Maturity
	nominal    float64
	couponRate float64
	frequency  int
	legs       []*ZeroCouponBond
}

// NewBond 构造付息债券
func NewBond(rate Rate, maturity Maturity, nominal, couponRate float64, nbCoupon int) (*Bond, error) {
	if !(maturity.Years() > 0) {
		return nil, invalidInput("maturity", "maturity must be positive")
	}
	if !(nominal > 0) {
		return nil, invalidInput("nominal", "nominal must be positive, got %g", nominal)
	}
	if couponRate < 0 {
		return nil, invalidInput("coupon_rate", "coupon rate must not be negative, got %g", couponRate)
	}
	if nbCoupon < 1 {
		return nil, invalidInput("nb_coupon", "coupon frequency must be at least 1, got %d", nbCoupon)
	}

	coupon := couponRate / float64(nbCoupon) * nominal
	step := 1 / float64(nbCoupon)
	tau := maturity.Years()

	var legs []*ZeroCouponBond
	for k := 0; ; k++ {
		t := tau - float64(k)*step
		if t <= scheduleTolerance {
			break
		}
		amount := coupon
		if k == 0 {
			amount += nominal
		}
		legs = append(legs, &ZeroCouponBond{
			rate:     rate,
			maturity: Maturity{years: t, dayCount: maturity.DayCount()},
			nominal:  amount,
		})
	}

	// 按期限升序
	for i, j := 0, len(legs)-1; i < j; i, j = i+1, j-1 {
		legs[i], legs[j] = legs[j], legs[i]
	}

	return &Bond{
		rate:       rate,
		maturity:   maturity,
		nominal:    nominal,
		couponRate: couponRate,
		frequency:  nbCoupon,
		legs:       legs,
	}, nil
}

// Schedule 现金流计划，按期限升序
func (b *Bond) Schedule() []CashFlow {
	out := make([]CashFlow, len(b.legs))
	for i, leg := range b.legs {
		out[i] = CashFlow{Maturity: leg.maturity, Amount: leg.nominal}
	}
	return out
}

// Price 各期零息债券价格之和
func (b *Bond) Price() (float64, error) {
	var total float64
	for _, leg := range b.legs {
		p, err := leg.Price()
		if err != nil {
			return 0, err
		}
		total += p
	}
	return total, nil
}

// PriceAtRate 以单一利率贴现全部现金流
func (b *Bond) PriceAtRate(r float64) float64 {
	var total float64
	for _, leg := range b.legs {
		total += leg.PriceAtRate(r)
	}
	return total
}

// YieldResult 到期收益率求解结果
type YieldResult struct {
	Yield     float64
	Converged bool
	Residual  float64
}

// YieldToMaturity 求使 PriceAtRate(y) 等于 target 的单一利率
// 最小化 (target - price(y))²，未收敛时返回 NumericFailure 及最后一次迭代值
func (b *Bond) YieldToMaturity(target, guess float64) (YieldResult, error) {
	if !(target > 0) {
		return YieldResult{}, invalidInput("market_price", "target price must be positive, got %g", target)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			d := target - b.PriceAtRate(x[0])
			return d * d
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 5000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-20,
			Iterations: 50,
		},
	}

	res, err := optimize.Minimize(problem, []float64{guess}, settings, &optimize.NelderMead{})
	if res == nil {
		return YieldResult{}, numericFailure(err, "yield to maturity search failed")
	}

	y := res.X[0]
	out := YieldResult{Yield: y, Residual: target - b.PriceAtRate(y)}
	if math.IsNaN(y) || math.Abs(out.Residual) > 1e-6*math.Max(1, target) {
		return out, numericFailure(err, "yield to maturity did not converge (residual %g)", out.Residual)
	}
	out.Converged = true
	return out, nil
}
