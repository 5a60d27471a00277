package domain

import (
	"context"
	"strings"
)

// StrategyKind 期权组合类型
type StrategyKind string

const (
	StrategyStraddle   StrategyKind = "straddle"
	StrategyStrangle   StrategyKind = "strangle"
	StrategyButterfly  StrategyKind = "butterfly"
	StrategyCallSpread StrategyKind = "call-spread"
	StrategyPutSpread  StrategyKind = "put-spread"
	StrategyStrip      StrategyKind = "strip"
	StrategyStrap      StrategyKind = "strap"
)

// ParseStrategyKind 解析组合类型
func ParseStrategyKind(s string) (StrategyKind, error) {
	k := StrategyKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case StrategyStraddle, StrategyStrangle, StrategyButterfly,
		StrategyCallSpread, StrategyPutSpread, StrategyStrip, StrategyStrap:
		return k, nil
	default:
		return "", unsupportedVariant("strategy", s)
	}
}

// Leg 带权重的欧式期权腿
type Leg struct {
	Weight float64
	Option *VanillaOption
}

// Strategy 共享同一市场环境的期权组合，价格与希腊字母为各腿加权和
type Strategy struct {
	kind StrategyKind
	legs []Leg
}

// Kind 组合类型
func (s *Strategy) Kind() StrategyKind { return s.kind }

// Legs 各腿
func (s *Strategy) Legs() []Leg {
	out := make([]Leg, len(s.legs))
	copy(out, s.legs)
	return out
}

// Price 加权价格
func (s *Strategy) Price(ctx context.Context) (float64, error) {
	var total float64
	for _, leg := range s.legs {
		p, err := leg.Option.Price(ctx)
		if err != nil {
			return 0, err
		}
		total += leg.Weight * p
	}
	return total, nil
}

// Greeks 加权希腊字母
func (s *Strategy) Greeks(ctx context.Context) (Greeks, error) {
	var total Greeks
	for _, leg := range s.legs {
		g, err := leg.Option.Greeks(ctx)
		if err != nil {
			return Greeks{}, err
		}
		total = total.Add(g.Scale(leg.Weight))
	}
	return total, nil
}

type legSpec struct {
	weight float64
	strike float64
	typ    OptionType
}

func newStrategy(kind StrategyKind, m Market, specs ...legSpec) (*Strategy, error) {
	legs := make([]Leg, 0, len(specs))
	for _, ls := range specs {
		opt, err := NewVanillaOption(OptionSpec{Market: m, Strike: ls.strike, Type: ls.typ})
		if err != nil {
			return nil, err
		}
		legs = append(legs, Leg{Weight: ls.weight, Option: opt})
	}
	return &Strategy{kind: kind, legs: legs}, nil
}

func requireAscending(field string, strikes ...float64) error {
	for i := 1; i < len(strikes); i++ {
		if !(strikes[i-1] < strikes[i]) {
			return invalidInput(field, "strikes must be strictly increasing, got %v", strikes)
		}
	}
	return nil
}

// NewStraddle +put(K) +call(K)
func NewStraddle(m Market, k float64) (*Strategy, error) {
	return newStrategy(StrategyStraddle, m,
		legSpec{1, k, OptionTypePut},
		legSpec{1, k, OptionTypeCall},
	)
}

// NewStrangle +put(K2) +call(K1)，K1 < K2
func NewStrangle(m Market, k1, k2 float64) (*Strategy, error) {
	if err := requireAscending("strike_price1/strike_price2", k1, k2); err != nil {
		return nil, err
	}
	return newStrategy(StrategyStrangle, m,
		legSpec{1, k2, OptionTypePut},
		legSpec{1, k1, OptionTypeCall},
	)
}

// NewButterfly +call(K1) -2call(K2) +call(K3)，K1 < K2 < K3
func NewButterfly(m Market, k1, k2, k3 float64) (*Strategy, error) {
	if err := requireAscending("strike_price1/strike_price2/strike_price3", k1, k2, k3); err != nil {
		return nil, err
	}
	return newStrategy(StrategyButterfly, m,
		legSpec{1, k1, OptionTypeCall},
		legSpec{-2, k2, OptionTypeCall},
		legSpec{1, k3, OptionTypeCall},
	)
}

// NewCallSpread +call(low) -call(high)
func NewCallSpread(m Market, low, high float64) (*Strategy, error) {
	if err := requireAscending("lower_strike/upper_strike", low, high); err != nil {
		return nil, err
	}
	return newStrategy(StrategyCallSpread, m,
		legSpec{1, low, OptionTypeCall},
		legSpec{-1, high, OptionTypeCall},
	)
}

// NewPutSpread +put(high) -put(low)
func NewPutSpread(m Market, low, high float64) (*Strategy, error) {
	if err := requireAscending("lower_strike/upper_strike", low, high); err != nil {
		return nil, err
	}
	return newStrategy(StrategyPutSpread, m,
		legSpec{1, high, OptionTypePut},
		legSpec{-1, low, OptionTypePut},
	)
}

// NewStrip +2put(K2) -put(K1)，K1 < K2
func NewStrip(m Market, k1, k2 float64) (*Strategy, error) {
	if err := requireAscending("strike_price1/strike_price2", k1, k2); err != nil {
		return nil, err
	}
	return newStrategy(StrategyStrip, m,
		legSpec{2, k2, OptionTypePut},
		legSpec{-1, k1, OptionTypePut},
	)
}

// NewStrap +call(K1) -2put(K2)，K1 < K2
func NewStrap(m Market, k1, k2 float64) (*Strategy, error) {
	if err := requireAscending("strike_price1/strike_price2", k1, k2); err != nil {
		return nil, err
	}
	return newStrategy(StrategyStrap, m,
		legSpec{1, k1, OptionTypeCall},
		legSpec{-2, k2, OptionTypePut},
	)
}
