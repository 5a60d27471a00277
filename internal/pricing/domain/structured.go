package domain

import (
	"context"
	"math"
	"strings"
)

// StructuredKind 结构化产品类型
type StructuredKind string

const (
	StructuredReverseConvertible      StructuredKind = "reverse-convertible"
	StructuredOutperformerCertificate StructuredKind = "outperformer-certificate"
)

// ParseStructuredKind 解析结构化产品类型
func ParseStructuredKind(s string) (StructuredKind, error) {
	switch StructuredKind(strings.ToLower(strings.TrimSpace(s))) {
	case StructuredReverseConvertible:
		return StructuredReverseConvertible, nil
	case StructuredOutperformerCertificate:
		return StructuredOutperformerCertificate, nil
	default:
		return "", unsupportedVariant("structured_product", s)
	}
}

// ReverseConvertible 反向可转换：零息债券 - (1 - c) × 看跌期权
type ReverseConvertible struct {
	bond         *ZeroCouponBond
	put          *VanillaOption
	converseRate float64
}

// NewReverseConvertible 构造反向可转换，converseRate 取值 [0, 1]
func NewReverseConvertible(m Market, strike, nominal, converseRate float64) (*ReverseConvertible, error) {
	if converseRate < 0 || converseRate > 1 {
		return nil, invalidInput("converse_rate", "converse rate must lie in [0, 1], got %g", converseRate)
	}
	bond, err := NewZeroCouponBond(m.Rate, m.Maturity, nominal)
	if err != nil {
		return nil, err
	}
	put, err := NewVanillaOption(OptionSpec{Market: m, Strike: strike, Type: OptionTypePut})
	if err != nil {
		return nil, err
	}
	return &ReverseConvertible{bond: bond, put: put, converseRate: converseRate}, nil
}

func (p *ReverseConvertible) putWeight() float64 { return -(1 - p.converseRate) }

// Price 债券价格减去卖出看跌部分
func (p *ReverseConvertible) Price(ctx context.Context) (float64, error) {
	bond, err := p.bond.Price()
	if err != nil {
		return 0, err
	}
	put, err := p.put.Price(ctx)
	if err != nil {
		return 0, err
	}
	return bond + p.putWeight()*put, nil
}

// Greeks 只计看跌腿，rho 与其余希腊字母同号处理
func (p *ReverseConvertible) Greeks(ctx context.Context) (Greeks, error) {
	g, err := p.put.Greeks(ctx)
	if err != nil {
		return Greeks{}, err
	}
	return g.Scale(p.putWeight()), nil
}

// OutperformerCertificate 超额参与证书：标的 + (p - 1) × 平值看涨
type OutperformerCertificate struct {
	market        Market
	call          *VanillaOption
	participation float64
}

// NewOutperformerCertificate 构造超额参与证书，participation 必须大于 1
func NewOutperformerCertificate(m Market, participation float64) (*OutperformerCertificate, error) {
	if !(participation > 1) {
		return nil, invalidInput("participation", "participation must be greater than 1, got %g", participation)
	}
	call, err := NewVanillaOption(OptionSpec{Market: m, Strike: m.Spot, Type: OptionTypeCall})
	if err != nil {
		return nil, err
	}
	return &OutperformerCertificate{market: m, call: call, participation: participation}, nil
}

// Price S·e^(-qτ) + (p - 1) × 平值看涨
func (p *OutperformerCertificate) Price(ctx context.Context) (float64, error) {
	q, err := p.market.Carry()
	if err != nil {
		return 0, err
	}
	call, err := p.call.Price(ctx)
	if err != nil {
		return 0, err
	}
	base := p.market.Spot * math.Exp(-q*p.market.Maturity.Years())
	return base + (p.participation-1)*call, nil
}

// Greeks 标的部分 delta 计 1，其余来自看涨腿
func (p *OutperformerCertificate) Greeks(ctx context.Context) (Greeks, error) {
	g, err := p.call.Greeks(ctx)
	if err != nil {
		return Greeks{}, err
	}
	g = g.Scale(p.participation - 1)
	g.Delta += 1
	return g, nil
}
