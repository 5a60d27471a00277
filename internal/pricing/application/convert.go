package application

import (
	"strconv"
	"time"

	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
)

const dateLayout = "2006-01-02"

// toMaturity 把期限输入转换为领域对象
func (in MaturityInput) toMaturity() (domain.Maturity, error) {
	dc, err := domain.ParseDayCount(in.DayCount)
	if err != nil {
		return domain.Maturity{}, err
	}
	mi := domain.MaturityInput{
		Years:    in.Maturity,
		Days:     in.MaturityDays,
		DayCount: dc,
	}
	if in.StartDate != "" {
		t, err := time.Parse(dateLayout, in.StartDate)
		if err != nil {
			return domain.Maturity{}, domain.InvalidInput("start_date", "must be a date formatted as %s", dateLayout)
		}
		mi.Start = &t
	}
	if in.EndDate != "" {
		t, err := time.Parse(dateLayout, in.EndDate)
		if err != nil {
			return domain.Maturity{}, domain.InvalidInput("end_date", "must be a date formatted as %s", dateLayout)
		}
		mi.End = &t
	}
	return domain.NewMaturity(mi)
}

// toRate 把利率输入转换为领域对象，rate 与 rate_curve 已由校验保证恰好一个
func (in RateInput) toRate() (domain.Rate, error) {
	comp, err := domain.ParseCompounding(in.RateType)
	if err != nil {
		return domain.Rate{}, err
	}
	interp, err := domain.ParseInterpolation(in.Interpolation)
	if err != nil {
		return domain.Rate{}, err
	}
	switch {
	case in.Rate != nil && in.RateCurve == nil:
		return domain.FlatRate(*in.Rate, comp), nil
	case in.Rate == nil && in.RateCurve != nil:
		return curveRate("rate_curve", in.RateCurve, interp, comp)
	default:
		return domain.Rate{}, domain.InvalidInput("rate", "exactly one of rate or rate_curve is required")
	}
}

func curveRate(field string, curve map[string]float64, interp domain.Interpolation, comp domain.Compounding) (domain.Rate, error) {
	if len(curve) == 0 {
		return domain.Rate{}, domain.InvalidInput(field, "curve has no points")
	}
	points := make([]domain.CurvePoint, 0, len(curve))
	for key, r := range curve {
		years, err := parseTenor(field, key)
		if err != nil {
			return domain.Rate{}, err
		}
		m, err := domain.MaturityFromYears(years)
		if err != nil {
			return domain.Rate{}, domain.InvalidInput(field, "tenor %q must be positive", key)
		}
		points = append(points, domain.CurvePoint{Maturity: m, Rate: r})
	}
	return domain.NewCurveRate(points, interp, comp)
}

func parseTenor(field, key string) (float64, error) {
	v, err := strconv.ParseFloat(key, 64)
	if err != nil {
		return 0, domain.InvalidInput(field, "key %q is not a number", key)
	}
	return v, nil
}

// toVolatility 标量波动率或 期限 -> moneyness 曲面
func (in MarketInput) toVolatility() (domain.Volatility, error) {
	switch {
	case in.Volatility != nil && in.VolatilitySurface == nil:
		return domain.FlatVolatility(*in.Volatility)
	case in.Volatility == nil && in.VolatilitySurface != nil:
		quotes := make(map[float64]map[float64]float64, len(in.VolatilitySurface))
		for tKey, row := range in.VolatilitySurface {
			t, err := parseTenor("volatility_surface", tKey)
			if err != nil {
				return domain.Volatility{}, err
			}
			parsed := make(map[float64]float64, len(row))
			for kKey, vol := range row {
				k, err := parseTenor("volatility_surface", kKey)
				if err != nil {
					return domain.Volatility{}, err
				}
				parsed[k] = vol
			}
			quotes[t] = parsed
		}
		return domain.NewVolatilitySurface(quotes)
	default:
		return domain.Volatility{}, domain.InvalidInput("volatility", "exactly one of volatility or volatility_surface is required")
	}
}

// toMarket 组装市场环境
func (in MarketInput) toMarket() (domain.Market, error) {
	mat, err := in.MaturityInput.toMaturity()
	if err != nil {
		return domain.Market{}, err
	}
	rate, err := in.RateInput.toRate()
	if err != nil {
		return domain.Market{}, err
	}
	vol, err := in.toVolatility()
	if err != nil {
		return domain.Market{}, err
	}

	m := domain.Market{
		Spot:       in.SpotPrice,
		Maturity:   mat,
		Rate:       rate,
		Volatility: vol,
	}
	if in.Dividend != nil {
		m.Dividend = *in.Dividend
	}

	switch {
	case in.ForeignRate != nil:
		fr := domain.FlatRate(*in.ForeignRate, rate.Compounding())
		m.ForeignRate = &fr
	case in.ForeignRateCurve != nil:
		interp, _ := domain.ParseInterpolation(in.Interpolation)
		fr, err := curveRate("foreign_rate_curve", in.ForeignRateCurve, interp, rate.Compounding())
		if err != nil {
			return domain.Market{}, err
		}
		m.ForeignRate = &fr
	}

	if err := m.Validate(); err != nil {
		return domain.Market{}, err
	}
	return m, nil
}

// toInstrument 构造期权
func (c *PriceOptionCommand) toInstrument(kind domain.OptionKind, mc domain.MonteCarloConfig) (domain.Instrument, error) {
	market, err := c.MarketInput.toMarket()
	if err != nil {
		return nil, err
	}
	typ, err := domain.ParseOptionType(c.OptionType)
	if err != nil {
		return nil, err
	}
	spec := domain.OptionSpec{Market: market, Strike: c.StrikePrice, Type: typ}

	switch kind {
	case domain.OptionVanilla:
		return domain.NewVanillaOption(spec)
	case domain.OptionBinary:
		return domain.NewBinaryOption(spec)
	default:
		if c.BarrierLevel == nil {
			return nil, domain.InvalidInput("barrier_level", "is required for barrier options")
		}
		bk, err := domain.ParseBarrierKind(c.BarrierType)
		if err != nil {
			return nil, err
		}
		dir, err := domain.ParseBarrierDirection(c.BarrierDirection)
		if err != nil {
			return nil, err
		}
		return domain.NewBarrierOption(spec, domain.Barrier{Level: *c.BarrierLevel, Kind: bk, Direction: dir}, mc)
	}
}

// toStrategy 按组合类型取对应的行权价字段
func (c *PriceStrategyCommand) toStrategy(kind domain.StrategyKind) (*domain.Strategy, error) {
	market, err := c.MarketInput.toMarket()
	if err != nil {
		return nil, err
	}

	switch kind {
	case domain.StrategyStraddle:
		k, err := need("strike_price", c.StrikePrice)
		if err != nil {
			return nil, err
		}
		return domain.NewStraddle(market, k)
	case domain.StrategyButterfly:
		k1, k2, k3, err := need3(c.StrikePrice1, c.StrikePrice2, c.StrikePrice3)
		if err != nil {
			return nil, err
		}
		return domain.NewButterfly(market, k1, k2, k3)
	case domain.StrategyCallSpread, domain.StrategyPutSpread:
		low, err := need("lower_strike", c.LowerStrike)
		if err != nil {
			return nil, err
		}
		high, err := need("upper_strike", c.UpperStrike)
		if err != nil {
			return nil, err
		}
		if kind == domain.StrategyCallSpread {
			return domain.NewCallSpread(market, low, high)
		}
		return domain.NewPutSpread(market, low, high)
	default:
		k1, err := need("strike_price1", c.StrikePrice1)
		if err != nil {
			return nil, err
		}
		k2, err := need("strike_price2", c.StrikePrice2)
		if err != nil {
			return nil, err
		}
		switch kind {
		case domain.StrategyStrangle:
			return domain.NewStrangle(market, k1, k2)
		case domain.StrategyStrip:
			return domain.NewStrip(market, k1, k2)
		default:
			return domain.NewStrap(market, k1, k2)
		}
	}
}

// toInstrument 构造结构化产品
func (c *PriceStructuredCommand) toInstrument(kind domain.StructuredKind) (domain.Instrument, error) {
	market, err := c.MarketInput.toMarket()
	if err != nil {
		return nil, err
	}
	if kind == domain.StructuredOutperformerCertificate {
		p, err := need("participation", c.Participation)
		if err != nil {
			return nil, err
		}
		return domain.NewOutperformerCertificate(market, p)
	}

	strike, err := need("strike_price", c.StrikePrice)
	if err != nil {
		return nil, err
	}
	nominal, err := need("nominal", c.Nominal)
	if err != nil {
		return nil, err
	}
	converse, err := need("converse_rate", c.ConverseRate)
	if err != nil {
		return nil, err
	}
	return domain.NewReverseConvertible(market, strike, nominal, converse)
}

func need(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, domain.InvalidInput(field, "is required")
	}
	return *v, nil
}

func need3(a, b, c *float64) (float64, float64, float64, error) {
	k1, err := need("strike_price1", a)
	if err != nil {
		return 0, 0, 0, err
	}
	k2, err := need("strike_price2", b)
	if err != nil {
		return 0, 0, 0, err
	}
	k3, err := need("strike_price3", c)
	if err != nil {
		return 0, 0, 0, err
	}
	return k1, k2, k3, nil
}
