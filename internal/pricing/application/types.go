package application

// MaturityInput 期限输入，三种方式互斥：年、天数、起止日期
type MaturityInput struct {
	Maturity     *float64 `json:"maturity,omitempty" validate:"omitempty,gt=0"`
	MaturityDays *float64 `json:"maturity_days,omitempty" validate:"omitempty,gt=0"`
	StartDate    string   `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string   `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DayCount     string   `json:"day_count,omitempty"`
}

// RateInput 利率输入，rate 与 rate_curve 二选一
// rate_curve 的 key 为年化期限字符串
type RateInput struct {
	Rate          *float64           `json:"rate,omitempty" validate:"required_without=RateCurve,excluded_with=RateCurve"`
	RateCurve     map[string]float64 `json:"rate_curve,omitempty" validate:"required_without=Rate,excluded_with=Rate"`
	RateType      string             `json:"rate_type,omitempty"`
	Interpolation string             `json:"interpolation,omitempty"`
}

// MarketInput 单一标的的市场参数
type MarketInput struct {
	MaturityInput
	RateInput

	SpotPrice float64  `json:"spot_price" validate:"gt=0"`
	Dividend  *float64 `json:"dividend,omitempty" validate:"omitempty,gte=0"`

	// volatility 与 volatility_surface 二选一；曲面 key 为期限 → moneyness
	Volatility        *float64                      `json:"volatility,omitempty" validate:"required_without=VolatilitySurface,excluded_with=VolatilitySurface"`
	VolatilitySurface map[string]map[string]float64 `json:"volatility_surface,omitempty" validate:"required_without=Volatility,excluded_with=Volatility"`

	// 外币利率，提供时替代红利率
	ForeignRate      *float64           `json:"foreign_rate,omitempty" validate:"excluded_with=ForeignRateCurve"`
	ForeignRateCurve map[string]float64 `json:"foreign_rate_curve,omitempty" validate:"excluded_with=ForeignRate"`
}

// PriceOptionCommand 期权定价命令：vanilla / binary / barrier
type PriceOptionCommand struct {
	MarketInput

	StrikePrice float64 `json:"strike_price" validate:"gt=0"`
	OptionType  string  `json:"option_type" validate:"required"`

	BarrierLevel     *float64 `json:"barrier_level,omitempty" validate:"omitempty,gt=0"`
	BarrierType      string   `json:"barrier_type,omitempty"`
	BarrierDirection string   `json:"barrier_direction,omitempty"`
	NumPaths         *int     `json:"num_paths,omitempty" validate:"omitempty,gt=0"`
	NumSteps         *int     `json:"num_steps,omitempty" validate:"omitempty,gt=0"`
	Seed             *uint64  `json:"seed,omitempty"`
}

// PriceStrategyCommand 期权组合定价命令，各组合使用的行权价字段不同
type PriceStrategyCommand struct {
	MarketInput

	StrikePrice  *float64 `json:"strike_price,omitempty" validate:"omitempty,gt=0"`
	StrikePrice1 *float64 `json:"strike_price1,omitempty" validate:"omitempty,gt=0"`
	StrikePrice2 *float64 `json:"strike_price2,omitempty" validate:"omitempty,gt=0"`
	StrikePrice3 *float64 `json:"strike_price3,omitempty" validate:"omitempty,gt=0"`
	LowerStrike  *float64 `json:"lower_strike,omitempty" validate:"omitempty,gt=0"`
	UpperStrike  *float64 `json:"upper_strike,omitempty" validate:"omitempty,gt=0"`
}

// PriceBondCommand 债券定价命令
type PriceBondCommand struct {
	MaturityInput
	RateInput

	Nominal     float64  `json:"nominal" validate:"gt=0"`
	CouponRate  float64  `json:"coupon_rate" validate:"gte=0"`
	NbCoupon    int      `json:"nb_coupon" validate:"gte=0"`
	MarketPrice *float64 `json:"market_price,omitempty" validate:"omitempty,gt=0"`
	YieldGuess  *float64 `json:"ytm_guess,omitempty"`
}

// PriceStructuredCommand 结构化产品定价命令
type PriceStructuredCommand struct {
	MarketInput

	StrikePrice   *float64 `json:"strike_price,omitempty" validate:"omitempty,gt=0"`
	Nominal       *float64 `json:"nominal,omitempty" validate:"omitempty,gt=0"`
	ConverseRate  *float64 `json:"converse_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	Participation *float64 `json:"participation,omitempty" validate:"omitempty,gte=1"`
}
