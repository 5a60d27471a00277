package domain

import "sort"

// Volatility 波动率：常数或 (moneyness, 期限) 曲面二选一
type Volatility struct {
	flat    float64
	surface *volSurface
	shift   float64
}

// volSurface 张量积样条曲面
// rows[i] 为第 i 个期限上沿 moneyness 方向的插值器
type volSurface struct {
	maturities []float64
	rows       []*interpolator
}

// FlatVolatility 常数波动率
func FlatVolatility(v float64) (Volatility, error) {
	if !(v > 0) {
		return Volatility{}, invalidInput("volatility", "volatility must be positive, got %g", v)
	}
	return Volatility{flat: v}, nil
}

// NewVolatilitySurface 由 期限 -> moneyness -> 波动率 报价构造曲面
// 要求完整矩形网格，至少 2 个期限与 2 个 moneyness
func NewVolatilitySurface(quotes map[float64]map[float64]float64) (Volatility, error) {
	if len(quotes) < 2 {
		return Volatility{}, invalidInput("volatility_surface", "at least 2 maturities are required, got %d", len(quotes))
	}

	maturities := make([]float64, 0, len(quotes))
	for t := range quotes {
		if !(t > 0) {
			return Volatility{}, invalidInput("volatility_surface", "maturity %g must be positive", t)
		}
		maturities = append(maturities, t)
	}
	sort.Float64s(maturities)

	var moneyness []float64
	for k := range quotes[maturities[0]] {
		moneyness = append(moneyness, k)
	}
	sort.Float64s(moneyness)
	if len(moneyness) < 2 {
		return Volatility{}, invalidInput("volatility_surface", "at least 2 moneyness points are required, got %d", len(moneyness))
	}
	kind := interpolationFor(len(moneyness))

	s := &volSurface{maturities: maturities, rows: make([]*interpolator, len(maturities))}
	for i, t := range maturities {
		row := quotes[t]
		if len(row) != len(moneyness) {
			return Volatility{}, invalidInput("volatility_surface", "maturity %g does not quote the full moneyness grid", t)
		}
		ys := make([]float64, len(moneyness))
		for j, k := range moneyness {
			v, ok := row[k]
			if !ok {
				return Volatility{}, invalidInput("volatility_surface", "maturity %g is missing moneyness %g", t, k)
			}
			if !(v > 0) {
				return Volatility{}, invalidInput("volatility_surface", "volatility at (%g, %g) must be positive", k, t)
			}
			ys[j] = v
		}
		ip, err := newInterpolator(moneyness, ys, kind, "volatility_surface")
		if err != nil {
			return Volatility{}, err
		}
		s.rows[i] = ip
	}
	return Volatility{surface: s}, nil
}

// IsSurface 是否为曲面
func (v Volatility) IsSurface() bool { return v.surface != nil }

// Value 查询波动率；曲面模式必须同时提供 moneyness 与期限
func (v Volatility) Value(moneyness, maturity *float64) (float64, error) {
	if v.surface == nil {
		return v.flat + v.shift, nil
	}
	if moneyness == nil || maturity == nil {
		return 0, missingArgument("volatility_surface", "surface lookup requires moneyness and maturity")
	}
	col := make([]float64, len(v.surface.rows))
	for i, row := range v.surface.rows {
		col[i] = row.At(*moneyness)
	}
	ip, err := newInterpolator(v.surface.maturities, col, interpolationFor(len(col)), "volatility_surface")
	if err != nil {
		return 0, err
	}
	return ip.At(*maturity) + v.shift, nil
}

// Shift 整体平移 h
func (v Volatility) Shift(h float64) Volatility {
	v.shift += h
	return v
}
