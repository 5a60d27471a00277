package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestMaturity_InputModes(t *testing.T) {
	years, days := 0.5, 90.0
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   MaturityInput
		want float64
		err  error
	}{
		{"years", MaturityInput{Years: &years}, 0.5, nil},
		{"days act/360", MaturityInput{Days: &days}, 0.25, nil},
		{"days act/365", MaturityInput{Days: &days, DayCount: ACT365}, 90.0 / 365, nil},
		{"dates act/365", MaturityInput{Start: &start, End: &end, DayCount: ACT365}, 366.0 / 365, nil},
		{"dates act/360", MaturityInput{Start: &start, End: &end}, 366.0 / 360, nil},
		{"none", MaturityInput{}, 0, ErrInvalidInput},
		{"two modes", MaturityInput{Years: &years, Days: &days}, 0, ErrInvalidInput},
		{"half a range", MaturityInput{Start: &start}, 0, ErrInvalidInput},
		{"reversed dates", MaturityInput{Start: &end, End: &start}, 0, ErrInvalidInput},
	}
	for _, tc := range cases {
		m, err := NewMaturity(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("%s: got %v, want %v", tc.name, err, tc.err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !near(m.Years(), tc.want, 1e-12) {
			t.Errorf("%s: years = %v, want %v", tc.name, m.Years(), tc.want)
		}
	}

	if _, err := MaturityFromYears(0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero maturity: got %v", err)
	}
	if _, err := MaturityFromYears(-1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative maturity: got %v", err)
	}
	if dc, err := ParseDayCount(""); err != nil || dc != ACT360 {
		t.Errorf("default day count = %v, %v; want ACT/360", dc, err)
	}
	if _, err := ParseDayCount("30/360"); !errors.Is(err, ErrUnsupportedVariant) {
		t.Errorf("ParseDayCount(30/360) = %v", err)
	}
}

func TestRate_FlatIgnoresMaturity(t *testing.T) {
	r := FlatRate(0.03, CompoundingContinuous)
	v, err := r.Value(nil)
	if err != nil || v != 0.03 {
		t.Errorf("Value(nil) = %v, %v", v, err)
	}
	m := mustYears(t, 7)
	if v, _ := r.Value(&m); v != 0.03 {
		t.Errorf("Value(7y) = %v", v)
	}
	if df := r.DiscountFactorAt(0.1, m); !near(df, math.Exp(-0.7), 1e-15) {
		t.Errorf("DiscountFactorAt = %v", df)
	}
}

func TestRate_CurveKnotsRoundTrip(t *testing.T) {
	points := []CurvePoint{
		{Maturity: mustYears(t, 5), Rate: 0.045},
		{Maturity: mustYears(t, 0.25), Rate: 0.01},
		{Maturity: mustYears(t, 1), Rate: 0.02},
		{Maturity: mustYears(t, 2), Rate: 0.03},
	}
	for _, kind := range []Interpolation{InterpolationLinear, InterpolationQuadratic, InterpolationCubic} {
		r, err := NewCurveRate(points, kind, CompoundingContinuous)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		for _, p := range points {
			m := p.Maturity
			if v, _ := r.Value(&m); v != p.Rate {
				t.Errorf("%s: rate at knot %v = %v, want %v", kind, m.Years(), v, p.Rate)
			}
		}
	}

	single, err := NewCurveRate([]CurvePoint{{Maturity: mustYears(t, 2), Rate: 0.031}}, InterpolationCubic, CompoundingContinuous)
	if err != nil {
		t.Fatalf("single knot: %v", err)
	}
	two := mustYears(t, 2)
	if v, _ := single.Value(&two); v != 0.031 {
		t.Errorf("single knot value = %v, want 0.031", v)
	}
}

func TestRate_CurveInterpolationAndExtrapolation(t *testing.T) {
	// 线性数据：各插值方式都应精确复现，且区间外线性延伸
	line := func(x float64) float64 { return 0.01 + 0.005*x }
	var points []CurvePoint
	for _, x := range []float64{0.5, 1, 2, 3, 5} {
		points = append(points, CurvePoint{Maturity: mustYears(t, x), Rate: line(x)})
	}
	for _, kind := range []Interpolation{InterpolationLinear, InterpolationQuadratic, InterpolationCubic} {
		r, err := NewCurveRate(points, kind, CompoundingContinuous)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		for _, x := range []float64{0.1, 0.75, 1.5, 4, 10} {
			m := mustYears(t, x)
			if v, _ := r.Value(&m); !near(v, line(x), 1e-12) {
				t.Errorf("%s at %v: %v, want %v", kind, x, v, line(x))
			}
		}
	}

	// 二次数据由二次插值精确复现
	quad := func(x float64) float64 { return 0.02 + 0.01*x - 0.001*x*x }
	points = points[:0]
	for _, x := range []float64{1, 2, 4, 7} {
		points = append(points, CurvePoint{Maturity: mustYears(t, x), Rate: quad(x)})
	}
	r, _ := NewCurveRate(points, InterpolationQuadratic, CompoundingContinuous)
	for _, x := range []float64{1.5, 3, 6, 9} {
		m := mustYears(t, x)
		if v, _ := r.Value(&m); !near(v, quad(x), 1e-12) {
			t.Errorf("quadratic at %v: %v, want %v", x, v, quad(x))
		}
	}
}

func TestRate_CurveErrors(t *testing.T) {
	pts := []CurvePoint{
		{Maturity: mustYears(t, 1), Rate: 0.01},
		{Maturity: mustYears(t, 2), Rate: 0.02},
	}
	if _, err := NewCurveRate(pts, InterpolationCubic, CompoundingContinuous); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("cubic with two knots: got %v", err)
	}
	dup := append(pts, CurvePoint{Maturity: mustYears(t, 1), Rate: 0.03})
	if _, err := NewCurveRate(dup, InterpolationLinear, CompoundingContinuous); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("duplicate knot: got %v", err)
	}
	r, _ := NewCurveRate(pts, InterpolationLinear, CompoundingContinuous)
	if _, err := r.Value(nil); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("curve lookup without maturity: got %v", err)
	}
	if _, err := ParseInterpolation("spline"); !errors.Is(err, ErrUnsupportedVariant) {
		t.Errorf("ParseInterpolation(spline) = %v", err)
	}
}

func TestRate_ShiftMovesEveryKnot(t *testing.T) {
	r, _ := NewCurveRate([]CurvePoint{
		{Maturity: mustYears(t, 1), Rate: 0.01},
		{Maturity: mustYears(t, 2), Rate: 0.02},
		{Maturity: mustYears(t, 3), Rate: 0.025},
		{Maturity: mustYears(t, 4), Rate: 0.027},
	}, InterpolationCubic, CompoundingContinuous)
	shifted := r.Shift(0.001)
	m := mustYears(t, 2.5)
	base, _ := r.Value(&m)
	up, _ := shifted.Value(&m)
	if !near(up-base, 0.001, 1e-15) {
		t.Errorf("shift moved value by %v", up-base)
	}
}

func TestVolatility_Surface(t *testing.T) {
	// 双线性函数在 2x2 网格上应被精确复现
	f := func(k, tau float64) float64 { return 0.2 + 0.1*(k-1) + 0.02*tau + 0.01*(k-1)*tau }
	quotes := map[float64]map[float64]float64{}
	for _, tau := range []float64{0.5, 2} {
		quotes[tau] = map[float64]float64{}
		for _, k := range []float64{0.8, 1.2} {
			quotes[tau][k] = f(k, tau)
		}
	}
	v, err := NewVolatilitySurface(quotes)
	if err != nil {
		t.Fatalf("NewVolatilitySurface: %v", err)
	}
	for _, q := range [][2]float64{{1, 1}, {0.9, 0.75}, {1.1, 1.8}, {1.3, 3}} {
		k, tau := q[0], q[1]
		got, err := v.Value(&k, &tau)
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		if !near(got, f(k, tau), 1e-12) {
			t.Errorf("vol(%v, %v) = %v, want %v", k, tau, got, f(k, tau))
		}
	}

	if _, err := v.Value(nil, nil); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("surface lookup without coordinates: got %v", err)
	}
}

func TestVolatility_Errors(t *testing.T) {
	if _, err := FlatVolatility(0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero flat vol: got %v", err)
	}
	oneMaturity := map[float64]map[float64]float64{1: {0.9: 0.2, 1.1: 0.2}}
	if _, err := NewVolatilitySurface(oneMaturity); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("single maturity: got %v", err)
	}
	oneStrike := map[float64]map[float64]float64{1: {1: 0.2}, 2: {1: 0.2}}
	if _, err := NewVolatilitySurface(oneStrike); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("single moneyness: got %v", err)
	}
	ragged := map[float64]map[float64]float64{1: {0.9: 0.2, 1.1: 0.2}, 2: {0.9: 0.2, 1.0: 0.2}}
	if _, err := NewVolatilitySurface(ragged); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ragged grid: got %v", err)
	}

	flat, _ := FlatVolatility(0.3)
	if v, err := flat.Value(nil, nil); err != nil || v != 0.3 {
		t.Errorf("flat Value = %v, %v", v, err)
	}
}

func TestError_KindsAndContext(t *testing.T) {
	err := AttachProduct(invalidInput("strike_price", "bad"), "option/vanilla")
	var de *Error
	if !errors.As(err, &de) {
		t.Fatalf("AttachProduct lost the engine error")
	}
	if de.Product != "option/vanilla" || de.Field != "strike_price" {
		t.Errorf("context = %q/%q", de.Product, de.Field)
	}
	if !errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNumericFailure) {
		t.Errorf("kind matching broken for %v", err)
	}
	if !errors.Is(numericFailure(nil, "x").withField("price"), ErrNumericFailure) {
		t.Errorf("numeric failure with field no longer matches its kind")
	}

	plain := errors.New("boom")
	if AttachProduct(plain, "bond") != plain {
		t.Errorf("non-engine error was wrapped")
	}
}

func TestPricingResult_CheckFinite(t *testing.T) {
	ok := NewPricingResult(FamilyOption, "vanilla", "bs", 10, &Greeks{Delta: 0.5})
	if err := ok.CheckFinite(); err != nil {
		t.Errorf("finite result rejected: %v", err)
	}

	cases := map[string]*PricingResult{
		"price": NewPricingResult(FamilyBond, "zero-coupon", "dcf", math.Inf(1), nil),
		"gamma": NewPricingResult(FamilyOption, "barrier", "mc", 1, &Greeks{Gamma: math.NaN()}),
		"rho":   NewPricingResult(FamilyOption, "vanilla", "bs", 1, &Greeks{Rho: math.Inf(-1)}),
	}
	for field, r := range cases {
		err := r.CheckFinite()
		var de *Error
		if !errors.As(err, &de) || de.Kind != KindNumericFailure || de.Field != field {
			t.Errorf("%s: got %v", field, err)
		}
	}

	r := NewPricingResult(FamilyBond, "vanilla", "dcf", 100, nil).WithYield(YieldResult{Yield: math.NaN(), Converged: true})
	if r.Yield != nil || r.YieldOK == nil || *r.YieldOK {
		t.Errorf("NaN yield kept: %+v", r)
	}
}
