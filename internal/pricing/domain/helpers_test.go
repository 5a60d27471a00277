package domain

import (
	"context"
	"math"
	"testing"
)

func testMarket(t testing.TB, spot, tau, r, vol, div float64) Market {
	t.Helper()
	mat, err := MaturityFromYears(tau)
	if err != nil {
		t.Fatalf("maturity: %v", err)
	}
	v, err := FlatVolatility(vol)
	if err != nil {
		t.Fatalf("volatility: %v", err)
	}
	return Market{
		Spot:       spot,
		Maturity:   mat,
		Rate:       FlatRate(r, CompoundingContinuous),
		Volatility: v,
		Dividend:   div,
	}
}

func mustPrice(t testing.TB, inst Instrument) float64 {
	t.Helper()
	p, err := inst.Price(context.Background())
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	return p
}

func mustGreeks(t testing.TB, inst Instrument) Greeks {
	t.Helper()
	g, err := inst.Greeks(context.Background())
	if err != nil {
		t.Fatalf("greeks: %v", err)
	}
	return g
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// finiteDifferenceGreeks 以中心差分重算希腊字母，用于核对解析公式
func finiteDifferenceGreeks(t *testing.T, build func(Market) Instrument, m Market) Greeks {
	t.Helper()
	const hs, hv, ht = 1e-3, 1e-5, 1e-5
	price := func(m Market) float64 { return mustPrice(t, build(m)) }

	ds := m.Spot * hs
	up, mid, down := price(m.WithSpot(m.Spot+ds)), price(m), price(m.WithSpot(m.Spot-ds))

	longer, _ := m.Maturity.Shift(ht)
	shorter, _ := m.Maturity.Shift(-ht)

	return Greeks{
		Delta: (up - down) / (2 * ds),
		Gamma: (up - 2*mid + down) / (ds * ds),
		Vega:  (price(m.WithVolatilityShift(hv)) - price(m.WithVolatilityShift(-hv))) / (2 * hv) / 100,
		Rho:   (price(m.WithRateShift(hv)) - price(m.WithRateShift(-hv))) / (2 * hv) / 100,
		Theta: -(price(m.WithMaturity(longer)) - price(m.WithMaturity(shorter))) / (2 * ht),
	}
}

func assertGreeksNear(t *testing.T, name string, got, want Greeks, tol float64) {
	t.Helper()
	check := func(field string, g, w float64) {
		if !near(g, w, tol*math.Max(1, math.Abs(w))) {
			t.Errorf("%s %s: got %.8f, want %.8f", name, field, g, w)
		}
	}
	check("delta", got.Delta, want.Delta)
	check("gamma", got.Gamma, want.Gamma)
	check("theta", got.Theta, want.Theta)
	check("vega", got.Vega, want.Vega)
	check("rho", got.Rho, want.Rho)
}
