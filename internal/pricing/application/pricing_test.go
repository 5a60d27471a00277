package application

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
	"github.com/wyfcoding/derivpricing/pkg/logger"
	"github.com/wyfcoding/derivpricing/pkg/metrics"
	"github.com/wyfcoding/pkg/xerrors"
)

func newTestService(cache domain.ResultCache, pub domain.EventPublisher, collector metrics.MetricsCollector) *PricingService {
	opts := DefaultOptions()
	opts.MonteCarlo.Paths = 2000
	opts.MonteCarlo.Steps = 50
	opts.MaxPaths = 50000
	return NewPricingService(opts, cache, pub, collector)
}

func TestPriceOption_VanillaReference(t *testing.T) {
	cache := newMemCache()
	pub := &recordingPublisher{}
	svc := newTestService(cache, pub, nil)
	ctx := logger.WithRequestID(context.Background(), "req-1")

	cmd := PriceOptionCommand{MarketInput: flatMarket(100, 1, 0.05, 0.2), StrikePrice: 100, OptionType: "call"}
	res, err := svc.PriceOption(ctx, "vanilla", cmd)
	if err != nil {
		t.Fatalf("PriceOption: %v", err)
	}
	if !near(res.Price, 10.450584, 1e-6) || res.Delta == nil || !near(*res.Delta, 0.636831, 1e-6) {
		t.Errorf("price/delta = %v/%v", res.Price, res.Delta)
	}
	if res.PricingModel != ModelBlackScholes || res.Product != "option" || res.Kind != "vanilla" {
		t.Errorf("result labels = %+v", res)
	}
	if res.YTM != nil {
		t.Errorf("option result carries a yield")
	}

	if len(pub.priced) != 1 || pub.priced[0].RequestID != "req-1" || pub.priced[0].CacheHit {
		t.Fatalf("priced events = %+v", pub.priced)
	}

	// 相同请求命中缓存
	again, err := svc.PriceOption(ctx, "VANILLA", cmd)
	if err != nil {
		t.Fatalf("second PriceOption: %v", err)
	}
	if again.Price != res.Price || cache.hits != 1 {
		t.Errorf("cache hits = %d, price %v vs %v", cache.hits, again.Price, res.Price)
	}
	if len(pub.priced) != 2 || !pub.priced[1].CacheHit {
		t.Errorf("cache hit event missing: %+v", pub.priced)
	}

	// 参数不同则 key 不同
	cmd.StrikePrice = 105
	if _, err := svc.PriceOption(ctx, "vanilla", cmd); err != nil {
		t.Fatal(err)
	}
	if cache.hits != 1 || len(cache.items) != 2 {
		t.Errorf("distinct request reused a cache entry")
	}
}

func TestPriceOption_ValidationErrors(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(nil, pub, nil)
	ctx := context.Background()

	both := flatMarket(100, 1, 0.05, 0.2)
	both.RateCurve = map[string]float64{"1": 0.05, "2": 0.06}

	noVol := flatMarket(100, 1, 0.05, 0.2)
	noVol.Volatility = nil

	twoMaturities := flatMarket(100, 1, 0.05, 0.2)
	twoMaturities.MaturityDays = f64(90)

	cases := []struct {
		name  string
		kind  string
		cmd   PriceOptionCommand
		want  error
		field string
	}{
		{"rate and curve", "vanilla", PriceOptionCommand{MarketInput: both, StrikePrice: 100, OptionType: "call"}, domain.ErrInvalidInput, "rate"},
		{"no volatility", "vanilla", PriceOptionCommand{MarketInput: noVol, StrikePrice: 100, OptionType: "call"}, domain.ErrInvalidInput, "volatility"},
		{"zero spot", "vanilla", PriceOptionCommand{MarketInput: flatMarket(0, 1, 0.05, 0.2), StrikePrice: 100, OptionType: "call"}, domain.ErrInvalidInput, "spot_price"},
		{"two maturity modes", "vanilla", PriceOptionCommand{MarketInput: twoMaturities, StrikePrice: 100, OptionType: "call"}, domain.ErrInvalidInput, "maturity"},
		{"bad option type", "vanilla", PriceOptionCommand{MarketInput: flatMarket(100, 1, 0.05, 0.2), StrikePrice: 100, OptionType: "chooser"}, domain.ErrUnsupportedVariant, "option_type"},
		{"bad kind", "asian", PriceOptionCommand{MarketInput: flatMarket(100, 1, 0.05, 0.2), StrikePrice: 100, OptionType: "call"}, domain.ErrUnsupportedVariant, "option"},
		{"barrier without level", "barrier", PriceOptionCommand{MarketInput: flatMarket(100, 1, 0.05, 0.2), StrikePrice: 100, OptionType: "call", BarrierType: "ko", BarrierDirection: "up"}, domain.ErrInvalidInput, "barrier_level"},
		{"too many paths", "barrier", PriceOptionCommand{MarketInput: flatMarket(100, 1, 0.05, 0.2), StrikePrice: 100, OptionType: "call", BarrierLevel: f64(120), BarrierType: "ko", BarrierDirection: "up", NumPaths: intp(1_000_000)}, domain.ErrInvalidInput, "num_paths"},
	}

	for _, tc := range cases {
		_, err := svc.PriceOption(ctx, tc.kind, tc.cmd)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
			continue
		}
		var de *domain.Error
		if !errors.As(err, &de) {
			t.Errorf("%s: %T is not an engine error", tc.name, err)
			continue
		}
		if de.Field != tc.field {
			t.Errorf("%s: field = %q, want %q", tc.name, de.Field, tc.field)
		}
		if de.Product == "" {
			t.Errorf("%s: product context missing", tc.name)
		}
	}
	if len(pub.failed) != len(cases) || len(pub.priced) != 0 {
		t.Errorf("events: %d failed, %d priced", len(pub.failed), len(pub.priced))
	}
	if pub.failed[0].ErrorCode != "INVALID_INPUT" || pub.failed[0].Field != "rate" {
		t.Errorf("failed event = %+v", pub.failed[0])
	}
}

func TestPriceOption_BarrierRecordsPaths(t *testing.T) {
	m := metrics.New("pricing-test")
	svc := newTestService(nil, nil, metrics.NewDefaultMetricsCollector(m))

	cmd := PriceOptionCommand{
		MarketInput:      flatMarket(100, 0.5, 0.03, 0.25),
		StrikePrice:      100,
		OptionType:       "call",
		BarrierLevel:     f64(130),
		BarrierType:      "KO",
		BarrierDirection: "up",
		NumPaths:         intp(1000),
		NumSteps:         intp(20),
	}
	res, err := svc.PriceOption(context.Background(), "barrier", cmd)
	if err != nil {
		t.Fatalf("barrier: %v", err)
	}
	if res.PricingModel != ModelMonteCarlo || !(res.Price > 0) || res.Delta == nil {
		t.Errorf("barrier result = %+v", res)
	}
	if got := testutil.ToFloat64(m.MonteCarloPathsTotal); got != 9000 {
		t.Errorf("monte_carlo_paths_total = %v, want 9000", got)
	}
	if got := testutil.ToFloat64(m.PricingRequestsTotal.WithLabelValues("option", "barrier", "success")); got != 1 {
		t.Errorf("pricing_requests_total = %v", got)
	}
}

func TestPriceOption_RateCurveAndSurface(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	in := MarketInput{
		MaturityInput: MaturityInput{MaturityDays: f64(180), DayCount: "ACT/365"},
		RateInput:     RateInput{RateCurve: map[string]float64{"0.25": 0.02, "1": 0.03, "2": 0.035}, Interpolation: "quadratic"},
		SpotPrice:     100,
		VolatilitySurface: map[string]map[string]float64{
			"0.25": {"0.8": 0.28, "1.0": 0.22, "1.2": 0.25},
			"1":    {"0.8": 0.26, "1.0": 0.21, "1.2": 0.23},
		},
	}
	res, err := svc.PriceOption(context.Background(), "vanilla", PriceOptionCommand{MarketInput: in, StrikePrice: 95, OptionType: "put"})
	if err != nil {
		t.Fatalf("PriceOption: %v", err)
	}
	if !(res.Price > 0) || *res.Delta >= 0 {
		t.Errorf("put on curve = %+v", res)
	}

	in.VolatilitySurface = map[string]map[string]float64{"1": {"1.0": 0.2}}
	if _, err := svc.PriceOption(context.Background(), "vanilla", PriceOptionCommand{MarketInput: in, StrikePrice: 95, OptionType: "put"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("degenerate surface: got %v", err)
	}
}

func TestPriceStrategy(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	ctx := context.Background()
	m := flatMarket(100, 1, 0.05, 0.2)

	res, err := svc.PriceStrategy(ctx, "butterfly", PriceStrategyCommand{
		MarketInput: m, StrikePrice1: f64(90), StrikePrice2: f64(100), StrikePrice3: f64(110),
	})
	if err != nil {
		t.Fatalf("butterfly: %v", err)
	}
	if !(res.Price > 0) {
		t.Errorf("butterfly price = %v", res.Price)
	}

	_, err = svc.PriceStrategy(ctx, "butterfly", PriceStrategyCommand{MarketInput: m, StrikePrice1: f64(90), StrikePrice2: f64(100)})
	var de *domain.Error
	if !errors.As(err, &de) || de.Field != "strike_price3" {
		t.Errorf("missing third strike: got %v", err)
	}

	_, err = svc.PriceStrategy(ctx, "call-spread", PriceStrategyCommand{MarketInput: m, LowerStrike: f64(110), UpperStrike: f64(90)})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("inverted spread: got %v", err)
	}

	straddle, err := svc.PriceStrategy(ctx, "straddle", PriceStrategyCommand{MarketInput: m, StrikePrice: f64(100)})
	if err != nil {
		t.Fatal(err)
	}
	call, _ := svc.PriceOption(ctx, "vanilla", PriceOptionCommand{MarketInput: m, StrikePrice: 100, OptionType: "call"})
	put, _ := svc.PriceOption(ctx, "vanilla", PriceOptionCommand{MarketInput: m, StrikePrice: 100, OptionType: "put"})
	if !near(straddle.Price, call.Price+put.Price, 2e-6) {
		t.Errorf("straddle %v != call %v + put %v", straddle.Price, call.Price, put.Price)
	}
}

func TestPriceBond(t *testing.T) {
	m := metrics.New("pricing-test")
	svc := newTestService(nil, nil, metrics.NewDefaultMetricsCollector(m))
	ctx := context.Background()

	zcb, err := svc.PriceBond(ctx, "zero-coupon", PriceBondCommand{
		MaturityInput: MaturityInput{Maturity: f64(1)},
		RateInput:     RateInput{Rate: f64(0.05)},
		Nominal:       100,
	})
	if err != nil {
		t.Fatalf("zero-coupon: %v", err)
	}
	if !near(zcb.Price, 100*math.Exp(-0.05), 1e-6) || zcb.Delta != nil || zcb.YTM != nil {
		t.Errorf("zero-coupon = %+v", zcb)
	}

	bond, err := svc.PriceBond(ctx, "vanilla", PriceBondCommand{
		MaturityInput: MaturityInput{Maturity: f64(5)},
		RateInput:     RateInput{Rate: f64(0.04)},
		Nominal:       100,
		CouponRate:    0.05,
		NbCoupon:      2,
		MarketPrice:   f64(102),
	})
	if err != nil {
		t.Fatalf("vanilla bond: %v", err)
	}
	if bond.YTM == nil || bond.YTMConverged == nil || !*bond.YTMConverged {
		t.Fatalf("ytm missing: %+v", bond)
	}
	// 市价低于按 4% 定价的理论价，收益率应高于 4%
	if *bond.YTM <= 0.04 || *bond.YTM > 0.06 {
		t.Errorf("ytm = %v", *bond.YTM)
	}

	if _, err := svc.PriceBond(ctx, "vanilla", PriceBondCommand{
		MaturityInput: MaturityInput{Maturity: f64(5)},
		RateInput:     RateInput{Rate: f64(0.04)},
		Nominal:       100,
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("nb_coupon 0: got %v", err)
	}
	if got := testutil.ToFloat64(m.YTMFailuresTotal); got != 0 {
		t.Errorf("ytm failures = %v", got)
	}
}

func TestPriceJSON_Dispatch(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	ctx := context.Background()

	body := []byte(`{"spot_price":100,"maturity":1,"rate":0.05,"volatility":0.2,
		"strike_price":95,"nominal":1000,"converse_rate":0.3}`)
	rc, err := svc.Price(ctx, "structured-product", "reverse-convertible", body)
	if err != nil {
		t.Fatalf("reverse convertible: %v", err)
	}
	if rc.Delta == nil || *rc.Delta <= 0 {
		t.Errorf("reverse convertible delta = %v", rc.Delta)
	}

	out, err := svc.Price(ctx, "structured-product", "outperformer-certificate",
		[]byte(`{"spot_price":100,"maturity":2,"rate":0.03,"volatility":0.2,"dividend":0.02,"participation":1.5}`))
	if err != nil {
		t.Fatalf("outperformer: %v", err)
	}
	if *out.Delta <= 1 {
		t.Errorf("outperformer delta = %v, want > 1", *out.Delta)
	}

	if _, err := svc.Price(ctx, "swap", "irs", body); !errors.Is(err, domain.ErrUnsupportedVariant) {
		t.Errorf("unknown product: got %v", err)
	}
	if _, err := svc.Price(ctx, "option", "vanilla", []byte(`{"spot_price":"abc"}`)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("malformed body: got %v", err)
	}
	if _, err := svc.Price(ctx, "structured-product", "outperformer-certificate",
		[]byte(`{"spot_price":100,"maturity":2,"rate":0.03,"volatility":0.2,"participation":1}`)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("participation 1: got %v", err)
	}
}

func TestBatchPrice(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	res, err := svc.BatchPrice(context.Background(), BatchPriceCommand{
		BatchID: "b-1",
		Items: []BatchPriceItem{
			{Product: "option", Kind: "binary", Params: map[string]any{
				"spot_price": 100, "maturity": 1, "rate": 0.05, "volatility": 0.2, "strike_price": 100, "option_type": "call",
			}},
			{Product: "bond", Kind: "zero-coupon", Params: map[string]any{"maturity": -1, "rate": 0.05, "nominal": 100}},
		},
	})
	if err != nil {
		t.Fatalf("BatchPrice: %v", err)
	}
	if res.SuccessCount != 1 || res.FailureCount != 1 {
		t.Fatalf("counts = %d/%d", res.SuccessCount, res.FailureCount)
	}
	if r := res.Results[0].Result; r == nil || !near(r.Price, 0.532325, 1e-5) {
		t.Errorf("binary = %+v", res.Results[0])
	}
	if e := res.Results[1].Error; e == nil || e.Code != "INVALID_INPUT" || e.Field != "maturity" {
		t.Errorf("bond error = %+v", res.Results[1].Error)
	}

	if _, err := svc.BatchPrice(context.Background(), BatchPriceCommand{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty batch: got %v", err)
	}
}

// 三次样条外推到 60 年时贴现因子溢出为 +Inf
func divergentCurveBond(kind string) map[string]any {
	params := map[string]any{
		"maturity":      60,
		"rate_curve":    map[string]any{"0.5": 0.01, "1": 0.05, "2": 0.02, "3": 0.04},
		"interpolation": "cubic",
		"nominal":       100,
	}
	if kind == "vanilla" {
		params["coupon_rate"] = 0.05
		params["nb_coupon"] = 1
	}
	return params
}

func TestPriceBond_NonFiniteResultIsNumericFailure(t *testing.T) {
	m := metrics.New("pricing-test")
	pub := &recordingPublisher{}
	svc := newTestService(nil, pub, metrics.NewDefaultMetricsCollector(m))
	ctx := context.Background()

	for _, kind := range []string{"zero-coupon", "vanilla"} {
		cmd := PriceBondCommand{
			MaturityInput: MaturityInput{Maturity: f64(60)},
			RateInput: RateInput{
				RateCurve:     map[string]float64{"0.5": 0.01, "1": 0.05, "2": 0.02, "3": 0.04},
				Interpolation: "cubic",
			},
			Nominal: 100,
		}
		if kind == "vanilla" {
			cmd.CouponRate, cmd.NbCoupon = 0.05, 1
		}

		_, err := svc.PriceBond(ctx, kind, cmd)
		if !errors.Is(err, domain.ErrNumericFailure) {
			t.Fatalf("%s: got %v, want numeric failure", kind, err)
		}
		var de *domain.Error
		if !errors.As(err, &de) || de.Field != "price" || de.Product != "bond/"+kind {
			t.Errorf("%s: error context = %+v", kind, de)
		}
		if got := ToXError(err).Code; got != 422 {
			t.Errorf("%s: status = %d, want 422", kind, got)
		}
		if got := testutil.ToFloat64(m.PricingRequestsTotal.WithLabelValues("bond", kind, "NUMERIC_FAILURE")); got != 1 {
			t.Errorf("%s: pricing_requests_total{NUMERIC_FAILURE} = %v", kind, got)
		}
	}
	if got := testutil.ToFloat64(m.YTMFailuresTotal); got != 0 {
		t.Errorf("ytm failures = %v, a non-finite price must fail before the yield search", got)
	}
	if len(pub.failed) != 2 || pub.failed[0].ErrorCode != "NUMERIC_FAILURE" || len(pub.priced) != 0 {
		t.Errorf("events: failed %+v, priced %d", pub.failed, len(pub.priced))
	}
}

func TestBatchPrice_NonFiniteItemDoesNotAbortBatch(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	res, err := svc.BatchPrice(context.Background(), BatchPriceCommand{
		BatchID: "b-inf",
		Items: []BatchPriceItem{
			{Product: "bond", Kind: "zero-coupon", Params: divergentCurveBond("zero-coupon")},
			{Product: "bond", Kind: "vanilla", Params: divergentCurveBond("vanilla")},
			{Product: "bond", Kind: "zero-coupon", Params: map[string]any{"maturity": 1, "rate": 0.05, "nominal": 100}},
		},
	})
	if err != nil {
		t.Fatalf("BatchPrice: %v", err)
	}
	if res.SuccessCount != 1 || res.FailureCount != 2 {
		t.Fatalf("counts = %d/%d", res.SuccessCount, res.FailureCount)
	}
	for _, i := range []int{0, 1} {
		if e := res.Results[i].Error; e == nil || e.Code != "NUMERIC_FAILURE" || e.Field != "price" {
			t.Errorf("item %d error = %+v", i, e)
		}
	}
	if r := res.Results[2].Result; r == nil || !near(r.Price, 100*math.Exp(-0.05), 1e-6) {
		t.Errorf("item 2 = %+v", res.Results[2])
	}
}

func TestToDTO_NonFiniteValuesDoNotPanic(t *testing.T) {
	r := domain.NewPricingResult(domain.FamilyOption, "vanilla", ModelBlackScholes, math.Inf(1), &domain.Greeks{Delta: math.NaN()})
	dto := toDTO(r, 6)
	if !math.IsInf(dto.Price, 1) || !math.IsNaN(*dto.Delta) {
		t.Errorf("dto = %+v", dto)
	}
}

func TestPriceBond_YieldNotConverged(t *testing.T) {
	m := metrics.New("pricing-test")
	svc := newTestService(nil, nil, metrics.NewDefaultMetricsCollector(m))

	res, err := svc.PriceBond(context.Background(), "vanilla", PriceBondCommand{
		MaturityInput: MaturityInput{Maturity: f64(5)},
		RateInput:     RateInput{Rate: f64(0.04)},
		Nominal:       100,
		CouponRate:    0.05,
		NbCoupon:      2,
		YieldGuess:    f64(1e6),
	})
	if err != nil {
		t.Fatalf("non-converged yield must not fail the request: %v", err)
	}
	if res.YTMConverged == nil || *res.YTMConverged {
		t.Errorf("ytm_converged = %v, want false", res.YTMConverged)
	}
	if res.YTM == nil {
		t.Errorf("last yield iterate missing")
	}
	if !(res.Price > 0) {
		t.Errorf("price = %v", res.Price)
	}
	if got := testutil.ToFloat64(m.YTMFailuresTotal); got != 1 {
		t.Errorf("ytm_failures_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PricingRequestsTotal.WithLabelValues("bond", "vanilla", "success")); got != 1 {
		t.Errorf("pricing_requests_total{success} = %v", got)
	}
}

func TestPriceOption_Timeout(t *testing.T) {
	m := metrics.New("pricing-test")
	pub := &recordingPublisher{}
	opts := DefaultOptions()
	opts.Timeout = time.Nanosecond
	svc := NewPricingService(opts, nil, pub, metrics.NewDefaultMetricsCollector(m))

	cmd := PriceOptionCommand{
		MarketInput:      flatMarket(100, 1, 0.05, 0.2),
		StrikePrice:      100,
		OptionType:       "call",
		BarrierLevel:     f64(130),
		BarrierType:      "ko",
		BarrierDirection: "up",
	}
	_, err := svc.PriceOption(context.Background(), "barrier", cmd)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}

	xe := ToXError(err)
	if xe.Type != xerrors.ErrDeadlineExceeded || xe.Code != 504 || xe.HTTPStatus() != 504 {
		t.Errorf("xerror = %+v", xe)
	}
	if ErrorCode(xe) != CodeTimeout || contextString(xe, ContextProduct) != "option/barrier" {
		t.Errorf("context = %v", xe.Context)
	}
	if dto := NewErrorDTO(err); dto.Code != CodeTimeout || dto.Product != "option/barrier" {
		t.Errorf("error dto = %+v", dto)
	}
	if got := testutil.ToFloat64(m.PricingRequestsTotal.WithLabelValues("option", "barrier", CodeTimeout)); got != 1 {
		t.Errorf("pricing_requests_total{TIMEOUT} = %v", got)
	}
	if len(pub.failed) != 1 || pub.failed[0].ErrorCode != CodeTimeout {
		t.Errorf("failed events = %+v", pub.failed)
	}
}

func TestToXError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		typ     xerrors.ErrorType
		code    int
		errCode string
	}{
		{"invalid input", domain.InvalidInput("strike_price", "bad"), xerrors.ErrInvalidArg, 400, "INVALID_INPUT"},
		{"numeric", &domain.Error{Kind: domain.KindNumericFailure}, xerrors.ErrInvalidArg, 422, "NUMERIC_FAILURE"},
		{"unsupported", domain.ErrUnsupportedVariant, xerrors.ErrInvalidArg, 400, "UNSUPPORTED_VARIANT"},
		{"canceled", context.Canceled, xerrors.ErrUnknown, StatusClientClosed, CodeCanceled},
		{"other", errors.New("boom"), xerrors.ErrInternal, 500, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xe := ToXError(tt.err)
			if xe.Type != tt.typ || xe.Code != tt.code || ErrorCode(xe) != tt.errCode {
				t.Errorf("got type %v code %d error_code %s", xe.Type, xe.Code, ErrorCode(xe))
			}
			if !errors.Is(xe, tt.err) {
				t.Errorf("cause lost")
			}
		})
	}
	if ToXError(nil) != nil {
		t.Errorf("nil error converted")
	}
}
