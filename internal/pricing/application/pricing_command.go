package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
	"github.com/wyfcoding/derivpricing/pkg/logger"
	"github.com/wyfcoding/derivpricing/pkg/metrics"
)

const (
	ModelBlackScholes       = "black-scholes"
	ModelBinaryBlackScholes = "black-scholes-binary"
	ModelMonteCarlo         = "monte-carlo"
	ModelDiscountedCashFlow = "discounted-cash-flow"
	ModelStructured         = "zcb-plus-black-scholes"
)

// 障碍期权一次定价的模拟次数：价格 1 次，希腊字母 8 次
const barrierRunsPerRequest = 9

// Options 定价服务参数
type Options struct {
	MonteCarlo      domain.MonteCarloConfig
	MaxPaths        int
	MaxSteps        int
	ResultPrecision int32
	CacheTTL        time.Duration
	Timeout         time.Duration
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		MonteCarlo:      domain.DefaultMonteCarloConfig(),
		MaxPaths:        200000,
		MaxSteps:        5000,
		ResultPrecision: 6,
		CacheTTL:        15 * time.Minute,
	}
}

// PricingCommandService 处理定价命令
// 缓存与事件发布为可选依赖，失败只记录日志，不影响定价结果
type PricingCommandService struct {
	cache     domain.ResultCache
	publisher domain.EventPublisher
	metrics   metrics.MetricsCollector
	validate  *validator.Validate
	opts      Options
}

// NewPricingCommandService 创建新的 PricingCommandService 实例
func NewPricingCommandService(opts Options, cache domain.ResultCache, publisher domain.EventPublisher, collector metrics.MetricsCollector) *PricingCommandService {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &PricingCommandService{
		cache:     cache,
		publisher: publisher,
		metrics:   collector,
		validate:  newValidator(),
		opts:      opts,
	}
}

// PriceOption 期权定价：vanilla / binary 解析解，barrier 蒙特卡洛
func (c *PricingCommandService) PriceOption(ctx context.Context, kind string, cmd PriceOptionCommand) (*domain.PricingResult, error) {
	k, err := domain.ParseOptionKind(kind)
	if err != nil {
		return nil, c.fail(ctx, domain.FamilyOption, "", time.Now(), err)
	}

	return c.execute(ctx, domain.FamilyOption, string(k), &cmd, func(ctx context.Context) (*domain.PricingResult, error) {
		mc, err := c.monteCarlo(cmd.NumPaths, cmd.NumSteps, cmd.Seed)
		if err != nil {
			return nil, err
		}
		inst, err := cmd.toInstrument(k, mc)
		if err != nil {
			return nil, err
		}

		model := ModelBlackScholes
		switch k {
		case domain.OptionBinary:
			model = ModelBinaryBlackScholes
		case domain.OptionBarrier:
			model = ModelMonteCarlo
		}

		result, err := priceAndGreeks(ctx, inst, domain.FamilyOption, string(k), model)
		if k == domain.OptionBarrier {
			c.metrics.RecordMonteCarloPaths(mc.Paths * barrierRunsPerRequest)
		}
		return result, err
	})
}

// PriceStrategy 期权组合定价
func (c *PricingCommandService) PriceStrategy(ctx context.Context, kind string, cmd PriceStrategyCommand) (*domain.PricingResult, error) {
	k, err := domain.ParseStrategyKind(kind)
	if err != nil {
		return nil, c.fail(ctx, domain.FamilyOptionStrategy, "", time.Now(), err)
	}

	return c.execute(ctx, domain.FamilyOptionStrategy, string(k), &cmd, func(ctx context.Context) (*domain.PricingResult, error) {
		s, err := cmd.toStrategy(k)
		if err != nil {
			return nil, err
		}
		return priceAndGreeks(ctx, s, domain.FamilyOptionStrategy, string(k), ModelBlackScholes)
	})
}

// PriceBond 债券定价，付息债券附带到期收益率
// 收益率未收敛时结果标记 ytm_converged=false，请求本身不失败
func (c *PricingCommandService) PriceBond(ctx context.Context, kind string, cmd PriceBondCommand) (*domain.PricingResult, error) {
	k, err := domain.ParseBondKind(kind)
	if err != nil {
		return nil, c.fail(ctx, domain.FamilyBond, "", time.Now(), err)
	}

	return c.execute(ctx, domain.FamilyBond, string(k), &cmd, func(ctx context.Context) (*domain.PricingResult, error) {
		mat, err := cmd.MaturityInput.toMaturity()
		if err != nil {
			return nil, err
		}
		rate, err := cmd.RateInput.toRate()
		if err != nil {
			return nil, err
		}

		if k == domain.BondZeroCoupon {
			zcb, err := domain.NewZeroCouponBond(rate, mat, cmd.Nominal)
			if err != nil {
				return nil, err
			}
			price, err := zcb.Price()
			if err != nil {
				return nil, err
			}
			return domain.NewPricingResult(domain.FamilyBond, string(k), ModelDiscountedCashFlow, price, nil), nil
		}

		bond, err := domain.NewBond(rate, mat, cmd.Nominal, cmd.CouponRate, cmd.NbCoupon)
		if err != nil {
			return nil, err
		}
		price, err := bond.Price()
		if err != nil {
			return nil, err
		}
		result := domain.NewPricingResult(domain.FamilyBond, string(k), ModelDiscountedCashFlow, price, nil)
		if err := result.CheckFinite(); err != nil {
			return nil, err
		}

		target := price
		if cmd.MarketPrice != nil {
			target = *cmd.MarketPrice
		}
		guess := domain.DefaultYieldGuess
		if cmd.YieldGuess != nil {
			guess = *cmd.YieldGuess
		}
		ytm, err := bond.YieldToMaturity(target, guess)
		switch {
		case errors.Is(err, domain.ErrNumericFailure):
			c.metrics.RecordYTMFailure()
			logger.Warn(ctx, "yield to maturity did not converge", "target", target, "residual", ytm.Residual, "error", err)
		case err != nil:
			return nil, err
		}
		return result.WithYield(ytm), nil
	})
}

// PriceStructured 结构化产品定价
func (c *PricingCommandService) PriceStructured(ctx context.Context, kind string, cmd PriceStructuredCommand) (*domain.PricingResult, error) {
	k, err := domain.ParseStructuredKind(kind)
	if err != nil {
		return nil, c.fail(ctx, domain.FamilyStructuredProduct, "", time.Now(), err)
	}

	return c.execute(ctx, domain.FamilyStructuredProduct, string(k), &cmd, func(ctx context.Context) (*domain.PricingResult, error) {
		inst, err := cmd.toInstrument(k)
		if err != nil {
			return nil, err
		}
		return priceAndGreeks(ctx, inst, domain.FamilyStructuredProduct, string(k), ModelStructured)
	})
}

// execute 统一的定价流程：校验、查缓存、计算、写缓存、记录指标、发布事件
func (c *PricingCommandService) execute(ctx context.Context, product domain.ProductFamily, kind string, cmd any,
	compute func(context.Context) (*domain.PricingResult, error)) (*domain.PricingResult, error) {
	start := time.Now()
	defer logger.LogDuration(ctx, "pricing request finished", "product", product, "kind", kind)()

	if err := validateCommand(c.validate, cmd); err != nil {
		return nil, c.fail(ctx, product, kind, start, err)
	}

	key := c.cacheKey(product, kind, cmd)
	if cached := c.lookup(ctx, key); cached != nil {
		c.succeed(ctx, cached, start, true)
		return cached, nil
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	result, err := compute(ctx)
	if err == nil {
		err = result.CheckFinite()
	}
	if err != nil {
		return nil, c.fail(ctx, product, kind, start, err)
	}

	c.store(ctx, key, result)
	c.succeed(ctx, result, start, false)
	return result, nil
}

// priceAndGreeks 先算价格再算希腊字母
func priceAndGreeks(ctx context.Context, inst domain.Instrument, product domain.ProductFamily, kind, model string) (*domain.PricingResult, error) {
	price, err := inst.Price(ctx)
	if err != nil {
		return nil, err
	}
	greeks, err := inst.Greeks(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewPricingResult(product, kind, model, price, &greeks), nil
}

// monteCarlo 合并请求覆盖项与服务默认值，超出上限视为无效输入
func (c *PricingCommandService) monteCarlo(paths, steps *int, seed *uint64) (domain.MonteCarloConfig, error) {
	mc := c.opts.MonteCarlo
	if paths != nil {
		if c.opts.MaxPaths > 0 && *paths > c.opts.MaxPaths {
			return mc, domain.InvalidInput("num_paths", "must be at most %d", c.opts.MaxPaths)
		}
		mc.Paths = *paths
	}
	if steps != nil {
		if c.opts.MaxSteps > 0 && *steps > c.opts.MaxSteps {
			return mc, domain.InvalidInput("num_steps", "must be at most %d", c.opts.MaxSteps)
		}
		mc.Steps = *steps
	}
	if seed != nil {
		mc.Seed = *seed
	}
	return mc, mc.Validate()
}

// cacheKey sha256(product|kind|模拟参数|请求 JSON)
// encoding/json 对 map 按 key 排序，同一请求得到同一 key
func (c *PricingCommandService) cacheKey(product domain.ProductFamily, kind string, cmd any) string {
	if c.cache == nil {
		return ""
	}
	body, err := json.Marshal(cmd)
	if err != nil {
		return ""
	}
	mc := c.opts.MonteCarlo
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%d|%d|", product, kind, mc.Paths, mc.Steps, mc.Seed)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *PricingCommandService) lookup(ctx context.Context, key string) *domain.PricingResult {
	if c.cache == nil || key == "" {
		return nil
	}
	result, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, "pricing cache lookup failed", "error", err)
		return nil
	}
	c.metrics.RecordCacheLookup(result != nil)
	return result
}

func (c *PricingCommandService) store(ctx context.Context, key string, result *domain.PricingResult) {
	if c.cache == nil || key == "" {
		return
	}
	if err := c.cache.Set(ctx, key, result, c.opts.CacheTTL); err != nil {
		logger.Warn(ctx, "pricing cache store failed", "error", err)
	}
}

func (c *PricingCommandService) succeed(ctx context.Context, result *domain.PricingResult, start time.Time, cacheHit bool) {
	elapsed := time.Since(start)
	c.metrics.RecordPricing(string(result.Product), result.Kind, "success", elapsed.Seconds())
	logger.Info(ctx, "product priced",
		"product", result.Product,
		"kind", result.Kind,
		"price", result.Price,
		"cache_hit", cacheHit,
		"duration", elapsed)

	if c.publisher == nil {
		return
	}
	event := domain.ProductPricedEvent{
		RequestID:    logger.RequestID(ctx),
		Product:      result.Product,
		Kind:         result.Kind,
		Price:        result.Price,
		Greeks:       result.Greeks,
		PricingModel: result.PricingModel,
		DurationMs:   elapsed.Milliseconds(),
		CacheHit:     cacheHit,
		OccurredOn:   time.Now(),
	}
	if err := c.publisher.PublishProductPriced(context.WithoutCancel(ctx), event); err != nil {
		logger.Error(ctx, "failed to publish ProductPriced event", "error", err)
	}
}

// fail 补充产品上下文，记录指标、日志与失败事件
// 引擎错误保持 domain.Error，超时与取消等其它错误包装为带产品信息的 xerrors.Error
func (c *PricingCommandService) fail(ctx context.Context, product domain.ProductFamily, kind string, start time.Time, err error) error {
	label := string(product)
	if kind != "" {
		label += "/" + kind
	}

	var de *domain.Error
	if errors.As(err, &de) {
		err = domain.AttachProduct(err, label)
	} else {
		err = wrapCoreError(err, label)
	}
	xe := ToXError(err)
	code, field := ErrorCode(xe), contextString(xe, ContextField)

	metricKind := kind
	if metricKind == "" {
		metricKind = "unknown"
	}
	c.metrics.RecordPricing(string(product), metricKind, code, time.Since(start).Seconds())

	if de != nil && de.Kind != domain.KindNumericFailure {
		logger.Warn(ctx, "pricing request rejected", "product", label, "code", code, "field", field, "error", err)
	} else {
		logger.Error(ctx, "pricing failed", "product", label, "code", code, "error", err)
	}

	if c.publisher != nil {
		event := domain.PricingFailedEvent{
			RequestID:  logger.RequestID(ctx),
			Product:    product,
			Kind:       kind,
			ErrorCode:  code,
			Field:      field,
			Error:      err.Error(),
			OccurredOn: time.Now(),
		}
		if perr := c.publisher.PublishPricingFailed(context.WithoutCancel(ctx), event); perr != nil {
			logger.Error(ctx, "failed to publish PricingFailed event", "error", perr)
		}
	}
	return err
}
