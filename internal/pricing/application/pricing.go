package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wyfcoding/derivpricing/internal/pricing/domain"
	"github.com/wyfcoding/derivpricing/pkg/logger"
	"github.com/wyfcoding/derivpricing/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	// 批量定价的最大并发
	batchConcurrency = 4
	// 单批最多请求数
	maxBatchItems = 100
)

// PricingService 定价门面服务
type PricingService struct {
	Command   *PricingCommandService
	precision int32
}

// NewPricingService 构造函数
func NewPricingService(opts Options, cache domain.ResultCache, publisher domain.EventPublisher, collector metrics.MetricsCollector) *PricingService {
	return &PricingService{
		Command:   NewPricingCommandService(opts, cache, publisher, collector),
		precision: opts.ResultPrecision,
	}
}

func (s *PricingService) PriceOption(ctx context.Context, kind string, cmd PriceOptionCommand) (*PricingResultDTO, error) {
	return s.dto(s.Command.PriceOption(ctx, kind, cmd))
}

func (s *PricingService) PriceStrategy(ctx context.Context, kind string, cmd PriceStrategyCommand) (*PricingResultDTO, error) {
	return s.dto(s.Command.PriceStrategy(ctx, kind, cmd))
}

func (s *PricingService) PriceBond(ctx context.Context, kind string, cmd PriceBondCommand) (*PricingResultDTO, error) {
	return s.dto(s.Command.PriceBond(ctx, kind, cmd))
}

func (s *PricingService) PriceStructured(ctx context.Context, kind string, cmd PriceStructuredCommand) (*PricingResultDTO, error) {
	return s.dto(s.Command.PriceStructured(ctx, kind, cmd))
}

// Price 按产品族解码 JSON 请求并定价，供 gRPC 与命令行使用
func (s *PricingService) Price(ctx context.Context, product, kind string, payload []byte) (*PricingResultDTO, error) {
	family, err := domain.ParseProductFamily(product)
	if err != nil {
		return nil, err
	}

	switch family {
	case domain.FamilyOption:
		var cmd PriceOptionCommand
		if err := decode(payload, &cmd); err != nil {
			return nil, err
		}
		return s.PriceOption(ctx, kind, cmd)
	case domain.FamilyOptionStrategy:
		var cmd PriceStrategyCommand
		if err := decode(payload, &cmd); err != nil {
			return nil, err
		}
		return s.PriceStrategy(ctx, kind, cmd)
	case domain.FamilyBond:
		var cmd PriceBondCommand
		if err := decode(payload, &cmd); err != nil {
			return nil, err
		}
		return s.PriceBond(ctx, kind, cmd)
	default:
		var cmd PriceStructuredCommand
		if err := decode(payload, &cmd); err != nil {
			return nil, err
		}
		return s.PriceStructured(ctx, kind, cmd)
	}
}

// BatchPrice 批量定价，单个请求失败不影响其它请求
func (s *PricingService) BatchPrice(ctx context.Context, cmd BatchPriceCommand) (*BatchPricingResult, error) {
	if len(cmd.Items) == 0 {
		return nil, domain.InvalidInput("items", "batch is empty")
	}
	if len(cmd.Items) > maxBatchItems {
		return nil, domain.InvalidInput("items", "batch holds %d items, at most %d allowed", len(cmd.Items), maxBatchItems)
	}

	results := make([]BatchItemResult, len(cmd.Items))
	elapsed := make([]time.Duration, len(cmd.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, item := range cmd.Items {
		g.Go(func() error {
			start := time.Now()
			results[i].Index = i
			defer func() {
				if r := recover(); r != nil {
					logger.Error(gctx, "batch item panicked", "index", i, "panic", r)
					results[i].Result = nil
					results[i].Error = NewErrorDTO(fmt.Errorf("pricing panicked: %v", r))
					elapsed[i] = time.Since(start)
				}
			}()
			payload, err := json.Marshal(item.Params)
			if err == nil {
				var dto *PricingResultDTO
				dto, err = s.Price(gctx, item.Product, item.Kind, payload)
				results[i].Result = dto
			}
			if err != nil {
				results[i].Error = NewErrorDTO(err)
			}
			elapsed[i] = time.Since(start)
			return nil
		})
	}
	_ = g.Wait()

	out := &BatchPricingResult{BatchID: cmd.BatchID, Results: results}
	var total time.Duration
	for i, r := range results {
		if r.Error != nil {
			out.FailureCount++
		} else {
			out.SuccessCount++
		}
		total += elapsed[i]
	}
	out.AverageTime = float64(total.Milliseconds()) / float64(len(results))
	return out, nil
}

func (s *PricingService) dto(r *domain.PricingResult, err error) (*PricingResultDTO, error) {
	if err != nil {
		return nil, err
	}
	return toDTO(r, s.precision), nil
}

func decode(payload []byte, v any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = []byte("{}")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return domain.InvalidInput("", "malformed request body: %v", err)
	}
	return nil
}
