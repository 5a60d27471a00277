package domain

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultMonteCarloPaths = 20000
	DefaultMonteCarloSteps = 500
	DefaultMonteCarloSeed  = 42

	// 每个并行任务负责的路径数
	pathsPerChunk = 512
)

// MonteCarloConfig 蒙特卡洛参数
// 第 i 条路径固定使用 PCG(Seed, i) 随机流，同一 Seed 下结果可复现，
// 不同扰动场景共享同一组随机数
type MonteCarloConfig struct {
	Paths   int
	Steps   int
	Seed    uint64
	Workers int // <=0 时取 GOMAXPROCS
}

// DefaultMonteCarloConfig 默认 20000 条路径 × 500 步
func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{
		Paths: DefaultMonteCarloPaths,
		Steps: DefaultMonteCarloSteps,
		Seed:  DefaultMonteCarloSeed,
	}
}

// Validate 校验参数
func (c MonteCarloConfig) Validate() error {
	if c.Paths <= 0 {
		return invalidInput("num_paths", "path count must be positive, got %d", c.Paths)
	}
	if c.Steps <= 0 {
		return invalidInput("num_steps", "step count must be positive, got %d", c.Steps)
	}
	return nil
}

// gbmModel 风险中性几何布朗运动
type gbmModel struct {
	spot  float64
	carry float64 // r - q
	sigma float64
	tau   float64
}

// pathSummary 单条路径的终值与极值，极值包含起点
type pathSummary struct {
	last, low, high float64
}

// simulateMean 并行模拟全部路径，返回收益均值
// 分块部分和按块序合并，结果与 Workers 无关
func (c MonteCarloConfig) simulateMean(ctx context.Context, m gbmModel, payoff func(pathSummary) float64) (float64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	dt := m.tau / float64(c.Steps)
	nudt := (m.carry - 0.5*m.sigma*m.sigma) * dt
	volsdt := m.sigma * math.Sqrt(dt)
	logSpot := math.Log(m.spot)

	chunks := (c.Paths + pathsPerChunk - 1) / pathsPerChunk
	sums := make([]float64, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for ci := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := rand.NewPCG(0, 0)
			rng := rand.New(src)
			start := ci * pathsPerChunk
			end := min(start+pathsPerChunk, c.Paths)

			var sum float64
			for i := start; i < end; i++ {
				src.Seed(c.Seed, uint64(i))
				x, lo, hi := logSpot, logSpot, logSpot
				for range c.Steps {
					x += nudt + volsdt*rng.NormFloat64()
					lo = math.Min(lo, x)
					hi = math.Max(hi, x)
				}
				sum += payoff(pathSummary{last: math.Exp(x), low: math.Exp(lo), high: math.Exp(hi)})
			}
			sums[ci] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total float64
	for _, s := range sums {
		total += s
	}
	return total / float64(c.Paths), nil
}
