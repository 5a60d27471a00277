package domain

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Interpolation 插值方式
type Interpolation int

const (
	InterpolationLinear    Interpolation = iota // 默认
	InterpolationQuadratic                      // 局部三点二次
	InterpolationCubic                          // 自然三次样条
)

// ParseInterpolation 解析插值方式，空串取线性
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return InterpolationLinear, nil
	case "quadratic":
		return InterpolationQuadratic, nil
	case "cubic":
		return InterpolationCubic, nil
	default:
		return InterpolationLinear, unsupportedVariant("interpolation", s)
	}
}

func (k Interpolation) String() string {
	switch k {
	case InterpolationQuadratic:
		return "quadratic"
	case InterpolationCubic:
		return "cubic"
	default:
		return "linear"
	}
}

// minKnots 各插值方式所需的最少节点数
func (k Interpolation) minKnots() int {
	switch k {
	case InterpolationQuadratic:
		return 3
	case InterpolationCubic:
		return 4
	default:
		return 2
	}
}

// interpolationFor 按节点数选取可用的最高阶
func interpolationFor(n int) Interpolation {
	switch {
	case n >= 4:
		return InterpolationCubic
	case n == 3:
		return InterpolationQuadratic
	default:
		return InterpolationLinear
	}
}

// interpolator 一维插值器，区间外沿端部多项式延伸，不做截断
type interpolator struct {
	kind Interpolation
	xs   []float64
	ys   []float64
	m    []float64 // 三次样条各节点二阶导
}

func newInterpolator(xs, ys []float64, kind Interpolation, field string) (*interpolator, error) {
	if len(xs) != len(ys) {
		return nil, invalidInput(field, "knot and value counts differ")
	}
	if len(xs) == 0 {
		return nil, invalidInput(field, "at least one knot is required")
	}

	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ip := &interpolator{
		kind: kind,
		xs:   make([]float64, len(xs)),
		ys:   make([]float64, len(xs)),
	}
	for i, j := range idx {
		ip.xs[i] = xs[j]
		ip.ys[i] = ys[j]
		if i > 0 && ip.xs[i] == ip.xs[i-1] {
			return nil, invalidInput(field, "duplicate knot at %g", ip.xs[i])
		}
	}

	if len(xs) == 1 {
		return ip, nil
	}
	if len(xs) < kind.minKnots() {
		return nil, invalidInput(field, "%s interpolation needs at least %d knots, got %d", kind, kind.minKnots(), len(xs))
	}
	if kind == InterpolationCubic {
		m, err := naturalSplineMoments(ip.xs, ip.ys)
		if err != nil {
			return nil, err
		}
		ip.m = m
	}
	return ip, nil
}

// naturalSplineMoments 求解自然样条的二阶导，两端为零
func naturalSplineMoments(xs, ys []float64) ([]float64, error) {
	n := len(xs)
	m := make([]float64, n)
	inner := n - 2
	if inner <= 0 {
		return m, nil
	}

	a := mat.NewDense(inner, inner, nil)
	b := mat.NewVecDense(inner, nil)
	for i := 1; i <= n-2; i++ {
		h0 := xs[i] - xs[i-1]
		h1 := xs[i+1] - xs[i]
		r := i - 1
		if r > 0 {
			a.Set(r, r-1, h0)
		}
		a.Set(r, r, 2*(h0+h1))
		if r < inner-1 {
			a.Set(r, r+1, h1)
		}
		b.SetVec(r, 6*((ys[i+1]-ys[i])/h1-(ys[i]-ys[i-1])/h0))
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return nil, numericFailure(err, "cubic spline system is singular")
	}
	for i := 0; i < inner; i++ {
		m[i+1] = sol.AtVec(i)
	}
	return m, nil
}

// At 求值
func (ip *interpolator) At(x float64) float64 {
	n := len(ip.xs)
	if n == 1 {
		return ip.ys[0]
	}

	k := sort.SearchFloat64s(ip.xs, x)
	if k < n && ip.xs[k] == x {
		return ip.ys[k]
	}
	// 所在区间 [xs[i], xs[i+1]]，区间外取端部区间
	i := k - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}

	switch ip.kind {
	case InterpolationQuadratic:
		j := i
		if j > n-3 {
			j = n - 3
		}
		return lagrange3(ip.xs[j:j+3], ip.ys[j:j+3], x)
	case InterpolationCubic:
		x0, x1 := ip.xs[i], ip.xs[i+1]
		h := x1 - x0
		m0, m1 := ip.m[i], ip.m[i+1]
		return m0*cube(x1-x)/(6*h) + m1*cube(x-x0)/(6*h) +
			(ip.ys[i]/h-m0*h/6)*(x1-x) + (ip.ys[i+1]/h-m1*h/6)*(x-x0)
	default:
		x0, x1 := ip.xs[i], ip.xs[i+1]
		return ip.ys[i] + (ip.ys[i+1]-ip.ys[i])*(x-x0)/(x1-x0)
	}
}

func lagrange3(xs, ys []float64, x float64) float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		w := ys[i]
		for j := 0; j < 3; j++ {
			if j != i {
				w *= (x - xs[j]) / (xs[i] - xs[j])
			}
		}
		sum += w
	}
	return sum
}

func cube(x float64) float64 { return x * x * x }
