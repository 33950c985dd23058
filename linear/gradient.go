package linear

import (
	"github.com/YuminosukeSato/carprice/core/parallel"
)

// GradientTheta0 はコストの theta0 に関する偏微分 (1/N) Σ error_i を返す
func GradientTheta0(p Params, xs, ys []float64) (float64, error) {
	g0, _, err := Gradients(p, xs, ys)
	return g0, err
}

// GradientTheta1 はコストの theta1 に関する偏微分 (1/N) Σ error_i * x_i を返す
func GradientTheta1(p Params, xs, ys []float64) (float64, error) {
	_, g1, err := Gradients(p, xs, ys)
	return g1, err
}

// Gradients は同じパラメータで両方の勾配を1回の走査で計算する
// 系列長が異なる場合は InputShapeError を返す
func Gradients(p Params, xs, ys []float64) (g0, g1 float64, err error) {
	if err := checkShape("linear.Gradients", xs, ys); err != nil {
		return 0, 0, err
	}
	g0, g1 = gradients(p, xs, ys, DefaultParallelThreshold)
	return g0, g1, nil
}

func gradients(p Params, xs, ys []float64, threshold int) (float64, float64) {
	sum0, sum1 := parallel.Sum2(len(xs), threshold, func(start, end int) (float64, float64) {
		var s0, s1 float64
		for i := start; i < end; i++ {
			e := Error(p, xs[i], ys[i])
			s0 += e
			s1 += e * xs[i]
		}
		return s0, s1
	})
	n := float64(len(xs))
	return sum0 / n, sum1 / n
}
