package linear

import (
	"github.com/YuminosukeSato/carprice/core/parallel"
	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// DefaultParallelThreshold を超えるサンプル数では総和をチャンクごとに並列計算する
const DefaultParallelThreshold = 10000

// Error は1サンプルの符号付き残差 theta0 + theta1*x - y を返す
func Error(p Params, x, y float64) float64 {
	return p.Theta0 + p.Theta1*x - y
}

// SquaredError は全サンプルの残差二乗和を返す
func SquaredError(p Params, xs, ys []float64) (float64, error) {
	if err := checkShape("linear.SquaredError", xs, ys); err != nil {
		return 0, err
	}
	return squaredError(p, xs, ys, DefaultParallelThreshold), nil
}

// Cost は残差二乗和 / (2N) を返す
func Cost(p Params, xs, ys []float64) (float64, error) {
	if err := checkShape("linear.Cost", xs, ys); err != nil {
		return 0, err
	}
	return cost(p, xs, ys, DefaultParallelThreshold), nil
}

func squaredError(p Params, xs, ys []float64, threshold int) float64 {
	return parallel.SumWithThreshold(len(xs), threshold, func(start, end int) float64 {
		var sum float64
		for i := start; i < end; i++ {
			e := Error(p, xs[i], ys[i])
			sum += e * e
		}
		return sum
	})
}

func cost(p Params, xs, ys []float64, threshold int) float64 {
	return squaredError(p, xs, ys, threshold) / (2 * float64(len(xs)))
}

// checkShape は2つの系列が空でなく同じ長さであることを確認する
func checkShape(op string, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return errors.NewInputShapeError(op, len(xs), len(ys))
	}
	if len(xs) == 0 {
		return errors.NewEmptyInputError(op)
	}
	return nil
}
