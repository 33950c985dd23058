// Package metrics は回帰モデルの評価指標を提供する。
package metrics

import (
	"math"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}

	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
//
// yTrue がすべて同じ値の場合は定義できないため、NaN を返すと同時に
// DegenerateDataError を返し、UndefinedMetricWarning を発行する。
// 定数かどうかは全変動ではなく最小値と最大値の一致で判定する。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	truth := mat.Col(nil, 0, yTrue)
	if floats.Min(truth) == floats.Max(truth) {
		sentinel := math.NaN()
		errors.Warn(errors.NewUndefinedMetricWarning("r2_score", "no variance in yTrue", sentinel))
		return sentinel, errors.NewDegenerateDataError("R2Score", "total sum of squares", 0, sentinel, errors.ErrZeroVariance)
	}

	// yTrueの平均を計算
	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	// 全変動（TSS）と残差変動（RSS）を計算
	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

func checkVectors(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewInputShapeError(op, n, yPred.Len())
	}
	return n, nil
}
