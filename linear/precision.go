package linear

import (
	"github.com/YuminosukeSato/carprice/metrics"
	"gonum.org/v1/gonum/mat"
)

// Precision は非正規化パラメータの生データに対する決定係数 R² を返す
//
// 価格がすべて同じ場合は NaN と DegenerateDataError を返す。
func Precision(p Params, mileage, price []float64) (float64, error) {
	if err := checkShape("linear.Precision", mileage, price); err != nil {
		return 0, err
	}
	yTrue, yPred := predictionVectors(p, mileage, price)
	return metrics.R2Score(yTrue, yPred)
}

// predictionVectors は価格と予測値を VecDense にまとめる
func predictionVectors(p Params, mileage, price []float64) (*mat.VecDense, *mat.VecDense) {
	n := len(mileage)
	pred := make([]float64, n)
	for i, x := range mileage {
		pred[i] = p.Predict(x)
	}
	truth := make([]float64, n)
	copy(truth, price)
	return mat.NewVecDense(n, truth), mat.NewVecDense(n, pred)
}
