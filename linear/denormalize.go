package linear

import (
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/preprocessing"
)

// Denormalize は正規化された走行距離・価格で学習したパラメータを
// 生データでそのまま使えるパラメータに変換する
//
// 正規化 x' = (x - xmin)/xs, y' = (y - ymin)/ys に対して
//
//	theta1 = theta1' * ys / xs
//	theta0 = ymin + ys * theta0' - theta1 * xmin
//
// 走行距離の値域が0の場合は傾きが定義できないため DegenerateDataError を返す。
func Denormalize(pn Params, mileage, price []float64) (Params, error) {
	if err := checkShape("linear.Denormalize", mileage, price); err != nil {
		return Params{}, err
	}
	xScaler := preprocessing.NewMinMaxScaler()
	if err := xScaler.Fit(mileage); err != nil {
		return Params{}, err
	}
	yScaler := preprocessing.NewMinMaxScaler()
	if err := yScaler.Fit(price); err != nil {
		return Params{}, err
	}
	return DenormalizeWith(pn, xScaler, yScaler)
}

// DenormalizeWith は学習済みのスケーラーを使って Denormalize と同じ変換を行う
func DenormalizeWith(pn Params, xScaler, yScaler *preprocessing.MinMaxScaler) (Params, error) {
	if !xScaler.IsFitted() || !yScaler.IsFitted() {
		return Params{}, errors.NewNotFittedError("MinMaxScaler", "DenormalizeWith")
	}
	if xScaler.IsDegenerate() {
		return Params{}, errors.NewDegenerateDataError("linear.Denormalize", "mileage range", xScaler.Range(), 0, errors.ErrZeroRange)
	}

	theta1 := pn.Theta1 * yScaler.Scale / xScaler.Scale
	theta0 := yScaler.DataMin + yScaler.Scale*pn.Theta0 - theta1*xScaler.DataMin
	return Params{Theta0: theta0, Theta1: theta1}, nil
}
