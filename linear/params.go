package linear

import (
	"fmt"

	"github.com/YuminosukeSato/carprice/core/model"
)

// Params は直線 price = Theta0 + Theta1 * mileage のパラメータ
// 正規化空間と非正規化空間のどちらの値も同じ型で表す
type Params struct {
	Theta0 float64 // 切片
	Theta1 float64 // 傾き
}

// Predict は x に対する予測値を返す
func (p Params) Predict(x float64) float64 {
	return EstimatePrice(x, p.Theta0, p.Theta1)
}

// Thetas は保存用のレコードに変換する
func (p Params) Thetas() model.Thetas {
	return model.Thetas{Theta0: p.Theta0, Theta1: p.Theta1}
}

// FromThetas は保存済みレコードからパラメータを作成する
func FromThetas(t model.Thetas) Params {
	return Params{Theta0: t.Theta0, Theta1: t.Theta1}
}

func (p Params) String() string {
	return fmt.Sprintf("theta0=%g theta1=%g", p.Theta0, p.Theta1)
}
