package linear

import (
	"context"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/metrics"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/YuminosukeSato/carprice/preprocessing"
)

// Regression は走行距離から価格を予測する単回帰モデル
//
// 走行距離・価格をそれぞれ [0,1] に正規化して勾配降下法で学習し、
// 学習後のパラメータを生データのスケールに戻して保持する。
type Regression struct {
	model.BaseEstimator // BaseEstimatorを埋め込み

	trainer *GradientDescent
	logger  log.Logger

	xScaler *preprocessing.MinMaxScaler
	yScaler *preprocessing.MinMaxScaler

	normalized   Params // 正規化空間のパラメータ
	denormalized Params // 生データ空間のパラメータ
	history      []float64
	iterations   int
	nSamples     int
}

// NewRegression は新しい Regression を作成する
//
// opts は内部の GradientDescent に渡される。
func NewRegression(opts ...Option) *Regression {
	gd := NewGradientDescent(opts...)
	return &Regression{
		trainer: gd,
		logger:  gd.logger,
	}
}

// Fit はモデルを学習させる
//
// 走行距離の値域が0の場合は傾きが定義できないため学習前に DegenerateDataError を返す。
// 価格の値域が0の場合は正規化後の価格をすべて0として学習を続ける。
func (r *Regression) Fit(ctx context.Context, mileage, price []float64) error {
	if err := checkShape("Regression.Fit", mileage, price); err != nil {
		return err
	}

	xScaler := preprocessing.NewMinMaxScaler()
	xs, err := xScaler.FitTransform(mileage)
	if err != nil {
		return errors.Wrap(err, "normalize mileage")
	}
	if xScaler.IsDegenerate() {
		return errors.NewDegenerateDataError("Regression.Fit", "mileage range", xScaler.Range(), 0, errors.ErrZeroRange)
	}

	yScaler := preprocessing.NewMinMaxScaler()
	ys, err := yScaler.FitTransform(price)
	if err != nil {
		return errors.Wrap(err, "normalize price")
	}
	if yScaler.IsDegenerate() {
		r.logger.Warn("Price range is zero, normalized prices set to 0",
			log.OperationKey, log.OperationNormalize,
			log.PriceKey, yScaler.DataMin,
		)
	}

	res, err := r.trainer.Train(ctx, xs, ys)
	if err != nil {
		// 発散時もコスト履歴は診断用に残す
		r.history = res.CostHistory
		r.iterations = res.Iterations
		return err
	}

	denorm, err := DenormalizeWith(res.Params, xScaler, yScaler)
	if err != nil {
		return err
	}

	r.xScaler = xScaler
	r.yScaler = yScaler
	r.normalized = res.Params
	r.denormalized = denorm
	r.history = res.CostHistory
	r.iterations = res.Iterations
	r.nSamples = len(mileage)
	r.SetFitted()
	return nil
}

// Predict は各走行距離に対する推定価格を返す
func (r *Regression) Predict(mileage []float64) ([]float64, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("Regression", "Predict")
	}
	out := make([]float64, len(mileage))
	for i, x := range mileage {
		out[i] = r.denormalized.Predict(x)
	}
	return out, nil
}

// Score は決定係数 R² を返す
func (r *Regression) Score(mileage, price []float64) (float64, error) {
	if !r.IsFitted() {
		return 0, errors.NewNotFittedError("Regression", "Score")
	}
	if err := checkShape("Regression.Score", mileage, price); err != nil {
		return 0, err
	}
	yTrue, yPred := predictionVectors(r.denormalized, mileage, price)
	return metrics.R2Score(yTrue, yPred)
}

// Params は生データ空間のパラメータを返す
func (r *Regression) Params() (Params, error) {
	if !r.IsFitted() {
		return Params{}, errors.NewNotFittedError("Regression", "Params")
	}
	return r.denormalized, nil
}

// NormalizedParams は正規化空間で学習したパラメータを返す
func (r *Regression) NormalizedParams() (Params, error) {
	if !r.IsFitted() {
		return Params{}, errors.NewNotFittedError("Regression", "NormalizedParams")
	}
	return r.normalized, nil
}

// Thetas は保存用のレコードを返す
func (r *Regression) Thetas() (model.Thetas, error) {
	p, err := r.Params()
	if err != nil {
		return model.Thetas{}, err
	}
	return p.Thetas(), nil
}

// CostHistory は各イテレーションのコストのコピーを返す
// 学習が発散した場合も、その学習の履歴を返す
func (r *Regression) CostHistory() []float64 {
	out := make([]float64, len(r.history))
	copy(out, r.history)
	return out
}

// Iterations は実行した更新回数を返す
func (r *Regression) Iterations() int {
	return r.iterations
}

// NSamples は学習に使ったサンプル数を返す
func (r *Regression) NSamples() int {
	return r.nSamples
}

// Scalers は学習時の走行距離・価格のスケーラーを返す
func (r *Regression) Scalers() (x, y *preprocessing.MinMaxScaler) {
	return r.xScaler, r.yScaler
}
