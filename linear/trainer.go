package linear

import (
	"context"
	"math"
	"time"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
)

const (
	// DefaultLearningRate is tuned for data normalized to [0,1].
	DefaultLearningRate = 0.1
	// DefaultIterations is the number of updates when none is configured.
	DefaultIterations = 1000

	progressEvery = 100
)

// GradientDescent はバッチ勾配降下法で Params を学習する
type GradientDescent struct {
	learningRate      float64
	iterations        int
	parallelThreshold int
	logger            log.Logger
}

// TrainResult は学習結果
type TrainResult struct {
	// Params は学習データと同じ空間（通常は正規化空間）のパラメータ
	Params Params
	// Iterations は実行した更新回数
	Iterations int
	// CostHistory は各更新の直前のコスト。長さは Iterations と等しい
	CostHistory []float64
}

// FinalCost は最後に記録されたコストを返す
func (r TrainResult) FinalCost() float64 {
	if len(r.CostHistory) == 0 {
		return math.NaN()
	}
	return r.CostHistory[len(r.CostHistory)-1]
}

// NewGradientDescent は新しい GradientDescent を作成する
//
// 使用例:
//
//	gd := linear.NewGradientDescent(
//	    linear.WithLearningRate(0.1),
//	    linear.WithIterations(1000),
//	)
//	res, err := gd.Train(ctx, mileageNorm, priceNorm)
func NewGradientDescent(opts ...Option) *GradientDescent {
	gd := &GradientDescent{
		learningRate:      DefaultLearningRate,
		iterations:        DefaultIterations,
		parallelThreshold: DefaultParallelThreshold,
		logger:            log.Nop(),
	}
	for _, opt := range opts {
		opt(gd)
	}
	return gd
}

// LearningRate returns the configured learning rate.
func (gd *GradientDescent) LearningRate() float64 { return gd.learningRate }

// Iterations returns the configured iteration count.
func (gd *GradientDescent) Iterations() int { return gd.iterations }

// Validate はハイパーパラメータを検証する
func (gd *GradientDescent) Validate() error {
	if !(gd.learningRate > 0) || math.IsInf(gd.learningRate, 0) {
		return errors.NewValidationError("learning_rate", "must be a positive finite number", gd.learningRate)
	}
	if gd.iterations < 1 {
		return errors.NewValidationError("iterations", "must be at least 1", gd.iterations)
	}
	return nil
}

// Train は (0,0) から始めてちょうど iterations 回の更新を行う
//
// 各イテレーションでは (a) 現在のコストを履歴に追加し、(b) 同じパラメータで
// 両方の勾配を計算し、(c) 両方のパラメータを同時に更新する。
// 収束判定・早期終了は行わない。ctx はイテレーションの間でのみ確認する。
// 発散した場合は NumericalInstabilityError とともにコスト履歴を含む結果を返す。
func (gd *GradientDescent) Train(ctx context.Context, xs, ys []float64) (TrainResult, error) {
	if err := gd.Validate(); err != nil {
		return TrainResult{}, err
	}
	if err := checkShape("GradientDescent.Train", xs, ys); err != nil {
		return TrainResult{}, err
	}

	logger := gd.logger.With(log.ModelNameKey, "GradientDescent")
	debug := logger.Enabled(ctx, log.LevelDebug)
	start := time.Now()

	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(xs),
		log.LearningRateKey, gd.learningRate,
		log.IterationsKey, gd.iterations,
	)

	var p Params
	history := make([]float64, 0, gd.iterations)
	for i := 0; i < gd.iterations; i++ {
		if err := ctx.Err(); err != nil {
			return TrainResult{}, errors.Wrapf(err, "training interrupted at iteration %d", i)
		}

		c := cost(p, xs, ys, gd.parallelThreshold)
		history = append(history, c)
		if debug && i%progressEvery == 0 {
			logger.Debug("Training progress",
				log.IterationKey, i,
				log.LossKey, c,
				log.Theta0Key, p.Theta0,
				log.Theta1Key, p.Theta1,
			)
		}

		p = gd.step(p, xs, ys)
	}

	res := TrainResult{Params: p, Iterations: gd.iterations, CostHistory: history}
	if err := checkDivergence(res); err != nil {
		logger.Error("Training diverged", log.ErrAttrKey, err, log.LearningRateKey, gd.learningRate)
		return res, err
	}

	logger.Info("Training completed",
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.LossKey, res.FinalCost(),
		log.Theta0Key, p.Theta0,
		log.Theta1Key, p.Theta1,
	)
	return res, nil
}

// checkDivergence は最終パラメータと最初に非有限となったコストを確認する
func checkDivergence(res TrainResult) error {
	if err := errors.CheckNumericalStability("gradient_descent", []float64{res.Params.Theta0, res.Params.Theta1}, res.Iterations); err != nil {
		return err
	}
	for i, c := range res.CostHistory {
		if err := errors.CheckScalar("cost", c, i); err != nil {
			return err
		}
	}
	return nil
}

func (gd *GradientDescent) step(p Params, xs, ys []float64) Params {
	g0, g1 := gradients(p, xs, ys, gd.parallelThreshold)
	return Params{
		Theta0: p.Theta0 - gd.learningRate*g0,
		Theta1: p.Theta1 - gd.learningRate*g1,
	}
}

// Step は1回の同時更新を行う。両方の勾配は更新前の p から計算される。
func Step(p Params, xs, ys []float64, learningRate float64) (Params, error) {
	if err := checkShape("linear.Step", xs, ys); err != nil {
		return Params{}, err
	}
	gd := GradientDescent{learningRate: learningRate, parallelThreshold: DefaultParallelThreshold}
	return gd.step(p, xs, ys), nil
}
