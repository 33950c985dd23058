package linear

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/YuminosukeSato/carprice/preprocessing"
	"gonum.org/v1/gonum/stat"
)

var (
	lineMileage = []float64{0, 1, 2, 3}
	linePrice   = []float64{4, 3, 2, 1}
)

func TestEstimatePrice(t *testing.T) {
	tests := []struct {
		name           string
		mileage        float64
		theta0, theta1 float64
		want           float64
	}{
		{"zero params", 120000, 0, 0, 0},
		{"intercept only", 50000, 8000, 0, 8000},
		{"typical", 100000, 8500, -0.02, 6500},
		{"negative mileage is not validated", -10, 1, 2, -19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimatePrice(tt.mileage, tt.theta0, tt.theta1)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EstimatePrice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCost(t *testing.T) {
	if got := Error(Params{Theta0: 1, Theta1: 2}, 3, 5); got != 2 {
		t.Errorf("Error() = %v, want 2", got)
	}

	// 残差 [-4,-3,-2,-1] → 二乗和 30, コスト 30/8
	c, err := Cost(Params{}, lineMileage, linePrice)
	if err != nil {
		t.Fatalf("Cost() error = %v", err)
	}
	if math.Abs(c-30.0/8.0) > 1e-12 {
		t.Errorf("Cost() = %v, want %v", c, 30.0/8.0)
	}

	se, err := SquaredError(Params{Theta0: 4, Theta1: -1}, lineMileage, linePrice)
	if err != nil {
		t.Fatalf("SquaredError() error = %v", err)
	}
	if se != 0 {
		t.Errorf("SquaredError() at exact fit = %v, want 0", se)
	}
}

func TestShapeErrors(t *testing.T) {
	xs := []float64{1, 2, 3}
	ys := []float64{1, 2, 3, 4}

	checks := map[string]func() error{
		"Gradients": func() error { _, _, err := Gradients(Params{}, xs, ys); return err },
		"Cost":      func() error { _, err := Cost(Params{}, xs, ys); return err },
		"Step":      func() error { _, err := Step(Params{}, xs, ys, 0.1); return err },
		"Train": func() error {
			_, err := NewGradientDescent().Train(context.Background(), xs, ys)
			return err
		},
	}

	for name, fn := range checks {
		t.Run(name, func(t *testing.T) {
			err := fn()
			var shapeErr *errors.InputShapeError
			if !errors.As(err, &shapeErr) {
				t.Fatalf("expected InputShapeError, got %v", err)
			}
			if shapeErr.Expected != 3 || shapeErr.Got != 4 {
				t.Errorf("Expected/Got = %d/%d, want 3/4", shapeErr.Expected, shapeErr.Got)
			}
		})
	}

	if _, err := Cost(Params{}, nil, nil); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("Cost() on empty input: expected ErrEmptyData, got %v", err)
	}
}

func TestStep_SimultaneousUpdate(t *testing.T) {
	xs := []float64{0, 1.0 / 3.0, 2.0 / 3.0, 1}
	ys := []float64{1, 2.0 / 3.0, 1.0 / 3.0, 0}

	// (0,0) での勾配: g0 = -0.5, g1 = -1/9
	p, err := Step(Params{}, xs, ys, 0.1)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if math.Abs(p.Theta0-0.05) > 1e-12 {
		t.Errorf("Theta0 = %v, want 0.05", p.Theta0)
	}
	if math.Abs(p.Theta1-0.1/9.0) > 1e-12 {
		t.Errorf("Theta1 = %v, want %v (gradient must use the pre-update theta0)", p.Theta1, 0.1/9.0)
	}
}

func TestGradients_ZeroAtLeastSquaresOptimum(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	xs := make([]float64, 200)
	ys := make([]float64, 200)
	for i := range xs {
		xs[i] = rng.Float64()
		ys[i] = 0.8 - 0.6*xs[i] + (rng.Float64()-0.5)*0.2
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	g0, g1, err := Gradients(Params{Theta0: alpha, Theta1: beta}, xs, ys)
	if err != nil {
		t.Fatalf("Gradients() error = %v", err)
	}
	if math.Abs(g0) > 1e-9 || math.Abs(g1) > 1e-9 {
		t.Errorf("gradients at optimum = (%v, %v), want ~0", g0, g1)
	}

	g0only, err := GradientTheta0(Params{}, xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	g1only, err := GradientTheta1(Params{}, xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	h0, h1, _ := Gradients(Params{}, xs, ys)
	if g0only != h0 || g1only != h1 {
		t.Error("single gradient helpers must agree with Gradients")
	}
}

func TestTrain_CostNonIncreasing(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	xs := make([]float64, 100)
	ys := make([]float64, 100)
	for i := range xs {
		xs[i] = float64(i) / 99
		ys[i] = 1 - 0.7*xs[i] + (rng.Float64()-0.5)*0.05
	}

	res, err := NewGradientDescent(WithLearningRate(0.05), WithIterations(500)).Train(context.Background(), xs, ys)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if len(res.CostHistory) != 500 || res.Iterations != 500 {
		t.Fatalf("history length = %d, iterations = %d", len(res.CostHistory), res.Iterations)
	}
	for i := 1; i < len(res.CostHistory); i++ {
		if res.CostHistory[i] > res.CostHistory[i-1]+1e-15 {
			t.Fatalf("cost increased at iteration %d: %v -> %v", i, res.CostHistory[i-1], res.CostHistory[i])
		}
	}
	if res.FinalCost() != res.CostHistory[499] {
		t.Error("FinalCost should be the last recorded cost")
	}
}

func TestTrain_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	xs := make([]float64, 20000)
	ys := make([]float64, 20000)
	for i := range xs {
		xs[i] = rng.Float64()
		ys[i] = 0.3 + 0.4*xs[i] + (rng.Float64()-0.5)*0.1
	}

	gd := NewGradientDescent(WithIterations(30), WithParallelThreshold(100))
	first, err := gd.Train(context.Background(), xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	for run := 0; run < 3; run++ {
		again, err := gd.Train(context.Background(), xs, ys)
		if err != nil {
			t.Fatal(err)
		}
		if again.Params != first.Params {
			t.Fatalf("run %d: params %v differ from %v", run, again.Params, first.Params)
		}
	}
}

func TestTrain_Divergence(t *testing.T) {
	res, err := NewGradientDescent(WithLearningRate(1000)).Train(context.Background(), lineMileage, linePrice)

	var numErr *errors.NumericalInstabilityError
	if !errors.As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if res.Iterations != DefaultIterations {
		t.Errorf("Iterations = %d, want %d", res.Iterations, DefaultIterations)
	}
	if len(res.CostHistory) != DefaultIterations {
		t.Fatalf("len(CostHistory) = %d, want %d", len(res.CostHistory), DefaultIterations)
	}
	if c := res.CostHistory[0]; math.IsNaN(c) || math.IsInf(c, 0) {
		t.Errorf("first cost should be finite, got %v", c)
	}
}

func TestTrain_InvalidHyperparameters(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"zero learning rate", []Option{WithLearningRate(0)}},
		{"nan learning rate", []Option{WithLearningRate(math.NaN())}},
		{"zero iterations", []Option{WithIterations(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGradientDescent(tt.opts...).Train(context.Background(), lineMileage, linePrice)
			var valErr *errors.ValidationError
			if !errors.As(err, &valErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestTrain_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGradientDescent().Train(ctx, lineMileage, linePrice)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTrain_Logs(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	_, err := NewGradientDescent(WithIterations(200), WithLogger(logger)).Train(context.Background(), lineMileage, linePrice)
	if err != nil {
		t.Fatal(err)
	}
	if !logger.ContainsMessage("Training started") || !logger.ContainsMessage("Training completed") {
		t.Error("start/completion records missing")
	}
	if !logger.ContainsMessage("Training progress") {
		t.Error("debug progress record missing")
	}
	if !logger.ContainsField(log.ModelNameKey, "GradientDescent") {
		t.Error("model name field missing")
	}
}

func TestNormalizeDenormalizeRoundTrip(t *testing.T) {
	mileage := []float64{240000, 139800, 150500, 185530, 176000, 22899, 61789}
	price := []float64{3650, 3800, 4400, 4450, 5250, 7990, 8290}
	pn := Params{Theta0: 0.93, Theta1: -0.87}

	xScaler := preprocessing.NewMinMaxScaler()
	xn, err := xScaler.FitTransform(mileage)
	if err != nil {
		t.Fatal(err)
	}
	yScaler := preprocessing.NewMinMaxScaler()
	if err := yScaler.Fit(price); err != nil {
		t.Fatal(err)
	}

	p, err := Denormalize(pn, mileage, price)
	if err != nil {
		t.Fatalf("Denormalize() error = %v", err)
	}
	for i, x := range mileage {
		want := yScaler.InverseTransformValue(pn.Predict(xn[i]))
		if got := p.Predict(x); math.Abs(got-want) > 1e-6 {
			t.Errorf("sample %d: raw prediction %v, normalized prediction mapped back %v", i, got, want)
		}
	}
}

func TestDenormalize_DegenerateMileage(t *testing.T) {
	_, err := Denormalize(Params{Theta0: 1, Theta1: 1}, []float64{5, 5, 5}, []float64{1, 2, 3})
	if !errors.Is(err, errors.ErrZeroRange) {
		t.Errorf("expected ErrZeroRange, got %v", err)
	}
}

func TestPrecision(t *testing.T) {
	r2, err := Precision(Params{Theta0: 4, Theta1: -1}, lineMileage, linePrice)
	if err != nil {
		t.Fatalf("Precision() error = %v", err)
	}
	if math.Abs(r2-1) > 1e-12 {
		t.Errorf("Precision() on exact line = %v, want 1", r2)
	}

	errors.SetWarningHandler(func(error) {})
	for _, price := range []float64{2, 0.1, 0.7} {
		prices := []float64{price, price, price, price}
		r2, err = Precision(Params{Theta0: price}, lineMileage, prices)
		if !math.IsNaN(r2) {
			t.Errorf("Precision() on constant price %g = %v, want NaN", price, r2)
		}
		var degErr *errors.DegenerateDataError
		if !errors.As(err, &degErr) {
			t.Errorf("price %g: expected DegenerateDataError, got %v", price, err)
		}
	}
}
