package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YuminosukeSato/carprice/config"
	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/linear"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T, csv string) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataPath = filepath.Join(dir, "data.csv")
	cfg.ParamsPath = filepath.Join(dir, "values.json")
	cfg.PlotDir = dir
	require.NoError(t, os.WriteFile(cfg.DataPath, []byte(csv), 0o644))
	return cfg
}

const lineCSV = "km,price\n0,4\n1,3\n2,2\n3,1\n"

func TestParseMode(t *testing.T) {
	cases := []struct {
		desc    string
		input   string
		mode    Mode
		wantErr bool
	}{
		{desc: "menu number", input: "1", mode: ModeReport},
		{desc: "menu number with spaces", input: " 3 ", mode: ModePlotCost},
		{desc: "name", input: "plot-regression", mode: ModePlotRegression},
		{desc: "name upper case", input: "EXIT", mode: ModeExit},
		{desc: "out of range", input: "5", wantErr: true},
		{desc: "zero", input: "0", wantErr: true},
		{desc: "unknown name", input: "train", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			mode, err := ParseMode(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.mode, mode)
		})
	}
}

func TestModes(t *testing.T) {
	modes := Modes()
	require.Len(t, modes, 4)
	for i, m := range modes {
		assert.Equal(t, Mode(i+1), m)
		assert.True(t, m.Valid())
		assert.NotEmpty(t, m.Label())
	}
	assert.False(t, Mode(9).Valid())
	assert.Equal(t, "mode(9)", Mode(9).String())
}

func TestReportMarshalJSON(t *testing.T) {
	rep := Report{
		RunID:        "run",
		Samples:      3,
		Denormalized: linear.Params{Theta0: 5000},
		FinalCost:    0,
		Precision:    math.NaN(),
		CostHistory:  []float64{1, 0.5},
	}

	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["precision"])
	assert.Equal(t, float64(0), decoded["final_cost"])
	assert.NotContains(t, string(data), "CostHistory")
}

func TestServiceRun(t *testing.T) {
	cases := []struct {
		desc     string
		mode     Mode
		plotFile string
		saved    bool
	}{
		{desc: "report", mode: ModeReport, saved: true},
		{desc: "regression plot", mode: ModePlotRegression, plotFile: regressionPlotFile, saved: true},
		{desc: "cost plot", mode: ModePlotCost, plotFile: costPlotFile, saved: true},
		{desc: "exit", mode: ModeExit},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := newTestConfig(t, lineCSV)
			svc := NewService(cfg, nil)

			out, err := svc.Run(context.Background(), tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.mode, out.Mode)

			_, statErr := os.Stat(cfg.ParamsPath)
			if !tc.saved {
				assert.Nil(t, out.Report)
				assert.True(t, os.IsNotExist(statErr), "exit must not save parameters")
				return
			}
			require.NoError(t, statErr)
			assert.Equal(t, cfg.ParamsPath, out.ParamsPath)

			th, err := model.LoadThetas(cfg.ParamsPath)
			require.NoError(t, err)
			assert.InDelta(t, 4, th.Theta0, 1e-2)
			assert.InDelta(t, -1, th.Theta1, 1e-2)

			require.NotNil(t, out.Report)
			assert.InDelta(t, 1, out.Report.Precision, 1e-4)
			assert.Len(t, out.Report.CostHistory, cfg.Iterations)

			if tc.plotFile != "" {
				assert.Equal(t, filepath.Join(cfg.PlotDir, tc.plotFile), out.PlotPath)
				assert.FileExists(t, out.PlotPath)
			}
		})
	}
}

func TestServiceRun_Diverged(t *testing.T) {
	t.Run("cost plot is still drawn", func(t *testing.T) {
		cfg := newTestConfig(t, lineCSV)
		cfg.LearningRate = 1000
		out, err := NewService(cfg, nil).Run(context.Background(), ModePlotCost)

		var numErr *errors.NumericalInstabilityError
		require.True(t, errors.As(err, &numErr), "expected NumericalInstabilityError, got %v", err)
		assert.Equal(t, filepath.Join(cfg.PlotDir, costPlotFile), out.PlotPath)
		assert.FileExists(t, out.PlotPath)
		assert.NoFileExists(t, cfg.ParamsPath)
	})

	t.Run("regression plot is skipped", func(t *testing.T) {
		cfg := newTestConfig(t, lineCSV)
		cfg.LearningRate = 1000
		out, err := NewService(cfg, nil).Run(context.Background(), ModePlotRegression)

		require.Error(t, err)
		assert.Empty(t, out.PlotPath)
		assert.NoFileExists(t, filepath.Join(cfg.PlotDir, regressionPlotFile))
		assert.NoFileExists(t, cfg.ParamsPath)
	})
}

func TestServiceRun_InvalidMode(t *testing.T) {
	svc := NewService(newTestConfig(t, lineCSV), nil)
	_, err := svc.Run(context.Background(), Mode(42))
	assert.Error(t, err)
}

func TestServiceTrain(t *testing.T) {
	t.Run("report fields", func(t *testing.T) {
		svc := NewService(newTestConfig(t, lineCSV), nil)
		rep, err := svc.Train(context.Background())
		require.NoError(t, err)

		assert.NotEmpty(t, rep.RunID)
		assert.Equal(t, 4, rep.Samples)
		assert.Equal(t, 1000, rep.Iterations)
		assert.InDelta(t, 1, rep.Normalized.Theta0, 1e-2)
		assert.InDelta(t, -1, rep.Normalized.Theta1, 1e-2)
		assert.Less(t, rep.MSE, 1e-4)
		assert.InDelta(t, math.Sqrt(rep.MSE), rep.RMSE, 1e-12)
		assert.Equal(t, rep.CostHistory[len(rep.CostHistory)-1], rep.FinalCost)
	})

	for _, price := range []string{"5000", "0.1", "0.7"} {
		t.Run("constant price "+price+" keeps training", func(t *testing.T) {
			errors.SetWarningHandler(func(error) {})
			csv := "km,price\n10," + price + "\n20," + price + "\n30," + price + "\n"
			svc := NewService(newTestConfig(t, csv), nil)
			rep, err := svc.Train(context.Background())
			require.NoError(t, err)
			assert.True(t, math.IsNaN(rep.Precision), "precision = %v", rep.Precision)
			assert.Equal(t, 0.0, rep.Denormalized.Theta1)

			data, err := json.Marshal(rep)
			require.NoError(t, err)
			var decoded map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Contains(t, decoded, "precision")
			assert.Nil(t, decoded["precision"])
		})
	}

	t.Run("constant mileage is a model error", func(t *testing.T) {
		csv := "km,price\n10,1\n10,2\n10,3\n"
		_, err := NewService(newTestConfig(t, csv), nil).Train(context.Background())

		var modelErr *errors.ModelError
		require.True(t, errors.As(err, &modelErr), "expected ModelError, got %v", err)
		assert.Equal(t, "app.Train", modelErr.Op)
		assert.True(t, errors.Is(err, errors.ErrZeroRange))
	})

	t.Run("diverged run keeps cost history", func(t *testing.T) {
		cfg := newTestConfig(t, lineCSV)
		cfg.LearningRate = 1000
		rep, err := NewService(cfg, nil).Train(context.Background())

		var modelErr *errors.ModelError
		require.True(t, errors.As(err, &modelErr), "expected ModelError, got %v", err)
		var numErr *errors.NumericalInstabilityError
		assert.True(t, errors.As(err, &numErr))
		assert.NotEmpty(t, rep.RunID)
		assert.Len(t, rep.CostHistory, cfg.Iterations)
	})

	t.Run("missing dataset", func(t *testing.T) {
		cfg := config.Default()
		cfg.DataPath = filepath.Join(t.TempDir(), "missing.csv")
		_, err := NewService(cfg, nil).Train(context.Background())
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewService(newTestConfig(t, lineCSV), nil).Train(ctx)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestServicePredict(t *testing.T) {
	cfg := newTestConfig(t, lineCSV)
	svc := NewService(cfg, nil)

	_, err := svc.Predict(context.Background(), 1.5)
	var storeErr *errors.ParameterStoreError
	require.True(t, errors.As(err, &storeErr), "expected ParameterStoreError, got %v", err)

	_, err = svc.Run(context.Background(), ModeReport)
	require.NoError(t, err)

	price, err := svc.Predict(context.Background(), 1.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, price, 1e-2)
}

type stubService struct {
	err error
}

func (s stubService) Train(context.Context) (Report, error) {
	return Report{RunID: "stub", Samples: 2}, s.err
}

func (s stubService) Run(_ context.Context, mode Mode) (Outcome, error) {
	return Outcome{Mode: mode}, s.err
}

func (s stubService) Predict(_ context.Context, mileage float64) (float64, error) {
	return 2 * mileage, s.err
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	svc := LoggingMiddleware(logger, stubService{})
	price, err := svc.Predict(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, 42.0, price)
	assert.Contains(t, buf.String(), "Predict completed successfully")
	assert.Contains(t, buf.String(), `"output.price":42`)

	buf.Reset()
	svc = LoggingMiddleware(logger, stubService{err: errors.New("boom")})
	_, err = svc.Run(context.Background(), ModePlotCost)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Run failed")
	assert.Contains(t, buf.String(), `"app.mode":"plot-cost"`)
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter, latency, err := MakeMetrics(reg, "carprice", "app")
	require.NoError(t, err)

	svc := MetricsMiddleware(counter, latency, stubService{})
	for i := 0; i < 3; i++ {
		_, err := svc.Predict(context.Background(), float64(i))
		require.NoError(t, err)
	}
	_, err = svc.Train(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "carprice.prom")
	require.NoError(t, WriteMetrics(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `carprice_app_request_count{method="predict"} 3`), text)
	assert.True(t, strings.Contains(text, `carprice_app_request_count{method="train"} 1`), text)
	assert.Contains(t, text, "carprice_app_request_latency_seconds_bucket")

	_, _, err = MakeMetrics(reg, "carprice", "app")
	assert.Error(t, err, "registering twice should fail")
}
