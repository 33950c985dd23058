// Package app orchestrates loading, training, evaluation, plotting and
// persistence for the command line.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/carprice/linear"
	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// Service is the use-case surface wrapped by the middlewares.
type Service interface {
	// Train loads the dataset and fits the model. Nothing is persisted.
	// A failed fit is reported as a *errors.ModelError; the returned Report
	// then carries only the run id and the cost history recorded so far.
	Train(ctx context.Context) (Report, error)

	// Run trains and then performs the action selected by mode. Every mode
	// other than ModeExit saves the denormalized parameters. When training
	// fails in ModePlotCost the recorded cost curve is still drawn and
	// Outcome.PlotPath is set alongside the error.
	Run(ctx context.Context, mode Mode) (Outcome, error)

	// Predict estimates the price of a car from the saved parameters.
	Predict(ctx context.Context, mileage float64) (float64, error)
}

// Mode is the action chosen after training.
type Mode int

const (
	ModeReport Mode = iota + 1
	ModePlotRegression
	ModePlotCost
	ModeExit
)

var modeNames = map[Mode]string{
	ModeReport:         "report",
	ModePlotRegression: "plot-regression",
	ModePlotCost:       "plot-cost",
	ModeExit:           "exit",
}

var modeLabels = map[Mode]string{
	ModeReport:         "Display result",
	ModePlotRegression: "Display regression plot",
	ModePlotCost:       "Display cost plot",
	ModeExit:           "Exit",
}

// Modes lists every mode in menu order.
func Modes() []Mode {
	return []Mode{ModeReport, ModePlotRegression, ModePlotCost, ModeExit}
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Label is the menu text for m.
func (m Mode) Label() string {
	return modeLabels[m]
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode accepts a menu number ("1".."4") or a mode name.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if m := Mode(n); m.Valid() {
			return m, nil
		}
	}
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, errors.NewValueError("app.ParseMode",
		fmt.Sprintf("enter a valid number between 1-4 or one of report, plot-regression, plot-cost, exit; got %q", s))
}

// Report summarizes one training run.
type Report struct {
	RunID        string
	Samples      int
	Iterations   int
	LearningRate float64
	Normalized   linear.Params
	Denormalized linear.Params
	FinalCost    float64
	// Precision is R² on the raw data. NaN when every price is the same.
	Precision float64
	MSE       float64
	RMSE      float64
	MAE       float64

	CostHistory []float64
}

type paramsJSON struct {
	Theta0 float64 `json:"theta0"`
	Theta1 float64 `json:"theta1"`
}

type reportJSON struct {
	RunID        string     `json:"run_id"`
	Samples      int        `json:"samples"`
	Iterations   int        `json:"iterations"`
	LearningRate float64    `json:"learning_rate"`
	Normalized   paramsJSON `json:"normalized"`
	Denormalized paramsJSON `json:"denormalized"`
	FinalCost    *float64   `json:"final_cost"`
	Precision    *float64   `json:"precision"`
	MSE          *float64   `json:"mse"`
	RMSE         *float64   `json:"rmse"`
	MAE          *float64   `json:"mae"`
}

// MarshalJSON renders undefined metrics as null. The cost history is omitted.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		RunID:        r.RunID,
		Samples:      r.Samples,
		Iterations:   r.Iterations,
		LearningRate: r.LearningRate,
		Normalized:   paramsJSON{r.Normalized.Theta0, r.Normalized.Theta1},
		Denormalized: paramsJSON{r.Denormalized.Theta0, r.Denormalized.Theta1},
		FinalCost:    finite(r.FinalCost),
		Precision:    finite(r.Precision),
		MSE:          finite(r.MSE),
		RMSE:         finite(r.RMSE),
		MAE:          finite(r.MAE),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Outcome is what Run did after training.
type Outcome struct {
	Mode Mode
	// Report is nil for ModeExit.
	Report *Report
	// PlotPath is set for the plot modes.
	PlotPath string
	// ParamsPath is set when the parameters were saved.
	ParamsPath string
}
