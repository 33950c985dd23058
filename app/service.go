package app

import (
	"context"
	"math"
	"path/filepath"

	"github.com/YuminosukeSato/carprice/config"
	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/dataset"
	"github.com/YuminosukeSato/carprice/linear"
	"github.com/YuminosukeSato/carprice/metrics"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/YuminosukeSato/carprice/plotting"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

const (
	regressionPlotFile = "regression.png"
	costPlotFile       = "cost.png"
)

var _ Service = (*service)(nil)

type service struct {
	cfg    config.Config
	logger log.Logger
}

// NewService returns the core Service. logger receives the trainer's records.
func NewService(cfg config.Config, logger log.Logger) Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &service{
		cfg:    cfg,
		logger: logger,
	}
}

func (svc *service) Train(ctx context.Context) (rep Report, err error) {
	defer errors.Recover(&err, "app.Train")

	rep, _, err = svc.train(ctx)
	return rep, err
}

func (svc *service) Run(ctx context.Context, mode Mode) (out Outcome, err error) {
	defer errors.Recover(&err, "app.Run")

	if !mode.Valid() {
		return Outcome{}, errors.NewValueError("app.Run", "unknown mode "+mode.String())
	}
	out.Mode = mode
	if mode == ModeExit {
		return out, nil
	}

	rep, ds, err := svc.train(ctx)
	if err != nil {
		// A failed run still gets the costs recorded so far drawn.
		if mode == ModePlotCost && len(rep.CostHistory) > 0 {
			out.PlotPath = filepath.Join(svc.cfg.PlotDir, costPlotFile)
			if perr := svc.plotCost(rep.CostHistory, out.PlotPath); perr != nil {
				svc.logger.Warn("Cost plot of failed run not saved", log.ErrAttrKey, perr)
				return Outcome{}, err
			}
			return out, err
		}
		return Outcome{}, err
	}
	out.Report = &rep

	switch mode {
	case ModePlotRegression:
		out.PlotPath = filepath.Join(svc.cfg.PlotDir, regressionPlotFile)
		err := errors.SafeExecute("plotting.RegressionPlot", func() error {
			return plotting.RegressionPlot(rep.Denormalized, ds.Mileage, ds.Price, out.PlotPath)
		})
		if err != nil {
			return Outcome{}, err
		}
	case ModePlotCost:
		out.PlotPath = filepath.Join(svc.cfg.PlotDir, costPlotFile)
		if err := svc.plotCost(rep.CostHistory, out.PlotPath); err != nil {
			return Outcome{}, err
		}
	}

	if err := model.SaveThetas(svc.cfg.ParamsPath, rep.Denormalized.Thetas()); err != nil {
		return Outcome{}, err
	}
	out.ParamsPath = svc.cfg.ParamsPath
	return out, nil
}

func (svc *service) Predict(ctx context.Context, mileage float64) (price float64, err error) {
	defer errors.Recover(&err, "app.Predict")

	th, err := model.LoadThetas(svc.cfg.ParamsPath)
	if err != nil {
		return 0, err
	}
	return linear.EstimatePrice(mileage, th.Theta0, th.Theta1), nil
}

func (svc *service) plotCost(history []float64, path string) error {
	return errors.SafeExecute("plotting.CostPlot", func() error {
		return plotting.CostPlot(history, path)
	})
}

func (svc *service) train(ctx context.Context) (Report, dataset.Dataset, error) {
	runID := uuid.NewString()
	logger := svc.logger.With(log.RunIDKey, runID)

	ds, err := dataset.Load(svc.cfg.DataPath)
	if err != nil {
		return Report{}, dataset.Dataset{}, err
	}

	opts := append(svc.cfg.TrainerOptions(), linear.WithLogger(logger))
	reg := linear.NewRegression(opts...)
	if err := reg.Fit(ctx, ds.Mileage, ds.Price); err != nil {
		failed := Report{
			RunID:        runID,
			Samples:      ds.Len(),
			Iterations:   reg.Iterations(),
			LearningRate: svc.cfg.LearningRate,
			CostHistory:  reg.CostHistory(),
		}
		return failed, ds, errors.NewModelError("app.Train", "fit", err)
	}

	pn, err := reg.NormalizedParams()
	if err != nil {
		return Report{}, dataset.Dataset{}, err
	}
	p, err := reg.Params()
	if err != nil {
		return Report{}, dataset.Dataset{}, err
	}

	history := reg.CostHistory()
	rep := Report{
		RunID:        runID,
		Samples:      ds.Len(),
		Iterations:   reg.Iterations(),
		LearningRate: svc.cfg.LearningRate,
		Normalized:   pn,
		Denormalized: p,
		FinalCost:    history[len(history)-1],
		CostHistory:  history,
	}

	rep.Precision, err = reg.Score(ds.Mileage, ds.Price)
	if err != nil {
		if !errors.Is(err, errors.ErrZeroVariance) {
			return Report{}, dataset.Dataset{}, err
		}
		logger.Warn("Precision undefined", log.ErrAttrKey, err)
		rep.Precision = math.NaN()
	}

	yTrue := mat.NewVecDense(ds.Len(), append([]float64(nil), ds.Price...))
	pred, err := reg.Predict(ds.Mileage)
	if err != nil {
		return Report{}, dataset.Dataset{}, err
	}
	yPred := mat.NewVecDense(len(pred), pred)
	if rep.MSE, err = metrics.MSE(yTrue, yPred); err != nil {
		return Report{}, dataset.Dataset{}, err
	}
	if rep.RMSE, err = metrics.RMSE(yTrue, yPred); err != nil {
		return Report{}, dataset.Dataset{}, err
	}
	if rep.MAE, err = metrics.MAE(yTrue, yPred); err != nil {
		return Report{}, dataset.Dataset{}, err
	}

	logger.Info("Model evaluated",
		log.OperationKey, log.OperationScore,
		log.R2ScoreKey, rep.Precision,
		log.Theta0Key, p.Theta0,
		log.Theta1Key, p.Theta1,
	)
	return rep, ds, nil
}
