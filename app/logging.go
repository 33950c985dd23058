package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/YuminosukeSato/carprice/pkg/log"
)

var _ Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    Service
}

// LoggingMiddleware logs the duration and result of every call to svc.
func LoggingMiddleware(logger *slog.Logger, svc Service) Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Train(ctx context.Context) (rep Report, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, log.ErrAttr(err))
			lm.logger.Warn("Train failed", args...)

			return
		}
		args = append(args,
			slog.String(log.RunIDKey, rep.RunID),
			slog.Int(log.SamplesKey, rep.Samples),
			slog.Float64(log.LossKey, rep.FinalCost),
		)
		lm.logger.Info("Train completed successfully", args...)
	}(time.Now())

	return lm.svc.Train(ctx)
}

func (lm *loggingMiddleware) Run(ctx context.Context, mode Mode) (out Outcome, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String(log.ModeKey, mode.String()),
		}
		if err != nil {
			args = append(args, log.ErrAttr(err))
			lm.logger.Warn("Run failed", args...)

			return
		}
		if out.ParamsPath != "" {
			args = append(args, slog.String(log.PathKey, out.ParamsPath))
		}
		if out.Report != nil {
			args = append(args,
				slog.String(log.RunIDKey, out.Report.RunID),
				slog.Group("params",
					slog.Float64("theta0", out.Report.Denormalized.Theta0),
					slog.Float64("theta1", out.Report.Denormalized.Theta1),
				),
			)
		}
		lm.logger.Info("Run completed successfully", args...)
	}(time.Now())

	return lm.svc.Run(ctx, mode)
}

func (lm *loggingMiddleware) Predict(ctx context.Context, mileage float64) (price float64, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Float64(log.MileageKey, mileage),
		}
		if err != nil {
			args = append(args, log.ErrAttr(err))
			lm.logger.Warn("Predict failed", args...)

			return
		}
		args = append(args, slog.Float64(log.PriceKey, price))
		lm.logger.Info("Predict completed successfully", args...)
	}(time.Now())

	return lm.svc.Predict(ctx, mileage)
}
