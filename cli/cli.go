// Package cli implements the carprice command tree.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/YuminosukeSato/carprice/app"
	"github.com/YuminosukeSato/carprice/config"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/charmbracelet/huh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const (
	svcName   = "carprice"
	subsystem = "app"
)

// Deps lets callers replace the interactive prompts and the log destination.
type Deps struct {
	Prompter Prompter
	LogOut   io.Writer
}

type runtime struct {
	deps       Deps
	configPath string
	flags      config.Config
	cfg        config.Config
	svc        app.Service
	registry   *prometheus.Registry
}

// NewRootCmd builds the carprice command with train, predict and report.
func NewRootCmd(deps Deps) *cobra.Command {
	if deps.Prompter == nil {
		deps.Prompter = NewPrompter()
	}
	rt := &runtime{deps: deps}

	rootCmd := &cobra.Command{
		Use:   "carprice",
		Short: "Car price linear regression",
		Long: `Train a linear regression of price against mileage by gradient descent
and estimate the price of a car from the saved parameters.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rt.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.flushMetrics()
		},
	}

	def := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rt.configPath, "config", "c", "", "TOML configuration file")
	pf.StringVar(&rt.flags.DataPath, "data", def.DataPath, "CSV dataset with km and price columns")
	pf.StringVar(&rt.flags.ParamsPath, "params", def.ParamsPath, "JSON file holding the trained parameters")
	pf.Float64Var(&rt.flags.LearningRate, "learning-rate", def.LearningRate, "gradient descent learning rate")
	pf.IntVar(&rt.flags.Iterations, "iterations", def.Iterations, "number of gradient descent iterations")
	pf.StringVar(&rt.flags.PlotDir, "plot-dir", def.PlotDir, "directory for rendered plots")
	pf.StringVar(&rt.flags.LogLevel, "log-level", def.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&rt.flags.LogFormat, "log-format", def.LogFormat, "log format (json, console)")
	pf.StringVar(&rt.flags.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		newTrainCmd(rt),
		newPredictCmd(rt),
		newReportCmd(rt),
	)
	return rootCmd
}

func (rt *runtime) setup(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if err != nil {
			logErrorCmd(*cmd, err)
		}
	}()

	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	rt.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	rt.cfg = cfg

	out := rt.deps.LogOut
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	console := cfg.LogFormat == config.FormatConsole

	var slogger *slog.Logger
	if console {
		slogger = slog.New(log.WithStacktrace(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.Level(level)})))
	} else if slogger, err = log.SetupLogger(out, cfg.LogLevel); err != nil {
		return err
	}
	logger := log.NewZerologLogger(out, level, console)
	log.InstallWarnings(logger)

	rt.registry = prometheus.NewRegistry()
	counter, latency, err := app.MakeMetrics(rt.registry, svcName, subsystem)
	if err != nil {
		return err
	}

	svc := app.NewService(cfg, logger)
	svc = app.LoggingMiddleware(slogger, svc)
	rt.svc = app.MetricsMiddleware(counter, latency, svc)
	return nil
}

// applyFlags copies the flags set on the command line over cfg.
func (rt *runtime) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("data") {
		cfg.DataPath = rt.flags.DataPath
	}
	if changed("params") {
		cfg.ParamsPath = rt.flags.ParamsPath
	}
	if changed("learning-rate") {
		cfg.LearningRate = rt.flags.LearningRate
	}
	if changed("iterations") {
		cfg.Iterations = rt.flags.Iterations
	}
	if changed("plot-dir") {
		cfg.PlotDir = rt.flags.PlotDir
	}
	if changed("log-level") {
		cfg.LogLevel = rt.flags.LogLevel
	}
	if changed("log-format") {
		cfg.LogFormat = rt.flags.LogFormat
	}
	if changed("metrics-file") {
		cfg.MetricsFile = rt.flags.MetricsFile
	}
}

func (rt *runtime) flushMetrics() error {
	if rt.cfg.MetricsFile == "" || rt.registry == nil {
		return nil
	}
	return app.WriteMetrics(rt.cfg.MetricsFile, rt.registry)
}

func newTrainCmd(rt *runtime) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the model",
		Long: `Train on the dataset, then display the result, render a plot, or exit.
Without --mode an interactive menu is shown. Every choice except exit saves
the parameters.

Examples:
  carprice train --mode report
  carprice train --mode plot-cost --plot-dir plots`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return nil
			}

			var (
				mode app.Mode
				err  error
			)
			if modeFlag != "" {
				mode, err = app.ParseMode(modeFlag)
			} else {
				mode, err = rt.deps.Prompter.SelectMode()
			}
			if err != nil {
				logErrorCmd(*cmd, err)

				return err
			}

			out, err := rt.svc.Run(cmd.Context(), mode)
			if err != nil {
				logErrorCmd(*cmd, err)
				if out.PlotPath != "" {
					logOKCmd(*cmd, "Cost plot of the failed run saved to %s", out.PlotPath)
				}

				return err
			}

			switch out.Mode {
			case app.ModeExit:
				logOKCmd(*cmd, "Exiting...")

				return nil
			case app.ModeReport:
				logJSONCmd(*cmd, out.Report)
			default:
				logOKCmd(*cmd, "Plot saved to %s", out.PlotPath)
			}
			logOKCmd(*cmd, "Parameters saved to %s", out.ParamsPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "report, plot-regression, plot-cost or exit (1-4)")
	return cmd
}

func newPredictCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "predict [mileage]",
		Short: "Estimate a price from the saved parameters",
		Long: `Estimate the price of a car with the given mileage in km.
Without an argument the mileage is asked interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				mileage float64
				err     error
			)
			switch len(args) {
			case 0:
				mileage, err = rt.deps.Prompter.Mileage()
			case 1:
				mileage, err = parseMileage(args[0])
			default:
				logUsageCmd(*cmd, cmd.Use)

				return nil
			}
			if err != nil {
				logErrorCmd(*cmd, err)

				return err
			}

			price, err := rt.svc.Predict(cmd.Context(), mileage)
			if err != nil {
				logErrorCmd(*cmd, err)

				return err
			}
			logPriceCmd(*cmd, price)
			return nil
		},
	}
}

func newReportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Train and print the report without saving",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return nil
			}

			rep, err := rt.svc.Train(cmd.Context())
			if err != nil {
				logErrorCmd(*cmd, err)

				return err
			}
			logJSONCmd(*cmd, rep)
			return nil
		},
	}
}

// IsInterrupted reports whether err comes from a canceled context or an
// aborted prompt.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, huh.ErrUserAborted)
}
