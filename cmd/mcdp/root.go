package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/gitrdm/gomcdp/internal/config"
	"github.com/gitrdm/gomcdp/internal/logging"
	"github.com/gitrdm/gomcdp/pkg/dpyaml"
	"github.com/gitrdm/gomcdp/pkg/simplify"
	"github.com/gitrdm/gomcdp/pkg/solver"
)

// app is the state shared by the subcommands, built once the flags are
// parsed.
type app struct {
	out     io.Writer
	cfg     config.Config
	logger  *slog.Logger
	solver  *solver.Solver
	metrics *solver.Metrics
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "mcdp",
		Short:         "Solve monotone co-design problems",
		Version:       solver.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.dumpMetrics()
		},
	}
	config.RegisterFlags(root.PersistentFlags())
	root.AddCommand(
		a.solveCmd(),
		a.solveRCmd(),
		a.simplifyCmd(),
		a.implCmd(),
		a.batchCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Color:  cfg.Log.Color,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger

	opts := []solver.Option{
		solver.WithDebug(cfg.Debug),
		solver.WithLogger(logger),
		solver.WithSimplify(cfg.Simplify.Enabled),
		solver.WithEngineOptions(simplify.WithStepFactor(cfg.Simplify.StepFactor)),
	}
	if cfg.Metrics {
		a.metrics = solver.NewMetrics()
		opts = append(opts, solver.WithMetrics(a.metrics))
	}
	a.solver = solver.New(opts...)
	logger.Debug("configured", "debug", cfg.Debug, "simplify", cfg.Simplify.Enabled,
		"max_iterations", cfg.Loop.MaxIterations, "workers", cfg.Workers)
	return nil
}

// load decodes a YAML file. Composites compile with the solver's engine so
// that their rewrites are counted too.
func (a *app) load(path string) (*dpyaml.Document, error) {
	a.logger.Debug("loading", "file", path)
	return dpyaml.DecodeFile(path,
		dpyaml.WithLoopMaxIterations(a.cfg.Loop.MaxIterations),
		dpyaml.WithEngine(a.solver.Engine()),
	)
}

func (a *app) dumpMetrics() error {
	if a.metrics == nil {
		return nil
	}
	families, err := a.metrics.Registry().Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(a.out, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}
