package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/dpyaml"
	"github.com/gitrdm/gomcdp/pkg/solver"
)

// target loads file and returns its DP named name.
func (a *app) target(file, name string) (dp.PrimitiveDP, error) {
	doc, err := a.load(file)
	if err != nil {
		return nil, err
	}
	return doc.DP(name)
}

// prepared is target followed by the solver's simplification pass, when
// it is on.
func (a *app) prepared(file, name string) (dp.PrimitiveDP, error) {
	d, err := a.target(file, name)
	if err != nil {
		return nil, err
	}
	return a.solver.Prepare(d)
}

func (a *app) solveCmd() *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "solve FILE TARGET FUNCTIONALITY",
		Short: "Print the minimal resources that provide a functionality",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			d, err := a.prepared(args[0], args[1])
			if err != nil {
				return err
			}
			f, err := dpyaml.ParseValue(d.FunSpace(), args[2])
			if err != nil {
				return err
			}
			res, err := a.solver.Solve(d, f)
			if err != nil {
				return err
			}
			if trace {
				fmt.Fprintln(a.out, res.Trace)
			}
			fmt.Fprintln(a.out, res.Min)
			return nil
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "print the solver trace")
	return cmd
}

func (a *app) solveRCmd() *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "solve-r FILE TARGET RESOURCES",
		Short: "Print the maximal functionality a resource budget provides",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			d, err := a.prepared(args[0], args[1])
			if err != nil {
				return err
			}
			r, err := dpyaml.ParseValue(d.ResSpace(), args[2])
			if err != nil {
				return err
			}
			res, err := a.solver.SolveR(d, r)
			if err != nil {
				return err
			}
			if trace {
				fmt.Fprintln(a.out, res.Trace)
			}
			fmt.Fprintln(a.out, res.Max)
			return nil
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "print the solver trace")
	return cmd
}

func (a *app) simplifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simplify FILE TARGET",
		Short: "Print a DP before and after simplification",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			d, err := a.target(args[0], args[1])
			if err != nil {
				return err
			}
			simple, err := a.solver.Engine().Simplify(d)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "before (%d nodes):\n%s", dp.Size(d), dp.Repr(d))
			fmt.Fprintf(a.out, "after (%d nodes):\n%s", dp.Size(simple), dp.Repr(simple))
			if stats := a.solver.Engine().Stats(); stats.Total() > 0 {
				fmt.Fprintf(a.out, "rules:\n%s", stats)
			}
			return nil
		},
	}
}

func (a *app) implCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "impl FILE TARGET FUNCTIONALITY RESOURCES",
		Short: "List the implementations that provide a functionality within a budget",
		Args:  cobra.ExactArgs(4),
		RunE: func(_ *cobra.Command, args []string) error {
			d, err := a.prepared(args[0], args[1])
			if err != nil {
				return err
			}
			f, err := dpyaml.ParseValue(d.FunSpace(), args[2])
			if err != nil {
				return err
			}
			r, err := dpyaml.ParseValue(d.ResSpace(), args[3])
			if err != nil {
				return err
			}
			imps, err := a.solver.Implementations(d, f, r)
			if err != nil {
				return err
			}
			if len(imps) == 0 {
				fmt.Fprintln(a.out, "infeasible")
				return nil
			}
			for _, imp := range imps {
				fmt.Fprintln(a.out, imp)
			}
			return nil
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			info := solver.GetVersionInfo()
			switch strings.ToLower(format) {
			case "", "text":
				fmt.Fprintf(a.out, "mcdp %s %s", info.Version, info.GoVersion)
				if info.GitCommit != "" {
					fmt.Fprintf(a.out, " commit %s", info.GitCommit)
				}
				if info.BuildDate != "" {
					fmt.Fprintf(a.out, " built %s", info.BuildDate)
				}
				fmt.Fprintln(a.out)
				return nil
			case "yaml":
				enc := yaml.NewEncoder(a.out)
				defer enc.Close()
				return enc.Encode(info)
			}
			return fmt.Errorf("unknown output format %q (expected text or yaml)", format)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text or yaml")
	return cmd
}
