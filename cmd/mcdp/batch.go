package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gitrdm/gomcdp/pkg/dp"
	"github.com/gitrdm/gomcdp/pkg/dpyaml"
	"github.com/gitrdm/gomcdp/pkg/solver"
)

func (a *app) batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch FILE...",
		Short: "Run the queries section of every file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := a.loadAll(cmd.Context(), args)
			if err != nil {
				return err
			}
			jobs, err := a.batchJobs(args, docs)
			if err != nil {
				return err
			}
			results, err := a.solver.SolveAll(cmd.Context(), jobs, a.cfg.Workers)
			var failed []error
			for _, r := range results {
				fmt.Fprintln(a.out, r)
				if r.Err != nil {
					failed = append(failed, r.Err)
				}
			}
			if err != nil {
				return err
			}
			if len(failed) > 0 {
				a.logger.Warn("batch finished with failures", "failed", len(failed), "jobs", len(jobs))
				return errors.Join(failed...)
			}
			return nil
		},
	}
}

// loadAll decodes the files concurrently. After the first failure, files
// that have not started loading are skipped.
func (a *app) loadAll(ctx context.Context, paths []string) ([]*dpyaml.Document, error) {
	docs := make([]*dpyaml.Document, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.Workers > 0 {
		g.SetLimit(a.cfg.Workers)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := a.load(path)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// batchJobs turns the queries of every document into jobs. Each target is
// prepared once per document.
func (a *app) batchJobs(paths []string, docs []*dpyaml.Document) ([]solver.Job, error) {
	var jobs []solver.Job
	for i, doc := range docs {
		if len(doc.Queries) == 0 {
			return nil, dp.NewModelError(paths[i], "no queries")
		}
		targets := make(map[string]dp.PrimitiveDP)
		for _, q := range doc.Queries {
			d, ok := targets[q.Target]
			if !ok {
				raw, err := doc.DP(q.Target)
				if err != nil {
					return nil, err
				}
				if d, err = a.solver.Prepare(raw); err != nil {
					return nil, err
				}
				targets[q.Target] = d
			}
			job := solver.Job{
				Name:  filepath.Base(paths[i]) + ":" + q.Name,
				DP:    d,
				Query: q.Value,
			}
			if q.Backward {
				job.Direction = solver.Backward
			}
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}
