package enrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/silversky/crm-enrich/internal/model"
	"github.com/silversky/crm-enrich/internal/output"
	"github.com/silversky/crm-enrich/internal/store"
)

const progressLogEvery = 10

// Runner drives a bounded worker pool over the record list, persisting
// each result and its checkpoint.
type Runner struct {
	Enricher     *Enricher
	Writer       *output.CSVWriter
	Errors       *output.ErrorLog
	Store        *store.Store
	RunID        string
	Workers      int
	ProgressPath string
}

// Run enriches records[i] for every index not in skip. Individual record
// failures are logged and counted; only infrastructure errors (store,
// writer) or context cancellation abort the run.
func (r *Runner) Run(ctx context.Context, records []model.Record, skip map[int]bool) (Snapshot, error) {
	stats := &Stats{}
	total := len(records)

	g, ctx := errgroup.WithContext(ctx)
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for idx, rec := range records {
		if skip[idx] {
			stats.addSkipped()
			continue
		}

		idx, rec := idx, rec
		g.Go(func() error {
			res, err := r.Enricher.EnrichRecord(ctx, rec)
			if err != nil {
				// Only cancellation surfaces here.
				return err
			}

			if res.Failed {
				stats.addFailure()
				msg := res.FailureMessage()
				if logErr := r.Errors.Record(idx, msg); logErr != nil {
					return logErr
				}
				if dbErr := r.Store.MarkFailed(ctx, r.RunID, idx, msg); dbErr != nil {
					return dbErr
				}
				zap.L().Warn("record failed",
					zap.Int("idx", idx),
					zap.String("fund", rec.Get(model.FundTitle)),
					zap.String("error", msg),
				)
				r.logProgress(stats, total)
				return nil // don't abort the run on individual failure
			}

			if err := r.Writer.WriteRecord(res.Merged.Record, res.Merged.Issues); err != nil {
				return eris.Wrapf(err, "enrich: persist record %d", idx)
			}
			if err := r.Store.MarkCompleted(ctx, r.RunID, idx, res.Tokens, res.CostUSD); err != nil {
				return err
			}
			stats.addSuccess(res.Tokens, res.CostUSD)

			r.updateProgressFile(ctx)
			r.logProgress(stats, total)
			return nil
		})
	}

	err := g.Wait()
	return stats.Snapshot(), err
}

// updateProgressFile refreshes the operator-facing scalar progress file
// with the contiguous resume frontier. Best effort.
func (r *Runner) updateProgressFile(ctx context.Context) {
	if r.ProgressPath == "" {
		return
	}
	next, err := r.Store.NextResumeIndex(ctx, r.RunID)
	if err == nil {
		err = output.WriteProgress(r.ProgressPath, next)
	}
	if err != nil {
		zap.L().Debug("progress file update failed", zap.Error(err))
	}
}

func (r *Runner) logProgress(stats *Stats, total int) {
	snap := stats.Snapshot()
	if snap.Done%progressLogEvery != 0 {
		return
	}
	zap.L().Info("progress",
		zap.Int("done", snap.Done),
		zap.Int("total", total-snap.Skipped),
		zap.Int("ok", snap.OK),
		zap.Int("fail", snap.Fail),
		zap.Int("tokens", snap.Tokens),
		zap.Float64("cost_usd", snap.CostUSD),
	)
}
