// Package enrich runs the multi-stage enrichment pipeline: a bounded
// worker pool over independent records, with strictly sequential stages
// inside each record.
package enrich

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/silversky/crm-enrich/internal/cost"
	"github.com/silversky/crm-enrich/internal/model"
	"github.com/silversky/crm-enrich/internal/resilience"
	"github.com/silversky/crm-enrich/internal/stage"
	"github.com/silversky/crm-enrich/internal/validate"
	"github.com/silversky/crm-enrich/pkg/gemini"
)

// Enricher runs the configured stages against one record.
type Enricher struct {
	Client     gemini.Client
	Stages     []stage.Definition
	StageDelay time.Duration
	Limiter    *rate.Limiter
	Retry      resilience.Policy
	Rates      cost.Rates
}

// StageResult records one stage attempt.
type StageResult struct {
	Kind   stage.Kind
	Tokens int
	Err    error
}

// Result is the outcome of enriching one record.
type Result struct {
	Merged  *model.Merged
	Stages  []StageResult
	Tokens  int
	CostUSD float64
	// Failed is set only when every stage failed; partial results
	// still produce an output row.
	Failed bool
}

// FailureMessage joins the per-stage errors of a failed record.
func (r *Result) FailureMessage() string {
	var parts []string
	for _, sr := range r.Stages {
		if sr.Err != nil {
			parts = append(parts, sr.Kind.String()+": "+sr.Err.Error())
		}
	}
	return strings.Join(parts, "; ")
}

// EnrichRecord runs the stages in order. A stage failure is recorded and
// the remaining stages still run; only context cancellation aborts early.
func (e *Enricher) EnrichRecord(ctx context.Context, rec model.Record) (*Result, error) {
	merged := model.NewMerged(rec)
	res := &Result{Merged: merged}

	log := zap.L().With(
		zap.String("fund", rec.Get(model.FundTitle)),
	)

	failedStages := 0
	for i, def := range e.Stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sr := e.runStage(ctx, def, rec, merged, log)
		res.Stages = append(res.Stages, sr)
		res.Tokens += sr.Tokens
		if sr.Err != nil {
			failedStages++
		}

		// Pace between stages, not after the last one.
		if i < len(e.Stages)-1 && e.StageDelay > 0 {
			timer := time.NewTimer(e.StageDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	res.Failed = failedStages == len(e.Stages)
	res.CostUSD = e.Rates.Estimate(res.Tokens)
	return res, nil
}

func (e *Enricher) runStage(ctx context.Context, def stage.Definition, rec model.Record, merged *model.Merged, log *zap.Logger) StageResult {
	sr := StageResult{Kind: def.Kind}

	if e.Limiter != nil {
		if err := e.Limiter.Wait(ctx); err != nil {
			sr.Err = err
			return sr
		}
	}

	req := gemini.Request{
		Prompt:         def.BuildPrompt(rec),
		GroundedSearch: def.GroundedSearch,
		Temperature:    def.Temperature,
		MaxTokens:      def.MaxTokens,
	}

	retry := e.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("stage " + def.Kind.String())
	}

	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*gemini.Response, error) {
		return e.Client.GenerateContent(ctx, req)
	})
	if err != nil {
		log.Warn("stage transport failed", zap.String("stage", def.Kind.String()), zap.Error(err))
		sr.Err = err
		return sr
	}
	sr.Tokens = resp.TotalTokens

	raw, err := gemini.ExtractJSON(resp.Text)
	if err != nil {
		log.Warn("stage parse failed", zap.String("stage", def.Kind.String()), zap.Error(err))
		sr.Err = err
		return sr
	}

	accepted, issues := validate.StageOutput(rec, def, raw)
	merged.Apply(accepted)
	merged.AddIssues(issues...)

	log.Debug("stage done",
		zap.String("stage", def.Kind.String()),
		zap.Int("fields", len(accepted)),
		zap.Int("issues", len(issues)),
		zap.Int("tokens", sr.Tokens),
	)
	return sr
}
