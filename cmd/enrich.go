package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/silversky/crm-enrich/internal/cost"
	"github.com/silversky/crm-enrich/internal/enrich"
	"github.com/silversky/crm-enrich/internal/ingest"
	"github.com/silversky/crm-enrich/internal/output"
	"github.com/silversky/crm-enrich/internal/resilience"
	"github.com/silversky/crm-enrich/internal/stage"
	"github.com/silversky/crm-enrich/internal/store"
	"github.com/silversky/crm-enrich/pkg/gemini"
)

var enrichFlags struct {
	input       string
	output      string
	stages      string
	workers     int
	delaySecs   int
	limit       int
	start       int
	resume      bool
	retryFailed bool
	model       string
	dbPath      string
	progress    string
	rps         float64
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run staged enrichment over an input file",
	RunE:  runEnrich,
}

func init() {
	f := enrichCmd.Flags()
	f.StringVarP(&enrichFlags.input, "input", "i", "", "input file (.xlsx or .csv)")
	f.StringVarP(&enrichFlags.output, "output", "o", "", "output CSV (default from config)")
	f.StringVar(&enrichFlags.stages, "stages", "", "comma-separated stages: poc,fund,deep (default from config)")
	f.IntVar(&enrichFlags.workers, "workers", 0, "concurrent records (default from config)")
	f.IntVar(&enrichFlags.delaySecs, "delay", -1, "seconds between stages of one record (default from config)")
	f.IntVar(&enrichFlags.limit, "limit", 0, "process at most N records (0 = all)")
	f.IntVar(&enrichFlags.start, "start", 0, "skip records before this index")
	f.BoolVar(&enrichFlags.resume, "resume", true, "skip records already completed in a previous run")
	f.BoolVar(&enrichFlags.retryFailed, "retry-failed", false, "re-run records that failed in a previous run")
	f.StringVar(&enrichFlags.model, "model", "", "Gemini model override")
	f.StringVar(&enrichFlags.dbPath, "db", "", "checkpoint database path (default from config)")
	f.StringVar(&enrichFlags.progress, "progress", "", "progress file path (default from config)")
	f.Float64Var(&enrichFlags.rps, "rps", 0, "global API requests per second (default from config)")
	_ = enrichCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	if cfg.Gemini.Key == "" {
		return eris.New("enrich: CRM_GEMINI_KEY is not set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stagesSpec := orDefault(enrichFlags.stages, cfg.Enrich.Stages)
	kinds, err := stage.ParseKinds(stagesSpec)
	if err != nil {
		return err
	}

	records, err := ingest.Read(enrichFlags.input)
	if err != nil {
		return err
	}
	zap.L().Info("input loaded",
		zap.String("path", enrichFlags.input),
		zap.Int("records", len(records)),
		zap.String("stages", stagesSpec),
	)

	outPath := orDefault(enrichFlags.output, cfg.Output.CSV)

	st, err := store.Open(orDefault(enrichFlags.dbPath, cfg.Output.DB))
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	runID, err := st.EnsureRun(ctx, enrichFlags.input, outPath, stagesSpec)
	if err != nil {
		return err
	}

	skip, err := buildSkipSet(ctx, st, runID, len(records))
	if err != nil {
		return err
	}

	writer, err := output.NewCSVWriter(outPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	errLog, err := output.NewErrorLog(cfg.Output.ErrorLog)
	if err != nil {
		return err
	}
	defer errLog.Close()

	workers := enrichFlags.workers
	if workers <= 0 {
		workers = cfg.Enrich.Workers
	}
	delaySecs := enrichFlags.delaySecs
	if delaySecs < 0 {
		delaySecs = cfg.Enrich.StageDelaySecs
	}
	rps := enrichFlags.rps
	if rps <= 0 {
		rps = cfg.Enrich.RequestsPerSecond
	}

	client := gemini.NewClient(cfg.Gemini.Key,
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
		gemini.WithModel(orDefault(enrichFlags.model, cfg.Gemini.Model)),
	)

	retry := resilience.DefaultPolicy()
	retry.MaxAttempts = cfg.Enrich.MaxRetries

	runner := &enrich.Runner{
		Enricher: &enrich.Enricher{
			Client:     client,
			Stages:     stage.Definitions(kinds),
			StageDelay: time.Duration(delaySecs) * time.Second,
			Limiter:    rate.NewLimiter(rate.Limit(rps), 1),
			Retry:      retry,
			Rates: cost.Rates{
				InputPerMTok:  cfg.Pricing.InputPerMTok,
				OutputPerMTok: cfg.Pricing.OutputPerMTok,
				InputShare:    cfg.Pricing.InputShare,
			},
		},
		Writer:       writer,
		Errors:       errLog,
		Store:        st,
		RunID:        runID,
		Workers:      workers,
		ProgressPath: orDefault(enrichFlags.progress, cfg.Output.Progress),
	}

	snap, runErr := runner.Run(ctx, records, skip)

	zap.L().Info("run finished",
		zap.Int("done", snap.Done),
		zap.Int("ok", snap.OK),
		zap.Int("fail", snap.Fail),
		zap.Int("skipped", snap.Skipped),
		zap.Int("tokens", snap.Tokens),
		zap.Float64("cost_usd", snap.CostUSD),
	)
	fmt.Printf("done=%d ok=%d fail=%d skipped=%d tokens=%d cost=$%.2f\n",
		snap.Done, snap.OK, snap.Fail, snap.Skipped, snap.Tokens, snap.CostUSD)

	return runErr
}

// buildSkipSet combines the resume checkpoint with the --start/--limit
// window. Failed records stay skipped unless --retry-failed is set.
func buildSkipSet(ctx context.Context, st *store.Store, runID string, total int) (map[int]bool, error) {
	skip := make(map[int]bool)

	if enrichFlags.resume {
		completed, err := st.CompletedSet(ctx, runID)
		if err != nil {
			return nil, err
		}
		for idx := range completed {
			skip[idx] = true
		}
		if !enrichFlags.retryFailed {
			failed, err := st.FailedSet(ctx, runID)
			if err != nil {
				return nil, err
			}
			for idx := range failed {
				skip[idx] = true
			}
		}
	}

	for idx := 0; idx < enrichFlags.start && idx < total; idx++ {
		skip[idx] = true
	}
	if enrichFlags.limit > 0 {
		for idx := enrichFlags.start + enrichFlags.limit; idx < total; idx++ {
			skip[idx] = true
		}
	}
	return skip, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
