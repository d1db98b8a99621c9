package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result is what a Run reports back to its caller. Stage is StageDone on
// success and StageFailed otherwise; FailedAt names the stage that failed.
type Result struct {
	RunID       uuid.UUID
	Stage       Stage
	FailedAt    Stage
	Applied     []string
	Skipped     []string
	AdminSeeded bool
	Duration    time.Duration
}

// OK reports whether the run completed.
func (r Result) OK() bool {
	return r.Stage == StageDone
}

// Run connects, applies the schema, seeds the administrator and closes the
// pool, in that order. The pool is released on every path. The returned
// error is a *ConnectionError, *SchemaError or *SeedError.
func Run(ctx context.Context, cfg Config, log *zap.SugaredLogger, opts ...Option) (res Result, err error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	started := time.Now()
	res = Result{RunID: uuid.New(), Stage: StageNotRun}
	log = log.With("run_id", res.RunID.String())

	defer func() {
		res.Duration = time.Since(started)
		if err != nil {
			res.FailedAt = res.Stage
			res.Stage = StageFailed
			log.Errorw("bootstrap: failed", "stage", res.FailedAt, "error", err)
		}
	}()

	res.Stage = StageConnecting
	boot, err := Open(ctx, cfg, log, opts...)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := boot.Close(); cerr != nil {
			log.Warnw("bootstrap: failed to close database", "error", cerr)
		}
	}()

	res.Stage = StageApplyingSchema
	res.Applied, res.Skipped, err = boot.ApplySchema(ctx)
	if err != nil {
		return res, err
	}
	log.Infow("bootstrap: schema ready", "applied", res.Applied, "skipped", res.Skipped)

	if boot.cfg.Seed {
		res.Stage = StageSeeding
		res.AdminSeeded, err = boot.Seed(ctx)
		if err != nil {
			return res, err
		}
	} else {
		log.Infow("bootstrap: database schema created but no seed data loaded")
	}

	res.Stage = StageDone
	log.Infow("Database schema created successfully", "duration", time.Since(started))
	return res, nil
}
