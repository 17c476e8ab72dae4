package cronrunner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner schedules named jobs on a shared base context. A job that is still
// running when its next tick arrives is skipped, so slow cycles never overlap
// themselves.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

func (r *Runner) Add(name, spec string, job func(context.Context)) (cron.EntryID, error) {
	var running atomic.Bool
	return r.cron.AddFunc(spec, func() {
		if !running.CompareAndSwap(false, true) {
			if r.logger != nil {
				r.logger.Warn("cron job still running, skipping tick", zap.String("job", name))
			}
			return
		}
		defer running.Store(false)

		start := time.Now()
		job(r.baseCtx)
		if r.logger != nil {
			r.logger.Debug("cron job finished",
				zap.String("job", name),
				zap.Duration("took", time.Since(start)),
			)
		}
	})
}

func (r *Runner) Start() {
	if r.logger != nil {
		r.logger.Info("cron started")
	}
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	if r.logger != nil {
		r.logger.Info("cron stopped")
	}
}
