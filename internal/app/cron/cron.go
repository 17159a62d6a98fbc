package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/contasync/billing/internal/app/service/recurring"
	cfgpkg "github.com/contasync/billing/pkg/config"
	"github.com/contasync/billing/pkg/metrics"
	"github.com/contasync/billing/pkg/types"
)

const jobRecurring = "recurring_generation"

// Scheduler owns the daily billing jobs: charge generation for both template
// kinds and the overdue sweep. Single process, single runner; overlapping
// runs are tolerated because generation is idempotent.
type Scheduler struct {
	c        *cron.Cron
	cfg      *cfgpkg.Config
	log      *zap.SugaredLogger
	gen      *recurring.Service
	batchDur *prometheus.HistogramVec
}

func New(cfg *cfgpkg.Config, log *zap.SugaredLogger, gen *recurring.Service) (*Scheduler, error) {
	s := &Scheduler{
		c:   cron.New(cron.WithLocation(cfg.Location())),
		cfg: cfg,
		log: log,
		gen: gen,
	}

	collector := metrics.NewMetric(metrics.MetricsBatchRun, "billing")
	if err := prometheus.Register(collector); err != nil {
		log.Errorf("%s could not be registered in Prometheus, err=%v", metrics.MetricsBatchRun.Name, err)
	} else {
		s.batchDur = collector.(*prometheus.HistogramVec)
	}

	if _, err := s.c.AddFunc(cfg.Recurring.CronSpec, s.runScheduled); err != nil {
		return nil, fmt.Errorf("register cron spec %q: %w", cfg.Recurring.CronSpec, err)
	}
	return s, nil
}

// runScheduled is the daily tick. Failures are logged, never rethrown to the
// scheduler: the next tick retries from scratch.
func (s *Scheduler) runScheduled() {
	ctx := context.Background()

	for _, kind := range []types.TemplateKind{types.TemplateKindClientPayment, types.TemplateKindFinancialEntry} {
		if _, err := s.RunKind(ctx, kind); err != nil {
			s.log.Errorw("cron: recurring run failed", "kind", kind, "err", err)
		}
	}
	if _, err := s.gen.MarkOverdue(ctx); err != nil {
		s.log.Errorw("cron: overdue sweep failed", "err", err)
	}
}

// RunKind invokes the generator for one kind, recording run duration. Shared
// by the scheduler and the manual trigger endpoint.
func (s *Scheduler) RunKind(ctx context.Context, kind types.TemplateKind) (*recurring.RunReport, error) {
	start := time.Now()
	report, err := s.gen.Run(ctx, kind)
	if s.batchDur != nil {
		s.batchDur.WithLabelValues(jobRecurring, string(kind)).
			Observe(float64(time.Since(start).Milliseconds()))
	}
	return report, err
}

func register(lc fx.Lifecycle, s *Scheduler, log *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.c.Start()
			log.Infow("cron scheduler started", "spec", s.cfg.Recurring.CronSpec)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := s.c.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			log.Infow("cron scheduler stopped")
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(register),
)
