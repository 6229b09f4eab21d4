package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spinozarabel/headstart-admission/internal/observability"
	"github.com/spinozarabel/headstart-admission/internal/workflow"
)

// Leaser hands out named time-bounded leases so concurrent orchestrator
// instances do not run the same sweep at the same time.
type Leaser interface {
	AcquireLease(ctx context.Context, name string, ttlSeconds int) (bool, error)
	ReleaseLease(ctx context.Context, name string)
}

// Sweeper periodically runs the two reconciliation sweeps, each under its
// own lease.
type Sweeper struct {
	engine   *workflow.Engine
	leases   Leaser
	interval time.Duration
	leaseTTL int
	log      *zap.Logger
	metrics  *observability.Metrics
}

func NewSweeper(engine *workflow.Engine, leases Leaser, interval time.Duration, leaseTTLSeconds int, log *zap.Logger, metrics *observability.Metrics) *Sweeper {
	return &Sweeper{
		engine:   engine,
		leases:   leases,
		interval: interval,
		leaseTTL: leaseTTLSeconds,
		log:      log,
		metrics:  metrics,
	}
}

// Run blocks, sweeping every interval until the context is cancelled. The
// first sweep happens one full interval after start, leaving boot-time load
// to the HTTP surface.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs both sweeps once.
func (s *Sweeper) RunOnce(ctx context.Context) {
	s.sweep(ctx, "accounts", s.engine.SweepProvisionedAccounts)
	s.sweep(ctx, "bank_references", s.engine.SweepBankReferences)
}

func (s *Sweeper) sweep(ctx context.Context, name string, run func(context.Context) (int, error)) {
	acquired, err := s.leases.AcquireLease(ctx, "sweep:"+name, s.leaseTTL)
	if err != nil {
		s.log.Warn("sweep lease acquisition failed",
			zap.String("sweep", name), zap.Error(err))
		return
	}
	if !acquired {
		s.log.Debug("sweep lease held elsewhere, skipping", zap.String("sweep", name))
		return
	}
	defer s.leases.ReleaseLease(ctx, "sweep:"+name)

	s.metrics.SweepRunsTotal.WithLabelValues(name).Inc()
	examined, err := run(ctx)
	if err != nil {
		s.log.Error("sweep failed", zap.String("sweep", name), zap.Error(err))
		return
	}
	s.log.Info("sweep completed",
		zap.String("sweep", name), zap.Int("tickets_examined", examined))
}
