package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/ethereum"
	"github.com/GrimoireLabs/grimoire/components/core/internal/services/command"
	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mlog"
	"go.opentelemetry.io/otel/trace"
)

func workerContext(logger mlog.Logger, tracer trace.Tracer) context.Context {
	ctx := pkg.ContextWithLogger(context.Background(), logger)

	return pkg.ContextWithTracer(ctx, tracer)
}

// PollWorker sweeps running poll-mode generations at a fixed tick.
type PollWorker struct {
	UseCase *command.UseCase
	Tick    time.Duration
	logger  mlog.Logger
	tracer  trace.Tracer
}

// NewPollWorker creates the poll sweeper.
func NewPollWorker(uc *command.UseCase, tick time.Duration, logger mlog.Logger, tracer trace.Tracer) *PollWorker {
	if tick <= 0 {
		tick = 5 * time.Second
	}

	return &PollWorker{UseCase: uc, Tick: tick, logger: logger, tracer: tracer}
}

// Run ticks until the process is told to stop.
func (w *PollWorker) Run(l *pkg.Launcher) error {
	ticker := time.NewTicker(w.Tick)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			ctx := workerContext(w.logger, w.tracer)

			if err := w.UseCase.PollRunningGenerations(ctx); err != nil {
				w.logger.Errorf("Poll sweep failed: %v", err)
			}
		case <-quit:
			return nil
		}
	}
}

// JanitorWorker periodically resolves dangling ledger reserves.
type JanitorWorker struct {
	UseCase  *command.UseCase
	Interval time.Duration
	Cutoff   time.Duration
	logger   mlog.Logger
	tracer   trace.Tracer
}

// NewJanitorWorker creates the reserve janitor.
func NewJanitorWorker(uc *command.UseCase, interval, cutoff time.Duration, logger mlog.Logger, tracer trace.Tracer) *JanitorWorker {
	if interval <= 0 {
		interval = time.Minute
	}

	if cutoff <= 0 {
		cutoff = 10 * time.Minute
	}

	return &JanitorWorker{UseCase: uc, Interval: interval, Cutoff: cutoff, logger: logger, tracer: tracer}
}

// Run ticks until the process is told to stop.
func (w *JanitorWorker) Run(l *pkg.Launcher) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			ctx := workerContext(w.logger, w.tracer)

			if err := w.UseCase.SweepStaleReserves(ctx, w.Cutoff); err != nil {
				w.logger.Errorf("Janitor sweep failed: %v", err)
			}
		case <-quit:
			return nil
		}
	}
}

// ChainObserverWorker watches one chain: an observation loop records new deposit
// events, a crediting loop confirms and settles them into ledger credits.
type ChainObserverWorker struct {
	UseCase  *command.UseCase
	Reader   ethereum.LogReader
	Chain    ethereum.ChainConfig
	Interval time.Duration
	logger   mlog.Logger
	tracer   trace.Tracer
}

// NewChainObserverWorker creates the observer of one chain.
func NewChainObserverWorker(uc *command.UseCase, reader ethereum.LogReader, chain ethereum.ChainConfig, interval time.Duration, logger mlog.Logger, tracer trace.Tracer) *ChainObserverWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &ChainObserverWorker{
		UseCase:  uc,
		Reader:   reader,
		Chain:    chain,
		Interval: interval,
		logger:   logger,
		tracer:   tracer,
	}
}

// Run hosts both loops until the process is told to stop.
func (w *ChainObserverWorker) Run(l *pkg.Launcher) error {
	observe := time.NewTicker(w.Interval)
	defer observe.Stop()

	credit := time.NewTicker(w.Interval * 2)
	defer credit.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-observe.C:
			ctx := workerContext(w.logger, w.tracer)

			if err := w.UseCase.ObserveChain(ctx, w.Chain.Name, w.Reader); err != nil {
				w.logger.Errorf("Observation of chain %s failed: %v", w.Chain.Name, err)
			}
		case <-credit.C:
			ctx := workerContext(w.logger, w.tracer)

			if err := w.UseCase.SettleDeposits(ctx, w.Chain.Name, w.Reader, w.Chain.Confirmations); err != nil {
				w.logger.Errorf("Deposit settlement on chain %s failed: %v", w.Chain.Name, err)
			}
		case <-quit:
			return nil
		}
	}
}
