package bootstrap

import (
	"context"
	"sync"

	"github.com/official-panen138/seo-nexus/adapter/in/worker"
	"github.com/official-panen138/seo-nexus/config"
	"github.com/official-panen138/seo-nexus/pkg/logger"
)

// Worker runs the background schedulers.
type Worker struct {
	scheduler *worker.Scheduler
	enabled   bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker wires the scheduler process. The returned cleanup closes
// the store connections.
func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	logLevel := logger.ParseLevel(cfg.LogLevel)
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{Level: logLevel, Service: "seo-nexus-worker"})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("failed to initialize dependencies")
		return nil, nil, err
	}

	sched := worker.New(worker.Deps{
		Config:        cfg,
		Monitor:       deps.Monitor,
		Assets:        deps.Assets,
		Enricher:      deps.Enricher,
		Dispatcher:    deps.Dispatcher,
		Domains:       deps.Domains,
		Networks:      deps.Networks,
		Optimizations: deps.Optimizations,
		Settings:      deps.Settings,
		State:         deps.State,
	})

	return &Worker{scheduler: sched, enabled: cfg.SchedulerEnabled}, cleanup, nil
}

// Start runs the scheduler until Stop is called. Blocks.
func (w *Worker) Start() {
	if !w.enabled {
		logger.Info("scheduler disabled, worker idle")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.scheduler.Run(ctx)
	}()
	w.wg.Wait()
}

// Stop cancels the scheduler loops and waits for in-flight jobs.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
