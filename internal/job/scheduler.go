package job

import (
	"context"
	"fmt"

	"sentiment-desk/internal/pipeline"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"
)

type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Scheduler runs every profile through the pipeline on a cron schedule.
// Profiles run one after another and a tick that fires while the previous
// cycle is still running is skipped.
type Scheduler struct {
	cron     *cron.Cron
	tracer   trace.Tracer
	runner   Runner
	profiles []pipeline.Request
}

func NewScheduler(tracer trace.Tracer, runner Runner, profiles []pipeline.Request) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		tracer:   tracer,
		runner:   runner,
		profiles: profiles,
	}
}

// Register adds the run cycle under a standard five-field cron spec.
func (s *Scheduler) Register(ctx context.Context, spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunAll(ctx) }); err != nil {
		return fmt.Errorf("register schedule %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info("scheduler started", "profiles", len(s.profiles))
}

// Stop halts the schedule and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RunAll executes each profile once and reports how many failed.
func (s *Scheduler) RunAll(ctx context.Context) int {
	ctx, span := s.tracer.Start(ctx, "scheduler.run-all")
	defer span.End()

	failed := 0
	for _, req := range s.profiles {
		if ctx.Err() != nil {
			return failed
		}
		res, err := s.runner.Run(ctx, req)
		if err != nil {
			failed++
			log.Error("scheduled run failed", "ticker", req.Ticker, "err", err)
			continue
		}
		log.Info("scheduled run complete", "ticker", req.Ticker, "run", res.RunID, "sentiment", res.Summary.String())
	}
	return failed
}
