package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 2 * time.Minute

// Jobs is the periodic work the scheduler drives.
type Jobs interface {
	DailyReset(ctx context.Context) (int, error)
	Sweep(ctx context.Context) (evaluated, terminal int, err error)
}

type Scheduler struct {
	cron *cron.Cron
	jobs Jobs
	ctx  context.Context
}

// New builds a scheduler on a six-field (seconds) UTC cron. Overlapping runs of the same
// job are skipped.
func New(ctx context.Context, jobs Jobs) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		jobs: jobs,
		ctx:  ctx,
	}
}

func (s *Scheduler) Register(dailyResetCron, sweepCron string) error {
	if _, err := s.cron.AddFunc(dailyResetCron, s.RunDailyReset); err != nil {
		return fmt.Errorf("register daily reset: %w", err)
	}
	if _, err := s.cron.AddFunc(sweepCron, s.RunSweep); err != nil {
		return fmt.Errorf("register sweep: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[scheduler] started with %d jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] stopped")
}

func (s *Scheduler) RunDailyReset() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()
	n, err := s.jobs.DailyReset(ctx)
	if err != nil {
		log.Printf("[scheduler] daily reset: reset=%d err=%v", n, err)
		return
	}
	log.Printf("[scheduler] daily reset: reset=%d", n)
}

func (s *Scheduler) RunSweep() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()
	evaluated, terminal, err := s.jobs.Sweep(ctx)
	if err != nil {
		log.Printf("[scheduler] sweep: evaluated=%d terminal=%d err=%v", evaluated, terminal, err)
		return
	}
	if terminal > 0 {
		log.Printf("[scheduler] sweep: evaluated=%d terminal=%d", evaluated, terminal)
	}
}
