package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"battle-room-system/services"

	"github.com/go-co-op/gocron/v2"
)

const reaperBatchSize = 100

// StaleMatchReaper abandons rooms that never got going: matches left in open
// or ready_pending longer than staleAfter. It only calls the engine; the
// engine itself runs no timers.
type StaleMatchReaper struct {
	svc        *services.MatchService
	interval   time.Duration
	staleAfter time.Duration
	sched      gocron.Scheduler
}

func NewStaleMatchReaper(svc *services.MatchService, interval, staleAfter time.Duration) *StaleMatchReaper {
	return &StaleMatchReaper{
		svc:        svc,
		interval:   interval,
		staleAfter: staleAfter,
	}
}

// Start schedules Sweep every interval until Stop is called. ctx bounds each sweep.
func (r *StaleMatchReaper) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create reaper scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			if n := r.Sweep(ctx); n > 0 {
				log.Printf("[Reaper] abandoned %d stale match(es)", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule reaper job: %w", err)
	}

	r.sched = sched
	sched.Start()
	log.Printf("[Reaper] sweeping every %s for matches idle longer than %s", r.interval, r.staleAfter)
	return nil
}

func (r *StaleMatchReaper) Stop() {
	if r.sched == nil {
		return
	}
	if err := r.sched.Shutdown(); err != nil {
		log.Printf("[Reaper] shutdown error: %v", err)
	}
}

// Sweep abandons one batch of stale matches and returns how many it closed.
// A match that moved on since it was listed is skipped.
func (r *StaleMatchReaper) Sweep(ctx context.Context) int {
	stale, err := r.svc.StaleMatches(ctx, r.staleAfter, reaperBatchSize)
	if err != nil {
		log.Printf("[Reaper] DB error listing stale matches: %v", err)
		return 0
	}

	closed := 0
	for _, m := range stale {
		if ctx.Err() != nil {
			break
		}
		_, err := r.svc.AbandonMatch(ctx, m.ID)
		switch {
		case err == nil:
			closed++
		case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrConflict):
			log.Printf("[Reaper] skipping match %s: %v", m.ID, err)
		default:
			log.Printf("[Reaper] failed to abandon match %s: %v", m.ID, err)
		}
	}
	return closed
}
