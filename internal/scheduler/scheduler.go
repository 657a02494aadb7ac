// Package scheduler runs report jobs on 5-field cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// JobFunc receives the scheduled fire time.
type JobFunc func(ctx context.Context, at time.Time)

type job struct {
	name     string
	spec     string
	schedule cron.Schedule
	run      JobFunc
}

type Scheduler struct {
	loc  *time.Location
	jobs []job

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{loc: loc, now: time.Now, after: time.After}
}

// Add registers run under name. An empty spec leaves the job disabled.
func (s *Scheduler) Add(name, spec string, run JobFunc) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		log.Printf("scheduler %s disabled (no schedule)", name)
		return nil
	}
	sched, err := parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule for %s '%s': %w", name, spec, err)
	}
	s.jobs = append(s.jobs, job{name: name, spec: spec, schedule: sched, run: run})
	log.Printf("scheduler %s scheduled (cron: %s)", name, spec)
	return nil
}

func (s *Scheduler) Len() int { return len(s.jobs) }

// NextRun returns the first fire time of spec strictly after from.
func NextRun(spec string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// Run blocks until ctx is cancelled. Each job has its own loop, so a slow
// run delays only that job's next fire.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, j := range s.jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			s.loop(ctx, j)
		}(j)
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	for {
		now := s.now().In(s.loc)
		next := j.schedule.Next(now)
		wait := next.Sub(now)
		log.Printf("scheduler next %s at %s (in %s)", j.name, next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		select {
		case <-ctx.Done():
			return
		case <-s.after(wait):
		}
		if ctx.Err() != nil {
			return
		}
		j.run(ctx, next)
	}
}
