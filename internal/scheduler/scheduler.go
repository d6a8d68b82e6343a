// Package scheduler re-analyses watched videos on a cron schedule
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds one scheduled run; a full analysis at the default quota takes minutes
const jobTimeout = 30 * time.Minute

// Job is a scheduled task
type Job func(ctx context.Context) error

// JobInfo describes a scheduled job
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	NextRun  time.Time `json:"next_run"`
	LastRun  time.Time `json:"last_run"`
}

type entry struct {
	id       cron.EntryID
	schedule string
}

// Scheduler runs named jobs on cron schedules. A job still running when its
// next tick arrives is skipped for that tick.
type Scheduler struct {
	cron     *cron.Cron
	mu       sync.Mutex
	jobs     map[string]entry
	timezone *time.Location
}

// New creates a scheduler evaluating schedules in timezone
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	return &Scheduler{
		cron:     c,
		jobs:     make(map[string]entry),
		timezone: loc,
	}, nil
}

// AddJob schedules job under name. schedule is a standard five-field cron expression.
// Adding a name twice replaces the earlier job.
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	id, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(name, job); err != nil {
			log.Printf("[scheduler] Job %s failed: %v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.mu.Lock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old.id)
	}
	s.jobs[name] = entry{id: id, schedule: schedule}
	s.mu.Unlock()

	log.Printf("[scheduler] Added job name=%s schedule=%q timezone=%s", name, schedule, s.timezone)
	return nil
}

// AddWatchJob schedules analysis of every video URL in videos
func (s *Scheduler) AddWatchJob(schedule string, videos []string, analyze func(ctx context.Context, videoURL string) error) error {
	if len(videos) == 0 {
		return fmt.Errorf("no videos to watch")
	}
	return s.AddJob("watch", schedule, watchJob(videos, analyze))
}

// watchJob analyses each video in turn. A failure on one video does not stop the others.
func watchJob(videos []string, analyze func(ctx context.Context, videoURL string) error) Job {
	urls := append([]string(nil), videos...)
	return func(ctx context.Context) error {
		failed := 0
		for _, url := range urls {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := analyze(ctx, url); err != nil {
				failed++
				log.Printf("[scheduler] Watch analysis failed url=%s: %v", url, err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d watched videos failed", failed, len(urls))
		}
		return nil
	}
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.jobs[name]; ok {
		s.cron.Remove(e.id)
		delete(s.jobs, name)
		log.Printf("[scheduler] Removed job: %s", name)
	}
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	log.Println("[scheduler] Starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	log.Println("[scheduler] Stopping scheduler")
	return s.cron.Stop()
}

// RunNow executes job immediately under the scheduled-run timeout
func (s *Scheduler) RunNow(name string, job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	log.Printf("[scheduler] Starting job: %s", name)
	start := time.Now()

	if err := job(ctx); err != nil {
		return err
	}

	log.Printf("[scheduler] Job %s completed in %v", name, time.Since(start))
	return nil
}

// ListJobs returns the scheduled jobs sorted by name
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, e := range s.jobs {
		c := s.cron.Entry(e.id)
		infos = append(infos, JobInfo{
			Name:     name,
			Schedule: e.schedule,
			NextRun:  c.Next,
			LastRun:  c.Prev,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
