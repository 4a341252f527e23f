// Package cron runs recurring background jobs on fixed intervals.
package cron

import (
	"context"
	"sync"
	"time"
)

// Job is a named recurring task.
type Job struct {
	Name        string
	Description string
	Interval    time.Duration
	Fn          func(ctx context.Context) error
}

// Status records the outcome of the most recent run.
type Status struct {
	Name      string
	LastRun   time.Time
	LastError string
	Runs      int
}

// Scheduler owns a set of jobs and runs each on its own ticker.
type Scheduler struct {
	mu     sync.Mutex
	jobs   []Job
	status map[string]*Status
}

func New() *Scheduler {
	return &Scheduler{status: make(map[string]*Status)}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	s.status[job.Name] = &Status{Name: job.Name}
}

// Start launches one goroutine per job and blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			ticker := time.NewTicker(job.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.run(ctx, job)
				}
			}
		}(job)
	}
	wg.Wait()
}

// Run executes a registered job immediately by name.
func (s *Scheduler) Run(ctx context.Context, name string) bool {
	s.mu.Lock()
	var found *Job
	for i := range s.jobs {
		if s.jobs[i].Name == name {
			found = &s.jobs[i]
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return false
	}
	s.run(ctx, *found)
	return true
}

// List returns a snapshot of every job's status.
func (s *Scheduler) List() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Status, 0, len(s.status))
	for _, job := range s.jobs {
		out = append(out, *s.status[job.Name])
	}
	return out
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	err := job.Fn(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status[job.Name]
	st.LastRun = time.Now()
	st.Runs++
	if err != nil {
		st.LastError = err.Error()
	} else {
		st.LastError = ""
	}
}
