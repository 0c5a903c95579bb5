package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/priyamvad/credflow/internal/ledger"
)

// JobStatus is the lifecycle state of an async assessment job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job tracks one async batch assessment.
type Job struct {
	ID          string       `json:"id"`
	Status      JobStatus    `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Result      *BatchResult `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// jobStore is a bounded in-memory job history. Results are derived data, so
// FIFO eviction past the cap is acceptable; there is no persistence layer.
type jobStore struct {
	mu    sync.Mutex
	cap   int
	order []string
	jobs  map[string]*Job
}

func newJobStore(cap int) *jobStore {
	if cap <= 0 {
		cap = 256
	}
	return &jobStore{cap: cap, jobs: make(map[string]*Job)}
}

func (s *jobStore) create() *Job {
	j := &Job{
		ID:          uuid.New().String(),
		Status:      JobPending,
		SubmittedAt: time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
	s.order = append(s.order, j.ID)
	for len(s.order) > s.cap {
		delete(s.jobs, s.order[0])
		s.order = s.order[1:]
	}
	return j
}

func (s *jobStore) complete(id string, res *BatchResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return // evicted before completion
	}
	now := time.Now()
	j.CompletedAt = &now
	if err != nil {
		j.Status = JobFailed
		j.Error = err.Error()
		return
	}
	j.Status = JobDone
	j.Result = res
}

func (s *jobStore) get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// AssessAsync enqueues a whole-ledger assessment and returns a job id the
// caller can poll. The batch runs under the configured batch timeout.
func (e *Engine) AssessAsync(l *ledger.Ledger, profiles ledger.ProfileIndex, capital *float64) string {
	j := e.jobs.create()
	cfg := e.conf.Load()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Engine.BatchTimeoutMs)*time.Millisecond)
		defer cancel()
		res, err := e.AssessSync(ctx, l, profiles, capital)
		e.jobs.complete(j.ID, res, err)
	}()
	return j.ID
}

// Job returns a snapshot of the job with the given id.
func (e *Engine) Job(id string) (Job, bool) {
	return e.jobs.get(id)
}
