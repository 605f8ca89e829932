package web

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobState is where a video generation job is in its life.
type JobState string

const (
	JobPending JobState = "pending"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is one long-running video generation request.
type Job struct {
	ID      string    `json:"id"`
	State   JobState  `json:"state"`
	URI     string    `json:"uri,omitempty"`
	Error   string    `json:"error,omitempty"`
	Created time.Time `json:"created"`
}

// jobStore tracks jobs in memory. Jobs are transient; a restart loses
// them, matching the session-scoped semantics of the views they serve.
type jobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*Job)}
}

func (s *jobStore) create() *Job {
	job := &Job{
		ID:      uuid.NewString(),
		State:   JobPending,
		Created: time.Now(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

func (s *jobStore) get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (s *jobStore) complete(id, uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.State = JobDone
		job.URI = uri
	}
}

func (s *jobStore) fail(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.State = JobFailed
		job.Error = err.Error()
	}
}
