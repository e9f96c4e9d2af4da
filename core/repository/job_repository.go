package repository

import (
	"sync"
	"time"

	"transcription-orchestrator/core/models"

	"github.com/google/uuid"
)

// JobRepository is the in-memory registry of all jobs issued by this process.
// Entries live for the server lifetime; there is no eviction and no durable
// storage, so job ids are only valid while the process runs.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewJobRepository creates an empty registry
func NewJobRepository() *JobRepository {
	return &JobRepository{
		jobs: make(map[string]*models.Job),
	}
}

// CreateJob allocates a collision-free id and registers the job in started state
func (r *JobRepository) CreateJob(job *models.Job) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	job.ID = id
	job.State = models.JobStateStarted
	job.CreatedAt = time.Now()

	stored := *job
	r.jobs[id] = &stored
	return id
}

// GetJob returns a snapshot of the job, or ErrJobNotFound for unissued ids
func (r *JobRepository) GetJob(id string) (*models.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, models.ErrJobNotFound
	}
	return snapshot(job), nil
}

// SetState applies a state transition, enforcing the one-directional machine
func (r *JobRepository) SetState(id string, state models.JobState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.ErrJobNotFound
	}
	if !models.ValidTransition(job.State, state) {
		return &invalidTransitionError{from: job.State, to: state}
	}

	job.State = state
	return nil
}

// SetInputPath records the local audio path once acquisition has produced it
func (r *JobRepository) SetInputPath(id, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.ErrJobNotFound
	}
	job.InputPath = path
	return nil
}

// SetProgress updates the free-text progress line and percentage
func (r *JobRepository) SetProgress(id, line string, percent int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.ErrJobNotFound
	}
	if job.State.IsTerminal() {
		// late subprocess output must not disturb a settled job
		return nil
	}

	job.Progress = line
	if percent >= 0 && percent <= 100 {
		job.Percent = percent
	}
	return nil
}

// Complete moves the job to its completed terminal state with the transcript
func (r *JobRepository) Complete(id string, result *models.TranscriptionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.ErrJobNotFound
	}
	if !models.ValidTransition(job.State, models.JobStateCompleted) {
		return &invalidTransitionError{from: job.State, to: models.JobStateCompleted}
	}

	now := time.Now()
	job.State = models.JobStateCompleted
	job.Result = result
	job.Percent = 100
	job.CompletedAt = &now
	return nil
}

// Fail moves the job to its failed terminal state with a readable cause
func (r *JobRepository) Fail(id, message, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.ErrJobNotFound
	}
	if job.State.IsTerminal() {
		return &invalidTransitionError{from: job.State, to: models.JobStateFailed}
	}

	now := time.Now()
	job.State = models.JobStateFailed
	job.Error = message
	job.ErrorDetail = detail
	job.CompletedAt = &now
	return nil
}

// Size returns the number of registered jobs
func (r *JobRepository) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// snapshot deep-copies a job so readers never share registry memory
func snapshot(job *models.Job) *models.Job {
	out := *job
	if job.Result != nil {
		res := *job.Result
		res.Segments = append([]models.TranscriptSegment(nil), job.Result.Segments...)
		out.Result = &res
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

type invalidTransitionError struct {
	from, to models.JobState
}

func (e *invalidTransitionError) Error() string {
	return "invalid job state transition: " + string(e.from) + " -> " + string(e.to)
}
