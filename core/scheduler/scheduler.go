package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"transcription-orchestrator/core/models"
	"transcription-orchestrator/core/repository"
)

// ProgressFunc receives progress lines while a job is being worked on.
// percent below zero means "no percentage known for this update".
type ProgressFunc func(line string, percent int)

// Transcriber runs one external transcription attempt for a local audio file
type Transcriber interface {
	Transcribe(ctx context.Context, inputPath, model, language string, onProgress ProgressFunc) (*models.TranscriptionResult, error)
}

// Acquirer turns a remote media reference into a local audio file
type Acquirer interface {
	ProbeDuration(ctx context.Context, url string) (time.Duration, error)
	Acquire(ctx context.Context, jobID, url string, onProgress ProgressFunc) (string, error)
}

// Stats is the diagnostic snapshot returned by queue-stats queries
type Stats struct {
	QueueLength       int   `json:"queue_length"`
	ActiveJobs        int   `json:"active_jobs"`
	RegistrySize      int   `json:"registry_size"`
	AvailableMemoryMB int64 `json:"available_memory_mb"`
}

// Scheduler admits transcription jobs and bounds concurrent engine invocations.
// The external engine is memory-heavy, so the concurrency limit is a
// backpressure control, not a throughput knob. Dispatch order is FIFO.
type Scheduler struct {
	jobRepo     *repository.JobRepository
	queue       *JobQueue
	transcriber Transcriber
	acquirer    Acquirer
	memProbe    func() int64

	maxConcurrent int
	maxDuration   time.Duration

	mu     sync.Mutex // guards active
	active int

	wake     chan struct{}
	stopChan chan struct{}
}

// NewScheduler creates a scheduler with the given concurrency limit (min 1)
// and remote-source duration ceiling (0 disables the ceiling).
func NewScheduler(
	jobRepo *repository.JobRepository,
	transcriber Transcriber,
	acquirer Acquirer,
	memProbe func() int64,
	maxConcurrent int,
	maxDuration time.Duration,
) *Scheduler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if memProbe == nil {
		memProbe = func() int64 { return 0 }
	}

	s := &Scheduler{
		jobRepo:       jobRepo,
		queue:         NewJobQueue(),
		transcriber:   transcriber,
		acquirer:      acquirer,
		memProbe:      memProbe,
		maxConcurrent: maxConcurrent,
		maxDuration:   maxDuration,
		wake:          make(chan struct{}, 1),
		stopChan:      make(chan struct{}),
	}
	return s
}

// SubmitUpload admits an already-local audio file and returns its job id.
// The call never waits for transcription; callers poll for the outcome.
func (s *Scheduler) SubmitUpload(path, originalName string, sizeBytes int64, model, language string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("uploaded file not accessible: %w", err)
	}

	job := &models.Job{
		SourceKind:   models.SourceUploadedFile,
		InputPath:    path,
		OriginalName: originalName,
		SizeBytes:    sizeBytes,
		Model:        models.NormalizeModel(model),
		Language:     models.NormalizeLanguage(language),
	}
	return s.admit(job, DispatchRecord{
		Kind:      models.SourceUploadedFile,
		InputPath: path,
		Model:     job.Model,
		Language:  job.Language,
	})
}

// SubmitRemote admits a remote media reference. The duration ceiling is
// enforced here, before any job exists: over-long sources are rejected
// synchronously and leave no registry entry behind.
func (s *Scheduler) SubmitRemote(ctx context.Context, url, model, language string) (string, error) {
	if url == "" {
		return "", errors.New("source url is required")
	}

	duration, err := s.acquirer.ProbeDuration(ctx, url)
	if err != nil {
		return "", fmt.Errorf("cannot resolve source: %w", err)
	}
	if s.maxDuration > 0 && duration > s.maxDuration {
		return "", &models.AcquisitionTooLongError{Duration: duration, Limit: s.maxDuration}
	}

	job := &models.Job{
		SourceKind: models.SourceRemoteReference,
		SourceURL:  url,
		Model:      models.NormalizeModel(model),
		Language:   models.NormalizeLanguage(language),
	}
	return s.admit(job, DispatchRecord{
		Kind:      models.SourceRemoteReference,
		SourceURL: url,
		Model:     job.Model,
		Language:  job.Language,
	})
}

// admit registers the job, moves it started -> queued, and wakes dispatch
func (s *Scheduler) admit(job *models.Job, rec DispatchRecord) (string, error) {
	id := s.jobRepo.CreateJob(job)
	if err := s.jobRepo.SetState(id, models.JobStateQueued); err != nil {
		return "", err
	}

	rec.JobID = id
	s.queue.Enqueue(rec)
	s.wakeUp()

	log.Printf("scheduler: job %s queued (%s, model=%s lang=%s)", id, rec.Kind, rec.Model, rec.Language)
	return id, nil
}

// Start runs the dispatch loop until the context is cancelled or Stop is
// called. The ticker is a safety sweep; normal flow is wake-channel driven.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-s.wake:
			s.dispatch(ctx)
		case <-ticker.C:
			s.dispatch(ctx)
		}
	}
}

// Stop stops the dispatch loop
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// Stats returns the diagnostic queue snapshot
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	return Stats{
		QueueLength:       s.queue.Len(),
		ActiveJobs:        active,
		RegistrySize:      s.jobRepo.Size(),
		AvailableMemoryMB: s.memProbe(),
	}
}

// dispatch claims queued records while capacity remains. Each record is
// popped exactly once, so no job can reach the engine twice.
func (s *Scheduler) dispatch(ctx context.Context) {
	for {
		s.mu.Lock()
		if s.active >= s.maxConcurrent {
			s.mu.Unlock()
			return
		}

		rec, ok := s.queue.Pop()
		if !ok {
			s.mu.Unlock()
			return
		}
		s.active++
		s.mu.Unlock()

		if err := s.jobRepo.SetState(rec.JobID, models.JobStateProcessing); err != nil {
			log.Printf("scheduler: cannot start job %s: %v", rec.JobID, err)
			s.release()
			continue
		}

		go s.run(ctx, rec)
	}
}

// run executes one claimed job to a terminal state. Errors become a failed
// job; they never escape, so the loop survives every per-job failure.
func (s *Scheduler) run(ctx context.Context, rec DispatchRecord) {
	defer func() {
		s.release()
		s.wakeUp()
	}()

	onProgress := func(line string, percent int) {
		_ = s.jobRepo.SetProgress(rec.JobID, line, percent)
	}

	inputPath := rec.InputPath
	if rec.Kind == models.SourceRemoteReference {
		path, err := s.acquirer.Acquire(ctx, rec.JobID, rec.SourceURL, onProgress)
		if err != nil {
			log.Printf("scheduler: job %s acquisition failed: %v", rec.JobID, err)
			s.fail(rec.JobID, err)
			return
		}
		inputPath = path
		_ = s.jobRepo.SetInputPath(rec.JobID, path)
	}

	result, err := s.transcriber.Transcribe(ctx, inputPath, rec.Model, rec.Language, onProgress)
	if err != nil {
		log.Printf("scheduler: job %s failed: %v", rec.JobID, err)
		s.fail(rec.JobID, err)
		return
	}

	if err := s.jobRepo.Complete(rec.JobID, result); err != nil {
		log.Printf("scheduler: cannot complete job %s: %v", rec.JobID, err)
		return
	}
	log.Printf("scheduler: job %s completed (%d chars)", rec.JobID, len(result.Text))
}

// fail records a terminal failure with any engine stderr kept as detail
func (s *Scheduler) fail(jobID string, err error) {
	detail := ""
	var terr *models.TranscribeError
	if errors.As(err, &terr) {
		detail = terr.Stderr
	}
	if ferr := s.jobRepo.Fail(jobID, err.Error(), detail); ferr != nil {
		log.Printf("scheduler: cannot fail job %s: %v", jobID, ferr)
	}
}

func (s *Scheduler) release() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
}

func (s *Scheduler) wakeUp() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
