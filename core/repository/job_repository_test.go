package repository

import (
	"errors"
	"testing"

	"transcription-orchestrator/core/models"
)

func newQueuedJob(t *testing.T, r *JobRepository) string {
	t.Helper()

	id := r.CreateJob(&models.Job{
		SourceKind: models.SourceUploadedFile,
		InputPath:  "/tmp/a.wav",
		Model:      "base",
		Language:   "auto",
	})
	if err := r.SetState(id, models.JobStateQueued); err != nil {
		t.Fatalf("queue job: %v", err)
	}
	return id
}

// TestCreateJobAssignsDistinctIDs verifies id allocation never collides
func TestCreateJobAssignsDistinctIDs(t *testing.T) {
	r := NewJobRepository()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := r.CreateJob(&models.Job{})
		if id == "" {
			t.Fatal("empty job id")
		}
		if seen[id] {
			t.Fatalf("duplicate job id: %s", id)
		}
		seen[id] = true
	}

	if r.Size() != 1000 {
		t.Fatalf("Size() = %d, want 1000", r.Size())
	}
}

// TestGetJobUnknownID verifies the not-found condition is distinct from failure
func TestGetJobUnknownID(t *testing.T) {
	r := NewJobRepository()

	if _, err := r.GetJob("never-issued"); !errors.Is(err, models.ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

// TestCompletePopulatesResultOnly verifies the result/error exclusivity
func TestCompletePopulatesResultOnly(t *testing.T) {
	r := NewJobRepository()
	id := newQueuedJob(t, r)

	if err := r.SetState(id, models.JobStateProcessing); err != nil {
		t.Fatalf("processing: %v", err)
	}
	if err := r.Complete(id, &models.TranscriptionResult{Text: "hello world"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	job, err := r.GetJob(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.State != models.JobStateCompleted {
		t.Fatalf("state = %s, want completed", job.State)
	}
	if job.Result == nil || job.Result.Text != "hello world" {
		t.Fatalf("result = %+v, want hello world", job.Result)
	}
	if job.Error != "" {
		t.Fatalf("error should be empty on completed job, got %q", job.Error)
	}
	if job.CompletedAt == nil {
		t.Fatal("completed job should carry a completion timestamp")
	}
}

// TestFailPopulatesErrorOnly verifies the failed terminal shape
func TestFailPopulatesErrorOnly(t *testing.T) {
	r := NewJobRepository()
	id := newQueuedJob(t, r)

	if err := r.Fail(id, "engine produced no transcript", "stderr tail"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	job, _ := r.GetJob(id)
	if job.State != models.JobStateFailed {
		t.Fatalf("state = %s, want failed", job.State)
	}
	if job.Error == "" {
		t.Fatal("failed job should carry an error message")
	}
	if job.Result != nil {
		t.Fatal("failed job should carry no result")
	}
}

// TestTerminalJobsRejectFurtherMutation verifies terminal immutability
func TestTerminalJobsRejectFurtherMutation(t *testing.T) {
	r := NewJobRepository()
	id := newQueuedJob(t, r)

	if err := r.SetState(id, models.JobStateProcessing); err != nil {
		t.Fatalf("processing: %v", err)
	}
	if err := r.Complete(id, &models.TranscriptionResult{Text: "done"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := r.Fail(id, "late failure", ""); err == nil {
		t.Fatal("Fail on a completed job should be rejected")
	}
	if err := r.SetState(id, models.JobStateProcessing); err == nil {
		t.Fatal("SetState out of a terminal state should be rejected")
	}

	job, _ := r.GetJob(id)
	if job.State != models.JobStateCompleted || job.Result.Text != "done" {
		t.Fatal("terminal job mutated after rejection")
	}
}

// TestGetJobReturnsIdenticalTerminalSnapshots verifies idempotent reads
func TestGetJobReturnsIdenticalTerminalSnapshots(t *testing.T) {
	r := NewJobRepository()
	id := newQueuedJob(t, r)

	if err := r.SetState(id, models.JobStateProcessing); err != nil {
		t.Fatalf("processing: %v", err)
	}
	if err := r.Complete(id, &models.TranscriptionResult{
		Text:     "hello world",
		Segments: []models.TranscriptSegment{{StartMS: 0, EndMS: 1200, Text: "hello world"}},
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	first, _ := r.GetJob(id)
	second, _ := r.GetJob(id)

	if first.State != second.State || first.Result.Text != second.Result.Text {
		t.Fatal("repeated reads of a terminal job differ")
	}
	if !first.CompletedAt.Equal(*second.CompletedAt) {
		t.Fatal("completion timestamps differ between reads")
	}

	// Snapshot isolation: mutating a returned copy must not touch the registry.
	first.Result.Text = "tampered"
	first.Result.Segments[0].Text = "tampered"
	fresh, _ := r.GetJob(id)
	if fresh.Result.Text != "hello world" || fresh.Result.Segments[0].Text != "hello world" {
		t.Fatal("registry state leaked through a snapshot")
	}
}

// TestSetProgressIgnoredOnTerminalJob verifies late output cannot disturb
// a settled job
func TestSetProgressIgnoredOnTerminalJob(t *testing.T) {
	r := NewJobRepository()
	id := newQueuedJob(t, r)

	if err := r.SetState(id, models.JobStateProcessing); err != nil {
		t.Fatalf("processing: %v", err)
	}
	if err := r.Fail(id, "boom", ""); err != nil {
		t.Fatalf("fail: %v", err)
	}

	if err := r.SetProgress(id, "late line", 50); err != nil {
		t.Fatalf("late progress should be a no-op, got %v", err)
	}
	job, _ := r.GetJob(id)
	if job.Progress == "late line" {
		t.Fatal("terminal job progress was overwritten")
	}
}
