package scheduler

import (
	"sync"

	"transcription-orchestrator/core/models"
)

// DispatchRecord carries everything a worker needs to run one queued job
type DispatchRecord struct {
	JobID     string
	Kind      models.SourceKind
	InputPath string // set for uploads
	SourceURL string // set for remote references
	Model     string
	Language  string
}

// JobQueue is the FIFO pending queue. First submitted, first dispatched;
// no priority and no reordering.
type JobQueue struct {
	mu      sync.Mutex
	records []DispatchRecord
}

// NewJobQueue creates an empty queue
func NewJobQueue() *JobQueue {
	return &JobQueue{}
}

// Enqueue appends a record at the tail
func (q *JobQueue) Enqueue(rec DispatchRecord) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = append(q.records, rec)
}

// Pop removes and returns the head record, reporting false when empty
func (q *JobQueue) Pop() (DispatchRecord, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.records) == 0 {
		return DispatchRecord{}, false
	}

	rec := q.records[0]
	q.records = q.records[1:]
	return rec, true
}

// Len returns the number of pending records
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}
