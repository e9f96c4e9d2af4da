package models

import "time"

// Job represents one transcription request and its tracked lifecycle state
type Job struct {
	ID           string
	State        JobState
	SourceKind   SourceKind
	InputPath    string // populated at submission for uploads, after acquisition for remote sources
	SourceURL    string
	OriginalName string
	SizeBytes    int64
	Model        string
	Language     string
	Progress     string // free-text status line, updated during processing
	Percent      int    // 0-100
	Result       *TranscriptionResult
	Error        string
	ErrorDetail  string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// SourceKind distinguishes how the audio input reaches the server
type SourceKind string

const (
	SourceUploadedFile    SourceKind = "upload"
	SourceRemoteReference SourceKind = "remote"
)

// JobState represents the current lifecycle state of a job
type JobState string

const (
	JobStateStarted    JobState = "started"
	JobStateQueued     JobState = "queued"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// IsTerminal reports whether the state admits no further transitions
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// ValidTransition enforces the one-directional job state machine
func ValidTransition(from, to JobState) bool {
	switch from {
	case JobStateStarted:
		return to == JobStateQueued || to == JobStateFailed
	case JobStateQueued:
		return to == JobStateProcessing || to == JobStateFailed
	case JobStateProcessing:
		return to == JobStateCompleted || to == JobStateFailed
	default:
		return false
	}
}

// TranscriptionResult holds the transcript produced by the external engine
type TranscriptionResult struct {
	Text     string
	Segments []TranscriptSegment
}

// TranscriptSegment is one time-aligned span of the transcript
type TranscriptSegment struct {
	StartMS int64
	EndMS   int64
	Text    string
}
