package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrJobNotFound is returned when a status query names an id that was never issued
var ErrJobNotFound = errors.New("job not found")

// ErrorKind classifies a transcription failure
type ErrorKind string

const (
	KindInputNotFound   ErrorKind = "input_not_found"
	KindEngineSpawn     ErrorKind = "engine_spawn_error"
	KindEngineTimeout   ErrorKind = "engine_timeout"
	KindArtifactMissing ErrorKind = "artifact_missing"
	KindAcquisition     ErrorKind = "acquisition_error"
)

// TranscribeError is a kind-tagged error carrying captured engine diagnostics
type TranscribeError struct {
	Kind    ErrorKind
	Message string
	Stderr  string
	Err     error
}

func (e *TranscribeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As
func (e *TranscribeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AcquisitionTooLongError rejects a remote source exceeding the duration ceiling
type AcquisitionTooLongError struct {
	Duration time.Duration
	Limit    time.Duration
}

func (e *AcquisitionTooLongError) Error() string {
	return fmt.Sprintf(
		"source duration %s exceeds the %s limit",
		e.Duration.Round(time.Second),
		e.Limit.Round(time.Second),
	)
}
