package transcriber

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"transcription-orchestrator/core/models"
	"transcription-orchestrator/core/scheduler"
)

// Engine invokes the whisper.cpp CLI as a subprocess and normalizes its
// outcome. The transcript artifact on disk is the authoritative success
// signal: the engine may be signaled or report an ambiguous exit after
// having already written a valid transcript, so exit codes are advisory.
type Engine struct {
	whisperPath string
	modelDir    string
	timeout     time.Duration
	runner      commandRunner
	stat        func(name string) (os.FileInfo, error)
	readFile    func(name string) ([]byte, error)
}

// NewEngine constructs the production adapter. timeout 0 disables the
// wall-clock limit on each subprocess run.
func NewEngine(whisperPath, modelDir string, timeout time.Duration) *Engine {
	return &Engine{
		whisperPath: whisperPath,
		modelDir:    modelDir,
		timeout:     timeout,
		runner:      &execRunner{},
		stat:        os.Stat,
		readFile:    os.ReadFile,
	}
}

// Transcribe runs one transcription attempt for inputPath and returns the
// transcript. At most one managed invocation plus one shell fallback is
// made; the caller guarantees at most one Transcribe call per job.
func (e *Engine) Transcribe(ctx context.Context, inputPath, model, language string, onProgress scheduler.ProgressFunc) (*models.TranscriptionResult, error) {
	if _, err := e.stat(inputPath); err != nil {
		return nil, &models.TranscribeError{
			Kind:    models.KindInputNotFound,
			Message: fmt.Sprintf("input file not found: %s", inputPath),
			Err:     err,
		}
	}

	modelPath := filepath.Join(e.modelDir, models.LookupModel(model).FileName)
	outBase := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	args := buildWhisperArgs(modelPath, inputPath, outBase, language)

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	onLine := func(line string) {
		if onProgress != nil {
			onProgress(line, -1)
		}
	}

	log.Printf("transcriber: running %s for %s", e.whisperPath, filepath.Base(inputPath))
	result, runErr := e.runner.Run(runCtx, e.whisperPath, args, onLine)

	artifact := outBase + ".txt"
	if e.artifactExists(artifact) {
		return e.collect(artifact, outBase)
	}

	// A run that never spawned gets no fallback.
	if runErr != nil && result.ExitCode == -1 && result.Stdout == "" && result.Stderr == "" && isSpawnError(runErr) {
		return nil, &models.TranscribeError{
			Kind:    models.KindEngineSpawn,
			Message: fmt.Sprintf("cannot start transcription engine %s", e.whisperPath),
			Err:     runErr,
		}
	}

	// The managed run exited without leaving a transcript. Re-invoke once
	// through the shell before giving up; this run gets the same artifact
	// check and no further retries.
	log.Printf("transcriber: no artifact after managed run for %s, trying shell fallback", filepath.Base(inputPath))
	shellLine := shellCommandLine(e.whisperPath, args)
	fallbackResult, _ := e.runner.Run(runCtx, "sh", []string{"-c", shellLine}, onLine)

	if e.artifactExists(artifact) {
		return e.collect(artifact, outBase)
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &models.TranscribeError{
			Kind:    models.KindEngineTimeout,
			Message: fmt.Sprintf("transcription exceeded the %s time limit", e.timeout),
			Stderr:  result.Stderr,
			Err:     runCtx.Err(),
		}
	}

	stderr := result.Stderr
	if stderr == "" {
		stderr = fallbackResult.Stderr
	}
	return nil, &models.TranscribeError{
		Kind:    models.KindArtifactMissing,
		Message: "transcription engine produced no transcript",
		Stderr:  stderr,
		Err:     runErr,
	}
}

// artifactExists reports whether the transcript file is on disk
func (e *Engine) artifactExists(path string) bool {
	info, err := e.stat(path)
	return err == nil && !info.IsDir()
}

// collect reads the transcript artifact and its optional structured sibling
func (e *Engine) collect(artifact, outBase string) (*models.TranscriptionResult, error) {
	content, err := e.readFile(artifact)
	if err != nil {
		return nil, &models.TranscribeError{
			Kind:    models.KindArtifactMissing,
			Message: fmt.Sprintf("cannot read transcript file: %s", artifact),
			Err:     err,
		}
	}

	result := &models.TranscriptionResult{
		Text: strings.TrimSpace(string(content)),
	}

	// The JSON sibling exists only when the engine got far enough to write
	// it; missing or malformed segments never fail a job with a transcript.
	if data, err := e.readFile(outBase + ".json"); err == nil {
		if segments, err := parseSegments(data); err == nil {
			result.Segments = segments
		}
	}

	return result, nil
}

// buildWhisperArgs builds whisper.cpp args for txt + json transcript export
func buildWhisperArgs(modelPath, audioPath, outBase, language string) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", outBase,
		"-otxt",
		"-oj",
	}
	if language != "" && language != models.LanguageAuto {
		args = append(args, "-l", language)
	}
	return args
}

// shellCommandLine renders the argument vector as one sh -c line
func shellCommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(name))
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$&;|<>()*?[]#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// isSpawnError reports whether the run failed before the process started
func isSpawnError(err error) bool {
	var exitErr interface{ ExitCode() int }
	return !errors.As(err, &exitErr)
}
