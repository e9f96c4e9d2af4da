package acquirer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// commandResult is the captured outcome of one subprocess run
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability
type commandRunner interface {
	Run(ctx context.Context, name string, args []string, onLine func(string)) (commandResult, error)
}

// execRunner executes commands via os/exec, streaming output lines.
// yt-dlp writes progress to stdout and ffmpeg to stderr, so both streams
// feed the line callback.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args []string, onLine func(string)) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return commandResult{ExitCode: -1}, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return commandResult{ExitCode: -1}, err
	}

	if err := cmd.Start(); err != nil {
		return commandResult{ExitCode: -1}, err
	}

	var outBuf, errBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go scanLines(stdout, &outBuf, onLine, &wg)
	go scanLines(stderr, &errBuf, onLine, &wg)
	wg.Wait()

	err = cmd.Wait()
	result := commandResult{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

func scanLines(r io.Reader, buf *strings.Builder, onLine func(string), wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		if onLine != nil {
			onLine(line)
		}
	}
}
