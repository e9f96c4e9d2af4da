package acquirer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"transcription-orchestrator/core/models"
)

type runCall struct {
	name string
	args []string
}

// fakeRunner scripts yt-dlp and ffmpeg behavior per invocation
type fakeRunner struct {
	calls []runCall
	onRun func(call int, name string, args []string, onLine func(string)) (commandResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, onLine func(string)) (commandResult, error) {
	call := len(f.calls)
	f.calls = append(f.calls, runCall{name: name, args: args})
	if f.onRun != nil {
		return f.onRun(call, name, args, onLine)
	}
	return commandResult{}, nil
}

func newTestFetcher(runner commandRunner, workDir string) *Fetcher {
	return &Fetcher{
		ytdlpPath:  "yt-dlp",
		ffmpegPath: "ffmpeg",
		workDir:    workDir,
		runner:     runner,
		stat:       os.Stat,
	}
}

// TestProbeDurationParsesOutput checks the yt-dlp duration probe
func TestProbeDurationParsesOutput(t *testing.T) {
	fr := &fakeRunner{
		onRun: func(call int, name string, args []string, onLine func(string)) (commandResult, error) {
			return commandResult{Stdout: "245.0\n"}, nil
		},
	}
	f := newTestFetcher(fr, t.TempDir())

	d, err := f.ProbeDuration(context.Background(), "https://example.com/watch?v=x")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if d != 245*time.Second {
		t.Fatalf("duration = %s, want 245s", d)
	}

	joined := strings.Join(fr.calls[0].args, " ")
	if !strings.Contains(joined, "--skip-download") {
		t.Fatalf("probe args %q must not download", joined)
	}
}

// TestProbeDurationRejectsUnusableOutput covers live streams and bad refs
func TestProbeDurationRejectsUnusableOutput(t *testing.T) {
	fr := &fakeRunner{
		onRun: func(call int, name string, args []string, onLine func(string)) (commandResult, error) {
			return commandResult{Stdout: "NA\n", Stderr: "ERROR: unsupported url"}, nil
		},
	}
	f := newTestFetcher(fr, t.TempDir())

	_, err := f.ProbeDuration(context.Background(), "https://example.com/live")

	var terr *models.TranscribeError
	if !errors.As(err, &terr) || terr.Kind != models.KindAcquisition {
		t.Fatalf("err = %v, want acquisition_error", err)
	}
}

// TestAcquireDownloadsThenConverts verifies the two-stage pipeline and the
// continuous progress narrative
func TestAcquireDownloadsThenConverts(t *testing.T) {
	workDir := t.TempDir()

	fr := &fakeRunner{
		onRun: func(call int, name string, args []string, onLine func(string)) (commandResult, error) {
			switch call {
			case 0: // yt-dlp download
				if onLine != nil {
					onLine("[download]  42.3% of 3.50MiB at 1.20MiB/s")
					onLine("[download] 100.0% of 3.50MiB")
				}
				out := args[len(args)-2] // -o <path> url
				if err := os.WriteFile(out, []byte("m4a"), 0o644); err != nil {
					t.Fatalf("write raw: %v", err)
				}
			case 1: // ffmpeg convert
				if onLine != nil {
					onLine("  Duration: 00:01:40.00, start: 0.000000")
					onLine("size=     512kB time=00:00:50.00 bitrate= 83.9kbits/s")
				}
				out := args[len(args)-1]
				if err := os.WriteFile(out, []byte("wav"), 0o644); err != nil {
					t.Fatalf("write wav: %v", err)
				}
			}
			return commandResult{}, nil
		},
	}
	f := newTestFetcher(fr, workDir)

	var lines []string
	var percents []int
	path, err := f.Acquire(context.Background(), "job-1", "https://example.com/watch?v=x", func(line string, percent int) {
		lines = append(lines, line)
		percents = append(percents, percent)
	})
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if path != filepath.Join(workDir, "job-1.wav") {
		t.Fatalf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("wav missing: %v", err)
	}
	if len(fr.calls) != 2 || fr.calls[0].name != "yt-dlp" || fr.calls[1].name != "ffmpeg" {
		t.Fatalf("calls = %+v, want yt-dlp then ffmpeg", fr.calls)
	}

	var sawDownload, sawConvert bool
	for _, line := range lines {
		if strings.HasPrefix(line, "downloading") {
			sawDownload = true
		}
		if strings.HasPrefix(line, "converting") {
			sawConvert = true
		}
	}
	if !sawDownload || !sawConvert {
		t.Fatalf("progress lines = %v, want both stages reported", lines)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards: %v", percents)
		}
	}
}

// TestAcquireFailsWithoutDownloadedFile verifies artifact checking between stages
func TestAcquireFailsWithoutDownloadedFile(t *testing.T) {
	fr := &fakeRunner{
		onRun: func(call int, name string, args []string, onLine func(string)) (commandResult, error) {
			return commandResult{Stderr: "ERROR: video unavailable"}, nil
		},
	}
	f := newTestFetcher(fr, t.TempDir())

	_, err := f.Acquire(context.Background(), "job-2", "https://example.com/watch?v=gone", nil)

	var terr *models.TranscribeError
	if !errors.As(err, &terr) || terr.Kind != models.KindAcquisition {
		t.Fatalf("err = %v, want acquisition_error", err)
	}
	if len(fr.calls) != 1 {
		t.Fatalf("ffmpeg must not run after a failed download, calls = %d", len(fr.calls))
	}
}

// TestParseDurationSeconds covers the raw probe-output forms
func TestParseDurationSeconds(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"245.0\n", 245.0, false},
		{"\n1800\n", 1800, false},
		{"NA\n", 0, true},
		{"", 0, true},
		{"-5\n", 0, true},
	}

	for _, tc := range cases {
		got, err := parseDurationSeconds(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseDurationSeconds(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("parseDurationSeconds(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}
