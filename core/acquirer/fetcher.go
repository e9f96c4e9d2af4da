package acquirer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"transcription-orchestrator/core/models"
	"transcription-orchestrator/core/scheduler"
)

// Fetcher turns a remote media reference into a local 16 kHz mono WAV file
// using yt-dlp for retrieval and ffmpeg for re-encoding. Fetch and
// conversion progress both flow through the job's single progress line, so
// polling clients see one continuous narrative across the whole pipeline.
type Fetcher struct {
	ytdlpPath  string
	ffmpegPath string
	workDir    string
	runner     commandRunner
	stat       func(name string) (os.FileInfo, error)
}

// NewFetcher constructs the production acquirer
func NewFetcher(ytdlpPath, ffmpegPath, workDir string) *Fetcher {
	return &Fetcher{
		ytdlpPath:  ytdlpPath,
		ffmpegPath: ffmpegPath,
		workDir:    workDir,
		runner:     &execRunner{},
		stat:       os.Stat,
	}
}

// ProbeDuration resolves the reference and reports its media duration
// without downloading anything
func (f *Fetcher) ProbeDuration(ctx context.Context, url string) (time.Duration, error) {
	args := []string{"--no-playlist", "--skip-download", "--print", "duration", url}
	result, err := f.runner.Run(ctx, f.ytdlpPath, args, nil)
	if err != nil {
		return 0, &models.TranscribeError{
			Kind:    models.KindAcquisition,
			Message: fmt.Sprintf("cannot resolve media reference: %s", url),
			Stderr:  result.Stderr,
			Err:     err,
		}
	}

	seconds, err := parseDurationSeconds(result.Stdout)
	if err != nil {
		return 0, &models.TranscribeError{
			Kind:    models.KindAcquisition,
			Message: "media reference reported no usable duration",
			Stderr:  result.Stderr,
			Err:     err,
		}
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Acquire downloads the best audio stream and re-encodes it for the
// transcription engine, returning the local WAV path. The caller runs at
// most one acquisition per job.
func (f *Fetcher) Acquire(ctx context.Context, jobID, url string, onProgress scheduler.ProgressFunc) (string, error) {
	if err := os.MkdirAll(f.workDir, 0o755); err != nil {
		return "", &models.TranscribeError{
			Kind:    models.KindAcquisition,
			Message: fmt.Sprintf("cannot create work directory: %s", f.workDir),
			Err:     err,
		}
	}

	rawPath := filepath.Join(f.workDir, jobID+".source.m4a")
	wavPath := filepath.Join(f.workDir, jobID+".wav")

	log.Printf("acquirer: fetching %s for job %s", url, jobID)
	downloadArgs := []string{
		"--no-playlist",
		"-f", "bestaudio/best",
		"-o", rawPath,
		url,
	}
	result, err := f.runner.Run(ctx, f.ytdlpPath, downloadArgs, downloadProgress(onProgress))
	if err != nil {
		return "", &models.TranscribeError{
			Kind:    models.KindAcquisition,
			Message: "media download failed",
			Stderr:  result.Stderr,
			Err:     err,
		}
	}
	if _, err := f.stat(rawPath); err != nil {
		return "", &models.TranscribeError{
			Kind:    models.KindAcquisition,
			Message: "download finished but no audio file was produced",
			Stderr:  result.Stderr,
			Err:     err,
		}
	}

	log.Printf("acquirer: converting audio for job %s", jobID)
	convertArgs := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", rawPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		wavPath,
	}
	result, err = f.runner.Run(ctx, f.ffmpegPath, convertArgs, conversionProgress(onProgress))
	if err != nil {
		return "", &models.TranscribeError{
			Kind:    models.KindAcquisition,
			Message: "audio conversion failed",
			Stderr:  result.Stderr,
			Err:     err,
		}
	}
	if _, err := f.stat(wavPath); err != nil {
		return "", &models.TranscribeError{
			Kind:    models.KindAcquisition,
			Message: "conversion finished but no audio file was produced",
			Stderr:  result.Stderr,
			Err:     err,
		}
	}

	_ = os.Remove(rawPath)
	if onProgress != nil {
		onProgress("audio ready, waiting for transcription", 50)
	}
	return wavPath, nil
}

var (
	downloadPercentRe = regexp.MustCompile(`\[download\]\s+([\d.]+)%`)
	ffmpegDurationRe  = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+(?:\.\d+)?)`)
	ffmpegTimeRe      = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)
)

// downloadProgress maps yt-dlp "[download]  42.3%" lines into the job's
// 0-25 progress band
func downloadProgress(onProgress scheduler.ProgressFunc) func(string) {
	if onProgress == nil {
		return nil
	}
	return func(line string) {
		m := downloadPercentRe.FindStringSubmatch(line)
		if m == nil {
			return
		}
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return
		}
		onProgress(fmt.Sprintf("downloading %.1f%%", pct), int(pct/4))
	}
}

// conversionProgress maps ffmpeg time= lines against the input duration
// into the job's 25-50 progress band
func conversionProgress(onProgress scheduler.ProgressFunc) func(string) {
	if onProgress == nil {
		return nil
	}
	var totalSec float64
	return func(line string) {
		if m := ffmpegDurationRe.FindStringSubmatch(line); m != nil {
			totalSec = hmsToSeconds(m[1], m[2], m[3])
			return
		}
		m := ffmpegTimeRe.FindStringSubmatch(line)
		if m == nil || totalSec <= 0 {
			return
		}
		done := hmsToSeconds(m[1], m[2], m[3])
		pct := done / totalSec * 100
		if pct > 100 {
			pct = 100
		}
		onProgress(fmt.Sprintf("converting %.0f%%", pct), 25+int(pct/4))
	}
}

func hmsToSeconds(h, m, s string) float64 {
	hours, _ := strconv.ParseFloat(h, 64)
	minutes, _ := strconv.ParseFloat(m, 64)
	seconds, _ := strconv.ParseFloat(s, 64)
	return hours*3600 + minutes*60 + seconds
}

// parseDurationSeconds extracts the duration value printed by yt-dlp
func parseDurationSeconds(stdout string) (float64, error) {
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "NA" {
			continue
		}
		seconds, err := strconv.ParseFloat(line, 64)
		if err != nil {
			continue
		}
		if seconds < 0 {
			return 0, fmt.Errorf("negative duration: %s", line)
		}
		return seconds, nil
	}
	return 0, fmt.Errorf("no duration in yt-dlp output")
}
