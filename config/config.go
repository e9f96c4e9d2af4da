package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort string `yaml:"server_port"`

	// Scheduler
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`

	// Transcription engine
	WhisperPath       string `yaml:"whisper_path"`
	ModelDir          string `yaml:"model_dir"`
	JobTimeoutMinutes int    `yaml:"job_timeout_minutes"`

	// Source acquisition
	FFmpegPath            string `yaml:"ffmpeg_path"`
	YtdlpPath             string `yaml:"ytdlp_path"`
	MaxSourceDurationSecs int    `yaml:"max_source_duration_secs"`

	// Storage
	UploadDir string `yaml:"upload_dir"`
	WorkDir   string `yaml:"work_dir"`
}

// Load loads configuration from an optional YAML file named by CONFIG_FILE,
// with environment variables overriding file values
func Load() *Config {
	cfg := &Config{
		ServerPort:            "8080",
		MaxConcurrentJobs:     1,
		WhisperPath:           "whisper-cli",
		ModelDir:              "models",
		JobTimeoutMinutes:     30,
		FFmpegPath:            "ffmpeg",
		YtdlpPath:             "yt-dlp",
		MaxSourceDurationSecs: 1800,
		UploadDir:             "uploads",
		WorkDir:               "work",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.MaxConcurrentJobs = getEnvInt("MAX_CONCURRENT_JOBS", cfg.MaxConcurrentJobs)
	cfg.WhisperPath = getEnv("WHISPER_PATH", cfg.WhisperPath)
	cfg.ModelDir = getEnv("MODEL_DIR", cfg.ModelDir)
	cfg.JobTimeoutMinutes = getEnvInt("JOB_TIMEOUT_MINUTES", cfg.JobTimeoutMinutes)
	cfg.FFmpegPath = getEnv("FFMPEG_PATH", cfg.FFmpegPath)
	cfg.YtdlpPath = getEnv("YTDLP_PATH", cfg.YtdlpPath)
	cfg.MaxSourceDurationSecs = getEnvInt("MAX_SOURCE_DURATION_SECS", cfg.MaxSourceDurationSecs)
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.WorkDir = getEnv("WORK_DIR", cfg.WorkDir)

	if cfg.MaxConcurrentJobs < 1 {
		cfg.MaxConcurrentJobs = 1
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
