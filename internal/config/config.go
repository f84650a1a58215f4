package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Settings carries every tunable of the service. Values come from the
// environment with the defaults below; an optional YAML file named by
// JUDGEFLOW_CONFIG overrides the environment (useful for local dev where
// a checked-in config beats a pile of exports).
type Settings struct {
	// Store credentials (required).
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`

	// Batching.
	UploadBatchSize      int `yaml:"upload_batch_size"`
	RunJudgesPage        int `yaml:"run_judges_page"`
	JobBatchSize         int `yaml:"job_batch_size"`
	EvaluationsPageLimit int `yaml:"evaluations_page_limit"`

	// Worker.
	WorkerConcurrency  int           `yaml:"worker_concurrency"`
	WorkerBatch        int           `yaml:"worker_batch"`
	WorkerPollInterval time.Duration `yaml:"worker_poll_interval"`
	WorkerJudgeRefresh time.Duration `yaml:"worker_judge_refresh"`
	WorkerStaleAfter   time.Duration `yaml:"worker_stale_after"`
	MaxAttempts        int           `yaml:"max_attempts"`

	// HTTP shell.
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Load resolves settings from the environment, then applies the optional
// YAML overrides file. It fails only when the store credentials are missing.
func Load() (*Settings, error) {
	s := &Settings{
		SupabaseURL:          os.Getenv("SUPABASE_URL"),
		SupabaseKey:          os.Getenv("SUPABASE_KEY"),
		UploadBatchSize:      envInt("UPLOAD_BATCH_SIZE", 100),
		RunJudgesPage:        envInt("RUN_JUDGES_PAGE", 1000),
		JobBatchSize:         envInt("JOB_BATCH_SIZE", 500),
		EvaluationsPageLimit: envInt("EVALUATIONS_PAGE_LIMIT", 50),
		WorkerConcurrency:    envInt("WORKER_CONCURRENCY", 4),
		WorkerBatch:          envInt("WORKER_BATCH", 10),
		WorkerPollInterval:   envSeconds("WORKER_POLL_INTERVAL", 5.0),
		WorkerJudgeRefresh:   envSeconds("WORKER_JUDGE_REFRESH", 60),
		WorkerStaleAfter:     envSeconds("WORKER_STALE_AFTER", 15*60),
		MaxAttempts:          3,
		Port:                 os.Getenv("PORT"),
		CORSOrigins:          splitOrigins(os.Getenv("CORS_ALLOW_ORIGINS")),
	}
	if s.Port == "" {
		s.Port = "8080"
	}

	if path := os.Getenv("JUDGEFLOW_CONFIG"); path != "" {
		if err := s.applyFile(path); err != nil {
			return nil, fmt.Errorf("config overrides: %w", err)
		}
	}

	if s.SupabaseURL == "" || s.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY must be set")
	}
	return s, nil
}

func (s *Settings) applyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	return decoder.Decode(s)
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// envSeconds reads a float number of seconds (the historical format of
// WORKER_POLL_INTERVAL) into a duration.
func envSeconds(key string, def float64) time.Duration {
	raw := os.Getenv(key)
	if raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			def = v
		}
	}
	return time.Duration(def * float64(time.Second))
}

func splitOrigins(raw string) []string {
	if raw == "" {
		raw = "http://localhost:5173"
	}
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
