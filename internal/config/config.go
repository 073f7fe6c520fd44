package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds settings shared by the api, worker and sorter binaries.
type Config struct {
	Port        string
	LogLevel    string
	MetricsAddr string

	BounceDelay    time.Duration
	BounceCacheDir string // empty disables the verdict cache
	MaxUploadMB    int

	UploadBucket string // empty stores uploads in UploadDir
	UploadDir    string
	ScratchDir   string

	TemporalAddress   string
	TemporalNamespace string
	TaskQueue         string
}

// FromEnv loads configuration from environment variables, reading a .env
// file in the working directory first when one exists. Variables already
// set in the environment win over the file.
func FromEnv() Config {
	_ = godotenv.Load()
	return Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		BounceDelay:    getEnvDuration("BOUNCE_DELAY", 100*time.Millisecond),
		BounceCacheDir: os.Getenv("BOUNCE_CACHE_DIR"),
		MaxUploadMB:    getEnvInt("MAX_UPLOAD_MB", 5),

		UploadBucket: os.Getenv("UPLOAD_BUCKET"),
		UploadDir:    getEnv("UPLOAD_DIR", "/var/isp-sorter/uploads"),
		ScratchDir:   getEnv("SORTER_TMP_DIR", "/var/isp-sorter"),

		// Support both TEMPORAL_TARGET_HOST and TEMPORAL_ADDRESS for compatibility
		TemporalAddress:   getEnv("TEMPORAL_TARGET_HOST", getEnv("TEMPORAL_ADDRESS", "localhost:7233")),
		TemporalNamespace: getEnv("TEMPORAL_NAMESPACE", "default"),
		TaskQueue:         getEnv("TEMPORAL_TASK_QUEUE", "isp-sorter"),
	}
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil && n > 0 {
		return n
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil && d >= 0 {
		return d
	}
	return def
}
