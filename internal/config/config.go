package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port      string
	DBPath    string
	TimeZone  string
	LogLevel  string
	LogFormat string

	// Encrypted snapshot export; disabled unless the S3 settings are present.
	Snapshot SnapshotConfig
}

type SnapshotConfig struct {
	S3Endpoint    string
	S3Bucket      string
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string
	Passphrase    string
	RetentionDays int
}

// Load reads configuration from the environment, after loading a .env file if
// one exists. Missing values fall back to defaults; the time zone defaults to
// UTC, never the server's local zone.
func Load() (Config, error) {
	// Best effort: absent .env just means plain env vars.
	godotenv.Load()

	cfg := Config{
		Port:      getenv("TASKTALLY_PORT", "4000"),
		DBPath:    getenv("TASKTALLY_DB_PATH", "tasktally.db"),
		TimeZone:  getenv("TASKTALLY_TZ", "UTC"),
		LogLevel:  getenv("TASKTALLY_LOG_LEVEL", "info"),
		LogFormat: getenv("TASKTALLY_LOG_FORMAT", "text"),
		Snapshot: SnapshotConfig{
			S3Endpoint:    os.Getenv("TASKTALLY_S3_ENDPOINT"),
			S3Bucket:      os.Getenv("TASKTALLY_S3_BUCKET"),
			S3Region:      getenv("TASKTALLY_S3_REGION", "auto"),
			S3AccessKey:   os.Getenv("TASKTALLY_S3_ACCESS_KEY"),
			S3SecretKey:   os.Getenv("TASKTALLY_S3_SECRET_KEY"),
			Passphrase:    os.Getenv("TASKTALLY_SNAPSHOT_PASSPHRASE"),
			RetentionDays: 30,
		},
	}

	if v := os.Getenv("TASKTALLY_SNAPSHOT_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return Config{}, fmt.Errorf("invalid TASKTALLY_SNAPSHOT_RETENTION_DAYS %q", v)
		}
		cfg.Snapshot.RetentionDays = days
	}

	return cfg, nil
}

// Enabled reports whether snapshot export is fully configured.
func (c SnapshotConfig) Enabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.Passphrase != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
