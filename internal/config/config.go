package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Matching   MatchingConfig
	Attendance AttendanceConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type StorageConfig struct {
	Root        string // Root directory for stored images (default "uploads")
	MaxImageDim int    // Max dimension for registered face images, 0 disables resizing
}

type MatchingConfig struct {
	Threshold  float64 // Acceptance threshold for the registry scan
	Comparator string  // "sizeratio" (default placeholder) or "phash"
}

type AttendanceConfig struct {
	// KeepDuplicateEvidence retains the stored capture image when the
	// ledger reports the day as already recorded. Default false: the
	// orphaned file is deleted.
	KeepDuplicateEvidence bool
}

// defaults mirrors the embedded defaults.yaml structure.
type defaults struct {
	Matching struct {
		Threshold float64 `yaml:"threshold"`
	} `yaml:"matching"`
	Storage struct {
		MaxImageDim int `yaml:"max_image_dim"`
	} `yaml:"storage"`
	Server struct {
		ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int `yaml:"idle_timeout_seconds"`
	} `yaml:"server"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback.
func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean.
func envBool(key string, defaultVal bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "yes":
		return true
	case "0", "false", "FALSE", "no":
		return false
	}
	return defaultVal
}

func Load() *Config {
	var def defaults
	if err := yaml.Unmarshal(defaultsYAML, &def); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Server: ServerConfig{
			Host:         envString("HTTP_HOST", "0.0.0.0"),
			Port:         envInt("HTTP_PORT", 8080),
			ReadTimeout:  time.Duration(def.Server.ReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(def.Server.WriteTimeoutSeconds) * time.Second,
			IdleTimeout:  time.Duration(def.Server.IdleTimeoutSeconds) * time.Second,
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Storage: StorageConfig{
			Root:        envString("UPLOAD_DIR", "uploads"),
			MaxImageDim: envInt("UPLOAD_MAX_IMAGE_DIM", def.Storage.MaxImageDim),
		},
		Matching: MatchingConfig{
			Threshold:  envFloat("FACE_MATCH_THRESHOLD", def.Matching.Threshold),
			Comparator: envString("FACE_COMPARATOR", "sizeratio"),
		},
		Attendance: AttendanceConfig{
			KeepDuplicateEvidence: envBool("ATTENDANCE_KEEP_DUPLICATE_EVIDENCE", false),
		},
	}
}
