package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"branchboard/internal/slot"
)

type Config struct {
	// Durable slots
	SlotBackend   string
	MirrorBackend string
	DataDir       string
	SQLiteDBPath  string
	RedisAddr     string
	RedisPrefix   string

	// Seed snapshot override (YAML)
	SeedFile string

	// AMQP change notifications (disabled when URL is empty)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Analytics
	AttendanceWindowDays int
	Timezone             string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		SlotBackend:   getEnv("SLOT_BACKEND", "file"),
		MirrorBackend: getEnv("MIRROR_BACKEND", ""),
		DataDir:       getEnv("DATA_DIR", "./data"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/branchboard.db"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPrefix:   getEnv("REDIS_PREFIX", "branchboard:"),

		SeedFile: getEnv("SEED_FILE", ""),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "branchboard"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "snapshot.changed"),

		AttendanceWindowDays: getEnvInt("ATTENDANCE_WINDOW_DAYS", 30),
		Timezone:             getEnv("TIMEZONE", "Local"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := slot.BackendTypeStrings()
	if !slices.Contains(validBackends, c.SlotBackend) {
		errors = append(errors, fmt.Sprintf("invalid slot backend '%s': must be one of %v", c.SlotBackend, validBackends))
	}
	if c.MirrorBackend != "" {
		if !slices.Contains(validBackends, c.MirrorBackend) {
			errors = append(errors, fmt.Sprintf("invalid mirror backend '%s': must be one of %v", c.MirrorBackend, validBackends))
		} else if c.MirrorBackend == c.SlotBackend {
			errors = append(errors, fmt.Sprintf("mirror backend '%s' must differ from slot backend", c.MirrorBackend))
		}
	}

	uses := func(b string) bool { return c.SlotBackend == b || c.MirrorBackend == b }

	if uses("file") && strings.TrimSpace(c.DataDir) == "" {
		errors = append(errors, "data directory cannot be empty when using file backend")
	}

	if uses("sqlite") {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if uses("redis") && c.RedisAddr == "" {
		errors = append(errors, "Redis address cannot be empty when using redis backend")
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); err != nil {
			errors = append(errors, fmt.Sprintf("seed file is not readable: %s", c.SeedFile))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.AttendanceWindowDays < 0 {
		errors = append(errors, fmt.Sprintf("invalid attendance window %d: must not be negative", c.AttendanceWindowDays))
	} else if c.AttendanceWindowDays > 366 {
		errors = append(errors, fmt.Sprintf("invalid attendance window %d: must be at most 366 days", c.AttendanceWindowDays))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location returns the configured time zone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SlotConfig converts the application config to slot factory config
func (c *Config) SlotConfig() slot.Config {
	return slot.Config{
		Type:          slot.BackendType(c.SlotBackend),
		Mirror:        slot.BackendType(c.MirrorBackend),
		DataDirectory: c.DataDir,
		SQLiteDBPath:  c.SQLiteDBPath,
		RedisAddr:     c.RedisAddr,
		RedisPrefix:   c.RedisPrefix,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
