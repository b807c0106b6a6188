package slot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
)

// BackendType selects a slot implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, RedisBackend:
		return true
	default:
		return false
	}
}

// BackendTypeStrings returns all valid backend type strings
func BackendTypeStrings() []string {
	return []string{MemoryBackend.String(), FileBackend.String(), SQLiteBackend.String(), RedisBackend.String()}
}

// Config holds configuration for slot creation
type Config struct {
	Type BackendType

	// Mirror is an optional second backend that receives every write.
	Mirror BackendType

	// File backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string

	// Redis backend
	RedisAddr   string
	RedisPrefix string
}

// Validate validates the slot configuration
func (c Config) Validate() error {
	if err := c.validateType(c.Type); err != nil {
		return err
	}
	if c.Mirror != "" {
		if c.Mirror == c.Type {
			return fmt.Errorf("mirror backend must differ from primary backend %s", c.Type)
		}
		if err := c.validateType(c.Mirror); err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
	}
	return nil
}

func (c Config) validateType(t BackendType) error {
	if !t.IsValid() {
		return fmt.Errorf("invalid backend type: %s", t)
	}
	switch t {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RedisBackend:
		if c.RedisAddr == "" {
			return fmt.Errorf("Redis address is required for redis backend")
		}
	}
	return nil
}

// Factory builds slots from configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Open creates the configured slot, wrapping it in a Mirror when a mirror
// backend is set. The caller owns the returned slot and must Close it.
func (f *Factory) Open(ctx context.Context, cfg Config) (Slot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	primary, err := f.open(ctx, cfg, cfg.Type)
	if err != nil {
		return nil, err
	}
	if cfg.Mirror == "" {
		return primary, nil
	}

	mirror, err := f.open(ctx, cfg, cfg.Mirror)
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("open mirror: %w", err)
	}
	f.logger.Info("Mirroring slot writes", "primary", cfg.Type, "mirror", cfg.Mirror)
	return NewMirror(primary, mirror), nil
}

func (f *Factory) open(ctx context.Context, cfg Config, t BackendType) (Slot, error) {
	switch t {
	case MemoryBackend:
		f.logger.Info("Initialized memory slot")
		return NewMemory(), nil
	case FileBackend:
		dir := cfg.DataDirectory
		if dir == "" {
			dir = "data"
		}
		s, err := NewFile(filepath.Clean(dir))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file slot: %w", err)
		}
		f.logger.Info("Initialized file slot", "data_directory", dir)
		return s, nil
	case SQLiteBackend:
		s, err := NewSQLite(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite slot: %w", err)
		}
		f.logger.Info("Initialized SQLite slot", "db_path", cfg.SQLiteDBPath, "schema_version", s.SchemaVersion())
		return s, nil
	case RedisBackend:
		s, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis slot: %w", err)
		}
		f.logger.Info("Initialized Redis slot", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", t)
	}
}
