package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
	"github.com/PHJ369906/aox-miniapp/pkg/crypto/adaptive"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv store closed")
)

// Persisted keys shared by the session store and the request engine.
const (
	KeyCredential = "token"
	KeyProfile    = "userInfo"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// KV is the persistent key-value capability.
//
// Implementations must be safe for concurrent use. Remove of a missing
// key is not an error.
type KV interface {
	// Get returns ErrKeyNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Config selects and tunes a KV backend.
type Config struct {
	// Backend is one of memory, badger, redis, sqlite.
	Backend string `koanf:"backend"`

	// Path is the badger directory or the sqlite database file.
	Path string `koanf:"path"`

	// Passphrase, when set, wraps the backend in Sealed.
	Passphrase string `koanf:"passphrase"`

	// Cipher is auto, aes-gcm or chacha20-poly1305. It only matters the
	// first time a store is sealed.
	Cipher string `koanf:"cipher"`

	Redis  RedisConfig  `koanf:"redis"`
	Badger BadgerConfig `koanf:"badger"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	// Prefix namespaces every key, e.g. "aox:".
	Prefix string `koanf:"prefix"`
}

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between value log GC runs.
	// Default: 10m
	GCInterval time.Duration `koanf:"gc_interval"`

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	// Default: 0.5
	GCThreshold float64 `koanf:"gc_threshold"`

	// SyncWrites fsyncs after each write.
	SyncWrites bool `koanf:"sync_writes"`

	// InMemory keeps everything in RAM; Path is ignored.
	InMemory bool `koanf:"in_memory"`
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendBadger,
		Path:    defaultPath(),
		Cipher:  string(adaptive.Auto),
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "aox:",
		},
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}

func defaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".aox", "state")
	}
	return filepath.Join(home, ".aox", "state")
}

// ValidBackend reports whether name is a known backend.
func ValidBackend(name string) bool {
	switch strings.ToLower(name) {
	case BackendMemory, BackendBadger, BackendRedis, BackendSQLite:
		return true
	}
	return false
}

// Open builds the configured backend, sealed when a passphrase is set.
func Open(ctx context.Context, cfg Config, log logger.Logger) (KV, error) {
	if log == nil {
		log = logger.Default()
	}

	var (
		kv  KV
		err error
	)
	switch strings.ToLower(cfg.Backend) {
	case BackendMemory, "":
		kv = NewMemoryKV()
	case BackendBadger:
		kv, err = NewBadgerKV(cfg.Path, cfg.Badger, log)
	case BackendRedis:
		kv, err = NewRedisKV(ctx, cfg.Redis)
	case BackendSQLite:
		kv, err = NewSQLiteKV(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Passphrase == "" {
		return kv, nil
	}

	alg, err := adaptive.ParseAlgorithm(cfg.Cipher)
	if err != nil {
		kv.Close()
		return nil, err
	}
	sealed, err := NewSealed(ctx, kv, cfg.Passphrase, alg)
	if err != nil {
		kv.Close()
		return nil, err
	}
	return sealed, nil
}

// GetString reads key as a string; a missing key yields "" and no error.
func GetString(ctx context.Context, kv KV, key string) (string, error) {
	v, err := kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}
