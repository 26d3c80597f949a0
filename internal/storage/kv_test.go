package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
)

// runKVSuite exercises the behaviour every backend must share.
func runKVSuite(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		if err := kv.Set(ctx, KeyCredential, []byte("abc")); err != nil {
			t.Fatal(err)
		}
		got, err := kv.Get(ctx, KeyCredential)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "abc" {
			t.Errorf("expected abc, got %s", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := kv.Set(ctx, KeyCredential, []byte("def")); err != nil {
			t.Fatal(err)
		}
		got, err := GetString(ctx, kv, KeyCredential)
		if err != nil {
			t.Fatal(err)
		}
		if got != "def" {
			t.Errorf("expected def, got %s", got)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		_, err := kv.Get(ctx, "non-existent")
		if !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
		s, err := GetString(ctx, kv, "non-existent")
		if err != nil || s != "" {
			t.Errorf("GetString = %q, %v; want empty, nil", s, err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := kv.Set(ctx, KeyProfile, []byte(`{"userId":1}`)); err != nil {
			t.Fatal(err)
		}
		if err := kv.Remove(ctx, KeyProfile); err != nil {
			t.Fatal(err)
		}
		if _, err := kv.Get(ctx, KeyProfile); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound after remove, got %v", err)
		}
	})

	t.Run("Remove missing key", func(t *testing.T) {
		if err := kv.Remove(ctx, "never-set"); err != nil {
			t.Errorf("Remove of missing key should succeed, got %v", err)
		}
	})
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	runKVSuite(t, kv)

	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := kv.Get(context.Background(), KeyCredential); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	buf := []byte("abc")
	kv.Set(ctx, "k", buf)
	buf[0] = 'x'

	got, _ := kv.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %s", got)
	}
}

func TestBadgerKV(t *testing.T) {
	cfg := DefaultBadgerConfig()
	cfg.GCInterval = 0 // no background GC in tests

	kv, err := NewBadgerKV(t.TempDir(), cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()

	runKVSuite(t, kv)

	if err := kv.GC(context.Background()); err != nil {
		t.Errorf("GC() error = %v", err)
	}
	if kv.LastGC().IsZero() {
		t.Error("LastGC should be set after GC")
	}
}

func TestBadgerKV_Reopen(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultBadgerConfig()
	cfg.GCInterval = 0
	ctx := context.Background()

	kv, err := NewBadgerKV(dir, cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(ctx, KeyCredential, []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}
	if err := kv.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	kv, err = NewBadgerKV(dir, cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()

	got, err := GetString(ctx, kv, KeyCredential)
	if err != nil {
		t.Fatal(err)
	}
	if got != "persisted" {
		t.Errorf("expected persisted, got %q", got)
	}
}

func TestBadgerKV_InMemory(t *testing.T) {
	kv, err := NewBadgerKV("", BadgerConfig{InMemory: true}, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()

	runKVSuite(t, kv)
}

func TestBadgerKV_RequiresDir(t *testing.T) {
	if _, err := NewBadgerKV("", DefaultBadgerConfig(), logger.Discard()); err == nil {
		t.Error("expected error for empty dir")
	}
}

func TestSQLiteKV(t *testing.T) {
	kv, err := NewSQLiteKV(context.Background(), filepath.Join(t.TempDir(), "state", "aox.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()

	runKVSuite(t, kv)
}

func TestSQLiteKV_Memory(t *testing.T) {
	kv, err := NewSQLiteKV(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()

	runKVSuite(t, kv)
}

func TestRedisKV(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()

	kv, err := NewRedisKV(context.Background(), RedisConfig{Addr: mr.Addr(), Prefix: "aox:"})
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()

	runKVSuite(t, kv)

	if err := kv.Set(context.Background(), KeyCredential, []byte("raw")); err != nil {
		t.Fatal(err)
	}
	got, err := mr.Get("aox:" + KeyCredential)
	if err != nil {
		t.Fatalf("prefixed key missing: %v", err)
	}
	if got != "raw" {
		t.Errorf("expected raw, got %q", got)
	}
}

func TestRedisKV_SharedClientNotClosed(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	kv := NewRedisKVFromClient(rdb, "")
	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Errorf("shared client should remain usable: %v", err)
	}
}

func TestRedisKV_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisKV(context.Background(), RedisConfig{Addr: addr}); err == nil {
		t.Error("expected ping error for closed server")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Backend: BackendMemory}, false},
		{"default empty backend", Config{}, false},
		{"sqlite", Config{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "kv.db")}, false},
		{"badger", Config{Backend: BackendBadger, Path: t.TempDir()}, false},
		{"sealed memory", Config{Backend: BackendMemory, Passphrase: "correct horse"}, false},
		{"short passphrase", Config{Backend: BackendMemory, Passphrase: "short"}, true},
		{"unknown", Config{Backend: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, err := Open(ctx, tt.cfg, logger.Discard())
			if tt.wantErr {
				if err == nil {
					kv.Close()
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer kv.Close()

			if err := kv.Set(ctx, KeyCredential, []byte("abc")); err != nil {
				t.Fatal(err)
			}
			if got, _ := GetString(ctx, kv, KeyCredential); got != "abc" {
				t.Errorf("expected abc, got %q", got)
			}
		})
	}
}

func TestValidBackend(t *testing.T) {
	for _, name := range []string{"memory", "badger", "redis", "sqlite", "Badger"} {
		if !ValidBackend(name) {
			t.Errorf("ValidBackend(%q) = false", name)
		}
	}
	if ValidBackend("bolt") {
		t.Error("ValidBackend(bolt) = true")
	}
}
