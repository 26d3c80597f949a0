package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
)

// BadgerKV implements KV using Badger v3.
type BadgerKV struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger logger.Logger

	lastGCTime atomic.Int64 // Unix milliseconds
	closed     atomic.Bool

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerKV opens (or creates) a Badger store in dir.
func NewBadgerKV(dir string, cfg BadgerConfig, log logger.Logger) (*BadgerKV, error) {
	if dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "badger")

	opts := badger.DefaultOptions(dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: log}
	opts.SyncWrites = cfg.SyncWrites
	// Two keys of a few hundred bytes each; keep the footprint small.
	opts.NumVersionsToKeep = 1
	opts.MemTableSize = 8 << 20
	opts.ValueLogFileSize = 16 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	kv := &BadgerKV{
		db:     db,
		cfg:    cfg,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if cfg.InMemory || cfg.GCInterval <= 0 {
		close(kv.doneCh)
	} else {
		go kv.gcLoop()
	}

	log.Debug("badger store opened", "dir", dir, "in_memory", cfg.InMemory)
	return kv, nil
}

// Get retrieves a value by key.
func (b *BadgerKV) Get(ctx context.Context, key string) ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a key-value pair.
func (b *BadgerKV) Set(ctx context.Context, key string, value []byte) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Remove deletes a key. Badger treats deleting a missing key as a no-op.
func (b *BadgerKV) Remove(ctx context.Context, key string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// GC runs value log GC until nothing more can be rewritten.
func (b *BadgerKV) GC(ctx context.Context) error {
	if b.cfg.InMemory {
		return nil
	}

	runs := 0
	for ctx.Err() == nil {
		err := b.db.RunValueLogGC(b.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return fmt.Errorf("gc: %w", err)
		}
		runs++
	}

	b.lastGCTime.Store(time.Now().UnixMilli())
	if runs > 0 {
		b.logger.Debug("value log gc completed", "runs", runs)
	}
	return nil
}

// LastGC returns when GC last finished, or the zero time.
func (b *BadgerKV) LastGC() time.Time {
	ms := b.lastGCTime.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Close stops the GC loop and closes the database.
func (b *BadgerKV) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(b.stopCh)
	<-b.doneCh

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("badger: close db: %w", err)
	}
	return nil
}

func (b *BadgerKV) gcLoop() {
	defer close(b.doneCh)

	ticker := time.NewTicker(b.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if err := b.GC(ctx); err != nil {
				b.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-b.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
// Badger's info chatter is demoted to debug.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
