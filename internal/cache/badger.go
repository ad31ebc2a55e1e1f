// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// BadgerConfig configures the BadgerDB backend.
type BadgerConfig struct {
	Path string

	// SyncWrites fsyncs every write so a Put is atomic across crashes.
	SyncWrites bool

	// Compression enables Snappy block compression.
	Compression bool

	// InMemory runs without touching disk. Path is ignored.
	InMemory bool

	// GCDiscardRatio is passed to RunValueLogGC. Default: 0.5
	GCDiscardRatio float64

	// CloseTimeout bounds Close. Default: 30s
	CloseTimeout time.Duration
}

// BadgerKV is a KV backed by BadgerDB.
type BadgerKV struct {
	db     *badger.DB
	config BadgerConfig

	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens (or creates) the database at cfg.Path.
func OpenBadger(cfg BadgerConfig) (*BadgerKV, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger path is required")
	}
	if cfg.GCDiscardRatio == 0 {
		cfg.GCDiscardRatio = 0.5
	}
	if cfg.CloseTimeout == 0 {
		cfg.CloseTimeout = 30 * time.Second
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	// Records are tiny; keep the memtable small.
	opts.MemTableSize = 16 << 20
	opts.ValueLogFileSize = 16 << 20
	opts.NumCompactors = 2
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Bool("compression", cfg.Compression).
		Msg("Cache store opened")

	return &BadgerKV{db: db, config: cfg}, nil
}

func (b *BadgerKV) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

func (b *BadgerKV) Get(key []byte) ([]byte, error) {
	if b.isClosed() {
		return nil, ErrClosed
	}
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get key: %w", err)
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *BadgerKV) Set(key, value []byte) error {
	if b.isClosed() {
		return ErrClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, value))
	})
}

func (b *BadgerKV) Delete(key []byte) error {
	if b.isClosed() {
		return ErrClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// DeletePrefix removes every key starting with prefix in one transaction.
func (b *BadgerKV) DeletePrefix(prefix []byte) error {
	if b.isClosed() {
		return ErrClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
}

// RunGC runs value log garbage collection until nothing is left to rewrite.
func (b *BadgerKV) RunGC() error {
	if b.isClosed() {
		return ErrClosed
	}
	if b.config.InMemory {
		return nil
	}

	rewrites := 0
	for {
		err := b.db.RunValueLogGC(b.config.GCDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			metrics.CacheGCRuns.WithLabelValues("error").Inc()
			return fmt.Errorf("run GC: %w", err)
		}
		rewrites++
	}

	if rewrites > 0 {
		metrics.CacheGCRuns.WithLabelValues("rewritten").Inc()
		logging.Debug().Int("rewrites", rewrites).Msg("Cache value log GC completed")
	} else {
		metrics.CacheGCRuns.WithLabelValues("noop").Inc()
	}
	return nil
}

// Close closes the database, giving up after CloseTimeout.
func (b *BadgerKV) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- b.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("Cache store closed")
		return nil
	case <-time.After(b.config.CloseTimeout):
		logging.Warn().Dur("timeout", b.config.CloseTimeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", b.config.CloseTimeout)
	}
}
