// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package cache

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// record is the persisted form of a cached domain value.
type record struct {
	Domain    Domain          `json:"domain"`
	Payload   json.RawMessage `json:"payload"`
	WrittenAt time.Time       `json:"written_at"`
	TTL       time.Duration   `json:"ttl"`
}

// Store is the TTL cache store. It is safe for concurrent use as long as
// the underlying KV is.
type Store struct {
	kv  KV
	now func() time.Time
	log zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a store writing through kv.
func NewStore(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:  kv,
		now: time.Now,
		log: logging.WithComponent("cache"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put serializes value and stores it with writtenAt = now. Failures are
// logged and swallowed.
func (s *Store) Put(domain Domain, value any) {
	if err := s.put(domain, value); err != nil {
		metrics.RecordCacheWriteError(string(domain))
		s.log.Warn().Err(err).Str("domain", string(domain)).Msg("Cache write failed")
	}
}

func (s *Store) put(domain Domain, value any) error {
	ttl, err := domain.TTL()
	if err != nil {
		return &CacheError{Op: "put", Domain: domain, Err: err}
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return &CacheError{Op: "encode", Domain: domain, Err: err}
	}
	data, err := json.Marshal(record{
		Domain:    domain,
		Payload:   payload,
		WrittenAt: s.now(),
		TTL:       ttl,
	})
	if err != nil {
		return &CacheError{Op: "encode", Domain: domain, Err: err}
	}
	if err := s.kv.Set(domain.key(), data); err != nil {
		return &CacheError{Op: "put", Domain: domain, Err: err}
	}
	return nil
}

// load reads the raw record. ok is false when there is none or it cannot be
// read; read failures are logged.
func (s *Store) load(domain Domain) (rec record, ok bool) {
	if !domain.Valid() {
		return rec, false
	}
	data, err := s.kv.Get(domain.key())
	if errors.Is(err, ErrNotFound) {
		return rec, false
	}
	if err != nil {
		s.log.Warn().Err(&CacheError{Op: "get", Domain: domain, Err: err}).Msg("Cache read failed")
		return rec, false
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Warn().Err(&CacheError{Op: "decode", Domain: domain, Err: err}).Msg("Cache record corrupt")
		return rec, false
	}
	return rec, true
}

func (s *Store) expired(domain Domain, rec record) bool {
	ttl, _ := domain.TTL()
	return s.now().Sub(rec.WrittenAt) >= ttl
}

// Get decodes the domain's record into out if one exists and is younger
// than the domain TTL. Decode failures count as a miss.
func (s *Store) Get(domain Domain, out any) bool {
	rec, ok := s.load(domain)
	if !ok {
		metrics.RecordCacheRead(string(domain), false, "absent")
		return false
	}
	if s.expired(domain, rec) {
		metrics.RecordCacheRead(string(domain), false, "expired")
		return false
	}
	if err := json.Unmarshal(rec.Payload, out); err != nil {
		s.log.Warn().Err(&CacheError{Op: "decode", Domain: domain, Err: err}).Msg("Cache payload corrupt")
		metrics.RecordCacheRead(string(domain), false, "corrupt")
		return false
	}
	metrics.RecordCacheRead(string(domain), true, "")
	return true
}

// Peek decodes the domain's record into out regardless of age and returns
// when it was written. It is the stale fallback read.
func (s *Store) Peek(domain Domain, out any) (time.Time, bool) {
	rec, ok := s.load(domain)
	if !ok {
		return time.Time{}, false
	}
	if err := json.Unmarshal(rec.Payload, out); err != nil {
		s.log.Warn().Err(&CacheError{Op: "decode", Domain: domain, Err: err}).Msg("Cache payload corrupt")
		return time.Time{}, false
	}
	return rec.WrittenAt, true
}

// HasRecord reports whether any record exists for domain, expired or not.
func (s *Store) HasRecord(domain Domain) bool {
	_, ok := s.load(domain)
	return ok
}

// IsStale reports whether the domain's record is at or past its TTL.
// A domain with no record is stale.
func (s *Store) IsStale(domain Domain) bool {
	rec, ok := s.load(domain)
	if !ok {
		return true
	}
	return s.expired(domain, rec)
}

// Age returns how long ago the domain's record was written.
func (s *Store) Age(domain Domain) (time.Duration, bool) {
	rec, ok := s.load(domain)
	if !ok {
		return 0, false
	}
	return s.now().Sub(rec.WrittenAt), true
}

// Clear removes the domain's record.
func (s *Store) Clear(domain Domain) error {
	if !domain.Valid() {
		return &CacheError{Op: "clear", Domain: domain, Err: ErrUnknownDomain}
	}
	err := s.kv.Delete(domain.key())
	if err != nil && !errors.Is(err, ErrNotFound) {
		return &CacheError{Op: "clear", Domain: domain, Err: err}
	}
	return nil
}

// ClearAll removes every domain's record.
func (s *Store) ClearAll() error {
	if err := s.kv.DeletePrefix([]byte(keyPrefix)); err != nil {
		return &CacheError{Op: "clear_all", Err: err}
	}
	return nil
}
