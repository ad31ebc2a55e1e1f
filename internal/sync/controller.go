// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package sync

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/connectivity"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/retry"
)

// loadKey is the single-flight key; each controller has its own group.
const loadKey = "load"

// FetchFunc retrieves the current remote value of a domain.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Deps are the collaborators shared by all controllers.
type Deps struct {
	// Store persists successful fetches. Nil disables caching.
	Store *cache.Store

	// Monitor triggers automatic reloads on "restored" edges. Optional.
	Monitor *connectivity.Monitor

	// Policy wraps every fetch.
	Policy retry.Policy

	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller drives one data domain through Idle, Loading, Ready and
// Failed. It is safe for concurrent use.
type Controller[T any] struct {
	name    string
	domain  cache.Domain // empty when uncached
	fetch   FetchFunc[T]
	store   *cache.Store
	monitor *connectivity.Monitor
	policy  retry.Policy
	now     func() time.Time
	log     zerolog.Logger

	group singleflight.Group

	mu           sync.RWMutex
	state        State[T]
	remoteFailed bool
	listeners    []func(State[T])
	started      bool
	runCtx       context.Context
	cancel       context.CancelFunc
	sub          *connectivity.Subscription

	wg sync.WaitGroup
}

// New creates a controller named name. A non-empty domain enables the
// write-through cache and the cached fallback; with an empty domain a
// failed load goes straight to Failed.
func New[T any](name string, domain cache.Domain, fetch FetchFunc[T], deps Deps) *Controller[T] {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Policy.Name == "" {
		deps.Policy.Name = name
	}
	store := deps.Store
	if domain == "" {
		store = nil
	}
	c := &Controller[T]{
		name:    name,
		domain:  domain,
		fetch:   fetch,
		store:   store,
		monitor: deps.Monitor,
		policy:  deps.Policy,
		now:     deps.Now,
		log:     logging.WithComponent("sync").With().Str("domain", name).Logger(),
	}
	metrics.SyncPhase.WithLabelValues(name).Set(float64(PhaseIdle))
	return c
}

// Name returns the controller name.
func (c *Controller[T]) Name() string {
	return c.name
}

// State returns the current state.
func (c *Controller[T]) State() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// OnChange registers fn to be called after every state transition.
// Listeners run on the loading goroutine and must not block.
func (c *Controller[T]) OnChange(fn func(State[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Load fetches the domain and returns the resulting state. Concurrent
// callers share one execution, which keeps ctx's values but not its
// cancellation: a caller whose ctx ends stops waiting and gets the current
// state while the fetch carries on for everyone else. Stop cancels an
// execution in flight.
func (c *Controller[T]) Load(ctx context.Context) State[T] {
	if ctx.Err() != nil {
		return c.State()
	}
	ch := c.group.DoChan(loadKey, func() (any, error) {
		flightCtx, cancel := c.flightContext(ctx)
		defer cancel()
		return c.load(flightCtx), nil
	})
	select {
	case res := <-ch:
		return res.Val.(State[T])
	case <-ctx.Done():
		return c.State()
	}
}

// flightContext detaches ctx from its caller and, while the controller is
// started, ties it to the controller's own lifetime instead.
func (c *Controller[T]) flightContext(ctx context.Context) (context.Context, context.CancelFunc) {
	flightCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c.mu.RLock()
	runCtx := c.runCtx
	if !c.started {
		runCtx = nil
	}
	c.mu.RUnlock()

	if runCtx == nil {
		return flightCtx, cancel
	}
	stop := context.AfterFunc(runCtx, cancel)
	return flightCtx, func() {
		stop()
		cancel()
	}
}

func (c *Controller[T]) load(ctx context.Context) State[T] {
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	log := logging.Ctx(ctx).With().Str("domain", c.name).Logger()
	start := time.Now()

	prev := c.State()
	c.transition(State[T]{Phase: PhaseLoading, UpdatedAt: c.now()}, nil)
	log.Debug().Msg("Loading")

	data, err := retry.Do[T](ctx, c.policy, c.fetch)
	if err != nil && ctx.Err() != nil {
		// Stopped mid-load. The remote never answered, so neither the state
		// nor the failure flag may change.
		c.transition(prev, nil)
		metrics.RecordSyncLoad(c.name, "canceled", time.Since(start))
		log.Debug().Err(err).Msg("Load canceled")
		return prev
	}
	if err == nil {
		// Persist before announcing Ready so a reader that sees Ready can
		// always find the same data in the cache.
		if c.store != nil {
			c.store.Put(c.domain, data)
		}
		st := State[T]{Phase: PhaseReady, Data: data, Origin: OriginFresh, UpdatedAt: c.now()}
		failed := false
		c.transition(st, &failed)
		metrics.RecordSyncLoad(c.name, "fresh", time.Since(start))
		log.Info().Str("origin", "fresh").Dur("duration", time.Since(start)).Msg("Loaded")
		return st
	}

	st := c.fallback(err)
	failed := true
	c.transition(st, &failed)

	outcome := "failed"
	if st.Phase == PhaseReady {
		outcome = "cached"
	}
	metrics.RecordSyncLoad(c.name, outcome, time.Since(start))
	log.Warn().
		Err(err).
		Str("origin", outcome).
		Dur("duration", time.Since(start)).
		Msg("Remote load failed")
	return st
}

// fallback builds the post-failure state from whatever the cache holds,
// regardless of staleness.
func (c *Controller[T]) fallback(cause error) State[T] {
	if c.store != nil && c.store.HasRecord(c.domain) {
		var cached T
		if writtenAt, ok := c.store.Peek(c.domain, &cached); ok {
			return State[T]{
				Phase:     PhaseReady,
				Data:      cached,
				Origin:    OriginCached,
				Advisory:  advisory(c.now().Sub(writtenAt), cause),
				Err:       cause,
				HasCache:  true,
				UpdatedAt: c.now(),
			}
		}
	}
	return State[T]{Phase: PhaseFailed, Err: cause, UpdatedAt: c.now()}
}

// transition stores st and notifies listeners. A non-nil remoteFailed
// records the outcome of the remote attempt that produced st.
func (c *Controller[T]) transition(st State[T], remoteFailed *bool) {
	c.mu.Lock()
	c.state = st
	if remoteFailed != nil {
		c.remoteFailed = *remoteFailed
	}
	listeners := append([]func(State[T]){}, c.listeners...)
	c.mu.Unlock()

	metrics.SyncPhase.WithLabelValues(c.name).Set(float64(st.Phase))
	for _, fn := range listeners {
		fn(st)
	}
}

// Start subscribes to connectivity restoration. When the link comes back
// and the last remote attempt failed, a Load runs in the background under
// ctx. Start is a no-op without a monitor or when already started; after
// Stop it may be called again, which lets a supervisor restart it.
func (c *Controller[T]) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.monitor == nil {
		return
	}
	c.started = true
	c.runCtx, c.cancel = context.WithCancel(ctx)
	c.sub = c.monitor.OnRestored(c.onRestored)
}

func (c *Controller[T]) onRestored() {
	c.mu.Lock()
	if !c.started || !c.remoteFailed || c.state.Phase == PhaseLoading || c.runCtx.Err() != nil {
		c.mu.Unlock()
		return
	}
	ctx := c.runCtx
	c.wg.Add(1)
	c.mu.Unlock()

	metrics.SyncAutoRetries.WithLabelValues(c.name).Inc()
	c.log.Info().Msg("Connectivity restored, reloading")

	go func() {
		defer c.wg.Done()
		c.Load(ctx)
	}()
}

// Stop releases the subscription, cancels background loads and waits for
// them to finish.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	c.cancel()
	sub := c.sub
	c.mu.Unlock()

	sub.Close()
	c.wg.Wait()
}

// Snapshot returns the current state without its type parameter.
func (c *Controller[T]) Snapshot() Snapshot {
	return snapshotOf(c.name, c.State())
}

// Reload is Load returning a Snapshot.
func (c *Controller[T]) Reload(ctx context.Context) Snapshot {
	return snapshotOf(c.name, c.Load(ctx))
}

// OnSnapshot is OnChange for type-erased listeners.
func (c *Controller[T]) OnSnapshot(fn func(Snapshot)) {
	c.OnChange(func(st State[T]) {
		fn(snapshotOf(c.name, st))
	})
}

// Runner is the type-erased controller surface used by the API and the
// supervisor.
type Runner interface {
	Name() string
	Start(ctx context.Context)
	Stop()
	Reload(ctx context.Context) Snapshot
	Snapshot() Snapshot
	OnSnapshot(fn func(Snapshot))
}

var _ Runner = (*Controller[int])(nil)
