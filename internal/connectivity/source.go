// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package connectivity

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// Transport is one network path reported by a source.
type Transport struct {
	Name   string `json:"name"`
	Usable bool   `json:"usable"`
}

// Event is a raw connectivity report.
type Event struct {
	Transports []Transport `json:"transports"`
	At         time.Time   `json:"at"`
}

// Connected reports whether any transport is usable.
func (e Event) Connected() bool {
	for _, t := range e.Transports {
		if t.Usable {
			return true
		}
	}
	return false
}

// Source is the platform connectivity API.
type Source interface {
	// Events streams raw reports until ctx is done, then closes the channel.
	Events(ctx context.Context) (<-chan Event, error)
	// Check takes a one-shot reading.
	Check(ctx context.Context) (Event, error)
}

// ErrSourceClosed is returned by ChannelSource after Close.
var ErrSourceClosed = errors.New("connectivity source closed")

// ProbeSource derives connectivity by dialing TCP targets on an interval.
// Each target is reported as one transport.
type ProbeSource struct {
	Targets  []string
	Interval time.Duration
	Timeout  time.Duration

	// Dial is replaced in tests.
	Dial func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewProbeSource creates a probe source with the given targets.
func NewProbeSource(targets []string, interval, timeout time.Duration) *ProbeSource {
	d := &net.Dialer{}
	return &ProbeSource{
		Targets:  targets,
		Interval: interval,
		Timeout:  timeout,
		Dial:     d.DialContext,
	}
}

// Check dials every target concurrently.
func (p *ProbeSource) Check(ctx context.Context) (Event, error) {
	transports := make([]Transport, len(p.Targets))
	var wg sync.WaitGroup
	for i, target := range p.Targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			transports[i] = Transport{Name: target, Usable: p.probe(ctx, target)}
		}(i, target)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	return Event{Transports: transports, At: time.Now()}, nil
}

func (p *ProbeSource) probe(ctx context.Context, target string) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := p.Dial(dialCtx, "tcp", target)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Events probes immediately and then every Interval.
func (p *ProbeSource) Events(ctx context.Context) (<-chan Event, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ch := make(chan Event)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			ev, err := p.Check(ctx)
			if err != nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// ChannelSource is a push-driven source. Callers Publish events and the
// monitor receives them in order. Check returns the last published event.
type ChannelSource struct {
	mu     sync.Mutex
	ch     chan Event
	last   Event
	closed bool
}

// NewChannelSource creates a source that initially reports connected.
func NewChannelSource() *ChannelSource {
	return &ChannelSource{
		ch:   make(chan Event, 16),
		last: Event{Transports: []Transport{{Name: "default", Usable: true}}},
	}
}

// Publish delivers ev to the subscriber. It blocks while the buffer is full.
func (c *ChannelSource) Publish(ev Event) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSourceClosed
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	c.last = ev
	defer c.mu.Unlock()

	c.ch <- ev
	return nil
}

// SetConnected publishes a single-transport event.
func (c *ChannelSource) SetConnected(connected bool) error {
	return c.Publish(Event{Transports: []Transport{{Name: "default", Usable: connected}}})
}

// Events forwards published events until ctx is done or Close is called.
func (c *ChannelSource) Events(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-c.ch:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Check returns the last published event.
func (c *ChannelSource) Check(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, nil
}

// Close stops event delivery.
func (c *ChannelSource) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}
