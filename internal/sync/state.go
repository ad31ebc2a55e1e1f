// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package sync

import (
	"fmt"
	"time"
)

// Phase is the coarse controller state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase name in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Origin says where Ready data came from.
type Origin int

const (
	OriginNone Origin = iota
	OriginFresh
	OriginCached
)

func (o Origin) String() string {
	switch o {
	case OriginFresh:
		return "fresh"
	case OriginCached:
		return "cached"
	default:
		return ""
	}
}

// MarshalText renders the origin name in JSON.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// State is one controller state. Which fields are meaningful depends on
// Phase:
//
//	Idle, Loading  no payload
//	Ready          Data, Origin; Advisory and Err when Origin is Cached
//	Failed         Err, HasCache
type State[T any] struct {
	Phase     Phase
	Data      T
	Origin    Origin
	Advisory  string
	Err       error
	HasCache  bool
	UpdatedAt time.Time
}

// Stale reports whether the state shows cached data after a failed refresh.
func (s State[T]) Stale() bool {
	return s.Phase == PhaseReady && s.Origin == OriginCached
}

// Message is the user-facing status line.
func (s State[T]) Message() string {
	switch s.Phase {
	case PhaseLoading:
		return "Loading"
	case PhaseReady:
		if s.Origin == OriginCached {
			return "Offline: showing saved data. " + s.Advisory
		}
		return ""
	case PhaseFailed:
		if s.HasCache {
			return "Refresh failed: showing saved data"
		}
		return "No data available. Check your connection and retry."
	default:
		return ""
	}
}

// Snapshot is a type-erased State for transport to API clients.
type Snapshot struct {
	Domain    string    `json:"domain"`
	Phase     Phase     `json:"phase"`
	Origin    Origin    `json:"origin,omitempty"`
	Advisory  string    `json:"advisory,omitempty"`
	Error     string    `json:"error,omitempty"`
	HasCache  bool      `json:"has_cache"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Data      any       `json:"data,omitempty"`
}

func snapshotOf[T any](domain string, s State[T]) Snapshot {
	snap := Snapshot{
		Domain:    domain,
		Phase:     s.Phase,
		Origin:    s.Origin,
		Advisory:  s.Advisory,
		HasCache:  s.HasCache,
		Message:   s.Message(),
		UpdatedAt: s.UpdatedAt,
	}
	if s.Err != nil {
		snap.Error = s.Err.Error()
	}
	if s.Phase == PhaseReady {
		snap.Data = s.Data
	}
	return snap
}

// advisory describes cached data shown after a failed refresh.
func advisory(age time.Duration, cause error) string {
	return fmt.Sprintf("Data is %s old; last refresh failed: %v", formatAge(age), cause)
}

func formatAge(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "less than a minute"
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age/time.Minute))
	case age < 48*time.Hour:
		return fmt.Sprintf("%dh", int(age/time.Hour))
	default:
		return fmt.Sprintf("%dd", int(age/(24*time.Hour)))
	}
}
