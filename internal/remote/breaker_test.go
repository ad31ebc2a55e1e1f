// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package remote

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/retry"
)

// scriptedAPI returns err from every call and counts invocations.
type scriptedAPI struct {
	err   error
	calls atomic.Int32
}

func (s *scriptedAPI) ListFacilities(context.Context) ([]models.Facility, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []models.Facility{{ID: "f1"}}, nil
}

func (s *scriptedAPI) ListCommodities(context.Context) ([]models.Commodity, error) {
	s.calls.Add(1)
	return nil, s.err
}

func (s *scriptedAPI) SubmitReview(context.Context, models.ReviewSubmission) error {
	s.calls.Add(1)
	return s.err
}

func breakerConfig() *config.RemoteConfig {
	return &config.RemoteConfig{
		BreakerFailures:    3,
		BreakerMaxRequests: 1,
		BreakerInterval:    time.Minute,
		BreakerTimeout:     time.Minute,
	}
}

func TestBreakerDataClient_PassesThrough(t *testing.T) {
	t.Parallel()

	api := &scriptedAPI{}
	b := NewBreakerDataClient(api, breakerConfig())

	facilities, err := b.ListFacilities(context.Background())
	if err != nil {
		t.Fatalf("ListFacilities() error = %v", err)
	}
	if len(facilities) != 1 || facilities[0].ID != "f1" {
		t.Errorf("unexpected result %+v", facilities)
	}

	commodities, err := b.ListCommodities(context.Background())
	if err != nil || commodities != nil {
		t.Errorf("ListCommodities() = %v, %v", commodities, err)
	}
}

func TestBreakerDataClient_OpensOnNetworkErrors(t *testing.T) {
	t.Parallel()

	api := &scriptedAPI{err: &NetworkError{Op: "list_facilities", Status: 503, Err: errors.New("down")}}
	b := NewBreakerDataClient(api, breakerConfig())

	for i := 0; i < 3; i++ {
		if _, err := b.ListFacilities(context.Background()); !IsNetworkError(err) {
			t.Fatalf("call %d: expected NetworkError, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", b.State())
	}

	_, err := b.ListFacilities(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected ErrOpenState, got %v", err)
	}
	if api.calls.Load() != 3 {
		t.Errorf("upstream called %d times, want 3", api.calls.Load())
	}
	if retry.DefaultClassifier(err) != retry.NonRetryable {
		t.Error("open circuit should not be retried")
	}
}

func TestBreakerDataClient_DomainErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	api := &scriptedAPI{err: &DomainError{Op: "submit_review", Status: 409}}
	b := NewBreakerDataClient(api, breakerConfig())

	for i := 0; i < 10; i++ {
		var domainErr *DomainError
		if err := b.SubmitReview(context.Background(), models.ReviewSubmission{}); !errors.As(err, &domainErr) {
			t.Fatalf("call %d: expected DomainError, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", b.State())
	}
}

func TestCountsAsSuccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"canceled", context.Canceled, true},
		{"domain", &DomainError{Status: 400}, true},
		{"network", &NetworkError{Err: errors.New("reset")}, false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		if got := countsAsSuccess(tt.err); got != tt.want {
			t.Errorf("%s: countsAsSuccess() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
