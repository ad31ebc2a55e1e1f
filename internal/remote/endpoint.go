// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

const (
	// maxErrorBodySize caps how much of a failed response is read.
	maxErrorBodySize = 64 * 1024

	// maxBodySize caps successful response bodies.
	maxBodySize = 16 << 20
)

// readBodyForError reads at most maxErrorBodySize bytes for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// endpoint is the HTTP plumbing shared by the data and routing clients:
// base URL, static headers, rate limiting, metrics and error mapping of
// transport failures.
type endpoint struct {
	api     string
	baseURL string
	header  http.Header
	client  *http.Client
	limiter *rate.Limiter
	maxBody int64
}

func newEndpoint(api, baseURL string, client *http.Client, timeout time.Duration, rps float64, burst int) *endpoint {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &endpoint{
		api:     api,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		header:  make(http.Header),
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		maxBody: maxBodySize,
	}
}

// response is a fully read HTTP response.
type response struct {
	Status int
	Body   []byte
}

func (r *response) ok() bool {
	return r.Status >= 200 && r.Status < 300
}

// send performs one request. Transport failures and transient statuses come
// back as *NetworkError; any other status is returned for the caller to map.
func (e *endpoint) send(ctx context.Context, op, method, path string, query url.Values, body []byte, extra http.Header) (*response, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		// The limiter fails fast when the wait would exceed the deadline.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Op: op, Timeout: true, Err: err}
	}

	reqURL := e.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	for k, v := range e.header {
		req.Header[k] = v
	}
	for k, v := range extra {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		metrics.RecordRemoteRequest(e.api, op, 0, time.Since(start))
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Op: op, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()
	metrics.RecordRemoteRequest(e.api, op, resp.StatusCode, time.Since(start))

	logging.Ctx(ctx).Debug().
		Str("api", e.api).
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Remote request")

	if transientStatus(resp.StatusCode) {
		body := readBodyForError(resp.Body)
		return nil, &NetworkError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s: %s", http.StatusText(resp.StatusCode), bytes.TrimSpace(body)),
		}
	}

	out := &response{Status: resp.StatusCode}
	if out.ok() {
		// One byte past the cap tells a body that fits from one that does not.
		out.Body, err = io.ReadAll(io.LimitReader(resp.Body, e.maxBody+1))
		if err != nil {
			return nil, &NetworkError{Op: op, Status: resp.StatusCode, Timeout: isTimeout(err), Err: err}
		}
		if int64(len(out.Body)) > e.maxBody {
			return nil, fmt.Errorf("%s: %w: more than %d bytes", op, ErrResponseTooLarge, e.maxBody)
		}
	} else {
		out.Body = readBodyForError(resp.Body)
	}
	return out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
