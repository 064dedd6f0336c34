// Package fetch is the single retry policy for outbound network calls.
// Transient transport failures are retried with exponential backoff until a
// deadline; application-level failures pass through immediately. Every
// network-backed content source funnels its calls through Retry.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// Retryable is implemented by errors that may succeed on a later attempt.
type Retryable interface {
	ShouldRetry() bool
}

// Retry repeatedly invokes factory until it succeeds, fails non-retryably, or
// the deadline passes. The factory must be repeatable: it is re-invoked from
// scratch on each attempt. Backoff doubles per attempt with no cap beyond the
// deadline; callers bound worst-case latency by choosing the deadline.
func Retry[T any](ctx context.Context, factory func() (T, error), initialBackoff, deadline time.Duration) (T, error) {
	limit := time.Now().Add(deadline)
	backoff := initialBackoff
	for {
		res, err := factory()
		if err == nil {
			return res, nil
		}
		var r Retryable
		if !errors.As(err, &r) || !r.ShouldRetry() {
			return res, err
		}
		if time.Now().After(limit) {
			return res, err
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return res, err
		}
		backoff *= 2
	}
}

// Kind distinguishes the failure modes of a single upstream fetch.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTimeout is a transport timeout. Retryable.
	KindTimeout
	// KindConnectionFailed is a failure to reach the upstream host. Retryable.
	KindConnectionFailed
	// KindUpstreamStatus is a non-2xx application response. Not retryable.
	KindUpstreamStatus
	// KindInvalidData is a response body that could not be decoded.
	KindInvalidData
	// KindMisconfigured is a request that could not even be constructed.
	KindMisconfigured
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnectionFailed:
		return "connection_failed"
	case KindUpstreamStatus:
		return "upstream_status"
	case KindInvalidData:
		return "invalid_data"
	case KindMisconfigured:
		return "misconfigured"
	default:
		return "unknown"
	}
}

// Error is a classified upstream fetch failure.
type Error struct {
	Kind   Kind
	Target string
	Status int // HTTP status, set for KindUpstreamStatus
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindUpstreamStatus {
		return fmt.Sprintf("fetch %s: upstream returned %d", e.Target, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (%s): %v", e.Target, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Target, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// ShouldRetry reports whether another attempt can plausibly succeed: only
// connect failures and timeouts qualify.
func (e *Error) ShouldRetry() bool {
	return e.Kind == KindTimeout || e.Kind == KindConnectionFailed
}

// Classify wraps a transport error from an HTTP round trip into an Error.
func Classify(target string, err error) *Error {
	switch {
	case isTimeout(err):
		return &Error{Kind: KindTimeout, Target: target, Err: err}
	case isConnect(err):
		return &Error{Kind: KindConnectionFailed, Target: target, Err: err}
	default:
		return &Error{Kind: KindUnknown, Target: target, Err: err}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isConnect(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var op *net.OpError
	if errors.As(err, &op) {
		return op.Op == "dial"
	}
	var dns *net.DNSError
	return errors.As(err, &dns)
}
