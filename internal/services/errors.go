package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// Kind classifies an adapter failure for the retry policy.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransient covers network errors, timeouts, 429 and 5xx. Eligible for retry.
	KindTransient
	// KindFatal covers 4xx, malformed payloads and empty results. Never retried.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	if e.Service == "" {
		return fmt.Sprintf("upstream: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s: %d %s", e.Service, e.Status, http.StatusText(e.Status))
}

type ServiceError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func transientErr(op string, err error) error {
	return &ServiceError{Kind: KindTransient, Op: op, Err: err}
}

func fatalErr(op string, err error) error {
	return &ServiceError{Kind: KindFatal, Op: op, Err: err}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return KindTransient
	case status >= 500:
		return KindTransient
	case status >= 400:
		return KindFatal
	}
	return KindUnknown
}

// Classify maps err onto Transient or Fatal. Errors that carry no transport
// signal are Fatal so they are never retried blindly.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var se *ServiceError
	if errors.As(err, &se) && se.Kind != KindUnknown {
		return se.Kind
	}
	var up *UpstreamError
	if errors.As(err, &up) {
		if k := kindForStatus(up.Status); k != KindUnknown {
			return k
		}
		return KindFatal
	}
	if errors.Is(err, context.Canceled) {
		return KindFatal
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	return KindFatal
}

func IsTransient(err error) bool {
	return Classify(err) == KindTransient
}

// isTimeout reports deadline expiry anywhere in the chain, including
// transport-level timeouts.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.Status == http.StatusRequestTimeout || up.Status == http.StatusGatewayTimeout
	}
	return false
}
