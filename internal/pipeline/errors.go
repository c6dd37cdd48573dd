package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the failure taxonomy surfaced to callers.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUpstreamData
	KindComputation
	KindExternalService
	KindConsistency
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpstreamData:
		return "upstream_data"
	case KindComputation:
		return "computation"
	case KindExternalService:
		return "external_service"
	case KindConsistency:
		return "consistency"
	case KindTimeout:
		return "timeout"
	}
	return "unknown"
}

var (
	ErrTickerRequired = errors.New("stock ticker is required")
	ErrNoOutput       = errors.New("stage produced no output")
)

// StageError tags a failure with the stage that raised it.
type StageError struct {
	Stage StageName
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s Agent Error: %s", e.Stage, msg)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func Failed(stage StageName, kind ErrorKind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// AsStageError extracts the StageError from err's chain.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// adapterFailure picks Timeout when the deadline was hit and fallback otherwise.
func adapterFailure(ctx context.Context, stage StageName, fallback ErrorKind, err error) *StageError {
	if isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Failed(stage, KindTimeout, err)
	}
	return Failed(stage, fallback, err)
}
