package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"5xx", &UpstreamError{Status: 503}, KindTransient},
		{"429", &UpstreamError{Status: 429}, KindTransient},
		{"404", &UpstreamError{Status: 404}, KindFatal},
		{"401 wrapped", fmt.Errorf("quote: %w", &UpstreamError{Status: 401}), KindFatal},
		{"deadline", context.DeadlineExceeded, KindTransient},
		{"canceled", context.Canceled, KindFatal},
		{"net timeout", timeoutErr{}, KindTransient},
		{"explicit fatal", fatalErr("x", errors.New("bad json")), KindFatal},
		{"explicit transient", transientErr("x", errCircuitOpen), KindTransient},
		{"plain", errors.New("boom"), KindFatal},
		{"nil", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, isTimeout(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.True(t, isTimeout(timeoutErr{}))
	assert.True(t, isTimeout(&UpstreamError{Status: 504}))
	assert.False(t, isTimeout(&UpstreamError{Status: 500}))
	assert.False(t, isTimeout(nil))
}
