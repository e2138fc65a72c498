package snoopsim

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError("VALIDATE_CONFIG", ErrCodeInvalidGeometry, "block size 24 must be a power of two")
	assert.Equal(t, "snoopsim: block size 24 must be a power of two (op=VALIDATE_CONFIG)", err.Error())

	coreErr := NewCoreError("RUN", 2, ErrCodeTraceFormat, fmt.Errorf("app_2.data:17: want 2 fields, got 1"))
	assert.Contains(t, coreErr.Error(), "core=2")
	assert.Contains(t, coreErr.Error(), "app_2.data:17")
}

func TestErrorCodeFallback(t *testing.T) {
	err := NewError("RUN", ErrCodeAlreadyRun, "")
	assert.Contains(t, err.Error(), string(ErrCodeAlreadyRun))
}

func TestErrorIs(t *testing.T) {
	err := NewError("PARSE_PROTOCOL", ErrCodeUnknownProtocol, "unrecognized protocol")
	assert.ErrorIs(t, err, &Error{Code: ErrCodeUnknownProtocol})
	assert.NotErrorIs(t, err, &Error{Code: ErrCodeTraceOpen})
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("no such file")
	err := WrapError("OPEN_TRACE", ErrCodeTraceOpen, inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "no such file")
}
