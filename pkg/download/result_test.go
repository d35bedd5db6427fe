package download

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{name: "nil", err: nil, want: StatusSuccess},
		{name: "not modified", err: ErrNotModified, want: StatusNotRequired},
		{name: "wrapped not modified", err: fmt.Errorf("ftp: %w", ErrNotModified), want: StatusNotRequired},
		{name: "content", err: newError(StatusContentError, "check", "", ErrContentRejected), want: StatusContentError},
		{name: "wrapped write", err: fmt.Errorf("batch: %w", newError(StatusFileWriteError, "write", "", errors.New("disk full"))), want: StatusFileWriteError},
		{name: "plain error", err: errors.New("boom"), want: StatusHTTPError},
		{name: "deadline", err: context.DeadlineExceeded, want: StatusHTTPError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		status Status
		name   string
		ok     bool
	}{
		{StatusSuccess, "success", true},
		{StatusNotRequired, "not-required", true},
		{StatusHTTPError, "http-error", false},
		{StatusContentError, "content-error", false},
		{StatusFileWriteError, "file-write-error", false},
		{StatusParameterError, "parameter-error", false},
		{Status(42), "status(42)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.ok, tt.status.OK())
			assert.Equal(t, tt.ok, Result{Status: tt.status}.OK())
		})
	}
}

func TestError(t *testing.T) {
	cause := errors.New("connection reset")
	err := newError(StatusHTTPError, "read", "http://tiles.example.com/1.png", cause)

	assert.Equal(t, "read http://tiles.example.com/1.png (http-error): connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "check (content-error): content rejected", newError(StatusContentError, "check", "", ErrContentRejected).Error())
}

func TestResultFromError(t *testing.T) {
	res := resultFromError(ErrNotModified)
	assert.Equal(t, StatusNotRequired, res.Status)
	assert.NoError(t, res.Err)

	cause := newError(StatusParameterError, "uri", "x", errors.New("bad"))
	res = resultFromError(cause)
	assert.Equal(t, StatusParameterError, res.Status)
	assert.Same(t, cause, res.Err)
}
