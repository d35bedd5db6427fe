package download

import (
	stderrors "errors"
	"fmt"
)

// Status is the outcome of a fetch.
type Status int

// Fetch outcomes. StatusSuccess and StatusNotRequired both mean the
// destination holds a usable file; every other status means the destination
// is unchanged (or still absent).
const (
	StatusSuccess Status = iota
	StatusNotRequired
	StatusHTTPError
	StatusContentError
	StatusFileWriteError
	StatusParameterError
)

var statusNames = map[Status]string{
	StatusSuccess:        "success",
	StatusNotRequired:    "not-required",
	StatusHTTPError:      "http-error",
	StatusContentError:   "content-error",
	StatusFileWriteError: "file-write-error",
	StatusParameterError: "parameter-error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// OK reports whether the destination may be used by the caller.
func (s Status) OK() bool {
	return s == StatusSuccess || s == StatusNotRequired
}

// Sentinel causes, usable with errors.Is on Result.Err.
var (
	ErrNotModified     = stderrors.New("not modified")
	ErrHandleBusy      = stderrors.New("handle is already in use")
	ErrHandleClosed    = stderrors.New("handle is closed")
	ErrRedirectLimit   = stderrors.New("redirect limit exceeded")
	ErrContentRejected = stderrors.New("content rejected")
)

// Error carries the classification of a failed fetch together with its cause.
type Error struct {
	Status Status // never StatusSuccess or StatusNotRequired
	Op     string // the step that failed, e.g. "request", "write", "check"
	URI    string
	Err    error
}

func (e *Error) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.URI, e.Status, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Status, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(status Status, op, uri string, err error) *Error {
	return &Error{Status: status, Op: op, URI: uri, Err: err}
}

// Classify maps err to a Status. nil is success, ErrNotModified is
// not-required, an *Error keeps its status and anything else, including
// context cancellation and deadlines, is an HTTP error.
func Classify(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	if stderrors.Is(err, ErrNotModified) {
		return StatusNotRequired
	}
	var fe *Error
	if stderrors.As(err, &fe) {
		return fe.Status
	}
	return StatusHTTPError
}

// Result is what every fetch returns.
type Result struct {
	Status Status
	// ETag is the entity tag the server sent with a full response, if any.
	ETag string
	// Bytes is the size of the transferred body.
	Bytes int64
	// Err explains a failed status; nil when Status.OK().
	Err error
}

// OK reports whether the destination may be used by the caller.
func (r Result) OK() bool { return r.Status.OK() }

func resultFromError(err error) Result {
	status := Classify(err)
	if status.OK() {
		return Result{Status: status}
	}
	return Result{Status: status, Err: err}
}
