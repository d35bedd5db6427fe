package download

import (
	"net/http"
	"time"

	"github.com/glorpus-work/tilefetch/internal/logger"
	"github.com/glorpus-work/tilefetch/pkg/errors"
	"github.com/glorpus-work/tilefetch/pkg/fsutil"
)

// Decision is the outcome of the freshness evaluation for one destination.
type Decision struct {
	// Skip means the local file is fresh and no network call is needed.
	Skip bool

	Exists  bool
	ModTime time.Time
	// Expired means the local file is older than Options.ExpiryAge.
	Expired bool

	// IfModifiedSince is sent when non-zero.
	IfModifiedSince time.Time
	// IfNoneMatch is sent when non-empty.
	IfNoneMatch string
}

// Conditional reports whether the request carries a validator, i.e. whether
// the server may answer "not modified".
func (d Decision) Conditional() bool {
	return !d.IfModifiedSince.IsZero() || d.IfNoneMatch != ""
}

// Apply writes the conditional headers into h.
func (d Decision) Apply(h http.Header) {
	if !d.IfModifiedSince.IsZero() {
		h.Set("If-Modified-Since", d.IfModifiedSince.UTC().Format(http.TimeFormat))
	}
	if d.IfNoneMatch != "" {
		h.Set("If-None-Match", d.IfNoneMatch)
	}
}

// Evaluate decides whether dest has to be fetched and which validators to
// send. etags may be nil. An existing file older than ExpiryAge always goes
// to the network; validators are attached whenever their option is enabled,
// so the server can still answer "not modified" for an expired file. With no
// validator enabled, a file within ExpiryAge is used as is. A zero ExpiryAge
// always expires. UseETag without a store is not a validator.
func Evaluate(dest string, opts *Options, etags ETagStore, now time.Time) (Decision, error) {
	info, err := fsutil.Stat(dest)
	if err != nil {
		return Decision{}, errors.Wrapf(err, "stat %s", dest)
	}
	if info == nil {
		return Decision{}, nil
	}
	if info.IsDir() {
		return Decision{}, errors.Wrapf(errors.ErrInvalidPath, "destination %s is a directory", dest)
	}

	d := Decision{
		Exists:  true,
		ModTime: info.ModTime(),
		Expired: opts.ExpiryAge <= 0 || now.Sub(info.ModTime()) > opts.ExpiryAge,
	}

	if opts.CheckServerFreshness {
		d.IfModifiedSince = d.ModTime
	}
	useETag := opts.UseETag && etags != nil
	if useETag {
		etag, err := etags.Get(dest)
		if err != nil {
			logger.Warn("could not read stored etag, fetching unconditionally", logger.Fields{"path": dest, "error": err})
		} else {
			d.IfNoneMatch = etag
		}
	}

	if !d.Expired && !opts.CheckServerFreshness && !useETag {
		d.Skip = true
	}
	return d, nil
}
