package download

import (
	"fmt"
	"strings"
	"time"

	"github.com/glorpus-work/tilefetch/pkg/auth"
	"github.com/glorpus-work/tilefetch/pkg/errors"
)

const (
	// DefaultExpiryAge is the practical default for map tiles: one week.
	DefaultExpiryAge = 7 * 24 * time.Hour

	// MinimumExpiryAge is the smallest expiry a user interface should offer.
	// It is advisory; Options accepts anything from zero upwards.
	MinimumExpiryAge = 24 * time.Hour
)

// Header is a single request header. Headers keep their order on the wire.
type Header struct {
	Name  string
	Value string
}

// Options describes how a single fetch behaves. The caller owns it and must
// not modify it while a fetch using it is in flight.
type Options struct {
	// CheckServerFreshness sends If-Modified-Since with the local file's mtime.
	CheckServerFreshness bool
	// UseETag sends If-None-Match with the stored ETag and stores the new one.
	UseETag bool

	Referer string
	// FollowRedirects is the maximum number of redirect hops, 0 disables them.
	FollowRedirects int
	// UserAgent overrides the handle's default when set.
	UserAgent string
	Headers   []Header

	// ExpiryAge forces a network attempt once the local file is older.
	ExpiryAge time.Duration

	Checker       ContentChecker
	PostProcessor PostProcessor

	// Credentials in "user:pass" form. Mutually exclusive with Auth.
	Credentials string
	Auth        auth.Authenticator
	// AllowCredentialFollow sends credentials to redirect targets on other hosts.
	AllowCredentialFollow bool

	// UseCookies opts into the manager's shared cookie store.
	UseCookies bool
}

// DefaultOptions returns options with a one week expiry and nothing else set.
func DefaultOptions() *Options {
	return &Options{ExpiryAge: DefaultExpiryAge}
}

// Validate reports contradictory or out-of-range settings.
func (o *Options) Validate() error {
	if o.FollowRedirects < 0 {
		return errors.Wrapf(errors.ErrInvalidOptions, "follow redirects cannot be negative: %d", o.FollowRedirects)
	}
	if o.ExpiryAge < 0 {
		return errors.Wrapf(errors.ErrInvalidOptions, "expiry age cannot be negative: %s", o.ExpiryAge)
	}
	if o.Credentials != "" && o.Auth != nil {
		return errors.Wrap(errors.ErrInvalidOptions, "credentials and authenticator are mutually exclusive")
	}
	for _, h := range o.Headers {
		if h.Name == "" || strings.ContainsAny(h.Name, " :\r\n") || strings.ContainsAny(h.Value, "\r\n") {
			return errors.Wrapf(errors.ErrInvalidOptions, "malformed header %q", h.Name)
		}
	}
	return nil
}

// authenticator resolves Credentials or Auth into one Authenticator.
func (o *Options) authenticator() auth.Authenticator {
	if o.Auth != nil {
		return o.Auth
	}
	if b := auth.ParseUserPass(o.Credentials); b != nil {
		return b
	}
	return nil
}

// ParseHeaders parses newline separated "Name: value" lines. Blank lines are
// skipped.
func ParseHeaders(s string) ([]Header, error) {
	var headers []Header
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: header line %q has no name", errors.ErrInvalidOptions, line)
		}
		headers = append(headers, Header{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return headers, nil
}
