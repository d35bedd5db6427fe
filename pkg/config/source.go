package config

import (
	"strings"
	"time"

	"github.com/glorpus-work/tilefetch/pkg/content"
	"github.com/glorpus-work/tilefetch/pkg/download"
	"github.com/glorpus-work/tilefetch/pkg/errors"
)

// Source is a named option profile, typically one per tile server.
type Source struct {
	CheckServerFreshness bool          `yaml:"check_server_freshness,omitempty"`
	UseETag              bool          `yaml:"use_etag,omitempty"`
	Referer              string        `yaml:"referer,omitempty"`
	FollowRedirects      int           `yaml:"follow_redirects,omitempty"`
	UserAgent            string        `yaml:"user_agent,omitempty"`
	Headers              []string      `yaml:"headers,omitempty"` // "Name: value"
	ExpiryAge            time.Duration `yaml:"expiry_age,omitempty"`

	// Checker names a built-in checker; Script is a Tengo checker. At most
	// one of them may be set.
	Checker       string `yaml:"checker,omitempty"`
	Script        string `yaml:"script,omitempty"`
	PostProcessor string `yaml:"post_processor,omitempty"`

	Credentials           string      `yaml:"credentials,omitempty"`
	Auth                  *AuthConfig `yaml:"auth,omitempty"`
	AllowCredentialFollow bool        `yaml:"allow_credential_follow,omitempty"`
	UseCookies            bool        `yaml:"use_cookies,omitempty"`
}

// Validate checks the source without compiling scripts.
func (s *Source) Validate() error {
	if s.Checker != "" && s.Script != "" {
		return errors.Wrap(errors.ErrConfigValidation, "checker and script are mutually exclusive")
	}
	if _, err := content.CheckerByName(s.Checker); err != nil {
		return err
	}
	if _, err := content.PostProcessorByName(s.PostProcessor); err != nil {
		return err
	}
	if s.Credentials != "" && s.Auth != nil {
		return errors.Wrap(errors.ErrConfigValidation, "credentials and auth are mutually exclusive")
	}
	if _, err := download.ParseHeaders(strings.Join(s.Headers, "\n")); err != nil {
		return err
	}
	if s.FollowRedirects < 0 || s.ExpiryAge < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "follow_redirects and expiry_age cannot be negative")
	}
	return nil
}

// ToOptions builds download options from the source. A zero expiry age
// means download.DefaultExpiryAge.
func (s *Source) ToOptions() (*download.Options, error) {
	headers, err := download.ParseHeaders(strings.Join(s.Headers, "\n"))
	if err != nil {
		return nil, err
	}

	opts := &download.Options{
		CheckServerFreshness:  s.CheckServerFreshness,
		UseETag:               s.UseETag,
		Referer:               s.Referer,
		FollowRedirects:       s.FollowRedirects,
		UserAgent:             s.UserAgent,
		Headers:               headers,
		ExpiryAge:             s.ExpiryAge,
		Credentials:           s.Credentials,
		AllowCredentialFollow: s.AllowCredentialFollow,
		UseCookies:            s.UseCookies,
	}
	if opts.ExpiryAge == 0 {
		opts.ExpiryAge = download.DefaultExpiryAge
	}
	if s.Auth != nil {
		opts.Auth = s.Auth.ToAuthenticator()
	}

	if s.Script != "" {
		if opts.Checker, err = content.Script(s.Script); err != nil {
			return nil, err
		}
	} else if opts.Checker, err = content.CheckerByName(s.Checker); err != nil {
		return nil, err
	}
	if opts.PostProcessor, err = content.PostProcessorByName(s.PostProcessor); err != nil {
		return nil, err
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
