package config

import "github.com/glorpus-work/tilefetch/pkg/auth"

// AuthConfig selects one authentication method for a source. When several
// are set, basic wins over header, header over bearer.
type AuthConfig struct {
	BasicAuth  *BasicAuth  `yaml:"basic,omitempty"`
	HeaderAuth *HeaderAuth `yaml:"header,omitempty"`
	BearerAuth *BearerAuth `yaml:"bearer,omitempty"`
}

// BasicAuth holds configuration for HTTP Basic Authentication.
type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// HeaderAuth holds configuration for API keys sent as headers.
type HeaderAuth struct {
	Headers map[string]string `yaml:"headers"`
}

// BearerAuth holds configuration for Bearer token authentication.
type BearerAuth struct {
	Token string `yaml:"token"`
}

// ToAuthenticator returns nil when no method is configured.
func (a *AuthConfig) ToAuthenticator() auth.Authenticator {
	switch {
	case a == nil:
		return nil
	case a.BasicAuth != nil:
		return &auth.BasicAuth{Username: a.BasicAuth.Username, Password: a.BasicAuth.Password}
	case a.HeaderAuth != nil:
		return &auth.HeaderAuth{Headers: a.HeaderAuth.Headers}
	case a.BearerAuth != nil:
		return &auth.BearerAuth{Token: a.BearerAuth.Token}
	default:
		return nil
	}
}
