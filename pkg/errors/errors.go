// Package errors holds the sentinel errors shared across tilefetch and small
// helpers for adding context while keeping errors.Is/As working.
package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEnv         = fmt.Errorf("failed to apply environment overrides")
	ErrUnknownSource     = fmt.Errorf("unknown source")
	ErrUnknownStrategy   = fmt.Errorf("unknown content strategy")
	ErrUnknownETagStore  = fmt.Errorf("unknown etag store")

	// Fetch parameter errors.
	ErrInvalidPath    = fmt.Errorf("invalid path")
	ErrInvalidURI     = fmt.Errorf("invalid URI")
	ErrUnsupportedURI = fmt.Errorf("unsupported URI scheme")
	ErrInvalidOptions = fmt.Errorf("invalid download options")

	// Content errors.
	ErrScriptCompile = fmt.Errorf("failed to compile content script")
	ErrScriptRun     = fmt.Errorf("content script failed")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
