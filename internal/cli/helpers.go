package cli

import (
	"fmt"
	"io"

	"github.com/glorpus-work/tilefetch/internal/logger"
	"github.com/glorpus-work/tilefetch/pkg/config"
	"github.com/glorpus-work/tilefetch/pkg/download"
	"github.com/glorpus-work/tilefetch/pkg/fsutil"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
)

// loadConfig loads the configuration and initializes logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Settings.LogLevel
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	logger.InitLogger(level)
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := fsutil.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// newManager builds a download manager from cfg. The returned function
// releases the manager and the ETag store.
func newManager(cfg *config.Config) (*download.Manager, func(), error) {
	store, err := cfg.NewETagStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open etag store: %w", err)
	}
	closeStore := func() {
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("Failed to close etag store", logger.Fields{"error": err})
			}
		}
	}

	manager, err := download.NewManager(download.ManagerConfig{
		Handle: cfg.HandleConfig(),
		ETags:  store,
	})
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to create download manager: %w", err)
	}

	return manager, func() {
		_ = manager.Close()
		closeStore()
	}, nil
}
