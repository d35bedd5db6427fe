package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/tilefetch/pkg/errors"
	"github.com/glorpus-work/tilefetch/pkg/fsutil"
)

// SaveConfig writes the configuration to path, replacing the previous file
// atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}
	if err := fsutil.EnsureStateDir(absPath); err != nil {
		return errors.Wrapf(err, "failed to create config directory for %s", path)
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), fsutil.TempPattern)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}
	tmpPath := tmp.Name()
	defer func() { _ = fsutil.RemoveIfExists(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "failed to write config file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeSecure); err != nil {
		return errors.Wrap(err, "failed to set config file permissions")
	}
	return fsutil.ReplaceFile(tmpPath, absPath)
}

// SetValue sets a setting by its YAML key. The result is validated.
func (c *Config) SetValue(key, value string) error {
	updated := c.Settings
	switch key {
	case "timeout", "connect_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %s", key, value)
		}
		if key == "timeout" {
			updated.Timeout = d
		} else {
			updated.ConnectTimeout = d
		}
	case "user_agent":
		updated.UserAgent = value
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		updated.Workers = n
	case "cookies":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		updated.Cookies = b
	case "etag_store":
		updated.ETagStore = value
	case "etag_db":
		updated.ETagDB = value
	case "log_level":
		updated.LogLevel = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err := validateSettings(updated); err != nil {
		return err
	}
	c.Settings = updated
	return nil
}

// GetValue returns a setting by its YAML key.
func (c *Config) GetValue(key string) (string, error) {
	value, ok := c.ToMap()[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return value, nil
}

// ToMap returns the settings keyed by their YAML names, for display.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		field := settingsType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		yamlKey := strings.Split(yamlTag, ",")[0]

		fieldValue := settingsValue.Field(i)
		switch v := fieldValue.Interface().(type) {
		case time.Duration:
			result[yamlKey] = v.String()
		case bool:
			result[yamlKey] = strconv.FormatBool(v)
		case int:
			result[yamlKey] = strconv.Itoa(v)
		case string:
			result[yamlKey] = v
		default:
			result[yamlKey] = fmt.Sprintf("%v", v)
		}
	}

	return result
}
