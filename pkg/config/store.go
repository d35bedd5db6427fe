package config

import (
	"github.com/glorpus-work/tilefetch/pkg/download"
	"github.com/glorpus-work/tilefetch/pkg/errors"
	"github.com/glorpus-work/tilefetch/pkg/etag"
)

// NewETagStore opens the configured ETag store. It returns nil for "none".
// Close the result if it implements io.Closer.
func (c *Config) NewETagStore() (download.ETagStore, error) {
	switch c.Settings.ETagStore {
	case ETagStoreNone:
		return nil, nil
	case ETagStoreSidecar, "":
		return etag.NewSidecarStore(), nil
	case ETagStoreXattr:
		return etag.NewXattrStore(), nil
	case ETagStoreSQLite:
		store, err := etag.OpenSQLiteStore(c.ETagDBPath())
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, errors.Wrapf(errors.ErrUnknownETagStore, "%q", c.Settings.ETagStore)
	}
}
