package download

import (
	"context"
	"os"
)

// TempFile downloads uri into a new file under os.TempDir and returns its
// path. Freshness checks do not apply. The caller owns and removes the file.
func (m *Manager) TempFile(ctx context.Context, uri string, opts *Options) (string, error) {
	f, err := os.CreateTemp("", "tilefetch-*")
	if err != nil {
		return "", newError(StatusFileWriteError, "create", uri, err)
	}
	path := f.Name()
	_ = f.Close()

	h := m.pool.Acquire()
	defer m.pool.Release(h)

	res := m.fetch(ctx, h, uri, path, opts, true)
	if !res.OK() {
		_ = os.Remove(path)
		return "", res.Err
	}
	return path, nil
}
