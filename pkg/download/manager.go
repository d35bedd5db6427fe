// Package download is a conditional-fetch download manager. It retrieves
// remote resources over HTTP or FTP into local files, skipping or
// short-circuiting transfers when the local copy is still fresh, validating
// and post-processing what it receives and promoting it atomically so that a
// destination file is always either absent, unchanged or complete.
package download

import (
	"context"
	stderrors "errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/tilefetch/internal/logger"
	"github.com/glorpus-work/tilefetch/pkg/errors"
	"github.com/glorpus-work/tilefetch/pkg/fsutil"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Handle HandleConfig
	// ETags persists validators between runs; nil disables ETag handling.
	ETags ETagStore
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Manager runs fetches. It is safe for concurrent use; the handles passed to
// it are not.
type Manager struct {
	pool    *Pool
	etags   ETagStore
	cookies *CookieStore
	now     func() time.Time
	metrics *fetchMetrics
}

// Request is one entry of a batch.
type Request struct {
	URI     string
	Dest    string
	Options *Options
}

// NewManager creates a Manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	jar, err := NewCookieStore()
	if err != nil {
		return nil, errors.Wrap(err, "could not create cookie store")
	}
	m := &Manager{
		pool:    NewPool(cfg.Handle),
		etags:   cfg.ETags,
		cookies: jar,
		now:     cfg.Clock,
		metrics: newFetchMetrics(),
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// Acquire hands out a handle for a worker; give it back with Release.
func (m *Manager) Acquire() *Handle { return m.pool.Acquire() }

// Release returns a handle obtained from Acquire.
func (m *Manager) Release(h *Handle) { m.pool.Release(h) }

// Close releases all pooled handles.
func (m *Manager) Close() error { return m.pool.Close() }

// Cookies returns the cookie store shared by fetches that set UseCookies.
func (m *Manager) Cookies() *CookieStore { return m.cookies }

// GetHTTP fetches http://host+path into dest.
func (m *Manager) GetHTTP(ctx context.Context, h *Handle, host, path, dest string, opts *Options) Result {
	uri, err := BuildURI("http", host, path)
	if err != nil {
		return resultFromError(newError(StatusParameterError, "uri", host+path, err))
	}
	return m.Get(ctx, h, uri, dest, opts)
}

// GetFTP fetches ftp://host+path into dest.
func (m *Manager) GetFTP(ctx context.Context, h *Handle, host, path, dest string, opts *Options) Result {
	uri, err := BuildURI("ftp", host, path)
	if err != nil {
		return resultFromError(newError(StatusParameterError, "uri", host+path, err))
	}
	return m.Get(ctx, h, uri, dest, opts)
}

// Get fetches uri into dest using h. nil opts means DefaultOptions.
func (m *Manager) Get(ctx context.Context, h *Handle, uri, dest string, opts *Options) Result {
	return m.fetch(ctx, h, uri, dest, opts, false)
}

// FetchAll fetches every request with at most workers transfers in flight.
// Each worker holds one handle for its lifetime. Requests sharing a
// destination are fetched once, using the first request's URI and options,
// and all receive that result. Results are in request order.
func (m *Manager) FetchAll(ctx context.Context, reqs []Request, workers int) []Result {
	if workers <= 0 {
		workers = max(2, runtime.NumCPU()/2)
	}
	byDest, order := buildDestIndex(reqs)
	results := make([]Result, len(reqs))
	workers = min(workers, len(order))

	tasks := make(chan string)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			h := m.pool.Acquire()
			defer m.pool.Release(h)
			for dest := range tasks {
				idxs := byDest[dest]
				first := reqs[idxs[0]]
				res := m.Get(ctx, h, first.URI, first.Dest, first.Options)
				for _, i := range idxs {
					results[i] = res
				}
			}
			return nil
		})
	}
	for _, dest := range order {
		tasks <- dest
	}
	close(tasks)
	_ = g.Wait()
	return results
}

func buildDestIndex(reqs []Request) (map[string][]int, []string) {
	byDest := make(map[string][]int, len(reqs))
	order := make([]string, 0, len(reqs))
	for i, r := range reqs {
		key := filepath.Clean(r.Dest)
		if r.Dest == "" {
			key = ""
		}
		if _, seen := byDest[key]; !seen {
			order = append(order, key)
		}
		byDest[key] = append(byDest[key], i)
	}
	return byDest, order
}

// tempFile is the part of *os.File a transfer writes through.
type tempFile interface {
	io.Writer
	Name() string
	Sync() error
	Close() error
}

var createTemp = func(dir, pattern string) (tempFile, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// fetch runs one download. With force set the freshness check is skipped and
// no ETag is persisted.
func (m *Manager) fetch(ctx context.Context, h *Handle, uri, dest string, opts *Options, force bool) (res Result) {
	scheme := "unknown"
	start := m.now()
	ctx, span := m.metrics.start(ctx, uri, dest)
	defer func() {
		m.metrics.record(ctx, span, scheme, res)
		fields := logger.Fields{"uri": uri, "dest": dest, "result": res.Status.String(), "elapsed": m.now().Sub(start).String()}
		if res.Err != nil {
			fields["error"] = res.Err.Error()
			logger.WarnContext(ctx, "fetch failed", fields)
			return
		}
		logger.DebugContext(ctx, "fetch finished", fields)
	}()

	if opts == nil {
		opts = DefaultOptions()
	}
	if h == nil {
		return resultFromError(newError(StatusParameterError, "handle", uri, errors.Wrap(errors.ErrInvalidOptions, "nil handle")))
	}
	ctx = logger.NewContext(ctx, h.log)
	if dest == "" {
		return resultFromError(newError(StatusParameterError, "dest", uri, errors.Wrap(errors.ErrInvalidPath, "empty destination")))
	}
	if err := opts.Validate(); err != nil {
		return resultFromError(newError(StatusParameterError, "options", uri, err))
	}
	u, err := parseURI(uri)
	if err != nil {
		return resultFromError(newError(StatusParameterError, "uri", uri, err))
	}
	scheme = u.Scheme

	if err := h.begin(); err != nil {
		return resultFromError(newError(StatusParameterError, "handle", uri, err))
	}
	defer h.end()

	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	var d Decision
	if !force {
		d, err = Evaluate(dest, opts, m.etagsFor(opts), m.now())
		if err != nil {
			status := StatusFileWriteError
			if stderrors.Is(err, errors.ErrInvalidPath) {
				status = StatusParameterError
			}
			return resultFromError(newError(status, "freshness", dest, err))
		}
		if d.Skip {
			return Result{Status: StatusNotRequired}
		}
	}

	if err := fsutil.EnsureFileDir(dest); err != nil {
		return resultFromError(newError(StatusFileWriteError, "mkdir", dest, err))
	}
	tmp, err := createTemp(filepath.Dir(dest), fsutil.TempPattern)
	if err != nil {
		return resultFromError(newError(StatusFileWriteError, "create", dest, err))
	}
	tmpPath := tmp.Name()
	promoted := false
	defer func() {
		if !promoted {
			_ = fsutil.RemoveIfExists(tmpPath)
		}
	}()

	info, err := m.transfer(ctx, h, u, tmp, opts, d)
	if closeErr := closeTemp(tmp); closeErr != nil && err == nil {
		err = newError(StatusFileWriteError, "write", dest, closeErr)
	}
	if stderrors.Is(err, ErrNotModified) {
		if d.Exists {
			if err := fsutil.Touch(dest, m.now()); err != nil {
				logger.Warn("could not refresh modification time", logger.Fields{"path": dest, "error": err})
			}
		}
		return Result{Status: StatusNotRequired, ETag: info.ETag}
	}
	if err != nil {
		return resultFromError(err)
	}

	if err := Finalize(ctx, tmpPath, dest, opts); err != nil {
		return Result{Status: Classify(err), ETag: info.ETag, Bytes: info.Bytes, Err: err}
	}
	promoted = true

	if !force {
		m.storeETag(dest, info.ETag, opts)
	}
	return Result{Status: StatusSuccess, ETag: info.ETag, Bytes: info.Bytes}
}

func (m *Manager) transfer(ctx context.Context, h *Handle, u *url.URL, w io.Writer, opts *Options, d Decision) (FetchInfo, error) {
	if u.Scheme == "ftp" {
		return fetchFTP(ctx, h, u, w, opts, d)
	}
	return fetchHTTP(ctx, h, m.cookies, u, w, opts, d)
}

func (m *Manager) etagsFor(opts *Options) ETagStore {
	if !opts.UseETag {
		return nil
	}
	return m.etags
}

// storeETag records the new validator, or forgets the old one when the
// server sent none, so a stale ETag never validates new content.
func (m *Manager) storeETag(dest, etag string, opts *Options) {
	store := m.etagsFor(opts)
	if store == nil {
		return
	}
	var err error
	if etag != "" {
		err = store.Set(dest, etag)
	} else {
		err = store.Delete(dest)
	}
	if err != nil {
		logger.Warn("could not persist etag", logger.Fields{"path": dest, "error": err})
	}
}

func closeTemp(f tempFile) error {
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// BuildURI joins host and path into a URI for scheme. A host that already
// carries a scheme ("https://tiles.example.com") is used as given.
func BuildURI(scheme, host, path string) (string, error) {
	if host == "" {
		return "", errors.Wrap(errors.ErrInvalidURI, "empty host")
	}
	if !strings.Contains(host, "://") {
		host = scheme + "://" + host
	}
	uri := host + path
	if _, err := parseURI(uri); err != nil {
		return "", err
	}
	return uri, nil
}

func parseURI(uri string) (*url.URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidURI, "%s: %v", uri, err)
	}
	switch u.Scheme {
	case "http", "https", "ftp":
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedURI, "%q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.Wrapf(errors.ErrInvalidURI, "%s: missing host", uri)
	}
	return u, nil
}
