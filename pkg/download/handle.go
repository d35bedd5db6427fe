package download

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/glorpus-work/tilefetch/internal/logger"
)

// Version is reported in the default User-Agent.
var Version = "1.0"

// Handle defaults.
const (
	DefaultTimeout        = 60 * time.Second
	DefaultConnectTimeout = 15 * time.Second
)

// DefaultUserAgent returns the User-Agent used when neither the handle nor
// the options set one.
func DefaultUserAgent() string {
	return "tilefetch/" + Version
}

// HandleConfig configures the transport of a Handle.
type HandleConfig struct {
	// Timeout bounds a whole transfer, body included.
	Timeout time.Duration
	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration
	// UserAgent is the process-wide default, overridden per fetch by Options.UserAgent.
	UserAgent string
}

func (c HandleConfig) withDefaults() HandleConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent()
	}
	return c
}

// Handle is a reusable network session owned by one worker. It keeps HTTP
// connections alive between sequential fetches and caches FTP control
// connections. A Handle serves one fetch at a time; a second concurrent
// fetch on the same Handle fails with ErrHandleBusy.
type Handle struct {
	id        string
	cfg       HandleConfig
	transport *http.Transport
	client    *http.Client
	log       *slog.Logger

	dialFTP ftpDialer

	mu       sync.Mutex
	ftpConns map[string]ftpSession

	inUse  atomic.Bool
	closed atomic.Bool
}

// NewHandle creates a Handle. Release it with Close once the worker is done.
func NewHandle(cfg HandleConfig) *Handle {
	cfg = cfg.withDefaults()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout
	transport.ResponseHeaderTimeout = cfg.Timeout
	transport.MaxIdleConnsPerHost = 4

	id := uuid.NewString()
	return &Handle{
		id:        id,
		cfg:       cfg,
		transport: transport,
		client: &http.Client{
			Transport: transport,
			// Redirects are followed hop by hop in fetchHTTP.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log:      logger.With(logger.Fields{"handle": id}),
		dialFTP:  dialFTP,
		ftpConns: make(map[string]ftpSession),
	}
}

// ID identifies the handle in logs.
func (h *Handle) ID() string { return h.id }

func (h *Handle) begin() error {
	if h.closed.Load() {
		return ErrHandleClosed
	}
	if !h.inUse.CompareAndSwap(false, true) {
		return ErrHandleBusy
	}
	return nil
}

func (h *Handle) end() {
	h.inUse.Store(false)
}

// Close drops idle connections and logs out of cached FTP sessions. The
// handle cannot be used afterwards. Close is idempotent.
func (h *Handle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	h.transport.CloseIdleConnections()

	h.mu.Lock()
	defer h.mu.Unlock()
	var firstErr error
	for key, conn := range h.ftpConns {
		if err := conn.Quit(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(h.ftpConns, key)
	}
	h.log.Debug("handle closed")
	return firstErr
}

// Pool hands out idle handles so that a worker can reuse connections set up
// by a previous worker.
type Pool struct {
	cfg HandleConfig

	mu     sync.Mutex
	idle   []*Handle
	closed bool
}

// NewPool creates an empty pool producing handles configured with cfg.
func NewPool(cfg HandleConfig) *Pool {
	return &Pool{cfg: cfg}
}

// Acquire returns an idle handle or a new one.
func (p *Pool) Acquire() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.idle); n > 0 {
		h := p.idle[n-1]
		p.idle = p.idle[:n-1]
		return h
	}
	return NewHandle(p.cfg)
}

// Release gives h back to the pool. After Close, released handles are closed.
func (p *Pool) Release(h *Handle) {
	if h == nil {
		return
	}
	p.mu.Lock()
	if p.closed || h.closed.Load() {
		p.mu.Unlock()
		_ = h.Close()
		return
	}
	p.idle = append(p.idle, h)
	p.mu.Unlock()
}

// Close closes every idle handle.
func (p *Pool) Close() error {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	var firstErr error
	for _, h := range idle {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
