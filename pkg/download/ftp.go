package download

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/glorpus-work/tilefetch/pkg/auth"
)

// ftpSession is the subset of *ftp.ServerConn the fetcher needs.
type ftpSession interface {
	Login(user, password string) error
	NoOp() error
	IsGetTimeSupported() bool
	GetTime(path string) (time.Time, error)
	Retr(path string) (io.ReadCloser, error)
	Quit() error
}

type ftpDialer func(addr string, timeout time.Duration) (ftpSession, error)

type serverConn struct {
	*ftp.ServerConn
}

func (c serverConn) Retr(path string) (io.ReadCloser, error) {
	return c.ServerConn.Retr(path)
}

func dialFTP(addr string, timeout time.Duration) (ftpSession, error) {
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return serverConn{conn}, nil
}

const anonymousUser = "anonymous"

// ftpSession returns a logged-in control connection for addr, reusing a
// cached one when it still answers NOOP.
func (h *Handle) ftpSession(addr, user, pass string) (ftpSession, string, error) {
	key := addr + "|" + user

	h.mu.Lock()
	conn, ok := h.ftpConns[key]
	h.mu.Unlock()
	if ok {
		if err := conn.NoOp(); err == nil {
			return conn, key, nil
		}
		h.dropFTP(key)
	}

	conn, err := h.dialFTP(addr, h.cfg.ConnectTimeout)
	if err != nil {
		return nil, key, err
	}
	if err := conn.Login(user, pass); err != nil {
		_ = conn.Quit()
		return nil, key, err
	}

	h.mu.Lock()
	h.ftpConns[key] = conn
	h.mu.Unlock()
	return conn, key, nil
}

func (h *Handle) dropFTP(key string) {
	h.mu.Lock()
	conn, ok := h.ftpConns[key]
	delete(h.ftpConns, key)
	h.mu.Unlock()
	if ok {
		_ = conn.Quit()
	}
}

// fetchFTP retrieves u into w. FTP has no conditional GET; when the server
// supports MDTM and CheckServerFreshness is set, a remote file that is not
// newer than the local copy yields ErrNotModified. Without MDTM the file is
// always transferred.
func fetchFTP(ctx context.Context, h *Handle, u *url.URL, w io.Writer, opts *Options, d Decision) (FetchInfo, error) {
	uri := u.String()
	user, pass := ftpCredentials(u, opts)

	conn, key, err := h.ftpSession(hostPort(u), user, pass)
	if err != nil {
		return FetchInfo{}, newError(StatusHTTPError, "connect", uri, err)
	}

	if opts.CheckServerFreshness && d.Exists && conn.IsGetTimeSupported() {
		remote, err := conn.GetTime(u.Path)
		switch {
		case err != nil:
			h.log.Debug("MDTM failed, fetching unconditionally", "uri", uri, "error", err)
		case !remote.After(d.ModTime):
			return FetchInfo{URI: uri, LastModified: remote}, ErrNotModified
		}
	}

	if err := ctx.Err(); err != nil {
		return FetchInfo{}, newError(StatusHTTPError, "retr", uri, err)
	}
	body, err := conn.Retr(u.Path)
	if err != nil {
		h.dropFTP(key)
		return FetchInfo{}, newError(StatusHTTPError, "retr", uri, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })

	n, copyErr := copyBody(w, body, uri)
	if stop() {
		if err := body.Close(); err != nil && copyErr == nil {
			copyErr = newError(StatusHTTPError, "retr", uri, err)
		}
	} else {
		// The context closed the data connection mid-transfer; the control
		// connection is in an unknown state.
		h.dropFTP(key)
		if copyErr == nil {
			copyErr = newError(StatusHTTPError, "retr", uri, ctx.Err())
		}
	}
	if copyErr != nil {
		return FetchInfo{}, copyErr
	}
	return FetchInfo{URI: uri, Bytes: n}, nil
}

// ftpCredentials prefers userinfo from the URI, then Options, then anonymous.
func ftpCredentials(u *url.URL, opts *Options) (string, string) {
	if u.User != nil {
		pass, _ := u.User.Password()
		return u.User.Username(), pass
	}
	if a := opts.authenticator(); a != nil {
		if user, pass, ok := auth.UserPassword(a); ok {
			return user, pass
		}
	}
	return anonymousUser, anonymousUser
}
