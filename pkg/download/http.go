package download

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FetchInfo describes a completed transfer.
type FetchInfo struct {
	// URI is the location the body was finally read from, after redirects.
	URI          string
	ETag         string
	LastModified time.Time
	Bytes        int64
}

// fetchHTTP performs a GET for uri, following at most opts.FollowRedirects
// redirects, and streams a 200 body into w. A 304 answer to a conditional
// request returns ErrNotModified without touching w.
func fetchHTTP(ctx context.Context, h *Handle, cookies *CookieStore, origin *url.URL, w io.Writer, opts *Options, d Decision) (FetchInfo, error) {
	authn := opts.authenticator()
	current := origin

	for hop := 0; ; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current.String(), http.NoBody)
		if err != nil {
			return FetchInfo{}, newError(StatusParameterError, "request", current.String(), err)
		}
		h.prepareRequest(req, opts, d)
		if authn != nil && (opts.AllowCredentialFollow || sameHost(origin, current)) {
			if err := authn.Apply(req); err != nil {
				return FetchInfo{}, newError(StatusParameterError, "auth", current.String(), err)
			}
		}
		if opts.UseCookies {
			for _, c := range cookies.Cookies(current) {
				req.AddCookie(c)
			}
		}

		resp, err := h.client.Do(req)
		if err != nil {
			return FetchInfo{}, newError(StatusHTTPError, "request", current.String(), err)
		}
		if opts.UseCookies {
			cookies.SetCookies(current, resp.Cookies())
		}

		switch {
		case resp.StatusCode == http.StatusNotModified && d.Conditional():
			drain(resp)
			h.log.Debug("not modified", "uri", current.String())
			return FetchInfo{URI: current.String(), ETag: resp.Header.Get("ETag")}, ErrNotModified

		case isRedirect(resp.StatusCode):
			location := resp.Header.Get("Location")
			drain(resp)
			if hop >= opts.FollowRedirects {
				return FetchInfo{}, newError(StatusHTTPError, "redirect", current.String(),
					fmt.Errorf("%w: %d hops allowed", ErrRedirectLimit, opts.FollowRedirects))
			}
			if location == "" {
				return FetchInfo{}, newError(StatusHTTPError, "redirect", current.String(),
					fmt.Errorf("status %d without Location", resp.StatusCode))
			}
			next, err := current.Parse(location)
			if err != nil {
				return FetchInfo{}, newError(StatusHTTPError, "redirect", current.String(), err)
			}
			h.log.Debug("following redirect", "from", current.String(), "to", next.String(), "hop", hop+1)
			current = next
			continue

		case resp.StatusCode == http.StatusOK:
			return readBody(h, resp, current.String(), w)

		default:
			drain(resp)
			return FetchInfo{}, newError(StatusHTTPError, "response", current.String(),
				fmt.Errorf("unexpected status code: %d", resp.StatusCode))
		}
	}
}

func readBody(h *Handle, resp *http.Response, uri string, w io.Writer) (FetchInfo, error) {
	defer func() { _ = resp.Body.Close() }()

	n, err := copyBody(w, resp.Body, uri)
	if err != nil {
		return FetchInfo{}, err
	}

	info := FetchInfo{URI: uri, ETag: resp.Header.Get("ETag"), Bytes: n}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			info.LastModified = t
		}
	}
	h.log.Debug("transfer complete", "uri", uri, "size", humanize.Bytes(uint64(n)))
	return info, nil
}

// prepareRequest sets the User-Agent, Referer, custom and conditional headers.
func (h *Handle) prepareRequest(req *http.Request, opts *Options, d Decision) {
	ua := h.cfg.UserAgent
	if opts.UserAgent != "" {
		ua = opts.UserAgent
	}
	req.Header.Set("User-Agent", ua)
	if opts.Referer != "" {
		req.Header.Set("Referer", opts.Referer)
	}
	for _, hdr := range opts.Headers {
		req.Header.Add(hdr.Name, hdr.Value)
	}
	d.Apply(req.Header)
}

// writeTracker remembers whether a copy failed on the writing side.
type writeTracker struct {
	w   io.Writer
	err error
}

func (t *writeTracker) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}

// copyBody streams r into w, classifying a failed write as a local file
// error and a failed read as a transfer error.
func copyBody(w io.Writer, r io.Reader, uri string) (int64, error) {
	tracker := &writeTracker{w: w}
	n, err := io.Copy(tracker, r)
	if err != nil {
		if tracker.err != nil {
			return n, newError(StatusFileWriteError, "write", uri, tracker.err)
		}
		return n, newError(StatusHTTPError, "read", uri, err)
	}
	return n, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// sameHost compares host and effective port.
func sameHost(a, b *url.URL) bool {
	return strings.EqualFold(a.Hostname(), b.Hostname()) && effectivePort(a) == effectivePort(b)
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch u.Scheme {
	case "https":
		return "443"
	case "ftp":
		return "21"
	default:
		return "80"
	}
}

// hostPort returns u's host with the scheme's default port filled in.
func hostPort(u *url.URL) string {
	return net.JoinHostPort(u.Hostname(), effectivePort(u))
}
