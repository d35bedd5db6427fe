package download

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// CookieStore is the cookie jar shared by every fetch that sets UseCookies.
// Workers read and update it concurrently, so all access is serialized.
type CookieStore struct {
	mu  sync.Mutex
	jar *cookiejar.Jar
}

// NewCookieStore creates an empty store using the public suffix list to
// scope domain cookies.
func NewCookieStore() (*CookieStore, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &CookieStore{jar: jar}, nil
}

// Cookies returns the cookies to send to u.
func (c *CookieStore) Cookies(u *url.URL) []*http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jar.Cookies(u)
}

// SetCookies records cookies received from u.
func (c *CookieStore) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jar.SetCookies(u, cookies)
}
