package download

import (
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandle_Defaults(t *testing.T) {
	h := NewHandle(HandleConfig{})
	defer h.Close()

	assert.NotEmpty(t, h.ID())
	assert.Equal(t, DefaultTimeout, h.cfg.Timeout)
	assert.Equal(t, DefaultConnectTimeout, h.cfg.ConnectTimeout)
	assert.Equal(t, "tilefetch/"+Version, h.cfg.UserAgent)

	h2 := NewHandle(HandleConfig{Timeout: time.Second, UserAgent: "x/1"})
	defer h2.Close()
	assert.NotEqual(t, h.ID(), h2.ID())
	assert.Equal(t, time.Second, h2.cfg.Timeout)
	assert.Equal(t, "x/1", h2.cfg.UserAgent)
}

func TestHandle_SingleUse(t *testing.T) {
	h := NewHandle(HandleConfig{})
	require.NoError(t, h.begin())
	assert.ErrorIs(t, h.begin(), ErrHandleBusy)
	h.end()
	require.NoError(t, h.begin())
	h.end()

	require.NoError(t, h.Close())
	assert.ErrorIs(t, h.begin(), ErrHandleClosed)
}

func TestPool(t *testing.T) {
	p := NewPool(HandleConfig{})

	a := p.Acquire()
	b := p.Acquire()
	assert.NotSame(t, a, b)

	p.Release(a)
	assert.Same(t, a, p.Acquire())
	p.Release(nil)

	p.Release(a)
	require.NoError(t, p.Close())
	assert.True(t, a.closed.Load())

	// Handles released after Close are closed instead of pooled.
	p.Release(b)
	assert.True(t, b.closed.Load())
}

func TestPool_Concurrent(t *testing.T) {
	p := NewPool(HandleConfig{})
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := p.Acquire()
			assert.NoError(t, h.begin())
			h.end()
			p.Release(h)
		}()
	}
	wg.Wait()
}

func TestCookieStore(t *testing.T) {
	s, err := NewCookieStore()
	require.NoError(t, err)

	tiles, _ := url.Parse("https://tiles.example.com/a")
	other, _ := url.Parse("https://example.org/")

	assert.Empty(t, s.Cookies(tiles))
	s.SetCookies(tiles, []*http.Cookie{{Name: "session", Value: "abc", Path: "/"}})

	got := s.Cookies(tiles)
	require.Len(t, got, 1)
	assert.Equal(t, "session", got[0].Name)
	assert.Equal(t, "abc", got[0].Value)
	assert.Empty(t, s.Cookies(other))
}

func TestSameHost(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"http://tiles.example.com/a", "http://TILES.example.com/b", true},
		{"http://tiles.example.com/a", "http://tiles.example.com:80/b", true},
		{"https://tiles.example.com/a", "https://tiles.example.com:443/b", true},
		{"http://tiles.example.com/a", "https://tiles.example.com/b", false},
		{"http://tiles.example.com/a", "http://cdn.example.com/b", false},
		{"http://127.0.0.1:8080/a", "http://127.0.0.1:8081/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+" "+tt.b, func(t *testing.T) {
			a, err := url.Parse(tt.a)
			require.NoError(t, err)
			b, err := url.Parse(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sameHost(a, b))
		})
	}
}
