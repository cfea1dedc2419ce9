package favicon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngIcon = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type server struct {
	*httptest.Server
	hits atomic.Int32
}

// newServer serves /icon.png, /text and /redirect/<n> which redirects n
// times before serving the icon.
func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{}
	mux := http.NewServeMux()
	mux.HandleFunc("/icon.png", func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		_, _ = w.Write(pngIcon)
	})
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		_, _ = w.Write([]byte("hello"))
	})
	mux.HandleFunc("/redirect/", func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/redirect/"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if n == 0 {
			_, _ = w.Write(pngIcon)
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/redirect/%d", n-1), http.StatusFound)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newFetcher(t *testing.T, opts ...Option) *Fetcher {
	t.Helper()
	return NewFetcher(zerolog.Nop(), filepath.Join(t.TempDir(), "favicons"), opts...)
}

func TestCacheName(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", CacheName(""))
	assert.True(t, strings.HasSuffix(CacheName("http://example.org/favicon.ico"), ".ico"))
	assert.False(t, strings.Contains(CacheName("http://example.org/icon"), "."))
	assert.NotEqual(t, CacheName("http://a/favicon.ico"), CacheName("http://b/favicon.ico"))
}

func TestFetch_LocalFileUnchanged(t *testing.T) {
	f := newFetcher(t)
	got, err := f.Fetch(context.Background(), "file:///usr/share/icons/icon.png")
	require.NoError(t, err)
	assert.Equal(t, "file:///usr/share/icons/icon.png", got)
	assert.NoDirExists(t, f.CacheDir())
}

func TestFetch_CachesIcon(t *testing.T) {
	srv := newServer(t)
	f := newFetcher(t)
	iconURL := srv.URL + "/icon.png"

	got, err := f.Fetch(context.Background(), iconURL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.hits.Load())

	path := filepath.Join(f.CacheDir(), CacheName(iconURL))
	assert.True(t, strings.HasPrefix(got, "file://"))
	assert.True(t, strings.HasSuffix(got, CacheName(iconURL)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngIcon, data)

	again, err := f.Fetch(context.Background(), iconURL)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, int32(1), srv.hits.Load(), "served from cache")
}

func TestFetch_ExpiredCacheIsRefreshed(t *testing.T) {
	srv := newServer(t)
	now := time.Now()
	f := newFetcher(t, WithClock(func() time.Time { return now }))
	iconURL := srv.URL + "/icon.png"

	_, err := f.Fetch(context.Background(), iconURL)
	require.NoError(t, err)

	old := now.Add(-101 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(f.CacheDir(), CacheName(iconURL)), old, old))

	_, err = f.Fetch(context.Background(), iconURL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestFetch_NotAnImage(t *testing.T) {
	srv := newServer(t)
	f := newFetcher(t)

	_, err := f.Fetch(context.Background(), srv.URL+"/text")
	require.ErrorIs(t, err, ErrNotAnImage)
	assert.NoFileExists(t, filepath.Join(f.CacheDir(), CacheName(srv.URL+"/text")))
}

func TestFetch_FollowsRedirects(t *testing.T) {
	srv := newServer(t)
	f := newFetcher(t)

	_, err := f.Fetch(context.Background(), srv.URL+"/redirect/3")
	require.NoError(t, err)
	assert.Equal(t, int32(4), srv.hits.Load())
}

func TestFetch_TooManyRedirects(t *testing.T) {
	srv := newServer(t)
	f := newFetcher(t)

	_, err := f.Fetch(context.Background(), srv.URL+"/redirect/10")
	require.ErrorIs(t, err, ErrTooManyRedirects)
	assert.Equal(t, int32(MaxRedirects), srv.hits.Load())
}

func TestFetch_WithoutCache(t *testing.T) {
	srv := newServer(t)
	f := newFetcher(t, WithoutCache())

	got, err := f.Fetch(context.Background(), srv.URL+"/icon.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:image/png;base64,"))
	assert.NoDirExists(t, f.CacheDir())
}

func TestFetch_InvalidURL(t *testing.T) {
	f := newFetcher(t)
	_, err := f.Fetch(context.Background(), "not a url")
	require.ErrorIs(t, err, ErrInvalidURL)
}

func TestFetch_ServerError(t *testing.T) {
	srv := newServer(t)
	f := newFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
