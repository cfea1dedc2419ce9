// Package favicon downloads site icons into a local cache.
package favicon

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	// MaxRedirects is the number of redirects a fetch follows before failing.
	MaxRedirects = 5
	// DefaultMaxAge is how long a cached icon is reused.
	DefaultMaxAge = 100 * 24 * time.Hour

	userAgent = "Mozilla"
)

var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrNotAnImage       = errors.New("response is not an image")
	ErrInvalidURL       = errors.New("invalid icon url")
)

// Fetcher resolves icon URLs to local file:// URLs, downloading and caching
// remote icons. With caching disabled it returns data: URLs instead.
type Fetcher struct {
	log      zerolog.Logger
	client   *resty.Client
	cacheDir string
	cache    bool
	maxAge   time.Duration
	now      func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds each round trip.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.SetTimeout(d)
		}
	}
}

// WithoutCache returns icons inline as data: URLs.
func WithoutCache() Option {
	return func(f *Fetcher) { f.cache = false }
}

// WithMaxAge changes how long cached icons are reused.
func WithMaxAge(d time.Duration) Option {
	return func(f *Fetcher) { f.maxAge = d }
}

// WithClock sets the time source used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// NewFetcher creates a Fetcher storing icons in cacheDir.
func NewFetcher(log zerolog.Logger, cacheDir string, opts ...Option) *Fetcher {
	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(_ *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		}))

	f := &Fetcher{
		log:      log.With().Str("component", "favicon").Logger(),
		client:   client,
		cacheDir: cacheDir,
		cache:    true,
		maxAge:   DefaultMaxAge,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CacheDir returns the cache directory.
func (f *Fetcher) CacheDir() string {
	return f.cacheDir
}

// CacheName returns the cache file name of an icon URL: the md5 of the URL
// followed by whatever follows its last dot.
func CacheName(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	name := hex.EncodeToString(sum[:])
	if i := strings.LastIndex(rawURL, "."); i >= 0 {
		ext := rawURL[i:]
		if !strings.ContainsAny(ext, "/?#") {
			name += ext
		}
	}
	return name
}

// Fetch returns a local URL for the icon at rawURL. file:// URLs are returned
// unchanged, fresh cache entries are reused, anything else is downloaded.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if u.Scheme == "file" {
		return rawURL, nil
	}

	path := filepath.Join(f.cacheDir, CacheName(rawURL))
	if f.cache {
		if info, err := os.Stat(path); err == nil && f.now().Sub(info.ModTime()) < f.maxAge {
			f.log.Debug().Str("url", rawURL).Str("path", path).Msg("cached icon")
			return fileURL(path), nil
		}
	}

	data, err := f.download(ctx, rawURL)
	if err != nil {
		f.log.Warn().Err(err).Str("url", rawURL).Msg("failed to download icon")
		return "", err
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotAnImage, mime.String())
	}

	if !f.cache {
		return "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write icon: %w", err)
	}

	return fileURL(path), nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode())
	}
	return resp.Body(), nil
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
