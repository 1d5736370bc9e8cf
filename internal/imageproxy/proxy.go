// Package imageproxy serves backend media from this site's own origin, so
// pages never link to the backend host directly.
package imageproxy

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"archway-web/internal/logger"
)

const (
	DefaultTTL     = 24 * time.Hour
	defaultMaxSize = 15 << 20
	cacheControl   = "public, max-age=31536000, immutable"
)

// fallbackPixel is a transparent 1x1 GIF served when the backend cannot deliver an image.
var fallbackPixel, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

var (
	ErrInvalidPath = errors.New("invalid image path")
	ErrTooLarge    = errors.New("image too large")
	ErrNotAnImage  = errors.New("backend response is not an image")
)

type image struct {
	data        []byte
	contentType string
	fetchedAt   time.Time
}

// Proxy fetches images from the backend origin and keeps them in memory for its TTL.
type Proxy struct {
	origin  string
	client  *http.Client
	ttl     time.Duration
	maxSize int64
	lggr    logger.Logger
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]image
	group singleflight.Group

	stopOnce sync.Once
	ticker   *time.Ticker
	done     chan struct{}
	stopped  chan struct{}
}

type Option func(*Proxy)

func WithHTTPClient(hc *http.Client) Option {
	return func(p *Proxy) { p.client = hc }
}

func WithClock(now func() time.Time) Option {
	return func(p *Proxy) { p.now = now }
}

func WithMaxSize(n int64) Option {
	return func(p *Proxy) { p.maxSize = n }
}

func New(origin string, ttl time.Duration, lggr logger.Logger, opts ...Option) *Proxy {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	p := &Proxy{
		origin:  strings.TrimSuffix(origin, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		ttl:     ttl,
		maxSize: defaultMaxSize,
		lggr:    lggr.Named("imageproxy"),
		now:     time.Now,
		cache:   make(map[string]image),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AllowedPrefixes are the backend directories images may be proxied from.
var AllowedPrefixes = []string{"/media/", "/static/"}

// CleanPath validates a requested path and gives it a leading slash. Only
// paths under AllowedPrefixes on the backend origin are accepted.
func CleanPath(raw string) (string, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return "", ErrInvalidPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") || strings.Contains(path, "..") || strings.Contains(path, "\\") {
		return "", ErrInvalidPath
	}
	for _, prefix := range AllowedPrefixes {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			return path, nil
		}
	}
	return "", ErrInvalidPath
}

// Handle serves GET /api/image-proxy?path=<backend path>[&preload=true].
func (p *Proxy) Handle(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	raw := c.Query("path")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image path is required"})
		return
	}
	path, err := CleanPath(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image path"})
		return
	}

	if c.Query("preload") == "true" {
		if p.Cached(path) {
			c.Status(http.StatusNoContent)
			return
		}
		p.Preload(path)
		c.JSON(http.StatusAccepted, gin.H{"status": "preloading"})
		return
	}

	img, hit, err := p.Get(c.Request.Context(), path)
	if err != nil {
		p.lggr.Warnw("Serving fallback image", "path", path, "err", err)
		c.Header("X-Error", "true")
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "image/gif", fallbackPixel)
		return
	}

	c.Header("Cache-Control", cacheControl)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	if hit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.Data(http.StatusOK, img.contentType, img.data)
}

// Cached reports whether a fresh copy of path is in memory.
func (p *Proxy) Cached(path string) bool {
	_, ok := p.lookup(path)
	return ok
}

// Preload fetches path in the background.
func (p *Proxy) Preload(path string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.client.Timeout+time.Second)
		defer cancel()
		if _, _, err := p.Get(ctx, path); err != nil {
			p.lggr.Warnw("Background preload failed", "path", path, "err", err)
		}
	}()
}

// Get returns the image at path and whether it came from memory.
func (p *Proxy) Get(ctx context.Context, path string) (image, bool, error) {
	if img, ok := p.lookup(path); ok {
		return img, true, nil
	}

	ch := p.group.DoChan(path, func() (any, error) {
		img, err := p.fetch(context.WithoutCancel(ctx), path)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.cache[path] = img
		p.mu.Unlock()
		return img, nil
	})

	select {
	case <-ctx.Done():
		return image{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return image{}, false, res.Err
		}
		return res.Val.(image), false, nil
	}
}

func (p *Proxy) lookup(path string) (image, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	img, ok := p.cache[path]
	if !ok || p.now().Sub(img.fetchedAt) >= p.ttl {
		return image{}, false
	}
	return img, true
}

func (p *Proxy) fetch(ctx context.Context, path string) (image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.origin+path, nil)
	if err != nil {
		return image{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return image{}, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return image{}, fmt.Errorf("fetching %s: backend answered %s", path, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxSize+1))
	if err != nil {
		return image{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if int64(len(data)) > p.maxSize {
		return image{}, fmt.Errorf("%w: %s", ErrTooLarge, path)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return image{}, fmt.Errorf("%w: %s is %s", ErrNotAnImage, path, contentType)
	}

	p.lggr.Debugw("Proxied image", "path", path, "bytes", len(data), "content_type", contentType)
	return image{data: data, contentType: contentType, fetchedAt: p.now()}, nil
}

// Collect drops expired images and returns how many were dropped.
func (p *Proxy) Collect() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	now := p.now()
	for path, img := range p.cache {
		if now.Sub(img.fetchedAt) >= p.ttl {
			delete(p.cache, path)
			n++
		}
	}
	return n
}

func (p *Proxy) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.cache)
}

// Start drops expired images every interval until Stop is called.
func (p *Proxy) Start(interval time.Duration) {
	p.ticker = time.NewTicker(interval)
	go func() {
		defer close(p.stopped)
		for {
			select {
			case <-p.ticker.C:
				if n := p.Collect(); n > 0 {
					p.lggr.Debugw("Dropped expired images", "count", n)
				}
			case <-p.done:
				return
			}
		}
	}()
}

func (p *Proxy) Stop() {
	p.stopOnce.Do(func() {
		if p.ticker == nil {
			return
		}
		p.ticker.Stop()
		close(p.done)
		<-p.stopped
	})
}
