// Package urls rewrites backend URLs so they resolve from wherever they are used.
//
// The content API runs in a container that this server reaches as backend:8000
// while browsers reach it as localhost:8000. Every URL either gets fetched here
// (Server) or gets written into HTML for the browser to load (Browser), and the
// two need different hosts. Media is additionally routed through the
// same-origin image proxy so browsers never need to reach the backend at all.
package urls

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Context is where a URL will be dereferenced.
type Context int

const (
	// Server URLs are fetched by this process.
	Server Context = iota
	// Browser URLs are emitted into pages and fetched by the visitor's browser.
	Browser
)

func (c Context) String() string {
	if c == Browser {
		return "browser"
	}
	return "server"
}

const (
	DefaultInternalHost = "backend:8000"
	DefaultBrowserHost  = "localhost:8000"
	DefaultProxyPath    = "/api/image-proxy"
	DefaultPlaceholder  = "/images/placeholder.jpg"
	DefaultQuality      = 75
)

var uuidPattern = regexp.MustCompile(`[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`)

// Config holds the hosts and origins the Normalizer rewrites between.
// Zero values fall back to the docker-compose defaults.
type Config struct {
	InternalHost      string
	BrowserHost       string
	BackendURL        string
	BackendBrowserURL string
	APIURL            string
	APIBrowserURL     string
	ProxyPath         string
	Placeholder       string
}

// Normalizer applies the URL rewriting rules. It is immutable and safe for concurrent use.
type Normalizer struct {
	cfg          Config
	internalHTTP *regexp.Regexp
}

type Options struct {
	// UseDefaultImage substitutes the placeholder for empty or unusable URLs.
	UseDefaultImage bool
	// CheckHTTPProtocol treats URLs that are neither http(s) nor media paths as unusable.
	CheckHTTPProtocol bool
}

func New(cfg Config) *Normalizer {
	if cfg.InternalHost == "" {
		cfg.InternalHost = DefaultInternalHost
	}
	if cfg.BrowserHost == "" {
		cfg.BrowserHost = DefaultBrowserHost
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = "http://" + cfg.InternalHost
	}
	if cfg.BackendBrowserURL == "" {
		cfg.BackendBrowserURL = "http://" + cfg.BrowserHost
	}
	if cfg.ProxyPath == "" {
		cfg.ProxyPath = DefaultProxyPath
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultPlaceholder
	}
	cfg.BackendURL = strings.TrimSuffix(cfg.BackendURL, "/")
	cfg.BackendBrowserURL = strings.TrimSuffix(cfg.BackendBrowserURL, "/")

	hostname := cfg.InternalHost
	if i := strings.LastIndex(hostname, ":"); i >= 0 {
		hostname = hostname[:i]
	}

	return &Normalizer{
		cfg:          cfg,
		internalHTTP: regexp.MustCompile(`https?://` + regexp.QuoteMeta(hostname) + `:[0-9]+(.+)$`),
	}
}

// Placeholder is the image shown when no usable image URL exists.
func (n *Normalizer) Placeholder() string {
	return n.cfg.Placeholder
}

// ProxyPath is the route of the same-origin image proxy.
func (n *Normalizer) ProxyPath() string {
	return n.cfg.ProxyPath
}

// BackendOrigin is the scheme and host of the backend as seen from ctx.
func (n *Normalizer) BackendOrigin(ctx Context) string {
	if ctx == Browser {
		return n.cfg.BackendBrowserURL
	}
	return n.cfg.BackendURL
}

// APIBaseURL returns the content API root for ctx.
func (n *Normalizer) APIBaseURL(ctx Context) string {
	if ctx == Browser && n.cfg.APIBrowserURL != "" {
		return n.cfg.APIBrowserURL
	}
	if n.cfg.APIURL != "" {
		if ctx == Browser {
			return strings.ReplaceAll(n.cfg.APIURL, n.cfg.InternalHost, n.cfg.BrowserHost)
		}
		return n.cfg.APIURL
	}
	if ctx == Browser {
		return "http://" + n.cfg.BrowserHost + "/api/v1"
	}
	return "http://" + n.cfg.InternalHost + "/api/v1"
}

// MediaURL joins a backend media path onto the backend origin for ctx.
func (n *Normalizer) MediaURL(ctx Context, path string) string {
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return n.BackendOrigin(ctx) + path
}

// Normalize is the general rewriting rule the other helpers specialise.
func (n *Normalizer) Normalize(ctx Context, raw string, opts Options) string {
	if raw == "" {
		if opts.UseDefaultImage {
			return n.cfg.Placeholder
		}
		return ""
	}

	u := n.RewriteRequestURL(ctx, raw)

	switch {
	case strings.HasPrefix(u, "/media/"):
		u = n.BackendOrigin(ctx) + u
	case strings.HasPrefix(u, "media/"):
		u = n.BackendOrigin(ctx) + "/" + u
	}

	if opts.CheckHTTPProtocol && !strings.Contains(u, "http") && !strings.Contains(u, "media") {
		if opts.UseDefaultImage {
			return n.cfg.Placeholder
		}
	}

	return u
}

// NormalizeImageURL is the strict variant: anything that does not look like
// a fetchable image becomes the placeholder.
func (n *Normalizer) NormalizeImageURL(ctx Context, raw string) string {
	return n.Normalize(ctx, raw, Options{UseDefaultImage: true, CheckHTTPProtocol: true})
}

// FixImageURL only fills in the placeholder for empty URLs.
func (n *Normalizer) FixImageURL(ctx Context, raw string) string {
	return n.Normalize(ctx, raw, Options{UseDefaultImage: true})
}

// ProxyImageURL rewrites a backend image URL to go through the image proxy.
// Applying it twice yields the same URL.
func (n *Normalizer) ProxyImageURL(ctx Context, raw string) string {
	if raw == "" {
		return n.cfg.Placeholder
	}
	if ctx == Server || n.isProxied(raw) {
		return raw
	}

	if i := strings.Index(raw, "/media/"); i >= 0 && len(raw) > i+len("/media/") {
		return n.proxy("/media/" + url.QueryEscape(raw[i+len("/media/"):]))
	}
	if rest, ok := strings.CutPrefix(raw, "media/"); ok {
		return n.proxy("/media/" + url.QueryEscape(rest))
	}

	if m := n.internalHTTP.FindStringSubmatch(raw); m != nil {
		return n.proxy(url.QueryEscape(m[1]))
	}
	if strings.Contains(raw, n.cfg.InternalHost) {
		return strings.ReplaceAll(raw, n.cfg.InternalHost, n.cfg.BrowserHost)
	}

	return raw
}

// RewriteRequestURL swaps the internal host for the browser host in Browser context.
func (n *Normalizer) RewriteRequestURL(ctx Context, raw string) string {
	if ctx != Browser {
		return raw
	}
	return strings.ReplaceAll(raw, n.cfg.InternalHost, n.cfg.BrowserHost)
}

// ImageLoaderURL builds the src for a responsive image at the given width.
// External and data URLs are returned untouched; URLs served by this site's
// API get w and q parameters appended. A zero quality means DefaultQuality.
func (n *Normalizer) ImageLoaderURL(src string, width, quality int) string {
	if strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "data:") {
		return src
	}

	src = strings.Replace(src, n.cfg.InternalHost, n.cfg.BrowserHost, 1)
	if width <= 0 {
		return src
	}
	if !strings.Contains(src, "/api/") && !strings.Contains(src, "/_next/image") {
		return src
	}

	if quality <= 0 {
		quality = DefaultQuality
	}
	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}
	return src + sep + "w=" + strconv.Itoa(width) + "&q=" + strconv.Itoa(quality)
}

// ContainsUUIDHash reports whether u embeds a UUID, as backend upload paths often do.
func ContainsUUIDHash(u string) bool {
	return u != "" && uuidPattern.MatchString(u)
}

func (n *Normalizer) proxy(escapedPath string) string {
	return n.cfg.ProxyPath + "?path=" + escapedPath
}

func (n *Normalizer) isProxied(raw string) bool {
	return strings.HasPrefix(raw, n.cfg.ProxyPath+"?")
}
