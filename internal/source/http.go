package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultUserAgent   = "fygallery"
)

// HTTPOptions configure an HTTP source.
type HTTPOptions struct {
	// Origin is sent on cross-origin reads. Defaults to the base URL's origin,
	// in which case reads are same-origin and need no CORS grant.
	Origin  string
	Timeout time.Duration
	// Client replaces the default client, mostly for tests.
	Client *http.Client
	// Now replaces time.Now for cache-busting stamps.
	Now func() time.Time
}

// HTTP reads assets relative to a base URL.
type HTTP struct {
	base       *url.URL
	origin     string
	sameOrigin bool
	client     *http.Client
	now        func() time.Time
}

// NewHTTP returns an HTTP source resolving names against baseURL.
func NewHTTP(baseURL string, opts HTTPOptions) (*HTTP, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	baseOrigin := u.Scheme + "://" + u.Host
	origin := strings.TrimSuffix(opts.Origin, "/")
	if origin == "" {
		origin = baseOrigin
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &HTTP{
		base:       u,
		origin:     origin,
		sameOrigin: strings.EqualFold(origin, baseOrigin),
		client:     client,
		now:        now,
	}, nil
}

// URL resolves an asset name, adding the cache-busting parameter when asked.
func (h *HTTP) URL(name string, opts FetchOptions) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(name, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid asset name %q: %w", name, err)
	}
	u := h.base.ResolveReference(ref)
	s := u.String()
	if opts.CacheBust {
		sep := "?"
		if strings.Contains(s, "?") {
			sep = "&"
		}
		s += sep + "t=" + strconv.FormatInt(h.now().UnixMilli(), 10)
	}
	return s, nil
}

// Open implements Source.
func (h *HTTP) Open(ctx context.Context, name string, opts FetchOptions) (io.ReadCloser, error) {
	target, err := h.URL(name, opts)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", target, err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	if opts.CrossOrigin {
		req.Header.Set("Origin", h.origin)
		req.Header.Set("Sec-Fetch-Mode", "cors")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", target, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: unexpected status %d", target, resp.StatusCode)
	}
	if opts.CrossOrigin && !h.sameOrigin {
		allowed := resp.Header.Get("Access-Control-Allow-Origin")
		if allowed != "*" && allowed != h.origin {
			resp.Body.Close()
			return nil, fmt.Errorf("%s: %w", target, ErrCrossOrigin)
		}
	}
	return resp.Body, nil
}
