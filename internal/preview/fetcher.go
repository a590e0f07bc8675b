// Package preview fetches stored layer previews over HTTP.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/gogpu/mockup"
)

// Errors.
var (
	// ErrHostNotAllowed is returned for URLs outside the allowed hosts.
	ErrHostNotAllowed = errors.New("preview: host not allowed")

	// ErrTooLarge is returned when a response body exceeds the size limit.
	ErrTooLarge = errors.New("preview: response too large")

	// ErrBadURL is returned for URLs that are not absolute http(s) URLs.
	ErrBadURL = errors.New("preview: invalid URL")

	// ErrPrivateAddress is returned when a host resolves to a loopback,
	// private or link-local address.
	ErrPrivateAddress = errors.New("preview: address not allowed")
)

const maxRedirects = 5

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("preview: GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Options configures an HTTPFetcher.
type Options struct {
	// Timeout bounds a single fetch, including the body read.
	// Zero means no timeout beyond the caller's context.
	Timeout time.Duration

	// MaxBytes caps the response body. Zero means no limit.
	MaxBytes int64

	// AllowedHosts restricts fetches to these host names (exact match,
	// case-insensitive). Empty allows any host. Every redirect hop is
	// checked as well.
	AllowedHosts []string

	// AllowPrivateNetworks lets fetches reach loopback, private and
	// link-local addresses. Off by default.
	AllowPrivateNetworks bool

	// Client replaces the default client. Its transport is used as is, so
	// the private address check does not apply to it.
	Client *http.Client
}

// HTTPFetcher implements mockup.Fetcher with plain GET requests.
type HTTPFetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	allowed  map[string]struct{}
}

var _ mockup.Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	f := &HTTPFetcher{
		timeout:  opts.Timeout,
		maxBytes: opts.MaxBytes,
	}
	if len(opts.AllowedHosts) > 0 {
		f.allowed = make(map[string]struct{}, len(opts.AllowedHosts))
		for _, h := range opts.AllowedHosts {
			f.allowed[strings.ToLower(h)] = struct{}{}
		}
	}

	var client http.Client
	if opts.Client != nil {
		client = *opts.Client
	} else {
		client.Transport = newTransport(opts.AllowPrivateNetworks)
	}
	client.CheckRedirect = f.checkRedirect
	f.client = &client
	return f
}

func newTransport(allowPrivate bool) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if !allowPrivate {
		dialer.Control = refusePrivate
	}
	return &http.Transport{
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        32,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// refusePrivate runs after name resolution, on the address being dialed.
func refusePrivate(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil || isPrivate(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, address)
	}
	return nil
}

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

func isPrivate(ip netip.Addr) bool {
	ip = ip.Unmap()
	return !ip.IsValid() ||
		ip.IsUnspecified() ||
		ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		sharedAddressSpace.Contains(ip)
}

// checkURL applies the scheme and host rules to one hop.
func (f *HTTPFetcher) checkURL(u *url.URL) error {
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrBadURL, u.Redacted())
	}
	if f.allowed != nil {
		if _, ok := f.allowed[strings.ToLower(u.Hostname())]; !ok {
			return fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Hostname())
		}
	}
	return nil
}

func (f *HTTPFetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("preview: stopped after %d redirects", maxRedirects)
	}
	return f.checkURL(req.URL)
}

// Fetch downloads rawURL. The returned body must be closed; reading past
// MaxBytes fails with ErrTooLarge.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}
	if err := f.checkURL(u); err != nil {
		return nil, err
	}

	cancel := context.CancelFunc(func() {})
	if f.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("preview: build request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("preview: GET %s: %w", u.Redacted(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		cancel()
		return nil, &StatusError{URL: u.Redacted(), StatusCode: resp.StatusCode}
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	mockup.Logger().Debug("preview: fetched",
		slog.String("host", u.Hostname()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	return &body{rc: resp.Body, remaining: f.maxBytes, limited: f.maxBytes > 0, cancel: cancel}, nil
}

// body enforces the size limit and releases the request context on Close.
type body struct {
	rc        io.ReadCloser
	remaining int64
	limited   bool
	cancel    context.CancelFunc
}

func (b *body) Read(p []byte) (int, error) {
	if !b.limited {
		return b.rc.Read(p)
	}
	if b.remaining < 0 {
		return 0, ErrTooLarge
	}
	// Allow one byte past the limit to detect oversize bodies.
	if int64(len(p)) > b.remaining+1 {
		p = p[:b.remaining+1]
	}
	n, err := b.rc.Read(p)
	b.remaining -= int64(n)
	if b.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

func (b *body) Close() error {
	err := b.rc.Close()
	b.cancel()
	return err
}
