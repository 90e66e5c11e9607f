package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"time"

	"code.dny.dev/ssrf"
)

var (
	ErrInsecureURL    = errors.New("only https urls can be fetched")
	ErrPrivateAddress = errors.New("url resolves to a non-public address")
)

const maxRedirects = 5

// guardian refuses loopback, private, link-local and other reserved ranges
var guardian = ssrf.New()

// NewPublicClient returns a client for user-supplied urls. It only speaks
// https, never dials a non-public address (redirects included) and ignores
// proxy settings from the environment.
func NewPublicClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   guardian.Safe,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: httpsOnly{next: transport},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// httpsOnly refuses every request, redirects included, that is not https
type httpsOnly struct {
	next http.RoundTripper
}

func (h httpsOnly) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrInsecureURL, req.URL.Redacted())
	}
	return h.next.RoundTrip(req)
}

// CheckPublicURL verifies that raw is an https url whose host only resolves
// to public addresses. Used where the fetch itself happens outside Go, as
// in headless Chrome.
func CheckPublicURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%w: %s", ErrInsecureURL, u.Redacted())
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("invalid url: missing host")
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", host, err)
	}
	for _, addr := range addrs {
		addr = addr.Unmap()
		network := "tcp6"
		if addr.Is4() {
			network = "tcp4"
		}
		if err := guardian.Safe(network, netip.AddrPortFrom(addr, 443).String(), nil); err != nil {
			return fmt.Errorf("%w: %s (%v)", ErrPrivateAddress, host, err)
		}
	}
	return nil
}
