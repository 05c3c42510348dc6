package notify

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// Outbound webhook URLs are operator-supplied and end up being POSTed to
// from inside the deployment's network, so they get SSRF screening before
// any request is made: no loopback, no private ranges, no cloud metadata
// endpoints, no obvious encoding bypasses.

var blockedHosts = map[string]bool{
	"localhost":                true,
	"127.0.0.1":                true,
	"::1":                      true,
	"0.0.0.0":                  true,
	"metadata.google":          true,
	"metadata":                 true,
	"169.254.169.254":          true, // AWS/Azure/GCP metadata endpoint
	"metadata.google.internal": true,
}

var blockedPrefixes = []string{
	"10.",
	"192.168.",
	"172.16.", "172.17.", "172.18.", "172.19.",
	"172.20.", "172.21.", "172.22.", "172.23.",
	"172.24.", "172.25.", "172.26.", "172.27.",
	"172.28.", "172.29.", "172.30.", "172.31.",
	"fd",      // IPv6 unique-local
	"fe80:",   // IPv6 link-local
	"::ffff:", // IPv4-mapped IPv6
}

var blockedSuffixes = []string{
	".local",
	".internal",
	".localhost",
	".localdomain",
	".corp",
	".home",
	".lan",
}

// ValidateWebhookURL screens rawURL against the SSRF rules above. It is
// called both at channel-save time (plugin config validation) and again
// immediately before every send.
func ValidateWebhookURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != schemeHTTP && u.Scheme != schemeHTTPS {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	lowerHost := strings.ToLower(hostname)
	if blockedHosts[lowerHost] {
		return fmt.Errorf("access to %q is not allowed (blocked host)", hostname)
	}
	for _, prefix := range blockedPrefixes {
		if strings.HasPrefix(lowerHost, prefix) {
			return fmt.Errorf("access to %q is not allowed (private network)", hostname)
		}
	}
	for _, suffix := range blockedSuffixes {
		if strings.HasSuffix(lowerHost, suffix) {
			return fmt.Errorf("access to %q is not allowed (internal hostname)", hostname)
		}
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if err := validateIP(ip); err != nil {
			return fmt.Errorf("access to %q is not allowed: %w", hostname, err)
		}
	}

	if containsLocalhostBypass(rawURL) {
		return fmt.Errorf("URL contains localhost bypass attempt")
	}

	return nil
}

// validateIP rejects addresses that point back into the deployment.
func validateIP(ip net.IP) error {
	if ip.IsLoopback() {
		return fmt.Errorf("loopback address")
	}
	if ip.IsPrivate() {
		return fmt.Errorf("private address")
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("link-local address")
	}
	if ip.IsUnspecified() {
		return fmt.Errorf("unspecified address")
	}
	return nil
}

// containsLocalhostBypass catches the usual encodings of loopback that
// survive url.Parse: percent-encoded names, hex/octal/decimal IP forms,
// and credential/fragment tricks.
func containsLocalhostBypass(rawURL string) bool {
	bypasses := []string{
		"%6c%6f%63%61%6c%68%6f%73%74", // localhost, percent-encoded
		"%31%32%37%2e%30%2e%30%2e%31", // 127.0.0.1, percent-encoded
		"0x7f.0x0.0x0.0x1",
		"0177.0.0.01",
		"2130706433", // decimal 127.0.0.1
		"@localhost",
		"@127.0.0.1",
		"#localhost",
		"#127.0.0.1",
	}

	lowerURL := strings.ToLower(rawURL)
	for _, bypass := range bypasses {
		if strings.Contains(lowerURL, bypass) {
			return true
		}
	}
	return false
}

// NewSafeTransport builds an HTTP transport that re-checks resolved IPs at
// dial time. A hostname can pass ValidateWebhookURL while public and later
// resolve to an internal address (DNS rebinding); the dial hook closes
// that gap.
func NewSafeTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, fmt.Errorf("invalid address %q: %w", addr, err)
			}

			ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
			if err != nil {
				return nil, fmt.Errorf("DNS lookup failed for %q: %w", host, err)
			}

			for _, ip := range ips {
				if err := validateIP(ip); err != nil {
					return nil, fmt.Errorf("DNS rebinding protection: %q resolved to blocked IP %s: %w", host, ip, err)
				}
			}

			if len(ips) > 0 {
				addr = net.JoinHostPort(ips[0].String(), port)
			}
			return dialer.DialContext(ctx, network, addr)
		},
	}
}
